package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
	"github.com/snehachy12/campus-event-system-sub002/internal/dto"
	"github.com/snehachy12/campus-event-system-sub002/internal/middleware"
	"github.com/snehachy12/campus-event-system-sub002/internal/response"
	"github.com/snehachy12/campus-event-system-sub002/internal/service"
)

// ReservationHandler exposes the reservation lifecycle over HTTP
type ReservationHandler struct {
	svc *service.ReservationService
}

func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

// Submit handles POST /api/v1/reservations
func (h *ReservationHandler) Submit(c *gin.Context) {
	var req dto.SubmitReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	r, err := h.svc.Submit(c.Request.Context(), service.SubmitInput{
		ResourceType:  domain.ResourceType(req.ResourceType),
		ResourceID:    req.ResourceID,
		RequesterID:   middleware.UserID(c),
		CapacityUnits: req.CapacityUnits,
		Metadata:      req.Metadata,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, dto.FromDomain(r))
}

// Get handles GET /api/v1/reservations/:id
func (h *ReservationHandler) Get(c *gin.Context) {
	r, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto.FromDomain(r))
}

// List handles GET /api/v1/reservations. A resourceId query parameter
// lists everything against that resource; otherwise the requesterId
// parameter, defaulting to the caller, selects by requester.
func (h *ReservationHandler) List(c *gin.Context) {
	if resourceID := c.Query("resourceId"); resourceID != "" {
		rs, err := h.svc.ListByResource(c.Request.Context(), resourceID)
		if err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, dto.FromDomainList(rs))
		return
	}

	requesterID := c.Query("requesterId")
	if requesterID == "" {
		requesterID = middleware.UserID(c)
	}

	rs, err := h.svc.ListByRequester(c.Request.Context(), requesterID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto.FromDomainList(rs))
}

// Approve handles PUT /api/v1/reservations/:id/approve
func (h *ReservationHandler) Approve(c *gin.Context) {
	r, err := h.svc.Approve(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto.FromDomain(r))
}

// Reject handles PUT /api/v1/reservations/:id/reject
func (h *ReservationHandler) Reject(c *gin.Context) {
	var req dto.RejectReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	r, err := h.svc.Reject(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto.FromDomain(r))
}

// Cancel handles PUT /api/v1/reservations/:id/cancel
func (h *ReservationHandler) Cancel(c *gin.Context) {
	var req dto.CancelReservationRequest
	_ = c.ShouldBindJSON(&req)

	r, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto.FromDomain(r))
}

// RequestPayment handles POST /api/v1/reservations/:id/payment, the
// retry path after a transient gateway failure.
func (h *ReservationHandler) RequestPayment(c *gin.Context) {
	r, err := h.svc.RequestPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto.FromDomain(r))
}
