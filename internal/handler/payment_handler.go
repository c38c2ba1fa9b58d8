package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/snehachy12/campus-event-system-sub002/internal/dto"
	"github.com/snehachy12/campus-event-system-sub002/internal/response"
	"github.com/snehachy12/campus-event-system-sub002/internal/service"
)

// PaymentHandler exposes the reconciliation entry points. The client
// callback and the gateway webhook carry the same payload and run
// through the same verified Confirm.
type PaymentHandler struct {
	recon *service.ReconciliationService
}

func NewPaymentHandler(recon *service.ReconciliationService) *PaymentHandler {
	return &PaymentHandler{recon: recon}
}

// Confirm handles POST /api/v1/payments/confirm, the client-side
// callback after the payer finishes checkout.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	r, err := h.recon.Confirm(c.Request.Context(),
		req.ReservationID, req.GatewayOrderID, req.PaymentID, req.Signature)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto.FromDomain(r))
}

// Webhook handles POST /api/v1/payments/webhook, the authoritative
// server-to-server delivery. Unauthenticated at the transport level;
// the HMAC signature inside the payload is the authentication.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var req dto.WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	switch req.Event {
	case "payment.failed":
		r, err := h.recon.FailFromWebhook(c.Request.Context(),
			req.ReservationID, req.GatewayOrderID, req.PaymentID, req.Signature, req.Reason)
		if err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, dto.FromDomain(r))
	default:
		// payment.captured and legacy deliveries without an event field
		r, err := h.recon.Confirm(c.Request.Context(),
			req.ReservationID, req.GatewayOrderID, req.PaymentID, req.Signature)
		if err != nil {
			writeError(c, err)
			return
		}
		response.Success(c, dto.FromDomain(r))
	}
}
