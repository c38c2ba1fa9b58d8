// Package dto defines the request and response shapes of the HTTP API
package dto

import (
	"time"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
)

// SubmitReservationRequest creates a reservation. The requester is
// taken from the authenticated context, not the body.
type SubmitReservationRequest struct {
	ResourceType  string            `json:"resourceType" binding:"required"`
	ResourceID    string            `json:"resourceId" binding:"required"`
	CapacityUnits int               `json:"capacityUnits" binding:"required,gt=0"`
	Metadata      map[string]string `json:"metadata"`
}

// RejectReservationRequest carries the rejection reason
type RejectReservationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelReservationRequest carries an optional cancellation reason
type CancelReservationRequest struct {
	Reason string `json:"reason"`
}

// ConfirmPaymentRequest is the §6 confirmation payload, identical for
// the client callback and the gateway webhook.
type ConfirmPaymentRequest struct {
	ReservationID  string `json:"reservationId" binding:"required"`
	GatewayOrderID string `json:"gatewayOrderId" binding:"required"`
	PaymentID      string `json:"paymentId" binding:"required"`
	Signature      string `json:"signature" binding:"required"`
}

// WebhookRequest is the server-to-server delivery. Event selects the
// action; payment.captured is the default.
type WebhookRequest struct {
	Event          string `json:"event"`
	ReservationID  string `json:"reservationId" binding:"required"`
	GatewayOrderID string `json:"gatewayOrderId"`
	PaymentID      string `json:"paymentId"`
	Signature      string `json:"signature"`
	Reason         string `json:"reason"`
}

// StatusChangeResponse is one history entry
type StatusChangeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Note      string    `json:"note,omitempty"`
}

// ReservationResponse is the API view of a reservation
type ReservationResponse struct {
	ID                     string                 `json:"id"`
	HumanID                string                 `json:"humanId"`
	ResourceType           string                 `json:"resourceType"`
	ResourceID             string                 `json:"resourceId"`
	RequesterID            string                 `json:"requesterId"`
	ApproverID             string                 `json:"approverId,omitempty"`
	CapacityUnits          int                    `json:"capacityUnits"`
	Amount                 int64                  `json:"amount"`
	Currency               string                 `json:"currency"`
	Status                 string                 `json:"status"`
	PaymentIntentRef       string                 `json:"paymentIntentRef,omitempty"`
	PaymentConfirmationRef string                 `json:"paymentConfirmationRef,omitempty"`
	Metadata               map[string]string      `json:"metadata,omitempty"`
	StatusHistory          []StatusChangeResponse `json:"statusHistory"`
	CreatedAt              time.Time              `json:"createdAt"`
	UpdatedAt              time.Time              `json:"updatedAt"`
}

// FromDomain converts a reservation to its API shape
func FromDomain(r *domain.Reservation) *ReservationResponse {
	history := make([]StatusChangeResponse, len(r.StatusHistory))
	for i, h := range r.StatusHistory {
		history[i] = StatusChangeResponse{
			Status:    string(h.Status),
			Timestamp: h.Timestamp,
			Actor:     h.Actor,
			Note:      h.Note,
		}
	}
	return &ReservationResponse{
		ID:                     r.ID,
		HumanID:                r.HumanID,
		ResourceType:           string(r.ResourceType),
		ResourceID:             r.ResourceID,
		RequesterID:            r.RequesterID,
		ApproverID:             r.ApproverID,
		CapacityUnits:          r.CapacityUnits,
		Amount:                 r.Amount,
		Currency:               r.Currency,
		Status:                 string(r.Status),
		PaymentIntentRef:       r.PaymentIntentRef,
		PaymentConfirmationRef: r.PaymentConfirmationRef,
		Metadata:               r.Metadata,
		StatusHistory:          history,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}

// FromDomainList converts a slice of reservations
func FromDomainList(rs []*domain.Reservation) []*ReservationResponse {
	out := make([]*ReservationResponse, len(rs))
	for i, r := range rs {
		out[i] = FromDomain(r)
	}
	return out
}
