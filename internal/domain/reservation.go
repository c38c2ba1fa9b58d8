package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StatusChange is one entry of the append-only status history
type StatusChange struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Note      string    `json:"note,omitempty"`
}

// Reservation is the central entity of the reconciliation core. It is
// mutated only through the named transition methods below; direct field
// assignment from outside the package is not part of the contract.
type Reservation struct {
	ID                     string            `json:"id"`
	HumanID                string            `json:"human_id"`
	ResourceType           ResourceType      `json:"resource_type"`
	ResourceID             string            `json:"resource_id"`
	RequesterID            string            `json:"requester_id"`
	ApproverID             string            `json:"approver_id,omitempty"`
	CapacityUnits          int               `json:"capacity_units"`
	Amount                 int64             `json:"amount"` // minor units, frozen at submission
	Currency               string            `json:"currency"`
	Status                 Status            `json:"status"`
	PaymentIntentRef       string            `json:"payment_intent_ref,omitempty"`
	PaymentConfirmationRef string            `json:"payment_confirmation_ref,omitempty"`
	Metadata               map[string]string `json:"metadata,omitempty"`
	StatusHistory          []StatusChange    `json:"status_history"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at"`
}

// NewReservation builds a reservation in pending_review with the price
// frozen from the catalog at this moment.
func NewReservation(humanID string, res *Resource, requesterID string, capacityUnits int, metadata map[string]string) *Reservation {
	now := time.Now().UTC()
	r := &Reservation{
		ID:            uuid.New().String(),
		HumanID:       humanID,
		ResourceType:  res.Type,
		ResourceID:    res.ID,
		RequesterID:   requesterID,
		CapacityUnits: capacityUnits,
		Amount:        int64(capacityUnits) * res.UnitPrice,
		Currency:      res.Currency,
		Status:        StatusPendingReview,
		Metadata:      metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.StatusHistory = []StatusChange{{
		Status:    StatusPendingReview,
		Timestamp: now,
		Actor:     requesterID,
		Note:      "submitted",
	}}
	return r
}

// transitionTo is the only writer of Status and StatusHistory
func (r *Reservation) transitionTo(target Status, actor, note string) error {
	if !r.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, target)
	}
	now := time.Now().UTC()
	r.Status = target
	r.UpdatedAt = now
	r.StatusHistory = append(r.StatusHistory, StatusChange{
		Status:    target,
		Timestamp: now,
		Actor:     actor,
		Note:      note,
	})
	return nil
}

// Approve moves pending_review -> approved and records the approver
func (r *Reservation) Approve(approverID string) error {
	if r.Status != StatusPendingReview {
		return fmt.Errorf("%w: approve requires pending_review, got %s", ErrInvalidTransition, r.Status)
	}
	if err := r.transitionTo(StatusApproved, approverID, "approved"); err != nil {
		return err
	}
	r.ApproverID = approverID
	return nil
}

// Reject moves pending_review -> rejected
func (r *Reservation) Reject(approverID, reason string) error {
	if r.Status != StatusPendingReview {
		return fmt.Errorf("%w: reject requires pending_review, got %s", ErrInvalidTransition, r.Status)
	}
	if err := r.transitionTo(StatusRejected, approverID, reason); err != nil {
		return err
	}
	r.ApproverID = approverID
	return nil
}

// Cancel moves any non-terminal state -> cancelled
func (r *Reservation) Cancel(actorID, reason string) error {
	if r.Status.IsTerminal() {
		return fmt.Errorf("%w: cannot cancel %s reservation", ErrInvalidTransition, r.Status)
	}
	return r.transitionTo(StatusCancelled, actorID, reason)
}

// StartPayment moves into payment_pending and records the gateway order.
// Callers transition only after the intent was created, so a reservation
// in payment_pending always has a payable intent.
func (r *Reservation) StartPayment(gatewayOrderID, actor string) error {
	if err := r.transitionTo(StatusPaymentPending, actor, "payment intent "+gatewayOrderID); err != nil {
		return err
	}
	r.PaymentIntentRef = gatewayOrderID
	return nil
}

// Complete records the confirmed payment and moves to completed.
// PaymentConfirmationRef is set exactly once.
func (r *Reservation) Complete(paymentID, actor string) error {
	if r.PaymentConfirmationRef != "" {
		return fmt.Errorf("%w: payment already confirmed with %s", ErrInvalidTransition, r.PaymentConfirmationRef)
	}
	note := "completed"
	if paymentID != "" {
		note = "payment " + paymentID
	}
	if err := r.transitionTo(StatusCompleted, actor, note); err != nil {
		return err
	}
	r.PaymentConfirmationRef = paymentID
	return nil
}

// FailPayment moves payment_pending -> payment_failed
func (r *Reservation) FailPayment(reason string) error {
	if r.Status != StatusPaymentPending {
		return fmt.Errorf("%w: payment failure requires payment_pending, got %s", ErrInvalidTransition, r.Status)
	}
	return r.transitionTo(StatusPaymentFailed, "gateway", reason)
}

// IsConfirmedWith reports whether this exact payment already completed
// the reservation. Used for idempotent webhook replay.
func (r *Reservation) IsConfirmedWith(paymentID string) bool {
	return r.Status == StatusCompleted && paymentID != "" && r.PaymentConfirmationRef == paymentID
}

// IsFree reports whether the reservation needs no payment
func (r *Reservation) IsFree() bool {
	return r.Amount == 0
}

// Clone returns a deep copy safe to hand across goroutines
func (r *Reservation) Clone() *Reservation {
	cp := *r
	cp.StatusHistory = make([]StatusChange, len(r.StatusHistory))
	copy(cp.StatusHistory, r.StatusHistory)
	if r.Metadata != nil {
		cp.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
