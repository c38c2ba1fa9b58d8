package domain

// Status represents the reservation lifecycle state
type Status string

const (
	StatusPendingReview  Status = "pending_review"
	StatusApproved       Status = "approved"
	StatusPaymentPending Status = "payment_pending"
	StatusCompleted      Status = "completed"
	StatusRejected       Status = "rejected"
	StatusCancelled      Status = "cancelled"
	StatusPaymentFailed  Status = "payment_failed"
)

// transitions is the single source of truth for the lifecycle.
// Edges not listed here do not exist.
var transitions = map[Status][]Status{
	StatusPendingReview:  {StatusApproved, StatusRejected, StatusCancelled, StatusPaymentPending, StatusCompleted},
	StatusApproved:       {StatusPaymentPending, StatusCompleted, StatusCancelled},
	StatusPaymentPending: {StatusCompleted, StatusPaymentFailed, StatusCancelled},
	StatusCompleted:      {},
	StatusRejected:       {},
	StatusCancelled:      {},
	StatusPaymentFailed:  {},
}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether the status admits no further transitions
func (s Status) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo reports whether the edge s -> target exists
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// HoldsCapacity reports whether a reservation in this status counts
// toward the resource's capacity. Holds are taken at submission and
// released the moment the reservation leaves this set.
func (s Status) HoldsCapacity() bool {
	switch s {
	case StatusPendingReview, StatusApproved, StatusPaymentPending, StatusCompleted:
		return true
	}
	return false
}
