package domain

import (
	"errors"
	"testing"
)

func testResource() *Resource {
	return &Resource{
		ID:               "venue-1",
		Type:             ResourceVenue,
		Name:             "Main Auditorium",
		Capacity:         100,
		UnitPrice:        50000,
		Currency:         "INR",
		RequiresApproval: true,
	}
}

func newTestReservation() *Reservation {
	return NewReservation("VEN-2026-0001", testResource(), "user-1", 2, nil)
}

func TestNewReservation_FreezesPriceAtSubmission(t *testing.T) {
	r := newTestReservation()

	if r.Status != StatusPendingReview {
		t.Errorf("Expected pending_review, got %s", r.Status)
	}
	if r.Amount != 100000 {
		t.Errorf("Expected amount 100000, got %d", r.Amount)
	}
	if r.Currency != "INR" {
		t.Errorf("Expected currency INR, got %s", r.Currency)
	}
	if len(r.StatusHistory) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(r.StatusHistory))
	}
	if r.StatusHistory[0].Status != StatusPendingReview {
		t.Errorf("Expected first history entry pending_review, got %s", r.StatusHistory[0].Status)
	}
}

func TestReservation_FullPaidLifecycle(t *testing.T) {
	r := newTestReservation()

	if err := r.Approve("admin-1"); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if r.ApproverID != "admin-1" {
		t.Errorf("Expected approver admin-1, got %s", r.ApproverID)
	}
	if err := r.StartPayment("order_abc", "user-1"); err != nil {
		t.Fatalf("StartPayment failed: %v", err)
	}
	if r.PaymentIntentRef != "order_abc" {
		t.Errorf("Expected intent ref order_abc, got %s", r.PaymentIntentRef)
	}
	if err := r.Complete("pay_123", "gateway"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if r.Status != StatusCompleted {
		t.Errorf("Expected completed, got %s", r.Status)
	}
	if r.PaymentConfirmationRef != "pay_123" {
		t.Errorf("Expected confirmation ref pay_123, got %s", r.PaymentConfirmationRef)
	}
	if len(r.StatusHistory) != 4 {
		t.Errorf("Expected 4 history entries, got %d", len(r.StatusHistory))
	}
}

func TestReservation_TerminalStatesAreImmutable(t *testing.T) {
	terminal := []func(r *Reservation){
		func(r *Reservation) { r.Reject("admin-1", "no slots") },
		func(r *Reservation) { r.Cancel("user-1", "changed plans") },
		func(r *Reservation) {
			r.Approve("admin-1")
			r.StartPayment("order_x", "user-1")
			r.Complete("pay_x", "gateway")
		},
		func(r *Reservation) {
			r.Approve("admin-1")
			r.StartPayment("order_x", "user-1")
			r.FailPayment("card declined")
		},
	}

	for _, reach := range terminal {
		r := newTestReservation()
		reach(r)
		if !r.Status.IsTerminal() {
			t.Fatalf("Setup did not reach terminal state, got %s", r.Status)
		}

		before := r.Clone()
		attempts := []error{
			r.Approve("admin-2"),
			r.Reject("admin-2", "late"),
			r.Cancel("user-1", "again"),
			r.StartPayment("order_y", "user-1"),
			r.FailPayment("late failure"),
		}
		for _, err := range attempts {
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Expected ErrInvalidTransition from %s, got %v", before.Status, err)
			}
		}
		if r.Status != before.Status {
			t.Errorf("Status changed from %s to %s after rejected transitions", before.Status, r.Status)
		}
		if len(r.StatusHistory) != len(before.StatusHistory) {
			t.Errorf("History grew from %d to %d after rejected transitions", len(before.StatusHistory), len(r.StatusHistory))
		}
	}
}

func TestReservation_ConfirmationRefSetOnce(t *testing.T) {
	r := newTestReservation()
	r.Approve("admin-1")
	r.StartPayment("order_abc", "user-1")

	if err := r.Complete("pay_123", "gateway"); err != nil {
		t.Fatalf("First Complete failed: %v", err)
	}
	err := r.Complete("pay_456", "gateway")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on second Complete, got %v", err)
	}
	if r.PaymentConfirmationRef != "pay_123" {
		t.Errorf("Confirmation ref overwritten: %s", r.PaymentConfirmationRef)
	}

	if !r.IsConfirmedWith("pay_123") {
		t.Error("Expected IsConfirmedWith to match the stored payment id")
	}
	if r.IsConfirmedWith("pay_456") {
		t.Error("Expected IsConfirmedWith to reject a different payment id")
	}
}

func TestReservation_RejectedTransitionHasNoSideEffect(t *testing.T) {
	r := newTestReservation()
	r.Approve("admin-1")

	before := r.Clone()
	if err := r.Reject("admin-2", "too late"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got %v", err)
	}
	if r.Status != before.Status || r.ApproverID != before.ApproverID {
		t.Error("Rejected transition mutated the record")
	}
	if len(r.StatusHistory) != len(before.StatusHistory) {
		t.Error("Rejected transition appended history")
	}
}

func TestReservation_FreeOrderSkipsPayment(t *testing.T) {
	free := &Resource{
		ID:        "food-1",
		Type:      ResourceFoodOrder,
		Name:      "Water Bottle",
		Capacity:  500,
		UnitPrice: 0,
		Currency:  "INR",
	}
	r := NewReservation("ORD-2026-0042", free, "user-2", 3, nil)

	if !r.IsFree() {
		t.Fatal("Expected free reservation")
	}
	if err := r.Complete("", "system"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if r.Status != StatusCompleted {
		t.Errorf("Expected completed, got %s", r.Status)
	}
	if r.PaymentIntentRef != "" || r.PaymentConfirmationRef != "" {
		t.Error("Free reservation should carry no payment refs")
	}
}

func TestReservation_CloneIsIndependent(t *testing.T) {
	r := newTestReservation()
	r.Metadata = map[string]string{"purpose": "seminar"}

	cp := r.Clone()
	cp.Approve("admin-1")
	cp.Metadata["purpose"] = "party"

	if r.Status != StatusPendingReview {
		t.Error("Clone mutation leaked into original status")
	}
	if len(r.StatusHistory) != 1 {
		t.Error("Clone mutation leaked into original history")
	}
	if r.Metadata["purpose"] != "seminar" {
		t.Error("Clone mutation leaked into original metadata")
	}
}
