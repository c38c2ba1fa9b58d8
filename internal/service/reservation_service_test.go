package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/snehachy12/campus-event-system-sub002/internal/catalog"
	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
	"github.com/snehachy12/campus-event-system-sub002/internal/gateway"
	"github.com/snehachy12/campus-event-system-sub002/internal/repository"
)

const testSecret = "test-webhook-secret"

type testEnv struct {
	svc     *ReservationService
	recon   *ReconciliationService
	repo    *repository.MemoryReservationRepository
	guard   *repository.MemoryCapacityGuard
	catalog *catalog.MemoryCatalog
	gateway *gateway.MockGateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		repo:    repository.NewMemoryReservationRepository(),
		guard:   repository.NewMemoryCapacityGuard(),
		catalog: catalog.NewMemoryCatalog(),
		gateway: gateway.NewMockGateway(),
	}
	env.svc = NewReservationService(env.repo, env.guard, env.catalog, env.gateway, NoOpNotifier{})
	env.recon = NewReconciliationService(env.repo, env.guard, NoOpNotifier{}, testSecret)

	env.catalog.Seed(&domain.Resource{
		ID: "venue-1", Type: domain.ResourceVenue, Name: "Auditorium",
		Capacity: 1, UnitPrice: 50000, Currency: "INR", RequiresApproval: true,
	})
	env.catalog.Seed(&domain.Resource{
		ID: "event-1", Type: domain.ResourceEventTicket, Name: "Tech Fest",
		Capacity: 100, UnitPrice: 500, Currency: "INR", RequiresApproval: true,
	})
	env.catalog.Seed(&domain.Resource{
		ID: "food-free", Type: domain.ResourceFoodOrder, Name: "Water Bottle",
		Capacity: 50, UnitPrice: 0, Currency: "INR", RequiresApproval: false,
	})
	env.catalog.Seed(&domain.Resource{
		ID: "food-paid", Type: domain.ResourceFoodOrder, Name: "Lunch Thali",
		Capacity: 50, UnitPrice: 8000, Currency: "INR", RequiresApproval: false,
	})
	return env
}

func submitVenue(t *testing.T, env *testEnv) *domain.Reservation {
	t.Helper()
	r, err := env.svc.Submit(context.Background(), SubmitInput{
		ResourceType:  domain.ResourceVenue,
		ResourceID:    "venue-1",
		RequesterID:   "user-1",
		CapacityUnits: 1,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	return r
}

func TestSubmit_Validation(t *testing.T) {
	env := newTestEnv(t)
	cases := []SubmitInput{
		{ResourceType: "boat", ResourceID: "venue-1", RequesterID: "user-1", CapacityUnits: 1},
		{ResourceType: domain.ResourceVenue, RequesterID: "user-1", CapacityUnits: 1},
		{ResourceType: domain.ResourceVenue, ResourceID: "venue-1", CapacityUnits: 1},
		{ResourceType: domain.ResourceVenue, ResourceID: "venue-1", RequesterID: "user-1", CapacityUnits: 0},
		{ResourceType: domain.ResourceVenue, ResourceID: "venue-1", RequesterID: "user-1", CapacityUnits: -2},
	}
	for _, in := range cases {
		if _, err := env.svc.Submit(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Submit(%+v): expected ErrValidation, got %v", in, err)
		}
	}
}

func TestSubmit_ResourceNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Submit(context.Background(), SubmitInput{
		ResourceType: domain.ResourceVenue, ResourceID: "missing",
		RequesterID: "user-1", CapacityUnits: 1,
	})
	if !errors.Is(err, domain.ErrResourceNotFound) {
		t.Errorf("Expected ErrResourceNotFound, got %v", err)
	}
}

func TestSubmit_TypeMismatch(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Submit(context.Background(), SubmitInput{
		ResourceType: domain.ResourceEventTicket, ResourceID: "venue-1",
		RequesterID: "user-1", CapacityUnits: 1,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Expected ErrValidation for type mismatch, got %v", err)
	}
}

func TestSubmit_PendingReviewWithHumanID(t *testing.T) {
	env := newTestEnv(t)
	r := submitVenue(t, env)

	if r.Status != domain.StatusPendingReview {
		t.Errorf("Expected pending_review, got %s", r.Status)
	}
	if r.Amount != 50000 {
		t.Errorf("Expected amount 50000, got %d", r.Amount)
	}
	if len(r.HumanID) == 0 || r.HumanID[:4] != "VEN-" {
		t.Errorf("Expected VEN- prefixed human id, got %q", r.HumanID)
	}

	held, _ := env.guard.Held(context.Background(), "venue-1")
	if held != 1 {
		t.Errorf("Expected 1 unit held after submission, got %d", held)
	}
}

func TestSubmit_CapacityExceededLeavesNothingBehind(t *testing.T) {
	env := newTestEnv(t)
	submitVenue(t, env)

	_, err := env.svc.Submit(context.Background(), SubmitInput{
		ResourceType: domain.ResourceVenue, ResourceID: "venue-1",
		RequesterID: "user-2", CapacityUnits: 1,
	})
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("Expected ErrCapacityExceeded, got %v", err)
	}

	list, _ := env.repo.ListByRequester(context.Background(), "user-2")
	if len(list) != 0 {
		t.Errorf("Expected no partial reservation, found %d", len(list))
	}
	held, _ := env.guard.Held(context.Background(), "venue-1")
	if held != 1 {
		t.Errorf("Expected held to stay 1, got %d", held)
	}
}

// Two concurrent submissions race for the last unit: exactly one wins
func TestSubmit_ConcurrentLastUnit(t *testing.T) {
	env := newTestEnv(t)

	const contenders = 2
	results := make(chan error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			_, err := env.svc.Submit(context.Background(), SubmitInput{
				ResourceType: domain.ResourceVenue, ResourceID: "venue-1",
				RequesterID: user, CapacityUnits: 1,
			})
			results <- err
		}("user-" + string(rune('a'+i)))
	}
	wg.Wait()
	close(results)

	var wins, capacityFailures int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrCapacityExceeded):
			capacityFailures++
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if wins != 1 || capacityFailures != 1 {
		t.Errorf("Expected 1 win and 1 capacity failure, got %d and %d", wins, capacityFailures)
	}
}

func TestSubmit_FreeNoApprovalCompletesImmediately(t *testing.T) {
	env := newTestEnv(t)
	r, err := env.svc.Submit(context.Background(), SubmitInput{
		ResourceType: domain.ResourceFoodOrder, ResourceID: "food-free",
		RequesterID: "user-1", CapacityUnits: 2,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if r.Status != domain.StatusCompleted {
		t.Errorf("Expected completed, got %s", r.Status)
	}
	if r.Amount != 0 {
		t.Errorf("Expected amount 0, got %d", r.Amount)
	}
}

func TestSubmit_PaidNoApprovalEntersPaymentPending(t *testing.T) {
	env := newTestEnv(t)
	r, err := env.svc.Submit(context.Background(), SubmitInput{
		ResourceType: domain.ResourceFoodOrder, ResourceID: "food-paid",
		RequesterID: "user-1", CapacityUnits: 1,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if r.Status != domain.StatusPaymentPending {
		t.Errorf("Expected payment_pending, got %s", r.Status)
	}
	if r.PaymentIntentRef == "" {
		t.Error("Expected a payment intent ref")
	}
}

// Intent creation fails at submission: nothing persisted, hold released
func TestSubmit_GatewayFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.FailWith(domain.ErrGatewayRejected)

	_, err := env.svc.Submit(context.Background(), SubmitInput{
		ResourceType: domain.ResourceFoodOrder, ResourceID: "food-paid",
		RequesterID: "user-1", CapacityUnits: 1,
	})
	if !errors.Is(err, domain.ErrGatewayRejected) {
		t.Fatalf("Expected ErrGatewayRejected, got %v", err)
	}

	list, _ := env.repo.ListByRequester(context.Background(), "user-1")
	if len(list) != 0 {
		t.Errorf("Expected no orphaned reservation, found %d", len(list))
	}
	held, _ := env.guard.Held(context.Background(), "food-paid")
	if held != 0 {
		t.Errorf("Expected hold released, got %d", held)
	}
}

func TestApprove_PaidFlowReachesPaymentPending(t *testing.T) {
	env := newTestEnv(t)
	r := submitVenue(t, env)

	approved, err := env.svc.Approve(context.Background(), r.ID, "admin-1")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != domain.StatusPaymentPending {
		t.Errorf("Expected payment_pending, got %s", approved.Status)
	}
	if approved.PaymentIntentRef == "" {
		t.Error("Expected a payment intent ref after approval")
	}
	if approved.ApproverID != "admin-1" {
		t.Errorf("Expected approver admin-1, got %s", approved.ApproverID)
	}
}

func TestApprove_OnlyFromPendingReview(t *testing.T) {
	env := newTestEnv(t)
	r := submitVenue(t, env)

	if _, err := env.svc.Approve(context.Background(), r.ID, "admin-1"); err != nil {
		t.Fatalf("First approve failed: %v", err)
	}
	_, err := env.svc.Approve(context.Background(), r.ID, "admin-2")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on second approve, got %v", err)
	}
}

// Resource capacity shrank between submission and approval
func TestApprove_RecheckCapacity(t *testing.T) {
	env := newTestEnv(t)
	r := submitVenue(t, env)

	env.catalog.Seed(&domain.Resource{
		ID: "venue-1", Type: domain.ResourceVenue, Name: "Auditorium",
		Capacity: 0, UnitPrice: 50000, Currency: "INR", RequiresApproval: true,
	})

	_, err := env.svc.Approve(context.Background(), r.ID, "admin-1")
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("Expected ErrCapacityExceeded, got %v", err)
	}
	stored, _ := env.repo.GetByID(context.Background(), r.ID)
	if stored.Status != domain.StatusPendingReview {
		t.Errorf("Expected reservation to stay pending_review, got %s", stored.Status)
	}
}

// Scenario D: a free reservation that still needs approval skips
// payment entirely and completes on approval.
func TestApprove_FreeReservationCompletesDirectly(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.Seed(&domain.Resource{
		ID: "food-banquet", Type: domain.ResourceFoodOrder, Name: "Sponsored Banquet",
		Capacity: 20, UnitPrice: 0, Currency: "INR", RequiresApproval: true,
	})

	r, err := env.svc.Submit(context.Background(), SubmitInput{
		ResourceType: domain.ResourceFoodOrder, ResourceID: "food-banquet",
		RequesterID: "user-1", CapacityUnits: 5,
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if r.Status != domain.StatusPendingReview {
		t.Fatalf("Expected pending_review, got %s", r.Status)
	}

	approved, err := env.svc.Approve(context.Background(), r.ID, "admin-1")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != domain.StatusCompleted {
		t.Errorf("Expected completed, got %s", approved.Status)
	}
	if approved.PaymentIntentRef != "" || approved.PaymentConfirmationRef != "" {
		t.Error("Free reservation must not carry payment refs")
	}
}

// Transient gateway failure keeps the reservation approved for retry
func TestApprove_GatewayUnavailableRetainsApproved(t *testing.T) {
	env := newTestEnv(t)
	r := submitVenue(t, env)
	env.gateway.FailWith(domain.ErrGatewayUnavailable)

	_, err := env.svc.Approve(context.Background(), r.ID, "admin-1")
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Fatalf("Expected ErrGatewayUnavailable, got %v", err)
	}
	stored, _ := env.repo.GetByID(context.Background(), r.ID)
	if stored.Status != domain.StatusApproved {
		t.Errorf("Expected approved after transient failure, got %s", stored.Status)
	}

	env.gateway.FailWith(nil)
	retried, err := env.svc.RequestPayment(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("RequestPayment retry failed: %v", err)
	}
	if retried.Status != domain.StatusPaymentPending {
		t.Errorf("Expected payment_pending after retry, got %s", retried.Status)
	}
}

// Permanent gateway rejection cancels the reservation and frees the hold
func TestRequestPayment_RejectionCancelsReservation(t *testing.T) {
	env := newTestEnv(t)
	r := submitVenue(t, env)
	env.gateway.FailWith(domain.ErrGatewayRejected)

	_, err := env.svc.Approve(context.Background(), r.ID, "admin-1")
	if !errors.Is(err, domain.ErrGatewayRejected) {
		t.Fatalf("Expected ErrGatewayRejected, got %v", err)
	}

	stored, _ := env.repo.GetByID(context.Background(), r.ID)
	if stored.Status != domain.StatusCancelled {
		t.Errorf("Expected cancelled after rejection, got %s", stored.Status)
	}
	if stored.Status == domain.StatusPaymentPending && stored.PaymentIntentRef == "" {
		t.Error("Reservation left in payment_pending without an intent")
	}
	held, _ := env.guard.Held(context.Background(), "venue-1")
	if held != 0 {
		t.Errorf("Expected hold released, got %d", held)
	}
}

func TestReject_ReleasesHold(t *testing.T) {
	env := newTestEnv(t)
	r := submitVenue(t, env)

	rejected, err := env.svc.Reject(context.Background(), r.ID, "admin-1", "slot maintenance")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.Status != domain.StatusRejected {
		t.Errorf("Expected rejected, got %s", rejected.Status)
	}

	// The freed unit can be taken again
	if _, err := env.svc.Submit(context.Background(), SubmitInput{
		ResourceType: domain.ResourceVenue, ResourceID: "venue-1",
		RequesterID: "user-2", CapacityUnits: 1,
	}); err != nil {
		t.Errorf("Submit after reject failed: %v", err)
	}
}

func TestCancel_ReleasesHoldFromAnyActiveState(t *testing.T) {
	env := newTestEnv(t)
	r := submitVenue(t, env)

	cancelled, err := env.svc.Cancel(context.Background(), r.ID, "user-1", "changed plans")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled.Status != domain.StatusCancelled {
		t.Errorf("Expected cancelled, got %s", cancelled.Status)
	}
	held, _ := env.guard.Held(context.Background(), "venue-1")
	if held != 0 {
		t.Errorf("Expected hold released, got %d", held)
	}

	_, err = env.svc.Cancel(context.Background(), r.ID, "user-1", "again")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on double cancel, got %v", err)
	}
}

func TestHumanIDs_SequentialPerScope(t *testing.T) {
	env := newTestEnv(t)

	a, _ := env.svc.Submit(context.Background(), SubmitInput{
		ResourceType: domain.ResourceEventTicket, ResourceID: "event-1",
		RequesterID: "user-1", CapacityUnits: 1,
	})
	b, _ := env.svc.Submit(context.Background(), SubmitInput{
		ResourceType: domain.ResourceEventTicket, ResourceID: "event-1",
		RequesterID: "user-2", CapacityUnits: 1,
	})
	if a.HumanID == b.HumanID {
		t.Errorf("Expected distinct human ids, both are %s", a.HumanID)
	}
	if a.HumanID[:4] != "TKT-" || b.HumanID[:4] != "TKT-" {
		t.Errorf("Expected TKT- prefix, got %s and %s", a.HumanID, b.HumanID)
	}
}
