package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/snehachy12/campus-event-system-sub002/internal/catalog"
	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
	"github.com/snehachy12/campus-event-system-sub002/internal/gateway"
	"github.com/snehachy12/campus-event-system-sub002/internal/logger"
	"github.com/snehachy12/campus-event-system-sub002/internal/repository"
	"github.com/snehachy12/campus-event-system-sub002/internal/telemetry"
)

// SubmitInput carries a new reservation request
type SubmitInput struct {
	ResourceType  domain.ResourceType
	ResourceID    string
	RequesterID   string
	CapacityUnits int
	Metadata      map[string]string
}

// ReservationService owns the reservation lifecycle: validation,
// capacity holds, id generation and the named state transitions.
type ReservationService struct {
	repo     repository.ReservationRepository
	guard    repository.CapacityGuard
	catalog  catalog.ResourceCatalog
	gateway  gateway.PaymentGateway
	notifier Notifier
	log      *logger.Logger
}

func NewReservationService(
	repo repository.ReservationRepository,
	guard repository.CapacityGuard,
	cat catalog.ResourceCatalog,
	gw gateway.PaymentGateway,
	notifier Notifier,
) *ReservationService {
	return &ReservationService{
		repo:     repo,
		guard:    guard,
		catalog:  cat,
		gateway:  gw,
		notifier: notifier,
		log:      logger.Get().With(zap.String("service", "reservation")),
	}
}

// Submit validates the request, atomically holds capacity, and persists
// the reservation. Resources that need no approval skip review: free
// ones complete immediately, paid ones go straight to payment_pending
// with an intent already created. Nothing is persisted on any failure.
func (s *ReservationService) Submit(ctx context.Context, in SubmitInput) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "reservation.submit")
	defer span.End()

	if err := validateSubmit(in); err != nil {
		return nil, err
	}

	resource, err := s.catalog.GetResource(ctx, in.ResourceID)
	if err != nil {
		return nil, err
	}
	if resource.Type != in.ResourceType {
		return nil, fmt.Errorf("%w: resource %s is %s, not %s",
			domain.ErrValidation, in.ResourceID, resource.Type, in.ResourceType)
	}
	if !resource.Window.Contains(time.Now().UTC()) {
		return nil, fmt.Errorf("%w: resource %s is outside its availability window",
			domain.ErrValidation, in.ResourceID)
	}

	// Check-and-hold is a single atomic operation against the guard
	if err := s.guard.Hold(ctx, resource.ID, in.CapacityUnits, resource.Capacity); err != nil {
		return nil, err
	}

	humanID, err := s.nextHumanID(ctx, in.ResourceType)
	if err != nil {
		s.releaseHold(ctx, resource.ID, in.CapacityUnits)
		return nil, err
	}

	r := domain.NewReservation(humanID, resource, in.RequesterID, in.CapacityUnits, in.Metadata)

	if !resource.RequiresApproval {
		if r.IsFree() {
			if err := r.Complete("", "system"); err != nil {
				s.releaseHold(ctx, resource.ID, in.CapacityUnits)
				return nil, err
			}
		} else {
			intent, err := s.gateway.CreateOrder(ctx, r.Amount, r.Currency, r.HumanID)
			if err != nil {
				// Compensating rollback: the record was never persisted,
				// so releasing the hold leaves no trace behind.
				s.releaseHold(ctx, resource.ID, in.CapacityUnits)
				return nil, err
			}
			if err := r.StartPayment(intent.GatewayOrderID, in.RequesterID); err != nil {
				s.releaseHold(ctx, resource.ID, in.CapacityUnits)
				return nil, err
			}
		}
	}

	if err := s.repo.Create(ctx, r); err != nil {
		s.releaseHold(ctx, resource.ID, in.CapacityUnits)
		return nil, fmt.Errorf("persisting reservation: %w", err)
	}

	s.log.Info("reservation submitted",
		zap.String("reservation_id", r.ID),
		zap.String("human_id", r.HumanID),
		zap.String("resource_id", r.ResourceID),
		zap.String("status", string(r.Status)))
	s.notifier.ReservationChanged(ctx, r, "reservation.submitted")
	return r, nil
}

// Approve moves a pending reservation forward. Capacity is re-checked
// against the catalog because availability may have shrunk since
// submission. Free reservations complete immediately; paid ones get a
// payment intent via requestPayment.
func (s *ReservationService) Approve(ctx context.Context, reservationID, approverID string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "reservation.approve")
	defer span.End()

	if approverID == "" {
		return nil, fmt.Errorf("%w: approverId is required", domain.ErrValidation)
	}

	r, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	resource, err := s.catalog.GetResource(ctx, r.ResourceID)
	if err != nil {
		return nil, err
	}
	held, err := s.guard.Held(ctx, r.ResourceID)
	if err != nil {
		return nil, fmt.Errorf("re-checking capacity: %w", err)
	}
	if held > resource.Capacity {
		return nil, fmt.Errorf("%w: capacity shrank below committed holds", domain.ErrCapacityExceeded)
	}

	if err := r.Approve(approverID); err != nil {
		return nil, err
	}
	if r.IsFree() {
		if err := r.Complete("", approverID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, r, domain.StatusPendingReview); err != nil {
		return nil, err
	}

	s.log.Info("reservation approved",
		zap.String("reservation_id", r.ID),
		zap.String("approver_id", approverID),
		zap.String("status", string(r.Status)))

	if r.Status == domain.StatusCompleted {
		s.notifier.ReservationChanged(ctx, r, "reservation.completed")
		return r, nil
	}
	s.notifier.ReservationChanged(ctx, r, "reservation.approved")

	return s.RequestPayment(ctx, reservationID)
}

// Reject declines a pending reservation and releases its hold
func (s *ReservationService) Reject(ctx context.Context, reservationID, approverID, reason string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "reservation.reject")
	defer span.End()

	if approverID == "" {
		return nil, fmt.Errorf("%w: approverId is required", domain.ErrValidation)
	}

	r, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := r.Reject(approverID, reason); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r, domain.StatusPendingReview); err != nil {
		return nil, err
	}

	// Only the transition winner reaches this point, so the hold is
	// released exactly once.
	s.releaseHold(ctx, r.ResourceID, r.CapacityUnits)

	s.log.Info("reservation rejected",
		zap.String("reservation_id", r.ID),
		zap.String("approver_id", approverID),
		zap.String("reason", reason))
	s.notifier.ReservationChanged(ctx, r, "reservation.rejected")
	return r, nil
}

// Cancel works from any non-terminal state and releases the hold
func (s *ReservationService) Cancel(ctx context.Context, reservationID, actorID, reason string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "reservation.cancel")
	defer span.End()

	if actorID == "" {
		return nil, fmt.Errorf("%w: actorId is required", domain.ErrValidation)
	}

	r, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	prior := r.Status
	if err := r.Cancel(actorID, reason); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r, prior); err != nil {
		return nil, err
	}

	if prior.HoldsCapacity() {
		s.releaseHold(ctx, r.ResourceID, r.CapacityUnits)
	}

	s.log.Info("reservation cancelled",
		zap.String("reservation_id", r.ID),
		zap.String("actor_id", actorID),
		zap.String("prior_status", string(prior)))
	s.notifier.ReservationChanged(ctx, r, "reservation.cancelled")
	return r, nil
}

// RequestPayment creates a gateway intent for an approved reservation
// and moves it to payment_pending. A transient gateway failure leaves
// the reservation approved so the caller can retry. A permanent
// rejection cancels it and releases the hold, the compensating action
// that prevents orphaned unpayable reservations.
func (s *ReservationService) RequestPayment(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "reservation.request_payment")
	defer span.End()

	r, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	// Already has a payable intent, nothing to do
	if r.Status == domain.StatusPaymentPending && r.PaymentIntentRef != "" {
		return r, nil
	}
	if r.Status != domain.StatusApproved {
		return nil, fmt.Errorf("%w: payment request requires approved, got %s",
			domain.ErrInvalidTransition, r.Status)
	}

	intent, err := s.gateway.CreateOrder(ctx, r.Amount, r.Currency, r.HumanID)
	if err != nil {
		if errors.Is(err, domain.ErrGatewayRejected) {
			return nil, s.compensateRejectedIntent(ctx, r, err)
		}
		s.log.Warn("payment intent creation failed, reservation retained",
			zap.String("reservation_id", r.ID),
			zap.Error(err))
		return nil, err
	}

	if err := r.StartPayment(intent.GatewayOrderID, r.RequesterID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r, domain.StatusApproved); err != nil {
		return nil, err
	}

	s.log.Info("payment requested",
		zap.String("reservation_id", r.ID),
		zap.String("gateway_order_id", intent.GatewayOrderID),
		zap.Int64("amount", r.Amount))
	s.notifier.ReservationChanged(ctx, r, "reservation.payment_requested")
	return r, nil
}

// GetByID returns one reservation
func (s *ReservationService) GetByID(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	return s.repo.GetByID(ctx, reservationID)
}

// ListByRequester returns a requester's reservations oldest first
func (s *ReservationService) ListByRequester(ctx context.Context, requesterID string) ([]*domain.Reservation, error) {
	if requesterID == "" {
		return nil, fmt.Errorf("%w: requesterId is required", domain.ErrValidation)
	}
	return s.repo.ListByRequester(ctx, requesterID)
}

// ListByResource returns every reservation against one resource,
// oldest first. This is the reviewer's view of a venue or event.
func (s *ReservationService) ListByResource(ctx context.Context, resourceID string) ([]*domain.Reservation, error) {
	if resourceID == "" {
		return nil, fmt.Errorf("%w: resourceId is required", domain.ErrValidation)
	}
	return s.repo.ListByResource(ctx, resourceID)
}

func (s *ReservationService) compensateRejectedIntent(ctx context.Context, r *domain.Reservation, cause error) error {
	prior := r.Status
	if err := r.Cancel("system", "payment intent rejected by gateway"); err != nil {
		return errors.Join(cause, err)
	}
	if err := s.repo.Update(ctx, r, prior); err != nil {
		return errors.Join(cause, err)
	}
	s.releaseHold(ctx, r.ResourceID, r.CapacityUnits)

	s.log.Warn("reservation cancelled after gateway rejection",
		zap.String("reservation_id", r.ID),
		zap.Error(cause))
	s.notifier.ReservationChanged(ctx, r, "reservation.cancelled")
	return cause
}

func (s *ReservationService) releaseHold(ctx context.Context, resourceID string, units int) {
	if err := s.guard.Release(ctx, resourceID, units); err != nil {
		s.log.Error("releasing capacity hold failed",
			zap.String("resource_id", resourceID),
			zap.Int("units", units),
			zap.Error(err))
	}
}

func (s *ReservationService) nextHumanID(ctx context.Context, t domain.ResourceType) (string, error) {
	year := time.Now().UTC().Year()
	scope := fmt.Sprintf("%s-%d", t.HumanIDPrefix(), year)
	seq, err := s.guard.NextSequence(ctx, scope)
	if err != nil {
		return "", fmt.Errorf("allocating human id: %w", err)
	}
	return fmt.Sprintf("%s-%04d", scope, seq), nil
}

func validateSubmit(in SubmitInput) error {
	if !in.ResourceType.IsValid() {
		return fmt.Errorf("%w: unknown resource type %q", domain.ErrValidation, in.ResourceType)
	}
	if in.ResourceID == "" {
		return fmt.Errorf("%w: resourceId is required", domain.ErrValidation)
	}
	if in.RequesterID == "" {
		return fmt.Errorf("%w: requesterId is required", domain.ErrValidation)
	}
	if in.CapacityUnits <= 0 {
		return fmt.Errorf("%w: capacityUnits must be positive", domain.ErrValidation)
	}
	return nil
}
