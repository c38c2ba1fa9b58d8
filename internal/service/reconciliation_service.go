package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
	"github.com/snehachy12/campus-event-system-sub002/internal/gateway"
	"github.com/snehachy12/campus-event-system-sub002/internal/logger"
	"github.com/snehachy12/campus-event-system-sub002/internal/repository"
	"github.com/snehachy12/campus-event-system-sub002/internal/telemetry"
)

// ReconciliationService is the sole entry point for marking payment
// success. Client callbacks and gateway webhooks both funnel into
// Confirm, which verifies the signature before touching any state.
type ReconciliationService struct {
	repo          repository.ReservationRepository
	guard         repository.CapacityGuard
	notifier      Notifier
	webhookSecret string
	log           *logger.Logger
}

func NewReconciliationService(
	repo repository.ReservationRepository,
	guard repository.CapacityGuard,
	notifier Notifier,
	webhookSecret string,
) *ReconciliationService {
	return &ReconciliationService{
		repo:          repo,
		guard:         guard,
		notifier:      notifier,
		webhookSecret: webhookSecret,
		log:           logger.Get().With(zap.String("service", "reconciliation")),
	}
}

// Confirm verifies and applies a payment confirmation. Safe to call
// any number of times with the same paymentId: redelivered webhooks
// see the stored confirmation ref and return without mutating.
func (s *ReconciliationService) Confirm(ctx context.Context, reservationID, gatewayOrderID, paymentID, signature string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "reconciliation.confirm")
	defer span.End()

	if reservationID == "" || gatewayOrderID == "" || paymentID == "" {
		return nil, fmt.Errorf("%w: reservationId, gatewayOrderId and paymentId are required", domain.ErrValidation)
	}

	if !gateway.VerifySignature(s.webhookSecret, gatewayOrderID, paymentID, signature) {
		s.log.Warn("payment confirmation signature mismatch",
			zap.String("reservation_id", reservationID),
			zap.String("gateway_order_id", gatewayOrderID),
			zap.String("payment_id", paymentID))
		return nil, domain.ErrSignatureMismatch
	}

	r, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	// Idempotent replay: the same payment already completed this
	// reservation, report success without a second transition.
	if r.IsConfirmedWith(paymentID) {
		return r, nil
	}
	if r.Status != domain.StatusPaymentPending {
		return nil, fmt.Errorf("%w: confirmation requires payment_pending, got %s",
			domain.ErrInvalidTransition, r.Status)
	}

	// The confirmation must reference the intent this reservation is
	// actually waiting on. A valid signature over some other order is
	// still a forgery attempt against this record.
	if r.PaymentIntentRef != gatewayOrderID {
		s.log.Warn("payment confirmation references wrong order",
			zap.String("reservation_id", reservationID),
			zap.String("expected_order_id", r.PaymentIntentRef),
			zap.String("got_order_id", gatewayOrderID))
		return nil, domain.ErrSignatureMismatch
	}

	if err := r.Complete(paymentID, "gateway"); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r, domain.StatusPaymentPending); err != nil {
		// A concurrent delivery may have won the conditional update.
		// If it confirmed the same payment, this call still succeeds.
		if errors.Is(err, domain.ErrInvalidTransition) {
			if current, getErr := s.repo.GetByID(ctx, reservationID); getErr == nil && current.IsConfirmedWith(paymentID) {
				return current, nil
			}
		}
		return nil, err
	}

	s.log.Info("payment confirmed",
		zap.String("reservation_id", r.ID),
		zap.String("payment_id", paymentID),
		zap.Int64("amount", r.Amount))
	s.notifier.ReservationChanged(ctx, r, "reservation.completed")
	return r, nil
}

// FailFromWebhook applies a gateway-delivered payment failure. Like
// Confirm it trusts nothing but the HMAC signature and the stored
// intent reference; a redelivered failure returns success without a
// second transition or hold release.
func (s *ReconciliationService) FailFromWebhook(ctx context.Context, reservationID, gatewayOrderID, paymentID, signature, reason string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "reconciliation.fail_from_webhook")
	defer span.End()

	if reservationID == "" || gatewayOrderID == "" || paymentID == "" {
		return nil, fmt.Errorf("%w: reservationId, gatewayOrderId and paymentId are required", domain.ErrValidation)
	}

	if !gateway.VerifySignature(s.webhookSecret, gatewayOrderID, paymentID, signature) {
		s.log.Warn("payment failure signature mismatch",
			zap.String("reservation_id", reservationID),
			zap.String("gateway_order_id", gatewayOrderID),
			zap.String("payment_id", paymentID))
		return nil, domain.ErrSignatureMismatch
	}

	r, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if r.PaymentIntentRef != gatewayOrderID {
		s.log.Warn("payment failure references wrong order",
			zap.String("reservation_id", reservationID),
			zap.String("expected_order_id", r.PaymentIntentRef),
			zap.String("got_order_id", gatewayOrderID))
		return nil, domain.ErrSignatureMismatch
	}

	// Redelivered failure, already applied
	if r.Status == domain.StatusPaymentFailed {
		return r, nil
	}

	return s.MarkFailed(ctx, reservationID, reason)
}

// MarkFailed records a failed payment and releases the capacity hold
// so the units can be re-offered. Callers are responsible for having
// authenticated the failure; the webhook path goes through
// FailFromWebhook.
func (s *ReconciliationService) MarkFailed(ctx context.Context, reservationID, reason string) (*domain.Reservation, error) {
	ctx, span := telemetry.StartSpan(ctx, "reconciliation.mark_failed")
	defer span.End()

	r, err := s.repo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if err := r.FailPayment(reason); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, r, domain.StatusPaymentPending); err != nil {
		return nil, err
	}

	if err := s.guard.Release(ctx, r.ResourceID, r.CapacityUnits); err != nil {
		s.log.Error("releasing capacity hold failed",
			zap.String("resource_id", r.ResourceID),
			zap.Error(err))
	}

	s.log.Info("payment marked failed",
		zap.String("reservation_id", r.ID),
		zap.String("reason", reason))
	s.notifier.ReservationChanged(ctx, r, "reservation.payment_failed")
	return r, nil
}
