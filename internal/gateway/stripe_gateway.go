package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"go.uber.org/zap"

	"github.com/snehachy12/campus-event-system-sub002/internal/config"
	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
	"github.com/snehachy12/campus-event-system-sub002/internal/logger"
)

// StripeGateway implements PaymentGateway using Stripe payment intents
type StripeGateway struct {
	log *logger.Logger
}

func NewStripeGateway(cfg *config.GatewayConfig) (*StripeGateway, error) {
	if cfg.KeySecret == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	stripe.Key = cfg.KeySecret

	return &StripeGateway{
		log: logger.Get().With(zap.String("gateway", "stripe")),
	}, nil
}

func (g *StripeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: map[string]string{"receipt": receipt},
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, classifyStripeError(err)
	}

	g.log.Info("stripe payment intent created",
		zap.String("intent_id", pi.ID),
		zap.Int64("amount", amount),
		zap.String("currency", currency))

	return &domain.PaymentIntent{
		GatewayOrderID: pi.ID,
		Amount:         pi.Amount,
		Currency:       string(pi.Currency),
		CreatedAt:      time.Unix(pi.Created, 0).UTC(),
	}, nil
}

func (g *StripeGateway) Name() string {
	return "stripe"
}

func classifyStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Code == stripe.ErrorCodeRateLimit {
			return fmt.Errorf("%w: rate limited", domain.ErrGatewayUnavailable)
		}
		switch stripeErr.Type {
		case stripe.ErrorTypeAPI:
			// Stripe-side failures, including connection problems
			return fmt.Errorf("%w: %s", domain.ErrGatewayUnavailable, stripeErr.Msg)
		default:
			return fmt.Errorf("%w: %s", domain.ErrGatewayRejected, stripeErr.Msg)
		}
	}
	// Anything that never reached Stripe counts as transient
	return fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
}
