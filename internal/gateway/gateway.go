// Package gateway adapts external payment providers. It creates
// payment intents and verifies confirmation signatures, nothing more.
package gateway

import (
	"context"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
)

// PaymentGateway creates gateway-side orders for reservations.
// Amounts are in minor units (paise for INR).
type PaymentGateway interface {
	// CreateOrder makes a single outbound call to the provider.
	// Transient failures return domain.ErrGatewayUnavailable,
	// permanent rejections return domain.ErrGatewayRejected.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*domain.PaymentIntent, error)

	// Name identifies the provider for logging
	Name() string
}
