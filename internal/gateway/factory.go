package gateway

import (
	"fmt"

	"github.com/snehachy12/campus-event-system-sub002/internal/config"
)

// NewGateway builds the configured payment gateway implementation
func NewGateway(cfg *config.GatewayConfig) (PaymentGateway, error) {
	switch cfg.Provider {
	case "mock":
		return NewMockGateway(), nil
	case "razorpay":
		if cfg.KeyID == "" || cfg.KeySecret == "" {
			return nil, fmt.Errorf("razorpay requires GATEWAY_KEY_ID and GATEWAY_KEY_SECRET")
		}
		return NewRazorpayGateway(cfg), nil
	case "stripe":
		return NewStripeGateway(cfg)
	default:
		return nil, fmt.Errorf("unknown gateway provider: %s", cfg.Provider)
	}
}
