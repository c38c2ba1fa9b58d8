package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/snehachy12/campus-event-system-sub002/internal/config"
	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
	"github.com/snehachy12/campus-event-system-sub002/internal/logger"
	"github.com/snehachy12/campus-event-system-sub002/internal/retry"
)

// RazorpayGateway talks to the Razorpay Orders REST API. Amounts are
// in paise, matching the provider's minor-unit convention.
type RazorpayGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
	retryCfg  *retry.Config
	log       *logger.Logger
}

type razorpayOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type razorpayOrderResponse struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	CreatedAt int64  `json:"created_at"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func NewRazorpayGateway(cfg *config.GatewayConfig) *RazorpayGateway {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RazorpayGateway{
		baseURL:   cfg.BaseURL,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		client:    &http.Client{Timeout: timeout},
		retryCfg:  retry.DefaultConfig(),
		log:       logger.Get().With(zap.String("gateway", "razorpay")),
	}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*domain.PaymentIntent, error) {
	var intent *domain.PaymentIntent

	err := retry.Do(ctx, g.retryCfg, func(ctx context.Context) error {
		created, err := g.createOrderOnce(ctx, amount, currency, receipt)
		if err != nil {
			// Rejections will not succeed on retry
			if domain.IsRetryable(err) {
				return err
			}
			return retry.Permanent(err)
		}
		intent = created
		return nil
	})
	if err != nil {
		if domain.IsRetryable(err) || retryExhausted(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
		}
		return nil, err
	}

	g.log.Info("razorpay order created",
		zap.String("order_id", intent.GatewayOrderID),
		zap.Int64("amount", intent.Amount),
		zap.String("currency", intent.Currency))
	return intent, nil
}

func (g *RazorpayGateway) createOrderOnce(ctx context.Context, amount int64, currency, receipt string) (*domain.PaymentIntent, error) {
	body, err := json.Marshal(razorpayOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayRejected, err)
	}
	req.SetBasicAuth(g.keyID, g.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		// Network error or timeout, the provider may be fine on retry
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrGatewayUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", domain.ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		var errResp razorpayErrorResponse
		_ = json.Unmarshal(raw, &errResp)
		return nil, fmt.Errorf("%w: %s %s", domain.ErrGatewayRejected,
			errResp.Error.Code, errResp.Error.Description)
	}

	var order razorpayOrderResponse
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", domain.ErrGatewayUnavailable, err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: response missing order id", domain.ErrGatewayUnavailable)
	}

	return &domain.PaymentIntent{
		GatewayOrderID: order.ID,
		Amount:         order.Amount,
		Currency:       order.Currency,
		CreatedAt:      time.Unix(order.CreatedAt, 0).UTC(),
	}, nil
}

func (g *RazorpayGateway) Name() string {
	return "razorpay"
}

func retryExhausted(err error) bool {
	return errors.Is(err, retry.ErrMaxRetriesExceeded) || errors.Is(err, retry.ErrContextCanceled)
}
