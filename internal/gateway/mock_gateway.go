package gateway

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
)

// MockGateway simulates a payment provider for development and tests.
// Orders get deterministic sequential IDs so flows are easy to follow.
// Safe for concurrent use; FailWith and SetLatency may be called while
// orders are in flight.
type MockGateway struct {
	seq atomic.Int64

	mu       sync.Mutex
	failWith error
	latency  time.Duration
}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// FailWith makes every subsequent CreateOrder return err. Pass nil to
// restore normal behavior.
func (g *MockGateway) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failWith = err
}

// SetLatency adds an artificial delay to CreateOrder
func (g *MockGateway) SetLatency(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latency = d
}

func (g *MockGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	failWith, latency := g.failWith, g.latency
	g.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, domain.ErrGatewayUnavailable
		}
	}
	if failWith != nil {
		return nil, failWith
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrGatewayRejected)
	}

	return &domain.PaymentIntent{
		GatewayOrderID: fmt.Sprintf("order_mock_%06d", g.seq.Add(1)),
		Amount:         amount,
		Currency:       currency,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (g *MockGateway) Name() string {
	return "mock"
}
