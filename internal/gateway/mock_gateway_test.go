package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
)

func TestMockGateway_CreateOrder(t *testing.T) {
	g := NewMockGateway()

	intent, err := g.CreateOrder(context.Background(), 50000, "INR", "VEN-2026-0001")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if intent.GatewayOrderID == "" {
		t.Error("Expected a gateway order id")
	}
	if intent.Amount != 50000 || intent.Currency != "INR" {
		t.Errorf("Unexpected intent: %+v", intent)
	}

	second, _ := g.CreateOrder(context.Background(), 100, "INR", "VEN-2026-0002")
	if second.GatewayOrderID == intent.GatewayOrderID {
		t.Error("Expected unique order ids")
	}
}

func TestMockGateway_RejectsNonPositiveAmount(t *testing.T) {
	g := NewMockGateway()
	_, err := g.CreateOrder(context.Background(), 0, "INR", "receipt")
	if !errors.Is(err, domain.ErrGatewayRejected) {
		t.Errorf("Expected ErrGatewayRejected, got %v", err)
	}
}

func TestMockGateway_FailWith(t *testing.T) {
	g := NewMockGateway()
	g.FailWith(domain.ErrGatewayUnavailable)

	_, err := g.CreateOrder(context.Background(), 100, "INR", "receipt")
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Errorf("Expected ErrGatewayUnavailable, got %v", err)
	}

	g.FailWith(nil)
	if _, err := g.CreateOrder(context.Background(), 100, "INR", "receipt"); err != nil {
		t.Errorf("Expected recovery after FailWith(nil), got %v", err)
	}
}

// Failure and latency toggles may race against in-flight orders
func TestMockGateway_ConcurrentToggles(t *testing.T) {
	g := NewMockGateway()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := g.CreateOrder(context.Background(), 100, "INR", "receipt")
				if err != nil && !errors.Is(err, domain.ErrGatewayUnavailable) {
					t.Errorf("Unexpected error: %v", err)
					return
				}
			}
		}()
	}
	for j := 0; j < 50; j++ {
		g.FailWith(domain.ErrGatewayUnavailable)
		g.SetLatency(time.Microsecond)
		g.FailWith(nil)
		g.SetLatency(0)
	}
	wg.Wait()
}
