package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
)

// MemoryCapacityGuard keeps capacity counters under a single mutex so
// check-and-hold is atomic within the process.
type MemoryCapacityGuard struct {
	mu        sync.Mutex
	held      map[string]int
	sequences map[string]int64
}

func NewMemoryCapacityGuard() *MemoryCapacityGuard {
	return &MemoryCapacityGuard{
		held:      make(map[string]int),
		sequences: make(map[string]int64),
	}
}

func (g *MemoryCapacityGuard) Hold(ctx context.Context, resourceID string, units, capacity int) error {
	if units <= 0 {
		return fmt.Errorf("%w: units must be positive", domain.ErrValidation)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.held[resourceID]+units > capacity {
		return fmt.Errorf("%w: %d held, %d requested, %d capacity",
			domain.ErrCapacityExceeded, g.held[resourceID], units, capacity)
	}
	g.held[resourceID] += units
	return nil
}

func (g *MemoryCapacityGuard) Release(ctx context.Context, resourceID string, units int) error {
	if units <= 0 {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	remaining := g.held[resourceID] - units
	if remaining < 0 {
		remaining = 0
	}
	g.held[resourceID] = remaining
	return nil
}

func (g *MemoryCapacityGuard) Held(ctx context.Context, resourceID string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.held[resourceID], nil
}

func (g *MemoryCapacityGuard) NextSequence(ctx context.Context, scope string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sequences[scope]++
	return g.sequences[scope], nil
}
