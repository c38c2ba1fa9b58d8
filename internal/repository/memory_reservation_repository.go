package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
)

// MemoryReservationRepository stores clones under a RWMutex. Every
// read hands out a fresh copy so callers can never mutate shared state.
type MemoryReservationRepository struct {
	mu           sync.RWMutex
	reservations map[string]*domain.Reservation
}

func NewMemoryReservationRepository() *MemoryReservationRepository {
	return &MemoryReservationRepository{
		reservations: make(map[string]*domain.Reservation),
	}
}

func (r *MemoryReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reservations[res.ID]; exists {
		return fmt.Errorf("reservation %s already exists", res.ID)
	}
	r.reservations[res.ID] = res.Clone()
	return nil
}

func (r *MemoryReservationRepository) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	return res.Clone(), nil
}

func (r *MemoryReservationRepository) Update(ctx context.Context, res *domain.Reservation, expected domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.reservations[res.ID]
	if !ok {
		return domain.ErrReservationNotFound
	}
	if stored.Status != expected {
		return fmt.Errorf("%w: expected %s, stored record is %s",
			domain.ErrInvalidTransition, expected, stored.Status)
	}
	r.reservations[res.ID] = res.Clone()
	return nil
}

func (r *MemoryReservationRepository) ListByRequester(ctx context.Context, requesterID string) ([]*domain.Reservation, error) {
	return r.list(func(res *domain.Reservation) bool {
		return res.RequesterID == requesterID
	})
}

func (r *MemoryReservationRepository) ListByResource(ctx context.Context, resourceID string) ([]*domain.Reservation, error) {
	return r.list(func(res *domain.Reservation) bool {
		return res.ResourceID == resourceID
	})
}

func (r *MemoryReservationRepository) list(match func(*domain.Reservation) bool) ([]*domain.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Reservation
	for _, res := range r.reservations {
		if match(res) {
			out = append(out, res.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
