// Package repository persists reservations and guards resource
// capacity. Each interface ships a memory implementation for tests and
// a durable one for deployment.
package repository

import (
	"context"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
)

// ReservationRepository stores reservations with their embedded
// append-only status history.
type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)

	// Update persists r only if the stored record is still in
	// expected. A lost race returns domain.ErrInvalidTransition and
	// leaves the record untouched.
	Update(ctx context.Context, r *domain.Reservation, expected domain.Status) error

	ListByRequester(ctx context.Context, requesterID string) ([]*domain.Reservation, error)
	ListByResource(ctx context.Context, resourceID string) ([]*domain.Reservation, error)
}

// CapacityGuard owns the shared capacity counter per resource. Hold is
// the single atomic check-and-hold primitive; a separate read followed
// by a write is not an acceptable implementation.
type CapacityGuard interface {
	// Hold reserves units against capacity, failing with
	// domain.ErrCapacityExceeded when the remaining capacity is
	// insufficient. On failure nothing is held.
	Hold(ctx context.Context, resourceID string, units, capacity int) error

	// Release returns units to the pool. Releasing more than is held
	// clamps at zero.
	Release(ctx context.Context, resourceID string, units int) error

	// Held reports the currently held units for a resource
	Held(ctx context.Context, resourceID string) (int, error)

	// NextSequence returns the next value of the atomic counter for a
	// human-id scope such as "VEN-2026".
	NextSequence(ctx context.Context, scope string) (int64, error)
}
