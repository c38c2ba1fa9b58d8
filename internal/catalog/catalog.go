// Package catalog exposes read-only resource metadata to the
// reservation core. Catalog management itself lives elsewhere.
package catalog

import (
	"context"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
)

// ResourceCatalog looks up reservable resources. Implementations must
// treat the data as read-only from the core's perspective.
type ResourceCatalog interface {
	GetResource(ctx context.Context, resourceID string) (*domain.Resource, error)
}
