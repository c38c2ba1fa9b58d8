package catalog

import (
	"context"
	"sync"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
)

// MemoryCatalog is an in-process catalog for development and tests
type MemoryCatalog struct {
	mu        sync.RWMutex
	resources map[string]*domain.Resource
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{resources: make(map[string]*domain.Resource)}
}

// Seed registers a resource. Later seeds with the same ID overwrite.
func (c *MemoryCatalog) Seed(res *domain.Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *res
	c.resources[res.ID] = &cp
}

func (c *MemoryCatalog) GetResource(ctx context.Context, resourceID string) (*domain.Resource, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	res, ok := c.resources[resourceID]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	cp := *res
	return &cp, nil
}
