package domain

import "time"

// ResourceType identifies which booking flow a reservation belongs to
type ResourceType string

const (
	ResourceVenue       ResourceType = "venue"
	ResourceEventTicket ResourceType = "eventTicket"
	ResourceFoodOrder   ResourceType = "foodOrder"
)

// IsValid reports whether t is a known resource type
func (t ResourceType) IsValid() bool {
	switch t {
	case ResourceVenue, ResourceEventTicket, ResourceFoodOrder:
		return true
	}
	return false
}

// HumanIDPrefix returns the display-code prefix for the type
func (t ResourceType) HumanIDPrefix() string {
	switch t {
	case ResourceVenue:
		return "VEN"
	case ResourceEventTicket:
		return "TKT"
	case ResourceFoodOrder:
		return "ORD"
	}
	return "RES"
}

// AvailabilityWindow bounds when a resource can be reserved
type AvailabilityWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether ts falls inside the window.
// A zero window means the resource is always available.
func (w AvailabilityWindow) Contains(ts time.Time) bool {
	if w.Start.IsZero() && w.End.IsZero() {
		return true
	}
	return !ts.Before(w.Start) && !ts.After(w.End)
}

// Resource is the catalog view of a reservable item. The core reads
// it at submission time and never writes it back.
type Resource struct {
	ID               string             `json:"id"`
	Type             ResourceType       `json:"type"`
	Name             string             `json:"name"`
	Capacity         int                `json:"capacity"`
	UnitPrice        int64              `json:"unit_price"` // minor units
	Currency         string             `json:"currency"`
	RequiresApproval bool               `json:"requires_approval"`
	Window           AvailabilityWindow `json:"window"`
}
