// Package location implements the geolocation gate. Clients publish their
// current coordinate; services take an explicit snapshot through Current at
// call time. Watch exists for presentation-layer "you are here" updates only
// and is never on a correctness-critical path.
package location

//go:generate mockgen -source=provider.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"reclamacidade/internal/geo"
)

// Position is a published coordinate with its observation time.
type Position struct {
	Coordinate geo.Coordinate `json:"coordinate"`
	ObservedAt time.Time      `json:"observed_at"`
}

// Provider is the geolocation gate boundary.
//
// Current returns sentinel.ErrNotFound when no position was ever published
// and sentinel.ErrStale when the last published position is older than
// maxAge. Services translate both into their location-unavailable error.
type Provider interface {
	// Publish records identity's current coordinate and fans it out to
	// active watchers.
	Publish(ctx context.Context, identity string, coord geo.Coordinate) error

	// Current returns the last known coordinate for identity if it is no
	// older than maxAge.
	Current(ctx context.Context, identity string, maxAge time.Duration) (geo.Coordinate, error)

	// Watch streams coordinate updates for identity until cancel is called
	// or ctx is done.
	Watch(ctx context.Context, identity string) (updates <-chan geo.Coordinate, cancel func(), err error)
}
