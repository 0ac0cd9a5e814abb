package location

import (
	"context"
	"math"

	"github.com/aretw0/carepath/pkg/domain"
	"github.com/aretw0/carepath/pkg/ports"
)

// Resolver implements ports.LocationResolver from a Venue.
// Explicit area tags win, then beacon IDs, then coordinates.
type Resolver struct {
	venue Venue
}

var _ ports.LocationResolver = (*Resolver)(nil)

// NewResolver creates a resolver for the venue.
func NewResolver(v Venue) *Resolver {
	return &Resolver{venue: v}
}

// Resolve returns the area of the signal, or AreaUnknown.
func (r *Resolver) Resolve(ctx context.Context, sig domain.LocationSignal) (domain.Area, error) {
	if sig.Area != "" {
		return sig.Area, nil
	}
	if sig.BeaconID != "" {
		if area, ok := r.venue.Beacons[sig.BeaconID]; ok {
			return area, nil
		}
	}
	if sig.Latitude != 0 || sig.Longitude != 0 {
		return r.fromCoordinates(sig.Latitude, sig.Longitude), nil
	}
	return domain.AreaUnknown, nil
}

// fromCoordinates only separates the outdoor bands; indoor positions need beacons.
func (r *Resolver) fromCoordinates(lat, lng float64) domain.Area {
	d := math.Hypot(lat-r.venue.Latitude, lng-r.venue.Longitude)
	for _, ring := range r.venue.Rings {
		if d > ring.Distance {
			return ring.Area
		}
	}
	return domain.AreaUnknown
}
