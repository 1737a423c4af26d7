package maps

import "context"

// Leg is the travel estimate between two addresses.
type Leg struct {
	Km      float64 `json:"km"`
	Minutes float64 `json:"minutes"`
}

// MapsService resolves addresses and travel estimates. A (nil, nil) Leg means
// the route could not be resolved; callers decide whether that blocks or
// degrades the operation.
type MapsService interface {
	// DistanceBetween estimates driving distance and duration between two
	// free-text addresses.
	DistanceBetween(ctx context.Context, origin, destination string) (*Leg, error)
	// ResolveAddress checks an address is concrete enough to geocode and
	// returns the formatted form.
	ResolveAddress(ctx context.Context, address string) (string, error)
}
