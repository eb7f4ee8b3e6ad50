package ports

import (
	"context"

	"gatezero/internal/fleet"
)

// FleetPort defines the read-only reference data lookups the engine needs.
// fleet.Reader implementations satisfy it directly.
type FleetPort interface {
	// FetchVehicle returns an error wrapping sentinel.ErrNotFound for unknown plates
	// and sentinel.ErrUnavailable when the store cannot be reached.
	FetchVehicle(ctx context.Context, registration string) (*fleet.Vehicle, error)

	// FetchDriverForVehicle returns nil, nil when no driver is assigned.
	FetchDriverForVehicle(ctx context.Context, registration string) (*fleet.Driver, error)
}
