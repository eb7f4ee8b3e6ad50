// Package memory is a map-backed fleet reader for tests and local development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"gatezero/internal/fleet"
	"gatezero/pkg/platform/sentinel"
)

// InMemory holds vehicles keyed by registration and drivers in insertion order.
type InMemory struct {
	mu       sync.RWMutex
	vehicles map[string]fleet.Vehicle
	drivers  []fleet.Driver
}

// NewInMemory constructs an empty store.
func NewInMemory() *InMemory {
	return &InMemory{vehicles: make(map[string]fleet.Vehicle)}
}

// PutVehicle seeds or replaces a vehicle. The registration is normalized.
func (s *InMemory) PutVehicle(v fleet.Vehicle) {
	v.Registration = fleet.NormalizeRegistration(v.Registration)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.Registration] = v
}

// AddDriver seeds a driver. Earlier drivers win when several share a vehicle.
func (s *InMemory) AddDriver(d fleet.Driver) {
	if d.AssignedVehicle != nil {
		plate := fleet.NormalizeRegistration(*d.AssignedVehicle)
		d.AssignedVehicle = &plate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers = append(s.drivers, d)
}

func (s *InMemory) FetchVehicle(ctx context.Context, registration string) (*fleet.Vehicle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch vehicle: %w: %w", sentinel.ErrUnavailable, err)
	}
	key := fleet.NormalizeRegistration(registration)

	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[key]
	if !ok {
		return nil, fmt.Errorf("vehicle %s: %w", key, sentinel.ErrNotFound)
	}
	return &v, nil
}

func (s *InMemory) FetchDriverForVehicle(ctx context.Context, registration string) (*fleet.Driver, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch driver: %w: %w", sentinel.ErrUnavailable, err)
	}
	key := fleet.NormalizeRegistration(registration)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.drivers {
		if d.AssignedVehicle != nil && *d.AssignedVehicle == key {
			found := d
			return &found, nil
		}
	}
	return nil, nil
}
