// Package domain holds typed identifiers shared across modules.
//
// Typed IDs keep a gate-log id from being passed where a driver id is expected;
// parsing happens once at the trust boundary.
package domain

import (
	"github.com/google/uuid"

	dErrors "gatezero/pkg/domain-errors"
)

// GateLogID identifies one persisted verification result.
type GateLogID uuid.UUID

// DriverID identifies a driver record in the fleet registry.
type DriverID uuid.UUID

// NewGateLogID generates a random gate-log id.
func NewGateLogID() GateLogID { return GateLogID(uuid.New()) }

// ParseGateLogID parses a non-nil UUID string.
func ParseGateLogID(s string) (GateLogID, error) {
	u, err := parseUUID(s, "gate log id")
	return GateLogID(u), err
}

// ParseDriverID parses a non-nil UUID string.
func ParseDriverID(s string) (DriverID, error) {
	u, err := parseUUID(s, "driver id")
	return DriverID(u), err
}

func (id GateLogID) String() string { return uuid.UUID(id).String() }
func (id GateLogID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id DriverID) String() string { return uuid.UUID(id).String() }
func (id DriverID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be nil")
	}
	return u, nil
}

// MarshalText encodes the id in canonical UUID form.
func (id GateLogID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText parses a canonical UUID.
func (id *GateLogID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid gate log id")
	}
	*id = GateLogID(u)
	return nil
}
