// Package fleet reads vehicle and driver reference data for the dispatch engine.
// The records are owned by external fleet-management flows; this package never writes them.
package fleet

import (
	"context"
	"strings"
	"time"

	"gatezero/internal/domain"
	id "gatezero/pkg/domain"
)

// RCStatus is the registration-certificate status.
type RCStatus string

const (
	RCActive    RCStatus = "Active"
	RCExpired   RCStatus = "Expired"
	RCSuspended RCStatus = "Suspended"
)

// DriverStatus is the employment status of a driver.
type DriverStatus string

const (
	DriverActive   DriverStatus = "Active"
	DriverInactive DriverStatus = "Inactive"
	DriverOnLeave  DriverStatus = "On Leave"
)

// Vehicle is a registered vehicle keyed by its normalized registration.
type Vehicle struct {
	Registration      string
	OwnerName         string
	VehicleType       string
	RCStatus          RCStatus
	RCExpiry          time.Time
	InsuranceExpiry   time.Time
	InsurancePolicyNo string
	InsurerName       string
	PermitExpiry      *time.Time
	TaxID             *string
	IsBlacklisted     bool
	BlacklistReason   *string
	RiskScore         int
}

// Driver is a driver with an optional back-reference to a vehicle.
type Driver struct {
	ID              id.DriverID
	Name            string
	LicenseNo       string
	LicenseExpiry   time.Time
	Status          DriverStatus
	AssignedVehicle *string
}

// Reader is the read-only reference data contract.
//
// FetchVehicle returns an error wrapping sentinel.ErrNotFound when the vehicle
// does not exist. FetchDriverForVehicle returns nil, nil when no driver is
// assigned. Both wrap sentinel.ErrUnavailable when the store cannot be reached.
type Reader interface {
	FetchVehicle(ctx context.Context, registration string) (*Vehicle, error)
	FetchDriverForVehicle(ctx context.Context, registration string) (*Driver, error)
}

// NormalizeRegistration trims and uppercases a free-text plate.
func NormalizeRegistration(registration string) string {
	return strings.ToUpper(strings.TrimSpace(registration))
}

// Snapshot copies the vehicle into the versioned audit DTO.
func (v *Vehicle) Snapshot() *domain.VehicleSnapshot {
	if v == nil {
		return nil
	}
	return &domain.VehicleSnapshot{
		SchemaVersion:     domain.SnapshotSchemaVersion,
		Registration:      v.Registration,
		OwnerName:         v.OwnerName,
		VehicleType:       v.VehicleType,
		RCStatus:          string(v.RCStatus),
		RCExpiry:          v.RCExpiry,
		InsuranceExpiry:   v.InsuranceExpiry,
		InsurancePolicyNo: v.InsurancePolicyNo,
		InsurerName:       v.InsurerName,
		PermitExpiry:      copyTime(v.PermitExpiry),
		TaxID:             copyString(v.TaxID),
		IsBlacklisted:     v.IsBlacklisted,
		BlacklistReason:   copyString(v.BlacklistReason),
		RiskScore:         v.RiskScore,
	}
}

// Snapshot copies the driver into the versioned audit DTO.
func (d *Driver) Snapshot() *domain.DriverSnapshot {
	if d == nil {
		return nil
	}
	return &domain.DriverSnapshot{
		SchemaVersion:   domain.SnapshotSchemaVersion,
		ID:              d.ID.String(),
		Name:            d.Name,
		LicenseNo:       d.LicenseNo,
		LicenseExpiry:   d.LicenseExpiry,
		Status:          string(d.Status),
		AssignedVehicle: copyString(d.AssignedVehicle),
	}
}

// VehicleFromSnapshot rebuilds a vehicle from its cached snapshot.
func VehicleFromSnapshot(s *domain.VehicleSnapshot) *Vehicle {
	if s == nil {
		return nil
	}
	return &Vehicle{
		Registration:      s.Registration,
		OwnerName:         s.OwnerName,
		VehicleType:       s.VehicleType,
		RCStatus:          RCStatus(s.RCStatus),
		RCExpiry:          s.RCExpiry,
		InsuranceExpiry:   s.InsuranceExpiry,
		InsurancePolicyNo: s.InsurancePolicyNo,
		InsurerName:       s.InsurerName,
		PermitExpiry:      copyTime(s.PermitExpiry),
		TaxID:             copyString(s.TaxID),
		IsBlacklisted:     s.IsBlacklisted,
		BlacklistReason:   copyString(s.BlacklistReason),
		RiskScore:         s.RiskScore,
	}
}

// DriverFromSnapshot rebuilds a driver from its cached snapshot.
func DriverFromSnapshot(s *domain.DriverSnapshot) (*Driver, error) {
	if s == nil {
		return nil, nil
	}
	driverID, err := id.ParseDriverID(s.ID)
	if err != nil {
		return nil, err
	}
	return &Driver{
		ID:              driverID,
		Name:            s.Name,
		LicenseNo:       s.LicenseNo,
		LicenseExpiry:   s.LicenseExpiry,
		Status:          DriverStatus(s.Status),
		AssignedVehicle: copyString(s.AssignedVehicle),
	}, nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
