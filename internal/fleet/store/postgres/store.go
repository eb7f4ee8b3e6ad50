// Package postgres reads fleet reference data from the vehicles and drivers tables.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"gatezero/internal/fleet"
	id "gatezero/pkg/domain"
	"gatezero/pkg/platform/sentinel"
)

// PostgresStore is pure I/O over the fleet tables; it never writes them.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed fleet reader.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const vehicleQuery = `
	SELECT registration, owner_name, vehicle_type, rc_status, rc_expiry,
	       insurance_expiry, insurance_policy_no, insurer_name, permit_expiry,
	       gstin, is_blacklisted, blacklist_reason, risk_score
	FROM vehicles
	WHERE registration = $1
`

// Several drivers may reference one vehicle; the oldest assignment wins.
const driverQuery = `
	SELECT id, name, license_no, license_expiry, status, assigned_vehicle
	FROM drivers
	WHERE assigned_vehicle = $1
	ORDER BY created_at, id
	LIMIT 1
`

func (s *PostgresStore) FetchVehicle(ctx context.Context, registration string) (*fleet.Vehicle, error) {
	key := fleet.NormalizeRegistration(registration)

	var (
		v        fleet.Vehicle
		rcStatus string
		permit   sql.NullTime
		gstin    sql.NullString
		reason   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, vehicleQuery, key).Scan(
		&v.Registration, &v.OwnerName, &v.VehicleType, &rcStatus, &v.RCExpiry,
		&v.InsuranceExpiry, &v.InsurancePolicyNo, &v.InsurerName, &permit,
		&gstin, &v.IsBlacklisted, &reason, &v.RiskScore,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vehicle %s: %w", key, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch vehicle: %w: %w", sentinel.ErrUnavailable, err)
	}

	v.RCStatus = fleet.RCStatus(rcStatus)
	if permit.Valid {
		t := permit.Time
		v.PermitExpiry = &t
	}
	v.TaxID = nullableString(gstin)
	v.BlacklistReason = nullableString(reason)
	return &v, nil
}

func (s *PostgresStore) FetchDriverForVehicle(ctx context.Context, registration string) (*fleet.Driver, error) {
	key := fleet.NormalizeRegistration(registration)

	var (
		d        fleet.Driver
		driverID uuid.UUID
		status   string
		assigned sql.NullString
	)
	err := s.db.QueryRowContext(ctx, driverQuery, key).Scan(
		&driverID, &d.Name, &d.LicenseNo, &d.LicenseExpiry, &status, &assigned,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch driver: %w: %w", sentinel.ErrUnavailable, err)
	}

	d.ID = id.DriverID(driverID)
	d.Status = fleet.DriverStatus(status)
	d.AssignedVehicle = nullableString(assigned)
	return &d, nil
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
