// Package domain holds value types shared by the dispatch engine and the gate log.
package domain

import "time"

// Verdict is the binary gate decision.
type Verdict string

const (
	VerdictApproved Verdict = "APPROVED"
	VerdictBlocked  Verdict = "BLOCKED"
)

// CheckStatus is the outcome of a single verification check.
type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckFailed  CheckStatus = "failed"
	CheckWarning CheckStatus = "warning"
)

// CheckName identifies a check on the wire and in the gate log.
type CheckName string

const (
	CheckBlacklist    CheckName = "Blacklist Check"
	CheckRegistration CheckName = "Vahan API Verification"
	CheckInsurance    CheckName = "Insurance Verification"
	CheckTaxID        CheckName = "GSTIN Validation"
	CheckEWayBill     CheckName = "E-Way Bill Validation"
	CheckPermit       CheckName = "Permit Verification"
	CheckDriver       CheckName = "Driver License Check"
	CheckRoute        CheckName = "Route Distance Check"

	// Synthetic checks emitted when the battery cannot run.
	CheckRegistry CheckName = "Vehicle Registry Check"
	CheckSystem   CheckName = "System Check"
)

// Check is one immutable verification outcome.
type Check struct {
	Name      CheckName   `json:"name"`
	Status    CheckStatus `json:"status"`
	Details   string      `json:"details"`
	Timestamp time.Time   `json:"timestamp"`
}

// SnapshotSchemaVersion is bumped whenever a snapshot field changes meaning.
const SnapshotSchemaVersion = 1

// VehicleSnapshot is the vehicle record as read at evaluation time.
type VehicleSnapshot struct {
	SchemaVersion     int        `json:"schema_version"`
	Registration      string     `json:"vehicle_no"`
	OwnerName         string     `json:"owner_name"`
	VehicleType       string     `json:"vehicle_type"`
	RCStatus          string     `json:"rc_status"`
	RCExpiry          time.Time  `json:"rc_expiry"`
	InsuranceExpiry   time.Time  `json:"insurance_expiry"`
	InsurancePolicyNo string     `json:"insurance_policy_no"`
	InsurerName       string     `json:"insurer_name"`
	PermitExpiry      *time.Time `json:"permit_expiry"`
	TaxID             *string    `json:"gstin"`
	IsBlacklisted     bool       `json:"is_blacklisted"`
	BlacklistReason   *string    `json:"blacklist_reason"`
	RiskScore         int        `json:"risk_score"`
}

// DriverSnapshot is the assigned driver record as read at evaluation time.
type DriverSnapshot struct {
	SchemaVersion   int       `json:"schema_version"`
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	LicenseNo       string    `json:"license_no"`
	LicenseExpiry   time.Time `json:"license_expiry"`
	Status          string    `json:"status"`
	AssignedVehicle *string   `json:"assigned_vehicle"`
}
