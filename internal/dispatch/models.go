package dispatch

import (
	"time"

	"gatezero/internal/dispatch/ports"
	"gatezero/internal/domain"
	"gatezero/internal/fleet"
	"gatezero/internal/gatelog"
	id "gatezero/pkg/domain"
)

// Request is one gate scan: a plate and the shipment's e-way bill number.
// Operator fields are carried into the gate log only.
type Request struct {
	VehicleNo  string
	EWayBillNo string
	OperatorID string
	OperatorIP string
}

// Outcome is the internal three-state aggregate. The wire verdict collapses
// OutcomeWarning into APPROVED and reports it through Result.HasWarnings.
type Outcome string

const (
	OutcomeApproved Outcome = "approved"
	OutcomeWarning  Outcome = "warning"
	OutcomeBlocked  Outcome = "blocked"
)

// Verdict maps the outcome onto the binary gate decision.
func (o Outcome) Verdict() domain.Verdict {
	if o == OutcomeBlocked {
		return domain.VerdictBlocked
	}
	return domain.VerdictApproved
}

// Result is the complete verification outcome returned to the caller and
// persisted, unchanged, to the gate log.
type Result struct {
	ID              id.GateLogID
	VehicleNo       string
	EWayBillNo      string
	Verdict         domain.Verdict
	Reasons         []string
	Checks          []domain.Check
	ComplianceScore int
	HasWarnings     bool
	Timestamp       time.Time
	ScanDuration    time.Duration
	DispatchToken   *string
	VehicleSnapshot *domain.VehicleSnapshot
	DriverSnapshot  *domain.DriverSnapshot
	OperatorID      string
	OperatorIP      string
}

// Record converts the result into its append-only gate log form.
func (r *Result) Record() gatelog.Record {
	return gatelog.Record{
		ID:              r.ID,
		Timestamp:       r.Timestamp,
		VehicleNo:       r.VehicleNo,
		EWayBillNo:      r.EWayBillNo,
		Verdict:         r.Verdict,
		Reasons:         append([]string(nil), r.Reasons...),
		Checks:          append([]domain.Check(nil), r.Checks...),
		ComplianceScore: r.ComplianceScore,
		HasWarnings:     r.HasWarnings,
		ScanDurationMS:  r.ScanDuration.Milliseconds(),
		DispatchToken:   r.DispatchToken,
		VehicleSnapshot: r.VehicleSnapshot,
		DriverSnapshot:  r.DriverSnapshot,
		OperatorID:      optional(r.OperatorID),
		OperatorIP:      optional(r.OperatorIP),
	}
}

// Evidence is the reference data gathered before the check battery runs.
type Evidence struct {
	Vehicle   *fleet.Vehicle
	Driver    *fleet.Driver
	TaxStatus ports.TaxStatus
	FetchedAt time.Time
	Latencies EvidenceLatencies
}

// EvidenceLatencies records per-source lookup latency.
type EvidenceLatencies struct {
	Vehicle   time.Duration
	Driver    time.Duration
	TaxStatus time.Duration
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
