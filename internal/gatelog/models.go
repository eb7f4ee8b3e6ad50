// Package gatelog is the append-only audit trail of gate verifications.
package gatelog

import (
	"context"
	"time"

	"gatezero/internal/domain"
	id "gatezero/pkg/domain"
)

// MaxListLimit caps list queries.
const MaxListLimit = 200

// Record is one persisted verification. Created once, never updated.
type Record struct {
	ID              id.GateLogID            `json:"id"`
	Timestamp       time.Time               `json:"timestamp"`
	VehicleNo       string                  `json:"vehicle_no"`
	EWayBillNo      string                  `json:"eway_bill_no"`
	Verdict         domain.Verdict          `json:"verdict"`
	Reasons         []string                `json:"reasons"`
	Checks          []domain.Check          `json:"checks"`
	ComplianceScore int                     `json:"compliance_score"`
	HasWarnings     bool                    `json:"has_warnings"`
	ScanDurationMS  int64                   `json:"scan_duration_ms"`
	DispatchToken   *string                 `json:"qr_code_hash"`
	VehicleSnapshot *domain.VehicleSnapshot `json:"vehicle_snapshot"`
	DriverSnapshot  *domain.DriverSnapshot  `json:"driver_snapshot"`
	OperatorID      *string                 `json:"operator_id"`
	OperatorIP      *string                 `json:"operator_ip"`
}

// Stats summarizes gate logs in a window.
type Stats struct {
	Since        time.Time `json:"since"`
	Total        int       `json:"total"`
	Approved     int       `json:"approved"`
	Blocked      int       `json:"blocked"`
	AverageScore float64   `json:"average_score"`
}

// Sink persists records. Append must be idempotent on Record.ID.
type Sink interface {
	Append(ctx context.Context, record Record) error
}

// Store is a Sink that can also be queried.
type Store interface {
	Sink
	FindByID(ctx context.Context, id id.GateLogID) (*Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	ListByVehicle(ctx context.Context, vehicleNo string, limit int) ([]Record, error)
	Stats(ctx context.Context, since time.Time) (Stats, error)
}

// Recorder accepts records fire-and-forget.
type Recorder interface {
	Record(ctx context.Context, record Record)
}

// NormalizeLimit clamps a caller-supplied limit into [1, MaxListLimit],
// defaulting to 50.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

type broadcast []Recorder

// Broadcast hands each record to every recorder in order. Nil recorders are skipped.
func Broadcast(recorders ...Recorder) Recorder {
	out := make(broadcast, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

func (b broadcast) Record(ctx context.Context, record Record) {
	for _, r := range b {
		r.Record(ctx, record)
	}
}
