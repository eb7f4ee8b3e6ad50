// Package postgres persists gate logs to the gate_logs table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gatezero/internal/domain"
	"gatezero/internal/fleet"
	"gatezero/internal/gatelog"
	id "gatezero/pkg/domain"
	"gatezero/pkg/platform/sentinel"
)

// PostgresStore is an append-only gate log. Rows are never updated.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed gate log store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `
	SELECT id, vehicle_no, eway_bill_no, verdict, reasons::text, checks::text,
	       compliance_score, has_warnings, scan_duration_ms, qr_code_hash,
	       vehicle_snapshot::text, driver_snapshot::text, operator_id, operator_ip, created_at
	FROM gate_logs
`

// Append inserts record. Re-appending an existing id is a no-op.
func (s *PostgresStore) Append(ctx context.Context, record gatelog.Record) error {
	checks, err := json.Marshal(record.Checks)
	if err != nil {
		return fmt.Errorf("encode checks: %w", err)
	}
	vehicle, err := encodeSnapshot(record.VehicleSnapshot)
	if err != nil {
		return fmt.Errorf("encode vehicle snapshot: %w", err)
	}
	driver, err := encodeSnapshot(record.DriverSnapshot)
	if err != nil {
		return fmt.Errorf("encode driver snapshot: %w", err)
	}
	reasons := record.Reasons
	if reasons == nil {
		reasons = []string{}
	}

	query := `
		INSERT INTO gate_logs (
			id, vehicle_no, eway_bill_no, verdict, reasons, checks,
			compliance_score, has_warnings, scan_duration_ms, qr_code_hash,
			vehicle_snapshot, driver_snapshot, operator_id, operator_ip, created_at
		)
		VALUES ($1, $2, $3, $4, $5::text[], $6::jsonb, $7, $8, $9, $10, $11::jsonb, $12::jsonb, $13, $14, $15)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(record.ID),
		record.VehicleNo,
		record.EWayBillNo,
		string(record.Verdict),
		pq.Array(reasons),
		string(checks),
		record.ComplianceScore,
		record.HasWarnings,
		record.ScanDurationMS,
		record.DispatchToken,
		vehicle,
		driver,
		record.OperatorID,
		record.OperatorIP,
		record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append gate log: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, gateLogID id.GateLogID) (*gatelog.Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, uuid.UUID(gateLogID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("gate log %s: %w", gateLogID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find gate log: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]gatelog.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` ORDER BY created_at DESC, id LIMIT $1`,
		gatelog.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list gate logs: %w", err)
	}
	return collect(rows)
}

func (s *PostgresStore) ListByVehicle(ctx context.Context, vehicleNo string, limit int) ([]gatelog.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE vehicle_no = $1 ORDER BY created_at DESC, id LIMIT $2`,
		fleet.NormalizeRegistration(vehicleNo), gatelog.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list gate logs by vehicle: %w", err)
	}
	return collect(rows)
}

func (s *PostgresStore) Stats(ctx context.Context, since time.Time) (gatelog.Stats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE verdict = 'APPROVED'),
		       COUNT(*) FILTER (WHERE verdict = 'BLOCKED'),
		       COALESCE(AVG(compliance_score), 0)::float8
		FROM gate_logs
		WHERE created_at >= $1
	`
	stats := gatelog.Stats{Since: since}
	err := s.db.QueryRowContext(ctx, query, since).Scan(
		&stats.Total, &stats.Approved, &stats.Blocked, &stats.AverageScore,
	)
	if err != nil {
		return gatelog.Stats{}, fmt.Errorf("gate log stats: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*gatelog.Record, error) {
	var (
		rec      gatelog.Record
		rawID    uuid.UUID
		verdict  string
		reasons  []string
		checks   string
		token    sql.NullString
		vehicle  sql.NullString
		driver   sql.NullString
		operator sql.NullString
		ip       sql.NullString
	)
	err := row.Scan(
		&rawID, &rec.VehicleNo, &rec.EWayBillNo, &verdict, pq.Array(&reasons), &checks,
		&rec.ComplianceScore, &rec.HasWarnings, &rec.ScanDurationMS, &token,
		&vehicle, &driver, &operator, &ip, &rec.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	rec.ID = id.GateLogID(rawID)
	rec.Verdict = domain.Verdict(verdict)
	rec.Reasons = reasons
	if err := json.Unmarshal([]byte(checks), &rec.Checks); err != nil {
		return nil, fmt.Errorf("decode checks: %w", err)
	}
	if vehicle.Valid {
		if err := json.Unmarshal([]byte(vehicle.String), &rec.VehicleSnapshot); err != nil {
			return nil, fmt.Errorf("decode vehicle snapshot: %w", err)
		}
	}
	if driver.Valid {
		if err := json.Unmarshal([]byte(driver.String), &rec.DriverSnapshot); err != nil {
			return nil, fmt.Errorf("decode driver snapshot: %w", err)
		}
	}
	rec.DispatchToken = nullable(token)
	rec.OperatorID = nullable(operator)
	rec.OperatorIP = nullable(ip)
	return &rec, nil
}

func collect(rows *sql.Rows) ([]gatelog.Record, error) {
	defer rows.Close()
	out := []gatelog.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gate log: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gate logs: %w", err)
	}
	return out, nil
}

// encodeSnapshot returns nil for absent snapshots so the column stays NULL.
func encodeSnapshot[T any](snap *T) (*string, error) {
	if snap == nil {
		return nil, nil
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
