package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"gatezero/internal/domain"
	"gatezero/internal/gatelog"
	id "gatezero/pkg/domain"
	"gatezero/pkg/platform/sentinel"
)

type PostgresStoreSuite struct {
	suite.Suite
	db    *sql.DB
	mock  sqlmock.Sqlmock
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.db, s.mock = db, mock
	s.store = NewPostgres(db)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	_ = s.db.Close()
}

var recordColumns = []string{
	"id", "vehicle_no", "eway_bill_no", "verdict", "reasons", "checks",
	"compliance_score", "has_warnings", "scan_duration_ms", "qr_code_hash",
	"vehicle_snapshot", "driver_snapshot", "operator_id", "operator_ip", "created_at",
}

func (s *PostgresStoreSuite) TestAppend() {
	at := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	token := "WG-MH12AB1234-ABC-XYZ123"
	rec := gatelog.Record{
		ID:              id.NewGateLogID(),
		Timestamp:       at,
		VehicleNo:       "MH12AB1234",
		EWayBillNo:      "331000000001",
		Verdict:         domain.VerdictApproved,
		ComplianceScore: 100,
		ScanDurationMS:  42,
		DispatchToken:   &token,
		Checks:          []domain.Check{{Name: domain.CheckRoute, Status: domain.CheckPassed, Timestamp: at}},
		VehicleSnapshot: &domain.VehicleSnapshot{SchemaVersion: 1, Registration: "MH12AB1234"},
	}

	s.Run("inserts idempotently with array reasons and null driver snapshot", func() {
		s.mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO NOTHING")).
			WithArgs(
				uuid.UUID(rec.ID).String(), "MH12AB1234", "331000000001", "APPROVED",
				"{}", sqlmock.AnyArg(), 100, false, int64(42), token,
				sqlmock.AnyArg(), nil, nil, nil, at,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		s.Require().NoError(s.store.Append(s.ctx, rec))
	})

	s.Run("wraps driver errors", func() {
		s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO gate_logs")).
			WillReturnError(errors.New("connection reset"))

		err := s.store.Append(s.ctx, rec)
		s.Require().Error(err)
		s.Contains(err.Error(), "append gate log")
	})
}

func (s *PostgresStoreSuite) TestFindByID() {
	gid := id.NewGateLogID()
	at := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

	s.Run("decodes row", func() {
		s.mock.ExpectQuery(regexp.QuoteMeta("FROM gate_logs")).
			WithArgs(uuid.UUID(gid).String()).
			WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(
				uuid.UUID(gid).String(), "MH12AB1234", "12345", "BLOCKED",
				`{"Invalid E-Way Bill format (must be 12 digits)"}`,
				`[{"name":"E-Way Bill Validation","status":"failed","details":"Invalid E-Way Bill format (must be 12 digits)","timestamp":"2026-10-14T09:30:00Z"}]`,
				80, true, 15, nil,
				`{"schema_version":1,"vehicle_no":"MH12AB1234"}`, nil, "op-7", "10.0.0.9", at,
			))

		rec, err := s.store.FindByID(s.ctx, gid)
		s.Require().NoError(err)
		s.Equal(gid, rec.ID)
		s.Equal(domain.VerdictBlocked, rec.Verdict)
		s.Equal([]string{"Invalid E-Way Bill format (must be 12 digits)"}, rec.Reasons)
		s.Require().Len(rec.Checks, 1)
		s.Equal(domain.CheckEWayBill, rec.Checks[0].Name)
		s.Equal(domain.CheckFailed, rec.Checks[0].Status)
		s.Nil(rec.DispatchToken)
		s.Require().NotNil(rec.VehicleSnapshot)
		s.Equal("MH12AB1234", rec.VehicleSnapshot.Registration)
		s.Nil(rec.DriverSnapshot)
		s.Equal("op-7", *rec.OperatorID)
		s.True(rec.HasWarnings)
	})

	s.Run("no rows is ErrNotFound", func() {
		s.mock.ExpectQuery(regexp.QuoteMeta("FROM gate_logs")).
			WillReturnError(sql.ErrNoRows)

		_, err := s.store.FindByID(s.ctx, gid)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestListByVehicle() {
	s.mock.ExpectQuery(regexp.QuoteMeta("WHERE vehicle_no = $1 ORDER BY created_at DESC")).
		WithArgs("MH12AB1234", gatelog.MaxListLimit).
		WillReturnRows(sqlmock.NewRows(recordColumns))

	got, err := s.store.ListByVehicle(s.ctx, " mh12ab1234 ", 5000)
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *PostgresStoreSuite) TestStats() {
	since := time.Date(2026, 10, 7, 0, 0, 0, 0, time.UTC)
	s.mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) FILTER (WHERE verdict = 'APPROVED')")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"total", "approved", "blocked", "avg"}).AddRow(10, 7, 3, 81.5))

	stats, err := s.store.Stats(s.ctx, since)
	s.Require().NoError(err)
	s.Equal(gatelog.Stats{Since: since, Total: 10, Approved: 7, Blocked: 3, AverageScore: 81.5}, stats)
}
