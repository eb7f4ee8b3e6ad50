package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"gatezero/internal/dispatch/metrics"
	"gatezero/internal/dispatch/mocks"
	"gatezero/internal/dispatch/ports"
	"gatezero/internal/domain"
	"gatezero/internal/fleet"
	"gatezero/internal/fleet/store/memory"
	"gatezero/internal/gatelog"
	"gatezero/internal/gatelog/publisher"
	gatelogmemory "gatezero/internal/gatelog/store/memory"
	id "gatezero/pkg/domain"
	"gatezero/pkg/platform/sentinel"
)

//go:generate mockgen -source=ports/fleet.go -destination=mocks/fleet-mocks.go -package=mocks FleetPort
//go:generate mockgen -source=ports/taxstatus.go -destination=mocks/taxstatus-mocks.go -package=mocks TaxStatusPort
//go:generate mockgen -source=ports/audit.go -destination=mocks/audit-mocks.go -package=mocks AuditPort

const gstin = "27AAPFU0939F1ZV"

type ServiceSuite struct {
	suite.Suite
	ctrl  *gomock.Controller
	fleet *memory.InMemory
	tax   *mocks.MockTaxStatusPort
	audit *mocks.MockAuditPort

	mu       sync.Mutex
	recorded []gatelog.Record
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.tax = mocks.NewMockTaxStatusPort(s.ctrl)
	s.audit = mocks.NewMockAuditPort(s.ctrl)
	s.recorded = nil

	s.audit.EXPECT().Record(gomock.Any(), gomock.Any()).
		Do(func(ctx context.Context, rec gatelog.Record) {
			s.NoError(ctx.Err(), "audit context must not be cancelled")
			s.mu.Lock()
			defer s.mu.Unlock()
			s.recorded = append(s.recorded, rec)
		}).AnyTimes()

	s.fleet = memory.NewInMemory()
	s.fleet.PutVehicle(compliantVehicle("MH12AB1234"))
	s.fleet.AddDriver(validDriver("MH12AB1234"))
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) newService(fleetPort ports.FleetPort, opts ...Option) *Service {
	base := []Option{
		WithClock(func() time.Time { return scanAt }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(fleetPort, s.tax, s.audit, append(base, opts...)...)
}

func (s *ServiceSuite) expectTax(status ports.TaxStatus, err error) {
	s.tax.EXPECT().Status(gomock.Any(), gstin).Return(status, err).AnyTimes()
}

func (s *ServiceSuite) lastRecord() gatelog.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Require().NotEmpty(s.recorded)
	return s.recorded[len(s.recorded)-1]
}

func compliantVehicle(plate string) fleet.Vehicle {
	tax := gstin
	permit := day(2027, time.December, 31)
	return fleet.Vehicle{
		Registration:      plate,
		OwnerName:         "Sharma Logistics Pvt Ltd",
		VehicleType:       "HGV",
		RCStatus:          fleet.RCActive,
		RCExpiry:          day(2028, time.March, 1),
		InsuranceExpiry:   day(2027, time.June, 30),
		InsurancePolicyNo: "POL-2024-118833",
		InsurerName:       "ICICI Lombard",
		PermitExpiry:      &permit,
		TaxID:             &tax,
		RiskScore:         12,
	}
}

func validDriver(plate string) fleet.Driver {
	return fleet.Driver{
		ID:              id.DriverID(uuid.New()),
		Name:            "Ramesh Kumar",
		LicenseNo:       "MH1420110012345",
		LicenseExpiry:   day(2029, time.January, 1),
		Status:          fleet.DriverActive,
		AssignedVehicle: &plate,
	}
}

func names(checks []domain.Check) []domain.CheckName {
	out := make([]domain.CheckName, 0, len(checks))
	for _, c := range checks {
		out = append(out, c.Name)
	}
	return out
}

func (s *ServiceSuite) TestVerify_AllChecksPass() {
	s.expectTax(ports.TaxStatusActive, nil)
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	svc := s.newService(s.fleet, WithMetrics(m))

	result := svc.Verify(context.Background(), Request{
		VehicleNo:  " mh12ab1234 ",
		EWayBillNo: "123456789012",
		OperatorID: "gate-3",
		OperatorIP: "10.0.0.7",
	})

	s.Equal("MH12AB1234", result.VehicleNo)
	s.Equal(domain.VerdictApproved, result.Verdict)
	s.Equal(100, result.ComplianceScore)
	s.False(result.HasWarnings)
	s.Empty(result.Reasons)
	s.Equal(battery, names(result.Checks))
	for _, c := range result.Checks {
		s.Equal(domain.CheckPassed, c.Status, c.Name)
	}
	s.Require().NotNil(result.DispatchToken)
	s.Regexp(tokenPattern, *result.DispatchToken)
	s.True(strings.HasPrefix(*result.DispatchToken, "WG-MH12AB1234-"))
	s.Require().NotNil(result.VehicleSnapshot)
	s.Equal("Sharma Logistics Pvt Ltd", result.VehicleSnapshot.OwnerName)
	s.Require().NotNil(result.DriverSnapshot)

	rec := s.lastRecord()
	s.Equal(result.ID, rec.ID)
	s.Equal(result.DispatchToken, rec.DispatchToken)
	s.Require().NotNil(rec.OperatorID)
	s.Equal("gate-3", *rec.OperatorID)

	s.Equal(1.0, promtest.ToFloat64(m.VerificationOutcome.WithLabelValues("approved", "battery")))
	s.Equal(1.0, promtest.ToFloat64(m.TokensIssued))
}

func (s *ServiceSuite) TestVerify_BlacklistShortCircuits() {
	v := compliantVehicle("MH12AB1234")
	v.IsBlacklisted = true
	reason := "Repeated overloading"
	v.BlacklistReason = &reason
	s.fleet.PutVehicle(v)

	result := s.newService(s.fleet).Verify(context.Background(), Request{VehicleNo: "MH12AB1234", EWayBillNo: "123456789012"})

	s.Equal(domain.VerdictBlocked, result.Verdict)
	s.Equal(50, result.ComplianceScore)
	s.Require().Len(result.Checks, 1)
	s.Equal(domain.CheckBlacklist, result.Checks[0].Name)
	s.Equal("Vehicle is blacklisted: Repeated overloading", result.Checks[0].Details)
	s.Equal([]string{"Vehicle MH12AB1234 is on the blacklist"}, result.Reasons)
	s.Nil(result.DispatchToken)
	s.NotNil(result.VehicleSnapshot)
}

func (s *ServiceSuite) TestVerify_UnknownVehicle() {
	result := s.newService(s.fleet).Verify(context.Background(), Request{VehicleNo: "xx00zz0000", EWayBillNo: "123456789012"})

	s.Equal(domain.VerdictBlocked, result.Verdict)
	s.Equal(0, result.ComplianceScore)
	s.Require().Len(result.Checks, 1)
	s.Equal(domain.CheckRegistry, result.Checks[0].Name)
	s.Equal(domain.CheckFailed, result.Checks[0].Status)
	s.Equal("Vehicle XX00ZZ0000 not found in system", result.Checks[0].Details)
	s.Equal([]string{"Vehicle not found in registry"}, result.Reasons)
	s.Nil(result.DispatchToken)
	s.Nil(result.VehicleSnapshot)
	s.Nil(result.DriverSnapshot)
	s.Equal(result.ID, s.lastRecord().ID)
}

func (s *ServiceSuite) TestVerify_InvalidEWayBill() {
	s.expectTax(ports.TaxStatusActive, nil)

	result := s.newService(s.fleet).Verify(context.Background(), Request{VehicleNo: "MH12AB1234", EWayBillNo: "12345"})

	s.Equal(domain.VerdictBlocked, result.Verdict)
	s.Equal(80, result.ComplianceScore)
	s.Len(result.Checks, 8)
	s.Equal([]string{"Invalid E-Way Bill format (must be 12 digits)"}, result.Reasons)
	s.Nil(result.DispatchToken)
}

func (s *ServiceSuite) TestVerify_InsuranceExpired() {
	s.expectTax(ports.TaxStatusActive, nil)
	v := compliantVehicle("MH12AB1234")
	v.InsuranceExpiry = day(2026, time.October, 4)
	s.fleet.PutVehicle(v)

	result := s.newService(s.fleet).Verify(context.Background(), Request{VehicleNo: "MH12AB1234", EWayBillNo: "123456789012"})

	s.Equal(domain.VerdictBlocked, result.Verdict)
	s.Equal(75, result.ComplianceScore)
	s.Equal([]string{"Policy Expired 10 days ago (04 Oct 2026)"}, result.Reasons)
	s.Nil(result.DispatchToken)
}

func (s *ServiceSuite) TestVerify_WarningsStillApprove() {
	v := compliantVehicle("KA01X9")
	v.TaxID = nil
	s.fleet.PutVehicle(v)

	result := s.newService(s.fleet).Verify(context.Background(), Request{VehicleNo: "KA01X9", EWayBillNo: "123456789012"})

	s.Equal(domain.VerdictApproved, result.Verdict)
	s.True(result.HasWarnings)
	s.Equal(90, result.ComplianceScore, "missing tax id and missing driver deduct 5 each")
	s.Empty(result.Reasons)
	s.NotNil(result.DispatchToken)
	s.Nil(result.DriverSnapshot)
}

func (s *ServiceSuite) TestVerify_TaxStatusErrorDowngradesToWarning() {
	s.expectTax(ports.TaxStatusUnknown, errors.New("gst registry timeout"))

	result := s.newService(s.fleet).Verify(context.Background(), Request{VehicleNo: "MH12AB1234", EWayBillNo: "123456789012"})

	s.Equal(domain.VerdictApproved, result.Verdict)
	s.Equal(95, result.ComplianceScore)
	s.True(result.HasWarnings)
	s.Equal(domain.CheckWarning, result.Checks[3].Status)
	s.Equal("GSTIN 27AAPFU0939F1ZV - Status: Under Review", result.Checks[3].Details)
}

func (s *ServiceSuite) TestVerify_Idempotent() {
	s.expectTax(ports.TaxStatusActive, nil)
	gateLogID := id.NewGateLogID()
	build := func() *Service {
		return s.newService(s.fleet,
			WithIDGenerator(func() id.GateLogID { return gateLogID }),
			WithTokenRandom(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6})),
		)
	}
	req := Request{VehicleNo: "MH12AB1234", EWayBillNo: "123456789012"}

	first := build().Verify(context.Background(), req)
	second := build().Verify(context.Background(), req)

	s.Equal(first, second)
	s.Equal("WG-MH12AB1234-MV7VPUO0-123456", *first.DispatchToken)
}

func (s *ServiceSuite) TestVerify_CancelledBeforeLookup() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := s.newService(s.fleet).Verify(ctx, Request{VehicleNo: "MH12AB1234", EWayBillNo: "123456789012"})

	s.Equal(domain.VerdictBlocked, result.Verdict)
	s.Equal(0, result.ComplianceScore)
	s.Require().Len(result.Checks, 1)
	s.Equal(domain.CheckSystem, result.Checks[0].Name)
	s.Equal("Verification cancelled: context canceled", result.Checks[0].Details)
	s.Equal([]string{"Verification cancelled before completion"}, result.Reasons)
	s.Nil(result.DispatchToken)
	s.Equal(result.ID, s.lastRecord().ID, "cancelled verifications are still audited")
}

func (s *ServiceSuite) TestVerify_CancelledDuringEvaluation() {
	s.expectTax(ports.TaxStatusActive, nil)
	fleetPort := mocks.NewMockFleetPort(s.ctrl)
	vehicle := compliantVehicle("MH12AB1234")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fleetPort.EXPECT().FetchVehicle(gomock.Any(), "MH12AB1234").Return(&vehicle, nil)
	fleetPort.EXPECT().FetchDriverForVehicle(gomock.Any(), "MH12AB1234").
		DoAndReturn(func(context.Context, string) (*fleet.Driver, error) {
			cancel()
			return nil, nil
		})

	result := s.newService(fleetPort).Verify(ctx, Request{VehicleNo: "MH12AB1234", EWayBillNo: "123456789012"})

	s.Equal(domain.VerdictBlocked, result.Verdict)
	s.Require().Len(result.Checks, 1)
	s.Equal(domain.CheckSystem, result.Checks[0].Name)
	s.Nil(result.DispatchToken)
	s.Nil(result.VehicleSnapshot)
	s.Nil(result.DriverSnapshot)
}

func (s *ServiceSuite) TestVerify_StoreUnavailable() {
	s.Run("vehicle lookup", func() {
		fleetPort := mocks.NewMockFleetPort(s.ctrl)
		fleetPort.EXPECT().FetchVehicle(gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("fetch vehicle: %w: %w", sentinel.ErrUnavailable, errors.New("connection refused")))
		fleetPort.EXPECT().FetchDriverForVehicle(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

		result := s.newService(fleetPort).Verify(context.Background(), Request{VehicleNo: "MH12AB1234", EWayBillNo: "123456789012"})

		s.assertUnavailable(result)
	})

	s.Run("driver lookup", func() {
		s.expectTax(ports.TaxStatusActive, nil)
		vehicle := compliantVehicle("MH12AB1234")
		fleetPort := mocks.NewMockFleetPort(s.ctrl)
		fleetPort.EXPECT().FetchVehicle(gomock.Any(), gomock.Any()).Return(&vehicle, nil).AnyTimes()
		fleetPort.EXPECT().FetchDriverForVehicle(gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("fetch driver: %w", sentinel.ErrUnavailable))

		result := s.newService(fleetPort).Verify(context.Background(), Request{VehicleNo: "MH12AB1234", EWayBillNo: "123456789012"})

		s.assertUnavailable(result)
	})

	s.Run("lookup timeout", func() {
		fleetPort := mocks.NewMockFleetPort(s.ctrl)
		fleetPort.EXPECT().FetchVehicle(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ string) (*fleet.Vehicle, error) {
				<-ctx.Done()
				return nil, fmt.Errorf("fetch vehicle: %w: %w", sentinel.ErrUnavailable, ctx.Err())
			})
		fleetPort.EXPECT().FetchDriverForVehicle(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

		svc := s.newService(fleetPort, WithLookupTimeout(10*time.Millisecond))
		result := svc.Verify(context.Background(), Request{VehicleNo: "MH12AB1234", EWayBillNo: "123456789012"})

		s.assertUnavailable(result)
	})
}

func (s *ServiceSuite) assertUnavailable(result *Result) {
	s.Equal(domain.VerdictBlocked, result.Verdict)
	s.Equal(0, result.ComplianceScore)
	s.Require().Len(result.Checks, 1)
	s.Equal(domain.CheckSystem, result.Checks[0].Name)
	s.Equal("Reference data store unavailable", result.Checks[0].Details)
	s.Equal([]string{"Reference data store unavailable. Please retry."}, result.Reasons)
	s.Nil(result.DispatchToken)
}

func (s *ServiceSuite) TestVerifyBatch_KeepsInputOrder() {
	s.expectTax(ports.TaxStatusActive, nil)
	blacklisted := compliantVehicle("DL01AB0001")
	blacklisted.IsBlacklisted = true
	s.fleet.PutVehicle(blacklisted)

	reqs := []Request{
		{VehicleNo: "MH12AB1234", EWayBillNo: "123456789012"},
		{VehicleNo: "DL01AB0001", EWayBillNo: "123456789012"},
		{VehicleNo: "XX00ZZ0000", EWayBillNo: "123456789012"},
		{VehicleNo: "MH12AB1234", EWayBillNo: "12345"},
	}
	results := s.newService(s.fleet, WithBatchConcurrency(2)).VerifyBatch(context.Background(), reqs)

	s.Require().Len(results, 4)
	s.Equal("MH12AB1234", results[0].VehicleNo)
	s.Equal(domain.VerdictApproved, results[0].Verdict)
	s.Equal(50, results[1].ComplianceScore)
	s.Equal(domain.CheckRegistry, results[2].Checks[0].Name)
	s.Equal(80, results[3].ComplianceScore)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Len(s.recorded, 4)
}

// A result handed to the real publisher and store reads back unchanged.
func TestVerify_GateLogRoundTrip(t *testing.T) {
	fleetStore := memory.NewInMemory()
	fleetStore.PutVehicle(compliantVehicle("MH12AB1234"))
	fleetStore.AddDriver(validDriver("MH12AB1234"))

	store := gatelogmemory.NewInMemoryStore()
	pub := publisher.New(store, publisher.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	svc := New(fleetStore, staticTax{}, pub, WithClock(func() time.Time { return scanAt }))
	result := svc.Verify(context.Background(), Request{
		VehicleNo:  "MH12AB1234",
		EWayBillNo: "123456789012",
		OperatorIP: "10.0.0.7",
	})
	if err := pub.Close(context.Background()); err != nil {
		t.Fatalf("close publisher: %v", err)
	}

	rec, err := store.FindByID(context.Background(), result.ID)
	if err != nil {
		t.Fatalf("find gate log: %v", err)
	}
	if rec.Verdict != result.Verdict || rec.ComplianceScore != result.ComplianceScore {
		t.Fatalf("gate log %s/%d differs from result %s/%d", rec.Verdict, rec.ComplianceScore, result.Verdict, result.ComplianceScore)
	}
	if len(rec.Checks) != len(result.Checks) {
		t.Fatalf("expected %d checks, got %d", len(result.Checks), len(rec.Checks))
	}
	for i := range rec.Checks {
		if rec.Checks[i] != result.Checks[i] {
			t.Fatalf("check %d differs: %+v vs %+v", i, rec.Checks[i], result.Checks[i])
		}
	}
	if rec.OperatorID != nil {
		t.Fatalf("expected no operator id, got %q", *rec.OperatorID)
	}
	if rec.OperatorIP == nil || *rec.OperatorIP != "10.0.0.7" {
		t.Fatalf("expected operator ip to be recorded")
	}
}

type staticTax struct{}

func (staticTax) Status(context.Context, string) (ports.TaxStatus, error) {
	return ports.TaxStatusActive, nil
}
