// Package dispatch runs the gate-side compliance battery for a vehicle and
// shipment, derives the verdict and score, and issues dispatch tokens.
package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"gatezero/internal/dispatch/metrics"
	"gatezero/internal/dispatch/ports"
	"gatezero/internal/domain"
	"gatezero/internal/fleet"
	id "gatezero/pkg/domain"
	"gatezero/pkg/requestcontext"
)

const (
	defaultLookupTimeout    = 3 * time.Second
	defaultBatchConcurrency = 4

	reasonNotFound    = "Vehicle not found in registry"
	reasonUnavailable = "Reference data store unavailable. Please retry."
	reasonCancelled   = "Verification cancelled before completion"

	detailsUnavailable = "Reference data store unavailable"
)

// Service verifies dispatch requests. It holds no request-spanning state.
type Service struct {
	fleet     ports.FleetPort
	taxStatus ports.TaxStatusPort
	audit     ports.AuditPort
	tokens    *TokenIssuer
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer

	clock            func() time.Time
	location         *time.Location
	lookupTimeout    time.Duration
	batchConcurrency int
	newID            func() id.GateLogID
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the wall clock.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLocation sets the timezone calendar days are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLookupTimeout bounds the reference data lookups.
func WithLookupTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookupTimeout = d
		}
	}
}

// WithBatchConcurrency bounds parallel verifications in VerifyBatch.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// WithTokenRandom sets the random source for dispatch tokens.
func WithTokenRandom(r io.Reader) Option {
	return func(s *Service) { s.tokens = NewTokenIssuer(r) }
}

// WithIDGenerator overrides gate log id generation.
func WithIDGenerator(fn func() id.GateLogID) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New constructs a dispatch service.
func New(fleet ports.FleetPort, taxStatus ports.TaxStatusPort, audit ports.AuditPort, opts ...Option) *Service {
	s := &Service{
		fleet:            fleet,
		taxStatus:        taxStatus,
		audit:            audit,
		tokens:           NewTokenIssuer(nil),
		logger:           slog.Default(),
		tracer:           otel.Tracer("gatezero/dispatch"),
		clock:            time.Now,
		location:         time.UTC,
		lookupTimeout:    defaultLookupTimeout,
		batchConcurrency: defaultBatchConcurrency,
		newID:            id.NewGateLogID,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Verify runs the full verification for one request. It always returns a
// well-formed result; infrastructure problems surface as BLOCKED results.
// The result is handed to the audit port before returning.
func (s *Service) Verify(ctx context.Context, req Request) *Result {
	ctx, span := s.tracer.Start(ctx, "dispatch.Verify")
	defer span.End()

	start := s.clock()
	req.VehicleNo = fleet.NormalizeRegistration(req.VehicleNo)
	span.SetAttributes(attribute.String("dispatch.vehicle_no", req.VehicleNo))

	result, path, outcome := s.evaluate(ctx, req, start)

	result.ScanDuration = s.clock().Sub(start)
	span.SetAttributes(
		attribute.String("dispatch.verdict", string(result.Verdict)),
		attribute.Int("dispatch.compliance_score", result.ComplianceScore),
	)
	s.metrics.IncrementOutcome(string(outcome), path)
	s.metrics.ObserveVerifyLatency(result.ScanDuration)

	// The audit write must survive the caller disconnecting.
	s.audit.Record(context.WithoutCancel(ctx), result.Record())

	s.logger.InfoContext(ctx, "dispatch verified",
		"request_id", requestcontext.RequestID(ctx),
		"gate_log_id", result.ID.String(),
		"vehicle_no", result.VehicleNo,
		"verdict", result.Verdict,
		"compliance_score", result.ComplianceScore,
		"path", path,
		"duration_ms", result.ScanDuration.Milliseconds(),
	)
	return result
}

// VerifyBatch verifies each request with bounded concurrency. Results keep
// the input order.
func (s *Service) VerifyBatch(ctx context.Context, reqs []Request) []*Result {
	results := make([]*Result, len(reqs))

	var g errgroup.Group
	g.SetLimit(s.batchConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			results[i] = s.Verify(ctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Service) evaluate(ctx context.Context, req Request, start time.Time) (*Result, string, Outcome) {
	result := &Result{
		ID:         s.newID(),
		VehicleNo:  req.VehicleNo,
		EWayBillNo: req.EWayBillNo,
		Timestamp:  start,
		OperatorID: req.OperatorID,
		OperatorIP: req.OperatorIP,
	}

	evidence, err := s.gatherEvidence(ctx, req.VehicleNo)
	if err != nil {
		return s.lookupFailure(ctx, result, err)
	}

	at := s.clock()
	today := calendarDay(at, s.location)
	result.VehicleSnapshot = evidence.Vehicle.Snapshot()
	result.DriverSnapshot = evidence.Driver.Snapshot()

	blacklist := checkBlacklist(evidence.Vehicle, at)
	s.metrics.IncrementCheck(string(blacklist.Name), string(blacklist.Status))
	if blacklist.Status == domain.CheckFailed {
		eval := EvaluateChecks(req.VehicleNo, []domain.Check{blacklist})
		s.applyEvaluation(result, []domain.Check{blacklist}, eval, at)
		return result, "blacklist", eval.Outcome
	}

	checks := s.runBattery(evidence, req.EWayBillNo, today, at)
	if ctx.Err() != nil {
		return s.cancelled(ctx, result)
	}

	all := append([]domain.Check{blacklist}, checks...)
	eval := EvaluateChecks(req.VehicleNo, all)
	s.applyEvaluation(result, all, eval, at)
	return result, "battery", eval.Outcome
}

// runBattery evaluates checks 2-8 in parallel. Each check writes its own slot,
// so the order is fixed regardless of completion order.
func (s *Service) runBattery(evidence *Evidence, eWayBill string, today, at time.Time) []domain.Check {
	v, d := evidence.Vehicle, evidence.Driver
	battery := []func() domain.Check{
		func() domain.Check { return checkRegistration(v, today, at) },
		func() domain.Check { return checkInsurance(v, today, at) },
		func() domain.Check { return checkTaxID(v, evidence.TaxStatus, at) },
		func() domain.Check { return checkEWayBill(eWayBill, at) },
		func() domain.Check { return checkPermit(v, today, at) },
		func() domain.Check { return checkDriverLicense(d, today, at) },
		func() domain.Check { return checkRouteDistance(at) },
	}

	checks := make([]domain.Check, len(battery))
	var g errgroup.Group
	for i, run := range battery {
		g.Go(func() error {
			checks[i] = run()
			return nil
		})
	}
	_ = g.Wait()

	for _, c := range checks {
		s.metrics.IncrementCheck(string(c.Name), string(c.Status))
	}
	return checks
}

func (s *Service) applyEvaluation(result *Result, checks []domain.Check, eval Evaluation, at time.Time) {
	result.Checks = checks
	result.Reasons = eval.Reasons
	result.ComplianceScore = eval.Score
	result.Verdict = eval.Outcome.Verdict()
	result.HasWarnings = hasWarning(checks)

	if result.Verdict == domain.VerdictApproved {
		token := s.tokens.Issue(result.VehicleNo, at)
		result.DispatchToken = &token
		s.metrics.IncrementTokensIssued()
	}
}

func (s *Service) lookupFailure(ctx context.Context, result *Result, err error) (*Result, string, Outcome) {
	at := s.clock()
	if isVehicleNotFound(err) {
		s.failSynthetic(result, domain.CheckRegistry,
			"Vehicle "+result.VehicleNo+" not found in system", reasonNotFound, at)
		return result, "not_found", OutcomeBlocked
	}
	if ctx.Err() != nil {
		return s.cancelled(ctx, result)
	}

	s.logger.ErrorContext(ctx, "reference data lookup failed",
		"request_id", requestcontext.RequestID(ctx),
		"vehicle_no", result.VehicleNo,
		"timeout", errors.Is(err, context.DeadlineExceeded),
		"error", err,
	)
	s.failSynthetic(result, domain.CheckSystem, detailsUnavailable, reasonUnavailable, at)
	return result, "unavailable", OutcomeBlocked
}

func (s *Service) cancelled(ctx context.Context, result *Result) (*Result, string, Outcome) {
	s.logger.WarnContext(ctx, "verification cancelled by caller",
		"request_id", requestcontext.RequestID(ctx),
		"vehicle_no", result.VehicleNo,
		"error", ctx.Err(),
	)
	result.VehicleSnapshot = nil
	result.DriverSnapshot = nil
	s.failSynthetic(result, domain.CheckSystem, "Verification cancelled: "+ctx.Err().Error(), reasonCancelled, s.clock())
	return result, "cancelled", OutcomeBlocked
}

// failSynthetic blocks the result with a single synthetic check and score 0.
func (s *Service) failSynthetic(result *Result, name domain.CheckName, details, reason string, at time.Time) {
	result.Checks = []domain.Check{newCheck(name, domain.CheckFailed, details, at)}
	result.Reasons = []string{reason}
	result.ComplianceScore = minScore
	result.Verdict = domain.VerdictBlocked
	result.DispatchToken = nil
	s.metrics.IncrementCheck(string(name), string(domain.CheckFailed))
}

func hasWarning(checks []domain.Check) bool {
	for _, c := range checks {
		if c.Status == domain.CheckWarning {
			return true
		}
	}
	return false
}
