package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"gatezero/internal/dispatch/ports"
	"gatezero/pkg/platform/sentinel"
	"gatezero/pkg/requestcontext"
)

// lookupError tags which lookup failed so the caller can tell an unknown
// plate apart from an unreachable store.
type lookupError struct {
	source string
	err    error
}

func (e *lookupError) Error() string { return fmt.Sprintf("%s lookup: %v", e.source, e.err) }
func (e *lookupError) Unwrap() error { return e.err }

// gatherEvidence fetches the vehicle and driver concurrently under the lookup
// timeout. The tax status lookup chains onto the vehicle fetch because it
// needs the vehicle's tax id, and is skipped for blacklisted vehicles.
func (s *Service) gatherEvidence(ctx context.Context, registration string) (*Evidence, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.gatherEvidence")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	evidence := &Evidence{
		FetchedAt: s.clock(),
		TaxStatus: ports.TaxStatusUnknown,
	}

	g.Go(func() error {
		start := time.Now()
		vehicle, err := s.fleet.FetchVehicle(ctx, registration)
		evidence.Latencies.Vehicle = time.Since(start)
		s.metrics.ObserveEvidenceLatency("vehicle", evidence.Latencies.Vehicle)
		if err != nil {
			return &lookupError{source: "vehicle", err: err}
		}
		evidence.Vehicle = vehicle

		if vehicle.IsBlacklisted || vehicle.TaxID == nil || *vehicle.TaxID == "" {
			return nil
		}

		start = time.Now()
		status, err := s.taxStatus.Status(ctx, *vehicle.TaxID)
		evidence.Latencies.TaxStatus = time.Since(start)
		s.metrics.ObserveEvidenceLatency("tax_status", evidence.Latencies.TaxStatus)

		// Tax status is advisory: an unreachable registry downgrades to a warning.
		if err != nil {
			s.logger.WarnContext(ctx, "tax status lookup failed",
				"request_id", requestcontext.RequestID(ctx),
				"vehicle_no", registration,
				"error", err,
			)
			status = ports.TaxStatusUnderReview
		}
		evidence.TaxStatus = status
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		driver, err := s.fleet.FetchDriverForVehicle(ctx, registration)
		evidence.Latencies.Driver = time.Since(start)
		s.metrics.ObserveEvidenceLatency("driver", evidence.Latencies.Driver)
		if err != nil {
			return &lookupError{source: "driver", err: err}
		}
		evidence.Driver = driver
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evidence gathering failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("dispatch.driver_assigned", evidence.Driver != nil),
		attribute.String("dispatch.tax_status", string(evidence.TaxStatus)),
	)
	return evidence, nil
}

// isVehicleNotFound reports whether err is the vehicle lookup's not-found.
// A not-found from any other source is not a registry miss.
func isVehicleNotFound(err error) bool {
	var le *lookupError
	return errors.As(err, &le) && le.source == "vehicle" && errors.Is(err, sentinel.ErrNotFound)
}
