// Package memory is an append-only in-process gate log for tests and local development.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gatezero/internal/domain"
	"gatezero/internal/fleet"
	"gatezero/internal/gatelog"
	id "gatezero/pkg/domain"
	"gatezero/pkg/platform/sentinel"
)

// InMemoryStore keeps records in append order with an id index.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []gatelog.Record
	byID    map[id.GateLogID]int
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.GateLogID]int)}
}

// Append stores record. Re-appending an existing id is a no-op.
func (s *InMemoryStore) Append(_ context.Context, record gatelog.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[record.ID]; ok {
		return nil
	}
	s.byID[record.ID] = len(s.records)
	s.records = append(s.records, record)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, gateLogID id.GateLogID) (*gatelog.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[gateLogID]
	if !ok {
		return nil, fmt.Errorf("gate log %s: %w", gateLogID, sentinel.ErrNotFound)
	}
	rec := s.records[i]
	return &rec, nil
}

// ListRecent returns the newest records first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]gatelog.Record, error) {
	return s.list(gatelog.NormalizeLimit(limit), func(gatelog.Record) bool { return true }), nil
}

// ListByVehicle returns the newest records for one plate first.
func (s *InMemoryStore) ListByVehicle(_ context.Context, vehicleNo string, limit int) ([]gatelog.Record, error) {
	plate := fleet.NormalizeRegistration(vehicleNo)
	return s.list(gatelog.NormalizeLimit(limit), func(r gatelog.Record) bool { return r.VehicleNo == plate }), nil
}

func (s *InMemoryStore) Stats(_ context.Context, since time.Time) (gatelog.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := gatelog.Stats{Since: since}
	scoreSum := 0
	for _, r := range s.records {
		if r.Timestamp.Before(since) {
			continue
		}
		stats.Total++
		scoreSum += r.ComplianceScore
		switch r.Verdict {
		case domain.VerdictApproved:
			stats.Approved++
		case domain.VerdictBlocked:
			stats.Blocked++
		}
	}
	if stats.Total > 0 {
		stats.AverageScore = float64(scoreSum) / float64(stats.Total)
	}
	return stats, nil
}

// list walks newest to oldest. Records arrive roughly in time order, so
// append order stands in for timestamp order.
func (s *InMemoryStore) list(limit int, keep func(gatelog.Record) bool) []gatelog.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]gatelog.Record, 0, min(limit, len(s.records)))
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(s.records[i]) {
			out = append(out, s.records[i])
		}
	}
	return out
}

// Len returns the number of stored records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
