// Package cache decorates a fleet.Reader with a Redis read-through cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"gatezero/internal/domain"
	"gatezero/internal/fleet"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gatezero_fleet_cache_lookups_total",
	Help: "Fleet cache lookups by record kind and result",
}, []string{"kind", "result"}) // result: "hit", "miss", "error"

const (
	vehicleKeyPrefix = "fleet:vehicle:"
	driverKeyPrefix  = "fleet:driver:"

	// DefaultTTL keeps reference data short-lived so blacklist toggles propagate quickly.
	DefaultTTL = 30 * time.Second
)

// CachedReader serves snapshots from Redis and falls back to the wrapped reader.
// Redis errors never fail a read. Not-found vehicles are never cached.
type CachedReader struct {
	next   fleet.Reader
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a CachedReader.
type Option func(*CachedReader)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *CachedReader) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for cache faults.
func WithLogger(logger *slog.Logger) Option {
	return func(c *CachedReader) {
		c.logger = logger
	}
}

// New wraps next with a Redis cache.
func New(next fleet.Reader, client *redis.Client, opts ...Option) *CachedReader {
	c := &CachedReader{
		next:   next,
		client: client,
		ttl:    DefaultTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *CachedReader) FetchVehicle(ctx context.Context, registration string) (*fleet.Vehicle, error) {
	key := vehicleKeyPrefix + fleet.NormalizeRegistration(registration)

	var snap *domain.VehicleSnapshot
	if c.get(ctx, "vehicle", key, &snap) && snap != nil {
		return fleet.VehicleFromSnapshot(snap), nil
	}

	v, err := c.next.FetchVehicle(ctx, registration)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, v.Snapshot())
	return v, nil
}

func (c *CachedReader) FetchDriverForVehicle(ctx context.Context, registration string) (*fleet.Driver, error) {
	key := driverKeyPrefix + fleet.NormalizeRegistration(registration)

	// A cached JSON null records "no driver assigned".
	var snap *domain.DriverSnapshot
	if c.get(ctx, "driver", key, &snap) {
		d, err := fleet.DriverFromSnapshot(snap)
		if err == nil {
			return d, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt driver cache entry", "key", key, "error", err)
	}

	d, err := c.next.FetchDriverForVehicle(ctx, registration)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, d.Snapshot())
	return d, nil
}

// get reports whether key was found and decoded into dst.
func (c *CachedReader) get(ctx context.Context, kind, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		cacheLookups.WithLabelValues(kind, "miss").Inc()
		return false
	}
	if err != nil {
		cacheLookups.WithLabelValues(kind, "error").Inc()
		c.logger.WarnContext(ctx, "fleet cache read failed", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		cacheLookups.WithLabelValues(kind, "error").Inc()
		c.logger.WarnContext(ctx, "fleet cache decode failed", "key", key, "error", err)
		return false
	}
	cacheLookups.WithLabelValues(kind, "hit").Inc()
	return true
}

func (c *CachedReader) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "fleet cache write failed", "key", key, "error", err)
	}
}
