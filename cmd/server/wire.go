package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gatezero/internal/dispatch"
	dispatchAdapters "gatezero/internal/dispatch/adapters"
	dispatchHandler "gatezero/internal/dispatch/handler"
	dispatchMetrics "gatezero/internal/dispatch/metrics"
	"gatezero/internal/fleet"
	fleetCache "gatezero/internal/fleet/store/cache"
	fleetMemory "gatezero/internal/fleet/store/memory"
	fleetPostgres "gatezero/internal/fleet/store/postgres"
	"gatezero/internal/gatelog"
	gatelogHandler "gatezero/internal/gatelog/handler"
	"gatezero/internal/gatelog/publisher"
	gatelogMemory "gatezero/internal/gatelog/store/memory"
	gatelogPostgres "gatezero/internal/gatelog/store/postgres"
	"gatezero/internal/gatelog/stream"
	"gatezero/internal/platform/config"
	"gatezero/internal/platform/database"
	"gatezero/internal/platform/health"
	httpMetrics "gatezero/internal/platform/metrics"
	"gatezero/internal/platform/middleware"
	redisClient "gatezero/internal/platform/redis"
	"gatezero/pkg/platform/middleware/metadata"
	"gatezero/pkg/platform/middleware/requesttime"
)

type app struct {
	router     http.Handler
	publishers []*publisher.Publisher
	closers    []func(context.Context)
	logger     *slog.Logger
}

// close drains publishers first, then releases connections in reverse order.
func (a *app) close(ctx context.Context) {
	for _, p := range a.publishers {
		if err := p.Close(ctx); err != nil {
			a.logger.Warn("gate log publisher did not drain", "error", err)
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{logger: log}
	checks := map[string]health.Check{}

	var db *sql.DB
	if cfg.StoreDriver == config.StorePostgres {
		var err error
		db, err = database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) { _ = db.Close() })
		if err := database.Migrate(db); err != nil {
			a.close(ctx)
			return nil, err
		}
		checks["database"] = db.PingContext
	}

	rdb, err := redisClient.New(ctx, cfg.Redis)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, func(context.Context) { _ = rdb.Close() })
		checks["redis"] = rdb.Health
	}

	fleetReader := buildFleet(cfg, db, rdb, log)

	var store gatelog.Store = gatelogMemory.NewInMemoryStore()
	if db != nil {
		store = gatelogPostgres.NewPostgres(db)
	}
	recorders := []gatelog.Recorder{
		a.newPublisher(cfg.Audit, "store", store),
	}

	if len(cfg.Audit.KafkaBrokers) > 0 {
		sink, err := stream.NewKafkaSink(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic, stream.WithLogger(log))
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("kafka gate log mirror: %w", err)
		}
		a.closers = append(a.closers, sink.Close)
		if err := sink.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("kafka topic not ensured", "topic", cfg.Audit.KafkaTopic, "error", err)
		}
		checks["kafka"] = sink.Ping
		recorders = append(recorders, a.newPublisher(cfg.Audit, "kafka", sink))
	}

	service := dispatch.New(fleetReader, dispatchAdapters.NewStaticTaxStatus(), gatelog.Broadcast(recorders...),
		dispatch.WithMetrics(dispatchMetrics.New()),
		dispatch.WithLogger(log),
		dispatch.WithLocation(cfg.Dispatch.Location()),
		dispatch.WithLookupTimeout(cfg.Dispatch.LookupTimeout),
	)

	a.router = newRouter(cfg, log, checks,
		dispatchHandler.New(service, log, dispatchHandler.WithBatchLimit(cfg.Dispatch.BatchLimit)),
		gatelogHandler.New(store, log),
	)
	return a, nil
}

func buildFleet(cfg config.Config, db *sql.DB, rdb *redisClient.Client, log *slog.Logger) fleet.Reader {
	var reader fleet.Reader
	if db != nil {
		reader = fleetPostgres.NewPostgres(db)
	} else {
		mem := fleetMemory.NewInMemory()
		fleetMemory.SeedDemoFleet(mem, time.Now().In(cfg.Dispatch.Location()))
		log.Info("seeded in-memory demo fleet")
		reader = mem
	}
	if rdb != nil {
		reader = fleetCache.New(reader, rdb.Client,
			fleetCache.WithTTL(cfg.Redis.CacheTTL),
			fleetCache.WithLogger(log),
		)
	}
	return reader
}

// newPublisher starts a publisher for one sink. Metrics carry a sink label so
// each destination reports its own queue and breaker.
func (a *app) newPublisher(cfg config.Audit, name string, sink gatelog.Sink) *publisher.Publisher {
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"sink": name}, prometheus.DefaultRegisterer)
	p := publisher.New(sink,
		publisher.WithQueueSize(cfg.QueueSize),
		publisher.WithWorkers(cfg.Workers),
		publisher.WithWriteTimeout(cfg.WriteTimeout),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
		publisher.WithLogger(a.logger.With("sink", name)),
	)
	a.publishers = append(a.publishers, p)
	return p
}

type registrar interface {
	Register(r chi.Router)
}

func newRouter(cfg config.Config, log *slog.Logger, checks map[string]health.Check, handlers ...registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	r.Use(httpMetrics.New().Middleware)
	r.Use(middleware.AccessLog(log))

	r.Get("/healthz", health.Handler(checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
		for _, h := range handlers {
			h.Register(r)
		}
	})
	return r
}
