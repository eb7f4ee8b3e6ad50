// Package publisher writes gate log records in the background so the
// verification response never waits on, or fails because of, persistence.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gatezero/internal/gatelog"
	"gatezero/pkg/platform/circuit"
	"gatezero/pkg/requestcontext"
)

const (
	defaultQueueSize    = 1024
	defaultWorkers      = 2
	defaultWriteTimeout = 5 * time.Second
)

type job struct {
	record    gatelog.Record
	requestID string
}

// Publisher is a bounded in-memory queue drained by worker goroutines.
// Records are dropped, logged and counted when the queue is full, the
// circuit is open or the publisher is closed.
type Publisher struct {
	sink         gatelog.Sink
	breaker      *circuit.Breaker
	metrics      *Metrics
	logger       *slog.Logger
	writeTimeout time.Duration
	queueSize    int
	workers      int

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.queueSize = n
		}
	}
}

// WithWorkers sets the number of writer goroutines.
func WithWorkers(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithWriteTimeout bounds each sink write.
func WithWriteTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.writeTimeout = d
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		if b != nil {
			p.breaker = b
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New starts a publisher writing to sink.
func New(sink gatelog.Sink, opts ...Option) *Publisher {
	p := &Publisher{
		sink:         sink,
		logger:       slog.Default(),
		writeTimeout: defaultWriteTimeout,
		queueSize:    defaultQueueSize,
		workers:      defaultWorkers,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.breaker == nil {
		p.breaker = circuit.New("gatelog", circuit.WithFailureThreshold(5), circuit.WithCooldown(10*time.Second))
	}

	p.queue = make(chan job, p.queueSize)
	p.wg.Add(p.workers)
	for range p.workers {
		go p.run()
	}
	return p
}

// Record enqueues record without blocking.
func (p *Publisher) Record(ctx context.Context, record gatelog.Record) {
	j := job{record: record, requestID: requestcontext.RequestID(ctx)}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.drop(ctx, j, resultDroppedClosed)
		return
	}
	select {
	case p.queue <- j:
		p.metrics.setQueueDepth(len(p.queue))
	default:
		p.drop(ctx, j, resultDroppedFull)
	}
}

// Close stops accepting records and waits for queued records to be written
// or for ctx to expire, whichever comes first.
func (p *Publisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "gate log publisher closed before queue drained",
			"pending", len(p.queue),
		)
		return ctx.Err()
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for j := range p.queue {
		p.metrics.setQueueDepth(len(p.queue))
		p.write(j)
	}
}

func (p *Publisher) write(j job) {
	ctx := requestcontext.WithRequestID(context.Background(), j.requestID)

	if !p.breaker.Allow() {
		p.drop(ctx, j, resultDroppedCircuit)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()

	start := time.Now()
	err := p.sink.Append(writeCtx, j.record)
	p.metrics.observeWrite(time.Since(start))

	if err != nil {
		_, change := p.breaker.RecordFailure()
		p.metrics.incRecord(resultFailed)
		p.logger.ErrorContext(ctx, "gate log write failed",
			"request_id", j.requestID,
			"gate_log_id", j.record.ID.String(),
			"vehicle_no", j.record.VehicleNo,
			"verdict", j.record.Verdict,
			"error", err,
		)
		if change.Opened {
			p.metrics.setCircuitOpen(true)
			p.logger.WarnContext(ctx, "gate log circuit opened", "breaker", p.breaker.Name())
		}
		return
	}

	_, change := p.breaker.RecordSuccess()
	p.metrics.incRecord(resultWritten)
	if change.Closed {
		p.metrics.setCircuitOpen(false)
		p.logger.InfoContext(ctx, "gate log circuit closed", "breaker", p.breaker.Name())
	}
}

func (p *Publisher) drop(ctx context.Context, j job, result string) {
	p.metrics.incRecord(result)
	p.logger.WarnContext(ctx, "gate log record dropped",
		"request_id", j.requestID,
		"gate_log_id", j.record.ID.String(),
		"vehicle_no", j.record.VehicleNo,
		"verdict", j.record.Verdict,
		"reason", result,
	)
}
