package publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatezero/internal/domain"
	"gatezero/internal/gatelog"
	"gatezero/internal/gatelog/store/memory"
	id "gatezero/pkg/domain"
	"gatezero/pkg/platform/circuit"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newRecord(plate string) gatelog.Record {
	return gatelog.Record{
		ID:        id.NewGateLogID(),
		Timestamp: time.Now(),
		VehicleNo: plate,
		Verdict:   domain.VerdictApproved,
	}
}

type failingSink struct {
	calls atomic.Int32
}

func (f *failingSink) Append(context.Context, gatelog.Record) error {
	f.calls.Add(1)
	return errors.New("database is down")
}

// blockingSink holds every write until release is closed.
type blockingSink struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingSink() *blockingSink {
	return &blockingSink{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (b *blockingSink) Append(ctx context.Context, _ gatelog.Record) error {
	b.started <- struct{}{}
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestPublisher_CloseDrainsQueue(t *testing.T) {
	store := memory.NewInMemoryStore()
	m := NewMetrics(prometheus.NewRegistry())
	pub := New(store, WithQueueSize(100), WithWorkers(3), WithMetrics(m), WithLogger(discard))

	for range 25 {
		pub.Record(context.Background(), newRecord("MH12AB1234"))
	}
	require.NoError(t, pub.Close(context.Background()))

	assert.Equal(t, 25, store.Len())
	assert.Equal(t, 25.0, testutil.ToFloat64(m.Records.WithLabelValues(resultWritten)))
}

func TestPublisher_RecordAfterCloseIsDropped(t *testing.T) {
	store := memory.NewInMemoryStore()
	m := NewMetrics(prometheus.NewRegistry())
	pub := New(store, WithMetrics(m), WithLogger(discard))
	require.NoError(t, pub.Close(context.Background()))
	require.NoError(t, pub.Close(context.Background()), "close is idempotent")

	pub.Record(context.Background(), newRecord("MH12AB1234"))

	assert.Zero(t, store.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records.WithLabelValues(resultDroppedClosed)))
}

func TestPublisher_QueueFullDrops(t *testing.T) {
	sink := newBlockingSink()
	m := NewMetrics(prometheus.NewRegistry())
	pub := New(sink, WithQueueSize(1), WithWorkers(1), WithMetrics(m), WithLogger(discard))

	pub.Record(context.Background(), newRecord("A1"))
	<-sink.started // worker is busy with the first record
	pub.Record(context.Background(), newRecord("A2")) // fills the queue
	pub.Record(context.Background(), newRecord("A3")) // dropped

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records.WithLabelValues(resultDroppedFull)))

	close(sink.release)
	require.NoError(t, pub.Close(context.Background()))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Records.WithLabelValues(resultWritten)))
}

func TestPublisher_FailuresOpenCircuit(t *testing.T) {
	sink := &failingSink{}
	m := NewMetrics(prometheus.NewRegistry())
	now := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	breaker := circuit.New("gatelog-test",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Hour),
		circuit.WithClock(func() time.Time { return now }),
	)
	pub := New(sink, WithWorkers(1), WithBreaker(breaker), WithMetrics(m), WithLogger(discard))

	for range 5 {
		pub.Record(context.Background(), newRecord("MH12AB1234"))
	}
	require.NoError(t, pub.Close(context.Background()))

	assert.Equal(t, int32(2), sink.calls.Load(), "writes stop once the circuit opens")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Records.WithLabelValues(resultFailed)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Records.WithLabelValues(resultDroppedCircuit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CircuitOpen))
}

func TestPublisher_CloseHonorsDeadline(t *testing.T) {
	sink := newBlockingSink()
	pub := New(sink, WithWorkers(1), WithWriteTimeout(time.Minute), WithLogger(discard))
	pub.Record(context.Background(), newRecord("MH12AB1234"))
	<-sink.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := pub.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(sink.release)
}

func TestPublisher_WriteTimeoutBoundsSink(t *testing.T) {
	sink := newBlockingSink()
	m := NewMetrics(prometheus.NewRegistry())
	pub := New(sink, WithWorkers(1), WithWriteTimeout(10*time.Millisecond), WithMetrics(m), WithLogger(discard))

	pub.Record(context.Background(), newRecord("MH12AB1234"))
	require.NoError(t, pub.Close(context.Background()))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Records.WithLabelValues(resultFailed)))
}

func TestPublisher_CallerCancellationDoesNotLoseRecord(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithLogger(discard))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub.Record(ctx, newRecord("MH12AB1234"))

	require.NoError(t, pub.Close(context.Background()))
	assert.Equal(t, 1, store.Len())
}
