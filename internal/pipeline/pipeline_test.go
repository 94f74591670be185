package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/nyc-building-dashboard/internal/dashboard"
	"github.com/couchcryptid/nyc-building-dashboard/internal/observability"
	"github.com/couchcryptid/nyc-building-dashboard/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockLoader struct {
	mu      sync.Mutex
	batches [][]dashboard.Record
	calls   int
	failN   int // fail this many calls before succeeding; -1 fails forever
}

func (m *mockLoader) LoadBatch(_ context.Context, records []dashboard.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failN < 0 || m.calls <= m.failN {
		return errors.New("broker unavailable")
	}
	m.batches = append(m.batches, append([]dashboard.Record(nil), records...))
	return nil
}

func (m *mockLoader) loaded() [][]dashboard.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}

func (m *mockLoader) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(id string) dashboard.Record {
	return dashboard.Record{
		ID:          id,
		Event:       dashboard.EventMeasurementChanged,
		Measurement: "ENERGY STAR Score",
		Outputs:     []string{"kpi-value", "zip-map"},
		At:          time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC),
	}
}

func ids(batch []dashboard.Record) []string {
	out := make([]string, len(batch))
	for i, r := range batch {
		out[i] = r.ID
	}
	return out
}

// --- tests ---

func TestPipeline_FullBatchIsLoaded(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(ldr, discardLogger(), observability.NewMetricsForTesting(), pipeline.Options{BatchSize: 2})

	require.NoError(t, p.Publish(context.Background(), record("a")))
	require.NoError(t, p.Publish(context.Background(), record("b")))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, p.Run(ctx))
	}()

	require.Eventually(t, func() bool { return len(ldr.loaded()) == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	if diff := cmp.Diff([]string{"a", "b"}, ids(ldr.loaded()[0])); diff != "" {
		t.Fatalf("batch mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_DrainsQueueOnCancel(t *testing.T) {
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(ldr, discardLogger(), metrics, pipeline.Options{BatchSize: 10})

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, p.Publish(context.Background(), record(id)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))

	batches := ldr.loaded()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"a", "b", "c"}, ids(batches[0]))
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.EventsDelivered.WithLabelValues("success")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.EventsRunning), 0)
}

func TestPipeline_DrainSplitsIntoBatches(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(ldr, discardLogger(), observability.NewMetricsForTesting(), pipeline.Options{BatchSize: 2})

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, p.Publish(context.Background(), record(id)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))

	// The loop may or may not pick up a full batch before noticing cancellation;
	// either way every record is loaded exactly once.
	var all []string
	for _, b := range ldr.loaded() {
		assert.LessOrEqual(t, len(b), 2)
		all = append(all, ids(b)...)
	}
	assert.Equal(t, []string{"a", "b", "c"}, all)
}

func TestPipeline_RetriesFailedBatch(t *testing.T) {
	ldr := &mockLoader{failN: 1}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(ldr, discardLogger(), metrics, pipeline.Options{
		BatchSize:      10,
		InitialBackoff: time.Millisecond,
	})
	require.NoError(t, p.Publish(context.Background(), record("a")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))

	assert.Equal(t, 2, ldr.callCount())
	require.Len(t, ldr.loaded(), 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.EventsDelivered.WithLabelValues("success")), 0)
}

func TestPipeline_DropsAfterMaxAttempts(t *testing.T) {
	ldr := &mockLoader{failN: -1}
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(ldr, discardLogger(), metrics, pipeline.Options{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
	})
	require.NoError(t, p.Publish(context.Background(), record("a")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))

	assert.Equal(t, 2, ldr.callCount())
	assert.Empty(t, ldr.loaded())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.EventsDelivered.WithLabelValues("dropped")), 0)
}

func TestPipeline_PublishWhenQueueFull(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(&mockLoader{}, discardLogger(), metrics, pipeline.Options{QueueSize: 1})

	require.NoError(t, p.Publish(context.Background(), record("a")))
	err := p.Publish(context.Background(), record("b"))

	require.ErrorIs(t, err, pipeline.ErrQueueFull)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.EventsDelivered.WithLabelValues("dropped")), 0)
}

func TestPipeline_FlushIntervalLoadsPartialBatch(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ldr := &mockLoader{}
	p := pipeline.New(ldr, discardLogger(), observability.NewMetricsForTesting(), pipeline.Options{
		BatchSize:     10,
		FlushInterval: time.Second,
		Clock:         clock,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, p.Run(ctx))
	}()

	require.NoError(t, p.Publish(context.Background(), record("a")))
	require.Eventually(t, func() bool {
		clock.Advance(time.Second)
		return len(ldr.loaded()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Len(t, ldr.loaded(), 1)
}

func TestPipeline_CheckReadiness(t *testing.T) {
	p := pipeline.New(&mockLoader{}, discardLogger(), observability.NewMetricsForTesting(), pipeline.Options{})
	require.Error(t, p.CheckReadiness(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return p.CheckReadiness(context.Background()) == nil
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Error(t, p.CheckReadiness(context.Background()))
}
