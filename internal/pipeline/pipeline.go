// Package pipeline moves dashboard interaction records from the request path
// to a broker. Publish only enqueues; Run batches the queue and writes it
// with retries so a slow or absent broker never delays a dispatch.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/nyc-building-dashboard/internal/dashboard"
	"github.com/couchcryptid/nyc-building-dashboard/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
)

// ErrQueueFull is returned by Publish when the buffer has no room left.
var ErrQueueFull = errors.New("event queue full")

// BatchLoader writes multiple interaction records to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []dashboard.Record) error
}

// Options tunes batching and retries. Zero values pick the defaults.
type Options struct {
	QueueSize      int           // default 1024
	BatchSize      int           // default 50
	FlushInterval  time.Duration // default 1s
	MaxAttempts    int           // default 3
	InitialBackoff time.Duration // default 200ms
	MaxBackoff     time.Duration // default 5s
	Clock          clockwork.Clock
}

func (o *Options) applyDefaults() {
	if o.QueueSize <= 0 {
		o.QueueSize = 1024
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 50
	}
	if o.FlushInterval <= 0 {
		o.FlushInterval = time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 200 * time.Millisecond
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 5 * time.Second
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
}

// Pipeline buffers interaction records and loads them in batches.
// It implements dashboard.EventSink.
type Pipeline struct {
	queue   chan dashboard.Record
	loader  BatchLoader
	logger  *slog.Logger
	metrics *observability.Metrics
	opts    Options
	running atomic.Bool
}

// New creates a Pipeline around the given loader.
func New(loader BatchLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	opts.applyDefaults()
	return &Pipeline{
		queue:   make(chan dashboard.Record, opts.QueueSize),
		loader:  loader,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
}

// Publish enqueues a record without blocking.
func (p *Pipeline) Publish(_ context.Context, rec dashboard.Record) error {
	select {
	case p.queue <- rec:
		return nil
	default:
		p.metrics.EventsDelivered.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

// CheckReadiness reports whether Run is draining the queue.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return errors.New("event pipeline is not running")
	}
	return nil
}

// Run drains the queue until ctx is cancelled. A batch is written when it is
// full or when the flush interval elapses. Records still queued at
// cancellation get one final write attempt bounded by drainTimeout.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("event pipeline started",
		"batch_size", p.opts.BatchSize,
		"flush_interval", p.opts.FlushInterval,
	)
	p.running.Store(true)
	p.metrics.EventsRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.EventsRunning.Set(0)
	}()

	ticker := p.opts.Clock.NewTicker(p.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]dashboard.Record, 0, p.opts.BatchSize)
	for {
		select {
		case <-ctx.Done():
			p.drain(batch)
			p.logger.Info("event pipeline stopping", "reason", ctx.Err())
			return nil
		case rec := <-p.queue:
			batch = append(batch, rec)
			if len(batch) >= p.opts.BatchSize {
				p.load(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.Chan():
			if len(batch) > 0 {
				p.load(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

const drainTimeout = 5 * time.Second

// drain flushes the pending batch plus anything left in the queue.
func (p *Pipeline) drain(batch []dashboard.Record) {
	for len(p.queue) > 0 {
		batch = append(batch, <-p.queue)
	}
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for start := 0; start < len(batch); start += p.opts.BatchSize {
		end := min(start+p.opts.BatchSize, len(batch))
		p.load(ctx, batch[start:end])
	}
}

// load writes one batch, retrying with exponential backoff. A batch that
// still fails after MaxAttempts is dropped and counted.
func (p *Pipeline) load(ctx context.Context, batch []dashboard.Record) {
	backoff := p.opts.InitialBackoff
	for attempt := 1; ; attempt++ {
		err := p.loader.LoadBatch(ctx, batch)
		if err == nil {
			p.metrics.EventsDelivered.WithLabelValues("success").Add(float64(len(batch)))
			p.metrics.EventBatchSize.Observe(float64(len(batch)))
			return
		}

		if attempt >= p.opts.MaxAttempts || ctx.Err() != nil {
			p.logger.Error("load event batch failed, dropping",
				"error", err,
				"batch_size", len(batch),
				"attempts", attempt,
			)
			p.metrics.EventsDelivered.WithLabelValues("dropped").Add(float64(len(batch)))
			return
		}

		p.logger.Warn("load event batch failed, retrying",
			"error", err,
			"batch_size", len(batch),
			"backoff", backoff,
		)
		if !retry.SleepWithContext(ctx, backoff) {
			p.metrics.EventsDelivered.WithLabelValues("dropped").Add(float64(len(batch)))
			return
		}
		backoff = retry.NextBackoff(backoff, p.opts.MaxBackoff)
	}
}
