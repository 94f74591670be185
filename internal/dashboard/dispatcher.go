package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
	"github.com/couchcryptid/nyc-building-dashboard/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Result carries the patches produced by one dispatch, keyed by output ID.
type Result struct {
	Event   Event          `json:"event"`
	Outputs map[string]any `json:"outputs"`
}

type binding struct {
	name    string
	output  string
	handler Handler
}

// Options configures a Dispatcher. Every field is optional.
type Options struct {
	StylesheetURL string
	Metrics       *observability.Metrics
	Sink          EventSink
	Clock         clockwork.Clock
	Logger        *slog.Logger
}

// Dispatcher routes named UI events to the handlers bound to them and
// collects their output patches. It holds no per-user state and is safe for
// concurrent use.
type Dispatcher struct {
	state    *State
	layout   Layout
	bindings map[Event][]binding
	metrics  *observability.Metrics
	sink     EventSink
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewDispatcher wires the dashboard's handlers:
//
//	measurement-changed -> kpi-value, zip-map, filler
//	map-clicked         -> filler
func NewDispatcher(state *State, opts Options) *Dispatcher {
	d := &Dispatcher{
		state:    state,
		layout:   NewLayout(opts.StylesheetURL),
		bindings: make(map[Event][]binding),
		metrics:  opts.Metrics,
		sink:     opts.Sink,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
	if d.metrics == nil {
		d.metrics = observability.NewMetricsForTesting()
	}
	if d.clock == nil {
		d.clock = clockwork.NewRealClock()
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if state.Logger == nil {
		state.Logger = d.logger
	}

	d.Bind(EventMeasurementChanged, "update_kpi", OutputKPI, KPIHandler)
	d.Bind(EventMeasurementChanged, "make_choropleth", OutputMap, MapHandler)
	d.Bind(EventMeasurementChanged, "make_detail", OutputDetail, DetailHandler)
	d.Bind(EventMapClicked, "make_detail", OutputDetail, DetailHandler)
	return d
}

// Bind adds a handler for an event. Handlers run in bind order.
func (d *Dispatcher) Bind(event Event, name, output string, h Handler) {
	d.bindings[event] = append(d.bindings[event], binding{name: name, output: output, handler: h})
}

// Layout returns the page layout.
func (d *Dispatcher) Layout() Layout { return d.layout }

// BoundaryDocument returns the GeoJSON served to the browser.
func (d *Dispatcher) BoundaryDocument() []byte {
	if d.state.Boundaries == nil {
		return nil
	}
	return d.state.Boundaries.Document()
}

// ZipSummary averages every measurement for one ZIP code.
func (d *Dispatcher) ZipSummary(zip string) (domain.ZipSummary, bool) {
	return domain.SummarizeZip(d.state.Dataset, zip)
}

// readinessChecker is implemented by sinks that run their own delivery loop.
type readinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// CheckReadiness reports whether the dataset and boundaries are loaded and,
// when the event sink has a delivery loop, whether that loop is running.
func (d *Dispatcher) CheckReadiness(ctx context.Context) error {
	if d.state.Dataset == nil {
		return errors.New("dataset not loaded")
	}
	if d.state.Boundaries == nil {
		return errors.New("boundaries not loaded")
	}
	if rc, ok := d.sink.(readinessChecker); ok {
		if err := rc.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("event sink: %w", err)
		}
	}
	return nil
}

// Dispatch runs every handler bound to event and returns their patches.
// An empty measurement selects the default one.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event, in Inputs) (Result, error) {
	start := d.clock.Now()

	bindings, ok := d.bindings[event]
	if !ok {
		d.metrics.DispatchTotal.WithLabelValues("unknown", "error").Inc()
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}

	if in.Measurement == "" {
		in.Measurement = domain.DefaultMeasurement
	}
	if _, ok := domain.LookupMeasurement(in.Measurement); !ok {
		d.metrics.DispatchTotal.WithLabelValues(string(event), "error").Inc()
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownMeasurement, in.Measurement)
	}

	res := Result{Event: event, Outputs: make(map[string]any, len(bindings))}
	var zip string
	for _, b := range bindings {
		hStart := d.clock.Now()
		patch, err := b.handler(ctx, d.state, in)
		d.metrics.HandlerDuration.WithLabelValues(b.output).Observe(d.clock.Since(hStart).Seconds())
		if err != nil {
			d.metrics.DispatchTotal.WithLabelValues(string(event), "error").Inc()
			return Result{}, fmt.Errorf("handler %s: %w", b.name, err)
		}
		if patch.NoUpdate {
			continue
		}
		res.Outputs[b.output] = patch.Value
		if panel, ok := patch.Value.(DetailPanel); ok {
			zip = panel.ZIP
		}
	}
	d.metrics.DispatchTotal.WithLabelValues(string(event), "ok").Inc()

	elapsed := d.clock.Since(start)
	d.logger.Debug("event dispatched",
		"event", event,
		"measurement", in.Measurement,
		"zip", zip,
		"outputs", len(res.Outputs),
		"duration", elapsed,
	)
	d.publish(ctx, event, in, zip, res, elapsed)
	return res, nil
}

func (d *Dispatcher) publish(ctx context.Context, event Event, in Inputs, zip string, res Result, elapsed time.Duration) {
	if d.sink == nil {
		return
	}
	outputs := make([]string, 0, len(res.Outputs))
	for _, b := range d.bindings[event] {
		if _, ok := res.Outputs[b.output]; ok {
			outputs = append(outputs, b.output)
		}
	}
	rec := Record{
		ID:          uuid.NewString(),
		Event:       event,
		Measurement: in.Measurement,
		PostalCode:  zip,
		Outputs:     outputs,
		Duration:    elapsed.Seconds(),
		At:          d.clock.Now().UTC(),
	}
	if err := d.sink.Publish(ctx, rec); err != nil {
		d.metrics.EventsPublished.WithLabelValues("error").Inc()
		d.logger.Warn("publish interaction event failed", "event", event, "error", err)
		return
	}
	d.metrics.EventsPublished.WithLabelValues("success").Inc()
}
