package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
	"github.com/couchcryptid/nyc-building-dashboard/internal/render"
)

// State is the read-only context every handler receives. It is built once
// at startup and shared by all requests.
type State struct {
	Dataset    *domain.Dataset
	Boundaries *domain.BoundarySet
	Geocoder   domain.Geocoder // optional

	// BoundaryURL is where the browser fetches the ZIP polygons.
	BoundaryURL string
	// BoundaryKey is the polygon property holding the ZIP code.
	BoundaryKey string

	Logger *slog.Logger
}

// Handler computes the replacement for one page region from the current
// inputs. Handlers must not modify State.
type Handler func(ctx context.Context, st *State, in Inputs) (Patch, error)

// KPIHandler renders the KPI card text for the selected measurement.
func KPIHandler(_ context.Context, st *State, in Inputs) (Patch, error) {
	return Patch{Output: OutputKPI, Value: domain.KPI(st.Dataset, in.Measurement)}, nil
}

// MapHandler renders the per-ZIP choropleth for the selected measurement.
func MapHandler(_ context.Context, st *State, in Inputs) (Patch, error) {
	m, ok := domain.LookupMeasurement(in.Measurement)
	if !ok {
		return Patch{}, fmt.Errorf("%w: %q", ErrUnknownMeasurement, in.Measurement)
	}
	fig := render.Choropleth(domain.AggregateByZip(st.Dataset, m), render.ChoroplethOptions{
		GeoJSONURL:  st.BoundaryURL,
		FeatureKey:  st.BoundaryKey,
		Measurement: m,
	})
	return Patch{Output: OutputMap, Value: fig}, nil
}

// DetailHandler renders the drill-down for the last clicked ZIP code. Without
// a click the panel is left untouched. It runs on measurement changes too, so
// an open drill-down is re-colored without another click.
func DetailHandler(ctx context.Context, st *State, in Inputs) (Patch, error) {
	zip, ok := clickedZip(st, in.Click)
	if !ok {
		return Patch{Output: OutputDetail, NoUpdate: true}, nil
	}

	if !st.Dataset.HasLocation() {
		return Patch{Output: OutputDetail, Value: DetailPanel{
			Kind:    DetailKindMessage,
			Message: NoLocationMessage,
			ZIP:     zip,
		}}, nil
	}

	m, ok := domain.LookupMeasurement(in.Measurement)
	if !ok {
		return Patch{}, fmt.Errorf("%w: %q", ErrUnknownMeasurement, in.Measurement)
	}

	title := domain.ZipTitle(ctx, zip, st.Boundaries, st.Geocoder, st.logger())
	fig := render.Scatter(st.Dataset.InZip(zip), m, title)
	return Patch{Output: OutputDetail, Value: DetailPanel{
		Kind:   DetailKindMap,
		Figure: fig,
		ZIP:    zip,
	}}, nil
}

// clickedZip extracts the ZIP code from a click payload. Clicks that only
// carry coordinates are resolved against the boundary polygons.
func clickedZip(st *State, click *Click) (string, bool) {
	if click == nil || len(click.Points) == 0 {
		return "", false
	}
	p := click.Points[0]
	if p.Location != "" {
		return domain.NormalizePostalCode(p.Location), true
	}
	if p.Lat != nil && p.Lon != nil && st.Boundaries != nil {
		return st.Boundaries.Locate(*p.Lat, *p.Lon)
	}
	return "", false
}

func (st *State) logger() *slog.Logger {
	if st.Logger == nil {
		return slog.Default()
	}
	return st.Logger
}
