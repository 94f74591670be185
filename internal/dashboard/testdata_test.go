package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func located(zip string, score, lat, lon float64) domain.Building {
	return domain.Building{
		PropertyName:    "Building " + zip,
		PostalCode:      zip,
		EnergyStarScore: score,
		IndoorWaterUse:  3000,
		YearBuilt:       1950,
		Latitude:        lat,
		Longitude:       lon,
	}
}

func testBuildings() []domain.Building {
	return []domain.Building{
		located("10001", 40, 40.75, -73.99),
		located("10001", 60, 40.76, -73.98),
		located("10001", 80, 40.74, -73.97),
		located("10002", 50, 40.71, -73.95),
	}
}

func testBoundaries(t *testing.T) *domain.BoundarySet {
	t.Helper()
	set, err := domain.NewBoundarySet([]domain.ZipBoundary{
		{PostalCode: "10001", Geometry: square(-74.0, 40.7, -73.96, 40.8)},
		{PostalCode: "10002", Geometry: square(-73.96, 40.7, -73.9, 40.8)},
	}, []byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	return set
}

func square(minLon, minLat, maxLon, maxLat float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}})
}

func testState(t *testing.T, hasLocation bool) *State {
	t.Helper()
	return &State{
		Dataset:     domain.NewDataset(testBuildings(), domain.DatasetOptions{HasLocation: hasLocation}),
		Boundaries:  testBoundaries(t),
		BoundaryURL: "/api/boundaries",
		BoundaryKey: "ZCTA5CE10",
		Logger:      discardLogger(),
	}
}

func clickOn(zip string) *Click {
	return &Click{Points: []ClickPoint{{Location: zip}}}
}

type stubGeocoder struct {
	place string
}

func (s stubGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{PlaceName: s.place}, nil
}

type recordingSink struct {
	mu      sync.Mutex
	records []Record
	err     error
}

func (s *recordingSink) Publish(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

// loopSink is a sink with a delivery loop that can be up or down.
type loopSink struct {
	recordingSink
	running bool
}

func (s *loopSink) CheckReadiness(context.Context) error {
	if !s.running {
		return errors.New("delivery loop stopped")
	}
	return nil
}
