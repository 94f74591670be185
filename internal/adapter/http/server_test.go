package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/nyc-building-dashboard/internal/adapter/http"
	"github.com/couchcryptid/nyc-building-dashboard/internal/dashboard"
	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
	"github.com/couchcryptid/nyc-building-dashboard/internal/observability"
	"github.com/couchcryptid/nyc-building-dashboard/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

const boundaryDoc = `{"type":"FeatureCollection","features":[]}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDispatcher(t *testing.T) *dashboard.Dispatcher {
	t.Helper()
	return testDispatcherWithSink(t, nil)
}

func testDispatcherWithSink(t *testing.T, sink dashboard.EventSink) *dashboard.Dispatcher {
	t.Helper()
	boundaries, err := domain.NewBoundarySet([]domain.ZipBoundary{{
		PostalCode: "10001",
		Geometry: geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
			{-74.0, 40.7}, {-73.9, 40.7}, {-73.9, 40.8}, {-74.0, 40.8}, {-74.0, 40.7},
		}}),
	}}, []byte(boundaryDoc))
	require.NoError(t, err)

	ds := domain.NewDataset([]domain.Building{
		{PostalCode: "10001", EnergyStarScore: 50, IndoorWaterUse: domain.Missing, YearBuilt: 1931, Latitude: 40.75, Longitude: -73.95},
		{PostalCode: "10001", EnergyStarScore: 70, IndoorWaterUse: domain.Missing, YearBuilt: 1960, Latitude: 40.76, Longitude: -73.94},
	}, domain.DatasetOptions{HasLocation: true})

	return dashboard.NewDispatcher(&dashboard.State{
		Dataset:     ds,
		Boundaries:  boundaries,
		BoundaryURL: httpadapter.BoundaryPath,
		BoundaryKey: "ZCTA5CE10",
	}, dashboard.Options{
		StylesheetURL: "https://example.com/cosmo.css",
		Metrics:       observability.NewMetricsForTesting(),
		Sink:          sink,
		Logger:        discardLogger(),
	})
}

func newTestServer(t *testing.T) *httpadapter.Server {
	return httpadapter.NewServer(":0", testDispatcher(t), false, discardLogger())
}

func serve(srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(t), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenLoaded(t *testing.T) {
	rec := serve(newTestServer(t), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotLoaded(t *testing.T) {
	d := dashboard.NewDispatcher(&dashboard.State{}, dashboard.Options{Logger: discardLogger()})
	srv := httpadapter.NewServer(":0", d, false, discardLogger())

	rec := serve(srv, http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "dataset not loaded", body["error"])
}

type nopLoader struct{}

func (nopLoader) LoadBatch(context.Context, []dashboard.Record) error { return nil }

func TestReadyzFollowsEventPipeline(t *testing.T) {
	events := pipeline.New(nopLoader{}, discardLogger(), observability.NewMetricsForTesting(), pipeline.Options{})
	srv := httpadapter.NewServer(":0", testDispatcherWithSink(t, events), false, discardLogger())

	rec := serve(srv, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "event sink")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = events.Run(ctx)
	}()
	require.Eventually(t, func() bool {
		return serve(srv, http.MethodGet, "/readyz", "").Code == http.StatusOK
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, http.StatusServiceUnavailable, serve(srv, http.MethodGet, "/readyz", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(t), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestIndexPage(t *testing.T) {
	rec := serve(newTestServer(t), http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, body, "New York City Building Data Visualization")
	assert.Contains(t, body, `id="measurments"`)
	assert.Contains(t, body, `id="kpi-value"`)
	assert.Contains(t, body, `id="zip-map"`)
	assert.Contains(t, body, `id="filler"`)
	assert.Contains(t, body, "Current value")
	assert.Contains(t, body, `href="https://example.com/cosmo.css"`)
	assert.Contains(t, body, `<option value="ENERGY STAR Score" selected>`)
	assert.NotContains(t, body, "data-boundaries")
}

func TestStaticClientScript(t *testing.T) {
	rec := serve(newTestServer(t), http.MethodGet, "/static/app.js", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/dispatch")
}

func TestLayoutEndpoint(t *testing.T) {
	rec := serve(newTestServer(t), http.MethodGet, "/api/layout", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var layout dashboard.Layout
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layout))
	assert.Equal(t, "measurments", layout.DropdownID)
	assert.Len(t, layout.Options, 3)
	assert.Equal(t, "ENERGY STAR Score", layout.Default)
}

func TestDispatchEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantKeys   []string
	}{
		{
			name:       "measurement changed without click",
			body:       `{"event":"measurement-changed","inputs":{"measurement":"Year Built"}}`,
			wantStatus: http.StatusOK,
			wantKeys:   []string{"kpi-value", "zip-map"},
		},
		{
			name:       "measurement changed with click",
			body:       `{"event":"measurement-changed","inputs":{"measurement":"Year Built","click":{"points":[{"location":"10001"}]}}}`,
			wantStatus: http.StatusOK,
			wantKeys:   []string{"kpi-value", "zip-map", "filler"},
		},
		{
			name:       "map clicked",
			body:       `{"event":"map-clicked","inputs":{"measurement":"ENERGY STAR Score","click":{"points":[{"location":"10001"}]}}}`,
			wantStatus: http.StatusOK,
			wantKeys:   []string{"filler"},
		},
		{
			name:       "unknown event",
			body:       `{"event":"hover","inputs":{}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown measurement",
			body:       `{"event":"measurement-changed","inputs":{"measurement":"Site EUI"}}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"event":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	srv := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(srv, http.MethodPost, "/api/dispatch", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.NotEmpty(t, body["error"])
				return
			}

			var body struct {
				Outputs map[string]json.RawMessage `json:"outputs"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Len(t, body.Outputs, len(tt.wantKeys))
			for _, k := range tt.wantKeys {
				assert.Contains(t, body.Outputs, k)
			}
		})
	}
}

func TestDispatchEndpoint_KPIValue(t *testing.T) {
	rec := serve(newTestServer(t), http.MethodPost, "/api/dispatch",
		`{"event":"measurement-changed","inputs":{"measurement":"Year Built"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Outputs map[string]json.RawMessage `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.JSONEq(t, `"1945 (Avg Year Built)"`, string(body.Outputs["kpi-value"]))
}

func TestDispatchEndpoint_HidesInternalErrorsOutsideDebug(t *testing.T) {
	for _, debug := range []bool{false, true} {
		d := testDispatcher(t)
		d.Bind(dashboard.EventMapClicked, "explode", "other", func(context.Context, *dashboard.State, dashboard.Inputs) (dashboard.Patch, error) {
			return dashboard.Patch{}, errors.New("disk on fire")
		})
		srv := httpadapter.NewServer(":0", d, debug, discardLogger())

		rec := serve(srv, http.MethodPost, "/api/dispatch", `{"event":"map-clicked","inputs":{}}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		if debug {
			assert.Contains(t, rec.Body.String(), "disk on fire")
		} else {
			assert.NotContains(t, rec.Body.String(), "disk on fire")
		}
	}
}

func TestBoundariesEndpoint(t *testing.T) {
	rec := serve(newTestServer(t), http.MethodGet, "/api/boundaries", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, boundaryDoc, rec.Body.String())
}

func TestZipSummaryEndpoint(t *testing.T) {
	rec := serve(newTestServer(t), http.MethodGet, "/api/zipcodes/10001", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		PostalCode   string `json:"postal_code"`
		Buildings    int    `json:"buildings"`
		Measurements []struct {
			Name    string   `json:"name"`
			Average *float64 `json:"average"`
			Count   int      `json:"count"`
		} `json:"measurements"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "10001", body.PostalCode)
	assert.Equal(t, 2, body.Buildings)
	require.Len(t, body.Measurements, 3)

	require.NotNil(t, body.Measurements[0].Average)
	assert.InDelta(t, 60, *body.Measurements[0].Average, 1e-9)
	assert.Nil(t, body.Measurements[1].Average, "all-missing water use encodes as null")
	assert.Equal(t, 0, body.Measurements[1].Count)
	assert.InDelta(t, 1945, *body.Measurements[2].Average, 1e-9)
}

func TestZipSummaryEndpoint_UnknownZip(t *testing.T) {
	rec := serve(newTestServer(t), http.MethodGet, "/api/zipcodes/99999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
