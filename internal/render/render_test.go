package render

import (
	"encoding/json"
	"testing"

	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func measurement(t *testing.T, name string) domain.Measurement {
	t.Helper()
	m, ok := domain.LookupMeasurement(name)
	require.True(t, ok)
	return m
}

func TestChoropleth(t *testing.T) {
	rows := []domain.ZipAverage{
		{PostalCode: "10001", Value: 55.5, Count: 2},
		{PostalCode: "10002", Value: domain.Missing},
	}

	fig := Choropleth(rows, ChoroplethOptions{
		GeoJSONURL:  "/api/boundaries",
		FeatureKey:  "ZCTA5CE10",
		Measurement: measurement(t, domain.EnergyStarScore),
	})

	require.Len(t, fig.Data, 1)
	trace, ok := fig.Data[0].(ChoroplethTrace)
	require.True(t, ok)

	assert.Equal(t, "choroplethmap", trace.Type)
	assert.Equal(t, "/api/boundaries", trace.GeoJSON)
	assert.Equal(t, "properties.ZCTA5CE10", trace.FeatureIDKey)
	assert.Equal(t, []string{"10001", "10002"}, trace.Locations)
	require.NotNil(t, trace.Z[0])
	assert.Equal(t, 55.5, *trace.Z[0])
	assert.Nil(t, trace.Z[1])
	assert.Equal(t, 35.0, trace.ZMin)
	assert.Equal(t, 75.0, trace.ZMax)
	assert.Equal(t, "Energy Score", trace.ColorBar.Title.Text)
	assert.Equal(t, 0.5, trace.Marker.Opacity)

	assert.Equal(t, 650, fig.Layout.Height)
	assert.Equal(t, "carto-positron", fig.Layout.Map.Style)
	assert.Equal(t, 10.0, fig.Layout.Map.Zoom)
	assert.Equal(t, Center{Lat: 40.7128, Lon: -74.0060}, fig.Layout.Map.Center)
}

func TestChoropleth_UnlabeledMeasurementShowsColumnName(t *testing.T) {
	fig := Choropleth(nil, ChoroplethOptions{Measurement: measurement(t, domain.YearBuilt)})

	trace := fig.Data[0].(ChoroplethTrace)
	assert.Equal(t, "Year Built", trace.ColorBar.Title.Text)
	assert.Equal(t, 1925.0, trace.ZMin)
	assert.Equal(t, 1965.0, trace.ZMax)
}

func TestChoropleth_EncodesMissingAsNull(t *testing.T) {
	fig := Choropleth([]domain.ZipAverage{{PostalCode: "10003", Value: domain.Missing}}, ChoroplethOptions{
		Measurement: measurement(t, domain.IndoorWaterUse),
	})

	data, err := json.Marshal(fig)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"z":[null]`)
	assert.Contains(t, string(data), `"zmin":2000`)
}

func TestScatter(t *testing.T) {
	buildings := []domain.Building{
		{PropertyName: "A", PostalCode: "10001", EnergyStarScore: 80, YearBuilt: 1931, Latitude: 40.74, Longitude: -73.99},
		{PropertyName: "B", PostalCode: "10001", EnergyStarScore: domain.Missing, YearBuilt: domain.Missing, Latitude: 40.76, Longitude: -73.97},
		{PropertyName: "C", PostalCode: "10001", EnergyStarScore: 20, YearBuilt: 1899, Latitude: domain.Missing, Longitude: domain.Missing},
	}

	fig := Scatter(buildings, measurement(t, domain.EnergyStarScore), "ZIP 10001")

	trace, ok := fig.Data[0].(ScatterTrace)
	require.True(t, ok)
	assert.Equal(t, "scattermap", trace.Type)
	assert.Len(t, trace.Lat, 3)
	assert.Len(t, trace.Lon, 3)
	assert.Len(t, trace.Marker.Color, 3)
	assert.Nil(t, trace.Lat[2])
	assert.Nil(t, trace.Marker.Color[1])
	assert.Equal(t, 80.0, *trace.Marker.Color[0])
	assert.Equal(t, []string{"1931", "", "1899"}, trace.HoverText)
	assert.Equal(t, []string{"A", "B", "C"}, trace.Text)
	assert.Equal(t, DetailColorScale, trace.Marker.ColorScale)

	assert.Equal(t, 500, fig.Layout.Height)
	assert.Equal(t, 12.0, fig.Layout.Map.Zoom)
	assert.InDelta(t, 40.75, fig.Layout.Map.Center.Lat, 1e-9)
	assert.InDelta(t, -73.98, fig.Layout.Map.Center.Lon, 1e-9)
	require.NotNil(t, fig.Layout.Title)
	assert.Equal(t, "ZIP 10001", fig.Layout.Title.Text)
}

func TestScatter_RecolorsByMeasurement(t *testing.T) {
	buildings := []domain.Building{
		{EnergyStarScore: 80, IndoorWaterUse: 1200, YearBuilt: 1931, Latitude: 40.74, Longitude: -73.99},
	}

	energy := Scatter(buildings, measurement(t, domain.EnergyStarScore), "").Data[0].(ScatterTrace)
	water := Scatter(buildings, measurement(t, domain.IndoorWaterUse), "").Data[0].(ScatterTrace)

	assert.Equal(t, 80.0, *energy.Marker.Color[0])
	assert.Equal(t, 1200.0, *water.Marker.Color[0])
	assert.Equal(t, domain.IndoorWaterUse, water.Marker.ColorBar.Title.Text)
}

func TestScatter_NoCoordinatesCentersOnNYC(t *testing.T) {
	fig := Scatter(nil, measurement(t, domain.YearBuilt), "")
	assert.Equal(t, NYC, fig.Layout.Map.Center)
	assert.Nil(t, fig.Layout.Title)
}
