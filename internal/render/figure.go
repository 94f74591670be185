// Package render builds Plotly.js figures for the dashboard.
// Figures are plain data; the browser hands them to Plotly.react as-is.
package render

import "github.com/couchcryptid/nyc-building-dashboard/internal/domain"

// Map defaults shared by both figures.
const (
	MapStyle = "carto-positron"

	ChoroplethZoom    = 10
	ChoroplethHeight  = 650
	ChoroplethOpacity = 0.5

	ScatterZoom   = 12
	ScatterHeight = 500
)

// NYC is the fixed choropleth center.
var NYC = Center{Lat: 40.7128, Lon: -74.0060}

// Figure is a Plotly figure: traces plus layout.
type Figure struct {
	Data   []any  `json:"data"`
	Layout Layout `json:"layout"`
}

// Layout is the subset of Plotly layout attributes the dashboard sets.
type Layout struct {
	Height int       `json:"height"`
	Map    MapLayout `json:"map"`
	Margin Margin    `json:"margin"`
	Title  *Title    `json:"title,omitempty"`
}

// MapLayout configures the MapLibre base map.
type MapLayout struct {
	Style  string  `json:"style"`
	Zoom   float64 `json:"zoom"`
	Center Center  `json:"center"`
}

// Center is a map center in degrees.
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

type Title struct {
	Text string `json:"text"`
}

type ColorBar struct {
	Title Title `json:"title"`
}

// nullable maps missing values to JSON null; NaN is not valid JSON.
func nullable(v float64) *float64 {
	if domain.IsMissing(v) {
		return nil
	}
	return &v
}
