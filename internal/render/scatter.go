package render

import (
	"strconv"

	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
)

// DetailColorScale runs green to orange to red across the color range.
var DetailColorScale = [][2]any{{0, "green"}, {0.5, "orange"}, {1, "red"}}

// ScatterTrace is a Plotly "scattermap" trace.
type ScatterTrace struct {
	Type      string        `json:"type"`
	Mode      string        `json:"mode"`
	Lat       []*float64    `json:"lat"`
	Lon       []*float64    `json:"lon"`
	HoverText []string      `json:"hovertext"`
	Text      []string      `json:"text"`
	Marker    ScatterMarker `json:"marker"`
}

type ScatterMarker struct {
	Color      []*float64 `json:"color"`
	ColorScale [][2]any   `json:"colorscale"`
	ShowScale  bool       `json:"showscale"`
	ColorBar   ColorBar   `json:"colorbar"`
	Size       int        `json:"size"`
}

// Scatter plots one point per building, colored by the measurement. Hover
// names show the year built. Buildings without coordinates keep their slot
// with null lat/lon so the point count always equals len(buildings).
func Scatter(buildings []domain.Building, m domain.Measurement, title string) Figure {
	trace := ScatterTrace{
		Type:      "scattermap",
		Mode:      "markers",
		Lat:       make([]*float64, len(buildings)),
		Lon:       make([]*float64, len(buildings)),
		HoverText: make([]string, len(buildings)),
		Text:      make([]string, len(buildings)),
		Marker: ScatterMarker{
			Color:      make([]*float64, len(buildings)),
			ColorScale: DetailColorScale,
			ShowScale:  true,
			ColorBar:   ColorBar{Title: Title{Text: m.Name}},
			Size:       9,
		},
	}

	for i, b := range buildings {
		trace.Lat[i] = nullable(b.Latitude)
		trace.Lon[i] = nullable(b.Longitude)
		trace.HoverText[i] = yearLabel(b.YearBuilt)
		trace.Text[i] = b.PropertyName
		trace.Marker.Color[i] = nullable(m.Value(b))
	}

	layout := Layout{
		Height: ScatterHeight,
		Map: MapLayout{
			Style:  MapStyle,
			Zoom:   ScatterZoom,
			Center: centerOf(buildings),
		},
		Margin: Margin{T: 40, B: 10, L: 10, R: 10},
	}
	if title != "" {
		layout.Title = &Title{Text: title}
	}

	return Figure{Data: []any{trace}, Layout: layout}
}

func yearLabel(year float64) string {
	if domain.IsMissing(year) {
		return ""
	}
	return strconv.Itoa(int(year))
}

// centerOf averages the valid coordinates, falling back to NYC.
func centerOf(buildings []domain.Building) Center {
	var lat, lon float64
	var n int
	for _, b := range buildings {
		if !b.HasCoordinates() {
			continue
		}
		lat += b.Latitude
		lon += b.Longitude
		n++
	}
	if n == 0 {
		return NYC
	}
	return Center{Lat: lat / float64(n), Lon: lon / float64(n)}
}
