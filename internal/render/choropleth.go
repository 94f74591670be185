package render

import "github.com/couchcryptid/nyc-building-dashboard/internal/domain"

// ChoroplethTrace is a Plotly "choroplethmap" trace.
type ChoroplethTrace struct {
	Type          string           `json:"type"`
	GeoJSON       string           `json:"geojson"`
	FeatureIDKey  string           `json:"featureidkey"`
	Locations     []string         `json:"locations"`
	Z             []*float64       `json:"z"`
	ZMin          float64          `json:"zmin"`
	ZMax          float64          `json:"zmax"`
	ColorBar      ColorBar         `json:"colorbar"`
	Marker        ChoroplethMarker `json:"marker"`
	HoverTemplate string           `json:"hovertemplate"`
}

type ChoroplethMarker struct {
	Opacity float64 `json:"opacity"`
}

// ChoroplethOptions controls how aggregated rows are drawn.
type ChoroplethOptions struct {
	// GeoJSONURL is where the browser fetches the ZIP polygons.
	GeoJSONURL string
	// FeatureKey is the polygon property matched against postal codes.
	FeatureKey string
	// Measurement supplies the color range and legend label.
	Measurement domain.Measurement
}

// Choropleth shades each ZIP polygon by its averaged value, clipped to the
// measurement's range. ZIPs with a missing average, or without a polygon,
// stay unshaded.
func Choropleth(rows []domain.ZipAverage, opts ChoroplethOptions) Figure {
	label := opts.Measurement.DisplayLabel()

	trace := ChoroplethTrace{
		Type:          "choroplethmap",
		GeoJSON:       opts.GeoJSONURL,
		FeatureIDKey:  "properties." + opts.FeatureKey,
		Locations:     make([]string, len(rows)),
		Z:             make([]*float64, len(rows)),
		ZMin:          opts.Measurement.Range[0],
		ZMax:          opts.Measurement.Range[1],
		ColorBar:      ColorBar{Title: Title{Text: label}},
		Marker:        ChoroplethMarker{Opacity: ChoroplethOpacity},
		HoverTemplate: "Postal Code=%{location}<br>" + label + "=%{z}<extra></extra>",
	}
	for i, r := range rows {
		trace.Locations[i] = r.PostalCode
		trace.Z[i] = nullable(r.Value)
	}

	return Figure{
		Data: []any{trace},
		Layout: Layout{
			Height: ChoroplethHeight,
			Map: MapLayout{
				Style:  MapStyle,
				Zoom:   ChoroplethZoom,
				Center: NYC,
			},
			Margin: Margin{T: 10, B: 10, L: 10, R: 10},
		},
	}
}
