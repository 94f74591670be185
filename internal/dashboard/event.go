package dashboard

import (
	"context"
	"errors"
	"time"
)

// Event names a UI interaction the dispatcher knows how to handle.
type Event string

const (
	// EventMeasurementChanged fires on page load and whenever the dropdown changes.
	EventMeasurementChanged Event = "measurement-changed"
	// EventMapClicked fires when a ZIP polygon on the choropleth is clicked.
	EventMapClicked Event = "map-clicked"
)

var (
	ErrUnknownEvent       = errors.New("unknown event")
	ErrUnknownMeasurement = errors.New("unknown measurement")
)

// ClickPoint is one point of a Plotly click payload. Choropleth clicks carry
// the polygon's location; clicks elsewhere may only carry coordinates.
type ClickPoint struct {
	Location string   `json:"location,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
}

// Click is the most recent map click as reported by the browser.
type Click struct {
	Points []ClickPoint `json:"points"`
}

// Inputs is the full set of current input values. The browser sends all of
// them with every event, so handlers never depend on server-side session state.
type Inputs struct {
	Measurement string `json:"measurement"`
	Click       *Click `json:"click,omitempty"`
}

// Patch replaces the content of one page region. A NoUpdate patch leaves the
// region as it is and is dropped from the response.
type Patch struct {
	Output   string
	Value    any
	NoUpdate bool
}

// DetailPanel is the value of the detail region: either a figure or a message.
type DetailPanel struct {
	Kind    string `json:"kind"` // "map" or "message"
	Figure  any    `json:"figure,omitempty"`
	Message string `json:"message,omitempty"`
	ZIP     string `json:"zip,omitempty"`
}

// Detail panel kinds.
const (
	DetailKindMap     = "map"
	DetailKindMessage = "message"
)

// NoLocationMessage replaces the drill-down map when coordinates are unavailable.
const NoLocationMessage = "No location data available."

// Record is what the dispatcher reports to an EventSink after each dispatch.
type Record struct {
	ID          string    `json:"id"`
	Event       Event     `json:"event"`
	Measurement string    `json:"measurement"`
	PostalCode  string    `json:"postal_code,omitempty"`
	Outputs     []string  `json:"outputs"`
	Duration    float64   `json:"duration_seconds"`
	At          time.Time `json:"at"`
}

// EventSink receives a record of every successful dispatch.
type EventSink interface {
	Publish(ctx context.Context, rec Record) error
}
