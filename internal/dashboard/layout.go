package dashboard

import "github.com/couchcryptid/nyc-building-dashboard/internal/domain"

// Page region identifiers. The browser client addresses outputs by these IDs.
const (
	InputMeasurement = "measurments"
	OutputKPI        = "kpi-value"
	OutputMap        = "zip-map"
	OutputDetail     = "filler"
)

// Title is the page heading.
const Title = "New York City Building Data Visualization"

// Option is one dropdown entry.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Layout describes the page: which regions exist and what the dropdown offers.
type Layout struct {
	Title         string   `json:"title"`
	DropdownID    string   `json:"dropdown_id"`
	Options       []Option `json:"options"`
	Default       string   `json:"default"`
	KPIID         string   `json:"kpi_id"`
	KPIHeader     string   `json:"kpi_header"`
	MapID         string   `json:"map_id"`
	DetailID      string   `json:"detail_id"`
	StylesheetURL string   `json:"stylesheet_url"`
	Events        []Event  `json:"events"`
}

// NewLayout builds the page layout from the measurement table.
func NewLayout(stylesheetURL string) Layout {
	ms := domain.Measurements()
	opts := make([]Option, len(ms))
	for i, m := range ms {
		opts[i] = Option{Label: m.Name, Value: m.Name}
	}
	return Layout{
		Title:         Title,
		DropdownID:    InputMeasurement,
		Options:       opts,
		Default:       domain.DefaultMeasurement,
		KPIID:         OutputKPI,
		KPIHeader:     "Current value",
		MapID:         OutputMap,
		DetailID:      OutputDetail,
		StylesheetURL: stylesheetURL,
		Events:        []Event{EventMeasurementChanged, EventMapClicked},
	}
}
