package domain

import (
	"fmt"
	"math"
)

// Measurement names. They double as the CSV column headers and the dropdown values.
const (
	EnergyStarScore = "ENERGY STAR Score"
	IndoorWaterUse  = "Indoor Water Use (All Water Sources) (kgal)"
	YearBuilt       = "Year Built"

	// DefaultMeasurement is selected when the page first loads.
	DefaultMeasurement = EnergyStarScore
)

// NotAvailable is the KPI text for unknown measurements or empty columns.
const NotAvailable = "N/A"

// Measurement describes one selectable building metric: where its values live,
// how the choropleth is scaled, and how its KPI is worded.
type Measurement struct {
	Name  string
	Label string // legend title; empty means the raw column name is shown
	Range [2]float64

	// Integer truncates averaged values toward zero before display.
	Integer bool

	kpiFormat string
	value     func(Building) float64
}

var measurements = []Measurement{
	{
		Name:      EnergyStarScore,
		Label:     "Energy Score",
		Range:     [2]float64{35, 75},
		kpiFormat: "%.2f (Avg Energy Score)",
		value:     func(b Building) float64 { return b.EnergyStarScore },
	},
	{
		Name:      IndoorWaterUse,
		Label:     "Indoor Water Use",
		Range:     [2]float64{2000, 8000},
		kpiFormat: "%.2f kgal (Avg Water Use)",
		value:     func(b Building) float64 { return b.IndoorWaterUse },
	},
	{
		Name:      YearBuilt,
		Range:     [2]float64{1925, 1965},
		Integer:   true,
		kpiFormat: "%d (Avg Year Built)",
		value:     func(b Building) float64 { return b.YearBuilt },
	},
}

// Measurements returns the selectable measurements in dropdown order.
func Measurements() []Measurement {
	out := make([]Measurement, len(measurements))
	copy(out, measurements)
	return out
}

// LookupMeasurement finds a measurement by name.
func LookupMeasurement(name string) (Measurement, bool) {
	for _, m := range measurements {
		if m.Name == name {
			return m, true
		}
	}
	return Measurement{}, false
}

// Value returns the building's value for this measurement, or Missing.
func (m Measurement) Value(b Building) float64 {
	if m.value == nil {
		return Missing
	}
	return m.value(b)
}

// DisplayLabel is the legend title: the label, or the column name when there is none.
func (m Measurement) DisplayLabel() string {
	if m.Label == "" {
		return m.Name
	}
	return m.Label
}

// PostProcess applies the measurement's display rounding to an averaged value.
func (m Measurement) PostProcess(v float64) float64 {
	if m.Integer && !IsMissing(v) {
		return math.Trunc(v)
	}
	return v
}

// FormatKPI renders an average as KPI card text.
func (m Measurement) FormatKPI(avg float64) string {
	if IsMissing(avg) || m.kpiFormat == "" {
		return NotAvailable
	}
	if m.Integer {
		return fmt.Sprintf(m.kpiFormat, int(math.Trunc(avg)))
	}
	return fmt.Sprintf(m.kpiFormat, avg)
}
