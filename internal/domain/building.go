package domain

import (
	"sort"
	"time"
)

// Building is one disclosure record after numeric coercion.
// Numeric fields hold Missing when the source cell was blank or invalid.
type Building struct {
	PropertyName string
	Address      string
	PostalCode   string

	EnergyStarScore float64
	IndoorWaterUse  float64
	YearBuilt       float64

	Latitude  float64
	Longitude float64
}

// HasCoordinates reports whether both coordinates were present.
func (b Building) HasCoordinates() bool {
	return !IsMissing(b.Latitude) && !IsMissing(b.Longitude)
}

// Dataset is an immutable snapshot of the building records. It is built once
// at startup and shared read-only by every request, so it needs no locking.
type Dataset struct {
	buildings   []Building
	byZip       map[string][]int
	zipCodes    []string
	hasLocation bool
	skipped     int
	loadedAt    time.Time
}

// DatasetOptions carries load-time facts about the source file.
type DatasetOptions struct {
	// HasLocation is true when the source carried Latitude and Longitude columns.
	HasLocation bool
	// Skipped counts malformed source rows that were dropped.
	Skipped int
}

// NewDataset indexes buildings by postal code. The slice is copied.
func NewDataset(buildings []Building, opts DatasetOptions) *Dataset {
	ds := &Dataset{
		buildings:   make([]Building, len(buildings)),
		byZip:       make(map[string][]int),
		hasLocation: opts.HasLocation,
		skipped:     opts.Skipped,
		loadedAt:    clock.Now(),
	}
	copy(ds.buildings, buildings)

	for i, b := range ds.buildings {
		if _, ok := ds.byZip[b.PostalCode]; !ok {
			ds.zipCodes = append(ds.zipCodes, b.PostalCode)
		}
		ds.byZip[b.PostalCode] = append(ds.byZip[b.PostalCode], i)
	}
	sort.Strings(ds.zipCodes)
	return ds
}

// Len returns the number of building records.
func (d *Dataset) Len() int { return len(d.buildings) }

// HasLocation reports whether the source carried coordinate columns.
func (d *Dataset) HasLocation() bool { return d.hasLocation }

// Skipped returns the number of malformed rows dropped at load.
func (d *Dataset) Skipped() int { return d.skipped }

// LoadedAt returns when the snapshot was built.
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

// ZipCodes returns the distinct postal codes in ascending order.
func (d *Dataset) ZipCodes() []string {
	out := make([]string, len(d.zipCodes))
	copy(out, d.zipCodes)
	return out
}

// InZip returns the buildings whose postal code equals zip, in file order.
func (d *Dataset) InZip(zip string) []Building {
	idx := d.byZip[NormalizePostalCode(zip)]
	out := make([]Building, len(idx))
	for i, j := range idx {
		out[i] = d.buildings[j]
	}
	return out
}

// Values returns the measurement column across all buildings, in file order.
func (d *Dataset) Values(m Measurement) []float64 {
	out := make([]float64, len(d.buildings))
	for i, b := range d.buildings {
		out[i] = m.Value(b)
	}
	return out
}
