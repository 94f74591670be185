// Command validate checks that a building disclosure CSV and a ZIP boundary
// file will render cleanly together: rows parse, postal codes are well
// formed, every ZIP has a polygon, each measurement has data, and building
// coordinates fall inside their own ZIP.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -dataset NYC_Building_Energy_and_Water_Data_Disclosure_for_Local_Law_84__2022-Present__20250106.csv \
//	  -boundaries new-york-zip-codes-_1604.geojson
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/nyc-building-dashboard/internal/adapter/boundary"
	"github.com/couchcryptid/nyc-building-dashboard/internal/adapter/csvsource"
	"github.com/couchcryptid/nyc-building-dashboard/internal/config"
	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
)

// maxListed caps how many offending ZIP codes a phase spells out.
const maxListed = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataset := flag.String("dataset", config.DefaultDatasetPath, "path to the building disclosure CSV")
	boundaries := flag.String("boundaries", config.DefaultBoundaryPath, "path to the ZIP boundary GeoJSON or shapefile")
	key := flag.String("key", config.DefaultBoundaryKey, "boundary property holding the ZIP code")
	maxMismatch := flag.Float64("max-mismatch", 0.05, "tolerated share of buildings located outside their own ZIP")
	flag.Parse()

	if code := run(os.Stdout, *dataset, *boundaries, *key, *maxMismatch); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, datasetPath, boundaryPath, key string, maxMismatch float64) int {
	fmt.Fprintln(w, "=== Dashboard Input Validation ===")
	fmt.Fprintln(w)

	ds, err := csvsource.Load(datasetPath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load dataset: %v\n", err)
		return 1
	}
	bs, err := boundary.Load(boundaryPath, key)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load boundaries: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRows(ds),
		validatePostalCodes(ds),
		validateCoverage(ds, bs),
		validateMeasurements(ds),
		validateCoordinates(ds, bs, maxMismatch),
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records: %d buildings, %d ZIP codes, %d polygons\n", ds.Len(), len(ds.ZipCodes()), bs.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateRows(ds *domain.Dataset) *phase {
	p := &phase{name: "Phase 1: CSV rows parse"}
	if ds.Len() == 0 {
		p.errorf("dataset has no rows")
	}
	if ds.Skipped() > 0 {
		p.errorf("%d malformed rows skipped", ds.Skipped())
	}
	return p
}

func validatePostalCodes(ds *domain.Dataset) *phase {
	p := &phase{name: "Phase 2: Postal codes well formed"}
	var malformed []string
	for _, zip := range ds.ZipCodes() {
		if zip == "" {
			p.errorf("%d buildings have no postal code", len(ds.InZip("")))
			continue
		}
		if !isZip5(zip) {
			malformed = append(malformed, zip)
		}
	}
	listZips(p, "postal codes are not 5 digits", malformed)
	return p
}

func validateCoverage(ds *domain.Dataset, bs *domain.BoundarySet) *phase {
	p := &phase{name: "Phase 3: Every ZIP has a polygon"}
	var missing []string
	for _, zip := range ds.ZipCodes() {
		if zip == "" {
			continue
		}
		if _, ok := bs.Lookup(zip); !ok {
			missing = append(missing, zip)
		}
	}
	listZips(p, "ZIP codes have no polygon and will not be shaded", missing)
	return p
}

func validateMeasurements(ds *domain.Dataset) *phase {
	p := &phase{name: "Phase 4: Measurements have values"}
	for _, m := range domain.Measurements() {
		valid := 0
		for _, v := range ds.Values(m) {
			if !domain.IsMissing(v) {
				valid++
			}
		}
		if valid == 0 {
			p.errorf("%q has no numeric values; KPI will read %s", m.Name, domain.NotAvailable)
		}
	}
	return p
}

func validateCoordinates(ds *domain.Dataset, bs *domain.BoundarySet, maxMismatch float64) *phase {
	p := &phase{name: "Phase 5: Buildings inside their ZIP"}
	if !ds.HasLocation() {
		return p
	}

	located, mismatched := 0, 0
	for _, zip := range ds.ZipCodes() {
		if _, ok := bs.Lookup(zip); !ok {
			continue
		}
		for _, b := range ds.InZip(zip) {
			if !b.HasCoordinates() {
				continue
			}
			located++
			if got, ok := bs.Locate(b.Latitude, b.Longitude); !ok || got != zip {
				mismatched++
			}
		}
	}
	if located == 0 {
		p.errorf("no building has coordinates")
		return p
	}
	if ratio := float64(mismatched) / float64(located); ratio > maxMismatch {
		p.errorf("%d of %d buildings (%.1f%%) fall outside their ZIP polygon (limit %.1f%%)",
			mismatched, located, ratio*100, maxMismatch*100)
	}
	return p
}

// ── Helpers ──

func listZips(p *phase, what string, zips []string) {
	if len(zips) == 0 {
		return
	}
	shown := zips
	if len(shown) > maxListed {
		shown = shown[:maxListed]
	}
	msg := fmt.Sprintf("%d %s: %v", len(zips), what, shown)
	if len(zips) > maxListed {
		msg += fmt.Sprintf(" and %d more", len(zips)-maxListed)
	}
	p.errorf("%s", msg)
}

func isZip5(s string) bool {
	if len(s) != 5 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
