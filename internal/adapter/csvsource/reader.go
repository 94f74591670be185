// Package csvsource loads the Local Law 84 disclosure CSV into a domain snapshot.
package csvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
)

// Source column headers.
const (
	ColumnPostalCode   = "Postal Code"
	ColumnLatitude     = "Latitude"
	ColumnLongitude    = "Longitude"
	ColumnPropertyName = "Property Name"
	ColumnAddress      = "Address 1"
)

// Load reads the CSV at path into an immutable dataset.
func Load(path string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return ds, nil
}

// Read parses disclosure CSV data. The header must contain "Postal Code";
// every other column is optional. Rows whose field count differs from the
// header, or that fail to parse, are skipped and counted.
func Read(r io.Reader) (*domain.Dataset, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	if _, ok := cols[ColumnPostalCode]; !ok {
		return nil, fmt.Errorf("missing %q column", ColumnPostalCode)
	}
	_, hasLat := cols[ColumnLatitude]
	_, hasLon := cols[ColumnLongitude]

	var (
		buildings []domain.Building
		skipped   int
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}
		buildings = append(buildings, parseRow(row, cols))
	}

	return domain.NewDataset(buildings, domain.DatasetOptions{
		HasLocation: hasLat && hasLon,
		Skipped:     skipped,
	}), nil
}

// indexColumns maps trimmed header names to their position. A UTF-8 byte
// order mark on the first header is dropped.
func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		h = strings.TrimSpace(h)
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	return cols
}

func parseRow(row []string, cols map[string]int) domain.Building {
	cell := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	return domain.Building{
		PropertyName:    strings.TrimSpace(cell(ColumnPropertyName)),
		Address:         strings.TrimSpace(cell(ColumnAddress)),
		PostalCode:      domain.NormalizePostalCode(cell(ColumnPostalCode)),
		EnergyStarScore: domain.ParseNumber(cell(domain.EnergyStarScore)),
		IndoorWaterUse:  domain.ParseNumber(cell(domain.IndoorWaterUse)),
		YearBuilt:       domain.ParseNumber(cell(domain.YearBuilt)),
		Latitude:        domain.ParseNumber(cell(ColumnLatitude)),
		Longitude:       domain.ParseNumber(cell(ColumnLongitude)),
	}
}
