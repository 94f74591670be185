// Command zipstats prints the per-ZIP averages of one measurement as a table,
// followed by the citywide KPI line shown on the dashboard card.
//
// Usage:
//
//	go run ./cmd/zipstats -measurement "Year Built" -top 20
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/couchcryptid/nyc-building-dashboard/internal/adapter/csvsource"
	"github.com/couchcryptid/nyc-building-dashboard/internal/config"
	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
	"golang.org/x/term"
)

const (
	defaultWidth = 80
	zipWidth     = 7
	valueWidth   = 12
	countWidth   = 8
)

func main() {
	dataset := flag.String("dataset", config.DefaultDatasetPath, "path to the building disclosure CSV")
	measurement := flag.String("measurement", domain.DefaultMeasurement, "measurement to aggregate")
	top := flag.Int("top", 0, "only print the N highest ZIP codes (0 prints all, by ZIP)")
	flag.Parse()

	if err := run(os.Stdout, *dataset, *measurement, *top); err != nil {
		fmt.Fprintf(os.Stderr, "zipstats: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, path, name string, top int) error {
	m, ok := domain.LookupMeasurement(name)
	if !ok {
		var names []string
		for _, known := range domain.Measurements() {
			names = append(names, fmt.Sprintf("%q", known.Name))
		}
		return fmt.Errorf("unknown measurement %q (want one of %s)", name, strings.Join(names, ", "))
	}

	ds, err := csvsource.Load(path)
	if err != nil {
		return err
	}

	rows := domain.AggregateByZip(ds, m)
	if top > 0 {
		sort.SliceStable(rows, func(i, j int) bool { return less(rows[j], rows[i]) })
		if top < len(rows) {
			rows = rows[:top]
		}
	}

	printTable(w, rows, m, terminalWidth())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d buildings, %d skipped rows\n", ds.Len(), ds.Skipped())
	fmt.Fprintln(w, domain.KPI(ds, m.Name))
	return nil
}

// less orders missing averages before every value.
func less(a, b domain.ZipAverage) bool {
	switch {
	case domain.IsMissing(a.Value):
		return !domain.IsMissing(b.Value)
	case domain.IsMissing(b.Value):
		return false
	default:
		return a.Value < b.Value
	}
}

// printTable renders ZIP, average, count and a bar scaled into the
// measurement's color range. The bar uses whatever width is left.
func printTable(w io.Writer, rows []domain.ZipAverage, m domain.Measurement, width int) {
	barWidth := width - zipWidth - valueWidth - countWidth - 3
	if barWidth < 0 {
		barWidth = 0
	}

	fmt.Fprintf(w, "%-*s %*s %*s %s\n", zipWidth, "ZIP", valueWidth, "Average", countWidth, "Count", m.DisplayLabel())
	fmt.Fprintln(w, strings.Repeat("-", min(width, zipWidth+valueWidth+countWidth+3+barWidth)))
	for _, r := range rows {
		value := "-"
		bar := ""
		if !domain.IsMissing(r.Value) {
			value = formatValue(r.Value, m)
			bar = strings.Repeat("#", barLength(r.Value, m.Range, barWidth))
		}
		fmt.Fprintf(w, "%-*s %*s %*d %s\n", zipWidth, r.PostalCode, valueWidth, value, countWidth, r.Count, bar)
	}
}

func formatValue(v float64, m domain.Measurement) string {
	if m.Integer {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// barLength clamps v into [lo, hi] and scales it to width characters.
func barLength(v float64, rng [2]float64, width int) int {
	lo, hi := rng[0], rng[1]
	if width <= 0 || hi <= lo {
		return 0
	}
	frac := (v - lo) / (hi - lo)
	frac = max(0, min(1, frac))
	return int(frac * float64(width))
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
