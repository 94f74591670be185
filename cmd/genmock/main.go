// Command genmock writes a synthetic building disclosure CSV for local
// development and demos. Buildings are scattered inside the ZIP polygons of a
// boundary file, so every generated row lands on a shaded area of the map.
// Output is deterministic for a given seed.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -boundaries new-york-zip-codes-_1604.geojson \
//	  -out data/mock/buildings.csv \
//	  -per-zip 25 -missing 0.1
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/nyc-building-dashboard/internal/adapter/boundary"
	"github.com/couchcryptid/nyc-building-dashboard/internal/adapter/csvsource"
	"github.com/couchcryptid/nyc-building-dashboard/internal/config"
	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
)

// maxPlacementTries bounds rejection sampling inside a polygon's bounding box.
const maxPlacementTries = 200

var header = []string{
	csvsource.ColumnPropertyName,
	csvsource.ColumnAddress,
	csvsource.ColumnPostalCode,
	domain.EnergyStarScore,
	domain.IndoorWaterUse,
	domain.YearBuilt,
	csvsource.ColumnLatitude,
	csvsource.ColumnLongitude,
}

var streets = []string{"Broadway", "Amsterdam Ave", "Atlantic Ave", "Grand St", "Jamaica Ave", "Bay St", "Main St", "Park Ave"}

type options struct {
	boundaryPath string
	key          string
	outPath      string
	perZip       int
	missing      float64
	seed         uint64
}

func main() {
	var opts options
	flag.StringVar(&opts.boundaryPath, "boundaries", config.DefaultBoundaryPath, "ZIP boundary GeoJSON or shapefile")
	flag.StringVar(&opts.key, "key", config.DefaultBoundaryKey, "boundary property holding the ZIP code")
	flag.StringVar(&opts.outPath, "out", "data/mock/buildings.csv", "output CSV path")
	flag.IntVar(&opts.perZip, "per-zip", 20, "buildings generated per ZIP code")
	flag.Float64Var(&opts.missing, "missing", 0.1, "share of measurement cells written as \"Not Available\"")
	flag.Uint64Var(&opts.seed, "seed", 1, "random seed")
	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts options) error {
	bs, err := boundary.Load(opts.boundaryPath, opts.key)
	if err != nil {
		return err
	}
	if opts.perZip <= 0 {
		return fmt.Errorf("per-zip must be positive, got %d", opts.perZip)
	}

	if err := os.MkdirAll(filepath.Dir(opts.outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(opts.outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.outPath, err)
	}
	defer f.Close()

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}

	rows := 0
	for _, zip := range bs.ZipCodes() {
		for i := 0; i < opts.perZip; i++ {
			lat, lon, ok := placeInZip(rng, bs, zip)
			if !ok {
				break
			}
			if err := w.Write(buildingRow(rng, zip, i, lat, lon, opts.missing)); err != nil {
				return err
			}
			rows++
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", opts.outPath, err)
	}

	fmt.Printf("Wrote %d buildings across %d ZIP codes to %s\n", rows, bs.Len(), opts.outPath)
	return nil
}

// placeInZip samples a point inside the ZIP polygon, falling back to the
// centroid for slivers that rejection sampling keeps missing.
func placeInZip(rng *rand.Rand, bs *domain.BoundarySet, zip string) (lat, lon float64, ok bool) {
	b, found := bs.Lookup(zip)
	if !found {
		return 0, 0, false
	}
	bounds := b.Geometry.Bounds()
	minLon, minLat := bounds.Min(0), bounds.Min(1)
	maxLon, maxLat := bounds.Max(0), bounds.Max(1)

	for range maxPlacementTries {
		lon = minLon + rng.Float64()*(maxLon-minLon)
		lat = minLat + rng.Float64()*(maxLat-minLat)
		if got, hit := bs.Locate(lat, lon); hit && got == zip {
			return lat, lon, true
		}
	}
	return bs.Centroid(zip)
}

func buildingRow(rng *rand.Rand, zip string, i int, lat, lon, missing float64) []string {
	cell := func(v float64, prec int) string {
		if rng.Float64() < missing {
			return "Not Available"
		}
		return strconv.FormatFloat(v, 'f', prec, 64)
	}
	return []string{
		fmt.Sprintf("Building %s-%03d", zip, i+1),
		fmt.Sprintf("%d %s", 1+rng.IntN(999), streets[rng.IntN(len(streets))]),
		zip,
		cell(float64(1+rng.IntN(100)), 0),
		cell(500+rng.ExpFloat64()*4000, 1),
		cell(float64(1880+rng.IntN(140)), 0),
		strconv.FormatFloat(lat, 'f', 6, 64),
		strconv.FormatFloat(lon, 'f', 6, 64),
	}
}
