package boundary

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// LoadShapefile reads ZIP polygons from an ESRI shapefile and its .dbf
// attribute table. Non-polygon shapes are skipped. The polygons are
// re-encoded as a GeoJSON FeatureCollection for the browser.
func LoadShapefile(path, key string) (*domain.BoundarySet, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	field := -1
	for i, f := range r.Fields() {
		if strings.EqualFold(f.String(), key) {
			field = i
			break
		}
	}
	if field < 0 {
		return nil, fmt.Errorf("shapefile %s has no %q attribute", path, key)
	}

	var (
		boundaries []domain.ZipBoundary
		features   []*geojson.Feature
	)
	for r.Next() {
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		zip := propertyString(strings.TrimSpace(r.ReadAttribute(idx, field)))
		if zip == "" {
			continue
		}
		mp, err := toMultiPolygon(poly)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", idx, err)
		}
		boundaries = append(boundaries, domain.ZipBoundary{PostalCode: zip, Geometry: mp})
		features = append(features, &geojson.Feature{
			Geometry:   mp,
			Properties: map[string]any{key: zip},
		})
	}

	doc, err := json.Marshal(&geojson.FeatureCollection{Features: features})
	if err != nil {
		return nil, fmt.Errorf("encode boundaries: %w", err)
	}
	return domain.NewBoundarySet(boundaries, doc)
}

// toMultiPolygon splits a shapefile polygon into its parts. Shapefiles store
// outer rings clockwise and holes counter-clockwise; each hole is attached to
// the outer ring that precedes it.
func toMultiPolygon(poly *shp.Polygon) (*geom.MultiPolygon, error) {
	var polygons [][][]geom.Coord
	for i := range poly.Parts {
		start := int(poly.Parts[i])
		end := len(poly.Points)
		if i+1 < len(poly.Parts) {
			end = int(poly.Parts[i+1])
		}
		if start >= end || end > len(poly.Points) {
			continue
		}
		ring := make([]geom.Coord, 0, end-start)
		for _, pt := range poly.Points[start:end] {
			ring = append(ring, geom.Coord{pt.X, pt.Y})
		}
		if signedArea(ring) > 0 && len(polygons) > 0 {
			last := len(polygons) - 1
			polygons[last] = append(polygons[last], ring)
			continue
		}
		polygons = append(polygons, [][]geom.Coord{ring})
	}
	return geom.NewMultiPolygon(geom.XY).SetCoords(polygons)
}

// signedArea is positive for counter-clockwise rings.
func signedArea(ring []geom.Coord) float64 {
	var sum float64
	for i := 0; i+1 < len(ring); i++ {
		sum += ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
	}
	return sum / 2
}
