package boundary

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// LoadGeoJSON reads a GeoJSON FeatureCollection from disk.
func LoadGeoJSON(path, key string) (*domain.BoundarySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundaries: %w", err)
	}
	set, err := ParseGeoJSON(data, key)
	if err != nil {
		return nil, fmt.Errorf("parse boundaries %s: %w", path, err)
	}
	return set, nil
}

// ParseGeoJSON decodes a FeatureCollection. Features without geometry or
// without the key property are ignored. The original bytes are kept as the
// document served to the browser unless some key had to be normalized, in
// which case the normalized codes are written back and the collection is
// re-encoded so the browser matches the same codes the choropleth sends.
func ParseGeoJSON(data []byte, key string) (*domain.BoundarySet, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	boundaries := make([]domain.ZipBoundary, 0, len(fc.Features))
	rewritten := false
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		raw := f.Properties[key]
		zip := propertyString(raw)
		if zip == "" {
			continue
		}
		if s, ok := raw.(string); !ok || s != zip {
			f.Properties[key] = zip
			rewritten = true
		}
		boundaries = append(boundaries, domain.ZipBoundary{PostalCode: zip, Geometry: f.Geometry})
	}

	doc := data
	if rewritten {
		var err error
		if doc, err = json.Marshal(&fc); err != nil {
			return nil, fmt.Errorf("encode boundaries: %w", err)
		}
	}
	return domain.NewBoundarySet(boundaries, doc)
}
