// Package boundary loads ZIP code polygons from GeoJSON or ESRI shapefiles.
package boundary

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/nyc-building-dashboard/internal/domain"
)

// Load reads the boundary file at path, keyed by the given feature property
// (e.g. ZCTA5CE10). The format is chosen by file extension.
func Load(path, key string) (*domain.BoundarySet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return LoadShapefile(path, key)
	case ".geojson", ".json":
		return LoadGeoJSON(path, key)
	default:
		return nil, fmt.Errorf("unsupported boundary file %s", path)
	}
}

func propertyString(v any) string {
	if v == nil {
		return ""
	}
	return domain.NormalizePostalCode(fmt.Sprint(v))
}
