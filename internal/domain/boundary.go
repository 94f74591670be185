package domain

import (
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// R-tree fan-out for the polygon bounding-box index.
const (
	indexMinChildren = 2
	indexMaxChildren = 16
)

// pointTolerance is the half-width of the search box around a clicked point.
const pointTolerance = 1e-9

// ZipBoundary is the polygon of one ZIP code tabulation area.
// Geometry is a *geom.Polygon or *geom.MultiPolygon in lon/lat order.
type ZipBoundary struct {
	PostalCode string
	Geometry   geom.T
}

// BoundarySet holds the ZIP polygons and the GeoJSON document they came
// from. Like Dataset it is read-only after construction.
type BoundarySet struct {
	byZip    map[string]ZipBoundary
	zipCodes []string
	document []byte
	index    *rtreego.Rtree
}

// indexedZip is a polygon bounding box stored in the R-tree.
type indexedZip struct {
	zip  string
	rect rtreego.Rect
}

func (z *indexedZip) Bounds() rtreego.Rect { return z.rect }

// NewBoundarySet indexes boundaries by postal code. Later duplicates of a
// code replace earlier ones. Geometries other than polygons are rejected.
func NewBoundarySet(boundaries []ZipBoundary, document []byte) (*BoundarySet, error) {
	s := &BoundarySet{
		byZip:    make(map[string]ZipBoundary, len(boundaries)),
		document: document,
	}
	for _, b := range boundaries {
		switch b.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			return nil, fmt.Errorf("zip %s: unsupported geometry %T", b.PostalCode, b.Geometry)
		}
		if _, ok := s.byZip[b.PostalCode]; !ok {
			s.zipCodes = append(s.zipCodes, b.PostalCode)
		}
		s.byZip[b.PostalCode] = b
	}
	sort.Strings(s.zipCodes)

	objs := make([]rtreego.Spatial, 0, len(s.zipCodes))
	for _, zip := range s.zipCodes {
		g := s.byZip[zip].Geometry
		if g.Empty() {
			continue
		}
		b := g.Bounds()
		rect, err := rtreego.NewRectFromPoints(
			rtreego.Point{b.Min(0), b.Min(1)},
			rtreego.Point{b.Max(0), b.Max(1)},
		)
		if err != nil {
			return nil, fmt.Errorf("zip %s: index bounds: %w", zip, err)
		}
		objs = append(objs, &indexedZip{zip: zip, rect: rect})
	}
	s.index = rtreego.NewTree(2, indexMinChildren, indexMaxChildren, objs...)
	return s, nil
}

// Len returns the number of distinct ZIP polygons.
func (s *BoundarySet) Len() int { return len(s.zipCodes) }

// ZipCodes returns the polygon postal codes in ascending order.
func (s *BoundarySet) ZipCodes() []string {
	out := make([]string, len(s.zipCodes))
	copy(out, s.zipCodes)
	return out
}

// Document returns the GeoJSON FeatureCollection served to the browser.
func (s *BoundarySet) Document() []byte { return s.document }

// Lookup returns the boundary of a ZIP code.
func (s *BoundarySet) Lookup(zip string) (ZipBoundary, bool) {
	b, ok := s.byZip[NormalizePostalCode(zip)]
	return b, ok
}

// Locate finds the ZIP code whose polygon contains the point. Points on a
// shared edge resolve to the lowest ZIP code.
func (s *BoundarySet) Locate(lat, lon float64) (string, bool) {
	hits := s.index.SearchIntersect(rtreego.Point{lon, lat}.ToRect(pointTolerance))
	candidates := make([]string, len(hits))
	for i, h := range hits {
		candidates[i] = h.(*indexedZip).zip
	}
	sort.Strings(candidates)

	p := geom.Coord{lon, lat}
	for _, zip := range candidates {
		if containsPoint(s.byZip[zip].Geometry, p) {
			return zip, true
		}
	}
	return "", false
}

// Centroid returns the area centroid of a ZIP polygon as lat/lon.
func (s *BoundarySet) Centroid(zip string) (lat, lon float64, ok bool) {
	b, found := s.Lookup(zip)
	if !found {
		return 0, 0, false
	}
	c, err := xy.Centroid(b.Geometry)
	if err != nil || len(c) < 2 {
		return 0, 0, false
	}
	return c[1], c[0], true
}

func containsPoint(g geom.T, p geom.Coord) bool {
	if !g.Bounds().OverlapsPoint(g.Layout(), p) {
		return false
	}
	switch g := g.(type) {
	case *geom.Polygon:
		return polygonContains(g, p)
	case *geom.MultiPolygon:
		for i := 0; i < g.NumPolygons(); i++ {
			if polygonContains(g.Polygon(i), p) {
				return true
			}
		}
	}
	return false
}

// polygonContains tests the outer ring and excludes holes.
func polygonContains(poly *geom.Polygon, p geom.Coord) bool {
	if poly.NumLinearRings() == 0 {
		return false
	}
	layout := poly.Layout()
	if !xy.IsPointInRing(layout, p, poly.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < poly.NumLinearRings(); i++ {
		if xy.IsPointInRing(layout, p, poly.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}
