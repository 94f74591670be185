package domain

import (
	"io"
	"log/slog"

	"github.com/twpayne/go-geom"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// square returns an axis-aligned polygon spanning the given lon/lat box.
func square(minLon, minLat, maxLon, maxLat float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat},
	}})
}

func building(zip string, score, water, year float64) Building {
	return Building{
		PostalCode:      zip,
		EnergyStarScore: score,
		IndoorWaterUse:  water,
		YearBuilt:       year,
		Latitude:        Missing,
		Longitude:       Missing,
	}
}
