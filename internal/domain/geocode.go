package domain

import (
	"context"
	"log/slog"
)

// ZipTitle names a ZIP code for the detail panel, e.g. "ZIP 10001 - Chelsea".
// The place name comes from reverse geocoding the polygon centroid. A nil
// geocoder, an unknown polygon or a failed lookup all degrade to "ZIP 10001".
func ZipTitle(ctx context.Context, zip string, boundaries *BoundarySet, geocoder Geocoder, logger *slog.Logger) string {
	title := "ZIP " + zip
	if geocoder == nil || boundaries == nil {
		return title
	}

	lat, lon, ok := boundaries.Centroid(zip)
	if !ok {
		return title
	}

	result, err := geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"zip", zip,
			"lat", lat,
			"lon", lon,
			"error", err,
		)
		return title
	}
	if result.PlaceName == "" {
		return title
	}
	return title + " - " + result.PlaceName
}
