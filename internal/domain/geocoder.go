package domain

import (
	"context"
	"log/slog"
)

// UnknownPlace is the sentinel place name used when reverse geocoding is
// disabled, fails, or finds no feature under the sub-satellite point
// (most of the time: the ISS is over open ocean).
const UnknownPlace = "over water"

// GeocodingResult contains location data returned by a geocoding provider.
// A zero result means the provider found nothing at the coordinates.
type GeocodingResult struct {
	DisplayName string
	Name        string
	Category    string
}

// Geocoder resolves coordinates to place details.
type Geocoder interface {
	// ReverseGeocode converts a WGS-84 coordinate pair to place details.
	// A nil error with a zero result means "no match", not failure.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

// ResolvePlaceName reverse-geocodes the given coordinates, degrading to
// UnknownPlace when the geocoder is nil, errors, or returns no match.
// Location queries never fail because geocoding found nothing.
func ResolvePlaceName(ctx context.Context, geocoder Geocoder, lat, lon float64, logger *slog.Logger) string {
	if geocoder == nil {
		return UnknownPlace
	}

	result, err := geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", lat,
			"lon", lon,
			"error", err,
		)
		return UnknownPlace
	}
	if result.DisplayName == "" {
		return UnknownPlace
	}
	return result.DisplayName
}
