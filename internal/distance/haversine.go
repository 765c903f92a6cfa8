package distance

import (
	"math"

	"road-smart-optimizer/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by the spherical approximation
const EarthRadiusKm = 6371.0

// Func computes the distance in kilometers between two points. The solvers
// take a Func so tests can inject counting or stub implementations.
type Func func(a, b models.Coordinates) float64

// Kilometers returns the great-circle distance between two points in
// kilometers using the haversine formula. Pure and symmetric; returns 0 for
// coordinate-identical points. Inputs must be valid finite coordinates —
// callers validate before use.
func Kilometers(a, b models.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lng1 := a.Lng * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	lng2 := b.Lng * math.Pi / 180

	dLat := lat2 - lat1
	dLng := lng2 - lng1

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ValidCoordinate reports whether a coordinate pair is finite and in range
func ValidCoordinate(c models.Coordinates) bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) {
		return false
	}
	if math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return false
	}
	return math.Abs(c.Lat) <= 90 && math.Abs(c.Lng) <= 180
}
