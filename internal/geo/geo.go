// Package geo holds the distance helpers used to rank studios by proximity.
package geo

import (
	"fmt"
	"math"
)

const (
	earthRadiusMiles = 3959
	kmPerMile        = 1.60934

	// NearbyMiles is the radius under which a place counts as nearby.
	NearbyMiles = 5.0

	chicagoLat = 41.8781
	chicagoLon = -87.6298
)

// Units a distance can be reported in.
const (
	UnitMiles = "mi"
	UnitKm    = "km"
)

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistanceMiles is the great-circle distance between two points (Haversine).
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(radians(lat1))*math.Cos(radians(lat2))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}

func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	return DistanceMiles(lat1, lon1, lat2, lon2) * kmPerMile
}

// Distance measures in unit; anything but UnitKm means miles.
func Distance(unit string, lat1, lon1, lat2, lon2 float64) float64 {
	if unit == UnitKm {
		return DistanceKm(lat1, lon1, lat2, lon2)
	}
	return DistanceMiles(lat1, lon1, lat2, lon2)
}

// ValidUnit reports whether unit is one Distance understands.
func ValidUnit(unit string) bool {
	return unit == UnitMiles || unit == UnitKm
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func WithinRadius(distance, radiusMiles float64) bool {
	return distance <= radiusMiles
}

func IsNearby(distance float64) bool {
	return distance <= NearbyMiles
}

func FormatDistance(distance float64) string {
	return FormatDistanceIn(distance, UnitMiles)
}

func FormatDistanceIn(distance float64, unit string) string {
	if unit != UnitKm {
		unit = UnitMiles
	}
	switch {
	case distance < 0.1:
		return "Less than 0.1 " + unit
	case distance < 10:
		return fmt.Sprintf("%.1f %s", distance, unit)
	default:
		return fmt.Sprintf("%d %s", int(math.Round(distance)), unit)
	}
}

var zipTable = map[string]Point{
	"60657": {41.9392, -87.6553},
	"60614": {41.9220, -87.6531},
	"60613": {41.9540, -87.6550},
	"60622": {41.9033, -87.6785},
	"60647": {41.9202, -87.7050},
	"60618": {41.9486, -87.7053},
}

// CoordinatesForZip resolves the Chicago zip codes the service covers.
func CoordinatesForZip(zip string) (Point, bool) {
	p, ok := zipTable[zip]
	return p, ok
}

// Describe names the area around a point, falling back to raw coordinates.
func Describe(lat, lon float64) string {
	if DistanceMiles(lat, lon, chicagoLat, chicagoLon) < 50 {
		return "Chicago, IL"
	}
	return fmt.Sprintf("%.2f°, %.2f°", lat, lon)
}
