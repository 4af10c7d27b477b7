// Package geo provides coordinate types and great-circle distance math used by
// the report proximity gates. Pure functions only; no I/O.
package geo

import "math"

// earthRadiusMeters is the mean earth radius used by the haversine formula.
const earthRadiusMeters = 6371008.8

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies inside the WGS84 envelope.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Distance returns the haversine distance between a and b in meters.
// Spherical-earth approximation; error stays well under 0.5% for distances
// below 1000 km, which is far tighter than the 100 m proximity gate needs.
func Distance(a, b Coordinate) float64 {
	if a == b {
		return 0
	}

	latA := radians(a.Lat)
	latB := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLon*sinLon

	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Within reports whether a and b are at most radiusMeters apart.
func Within(a, b Coordinate, radiusMeters float64) bool {
	return Distance(a, b) <= radiusMeters
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
