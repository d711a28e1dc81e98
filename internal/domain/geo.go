package domain

import "math"

// earthRadiusKm is the mean Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

// DistanceKm returns the great-circle distance between two points in
// kilometres (haversine). Pure and total: DistanceKm(x, x) == 0 and
// DistanceKm(p, q) == DistanceKm(q, p).
func DistanceKm(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	dlat := (b.Lat - a.Lat) * math.Pi / 180.0
	dlng := (b.Lng - a.Lng) * math.Pi / 180.0

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlng/2)*math.Sin(dlng/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
