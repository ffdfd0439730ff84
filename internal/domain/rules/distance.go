package rules

import (
	"math"
	"strconv"
)

const earthRadiusKM = 6371.0

// HaversineKM is the great-circle distance between two coordinates.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(v float64) float64 { return v * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// FormatDistanceKM renders a display distance: one decimal under a
// kilometer, whole kilometers otherwise.
func FormatDistanceKM(km float64) string {
	if km < 1 {
		return strconv.FormatFloat(km, 'f', 1, 64)
	}
	return strconv.FormatInt(int64(math.Round(km)), 10)
}
