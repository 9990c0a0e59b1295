package util

import (
	"math"
)

const earthRadiusM = 6371000.0 // 지구 반지름 (m)

// HaversineM returns the great-circle distance between two WGS84 points in meters.
func HaversineM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := degToRad(lat1)
	phi2 := degToRad(lat2)
	dPhi := degToRad(lat2 - lat1)
	dLambda := degToRad(lon2 - lon1)

	// Haversine formula
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return 2 * earthRadiusM * math.Asin(math.Sqrt(a))
}

// DistanceMeters is HaversineM truncated to whole meters, the unit the
// search results report.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) int {
	return int(HaversineM(lat1, lon1, lat2, lon2))
}

func degToRad(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
