// Package geo computes great-circle distances and crossing-time estimates for
// the tracking views. Everything here is pure: identical inputs always yield
// identical outputs.
package geo

import (
	"fmt"
	"math"
	"time"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0

	// NauticalMileKm converts knots to km/h.
	NauticalMileKm = 1.852
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DistanceKm returns the haversine distance between two points in kilometers.
func DistanceKm(a, b LatLng) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// TravelTime estimates how long the crossing takes at the given speed,
// rounded to the nearest minute. Non-positive speeds yield zero.
func TravelTime(distanceKm, speedKnots float64) time.Duration {
	if speedKnots <= 0 {
		return 0
	}
	hours := distanceKm / (speedKnots * NauticalMileKm)
	return time.Duration(math.Round(hours*60)) * time.Minute
}

// FormatDuration renders a duration the way the tracking screens display it:
// "1h 5m" with the hour part omitted below one hour.
func FormatDuration(d time.Duration) string {
	totalMinutes := int(math.Round(d.Minutes()))
	hrs := totalMinutes / 60
	mins := totalMinutes % 60

	if hrs > 0 {
		return fmt.Sprintf("%dh %dm", hrs, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

func toRadians(degree float64) float64 {
	return degree * (math.Pi / 180)
}
