package geospatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/samirrijal/hazardboard/internal/core/domain"
)

func toOrb(p domain.GeoPoint) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// SegmentLength is the great-circle length of a to b in meters.
func SegmentLength(a, b domain.GeoPoint) float64 {
	return geo.DistanceHaversine(toOrb(a), toOrb(b))
}

// Midpoint returns the point halfway along the great circle from a to b.
func Midpoint(a, b domain.GeoPoint) domain.GeoPoint {
	m := geo.Midpoint(toOrb(a), toOrb(b))
	return domain.GeoPoint{Lat: m.Lat(), Lon: m.Lon()}
}
