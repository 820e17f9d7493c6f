package usecases

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/samirrijal/hazardboard/internal/core/domain"
)

// RoutePlanFeatures renders a plan as one LineString per coloured segment
// plus start and end markers.
func RoutePlanFeatures(plan *domain.RoutePlan) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range plan.Routes {
		for i, seg := range r.Segments {
			f := geojson.NewLineStringFeature([][]float64{position(seg.From), position(seg.To)})
			f.SetProperty("route", r.Index)
			f.SetProperty("segment", i)
			f.SetProperty("color", string(seg.Color))
			fc.AddFeature(f)
		}
	}
	fc.AddFeature(marker(plan.From, "start"))
	fc.AddFeature(marker(plan.To, "end"))
	return fc
}

// PlaceRoutesFeatures renders every driving alternative as a LineString and
// the origin and destination as points.
func PlaceRoutesFeatures(pr *domain.PlaceRoutes) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range pr.Routes {
		coords := make([][]float64, len(r.Path.Coordinates))
		for i, p := range r.Path.Coordinates {
			coords[i] = position(p)
		}
		f := geojson.NewLineStringFeature(coords)
		f.SetProperty("route", r.Index)
		f.SetProperty("distance", r.Distance)
		f.SetProperty("duration_seconds", int(r.Duration.Seconds()))
		f.SetProperty("snapped", r.Snapped)
		fc.AddFeature(f)
	}
	fc.AddFeature(marker(pr.Origin, "origin"))
	dest := marker(pr.Place.Location, "destination")
	dest.SetProperty("name", pr.Place.Name)
	fc.AddFeature(dest)
	return fc
}

func marker(p domain.GeoPoint, role string) *geojson.Feature {
	f := geojson.NewPointFeature(position(p))
	f.SetProperty("role", role)
	return f
}

// position is a GeoJSON [lon, lat] pair.
func position(p domain.GeoPoint) []float64 {
	return []float64{p.Lon, p.Lat}
}
