package ports

import (
	"context"
	"time"

	"github.com/samirrijal/hazardboard/internal/core/domain"
)

// WeatherProvider fetches daily weather observations.
type WeatherProvider interface {
	DailyTimeline(ctx context.Context, location string, start, end time.Time) ([]domain.WeatherDay, error)
}

// Geocoder resolves a free-form address to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.GeoPoint, error)
}

// RoutingProvider computes routes and reports live traffic flow.
type RoutingProvider interface {
	Geocoder
	CalculateRoutes(ctx context.Context, from, to domain.GeoPoint, opts domain.RouteOptions) ([]domain.ProviderRoute, error)
	FlowAt(ctx context.Context, p domain.GeoPoint) (*domain.TrafficFlow, error)
}

// PlacesProvider finds places and driving directions.
type PlacesProvider interface {
	Geocoder
	Nearby(ctx context.Context, at domain.GeoPoint, radiusMeters uint, placeType string) ([]domain.Place, error)
	Directions(ctx context.Context, from, to domain.GeoPoint) ([]domain.DrivingRoute, error)
	SnapToRoads(ctx context.Context, path []domain.GeoPoint) ([]domain.GeoPoint, error)
}
