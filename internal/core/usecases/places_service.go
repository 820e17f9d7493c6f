package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/core/ports"
	"github.com/samirrijal/hazardboard/internal/pkg/telemetry"
)

// NearbyRadiusMeters is the search radius around the origin.
const NearbyRadiusMeters = 5000

// PlaceTypes lists the place types offered on the nearest-place page.
var PlaceTypes = []string{"hospital", "shopping_mall", "church", "gas_station", "police", "park"}

// PlacesService finds the nearest place of a kind and the driving routes to it.
type PlacesService struct {
	provider ports.PlacesProvider
}

// NewPlacesService creates a PlacesService.
func NewPlacesService(provider ports.PlacesProvider) *PlacesService {
	return &PlacesService{provider: provider}
}

// NearestRoute geocodes address, picks the first place of placeType within
// NearbyRadiusMeters and returns every driving alternative to it, snapped to
// roads. A route whose snapping fails keeps its step path.
func (s *PlacesService) NearestRoute(ctx context.Context, address, placeType string) (*domain.PlaceRoutes, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, domain.Invalid("address", "is required")
	}
	if !validPlaceType(placeType) {
		return nil, domain.Invalid("place_type", "must be one of %s", strings.Join(PlaceTypes, ", "))
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanNearestPlace)
	defer span.End()
	span.SetAttributes(attribute.String("places.type", placeType))

	origin, err := s.provider.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	places, err := s.provider.Nearby(ctx, origin, NearbyRadiusMeters, placeType)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("no %s near %q: %w", placeType, address, domain.ErrNotFound)
	}
	place := places[0]

	routes, err := s.provider.Directions(ctx, origin, place.Location)
	if err != nil {
		return nil, err
	}

	for i := range routes {
		path := routes[i].Path.Coordinates
		if len(path) < 2 {
			continue
		}
		snapped, err := s.provider.SnapToRoads(ctx, path)
		if err != nil || len(snapped) == 0 {
			slog.Warn("snap to roads failed, keeping step path", "route", i, "error", err)
			continue
		}
		routes[i].Path.Coordinates = snapped
		routes[i].Snapped = true
	}

	return &domain.PlaceRoutes{Origin: origin, Place: place, Routes: routes}, nil
}

func validPlaceType(t string) bool {
	for _, pt := range PlaceTypes {
		if pt == t {
			return true
		}
	}
	return false
}
