// Package googlemaps finds nearby places and driving routes with the Google Maps Platform.
package googlemaps

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"googlemaps.github.io/maps"

	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/pkg/metrics"
	"github.com/samirrijal/hazardboard/internal/pkg/telemetry"
)

const providerName = "googlemaps"

// maxSnapPoints is the Roads API limit per request.
const maxSnapPoints = 100

// ErrMissingAPIKey is returned when no Google Maps key is configured.
var ErrMissingAPIKey = fmt.Errorf("google maps: %w", domain.ErrMissingAPIKey)

// Client implements ports.PlacesProvider.
type Client struct {
	client *maps.Client
}

// NewClient creates a Google Maps client. An empty baseURL selects the public API.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	opts := []maps.ClientOption{maps.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, maps.WithBaseURL(baseURL))
	}
	c, err := maps.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return &Client{client: c}, nil
}

// Geocode returns the location of the first geocoding result for address.
func (c *Client) Geocode(ctx context.Context, address string) (p domain.GeoPoint, err error) {
	done := c.start(ctx, "geocode")
	defer func() { done(err) }()

	res, err := c.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return p, providerError("geocode", err)
	}
	if len(res) == 0 {
		return p, providerError("geocode", fmt.Errorf("%q: %w", address, domain.ErrNotFound))
	}
	loc := res[0].Geometry.Location
	return domain.GeoPoint{Lat: loc.Lat, Lon: loc.Lng}, nil
}

// Nearby returns places of placeType within radiusMeters of at, in provider order.
func (c *Client) Nearby(ctx context.Context, at domain.GeoPoint, radiusMeters uint, placeType string) (places []domain.Place, err error) {
	done := c.start(ctx, "nearby_search")
	defer func() { done(err) }()

	req := &maps.NearbySearchRequest{
		Location: toLatLng(at),
		Radius:   radiusMeters,
	}
	if placeType != "" {
		t, err := maps.ParsePlaceType(placeType)
		if err != nil {
			return nil, domain.Invalid("place_type", "%v", err)
		}
		req.Type = t
	}

	resp, err := c.client.NearbySearch(ctx, req)
	if err != nil {
		return nil, providerError("nearby_search", err)
	}
	places = make([]domain.Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		addr := r.FormattedAddress
		if addr == "" {
			addr = r.Vicinity
		}
		places = append(places, domain.Place{
			Name:     r.Name,
			Address:  addr,
			Location: fromLatLng(r.Geometry.Location),
		})
	}
	return places, nil
}

// Directions returns driving alternatives from from to to, departing now.
func (c *Client) Directions(ctx context.Context, from, to domain.GeoPoint) (routes []domain.DrivingRoute, err error) {
	done := c.start(ctx, "directions")
	defer func() { done(err) }()

	res, _, err := c.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:        latLngString(from),
		Destination:   latLngString(to),
		Mode:          maps.TravelModeDriving,
		DepartureTime: "now",
		Alternatives:  true,
	})
	if err != nil {
		return nil, providerError("directions", err)
	}
	routes = make([]domain.DrivingRoute, 0, len(res))
	for i := range res {
		routes = append(routes, drivingRoute(i, &res[i]))
	}
	return routes, nil
}

// SnapToRoads snaps path to the most likely roads, interpolating between points.
// Paths longer than the per-request limit are snapped in chunks.
func (c *Client) SnapToRoads(ctx context.Context, path []domain.GeoPoint) (snapped []domain.GeoPoint, err error) {
	done := c.start(ctx, "snap_to_roads")
	defer func() { done(err) }()

	for _, chunk := range chunkPath(path, maxSnapPoints) {
		req := &maps.SnapToRoadRequest{Interpolate: true, Path: make([]maps.LatLng, len(chunk))}
		for i, p := range chunk {
			req.Path[i] = *toLatLng(p)
		}
		resp, err := c.client.SnapToRoad(ctx, req)
		if err != nil {
			return nil, providerError("snap_to_roads", err)
		}
		for _, sp := range resp.SnappedPoints {
			snapped = append(snapped, fromLatLng(sp.Location))
		}
	}
	return snapped, nil
}

func (c *Client) start(ctx context.Context, op string) func(error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanGoogleMaps)
	span.SetAttributes(attribute.String("googlemaps.op", op))
	began := time.Now()
	return func(err error) {
		metrics.ObserveProvider(providerName, op, began, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// drivingRoute flattens the first leg: each step's start plus the last step's end.
func drivingRoute(index int, r *maps.Route) domain.DrivingRoute {
	out := domain.DrivingRoute{Index: index, Summary: r.Summary}
	if len(r.Legs) == 0 {
		return out
	}
	leg := r.Legs[0]
	out.Distance = leg.Distance.HumanReadable
	out.Duration = leg.Duration
	for _, s := range leg.Steps {
		out.Path.Coordinates = append(out.Path.Coordinates, fromLatLng(s.StartLocation))
	}
	if n := len(leg.Steps); n > 0 {
		out.Path.Coordinates = append(out.Path.Coordinates, fromLatLng(leg.Steps[n-1].EndLocation))
	}
	return out
}

func chunkPath(path []domain.GeoPoint, size int) [][]domain.GeoPoint {
	var out [][]domain.GeoPoint
	for len(path) > size {
		out = append(out, path[:size])
		path = path[size:]
	}
	if len(path) > 0 {
		out = append(out, path)
	}
	return out
}

func toLatLng(p domain.GeoPoint) *maps.LatLng {
	return &maps.LatLng{Lat: p.Lat, Lng: p.Lon}
}

func fromLatLng(l maps.LatLng) domain.GeoPoint {
	return domain.GeoPoint{Lat: l.Lat, Lon: l.Lng}
}

func latLngString(p domain.GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

func providerError(op string, err error) error {
	return &domain.ProviderError{Provider: providerName, Op: op, Err: err}
}
