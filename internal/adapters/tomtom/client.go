// Package tomtom geocodes addresses, calculates routes and reads live traffic
// flow from the TomTom APIs.
package tomtom

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/pkg/httpclient"
	"github.com/samirrijal/hazardboard/internal/pkg/metrics"
	"github.com/samirrijal/hazardboard/internal/pkg/telemetry"
)

const (
	providerName   = "tomtom"
	DefaultBaseURL = "https://api.tomtom.com"
)

// ErrMissingAPIKey is returned when no TomTom key is configured.
var ErrMissingAPIKey = fmt.Errorf("tomtom: %w", domain.ErrMissingAPIKey)

// Client implements ports.RoutingProvider.
type Client struct {
	apiKey  string
	baseURL string
	http    *httpclient.Client
}

// NewClient creates a TomTom client. An empty baseURL selects the public API.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.New(timeout),
	}
}

type geocodeResponse struct {
	Results []struct {
		Position struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"position"`
	} `json:"results"`
}

// Geocode returns the position of the best match for address.
func (c *Client) Geocode(ctx context.Context, address string) (p domain.GeoPoint, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanTomTomGeocode)
	defer span.End()
	defer c.observe("geocode", span, time.Now(), &err)

	if err := c.requireKey("geocode"); err != nil {
		return p, err
	}

	reqURL := fmt.Sprintf("%s/search/2/geocode/%s.json?key=%s",
		c.baseURL, url.PathEscape(address), url.QueryEscape(c.apiKey))
	var body geocodeResponse
	if err := c.http.GetJSON(ctx, reqURL, &body); err != nil {
		return p, providerError("geocode", err)
	}
	if len(body.Results) == 0 {
		return p, providerError("geocode", fmt.Errorf("%q: %w", address, domain.ErrNotFound))
	}
	pos := body.Results[0].Position
	return domain.GeoPoint{Lat: pos.Lat, Lon: pos.Lon}, nil
}

type routeResponse struct {
	Routes []struct {
		Summary struct {
			LengthInMeters      int    `json:"lengthInMeters"`
			TravelTimeInSeconds int    `json:"travelTimeInSeconds"`
			ArrivalTime         string `json:"arrivalTime"`
		} `json:"summary"`
		Legs []struct {
			Points []struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"points"`
		} `json:"legs"`
	} `json:"routes"`
}

// CalculateRoutes returns the main route and up to opts.MaxAlternatives alternatives.
// Only the first leg's points are kept.
func (c *Client) CalculateRoutes(ctx context.Context, from, to domain.GeoPoint, opts domain.RouteOptions) (routes []domain.ProviderRoute, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanTomTomRoute)
	defer span.End()
	defer c.observe("calculate_route", span, time.Now(), &err)

	if err := c.requireKey("calculate_route"); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	setIf(q, "routeType", opts.RouteType)
	setIf(q, "traffic", opts.Traffic)
	setIf(q, "travelMode", opts.TravelMode)
	setIf(q, "avoid", opts.Avoid)
	setIf(q, "departAt", opts.DepartAt)
	q.Set("vehicleCommercial", strconv.FormatBool(opts.VehicleCommercial))
	if opts.MaxAlternatives > 0 {
		q.Set("maxAlternatives", strconv.Itoa(opts.MaxAlternatives))
	}
	reqURL := fmt.Sprintf("%s/routing/1/calculateRoute/%s:%s/json?%s",
		c.baseURL, latLon(from), latLon(to), q.Encode())

	var body routeResponse
	if err := c.http.GetJSON(ctx, reqURL, &body); err != nil {
		return nil, providerError("calculate_route", err)
	}

	routes = make([]domain.ProviderRoute, 0, len(body.Routes))
	for _, r := range body.Routes {
		pr := domain.ProviderRoute{
			ArrivalTime:       r.Summary.ArrivalTime,
			TravelTimeSeconds: r.Summary.TravelTimeInSeconds,
			LengthMeters:      r.Summary.LengthInMeters,
		}
		if len(r.Legs) > 0 {
			pr.Points = make([]domain.GeoPoint, len(r.Legs[0].Points))
			for i, pt := range r.Legs[0].Points {
				pr.Points[i] = domain.GeoPoint{Lat: pt.Latitude, Lon: pt.Longitude}
			}
		}
		routes = append(routes, pr)
	}
	span.SetAttributes(attribute.Int("tomtom.routes", len(routes)))
	return routes, nil
}

type flowResponse struct {
	FlowSegmentData *struct {
		CurrentSpeed  float64 `json:"currentSpeed"`
		FreeFlowSpeed float64 `json:"freeFlowSpeed"`
	} `json:"flowSegmentData"`
}

// FlowAt returns the traffic flow on the road segment closest to p.
func (c *Client) FlowAt(ctx context.Context, p domain.GeoPoint) (flow *domain.TrafficFlow, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanTomTomFlow)
	defer span.End()
	defer c.observe("flow_segment", span, time.Now(), &err)

	if err := c.requireKey("flow_segment"); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("point", latLon(p))
	reqURL := c.baseURL + "/traffic/services/4/flowSegmentData/absolute/10/json?" + q.Encode()

	var body flowResponse
	if err := c.http.GetJSON(ctx, reqURL, &body); err != nil {
		return nil, providerError("flow_segment", err)
	}
	if body.FlowSegmentData == nil {
		return nil, providerError("flow_segment", domain.ErrNotFound)
	}
	return &domain.TrafficFlow{
		CurrentSpeed:  body.FlowSegmentData.CurrentSpeed,
		FreeFlowSpeed: body.FlowSegmentData.FreeFlowSpeed,
	}, nil
}

func (c *Client) requireKey(op string) error {
	if c.apiKey == "" {
		return &domain.ProviderError{Provider: providerName, Op: op, Err: ErrMissingAPIKey}
	}
	return nil
}

func (c *Client) observe(op string, span trace.Span, start time.Time, errp *error) {
	metrics.ObserveProvider(providerName, op, start, *errp)
	if *errp != nil {
		span.RecordError(*errp)
		span.SetStatus(codes.Error, (*errp).Error())
	}
}

func latLon(p domain.GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func providerError(op string, err error) error {
	pe := &domain.ProviderError{Provider: providerName, Op: op, Err: err}
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		pe.StatusCode = se.StatusCode
	}
	return pe
}
