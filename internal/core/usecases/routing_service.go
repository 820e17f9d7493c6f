package usecases

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/core/ports"
	"github.com/samirrijal/hazardboard/internal/pkg/geospatial"
	"github.com/samirrijal/hazardboard/internal/pkg/telemetry"
)

// MaxRouteAlternatives is requested from the routing provider on every plan.
const MaxRouteAlternatives = 2

var (
	routeTypes  = map[string]bool{"fastest": true, "short": true}
	trafficKind = map[string]bool{"live": true, "historical": true}
	travelModes = map[string]bool{"car": true, "truck": true}
	avoidKinds  = map[string]bool{"unpavedRoads": true, "tollRoads": true, "motorways": true, "ferries": true}
)

// RoutingService plans routes and colours them by live traffic.
type RoutingService struct {
	provider       ports.RoutingProvider
	events         ports.EventPublisher
	maxFlowSamples int
	now            func() time.Time
}

// NewRoutingService creates a RoutingService. maxFlowSamples caps the flow
// lookups per route; zero or less means no cap. events may be nil.
func NewRoutingService(provider ports.RoutingProvider, events ports.EventPublisher, maxFlowSamples int) *RoutingService {
	return &RoutingService{provider: provider, events: events, maxFlowSamples: maxFlowSamples, now: time.Now}
}

// Plan geocodes both ends, computes up to three routes and colours every
// segment by the traffic flow at its midpoint.
func (s *RoutingService) Plan(ctx context.Context, q domain.RouteQuery) (*domain.RoutePlan, error) {
	opts, err := s.routeOptions(q)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRoutePlan)
	defer span.End()

	from, err := s.provider.Geocode(ctx, q.From)
	if err != nil {
		return nil, err
	}
	to, err := s.provider.Geocode(ctx, q.To)
	if err != nil {
		return nil, err
	}

	routes, err := s.provider.CalculateRoutes(ctx, from, to, opts)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("routing.routes", len(routes)))

	plan := &domain.RoutePlan{From: from, To: to, Routes: make([]domain.TrafficRoute, 0, len(routes))}
	for i := range routes {
		plan.Routes = append(plan.Routes, s.colourRoute(ctx, i, &routes[i]))
	}

	s.publishPlanned(ctx, q, plan)
	return plan, nil
}

func (s *RoutingService) routeOptions(q domain.RouteQuery) (domain.RouteOptions, error) {
	q.From, q.To = strings.TrimSpace(q.From), strings.TrimSpace(q.To)
	if q.From == "" || q.To == "" {
		return domain.RouteOptions{}, domain.Invalid("from", "start and end addresses are required")
	}

	opts := domain.RouteOptions{
		RouteType:         orDefault(q.RouteType, "fastest"),
		Traffic:           orDefault(q.Traffic, "live"),
		TravelMode:        orDefault(q.TravelMode, "car"),
		Avoid:             q.Avoid,
		DepartAt:          NormalizeDepartAt(q.DepartAt, s.now()),
		VehicleCommercial: q.VehicleCommercial,
		MaxAlternatives:   MaxRouteAlternatives,
	}
	switch {
	case !routeTypes[opts.RouteType]:
		return opts, domain.Invalid("route_type", "must be fastest or short")
	case !trafficKind[opts.Traffic]:
		return opts, domain.Invalid("traffic", "must be live or historical")
	case !travelModes[opts.TravelMode]:
		return opts, domain.Invalid("travel_mode", "must be car or truck")
	case opts.Avoid != "" && !avoidKinds[opts.Avoid]:
		return opts, domain.Invalid("avoid", "must be one of unpavedRoads, tollRoads, motorways, ferries")
	}
	return opts, nil
}

// NormalizeDepartAt appends midnight to a bare date and defaults to today.
func NormalizeDepartAt(departAt string, now time.Time) string {
	departAt = strings.TrimSpace(departAt)
	if departAt == "" {
		departAt = now.Format(time.DateOnly)
	}
	if !strings.Contains(departAt, "T") {
		departAt += "T00:00:00"
	}
	return departAt
}

// colourRoute classifies each segment of r. After the first failed flow
// lookup, and past the sample cap, segments are gray.
func (s *RoutingService) colourRoute(ctx context.Context, index int, r *domain.ProviderRoute) domain.TrafficRoute {
	out := domain.TrafficRoute{
		Index:           index,
		ArrivalTime:     r.ArrivalTime,
		TravelTimeHours: float64(r.TravelTimeSeconds) / 3600,
	}
	if len(r.Points) < 2 {
		return out
	}

	out.Segments = make([]domain.RouteSegment, 0, len(r.Points)-1)
	failed := false
	for i := 0; i < len(r.Points)-1; i++ {
		a, b := r.Points[i], r.Points[i+1]
		out.DistanceMeters += geospatial.SegmentLength(a, b)

		color := domain.TrafficGray
		if !failed && (s.maxFlowSamples <= 0 || out.FlowSamples < s.maxFlowSamples) {
			out.FlowSamples++
			flow, err := s.provider.FlowAt(ctx, geospatial.Midpoint(a, b))
			if err != nil {
				failed = true
				slog.Warn("traffic flow unavailable, remaining segments gray",
					"route", index, "segment", i, "error", err)
			} else {
				color = domain.ColorForFlow(flow.CurrentSpeed, flow.FreeFlowSpeed)
			}
		}
		out.Segments = append(out.Segments, domain.RouteSegment{From: a, To: b, Color: color})
	}
	return out
}

func (s *RoutingService) publishPlanned(ctx context.Context, q domain.RouteQuery, plan *domain.RoutePlan) {
	if s.events == nil {
		return
	}
	ev := &domain.DashboardEvent{
		Type:      domain.EventRoutePlanned,
		Timestamp: s.now().UTC(),
		Data: map[string]any{
			"from":   q.From,
			"to":     q.To,
			"routes": len(plan.Routes),
		},
	}
	if err := s.events.PublishEvent(ctx, domain.EventRoutePlanned, ev); err != nil {
		slog.Warn("publish route event", "error", err)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
