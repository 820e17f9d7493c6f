package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/core/usecases"
)

// --- Mock RoutingProvider ---

type mockRouting struct {
	geocodeFn func(ctx context.Context, address string) (domain.GeoPoint, error)
	routesFn  func(ctx context.Context, from, to domain.GeoPoint, opts domain.RouteOptions) ([]domain.ProviderRoute, error)
	flowFn    func(ctx context.Context, p domain.GeoPoint) (*domain.TrafficFlow, error)
	flowCalls int
}

func (m *mockRouting) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	return domain.GeoPoint{}, nil
}

func (m *mockRouting) CalculateRoutes(ctx context.Context, from, to domain.GeoPoint, opts domain.RouteOptions) ([]domain.ProviderRoute, error) {
	if m.routesFn != nil {
		return m.routesFn(ctx, from, to, opts)
	}
	return nil, nil
}

func (m *mockRouting) FlowAt(ctx context.Context, p domain.GeoPoint) (*domain.TrafficFlow, error) {
	m.flowCalls++
	if m.flowFn != nil {
		return m.flowFn(ctx, p)
	}
	return &domain.TrafficFlow{CurrentSpeed: 50, FreeFlowSpeed: 50}, nil
}

func straightRoute(n int) domain.ProviderRoute {
	r := domain.ProviderRoute{ArrivalTime: "2024-08-01T02:00:00Z", TravelTimeSeconds: 5400}
	for i := 0; i < n; i++ {
		r.Points = append(r.Points, domain.GeoPoint{Lat: 0, Lon: float64(i) * 0.01})
	}
	return r
}

// --- Tests ---

func TestColorForFlow(t *testing.T) {
	tests := []struct {
		current, free float64
		want          domain.TrafficColor
	}{
		{90, 100, domain.TrafficGreen},
		{120, 100, domain.TrafficGreen},
		{89.9, 100, domain.TrafficYellow},
		{60, 100, domain.TrafficYellow},
		{59.9, 100, domain.TrafficRed},
		{0, 100, domain.TrafficRed},
	}
	for _, tt := range tests {
		if got := domain.ColorForFlow(tt.current, tt.free); got != tt.want {
			t.Errorf("ColorForFlow(%v, %v) = %s, want %s", tt.current, tt.free, got, tt.want)
		}
	}
}

func TestNormalizeDepartAt(t *testing.T) {
	now := time.Date(2024, 8, 3, 15, 4, 5, 0, time.UTC)
	tests := map[string]string{
		"2024-08-01":          "2024-08-01T00:00:00",
		"2024-08-01T07:30:00": "2024-08-01T07:30:00",
		"":                    "2024-08-03T00:00:00",
	}
	for in, want := range tests {
		if got := usecases.NormalizeDepartAt(in, now); got != want {
			t.Errorf("NormalizeDepartAt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRoutingService_Plan(t *testing.T) {
	var gotOpts domain.RouteOptions
	speeds := []float64{100, 70, 30}
	provider := &mockRouting{
		geocodeFn: func(ctx context.Context, address string) (domain.GeoPoint, error) {
			if address == "A" {
				return domain.GeoPoint{Lat: 0, Lon: 0}, nil
			}
			return domain.GeoPoint{Lat: 0, Lon: 0.03}, nil
		},
		routesFn: func(ctx context.Context, from, to domain.GeoPoint, opts domain.RouteOptions) ([]domain.ProviderRoute, error) {
			gotOpts = opts
			return []domain.ProviderRoute{straightRoute(4)}, nil
		},
	}
	provider.flowFn = func(ctx context.Context, p domain.GeoPoint) (*domain.TrafficFlow, error) {
		return &domain.TrafficFlow{CurrentSpeed: speeds[provider.flowCalls-1], FreeFlowSpeed: 100}, nil
	}
	pub := &mockPublisher{}
	svc := usecases.NewRoutingService(provider, pub, 0)

	plan, err := svc.Plan(context.Background(), domain.RouteQuery{From: "A", To: "B", DepartAt: "2024-08-01"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotOpts.DepartAt != "2024-08-01T00:00:00" || gotOpts.MaxAlternatives != 2 || gotOpts.RouteType != "fastest" {
		t.Errorf("unexpected route options: %+v", gotOpts)
	}
	if len(plan.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(plan.Routes))
	}
	r := plan.Routes[0]
	if r.TravelTimeHours != 1.5 {
		t.Errorf("expected 1.5 hours, got %f", r.TravelTimeHours)
	}
	want := []domain.TrafficColor{domain.TrafficGreen, domain.TrafficYellow, domain.TrafficRed}
	for i, c := range want {
		if r.Segments[i].Color != c {
			t.Errorf("segment %d: expected %s, got %s", i, c, r.Segments[i].Color)
		}
	}
	// 0.03 degrees of longitude at the equator.
	if r.DistanceMeters < 3330 || r.DistanceMeters > 3345 {
		t.Errorf("unexpected distance %f", r.DistanceMeters)
	}
	if len(pub.subjects) != 1 || pub.subjects[0] != domain.EventRoutePlanned {
		t.Errorf("expected route planned event, got %v", pub.subjects)
	}
}

func TestRoutingService_GrayAfterFailure(t *testing.T) {
	provider := &mockRouting{
		routesFn: func(ctx context.Context, from, to domain.GeoPoint, opts domain.RouteOptions) ([]domain.ProviderRoute, error) {
			return []domain.ProviderRoute{straightRoute(5)}, nil
		},
	}
	provider.flowFn = func(ctx context.Context, p domain.GeoPoint) (*domain.TrafficFlow, error) {
		if provider.flowCalls == 2 {
			return nil, &domain.ProviderError{Provider: "tomtom", Op: "flow_segment", StatusCode: 403}
		}
		return &domain.TrafficFlow{CurrentSpeed: 100, FreeFlowSpeed: 100}, nil
	}
	svc := usecases.NewRoutingService(provider, nil, 0)

	plan, err := svc.Plan(context.Background(), domain.RouteQuery{From: "A", To: "B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	segs := plan.Routes[0].Segments
	if segs[0].Color != domain.TrafficGreen {
		t.Errorf("expected first segment green, got %s", segs[0].Color)
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].Color != domain.TrafficGray {
			t.Errorf("segment %d: expected gray, got %s", i, segs[i].Color)
		}
	}
	if provider.flowCalls != 2 {
		t.Errorf("expected lookups to stop after failure, got %d calls", provider.flowCalls)
	}
}

func TestRoutingService_FlowSampleCap(t *testing.T) {
	provider := &mockRouting{
		routesFn: func(ctx context.Context, from, to domain.GeoPoint, opts domain.RouteOptions) ([]domain.ProviderRoute, error) {
			return []domain.ProviderRoute{straightRoute(6), straightRoute(3)}, nil
		},
	}
	svc := usecases.NewRoutingService(provider, nil, 2)

	plan, err := svc.Plan(context.Background(), domain.RouteQuery{From: "A", To: "B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := plan.Routes[0]
	if first.FlowSamples != 2 {
		t.Errorf("expected 2 samples, got %d", first.FlowSamples)
	}
	if first.Segments[1].Color != domain.TrafficGreen || first.Segments[2].Color != domain.TrafficGray {
		t.Errorf("expected cap to gray later segments: %+v", first.Segments)
	}
	if provider.flowCalls != 4 {
		t.Errorf("expected the cap to apply per route, got %d calls", provider.flowCalls)
	}
}

func TestRoutingService_Validation(t *testing.T) {
	svc := usecases.NewRoutingService(&mockRouting{}, nil, 0)
	tests := []domain.RouteQuery{
		{From: "", To: "B"},
		{From: "A", To: "B", RouteType: "scenic"},
		{From: "A", To: "B", TravelMode: "bicycle"},
		{From: "A", To: "B", Avoid: "bridges"},
	}
	for _, q := range tests {
		_, err := svc.Plan(context.Background(), q)
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("%+v: expected ValidationError, got %v", q, err)
		}
	}
}

func TestRoutingService_GeocodeFailure(t *testing.T) {
	provider := &mockRouting{geocodeFn: func(ctx context.Context, address string) (domain.GeoPoint, error) {
		return domain.GeoPoint{}, &domain.ProviderError{Provider: "tomtom", Op: "geocode", Err: domain.ErrNotFound}
	}}
	svc := usecases.NewRoutingService(provider, nil, 0)

	_, err := svc.Plan(context.Background(), domain.RouteQuery{From: "A", To: "B"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRoutePlanFeatures(t *testing.T) {
	plan := &domain.RoutePlan{
		From: domain.GeoPoint{Lat: 1, Lon: 2},
		To:   domain.GeoPoint{Lat: 3, Lon: 4},
		Routes: []domain.TrafficRoute{{Segments: []domain.RouteSegment{
			{From: domain.GeoPoint{Lat: 1, Lon: 2}, To: domain.GeoPoint{Lat: 3, Lon: 4}, Color: domain.TrafficRed},
		}}},
	}
	fc := usecases.RoutePlanFeatures(plan)
	if len(fc.Features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(fc.Features))
	}
	seg := fc.Features[0]
	if seg.Properties["color"] != "red" {
		t.Errorf("expected red segment, got %v", seg.Properties["color"])
	}
	if got := seg.Geometry.LineString[0]; got[0] != 2 || got[1] != 1 {
		t.Errorf("expected [lon, lat] order, got %v", got)
	}
	if _, err := json.Marshal(fc); err != nil {
		t.Errorf("marshal: %v", err)
	}
}
