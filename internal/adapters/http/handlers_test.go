package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/samirrijal/hazardboard/internal/adapters/http"
	"github.com/samirrijal/hazardboard/internal/adapters/parquet"
	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/core/usecases"
	"github.com/samirrijal/hazardboard/internal/dataset"
)

// ---- Mock ports ----

type mockLoader struct {
	loadFn func(ctx context.Context, path string) (*domain.FireTable, error)
}

func (m *mockLoader) Load(ctx context.Context, path string) (*domain.FireTable, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, path)
	}
	return &domain.FireTable{Source: path}, nil
}

type mockWeather struct {
	timelineFn func(ctx context.Context, location string, start, end time.Time) ([]domain.WeatherDay, error)
}

func (m *mockWeather) DailyTimeline(ctx context.Context, location string, start, end time.Time) ([]domain.WeatherDay, error) {
	if m.timelineFn != nil {
		return m.timelineFn(ctx, location, start, end)
	}
	return nil, nil
}

type mockRouting struct {
	geocodeFn func(ctx context.Context, address string) (domain.GeoPoint, error)
	routesFn  func(ctx context.Context, from, to domain.GeoPoint, opts domain.RouteOptions) ([]domain.ProviderRoute, error)
	flowFn    func(ctx context.Context, p domain.GeoPoint) (*domain.TrafficFlow, error)
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
	if m.flowFn != nil {
		return m.flowFn(ctx, p)
	}
	return &domain.TrafficFlow{CurrentSpeed: 50, FreeFlowSpeed: 50}, nil
}

type mockPlaces struct {
	geocodeFn    func(ctx context.Context, address string) (domain.GeoPoint, error)
	nearbyFn     func(ctx context.Context, at domain.GeoPoint, radius uint, placeType string) ([]domain.Place, error)
	directionsFn func(ctx context.Context, from, to domain.GeoPoint) ([]domain.DrivingRoute, error)
}

func (m *mockPlaces) Geocode(ctx context.Context, address string) (domain.GeoPoint, error) {
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, address)
	}
	return domain.GeoPoint{Lat: 33.749, Lon: -84.388}, nil
}
func (m *mockPlaces) Nearby(ctx context.Context, at domain.GeoPoint, radius uint, placeType string) ([]domain.Place, error) {
	if m.nearbyFn != nil {
		return m.nearbyFn(ctx, at, radius, placeType)
	}
	return nil, nil
}
func (m *mockPlaces) Directions(ctx context.Context, from, to domain.GeoPoint) ([]domain.DrivingRoute, error) {
	if m.directionsFn != nil {
		return m.directionsFn(ctx, from, to)
	}
	return nil, nil
}
func (m *mockPlaces) SnapToRoads(ctx context.Context, path []domain.GeoPoint) ([]domain.GeoPoint, error) {
	return path, nil
}

type mockSource struct{}

func (mockSource) ReadFires(ctx context.Context, path string) ([]domain.RawFireRow, error) {
	return nil, nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func firePoint(date string, lat, lon float64) domain.FirePoint {
	p := domain.FirePoint{
		AcqDateRaw: date,
		Latitude:   lat,
		Longitude:  lon,
		Brightness: 320,
		FRP:        12,
		Geometry:   domain.GeoPoint{Lat: lat, Lon: lon},
	}
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return p
	}
	y, m := d.Year(), int(d.Month())
	s, _ := domain.SeasonForMonth(m)
	p.AcqDate, p.Year, p.Month, p.Season = &d, &y, &m, &s
	return p
}

func fireService(rows ...domain.FirePoint) *usecases.FireService {
	table := &domain.FireTable{Source: "fires.parquet", Rows: rows}
	loader := &mockLoader{loadFn: func(ctx context.Context, path string) (*domain.FireTable, error) {
		return table, nil
	}}
	regions := []domain.Region{
		{Name: "West", Bounds: domain.Bounds{MinLat: 24, MinLon: -125, MaxLat: 50, MaxLon: -104}},
	}
	return usecases.NewFireService(loader, "fires.parquet", regions)
}

func sampleRows() []domain.FirePoint {
	return []domain.FirePoint{
		firePoint("2019-07-01", 35, -118),
		firePoint("2019-08-02", 36, -117),
		firePoint("2020-07-15", 37, -119),
		firePoint("2020-07-16", 38, -120),
		firePoint("2020-12-24", 34, -110),
	}
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Fires: fireService(sampleRows()...),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func get(t *testing.T, app *fiber.App, target string) (int, string, map[string][]string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil), -1)
	if err != nil {
		t.Fatalf("request %s: %v", target, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(b), resp.Header
}

func decodeError(t *testing.T, body string) handler.APIError {
	t.Helper()
	var e handler.APIError
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	return e
}

// ---- Fire endpoints ----

func TestFireSummary_Success(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/fires/summary")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var sum domain.DatasetSummary
	require.NoError(t, json.Unmarshal([]byte(body), &sum))
	assert.Equal(t, 5, sum.Rows)
	assert.Equal(t, []int{2019, 2020}, sum.Years)
	require.NotNil(t, sum.FirstDate)
	assert.Equal(t, "2019-07-01", sum.FirstDate.Format(time.DateOnly))
}

func TestFireSummary_DatasetUnavailable(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		loader := &mockLoader{loadFn: func(ctx context.Context, path string) (*domain.FireTable, error) {
			return nil, &domain.FileAccessError{Path: path, Err: fs.ErrNotExist}
		}}
		d.Fires = usecases.NewFireService(loader, "missing.parquet", nil)
	})
	app := setupApp(deps)

	status, body, _ := get(t, app, "/v1/fires/summary")
	if status != 503 {
		t.Fatalf("expected 503, got %d", status)
	}
	e := decodeError(t, body)
	assert.Equal(t, "dataset_unavailable", e.Code)
	assert.NotContains(t, e.Message, "missing.parquet")
}

func TestYearlyCounts_Success(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, header := get(t, app, "/v1/fires/yearly")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var counts []domain.CountPoint
	require.NoError(t, json.Unmarshal([]byte(body), &counts))
	assert.Equal(t, []domain.CountPoint{{Key: 2019, Count: 2}, {Key: 2020, Count: 3}}, counts)
	assert.Equal(t, "public, max-age=3600", header["Cache-Control"][0])
}

func TestSeasonalCounts_CalendarOrder(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/fires/seasonal")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var counts []domain.SeasonCount
	require.NoError(t, json.Unmarshal([]byte(body), &counts))
	require.NotEmpty(t, counts)
	assert.Equal(t, domain.Winter, counts[0].Season)
}

func TestMonthDetail(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/fires/month?year=2020&month=7")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var result struct {
		Year  int                `json:"year"`
		Month int                `json:"month"`
		Days  []domain.DateCount `json:"days"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &result))
	assert.Equal(t, 2020, result.Year)
	assert.Len(t, result.Days, 2)

	status, body, _ = get(t, app, "/v1/fires/month?year=2020&month=13")
	if status != 400 {
		t.Fatalf("expected 400 for month 13, got %d", status)
	}
	assert.Equal(t, "bad_request", decodeError(t, body).Code)
}

func TestCompareYears(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/fires/compare?years=2020,2019")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var cmp []domain.YearComparison
	require.NoError(t, json.Unmarshal([]byte(body), &cmp))
	require.Len(t, cmp, 2)
	assert.Equal(t, 2020, cmp[0].Year)
	assert.Equal(t, 2, cmp[0].Counts[6])
	assert.Equal(t, 1, cmp[0].Counts[11])

	status, _, _ = get(t, app, "/v1/fires/compare?years=20x0")
	if status != 400 {
		t.Errorf("expected 400 for a malformed year, got %d", status)
	}
	status, _, _ = get(t, app, "/v1/fires/compare")
	if status != 400 {
		t.Errorf("expected 400 without years, got %d", status)
	}
}

func TestHistograms_BadBins(t *testing.T) {
	app := setupApp(makeDeps())

	for _, bins := range []string{"0", "500"} {
		status, _, _ := get(t, app, "/v1/fires/histograms?bins="+bins)
		if status != 400 {
			t.Errorf("bins=%s: expected 400, got %d", bins, status)
		}
	}
}

func TestForecast_StepsOutOfRange(t *testing.T) {
	app := setupApp(makeDeps())

	status, _, _ := get(t, app, "/v1/fires/forecast?steps=0")
	if status != 400 {
		t.Errorf("expected 400, got %d", status)
	}
}

func TestPoints_PaginationKeepsFilters(t *testing.T) {
	rows := make([]domain.FirePoint, 7)
	for i := range rows {
		rows[i] = firePoint(fmt.Sprintf("2020-07-%02d", i+1), 35, -118)
	}
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Fires = fireService(append(rows, firePoint("2019-01-01", 35, -118))...)
	}))

	status, body, header := get(t, app, "/v1/fires/points?year=2020&offset=2&limit=2")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var result struct {
		Data       []domain.FirePoint `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &result))
	assert.Len(t, result.Data, 2)
	assert.Equal(t, handler.Pagination{Offset: 2, Limit: 2, Total: 7}, result.Pagination)
	assert.Equal(t, "2020-07-03", result.Data[0].AcqDateRaw)

	link := strings.Join(header["Link"], ", ")
	for _, rel := range []string{`rel="first"`, `rel="prev"`, `rel="next"`, `rel="last"`} {
		if !strings.Contains(link, rel) {
			t.Errorf("expected %s in Link header, got %s", rel, link)
		}
	}
	if !strings.Contains(link, "year=2020") {
		t.Errorf("expected filters kept in Link header, got %s", link)
	}
}

func TestPoints_BadSeason(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/fires/points?season=Monsoon")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	assert.Contains(t, decodeError(t, body).Message, "season")
}

// ---- Provider endpoints ----

func TestProviders_NotConfigured(t *testing.T) {
	app := setupApp(makeDeps())

	for _, target := range []string{
		"/v1/weather/analysis",
		"/v1/routes/traffic?from=a&to=b",
		"/v1/places/nearest?address=a&type=hospital",
	} {
		status, body, _ := get(t, app, target)
		if status != 503 {
			t.Errorf("%s: expected 503, got %d", target, status)
			continue
		}
		assert.Equal(t, "provider_unavailable", decodeError(t, body).Code, target)
	}
}

func TestWeatherAnalysis_PartialFailure(t *testing.T) {
	weather := &mockWeather{timelineFn: func(ctx context.Context, location string, start, end time.Time) ([]domain.WeatherDay, error) {
		if location == "Dallas, TX" {
			return nil, &domain.ProviderError{Provider: "weather", Op: "timeline", StatusCode: 500, Err: errors.New("boom")}
		}
		return []domain.WeatherDay{
			{Date: start, TempMax: 30, TempMin: 20, Temp: 25, Humidity: 60},
			{Date: start.AddDate(0, 0, 1), TempMax: 32, TempMin: 21, Temp: 26, Humidity: 55},
		}, nil
	}}
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Weather = usecases.NewWeatherService(weather, nil, nil, 0)
	}))

	status, body, _ := get(t, app, "/v1/weather/analysis?location=Atlanta,+GA&location=Dallas,+TX&start=2024-08-01&end=2024-08-02")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var a domain.WeatherAnalysis
	require.NoError(t, json.Unmarshal([]byte(body), &a))
	assert.Equal(t, []string{"Dallas, TX"}, a.FailedLocations)
	require.Len(t, a.TempTrend, 1)
	assert.Equal(t, "Atlanta, GA", a.TempTrend[0].Location)
}

func TestWeatherAnalysis_AllFail(t *testing.T) {
	weather := &mockWeather{timelineFn: func(ctx context.Context, location string, start, end time.Time) ([]domain.WeatherDay, error) {
		return nil, &domain.ProviderError{Provider: "weather", Op: "timeline", StatusCode: 401, Err: errors.New("unauthorized")}
	}}
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Weather = usecases.NewWeatherService(weather, nil, nil, 0)
	}))

	status, body, _ := get(t, app, "/v1/weather/analysis?location=Atlanta,+GA")
	if status != 502 {
		t.Fatalf("expected 502, got %d", status)
	}
	assert.Equal(t, "upstream_error", decodeError(t, body).Code)
}

func TestWeatherAnalysis_BadDate(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Weather = usecases.NewWeatherService(&mockWeather{}, nil, nil, 0)
	}))

	status, _, _ := get(t, app, "/v1/weather/analysis?start=08/01/2024")
	if status != 400 {
		t.Errorf("expected 400, got %d", status)
	}
}

func routingDeps(d *handler.Dependencies) {
	provider := &mockRouting{
		geocodeFn: func(ctx context.Context, address string) (domain.GeoPoint, error) {
			if address == "Atlanta" {
				return domain.GeoPoint{Lat: 33.749, Lon: -84.388}, nil
			}
			return domain.GeoPoint{Lat: 33.95, Lon: -83.357}, nil
		},
		routesFn: func(ctx context.Context, from, to domain.GeoPoint, opts domain.RouteOptions) ([]domain.ProviderRoute, error) {
			return []domain.ProviderRoute{{
				ArrivalTime:       "2024-08-01T10:00:00",
				TravelTimeSeconds: 3600,
				LengthMeters:      110000,
				Points:            []domain.GeoPoint{from, {Lat: 33.85, Lon: -83.9}, to},
			}}, nil
		},
	}
	d.Routing = usecases.NewRoutingService(provider, nil, 0)
}

func TestTrafficRoute_JSONAndGeoJSON(t *testing.T) {
	app := setupApp(makeDeps(routingDeps))

	status, body, header := get(t, app, "/v1/routes/traffic?from=Atlanta&to=Athens")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var plan domain.RoutePlan
	require.NoError(t, json.Unmarshal([]byte(body), &plan))
	require.Len(t, plan.Routes, 1)
	assert.Len(t, plan.Routes[0].Segments, 2)
	assert.Equal(t, domain.TrafficGreen, plan.Routes[0].Segments[0].Color)
	assert.Equal(t, "no-store", header["Cache-Control"][0])

	status, body, _ = get(t, app, "/v1/routes/traffic?from=Atlanta&to=Athens&format=geojson")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 4)
}

func TestTrafficRoute_Validation(t *testing.T) {
	app := setupApp(makeDeps(routingDeps))

	for _, target := range []string{
		"/v1/routes/traffic?to=Athens",
		"/v1/routes/traffic?from=Atlanta&to=Athens&travel_mode=boat",
	} {
		status, _, _ := get(t, app, target)
		if status != 400 {
			t.Errorf("%s: expected 400, got %d", target, status)
		}
	}
}

func TestNearestPlace(t *testing.T) {
	places := &mockPlaces{
		nearbyFn: func(ctx context.Context, at domain.GeoPoint, radius uint, placeType string) ([]domain.Place, error) {
			if placeType == "church" {
				return nil, nil
			}
			return []domain.Place{{Name: "Grady", Address: "80 Jesse Hill Jr Dr SE", Location: domain.GeoPoint{Lat: 33.752, Lon: -84.381}}}, nil
		},
		directionsFn: func(ctx context.Context, from, to domain.GeoPoint) ([]domain.DrivingRoute, error) {
			return []domain.DrivingRoute{{
				Distance: "1.6 km",
				Duration: 4 * time.Minute,
				Path:     domain.GeoLineString{Coordinates: []domain.GeoPoint{from, to}},
			}}, nil
		},
	}
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Places = usecases.NewPlacesService(places)
	}))

	status, body, _ := get(t, app, "/v1/places/nearest?address=Atlanta&type=hospital")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var pr domain.PlaceRoutes
	require.NoError(t, json.Unmarshal([]byte(body), &pr))
	assert.Equal(t, "Grady", pr.Place.Name)
	require.Len(t, pr.Routes, 1)
	assert.True(t, pr.Routes[0].Snapped)

	status, body, _ = get(t, app, "/v1/places/nearest?address=Atlanta&type=church")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
	assert.Equal(t, "not_found", decodeError(t, body).Code)

	status, _, _ = get(t, app, "/v1/places/nearest?address=Atlanta&type=casino")
	if status != 400 {
		t.Errorf("expected 400 for unknown type, got %d", status)
	}
}

// ---- Pages ----

func TestPages_Render(t *testing.T) {
	app := setupApp(makeDeps())

	tests := []struct {
		target string
		want   string
	}{
		{"/", `href="/page3"`},
		{"/page1", "Traffic Routing"},
		{"/page2", "hospital"},
		{"/page3", "5 detections"},
		{"/sub_page1a", "Atlanta, GA"},
		{"/sub_page3a", "/sub_page3a/spatial.png"},
		{"/sub_page3b?year=2020&month=7", "/sub_page3b/charts?year=2020"},
		{"/no/such/page", "Welcome to my Dashboard"},
	}
	for _, tt := range tests {
		status, body, header := get(t, app, tt.target)
		if status != 200 {
			t.Errorf("%s: expected 200, got %d", tt.target, status)
			continue
		}
		assert.Contains(t, header["Content-Type"][0], "text/html", tt.target)
		assert.Contains(t, body, "Unlimited Analysis", tt.target)
		assert.Contains(t, body, tt.want, tt.target)
	}
}

func TestPages_FrameOnlyWhenQueried(t *testing.T) {
	app := setupApp(makeDeps())

	_, body, _ := get(t, app, "/page1")
	assert.NotContains(t, body, "<iframe")

	_, body, _ = get(t, app, "/page1?from=Atlanta&to=Athens")
	assert.Contains(t, body, "/page1/map?")
}

func TestFireCharts(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/sub_page3a/charts")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	assert.Contains(t, body, "Fire Detections Summary")
	assert.Contains(t, body, "echarts")

	status, body, _ = get(t, app, "/sub_page3b/charts?year=2020&month=7&years=2019,2020")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	assert.Contains(t, body, "Fire Occurrences for 2020-07")
}

func TestSpatialDensity_PNG(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, header := get(t, app, "/sub_page3a/spatial.png")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	assert.Equal(t, "image/png", header["Content-Type"][0])
	assert.True(t, strings.HasPrefix(body, "\x89PNG"))
}

func TestChartPages_ProviderNotConfigured(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/page1/map?from=a&to=b")
	if status != 503 {
		t.Fatalf("expected 503, got %d", status)
	}
	assert.Contains(t, body, "provider_unavailable")
}

// ---- System ----

func TestUnknownAPIPath_JSON404(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/nope")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
	assert.Equal(t, "not_found", decodeError(t, body).Code)
}

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	status, body, _ := get(t, app, "/v1/health")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	assert.Contains(t, body, `"healthy"`)
}

func TestReady(t *testing.T) {
	app := setupApp(makeDeps())
	status, _, _ := get(t, app, "/v1/ready")
	if status != 503 {
		t.Errorf("expected 503 without a loader, got %d", status)
	}

	app = setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Loader = dataset.NewLoader(mockSource{}, nil)
	}))
	status, body, _ := get(t, app, "/v1/ready")
	if status != 200 {
		t.Fatalf("expected 200 while the dataset is pending, got %d: %s", status, body)
	}
	var result struct {
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &result))
	assert.Equal(t, "pending", result.Checks["dataset"])
	assert.Equal(t, "not configured", result.Checks["weather"])
}

func TestReady_FailedDatasetLoad(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.parquet")
	loader := dataset.NewLoader(parquet.NewSource(0), nil)
	_, err := loader.Load(context.Background(), missing)
	require.Error(t, err)

	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.Loader = loader
	}))
	status, body, _ := get(t, app, "/v1/ready")
	if status != 503 {
		t.Fatalf("expected 503 after a failed load, got %d: %s", status, body)
	}
	var result struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &result))
	assert.Equal(t, "not ready", result.Status)
	assert.True(t, strings.HasPrefix(result.Checks["dataset"], "error: "), result.Checks["dataset"])
	assert.Contains(t, result.Checks["dataset"], "absent.parquet")
}

func TestSecurityHeaders(t *testing.T) {
	app := setupApp(makeDeps())

	_, _, header := get(t, app, "/v1/health")
	assert.Equal(t, "1.0.0", header["X-Api-Version"][0])
	assert.Equal(t, "SAMEORIGIN", header["X-Frame-Options"][0])
}

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps())

	_, _, header := get(t, app, "/v1/fires/yearly")
	etag := header["Etag"]
	require.NotEmpty(t, etag)

	req := httptest.NewRequest("GET", "/v1/fires/yearly", nil)
	req.Header.Set("If-None-Match", etag[0])
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 304, resp.StatusCode)
}

func TestGraphQL_YearlyCounts(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(`{"query":"{ yearlyCounts { key count } seasonalCounts { season count } }"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var result struct {
		Data struct {
			YearlyCounts []struct {
				Key   int `json:"key"`
				Count int `json:"count"`
			} `json:"yearlyCounts"`
			SeasonalCounts []struct {
				Season string `json:"season"`
			} `json:"seasonalCounts"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Empty(t, result.Errors)
	require.Len(t, result.Data.YearlyCounts, 2)
	assert.Equal(t, 2019, result.Data.YearlyCounts[0].Key)
	require.NotEmpty(t, result.Data.SeasonalCounts)
	assert.Equal(t, "Winter", result.Data.SeasonalCounts[0].Season)
}

func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(handler.AccessLogMiddleware())
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
