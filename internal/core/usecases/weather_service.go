package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/core/ports"
	"github.com/samirrijal/hazardboard/internal/pkg/metrics"
	"github.com/samirrijal/hazardboard/internal/pkg/telemetry"
)

const (
	// MaxWeatherLocations bounds a single weather query.
	MaxWeatherLocations = 10

	// DefaultTempType and DefaultCorrType apply when a query leaves them empty.
	DefaultTempType = "temp"
	DefaultCorrType = "humidity"
)

// WeatherLocations are the cities offered by the weather page.
var WeatherLocations = []string{
	"Atlanta, GA", "New York, NY", "Los Angeles, CA", "Chicago, IL", "Houston, TX",
	"Phoenix, AZ", "Philadelphia, PA", "San Antonio, TX", "San Diego, CA", "Dallas, TX",
}

var (
	tempTypes = map[string]bool{"tempmax": true, "tempmin": true, "temp": true}
	corrTypes = map[string]bool{"humidity": true, "windspeed": true, "precip": true, "solarradiation": true}
)

// WeatherService compares daily weather across locations.
type WeatherService struct {
	provider ports.WeatherProvider
	cache    ports.CacheService
	events   ports.EventPublisher
	ttl      int
}

// NewWeatherService creates a WeatherService. cache and events may be nil.
func NewWeatherService(provider ports.WeatherProvider, cache ports.CacheService, events ports.EventPublisher, ttlSeconds int) *WeatherService {
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}
	return &WeatherService{provider: provider, cache: cache, events: events, ttl: ttlSeconds}
}

// Analyze fetches every location in q and derives the trend, correlation and
// seasonal views. Locations that fail are listed in FailedLocations; the
// call fails only when every location fails.
func (s *WeatherService) Analyze(ctx context.Context, q domain.WeatherQuery) (*domain.WeatherAnalysis, error) {
	q, err := normalizeWeatherQuery(q)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanWeatherAnalysis)
	defer span.End()
	span.SetAttributes(attribute.Int("weather.locations", len(q.Locations)))

	perLocation := make([][]domain.WeatherDay, len(q.Locations))
	errs := make([]error, len(q.Locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, loc := range q.Locations {
		g.Go(func() error {
			perLocation[i], errs[i] = s.timeline(gctx, loc, q.Start, q.End)
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	out := &domain.WeatherAnalysis{Query: q}
	var days []domain.WeatherDay
	var firstErr error
	for i, loc := range q.Locations {
		if errs[i] != nil {
			slog.Warn("weather location failed", "location", loc, "error", errs[i])
			out.FailedLocations = append(out.FailedLocations, loc)
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		days = append(days, perLocation[i]...)
	}
	if len(out.FailedLocations) == len(q.Locations) {
		return nil, firstErr
	}

	analyzeWeather(out, days)
	s.publishAnalyzed(ctx, out)
	return out, nil
}

func normalizeWeatherQuery(q domain.WeatherQuery) (domain.WeatherQuery, error) {
	if len(q.Locations) == 0 {
		return q, domain.Invalid("locations", "at least one location is required")
	}
	if len(q.Locations) > MaxWeatherLocations {
		return q, domain.Invalid("locations", "at most %d locations, got %d", MaxWeatherLocations, len(q.Locations))
	}
	seen := make(map[string]bool, len(q.Locations))
	locs := make([]string, 0, len(q.Locations))
	for _, l := range q.Locations {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		locs = append(locs, l)
	}
	if len(locs) == 0 {
		return q, domain.Invalid("locations", "at least one location is required")
	}
	q.Locations = locs

	if q.Start.IsZero() || q.End.IsZero() {
		return q, domain.Invalid("start", "start and end dates are required")
	}
	if q.End.Before(q.Start) {
		return q, domain.Invalid("end", "must not be before start")
	}
	if q.TempType == "" {
		q.TempType = DefaultTempType
	}
	if q.CorrType == "" {
		q.CorrType = DefaultCorrType
	}
	if !tempTypes[q.TempType] {
		return q, domain.Invalid("temp_type", "must be one of tempmax, tempmin, temp")
	}
	if !corrTypes[q.CorrType] {
		return q, domain.Invalid("corr_type", "must be one of humidity, windspeed, precip, solarradiation")
	}
	return q, nil
}

// timeline reads one location through the cache.
func (s *WeatherService) timeline(ctx context.Context, location string, start, end time.Time) ([]domain.WeatherDay, error) {
	cacheKey := fmt.Sprintf("weather:timeline:%s:%s:%s", location, start.Format(time.DateOnly), end.Format(time.DateOnly))
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var days []domain.WeatherDay
			if err := json.Unmarshal(data, &days); err == nil {
				metrics.CacheHits.WithLabelValues("weather").Inc()
				return days, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("weather").Inc()
	}

	days, err := s.provider.DailyTimeline(ctx, location, start, end)
	if err != nil {
		return nil, err
	}
	for i := range days {
		days[i].Location = location
	}

	if s.cache != nil {
		if data, err := json.Marshal(days); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.ttl)
		}
	}
	return days, nil
}

func (s *WeatherService) publishAnalyzed(ctx context.Context, a *domain.WeatherAnalysis) {
	if s.events == nil {
		return
	}
	ev := &domain.DashboardEvent{
		Type:      domain.EventWeatherAnalyzed,
		Timestamp: time.Now().UTC(),
		Data: map[string]any{
			"locations": a.Query.Locations,
			"start":     a.Query.Start.Format(time.DateOnly),
			"end":       a.Query.End.Format(time.DateOnly),
			"failed":    len(a.FailedLocations),
		},
	}
	if err := s.events.PublishEvent(ctx, domain.EventWeatherAnalyzed, ev); err != nil {
		slog.Warn("publish weather event", "error", err)
	}
}

// analyzeWeather fills the derived views of a from days, which are grouped
// by location in query order.
func analyzeWeather(a *domain.WeatherAnalysis, days []domain.WeatherDay) {
	q := a.Query
	a.TempTrend = locationSeries(q.Locations, days, q.TempType)
	a.VariationTrend = locationSeries(q.Locations, days, "temp_variation")
	a.SolarTrend = locationSeries(q.Locations, days, "solarradiation")
	a.SeasonalTemp = seasonalMeans(q.Locations, days, q.TempType)
	a.SeasonalVariation = seasonalMeans(q.Locations, days, "temp_variation")
	a.SeasonalSolar = seasonalMeans(q.Locations, days, "solarradiation")

	for _, loc := range q.Locations {
		var sc domain.LocationScatter
		sum, n := 0.0, 0
		for _, d := range days {
			if d.Location != loc {
				continue
			}
			y, _ := d.Metric(q.CorrType)
			sc.Points = append(sc.Points, domain.ScatterPoint{X: d.Temp, Y: y})
			v, _ := d.Metric(q.TempType)
			sum += v
			n++
		}
		if n == 0 {
			continue
		}
		sc.Location = loc
		a.Correlation = append(a.Correlation, sc)
		a.AvgTempByLocation = append(a.AvgTempByLocation, domain.LocationMean{Location: loc, Mean: sum / float64(n)})
	}
}

func locationSeries(locations []string, days []domain.WeatherDay, metric string) []domain.LocationSeries {
	var out []domain.LocationSeries
	for _, loc := range locations {
		ls := domain.LocationSeries{Location: loc}
		for _, d := range days {
			if d.Location != loc {
				continue
			}
			v, _ := d.Metric(metric)
			ls.Points = append(ls.Points, domain.SeriesPoint{Date: d.Date, Value: v})
		}
		if len(ls.Points) > 0 {
			out = append(out, ls)
		}
	}
	return out
}

// seasonalMeans averages metric per (season, location), seasons in calendar
// order and locations in query order. Empty groups are omitted.
func seasonalMeans(locations []string, days []domain.WeatherDay, metric string) []domain.SeasonalMean {
	type key struct {
		season   domain.Season
		location string
	}
	type acc struct {
		sum float64
		n   int
	}
	groups := make(map[key]*acc)
	for _, d := range days {
		season, err := domain.SeasonForMonth(int(d.Date.Month()))
		if err != nil {
			continue
		}
		k := key{season, d.Location}
		g := groups[k]
		if g == nil {
			g = &acc{}
			groups[k] = g
		}
		v, _ := d.Metric(metric)
		g.sum += v
		g.n++
	}

	var out []domain.SeasonalMean
	for _, season := range domain.Seasons {
		for _, loc := range locations {
			if g := groups[key{season, loc}]; g != nil {
				out = append(out, domain.SeasonalMean{Season: season, Location: loc, Mean: g.sum / float64(g.n)})
			}
		}
	}
	return out
}
