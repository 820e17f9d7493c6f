package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/core/usecases"
)

// Weather page defaults.
var (
	defaultWeatherStart = time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	defaultWeatherEnd   = time.Date(2024, 8, 6, 0, 0, 0, 0, time.UTC)
	defaultLocations    = []string{"Atlanta, GA"}
)

// FireSummaryHandler describes the loaded dataset.
func FireSummaryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sum, err := deps.Fires.Summary(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(sum)
	}
}

// YearlyCountsHandler returns fires per year.
func YearlyCountsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		counts, err := deps.Fires.YearlyCounts(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(counts)
	}
}

// MonthlyCountsHandler returns fires per calendar month across all years.
func MonthlyCountsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		counts, err := deps.Fires.MonthlyCounts(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(counts)
	}
}

// DailySeriesHandler returns fires per acquisition date.
func DailySeriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		series, err := deps.Fires.DailySeries(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(series)
	}
}

// SeasonalCountsHandler returns fires per season.
func SeasonalCountsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		counts, err := deps.Fires.SeasonalCounts(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(counts)
	}
}

// TrendHandler returns the monthly series with rolling mean and regression line.
func TrendHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trend, err := deps.Fires.Trend(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(trend)
	}
}

// ForecastHandler projects the monthly series ?steps months ahead (default 12).
func ForecastHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := deps.Fires.Forecast(c.UserContext(), c.QueryInt("steps", 12))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(f)
	}
}

// MonthDetailHandler returns daily counts for ?year and ?month.
func MonthDetailHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, month := c.QueryInt("year", 0), c.QueryInt("month", 0)
		days, err := deps.Fires.MonthDetail(c.UserContext(), year, month)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"year": year, "month": month, "days": days})
	}
}

// CompareYearsHandler returns monthly counts for ?years=2019,2020.
func CompareYearsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		years, err := parseYears(c.Query("years"))
		if err != nil {
			return errFromDomain(c, err)
		}
		cmp, err := deps.Fires.CompareYears(c.UserContext(), years)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(cmp)
	}
}

// HistogramsHandler bins brightness and FRP into ?bins buckets.
func HistogramsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bins := c.QueryInt("bins", usecases.DefaultHistogramBins)
		if bins <= 0 || bins > 200 {
			return errBadRequest(c, "bins must be between 1 and 200")
		}
		h, err := deps.Fires.IntensityHistograms(c.UserContext(), bins)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(h)
	}
}

// RegionsHandler compares fire activity across the configured regions.
func RegionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		regions, err := deps.Fires.Regions(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(regions)
	}
}

// PointsHandler pages through detections filtered by ?year, ?month and ?season.
func PointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := domain.PointFilter{
			Year:  c.QueryInt("year", 0),
			Month: c.QueryInt("month", 0),
		}
		if s := c.Query("season"); s != "" {
			season, ok := domain.ParseSeason(s)
			if !ok {
				return errBadRequest(c, "season must be one of Winter, Spring, Summer, Fall")
			}
			filter.Season = season
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 1000 {
			limit = 100
		}

		points, total, err := deps.Fires.Points(c.UserContext(), filter, offset, limit)
		if err != nil {
			return errFromDomain(c, err)
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: points, Pagination: pg})
	}
}

// WeatherAnalysisHandler compares daily weather across ?location values.
func WeatherAnalysisHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Weather == nil {
			return errUnavailable(c, "provider_unavailable", "weather provider is not configured")
		}
		q, err := weatherQuery(c)
		if err != nil {
			return errFromDomain(c, err)
		}
		a, err := deps.Weather.Analyze(c.UserContext(), q)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(a)
	}
}

// TrafficRouteHandler plans routes between ?from and ?to coloured by live traffic.
// ?format=geojson returns a FeatureCollection.
func TrafficRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Routing == nil {
			return errUnavailable(c, "provider_unavailable", "routing provider is not configured")
		}
		plan, err := deps.Routing.Plan(c.UserContext(), routeQuery(c))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "no-store")
		if c.Query("format") == "geojson" {
			return c.JSON(usecases.RoutePlanFeatures(plan))
		}
		return c.JSON(plan)
	}
}

// NearestPlaceHandler routes from ?address to the nearest place of ?type.
// ?format=geojson returns a FeatureCollection.
func NearestPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Places == nil {
			return errUnavailable(c, "provider_unavailable", "places provider is not configured")
		}
		pr, err := deps.Places.NearestRoute(c.UserContext(), c.Query("address"), c.Query("type"))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "no-store")
		if c.Query("format") == "geojson" {
			return c.JSON(usecases.PlaceRoutesFeatures(pr))
		}
		return c.JSON(pr)
	}
}

// weatherQuery reads repeated ?location values, ?start, ?end, ?temp_type and ?corr_type.
func weatherQuery(c *fiber.Ctx) (domain.WeatherQuery, error) {
	q := domain.WeatherQuery{
		Start:    defaultWeatherStart,
		End:      defaultWeatherEnd,
		TempType: c.Query("temp_type", usecases.DefaultTempType),
		CorrType: c.Query("corr_type", usecases.DefaultCorrType),
	}
	for _, v := range c.Context().QueryArgs().PeekMulti("location") {
		if loc := strings.TrimSpace(string(v)); loc != "" {
			q.Locations = append(q.Locations, loc)
		}
	}
	if len(q.Locations) == 0 {
		q.Locations = defaultLocations
	}

	var err error
	if s := c.Query("start"); s != "" {
		if q.Start, err = time.Parse(time.DateOnly, s); err != nil {
			return q, domain.Invalid("start", "must be YYYY-MM-DD, got %q", s)
		}
	}
	if s := c.Query("end"); s != "" {
		if q.End, err = time.Parse(time.DateOnly, s); err != nil {
			return q, domain.Invalid("end", "must be YYYY-MM-DD, got %q", s)
		}
	}
	return q, nil
}

func routeQuery(c *fiber.Ctx) domain.RouteQuery {
	return domain.RouteQuery{
		From:              c.Query("from"),
		To:                c.Query("to"),
		RouteType:         c.Query("route_type"),
		Traffic:           c.Query("traffic"),
		TravelMode:        c.Query("travel_mode"),
		Avoid:             c.Query("avoid"),
		DepartAt:          c.Query("depart_at"),
		VehicleCommercial: c.QueryBool("vehicle_commercial", false),
	}
}

// parseYears reads a comma-separated list of years.
func parseYears(s string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil || y <= 0 {
			return nil, domain.Invalid("years", "invalid year %q", part)
		}
		years = append(years, y)
	}
	return years, nil
}
