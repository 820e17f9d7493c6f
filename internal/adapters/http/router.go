package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/hazardboard/internal/pkg/metrics"
)

// Upstream providers can be slow; fire endpoints only read the cached table.
const (
	fireTimeout     = 15 * time.Second
	providerTimeout = 45 * time.Second
)

// SetupRoutes registers the dashboard pages and the REST, GraphQL and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, 429, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Pages embed their own chart endpoints, so framing is same-origin only.
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "SAMEORIGIN")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	fires := v1.Group("/fires")
	fires.Get("/summary", timeout.NewWithContext(FireSummaryHandler(deps), fireTimeout))
	fires.Get("/yearly", timeout.NewWithContext(YearlyCountsHandler(deps), fireTimeout))
	fires.Get("/monthly", timeout.NewWithContext(MonthlyCountsHandler(deps), fireTimeout))
	fires.Get("/daily", timeout.NewWithContext(DailySeriesHandler(deps), fireTimeout))
	fires.Get("/seasonal", timeout.NewWithContext(SeasonalCountsHandler(deps), fireTimeout))
	fires.Get("/trend", timeout.NewWithContext(TrendHandler(deps), fireTimeout))
	fires.Get("/forecast", timeout.NewWithContext(ForecastHandler(deps), fireTimeout))
	fires.Get("/month", timeout.NewWithContext(MonthDetailHandler(deps), fireTimeout))
	fires.Get("/compare", timeout.NewWithContext(CompareYearsHandler(deps), fireTimeout))
	fires.Get("/histograms", timeout.NewWithContext(HistogramsHandler(deps), fireTimeout))
	fires.Get("/regions", timeout.NewWithContext(RegionsHandler(deps), fireTimeout))
	fires.Get("/points", timeout.NewWithContext(PointsHandler(deps), fireTimeout))

	v1.Get("/weather/analysis", timeout.NewWithContext(WeatherAnalysisHandler(deps), providerTimeout))
	v1.Get("/routes/traffic", timeout.NewWithContext(TrafficRouteHandler(deps), providerTimeout))
	v1.Get("/places/nearest", timeout.NewWithContext(NearestPlaceHandler(deps), providerTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}

	// Dashboard pages
	app.Get("/", HomeHandler(deps))
	app.Get("/page1", TrafficPageHandler(deps))
	app.Get("/page1/map", timeout.NewWithContext(TrafficMapHandler(deps), providerTimeout))
	app.Get("/page2", PlacesPageHandler(deps))
	app.Get("/page2/map", timeout.NewWithContext(PlacesMapHandler(deps), providerTimeout))
	app.Get("/page3", FireOverviewHandler(deps))
	app.Get("/sub_page1a", WeatherPageHandler(deps))
	app.Get("/sub_page1a/charts", timeout.NewWithContext(WeatherChartsHandler(deps), providerTimeout))
	app.Get("/sub_page3a", FireSummaryPageHandler(deps))
	app.Get("/sub_page3a/charts", timeout.NewWithContext(FireChartsHandler(deps), fireTimeout))
	app.Get("/sub_page3a/spatial.png", timeout.NewWithContext(SpatialDensityHandler(deps), fireTimeout))
	app.Get("/sub_page3b", MonthPageHandler(deps))
	app.Get("/sub_page3b/charts", timeout.NewWithContext(MonthChartsHandler(deps), fireTimeout))

	// Unknown API paths are JSON 404s; any other path shows the home page.
	home := HomeHandler(deps)
	app.Use(func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/v1/") {
			return errNotFound(c, "no route for "+c.Method()+" "+c.Path())
		}
		return home(c)
	})
}
