package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/hazardboard/internal/adapters/googlemaps"
	"github.com/samirrijal/hazardboard/internal/adapters/http"
	natsadapter "github.com/samirrijal/hazardboard/internal/adapters/nats"
	"github.com/samirrijal/hazardboard/internal/adapters/parquet"
	"github.com/samirrijal/hazardboard/internal/adapters/sqlite"
	"github.com/samirrijal/hazardboard/internal/adapters/tomtom"
	"github.com/samirrijal/hazardboard/internal/adapters/valkey"
	"github.com/samirrijal/hazardboard/internal/adapters/weather"
	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/core/ports"
	"github.com/samirrijal/hazardboard/internal/core/usecases"
	"github.com/samirrijal/hazardboard/internal/dataset"
	"github.com/samirrijal/hazardboard/internal/pkg/config"
	"github.com/samirrijal/hazardboard/internal/pkg/logging"
	"github.com/samirrijal/hazardboard/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("hazardboard")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format, "hazardboard")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Cache and events are optional; services take nil interfaces.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for the WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	var source ports.FireSource
	switch cfg.Dataset.Format {
	case config.FormatSQLite:
		source = sqlite.NewSource()
	default:
		source = parquet.NewSource(cfg.Dataset.BatchSize)
	}
	loader := dataset.NewLoader(source, events)

	deps := &http.Dependencies{
		Fires:  usecases.NewFireService(loader, cfg.Dataset.Path, regions(cfg.Regions)),
		Loader: loader,
		NATS:   natsConn,
		Cache:  cache,
	}
	wireProviders(cfg, deps, cacheSvc, events)

	// Warm the dataset slot; requests arriving first share the same load.
	go func() {
		if _, err := loader.Load(ctx, cfg.Dataset.Path); err != nil {
			slog.Error("initial dataset load failed", "path", cfg.Dataset.Path, "error", err)
		}
	}()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024,
		AppName:      "Hazardboard",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("dashboard starting", "addr", addr, "dataset", cfg.Dataset.Path, "format", cfg.Dataset.Format)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// wireProviders sets the provider-backed services whose API key is configured.
// Pages and endpoints of a missing provider answer 503.
func wireProviders(cfg *config.Config, deps *http.Dependencies, cache ports.CacheService, events ports.EventPublisher) {
	p := cfg.Providers

	if p.Weather.APIKey != "" {
		client := weather.NewClient(p.Weather.APIKey, p.Weather.BaseURL, time.Duration(p.Weather.Timeout)*time.Second)
		deps.Weather = usecases.NewWeatherService(client, cache, events, cfg.Cache.TTL)
	} else {
		slog.Warn("weather provider disabled: no api key")
	}

	if p.TomTom.APIKey != "" {
		client := tomtom.NewClient(p.TomTom.APIKey, p.TomTom.BaseURL, time.Duration(p.TomTom.Timeout)*time.Second)
		deps.Routing = usecases.NewRoutingService(client, events, cfg.Routing.MaxFlowSamples)
	} else {
		slog.Warn("routing provider disabled: no api key")
	}

	if p.GoogleMaps.APIKey != "" {
		client, err := googlemaps.NewClient(p.GoogleMaps.APIKey, p.GoogleMaps.BaseURL)
		if err != nil {
			slog.Warn("places provider disabled", "error", err)
		} else {
			deps.Places = usecases.NewPlacesService(client)
		}
	} else {
		slog.Warn("places provider disabled: no api key")
	}
}

func regions(in []config.RegionConfig) []domain.Region {
	out := make([]domain.Region, len(in))
	for i, r := range in {
		out[i] = domain.Region{
			Name:   r.Name,
			Bounds: domain.Bounds{MinLat: r.MinLat, MinLon: r.MinLon, MaxLat: r.MaxLat, MaxLon: r.MaxLon},
		}
	}
	return out
}
