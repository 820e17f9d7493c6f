package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Dataset formats.
const (
	FormatParquet = "parquet"
	FormatSQLite  = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Regions   []RegionConfig  `mapstructure:"regions"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Cache     CacheConfig     `mapstructure:"cache"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// DatasetConfig locates the fire detection file. Format selects the reader.
type DatasetConfig struct {
	Path      string `mapstructure:"path"`
	Format    string `mapstructure:"format"`
	BatchSize int64  `mapstructure:"batch_size"`
}

type RegionConfig struct {
	Name   string  `mapstructure:"name"`
	MinLat float64 `mapstructure:"min_lat"`
	MinLon float64 `mapstructure:"min_lon"`
	MaxLat float64 `mapstructure:"max_lat"`
	MaxLon float64 `mapstructure:"max_lon"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

type ProvidersConfig struct {
	TomTom     ProviderConfig `mapstructure:"tomtom"`
	GoogleMaps ProviderConfig `mapstructure:"googlemaps"`
	Weather    ProviderConfig `mapstructure:"weather"`
}

type RoutingConfig struct {
	MaxFlowSamples int `mapstructure:"max_flow_samples"`
}

type CacheConfig struct {
	TTL int `mapstructure:"ttl"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// legacyEnv lists the un-prefixed variable names provider secrets were
// historically read from. They are consulted after the prefixed name.
var legacyEnv = map[string][]string{
	"providers.tomtom.api_key":     {"tomtom_api_key", "TOMTOM_API_KEY"},
	"providers.googlemaps.api_key": {"googlemaps_api_key", "GOOGLEMAPS_API_KEY"},
	"providers.weather.api_key":    {"weather_api_key", "WEATHER_API_KEY"},
}

// Load reads configuration from .env, an optional config file and environment variables.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("dataset.path", "data/fire_points.parquet")
	v.SetDefault("dataset.format", FormatParquet)
	v.SetDefault("dataset.batch_size", 64*1024)
	v.SetDefault("regions", defaultRegions())
	v.SetDefault("providers.tomtom.base_url", "https://api.tomtom.com")
	v.SetDefault("providers.tomtom.timeout", 10)
	v.SetDefault("providers.googlemaps.base_url", "")
	v.SetDefault("providers.googlemaps.timeout", 10)
	v.SetDefault("providers.weather.base_url", "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services")
	v.SetDefault("providers.weather.timeout", 20)
	v.SetDefault("routing.max_flow_samples", 200)
	v.SetDefault("cache.ttl", 3600)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: HAZARDBOARD_DATASET_PATH → dataset.path
	v.SetEnvPrefix("HAZARDBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		prefixed := "HAZARDBOARD_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, prefixed}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// defaultRegions splits the contiguous United States into three longitude bands.
func defaultRegions() []map[string]any {
	band := func(name string, minLon, maxLon float64) map[string]any {
		return map[string]any{"name": name, "min_lat": 24.0, "max_lat": 50.0, "min_lon": minLon, "max_lon": maxLon}
	}
	return []map[string]any{
		band("West", -125, -104),
		band("Central", -104, -90),
		band("East", -90, -66),
	}
}

// Validate checks that required configuration fields are present and sane.
// Provider keys are not required: a page whose provider has no key reports
// the error when used.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Dataset.Path == "" {
		errs = append(errs, "dataset.path is required")
	}
	if c.Dataset.Format != FormatParquet && c.Dataset.Format != FormatSQLite {
		errs = append(errs, fmt.Sprintf("dataset.format must be %q or %q, got %q", FormatParquet, FormatSQLite, c.Dataset.Format))
	}
	if c.Dataset.BatchSize <= 0 {
		errs = append(errs, "dataset.batch_size must be positive")
	}
	for i, r := range c.Regions {
		if r.Name == "" {
			errs = append(errs, fmt.Sprintf("regions[%d].name is required", i))
		}
		if r.MinLat > r.MaxLat || r.MinLon > r.MaxLon {
			errs = append(errs, fmt.Sprintf("regions[%d] has inverted bounds", i))
		}
	}
	for _, p := range []struct {
		name string
		cfg  ProviderConfig
	}{
		{"tomtom", c.Providers.TomTom},
		{"googlemaps", c.Providers.GoogleMaps},
		{"weather", c.Providers.Weather},
	} {
		if p.cfg.Timeout <= 0 {
			errs = append(errs, fmt.Sprintf("providers.%s.timeout must be positive", p.name))
		}
	}
	if c.Routing.MaxFlowSamples < 0 {
		errs = append(errs, "routing.max_flow_samples must not be negative")
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, "cache.ttl must be positive")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
