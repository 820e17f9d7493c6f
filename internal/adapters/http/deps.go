package http

import (
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/hazardboard/internal/adapters/valkey"
	"github.com/samirrijal/hazardboard/internal/core/usecases"
	"github.com/samirrijal/hazardboard/internal/dataset"
)

// Dependencies holds all services needed by HTTP handlers.
// Weather, Routing and Places are nil when their provider is not configured.
type Dependencies struct {
	Fires   *usecases.FireService
	Weather *usecases.WeatherService
	Routing *usecases.RoutingService
	Places  *usecases.PlacesService
	Loader  *dataset.Loader
	NATS    *nats.Conn
	Cache   *valkey.Cache
}
