package domain

import "time"

// Event subjects published on the dashboard stream.
const (
	EventDatasetLoaded   = "dashboard.dataset.loaded"
	EventRoutePlanned    = "dashboard.route.planned"
	EventWeatherAnalyzed = "dashboard.weather.analyzed"
)

// DashboardEvent is a notification relayed to connected dashboard clients.
type DashboardEvent struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}
