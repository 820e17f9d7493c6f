package domain

import "time"

// TrafficColor classifies the flow on a route segment.
type TrafficColor string

const (
	TrafficGreen  TrafficColor = "green"
	TrafficYellow TrafficColor = "yellow"
	TrafficRed    TrafficColor = "red"
	TrafficGray   TrafficColor = "gray"
)

// ColorForFlow compares the current speed with the free-flow speed:
// green at 90% or more, yellow at 60% or more, red below.
func ColorForFlow(currentSpeed, freeFlowSpeed float64) TrafficColor {
	switch {
	case currentSpeed >= freeFlowSpeed*0.9:
		return TrafficGreen
	case currentSpeed >= freeFlowSpeed*0.6:
		return TrafficYellow
	default:
		return TrafficRed
	}
}

// TrafficFlow is the flow measured on the road segment nearest to a point.
type TrafficFlow struct {
	CurrentSpeed  float64 `json:"current_speed"`
	FreeFlowSpeed float64 `json:"free_flow_speed"`
}

// RouteQuery holds the user's routing options.
type RouteQuery struct {
	From              string `json:"from"`
	To                string `json:"to"`
	RouteType         string `json:"route_type"`  // fastest | short
	Traffic           string `json:"traffic"`     // live | historical
	TravelMode        string `json:"travel_mode"` // car | truck
	Avoid             string `json:"avoid,omitempty"`
	DepartAt          string `json:"depart_at"`
	VehicleCommercial bool   `json:"vehicle_commercial"`
}

// RouteOptions is what a routing provider needs once both ends are geocoded.
type RouteOptions struct {
	RouteType         string
	Traffic           string
	TravelMode        string
	Avoid             string
	DepartAt          string
	VehicleCommercial bool
	MaxAlternatives   int
}

// ProviderRoute is a route as returned by a routing provider.
type ProviderRoute struct {
	ArrivalTime       string     `json:"arrival_time"`
	TravelTimeSeconds int        `json:"travel_time_seconds"`
	LengthMeters      int        `json:"length_meters"`
	Points            []GeoPoint `json:"points"`
}

// RouteSegment is one leg between consecutive route points.
type RouteSegment struct {
	From  GeoPoint     `json:"from"`
	To    GeoPoint     `json:"to"`
	Color TrafficColor `json:"color"`
}

// TrafficRoute is a route with per-segment traffic colours.
type TrafficRoute struct {
	Index           int            `json:"index"`
	ArrivalTime     string         `json:"arrival_time"`
	TravelTimeHours float64        `json:"travel_time_hours"`
	DistanceMeters  float64        `json:"distance_meters"`
	Segments        []RouteSegment `json:"segments"`
	FlowSamples     int            `json:"flow_samples"`
}

// RoutePlan is the result of a traffic routing request.
type RoutePlan struct {
	From   GeoPoint       `json:"from"`
	To     GeoPoint       `json:"to"`
	Routes []TrafficRoute `json:"routes"`
}

// Place is a point of interest.
type Place struct {
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Location GeoPoint `json:"location"`
}

// DrivingRoute is one directions alternative, snapped to roads.
type DrivingRoute struct {
	Index    int           `json:"index"`
	Distance string        `json:"distance"`
	Duration time.Duration `json:"duration"`
	Summary  string        `json:"summary,omitempty"`
	Path     GeoLineString `json:"path"`
	Snapped  bool          `json:"snapped"`
}

// PlaceRoutes is the result of a nearest-place request.
type PlaceRoutes struct {
	Origin GeoPoint       `json:"origin"`
	Place  Place          `json:"place"`
	Routes []DrivingRoute `json:"routes"`
}
