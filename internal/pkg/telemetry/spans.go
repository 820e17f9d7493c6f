package telemetry

// Span names used for instrumentation.
const (
	// Dataset
	SpanDatasetLoad = "dataset.load"
	SpanDatasetRead = "dataset.read"

	// External providers
	SpanWeatherTimeline = "weather.timeline"
	SpanTomTomGeocode   = "tomtom.geocode"
	SpanTomTomRoute     = "tomtom.calculate_route"
	SpanTomTomFlow      = "tomtom.flow_segment"
	SpanGoogleMaps      = "googlemaps.request"

	// Business
	SpanRoutePlan       = "routing.plan"
	SpanWeatherAnalysis = "weather.analyze"
	SpanNearestPlace    = "places.nearest"
)
