package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoLineString represents an ordered sequence of geographic coordinates.
type GeoLineString struct {
	Coordinates []GeoPoint `json:"coordinates"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat" mapstructure:"min_lat"`
	MinLon float64 `json:"min_lon" mapstructure:"min_lon"`
	MaxLat float64 `json:"max_lat" mapstructure:"max_lat"`
	MaxLon float64 `json:"max_lon" mapstructure:"max_lon"`
}

// Contains reports whether p lies inside the box (edges inclusive).
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Region is a named area used to group fire detections.
type Region struct {
	Name   string `json:"name" mapstructure:"name"`
	Bounds Bounds `json:"bounds" mapstructure:"bounds"`
}
