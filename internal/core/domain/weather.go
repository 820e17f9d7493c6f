package domain

import "time"

// WeatherDay is one daily observation for a location.
type WeatherDay struct {
	Location       string    `json:"location"`
	Date           time.Time `json:"date"`
	TempMax        float64   `json:"tempmax"`
	TempMin        float64   `json:"tempmin"`
	Temp           float64   `json:"temp"`
	Humidity       float64   `json:"humidity"`
	WindSpeed      float64   `json:"windspeed"`
	Precip         float64   `json:"precip"`
	SolarRadiation float64   `json:"solarradiation"`
}

// TempVariation is the daily temperature range.
func (d WeatherDay) TempVariation() float64 {
	return d.TempMax - d.TempMin
}

// Metric returns the named measurement: tempmax, tempmin, temp, humidity,
// windspeed, precip or solarradiation.
func (d WeatherDay) Metric(name string) (float64, bool) {
	switch name {
	case "tempmax":
		return d.TempMax, true
	case "tempmin":
		return d.TempMin, true
	case "temp":
		return d.Temp, true
	case "humidity":
		return d.Humidity, true
	case "windspeed":
		return d.WindSpeed, true
	case "precip":
		return d.Precip, true
	case "solarradiation":
		return d.SolarRadiation, true
	case "temp_variation":
		return d.TempVariation(), true
	}
	return 0, false
}

// WeatherQuery selects locations, a date range and the analysed measurements.
type WeatherQuery struct {
	Locations []string  `json:"locations"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	TempType  string    `json:"temp_type"`
	CorrType  string    `json:"corr_type"`
}

// SeriesPoint is one dated value.
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// LocationSeries is a dated series for one location.
type LocationSeries struct {
	Location string        `json:"location"`
	Points   []SeriesPoint `json:"points"`
}

// ScatterPoint is an x/y pair.
type ScatterPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LocationScatter is a scatter series for one location.
type LocationScatter struct {
	Location string         `json:"location"`
	Points   []ScatterPoint `json:"points"`
}

// SeasonalMean is the mean of a measurement for a season and location.
type SeasonalMean struct {
	Season   Season  `json:"season"`
	Location string  `json:"location"`
	Mean     float64 `json:"mean"`
}

// LocationMean is the mean of a measurement for a location.
type LocationMean struct {
	Location string  `json:"location"`
	Mean     float64 `json:"mean"`
}

// WeatherAnalysis is the full result of a weather query.
type WeatherAnalysis struct {
	Query             WeatherQuery      `json:"query"`
	TempTrend         []LocationSeries  `json:"temp_trend"`
	VariationTrend    []LocationSeries  `json:"variation_trend"`
	Correlation       []LocationScatter `json:"correlation"`
	SeasonalTemp      []SeasonalMean    `json:"seasonal_temp"`
	SeasonalVariation []SeasonalMean    `json:"seasonal_variation"`
	AvgTempByLocation []LocationMean    `json:"avg_temp_by_location"`
	SolarTrend        []LocationSeries  `json:"solar_trend"`
	SeasonalSolar     []SeasonalMean    `json:"seasonal_solar"`
	FailedLocations   []string          `json:"failed_locations,omitempty"`
}
