package domain

import "time"

// CountPoint is a labelled count, e.g. fires in a year or a month.
type CountPoint struct {
	Key   int `json:"key"`
	Count int `json:"count"`
}

// DateCount is the number of fires acquired on one day or in one month.
type DateCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// SeasonCount is the number of fires in one season.
type SeasonCount struct {
	Season Season `json:"season"`
	Count  int    `json:"count"`
}

// TrendAnalysis is the monthly series with its smoothing and regression line.
// RollingMean entries are nil until a full window is available.
type TrendAnalysis struct {
	Monthly     []DateCount `json:"monthly"`
	RollingMean []*float64  `json:"rolling_mean"`
	TrendLine   []float64   `json:"trend_line"`
	Window      int         `json:"window"`
	Slope       float64     `json:"slope_per_day"`
	Intercept   float64     `json:"intercept"`
}

// ForecastPoint is a projected monthly count.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Forecast holds the monthly history and the projection (empty when the history has no variability).
type Forecast struct {
	History  []DateCount     `json:"history"`
	Forecast []ForecastPoint `json:"forecast"`
	Model    string          `json:"model,omitempty"`
}

// YearComparison holds twelve monthly counts for one year.
type YearComparison struct {
	Year   int     `json:"year"`
	Counts [12]int `json:"counts"`
}

// HistogramBin is one bucket of a histogram, [Lower, Upper).
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// IntensityHistograms are the BRIGHTNESS and FRP distributions.
type IntensityHistograms struct {
	Brightness []HistogramBin `json:"brightness"`
	FRP        []HistogramBin `json:"frp"`
}

// IntensitySample is one BRIGHTNESS/FRP pair.
type IntensitySample struct {
	Brightness float64 `json:"brightness"`
	FRP        float64 `json:"frp"`
}

// RegionStats compares fire activity across regions.
type RegionStats struct {
	Region        string  `json:"region"`
	Count         int     `json:"count"`
	AvgBrightness float64 `json:"avg_brightness"`
	AvgFRP        float64 `json:"avg_frp"`
}

// DatasetSummary describes the loaded table.
type DatasetSummary struct {
	Source       string     `json:"source"`
	Rows         int        `json:"rows"`
	UndatedRows  int        `json:"undated_rows"`
	Warnings     int        `json:"warnings"`
	FirstDate    *time.Time `json:"first_date,omitempty"`
	LastDate     *time.Time `json:"last_date,omitempty"`
	Years        []int      `json:"years"`
	LoadedAt     time.Time  `json:"loaded_at"`
	LoadDuration string     `json:"load_duration"`
}

// PointFilter selects rows of the fire table.
type PointFilter struct {
	Year   int
	Month  int
	Season Season
}

// Match reports whether p passes the filter. Zero fields match everything.
func (f PointFilter) Match(p *FirePoint) bool {
	if f.Year != 0 && (p.Year == nil || *p.Year != f.Year) {
		return false
	}
	if f.Month != 0 && (p.Month == nil || *p.Month != f.Month) {
		return false
	}
	if f.Season != "" && (p.Season == nil || *p.Season != f.Season) {
		return false
	}
	return true
}
