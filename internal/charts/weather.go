package charts

import (
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/samirrijal/hazardboard/internal/core/domain"
)

var metricLabels = map[string]string{
	"tempmax":        "Max Temperature (°C)",
	"tempmin":        "Min Temperature (°C)",
	"temp":           "Average Temperature (°C)",
	"humidity":       "Humidity (%)",
	"windspeed":      "Wind Speed (km/h)",
	"precip":         "Precipitation (mm)",
	"solarradiation": "Solar Radiation (W/m²)",
}

// RenderWeather writes the weather analysis page.
func RenderWeather(w io.Writer, a *domain.WeatherAnalysis) error {
	q := a.Query
	page := newPage("Weather Analysis",
		seriesChart(tempTrendTitle(q.TempType), metricLabels[q.TempType], a.TempTrend),
		seriesChart("Daily Temperature Variation Over Time", "Temperature Variation (°C)", a.VariationTrend),
		CorrelationScatter(q.CorrType, a.Correlation),
		seasonalChart("Average Temperature by Season", metricLabels[q.TempType], q.Locations, a.SeasonalTemp),
		seasonalChart("Average Temperature Variation by Season", "Temperature Variation (°C)", q.Locations, a.SeasonalVariation),
		LocationMeanBar(metricLabels[q.TempType], a.AvgTempByLocation),
		seriesChart("Solar Radiation Trends Over Time", metricLabels["solarradiation"], a.SolarTrend),
		seasonalChart("Average Solar Radiation by Season", metricLabels["solarradiation"], q.Locations, a.SeasonalSolar),
	)
	return page.Render(w)
}

func tempTrendTitle(tempType string) string {
	switch tempType {
	case "tempmax":
		return "Max Temperature Trends Over Time"
	case "tempmin":
		return "Min Temperature Trends Over Time"
	}
	return "Temperature Trends Over Time"
}

// seriesChart draws one dated line per location.
func seriesChart(title, yName string, series []domain.LocationSeries) *charts.Line {
	l := charts.NewLine()
	l.SetGlobalOptions(timeAxisOpts(title, yName)...)
	for _, s := range series {
		data := make([]opts.LineData, len(s.Points))
		for i, p := range s.Points {
			data[i] = datedPoint(p.Date, p.Value)
		}
		l.AddSeries(s.Location, data, showSymbols())
	}
	return l
}

// CorrelationScatter plots temperature against corrType, one series per location.
func CorrelationScatter(corrType string, series []domain.LocationScatter) *charts.Scatter {
	label := metricLabels[corrType]
	s := charts.NewScatter()
	s.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Scatter Plot of Temperature vs. " + titleCase(corrType)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Temperature (°C)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: label, Type: "value"}),
	)
	for _, ls := range series {
		data := make([]opts.ScatterData, len(ls.Points))
		for i, p := range ls.Points {
			data[i] = opts.ScatterData{Value: []interface{}{p.X, p.Y}}
		}
		s.AddSeries(ls.Location, data)
	}
	return s
}

// seasonalChart draws grouped bars: seasons on the x axis, one series per location.
// Seasons without data for any location are left out.
func seasonalChart(title, yName string, locations []string, means []domain.SeasonalMean) *charts.Bar {
	b := barChart(title, "Season", yName)

	present := make(map[domain.Season]bool)
	byKey := make(map[domain.Season]map[string]float64)
	for _, m := range means {
		present[m.Season] = true
		if byKey[m.Season] == nil {
			byKey[m.Season] = make(map[string]float64)
		}
		byKey[m.Season][m.Location] = m.Mean
	}
	var seasons []domain.Season
	var x []string
	for _, s := range domain.Seasons {
		if present[s] {
			seasons = append(seasons, s)
			x = append(x, string(s))
		}
	}
	b.SetXAxis(x)

	for _, loc := range locations {
		data := make([]opts.BarData, len(seasons))
		found := false
		for i, s := range seasons {
			if v, ok := byKey[s][loc]; ok {
				data[i] = opts.BarData{Value: round2(v)}
				found = true
			} else {
				data[i] = opts.BarData{Value: missing}
			}
		}
		if found {
			b.AddSeries(loc, data)
		}
	}
	return b
}

// LocationMeanBar plots one mean per location.
func LocationMeanBar(yName string, means []domain.LocationMean) *charts.Bar {
	b := barChart("Average Temperature by Location", "Location", yName)
	x := make([]string, len(means))
	y := make([]opts.BarData, len(means))
	for i, m := range means {
		x[i] = m.Location
		y[i] = opts.BarData{Value: round2(m.Mean)}
	}
	b.SetXAxis(x).AddSeries("Mean", y)
	return b
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
