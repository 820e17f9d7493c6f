package charts

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/samirrijal/hazardboard/internal/core/domain"
)

// FireSummary is everything the fire summary page shows.
type FireSummary struct {
	Yearly     []domain.CountPoint
	Monthly    []domain.CountPoint
	Daily      []domain.DateCount
	Seasonal   []domain.SeasonCount
	Trend      *domain.TrendAnalysis
	Forecast   *domain.Forecast
	Histograms *domain.IntensityHistograms
	Scatter    []domain.IntensitySample
	Sample     []domain.FirePoint
	Regions    []domain.RegionStats
}

// RenderFireSummary writes the fire summary page.
func RenderFireSummary(w io.Writer, s *FireSummary) error {
	hist := s.Histograms
	if hist == nil {
		hist = &domain.IntensityHistograms{}
	}
	page := newPage("Fire Detections Summary",
		YearlyLine(s.Yearly),
		SampleMap(s.Sample),
		MonthlyBar(s.Monthly),
		DailyLine(s.Daily),
		TrendChart(s.Trend),
		YearlyBar(s.Yearly),
		SeasonalBar(s.Seasonal),
		ForecastChart(s.Forecast),
		HistogramBar("Brightness Distribution", "Brightness (K)", hist.Brightness),
		HistogramBar("Fire Radiative Power Distribution", "FRP (MW)", hist.FRP),
		IntensityScatter(s.Scatter),
		RegionBar(s.Regions),
	)
	return page.Render(w)
}

// YearlyLine plots detections per year as a line with markers.
func YearlyLine(yearly []domain.CountPoint) *charts.Line {
	l := lineChart("Number of Fire Detections per Year", "Year", "Number of Fires")
	x, y := countSeries(yearly, strconv.Itoa)
	l.SetXAxis(x).AddSeries("Fires", lineData(y), showSymbols())
	return l
}

// YearlyBar plots detections per year as bars.
func YearlyBar(yearly []domain.CountPoint) *charts.Bar {
	b := barChart("Yearly Fire Occurrences", "Year", "Number of Fires")
	x, y := countSeries(yearly, strconv.Itoa)
	b.SetXAxis(x).AddSeries("Fires", barData(y))
	return b
}

// MonthlyBar plots detections per calendar month across all years.
func MonthlyBar(monthly []domain.CountPoint) *charts.Bar {
	b := barChart("Fire Occurrences by Month", "Month", "Number of Fires")
	x, y := countSeries(monthly, func(m int) string { return monthNames[m-1] })
	b.SetXAxis(x).AddSeries("Fires", barData(y))
	return b
}

// DailyLine plots detections per acquisition date.
func DailyLine(daily []domain.DateCount) *charts.Line {
	l := charts.NewLine()
	l.SetGlobalOptions(timeAxisOpts("Time Series Analysis of Fire Occurrences", "Number of Fires")...)
	data := make([]opts.LineData, len(daily))
	for i, d := range daily {
		data[i] = datedPoint(d.Date, float64(d.Count))
	}
	l.AddSeries("Fires", data, showSymbols())
	return l
}

// SeasonalBar plots detections per season.
func SeasonalBar(seasonal []domain.SeasonCount) *charts.Bar {
	b := barChart("Fire Occurrences by Season", "Season", "Number of Fires")
	x := make([]string, len(seasonal))
	y := make([]opts.BarData, len(seasonal))
	for i, s := range seasonal {
		x[i] = string(s.Season)
		y[i] = opts.BarData{Value: s.Count}
	}
	b.SetXAxis(x).AddSeries("Fires", y)
	return b
}

// TrendChart overlays the monthly series, its rolling mean and the regression line.
func TrendChart(t *domain.TrendAnalysis) *charts.Line {
	l := charts.NewLine()
	l.SetGlobalOptions(timeAxisOpts("Trend Analysis of Fire Occurrences", "Number of Fires")...)
	if t == nil {
		return l
	}
	monthly := make([]opts.LineData, len(t.Monthly))
	rolling := make([]opts.LineData, len(t.Monthly))
	trend := make([]opts.LineData, len(t.Monthly))
	for i, m := range t.Monthly {
		monthly[i] = datedPoint(m.Date, float64(m.Count))
		if v := t.RollingMean[i]; v != nil {
			rolling[i] = datedPoint(m.Date, *v)
		} else {
			rolling[i] = opts.LineData{Value: []interface{}{dateLabel(m.Date), missing}}
		}
		trend[i] = datedPoint(m.Date, t.TrendLine[i])
	}
	l.AddSeries("Monthly Fire Occurrences", monthly, showSymbols()).
		AddSeries(fmt.Sprintf("%d-Month Rolling Average", t.Window), rolling).
		AddSeries("Trend Line (Linear Regression)", trend,
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
	return l
}

// ForecastChart plots the monthly history followed by the projection.
func ForecastChart(f *domain.Forecast) *charts.Line {
	l := charts.NewLine()
	l.SetGlobalOptions(timeAxisOpts("Forecast of Fire Occurrences", "Number of Fires")...)
	if f == nil {
		return l
	}
	history := make([]opts.LineData, len(f.History))
	for i, h := range f.History {
		history[i] = datedPoint(h.Date, float64(h.Count))
	}
	l.AddSeries("Historical Data", history)
	if len(f.Forecast) > 0 {
		projected := make([]opts.LineData, len(f.Forecast))
		for i, p := range f.Forecast {
			projected[i] = datedPoint(p.Date, p.Value)
		}
		l.AddSeries("Forecast", projected, charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
	}
	return l
}

// HistogramBar plots a binned distribution.
func HistogramBar(title, xName string, bins []domain.HistogramBin) *charts.Bar {
	b := barChart(title, xName, "Count")
	x := make([]string, len(bins))
	y := make([]opts.BarData, len(bins))
	for i, bin := range bins {
		x[i] = fmt.Sprintf("%.1f", bin.Lower)
		y[i] = opts.BarData{Value: bin.Count}
	}
	b.SetXAxis(x).AddSeries("Count", y, charts.WithBarChartOpts(opts.BarChart{BarCategoryGap: "0%"}))
	return b
}

// IntensityScatter plots brightness against fire radiative power.
func IntensityScatter(samples []domain.IntensitySample) *charts.Scatter {
	s := charts.NewScatter()
	s.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Brightness vs. Fire Radiative Power"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Brightness (K)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "FRP (MW)", Type: "value"}),
	)
	data := make([]opts.ScatterData, 0, len(samples))
	for _, p := range samples {
		if !finite(p.Brightness) || !finite(p.FRP) {
			continue
		}
		data = append(data, opts.ScatterData{Value: []interface{}{p.Brightness, p.FRP}})
	}
	s.AddSeries("Detections", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	return s
}

// SampleMap plots sampled detections by longitude and latitude, coloured by brightness.
func SampleMap(points []domain.FirePoint) *charts.Scatter {
	lo, hi := math.Inf(1), math.Inf(-1)
	data := make([]opts.ScatterData, 0, len(points))
	for _, p := range points {
		if !plottable(p.Geometry) || !finite(p.Brightness) {
			continue
		}
		lo, hi = math.Min(lo, p.Brightness), math.Max(hi, p.Brightness)
		data = append(data, opts.ScatterData{Value: []interface{}{p.Geometry.Lon, p.Geometry.Lat, p.Brightness}})
	}
	if len(data) == 0 {
		lo, hi = 0, 1
	}

	s := charts.NewScatter()
	s.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: "560px"}),
		charts.WithTitleOpts(opts.Title{Title: "Fire Detections by Location", Subtitle: fmt.Sprintf("%d sampled points", len(points))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Longitude", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latitude", Type: "value"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Dimension:  "2",
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: []string{"#fee391", "#fe9929", "#d94801", "#7f2704"}},
		}),
	)
	s.AddSeries("Brightness", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	return s
}

// RegionBar compares detection counts across regions.
func RegionBar(regions []domain.RegionStats) *charts.Bar {
	b := barChart("Fire Detections by Region", "Region", "Number of Fires")
	x := make([]string, len(regions))
	counts := make([]opts.BarData, len(regions))
	frp := make([]opts.BarData, len(regions))
	for i, r := range regions {
		x[i] = r.Region
		counts[i] = opts.BarData{Value: r.Count}
		frp[i] = opts.BarData{Value: round2(r.AvgFRP)}
	}
	b.SetXAxis(x).
		AddSeries("Detections", counts).
		AddSeries("Mean FRP (MW)", frp)
	return b
}

// RenderMonthDetail writes the year/month analysis page: daily counts for
// one month and monthly counts for the compared years.
func RenderMonthDetail(w io.Writer, year, month int, days []domain.DateCount, compare []domain.YearComparison) error {
	daily := lineChart(fmt.Sprintf("Fire Occurrences for %d-%02d", year, month), "Date", "Number of Fires")
	x := make([]string, len(days))
	y := make([]int, len(days))
	for i, d := range days {
		x[i] = dateLabel(d.Date)
		y[i] = d.Count
	}
	daily.SetXAxis(x).AddSeries("Fires", lineData(y), showSymbols())

	return newPage("Fire Year and Month Analysis", daily, YearComparisonChart(compare)).Render(w)
}

// YearComparisonChart draws one monthly line per year.
func YearComparisonChart(compare []domain.YearComparison) *charts.Line {
	l := lineChart("Monthly Fire Occurrences for Specific Years", "Month", "Number of Fires")
	l.SetXAxis(monthNames)
	for _, c := range compare {
		l.AddSeries(strconv.Itoa(c.Year), lineData(c.Counts[:]), showSymbols())
	}
	return l
}

func countSeries(points []domain.CountPoint, label func(int) string) ([]string, []int) {
	x := make([]string, len(points))
	y := make([]int, len(points))
	for i, p := range points {
		x[i] = label(p.Key)
		y[i] = p.Count
	}
	return x, y
}

func lineData(values []int) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: v}
	}
	return out
}

func barData(values []int) []opts.BarData {
	out := make([]opts.BarData, len(values))
	for i, v := range values {
		out[i] = opts.BarData{Value: v}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
