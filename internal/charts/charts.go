// Package charts renders dashboard pages as go-echarts HTML and the spatial
// density view as a PNG.
package charts

import (
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "1100px"
	chartHeight = "420px"
)

// missing is how echarts marks a gap in a series.
const missing = "-"

var monthNames = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func newPage(title string, cs ...components.Charter) *components.Page {
	page := components.NewPage()
	page.PageTitle = title
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(cs...)
	return page
}

func globalOpts(title, xName, yName string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName, NameLocation: "middle", NameGap: 28}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
	}
}

func timeAxisOpts(title, yName string) []charts.GlobalOpts {
	o := globalOpts(title, "Date", yName)
	return append(o, charts.WithXAxisOpts(opts.XAxis{Name: "Date", Type: "time", NameLocation: "middle", NameGap: 28}))
}

func lineChart(title, xName, yName string) *charts.Line {
	l := charts.NewLine()
	l.SetGlobalOptions(globalOpts(title, xName, yName)...)
	return l
}

func barChart(title, xName, yName string) *charts.Bar {
	b := charts.NewBar()
	b.SetGlobalOptions(globalOpts(title, xName, yName)...)
	return b
}

func dateLabel(t time.Time) string {
	return t.Format(time.DateOnly)
}

// datedPoint is a [date, value] pair for a time axis.
func datedPoint(t time.Time, v float64) opts.LineData {
	return opts.LineData{Value: []interface{}{dateLabel(t), v}}
}

func showSymbols() charts.SeriesOpts {
	return charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)})
}
