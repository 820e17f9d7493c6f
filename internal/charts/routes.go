package charts

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/samirrijal/hazardboard/internal/core/domain"
)

var trafficColors = map[domain.TrafficColor]string{
	domain.TrafficGreen:  "#2ca02c",
	domain.TrafficYellow: "#f2b705",
	domain.TrafficRed:    "#d62728",
	domain.TrafficGray:   "#8c8c8c",
}

var routePalette = []string{"#1f77b4", "#9467bd", "#ff7f0e", "#17becf"}

// RenderRoutePlan writes the traffic route page.
func RenderRoutePlan(w io.Writer, plan *domain.RoutePlan) error {
	return newPage("Traffic Routing", RouteMap(plan)).Render(w)
}

// RouteMap draws every route segment coloured by traffic. Consecutive
// segments of one colour form a single line; lines of a colour share a legend entry.
func RouteMap(plan *domain.RoutePlan) *charts.Line {
	var subtitle []string
	box := newBBox()
	box.add(plan.From)
	box.add(plan.To)
	for _, r := range plan.Routes {
		subtitle = append(subtitle, fmt.Sprintf("Route %d: arrives %s, %.2f h, %.1f km",
			r.Index+1, r.ArrivalTime, r.TravelTimeHours, r.DistanceMeters/1000))
		for _, s := range r.Segments {
			box.add(s.From)
			box.add(s.To)
		}
	}

	l := mapChart("Traffic Routes", strings.Join(subtitle, "\n"), box)
	for _, r := range plan.Routes {
		for _, run := range colourRuns(r.Segments) {
			l.AddSeries(string(run.color), run.points,
				charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
				charts.WithLineStyleOpts(opts.LineStyle{Color: trafficColors[run.color], Width: 4}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: trafficColors[run.color]}),
			)
		}
	}
	addMarker(l, "Start", plan.From, "#000000")
	addMarker(l, "End", plan.To, "#444444")
	return l
}

// RenderPlaceRoutes writes the nearest place page.
func RenderPlaceRoutes(w io.Writer, pr *domain.PlaceRoutes) error {
	return newPage("Nearest Place", PlaceRouteMap(pr)).Render(w)
}

// PlaceRouteMap draws each driving alternative to the place.
func PlaceRouteMap(pr *domain.PlaceRoutes) *charts.Line {
	box := newBBox()
	box.add(pr.Origin)
	box.add(pr.Place.Location)
	subtitle := []string{pr.Place.Name + ", " + pr.Place.Address}
	for _, r := range pr.Routes {
		subtitle = append(subtitle, fmt.Sprintf("Route %d: %s, %s", r.Index+1, r.Distance, r.Duration.Round(time.Minute)))
		for _, p := range r.Path.Coordinates {
			box.add(p)
		}
	}

	l := mapChart("Routes to "+pr.Place.Name, strings.Join(subtitle, "\n"), box)
	for i, r := range pr.Routes {
		data := make([]opts.LineData, len(r.Path.Coordinates))
		for j, p := range r.Path.Coordinates {
			data[j] = opts.LineData{Value: []interface{}{p.Lon, p.Lat}}
		}
		color := routePalette[i%len(routePalette)]
		l.AddSeries(fmt.Sprintf("Route %d", r.Index+1), data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 4}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
		)
	}
	addMarker(l, "Current location", pr.Origin, "#000000")
	addMarker(l, pr.Place.Name, pr.Place.Location, "#d62728")
	return l
}

type colourRun struct {
	color  domain.TrafficColor
	points []opts.LineData
}

func colourRuns(segments []domain.RouteSegment) []colourRun {
	var runs []colourRun
	for i, s := range segments {
		if i == 0 || s.Color != segments[i-1].Color {
			runs = append(runs, colourRun{color: s.Color, points: []opts.LineData{lonLat(s.From)}})
		}
		last := &runs[len(runs)-1]
		last.points = append(last.points, lonLat(s.To))
	}
	return runs
}

func lonLat(p domain.GeoPoint) opts.LineData {
	return opts.LineData{Value: []interface{}{p.Lon, p.Lat}}
}

func addMarker(l *charts.Line, name string, p domain.GeoPoint, color string) {
	l.AddSeries(name, []opts.LineData{lonLat(p)},
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
	)
}

// bbox is the lon/lat extent of a map, padded when rendered.
type bbox struct {
	minLon, maxLon, minLat, maxLat float64
}

func newBBox() *bbox {
	return &bbox{minLon: math.Inf(1), maxLon: math.Inf(-1), minLat: math.Inf(1), maxLat: math.Inf(-1)}
}

func (b *bbox) add(p domain.GeoPoint) {
	b.minLon, b.maxLon = math.Min(b.minLon, p.Lon), math.Max(b.maxLon, p.Lon)
	b.minLat, b.maxLat = math.Min(b.minLat, p.Lat), math.Max(b.maxLat, p.Lat)
}

func (b *bbox) padded() (minLon, maxLon, minLat, maxLat float64) {
	pad := math.Max(math.Max(b.maxLon-b.minLon, b.maxLat-b.minLat)*0.05, 0.01)
	return round4(b.minLon - pad), round4(b.maxLon + pad), round4(b.minLat - pad), round4(b.maxLat + pad)
}

func mapChart(title, subtitle string, box *bbox) *charts.Line {
	minLon, maxLon, minLat, maxLat := box.padded()
	l := charts.NewLine()
	l.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: "640px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: minLon, Max: maxLon, Name: "Longitude", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: minLat, Max: maxLat, Name: "Latitude", NameLocation: "middle", NameGap: 40}),
	)
	return l
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
