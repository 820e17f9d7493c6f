package http

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/hazardboard/internal/charts"
	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/core/usecases"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = parsePages("home", "page1", "page2", "page3", "sub_page1a", "sub_page3a", "sub_page3b", "error")

var monthLabels = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var (
	tempTypeOptions = []option{
		{Value: "tempmax", Label: "Max Temperature"},
		{Value: "tempmin", Label: "Min Temperature"},
		{Value: "temp", Label: "Average Temperature"},
	}
	corrTypeOptions = []option{
		{Value: "humidity", Label: "Humidity"},
		{Value: "windspeed", Label: "Wind Speed"},
		{Value: "precip", Label: "Precipitation"},
		{Value: "solarradiation", Label: "Solar Radiation"},
	}
)

// option is one entry of a form select.
type option struct {
	Value    string
	Label    string
	Selected bool
}

type locationOption struct {
	Name     string
	Selected bool
}

func parsePages(names ...string) map[string]*template.Template {
	funcs := template.FuncMap{
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format(time.DateOnly)
		},
	}
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		out[name] = template.Must(template.New(name).Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return out
}

func renderPage(c *fiber.Ctx, status int, name string, data fiber.Map) error {
	var buf bytes.Buffer
	if err := pageTemplates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		return errInternal(c, err.Error())
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

// renderChart sends a go-echarts page, or an error page when render fails.
func renderChart(c *fiber.Ctx, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return pageError(c, err)
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func pageError(c *fiber.Ctx, err error) error {
	status, code, msg := classify(c, err)
	return renderPage(c, status, "error", fiber.Map{
		"Title":   "Error",
		"Back":    "/",
		"Status":  status,
		"Code":    code,
		"Message": msg,
	})
}

// HomeHandler renders the landing page. It also answers unknown page paths.
func HomeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return renderPage(c, 200, "home", fiber.Map{"Title": "Home"})
	}
}

// TrafficPageHandler renders the routing form. With both addresses set it
// frames the route map.
func TrafficPageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := routeQuery(c)
		data := fiber.Map{
			"Title":          "Traffic Routing",
			"Back":           "/",
			"Form":           q,
			"RouteTypes":     []string{"fastest", "short"},
			"TrafficOptions": []string{"live", "historical"},
			"TravelModes":    []string{"car", "truck"},
			"AvoidOptions":   []string{"unpavedRoads", "tollRoads", "motorways", "ferries"},
			"ChartURL":       "",
		}
		if strings.TrimSpace(q.From) != "" && strings.TrimSpace(q.To) != "" {
			data["ChartURL"] = "/page1/map?" + string(c.Request().URI().QueryString())
		}
		return renderPage(c, 200, "page1", data)
	}
}

// TrafficMapHandler renders the traffic-coloured route map.
func TrafficMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Routing == nil {
			return pageError(c, domain.ErrMissingAPIKey)
		}
		plan, err := deps.Routing.Plan(c.UserContext(), routeQuery(c))
		if err != nil {
			return pageError(c, err)
		}
		c.Set("Cache-Control", "no-store")
		return renderChart(c, func(w io.Writer) error { return charts.RenderRoutePlan(w, plan) })
	}
}

// PlacesPageHandler renders the nearest place form.
func PlacesPageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		address := c.Query("address")
		placeType := c.Query("type", usecases.PlaceTypes[0])
		data := fiber.Map{
			"Title":      "Nearest Place",
			"Back":       "/",
			"Address":    address,
			"PlaceType":  placeType,
			"PlaceTypes": usecases.PlaceTypes,
			"ChartURL":   "",
		}
		if strings.TrimSpace(address) != "" {
			data["ChartURL"] = "/page2/map?" + string(c.Request().URI().QueryString())
		}
		return renderPage(c, 200, "page2", data)
	}
}

// PlacesMapHandler renders the routes to the nearest place.
func PlacesMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Places == nil {
			return pageError(c, domain.ErrMissingAPIKey)
		}
		pr, err := deps.Places.NearestRoute(c.UserContext(), c.Query("address"), c.Query("type"))
		if err != nil {
			return pageError(c, err)
		}
		c.Set("Cache-Control", "no-store")
		return renderChart(c, func(w io.Writer) error { return charts.RenderPlaceRoutes(w, pr) })
	}
}

// FireOverviewHandler renders the fire section landing page.
func FireOverviewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data := fiber.Map{"Title": "Fire Hazard Analysis", "Back": "/"}
		sum, err := deps.Fires.Summary(c.UserContext())
		if err != nil {
			_, _, msg := classify(c, err)
			data["Error"] = msg
		} else {
			data["Summary"] = sum
		}
		return renderPage(c, 200, "page3", data)
	}
}

// WeatherPageHandler renders the weather form framing the analysis charts.
func WeatherPageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := weatherQuery(c)
		if err != nil {
			return pageError(c, err)
		}
		selected := make(map[string]bool, len(q.Locations))
		for _, loc := range q.Locations {
			selected[loc] = true
		}
		locations := make([]locationOption, len(usecases.WeatherLocations))
		for i, loc := range usecases.WeatherLocations {
			locations[i] = locationOption{Name: loc, Selected: selected[loc]}
		}

		chartQuery := string(c.Request().URI().QueryString())
		return renderPage(c, 200, "sub_page1a", fiber.Map{
			"Title":     "Weather Analysis",
			"Back":      "/page1",
			"Locations": locations,
			"Start":     q.Start.Format(time.DateOnly),
			"End":       q.End.Format(time.DateOnly),
			"TempTypes": selectOptions(tempTypeOptions, q.TempType),
			"CorrTypes": selectOptions(corrTypeOptions, q.CorrType),
			"ChartURL":  "/sub_page1a/charts?" + chartQuery,
		})
	}
}

// WeatherChartsHandler renders the weather analysis charts.
func WeatherChartsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Weather == nil {
			return pageError(c, domain.ErrMissingAPIKey)
		}
		q, err := weatherQuery(c)
		if err != nil {
			return pageError(c, err)
		}
		a, err := deps.Weather.Analyze(c.UserContext(), q)
		if err != nil {
			return pageError(c, err)
		}
		return renderChart(c, func(w io.Writer) error { return charts.RenderWeather(w, a) })
	}
}

// FireSummaryPageHandler frames the summary charts and the density image.
func FireSummaryPageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return renderPage(c, 200, "sub_page3a", fiber.Map{"Title": "Fire Detections Summary", "Back": "/page3"})
	}
}

// FireChartsHandler renders every fire summary chart.
func FireChartsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := fireSummary(c.UserContext(), deps.Fires)
		if err != nil {
			return pageError(c, err)
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return renderChart(c, func(w io.Writer) error { return charts.RenderFireSummary(w, s) })
	}
}

// SpatialDensityHandler renders the detection density PNG.
func SpatialDensityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, err := deps.Fires.Table(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		var buf bytes.Buffer
		if err := charts.RenderSpatialDensity(&buf, t.Rows, charts.DefaultSpatialOptions); err != nil {
			return errInternal(c, err.Error())
		}
		c.Type("png")
		c.Set("Cache-Control", "public, max-age=3600")
		return c.Send(buf.Bytes())
	}
}

// MonthPageHandler renders the year/month form. With a year and month set it
// frames the month detail and year comparison charts.
func MonthPageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sum, err := deps.Fires.Summary(c.UserContext())
		if err != nil {
			return pageError(c, err)
		}
		year, month := c.QueryInt("year", 0), c.QueryInt("month", 0)
		compare, err := parseYears(strings.Join(multiQuery(c, "years"), ","))
		if err != nil {
			return pageError(c, err)
		}
		chosen := make(map[int]bool, len(compare))
		for _, y := range compare {
			chosen[y] = true
		}

		years := make([]option, len(sum.Years))
		compareYears := make([]option, len(sum.Years))
		for i, y := range sum.Years {
			label := strconv.Itoa(y)
			years[i] = option{Value: label, Label: label, Selected: y == year}
			compareYears[i] = option{Value: label, Label: label, Selected: chosen[y]}
		}
		months := make([]option, 12)
		for i, name := range monthLabels {
			months[i] = option{Value: strconv.Itoa(i + 1), Label: name, Selected: i+1 == month}
		}

		data := fiber.Map{
			"Title":        "Year and Month Analysis",
			"Back":         "/page3",
			"Years":        years,
			"Months":       months,
			"CompareYears": compareYears,
			"ChartURL":     "",
		}
		if year > 0 && month > 0 {
			data["ChartURL"] = "/sub_page3b/charts?" + monthChartQuery(year, month, compare)
		}
		return renderPage(c, 200, "sub_page3b", data)
	}
}

// MonthChartsHandler renders daily counts for ?year/?month and the monthly
// comparison for ?years.
func MonthChartsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		year, month := c.QueryInt("year", 0), c.QueryInt("month", 0)
		days, err := deps.Fires.MonthDetail(ctx, year, month)
		if err != nil {
			return pageError(c, err)
		}
		years, err := parseYears(c.Query("years"))
		if err != nil {
			return pageError(c, err)
		}
		var compare []domain.YearComparison
		if len(years) > 0 {
			if compare, err = deps.Fires.CompareYears(ctx, years); err != nil {
				return pageError(c, err)
			}
		}
		return renderChart(c, func(w io.Writer) error {
			return charts.RenderMonthDetail(w, year, month, days, compare)
		})
	}
}

// fireSummary collects every series shown on the fire summary page.
func fireSummary(ctx context.Context, fires *usecases.FireService) (*charts.FireSummary, error) {
	s := &charts.FireSummary{}
	var err error
	if s.Yearly, err = fires.YearlyCounts(ctx); err != nil {
		return nil, err
	}
	if s.Monthly, err = fires.MonthlyCounts(ctx); err != nil {
		return nil, err
	}
	if s.Daily, err = fires.DailySeries(ctx); err != nil {
		return nil, err
	}
	if s.Seasonal, err = fires.SeasonalCounts(ctx); err != nil {
		return nil, err
	}
	if s.Trend, err = fires.Trend(ctx); err != nil {
		return nil, err
	}
	if s.Forecast, err = fires.Forecast(ctx, 12); err != nil {
		return nil, err
	}
	if s.Histograms, err = fires.IntensityHistograms(ctx, usecases.DefaultHistogramBins); err != nil {
		return nil, err
	}
	if s.Scatter, err = fires.IntensityScatter(ctx, 0); err != nil {
		return nil, err
	}
	if s.Sample, err = fires.Sample(ctx, 0); err != nil {
		return nil, err
	}
	if s.Regions, err = fires.Regions(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func selectOptions(opts []option, selected string) []option {
	out := make([]option, len(opts))
	for i, o := range opts {
		o.Selected = o.Value == selected
		out[i] = o
	}
	return out
}

// multiQuery returns every value of a repeated query parameter.
func multiQuery(c *fiber.Ctx, key string) []string {
	var out []string
	for _, v := range c.Context().QueryArgs().PeekMulti(key) {
		out = append(out, string(v))
	}
	return out
}

func monthChartQuery(year, month int, compare []int) string {
	q := "year=" + strconv.Itoa(year) + "&month=" + strconv.Itoa(month)
	if len(compare) > 0 {
		ys := make([]string, len(compare))
		for i, y := range compare {
			ys[i] = strconv.Itoa(y)
		}
		q += "&years=" + strings.Join(ys, ",")
	}
	return q
}
