package usecases

import (
	"context"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/samirrijal/hazardboard/internal/core/domain"
	"github.com/samirrijal/hazardboard/internal/core/ports"
)

const (
	// RollingWindow is the window of the monthly rolling mean.
	RollingWindow = 6

	// DefaultHistogramBins is used when a caller asks for no specific bin count.
	DefaultHistogramBins = 30
)

const otherRegion = "Other"

// FireService answers read-only questions about the fire dataset.
type FireService struct {
	loader  ports.DatasetLoader
	path    string
	regions []domain.Region
}

// NewFireService creates a FireService over the dataset at path.
func NewFireService(loader ports.DatasetLoader, path string, regions []domain.Region) *FireService {
	return &FireService{loader: loader, path: path, regions: regions}
}

// Table returns the loaded fire table.
func (s *FireService) Table(ctx context.Context) (*domain.FireTable, error) {
	return s.loader.Load(ctx, s.path)
}

// Summary describes the loaded dataset.
func (s *FireService) Summary(ctx context.Context) (*domain.DatasetSummary, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}

	sum := &domain.DatasetSummary{
		Source:       t.Source,
		Rows:         len(t.Rows),
		Warnings:     len(t.Warnings),
		Years:        t.Years(),
		LoadedAt:     t.LoadedAt,
		LoadDuration: t.LoadDuration.String(),
	}
	for i := range t.Rows {
		d := t.Rows[i].AcqDate
		if d == nil {
			sum.UndatedRows++
			continue
		}
		if sum.FirstDate == nil || d.Before(*sum.FirstDate) {
			sum.FirstDate = d
		}
		if sum.LastDate == nil || d.After(*sum.LastDate) {
			sum.LastDate = d
		}
	}
	return sum, nil
}

// YearlyCounts returns the number of fires per year, ascending.
func (s *FireService) YearlyCounts(ctx context.Context) ([]domain.CountPoint, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int)
	for i := range t.Rows {
		if y := t.Rows[i].Year; y != nil {
			counts[*y]++
		}
	}
	return sortedCounts(counts), nil
}

// MonthlyCounts returns fires per calendar month across all years, January first.
// Months without fires are omitted.
func (s *FireService) MonthlyCounts(ctx context.Context) ([]domain.CountPoint, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int)
	for i := range t.Rows {
		if m := t.Rows[i].Month; m != nil {
			counts[*m]++
		}
	}
	return sortedCounts(counts), nil
}

// DailySeries returns fires per acquisition date, ascending.
func (s *FireService) DailySeries(ctx context.Context) ([]domain.DateCount, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return dailyCounts(t.Rows, domain.PointFilter{}), nil
}

// SeasonalCounts returns fires per season in Winter, Spring, Summer, Fall order.
func (s *FireService) SeasonalCounts(ctx context.Context) ([]domain.SeasonCount, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.Season]int)
	for i := range t.Rows {
		if season := t.Rows[i].Season; season != nil {
			counts[*season]++
		}
	}
	out := make([]domain.SeasonCount, 0, len(domain.Seasons))
	for _, season := range domain.Seasons {
		out = append(out, domain.SeasonCount{Season: season, Count: counts[season]})
	}
	return out, nil
}

// Trend returns the month-end resampled series with a rolling mean and a
// least-squares trend line against the day ordinal.
func (s *FireService) Trend(ctx context.Context) (*domain.TrendAnalysis, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	monthly := monthlySeries(t.Rows)

	out := &domain.TrendAnalysis{
		Monthly:     monthly,
		RollingMean: rollingMean(monthly, RollingWindow),
		TrendLine:   make([]float64, len(monthly)),
		Window:      RollingWindow,
	}
	if len(monthly) == 0 {
		return out, nil
	}

	xs := make([]float64, len(monthly))
	ys := make([]float64, len(monthly))
	for i, m := range monthly {
		xs[i] = dayOrdinal(m.Date)
		ys[i] = float64(m.Count)
	}
	if len(monthly) < 2 {
		out.Intercept = ys[0]
		out.TrendLine[0] = ys[0]
		return out, nil
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	out.Intercept, out.Slope = alpha, beta
	for i, x := range xs {
		out.TrendLine[i] = alpha + beta*x
	}
	return out, nil
}

// Forecast projects the monthly series steps months ahead.
func (s *FireService) Forecast(ctx context.Context, steps int) (*domain.Forecast, error) {
	if steps <= 0 || steps > 60 {
		return nil, domain.Invalid("steps", "must be between 1 and 60, got %d", steps)
	}
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	monthly := monthlySeries(t.Rows)
	out := &domain.Forecast{History: monthly}
	if !hasVariability(monthly) {
		return out, nil
	}

	values := make([]float64, len(monthly))
	for i, m := range monthly {
		values[i] = float64(m.Count)
	}
	projected := forecastDifferencedAR1(values, steps)

	last := monthly[len(monthly)-1].Date
	out.Model = "AR(1) on first differences"
	out.Forecast = make([]domain.ForecastPoint, steps)
	for i, v := range projected {
		out.Forecast[i] = domain.ForecastPoint{Date: monthEnd(last.AddDate(0, 0, 1).AddDate(0, i, 0)), Value: v}
	}
	return out, nil
}

// MonthDetail returns daily counts for one year and month.
func (s *FireService) MonthDetail(ctx context.Context, year, month int) ([]domain.DateCount, error) {
	if month < 1 || month > 12 {
		return nil, domain.Invalid("month", "must be 1-12, got %d", month)
	}
	if year <= 0 {
		return nil, domain.Invalid("year", "is required")
	}
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	return dailyCounts(t.Rows, domain.PointFilter{Year: year, Month: month}), nil
}

// CompareYears returns twelve monthly counts per requested year, in request order.
func (s *FireService) CompareYears(ctx context.Context, years []int) ([]domain.YearComparison, error) {
	if len(years) == 0 {
		return nil, domain.Invalid("years", "at least one year is required")
	}
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[int]int)
	out := make([]domain.YearComparison, 0, len(years))
	for _, y := range years {
		if _, dup := index[y]; dup {
			continue
		}
		index[y] = len(out)
		out = append(out, domain.YearComparison{Year: y})
	}
	for i := range t.Rows {
		p := &t.Rows[i]
		if p.Year == nil {
			continue
		}
		if j, ok := index[*p.Year]; ok {
			out[j].Counts[*p.Month-1]++
		}
	}
	return out, nil
}

// IntensityHistograms bins BRIGHTNESS and FRP.
func (s *FireService) IntensityHistograms(ctx context.Context, bins int) (*domain.IntensityHistograms, error) {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	if bins > 500 {
		return nil, domain.Invalid("bins", "must be at most 500, got %d", bins)
	}
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	brightness := make([]float64, len(t.Rows))
	frp := make([]float64, len(t.Rows))
	for i := range t.Rows {
		brightness[i] = t.Rows[i].Brightness
		frp[i] = t.Rows[i].FRP
	}
	return &domain.IntensityHistograms{
		Brightness: histogram(brightness, bins),
		FRP:        histogram(frp, bins),
	}, nil
}

// IntensityScatter returns at most limit evenly spaced BRIGHTNESS/FRP pairs.
func (s *FireService) IntensityScatter(ctx context.Context, limit int) ([]domain.IntensitySample, error) {
	if limit <= 0 {
		limit = 2000
	}
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	idx := sampleIndices(len(t.Rows), limit)
	out := make([]domain.IntensitySample, len(idx))
	for i, j := range idx {
		out[i] = domain.IntensitySample{Brightness: t.Rows[j].Brightness, FRP: t.Rows[j].FRP}
	}
	return out, nil
}

// Sample returns at most limit evenly spaced rows, for map rendering.
func (s *FireService) Sample(ctx context.Context, limit int) ([]domain.FirePoint, error) {
	if limit <= 0 {
		limit = 5000
	}
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}
	idx := sampleIndices(len(t.Rows), limit)
	out := make([]domain.FirePoint, len(idx))
	for i, j := range idx {
		out[i] = t.Rows[j]
	}
	return out, nil
}

// Regions compares count, mean brightness and mean FRP across the configured regions.
// Rows outside every region are grouped as "Other".
func (s *FireService) Regions(ctx context.Context) ([]domain.RegionStats, error) {
	t, err := s.Table(ctx)
	if err != nil {
		return nil, err
	}

	type acc struct {
		n             int
		bright, power float64
	}
	accs := make([]acc, len(s.regions)+1)
	for i := range t.Rows {
		p := &t.Rows[i]
		k := len(s.regions)
		pt := domain.GeoPoint{Lat: p.Latitude, Lon: p.Longitude}
		for j, r := range s.regions {
			if r.Bounds.Contains(pt) {
				k = j
				break
			}
		}
		accs[k].n++
		accs[k].bright += p.Brightness
		accs[k].power += p.FRP
	}

	out := make([]domain.RegionStats, 0, len(accs))
	for k, a := range accs {
		name := otherRegion
		if k < len(s.regions) {
			name = s.regions[k].Name
		} else if a.n == 0 {
			continue
		}
		rs := domain.RegionStats{Region: name, Count: a.n}
		if a.n > 0 {
			rs.AvgBrightness = a.bright / float64(a.n)
			rs.AvgFRP = a.power / float64(a.n)
		}
		out = append(out, rs)
	}
	return out, nil
}

// Points returns a page of rows matching filter and the total match count.
func (s *FireService) Points(ctx context.Context, filter domain.PointFilter, offset, limit int) ([]domain.FirePoint, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 100
	}
	t, err := s.Table(ctx)
	if err != nil {
		return nil, 0, err
	}
	total := 0
	out := make([]domain.FirePoint, 0, limit)
	for i := range t.Rows {
		if !filter.Match(&t.Rows[i]) {
			continue
		}
		if total >= offset && len(out) < limit {
			out = append(out, t.Rows[i])
		}
		total++
	}
	return out, total, nil
}

func sortedCounts(counts map[int]int) []domain.CountPoint {
	out := make([]domain.CountPoint, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.CountPoint{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func dailyCounts(rows []domain.FirePoint, filter domain.PointFilter) []domain.DateCount {
	counts := make(map[time.Time]int)
	for i := range rows {
		p := &rows[i]
		if p.AcqDate == nil || !filter.Match(p) {
			continue
		}
		counts[*p.AcqDate]++
	}
	out := make([]domain.DateCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, domain.DateCount{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// monthlySeries counts dated rows per calendar month, labelled by month end,
// with every month between the first and the last present.
func monthlySeries(rows []domain.FirePoint) []domain.DateCount {
	counts := make(map[time.Time]int)
	var first, last time.Time
	for i := range rows {
		d := rows[i].AcqDate
		if d == nil {
			continue
		}
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		counts[start]++
		if first.IsZero() || start.Before(first) {
			first = start
		}
		if last.IsZero() || start.After(last) {
			last = start
		}
	}
	if len(counts) == 0 {
		return nil
	}
	var out []domain.DateCount
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		out = append(out, domain.DateCount{Date: monthEnd(m), Count: counts[m]})
	}
	return out
}

func monthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

func dayOrdinal(t time.Time) float64 {
	return float64(t.Unix()) / 86400
}

func rollingMean(series []domain.DateCount, window int) []*float64 {
	out := make([]*float64, len(series))
	sum := 0.0
	for i, p := range series {
		sum += float64(p.Count)
		if i >= window {
			sum -= float64(series[i-window].Count)
		}
		if i >= window-1 {
			v := sum / float64(window)
			out[i] = &v
		}
	}
	return out
}

func hasVariability(series []domain.DateCount) bool {
	for i := 1; i < len(series); i++ {
		if series[i].Count != series[0].Count {
			return true
		}
	}
	return false
}

// forecastDifferencedAR1 fits d[t] = c + phi*d[t-1] on the first differences
// and integrates the projected differences back onto the last level.
func forecastDifferencedAR1(values []float64, steps int) []float64 {
	diffs := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		diffs[i-1] = values[i] - values[i-1]
	}

	c, phi := stat.Mean(diffs, nil), 0.0
	if len(diffs) >= 3 {
		x, y := diffs[:len(diffs)-1], diffs[1:]
		if stat.Variance(x, nil) > 0 {
			c, phi = stat.LinearRegression(x, y, nil, false)
		}
	}
	// Keep the process stationary.
	phi = math.Max(-0.99, math.Min(0.99, phi))

	out := make([]float64, steps)
	level, prev := values[len(values)-1], diffs[len(diffs)-1]
	for i := range out {
		next := c + phi*prev
		level += next
		out[i] = math.Max(0, level)
		prev = next
	}
	return out
}

// histogram bins the finite values; NaN and infinities are not counted.
func histogram(values []float64, bins int) []domain.HistogramBin {
	finite := values[:0:0]
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	values = finite
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []domain.HistogramBin{{Lower: lo, Upper: hi, Count: len(values)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]domain.HistogramBin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi
	for _, v := range values {
		k := int((v - lo) / width)
		if k >= bins {
			k = bins - 1
		}
		out[k].Count++
	}
	return out
}

func sampleIndices(n, limit int) []int {
	if n <= limit {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	step := float64(n) / float64(limit)
	idx := make([]int, limit)
	for i := range idx {
		idx[i] = int(float64(i) * step)
	}
	return idx
}
