package charts

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/samirrijal/hazardboard/internal/core/domain"
)

// SpatialOptions sizes the density grid and the output image.
type SpatialOptions struct {
	Cols, Rows    int
	Width, Height int // pixels
}

// DefaultSpatialOptions renders an 800x600 image over a 160x120 grid.
var DefaultSpatialOptions = SpatialOptions{Cols: 160, Rows: 120, Width: 800, Height: 600}

// densityGrid counts detections per lon/lat cell. It implements plotter.GridXYZ.
type densityGrid struct {
	cols, rows     int
	minLon, minLat float64
	dLon, dLat     float64
	z              []float64
}

func newDensityGrid(points []domain.FirePoint, cols, rows int) *densityGrid {
	g := &densityGrid{cols: cols, rows: rows, z: make([]float64, cols*rows)}

	minLon, maxLon := math.Inf(1), math.Inf(-1)
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	n := 0
	for i := range points {
		p := points[i].Geometry
		if !plottable(p) {
			continue
		}
		n++
		minLon, maxLon = math.Min(minLon, p.Lon), math.Max(maxLon, p.Lon)
		minLat, maxLat = math.Min(minLat, p.Lat), math.Max(maxLat, p.Lat)
	}
	if n == 0 {
		minLon, maxLon, minLat, maxLat = -180, 180, -90, 90
	}
	if maxLon-minLon < 1e-9 {
		minLon, maxLon = minLon-0.5, maxLon+0.5
	}
	if maxLat-minLat < 1e-9 {
		minLat, maxLat = minLat-0.5, maxLat+0.5
	}
	g.minLon, g.minLat = minLon, minLat
	g.dLon = (maxLon - minLon) / float64(cols)
	g.dLat = (maxLat - minLat) / float64(rows)

	for i := range points {
		p := points[i].Geometry
		if !plottable(p) {
			continue
		}
		c := min(int((p.Lon-minLon)/g.dLon), cols-1)
		r := min(int((p.Lat-minLat)/g.dLat), rows-1)
		g.z[r*cols+c]++
	}
	for i, n := range g.z {
		g.z[i] = math.Log1p(n)
	}
	return g
}

// plottable reports whether p has finite coordinates.
func plottable(p domain.GeoPoint) bool {
	return finite(p.Lon) && finite(p.Lat)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (g *densityGrid) Dims() (c, r int)   { return g.cols, g.rows }
func (g *densityGrid) Z(c, r int) float64 { return g.z[r*g.cols+c] }
func (g *densityGrid) X(c int) float64    { return g.minLon + (float64(c)+0.5)*g.dLon }
func (g *densityGrid) Y(r int) float64    { return g.minLat + (float64(r)+0.5)*g.dLat }

// RenderSpatialDensity writes a PNG heat map of detection density, shaded by
// log(1+count) per cell.
func RenderSpatialDensity(w io.Writer, points []domain.FirePoint, o SpatialOptions) error {
	if o.Cols < 2 || o.Rows < 2 || o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid spatial options %+v", o)
	}
	grid := newDensityGrid(points, o.Cols, o.Rows)

	p := plot.New()
	p.Title.Text = "Spatial Distribution of Fires"
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"

	hm := plotter.NewHeatMap(grid, palette.Heat(64, 1))
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)

	wt, err := p.WriterTo(pixels(o.Width), pixels(o.Height), "png")
	if err != nil {
		return fmt.Errorf("spatial plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// pixels converts a pixel count at 96 dpi to a vg length.
func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / 96
}
