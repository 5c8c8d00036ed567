// Package chart renders bar and line charts to PNG files.
package chart

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/jpp0ca/ListeningStats/internal/domain"
	"github.com/jpp0ca/ListeningStats/internal/metrics"
)

const (
	defaultWidth  = 1000
	defaultHeight = 500

	dpi = 96

	// maxXLabels is how many category labels fit under the x axis before
	// every other label is left blank.
	maxXLabels = 24
)

var (
	background = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	gridColor  = color.RGBA{R: 221, G: 221, B: 221, A: 255}

	// palette follows the usual plotting cycle; the first entry is the single-series colour.
	palette = []color.RGBA{
		{R: 135, G: 206, B: 235, A: 255},
		{R: 255, G: 127, B: 14, A: 255},
		{R: 44, G: 160, B: 44, A: 255},
		{R: 214, G: 39, B: 40, A: 255},
		{R: 148, G: 103, B: 189, A: 255},
		{R: 140, G: 86, B: 75, A: 255},
		{R: 227, G: 119, B: 194, A: 255},
		{R: 127, G: 127, B: 127, A: 255},
		{R: 188, G: 189, B: 34, A: 255},
		{R: 23, G: 190, B: 207, A: 255},
		{R: 31, G: 119, B: 180, A: 255},
	}
)

// Renderer implements ports.ChartRenderer. Output is a pure function of the chart.
type Renderer struct {
	width  int
	height int
}

// NewRenderer creates a renderer producing images of the given size; zero
// values pick the defaults.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	return &Renderer{width: width, height: height}
}

// Render draws c into dir/<c.Name>.png and returns the file name.
func (r *Renderer) Render(dir string, c domain.Chart) (string, error) {
	if c.Empty() {
		metrics.ChartsRendered.WithLabelValues("empty").Inc()
		return "", domain.ErrNoChartData
	}
	if c.Name == "" {
		metrics.ChartsRendered.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("chart: missing file name for %q", c.Title)
	}

	img, err := r.draw(c)
	if err != nil {
		metrics.ChartsRendered.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("chart: failed to draw %s: %w", c.Name, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		metrics.ChartsRendered.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("chart: failed to create %s: %w", dir, err)
	}

	name := c.Name + ".png"
	if err := imaging.Save(img, filepath.Join(dir, name)); err != nil {
		metrics.ChartsRendered.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("chart: failed to save %s: %w", name, err)
	}

	metrics.ChartsRendered.WithLabelValues("rendered").Inc()
	return name, nil
}

// draw rasterizes the plot at the renderer's pixel size.
func (r *Renderer) draw(c domain.Chart) (image.Image, error) {
	p, err := build(c, pixels(r.width))
	if err != nil {
		return nil, err
	}

	canvas := vgimg.NewWith(
		vgimg.UseWH(pixels(r.width), pixels(r.height)),
		vgimg.UseDPI(dpi),
		vgimg.UseBackgroundColor(background),
	)
	p.Draw(draw.New(canvas))

	img := canvas.Image()
	if b := img.Bounds(); b.Dx() != r.width || b.Dy() != r.height {
		img = imaging.Resize(img, r.width, r.height, imaging.Lanczos)
	}
	return img, nil
}

// pixels converts a pixel count to a length at the rendering resolution.
func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / dpi
}

// build lays out c as a gonum plot with category labels on the x axis. width is
// the image width, used to size bars.
func build(c domain.Chart, width vg.Length) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Title
	p.Y.Label.Text = c.YLabel
	p.Add(gridLines())

	n := len(c.Labels)
	var err error
	switch c.Kind {
	case domain.ChartLine:
		err = addLines(p, c.Series, n)
	default:
		err = addBars(p, c.Series, n, width)
	}
	if err != nil {
		return nil, err
	}

	p.NominalX(thinLabels(c.Labels, maxXLabels)...)
	if n > 12 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}

	p.Y.Min = 0
	switch {
	case c.YMax > 0:
		p.Y.Max = c.YMax
	case p.Y.Max <= 0:
		p.Y.Max = 1
	}

	if len(c.Series) > 1 {
		p.Legend.Top = true
		p.Legend.Left = false
	}
	return p, nil
}

func gridLines() *plotter.Grid {
	g := plotter.NewGrid()
	g.Vertical.Color = nil
	g.Horizontal.Color = gridColor
	return g
}

// addBars draws one bar per label and series; several series sit side by side.
func addBars(p *plot.Plot, series []domain.ChartSeries, n int, width vg.Length) error {
	groupWidth := width * 0.6 / vg.Length(max(n, 1))
	barWidth := groupWidth / vg.Length(max(len(series), 1))
	for i, s := range series {
		bars, err := plotter.NewBarChart(values(s.Values, n), barWidth)
		if err != nil {
			return err
		}
		bars.Color = colour(i)
		bars.LineStyle.Width = 0
		bars.Offset = barWidth * vg.Length(float64(i)-float64(len(series)-1)/2)
		p.Add(bars)
		if len(series) > 1 {
			p.Legend.Add(s.Name, bars)
		}
	}
	return nil
}

func addLines(p *plot.Plot, series []domain.ChartSeries, n int) error {
	for i, s := range series {
		vals := values(s.Values, n)
		pts := make(plotter.XYs, len(vals))
		for j, v := range vals {
			pts[j].X = float64(j)
			pts[j].Y = v
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = colour(i)
		l.Width = vg.Points(1.5)
		p.Add(l)
		if len(series) > 1 {
			p.Legend.Add(s.Name, l)
		}
	}
	return nil
}

// values aligns a series with n labels, padding with zeros.
func values(in []float64, n int) plotter.Values {
	out := make(plotter.Values, n)
	for i := 0; i < n && i < len(in); i++ {
		if !math.IsNaN(in[i]) && !math.IsInf(in[i], 0) {
			out[i] = in[i]
		}
	}
	return out
}

func colour(i int) color.Color {
	return palette[i%len(palette)]
}

// thinLabels blanks labels so that at most limit of them are shown, keeping the first.
func thinLabels(labels []string, limit int) []string {
	if limit <= 0 || len(labels) <= limit {
		return labels
	}
	step := (len(labels) + limit - 1) / limit
	out := make([]string, len(labels))
	for i := 0; i < len(labels); i += step {
		out[i] = labels[i]
	}
	return out
}
