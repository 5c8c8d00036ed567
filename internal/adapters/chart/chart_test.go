package chart

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpp0ca/ListeningStats/internal/domain"
)

func monthly() domain.Chart {
	return domain.SingleSeries(domain.ChartBar, "songs_per_month", "Songs per month", "songs",
		[]domain.SeriesPoint{
			{Key: "2024-01", Value: 12},
			{Key: "2024-02", Value: 0},
			{Key: "2024-03", Value: 7},
		})
}

func artists() domain.Chart {
	return domain.Chart{
		Kind:   domain.ChartLine,
		Name:   "top_artists",
		Title:  "Top artists: hours per month",
		YLabel: "hours",
		Labels: []string{"2024-01", "2024-02", "2024-03"},
		Series: []domain.ChartSeries{
			{Name: "Queen", Values: []float64{1, 2.5, 0}},
			{Name: "Björk", Values: []float64{0, 1, 3}},
		},
	}
}

func TestRender_WritesPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "img")

	name, err := NewRenderer(0, 0).Render(dir, monthly())
	require.NoError(t, err)
	assert.Equal(t, "songs_per_month.png", name)

	img, err := imaging.Open(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, defaultWidth, img.Bounds().Dx())
	assert.Equal(t, defaultHeight, img.Bounds().Dy())
}

func TestRender_LineChartSize(t *testing.T) {
	dir := t.TempDir()

	name, err := NewRenderer(640, 320).Render(dir, artists())
	require.NoError(t, err)

	img, err := imaging.Open(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 320, img.Bounds().Dy())
}

func TestRender_EmptyChart(t *testing.T) {
	dir := t.TempDir()

	_, err := NewRenderer(0, 0).Render(dir, domain.SingleSeries(domain.ChartBar, "empty", "Empty", "", nil))
	assert.ErrorIs(t, err, domain.ErrNoChartData)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRender_Deterministic(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	c := artists()

	r := NewRenderer(640, 320)
	_, err := r.Render(a, c)
	require.NoError(t, err)
	_, err = r.Render(b, c)
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(a, "top_artists.png"))
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(b, "top_artists.png"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))
}

func TestRender_MissingName(t *testing.T) {
	c := monthly()
	c.Name = ""

	_, err := NewRenderer(0, 0).Render(t.TempDir(), c)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNoChartData)
}

func TestBuild_YAxis(t *testing.T) {
	c := artists()
	c.YMax = 60
	p, err := build(c, pixels(defaultWidth))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Y.Min)
	assert.Equal(t, 60.0, p.Y.Max)

	zeros := domain.SingleSeries(domain.ChartBar, "zeros", "Zeros", "", []domain.SeriesPoint{{Key: "Monday"}})
	p, err = build(zeros, pixels(defaultWidth))
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Y.Max)
}

func TestThinLabels(t *testing.T) {
	labels := []string{"a", "b", "c", "d", "e"}
	assert.Equal(t, labels, thinLabels(labels, 5))
	assert.Equal(t, []string{"a", "", "c", "", "e"}, thinLabels(labels, 3))
}

func TestValues_PadsAndDropsNonFinite(t *testing.T) {
	assert.Equal(t, []float64{1, 0, 0}, []float64(values([]float64{1, math.NaN()}, 3)))
}
