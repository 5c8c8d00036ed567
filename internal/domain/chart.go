package domain

// ChartKind selects how a chart is drawn.
type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
)

// ChartSeries is one named sequence of values aligned with Chart.Labels.
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Chart is everything a renderer needs to produce one image.
// Name is the file stem; renderers choose the extension.
type Chart struct {
	Kind   ChartKind     `json:"kind"`
	Name   string        `json:"name"`
	Title  string        `json:"title"`
	YLabel string        `json:"y_label,omitempty"`
	YMax   float64       `json:"y_max,omitempty"`
	Labels []string      `json:"labels"`
	Series []ChartSeries `json:"series"`
}

// Empty reports whether the chart has no plottable points.
func (c Chart) Empty() bool {
	if len(c.Labels) == 0 {
		return true
	}
	for _, s := range c.Series {
		if len(s.Values) > 0 {
			return false
		}
	}
	return true
}

// SingleSeries builds a one-series chart from an ordered bucket series.
func SingleSeries(kind ChartKind, name, title, yLabel string, points []SeriesPoint) Chart {
	labels := make([]string, 0, len(points))
	values := make([]float64, 0, len(points))
	for _, p := range points {
		labels = append(labels, p.Key)
		values = append(values, p.Value)
	}
	return Chart{
		Kind:   kind,
		Name:   name,
		Title:  title,
		YLabel: yLabel,
		Labels: labels,
		Series: []ChartSeries{{Name: title, Values: values}},
	}
}
