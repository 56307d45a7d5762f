package render

import (
	"strings"

	"github.com/guptarohit/asciigraph"
)

// Console renders f as an ASCII chart. Markers and lines are drawn alike;
// reference lines become flat series. Non-finite points are dropped.
func Console(f Figure, width, height int) string {
	var data [][]float64
	var labels []string
	for _, s := range f.Series {
		ys := finiteValues(s.Y)
		if len(ys) < 2 {
			continue
		}
		data = append(data, ys)
		labels = append(labels, s.Label)
	}
	if len(data) == 0 {
		return Subtle.Render("(no data to chart)")
	}
	longest := 0
	for _, d := range data {
		if len(d) > longest {
			longest = len(d)
		}
	}
	for _, r := range f.Refs {
		ref := make([]float64, longest)
		for i := range ref {
			ref[i] = r.Y
		}
		data = append(data, ref)
		labels = append(labels, r.Label)
	}
	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Caption(f.Title),
	}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}
	chart := asciigraph.PlotMany(data, opts...)
	return chart + "\n" + Subtle.Render(strings.Join(labels, " | "))
}

// Sparkline is a single-series chart used in compact views.
func Sparkline(values []float64, caption string, width, height int) string {
	ys := finiteValues(values)
	if len(ys) < 2 {
		return Subtle.Render("-")
	}
	return asciigraph.Plot(ys, asciigraph.Height(height), asciigraph.Width(width), asciigraph.Caption(caption))
}

func finiteValues(vs []float64) []float64 {
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		if usable(v) {
			out = append(out, v)
		}
	}
	return out
}
