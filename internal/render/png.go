package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var palette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
	{R: 127, G: 127, B: 127, A: 255},
	{R: 188, G: 189, B: 34, A: 255},
	{R: 23, G: 190, B: 207, A: 255},
}

var (
	bandFill  = color.RGBA{R: 255, G: 165, B: 0, A: 90}
	refColour = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// Plot builds a gonum plot from f. Series are split at NaN values since the
// plotter rejects them.
func (f Figure) Plot() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = f.XLabel
	p.Y.Label.Text = f.YLabel
	p.Add(plotter.NewGrid())
	if f.LogY {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{}
	}

	for _, b := range f.Bands {
		poly, err := bandPolygon(b, f.LogY)
		if err != nil {
			return nil, fmt.Errorf("band %q: %w", b.Label, err)
		}
		if poly == nil {
			continue
		}
		p.Add(poly)
		p.Legend.Add(b.Label, poly)
	}

	xmin, xmax := math.Inf(1), math.Inf(-1)
	for i, s := range f.Series {
		c := palette[i%len(palette)]
		segs := segments(s.X, s.Y, f.LogY)
		for j, seg := range segs {
			for _, pt := range seg {
				xmin, xmax = math.Min(xmin, pt.X), math.Max(xmax, pt.X)
			}
			switch s.Style {
			case Markers:
				sc, err := plotter.NewScatter(seg)
				if err != nil {
					return nil, fmt.Errorf("series %q: %w", s.Label, err)
				}
				sc.GlyphStyle.Color = c
				sc.GlyphStyle.Radius = vg.Points(3)
				sc.GlyphStyle.Shape = draw.CircleGlyph{}
				p.Add(sc)
				if j == 0 {
					p.Legend.Add(s.Label, sc)
				}
			default:
				l, err := plotter.NewLine(seg)
				if err != nil {
					return nil, fmt.Errorf("series %q: %w", s.Label, err)
				}
				l.LineStyle.Color = c
				l.LineStyle.Width = vg.Points(1.5)
				if s.Style == Dashed {
					l.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
				}
				p.Add(l)
				if j == 0 {
					p.Legend.Add(s.Label, l)
				}
			}
		}
	}

	if len(f.Refs) > 0 && xmin < xmax {
		for _, r := range f.Refs {
			if f.LogY && !(r.Y > 0) {
				continue
			}
			l, err := plotter.NewLine(plotter.XYs{{X: xmin, Y: r.Y}, {X: xmax, Y: r.Y}})
			if err != nil {
				return nil, fmt.Errorf("reference %q: %w", r.Label, err)
			}
			l.LineStyle.Color = refColour
			l.LineStyle.Dashes = []vg.Length{vg.Points(15), vg.Points(5)}
			p.Add(l)
			p.Legend.Add(r.Label, l)
		}
	}
	p.Legend.Top = true
	return p, nil
}

// Formats lists the figure file types Save accepts.
var Formats = []string{"png", "svg", "pdf"}

// SavePNG writes f to dir/<name>.png and returns the path.
func SavePNG(f Figure, dir string, w, h vg.Length) (string, error) {
	return Save(f, dir, "png", w, h)
}

// Save writes f to dir/<name>.<format>. The plot backend picks the canvas
// from the extension.
func Save(f Figure, dir, format string, w, h vg.Length) (string, error) {
	if !slices.Contains(Formats, format) {
		return "", fmt.Errorf("figure format %q not one of %v", format, Formats)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p, err := f.Plot()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, f.Name+"."+format)
	if err := p.Save(w, h, path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}
	return path, nil
}

// segments splits (x, y) into runs of finite points.
func segments(x, y []float64, logY bool) []plotter.XYs {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	var out []plotter.XYs
	var cur plotter.XYs
	for i := 0; i < n; i++ {
		if !usable(x[i]) || !usable(y[i]) || (logY && y[i] <= 0) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, plotter.XY{X: x[i], Y: y[i]})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func bandPolygon(b Band, logY bool) (*plotter.Polygon, error) {
	var pts plotter.XYs
	for i := range b.X {
		if usable(b.X[i]) && usable(b.Upper[i]) && (!logY || b.Upper[i] > 0) {
			pts = append(pts, plotter.XY{X: b.X[i], Y: b.Upper[i]})
		}
	}
	for i := len(b.X) - 1; i >= 0; i-- {
		if usable(b.X[i]) && usable(b.Lower[i]) && (!logY || b.Lower[i] > 0) {
			pts = append(pts, plotter.XY{X: b.X[i], Y: b.Lower[i]})
		}
	}
	if len(pts) < 3 {
		return nil, nil
	}
	poly, err := plotter.NewPolygon(pts)
	if err != nil {
		return nil, err
	}
	poly.Color = bandFill
	poly.LineStyle.Width = 0
	return poly, nil
}

func usable(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
