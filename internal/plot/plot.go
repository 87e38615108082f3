package plot

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/curve"
)

const (
	defaultWidth  = 1024
	defaultHeight = 640
)

// ErrTooFewPoints is returned for curves that cannot span an axis.
var ErrTooFewPoints = errors.New("plot needs at least two points")

var palette = []drawing.Color{
	chart.ColorBlue, chart.ColorRed, chart.ColorGreen, chart.ColorAlternateGray,
	{R: 255, G: 127, B: 14, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 23, G: 190, B: 207, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
}

// pointStyle renders points only, no connecting line.
func pointStyle(col drawing.Color, width float64) chart.Style {
	return chart.Style{
		StrokeWidth: 0,
		DotWidth:    width,
		DotColor:    col,
	}
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
	}
}

// #region curve
// RenderCurve draws one stress-strain curve as PNG, marking tensile strength
// at the peak and, when resolved, the yield point on the curve.
func RenderCurve(w io.Writer, c curve.Curve, res analysis.SpecimenResult, title string) error {
	if c.Len() < 2 {
		return ErrTooFewPoints
	}
	xs := percent(c.Strain)
	series := []chart.Series{
		chart.ContinuousSeries{Name: "Stress-strain", XValues: xs, YValues: c.Stress, Style: lineStyle(chart.ColorBlue)},
	}

	peak := curve.PeakIndex(c.Stress)
	series = append(series, marker(
		fmt.Sprintf("Tensile %.1f MPa", c.Stress[peak]), xs[peak], c.Stress[peak], chart.ColorRed,
	))
	if res.YieldStrength != nil {
		i := YieldMarkerIndex(c, *res.YieldStrength)
		label := fmt.Sprintf("Yield %.1f MPa", *res.YieldStrength)
		if res.YieldMethod != "" {
			label += " (" + string(res.YieldMethod) + ")"
		}
		series = append(series, marker(label, xs[i], c.Stress[i], chart.ColorGreen))
	}

	ch := chart.Chart{
		Title:      title,
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Strain (%)"},
		YAxis:      chart.YAxis{Name: "Stress (MPa)"},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render curve: %w", err)
	}
	return nil
}

// YieldMarkerIndex returns the sample at or before peak stress whose stress
// is closest to yieldStress.
func YieldMarkerIndex(c curve.Curve, yieldStress float64) int {
	peak := curve.PeakIndex(c.Stress)
	best, bestDist := 0, math.Inf(1)
	for i := 0; i <= peak; i++ {
		if d := math.Abs(c.Stress[i] - yieldStress); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// marker is a single point series. go-chart needs two x values to build a
// range, so the point is duplicated.
func marker(name string, x, y float64, col drawing.Color) chart.Series {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: []float64{x, x},
		YValues: []float64{y, y},
		Style:   pointStyle(col, 8),
	}
}
// #endregion curve

// #region overlay
// Trace is one labelled curve in an overlay.
type Trace struct {
	Label string
	Curve curve.Curve
}

// RenderOverlay draws several curves on shared axes with a legend.
func RenderOverlay(w io.Writer, traces []Trace, title string) error {
	var series []chart.Series
	for i, tr := range traces {
		if tr.Curve.Len() < 2 {
			continue
		}
		series = append(series, chart.ContinuousSeries{
			Name:    tr.Label,
			XValues: percent(tr.Curve.Strain),
			YValues: tr.Curve.Stress,
			Style:   lineStyle(palette[i%len(palette)]),
		})
	}
	if len(series) == 0 {
		return ErrTooFewPoints
	}
	ch := chart.Chart{
		Title:      title,
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Strain (%)"},
		YAxis:      chart.YAxis{Name: "Stress (MPa)"},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render overlay: %w", err)
	}
	return nil
}
// #endregion overlay

// #region files
// WritePNG creates path and renders into it.
func WritePNG(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func percent(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = v * 100
	}
	return out
}
// #endregion files
