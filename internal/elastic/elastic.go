package elastic

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// MinFitPoints is the fewest samples a linear elastic fit accepts.
	MinFitPoints = 5

	ratioEpsilon       = 1e-10
	deviationTolerance = 3.0
	maxInitialWindow   = 30
	minSlidingWindow   = 3
	maxSlidingWindow   = 10
	slidingDivisor     = 20
	minRegionEnd       = 10
)

var (
	ErrElasticFitUnderdetermined = errors.New("elastic fit underdetermined")
	ErrDegenerateFit             = errors.New("degenerate linear fit")
)

// #region types
// Line is y = Slope*x + Intercept.
type Line struct {
	Slope     float64
	Intercept float64
}

// At evaluates the line at x.
func (l Line) At(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// Fit is the elastic line together with the exclusive end of the smoothed
// prefix it was fitted on.
type Fit struct {
	Line
	RegionEnd int
}
// #endregion types

// #region ratios
// Ratios returns the local stiffness Δstress/(Δstrain+1e-10) for each
// consecutive pair. The result has len(stress)-1 entries.
func Ratios(stress, strain []float64) []float64 {
	n := len(stress)
	if len(strain) < n {
		n = len(strain)
	}
	if n < 2 {
		return nil
	}
	out := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		out[i] = (stress[i+1] - stress[i]) / (strain[i+1] - strain[i] + ratioEpsilon)
	}
	return out
}
// #endregion ratios

// #region region-end
// RegionEnd locates the end of the linear elastic region of a smoothed curve.
//
// The baseline stiffness is the mean and population standard deviation of
// the first min(30, len(ratios)/3) ratios. A window of clamp(len(ratios)/20, 3, 10)
// ratios slides forward from there; the first window whose mean deviates from
// the baseline by more than three standard deviations ends the region. When
// no window deviates the region spans every ratio. A region shorter than 10
// samples is replaced by min(30, len(stress)/2).
func RegionEnd(stress, strain []float64) int {
	ratios := Ratios(stress, strain)
	end := len(ratios)

	initial := len(ratios) / 3
	if initial > maxInitialWindow {
		initial = maxInitialWindow
	}
	if initial > 0 {
		baseMean, baseStd := popMeanStd(ratios[:initial])
		sliding := len(ratios) / slidingDivisor
		if sliding < minSlidingWindow {
			sliding = minSlidingWindow
		}
		if sliding > maxSlidingWindow {
			sliding = maxSlidingWindow
		}
		for i := initial; i < len(ratios)-sliding; i++ {
			windowMean := stat.Mean(ratios[i:i+sliding], nil)
			if math.Abs(windowMean-baseMean) > deviationTolerance*baseStd {
				end = i
				break
			}
		}
	}

	if end < minRegionEnd {
		end = len(stress) / 2
		if end > maxInitialWindow {
			end = maxInitialWindow
		}
	}
	return end
}

func popMeanStd(xs []float64) (float64, float64) {
	if len(xs) == 1 {
		return xs[0], 0
	}
	mean, variance := stat.MeanVariance(xs, nil)
	n := float64(len(xs))
	return mean, math.Sqrt(variance * (n - 1) / n)
}
// #endregion region-end

// #region fit
// FitLine is an ordinary least-squares fit of y on x.
func FitLine(x, y []float64) (Line, error) {
	if len(x) != len(y) {
		return Line{}, fmt.Errorf("%w: %d x values vs %d y values", ErrDegenerateFit, len(x), len(y))
	}
	if len(x) < 2 {
		return Line{}, fmt.Errorf("%w: %d points", ErrDegenerateFit, len(x))
	}
	intercept, slope := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) || math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return Line{}, fmt.Errorf("%w: no spread in strain", ErrDegenerateFit)
	}
	return Line{Slope: slope, Intercept: intercept}, nil
}

// FitPrefix fits a line to the first end samples. It fails with
// ErrElasticFitUnderdetermined when fewer than MinFitPoints are available.
func FitPrefix(stress, strain []float64, end int) (Line, error) {
	if end > len(stress) {
		end = len(stress)
	}
	if end > len(strain) {
		end = len(strain)
	}
	if end < MinFitPoints {
		return Line{}, fmt.Errorf("%w: %d points, need %d", ErrElasticFitUnderdetermined, end, MinFitPoints)
	}
	return FitLine(strain[:end], stress[:end])
}
// #endregion fit

// #region detect
// Detect finds the elastic region of a smoothed curve and fits it.
// RegionEnd is populated even when the fit itself fails.
func Detect(stress, strain []float64) (Fit, error) {
	end := RegionEnd(stress, strain)
	line, err := FitPrefix(stress, strain, end)
	if err != nil {
		return Fit{RegionEnd: end}, err
	}
	return Fit{Line: line, RegionEnd: end}, nil
}
// #endregion detect
