package curve

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// MinPoints is the smallest sample count the pipeline accepts.
const MinPoints = 20

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrLengthMismatch   = errors.New("load and displacement lengths differ")
	ErrInvalidArea      = errors.New("cross-sectional area must be positive")
	ErrInvalidGauge     = errors.New("gauge length must be positive")
)

// #region types
// Curve is an engineering stress-strain curve. Stress is in MPa, Strain is dimensionless.
// Both slices have the same length and keep the sample order of the input.
type Curve struct {
	Stress []float64
	Strain []float64
}

// Len returns the number of samples.
func (c Curve) Len() int {
	return len(c.Stress)
}

// Summary holds the reductions taken over the raw curve.
type Summary struct {
	TensileStrength   float64
	ElongationPercent float64
	// PeakIndex is the first index at which stress reaches its maximum.
	PeakIndex int
}
// #endregion types

// #region transform
// Transform converts load (N) and displacement (mm) into stress and strain.
func Transform(load, displacement []float64, area, gaugeLength float64) (Curve, error) {
	if len(load) != len(displacement) {
		return Curve{}, fmt.Errorf("%w: %d load vs %d displacement samples", ErrLengthMismatch, len(load), len(displacement))
	}
	if len(load) < MinPoints {
		return Curve{}, fmt.Errorf("%w: %d points, need %d", ErrInsufficientData, len(load), MinPoints)
	}
	if !(area > 0) {
		return Curve{}, fmt.Errorf("%w: got %v", ErrInvalidArea, area)
	}
	if !(gaugeLength > 0) {
		return Curve{}, fmt.Errorf("%w: got %v", ErrInvalidGauge, gaugeLength)
	}

	c := Curve{
		Stress: make([]float64, len(load)),
		Strain: make([]float64, len(displacement)),
	}
	for i := range load {
		c.Stress[i] = load[i] / area
		c.Strain[i] = displacement[i] / gaugeLength
	}
	return c, nil
}
// #endregion transform

// #region summarize
// Summarize computes tensile strength (max stress) and elongation at break
// (max strain as a percentage) over the raw curve.
func Summarize(c Curve) (Summary, error) {
	if c.Len() == 0 || len(c.Strain) != c.Len() {
		return Summary{}, fmt.Errorf("summarize: %w", ErrInsufficientData)
	}
	peak := floats.MaxIdx(c.Stress)
	return Summary{
		TensileStrength:   c.Stress[peak],
		ElongationPercent: floats.Max(c.Strain) * 100,
		PeakIndex:         peak,
	}, nil
}

// PeakIndex returns the first index of the maximum of xs, or -1 when xs is empty.
func PeakIndex(xs []float64) int {
	if len(xs) == 0 {
		return -1
	}
	return floats.MaxIdx(xs)
}
// #endregion summarize
