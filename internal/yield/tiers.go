package yield

import (
	"fmt"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/curve"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/elastic"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/smooth"
)

const (
	fallbackFactor     = 0.9
	degradedFactor     = 0.88
	wideFitCap         = 100
	narrowFitCap       = 100
	narrowFitFraction  = 0.3
	narrowMinPoints    = 50
	degradedFitCap     = 30
	degradedFitDivisor = 3
)

// #region input
// Input is everything a tier may look at. Raw is the unsmoothed curve;
// Smoothed is the smoother output. Fit and FitErr describe the primary
// elastic detection and are unset in degraded mode.
type Input struct {
	Raw      curve.Curve
	Smoothed smooth.Series
	Fit      elastic.Fit
	FitErr   error
}

// searchStart is where offset-line searches on the primary fit begin.
func (in Input) searchStart() int {
	start := in.Fit.RegionEnd - in.Smoothed.Window + 1
	if start < 0 {
		return 0
	}
	return start
}
// #endregion input

// #region tier-definitions

// TierFunc attempts one yield determination. It returns a nil Point on a
// clean miss, an error wrapping ErrNotApplicable when its preconditions do
// not hold, or any other error when a numerical step failed.
type TierFunc func(in Input) (*Point, error)

// Tier pairs a method tag with its attempt function.
type Tier struct {
	Method Method
	Try    TierFunc
}

// StandardTiers is the chain used when Savitzky-Golay smoothing succeeded.
func StandardTiers() []Tier {
	return []Tier{
		{Method: MethodPrimary, Try: primary},
		{Method: MethodRefitWide, Try: refitWide},
		{Method: MethodRefitNarrow, Try: refitNarrow},
		{Method: MethodFallback90, Try: fallback90},
	}
}

// DegradedTiers is the chain used after falling back to the moving average.
func DegradedTiers() []Tier {
	return []Tier{
		{Method: MethodDegradedSmooth, Try: degradedSmooth},
		{Method: MethodDegradedApprox, Try: degradedApprox},
	}
}

// #endregion tier-definitions

// #region standard-tiers
func primary(in Input) (*Point, error) {
	if in.FitErr != nil {
		return nil, in.FitErr
	}
	return search(in.Raw, in.Fit.Line, in.searchStart()), nil
}

func refitWide(in Input) (*Point, error) {
	end := in.Smoothed.Len() / 2
	if end > wideFitCap {
		end = wideFitCap
	}
	if end <= in.Fit.RegionEnd {
		return nil, fmt.Errorf("%w: wide end %d within elastic region %d", ErrNotApplicable, end, in.Fit.RegionEnd)
	}
	if end < elastic.MinFitPoints {
		return nil, fmt.Errorf("%w: %d points for wide refit", ErrNotApplicable, end)
	}
	line, err := elastic.FitLine(in.Smoothed.Strain[:end], in.Smoothed.Stress[:end])
	if err != nil {
		return nil, err
	}
	return search(in.Raw, line, in.searchStart()), nil
}

func refitNarrow(in Input) (*Point, error) {
	n := in.Raw.Len()
	if n <= narrowMinPoints {
		return nil, fmt.Errorf("%w: %d samples, need more than %d", ErrNotApplicable, n, narrowMinPoints)
	}
	end := int(narrowFitFraction * float64(n))
	if end > narrowFitCap {
		end = narrowFitCap
	}
	line, err := elastic.FitLine(in.Raw.Strain[:end], in.Raw.Stress[:end])
	if err != nil {
		return nil, err
	}
	return search(in.Raw, line, 0), nil
}

func fallback90(in Input) (*Point, error) {
	return scaledPeak(in.Raw, fallbackFactor), nil
}
// #endregion standard-tiers

// #region degraded-tiers
func degradedSmooth(in Input) (*Point, error) {
	end := in.Smoothed.Len() / degradedFitDivisor
	if end > degradedFitCap {
		end = degradedFitCap
	}
	if end < elastic.MinFitPoints {
		return nil, fmt.Errorf("%w: %d smoothed points", ErrNotApplicable, end)
	}
	line, err := elastic.FitLine(in.Smoothed.Strain[:end], in.Smoothed.Stress[:end])
	if err != nil {
		return nil, err
	}
	return search(in.Raw, line, 0), nil
}

func degradedApprox(in Input) (*Point, error) {
	return scaledPeak(in.Raw, degradedFactor), nil
}
// #endregion degraded-tiers

// #region helpers
func search(raw curve.Curve, line elastic.Line, start int) *Point {
	p, ok := FindCrossing(raw.Stress, raw.Strain, line, start)
	if !ok {
		return nil
	}
	return &p
}

func scaledPeak(raw curve.Curve, factor float64) *Point {
	peak := curve.PeakIndex(raw.Stress)
	if peak < 0 || peak >= len(raw.Strain) {
		return nil
	}
	return &Point{Strength: factor * raw.Stress[peak], Strain: factor * raw.Strain[peak]}
}
// #endregion helpers
