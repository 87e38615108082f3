package yield

import (
	"errors"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/curve"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/elastic"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/smooth"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/synth"
)

// #region helpers
func standardSeries(t *testing.T, c curve.Curve) smooth.Series {
	t.Helper()
	s, err := smooth.NewSavitzkyGolay().Smooth(c.Stress, c.Strain, smooth.WindowSize(c.Len()))
	require.NoError(t, err)
	return s
}

func degradedSeries(t *testing.T, c curve.Curve) smooth.Series {
	t.Helper()
	s, err := smooth.MovingAverage{}.Smooth(c.Stress, c.Strain, smooth.WindowSize(c.Len()))
	require.NoError(t, err)
	return s
}

func methods(attempts []Attempt) []Method {
	out := make([]Method, len(attempts))
	for i, a := range attempts {
		out[i] = a.Method
	}
	return out
}

func outcomes(attempts []Attempt) []Outcome {
	out := make([]Outcome, len(attempts))
	for i, a := range attempts {
		out[i] = a.Outcome
	}
	return out
}

// knee is a sample index after which the per-step stress increment changes.
type knee struct {
	after int
	step  float64
}

// piecewise builds n samples at 1e-4 strain spacing that the smoother passes
// through unchanged.
func piecewise(n int, knees ...knee) (curve.Curve, smooth.Series) {
	stress := make([]float64, n)
	strain := make([]float64, n)
	for i := 1; i < n; i++ {
		step := 0.0
		for _, k := range knees {
			if i > k.after {
				step = k.step
			}
		}
		stress[i] = stress[i-1] + step
		strain[i] = float64(i) * 1e-4
	}
	c := curve.Curve{Stress: stress, Strain: strain}
	return c, smooth.Series{Stress: stress, Strain: strain, Window: 15, Mode: smooth.ModeSavitzkyGolay}
}
// #endregion helpers

// #region crossing-tests
func TestFindCrossing_Interpolates(t *testing.T) {
	line := elastic.Line{Slope: 100, Intercept: 0}
	strain := []float64{0, 0.001, 0.002, 0.003, 0.004}
	// offset line at these strains: 0.2 0.3 0.4 0.5 0.6
	stress := []float64{0, 0.1, 0.3, 0.7, 0.8}

	p, ok := FindCrossing(stress, strain, line, 0)
	require.True(t, ok)
	// d1 = 0.3-0.4 = -0.1, d2 = 0.7-0.5 = 0.2, t = 1/3
	chk.Float64(t, "strain", 1e-12, p.Strain, 0.002+0.001/3)
	chk.Float64(t, "strength", 1e-9, p.Strength, 100*(p.Strain+OffsetStrain))
}

func TestFindCrossing_TouchIsNotACrossing(t *testing.T) {
	line := elastic.Line{Slope: 100}
	strain := []float64{0, 0.001, 0.002}
	stress := []float64{
		0,
		line.At(strain[1] + OffsetStrain),
		line.At(strain[2]+OffsetStrain) + 1,
	}
	_, ok := FindCrossing(stress, strain, line, 0)
	assert.False(t, ok, "d1 == 0 must not be accepted")
}

func TestFindCrossing_RespectsStart(t *testing.T) {
	line := elastic.Line{Slope: 100}
	strain := []float64{0, 0.001, 0.002, 0.003}
	stress := []float64{0, 1, 0, 1}
	p, ok := FindCrossing(stress, strain, line, 1)
	require.True(t, ok)
	assert.Greater(t, p.Strain, 0.002)
}
// #endregion crossing-tests

// #region solver-tests
func TestSolve_PlateauFallsBackTo90(t *testing.T) {
	stress, strain := synth.Plateau(200, 1.0, 0.01)
	c := curve.Curve{Stress: stress, Strain: strain}

	est, err := NewSolver(nil).Solve(c, standardSeries(t, c))
	require.NoError(t, err)
	require.True(t, est.Resolved())
	assert.Equal(t, MethodFallback90, est.Method)
	assert.InDelta(t, 0.9, *est.Strength, 1e-12)
	assert.InDelta(t, 0.009, *est.Strain, 1e-12)
	assert.Equal(t, []Method{MethodPrimary, MethodRefitWide, MethodRefitNarrow, MethodFallback90}, methods(est.Attempts))
	for _, a := range est.Attempts[:3] {
		assert.NotEqual(t, OutcomeHit, a.Outcome)
	}
}

func TestSolve_ToeHitsPrimary(t *testing.T) {
	stress, strain := synth.Toe(200)
	c := curve.Curve{Stress: stress, Strain: strain}

	est, err := NewSolver(nil).Solve(c, standardSeries(t, c))
	require.NoError(t, err)
	require.True(t, est.Resolved())
	assert.Equal(t, MethodPrimary, est.Method)
	require.Len(t, est.Attempts, 1)
	assert.Greater(t, *est.Strain, strain[61])
	assert.Less(t, *est.Strain, strain[62])
	// elastic slope is 1000 MPa through the origin
	assert.InDelta(t, 1000*(*est.Strain+OffsetStrain), *est.Strength, 1e-6)
}

func TestSolve_DegradedSmoothHit(t *testing.T) {
	stress, strain := synth.Toe(200)
	c := curve.Curve{Stress: stress, Strain: strain}

	est, err := NewSolver(nil).Solve(c, degradedSeries(t, c))
	require.NoError(t, err)
	assert.Equal(t, MethodDegradedSmooth, est.Method)
	assert.Greater(t, *est.Strain, strain[60])
	assert.Less(t, *est.Strain, strain[61])
}

func TestSolve_DegradedApprox(t *testing.T) {
	stress, strain := synth.Plateau(200, 1.0, 0.01)
	c := curve.Curve{Stress: stress, Strain: strain}

	est, err := NewSolver(nil).Solve(c, degradedSeries(t, c))
	require.NoError(t, err)
	assert.Equal(t, MethodDegradedApprox, est.Method)
	assert.InDelta(t, 0.88, *est.Strength, 1e-12)
	assert.InDelta(t, 0.0088, *est.Strain, 1e-12)
	assert.True(t, est.Method.Approximate())
}

func TestRun_OrderAndOutcomes(t *testing.T) {
	boom := errors.New("boom")
	tiers := []Tier{
		{Method: MethodPrimary, Try: func(Input) (*Point, error) { return nil, boom }},
		{Method: MethodRefitWide, Try: func(Input) (*Point, error) { return nil, ErrNotApplicable }},
		{Method: MethodRefitNarrow, Try: func(Input) (*Point, error) { return nil, nil }},
		{Method: MethodFallback90, Try: func(Input) (*Point, error) { panic("index out of range") }},
		{Method: MethodDegradedApprox, Try: func(Input) (*Point, error) { return &Point{Strength: 5, Strain: 0.1}, nil }},
		{Method: MethodDegradedSmooth, Try: func(Input) (*Point, error) { t.Fatal("tier after a hit must not run"); return nil, nil }},
	}
	est := NewSolver(nil).Run(Input{}, tiers)

	require.True(t, est.Resolved())
	assert.Equal(t, MethodDegradedApprox, est.Method)
	want := []Outcome{OutcomeError, OutcomeSkipped, OutcomeMiss, OutcomeError, OutcomeHit}
	require.Len(t, est.Attempts, len(want))
	for i, o := range want {
		assert.Equal(t, o, est.Attempts[i].Outcome, "attempt %d", i)
	}
	assert.Contains(t, est.Attempts[3].Reason, "panicked")
}

func TestRun_AllMissIsUnresolved(t *testing.T) {
	est := NewSolver(nil).Run(Input{}, []Tier{{Method: MethodFallback90, Try: fallback90}})
	assert.False(t, est.Resolved())
	assert.Equal(t, MethodUnresolved, est.Method)
}

func TestSolve_UnderdeterminedFit(t *testing.T) {
	// four smoothed samples cannot support an elastic fit
	s := smooth.Series{
		Stress: []float64{0, 1, 2, 3},
		Strain: []float64{0, 0.1, 0.2, 0.3},
		Window: 5,
		Mode:   smooth.ModeSavitzkyGolay,
	}
	est, err := NewSolver(nil).Solve(curve.Curve{Stress: s.Stress, Strain: s.Strain}, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, elastic.ErrElasticFitUnderdetermined)
	assert.False(t, est.Resolved())
}
func TestSolve_RefitWideHit(t *testing.T) {
	// stiff start, a soft stretch then stiff again: the elastic-region line
	// never meets the curve but the half-curve line does
	c, s := piecewise(200, knee{0, 10}, knee{50, 2}, knee{100, 10})

	est, err := NewSolver(nil).Solve(c, s)
	require.NoError(t, err)
	require.True(t, est.Resolved())
	assert.Equal(t, MethodRefitWide, est.Method)
	assert.Equal(t, []Method{MethodPrimary, MethodRefitWide}, methods(est.Attempts))
	assert.Equal(t, []Outcome{OutcomeMiss, OutcomeHit}, outcomes(est.Attempts))
	assert.Greater(t, *est.Strain, c.Strain[156])
	assert.Less(t, *est.Strain, c.Strain[157])
}

func TestSolve_RefitNarrowHit(t *testing.T) {
	c, s := piecewise(200, knee{0, 10}, knee{46, 2}, knee{59, 15}, knee{100, 3})

	est, err := NewSolver(nil).Solve(c, s)
	require.NoError(t, err)
	require.True(t, est.Resolved())
	assert.Equal(t, MethodRefitNarrow, est.Method)
	assert.Equal(t, []Method{MethodPrimary, MethodRefitWide, MethodRefitNarrow}, methods(est.Attempts))
	assert.Equal(t, []Outcome{OutcomeMiss, OutcomeMiss, OutcomeHit}, outcomes(est.Attempts))
	assert.Greater(t, *est.Strain, c.Strain[98])
	assert.Less(t, *est.Strain, c.Strain[99])
}
// #endregion solver-tests

// #region tier-tests
func TestRefitNarrow_SkipsShortCurves(t *testing.T) {
	stress, strain := synth.Ramp(50, 200, 1e-4)
	_, err := refitNarrow(Input{Raw: curve.Curve{Stress: stress, Strain: strain}})
	assert.ErrorIs(t, err, ErrNotApplicable)
}

func TestRefitNarrow_HitsToeKnee(t *testing.T) {
	stress, strain := synth.Toe(200)
	p, err := refitNarrow(Input{Raw: curve.Curve{Stress: stress, Strain: strain}})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Greater(t, p.Strain, strain[60])
}

func TestRefitWide_SkippedWhenRegionCoversHalf(t *testing.T) {
	stress, strain := synth.Ramp(40, 200, 1e-4)
	c := curve.Curve{Stress: stress, Strain: strain}
	in := Input{Raw: c, Smoothed: standardSeries(t, c), Fit: elastic.Fit{RegionEnd: 30}}
	_, err := refitWide(in)
	assert.ErrorIs(t, err, ErrNotApplicable)
}

func TestFallback90_UsesFirstPeak(t *testing.T) {
	c := curve.Curve{
		Stress: []float64{1, 4, 2, 4},
		Strain: []float64{0.1, 0.2, 0.3, 0.4},
	}
	p, err := fallback90(Input{Raw: c})
	require.NoError(t, err)
	assert.InDelta(t, 3.6, p.Strength, 1e-12)
	assert.InDelta(t, 0.18, p.Strain, 1e-12)
}
// #endregion tier-tests
