package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/smooth"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/specimen"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/synth"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/yield"
)

// #region helpers
func unitConfig() *specimen.Config {
	return &specimen.Config{CrossSectionalArea: 1}
}

// plateauSpecimen builds a linear ramp to 1 MPa at 1% strain over 100
// samples followed by 100 samples of constant load while displacement keeps
// rising to twice its ramp value.
func plateauSpecimen(gauge float64) (load, disp []float64) {
	load = make([]float64, 200)
	disp = make([]float64, 200)
	for i := 0; i < 100; i++ {
		load[i] = 100 * (float64(i) / 9900)
		disp[i] = float64(i) / 9900 * gauge
	}
	for i := 100; i < 200; i++ {
		load[i] = load[99]
		disp[i] = disp[99] * (1 + float64(i-99)/100)
	}
	return load, disp
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, v := range xs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

type failingSmoother struct{}

func (failingSmoother) Mode() smooth.Mode { return smooth.ModeSavitzkyGolay }
func (failingSmoother) Smooth([]float64, []float64, int) (smooth.Series, error) {
	return smooth.Series{}, errors.New("lapack unavailable")
}

func assertNoNumbers(t *testing.T, r SpecimenResult) {
	t.Helper()
	assert.Nil(t, r.YieldStrength)
	assert.Nil(t, r.YieldStrain)
	assert.Nil(t, r.TensileStrength)
	assert.Nil(t, r.ElongationPercent)
}
// #endregion helpers

// #region precondition-tests
func TestCompute_InsufficientData(t *testing.T) {
	e := NewEngine(DefaultEngineConfig(), nil)
	for _, n := range []int{0, 1, 19} {
		load := make([]float64, n)
		disp := make([]float64, n)
		r := e.ComputeSpecimenResult("S", load, disp, unitConfig(), 10)

		assert.Equal(t, KindInsufficientData, r.ErrorKind, "n=%d", n)
		assert.Contains(t, r.ErrorMessage, "insufficient data")
		assert.Equal(t, n, r.PointCount)
		assertNoNumbers(t, r)
	}
}

func TestCompute_InsufficientDataCheckedBeforeConfig(t *testing.T) {
	r := NewEngine(DefaultEngineConfig(), nil).ComputeSpecimenResult("S", make([]float64, 5), make([]float64, 5), nil, 10)
	assert.Equal(t, KindInsufficientData, r.ErrorKind)
}

func TestCompute_MissingConfig(t *testing.T) {
	e := NewEngine(DefaultEngineConfig(), nil)
	load, disp := plateauSpecimen(10)
	r := e.ComputeSpecimenResult("S", load, disp, nil, 10)

	assert.Equal(t, KindMissingConfig, r.ErrorKind)
	assert.Contains(t, r.ErrorMessage, "cross-sectional area")
	assert.Equal(t, 200, r.PointCount)
	assert.Nil(t, r.CrossSectionalArea)
	assertNoNumbers(t, r)
}

func TestCompute_InvalidArea(t *testing.T) {
	load, disp := plateauSpecimen(10)
	r := NewEngine(DefaultEngineConfig(), nil).ComputeSpecimenResult("S", load, disp, &specimen.Config{CrossSectionalArea: 0}, 10)
	assert.Equal(t, KindComputationError, r.ErrorKind)
	assertNoNumbers(t, r)
}

func TestCompute_LengthMismatch(t *testing.T) {
	load, disp := plateauSpecimen(10)
	r := NewEngine(DefaultEngineConfig(), nil).ComputeSpecimenResult("S", load, disp[:150], unitConfig(), 10)
	assert.Equal(t, KindComputationError, r.ErrorKind)
	assert.Contains(t, r.ErrorMessage, "lengths differ")
}

func TestCompute_TwentyPointBoundary(t *testing.T) {
	load := make([]float64, 20)
	disp := make([]float64, 20)
	for i := range load {
		load[i] = float64(i) * 5
		disp[i] = float64(i) * 0.01
	}
	r := NewEngine(DefaultEngineConfig(), nil).ComputeSpecimenResult("S20", load, disp, unitConfig(), 10)

	assert.NotEqual(t, KindInsufficientData, r.ErrorKind)
	require.NotNil(t, r.TensileStrength)
	assert.Equal(t, 95.0, *r.TensileStrength)
}
// #endregion precondition-tests

// #region property-tests
func TestCompute_TensileAndElongationExact(t *testing.T) {
	stress, strain := synth.Ductile(synth.DefaultDuctile(), 300)
	rec := synth.FromStressStrain("D", stress, strain, 12.5, 25)

	cfg := &specimen.Config{CrossSectionalArea: 12.5}
	r := NewEngine(DefaultEngineConfig(), nil).ComputeSpecimenResult("D", rec.Load, rec.Displacement, cfg, 25)

	require.NotNil(t, r.TensileStrength)
	require.NotNil(t, r.ElongationPercent)
	assert.Equal(t, maxOf(rec.Load)/12.5, *r.TensileStrength)
	assert.Equal(t, (maxOf(rec.Displacement)/25)*100, *r.ElongationPercent)
	assert.Equal(t, 12.5, *r.CrossSectionalArea)
	assert.Equal(t, 25.0, r.GaugeLength)
}

func TestCompute_FlatPlateauFallsBackTo90(t *testing.T) {
	load, disp := plateauSpecimen(10)
	r := NewEngine(DefaultEngineConfig(), nil).ComputeSpecimenResult("plateau", load, disp, unitConfig(), 10)

	require.True(t, r.OK(), r.ErrorMessage)
	assert.Equal(t, yield.MethodFallback90, r.YieldMethod)
	assert.Equal(t, smooth.ModeSavitzkyGolay, r.Smoothing)

	maxStress := maxOf(load)
	strainAtMax := disp[99] / 10
	assert.InEpsilon(t, 0.9*maxStress, *r.YieldStrength, 1e-6)
	assert.InEpsilon(t, 0.9*strainAtMax, *r.YieldStrain, 1e-6)
	assert.Equal(t, "ok", r.Remark())
}

func TestCompute_YieldNotAboveTensileForOffsetHits(t *testing.T) {
	s, err := synth.Generate("toe", synth.Params{Kind: synth.KindToe, Points: 200})
	require.NoError(t, err)
	r := NewEngine(DefaultEngineConfig(), nil).ComputeSpecimenResult("toe", s.Load, s.Displacement, unitConfig(), 10)

	require.True(t, r.OK(), r.ErrorMessage)
	assert.Equal(t, yield.MethodPrimary, r.YieldMethod)
	assert.LessOrEqual(t, *r.YieldStrength, *r.TensileStrength)
}

func TestCompute_DegradedWhenSmootherFails(t *testing.T) {
	load, disp := plateauSpecimen(10)
	e := NewEngine(DefaultEngineConfig(), nil).WithSmoothers(failingSmoother{}, smooth.MovingAverage{})
	r := e.ComputeSpecimenResult("plateau", load, disp, unitConfig(), 10)

	require.True(t, r.OK(), r.ErrorMessage)
	assert.Equal(t, smooth.ModeMovingAverage, r.Smoothing)
	assert.Equal(t, yield.MethodDegradedApprox, r.YieldMethod)
	assert.InEpsilon(t, 0.88*maxOf(load), *r.YieldStrength, 1e-9)
}

func TestCompute_AllSmoothersFailKeepsTensile(t *testing.T) {
	load, disp := plateauSpecimen(10)
	e := NewEngine(DefaultEngineConfig(), nil).WithSmoothers(failingSmoother{})
	r := e.ComputeSpecimenResult("plateau", load, disp, unitConfig(), 10)

	assert.Equal(t, KindComputationError, r.ErrorKind)
	assert.Contains(t, r.ErrorMessage, "yield strength computation failed")
	assert.Nil(t, r.YieldStrength)
	require.NotNil(t, r.TensileStrength)
	require.NotNil(t, r.ElongationPercent)
}

func TestCompute_Deterministic(t *testing.T) {
	s, err := synth.Generate("n", synth.Params{Kind: synth.KindDuctile, Points: 500, Noise: 2, Seed: 11})
	require.NoError(t, err)
	e := NewEngine(DefaultEngineConfig(), nil)
	cfg := unitConfig()

	a := e.ComputeSpecimenResult("n", s.Load, s.Displacement, cfg, 10)
	b := e.ComputeSpecimenResult("n", s.Load, s.Displacement, cfg, 10)
	assert.Equal(t, a, b)
}
// #endregion property-tests

// #region batch-tests
func batchFixture(t *testing.T) ([]Specimen, *specimen.Table) {
	t.Helper()
	var specimens []Specimen
	for i, kind := range []synth.Kind{synth.KindDuctile, synth.KindToe, synth.KindPlateau, synth.KindRamp} {
		s, err := synth.Generate(string(kind), synth.Params{Kind: kind, Points: 120 + 40*i, Noise: 0.01, Seed: int64(i)})
		require.NoError(t, err)
		specimens = append(specimens, Specimen{ID: s.ID, Load: s.Load, Displacement: s.Displacement})
	}
	specimens = append(specimens,
		Specimen{ID: "short", Load: make([]float64, 5), Displacement: make([]float64, 5)},
		Specimen{ID: "unconfigured", Load: specimens[0].Load, Displacement: specimens[0].Displacement},
	)
	table := specimen.NewTable(map[string]specimen.Config{
		"ductile": {CrossSectionalArea: 1},
		"toe":     {CrossSectionalArea: 1},
		"plateau": {CrossSectionalArea: 1},
		"ramp":    {CrossSectionalArea: 1},
		"short":   {CrossSectionalArea: 1},
	})
	return specimens, table
}

func TestProcessBatch_IsolatesFailures(t *testing.T) {
	specimens, table := batchFixture(t)
	results := NewEngine(DefaultEngineConfig(), nil).ProcessBatch(specimens, table)

	require.Len(t, results, len(specimens))
	for i, r := range results {
		assert.Equal(t, specimens[i].ID, r.SpecimenID)
	}
	assert.Equal(t, KindInsufficientData, results[4].ErrorKind)
	assert.Equal(t, KindMissingConfig, results[5].ErrorKind)
	for _, r := range results[:4] {
		assert.True(t, r.OK(), "%s: %s", r.SpecimenID, r.ErrorMessage)
		assert.NotNil(t, r.TensileStrength, r.SpecimenID)
		assert.NotNil(t, r.YieldStrength, r.SpecimenID)
		assert.NotNil(t, r.ElongationPercent, r.SpecimenID)
	}

	sum := Summarize(results)
	assert.Equal(t, 6, sum.Total)
	assert.Equal(t, 1, sum.ByKind[KindInsufficientData])
	assert.Equal(t, 1, sum.ByKind[KindMissingConfig])
}

func TestProcessBatchParallel_MatchesSequential(t *testing.T) {
	specimens, table := batchFixture(t)
	e := NewEngine(DefaultEngineConfig(), nil)

	want := e.ProcessBatch(specimens, table)
	for _, workers := range []int{0, 1, 3, 16} {
		got, err := e.ProcessBatchParallel(context.Background(), specimens, table, workers)
		require.NoError(t, err)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

func TestProcessBatchParallel_Canceled(t *testing.T) {
	specimens, table := batchFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(DefaultEngineConfig(), nil).ProcessBatchParallel(ctx, specimens, table, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
// #endregion batch-tests
