package elastic

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bigStep keeps Δstrain large enough that the 1e-10 ratio guard rounds away,
// so constant-slope data yields bit-identical ratios.
const bigStep = 1 << 20

func linear(n int, dx, slope float64) (stress, strain []float64) {
	stress = make([]float64, n)
	strain = make([]float64, n)
	for i := 0; i < n; i++ {
		strain[i] = float64(i) * dx
		stress[i] = slope * strain[i]
	}
	return stress, strain
}

// #region ratio-tests
func TestRatios(t *testing.T) {
	r := Ratios([]float64{0, 10, 30}, []float64{0, 1, 2})
	require.Len(t, r, 2)
	chk.Float64(t, "r0", 1e-8, r[0], 10)
	chk.Float64(t, "r1", 1e-8, r[1], 20)
	assert.Nil(t, Ratios([]float64{1}, []float64{1}))
}
// #endregion ratio-tests

// #region region-end-tests
func TestRegionEnd_PurelyLinearSpansAllRatios(t *testing.T) {
	stress, strain := linear(40, bigStep, 100)
	assert.Equal(t, 39, RegionEnd(stress, strain))
}

func TestRegionEnd_StopsAtFirstDeviatingWindow(t *testing.T) {
	n := 100
	stress := make([]float64, n)
	strain := make([]float64, n)
	for i := 0; i < n; i++ {
		strain[i] = float64(i) * bigStep
		if i <= 50 {
			stress[i] = 10 * strain[i]
		} else {
			stress[i] = 500 * bigStep
		}
	}
	// sliding window is 99/20 = 4 ratios; ratio 50 is the first flat one
	assert.Equal(t, 47, RegionEnd(stress, strain))
}

func TestRegionEnd_ShortRegionIsReplaced(t *testing.T) {
	n := 21
	stress := make([]float64, n)
	strain := make([]float64, n)
	for i := 0; i < n; i++ {
		strain[i] = float64(i) * bigStep
		if i <= 6 {
			stress[i] = 10 * strain[i]
		} else {
			stress[i] = 60 * bigStep
		}
	}
	assert.Equal(t, 10, RegionEnd(stress, strain))
}
// #endregion region-end-tests

// #region fit-tests
func TestFitLine_Exact(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5}
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = 3*v + 2
	}
	line, err := FitLine(x, y)
	require.NoError(t, err)
	chk.Float64(t, "slope", 1e-12, line.Slope, 3)
	chk.Float64(t, "intercept", 1e-12, line.Intercept, 2)
	chk.Float64(t, "at", 1e-12, line.At(10), 32)
}

func TestFitLine_Degenerate(t *testing.T) {
	_, err := FitLine([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrDegenerateFit)
}

func TestFitPrefix_Underdetermined(t *testing.T) {
	stress, strain := linear(30, 0.1, 5)
	_, err := FitPrefix(stress, strain, MinFitPoints-1)
	assert.ErrorIs(t, err, ErrElasticFitUnderdetermined)

	_, err = FitPrefix(stress, strain, MinFitPoints)
	assert.NoError(t, err)
}

func TestDetect_LinearCurve(t *testing.T) {
	stress, strain := linear(40, bigStep, 100)
	fit, err := Detect(stress, strain)
	require.NoError(t, err)
	assert.Equal(t, 39, fit.RegionEnd)
	chk.Float64(t, "slope", 1e-9, fit.Slope, 100)
	chk.Float64(t, "intercept", 1e-3, fit.Intercept, 0)
}
// #endregion fit-tests
