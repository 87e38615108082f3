package smooth

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// #region savitzky-golay
// SavitzkyGolay fits a polynomial of Order by least squares over a sliding
// window and replaces each sample with the fitted value at the window
// centre. With an even window the centre falls half a sample after the
// output index. Samples within half a window of either end are evaluated
// at their own position on the first or last full window.
type SavitzkyGolay struct {
	Order int
}

// NewSavitzkyGolay returns the quadratic smoother used by the engine.
func NewSavitzkyGolay() SavitzkyGolay {
	return SavitzkyGolay{Order: 2}
}

func (SavitzkyGolay) Mode() Mode { return ModeSavitzkyGolay }

func (f SavitzkyGolay) Smooth(stress, strain []float64, window int) (Series, error) {
	if err := checkInputs(stress, strain, window); err != nil {
		return Series{}, err
	}
	if f.Order < 0 || f.Order >= window {
		return Series{}, fmt.Errorf("%w: order %d needs a window wider than %d", ErrWindow, f.Order, window)
	}
	proj, centre, err := projection(window, f.Order)
	if err != nil {
		return Series{}, err
	}

	n := len(stress)
	edge := window / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var start int
		var weights []float64
		switch {
		case i < edge:
			weights = proj.RawRowView(i)
		case i >= n-edge:
			start = n - window
			weights = proj.RawRowView(i - start)
		default:
			start = i - (window-1)/2
			weights = centre
		}
		var acc float64
		for j, w := range weights {
			acc += w * stress[start+j]
		}
		out[i] = acc
	}

	strainCopy := make([]float64, n)
	copy(strainCopy, strain)
	return Series{Stress: out, Strain: strainCopy, Window: window, Mode: ModeSavitzkyGolay}, nil
}

// projection returns the hat matrix A (AᵀA)⁻¹ Aᵀ of a polynomial design
// over window equally spaced points, plus the weights that evaluate the
// fit at the window centre. Row r of the hat matrix evaluates it at point r.
func projection(window, order int) (*mat.Dense, []float64, error) {
	center := float64(window-1) / 2
	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		x := float64(i) - center
		p := 1.0
		for k := 0; k <= order; k++ {
			a.Set(i, k, p)
			p *= x
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	// coefficients are (AᵀA)⁻¹ Aᵀ y; the constant term is the value at x = 0
	var pinv mat.Dense
	pinv.Mul(&inv, a.T())
	centre := mat.Row(nil, 0, &pinv)

	var proj mat.Dense
	proj.Mul(a, &pinv)
	return &proj, centre, nil
}
// #endregion savitzky-golay
