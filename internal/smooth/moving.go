package smooth

// #region moving-average
// MovingAverage is a boxcar mean in "valid" mode: the output has
// n-window+1 samples and strain is trimmed to strain[window-1:].
type MovingAverage struct{}

func (MovingAverage) Mode() Mode { return ModeMovingAverage }

func (MovingAverage) Smooth(stress, strain []float64, window int) (Series, error) {
	if err := checkInputs(stress, strain, window); err != nil {
		return Series{}, err
	}
	n := len(stress) - window + 1
	inv := 1 / float64(window)
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var acc float64
		for j := 0; j < window; j++ {
			acc += stress[k+j] * inv
		}
		out[k] = acc
	}
	trimmed := make([]float64, n)
	copy(trimmed, strain[window-1:])
	return Series{Stress: out, Strain: trimmed, Window: window, Mode: ModeMovingAverage}, nil
}
// #endregion moving-average
