package smooth

import (
	"errors"
	"fmt"
)

// Mode identifies which smoother produced a Series.
type Mode string

const (
	ModeSavitzkyGolay Mode = "savitzky_golay"
	ModeMovingAverage Mode = "moving_average"
)

const (
	minWindow   = 5
	maxWindow   = 15
	windowRatio = 8
)

var (
	ErrWindow   = errors.New("invalid smoothing window")
	ErrSingular = errors.New("smoothing design matrix is singular")
)

// #region types
// Series is the output of a smoother. Strain may be shorter than the raw
// strain when the smoother trims edges (moving average).
type Series struct {
	Stress []float64
	Strain []float64
	Window int
	Mode   Mode
}

// Len returns the number of smoothed samples.
func (s Series) Len() int {
	return len(s.Stress)
}

// Smoother reduces noise in a stress sequence while keeping strain aligned.
type Smoother interface {
	Mode() Mode
	Smooth(stress, strain []float64, window int) (Series, error)
}
// #endregion types

// #region window
// WindowSize is clamp(n/8, 5, 15).
func WindowSize(n int) int {
	w := n / windowRatio
	if w < minWindow {
		return minWindow
	}
	if w > maxWindow {
		return maxWindow
	}
	return w
}
// #endregion window

// #region chain
// Chain tries smoothers in order and returns the first successful Series
// along with the errors of the ones that failed before it.
func Chain(stress, strain []float64, window int, smoothers ...Smoother) (Series, []error, error) {
	var failures []error
	for _, sm := range smoothers {
		out, err := sm.Smooth(stress, strain, window)
		if err == nil {
			return out, failures, nil
		}
		failures = append(failures, fmt.Errorf("%s: %w", sm.Mode(), err))
	}
	return Series{}, failures, fmt.Errorf("all smoothers failed: %w", errors.Join(failures...))
}
// #endregion chain

func checkInputs(stress, strain []float64, window int) error {
	if len(stress) != len(strain) {
		return fmt.Errorf("%w: stress has %d samples, strain %d", ErrWindow, len(stress), len(strain))
	}
	if window < 1 || window > len(stress) {
		return fmt.Errorf("%w: window %d for %d samples", ErrWindow, window, len(stress))
	}
	return nil
}
