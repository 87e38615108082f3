package yield

import (
	"errors"
)

// Method tags how a yield estimate was obtained.
type Method string

const (
	MethodPrimary        Method = "primary"
	MethodRefitWide      Method = "refit_wide"
	MethodRefitNarrow    Method = "refit_narrow"
	MethodFallback90     Method = "fallback_90"
	MethodDegradedSmooth Method = "degraded_smooth"
	MethodDegradedApprox Method = "degraded_approx"
	MethodUnresolved     Method = "unresolved"
)

// Approximate reports whether the method derives yield from max stress
// rather than an offset-line intersection.
func (m Method) Approximate() bool {
	return m == MethodFallback90 || m == MethodDegradedApprox
}

// Outcome is what happened when a tier ran.
type Outcome string

const (
	OutcomeHit     Outcome = "hit"
	OutcomeMiss    Outcome = "miss"
	OutcomeError   Outcome = "error"
	OutcomeSkipped Outcome = "skipped"
)

// OffsetStrain is the 0.2% proof offset.
const OffsetStrain = 0.002

var (
	// ErrComputation marks a yield determination that produced no value.
	ErrComputation = errors.New("yield strength computation failed")
	// ErrNotApplicable is returned by tiers whose preconditions do not hold.
	ErrNotApplicable = errors.New("tier not applicable")
)

// #region types
// Point is a yield strength (MPa) and the strain it occurs at.
type Point struct {
	Strength float64
	Strain   float64
}

// Attempt records one tier's outcome.
type Attempt struct {
	Method  Method  `json:"method"`
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

// Estimate is the solver's answer. Strength and Strain are nil when unresolved.
type Estimate struct {
	Strength *float64
	Strain   *float64
	Method   Method
	Attempts []Attempt
}

// Resolved reports whether the estimate carries a value.
func (e Estimate) Resolved() bool {
	return e.Strength != nil && e.Strain != nil
}
// #endregion types
