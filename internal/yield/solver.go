package yield

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/curve"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/elastic"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/smooth"
)

// #region solver
// Solver runs a tier chain and records every attempt.
type Solver struct {
	logger logrus.FieldLogger
}

// NewSolver creates a solver. A nil logger discards output.
func NewSolver(logger logrus.FieldLogger) *Solver {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Solver{logger: logger}
}
// #endregion solver

// #region solve
// Solve determines yield for a raw curve and its smoothed series. Moving
// average input selects the degraded chain. The only error returned is
// elastic.ErrElasticFitUnderdetermined, which ends the determination with
// no fallback.
func (s *Solver) Solve(raw curve.Curve, smoothed smooth.Series) (Estimate, error) {
	in := Input{Raw: raw, Smoothed: smoothed}
	if smoothed.Mode == smooth.ModeMovingAverage {
		return s.Run(in, DegradedTiers()), nil
	}

	fit, err := elastic.Detect(smoothed.Stress, smoothed.Strain)
	in.Fit = fit
	if errors.Is(err, elastic.ErrElasticFitUnderdetermined) {
		s.logger.WithField("region_end", fit.RegionEnd).Debug("elastic fit underdetermined")
		return Estimate{
			Method:   MethodUnresolved,
			Attempts: []Attempt{{Method: MethodPrimary, Outcome: OutcomeError, Reason: err.Error()}},
		}, err
	}
	in.FitErr = err
	return s.Run(in, StandardTiers()), nil
}
// #endregion solve

// #region run
// Run tries tiers in order and returns the first hit. Numerical failures
// inside a tier are recorded and the next tier runs.
func (s *Solver) Run(in Input, tiers []Tier) Estimate {
	est := Estimate{Method: MethodUnresolved}
	for _, tier := range tiers {
		p, err := tryTier(tier, in)
		attempt := Attempt{Method: tier.Method}
		switch {
		case errors.Is(err, ErrNotApplicable):
			attempt.Outcome = OutcomeSkipped
			attempt.Reason = err.Error()
		case err != nil:
			attempt.Outcome = OutcomeError
			attempt.Reason = err.Error()
		case p == nil:
			attempt.Outcome = OutcomeMiss
		default:
			attempt.Outcome = OutcomeHit
		}
		est.Attempts = append(est.Attempts, attempt)
		s.logger.WithFields(logrus.Fields{
			"method":  tier.Method,
			"outcome": attempt.Outcome,
		}).Debug(attempt.Reason)

		if attempt.Outcome == OutcomeHit {
			strength, strain := p.Strength, p.Strain
			est.Strength = &strength
			est.Strain = &strain
			est.Method = tier.Method
			return est
		}
	}
	return est
}

// tryTier reports a panic inside a tier as an error.
func tryTier(tier Tier, in Input) (p *Point, err error) {
	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = fmt.Errorf("%s panicked: %v", tier.Method, r)
		}
	}()
	return tier.Try(in)
}
// #endregion run
