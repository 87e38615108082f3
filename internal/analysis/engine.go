package analysis

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/curve"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/elastic"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/smooth"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/specimen"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/yield"
)

// #region config
// EngineConfig controls engine-wide defaults.
type EngineConfig struct {
	// GaugeLength is used when neither the call nor the specimen config sets one.
	GaugeLength float64
	// Smoothing selects the first smoother tried. Moving average as the
	// first choice forces the degraded chain for every specimen.
	Smoothing smooth.Mode
}

// DefaultEngineConfig returns a 10 mm gauge length and Savitzky-Golay smoothing.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		GaugeLength: specimen.DefaultGaugeLength,
		Smoothing:   smooth.ModeSavitzkyGolay,
	}
}
// #endregion config

// #region engine
// Engine computes specimen results. It holds no per-specimen state and is
// safe for concurrent use.
type Engine struct {
	config    EngineConfig
	smoothers []smooth.Smoother
	logger    logrus.FieldLogger
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(config EngineConfig, logger logrus.FieldLogger) *Engine {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	if config.GaugeLength <= 0 {
		config.GaugeLength = specimen.DefaultGaugeLength
	}
	smoothers := []smooth.Smoother{smooth.NewSavitzkyGolay(), smooth.MovingAverage{}}
	if config.Smoothing == smooth.ModeMovingAverage {
		smoothers = []smooth.Smoother{smooth.MovingAverage{}}
	}
	return &Engine{config: config, smoothers: smoothers, logger: logger}
}

// WithSmoothers returns a copy of the engine that tries smoothers in the given order.
func (e *Engine) WithSmoothers(smoothers ...smooth.Smoother) *Engine {
	next := *e
	next.smoothers = smoothers
	return &next
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}
// #endregion engine

// #region compute
// ComputeSpecimenResult analyzes one specimen. It never returns an error;
// failures are carried in ErrorKind and ErrorMessage. A non-positive
// gaugeLength falls back to the specimen config and then the engine default.
func (e *Engine) ComputeSpecimenResult(id string, load, displacement []float64, cfg *specimen.Config, gaugeLength float64) SpecimenResult {
	log := e.logger.WithField("specimen", id)
	res := SpecimenResult{SpecimenID: id, PointCount: len(load)}
	if cfg != nil {
		res.CrossSectionalArea = floatPtr(cfg.CrossSectionalArea)
	}

	if len(load) < curve.MinPoints || len(displacement) < curve.MinPoints {
		return fail(res, KindInsufficientData, msgInsufficientData)
	}
	if cfg == nil {
		return fail(res, KindMissingConfig, msgMissingConfig)
	}
	if err := specimen.Validate(*cfg); err != nil {
		return fail(res, KindComputationError, err.Error())
	}

	if gaugeLength <= 0 {
		gaugeLength = e.config.GaugeLength
	}
	res.GaugeLength = cfg.EffectiveGaugeLength(gaugeLength)

	c, err := curve.Transform(load, displacement, cfg.CrossSectionalArea, res.GaugeLength)
	if err != nil {
		return fail(res, KindComputationError, err.Error())
	}
	summary, err := curve.Summarize(c)
	if err != nil {
		return fail(res, KindComputationError, err.Error())
	}
	res.TensileStrength = floatPtr(summary.TensileStrength)
	res.ElongationPercent = floatPtr(summary.ElongationPercent)

	smoothed, failures, err := smooth.Chain(c.Stress, c.Strain, smooth.WindowSize(c.Len()), e.smoothers...)
	for _, f := range failures {
		log.WithError(f).Warn("smoother failed")
	}
	if err != nil {
		return fail(res, KindComputationError, fmt.Sprintf("%s: %v", yield.ErrComputation, err))
	}
	res.Smoothing = smoothed.Mode

	est, err := yield.NewSolver(log).Solve(c, smoothed)
	res.Attempts = est.Attempts
	res.YieldMethod = est.Method
	switch {
	case errors.Is(err, elastic.ErrElasticFitUnderdetermined):
		return fail(res, KindElasticFitUnderdetermined, fmt.Sprintf("%s: %v", yield.ErrComputation, err))
	case err != nil:
		return fail(res, KindComputationError, fmt.Sprintf("%s: %v", yield.ErrComputation, err))
	case !est.Resolved():
		return fail(res, KindUnresolved, yield.ErrComputation.Error())
	}
	res.YieldStrength = est.Strength
	res.YieldStrain = est.Strain

	log.WithFields(logrus.Fields{
		"method":    est.Method,
		"smoothing": smoothed.Mode,
	}).Debug("specimen analyzed")
	return res
}

func fail(res SpecimenResult, kind ErrorKind, msg string) SpecimenResult {
	res.ErrorKind = kind
	res.ErrorMessage = msg
	return res
}
// #endregion compute
