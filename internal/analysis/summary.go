package analysis

import (
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/smooth"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/yield"
)

// #region summary
// BatchSummary aggregates a batch of results.
type BatchSummary struct {
	Total       int
	Complete    int
	ByKind      map[ErrorKind]int
	ByMethod    map[yield.Method]int
	Degraded    int
	Approximate int
}

// Summarize counts outcomes across results.
func Summarize(results []SpecimenResult) BatchSummary {
	s := BatchSummary{
		Total:    len(results),
		ByKind:   make(map[ErrorKind]int),
		ByMethod: make(map[yield.Method]int),
	}
	for _, r := range results {
		if r.OK() {
			s.Complete++
		} else {
			s.ByKind[r.ErrorKind]++
		}
		if r.YieldMethod != "" {
			s.ByMethod[r.YieldMethod]++
		}
		if r.Smoothing == smooth.ModeMovingAverage {
			s.Degraded++
		}
		if r.YieldStrength != nil && r.YieldMethod.Approximate() {
			s.Approximate++
		}
	}
	return s
}
// #endregion summary
