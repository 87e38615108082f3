package store

import "time"

// #region run-record
// RunRecord is one persisted batch analysis.
type RunRecord struct {
	RunID       string
	Source      string
	GaugeLength float64
	Smoothing   string
	Specimens   int
	Failures    int
	CreatedAt   time.Time
}

// RunSettings are the engine parameters recorded with a run.
type RunSettings struct {
	Source      string
	GaugeLength float64
	Smoothing   string
}
// #endregion run-record
