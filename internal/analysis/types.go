package analysis

import (
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/smooth"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/yield"
)

// ErrorKind classifies why a result is incomplete.
type ErrorKind string

const (
	KindNone                      ErrorKind = ""
	KindInsufficientData          ErrorKind = "insufficient_data"
	KindMissingConfig             ErrorKind = "missing_config"
	KindElasticFitUnderdetermined ErrorKind = "elastic_fit_underdetermined"
	KindComputationError          ErrorKind = "computation_error"
	KindUnresolved                ErrorKind = "unresolved"
)

// Messages carried in SpecimenResult.ErrorMessage.
const (
	msgInsufficientData = "insufficient data: need at least 20 points"
	msgMissingConfig    = "missing cross-sectional area"
)

// #region specimen
// Specimen is one raw load-displacement record.
type Specimen struct {
	ID           string    `json:"id"`
	Load         []float64 `json:"load"`
	Displacement []float64 `json:"displacement"`
}
// #endregion specimen

// #region result
// SpecimenResult is the outcome of analyzing one specimen. Optional values
// are nil when they could not be determined.
type SpecimenResult struct {
	SpecimenID         string          `json:"specimen_id"`
	PointCount         int             `json:"point_count"`
	CrossSectionalArea *float64        `json:"cross_sectional_area"`
	GaugeLength        float64         `json:"gauge_length,omitempty"`
	YieldStrength      *float64        `json:"yield_strength"`
	YieldStrain        *float64        `json:"yield_strain"`
	TensileStrength    *float64        `json:"tensile_strength"`
	ElongationPercent  *float64        `json:"elongation_percent"`
	YieldMethod        yield.Method    `json:"yield_method,omitempty"`
	Smoothing          smooth.Mode     `json:"smoothing,omitempty"`
	Attempts           []yield.Attempt `json:"attempts,omitempty"`
	ErrorKind          ErrorKind       `json:"error_kind,omitempty"`
	ErrorMessage       string          `json:"error_message,omitempty"`
}

// OK reports whether every property was determined.
func (r SpecimenResult) OK() bool {
	return r.ErrorKind == KindNone
}

// Remark is the short status text used in reports.
func (r SpecimenResult) Remark() string {
	if r.ErrorMessage == "" {
		return "ok"
	}
	return r.ErrorMessage
}
// #endregion result

func floatPtr(v float64) *float64 {
	return &v
}
