package synth

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cpmech/gosl/utl"
)

// #region types
// Specimen is a generated load-displacement record with the geometry used to build it.
type Specimen struct {
	ID                 string
	Load               []float64
	Displacement       []float64
	CrossSectionalArea float64
	GaugeLength        float64
}

// Kind names a generator.
type Kind string

const (
	KindPlateau Kind = "plateau"
	KindToe     Kind = "toe"
	KindRamp    Kind = "ramp"
	KindDuctile Kind = "ductile"
)

// Params selects and configures a generator.
type Params struct {
	Kind               Kind    `json:"kind" yaml:"kind"`
	Points             int     `json:"points" yaml:"points"`
	CrossSectionalArea float64 `json:"cross_sectional_area,omitempty" yaml:"cross_sectional_area,omitempty"`
	GaugeLength        float64 `json:"gauge_length,omitempty" yaml:"gauge_length,omitempty"`
	Noise              float64 `json:"noise,omitempty" yaml:"noise,omitempty"`
	Seed               int64   `json:"seed,omitempty" yaml:"seed,omitempty"`
}
// #endregion types

// #region generate
// Generate builds a specimen from params. Area and gauge length default to 1 and 10.
func Generate(id string, p Params) (Specimen, error) {
	if p.Points <= 0 {
		return Specimen{}, fmt.Errorf("synth %s: points must be positive", id)
	}
	area := p.CrossSectionalArea
	if area <= 0 {
		area = 1
	}
	gauge := p.GaugeLength
	if gauge <= 0 {
		gauge = 10
	}

	var stress, strain []float64
	switch p.Kind {
	case KindPlateau:
		stress, strain = Plateau(p.Points, 1.0, 0.01)
	case KindToe:
		stress, strain = Toe(p.Points)
	case KindRamp:
		stress, strain = Ramp(p.Points, 200, 1e-4)
	case KindDuctile:
		stress, strain = Ductile(DefaultDuctile(), p.Points)
	default:
		return Specimen{}, fmt.Errorf("synth %s: unknown kind %q", id, p.Kind)
	}
	if p.Noise > 0 {
		AddNoise(stress, p.Noise, p.Seed)
	}
	return FromStressStrain(id, stress, strain, area, gauge), nil
}

// FromStressStrain converts a stress-strain curve back to load and displacement.
func FromStressStrain(id string, stress, strain []float64, area, gauge float64) Specimen {
	s := Specimen{
		ID:                 id,
		Load:               make([]float64, len(stress)),
		Displacement:       make([]float64, len(strain)),
		CrossSectionalArea: area,
		GaugeLength:        gauge,
	}
	for i := range stress {
		s.Load[i] = stress[i] * area
		s.Displacement[i] = strain[i] * gauge
	}
	return s
}
// #endregion generate

// #region shapes

// Plateau ramps linearly to peak at peakStrain over the first half of n
// samples and holds peak for the rest while strain keeps growing.
func Plateau(n int, peak, peakStrain float64) (stress, strain []float64) {
	half := n / 2
	stress = utl.LinSpace(0, peak, half)
	strain = utl.LinSpace(0, peakStrain, half)
	if half > 0 {
		stress[half-1] = peak
		strain[half-1] = peakStrain
	}
	step := peakStrain / float64(half)
	for i := half; i < n; i++ {
		stress = append(stress, peak)
		strain = append(strain, peakStrain+float64(i-half+1)*step)
	}
	return stress, strain
}

// Toe is a compliant seating region (1000 MPa) for the first 30% of samples
// followed by a stiffer response (20000 MPa), with strain steps of 1e-4.
func Toe(n int) (stress, strain []float64) {
	knee := n * 3 / 10
	stress = make([]float64, n)
	strain = make([]float64, n)
	for i := 0; i < n; i++ {
		strain[i] = float64(i) * 1e-4
	}
	kneeStrain := strain[knee]
	for i := 0; i < n; i++ {
		if i <= knee {
			stress[i] = 1000 * strain[i]
			continue
		}
		stress[i] = 1000*kneeStrain + 20000*(strain[i]-kneeStrain)
	}
	return stress, strain
}

// Ramp is a straight line of the given modulus sampled every step of strain.
func Ramp(n int, modulus, step float64) (stress, strain []float64) {
	stress = make([]float64, n)
	strain = make([]float64, n)
	for i := 0; i < n; i++ {
		strain[i] = float64(i) * step
		stress[i] = modulus * strain[i]
	}
	return stress, strain
}

// DuctileParams describes an elastic, Voce-hardening, necking material.
type DuctileParams struct {
	Modulus       float64
	YieldStress   float64
	Saturation    float64
	HardeningRate float64
	NeckStrain    float64
	NeckSoftening float64
	MaxStrain     float64
}

// DefaultDuctile is a 6xxx-series aluminium-like response.
func DefaultDuctile() DuctileParams {
	return DuctileParams{
		Modulus:       70000,
		YieldStress:   250,
		Saturation:    60,
		HardeningRate: 25,
		NeckStrain:    0.09,
		NeckSoftening: 8000,
		MaxStrain:     0.12,
	}
}

// Ductile samples p at n evenly spaced strains.
func Ductile(p DuctileParams, n int) (stress, strain []float64) {
	strain = utl.LinSpace(0, p.MaxStrain, n)
	stress = make([]float64, n)
	elasticLimit := p.YieldStress / p.Modulus
	for i, e := range strain {
		if e <= elasticLimit {
			stress[i] = p.Modulus * e
			continue
		}
		s := p.YieldStress + p.Saturation*(1-math.Exp(-p.HardeningRate*(e-elasticLimit)))
		if e > p.NeckStrain {
			d := e - p.NeckStrain
			s -= p.NeckSoftening * d * d
		}
		stress[i] = math.Max(s, 0)
	}
	return stress, strain
}

// #endregion shapes

// #region noise
// AddNoise perturbs xs in place with Gaussian noise of the given standard
// deviation. The same seed yields the same perturbation.
func AddNoise(xs []float64, sigma float64, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range xs {
		xs[i] += rng.NormFloat64() * sigma
	}
}
// #endregion noise
