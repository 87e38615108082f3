package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/smooth"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/specimen"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/synth"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a regression fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	Config          FixtureConfig           `json:"config"`
	Specimens       []FixtureSpecimen       `json:"specimens"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureConfig mirrors analysis.EngineConfig with JSON tags.
type FixtureConfig struct {
	GaugeLength float64 `json:"gauge_length"`
	Smoothing   string  `json:"smoothing"`
}

// FixtureSpecimen is either an inline curve or a synth generator reference.
// A zero cross_sectional_area leaves the specimen unconfigured.
type FixtureSpecimen struct {
	ID                 string         `json:"id"`
	CrossSectionalArea float64        `json:"cross_sectional_area,omitempty"`
	GaugeLength        float64        `json:"gauge_length,omitempty"`
	Load               []float64      `json:"load,omitempty"`
	Displacement       []float64      `json:"displacement,omitempty"`
	Synth              *synth.Params  `json:"synth,omitempty"`
}

// FixtureExpectedResult captures what the engine should report per specimen.
// Nil numeric fields are not checked.
type FixtureExpectedResult struct {
	SpecimenID      string   `json:"specimen_id"`
	YieldMethod     string   `json:"yield_method"`
	ErrorKind       string   `json:"error_kind"`
	YieldStrength   *float64 `json:"yield_strength,omitempty"`
	TensileStrength *float64 `json:"tensile_strength,omitempty"`
	Tolerance       float64  `json:"tolerance,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToEngineConfig converts the fixture config, filling defaults.
func (c FixtureConfig) ToEngineConfig() analysis.EngineConfig {
	cfg := analysis.DefaultEngineConfig()
	if c.GaugeLength > 0 {
		cfg.GaugeLength = c.GaugeLength
	}
	if c.Smoothing != "" {
		cfg.Smoothing = smooth.Mode(c.Smoothing)
	}
	return cfg
}

// ToSpecimen materializes the curve, running the generator when one is named.
func (fs FixtureSpecimen) ToSpecimen() (analysis.Specimen, error) {
	if fs.Synth == nil {
		return analysis.Specimen{ID: fs.ID, Load: fs.Load, Displacement: fs.Displacement}, nil
	}
	gen, err := synth.Generate(fs.ID, *fs.Synth)
	if err != nil {
		return analysis.Specimen{}, err
	}
	return analysis.Specimen{ID: fs.ID, Load: gen.Load, Displacement: gen.Displacement}, nil
}

// Table builds the config table for the configured specimens.
func (f *Fixture) Table() *specimen.Table {
	entries := make(map[string]specimen.Config)
	for _, fs := range f.Specimens {
		if fs.CrossSectionalArea == 0 {
			continue
		}
		entries[fs.ID] = specimen.Config{CrossSectionalArea: fs.CrossSectionalArea, GaugeLength: fs.GaugeLength}
	}
	return specimen.NewTable(entries)
}

// #endregion fixture-loader

// #region fixture-export

// FromResults builds a fixture whose expectations are the given results,
// so the current behaviour can be pinned as a regression baseline.
func FromResults(description string, config analysis.EngineConfig, specimens []analysis.Specimen, table *specimen.Table, results []analysis.SpecimenResult) Fixture {
	f := Fixture{
		Description: description,
		Config:      FixtureConfig{GaugeLength: config.GaugeLength, Smoothing: string(config.Smoothing)},
	}
	for _, s := range specimens {
		fs := FixtureSpecimen{ID: s.ID, Load: s.Load, Displacement: s.Displacement}
		if cfg, ok := table.Lookup(s.ID); ok {
			fs.CrossSectionalArea = cfg.CrossSectionalArea
			fs.GaugeLength = cfg.GaugeLength
		}
		f.Specimens = append(f.Specimens, fs)
	}
	for _, r := range results {
		f.ExpectedResults = append(f.ExpectedResults, FixtureExpectedResult{
			SpecimenID:      r.SpecimenID,
			YieldMethod:     string(r.YieldMethod),
			ErrorKind:       string(r.ErrorKind),
			YieldStrength:   r.YieldStrength,
			TensileStrength: r.TensileStrength,
			Tolerance:       1e-9,
		})
	}
	return f
}

// Save writes the fixture as indented JSON.
func (f Fixture) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion fixture-export
