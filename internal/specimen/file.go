package specimen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// #region file-format
// File is the on-disk specimen settings document. JSON and YAML share the same keys.
type File struct {
	CrossSectionalAreas map[string]float64 `json:"cross_sectional_areas" yaml:"cross_sectional_areas"`
	GaugeLengths        map[string]float64 `json:"gauge_lengths,omitempty" yaml:"gauge_lengths,omitempty"`
	LegendTexts         map[string]string  `json:"legend_texts,omitempty" yaml:"legend_texts,omitempty"`
}

// Table converts the document into a Table, validating every entry.
// Gauge lengths and labels without an area are ignored.
func (f File) Table() (*Table, error) {
	entries := make(map[string]Config, len(f.CrossSectionalAreas))
	for id, area := range f.CrossSectionalAreas {
		cfg := Config{
			CrossSectionalArea: area,
			GaugeLength:        f.GaugeLengths[id],
			Label:              f.LegendTexts[id],
		}
		if err := Validate(cfg); err != nil {
			return nil, fmt.Errorf("specimen %q: %w", id, err)
		}
		entries[id] = cfg
	}
	return NewTable(entries), nil
}

// FileFromTable builds the document for t.
func FileFromTable(t *Table) File {
	f := File{
		CrossSectionalAreas: map[string]float64{},
		GaugeLengths:        map[string]float64{},
		LegendTexts:         map[string]string{},
	}
	for id, cfg := range t.Entries() {
		f.CrossSectionalAreas[id] = cfg.CrossSectionalArea
		if cfg.GaugeLength > 0 {
			f.GaugeLengths[id] = cfg.GaugeLength
		}
		if cfg.Label != "" {
			f.LegendTexts[id] = cfg.Label
		}
	}
	return f
}
// #endregion file-format

// #region load-save
// LoadFile reads a specimen settings document. Files ending in .json are
// decoded as JSON, everything else as YAML.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read specimen file: %w", err)
	}
	var f File
	if isJSON(path) {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("decode specimen file %s: %w", path, err)
	}
	return f.Table()
}

// SaveFile writes t to path in the format implied by its extension.
func SaveFile(path string, t *Table) error {
	f := FileFromTable(t)
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(f, "", "  ")
	} else {
		data, err = yaml.Marshal(f)
	}
	if err != nil {
		return fmt.Errorf("encode specimen file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write specimen file: %w", err)
	}
	return nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
// #endregion load-save
