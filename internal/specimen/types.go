package specimen

import (
	"sort"
)

// DefaultGaugeLength is the extensometer gauge length in mm applied when
// neither the specimen nor the caller supplies one.
const DefaultGaugeLength = 10.0

// #region config
// Config holds the per-specimen parameters the engine needs beyond the raw curve.
type Config struct {
	CrossSectionalArea float64 `json:"cross_sectional_area" yaml:"cross_sectional_area" validate:"gt=0"`
	GaugeLength        float64 `json:"gauge_length,omitempty" yaml:"gauge_length,omitempty" validate:"gte=0"`
	Label              string  `json:"label,omitempty" yaml:"label,omitempty" validate:"max=120"`
}

// EffectiveGaugeLength resolves the gauge length for this specimen.
// A positive per-specimen value wins, then the caller's value, then DefaultGaugeLength.
func (c Config) EffectiveGaugeLength(fallback float64) float64 {
	if c.GaugeLength > 0 {
		return c.GaugeLength
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultGaugeLength
}
// #endregion config

// #region table
// Table is an immutable lookup from specimen identifier to Config.
// A nil *Table behaves as an empty table.
type Table struct {
	entries map[string]Config
}

// NewTable copies entries into a new Table.
func NewTable(entries map[string]Config) *Table {
	t := &Table{entries: make(map[string]Config, len(entries))}
	for id, cfg := range entries {
		t.entries[id] = cfg
	}
	return t
}

// Lookup returns the config for id and whether it exists.
func (t *Table) Lookup(id string) (Config, bool) {
	if t == nil {
		return Config{}, false
	}
	cfg, ok := t.entries[id]
	return cfg, ok
}

// Len returns the number of configured specimens.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// IDs returns specimen identifiers in sorted order.
func (t *Table) IDs() []string {
	if t == nil {
		return nil
	}
	ids := make([]string, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// With returns a copy of the table with id set to cfg.
func (t *Table) With(id string, cfg Config) *Table {
	next := NewTable(t.snapshot())
	next.entries[id] = cfg
	return next
}

// Merge returns a copy of the table overlaid with other. Entries in other win.
func (t *Table) Merge(other *Table) *Table {
	next := NewTable(t.snapshot())
	for id, cfg := range other.snapshot() {
		next.entries[id] = cfg
	}
	return next
}

// Label returns the display label for id, falling back to the id itself.
func (t *Table) Label(id string) string {
	if cfg, ok := t.Lookup(id); ok && cfg.Label != "" {
		return cfg.Label
	}
	return id
}

// Entries returns a copy of the underlying map.
func (t *Table) Entries() map[string]Config {
	return t.snapshot()
}

func (t *Table) snapshot() map[string]Config {
	if t == nil {
		return map[string]Config{}
	}
	out := make(map[string]Config, len(t.entries))
	for id, cfg := range t.entries {
		out[id] = cfg
	}
	return out
}
// #endregion table
