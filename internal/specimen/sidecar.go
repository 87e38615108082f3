package specimen

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	sidecarIDColumn   = "sheet_name"
	sidecarAreaColumn = "cross_sectional_area"
)

// #region sidecar
// SidecarPath returns the area sidecar CSV path that accompanies a workbook:
// same directory, same base name, .csv extension.
func SidecarPath(workbookPath string) string {
	ext := filepath.Ext(workbookPath)
	return strings.TrimSuffix(workbookPath, ext) + ".csv"
}

// ReadSidecar parses "sheet_name,cross_sectional_area" rows.
// Rows with an unparsable or non-positive area are skipped.
func ReadSidecar(r io.Reader) (map[string]float64, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read sidecar header: %w", err)
	}
	idCol, areaCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case sidecarIDColumn:
			idCol = i
		case sidecarAreaColumn:
			areaCol = i
		}
	}
	if idCol < 0 || areaCol < 0 {
		return nil, fmt.Errorf("sidecar header must contain %s and %s", sidecarIDColumn, sidecarAreaColumn)
	}

	areas := make(map[string]float64)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read sidecar row: %w", err)
		}
		if idCol >= len(rec) || areaCol >= len(rec) {
			continue
		}
		id := strings.TrimSpace(rec[idCol])
		area, err := strconv.ParseFloat(strings.TrimSpace(rec[areaCol]), 64)
		if id == "" || err != nil || area <= 0 {
			continue
		}
		areas[id] = area
	}
	return areas, nil
}

// LoadSidecar reads the sidecar next to workbookPath. A missing file, or a
// workbookPath that is itself a .csv record, yields an empty map and no error.
func LoadSidecar(workbookPath string) (map[string]float64, error) {
	path := SidecarPath(workbookPath)
	if path == workbookPath {
		return map[string]float64{}, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]float64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open sidecar: %w", err)
	}
	defer f.Close()
	return ReadSidecar(f)
}

// WriteSidecar writes the areas of ids, in the given order, as sidecar CSV.
// Identifiers missing from t are skipped.
func WriteSidecar(w io.Writer, t *Table, ids []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{sidecarIDColumn, sidecarAreaColumn}); err != nil {
		return fmt.Errorf("write sidecar header: %w", err)
	}
	for _, id := range ids {
		cfg, ok := t.Lookup(id)
		if !ok {
			continue
		}
		if err := cw.Write([]string{id, strconv.FormatFloat(cfg.CrossSectionalArea, 'g', -1, 64)}); err != nil {
			return fmt.Errorf("write sidecar row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WithAreas returns a copy of t where each id in areas, filtered by keep when
// non-nil, gets that cross-sectional area. Existing gauge lengths and labels survive.
func (t *Table) WithAreas(areas map[string]float64, keep func(id string) bool) *Table {
	next := NewTable(t.snapshot())
	for id, area := range areas {
		if keep != nil && !keep(id) {
			continue
		}
		cfg := next.entries[id]
		cfg.CrossSectionalArea = area
		next.entries[id] = cfg
	}
	return next
}
// #endregion sidecar
