package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	// MinRows is the row count a sheet must exceed to be kept.
	MinRows              = 10
	positionalMinColumns = 4
)

var (
	loadKeywords         = []string{"载荷", "load", "force"}
	extensometerKeywords = []string{"引伸", "extenso", "strain"}
)

var (
	ErrNoUsableSheets  = errors.New("no sheet contains load and extensometer columns")
	ErrColumnsNotFound = errors.New("load and extensometer columns not found")
	ErrTooFewRows      = errors.New("too few numeric rows")
)

// #region types
// Sheet is one specimen's raw record as read from a workbook sheet or CSV.
type Sheet struct {
	Name               string
	Load               []float64
	Displacement       []float64
	LoadColumn         string
	DisplacementColumn string
}

// Skipped names a sheet that was not loaded and why.
type Skipped struct {
	Name   string
	Reason error
}
// #endregion types

// #region workbook
// ReadWorkbook loads every usable sheet of an .xlsx file, in workbook order.
func ReadWorkbook(path string) ([]Sheet, []Skipped, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readFile(f)
}

// ReadWorkbookFrom loads a workbook from r.
func ReadWorkbookFrom(r io.Reader) ([]Sheet, []Skipped, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return readFile(f)
}

func readFile(f *excelize.File) ([]Sheet, []Skipped, error) {
	var sheets []Sheet
	var skipped []Skipped
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			skipped = append(skipped, Skipped{Name: name, Reason: err})
			continue
		}
		sheet, err := FromRows(name, rows)
		if err != nil {
			skipped = append(skipped, Skipped{Name: name, Reason: err})
			continue
		}
		sheets = append(sheets, sheet)
	}
	if len(sheets) == 0 {
		return nil, skipped, ErrNoUsableSheets
	}
	return sheets, skipped, nil
}
// #endregion workbook

// #region csv
// ReadCSV loads a single specimen from CSV text using the same column rules as a sheet.
func ReadCSV(name string, r io.Reader) (Sheet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return Sheet{}, fmt.Errorf("read csv %s: %w", name, err)
	}
	return FromRows(name, rows)
}
// #endregion csv

// #region discovery
// FromRows locates the load and extensometer columns in rows and extracts
// the numeric pairs beneath them.
//
// Column names are matched case-insensitively against keywords on the first
// row, then on the second row (for sheets with a units row on top). Failing
// both, a sheet with at least four columns uses its first two fully numeric
// columns. Rows where either value is missing or not numeric are dropped.
func FromRows(name string, rows [][]string) (Sheet, error) {
	loadCol, dispCol, headerRow := -1, -1, 0
	for h := 0; h < 2 && h < len(rows); h++ {
		l, d := matchHeader(rows[h])
		if l >= 0 && d >= 0 {
			loadCol, dispCol, headerRow = l, d, h
			break
		}
	}
	if loadCol < 0 {
		loadCol, dispCol = positional(rows)
	}
	if loadCol < 0 || dispCol < 0 {
		return Sheet{}, fmt.Errorf("sheet %s: %w", name, ErrColumnsNotFound)
	}

	s := Sheet{
		Name:               name,
		LoadColumn:         cell(rows[headerRow], loadCol),
		DisplacementColumn: cell(rows[headerRow], dispCol),
	}
	for _, row := range rows[headerRow+1:] {
		load, okLoad := parseNumber(cell(row, loadCol))
		disp, okDisp := parseNumber(cell(row, dispCol))
		if !okLoad || !okDisp {
			continue
		}
		s.Load = append(s.Load, load)
		s.Displacement = append(s.Displacement, disp)
	}
	if len(s.Load) <= MinRows {
		return Sheet{}, fmt.Errorf("sheet %s: %w: %d", name, ErrTooFewRows, len(s.Load))
	}
	return s, nil
}

// matchHeader returns the last column matching each keyword set. A column
// that matches a load keyword is never taken as the extensometer column.
func matchHeader(header []string) (loadCol, dispCol int) {
	loadCol, dispCol = -1, -1
	for i, name := range header {
		lower := strings.ToLower(name)
		switch {
		case containsAny(lower, loadKeywords):
			loadCol = i
		case containsAny(lower, extensometerKeywords):
			dispCol = i
		}
	}
	return loadCol, dispCol
}

func positional(rows [][]string) (loadCol, dispCol int) {
	loadCol, dispCol = -1, -1
	if len(rows) < 2 {
		return
	}
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if width < positionalMinColumns {
		return
	}
	for col := 0; col < width; col++ {
		if !numericColumn(rows[1:], col) {
			continue
		}
		if loadCol < 0 {
			loadCol = col
			continue
		}
		dispCol = col
		return
	}
	return
}

// numericColumn reports whether every non-empty cell in col parses as a
// number and at least one does.
func numericColumn(rows [][]string, col int) bool {
	seen := false
	for _, row := range rows {
		v := strings.TrimSpace(cell(row, col))
		if v == "" {
			continue
		}
		if _, ok := parseNumber(v); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
// #endregion discovery
