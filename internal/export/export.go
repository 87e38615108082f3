package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/ingest"
)

const (
	summarySheet   = "Results"
	rawSheetSuffix = "_raw"
	maxSheetName   = 31
	// MaxRawRows caps the raw rows copied per specimen into a workbook.
	MaxRawRows = 1000
	utf8BOM    = "\xEF\xBB\xBF"
)

var header = []string{
	"Specimen", "Points", "Area (mm²)", "Yield strength (MPa)", "Tensile strength (MPa)",
	"Elongation (%)", "Yield method", "Remark",
}

// #region rows
// Row is one formatted result line. Empty strings stand for absent values.
type Row struct {
	Specimen   string
	Points     int
	Area       string
	Yield      string
	Tensile    string
	Elongation string
	Method     string
	Remark     string
}

// Rows formats results with values rounded to two decimals.
func Rows(results []analysis.SpecimenResult) []Row {
	rows := make([]Row, len(results))
	for i, r := range results {
		rows[i] = Row{
			Specimen:   r.SpecimenID,
			Points:     r.PointCount,
			Area:       format(r.CrossSectionalArea, -1),
			Yield:      format(r.YieldStrength, 2),
			Tensile:    format(r.TensileStrength, 2),
			Elongation: format(r.ElongationPercent, 2),
			Method:     string(r.YieldMethod),
			Remark:     r.Remark(),
		}
	}
	return rows
}

func (r Row) strings() []string {
	return []string{r.Specimen, strconv.Itoa(r.Points), r.Area, r.Yield, r.Tensile, r.Elongation, r.Method, r.Remark}
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func format(v *float64, decimals int) string {
	if v == nil {
		return ""
	}
	if decimals < 0 {
		return strconv.FormatFloat(*v, 'g', -1, 64)
	}
	return strconv.FormatFloat(Round2(*v), 'f', decimals, 64)
}
// #endregion rows

// #region write
// Write dispatches on the file extension: .xlsx, .csv, or anything else as text.
func Write(path string, results []analysis.SpecimenResult, raw []ingest.Sheet, gaugeLength float64) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return WriteXLSX(path, results, raw)
	case ".csv":
		return writeFile(path, func(w io.Writer) error { return WriteCSV(w, results) })
	default:
		return writeFile(path, func(w io.Writer) error { return WriteText(w, results, gaugeLength) })
	}
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
// #endregion write

// #region csv
// WriteCSV writes a BOM-prefixed CSV summary so spreadsheet tools pick up UTF-8.
func WriteCSV(w io.Writer, results []analysis.SpecimenResult) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range Rows(results) {
		if err := cw.Write(row.strings()); err != nil {
			return fmt.Errorf("write row %s: %w", row.Specimen, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
// #endregion csv

// #region text
// WriteText writes a human-readable report.
func WriteText(w io.Writer, results []analysis.SpecimenResult, gaugeLength float64) error {
	var b strings.Builder
	b.WriteString("Tensile test results\n")
	b.WriteString(strings.Repeat("=", 70) + "\n\n")
	fmt.Fprintf(&b, "Extensometer gauge length: %g mm\n", gaugeLength)
	fmt.Fprintf(&b, "Specimens: %d\n\n", len(results))
	for _, row := range Rows(results) {
		fmt.Fprintf(&b, "Specimen: %s\n", row.Specimen)
		fmt.Fprintf(&b, "Points: %d\n", row.Points)
		fmt.Fprintf(&b, "Cross-sectional area: %s mm²\n", orNA(row.Area))
		fmt.Fprintf(&b, "Yield strength: %s MPa\n", orNA(row.Yield))
		if row.Method != "" {
			fmt.Fprintf(&b, "Yield method: %s\n", row.Method)
		}
		fmt.Fprintf(&b, "Tensile strength: %s MPa\n", orNA(row.Tensile))
		fmt.Fprintf(&b, "Elongation: %s %%\n", orNA(row.Elongation))
		fmt.Fprintf(&b, "Remark: %s\n", row.Remark)
		b.WriteString(strings.Repeat("-", 50) + "\n\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
// #endregion text

// #region xlsx
// WriteXLSX writes the summary sheet and, for each raw record, a sheet
// holding its first MaxRawRows samples.
func WriteXLSX(path string, results []analysis.SpecimenResult, raw []ingest.Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(summarySheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	if err := sw.SetRow("A1", toCells(header)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range results {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			r.SpecimenID, r.PointCount, valueOrBlank(r.CrossSectionalArea, false),
			valueOrBlank(r.YieldStrength, true), valueOrBlank(r.TensileStrength, true),
			valueOrBlank(r.ElongationPercent, true), string(r.YieldMethod), r.Remark(),
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %s: %w", r.SpecimenID, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush summary: %w", err)
	}

	used := map[string]bool{strings.ToLower(summarySheet): true}
	for _, s := range raw {
		name := RawSheetName(s.Name, used)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %s: %w", name, err)
		}
		rw, err := f.NewStreamWriter(name)
		if err != nil {
			return fmt.Errorf("stream writer %s: %w", name, err)
		}
		if err := rw.SetRow("A1", []interface{}{"Load (N)", "Displacement (mm)"}); err != nil {
			return fmt.Errorf("write raw header: %w", err)
		}
		n := len(s.Load)
		if n > MaxRawRows {
			n = MaxRawRows
		}
		for i := 0; i < n; i++ {
			cell, _ := excelize.CoordinatesToCellName(1, i+2)
			if err := rw.SetRow(cell, []interface{}{s.Load[i], s.Displacement[i]}); err != nil {
				return fmt.Errorf("write raw row: %w", err)
			}
		}
		if err := rw.Flush(); err != nil {
			return fmt.Errorf("flush %s: %w", name, err)
		}
	}
	return f.SaveAs(path)
}

var sheetNameReplacer = strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")

// RawSheetName derives a sheet name within Excel's 31 character limit that
// is not in used, and adds it. Excel compares sheet names case-insensitively,
// so used is keyed on lower-case names.
func RawSheetName(specimen string, used map[string]bool) string {
	specimen = sheetNameReplacer.Replace(specimen)
	base := []rune(specimen)
	limit := maxSheetName - len(rawSheetSuffix)
	if len(base) > limit {
		base = base[:limit]
	}
	name := string(base) + rawSheetSuffix
	for i := 2; used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf("%s%d", rawSheetSuffix, i)
		trimmed := []rune(specimen)
		if l := maxSheetName - len(suffix); len(trimmed) > l {
			trimmed = trimmed[:l]
		}
		name = string(trimmed) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func valueOrBlank(v *float64, round bool) interface{} {
	if v == nil {
		return ""
	}
	if round {
		return Round2(*v)
	}
	return *v
}
// #endregion xlsx
