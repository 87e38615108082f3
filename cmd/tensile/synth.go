package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/specimen"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/synth"
)

const synthHeaderLoad, synthHeaderExt = "Load (N)", "Extensometer (mm)"

func newSynthCmd(a *app) *cobra.Command {
	var kinds []string
	var out string
	var p synth.Params
	cmd := &cobra.Command{
		Use:   "synth --out curve.csv|book.xlsx",
		Short: "Generate synthetic load-displacement records",
		Long: `Generates synthetic tensile records. A .csv output holds the first kind only.
An .xlsx output holds one sheet per kind and gets a sidecar CSV with the areas.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" {
				return &exitError{code: 2, err: fmt.Errorf("--out is required")}
			}
			if p.GaugeLength <= 0 {
				p.GaugeLength = a.cfg.GaugeLength
			}
			var specimens []synth.Specimen
			for _, k := range kinds {
				params := p
				params.Kind = synth.Kind(k)
				s, err := synth.Generate(k, params)
				if err != nil {
					return &exitError{code: 2, err: err}
				}
				specimens = append(specimens, s)
			}
			if len(specimens) == 0 {
				return &exitError{code: 2, err: fmt.Errorf("at least one --kind is required")}
			}
			if strings.EqualFold(filepath.Ext(out), ".xlsx") {
				return writeSynthWorkbook(out, specimens)
			}
			return writeSynthCSV(out, specimens[0])
		},
	}
	f := cmd.Flags()
	f.StringVar(&out, "out", "", "output .csv or .xlsx path")
	f.StringSliceVar(&kinds, "kind", []string{string(synth.KindDuctile)}, "curve kinds: plateau, toe, ramp, ductile")
	f.IntVar(&p.Points, "points", 400, "samples per curve")
	f.Float64Var(&p.CrossSectionalArea, "area", 20, "cross-sectional area in mm²")
	f.Float64Var(&p.GaugeLength, "gauge", 0, "gauge length in mm (default from config)")
	f.Float64Var(&p.Noise, "noise", 0, "stress noise standard deviation in MPa")
	f.Int64Var(&p.Seed, "seed", 1, "noise seed")
	return cmd
}

func synthRows(s synth.Specimen) [][]string {
	rows := [][]string{{synthHeaderLoad, synthHeaderExt}}
	for i := range s.Load {
		rows = append(rows, []string{
			strconv.FormatFloat(s.Load[i], 'g', -1, 64),
			strconv.FormatFloat(s.Displacement[i], 'g', -1, 64),
		})
	}
	return rows
}

func writeSynthCSV(path string, s synth.Specimen) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	cw := csv.NewWriter(f)
	if err := cw.WriteAll(synthRows(s)); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func writeSynthWorkbook(path string, specimens []synth.Specimen) error {
	wb := excelize.NewFile()
	defer wb.Close()

	areas := make(map[string]float64, len(specimens))
	for i, s := range specimens {
		if i == 0 {
			if err := wb.SetSheetName(wb.GetSheetName(0), s.ID); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := wb.NewSheet(s.ID); err != nil {
			return fmt.Errorf("new sheet %s: %w", s.ID, err)
		}
		for r, row := range synthRows(s) {
			cells := make([]interface{}, len(row))
			for c, v := range row {
				if r == 0 {
					cells[c] = v
					continue
				}
				n, _ := strconv.ParseFloat(v, 64)
				cells[c] = n
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := wb.SetSheetRow(s.ID, cell, &cells); err != nil {
				return fmt.Errorf("write %s row %d: %w", s.ID, r+1, err)
			}
		}
		areas[s.ID] = s.CrossSectionalArea
	}
	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}

	sidecar := specimen.NewTable(nil).WithAreas(areas, nil)
	return writeAreas(specimen.SidecarPath(path), sidecar)
}
