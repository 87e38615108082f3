package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/curve"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/export"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/ingest"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/plot"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/replay"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/specimen"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/store"
)

type analyzeOpts struct {
	exportPath string
	plotPath   string
	plotDir    string
	fixtureOut string
	parallel   int
	save       bool
	jsonOut    bool
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var o analyzeOpts
	cmd := &cobra.Command{
		Use:   "analyze <workbook.xlsx|curve.csv|->",
		Short: "Analyze every specimen in a workbook or CSV record",
		Long:  "Analyze every specimen in a workbook or CSV record. A path of - reads an .xlsx workbook from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("parallel") {
				o.parallel = a.cfg.Workers
			}
			return runAnalyze(cmd, a, args[0], o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.exportPath, "export", "", "write results to .xlsx, .csv or .txt")
	f.StringVar(&o.plotPath, "plot", "", "write a stress-strain PNG (overlay when there are several specimens)")
	f.StringVar(&o.plotDir, "plot-dir", "", "write one annotated PNG per specimen into this directory")
	f.StringVar(&o.fixtureOut, "fixture-out", "", "pin these results as a replay fixture JSON")
	f.IntVar(&o.parallel, "parallel", 0, "worker count (0 uses all CPUs)")
	f.BoolVar(&o.save, "save", false, "persist the run in the database")
	f.BoolVar(&o.jsonOut, "json", false, "print results as JSON")
	return cmd
}

// #region analyze

func runAnalyze(cmd *cobra.Command, a *app, path string, o analyzeOpts) error {
	sheets, err := readInput(a, cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	table, err := resolveTable(a, st, path, sheets)
	if err != nil {
		return err
	}

	specimens := make([]analysis.Specimen, len(sheets))
	for i, s := range sheets {
		specimens[i] = analysis.Specimen{ID: s.Name, Load: s.Load, Displacement: s.Displacement}
	}

	engine := a.engine()
	start := time.Now()
	results, err := engine.ProcessBatchParallel(cmd.Context(), specimens, table, o.parallel)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	a.logger.WithField("elapsed", time.Since(start)).Debug("batch analyzed")

	out := cmd.OutOrStdout()
	if o.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		if err := export.WriteText(out, results, a.cfg.GaugeLength); err != nil {
			return err
		}
		printBatchSummary(out, analysis.Summarize(results))
	}

	if o.exportPath != "" {
		if err := export.Write(o.exportPath, results, sheets, a.cfg.GaugeLength); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "results written to %s\n", o.exportPath)
	}
	if o.plotPath != "" || o.plotDir != "" {
		if err := writePlots(a, o, specimens, table, results); err != nil {
			return err
		}
	}
	if o.fixtureOut != "" {
		fx := replay.FromResults("pinned from "+filepath.Base(path), engine.Config(), specimens, table, results)
		if err := fx.Save(o.fixtureOut); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "fixture written to %s\n", o.fixtureOut)
	}
	if o.save {
		rec, err := st.SaveRun(store.RunSettings{
			Source:      path,
			GaugeLength: a.cfg.GaugeLength,
			Smoothing:   a.cfg.Smoothing,
		}, results)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "run saved: %s\n", rec.RunID)
	}
	return nil
}

// stdinPath selects a workbook streamed on stdin.
const stdinPath = "-"

func readInput(a *app, stdin io.Reader, path string) ([]ingest.Sheet, error) {
	var (
		sheets  []ingest.Sheet
		skipped []ingest.Skipped
		err     error
	)
	switch {
	case path == stdinPath:
		sheets, skipped, err = ingest.ReadWorkbookFrom(stdin)
	case strings.EqualFold(filepath.Ext(path), ".csv"):
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		sheet, err := ingest.ReadCSV(name, f)
		if err != nil {
			return nil, err
		}
		return []ingest.Sheet{sheet}, nil
	default:
		sheets, skipped, err = ingest.ReadWorkbook(path)
	}
	for _, s := range skipped {
		a.logger.WithField("sheet", s.Name).WithError(s.Reason).Warn("sheet skipped")
	}
	if err != nil {
		return nil, err
	}
	return sheets, nil
}

// resolveTable layers specimen configs: stored entries, then the config
// file, then the sidecar CSV next to the input. Stdin input has no sidecar.
func resolveTable(a *app, st *store.Store, path string, sheets []ingest.Sheet) (*specimen.Table, error) {
	table, err := st.ConfigTable()
	if err != nil {
		return nil, err
	}
	if a.cfg.SpecimenFile != "" {
		fileTable, err := specimen.LoadFile(a.cfg.SpecimenFile)
		if err != nil {
			return nil, err
		}
		table = table.Merge(fileTable)
	}

	areas := map[string]float64{}
	if path != stdinPath {
		areas, err = specimen.LoadSidecar(path)
		if err != nil {
			return nil, err
		}
	}
	names := make(map[string]bool, len(sheets))
	for _, s := range sheets {
		names[s.Name] = true
	}
	return table.WithAreas(areas, func(id string) bool { return names[id] }), nil
}

// #endregion analyze

// #region plots

func writePlots(a *app, o analyzeOpts, specimens []analysis.Specimen, table *specimen.Table, results []analysis.SpecimenResult) error {
	var traces []plot.Trace
	curves := make([]curve.Curve, len(specimens))
	for i, s := range specimens {
		r := results[i]
		if r.CrossSectionalArea == nil || r.GaugeLength <= 0 {
			continue
		}
		c, err := curve.Transform(s.Load, s.Displacement, *r.CrossSectionalArea, r.GaugeLength)
		if err != nil {
			a.logger.WithField("specimen", s.ID).WithError(err).Warn("not plotted")
			continue
		}
		curves[i] = c
		traces = append(traces, plot.Trace{Label: table.Label(s.ID), Curve: c})
	}

	if o.plotPath != "" {
		err := plot.WritePNG(o.plotPath, func(w io.Writer) error {
			if len(traces) == 1 {
				for i, c := range curves {
					if c.Len() > 0 {
						return plot.RenderCurve(w, c, results[i], traces[0].Label)
					}
				}
			}
			return plot.RenderOverlay(w, traces, "Stress-strain curves")
		})
		if err != nil {
			return fmt.Errorf("plot %s: %w", o.plotPath, err)
		}
	}

	if o.plotDir != "" {
		if err := os.MkdirAll(o.plotDir, 0o755); err != nil {
			return err
		}
		for i, c := range curves {
			if c.Len() < 2 {
				continue
			}
			name := filepath.Join(o.plotDir, fileNameReplacer.Replace(specimens[i].ID)+".png")
			err := plot.WritePNG(name, func(w io.Writer) error {
				return plot.RenderCurve(w, c, results[i], table.Label(specimens[i].ID))
			})
			if err != nil {
				return fmt.Errorf("plot %s: %w", name, err)
			}
		}
	}
	return nil
}

var fileNameReplacer = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")

// #endregion plots

// summaryKinds fixes the order failure counts are printed in.
var summaryKinds = []analysis.ErrorKind{
	analysis.KindInsufficientData,
	analysis.KindMissingConfig,
	analysis.KindElasticFitUnderdetermined,
	analysis.KindComputationError,
	analysis.KindUnresolved,
}

func printBatchSummary(w io.Writer, s analysis.BatchSummary) {
	fmt.Fprintf(w, "\nSummary: %d total, %d complete", s.Total, s.Complete)
	for _, kind := range summaryKinds {
		if n := s.ByKind[kind]; n > 0 {
			fmt.Fprintf(w, ", %s=%d", kind, n)
		}
	}
	if s.Approximate > 0 {
		fmt.Fprintf(w, ", %d approximate yield", s.Approximate)
	}
	if s.Degraded > 0 {
		fmt.Fprintf(w, ", %d degraded smoothing", s.Degraded)
	}
	fmt.Fprintln(w)
}
