package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/store"
)

func newInspectCmd(a *app) *cobra.Command {
	var last int
	var runID string
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show stored analysis runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if runID != "" {
				return runDetailMode(cmd.OutOrStdout(), st, runID, jsonOut)
			}
			return runListMode(cmd.OutOrStdout(), st, last, jsonOut)
		},
	}
	cmd.Flags().IntVar(&last, "last", 20, "show N most recent runs")
	cmd.Flags().StringVar(&runID, "run", "", "show a single run in detail")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of a table")
	return cmd
}

// #region list-mode

type listRow struct {
	RunID       string  `json:"run_id"`
	Source      string  `json:"source"`
	GaugeLength float64 `json:"gauge_length"`
	Smoothing   string  `json:"smoothing"`
	Specimens   int     `json:"specimens"`
	Failures    int     `json:"failures"`
	CreatedAt   string  `json:"created_at"`
}

func toListRow(r store.RunRecord) listRow {
	return listRow{
		RunID:       r.RunID,
		Source:      r.Source,
		GaugeLength: r.GaugeLength,
		Smoothing:   r.Smoothing,
		Specimens:   r.Specimens,
		Failures:    r.Failures,
		CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func runListMode(w io.Writer, st *store.Store, last int, jsonOut bool) error {
	runs, err := st.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return errors.New("no runs found")
	}

	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[i] = toListRow(r)
	}
	if jsonOut {
		return printJSON(w, rows)
	}

	fmt.Fprintf(w, "%-12s  %9s  %8s  %-15s  %-20s  %s\n",
		"Run", "Specimens", "Failures", "Smoothing", "Time", "Source")
	fmt.Fprintf(w, "%-12s+-%9s+-%8s+-%-15s+-%-20s+-%s\n",
		"------------", "---------", "--------", "---------------", "--------------------", "------")
	for _, r := range rows {
		fmt.Fprintf(w, "%-12s  %9d  %8d  %-15s  %-20s  %s\n",
			shortID(r.RunID), r.Specimens, r.Failures, r.Smoothing, r.CreatedAt, r.Source)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	listRow
	Results []analysis.SpecimenResult `json:"results"`
}

func runDetailMode(w io.Writer, st *store.Store, runID string, jsonOut bool) error {
	rec, results, err := st.GetRun(runID)
	if err != nil {
		return err
	}
	out := detailOutput{listRow: toListRow(rec), Results: results}
	if jsonOut {
		return printJSON(w, out)
	}

	fmt.Fprintf(w, "Run:        %s\n", out.RunID)
	fmt.Fprintf(w, "Source:     %s\n", out.Source)
	fmt.Fprintf(w, "Created:    %s\n", out.CreatedAt)
	fmt.Fprintf(w, "Gauge:      %g mm\n", out.GaugeLength)
	fmt.Fprintf(w, "Smoothing:  %s\n", out.Smoothing)
	fmt.Fprintf(w, "Specimens:  %d (%d failed)\n\n", out.Specimens, out.Failures)

	for _, r := range results {
		fmt.Fprintf(w, "%s  %s\n", r.SpecimenID, r.Remark())
		fmt.Fprintf(w, "  yield %s  tensile %s  elongation %s  method %s\n",
			fmtPtr(r.YieldStrength, "%.2f MPa"), fmtPtr(r.TensileStrength, "%.2f MPa"),
			fmtPtr(r.ElongationPercent, "%.2f%%"), orDash(string(r.YieldMethod)))
		for _, at := range r.Attempts {
			line := fmt.Sprintf("    %-16s %s", at.Method, at.Outcome)
			if at.Reason != "" {
				line += "  " + at.Reason
			}
			fmt.Fprintln(w, line)
		}
	}
	return nil
}

// #endregion detail-mode

// #region helpers

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func fmtPtr(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// #endregion helpers
