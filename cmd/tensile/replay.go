package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/replay"
)

func newReplayCmd(a *app) *cobra.Command {
	var fixturePath string
	cmd := &cobra.Command{
		Use:   "replay --fixture path/to/fixture.json",
		Short: "Re-run a fixture and compare against its expected results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fixturePath == "" {
				return &exitError{code: 2, err: fmt.Errorf("--fixture is required")}
			}
			f, err := replay.LoadFixture(fixturePath)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			engine := analysis.NewEngine(f.Config.ToEngineConfig(), a.logger)
			results, err := replay.Replay(engine, f)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			if diverge := printComparison(cmd.OutOrStdout(), results); diverge > 0 {
				return &exitError{code: 1, err: fmt.Errorf("%d specimens diverge", diverge)}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fixturePath, "fixture", "", "path to fixture JSON")
	return cmd
}

// printComparison writes a comparison table and returns the number of
// mismatched specimens.
func printComparison(w io.Writer, results []replay.ReplayResult) int {
	fmt.Fprintf(w, "%-16s| %-16s| %-16s| %s\n", "Specimen", "Expected", "Replayed", "Match")
	fmt.Fprintf(w, "%-16s+%-17s+%-17s+%s\n",
		"----------------", "-----------------", "-----------------", "------")

	for _, r := range results {
		exp := "-"
		if r.Expected != nil {
			exp = outcomeLabel(r.Expected.YieldMethod, r.Expected.ErrorKind)
		}
		got := outcomeLabel(string(r.Result.YieldMethod), string(r.Result.ErrorKind))
		match := "OK"
		switch {
		case r.Expected == nil:
			match = "--"
		case !r.Match:
			match = "DIFF " + strings.Join(r.Mismatches, "; ")
		}
		fmt.Fprintf(w, "%-16s| %-16s| %-16s| %s\n", r.SpecimenID, exp, got, match)
	}

	s := replay.Summarize(results)
	fmt.Fprintf(w, "\nSummary: %s\n", s)
	return s.Mismatched
}

// outcomeLabel shows the method for resolved results and the error kind
// otherwise.
func outcomeLabel(method, kind string) string {
	if kind != "" {
		return kind
	}
	return orDash(method)
}
