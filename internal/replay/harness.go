package replay

import (
	"fmt"
	"math"
	"strings"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/yield"
)

// #region types
// ReplayResult pairs one specimen's computed result with its expectation.
type ReplayResult struct {
	SpecimenID string
	Result     analysis.SpecimenResult
	Expected   *FixtureExpectedResult
	Match      bool
	Mismatches []string
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total      int
	Matched    int
	Mismatched int
	Unchecked  int
	ByMethod   map[yield.Method]int
}
// #endregion types

// #region replay
// Replay runs every fixture specimen through engine and compares each result
// with the expectation of the same specimen id. Specimens without an
// expectation are reported as unchecked matches.
func Replay(engine *analysis.Engine, f *Fixture) ([]ReplayResult, error) {
	table := f.Table()
	expected := make(map[string]*FixtureExpectedResult, len(f.ExpectedResults))
	for i := range f.ExpectedResults {
		expected[f.ExpectedResults[i].SpecimenID] = &f.ExpectedResults[i]
	}

	results := make([]ReplayResult, 0, len(f.Specimens))
	for _, fs := range f.Specimens {
		s, err := fs.ToSpecimen()
		if err != nil {
			return nil, fmt.Errorf("specimen %s: %w", fs.ID, err)
		}
		res := engine.Compute(s, table)
		rr := ReplayResult{SpecimenID: s.ID, Result: res, Expected: expected[s.ID], Match: true}
		if rr.Expected != nil {
			rr.Mismatches = compare(res, *rr.Expected)
			rr.Match = len(rr.Mismatches) == 0
		}
		results = append(results, rr)
	}
	return results, nil
}

func compare(got analysis.SpecimenResult, want FixtureExpectedResult) []string {
	var out []string
	if string(got.YieldMethod) != want.YieldMethod {
		out = append(out, fmt.Sprintf("yield_method: want %q, got %q", want.YieldMethod, got.YieldMethod))
	}
	if string(got.ErrorKind) != want.ErrorKind {
		out = append(out, fmt.Sprintf("error_kind: want %q, got %q", want.ErrorKind, got.ErrorKind))
	}
	tol := want.Tolerance
	if tol <= 0 {
		tol = 1e-6
	}
	if msg := compareValue("yield_strength", got.YieldStrength, want.YieldStrength, tol); msg != "" {
		out = append(out, msg)
	}
	if msg := compareValue("tensile_strength", got.TensileStrength, want.TensileStrength, tol); msg != "" {
		out = append(out, msg)
	}
	return out
}

// compareValue checks got against want with a relative tolerance.
func compareValue(name string, got, want *float64, tol float64) string {
	if want == nil {
		return ""
	}
	if got == nil {
		return fmt.Sprintf("%s: want %g, got none", name, *want)
	}
	scale := math.Max(1, math.Abs(*want))
	if math.Abs(*got-*want) > tol*scale {
		return fmt.Sprintf("%s: want %g, got %g", name, *want, *got)
	}
	return ""
}
// #endregion replay

// #region summarize
// Summarize aggregates replay results.
func Summarize(results []ReplayResult) ReplaySummary {
	s := ReplaySummary{Total: len(results), ByMethod: make(map[yield.Method]int)}
	for _, r := range results {
		switch {
		case r.Expected == nil:
			s.Unchecked++
		case r.Match:
			s.Matched++
		default:
			s.Mismatched++
		}
		if r.Result.YieldMethod != "" {
			s.ByMethod[r.Result.YieldMethod]++
		}
	}
	return s
}

// String renders a one-line summary.
func (s ReplaySummary) String() string {
	var methods []string
	for _, m := range []yield.Method{
		yield.MethodPrimary, yield.MethodRefitWide, yield.MethodRefitNarrow, yield.MethodFallback90,
		yield.MethodDegradedSmooth, yield.MethodDegradedApprox, yield.MethodUnresolved,
	} {
		if n := s.ByMethod[m]; n > 0 {
			methods = append(methods, fmt.Sprintf("%s=%d", m, n))
		}
	}
	return fmt.Sprintf("total=%d matched=%d mismatched=%d unchecked=%d [%s]",
		s.Total, s.Matched, s.Mismatched, s.Unchecked, strings.Join(methods, " "))
}
// #endregion summarize
