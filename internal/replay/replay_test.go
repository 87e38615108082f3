package replay

import (
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/yield"
)

// #region fixture-tests

func runFixture(t *testing.T, name string) []ReplayResult {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	engine := analysis.NewEngine(f.Config.ToEngineConfig(), nil)
	results, err := Replay(engine, f)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(results) != len(f.Specimens) {
		t.Fatalf("expected %d results, got %d", len(f.Specimens), len(results))
	}
	for _, r := range results {
		if !r.Match {
			t.Errorf("%s: %v", r.SpecimenID, r.Mismatches)
		}
	}
	return results
}

// TestFixture_Regression pins tier selection for the default smoothing path.
func TestFixture_Regression(t *testing.T) {
	results := runFixture(t, "regression.json")
	s := Summarize(results)
	if s.Matched != 5 || s.Mismatched != 0 {
		t.Fatalf("unexpected summary: %s", s)
	}
	if s.ByMethod[yield.MethodFallback90] != 2 {
		t.Errorf("expected 2 fallback_90 results, got %d", s.ByMethod[yield.MethodFallback90])
	}
}

// TestFixture_Degraded pins the moving-average chain.
func TestFixture_Degraded(t *testing.T) {
	results := runFixture(t, "degraded.json")
	for _, r := range results {
		if r.Result.Smoothing != "moving_average" {
			t.Errorf("%s: expected moving_average smoothing, got %s", r.SpecimenID, r.Result.Smoothing)
		}
	}
}

// #endregion fixture-tests

// #region export-tests

func TestFromResults_RoundTrip(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "regression.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	cfg := f.Config.ToEngineConfig()
	engine := analysis.NewEngine(cfg, nil)

	var specimens []analysis.Specimen
	for _, fs := range f.Specimens {
		s, err := fs.ToSpecimen()
		if err != nil {
			t.Fatalf("ToSpecimen: %v", err)
		}
		specimens = append(specimens, s)
	}
	table := f.Table()
	results := engine.ProcessBatch(specimens, table)

	pinned := FromResults("pinned", cfg, specimens, table, results)
	path := filepath.Join(t.TempDir(), "pinned.json")
	if err := pinned.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := LoadFixture(path)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	replayed, err := Replay(engine, reloaded)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	for _, r := range replayed {
		if !r.Match {
			t.Errorf("%s drifted after export: %v", r.SpecimenID, r.Mismatches)
		}
	}
}

func TestCompare_ReportsDrift(t *testing.T) {
	want := 10.0
	got := 10.5
	mismatches := compare(
		analysis.SpecimenResult{YieldMethod: yield.MethodPrimary, YieldStrength: &got},
		FixtureExpectedResult{YieldMethod: "fallback_90", YieldStrength: &want},
	)
	if len(mismatches) != 2 {
		t.Fatalf("expected 2 mismatches, got %v", mismatches)
	}
}

// #endregion export-tests
