package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/analysis"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/logging"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/smooth"
	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/yield"
)

// ErrNoRuns is returned by LatestRun on an empty database.
var ErrNoRuns = errors.New("no analysis runs recorded")

// #region save-run
// SaveRun stores a batch of results, and the yield attempts behind each,
// under a new run id in one transaction.
func (s *Store) SaveRun(settings RunSettings, results []analysis.SpecimenResult) (RunRecord, error) {
	rec := RunRecord{
		RunID:       uuid.New().String(),
		Source:      settings.Source,
		GaugeLength: settings.GaugeLength,
		Smoothing:   settings.Smoothing,
		Specimens:   len(results),
		CreatedAt:   time.Now().UTC(),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return RunRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO analysis_runs (run_id, source, gauge_length, smoothing, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.RunID, rec.Source, rec.GaugeLength, rec.Smoothing, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}

	for i, r := range results {
		if !r.OK() {
			rec.Failures++
		}
		_, err = tx.Exec(
			`INSERT INTO specimen_results (run_id, seq, specimen_id, point_count, cross_sectional_area, gauge_length,
				yield_strength, yield_strain, tensile_strength, elongation_percent, yield_method, smoothing, error_kind, error_message)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID, i, r.SpecimenID, r.PointCount, nullFloat(r.CrossSectionalArea), nullIfZero(r.GaugeLength),
			nullFloat(r.YieldStrength), nullFloat(r.YieldStrain), nullFloat(r.TensileStrength), nullFloat(r.ElongationPercent),
			nullIfEmpty(string(r.YieldMethod)), nullIfEmpty(string(r.Smoothing)), nullIfEmpty(string(r.ErrorKind)), nullIfEmpty(r.ErrorMessage),
		)
		if err != nil {
			return RunRecord{}, fmt.Errorf("insert result %s: %w", r.SpecimenID, err)
		}
		if err := logging.LogAttempts(tx, rec.RunID, r.SpecimenID, r.Attempts); err != nil {
			return RunRecord{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return RunRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}
// #endregion save-run

// #region get-run
// GetRun loads a run and its results in their original order.
func (s *Store) GetRun(runID string) (RunRecord, []analysis.SpecimenResult, error) {
	rec, err := s.scanRun(s.db.QueryRow(runSelect+` WHERE r.run_id = ? GROUP BY r.run_id`, runID))
	if err != nil {
		return RunRecord{}, nil, fmt.Errorf("get run %s: %w", runID, err)
	}

	rows, err := s.db.Query(
		`SELECT specimen_id, point_count, cross_sectional_area, gauge_length, yield_strength, yield_strain,
			tensile_strength, elongation_percent, yield_method, smoothing, error_kind, error_message
		 FROM specimen_results WHERE run_id = ? ORDER BY seq`, runID,
	)
	if err != nil {
		return RunRecord{}, nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []analysis.SpecimenResult
	for rows.Next() {
		var r analysis.SpecimenResult
		var area, gauge, ys, ye, ts, el sql.NullFloat64
		var method, smoothing, kind, msg sql.NullString
		if err := rows.Scan(&r.SpecimenID, &r.PointCount, &area, &gauge, &ys, &ye, &ts, &el, &method, &smoothing, &kind, &msg); err != nil {
			return RunRecord{}, nil, fmt.Errorf("scan result: %w", err)
		}
		r.CrossSectionalArea = floatOrNil(area)
		if gauge.Valid {
			r.GaugeLength = gauge.Float64
		}
		r.YieldStrength = floatOrNil(ys)
		r.YieldStrain = floatOrNil(ye)
		r.TensileStrength = floatOrNil(ts)
		r.ElongationPercent = floatOrNil(el)
		r.YieldMethod = yield.Method(method.String)
		r.Smoothing = smooth.Mode(smoothing.String)
		r.ErrorKind = analysis.ErrorKind(kind.String)
		r.ErrorMessage = msg.String
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return RunRecord{}, nil, err
	}

	for i := range results {
		entries, err := logging.ListAttempts(s.db, runID, results[i].SpecimenID)
		if err != nil {
			return RunRecord{}, nil, err
		}
		for _, e := range entries {
			results[i].Attempts = append(results[i].Attempts, e.Attempt())
		}
	}
	return rec, results, nil
}
// #endregion get-run

// #region list-runs
const runSelect = `SELECT r.run_id, r.source, r.gauge_length, r.smoothing, r.created_at,
	COUNT(sr.id), COALESCE(SUM(CASE WHEN sr.error_kind IS NOT NULL THEN 1 ELSE 0 END), 0)
	FROM analysis_runs r LEFT JOIN specimen_results sr ON sr.run_id = r.run_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var createdStr string
	if err := row.Scan(&rec.RunID, &rec.Source, &rec.GaugeLength, &rec.Smoothing, &createdStr, &rec.Specimens, &rec.Failures); err != nil {
		return RunRecord{}, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(runSelect+` GROUP BY r.run_id ORDER BY r.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := s.scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LatestRun returns the newest run.
func (s *Store) LatestRun() (RunRecord, error) {
	runs, err := s.ListRuns(1)
	if err != nil {
		return RunRecord{}, err
	}
	if len(runs) == 0 {
		return RunRecord{}, ErrNoRuns
	}
	return runs[0], nil
}
// #endregion list-runs
