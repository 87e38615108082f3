package logging

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/yield"
)

// #region log-attempt
// LogAttempt writes one entry to the yield_attempts table.
func LogAttempt(db Execer, entry AttemptEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO yield_attempts (run_id, specimen_id, seq, method, outcome, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.SpecimenID,
		entry.Seq,
		entry.Method,
		entry.Outcome,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log attempt: %w", err)
	}
	return nil
}

// LogAttempts writes a specimen's attempts in order.
func LogAttempts(db Execer, runID, specimenID string, attempts []yield.Attempt) error {
	now := time.Now().UTC()
	for i, a := range attempts {
		err := LogAttempt(db, AttemptEntry{
			RunID:      runID,
			SpecimenID: specimenID,
			Seq:        i,
			Method:     string(a.Method),
			Outcome:    string(a.Outcome),
			Reason:     a.Reason,
			CreatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("specimen %s: %w", specimenID, err)
		}
	}
	return nil
}
// #endregion log-attempt

// #region list-attempts
// ListAttempts reads a specimen's attempts for a run in the order they ran.
func ListAttempts(db Querier, runID, specimenID string) ([]AttemptEntry, error) {
	rows, err := db.Query(
		`SELECT run_id, specimen_id, seq, method, outcome, reason, created_at
		 FROM yield_attempts WHERE run_id = ? AND specimen_id = ? ORDER BY seq`,
		runID, specimenID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var entries []AttemptEntry
	for rows.Next() {
		var e AttemptEntry
		var reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.SpecimenID, &e.Seq, &e.Method, &e.Outcome, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
// #endregion list-attempts

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
