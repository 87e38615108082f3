package logging

import (
	"database/sql"
	"time"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/yield"
)

// #region attempt-entry
// AttemptEntry is a single row in the yield_attempts table.
type AttemptEntry struct {
	RunID      string
	SpecimenID string
	Seq        int
	Method     string // yield.Method tag
	Outcome    string // "hit" | "miss" | "error" | "skipped"
	Reason     string
	CreatedAt  time.Time
}

// Attempt converts the row back to the solver's attempt record.
func (e AttemptEntry) Attempt() yield.Attempt {
	return yield.Attempt{
		Method:  yield.Method(e.Method),
		Outcome: yield.Outcome(e.Outcome),
		Reason:  e.Reason,
	}
}
// #endregion attempt-entry

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}
