package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/tensile-props/go-analyzer/internal/specimen"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS specimen_configs (
	specimen_id          TEXT PRIMARY KEY,
	cross_sectional_area REAL NOT NULL CHECK (cross_sectional_area > 0),
	gauge_length         REAL,
	label                TEXT,
	updated_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS analysis_runs (
	run_id        TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	gauge_length  REAL NOT NULL,
	smoothing     TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS specimen_results (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id               TEXT NOT NULL,
	seq                  INTEGER NOT NULL,
	specimen_id          TEXT NOT NULL,
	point_count          INTEGER NOT NULL,
	cross_sectional_area REAL,
	gauge_length         REAL,
	yield_strength       REAL,
	yield_strain         REAL,
	tensile_strength     REAL,
	elongation_percent   REAL,
	yield_method         TEXT,
	smoothing            TEXT,
	error_kind           TEXT,
	error_message        TEXT,
	FOREIGN KEY (run_id) REFERENCES analysis_runs(run_id)
);

CREATE TABLE IF NOT EXISTS yield_attempts (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	specimen_id   TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	method        TEXT NOT NULL,
	outcome       TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES analysis_runs(run_id)
);
`
// #endregion schema

// #region store-struct
// Store persists specimen configuration and analysis runs in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region configs
// UpsertConfig validates cfg and stores it under id.
func (s *Store) UpsertConfig(id string, cfg specimen.Config) error {
	if id == "" {
		return fmt.Errorf("upsert config: empty specimen id")
	}
	if err := specimen.Validate(cfg); err != nil {
		return fmt.Errorf("upsert config %s: %w", id, err)
	}
	_, err := s.db.Exec(
		`INSERT INTO specimen_configs (specimen_id, cross_sectional_area, gauge_length, label, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(specimen_id) DO UPDATE SET
			cross_sectional_area = excluded.cross_sectional_area,
			gauge_length = excluded.gauge_length,
			label = excluded.label,
			updated_at = excluded.updated_at`,
		id, cfg.CrossSectionalArea, nullIfZero(cfg.GaugeLength), nullIfEmpty(cfg.Label),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert config %s: %w", id, err)
	}
	return nil
}

// ImportTable upserts every entry of t in one transaction.
func (s *Store) ImportTable(t *specimen.Table) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	n := 0
	for _, id := range t.IDs() {
		cfg, _ := t.Lookup(id)
		if err := specimen.Validate(cfg); err != nil {
			return 0, fmt.Errorf("import %s: %w", id, err)
		}
		_, err := tx.Exec(
			`INSERT INTO specimen_configs (specimen_id, cross_sectional_area, gauge_length, label, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(specimen_id) DO UPDATE SET
				cross_sectional_area = excluded.cross_sectional_area,
				gauge_length = excluded.gauge_length,
				label = excluded.label,
				updated_at = excluded.updated_at`,
			id, cfg.CrossSectionalArea, nullIfZero(cfg.GaugeLength), nullIfEmpty(cfg.Label), now,
		)
		if err != nil {
			return 0, fmt.Errorf("import %s: %w", id, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// DeleteConfig removes id. Deleting an unknown id is not an error.
func (s *Store) DeleteConfig(id string) error {
	if _, err := s.db.Exec(`DELETE FROM specimen_configs WHERE specimen_id = ?`, id); err != nil {
		return fmt.Errorf("delete config %s: %w", id, err)
	}
	return nil
}

// ConfigTable loads every stored config into an immutable table.
func (s *Store) ConfigTable() (*specimen.Table, error) {
	rows, err := s.db.Query(
		`SELECT specimen_id, cross_sectional_area, gauge_length, label FROM specimen_configs`,
	)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]specimen.Config)
	for rows.Next() {
		var id string
		var cfg specimen.Config
		var gauge sql.NullFloat64
		var label sql.NullString
		if err := rows.Scan(&id, &cfg.CrossSectionalArea, &gauge, &label); err != nil {
			return nil, fmt.Errorf("scan config: %w", err)
		}
		if gauge.Valid {
			cfg.GaugeLength = gauge.Float64
		}
		if label.Valid {
			cfg.Label = label.String
		}
		entries[id] = cfg
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return specimen.NewTable(entries), nil
}
// #endregion configs

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(v float64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func nullFloat(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func floatOrNil(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
// #endregion helpers
