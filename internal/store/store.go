// Package store persists provenance graphs in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/dfornika/irida/internal/provenance"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - runs, tool executions, parameters and predecessor edges
const currentSchemaVersion = 1

var (
	ErrRunExists   = errors.New("provenance run already stored")
	ErrRunNotFound = errors.New("provenance run not found")
)

type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, with WAL journaling,
// a busy timeout and foreign keys enforced.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// RunInfo describes a stored run.
type RunInfo struct {
	RunID     string    `json:"run_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	Steps     int       `json:"steps"`
}

// SaveGraph stores every record of g under runID in one transaction. Runs
// are write-once.
func (s *Store) SaveGraph(ctx context.Context, runID, name string, g *provenance.Graph) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE run_id = ?", runID).Scan(&exists); err != nil {
		return fmt.Errorf("check run %s: %w", runID, err)
	}
	if exists > 0 {
		return fmt.Errorf("%w: %s", ErrRunExists, runID)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, name, created_at) VALUES (?, ?, ?)",
		runID, name, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}

	for _, r := range g.Records() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tool_executions
				(run_id, step, tool_name, tool_version, execution_manager_id, command_line, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, int(r.ID), r.ToolName, r.ToolVersion, r.ExecutionManagerID, r.CommandLine,
			r.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert step %d: %w", r.ID, err)
		}
		for k, v := range r.Parameters {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO tool_execution_parameters (run_id, step, param_key, value) VALUES (?, ?, ?, ?)",
				runID, int(r.ID), k, v); err != nil {
				return fmt.Errorf("insert parameter %q of step %d: %w", k, r.ID, err)
			}
		}
		for _, p := range r.PreviousSteps {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO tool_execution_prev_steps (run_id, step, prev_step) VALUES (?, ?, ?)",
				runID, int(r.ID), int(p)); err != nil {
				return fmt.Errorf("insert edge %d -> %d: %w", p, r.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", runID, err)
	}
	return nil
}

// LoadGraph rebuilds the graph stored under runID.
func (s *Store) LoadGraph(ctx context.Context, runID string) (*provenance.Graph, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE run_id = ?", runID).Scan(&count); err != nil {
		return nil, fmt.Errorf("check run %s: %w", runID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	records, err := s.loadSteps(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := s.loadParameters(ctx, runID, records); err != nil {
		return nil, err
	}
	if err := s.loadEdges(ctx, runID, records); err != nil {
		return nil, err
	}

	g, err := provenance.FromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("rebuild run %s: %w", runID, err)
	}
	return g, nil
}

func (s *Store) loadSteps(ctx context.Context, runID string) ([]provenance.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step, tool_name, tool_version, execution_manager_id, command_line, created_at
		FROM tool_executions WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var records []provenance.Record
	for rows.Next() {
		var (
			r       provenance.Record
			step    int
			created string
		)
		if err := rows.Scan(&step, &r.ToolName, &r.ToolVersion, &r.ExecutionManagerID, &r.CommandLine, &created); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		r.ID = provenance.ID(step)
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of step %d: %w", step, err)
		}
		r.Parameters = map[string]string{}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) loadParameters(ctx context.Context, runID string, records []provenance.Record) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT step, param_key, value FROM tool_execution_parameters WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("query parameters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			step     int
			key, val string
		)
		if err := rows.Scan(&step, &key, &val); err != nil {
			return fmt.Errorf("scan parameter: %w", err)
		}
		if step < 0 || step >= len(records) {
			return fmt.Errorf("parameter %q references unknown step %d", key, step)
		}
		records[step].Parameters[key] = val
	}
	return rows.Err()
}

func (s *Store) loadEdges(ctx context.Context, runID string, records []provenance.Record) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT step, prev_step FROM tool_execution_prev_steps WHERE run_id = ? ORDER BY step, prev_step", runID)
	if err != nil {
		return fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var step, prev int
		if err := rows.Scan(&step, &prev); err != nil {
			return fmt.Errorf("scan edge: %w", err)
		}
		if step < 0 || step >= len(records) {
			return fmt.Errorf("edge references unknown step %d", step)
		}
		records[step].PreviousSteps = append(records[step].PreviousSteps, provenance.ID(prev))
	}
	return rows.Err()
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.name, r.created_at, COUNT(t.step)
		FROM runs r LEFT JOIN tool_executions t ON t.run_id = r.run_id
		GROUP BY r.run_id
		ORDER BY r.created_at DESC, r.run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var (
			info    RunInfo
			created string
		)
		if err := rows.Scan(&info.RunID, &info.Name, &created, &info.Steps); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		info.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of run %s: %w", info.RunID, err)
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}
