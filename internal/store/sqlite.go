// Package store persists completed runs and their sweep series. The engine
// itself never touches it; drivers hand finished results over.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"spin-market/internal/model"
	"spin-market/internal/sim"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// RunRecord is the stored metadata of one completed run.
type RunRecord struct {
	ID        string
	CreatedAt time.Time
	Params    model.Params

	FinalMagnetization float64
	ActiveAgents       int
	Sweeps             int
}

// Store wraps a SQLite database holding runs and series.
type Store struct {
	db *sql.DB
}

// Open creates (or opens) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc sqlite is happiest with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			lattice_size INTEGER NOT NULL,
			neighbor_coupling REAL NOT NULL,
			global_coupling REAL NOT NULL,
			beta REAL NOT NULL,
			neutral_fraction REAL NOT NULL,
			init_down_fraction REAL NOT NULL,
			placement TEXT NOT NULL,
			field_policy TEXT NOT NULL,
			sweeps INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			crash_sweep INTEGER,
			crash_agents INTEGER,
			final_magnetization REAL NOT NULL,
			active_agents INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS series (
			run_id TEXT NOT NULL REFERENCES runs(id),
			sweep INTEGER NOT NULL,
			magnetization REAL NOT NULL,
			log_price REAL NOT NULL,
			PRIMARY KEY (run_id, sweep)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// SaveRun inserts the run and its series in one transaction.
func (s *Store) SaveRun(ctx context.Context, rec RunRecord, series []sim.SweepRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var crashSweep, crashAgents any
	if rec.Params.Crash != nil {
		crashSweep = rec.Params.Crash.Sweep
		crashAgents = rec.Params.Crash.Agents
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO runs (
		id, created_at, lattice_size, neighbor_coupling, global_coupling, beta,
		neutral_fraction, init_down_fraction, placement, field_policy,
		sweeps, seed, crash_sweep, crash_agents, final_magnetization, active_agents
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.Params.L, rec.Params.NeighborCoupling, rec.Params.GlobalCoupling, rec.Params.Beta,
		rec.Params.NeutralFraction, rec.Params.InitDownFraction,
		string(rec.Params.Placement), string(rec.Params.FieldPolicy),
		rec.Sweeps, rec.Params.Seed, crashSweep, crashAgents,
		rec.FinalMagnetization, rec.ActiveAgents,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	ins, err := tx.PrepareContext(ctx,
		`INSERT INTO series (run_id, sweep, magnetization, log_price) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ins.Close()
	for _, row := range series {
		if _, err := ins.ExecContext(ctx, rec.ID, row.Sweep, row.Magnetization, row.LogPrice); err != nil {
			return fmt.Errorf("insert series row %d: %w", row.Sweep, err)
		}
	}
	return tx.Commit()
}

// GetRun loads one run's metadata.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		id, created_at, lattice_size, neighbor_coupling, global_coupling, beta,
		neutral_fraction, init_down_fraction, placement, field_policy,
		sweeps, seed, crash_sweep, crash_agents, final_magnetization, active_agents
	FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, created_at, lattice_size, neighbor_coupling, global_coupling, beta,
		neutral_fraction, init_down_fraction, placement, field_policy,
		sweeps, seed, crash_sweep, crash_agents, final_magnetization, active_agents
	FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetSeries loads the full sweep series of a run in sweep order.
func (s *Store) GetSeries(ctx context.Context, id string) ([]sim.SweepRow, error) {
	if _, err := s.GetRun(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT sweep, magnetization, log_price FROM series WHERE run_id = ? ORDER BY sweep`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.SweepRow
	for rows.Next() {
		var r sim.SweepRow
		if err := rows.Scan(&r.Sweep, &r.Magnetization, &r.LogPrice); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (RunRecord, error) {
	var rec RunRecord
	var created, placement, fieldPolicy string
	var crashSweep, crashAgents sql.NullInt64
	err := r.Scan(
		&rec.ID, &created, &rec.Params.L,
		&rec.Params.NeighborCoupling, &rec.Params.GlobalCoupling, &rec.Params.Beta,
		&rec.Params.NeutralFraction, &rec.Params.InitDownFraction,
		&placement, &fieldPolicy,
		&rec.Sweeps, &rec.Params.Seed, &crashSweep, &crashAgents,
		&rec.FinalMagnetization, &rec.ActiveAgents,
	)
	if err != nil {
		return RunRecord{}, err
	}
	rec.Params.Placement = model.Placement(placement)
	rec.Params.FieldPolicy = model.FieldPolicy(fieldPolicy)
	rec.Params.Sweeps = rec.Sweeps
	if crashSweep.Valid && crashAgents.Valid {
		rec.Params.Crash = &model.CrashSpec{Sweep: int(crashSweep.Int64), Agents: int(crashAgents.Int64)}
	}
	if t, perr := time.Parse(time.RFC3339Nano, created); perr == nil {
		rec.CreatedAt = t
	}
	return rec, nil
}
