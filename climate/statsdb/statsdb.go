// Package statsdb is a climate.Backend over precomputed statistics stored in
// SQLite.
package statsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/pacificclimate/p2a-rule-engine/climate"
)

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("statsdb: store is closed")

// Record is the statistics of one data file.
type Record struct {
	climate.StatsQuery
	FileID string
	Stats  climate.Stats
}

// Store implements climate.Backend.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

var _ climate.Backend = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS stats (
	ensemble    TEXT NOT NULL,
	model       TEXT NOT NULL,
	emission    TEXT NOT NULL,
	variable    TEXT NOT NULL,
	timescale   TEXT NOT NULL,
	time        INTEGER NOT NULL,
	cell_method TEXT NOT NULL,
	area        TEXT NOT NULL,
	file_id     TEXT NOT NULL,
	stat        TEXT NOT NULL,
	value       REAL NOT NULL,
	PRIMARY KEY (ensemble, model, emission, variable, timescale, time, cell_method, area, file_id, stat)
);

CREATE INDEX IF NOT EXISTS idx_stats_ensemble ON stats(ensemble, model);
`

// Open opens the database at dsn, creating the schema if needed.
// The dsn is a file path or ":memory:".
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// one connection, so that ":memory:" databases are shared
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Put stores a record, replacing any statistics already stored for the same
// file.
func (s *Store) Put(ctx context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	q := r.StatsQuery
	for stat, value := range r.Stats {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO stats (ensemble, model, emission, variable, timescale, time, cell_method, area, file_id, stat, value)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, q.Ensemble, q.Model, q.Emission, q.Variable, q.Timescale, q.Time, q.CellMethod, q.Area, r.FileID, stat, value)
		if err != nil {
			return fmt.Errorf("put %s %s: %w", r.FileID, stat, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Models implements climate.Backend.
func (s *Store) Models(ctx context.Context, ensemble string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT model FROM stats
		WHERE ensemble = ?
		ORDER BY model
	`, ensemble)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var models []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate models: %w", err)
	}
	return models, nil
}

// MultiStats implements climate.Backend. Files with no stored statistics
// are absent from the result.
func (s *Store) MultiStats(ctx context.Context, q climate.StatsQuery) (map[string]climate.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT file_id, stat, value FROM stats
		WHERE ensemble = ? AND model = ? AND emission = ? AND variable = ?
		  AND timescale = ? AND time = ? AND cell_method = ? AND area = ?
	`, q.Ensemble, q.Model, q.Emission, q.Variable, q.Timescale, q.Time, q.CellMethod, q.Area)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	out := map[string]climate.Stats{}
	for rows.Next() {
		var (
			id, stat string
			value    float64
		)
		if err := rows.Scan(&id, &stat, &value); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		if out[id] == nil {
			out[id] = climate.Stats{}
		}
		out[id][stat] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return out, nil
}

// Close closes the database. Closing a closed Store is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
