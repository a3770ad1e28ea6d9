// Package store provides ScenarioStore backends: a durable SQLite store for
// production and an in-memory store for tests and ephemeral runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/skyfall-io/impact-sim-service/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists scenarios in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite initializes the database connection, creating directories and
// the schema as needed. The connection pool is capped at one connection so
// all writes serialize through a single writer.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS impact_scenarios (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			name TEXT,
			source TEXT NOT NULL,
			inputs TEXT NOT NULL,
			derived TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_impact_scenarios_source ON impact_scenarios(source);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Ping reports whether the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create persists a fully-populated scenario. The single INSERT makes the
// write atomic: either the whole record becomes visible or nothing does.
// An empty id gets a store-assigned "sim-<uuid>".
func (s *SQLiteStore) Create(ctx context.Context, scenario domain.ImpactScenario) (domain.ImpactScenario, error) {
	if scenario.ID == "" {
		scenario.ID = "sim-" + uuid.NewString()
	}

	inputs, err := json.Marshal(scenario.Inputs)
	if err != nil {
		return domain.ImpactScenario{}, fmt.Errorf("%w: encode inputs: %v", domain.ErrStorage, err)
	}
	derived, err := json.Marshal(scenario.Derived)
	if err != nil {
		return domain.ImpactScenario{}, fmt.Errorf("%w: encode derived: %v", domain.ErrStorage, err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO impact_scenarios (id, name, source, inputs, derived, created_at) VALUES (?, ?, ?, ?, ?, ?);`,
		scenario.ID,
		scenario.Name,
		string(scenario.Source),
		string(inputs),
		string(derived),
		scenario.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return domain.ImpactScenario{}, fmt.Errorf("%w: insert scenario %s: %v", domain.ErrStorage, scenario.ID, err)
	}

	return scenario, nil
}

// List returns all scenarios in creation order.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.ImpactScenario, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, name, source, inputs, derived, created_at FROM impact_scenarios ORDER BY seq ASC;`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query scenarios: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	scenarios := make([]domain.ImpactScenario, 0)
	for rows.Next() {
		scenario, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate scenarios: %v", domain.ErrStorage, err)
	}
	return scenarios, nil
}

// Get returns the scenario with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (domain.ImpactScenario, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, source, inputs, derived, created_at FROM impact_scenarios WHERE id = ?;`,
		id,
	)

	scenario, err := scanScenario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ImpactScenario{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.ImpactScenario{}, err
	}
	return scenario, nil
}

// Delete removes the scenario with the given id, failing with ErrNotFound
// when no row matches.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM impact_scenarios WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("%w: delete scenario %s: %v", domain.ErrStorage, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete scenario %s: %v", domain.ErrStorage, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanScenario(row scanner) (domain.ImpactScenario, error) {
	var (
		id           string
		name         sql.NullString
		source       string
		inputsRaw    string
		derivedRaw   string
		createdAtStr string
	)

	if err := row.Scan(&id, &name, &source, &inputsRaw, &derivedRaw, &createdAtStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ImpactScenario{}, err
		}
		return domain.ImpactScenario{}, fmt.Errorf("%w: scan scenario: %v", domain.ErrStorage, err)
	}

	var inputs domain.ImpactInputs
	if err := json.Unmarshal([]byte(inputsRaw), &inputs); err != nil {
		return domain.ImpactScenario{}, fmt.Errorf("%w: decode inputs for %s: %v", domain.ErrStorage, id, err)
	}
	var derived domain.DerivedMetrics
	if err := json.Unmarshal([]byte(derivedRaw), &derived); err != nil {
		return domain.ImpactScenario{}, fmt.Errorf("%w: decode derived for %s: %v", domain.ErrStorage, id, err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		createdAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return domain.ImpactScenario{}, fmt.Errorf("%w: decode created_at for %s: %v", domain.ErrStorage, id, err)
		}
	}

	return domain.ImpactScenario{
		ID:        id,
		Name:      name.String,
		Source:    domain.Source(source),
		Inputs:    inputs,
		Derived:   derived,
		CreatedAt: createdAt,
	}, nil
}
