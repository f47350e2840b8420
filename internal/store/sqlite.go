package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pbaille/gemrank/internal/domain"
)

//go:embed schema.sql
var schema string

const dateLayout = "2006-01-02"

// ErrNotFound is returned when no run matches an id or prefix
var ErrNotFound = errors.New("run not found")

// Store handles database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists an analysis and returns the stored run
func (s *Store) SaveRun(a domain.Analysis) (*domain.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	blob, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO runs (id, date, moon_sign, analysis, created_at) VALUES (?, ?, ?, ?, ?)",
		id, a.Date.Format(dateLayout), a.MoonSign, string(blob), now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	tiers := make(map[string]domain.Tier)
	for _, e := range a.Significant {
		tiers[e.Value] = domain.TierSignificant
	}
	for _, e := range a.Notable {
		tiers[e.Value] = domain.TierNotable
	}
	for i, e := range a.Ranked {
		_, err := tx.Exec(
			"INSERT INTO ranked_values (run_id, position, value, count, tier) VALUES (?, ?, ?, ?, ?)",
			id, i, e.Value, e.Count, tiers[e.Value].String(),
		)
		if err != nil {
			return nil, fmt.Errorf("insert ranked value: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &domain.Run{ID: id, Analysis: a, CreatedAt: now}, nil
}

// GetRun retrieves a run by full id or unique id prefix
func (s *Store) GetRun(idOrPrefix string) (*domain.Run, error) {
	if idOrPrefix == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	// Literal prefix match; LIKE would treat % and _ as wildcards
	rows, err := s.db.Query(
		"SELECT id, analysis, created_at FROM runs WHERE substr(id, 1, length(?1)) = ?1 ORDER BY created_at DESC LIMIT 2",
		idOrPrefix,
	)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}

	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	case 1:
		return &runs[0], nil
	}
	if runs[0].ID == idOrPrefix {
		return &runs[0], nil
	}
	if runs[1].ID == idOrPrefix {
		return &runs[1], nil
	}
	return nil, fmt.Errorf("ambiguous run prefix: %s", idOrPrefix)
}

// ListRuns returns recent runs with pagination
func (s *Store) ListRuns(limit, offset int) ([]domain.Run, error) {
	rows, err := s.db.Query(
		"SELECT id, analysis, created_at FROM runs ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return scanRuns(rows)
}

// RunsForDate returns the runs analysing date, newest first
func (s *Store) RunsForDate(date time.Time) ([]domain.Run, error) {
	rows, err := s.db.Query(
		"SELECT id, analysis, created_at FROM runs WHERE date = ? ORDER BY created_at DESC",
		date.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("runs for date: %w", err)
	}
	return scanRuns(rows)
}

// RecurringValues counts in how many runs each value reached a tier,
// most frequent first
func (s *Store) RecurringValues(limit int) ([]domain.RankedEntry, error) {
	rows, err := s.db.Query(`
		SELECT value, COUNT(DISTINCT run_id) AS runs
		FROM ranked_values
		WHERE tier != 'none'
		GROUP BY value
		ORDER BY runs DESC, MIN(rowid)
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recurring values: %w", err)
	}
	defer rows.Close()

	var entries []domain.RankedEntry
	for rows.Next() {
		var e domain.RankedEntry
		if err := rows.Scan(&e.Value, &e.Count); err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanRuns(rows *sql.Rows) ([]domain.Run, error) {
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var r domain.Run
		var blob string
		if err := rows.Scan(&r.ID, &blob, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(blob), &r.Analysis); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
