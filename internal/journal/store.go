// Package journal keeps an opt-in operational record of gateway calls in
// sqlite. It never stores prompts or image bytes, only their sizes.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

const schema = `
CREATE TABLE IF NOT EXISTS generations (
    id TEXT PRIMARY KEY,
    provider TEXT NOT NULL,
    model TEXT,
    prompt_chars INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    error_kind TEXT,
    image_bytes INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at);
CREATE INDEX IF NOT EXISTS idx_generations_provider ON generations(provider);
`

type Entry struct {
	ID          string
	Provider    string
	Model       string
	PromptChars int
	Status      string
	ErrorKind   string
	ImageBytes  int
	Duration    time.Duration
	CreatedAt   time.Time
}

type Summary struct {
	Total       int
	Succeeded   int
	Failed      int
	ImageBytes  int64
	AvgDuration time.Duration
}

type KindCount struct {
	Kind  string
	Count int
}

type ProviderSummary struct {
	Provider   string
	Count      int
	ImageBytes int64
}

type Store struct {
	db *sql.DB
}

func NewStoreWithPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DefaultPath is ~/.satujam/journal.db.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".satujam", "journal.db"), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Record(ctx context.Context, e *Entry) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generations (id, provider, model, prompt_chars, status, error_kind, image_bytes, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Provider, nullString(e.Model), e.PromptChars, e.Status, nullString(e.ErrorKind),
		e.ImageBytes, e.Duration.Milliseconds(), createdAt)
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, provider, model, prompt_chars, status, error_kind, image_bytes, duration_ms, created_at
		 FROM generations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var model, errorKind sql.NullString
		var durationMS int64
		if err := rows.Scan(&e.ID, &e.Provider, &model, &e.PromptChars, &e.Status,
			&errorKind, &e.ImageBytes, &durationMS, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Model = model.String
		e.ErrorKind = errorKind.String
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) Summary(ctx context.Context) (*Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(image_bytes), 0),
		        COALESCE(AVG(duration_ms), 0)
		 FROM generations`, StatusOK)

	var summary Summary
	var avgMS float64
	if err := row.Scan(&summary.Total, &summary.Succeeded, &summary.ImageBytes, &avgMS); err != nil {
		return nil, err
	}
	summary.Failed = summary.Total - summary.Succeeded
	summary.AvgDuration = time.Duration(avgMS * float64(time.Millisecond))
	return &summary, nil
}

func (s *Store) CountByKind(ctx context.Context) ([]KindCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT error_kind, COUNT(*) FROM generations
		 WHERE status = ? GROUP BY error_kind ORDER BY error_kind`, StatusError)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []KindCount
	for rows.Next() {
		var kind sql.NullString
		var kc KindCount
		if err := rows.Scan(&kind, &kc.Count); err != nil {
			return nil, err
		}
		kc.Kind = kind.String
		counts = append(counts, kc)
	}
	return counts, rows.Err()
}

func (s *Store) ByProvider(ctx context.Context) ([]ProviderSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, COUNT(*), COALESCE(SUM(image_bytes), 0)
		 FROM generations GROUP BY provider ORDER BY provider`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []ProviderSummary
	for rows.Next() {
		var ps ProviderSummary
		if err := rows.Scan(&ps.Provider, &ps.Count, &ps.ImageBytes); err != nil {
			return nil, err
		}
		summaries = append(summaries, ps)
	}
	return summaries, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
