package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go, no cgo needed

	"mailrep/internal/models"
)

// SQLite keeps history in a local SQLite file, for single-node and
// development deployments.
type SQLite struct {
	db *sql.DB
}

var _ History = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// gives a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// ":memory:" databases are per-connection.
	db.SetMaxOpenConns(1)

	s, err := NewSQLite(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an existing handle and creates the schema.
func NewSQLite(ctx context.Context, db *sql.DB) (*SQLite, error) {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS verifications (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			score INTEGER NOT NULL,
			status TEXT NOT NULL,
			risk_level TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_verifications_created_at ON verifications(created_at)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Save(ctx context.Context, res models.VerificationResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verifications (id, email, score, status, risk_level, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, res.ID, res.Email, res.Score, string(res.Status), string(res.RiskLevel), string(data), res.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert verification %s: %w", res.ID, err)
	}
	return nil
}

func (s *SQLite) Recent(ctx context.Context, limit int) ([]models.VerificationResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM verifications ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	results := []models.VerificationResult{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		var res models.VerificationResult
		if err := json.Unmarshal([]byte(data), &res); err != nil {
			continue // Skip malformed rows
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return results, nil
}

func (s *SQLite) Close() {
	s.db.Close()
}
