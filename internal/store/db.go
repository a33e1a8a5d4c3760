package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"mailrep/internal/models"
)

// Postgres keeps history in a PostgreSQL table, with the full result stored
// as JSONB so it can be re-read without schema changes.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ History = (*Postgres)(nil)

// Connect opens a pool to Postgres and runs migrations.
func Connect(ctx context.Context, connString string) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// runMigrations creates the necessary tables if they don't exist
func (p *Postgres) runMigrations(ctx context.Context) error {
	queryTable := `
	CREATE TABLE IF NOT EXISTS verifications (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		score INT NOT NULL,
		status TEXT NOT NULL,
		risk_level TEXT NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`

	queryIndex := `
	CREATE INDEX IF NOT EXISTS idx_verifications_created_at
		ON verifications (created_at DESC);`

	if _, err := p.pool.Exec(ctx, queryTable); err != nil {
		return fmt.Errorf("migration failed (verifications): %w", err)
	}
	if _, err := p.pool.Exec(ctx, queryIndex); err != nil {
		return fmt.Errorf("migration failed (verifications index): %w", err)
	}
	return nil
}

func (p *Postgres) Save(ctx context.Context, res models.VerificationResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO verifications (id, email, score, status, risk_level, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, res.ID, res.Email, res.Score, string(res.Status), string(res.RiskLevel), data, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert verification %s: %w", res.ID, err)
	}
	return nil
}

func (p *Postgres) Recent(ctx context.Context, limit int) ([]models.VerificationResult, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT data FROM verifications ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	results := []models.VerificationResult{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		var res models.VerificationResult
		if err := json.Unmarshal(data, &res); err != nil {
			continue // Skip malformed rows
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return results, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
