package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jsayram/life-wrapped-sub005/internal/domain"
)

const utterancesSchema = `
CREATE TABLE IF NOT EXISTS utterances (
	id BIGSERIAL PRIMARY KEY,
	job_id TEXT NOT NULL,
	idx INT NOT NULL,
	locale TEXT NOT NULL,
	text TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (job_id, idx)
)`

const insertUtterance = `
INSERT INTO utterances (job_id, idx, locale, text)
VALUES ($1, $2, $3, $4)
ON CONFLICT (job_id, idx) DO NOTHING`

// Postgres persists utterances in a postgres table via a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the given DSN and ensures the utterances table.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, utterancesSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure utterances table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Insert writes one utterance row; replays of the same (job, index) are no-ops.
func (p *Postgres) Insert(ctx context.Context, utterance domain.Utterance) error {
	_, err := p.pool.Exec(ctx, insertUtterance,
		utterance.JobID,
		utterance.Index,
		utterance.Locale,
		utterance.Text,
	)
	if err != nil {
		return fmt.Errorf("insert utterance: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
