package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS articles (
	id                       TEXT PRIMARY KEY,
	title                    TEXT NOT NULL,
	publish_date             TEXT NOT NULL,
	publish_date_approximate BOOLEAN NOT NULL DEFAULT FALSE,
	url                      TEXT NOT NULL,
	content                  JSONB NOT NULL,
	category                 TEXT NOT NULL DEFAULT '',
	summary                  TEXT NOT NULL DEFAULT '',
	source                   TEXT NOT NULL DEFAULT '',
	created_at               TIMESTAMPTZ NOT NULL,
	updated_at               TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles (created_at DESC);

CREATE TABLE IF NOT EXISTS failed_items (
	id              BIGSERIAL PRIMARY KEY,
	url             TEXT NOT NULL UNIQUE,
	failure_kind    TEXT NOT NULL,
	failure_reason  TEXT NOT NULL,
	last_attempt_at TIMESTAMPTZ NOT NULL,
	attempt_count   INTEGER NOT NULL DEFAULT 1
);
`

// Connect opens a pool, checks it, and makes sure the tables exist.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return pool, nil
}
