package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresBackend keeps each collection as one JSONB row of the collections table.
type PostgresBackend struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresBackend(pool *pgxpool.Pool, logger *zap.Logger) *PostgresBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresBackend{pool: pool, logger: logger}
}

func (b *PostgresBackend) Read(ctx context.Context, c Collection) ([]byte, error) {
	var body []byte
	err := b.pool.QueryRow(ctx, `SELECT body FROM collections WHERE name = $1`, string(c)).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return []byte("[]"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("select collection: %w", err)
	}
	return body, nil
}

// Update locks the collection row for the duration of fn.
func (b *PostgresBackend) Update(ctx context.Context, c Collection, fn func([]byte) ([]byte, error)) error {
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO collections (name, body) VALUES ($1, '[]'::jsonb) ON CONFLICT (name) DO NOTHING`,
		string(c)); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	var current []byte
	if err := tx.QueryRow(ctx,
		`SELECT body FROM collections WHERE name = $1 FOR UPDATE`, string(c)).Scan(&current); err != nil {
		return fmt.Errorf("lock collection: %w", err)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if !bytes.Equal(current, next) {
		if _, err := tx.Exec(ctx,
			`UPDATE collections SET body = $2::jsonb, updated_at = NOW() WHERE name = $1`,
			string(c), string(next)); err != nil {
			return fmt.Errorf("update collection: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	b.logger.Debug("collection written", zap.String("collection", string(c)))
	return nil
}
