package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresBackend stores each collection as a table with a pgvector column and a jsonb payload.
type PostgresBackend struct {
	Pool *pgxpool.Pool
}

func NewPostgresBackend(ctx context.Context, databaseURL string) (*PostgresBackend, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresBackend{Pool: pool}, nil
}

func (p *PostgresBackend) Close() {
	p.Pool.Close()
}

func (p *PostgresBackend) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

func (p *PostgresBackend) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *PostgresBackend) EnsureCollection(ctx context.Context, name string, vectorDim int) error {
	if _, err := p.Pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil && !isDuplicate(err) {
		return err
	}

	table := pgx.Identifier{name}.Sanitize()
	_, err := p.Pool.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id uuid PRIMARY KEY,
		embedding vector(%d) NOT NULL,
		payload jsonb NOT NULL,
		updated_at timestamptz NOT NULL DEFAULT now()
	)`, table, vectorDim))
	if isDuplicate(err) {
		return ErrCollectionExists
	}
	return err
}

func (p *PostgresBackend) Upsert(ctx context.Context, collection string, points []Point) error {
	query := fmt.Sprintf(`INSERT INTO %s (id, embedding, payload, updated_at)
		VALUES ($1, $2::vector, $3, now())
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`, pgx.Identifier{collection}.Sanitize())

	batch := &pgx.Batch{}
	for _, pt := range points {
		payload, err := json.Marshal(pt.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload %s: %w", pt.ID, err)
		}
		batch.Queue(query, pt.ID, pgvector.NewVector(pt.Vector), payload)
	}

	return p.WithTx(ctx, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (p *PostgresBackend) Scroll(ctx context.Context, collection string, must []Match, limit int) ([]ScrollResult, error) {
	query := fmt.Sprintf(`SELECT id::text, payload FROM %s`, pgx.Identifier{collection}.Sanitize())
	var args []any
	var wheres []string
	for _, m := range must {
		args = append(args, m.Field, m.Value)
		wheres = append(wheres, fmt.Sprintf("payload->>$%d = $%d", len(args)-1, len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	rows, err := p.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScrollResult
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		payload := map[string]any{}
		if err := dec.Decode(&payload); err != nil {
			return nil, fmt.Errorf("decode payload %s: %w", id, err)
		}
		out = append(out, ScrollResult{ID: id, Payload: payload})
	}
	return out, rows.Err()
}

// isDuplicate matches the errors concurrent CREATE ... IF NOT EXISTS can still raise.
func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "42P07", "42710", "23505":
		return true
	}
	return false
}
