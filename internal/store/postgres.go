package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/wordlink/internal/shortener"
)

const uniqueViolation = "23505"

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pgQueries

	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pgQueries: pgQueries{q: pool}, pool: pool}
}

// Atomic runs fn inside a database transaction.
func (p *PostgresStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx shortener.Tx) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, pgQueries{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// SeedWords adds new words to the pool. Words already live as a keyword start used.
func (p *PostgresStore) SeedWords(ctx context.Context, words []string) (int, error) {
	query := `
		INSERT INTO dict (word, used)
		SELECT w, CASE WHEN EXISTS (SELECT 1 FROM urls WHERE short = w) THEN 1 ELSE 0 END
		FROM unnest($1::text[]) AS w
		ON CONFLICT (word) DO NOTHING
	`

	tag, err := p.pool.Exec(ctx, query, words)
	if err != nil {
		return 0, err
	}

	return int(tag.RowsAffected()), nil
}

func (p *PostgresStore) Stats(ctx context.Context) (shortener.Stats, error) {
	query := `
		SELECT
			(SELECT count(*) FROM dict),
			(SELECT count(*) FROM dict WHERE used = 1),
			(SELECT count(*) FROM urls)
	`

	var stats shortener.Stats

	err := p.pool.QueryRow(ctx, query).Scan(&stats.Words, &stats.UsedWords, &stats.Records)

	return stats, err
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

// pgQueries implements shortener.Tx against either the pool or a transaction.
type pgQueries struct {
	q querier
}

func (p pgQueries) Allocate(ctx context.Context) (string, error) {
	query := `
		UPDATE dict SET used = 1
		WHERE word = (
			SELECT word FROM dict
			WHERE used = 0
			ORDER BY random()
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING word
	`

	var word string

	err := p.q.QueryRow(ctx, query).Scan(&word)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shortener.ErrExhausted
		}

		return "", err
	}

	return word, nil
}

func (p pgQueries) MarkUsed(ctx context.Context, word string) error {
	_, err := p.q.Exec(ctx, `UPDATE dict SET used = 1 WHERE word = $1`, word)

	return err
}

// Release touches no row when word is not a pool word.
func (p pgQueries) Release(ctx context.Context, word string) error {
	_, err := p.q.Exec(ctx, `UPDATE dict SET used = 0 WHERE word = $1`, word)

	return err
}

func (p pgQueries) ResetWords(ctx context.Context) error {
	_, err := p.q.Exec(ctx, `UPDATE dict SET used = 0 WHERE used <> 0`)

	return err
}

func (p pgQueries) Insert(ctx context.Context, record shortener.Record) error {
	_, err := p.q.Exec(ctx, `INSERT INTO urls (orig, short) VALUES ($1, $2)`, record.Original, record.Keyword)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return shortener.ErrDuplicateKeyword
		}

		return err
	}

	return nil
}

func (p pgQueries) FindByKeyword(ctx context.Context, keyword string) ([]shortener.Record, error) {
	return p.find(ctx, `SELECT orig, short FROM urls WHERE short = $1`, keyword)
}

func (p pgQueries) FindByURL(ctx context.Context, originalURL string) ([]shortener.Record, error) {
	return p.find(ctx, `SELECT orig, short FROM urls WHERE orig = $1`, originalURL)
}

func (p pgQueries) DeleteByKeyword(ctx context.Context, keyword string) error {
	_, err := p.q.Exec(ctx, `DELETE FROM urls WHERE short = $1`, keyword)

	return err
}

func (p pgQueries) DeleteAll(ctx context.Context) error {
	_, err := p.q.Exec(ctx, `DELETE FROM urls`)

	return err
}

func (p pgQueries) ListAll(ctx context.Context) ([]shortener.Record, error) {
	return p.find(ctx, `SELECT orig, short FROM urls`)
}

func (p pgQueries) find(ctx context.Context, query string, args ...any) ([]shortener.Record, error) {
	rows, err := p.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (shortener.Record, error) {
		var r shortener.Record
		err := row.Scan(&r.Original, &r.Keyword)

		return r, err
	})
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
