// Package sqlite is the durable store adapter: string keys to raw JSON
// blobs over a single kv table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/daybook-app/daybook/internal/daybook"
)

// Ensure Store satisfies the adapter contract.
var _ daybook.Store = (*Store)(nil)

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) Store {
	return Store{db: db}
}

// Get fetches the raw value under key.
//
// A key that was never written comes back as [daybook.ErrNotFound]: callers
// distinguish absence from an empty blob.
func (s Store) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT v FROM kv WHERE k = ?;`

	var value string
	err := s.db.GetContext(ctx, &value, q, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", daybook.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("error fetching key %q: %s", key, err)
	}

	return value, nil
}

// Set writes the raw value under key, overwriting any previous value.
// Single attempt, no retry: callers treat failure as non-fatal and log it.
func (s Store) Set(ctx context.Context, key, value string) error {
	const q = `INSERT INTO kv (k, v, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(k) DO UPDATE SET v = excluded.v, updated_at = CURRENT_TIMESTAMP;`

	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("error writing key %q: %s", key, err)
	}

	return nil
}

// Entry is one stored key along with its value.
type Entry struct {
	Key       string    `db:"k" json:"key"`
	Value     string    `db:"v" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// List returns every stored entry, optionally filtered by key prefix.
func (s Store) List(ctx context.Context, prefix string) ([]Entry, error) {
	q := sq.Select("k", "v", "updated_at").From("kv").OrderBy("k")
	if prefix != "" {
		q = q.Where(sq.Like{"k": prefix + "%"})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	var entries []Entry
	if err := s.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("error listing keys: %s", err)
	}

	return entries, nil
}
