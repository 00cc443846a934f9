package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDocumentNotFound is returned by a RemoteStore when no document matches.
var ErrDocumentNotFound = errors.New("document not found")

// RemoteStore is a hosted document database holding one document per record,
// grouped by collection.
type RemoteStore interface {
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	List(ctx context.Context, collection string) ([]json.RawMessage, error)
	Put(ctx context.Context, collection, id string, body json.RawMessage) error
	Delete(ctx context.Context, collection, id string) error
}

type documentStore struct {
	pool *pgxpool.Pool
}

// NewDocumentStore returns a Postgres JSONB backed RemoteStore, or nil when no
// pool is available so callers treat the remote as not configured.
func NewDocumentStore(pool *pgxpool.Pool) RemoteStore {
	if pool == nil {
		return nil
	}
	return &documentStore{pool: pool}
}

func (s *documentStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	const query = `SELECT body FROM documents WHERE collection=$1 AND id=$2`
	var body []byte
	if err := s.pool.QueryRow(ctx, query, collection, id).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (s *documentStore) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	const query = `SELECT body FROM documents WHERE collection=$1 ORDER BY updated_at ASC, id ASC`
	rows, err := s.pool.Query(ctx, query, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []json.RawMessage{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		result = append(result, json.RawMessage(body))
	}
	return result, rows.Err()
}

func (s *documentStore) Put(ctx context.Context, collection, id string, body json.RawMessage) error {
	const query = `
        INSERT INTO documents (collection, id, body, updated_at)
        VALUES ($1,$2,$3,NOW())
        ON CONFLICT (collection, id) DO UPDATE SET body=EXCLUDED.body, updated_at=NOW()`
	_, err := s.pool.Exec(ctx, query, collection, id, body)
	return err
}

func (s *documentStore) Delete(ctx context.Context, collection, id string) error {
	const query = `DELETE FROM documents WHERE collection=$1 AND id=$2`
	cmd, err := s.pool.Exec(ctx, query, collection, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
