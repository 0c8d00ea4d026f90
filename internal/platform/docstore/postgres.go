// Copyright (c) 2026 Aria. All rights reserved.

package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soramiya/aria/internal/platform/apperr"
	"github.com/soramiya/aria/internal/platform/dberr"
)

// PostgresStore implements [Store] on a single jsonb-backed documents table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore wraps a pgx connection pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (store *PostgresStore) Get(ctx context.Context, collection Collection, id string, dest any) error {
	var raw []byte
	err := store.db.QueryRow(ctx,
		`SELECT data FROM documents WHERE collection = $1 AND id = $2`,
		string(collection), id,
	).Scan(&raw)
	if err != nil {
		return dberr.Wrap(err, "get_document")
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return apperr.Internal(fmt.Errorf("docstore: decode %s/%s: %w", collection, id, err))
	}
	return nil
}

// Commit applies the batch inside one transaction.
//
// All operations apply or none do. The transaction gives the atomic
// multi-document guarantee the admin write paths rely on; it does not order
// this batch against concurrent batches from other sessions.
func (store *PostgresStore) Commit(ctx context.Context, batch *Batch) error {
	if batch == nil || batch.Len() == 0 {
		return nil
	}
	if err := checkBatchSize(batch); err != nil {
		return err
	}

	tx, err := store.db.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err, "begin_batch")
	}
	defer func() {
		// Rollback is a no-op after a successful commit.
		_ = tx.Rollback(ctx)
	}()

	for _, operation := range batch.ops {
		if err := applyOp(ctx, tx, operation); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err, "commit_batch")
	}
	return nil
}

func applyOp(ctx context.Context, tx pgx.Tx, operation op) error {
	switch operation.kind {
	case opSet:
		doc, err := marshal(operation.doc)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO documents (collection, id, data)
			VALUES ($1, $2, $3::jsonb)
			ON CONFLICT (collection, id)
			DO UPDATE SET data = EXCLUDED.data, updated_at = now()
		`, string(operation.collection), operation.id, doc)
		return dberr.Wrap(err, "set_document")

	case opInsert:
		doc, err := marshal(operation.doc)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO documents (collection, id, data)
			VALUES ($1, $2, $3::jsonb)
			ON CONFLICT (collection, id) DO NOTHING
		`, string(operation.collection), operation.id, doc)
		if err != nil {
			return dberr.Wrap(err, "insert_document")
		}
		if tag.RowsAffected() == 0 {
			return apperr.Conflict(fmt.Sprintf("Document %s/%s already exists", operation.collection, operation.id))
		}
		return nil

	case opMergePath:
		value, err := marshal(operation.values[0])
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE documents
			SET data = jsonb_set(data, $3::text[], $4::jsonb, true),
			    updated_at = now()
			WHERE collection = $1 AND id = $2
		`, string(operation.collection), operation.id, operation.path, value)
		return dberr.Wrap(err, "merge_document_path")

	case opAppendPath:
		values, err := marshal(operation.values)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE documents
			SET data = jsonb_set(data, $3::text[],
			                     coalesce(data #> $3::text[], '[]'::jsonb) || $4::jsonb,
			                     true),
			    updated_at = now()
			WHERE collection = $1 AND id = $2
		`, string(operation.collection), operation.id, operation.path, values)
		return dberr.Wrap(err, "append_document_path")

	default:
		return apperr.Internal(errors.New("docstore: unknown batch operation"))
	}
}

func marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("docstore: encode: %w", err))
	}
	return raw, nil
}
