// Copyright (c) 2026 Aria. All rights reserved.

package docstore

import (
	"fmt"

	"github.com/soramiya/aria/internal/platform/apperr"
	"github.com/soramiya/aria/internal/platform/constants"
)

// opKind discriminates the write operations a batch can carry.
type opKind int

const (
	// opSet overwrites the full document, creating it if absent.
	opSet opKind = iota
	// opInsert creates the document and fails the batch if it already exists.
	opInsert
	// opMergePath sets a single value at a path inside the document.
	opMergePath
	// opAppendPath appends values to the array at a path inside the document.
	opAppendPath
)

type op struct {
	kind       opKind
	collection Collection
	id         string
	doc        any
	path       []string
	values     []any
}

// Batch accumulates write operations for one atomic commit.
//
// # Concurrency
//
// A Batch is built by a single goroutine and handed to [Store.Commit] once.
// It is not safe for concurrent mutation.
type Batch struct {
	ops []op
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Set schedules a full overwrite of the document at (collection, id).
func (b *Batch) Set(collection Collection, id string, doc any) *Batch {
	b.ops = append(b.ops, op{kind: opSet, collection: collection, id: id, doc: doc})
	return b
}

// Insert schedules creation of the document at (collection, id).
//
// If the document already exists at commit time the whole batch fails with a
// CONFLICT error. This is the transactional backstop behind the advisory
// slug-uniqueness pre-check.
func (b *Batch) Insert(collection Collection, id string, doc any) *Batch {
	b.ops = append(b.ops, op{kind: opInsert, collection: collection, id: id, doc: doc})
	return b
}

// MergePath schedules a write of value at the given path inside the document.
//
// The leaf key is created if missing, but the document itself is not: merging
// into a missing document is a silent no-op, like [Batch.AppendPath]. A
// dangling reference must never materialize a partial document. Intermediate
// path segments must already exist as objects; entity constructors guarantee
// that every embedded cache map is present (possibly empty) from creation.
func (b *Batch) MergePath(collection Collection, id string, path []string, value any) *Batch {
	b.ops = append(b.ops, op{kind: opMergePath, collection: collection, id: id, path: path, values: []any{value}})
	return b
}

// AppendPath schedules an append of values to the array at the given path.
//
// Appending to a missing document is a silent no-op: membership arrays only
// live on documents whose existence the caller has already established.
func (b *Batch) AppendPath(collection Collection, id string, path []string, values ...any) *Batch {
	b.ops = append(b.ops, op{kind: opAppendPath, collection: collection, id: id, path: path, values: values})
	return b
}

// Len reports the number of scheduled operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// checkBatchSize enforces the store's hard per-batch operation limit.
// Callers with larger workloads (seeding) must chunk their writes.
func checkBatchSize(b *Batch) error {
	if len(b.ops) > constants.MaxBatchOps {
		return apperr.ValidationError(fmt.Sprintf("Batch exceeds the %d-operation limit", constants.MaxBatchOps))
	}
	return nil
}
