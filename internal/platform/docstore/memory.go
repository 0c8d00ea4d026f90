// Copyright (c) 2026 Aria. All rights reserved.

package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/soramiya/aria/internal/platform/apperr"
	"github.com/soramiya/aria/internal/platform/dberr"
)

// MemStore is an in-memory [Store] used by unit tests.
//
// # Semantics
//
// Commit stages every operation against a copy of the affected documents and
// swaps the copies in only when all operations succeed, mirroring the
// all-or-nothing batch guarantee of [PostgresStore].
type MemStore struct {
	mu   sync.RWMutex
	docs map[Collection]map[string]json.RawMessage
}

// NewMemStore returns an empty in-memory store with every cache document
// pre-created, matching the migration-seeded production layout.
func NewMemStore() *MemStore {
	store := &MemStore{docs: make(map[Collection]map[string]json.RawMessage)}
	for _, docID := range CacheDocIDs() {
		store.set(CollectionCache, docID, json.RawMessage(`{}`))
	}
	return store
}

// Seed inserts a document directly, bypassing batch semantics.
func (store *MemStore) Seed(collection Collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	store.mu.Lock()
	defer store.mu.Unlock()
	store.set(collection, id, raw)
	return nil
}

// Raw returns the stored JSON for a document, or nil if absent.
func (store *MemStore) Raw(collection Collection, id string) json.RawMessage {
	store.mu.RLock()
	defer store.mu.RUnlock()
	if col, ok := store.docs[collection]; ok {
		return col[id]
	}
	return nil
}

// Dump returns a copy of every document keyed "collection/id", for
// whole-store assertions in tests.
func (store *MemStore) Dump() map[string]json.RawMessage {
	store.mu.RLock()
	defer store.mu.RUnlock()

	dump := make(map[string]json.RawMessage)
	for collection, col := range store.docs {
		for id, raw := range col {
			dump[string(collection)+"/"+id] = raw
		}
	}
	return dump
}

// Keys returns the sorted document IDs of a collection.
func (store *MemStore) Keys(collection Collection) []string {
	store.mu.RLock()
	defer store.mu.RUnlock()

	var keys []string
	for id := range store.docs[collection] {
		keys = append(keys, id)
	}
	sort.Strings(keys)
	return keys
}

func (store *MemStore) Get(ctx context.Context, collection Collection, id string, dest any) error {
	store.mu.RLock()
	raw, ok := store.docs[collection][id]
	store.mu.RUnlock()

	if !ok {
		return dberr.ErrNotFound
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return apperr.Internal(fmt.Errorf("memstore: decode %s/%s: %w", collection, id, err))
	}
	return nil
}

func (store *MemStore) Commit(ctx context.Context, batch *Batch) error {
	if batch == nil || batch.Len() == 0 {
		return nil
	}
	if err := checkBatchSize(batch); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	// Stage all writes first so a failing operation leaves the store untouched.
	staged := make(map[Collection]map[string]json.RawMessage)
	lookup := func(collection Collection, id string) (json.RawMessage, bool) {
		if col, ok := staged[collection]; ok {
			if raw, ok := col[id]; ok {
				return raw, true
			}
		}
		raw, ok := store.docs[collection][id]
		return raw, ok
	}
	stage := func(collection Collection, id string, raw json.RawMessage) {
		if staged[collection] == nil {
			staged[collection] = make(map[string]json.RawMessage)
		}
		staged[collection][id] = raw
	}

	for _, operation := range batch.ops {
		switch operation.kind {
		case opSet, opInsert:
			if operation.kind == opInsert {
				if _, exists := lookup(operation.collection, operation.id); exists {
					return apperr.Conflict(fmt.Sprintf("Document %s/%s already exists", operation.collection, operation.id))
				}
			}
			raw, err := json.Marshal(operation.doc)
			if err != nil {
				return apperr.Internal(err)
			}
			stage(operation.collection, operation.id, raw)

		case opMergePath:
			raw, ok := lookup(operation.collection, operation.id)
			if !ok {
				continue // silent no-op, matching PostgresStore
			}
			next, err := editPath(raw, operation.path, func(parent map[string]any, leaf string) error {
				parent[leaf] = toPlain(operation.values[0])
				return nil
			})
			if err != nil {
				return err
			}
			stage(operation.collection, operation.id, next)

		case opAppendPath:
			raw, ok := lookup(operation.collection, operation.id)
			if !ok {
				continue // silent no-op, matching PostgresStore
			}
			next, err := editPath(raw, operation.path, func(parent map[string]any, leaf string) error {
				arr, _ := parent[leaf].([]any)
				for _, v := range operation.values {
					arr = append(arr, toPlain(v))
				}
				parent[leaf] = arr
				return nil
			})
			if err != nil {
				return err
			}
			stage(operation.collection, operation.id, next)
		}
	}

	for collection, col := range staged {
		for id, raw := range col {
			store.set(collection, id, raw)
		}
	}
	return nil
}

// set stores raw JSON without locking; callers hold the mutex (or own the
// store exclusively during construction).
func (store *MemStore) set(collection Collection, id string, raw json.RawMessage) {
	if store.docs[collection] == nil {
		store.docs[collection] = make(map[string]json.RawMessage)
	}
	store.docs[collection][id] = raw
}

// editPath decodes raw, walks path down to the parent of its leaf, applies
// edit, and re-encodes. Intermediate segments must be objects.
func editPath(raw json.RawMessage, path []string, edit func(parent map[string]any, leaf string) error) (json.RawMessage, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperr.Internal(err)
	}

	parent := doc
	for _, segment := range path[:len(path)-1] {
		child, ok := parent[segment].(map[string]any)
		if !ok {
			// Same outcome as jsonb_set with a missing intermediate: no change.
			return raw, nil
		}
		parent = child
	}

	if err := edit(parent, path[len(path)-1]); err != nil {
		return nil, err
	}

	next, err := json.Marshal(doc)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return next, nil
}

// toPlain round-trips a typed value through JSON so stored documents contain
// only plain maps/slices, exactly as they would after a real write.
func toPlain(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return v
	}
	return plain
}
