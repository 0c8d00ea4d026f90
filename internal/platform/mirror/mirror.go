// Copyright (c) 2026 Aria. All rights reserved.

/*
Package mirror keeps live in-memory copies of cache documents.

Admin write paths need the current key set of a cache document synchronously
(e.g. "is this slug already taken?") without a database round trip per
keystroke. A [Mirror] loads the subscribed cache documents once, then refreshes
them when another session publishes an invalidation over Redis pub/sub.

Architecture:

  - Explicit lifecycle: [Mirror.Subscribe] starts the mirror, [Mirror.Close]
    stops it. No ambient global state.
  - Advisory reads: a mirror lookup reflects the last refresh, not a
    serialized view of the store. The uniqueness pre-check built on it has a
    race window; the transactional insert guard is the backstop.
  - Optimistic refresh: writers call [Mirror.Invalidate] after a successful
    commit. A later failed batch does not roll the mirror back.
*/
package mirror

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soramiya/aria/internal/platform/constants"
	"github.com/soramiya/aria/internal/platform/docstore"
)

// refreshTimeout bounds the store read triggered by a pub/sub message.
const refreshTimeout = 5 * time.Second

// Mirror holds in-memory copies of cache documents from the document store.
type Mirror struct {
	store  docstore.Store
	rdb    *redis.Client
	logger *slog.Logger

	mu   sync.RWMutex
	docs map[string]map[string]json.RawMessage

	pubsub *redis.PubSub
	done   chan struct{}
}

// New creates an unsubscribed mirror.
//
// rdb may be nil (tests): the mirror then works as a plain read-through copy
// with no cross-session invalidation.
func New(store docstore.Store, rdb *redis.Client, logger *slog.Logger) *Mirror {
	return &Mirror{
		store:  store,
		rdb:    rdb,
		logger: logger,
		docs:   make(map[string]map[string]json.RawMessage),
	}
}

// Subscribe loads the given cache documents and begins listening for
// invalidations published by other sessions.
func (m *Mirror) Subscribe(ctx context.Context, docIDs ...string) error {
	for _, docID := range docIDs {
		if err := m.Refresh(ctx, docID); err != nil {
			return err
		}
	}

	if m.rdb == nil {
		return nil
	}

	m.pubsub = m.rdb.Subscribe(ctx, constants.RedisChannelCacheInvalidate)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		for message := range m.pubsub.Channel() {
			docID := message.Payload
			if !m.tracks(docID) {
				continue
			}

			refreshCtx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			if err := m.Refresh(refreshCtx, docID); err != nil {
				m.logger.Error("mirror_refresh_failed",
					slog.String("cache_doc", docID),
					slog.Any("error", err),
				)
			}
			cancel()
		}
	}()

	m.logger.Info("mirror_subscribed", slog.Int("cache_docs", len(docIDs)))
	return nil
}

// Refresh re-reads one cache document from the store into memory.
func (m *Mirror) Refresh(ctx context.Context, docID string) error {
	entries := make(map[string]json.RawMessage)
	if err := m.store.Get(ctx, docstore.CollectionCache, docID, &entries); err != nil {
		return err
	}

	m.mu.Lock()
	m.docs[docID] = entries
	m.mu.Unlock()
	return nil
}

// Has reports whether entityID is a key of the mirrored cache document.
func (m *Mirror) Has(docID, entityID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, ok := m.docs[docID]
	if !ok {
		return false
	}
	_, exists := entries[entityID]
	return exists
}

// Entry returns the mirrored projection for entityID, or nil if absent.
func (m *Mirror) Entry(docID, entityID string) json.RawMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.docs[docID][entityID]
}

// Invalidate refreshes the local copies and notifies other sessions.
//
// Called after a successful batch commit. Publish failures are logged, never
// propagated: the write has already committed.
func (m *Mirror) Invalidate(ctx context.Context, docIDs ...string) {
	for _, docID := range docIDs {
		if !m.tracks(docID) {
			continue
		}
		if err := m.Refresh(ctx, docID); err != nil {
			m.logger.Error("mirror_refresh_failed",
				slog.String("cache_doc", docID),
				slog.Any("error", err),
			)
		}
	}

	if m.rdb == nil {
		return
	}
	for _, docID := range docIDs {
		if err := m.rdb.Publish(ctx, constants.RedisChannelCacheInvalidate, docID).Err(); err != nil {
			m.logger.Error("mirror_publish_failed",
				slog.String("cache_doc", docID),
				slog.Any("error", err),
			)
		}
	}
}

// Close stops the pub/sub listener. The mirror must not be used afterwards.
func (m *Mirror) Close() error {
	if m.pubsub == nil {
		return nil
	}
	err := m.pubsub.Close()
	<-m.done
	return err
}

func (m *Mirror) tracks(docID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.docs[docID]
	return ok
}
