// Copyright (c) 2026 Aria. All rights reserved.

package mirror_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soramiya/aria/internal/platform/docstore"
	"github.com/soramiya/aria/internal/platform/mirror"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

/*
TestMirror_SubscribeAndHas verifies the initial load and key lookups.
*/
func TestMirror_SubscribeAndHas(t *testing.T) {
	store := docstore.NewMemStore()
	ctx := context.Background()

	batch := docstore.NewBatch()
	batch.MergePath(docstore.CollectionCache, docstore.CacheDocCharacters, []string{"test-hero"}, map[string]string{"name": "Test Hero"})
	require.NoError(t, store.Commit(ctx, batch))

	m := mirror.New(store, nil, testLogger())
	require.NoError(t, m.Subscribe(ctx, docstore.CacheDocCharacters))
	defer func() { _ = m.Close() }()

	assert.True(t, m.Has(docstore.CacheDocCharacters, "test-hero"))
	assert.False(t, m.Has(docstore.CacheDocCharacters, "someone-else"))
	assert.False(t, m.Has(docstore.CacheDocGames, "test-hero"), "unsubscribed docs are never present")
	assert.NotNil(t, m.Entry(docstore.CacheDocCharacters, "test-hero"))
}

/*
TestMirror_Invalidate verifies that a post-commit invalidation makes new keys
visible without resubscribing.
*/
func TestMirror_Invalidate(t *testing.T) {
	store := docstore.NewMemStore()
	ctx := context.Background()

	m := mirror.New(store, nil, testLogger())
	require.NoError(t, m.Subscribe(ctx, docstore.CacheDocGames))

	assert.False(t, m.Has(docstore.CacheDocGames, "stage-zero"))

	batch := docstore.NewBatch()
	batch.MergePath(docstore.CollectionCache, docstore.CacheDocGames, []string{"stage-zero"}, map[string]string{"name": "Stage Zero"})
	require.NoError(t, store.Commit(ctx, batch))

	m.Invalidate(ctx, docstore.CacheDocGames)
	assert.True(t, m.Has(docstore.CacheDocGames, "stage-zero"))
}
