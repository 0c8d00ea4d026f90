// Copyright (c) 2026 Aria. All rights reserved.

package docstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soramiya/aria/internal/platform/apperr"
	"github.com/soramiya/aria/internal/platform/dberr"
	"github.com/soramiya/aria/internal/platform/docstore"
)

type testDoc struct {
	Name  string            `json:"name"`
	Tags  []string          `json:"tags"`
	Cache map[string]string `json:"cache"`
}

/*
TestMemStore_SetAndGet verifies the basic document round trip.
*/
func TestMemStore_SetAndGet(t *testing.T) {
	store := docstore.NewMemStore()
	ctx := context.Background()

	batch := docstore.NewBatch()
	batch.Set(docstore.CollectionGames, "stage-zero", testDoc{Name: "Stage Zero", Tags: []string{}, Cache: map[string]string{}})
	require.NoError(t, store.Commit(ctx, batch))

	var got testDoc
	require.NoError(t, store.Get(ctx, docstore.CollectionGames, "stage-zero", &got))
	assert.Equal(t, "Stage Zero", got.Name)

	// Missing documents map to the standard not-found error.
	err := store.Get(ctx, docstore.CollectionGames, "missing", &got)
	assert.ErrorIs(t, err, dberr.ErrNotFound)
}

/*
TestMemStore_InsertConflict verifies that a duplicate insert fails the whole
batch and leaves every staged write unapplied.
*/
func TestMemStore_InsertConflict(t *testing.T) {
	store := docstore.NewMemStore()
	ctx := context.Background()

	require.NoError(t, store.Seed(docstore.CollectionCharacters, "test-hero", testDoc{Name: "Test Hero"}))

	batch := docstore.NewBatch()
	batch.MergePath(docstore.CollectionCache, docstore.CacheDocCharacters, []string{"test-hero"}, map[string]string{"name": "Other"})
	batch.Insert(docstore.CollectionCharacters, "test-hero", testDoc{Name: "Other"})

	err := store.Commit(ctx, batch)
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "CONFLICT", appError.Code)

	// The merge staged before the failing insert must not have applied.
	assert.JSONEq(t, `{}`, string(store.Raw(docstore.CollectionCache, docstore.CacheDocCharacters)))
}

/*
TestMemStore_MergePath verifies nested map-entry writes and the silent no-op
on missing documents: a merge aimed at a document that does not exist must
not create one.
*/
func TestMemStore_MergePath(t *testing.T) {
	store := docstore.NewMemStore()
	ctx := context.Background()

	require.NoError(t, store.Seed(docstore.CollectionGames, "g1", testDoc{Name: "G1", Tags: []string{}, Cache: map[string]string{}}))

	batch := docstore.NewBatch()
	batch.MergePath(docstore.CollectionGames, "g1", []string{"cache", "m1"}, "Track One")
	batch.MergePath(docstore.CollectionCache, docstore.CacheDocGameNames, []string{"g1"}, "G1")
	batch.MergePath(docstore.CollectionGames, "ghost", []string{"cache", "m1"}, "Track One")
	require.NoError(t, store.Commit(ctx, batch))

	assert.Nil(t, store.Raw(docstore.CollectionGames, "ghost"))

	var game testDoc
	require.NoError(t, store.Get(ctx, docstore.CollectionGames, "g1", &game))
	assert.Equal(t, "Track One", game.Cache["m1"])

	var names map[string]string
	require.NoError(t, store.Get(ctx, docstore.CollectionCache, docstore.CacheDocGameNames, &names))
	assert.Equal(t, "G1", names["g1"])
}

/*
TestMemStore_AppendPath verifies ordered array appends and the silent no-op on
missing documents.
*/
func TestMemStore_AppendPath(t *testing.T) {
	store := docstore.NewMemStore()
	ctx := context.Background()

	require.NoError(t, store.Seed(docstore.CollectionMusicAlbums, "ost", testDoc{Name: "OST", Tags: []string{}, Cache: map[string]string{}}))

	batch := docstore.NewBatch()
	batch.AppendPath(docstore.CollectionMusicAlbums, "ost", []string{"tags"}, "m1", "m2")
	batch.AppendPath(docstore.CollectionMusicAlbums, "missing", []string{"tags"}, "mx")
	require.NoError(t, store.Commit(ctx, batch))

	var album testDoc
	require.NoError(t, store.Get(ctx, docstore.CollectionMusicAlbums, "ost", &album))
	assert.Equal(t, []string{"m1", "m2"}, album.Tags)

	assert.Nil(t, store.Raw(docstore.CollectionMusicAlbums, "missing"))
}
