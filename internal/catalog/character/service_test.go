package character_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/catalog/character"
	"github.com/soramiya/aria/internal/platform/apperr"
	"github.com/soramiya/aria/internal/platform/docstore"
	"github.com/soramiya/aria/internal/platform/mirror"
)

func newTestService(t *testing.T) (*character.Service, *docstore.MemStore) {
	t.Helper()

	store := docstore.NewMemStore()
	logger := slog.New(slog.DiscardHandler)

	m := mirror.New(store, nil, logger)
	require.NoError(t, m.Subscribe(context.Background(), docstore.CacheDocIDs()...))
	t.Cleanup(func() { _ = m.Close() })

	propagator := cachesync.NewPropagator(store, m, logger)
	return character.NewService(store, propagator, nil, logger), store
}

/*
TestService_Create_DerivesSlug verifies the full create fan-out: the slug is
derived from the display name, the primary document is written with empty
collection defaults, and the cache document gains the display projection.
*/
func TestService_Create_DerivesSlug(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, character.Input{
		Name:        "Test Hero",
		AccentColor: "#8a2be2",
	})
	require.NoError(t, err)
	assert.Equal(t, "test-hero", created.ID)

	var stored character.Character
	require.NoError(t, store.Get(ctx, docstore.CollectionCharacters, "test-hero", &stored))
	assert.Equal(t, "Test Hero", stored.Name)
	assert.Equal(t, character.DirectionLeft, stored.ImageDirection, "imageDirection defaults to left")
	assert.NotNil(t, stored.GameIDs)
	assert.Empty(t, stored.GameIDs)
	assert.NotNil(t, stored.CachedGameNames)
	assert.Empty(t, stored.CachedGameNames)

	entries := make(map[string]character.Projection)
	require.NoError(t, store.Get(ctx, docstore.CollectionCache, docstore.CacheDocCharacters, &entries))
	require.Contains(t, entries, "test-hero")
	assert.Equal(t, character.Projection{
		Name:           "Test Hero",
		AccentColor:    "#8a2be2",
		ImageDirection: character.DirectionLeft,
	}, entries["test-hero"])
}

/*
TestService_Create_DuplicateSlug verifies that a taken slug is rejected with a
field-level conflict before any write is issued.
*/
func TestService_Create_DuplicateSlug(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	_, err := service.Create(ctx, character.Input{Name: "Test Hero", AccentColor: "#8a2be2"})
	require.NoError(t, err)

	before := store.Dump()

	_, err = service.Create(ctx, character.Input{Name: "Test Hero", AccentColor: "#123456"})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "CONFLICT", appError.Code)
	require.Len(t, appError.Details, 1)
	assert.Equal(t, "id", appError.Details[0].Field)

	assert.Equal(t, before, store.Dump(), "a rejected create must write nothing")
}

/*
TestService_Create_InvalidAccentColor verifies field-level validation.
*/
func TestService_Create_InvalidAccentColor(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Create(context.Background(), character.Input{
		Name:        "Test Hero",
		AccentColor: "purple",
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
}

/*
TestService_Update_ChangedProjection verifies that an edit rewrites the cache
entry and leaves embedded cache state intact on the primary document.
*/
func TestService_Update_ChangedProjection(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	_, err := service.Create(ctx, character.Input{Name: "Test Hero", AccentColor: "#8a2be2"})
	require.NoError(t, err)

	// Simulate a game having embedded its name on this character.
	batch := docstore.NewBatch()
	batch.MergePath(docstore.CollectionCharacters, "test-hero", []string{"cachedGameNames", "stage-zero"}, "Stage Zero")
	require.NoError(t, store.Commit(ctx, batch))

	updated, err := service.Update(ctx, "test-hero", character.Input{
		Name:        "Test Hero",
		AccentColor: "#123456",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"stage-zero": "Stage Zero"}, updated.CachedGameNames,
		"edits must not clobber cache state the form never carries")

	entries := make(map[string]character.Projection)
	require.NoError(t, store.Get(ctx, docstore.CollectionCache, docstore.CacheDocCharacters, &entries))
	assert.Equal(t, "#123456", entries["test-hero"].AccentColor)
}

/*
TestService_List reads the characters cache document verbatim.
*/
func TestService_List(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.Seed(docstore.CollectionCache, docstore.CacheDocCharacters, json.RawMessage(
		`{"test-hero":{"name":"Test Hero","accentColor":"#8a2be2","imageDirection":"left"}}`,
	)))

	entries, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Test Hero", entries["test-hero"].Name)
}
