package music_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soramiya/aria/internal/catalog/album"
	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/catalog/music"
	"github.com/soramiya/aria/internal/catalog/staff"
	"github.com/soramiya/aria/internal/platform/apperr"
	"github.com/soramiya/aria/internal/platform/docstore"
	"github.com/soramiya/aria/internal/platform/mirror"
)

type testEnv struct {
	music  *music.Service
	albums *album.Service
	staff  *staff.Service
	store  *docstore.MemStore
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	store := docstore.NewMemStore()
	logger := slog.New(slog.DiscardHandler)

	m := mirror.New(store, nil, logger)
	require.NoError(t, m.Subscribe(context.Background(), docstore.CacheDocIDs()...))
	t.Cleanup(func() { _ = m.Close() })

	propagator := cachesync.NewPropagator(store, m, logger)
	return testEnv{
		music:  music.NewService(store, propagator, logger),
		albums: album.NewService(store, propagator, nil, logger),
		staff:  staff.NewService(store, propagator, nil, logger),
		store:  store,
	}
}

/*
TestService_Import_SharedAlbum verifies the bulk-import fan-out for two tracks
on the same album: both land in the album's cachedMusic, musicIds preserves
submission order, and the credited staff member gains both snapshots.
*/
func TestService_Import_SharedAlbum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.albums.Create(ctx, album.Input{Name: "Scarlet OST"})
	require.NoError(t, err)
	_, err = env.staff.Create(ctx, staff.Input{Name: "Composer One"})
	require.NoError(t, err)

	result, err := env.music.Import(ctx, []music.Input{
		{Title: "Opening Theme", AlbumID: "scarlet-ost", ComposerIDs: []string{"composer-one"}, Duration: 95},
		{Title: "Boss Theme", AlbumID: "scarlet-ost", ComposerIDs: []string{"composer-one"}, Duration: 210},
	})
	require.NoError(t, err)
	require.Len(t, result.CreatedIDs, 2)
	assert.Equal(t, []string{"scarlet-ost"}, result.AlbumIDs)
	assert.Equal(t, []string{"composer-one"}, result.StaffIDs)
	assert.Empty(t, result.GameIDs)

	var stored album.Album
	require.NoError(t, env.store.Get(ctx, docstore.CollectionMusicAlbums, "scarlet-ost", &stored))
	assert.Equal(t, result.CreatedIDs, stored.MusicIDs, "musicIds must preserve submission order")
	require.Len(t, stored.CachedMusic, 2)
	assert.Equal(t, "Opening Theme", stored.CachedMusic[result.CreatedIDs[0]].Title)
	assert.Equal(t, "Boss Theme", stored.CachedMusic[result.CreatedIDs[1]].Title)

	// The album cache projection lists the same IDs in the same order.
	albumEntries := make(map[string]album.Projection)
	require.NoError(t, env.store.Get(ctx, docstore.CollectionCache, docstore.CacheDocMusicAlbums, &albumEntries))
	assert.Equal(t, result.CreatedIDs, albumEntries["scarlet-ost"].MusicIDs)

	var composer staff.Staff
	require.NoError(t, env.store.Get(ctx, docstore.CollectionStaffInfo, "composer-one", &composer))
	assert.Equal(t, result.CreatedIDs, composer.MusicIDs)
	assert.Len(t, composer.CachedMusic, 2)

	trackEntries := make(map[string]music.Snapshot)
	require.NoError(t, env.store.Get(ctx, docstore.CollectionCache, docstore.CacheDocMusic, &trackEntries))
	assert.Len(t, trackEntries, 2)
}

/*
TestService_Import_ReportsFailingElement verifies that an invalid record is
reported by its array position and that nothing is written.
*/
func TestService_Import_ReportsFailingElement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	before := env.store.Dump()

	_, err := env.music.Import(ctx, []music.Input{
		{Title: "Opening Theme", Duration: 95},
		{Title: "", Duration: -3},
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)

	fields := make([]string, 0, len(appError.Details))
	for _, detail := range appError.Details {
		fields = append(fields, detail.Field)
	}
	assert.Contains(t, fields, "[1].title")
	assert.Contains(t, fields, "[1].duration")

	assert.Equal(t, before, env.store.Dump(), "a rejected import must write nothing")
}

/*
TestService_Create_RejectsUnknownRefs verifies that a track crediting an
album or staff member that does not exist is rejected with field-level
errors and writes nothing.
*/
func TestService_Create_RejectsUnknownRefs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	before := env.store.Dump()

	_, err := env.music.Create(ctx, music.Input{
		Title:       "Opening Theme",
		AlbumID:     "ghost-ost",
		ComposerIDs: []string{"nobody"},
		Duration:    95,
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)

	fields := make([]string, 0, len(appError.Details))
	for _, detail := range appError.Details {
		fields = append(fields, detail.Field)
	}
	assert.Contains(t, fields, music.FieldAlbumID)
	assert.Contains(t, fields, music.FieldComposerIDs)

	assert.Equal(t, before, env.store.Dump(), "a rejected create must write nothing")
	assert.Nil(t, env.store.Raw(docstore.CollectionMusicAlbums, "ghost-ost"),
		"a dangling reference must not materialize a document")
}

/*
TestService_Import_Empty verifies the empty-payload guard.
*/
func TestService_Import_Empty(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.music.Import(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
}

/*
TestService_Create_DedupesStaffCredits verifies that a member credited as
both composer and arranger owns a single cachedMusic embed and membership.
*/
func TestService_Create_DedupesStaffCredits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.staff.Create(ctx, staff.Input{Name: "Composer One"})
	require.NoError(t, err)

	created, err := env.music.Create(ctx, music.Input{
		Title:       "Opening Theme",
		ComposerIDs: []string{"composer-one"},
		ArrangerIDs: []string{"composer-one"},
		Duration:    95,
	})
	require.NoError(t, err)

	var composer staff.Staff
	require.NoError(t, env.store.Get(ctx, docstore.CollectionStaffInfo, "composer-one", &composer))
	assert.Equal(t, []string{created.ID}, composer.MusicIDs, "dual credit must append once")
	assert.Len(t, composer.CachedMusic, 1)
}
