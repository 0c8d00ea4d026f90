package album_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soramiya/aria/internal/catalog/album"
	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/catalog/music"
	"github.com/soramiya/aria/internal/platform/docstore"
	"github.com/soramiya/aria/internal/platform/mirror"
	"github.com/soramiya/aria/pkg/pointer"
)

func newTestServices(t *testing.T) (*album.Service, *music.Service, *docstore.MemStore) {
	t.Helper()

	store := docstore.NewMemStore()
	logger := slog.New(slog.DiscardHandler)

	m := mirror.New(store, nil, logger)
	require.NoError(t, m.Subscribe(context.Background(), docstore.CacheDocIDs()...))
	t.Cleanup(func() { _ = m.Close() })

	propagator := cachesync.NewPropagator(store, m, logger)
	return album.NewService(store, propagator, nil, logger),
		music.NewService(store, propagator, logger),
		store
}

/*
TestService_Create_WritesNameLookups verifies the album create fan-out: the
projection in musicAlbums plus the name in both the albumNames and
musicAlbumNames lookup documents.
*/
func TestService_Create_WritesNameLookups(t *testing.T) {
	albums, _, store := newTestServices(t)
	ctx := context.Background()

	created, err := albums.Create(ctx, album.Input{
		Name:        "Scarlet OST",
		ReleaseDate: pointer.To("2021-05"),
	})
	require.NoError(t, err)
	assert.Equal(t, "scarlet-ost", created.ID)

	entries := make(map[string]album.Projection)
	require.NoError(t, store.Get(ctx, docstore.CollectionCache, docstore.CacheDocMusicAlbums, &entries))
	require.Contains(t, entries, "scarlet-ost")
	assert.Equal(t, "Scarlet OST", entries["scarlet-ost"].Name)
	assert.Empty(t, entries["scarlet-ost"].MusicIDs)

	var names map[string]string
	require.NoError(t, store.Get(ctx, docstore.CollectionCache, docstore.CacheDocAlbumNames, &names))
	assert.Equal(t, "Scarlet OST", names["scarlet-ost"])
	require.NoError(t, store.Get(ctx, docstore.CollectionCache, docstore.CacheDocMusicAlbumNames, &names))
	assert.Equal(t, "Scarlet OST", names["scarlet-ost"])
}

/*
TestService_Update_RenamePropagation verifies that renaming an album touches
exactly the declared projection set — the primary document and its three
cache documents — and carries the track-maintained fields over unchanged.
*/
func TestService_Update_RenamePropagation(t *testing.T) {
	albums, tracks, store := newTestServices(t)
	ctx := context.Background()

	_, err := albums.Create(ctx, album.Input{Name: "Scarlet OST"})
	require.NoError(t, err)

	created, err := tracks.Create(ctx, music.Input{
		Title:    "Opening Theme",
		AlbumID:  "scarlet-ost",
		Duration: 95,
	})
	require.NoError(t, err)

	before := store.Dump()

	updated, err := albums.Update(ctx, "scarlet-ost", album.Input{Name: "Scarlet OST Complete"})
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, updated.MusicIDs, "track membership is maintained by track writes alone")
	assert.Contains(t, updated.CachedMusic, created.ID)

	after := store.Dump()

	var changed []string
	for key, raw := range after {
		if string(before[key]) != string(raw) {
			changed = append(changed, key)
		}
	}
	assert.ElementsMatch(t, []string{
		"musicAlbums/scarlet-ost",
		"cache/musicAlbums",
		"cache/albumNames",
		"cache/musicAlbumNames",
	}, changed, "rename must touch exactly the declared projection set")

	entries := make(map[string]album.Projection)
	require.NoError(t, store.Get(ctx, docstore.CollectionCache, docstore.CacheDocMusicAlbums, &entries))
	assert.Equal(t, "Scarlet OST Complete", entries["scarlet-ost"].Name)
	assert.Equal(t, []string{created.ID}, entries["scarlet-ost"].MusicIDs)
}

/*
TestService_Create_InvalidReleaseDate verifies partial-precision date
validation.
*/
func TestService_Create_InvalidReleaseDate(t *testing.T) {
	albums, _, _ := newTestServices(t)

	_, err := albums.Create(context.Background(), album.Input{
		Name:        "Scarlet OST",
		ReleaseDate: pointer.To("May 2021"),
	})
	require.Error(t, err)
}
