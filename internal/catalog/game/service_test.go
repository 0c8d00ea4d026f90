package game_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/catalog/character"
	"github.com/soramiya/aria/internal/catalog/game"
	"github.com/soramiya/aria/internal/platform/apperr"
	"github.com/soramiya/aria/internal/platform/docstore"
	"github.com/soramiya/aria/internal/platform/mirror"
	"github.com/soramiya/aria/pkg/pointer"
)

func newTestServices(t *testing.T) (*game.Service, *character.Service, *docstore.MemStore) {
	t.Helper()

	store := docstore.NewMemStore()
	logger := slog.New(slog.DiscardHandler)

	m := mirror.New(store, nil, logger)
	require.NoError(t, m.Subscribe(context.Background(), docstore.CacheDocIDs()...))
	t.Cleanup(func() { _ = m.Close() })

	propagator := cachesync.NewPropagator(store, m, logger)
	return game.NewService(store, propagator, nil, logger),
		character.NewService(store, propagator, nil, logger),
		store
}

/*
TestService_Create_EmbedsNameOnCharacters verifies the game create fan-out:
cache entries for games and gameNames, plus the name embed and membership
append on every referenced character.
*/
func TestService_Create_EmbedsNameOnCharacters(t *testing.T) {
	games, characters, store := newTestServices(t)
	ctx := context.Background()

	_, err := characters.Create(ctx, character.Input{Name: "Test Hero", AccentColor: "#8a2be2"})
	require.NoError(t, err)

	created, err := games.Create(ctx, game.Input{
		Name:         "Stage Zero",
		Category:     "mainline",
		ReleaseDate:  pointer.To("2021-05-03"),
		CharacterIDs: []string{"test-hero"},
	})
	require.NoError(t, err)
	assert.Equal(t, "stage-zero", created.ID)

	var hero character.Character
	require.NoError(t, store.Get(ctx, docstore.CollectionCharacters, "test-hero", &hero))
	assert.Equal(t, "Stage Zero", hero.CachedGameNames["stage-zero"])
	assert.Equal(t, []string{"stage-zero"}, hero.GameIDs)

	names := make(map[string]string)
	require.NoError(t, store.Get(ctx, docstore.CollectionCache, docstore.CacheDocGameNames, &names))
	assert.Equal(t, "Stage Zero", names["stage-zero"])
}

/*
TestService_Update_RenamePropagation verifies that renaming a game touches
exactly the declared projection set: the two cache documents and each
referenced character's embedded name — and nothing else.
*/
func TestService_Update_RenamePropagation(t *testing.T) {
	games, characters, store := newTestServices(t)
	ctx := context.Background()

	_, err := characters.Create(ctx, character.Input{Name: "Test Hero", AccentColor: "#8a2be2"})
	require.NoError(t, err)
	_, err = characters.Create(ctx, character.Input{Name: "Bystander", AccentColor: "#112233"})
	require.NoError(t, err)

	_, err = games.Create(ctx, game.Input{
		Name:         "Stage Zero",
		CharacterIDs: []string{"test-hero"},
	})
	require.NoError(t, err)

	before := store.Dump()

	_, err = games.Update(ctx, "stage-zero", game.Input{
		Name:         "Stage Zero Remastered",
		CharacterIDs: []string{"test-hero"},
	})
	require.NoError(t, err)

	after := store.Dump()

	var changed []string
	for key, raw := range after {
		if string(before[key]) != string(raw) {
			changed = append(changed, key)
		}
	}
	assert.ElementsMatch(t, []string{
		"games/stage-zero",
		"characters/test-hero",
		"cache/games",
		"cache/gameNames",
	}, changed, "rename must touch exactly the declared owner set")

	var hero character.Character
	require.NoError(t, store.Get(ctx, docstore.CollectionCharacters, "test-hero", &hero))
	assert.Equal(t, "Stage Zero Remastered", hero.CachedGameNames["stage-zero"])
	assert.Equal(t, []string{"stage-zero"}, hero.GameIDs, "membership must not be appended twice")
}

/*
TestService_Create_RejectsUnknownGameRef verifies that a character naming a
game that does not exist is rejected with a field-level error, writes
nothing, and leaves the game slug free for a later legitimate create.
*/
func TestService_Create_RejectsUnknownGameRef(t *testing.T) {
	games, characters, store := newTestServices(t)
	ctx := context.Background()

	before := store.Dump()

	_, err := characters.Create(ctx, character.Input{
		Name:        "Test Hero",
		AccentColor: "#8a2be2",
		GameIDs:     []string{"ghost-game"},
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	require.Len(t, appError.Details, 1)
	assert.Equal(t, character.FieldGameIDs, appError.Details[0].Field)

	assert.Equal(t, before, store.Dump(), "a rejected create must write nothing")
	assert.Nil(t, store.Raw(docstore.CollectionGames, "ghost-game"),
		"a dangling reference must not materialize a document")

	// The slug was never burned; creating the game now succeeds.
	created, err := games.Create(ctx, game.Input{Name: "Ghost Game", Category: "mainline"})
	require.NoError(t, err)
	assert.Equal(t, "ghost-game", created.ID)
}

/*
TestService_Create_RejectsUnknownCharacterRef verifies the reverse direction:
a game naming a character that does not exist is rejected before any write.
*/
func TestService_Create_RejectsUnknownCharacterRef(t *testing.T) {
	games, _, store := newTestServices(t)
	ctx := context.Background()

	before := store.Dump()

	_, err := games.Create(ctx, game.Input{
		Name:         "Stage Zero",
		Category:     "mainline",
		CharacterIDs: []string{"nobody"},
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	require.Len(t, appError.Details, 1)
	assert.Equal(t, game.FieldCharacterIDs, appError.Details[0].Field)

	assert.Equal(t, before, store.Dump(), "a rejected create must write nothing")
}

/*
TestService_Create_InvalidReleaseDate verifies partial-precision date
validation.
*/
func TestService_Create_InvalidReleaseDate(t *testing.T) {
	games, _, _ := newTestServices(t)

	_, err := games.Create(context.Background(), game.Input{
		Name:        "Stage Zero",
		ReleaseDate: pointer.To("May 2021"),
	})
	require.Error(t, err)
}
