package staff_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/catalog/staff"
	"github.com/soramiya/aria/internal/platform/apperr"
	"github.com/soramiya/aria/internal/platform/docstore"
	"github.com/soramiya/aria/internal/platform/mirror"
)

func newTestService(t *testing.T) (*staff.Service, *docstore.MemStore) {
	t.Helper()

	store := docstore.NewMemStore()
	logger := slog.New(slog.DiscardHandler)

	m := mirror.New(store, nil, logger)
	require.NoError(t, m.Subscribe(context.Background(), docstore.CacheDocIDs()...))
	t.Cleanup(func() { _ = m.Close() })

	propagator := cachesync.NewPropagator(store, m, logger)
	return staff.NewService(store, propagator, nil, logger), store
}

/*
TestService_Create_WritesNameAndRoleLookups verifies the staff create
fan-out: the projection in staffInfo plus the staffNames and staffRoles
lookup documents.
*/
func TestService_Create_WritesNameAndRoleLookups(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	created, err := service.Create(ctx, staff.Input{
		Name:  "Composer One",
		Roles: []string{"composer", "arranger"},
	})
	require.NoError(t, err)
	assert.Equal(t, "composer-one", created.ID)

	entries := make(map[string]staff.Projection)
	require.NoError(t, store.Get(ctx, docstore.CollectionCache, docstore.CacheDocStaffInfo, &entries))
	require.Contains(t, entries, "composer-one")
	assert.Equal(t, staff.Projection{
		Name:  "Composer One",
		Roles: []string{"composer", "arranger"},
	}, entries["composer-one"])

	var names map[string]string
	require.NoError(t, store.Get(ctx, docstore.CollectionCache, docstore.CacheDocStaffNames, &names))
	assert.Equal(t, "Composer One", names["composer-one"])

	roles := make(map[string][]string)
	require.NoError(t, store.Get(ctx, docstore.CollectionCache, docstore.CacheDocStaffRoles, &roles))
	assert.Equal(t, []string{"composer", "arranger"}, roles["composer-one"])
}

/*
TestService_MarkAvatar_PropagatesProjection verifies that flipping hasAvatar
after an upload touches exactly the primary document and the staffInfo cache
document, and that a second call is a no-op.
*/
func TestService_MarkAvatar_PropagatesProjection(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	_, err := service.Create(ctx, staff.Input{Name: "Composer One"})
	require.NoError(t, err)

	before := store.Dump()

	require.NoError(t, service.MarkAvatar(ctx, "composer-one"))

	after := store.Dump()

	var changed []string
	for key, raw := range after {
		if string(before[key]) != string(raw) {
			changed = append(changed, key)
		}
	}
	assert.ElementsMatch(t, []string{
		"staffInfo/composer-one",
		"cache/staffInfo",
	}, changed, "the avatar flag must touch exactly the primary document and its projection")

	member, err := service.Get(ctx, "composer-one")
	require.NoError(t, err)
	assert.True(t, member.HasAvatar)

	entries := make(map[string]staff.Projection)
	require.NoError(t, store.Get(ctx, docstore.CollectionCache, docstore.CacheDocStaffInfo, &entries))
	assert.True(t, entries["composer-one"].HasAvatar)

	// Already marked: no writes at all.
	require.NoError(t, service.MarkAvatar(ctx, "composer-one"))
	assert.Equal(t, after, store.Dump())
}

/*
TestService_Create_RejectsUnknownInvolvement verifies that an involvement
naming a game that does not exist is rejected with a field-level error.
*/
func TestService_Create_RejectsUnknownInvolvement(t *testing.T) {
	service, store := newTestService(t)
	ctx := context.Background()

	before := store.Dump()

	_, err := service.Create(ctx, staff.Input{
		Name: "Composer One",
		Involvements: []staff.Involvement{
			{GameID: "ghost-game", Roles: []string{"composer"}},
		},
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	require.Len(t, appError.Details, 1)
	assert.Equal(t, staff.FieldInvolvements, appError.Details[0].Field)

	assert.Equal(t, before, store.Dump(), "a rejected create must write nothing")
}

/*
TestService_List_FiltersByRole verifies the roles query filter against the
staffInfo cache document.
*/
func TestService_List_FiltersByRole(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Create(ctx, staff.Input{Name: "Composer One", Roles: []string{"composer"}})
	require.NoError(t, err)
	_, err = service.Create(ctx, staff.Input{Name: "Artist Two", Roles: []string{"artist"}})
	require.NoError(t, err)

	all, err := service.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	composers, err := service.List(ctx, []string{"composer"})
	require.NoError(t, err)
	require.Len(t, composers, 1)
	assert.Contains(t, composers, "composer-one")
}
