package music

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/platform/docstore"
	"github.com/soramiya/aria/internal/platform/validate"
	"github.com/soramiya/aria/pkg/uuidv7"
)

// Input is the payload for creating or editing a single track. The same
// shape, without an ID, is accepted per element by the bulk importer.
type Input struct {
	Title        string   `json:"title"`
	AlbumID      string   `json:"albumId"`
	ComposerIDs  []string `json:"composerIds"`
	ArrangerIDs  []string `json:"arrangerIds"`
	OtherArtists []Credit `json:"otherArtists"`
	Duration     int      `json:"duration"`
	VideoID      string   `json:"videoId"`
	GameIDs      []string `json:"gameIds"`
}

// PlayerView is the view model for the music player page: every track
// projection plus the name lookups the player renders credits with.
type PlayerView struct {
	Tracks     map[string]Snapshot `json:"tracks"`
	AlbumNames map[string]string   `json:"albumNames"`
	StaffNames map[string]string   `json:"staffNames"`
}

type Service struct {
	store      docstore.Store
	propagator *cachesync.Propagator
	logger     *slog.Logger
}

func NewService(store docstore.Store, propagator *cachesync.Propagator, logger *slog.Logger) *Service {
	return &Service{store: store, propagator: propagator, logger: logger}
}

// List returns the music cache document: every track's projection keyed by ID.
func (service *Service) List(ctx context.Context) (map[string]Snapshot, error) {
	entries := make(map[string]Snapshot)
	if err := service.store.Get(ctx, docstore.CollectionCache, docstore.CacheDocMusic, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Player assembles the player view from three cache documents: the track
// projections and the album/staff name lookups. No primary reads.
func (service *Service) Player(ctx context.Context) (*PlayerView, error) {
	view := &PlayerView{
		Tracks:     make(map[string]Snapshot),
		AlbumNames: make(map[string]string),
		StaffNames: make(map[string]string),
	}
	if err := service.store.Get(ctx, docstore.CollectionCache, docstore.CacheDocMusic, &view.Tracks); err != nil {
		return nil, err
	}
	if err := service.store.Get(ctx, docstore.CollectionCache, docstore.CacheDocAlbumNames, &view.AlbumNames); err != nil {
		return nil, err
	}
	if err := service.store.Get(ctx, docstore.CollectionCache, docstore.CacheDocStaffNames, &view.StaffNames); err != nil {
		return nil, err
	}
	return view, nil
}

// Get loads one primary music document.
func (service *Service) Get(ctx context.Context, id string) (*Music, error) {
	track := &Music{}
	if err := service.store.Get(ctx, docstore.CollectionMusic, id, track); err != nil {
		return nil, err
	}
	return track, nil
}

// Create mints a UUIDv7 ID for the track and commits it with its full
// projection fan-out in one atomic batch.
func (service *Service) Create(ctx context.Context, input Input) (*Music, error) {
	if err := service.validateInput(input); err != nil {
		return nil, err
	}

	track := input.toMusic(uuidv7.New())
	track.normalize()
	track.UpdatedAt = time.Now().UTC()

	if err := service.propagator.Create(ctx, Definition, track); err != nil {
		return nil, err
	}
	return track, nil
}

// Update loads the stored track, applies the input, and rewrites every
// changed projection alongside the primary document.
func (service *Service) Update(ctx context.Context, id string, input Input) (*Music, error) {
	if err := service.validateInput(input); err != nil {
		return nil, err
	}

	prev, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := input.toMusic(id)
	next.normalize()
	next.UpdatedAt = time.Now().UTC()

	if err := service.propagator.Edit(ctx, Definition, prev, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (service *Service) validateInput(input Input) error {
	validator := &validate.Validator{}
	validator.
		Required(FieldTitle, input.Title).MaxLen(FieldTitle, input.Title, 300).
		Custom(FieldDuration, input.Duration < 0, "Must not be negative").
		Custom(FieldVideoID, input.VideoID != "" && len(input.VideoID) != videoIDLength,
			"Must be an 11-character video ID")
	// Credits and memberships only land on documents that exist; reject
	// dangling references so they cannot be silently dropped.
	refs := service.propagator
	if missing := refs.UnknownRefs(docstore.CacheDocAlbumNames, []string{input.AlbumID}); len(missing) > 0 {
		validator.Custom(FieldAlbumID, true, "Unknown album ID: "+input.AlbumID)
	}
	if missing := refs.UnknownRefs(docstore.CacheDocStaffNames, input.ComposerIDs); len(missing) > 0 {
		validator.Custom(FieldComposerIDs, true, "Unknown staff ID: "+strings.Join(missing, ", "))
	}
	if missing := refs.UnknownRefs(docstore.CacheDocStaffNames, input.ArrangerIDs); len(missing) > 0 {
		validator.Custom(FieldArrangerIDs, true, "Unknown staff ID: "+strings.Join(missing, ", "))
	}
	if missing := refs.UnknownRefs(docstore.CacheDocGameNames, input.GameIDs); len(missing) > 0 {
		validator.Custom(FieldGameIDs, true, "Unknown game ID: "+strings.Join(missing, ", "))
	}
	return validator.Err()
}

func (input Input) toMusic(id string) *Music {
	return &Music{
		ID:           id,
		Title:        input.Title,
		AlbumID:      input.AlbumID,
		ComposerIDs:  input.ComposerIDs,
		ArrangerIDs:  input.ArrangerIDs,
		OtherArtists: input.OtherArtists,
		Duration:     input.Duration,
		VideoID:      input.VideoID,
		GameIDs:      input.GameIDs,
	}
}
