package album

import (
	"context"
	"log/slog"
	"time"

	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/platform/blob"
	"github.com/soramiya/aria/internal/platform/constants"
	"github.com/soramiya/aria/internal/platform/docstore"
	"github.com/soramiya/aria/internal/platform/validate"
	"github.com/soramiya/aria/pkg/format"
	"github.com/soramiya/aria/pkg/pointer"
	"github.com/soramiya/aria/pkg/slug"
)

// Input is the admin-form payload for creating or editing an album.
type Input struct {
	// ID is the optional hand-edited slug. When empty it is derived from Name.
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ReleaseDate *string `json:"releaseDate"`
}

// Detail is the view model assembled for an album detail page.
type Detail struct {
	Album                *Album `json:"album"`
	FormattedReleaseDate string `json:"formattedReleaseDate"`
	ArtURL               string `json:"artUrl,omitempty"`
}

type Service struct {
	store      docstore.Store
	propagator *cachesync.Propagator
	blobs      *blob.Store
	logger     *slog.Logger
}

// NewService wires the album domain. blobs may be nil when object storage is
// not configured; art URLs are then omitted from view models.
func NewService(store docstore.Store, propagator *cachesync.Propagator, blobs *blob.Store, logger *slog.Logger) *Service {
	return &Service{store: store, propagator: propagator, blobs: blobs, logger: logger}
}

// List returns the musicAlbums cache document: every album's projection
// keyed by slug.
func (service *Service) List(ctx context.Context) (map[string]Projection, error) {
	entries := make(map[string]Projection)
	if err := service.store.Get(ctx, docstore.CollectionCache, docstore.CacheDocMusicAlbums, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Get loads one primary album document.
func (service *Service) Get(ctx context.Context, id string) (*Album, error) {
	album := &Album{}
	if err := service.store.Get(ctx, docstore.CollectionMusicAlbums, id, album); err != nil {
		return nil, err
	}
	return album, nil
}

// GetDetail assembles the detail-page view model. Track listings come from
// the album's own embedded cachedMusic, so the only extra work is resolving
// the art download URL.
func (service *Service) GetDetail(ctx context.Context, id string) (*Detail, error) {
	album, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &Detail{
		Album:                album,
		FormattedReleaseDate: format.ReleaseDate(pointer.Val(album.ReleaseDate)),
	}
	if service.blobs != nil {
		if url, err := service.blobs.DownloadURL(ctx, constants.BlobAlbumArts, id); err == nil {
			detail.ArtURL = url
		} else {
			service.logger.Warn("art_url_unresolved", slog.String("album_id", id), slog.Any("error", err))
		}
	}
	return detail, nil
}

// Create validates the form input and commits the new album plus its cache
// entries in one atomic batch.
func (service *Service) Create(ctx context.Context, input Input) (*Album, error) {
	id := input.ID
	if id == "" {
		id = slug.From(input.Name)
	}
	if err := service.validate(id, input); err != nil {
		return nil, err
	}

	album := input.toAlbum(id)
	album.normalize()
	album.UpdatedAt = time.Now().UTC()

	if err := service.propagator.Create(ctx, Definition, album); err != nil {
		return nil, err
	}
	return album, nil
}

// Update loads the stored album, applies the form input, and rewrites every
// changed cache entry alongside the primary document.
func (service *Service) Update(ctx context.Context, id string, input Input) (*Album, error) {
	if err := service.validate(id, input); err != nil {
		return nil, err
	}

	prev, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := input.toAlbum(id)
	// Track membership and snapshots are maintained by track writes alone.
	next.MusicIDs = prev.MusicIDs
	next.CachedMusic = prev.CachedMusic
	next.normalize()
	next.UpdatedAt = time.Now().UTC()

	if err := service.propagator.Edit(ctx, Definition, prev, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (service *Service) validate(id string, input Input) error {
	release := pointer.Val(input.ReleaseDate)

	validator := &validate.Validator{}
	validator.
		Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 300).
		Slug(FieldID, id).
		Custom(FieldReleaseDate, release != "" && !format.IsPartialDate(release),
			"Must be YYYY, YYYY-MM or YYYY-MM-DD")
	return validator.Err()
}

func (input Input) toAlbum(id string) *Album {
	return &Album{
		ID:          id,
		Name:        input.Name,
		ReleaseDate: input.ReleaseDate,
	}
}
