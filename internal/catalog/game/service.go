package game

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/catalog/character"
	"github.com/soramiya/aria/internal/platform/blob"
	"github.com/soramiya/aria/internal/platform/constants"
	"github.com/soramiya/aria/internal/platform/docstore"
	"github.com/soramiya/aria/internal/platform/validate"
	"github.com/soramiya/aria/pkg/format"
	"github.com/soramiya/aria/pkg/pointer"
	"github.com/soramiya/aria/pkg/slug"
)

// Input is the admin-form payload for creating or editing a game.
type Input struct {
	// ID is the optional hand-edited slug. When empty it is derived from Name.
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	Category              string   `json:"category"`
	Subcategory           string   `json:"subcategory"`
	Platforms             []string `json:"platforms"`
	ReleaseDate           *string  `json:"releaseDate"`
	Description           string   `json:"description"`
	DescriptionSourceName string   `json:"descriptionSourceName"`
	DescriptionSourceURL  string   `json:"descriptionSourceUrl"`
	CharacterIDs          []string `json:"characterIds"`
	CharacterSpoilerIDs   []string `json:"characterSpoilerIds"`
	SoundtrackIDs         []string `json:"soundtrackIds"`
}

// Detail is the view model assembled for a game detail page.
type Detail struct {
	Game                 *Game  `json:"game"`
	FormattedReleaseDate string `json:"formattedReleaseDate"`
	CoverURL             string `json:"coverUrl,omitempty"`
	BannerURL            string `json:"bannerUrl,omitempty"`
}

type Service struct {
	store      docstore.Store
	propagator *cachesync.Propagator
	blobs      *blob.Store
	logger     *slog.Logger
}

// NewService wires the game domain. blobs may be nil when object storage is
// not configured; cover and banner URLs are then omitted from view models.
func NewService(store docstore.Store, propagator *cachesync.Propagator, blobs *blob.Store, logger *slog.Logger) *Service {
	return &Service{store: store, propagator: propagator, blobs: blobs, logger: logger}
}

// List returns the games cache document: every game's projection keyed by
// slug. One document read renders the whole list page.
func (service *Service) List(ctx context.Context) (map[string]Projection, error) {
	entries := make(map[string]Projection)
	if err := service.store.Get(ctx, docstore.CollectionCache, docstore.CacheDocGames, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Get loads one primary game document.
func (service *Service) Get(ctx context.Context, id string) (*Game, error) {
	game := &Game{}
	if err := service.store.Get(ctx, docstore.CollectionGames, id, game); err != nil {
		return nil, err
	}
	return game, nil
}

// GetDetail assembles the detail-page view model. Soundtracks and character
// display fields come from the game's own embedded caches, so the only extra
// work is resolving the cover and banner download URLs.
//
// Unless includeSpoilers is set, characters listed in characterSpoilerIds are
// stripped from the embedded character map.
func (service *Service) GetDetail(ctx context.Context, id string, includeSpoilers bool) (*Detail, error) {
	game, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !includeSpoilers && len(game.CharacterSpoilerIDs) > 0 {
		visible := make(map[string]character.Projection, len(game.CachedCharacters))
		for characterID, projection := range game.CachedCharacters {
			visible[characterID] = projection
		}
		for _, characterID := range game.CharacterSpoilerIDs {
			delete(visible, characterID)
		}
		game.CachedCharacters = visible
	}

	detail := &Detail{
		Game:                 game,
		FormattedReleaseDate: format.ReleaseDate(pointer.Val(game.ReleaseDate)),
	}
	if service.blobs != nil {
		if url, err := service.blobs.DownloadURL(ctx, constants.BlobGameCovers, id); err == nil {
			detail.CoverURL = url
		} else {
			service.logger.Warn("cover_url_unresolved", slog.String("game_id", id), slog.Any("error", err))
		}
		if url, err := service.blobs.DownloadURL(ctx, constants.BlobGameBanners, id); err == nil {
			detail.BannerURL = url
		} else {
			service.logger.Warn("banner_url_unresolved", slog.String("game_id", id), slog.Any("error", err))
		}
	}
	return detail, nil
}

// Create validates the form input and commits the new game plus its cache
// entries and per-character name embeds in one atomic batch.
func (service *Service) Create(ctx context.Context, input Input) (*Game, error) {
	id := input.ID
	if id == "" {
		id = slug.From(input.Name)
	}
	if err := service.validate(id, input); err != nil {
		return nil, err
	}

	game := input.toGame(id)
	game.normalize()
	game.UpdatedAt = time.Now().UTC()

	if err := service.propagator.Create(ctx, Definition, game); err != nil {
		return nil, err
	}
	return game, nil
}

// Update loads the stored game, applies the form input, and rewrites every
// changed projection alongside the primary document.
func (service *Service) Update(ctx context.Context, id string, input Input) (*Game, error) {
	if err := service.validate(id, input); err != nil {
		return nil, err
	}

	prev, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := input.toGame(id)
	// The form never carries cache state; carry it over from the stored document.
	next.CachedSoundtracks = prev.CachedSoundtracks
	next.CachedCharacters = prev.CachedCharacters
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
		Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 200).
		Slug(FieldID, id).
		Custom(FieldReleaseDate, release != "" && !format.IsPartialDate(release),
			"Must be YYYY, YYYY-MM or YYYY-MM-DD")
	// Name embeds and memberships only land on documents that exist; reject
	// dangling references so they cannot be silently dropped.
	refs := service.propagator
	if missing := refs.UnknownRefs(docstore.CacheDocCharacters, input.CharacterIDs); len(missing) > 0 {
		validator.Custom(FieldCharacterIDs, true, "Unknown character ID: "+strings.Join(missing, ", "))
	}
	if missing := refs.UnknownRefs(docstore.CacheDocCharacters, input.CharacterSpoilerIDs); len(missing) > 0 {
		validator.Custom(FieldCharacterSpoilerIDs, true, "Unknown character ID: "+strings.Join(missing, ", "))
	}
	if missing := refs.UnknownRefs(docstore.CacheDocMusic, input.SoundtrackIDs); len(missing) > 0 {
		validator.Custom(FieldSoundtrackIDs, true, "Unknown music ID: "+strings.Join(missing, ", "))
	}
	return validator.Err()
}

func (input Input) toGame(id string) *Game {
	return &Game{
		ID:                    id,
		Name:                  input.Name,
		Category:              input.Category,
		Subcategory:           input.Subcategory,
		Platforms:             input.Platforms,
		ReleaseDate:           input.ReleaseDate,
		Description:           input.Description,
		DescriptionSourceName: input.DescriptionSourceName,
		DescriptionSourceURL:  input.DescriptionSourceURL,
		CharacterIDs:          input.CharacterIDs,
		CharacterSpoilerIDs:   input.CharacterSpoilerIDs,
		SoundtrackIDs:         input.SoundtrackIDs,
	}
}
