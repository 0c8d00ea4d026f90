package character

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/platform/blob"
	"github.com/soramiya/aria/internal/platform/constants"
	"github.com/soramiya/aria/internal/platform/docstore"
	"github.com/soramiya/aria/internal/platform/validate"
	"github.com/soramiya/aria/pkg/slug"
)

// hexColor matches a 6-digit hex color with leading '#'.
var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Input is the admin-form payload for creating or editing a character.
//
// Embedded cache maps are never part of the form; they are maintained by the
// cache-consistency propagation alone.
type Input struct {
	// ID is the optional hand-edited slug. When empty it is derived from Name.
	ID                    string         `json:"id"`
	Name                  string         `json:"name"`
	Category              string         `json:"category"`
	Description           string         `json:"description"`
	DescriptionSourceName string         `json:"descriptionSourceName"`
	DescriptionSourceURL  string         `json:"descriptionSourceUrl"`
	ContainsSpoilers      bool           `json:"containsSpoilers"`
	AccentColor           string         `json:"accentColor"`
	ImageDirection        ImageDirection `json:"imageDirection"`
	GameIDs               []string       `json:"gameIds"`
}

// Detail is the view model assembled for a character detail page.
type Detail struct {
	Character *Character `json:"character"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
}

type Service struct {
	store      docstore.Store
	propagator *cachesync.Propagator
	blobs      *blob.Store
	logger     *slog.Logger
}

// NewService wires the character domain. blobs may be nil when object
// storage is not configured; avatar URLs are then omitted from view models.
func NewService(store docstore.Store, propagator *cachesync.Propagator, blobs *blob.Store, logger *slog.Logger) *Service {
	return &Service{store: store, propagator: propagator, blobs: blobs, logger: logger}
}

// List returns the characters cache document: every character's projection
// keyed by slug. One document read renders the whole list page.
func (service *Service) List(ctx context.Context) (map[string]Projection, error) {
	entries := make(map[string]Projection)
	if err := service.store.Get(ctx, docstore.CollectionCache, docstore.CacheDocCharacters, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Get loads one primary character document.
func (service *Service) Get(ctx context.Context, id string) (*Character, error) {
	character := &Character{}
	if err := service.store.Get(ctx, docstore.CollectionCharacters, id, character); err != nil {
		return nil, err
	}
	return character, nil
}

// GetDetail assembles the detail-page view model: the primary document plus
// the avatar download URL. Game names come from the character's own embedded
// cachedGameNames, so no extra document read is needed.
func (service *Service) GetDetail(ctx context.Context, id string) (*Detail, error) {
	character, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Character: character}
	if service.blobs != nil {
		url, err := service.blobs.DownloadURL(ctx, constants.BlobCharacterAvatars, id)
		if err != nil {
			service.logger.Warn("avatar_url_unresolved", slog.String("character_id", id), slog.Any("error", err))
		} else {
			detail.AvatarURL = url
		}
	}
	return detail, nil
}

// Create validates the form input and commits the new character plus its
// cache-document entry in one atomic batch.
func (service *Service) Create(ctx context.Context, input Input) (*Character, error) {
	id := input.ID
	if id == "" {
		id = slug.From(input.Name)
	}
	if input.ImageDirection == "" {
		input.ImageDirection = DirectionLeft
	}

	if err := service.validate(id, input); err != nil {
		return nil, err
	}

	character := input.toCharacter(id)
	character.normalize()
	character.UpdatedAt = time.Now().UTC()

	if err := service.propagator.Create(ctx, Definition, character); err != nil {
		return nil, err
	}
	return character, nil
}

// Update loads the stored character, applies the form input, and rewrites
// every changed projection alongside the primary document.
func (service *Service) Update(ctx context.Context, id string, input Input) (*Character, error) {
	if input.ImageDirection == "" {
		input.ImageDirection = DirectionLeft
	}
	if err := service.validate(id, input); err != nil {
		return nil, err
	}

	prev, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := input.toCharacter(id)
	// The form never carries cache state; carry it over from the stored document.
	next.CachedGameNames = prev.CachedGameNames
	next.normalize()
	next.UpdatedAt = time.Now().UTC()

	if err := service.propagator.Edit(ctx, Definition, prev, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (service *Service) validate(id string, input Input) error {
	validator := &validate.Validator{}
	validator.
		Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 200).
		Slug(FieldID, id).
		Custom(FieldAccentColor, !hexColor.MatchString(input.AccentColor), "Must be a hex color like #8a2be2").
		OneOf(FieldImageDirection, string(input.ImageDirection), string(DirectionLeft), string(DirectionRight))
	// Dangling game references would drop their embeds and memberships on the
	// floor; reject them here where the form can point at the field.
	if missing := service.propagator.UnknownRefs(docstore.CacheDocGameNames, input.GameIDs); len(missing) > 0 {
		validator.Custom(FieldGameIDs, true, "Unknown game ID: "+strings.Join(missing, ", "))
	}
	return validator.Err()
}

func (input Input) toCharacter(id string) *Character {
	return &Character{
		ID:                    id,
		Name:                  input.Name,
		Category:              input.Category,
		Description:           input.Description,
		DescriptionSourceName: input.DescriptionSourceName,
		DescriptionSourceURL:  input.DescriptionSourceURL,
		ContainsSpoilers:      input.ContainsSpoilers,
		AccentColor:           input.AccentColor,
		ImageDirection:        input.ImageDirection,
		GameIDs:               input.GameIDs,
	}
}
