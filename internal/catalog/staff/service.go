package staff

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/platform/blob"
	"github.com/soramiya/aria/internal/platform/constants"
	"github.com/soramiya/aria/internal/platform/docstore"
	"github.com/soramiya/aria/internal/platform/validate"
	"github.com/soramiya/aria/pkg/slice"
	"github.com/soramiya/aria/pkg/slug"
)

// Input is the admin-form payload for creating or editing a staff member.
type Input struct {
	// ID is the optional hand-edited slug. When empty it is derived from Name.
	ID                    string        `json:"id"`
	Name                  string        `json:"name"`
	Description           string        `json:"description"`
	DescriptionSourceName string        `json:"descriptionSourceName"`
	DescriptionSourceURL  string        `json:"descriptionSourceUrl"`
	Roles                 []string      `json:"roles"`
	Involvements          []Involvement `json:"involvements"`
}

// Detail is the view model assembled for a staff detail page.
type Detail struct {
	Staff     *Staff            `json:"staff"`
	GameNames map[string]string `json:"gameNames"`
	AvatarURL string            `json:"avatarUrl,omitempty"`
}

type Service struct {
	store      docstore.Store
	propagator *cachesync.Propagator
	blobs      *blob.Store
	logger     *slog.Logger
}

// NewService wires the staff domain. blobs may be nil when object storage is
// not configured; avatar URLs are then omitted from view models.
func NewService(store docstore.Store, propagator *cachesync.Propagator, blobs *blob.Store, logger *slog.Logger) *Service {
	return &Service{store: store, propagator: propagator, blobs: blobs, logger: logger}
}

// List returns the staffInfo cache document: every member's projection keyed
// by slug. When roles is non-empty, only members credited with at least one
// of the given roles are returned.
func (service *Service) List(ctx context.Context, roles []string) (map[string]Projection, error) {
	entries := make(map[string]Projection)
	if err := service.store.Get(ctx, docstore.CollectionCache, docstore.CacheDocStaffInfo, &entries); err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return entries, nil
	}

	wanted := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		wanted[role] = struct{}{}
	}

	filtered := make(map[string]Projection)
	for id, projection := range entries {
		matching := slice.Filter(projection.Roles, func(role string) bool {
			_, ok := wanted[role]
			return ok
		})
		if len(matching) > 0 {
			filtered[id] = projection
		}
	}
	return filtered, nil
}

// Get loads one primary staff document.
func (service *Service) Get(ctx context.Context, id string) (*Staff, error) {
	member := &Staff{}
	if err := service.store.Get(ctx, docstore.CollectionStaffInfo, id, member); err != nil {
		return nil, err
	}
	return member, nil
}

// GetDetail assembles the detail-page view model: the primary document, the
// gameNames cache document (to label involvements), and the avatar URL.
func (service *Service) GetDetail(ctx context.Context, id string) (*Detail, error) {
	member, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Staff: member, GameNames: make(map[string]string)}
	if err := service.store.Get(ctx, docstore.CollectionCache, docstore.CacheDocGameNames, &detail.GameNames); err != nil {
		return nil, err
	}

	if service.blobs != nil && member.HasAvatar {
		if url, err := service.blobs.DownloadURL(ctx, constants.BlobStaffAvatars, id); err == nil {
			detail.AvatarURL = url
		} else {
			service.logger.Warn("avatar_url_unresolved", slog.String("staff_id", id), slog.Any("error", err))
		}
	}
	return detail, nil
}

// Create validates the form input and commits the new staff member plus its
// cache entries in one atomic batch.
func (service *Service) Create(ctx context.Context, input Input) (*Staff, error) {
	id := input.ID
	if id == "" {
		id = slug.From(input.Name)
	}
	if err := service.validate(id, input); err != nil {
		return nil, err
	}

	member := input.toStaff(id)
	member.normalize()
	member.UpdatedAt = time.Now().UTC()

	if err := service.propagator.Create(ctx, Definition, member); err != nil {
		return nil, err
	}
	return member, nil
}

// Update loads the stored staff member, applies the form input, and rewrites
// every changed cache entry alongside the primary document.
func (service *Service) Update(ctx context.Context, id string, input Input) (*Staff, error) {
	if err := service.validate(id, input); err != nil {
		return nil, err
	}

	prev, err := service.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := input.toStaff(id)
	// Track membership, snapshots and the avatar flag are maintained outside
	// the form; carry them over from the stored document.
	next.HasAvatar = prev.HasAvatar
	next.MusicIDs = prev.MusicIDs
	next.CachedMusic = prev.CachedMusic
	next.normalize()
	next.UpdatedAt = time.Now().UTC()

	if err := service.propagator.Edit(ctx, Definition, prev, next); err != nil {
		return nil, err
	}
	return next, nil
}

// MarkAvatar flips the hasAvatar flag after a successful upload, propagating
// the changed projection to the staffInfo cache document.
func (service *Service) MarkAvatar(ctx context.Context, id string) error {
	prev, err := service.Get(ctx, id)
	if err != nil {
		return err
	}
	if prev.HasAvatar {
		return nil
	}

	next := *prev
	next.HasAvatar = true
	next.UpdatedAt = time.Now().UTC()

	return service.propagator.Edit(ctx, Definition, prev, &next)
}

func (service *Service) validate(id string, input Input) error {
	validator := &validate.Validator{}
	validator.
		Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 200).
		Slug(FieldID, id)
	gameIDs := slice.Map(input.Involvements, func(involvement Involvement) string {
		return involvement.GameID
	})
	if missing := service.propagator.UnknownRefs(docstore.CacheDocGameNames, gameIDs); len(missing) > 0 {
		validator.Custom(FieldInvolvements, true, "Unknown game ID: "+strings.Join(missing, ", "))
	}
	return validator.Err()
}

func (input Input) toStaff(id string) *Staff {
	return &Staff{
		ID:                    id,
		Name:                  input.Name,
		Description:           input.Description,
		DescriptionSourceName: input.DescriptionSourceName,
		DescriptionSourceURL:  input.DescriptionSourceURL,
		Roles:                 input.Roles,
		Involvements:          input.Involvements,
	}
}
