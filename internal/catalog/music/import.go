package music

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/platform/apperr"
	"github.com/soramiya/aria/pkg/uuidv7"
)

// ImportResult reports what a bulk import created, plus every related
// document ID the caller needs for the revalidation step.
type ImportResult struct {
	CreatedIDs []string `json:"createdIds"`
	AlbumIDs   []string `json:"albumIds"`
	StaffIDs   []string `json:"staffIds"`
	GameIDs    []string `json:"gameIds"`
}

// Import creates every track in the payload, accumulating all primary writes
// and projection fan-outs into ONE atomic batch: either every record lands
// with all of its projections, or none do.
//
// Validation runs over the whole payload first so the response names every
// failing element, not just the first.
func (service *Service) Import(ctx context.Context, inputs []Input) (*ImportResult, error) {
	if len(inputs) == 0 {
		return nil, apperr.ValidationError("Import payload must be a non-empty array")
	}

	var details []apperr.FieldError
	for index, input := range inputs {
		if err := service.validateInput(input); err != nil {
			appErr := apperr.As(err)
			if appErr == nil {
				return nil, err
			}
			for _, detail := range appErr.Details {
				details = append(details, apperr.FieldError{
					Field:   fmt.Sprintf("[%d].%s", index, detail.Field),
					Message: detail.Message,
				})
			}
		}
	}
	if len(details) > 0 {
		return nil, apperr.ValidationError("One or more records are invalid", details...)
	}

	now := time.Now().UTC()
	entities := make([]cachesync.Entity, 0, len(inputs))
	result := &ImportResult{CreatedIDs: make([]string, 0, len(inputs))}
	albums := make(map[string]struct{})
	staff := make(map[string]struct{})
	games := make(map[string]struct{})

	for _, input := range inputs {
		track := input.toMusic(uuidv7.New())
		track.normalize()
		track.UpdatedAt = now
		entities = append(entities, track)

		result.CreatedIDs = append(result.CreatedIDs, track.ID)
		if track.AlbumID != "" {
			albums[track.AlbumID] = struct{}{}
		}
		for _, id := range track.StaffIDs() {
			staff[id] = struct{}{}
		}
		for _, id := range track.GameIDs {
			games[id] = struct{}{}
		}
	}

	if err := service.propagator.CreateMany(ctx, Definition, entities); err != nil {
		return nil, err
	}

	result.AlbumIDs = sortedKeys(albums)
	result.StaffIDs = sortedKeys(staff)
	result.GameIDs = sortedKeys(games)

	service.logger.Info("music_imported",
		slog.Int("tracks", len(result.CreatedIDs)),
		slog.Int("albums", len(result.AlbumIDs)),
		slog.Int("staff", len(result.StaffIDs)),
		slog.Int("games", len(result.GameIDs)),
	)
	return result, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
