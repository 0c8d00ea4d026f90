package staff

import (
	"time"

	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/catalog/music"
	"github.com/soramiya/aria/internal/platform/docstore"
)

// Involvement records a staff member's roles on one game.
type Involvement struct {
	GameID string   `json:"gameId"`
	Roles  []string `json:"roles"`
}

// Staff is a staff-member document. The document ID is the slug.
//
// MusicIDs and CachedMusic are maintained by track writes alone: importing or
// editing a track that credits this member appends to musicIds and rewrites
// the cachedMusic snapshot.
type Staff struct {
	ID                    string                    `json:"id"`
	Name                  string                    `json:"name"`
	Description           string                    `json:"description"`
	DescriptionSourceName string                    `json:"descriptionSourceName"`
	DescriptionSourceURL  string                    `json:"descriptionSourceUrl"`
	Roles                 []string                  `json:"roles"`
	Involvements          []Involvement             `json:"involvements"`
	HasAvatar             bool                      `json:"hasAvatar"`
	MusicIDs              []string                  `json:"musicIds"`
	CachedMusic           map[string]music.Snapshot `json:"cachedMusic"`
	UpdatedAt             time.Time                 `json:"updatedAt"`
}

// Projection is the subset of staff fields duplicated into the "staffInfo"
// cache document for the staff list page.
type Projection struct {
	Name      string   `json:"name"`
	Roles     []string `json:"roles"`
	HasAvatar bool     `json:"hasAvatar"`
}

// Field names reported in validation errors.
const (
	FieldID           = "id"
	FieldName         = "name"
	FieldInvolvements = "involvements"
)

// Definition is the cache-consistency table for staff members.
var Definition = cachesync.Definition{
	Collection: docstore.CollectionStaffInfo,
	UniqueDoc:  docstore.CacheDocStaffInfo,
	IDField:    FieldID,
}

// EntityID implements [cachesync.Entity].
func (s *Staff) EntityID() string { return s.ID }

// Snapshot declares the staff member's cache entries. Staff hold no reverse
// references: tracks and games point at staff, never the other way round.
func (s *Staff) Snapshot() cachesync.Snapshot {
	return cachesync.Snapshot{
		Entries: []cachesync.CacheEntry{
			{DocID: docstore.CacheDocStaffInfo, Value: s.Projection()},
			{DocID: docstore.CacheDocStaffNames, Value: s.Name},
			{DocID: docstore.CacheDocStaffRoles, Value: s.Roles},
		},
	}
}

// Projection returns the staff member's cache projection.
func (s *Staff) Projection() Projection {
	return Projection{
		Name:      s.Name,
		Roles:     s.Roles,
		HasAvatar: s.HasAvatar,
	}
}

// normalize defaults every collection-valued field so embedded cache maps
// exist from creation.
func (s *Staff) normalize() {
	if s.Roles == nil {
		s.Roles = []string{}
	}
	if s.Involvements == nil {
		s.Involvements = []Involvement{}
	}
	if s.MusicIDs == nil {
		s.MusicIDs = []string{}
	}
	if s.CachedMusic == nil {
		s.CachedMusic = map[string]music.Snapshot{}
	}
}
