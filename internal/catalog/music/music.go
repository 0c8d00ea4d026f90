package music

import (
	"time"

	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/platform/docstore"
)

// Credit is an "other artist" entry on a soundtrack: a staff member with a
// free-form role (vocals, lyrics, ...).
type Credit struct {
	StaffID string `json:"staffId"`
	Role    string `json:"role"`
}

// Music is a soundtrack document.
//
// Unlike the slug-keyed catalog types, music IDs are server-generated
// (UUIDv7): tracks are created through bulk import and never addressed by a
// human-readable URL of their own.
type Music struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	AlbumID      string    `json:"albumId,omitempty"`
	ComposerIDs  []string  `json:"composerIds"`
	ArrangerIDs  []string  `json:"arrangerIds"`
	OtherArtists []Credit  `json:"otherArtists"`
	Duration     int       `json:"duration"`
	VideoID      string    `json:"videoId,omitempty"`
	GameIDs      []string  `json:"gameIds"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Snapshot is the music projection embedded in the "music" cache document,
// album cachedMusic maps, staff cachedMusic maps, and game cachedSoundtracks.
type Snapshot struct {
	Title       string   `json:"title"`
	AlbumID     string   `json:"albumId,omitempty"`
	ComposerIDs []string `json:"composerIds"`
	ArrangerIDs []string `json:"arrangerIds"`
	Duration    int      `json:"duration"`
	VideoID     string   `json:"videoId,omitempty"`
}

// Field names reported in validation errors.
const (
	FieldTitle       = "title"
	FieldDuration    = "duration"
	FieldVideoID     = "videoId"
	FieldAlbumID     = "albumId"
	FieldComposerIDs = "composerIds"
	FieldArrangerIDs = "arrangerIds"
	FieldGameIDs     = "gameIds"
)

// videoIDLength is the fixed length of embedded video identifiers.
const videoIDLength = 11

// Definition is the cache-consistency table for music.
var Definition = cachesync.Definition{
	Collection: docstore.CollectionMusic,
	UniqueDoc:  docstore.CacheDocMusic,
	IDField:    "id",
}

// EntityID implements [cachesync.Entity].
func (m *Music) EntityID() string { return m.ID }

// Snapshot declares every projection of this track.
//
// Owners are read off the track's own stored reference fields: the album it
// belongs to, every credited staff member, and every game that uses it.
func (m *Music) Snapshot() cachesync.Snapshot {
	projection := m.Projection()

	snapshot := cachesync.Snapshot{
		Entries: []cachesync.CacheEntry{
			{DocID: docstore.CacheDocMusic, Value: projection},
		},
	}

	if m.AlbumID != "" {
		snapshot.Owners = append(snapshot.Owners, cachesync.OwnerWrite{
			Collection: docstore.CollectionMusicAlbums,
			OwnerID:    m.AlbumID,
			Path:       []string{"cachedMusic", m.ID},
			Value:      projection,
		})
		snapshot.Memberships = append(snapshot.Memberships,
			cachesync.Membership{
				Collection: docstore.CollectionMusicAlbums,
				OwnerID:    m.AlbumID,
				Path:       []string{"musicIds"},
			},
			// The musicAlbums cache projection lists track IDs too; keep it
			// in lockstep with the primary document.
			cachesync.Membership{
				Collection: docstore.CollectionCache,
				OwnerID:    docstore.CacheDocMusicAlbums,
				Path:       []string{m.AlbumID, "musicIds"},
			},
		)
	}

	for _, staffID := range m.StaffIDs() {
		snapshot.Owners = append(snapshot.Owners, cachesync.OwnerWrite{
			Collection: docstore.CollectionStaffInfo,
			OwnerID:    staffID,
			Path:       []string{"cachedMusic", m.ID},
			Value:      projection,
		})
		snapshot.Memberships = append(snapshot.Memberships, cachesync.Membership{
			Collection: docstore.CollectionStaffInfo,
			OwnerID:    staffID,
			Path:       []string{"musicIds"},
		})
	}

	for _, gameID := range m.GameIDs {
		snapshot.Owners = append(snapshot.Owners, cachesync.OwnerWrite{
			Collection: docstore.CollectionGames,
			OwnerID:    gameID,
			Path:       []string{"cachedSoundtracks", m.ID},
			Value:      projection,
		})
		snapshot.Memberships = append(snapshot.Memberships, cachesync.Membership{
			Collection: docstore.CollectionGames,
			OwnerID:    gameID,
			Path:       []string{"soundtrackIds"},
		})
	}

	return snapshot
}

// Projection returns the track's music snapshot.
func (m *Music) Projection() Snapshot {
	return Snapshot{
		Title:       m.Title,
		AlbumID:     m.AlbumID,
		ComposerIDs: m.ComposerIDs,
		ArrangerIDs: m.ArrangerIDs,
		Duration:    m.Duration,
		VideoID:     m.VideoID,
	}
}

// StaffIDs returns every credited staff member exactly once, preserving
// composer → arranger → other-artist order. A staff member credited in more
// than one role still owns a single cachedMusic embed.
func (m *Music) StaffIDs() []string {
	seen := make(map[string]struct{})
	var ids []string

	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, id := range m.ComposerIDs {
		add(id)
	}
	for _, id := range m.ArrangerIDs {
		add(id)
	}
	for _, credit := range m.OtherArtists {
		add(credit.StaffID)
	}
	return ids
}

// normalize defaults every collection-valued field.
func (m *Music) normalize() {
	if m.ComposerIDs == nil {
		m.ComposerIDs = []string{}
	}
	if m.ArrangerIDs == nil {
		m.ArrangerIDs = []string{}
	}
	if m.OtherArtists == nil {
		m.OtherArtists = []Credit{}
	}
	if m.GameIDs == nil {
		m.GameIDs = []string{}
	}
}
