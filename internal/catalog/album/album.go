package album

import (
	"time"

	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/catalog/music"
	"github.com/soramiya/aria/internal/platform/docstore"
)

// Album is a music album document. The document ID is the slug.
//
// MusicIDs and CachedMusic are maintained by track writes alone: importing or
// editing a track appends to musicIds and rewrites the cachedMusic snapshot.
type Album struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	ReleaseDate *string                   `json:"releaseDate"`
	MusicIDs    []string                  `json:"musicIds"`
	CachedMusic map[string]music.Snapshot `json:"cachedMusic"`
	UpdatedAt   time.Time                 `json:"updatedAt"`
}

// Projection is the subset of album fields duplicated into the "musicAlbums"
// cache document for the album list page.
type Projection struct {
	Name        string   `json:"name"`
	ReleaseDate *string  `json:"releaseDate"`
	MusicIDs    []string `json:"musicIds"`
}

// Field names reported in validation errors.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldReleaseDate = "releaseDate"
)

// Definition is the cache-consistency table for albums.
var Definition = cachesync.Definition{
	Collection: docstore.CollectionMusicAlbums,
	UniqueDoc:  docstore.CacheDocMusicAlbums,
	IDField:    FieldID,
}

// EntityID implements [cachesync.Entity].
func (a *Album) EntityID() string { return a.ID }

// Snapshot declares the album's cache entries. Albums hold no reverse
// references: tracks point at albums, never the other way round.
func (a *Album) Snapshot() cachesync.Snapshot {
	return cachesync.Snapshot{
		Entries: []cachesync.CacheEntry{
			{DocID: docstore.CacheDocMusicAlbums, Value: a.Projection()},
			{DocID: docstore.CacheDocAlbumNames, Value: a.Name},
			{DocID: docstore.CacheDocMusicAlbumNames, Value: a.Name},
		},
	}
}

// Projection returns the album's cache projection.
func (a *Album) Projection() Projection {
	return Projection{
		Name:        a.Name,
		ReleaseDate: a.ReleaseDate,
		MusicIDs:    a.MusicIDs,
	}
}

// normalize defaults every collection-valued field so embedded cache maps
// exist from creation.
func (a *Album) normalize() {
	if a.MusicIDs == nil {
		a.MusicIDs = []string{}
	}
	if a.CachedMusic == nil {
		a.CachedMusic = map[string]music.Snapshot{}
	}
}
