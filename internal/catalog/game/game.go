package game

import (
	"time"

	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/catalog/character"
	"github.com/soramiya/aria/internal/catalog/music"
	"github.com/soramiya/aria/internal/platform/docstore"
)

// Game is a catalog game document. The document ID is the slug.
type Game struct {
	ID                    string                          `json:"id"`
	Name                  string                          `json:"name"`
	Category              string                          `json:"category"`
	Subcategory           string                          `json:"subcategory"`
	Platforms             []string                        `json:"platforms"`
	ReleaseDate           *string                         `json:"releaseDate"`
	Description           string                          `json:"description"`
	DescriptionSourceName string                          `json:"descriptionSourceName"`
	DescriptionSourceURL  string                          `json:"descriptionSourceUrl"`
	CharacterIDs          []string                        `json:"characterIds"`
	CharacterSpoilerIDs   []string                        `json:"characterSpoilerIds"`
	SoundtrackIDs         []string                        `json:"soundtrackIds"`
	CachedSoundtracks     map[string]music.Snapshot       `json:"cachedSoundtracks"`
	CachedCharacters      map[string]character.Projection `json:"cachedCharacters"`
	UpdatedAt             time.Time                       `json:"updatedAt"`
}

// Projection is the subset of game fields duplicated into the "games" cache
// document for the game list page.
type Projection struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Platforms   []string `json:"platforms"`
	ReleaseDate *string  `json:"releaseDate"`
}

// Field names reported in validation errors.
const (
	FieldID                  = "id"
	FieldName                = "name"
	FieldCategory            = "category"
	FieldReleaseDate         = "releaseDate"
	FieldCharacterIDs        = "characterIds"
	FieldCharacterSpoilerIDs = "characterSpoilerIds"
	FieldSoundtrackIDs       = "soundtrackIds"
)

// Definition is the cache-consistency table for games.
var Definition = cachesync.Definition{
	Collection: docstore.CollectionGames,
	UniqueDoc:  docstore.CacheDocGames,
	IDField:    FieldID,
}

// EntityID implements [cachesync.Entity].
func (g *Game) EntityID() string { return g.ID }

// Snapshot declares every projection of this game.
//
// Each character the game references embeds the game's name in its
// cachedGameNames and lists it in gameIds.
func (g *Game) Snapshot() cachesync.Snapshot {
	snapshot := cachesync.Snapshot{
		Entries: []cachesync.CacheEntry{
			{DocID: docstore.CacheDocGames, Value: g.Projection()},
			{DocID: docstore.CacheDocGameNames, Value: g.Name},
		},
	}

	for _, characterID := range g.CharacterIDs {
		snapshot.Owners = append(snapshot.Owners, cachesync.OwnerWrite{
			Collection: docstore.CollectionCharacters,
			OwnerID:    characterID,
			Path:       []string{"cachedGameNames", g.ID},
			Value:      g.Name,
		})
		snapshot.Memberships = append(snapshot.Memberships, cachesync.Membership{
			Collection: docstore.CollectionCharacters,
			OwnerID:    characterID,
			Path:       []string{"gameIds"},
		})
	}
	return snapshot
}

// Projection returns the game's cache projection.
func (g *Game) Projection() Projection {
	return Projection{
		Name:        g.Name,
		Category:    g.Category,
		Platforms:   g.Platforms,
		ReleaseDate: g.ReleaseDate,
	}
}

// normalize defaults every collection-valued field so embedded cache maps
// exist from creation.
func (g *Game) normalize() {
	if g.Platforms == nil {
		g.Platforms = []string{}
	}
	if g.CharacterIDs == nil {
		g.CharacterIDs = []string{}
	}
	if g.CharacterSpoilerIDs == nil {
		g.CharacterSpoilerIDs = []string{}
	}
	if g.SoundtrackIDs == nil {
		g.SoundtrackIDs = []string{}
	}
	if g.CachedSoundtracks == nil {
		g.CachedSoundtracks = map[string]music.Snapshot{}
	}
	if g.CachedCharacters == nil {
		g.CachedCharacters = map[string]character.Projection{}
	}
}
