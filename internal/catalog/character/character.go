package character

import (
	"time"

	"github.com/soramiya/aria/internal/catalog/cachesync"
	"github.com/soramiya/aria/internal/platform/docstore"
)

// ImageDirection is the side a character's artwork faces on detail pages.
type ImageDirection string

const (
	DirectionLeft  ImageDirection = "left"
	DirectionRight ImageDirection = "right"
)

// Character is a catalog character document. The document ID is the slug.
type Character struct {
	ID                    string            `json:"id"`
	Name                  string            `json:"name"`
	Category              string            `json:"category"`
	Description           string            `json:"description"`
	DescriptionSourceName string            `json:"descriptionSourceName"`
	DescriptionSourceURL  string            `json:"descriptionSourceUrl"`
	ContainsSpoilers      bool              `json:"containsSpoilers"`
	AccentColor           string            `json:"accentColor"`
	ImageDirection        ImageDirection    `json:"imageDirection"`
	GameIDs               []string          `json:"gameIds"`
	CachedGameNames       map[string]string `json:"cachedGameNames"`
	UpdatedAt             time.Time         `json:"updatedAt"`
}

// Projection is the subset of character fields duplicated into the
// "characters" cache document and into games' embedded character maps.
type Projection struct {
	Name           string         `json:"name"`
	AccentColor    string         `json:"accentColor"`
	ImageDirection ImageDirection `json:"imageDirection"`
}

// Field names reported in validation errors.
const (
	FieldID             = "id"
	FieldName           = "name"
	FieldAccentColor    = "accentColor"
	FieldImageDirection = "imageDirection"
	FieldGameIDs        = "gameIds"
)

// Definition is the cache-consistency table for characters.
var Definition = cachesync.Definition{
	Collection: docstore.CollectionCharacters,
	UniqueDoc:  docstore.CacheDocCharacters,
	IDField:    FieldID,
}

// EntityID implements [cachesync.Entity].
func (c *Character) EntityID() string { return c.ID }

// Snapshot declares every projection of this character.
//
// Owners are read off the character's own gameIds: each referenced game
// embeds the character's display fields and lists the character in its
// characterIds.
func (c *Character) Snapshot() cachesync.Snapshot {
	snapshot := cachesync.Snapshot{
		Entries: []cachesync.CacheEntry{
			{DocID: docstore.CacheDocCharacters, Value: c.Projection()},
		},
	}

	for _, gameID := range c.GameIDs {
		snapshot.Owners = append(snapshot.Owners, cachesync.OwnerWrite{
			Collection: docstore.CollectionGames,
			OwnerID:    gameID,
			Path:       []string{"cachedCharacters", c.ID},
			Value:      c.Projection(),
		})
		snapshot.Memberships = append(snapshot.Memberships, cachesync.Membership{
			Collection: docstore.CollectionGames,
			OwnerID:    gameID,
			Path:       []string{"characterIds"},
		})
	}
	return snapshot
}

// Projection returns the character's cache projection.
func (c *Character) Projection() Projection {
	return Projection{
		Name:           c.Name,
		AccentColor:    c.AccentColor,
		ImageDirection: c.ImageDirection,
	}
}

// normalize defaults every collection-valued field so embedded cache maps
// exist from creation (path writes require the maps to be present).
func (c *Character) normalize() {
	if c.GameIDs == nil {
		c.GameIDs = []string{}
	}
	if c.CachedGameNames == nil {
		c.CachedGameNames = map[string]string{}
	}
	if c.ImageDirection == "" {
		c.ImageDirection = DirectionLeft
	}
}
