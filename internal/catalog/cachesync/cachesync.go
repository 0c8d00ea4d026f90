// Copyright (c) 2026 Aria. All rights reserved.

/*
Package cachesync keeps every denormalized projection of a catalog entity
consistent with its primary document.

# Background

List pages never read primary entity documents; they read a single cache
document per page, a map of entity ID to a small projection. Detail pages
additionally rely on reverse-reference snapshots embedded in related entities
(a game's embedded soundtrack snapshots, a character's embedded game names).
All of those copies are written imperatively, in lockstep with the primary
document, inside one atomic batch.

# Design

Instead of bespoke bookkeeping per admin form, each entity type declares its
projections and reverse references once, as data:

  - [Entity.Snapshot] returns the cache-document entries, reverse-owner embeds
    and membership appends the entity currently implies. Owners are read off
    the entity's own stored ID-list fields, never discovered dynamically.
  - [Propagator] is the single generic routine that turns snapshots into
    batches for create, edit, and bulk import.

Consistency is eventual in the soft sense the product accepts: there is no
delete path, no background reconciliation, and a write site that forgets a
projection would silently drift. Keeping the projection logic in one method
per entity is the defense against that.
*/
package cachesync

import (
	"github.com/soramiya/aria/internal/platform/docstore"
)

// CacheEntry is one projection written into a cache document's map.
type CacheEntry struct {
	// DocID names the cache document inside the "cache" collection.
	DocID string
	// Value is the projection stored under the entity's ID.
	Value any
}

// OwnerWrite is a reverse-reference snapshot embedded in a related entity.
type OwnerWrite struct {
	// Collection and OwnerID locate the owning document.
	Collection docstore.Collection
	OwnerID    string
	// Path is the embed location inside the owner, e.g.
	// ["cachedMusic", "<musicID>"].
	Path []string
	// Value is the snapshot stored at Path.
	Value any
}

// Membership is an ordered ID-list on an owning document that must gain this
// entity's ID on creation (e.g. an album's musicIds).
type Membership struct {
	Collection docstore.Collection
	OwnerID    string
	// Path locates the array inside the owner, e.g. ["musicIds"].
	Path []string
}

// Snapshot is everything an entity currently projects into other documents.
type Snapshot struct {
	Entries     []CacheEntry
	Owners      []OwnerWrite
	Memberships []Membership
}

// Entity is implemented by every catalog entity type.
type Entity interface {
	// EntityID returns the slug used as the document ID.
	EntityID() string
	// Snapshot declares the entity's current projections.
	Snapshot() Snapshot
}

// Definition is the per-type table consulted by the propagator.
type Definition struct {
	// Collection holds the primary documents of this type.
	Collection docstore.Collection
	// UniqueDoc is the cache document whose key set enforces slug uniqueness.
	UniqueDoc string
	// IDField is the form field name reported when the slug is taken.
	IDField string
}

func (m Membership) key() string {
	return string(m.Collection) + "/" + m.OwnerID + "/" + joinPath(m.Path)
}

func (w OwnerWrite) key() string {
	return string(w.Collection) + "/" + w.OwnerID + "/" + joinPath(w.Path)
}

func joinPath(path []string) string {
	out := ""
	for i, segment := range path {
		if i > 0 {
			out += "."
		}
		out += segment
	}
	return out
}
