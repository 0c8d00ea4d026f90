// Copyright (c) 2026 Aria. All rights reserved.

/*
Package docstore provides typed access to named document collections backed
by a single PostgreSQL jsonb table.

Architecture:

  - Collections: every entity type maps to a named collection; a document is
    a (collection, id, jsonb) row.
  - Cache documents: the "cache" collection holds one document per list page,
    each a map of entity ID to a small projection of that entity.
  - Batches: all admin write paths build a [Batch] of operations that is
    committed inside one transaction — the whole batch applies or none of it
    does. There is no ordering guarantee relative to concurrent batches;
    last writer wins per document.

The [Store] interface decouples callers from PostgreSQL so that consistency
logic can be exercised against [MemStore] in tests.
*/
package docstore

import "context"

// Collection names a document collection.
type Collection string

// Persisted collections.
const (
	CollectionGames       Collection = "games"
	CollectionCharacters  Collection = "characters"
	CollectionMusic       Collection = "music"
	CollectionMusicAlbums Collection = "musicAlbums"
	CollectionStaffInfo   Collection = "staffInfo"
	CollectionUsers       Collection = "users"

	// CollectionCache holds the denormalized cache documents listed below.
	CollectionCache Collection = "cache"
)

// Cache document IDs within [CollectionCache].
const (
	CacheDocCharacters      = "characters"
	CacheDocGames           = "games"
	CacheDocMusic           = "music"
	CacheDocMusicAlbums     = "musicAlbums"
	CacheDocStaffInfo       = "staffInfo"
	CacheDocStaffNames      = "staffNames"
	CacheDocStaffRoles      = "staffRoles"
	CacheDocGameNames       = "gameNames"
	CacheDocAlbumNames      = "albumNames"
	CacheDocMusicAlbumNames = "musicAlbumNames"
)

// CacheDocIDs returns every cache document ID, in stable order.
//
// The set is fixed at compile time; migrations seed one empty document per ID.
func CacheDocIDs() []string {
	return []string{
		CacheDocCharacters,
		CacheDocGames,
		CacheDocMusic,
		CacheDocMusicAlbums,
		CacheDocStaffInfo,
		CacheDocStaffNames,
		CacheDocStaffRoles,
		CacheDocGameNames,
		CacheDocAlbumNames,
		CacheDocMusicAlbumNames,
	}
}

// Store is the document-store access contract.
//
// Implementations: [PostgresStore] (production), [MemStore] (tests).
type Store interface {
	// Get unmarshals the document at (collection, id) into dest.
	// Returns [dberr.ErrNotFound] if the document does not exist.
	Get(ctx context.Context, collection Collection, id string, dest any) error

	// Commit applies every operation in the batch atomically.
	// A failed [Batch.Insert] precondition fails the whole batch.
	Commit(ctx context.Context, batch *Batch) error
}
