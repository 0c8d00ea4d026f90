// Copyright (c) 2026 Aria. All rights reserved.

package cachesync

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/soramiya/aria/internal/platform/apperr"
	"github.com/soramiya/aria/internal/platform/docstore"
	"github.com/soramiya/aria/internal/platform/mirror"
)

// Propagator builds and commits the atomic batches that keep denormalized
// projections consistent across documents.
type Propagator struct {
	store  docstore.Store
	mirror *mirror.Mirror
	logger *slog.Logger
}

// NewPropagator wires the propagator to the document store and the live
// cache-document mirror.
func NewPropagator(store docstore.Store, m *mirror.Mirror, logger *slog.Logger) *Propagator {
	return &Propagator{store: store, mirror: m, logger: logger}
}

// Create writes a new entity and every projection of it in one atomic batch.
//
// The slug pre-check against the mirror is advisory: it gives an early,
// field-level error without a store read, but two concurrent creates can both
// pass it. The batch's insert therefore fails on an existing document, which
// makes the race lose cleanly instead of silently overwriting.
func (p *Propagator) Create(ctx context.Context, def Definition, entity Entity) error {
	batch := docstore.NewBatch()
	if err := p.stageCreate(batch, def, entity); err != nil {
		return err
	}

	if err := p.store.Commit(ctx, batch); err != nil {
		return err
	}

	p.finish(ctx, "entity_created", def, entity.Snapshot(), entity.EntityID())
	return nil
}

// CreateMany applies the create fan-out for every entity, accumulating all
// writes into ONE batch. Used by bulk import: either every record lands with
// all of its projections, or none do.
func (p *Propagator) CreateMany(ctx context.Context, def Definition, entities []Entity) error {
	batch := docstore.NewBatch()
	for _, entity := range entities {
		if err := p.stageCreate(batch, def, entity); err != nil {
			return err
		}
	}

	if err := p.store.Commit(ctx, batch); err != nil {
		return err
	}

	for _, entity := range entities {
		p.finish(ctx, "entity_created", def, entity.Snapshot(), entity.EntityID())
	}
	return nil
}

// Edit updates an entity and rewrites only the projections that actually
// changed, compared field-by-field against the previously loaded state.
//
// Owners holding a reverse snapshot are read off the entity's own stored
// ID-list fields (via [Entity.Snapshot]); nothing outside that declared set
// is touched.
func (p *Propagator) Edit(ctx context.Context, def Definition, prev, next Entity) error {
	id := next.EntityID()
	batch := docstore.NewBatch()
	batch.Set(def.Collection, id, next)

	prevSnap := prev.Snapshot()
	nextSnap := next.Snapshot()

	// 1. Cache-document entries, only when the projection changed.
	prevEntries := make(map[string]any, len(prevSnap.Entries))
	for _, entry := range prevSnap.Entries {
		prevEntries[entry.DocID] = entry.Value
	}
	var touchedDocs []string
	for _, entry := range nextSnap.Entries {
		if before, ok := prevEntries[entry.DocID]; ok && reflect.DeepEqual(before, entry.Value) {
			continue
		}
		batch.MergePath(docstore.CollectionCache, entry.DocID, []string{id}, entry.Value)
		touchedDocs = append(touchedDocs, entry.DocID)
	}

	// 2. Reverse-reference embeds, only when the snapshot changed.
	prevOwners := make(map[string]any, len(prevSnap.Owners))
	for _, owner := range prevSnap.Owners {
		prevOwners[owner.key()] = owner.Value
	}
	for _, owner := range nextSnap.Owners {
		if before, ok := prevOwners[owner.key()]; ok && reflect.DeepEqual(before, owner.Value) {
			continue
		}
		batch.MergePath(owner.Collection, owner.OwnerID, owner.Path, owner.Value)
	}

	// 3. Membership arrays on owners the entity did not reference before.
	prevMembers := make(map[string]struct{}, len(prevSnap.Memberships))
	for _, membership := range prevSnap.Memberships {
		prevMembers[membership.key()] = struct{}{}
	}
	for _, membership := range nextSnap.Memberships {
		if _, ok := prevMembers[membership.key()]; ok {
			continue
		}
		batch.AppendPath(membership.Collection, membership.OwnerID, membership.Path, id)
	}

	if err := p.store.Commit(ctx, batch); err != nil {
		return err
	}

	p.finish(ctx, "entity_updated", def, Snapshot{Entries: nextSnap.Entries}, id)
	p.logger.Info("cache_projection_refreshed",
		slog.String("collection", string(def.Collection)),
		slog.String("entity_id", id),
		slog.Int("cache_docs", len(touchedDocs)),
		slog.Int("reverse_owners", len(nextSnap.Owners)),
	)
	return nil
}

// SlugTaken reports whether the proposed slug already exists as a key of the
// type's uniqueness cache document, returning a field-level error if so.
//
// Callers invoke this before building the entity so the admin form can show
// the failure on the ID field without attempting any write.
func (p *Propagator) SlugTaken(def Definition, id string) error {
	if !p.mirror.Has(def.UniqueDoc, id) {
		return nil
	}
	return &apperr.AppError{
		Code:       "CONFLICT",
		Message:    "This ID is already taken",
		HTTPStatus: http.StatusConflict,
		Details: []apperr.FieldError{
			{Field: def.IDField, Message: "This ID is already taken"},
		},
	}
}

// UnknownRefs returns the IDs absent from the given uniqueness cache
// document, in input order. Empty IDs are skipped; required-field checks
// happen elsewhere.
//
// Services call this to reject dangling reverse-references with a
// field-level error before staging any write. Like [Propagator.SlugTaken]
// it reads the live mirror, so it is advisory; the store's path merges and
// appends additionally no-op on missing documents, so a race can at worst
// drop an embed, never fabricate a partial document.
func (p *Propagator) UnknownRefs(uniqueDoc string, ids []string) []string {
	var missing []string
	for _, id := range ids {
		if id == "" || p.mirror.Has(uniqueDoc, id) {
			continue
		}
		missing = append(missing, id)
	}
	return missing
}

// stageCreate appends one entity's full create fan-out to the batch.
func (p *Propagator) stageCreate(batch *docstore.Batch, def Definition, entity Entity) error {
	id := entity.EntityID()
	if err := p.SlugTaken(def, id); err != nil {
		return err
	}

	batch.Insert(def.Collection, id, entity)

	snapshot := entity.Snapshot()
	for _, entry := range snapshot.Entries {
		batch.MergePath(docstore.CollectionCache, entry.DocID, []string{id}, entry.Value)
	}
	for _, owner := range snapshot.Owners {
		batch.MergePath(owner.Collection, owner.OwnerID, owner.Path, owner.Value)
	}
	for _, membership := range snapshot.Memberships {
		batch.AppendPath(membership.Collection, membership.OwnerID, membership.Path, id)
	}
	return nil
}

// finish refreshes the mirror for every touched cache document and logs.
// The mirror update is optimistic by design: it is not rolled back if a later
// operation in the same admin session fails.
func (p *Propagator) finish(ctx context.Context, event string, def Definition, snapshot Snapshot, id string) {
	docIDs := make([]string, 0, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		docIDs = append(docIDs, entry.DocID)
	}
	p.mirror.Invalidate(ctx, docIDs...)

	p.logger.Info(event,
		slog.String("collection", string(def.Collection)),
		slog.String("entity_id", id),
	)
}
