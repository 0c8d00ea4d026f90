// Package listing turns cache-document maps into stable, paginated API lists.
//
// Cache documents store one entry per entity keyed by ID. List endpoints
// return those entries sorted by ID so pagination is deterministic across
// requests; music IDs are UUIDv7, so ID order is creation order.
package listing

import (
	"sort"

	"github.com/soramiya/aria/pkg/pagination"
	"github.com/soramiya/aria/pkg/slice"
)

// Entry pairs a cache-document key with its projection.
type Entry[T any] struct {
	ID    string `json:"id"`
	Entry T      `json:"entry"`
}

// Page sorts the entries by ID and returns the requested page plus its
// pagination metadata.
func Page[T any](entries map[string]T, params pagination.Params) ([]Entry[T], pagination.Meta) {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	total := len(ids)
	meta := pagination.NewMeta(params.Page, params.Limit, total)

	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}

	page := slice.Map(ids[start:end], func(id string) Entry[T] {
		return Entry[T]{ID: id, Entry: entries[id]}
	})
	if page == nil {
		page = []Entry[T]{}
	}
	return page, meta
}
