package listing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soramiya/aria/internal/catalog/listing"
	"github.com/soramiya/aria/pkg/pagination"
)

func TestPage_SortsAndPaginates(t *testing.T) {
	entries := map[string]string{
		"c-third":  "C",
		"a-first":  "A",
		"b-second": "B",
	}

	page, meta := listing.Page(entries, pagination.Params{Page: 1, Limit: 2})
	assert.Equal(t, []listing.Entry[string]{
		{ID: "a-first", Entry: "A"},
		{ID: "b-second", Entry: "B"},
	}, page)
	assert.Equal(t, 3, meta.Total)
	assert.Equal(t, 2, meta.TotalPages)

	page, _ = listing.Page(entries, pagination.Params{Page: 2, Limit: 2})
	assert.Equal(t, []listing.Entry[string]{{ID: "c-third", Entry: "C"}}, page)
}

func TestPage_OutOfRange(t *testing.T) {
	page, meta := listing.Page(map[string]int{"only": 1}, pagination.Params{Page: 9, Limit: 20})
	assert.Empty(t, page)
	assert.Equal(t, 1, meta.Total)
}
