// Copyright (c) 2026 Aria. All rights reserved.

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soramiya/aria/pkg/slug"
)

/*
TestFrom verifies the transformation pipeline on representative names.
*/
func TestFrom(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "Test Hero", "test-hero"},
		{"punctuation", "Hero!? (Remix)", "hero-remix"},
		{"accents", "Café Résumé", "cafe-resume"},
		{"multi_space", "a   b", "a-b"},
		{"leading_trailing", " -hello- ", "hello"},
		{"digits", "Stage 3 Boss", "stage-3-boss"},
		{"already_slug", "test-hero", "test-hero"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slug.From(tt.input))
		})
	}
}

/*
TestFrom_Idempotent verifies that deriving a slug from an already-derived slug
yields the same string.
*/
func TestFrom_Idempotent(t *testing.T) {
	inputs := []string{"Test Hero", "Café Résumé", "Hero!? (Remix)", "Stage 3 Boss", "何かの曲 feat. X"}

	for _, input := range inputs {
		once := slug.From(input)
		assert.Equal(t, once, slug.From(once), "slug.From must be idempotent for %q", input)
	}
}
