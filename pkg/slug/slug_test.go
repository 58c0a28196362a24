// Copyright (c) 2026 SafraReport. All rights reserved.

package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/safrareport/safrareport/pkg/slug"
)

/*
TestFrom covers the full transformation pipeline: accent folding, lowercasing,
hyphen collapsing, and edge trimming.
*/
func TestFrom(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain_headline", "Mayor Announces Budget", "mayor-announces-budget"},
		{"accented", "Café Économie", "cafe-economie"},
		{"punctuation", "Deli & Grill: Now Open!", "deli-grill-now-open"},
		{"multiple_spaces", "too   many    spaces", "too-many-spaces"},
		{"leading_trailing", "  trimmed  ", "trimmed"},
		{"digits_kept", "Top 10 Listings 2026", "top-10-listings-2026"},
		{"already_slugged", "already-a-slug", "already-a-slug"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, slug.From(tt.input))
		})
	}
}

/*
TestFrom_Idempotent verifies that slugging a slug is a no-op.
*/
func TestFrom_Idempotent(t *testing.T) {
	once := slug.From("Vieux Marché, 2ème édition")
	twice := slug.From(once)

	assert.Equal(t, once, twice)
}
