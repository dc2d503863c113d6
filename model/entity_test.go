package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityKey(t *testing.T) {
	t.Run("Lower-cases and trims", func(t *testing.T) {
		assert.Equal(t, "paris", EntityKey("  Paris "))
	})

	t.Run("Collapses whitespace runs", func(t *testing.T) {
		assert.Equal(t, "new york city", EntityKey("New\t York\n\nCity"))
	})

	t.Run("Handles unicode whitespace and letters", func(t *testing.T) {
		assert.Equal(t, "émile zola", EntityKey("Émile  Zola"))
	})

	t.Run("Empty and blank input give empty key", func(t *testing.T) {
		assert.Equal(t, "", EntityKey(""))
		assert.Equal(t, "", EntityKey(" \t\n"))
	})

	t.Run("Is idempotent", func(t *testing.T) {
		k := EntityKey(" The  Eiffel Tower ")
		assert.Equal(t, k, EntityKey(k))
	})
}

func TestCanonicalRelationEndpoints(t *testing.T) {
	r := CanonicalRelation{SubjectKey: "paris", Predicate: "be", ObjectKey: "france", SubjectLabel: "GPE", ObjectLabel: "GPE"}

	assert.Equal(t, CanonicalEntity{Key: "paris", Label: "GPE"}, r.Subject())
	assert.Equal(t, CanonicalEntity{Key: "france", Label: "GPE"}, r.Object())
}

func TestSentenceHasDependencies(t *testing.T) {
	assert.False(t, Sentence{}.HasDependencies())
	assert.False(t, Sentence{Tokens: []Token{{Text: "Paris"}}}.HasDependencies())
	assert.True(t, Sentence{Tokens: []Token{{Text: "Paris", Dep: DepNominalSubject}}}.HasDependencies())
}
