package model

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// EntityType is the coarse category assigned by the recognizer (PERSON, ORG, GPE, ...).
type EntityType string

// EntityMention is one occurrence of a recognized entity in a document.
// Start and End are character offsets when the recognizer reports them.
type EntityMention struct {
	Text  string     `json:"text"`
	Label EntityType `json:"label"`
	Start int        `json:"start,omitempty"`
	End   int        `json:"end,omitempty"`
	Score float64    `json:"score,omitempty"`
}

// CanonicalEntity is the deduplicated identity of all mentions sharing a key.
// Name is the first-seen surface form and is not part of the identity.
type CanonicalEntity struct {
	Key   string     `json:"key"`
	Label EntityType `json:"label"`
	Name  string     `json:"name"`
}

// Entity is a persisted graph node.
type Entity struct {
	ID        uuid.UUID  `json:"id"`
	Key       string     `json:"key"`
	Name      string     `json:"name"`
	Label     EntityType `json:"label"`
	Metadata  Metadata   `json:"metadata,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// LabelConflict records a mention whose label disagreed with the first-seen label of its key.
type LabelConflict struct {
	Key      string     `json:"key"`
	Text     string     `json:"text"`
	Kept     EntityType `json:"kept"`
	Rejected EntityType `json:"rejected"`
}

// EntityKey derives the identity key of a surface text:
// lower case, whitespace runs collapsed to one space, trimmed.
func EntityKey(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	space := false
	for _, r := range strings.TrimSpace(text) {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
