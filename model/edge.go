package model

import (
	"time"

	"github.com/google/uuid"
)

// Relation is a raw subject-predicate-object triple of surface strings.
type Relation struct {
	Subject   string `json:"subject"`
	Predicate string `json:"predicate"`
	Object    string `json:"object"`
}

// CanonicalRelation is a relation resolved to entity keys.
// The identity is (SubjectKey, Predicate, ObjectKey); the labels locate the endpoint nodes.
type CanonicalRelation struct {
	SubjectKey   string     `json:"subject_key"`
	Predicate    string     `json:"predicate"`
	ObjectKey    string     `json:"object_key"`
	SubjectLabel EntityType `json:"subject_label"`
	ObjectLabel  EntityType `json:"object_label"`
}

// Subject returns the node identity of the subject endpoint.
func (r CanonicalRelation) Subject() CanonicalEntity {
	return CanonicalEntity{Key: r.SubjectKey, Label: r.SubjectLabel}
}

// Object returns the node identity of the object endpoint.
func (r CanonicalRelation) Object() CanonicalEntity {
	return CanonicalEntity{Key: r.ObjectKey, Label: r.ObjectLabel}
}

// Edge is a persisted, directed and typed relation between two graph nodes.
type Edge struct {
	ID             uuid.UUID `json:"id"`
	SourceEntityID uuid.UUID `json:"source_entity_id"`
	TargetEntityID uuid.UUID `json:"target_entity_id"`
	Predicate      string    `json:"predicate"`
	Metadata       Metadata  `json:"metadata,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// EdgeConnection represents an edge with directional information
type EdgeConnection struct {
	Edge       *Edge `json:"edge"`
	IsOutgoing bool  `json:"is_outgoing"`
}

// TraversalNode represents an entity reached in a graph traversal
type TraversalNode struct {
	EntityID uuid.UUID   `json:"entity_id"`
	Entity   *Entity     `json:"entity,omitempty"`
	Depth    int         `json:"depth"`
	Path     []uuid.UUID `json:"path"`
}
