// Package memory is an in-process search and graph store for tests and examples.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/siherrmann/docgraph/model"
)

type nodeKey struct {
	key   string
	label model.EntityType
}

type edgeKey struct {
	source    uuid.UUID
	predicate string
	target    uuid.UUID
}

// Store keeps documents, nodes and edges in maps guarded by one lock.
// Search scores a document by the number of query term occurrences in its
// content and entity texts; ties keep insertion order.
type Store struct {
	mu sync.RWMutex

	indexed   bool
	documents map[string]*model.IndexedDocument
	docOrder  []string

	nodes     map[nodeKey]*model.Entity
	nodesByID map[uuid.UUID]*model.Entity
	nodeOrder []uuid.UUID

	edges     map[edgeKey]*model.Edge
	edgeOrder []*model.Edge

	searchCalls atomic.Int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		documents: map[string]*model.IndexedDocument{},
		nodes:     map[nodeKey]*model.Entity{},
		nodesByID: map[uuid.UUID]*model.Entity{},
		edges:     map[edgeKey]*model.Edge{},
	}
}

// EnsureIndex marks the index as created.
func (s *Store) EnsureIndex(ctx context.Context) (model.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexed {
		return model.UpsertUnchanged, nil
	}
	s.indexed = true
	return model.UpsertCreated, nil
}

// PutDocument stores a copy of the document under its path.
func (s *Store) PutDocument(ctx context.Context, doc *model.IndexedDocument) (model.UpsertOutcome, error) {
	if doc == nil || doc.Path == "" {
		return "", fmt.Errorf("%w: document path is empty", model.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.indexed {
		return "", fmt.Errorf("%w: index does not exist", model.ErrStore)
	}

	stored := *doc
	stored.Entities = append([]model.EntityMention{}, doc.Entities...)
	stored.UpdatedAt = time.Now()
	doc.UpdatedAt = stored.UpdatedAt

	_, exists := s.documents[doc.Path]
	s.documents[doc.Path] = &stored
	if exists {
		return model.UpsertReplaced, nil
	}

	s.docOrder = append(s.docOrder, doc.Path)
	return model.UpsertCreated, nil
}

// Search returns up to topK documents matching any query term.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]model.SearchHit, error) {
	s.searchCalls.Add(1)

	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := tokenize(query)
	hits := []model.SearchHit{}
	if len(terms) == 0 {
		return hits, nil
	}

	for _, path := range s.docOrder {
		doc := s.documents[path]
		words := tokenize(doc.Content)
		for _, e := range doc.Entities {
			words = append(words, tokenize(e.Text)...)
		}

		score := 0
		for _, w := range words {
			for _, t := range terms {
				if w == t {
					score++
				}
			}
		}
		if score > 0 {
			hits = append(hits, model.SearchHit{Path: path, Score: float64(score)})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// SearchCalls returns how often Search was called.
func (s *Store) SearchCalls() int {
	return int(s.searchCalls.Load())
}

// Document returns a copy of the stored document, or nil.
func (s *Store) Document(path string) *model.IndexedDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[path]
	if !ok {
		return nil
	}
	c := *doc
	return &c
}

// DocumentCount returns the number of stored documents.
func (s *Store) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// UpsertNode merges the node keyed by (key, label).
func (s *Store) UpsertNode(ctx context.Context, entity model.CanonicalEntity) (model.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := nodeKey{key: entity.Key, label: entity.Label}
	if _, ok := s.nodes[k]; ok {
		return model.UpsertUnchanged, nil
	}

	name := entity.Name
	if name == "" {
		name = entity.Key
	}
	node := &model.Entity{
		ID:        uuid.New(),
		Key:       entity.Key,
		Name:      name,
		Label:     entity.Label,
		Metadata:  model.Metadata{},
		CreatedAt: time.Now(),
	}
	s.nodes[k] = node
	s.nodesByID[node.ID] = node
	s.nodeOrder = append(s.nodeOrder, node.ID)
	return model.UpsertCreated, nil
}

// UpsertEdge merges the edge between the existing endpoint nodes.
func (s *Store) UpsertEdge(ctx context.Context, relation model.CanonicalRelation) (model.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.nodes[nodeKey{key: relation.SubjectKey, label: relation.SubjectLabel}]
	if !ok {
		return "", fmt.Errorf("%w: edge subject (%s, %s) does not exist", model.ErrConsistencyViolation, relation.SubjectKey, relation.SubjectLabel)
	}
	target, ok := s.nodes[nodeKey{key: relation.ObjectKey, label: relation.ObjectLabel}]
	if !ok {
		return "", fmt.Errorf("%w: edge object (%s, %s) does not exist", model.ErrConsistencyViolation, relation.ObjectKey, relation.ObjectLabel)
	}

	k := edgeKey{source: source.ID, predicate: relation.Predicate, target: target.ID}
	if _, ok := s.edges[k]; ok {
		return model.UpsertUnchanged, nil
	}

	edge := &model.Edge{
		ID:             uuid.New(),
		SourceEntityID: source.ID,
		TargetEntityID: target.ID,
		Predicate:      relation.Predicate,
		Metadata:       model.Metadata{},
		CreatedAt:      time.Now(),
	}
	s.edges[k] = edge
	s.edgeOrder = append(s.edgeOrder, edge)
	return model.UpsertCreated, nil
}

// GetEntity returns the node with the given id, or nil.
func (s *Store) GetEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodesByID[id]
	if !ok {
		return nil, nil
	}
	c := *node
	return &c, nil
}

// GetEntitiesByKey returns all nodes with the key in creation order.
func (s *Store) GetEntitiesByKey(ctx context.Context, key string) ([]*model.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entities []*model.Entity
	for _, id := range s.nodeOrder {
		node := s.nodesByID[id]
		if node.Key == key {
			c := *node
			entities = append(entities, &c)
		}
	}
	return entities, nil
}

// GetEdgesOfEntity returns the edges touching the entity, filtered by predicate.
func (s *Store) GetEdgesOfEntity(ctx context.Context, id uuid.UUID, predicates []string, followBidirectional bool) ([]*model.EdgeConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filter := model.QueryConfig{Predicates: predicates}

	var connections []*model.EdgeConnection
	for _, edge := range s.edgeOrder {
		if !filter.AllowsPredicate(edge.Predicate) {
			continue
		}

		c := *edge
		switch {
		case edge.SourceEntityID == id:
			connections = append(connections, &model.EdgeConnection{Edge: &c, IsOutgoing: true})
		case edge.TargetEntityID == id && followBidirectional:
			connections = append(connections, &model.EdgeConnection{Edge: &c, IsOutgoing: false})
		}
	}
	return connections, nil
}

// Counts returns the number of nodes and edges.
func (s *Store) Counts(ctx context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes), len(s.edges), nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
