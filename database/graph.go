package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
)

// GraphDBHandler is the Postgres knowledge graph: entities are nodes, edges are typed relations.
type GraphDBHandler struct {
	Entities EntitiesDBHandlerFunctions
	Edges    EdgesDBHandlerFunctions
}

// NewGraphDBHandler creates the entities and edges handlers in dependency order.
func NewGraphDBHandler(db *helper.Database, force bool) (*GraphDBHandler, error) {
	entities, err := NewEntitiesDBHandler(db, force)
	if err != nil {
		return nil, err
	}

	edges, err := NewEdgesDBHandler(db, force)
	if err != nil {
		return nil, err
	}

	return &GraphDBHandler{
		Entities: entities,
		Edges:    edges,
	}, nil
}

// UpsertNode merges the node keyed by (key, label).
func (g *GraphDBHandler) UpsertNode(ctx context.Context, entity model.CanonicalEntity) (model.UpsertOutcome, error) {
	name := entity.Name
	if name == "" {
		name = entity.Key
	}

	return g.Entities.UpsertEntity(ctx, &model.Entity{
		Key:   entity.Key,
		Name:  name,
		Label: entity.Label,
	})
}

// UpsertEdge merges the edge keyed by (subject, predicate, object).
func (g *GraphDBHandler) UpsertEdge(ctx context.Context, relation model.CanonicalRelation) (model.UpsertOutcome, error) {
	_, result, err := g.Edges.UpsertEdge(ctx, relation, nil)
	return result, err
}

// SearchEntities returns the entities whose name is most similar to the query.
func (g *GraphDBHandler) SearchEntities(ctx context.Context, query string, limit int) ([]*model.Entity, error) {
	return g.Entities.SearchEntities(ctx, query, limit)
}

// GetEntity returns the node with the given id, or nil.
func (g *GraphDBHandler) GetEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	return g.Entities.SelectEntity(ctx, id)
}

// GetEntitiesByKey returns all nodes sharing the key.
func (g *GraphDBHandler) GetEntitiesByKey(ctx context.Context, key string) ([]*model.Entity, error) {
	return g.Entities.SelectEntitiesByKey(ctx, key)
}

// GetEdgesOfEntity returns the edges touching the entity, filtered by predicate.
// Incoming edges are only included when followBidirectional is set.
func (g *GraphDBHandler) GetEdgesOfEntity(ctx context.Context, id uuid.UUID, predicates []string, followBidirectional bool) ([]*model.EdgeConnection, error) {
	var predicate *string
	if len(predicates) == 1 {
		predicate = &predicates[0]
	}

	connections, err := g.Edges.SelectEdgesConnectedToEntity(ctx, id, predicate)
	if err != nil {
		return nil, err
	}

	allowed := map[string]bool{}
	for _, p := range predicates {
		allowed[p] = true
	}

	var filtered []*model.EdgeConnection
	for _, c := range connections {
		if !c.IsOutgoing && !followBidirectional {
			continue
		}
		if len(allowed) > 0 && !allowed[c.Edge.Predicate] {
			continue
		}
		filtered = append(filtered, c)
	}

	return filtered, nil
}

// TraverseFromEntity runs the breadth-first walk inside the database.
// It follows edges in both directions and supports at most one predicate filter.
func (g *GraphDBHandler) TraverseFromEntity(ctx context.Context, startID uuid.UUID, maxHops int, predicates []string) ([]*model.TraversalNode, error) {
	if len(predicates) > 1 {
		return nil, helper.NewError("traverse", fmt.Errorf("%w: at most one predicate filter is supported", model.ErrInvalidInput))
	}

	var predicate *string
	if len(predicates) == 1 {
		predicate = &predicates[0]
	}

	nodes, err := g.Edges.TraverseBFSFromEntity(ctx, startID, maxHops, predicate)
	if err != nil {
		return nil, err
	}

	for _, n := range nodes {
		n.Entity, err = g.Entities.SelectEntity(ctx, n.EntityID)
		if err != nil {
			return nil, err
		}
	}

	return nodes, nil
}

// Counts returns the number of nodes and edges in the graph.
func (g *GraphDBHandler) Counts(ctx context.Context) (nodes int, edges int, err error) {
	nodes, err = g.Entities.CountEntities(ctx)
	if err != nil {
		return 0, 0, err
	}
	edges, err = g.Edges.CountEdges(ctx)
	if err != nil {
		return 0, 0, err
	}
	return nodes, edges, nil
}
