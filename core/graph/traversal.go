package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
)

// GraphDB defines the read operations the traversals need from a graph store.
// GetEntity returns nil without error for an unknown id.
type GraphDB interface {
	GetEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error)
	GetEntitiesByKey(ctx context.Context, key string) ([]*model.Entity, error)
	GetEdgesOfEntity(ctx context.Context, id uuid.UUID, predicates []string, followBidirectional bool) ([]*model.EdgeConnection, error)
}

// NativeTraverser is implemented by stores that walk the graph themselves.
// The walk always follows edges in both directions.
type NativeTraverser interface {
	TraverseFromEntity(ctx context.Context, startID uuid.UUID, maxHops int, predicates []string) ([]*model.TraversalNode, error)
}

// EntitySearcher is implemented by stores that find entities by a similar name.
// Related uses it when no entity has the exact key.
type EntitySearcher interface {
	SearchEntities(ctx context.Context, query string, limit int) ([]*model.Entity, error)
}

// neighborOf returns the entity on the other end of the connection.
func neighborOf(conn *model.EdgeConnection) uuid.UUID {
	if conn.IsOutgoing {
		return conn.Edge.TargetEntityID
	}
	return conn.Edge.SourceEntityID
}

func extendPath(path []uuid.UUID, id uuid.UUID) []uuid.UUID {
	newPath := make([]uuid.UUID, len(path), len(path)+1)
	copy(newPath, path)
	return append(newPath, id)
}

// closestEntities returns all entities sharing the key of the most similar match.
func closestEntities(ctx context.Context, db GraphDB, searcher EntitySearcher, name string) ([]*model.Entity, error) {
	matches, err := searcher.SearchEntities(ctx, name, 1)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return db.GetEntitiesByKey(ctx, matches[0].Key)
}

// BFS performs breadth-first search from a source entity.
// Every reached entity is returned once, at its smallest depth.
func BFS(ctx context.Context, db GraphDB, sourceID uuid.UUID, maxHops int, predicates []string, followBidirectional bool) ([]*model.TraversalNode, error) {
	source, err := db.GetEntity(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return []*model.TraversalNode{}, nil
	}

	visited := map[uuid.UUID]bool{sourceID: true}
	queue := []*model.TraversalNode{{
		EntityID: sourceID,
		Entity:   source,
		Depth:    0,
		Path:     []uuid.UUID{sourceID},
	}}

	var results []*model.TraversalNode
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		results = append(results, current)

		if current.Depth >= maxHops {
			continue
		}

		connections, err := db.GetEdgesOfEntity(ctx, current.EntityID, predicates, followBidirectional)
		if err != nil {
			return nil, err
		}

		for _, conn := range connections {
			targetID := neighborOf(conn)
			if visited[targetID] {
				continue
			}

			target, err := db.GetEntity(ctx, targetID)
			if err != nil {
				return nil, err
			}
			if target == nil {
				continue
			}

			visited[targetID] = true
			queue = append(queue, &model.TraversalNode{
				EntityID: targetID,
				Entity:   target,
				Depth:    current.Depth + 1,
				Path:     extendPath(current.Path, targetID),
			})
		}
	}

	return results, nil
}

// DFS performs depth-first search from a source entity.
func DFS(ctx context.Context, db GraphDB, sourceID uuid.UUID, maxHops int, predicates []string, followBidirectional bool) ([]*model.TraversalNode, error) {
	source, err := db.GetEntity(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return []*model.TraversalNode{}, nil
	}

	var results []*model.TraversalNode
	err = dfsRecursive(ctx, db, source, 0, maxHops, []uuid.UUID{sourceID}, predicates, followBidirectional, map[uuid.UUID]bool{}, &results)
	if err != nil {
		return nil, err
	}

	return results, nil
}

func dfsRecursive(
	ctx context.Context,
	db GraphDB,
	current *model.Entity,
	depth int,
	maxHops int,
	path []uuid.UUID,
	predicates []string,
	followBidirectional bool,
	visited map[uuid.UUID]bool,
	results *[]*model.TraversalNode,
) error {
	visited[current.ID] = true
	*results = append(*results, &model.TraversalNode{
		EntityID: current.ID,
		Entity:   current,
		Depth:    depth,
		Path:     path,
	})

	if depth >= maxHops {
		return nil
	}

	connections, err := db.GetEdgesOfEntity(ctx, current.ID, predicates, followBidirectional)
	if err != nil {
		return err
	}

	for _, conn := range connections {
		targetID := neighborOf(conn)
		if visited[targetID] {
			continue
		}

		target, err := db.GetEntity(ctx, targetID)
		if err != nil {
			return err
		}
		if target == nil {
			continue
		}

		err = dfsRecursive(ctx, db, target, depth+1, maxHops, extendPath(path, targetID), predicates, followBidirectional, visited, results)
		if err != nil {
			return err
		}
	}

	return nil
}

// GetNeighbors retrieves the immediate neighbors of an entity.
func GetNeighbors(ctx context.Context, db GraphDB, entityID uuid.UUID, predicates []string, followBidirectional bool) ([]*model.Entity, error) {
	results, err := BFS(ctx, db, entityID, 1, predicates, followBidirectional)
	if err != nil {
		return nil, err
	}

	neighbors := []*model.Entity{}
	for _, r := range results {
		if r.Depth > 0 {
			neighbors = append(neighbors, r.Entity)
		}
	}
	return neighbors, nil
}

// Related returns the entities reachable from every entity whose key matches name.
// The start entities themselves are not part of the result. Results are ordered
// by depth, then by key, and cut at config.MaxResults. An unknown name yields an
// empty result.
//
// Stores implementing NativeTraverser walk the graph themselves when the config
// follows both directions and filters on at most one predicate.
func Related(ctx context.Context, db GraphDB, name string, config *model.QueryConfig) ([]*model.TraversalNode, error) {
	if config == nil {
		defaults := model.DefaultQueryConfig()
		config = &defaults
	}

	key := model.EntityKey(name)
	if key == "" {
		return nil, helper.NewError("related", fmt.Errorf("%w: entity name is empty", model.ErrInvalidInput))
	}
	if config.MaxHops < 1 {
		return nil, helper.NewError("related", fmt.Errorf("%w: max hops must be positive, got %d", model.ErrInvalidInput, config.MaxHops))
	}

	starts, err := db.GetEntitiesByKey(ctx, key)
	if err != nil {
		return nil, helper.NewError("related", err)
	}
	if searcher, ok := db.(EntitySearcher); ok && len(starts) == 0 {
		starts, err = closestEntities(ctx, db, searcher, name)
		if err != nil {
			return nil, helper.NewError("related", err)
		}
	}

	native, useNative := db.(NativeTraverser)
	useNative = useNative && config.FollowBidirectional && len(config.Predicates) <= 1

	isStart := map[uuid.UUID]bool{}
	for _, s := range starts {
		isStart[s.ID] = true
	}

	best := map[uuid.UUID]*model.TraversalNode{}
	for _, start := range starts {
		var nodes []*model.TraversalNode
		if useNative {
			nodes, err = native.TraverseFromEntity(ctx, start.ID, config.MaxHops, config.Predicates)
		} else {
			nodes, err = BFS(ctx, db, start.ID, config.MaxHops, config.Predicates, config.FollowBidirectional)
		}
		if err != nil {
			return nil, helper.NewError("traverse", err)
		}

		for _, n := range nodes {
			if isStart[n.EntityID] || n.Entity == nil {
				continue
			}
			if prev, ok := best[n.EntityID]; !ok || n.Depth < prev.Depth {
				best[n.EntityID] = n
			}
		}
	}

	related := make([]*model.TraversalNode, 0, len(best))
	for _, n := range best {
		related = append(related, n)
	}
	sort.Slice(related, func(i, j int) bool {
		if related[i].Depth != related[j].Depth {
			return related[i].Depth < related[j].Depth
		}
		if related[i].Entity.Key != related[j].Entity.Key {
			return related[i].Entity.Key < related[j].Entity.Key
		}
		return related[i].Entity.Label < related[j].Entity.Label
	})

	if config.MaxResults > 0 && len(related) > config.MaxResults {
		related = related[:config.MaxResults]
	}
	return related, nil
}
