// Package neo4j stores the knowledge graph in Neo4j.
//
// Nodes are (:Entity {key, label}) with an id and a display name set on creation.
// Edges are [:REL {type}] between existing nodes. Both are written with MERGE.
package neo4j

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
)

// Config configures the Neo4j driver.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Store is the Neo4j graph store.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// New creates the driver and verifies connectivity.
func New(ctx context.Context, config Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	driver, err := neo4j.NewDriverWithContext(config.URI, neo4j.BasicAuth(config.Username, config.Password, ""))
	if err != nil {
		return nil, helper.NewError("create neo4j driver", err)
	}

	err = driver.VerifyConnectivity(ctx)
	if err != nil {
		_ = driver.Close(ctx)
		return nil, helper.NewError("verify neo4j connectivity", fmt.Errorf("%w: %w", model.ErrStore, err))
	}

	s := &Store{
		driver:   driver,
		database: config.Database,
		logger:   logger,
	}

	err = s.ensureConstraint(ctx)
	if err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}

	logger.Info("Connected to graph database", slog.String("uri", config.URI))
	return s, nil
}

// Close closes the driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) execute(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	return neo4j.ExecuteQuery(
		ctx,
		s.driver,
		query,
		params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
	)
}

func (s *Store) ensureConstraint(ctx context.Context) error {
	_, err := s.execute(ctx, `CREATE CONSTRAINT entity_key_label IF NOT EXISTS FOR (e:Entity) REQUIRE (e.key, e.label) IS UNIQUE`, nil)
	if err != nil {
		return storeError("create constraint", err)
	}
	return nil
}

// UpsertNode merges the node keyed by (key, label).
func (s *Store) UpsertNode(ctx context.Context, entity model.CanonicalEntity) (model.UpsertOutcome, error) {
	name := entity.Name
	if name == "" {
		name = entity.Key
	}

	result, err := s.execute(ctx, `
		MERGE (e:Entity {key: $key, label: $label})
		ON CREATE SET e.id = $id, e.name = $name, e.created_at = $created_at`,
		map[string]any{
			"key":        entity.Key,
			"label":      string(entity.Label),
			"id":         uuid.NewString(),
			"name":       name,
			"created_at": time.Now().UTC(),
		},
	)
	if err != nil {
		return "", storeError("merge node", err)
	}

	if result.Summary.Counters().NodesCreated() > 0 {
		return model.UpsertCreated, nil
	}
	return model.UpsertUnchanged, nil
}

// UpsertEdge merges the typed edge between the existing endpoint nodes.
func (s *Store) UpsertEdge(ctx context.Context, relation model.CanonicalRelation) (model.UpsertOutcome, error) {
	result, err := s.execute(ctx, `
		OPTIONAL MATCH (s:Entity {key: $subject_key, label: $subject_label})
		OPTIONAL MATCH (o:Entity {key: $object_key, label: $object_label})
		CALL {
			WITH s, o
			WITH s, o WHERE s IS NOT NULL AND o IS NOT NULL
			MERGE (s)-[r:REL {type: $predicate}]->(o)
			ON CREATE SET r.id = $id, r.created_at = $created_at
			RETURN count(r) AS merged
		}
		RETURN s IS NOT NULL AS has_subject, o IS NOT NULL AS has_object`,
		map[string]any{
			"subject_key":   relation.SubjectKey,
			"subject_label": string(relation.SubjectLabel),
			"object_key":    relation.ObjectKey,
			"object_label":  string(relation.ObjectLabel),
			"predicate":     relation.Predicate,
			"id":            uuid.NewString(),
			"created_at":    time.Now().UTC(),
		},
	)
	if err != nil {
		return "", storeError("merge edge", err)
	}

	if len(result.Records) == 0 {
		return "", helper.NewError("merge edge", fmt.Errorf("%w: no endpoint match for %s", model.ErrConsistencyViolation, relation.SubjectKey))
	}
	record := result.Records[0]
	hasSubject, _, err := neo4j.GetRecordValue[bool](record, "has_subject")
	if err != nil {
		return "", storeError("read edge result", err)
	}
	hasObject, _, err := neo4j.GetRecordValue[bool](record, "has_object")
	if err != nil {
		return "", storeError("read edge result", err)
	}
	if !hasSubject || !hasObject {
		return "", helper.NewError("merge edge", fmt.Errorf(
			"%w: edge (%s)-[%s]->(%s) references a missing node",
			model.ErrConsistencyViolation, relation.SubjectKey, relation.Predicate, relation.ObjectKey,
		))
	}

	if result.Summary.Counters().RelationshipsCreated() > 0 {
		return model.UpsertCreated, nil
	}
	return model.UpsertUnchanged, nil
}

const entityFields = `e.id AS id, e.key AS key, e.name AS name, e.label AS label, e.created_at AS created_at`

// GetEntity returns the node with the given id, or nil.
func (s *Store) GetEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	result, err := s.execute(ctx, `MATCH (e:Entity {id: $id}) RETURN `+entityFields, map[string]any{"id": id.String()})
	if err != nil {
		return nil, storeError("match entity", err)
	}
	if len(result.Records) == 0 {
		return nil, nil
	}
	return entityFromRecord(result.Records[0])
}

// GetEntitiesByKey returns all nodes with the key, ordered by label.
func (s *Store) GetEntitiesByKey(ctx context.Context, key string) ([]*model.Entity, error) {
	result, err := s.execute(ctx, `MATCH (e:Entity {key: $key}) RETURN `+entityFields+` ORDER BY e.label`, map[string]any{"key": key})
	if err != nil {
		return nil, storeError("match entities", err)
	}

	entities := make([]*model.Entity, 0, len(result.Records))
	for _, record := range result.Records {
		entity, err := entityFromRecord(record)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// GetEdgesOfEntity returns the edges touching the entity, filtered by predicate.
func (s *Store) GetEdgesOfEntity(ctx context.Context, id uuid.UUID, predicates []string, followBidirectional bool) ([]*model.EdgeConnection, error) {
	pattern := `(e:Entity {id: $id})-[r:REL]->(other:Entity)`
	if followBidirectional {
		pattern = `(e:Entity {id: $id})-[r:REL]-(other:Entity)`
	}

	result, err := s.execute(ctx, `
		MATCH `+pattern+`
		WHERE size($predicates) = 0 OR r.type IN $predicates
		RETURN r.id AS id, startNode(r).id AS source, endNode(r).id AS target, r.type AS predicate, r.created_at AS created_at
		ORDER BY r.created_at`,
		map[string]any{"id": id.String(), "predicates": stringsOrEmpty(predicates)},
	)
	if err != nil {
		return nil, storeError("match edges", err)
	}

	connections := make([]*model.EdgeConnection, 0, len(result.Records))
	for _, record := range result.Records {
		edge := &model.Edge{Metadata: model.Metadata{}}

		edge.ID, err = uuidValue(record, "id")
		if err != nil {
			return nil, err
		}
		edge.SourceEntityID, err = uuidValue(record, "source")
		if err != nil {
			return nil, err
		}
		edge.TargetEntityID, err = uuidValue(record, "target")
		if err != nil {
			return nil, err
		}
		edge.Predicate, _, err = neo4j.GetRecordValue[string](record, "predicate")
		if err != nil {
			return nil, storeError("read edge", err)
		}
		edge.CreatedAt, _, err = neo4j.GetRecordValue[time.Time](record, "created_at")
		if err != nil {
			return nil, storeError("read edge", err)
		}

		connections = append(connections, &model.EdgeConnection{
			Edge:       edge,
			IsOutgoing: edge.SourceEntityID == id,
		})
	}
	return connections, nil
}

// Counts returns the number of nodes and edges.
func (s *Store) Counts(ctx context.Context) (int, int, error) {
	result, err := s.execute(ctx, `
		CALL { MATCH (e:Entity) RETURN count(e) AS nodes }
		CALL { MATCH ()-[r:REL]->() RETURN count(r) AS edges }
		RETURN nodes, edges`, nil)
	if err != nil {
		return 0, 0, storeError("count graph", err)
	}
	if len(result.Records) == 0 {
		return 0, 0, nil
	}

	nodes, _, err := neo4j.GetRecordValue[int64](result.Records[0], "nodes")
	if err != nil {
		return 0, 0, storeError("read counts", err)
	}
	edges, _, err := neo4j.GetRecordValue[int64](result.Records[0], "edges")
	if err != nil {
		return 0, 0, storeError("read counts", err)
	}
	return int(nodes), int(edges), nil
}

func entityFromRecord(record *neo4j.Record) (*model.Entity, error) {
	entity := &model.Entity{Metadata: model.Metadata{}}

	var err error
	entity.ID, err = uuidValue(record, "id")
	if err != nil {
		return nil, err
	}
	entity.Key, _, err = neo4j.GetRecordValue[string](record, "key")
	if err != nil {
		return nil, storeError("read entity", err)
	}
	entity.Name, _, err = neo4j.GetRecordValue[string](record, "name")
	if err != nil {
		return nil, storeError("read entity", err)
	}
	label, _, err := neo4j.GetRecordValue[string](record, "label")
	if err != nil {
		return nil, storeError("read entity", err)
	}
	entity.Label = model.EntityType(label)
	entity.CreatedAt, _, err = neo4j.GetRecordValue[time.Time](record, "created_at")
	if err != nil {
		return nil, storeError("read entity", err)
	}
	return entity, nil
}

func uuidValue(record *neo4j.Record, key string) (uuid.UUID, error) {
	value, _, err := neo4j.GetRecordValue[string](record, key)
	if err != nil {
		return uuid.Nil, storeError("read "+key, err)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, storeError("parse "+key, err)
	}
	return id, nil
}

func stringsOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func storeError(action string, err error) error {
	return helper.NewError(action, fmt.Errorf("%w: %w", model.ErrStore, err))
}
