package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
	loadSql "github.com/siherrmann/docgraph/sql"
)

// EdgesDBHandlerFunctions defines the interface for Edges database operations.
type EdgesDBHandlerFunctions interface {
	UpsertEdge(ctx context.Context, relation model.CanonicalRelation, metadata model.Metadata) (*model.Edge, model.UpsertOutcome, error)
	SelectEdge(ctx context.Context, id uuid.UUID) (*model.Edge, error)
	SelectEdgesConnectedToEntity(ctx context.Context, entityID uuid.UUID, predicate *string) ([]*model.EdgeConnection, error)
	TraverseBFSFromEntity(ctx context.Context, startID uuid.UUID, maxDepth int, predicate *string) ([]*model.TraversalNode, error)
	CountEdges(ctx context.Context) (int, error)
}

// EdgesDBHandler handles edge-related database operations
type EdgesDBHandler struct {
	db *helper.Database
}

// NewEdgesDBHandler creates a new edges database handler.
// It initializes the database connection and loads edge-related SQL functions.
// The entities table has to exist, so create the EntitiesDBHandler first.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEdgesDBHandler(db *helper.Database, force bool) (*EdgesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	edgesDbHandler := &EdgesDBHandler{
		db: db,
	}

	err := loadSql.LoadEdgesSql(edgesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load edges sql", err)
	}

	err = edgesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EdgesDBHandler")

	return edgesDbHandler, nil
}

// CreateTable creates the 'edges' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *EdgesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_edges();`)
	if err != nil {
		return storeError("init edges table", err)
	}

	h.db.Logger.Info("Checked/created table edges")

	return nil
}

// UpsertEdge connects the subject and object nodes of the relation.
// Both endpoints have to exist, otherwise the error matches model.ErrConsistencyViolation.
func (h *EdgesDBHandler) UpsertEdge(ctx context.Context, relation model.CanonicalRelation, metadata model.Metadata) (*model.Edge, model.UpsertOutcome, error) {
	if metadata == nil {
		metadata = model.Metadata{}
	}

	edge := &model.Edge{}
	var created bool
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_edge($1, $2, $3, $4, $5, $6)`,
		relation.SubjectKey,
		string(relation.SubjectLabel),
		relation.Predicate,
		relation.ObjectKey,
		string(relation.ObjectLabel),
		metadata,
	)

	err := row.Scan(
		&edge.ID,
		&edge.SourceEntityID,
		&edge.TargetEntityID,
		&edge.Predicate,
		&edge.Metadata,
		&edge.CreatedAt,
		&created,
	)
	if err != nil {
		return nil, "", storeError("upsert edge", err)
	}

	return edge, outcome(created), nil
}

// SelectEdge retrieves an edge by ID. It returns nil if there is none.
func (h *EdgesDBHandler) SelectEdge(ctx context.Context, id uuid.UUID) (*model.Edge, error) {
	edge := &model.Edge{}
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_edge($1)`,
		id,
	)

	err := row.Scan(
		&edge.ID,
		&edge.SourceEntityID,
		&edge.TargetEntityID,
		&edge.Predicate,
		&edge.Metadata,
		&edge.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("scan", err)
	}

	return edge, nil
}

// SelectEdgesConnectedToEntity retrieves all edges that start or end at the entity.
// A nil predicate selects every predicate.
func (h *EdgesDBHandler) SelectEdgesConnectedToEntity(ctx context.Context, entityID uuid.UUID, predicate *string) ([]*model.EdgeConnection, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_edges_connected_to_entity($1, $2)`,
		entityID,
		predicate,
	)
	if err != nil {
		return nil, storeError("query", err)
	}
	defer rows.Close()

	var connections []*model.EdgeConnection
	for rows.Next() {
		edge := &model.Edge{}
		connection := &model.EdgeConnection{Edge: edge}
		err := rows.Scan(
			&edge.ID,
			&edge.SourceEntityID,
			&edge.TargetEntityID,
			&edge.Predicate,
			&edge.Metadata,
			&edge.CreatedAt,
			&connection.IsOutgoing,
		)
		if err != nil {
			return nil, storeError("scan", err)
		}

		connections = append(connections, connection)
	}

	err = rows.Err()
	if err != nil {
		return nil, storeError("rows error", err)
	}

	return connections, nil
}

// TraverseBFSFromEntity walks the graph in both directions from a start entity
// and returns every reached entity once, at its smallest depth.
func (h *EdgesDBHandler) TraverseBFSFromEntity(ctx context.Context, startID uuid.UUID, maxDepth int, predicate *string) ([]*model.TraversalNode, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM traverse_bfs_from_entity($1, $2, $3)`,
		startID,
		maxDepth,
		predicate,
	)
	if err != nil {
		return nil, storeError("query", err)
	}
	defer rows.Close()

	var nodes []*model.TraversalNode
	for rows.Next() {
		node := &model.TraversalNode{}
		var path []string
		err := rows.Scan(
			&node.EntityID,
			&node.Depth,
			pq.Array(&path),
		)
		if err != nil {
			return nil, storeError("scan", err)
		}

		node.Path, err = parseUUIDs(path)
		if err != nil {
			return nil, helper.NewError("parsing path array", err)
		}

		nodes = append(nodes, node)
	}

	err = rows.Err()
	if err != nil {
		return nil, storeError("rows error", err)
	}

	return nodes, nil
}

// CountEdges returns the number of graph edges.
func (h *EdgesDBHandler) CountEdges(ctx context.Context) (int, error) {
	var count int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_edges()`).Scan(&count)
	if err != nil {
		return 0, storeError("count edges", err)
	}
	return count, nil
}

func parseUUIDs(values []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, helper.NewError(fmt.Sprintf("parsing UUID %s", v), err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
