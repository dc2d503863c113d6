package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
	loadSql "github.com/siherrmann/docgraph/sql"
)

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	UpsertEntity(ctx context.Context, entity *model.Entity) (model.UpsertOutcome, error)
	SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error)
	SelectEntitiesByKey(ctx context.Context, key string) ([]*model.Entity, error)
	SearchEntities(ctx context.Context, query string, limit int) ([]*model.Entity, error)
	CountEntities(ctx context.Context) (int, error)
	DeleteEntity(ctx context.Context, id uuid.UUID) error
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'entities' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities();`)
	if err != nil {
		return storeError("init entities table", err)
	}

	h.db.Logger.Info("Checked/created table entities")

	return nil
}

// UpsertEntity inserts the entity unless a node with the same key and label exists.
// The entity is filled with the stored row either way.
func (h *EntitiesDBHandler) UpsertEntity(ctx context.Context, entity *model.Entity) (model.UpsertOutcome, error) {
	metadata := entity.Metadata
	if metadata == nil {
		metadata = model.Metadata{}
	}

	var created bool
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_entity($1, $2, $3, $4)`,
		entity.Key,
		entity.Name,
		string(entity.Label),
		metadata,
	)

	err := row.Scan(
		&entity.ID,
		&entity.Key,
		&entity.Name,
		&entity.Label,
		&entity.Metadata,
		&entity.CreatedAt,
		&created,
	)
	if err != nil {
		return "", storeError("scan", err)
	}

	return outcome(created), nil
}

// SelectEntity retrieves an entity by ID. It returns nil if there is none.
func (h *EntitiesDBHandler) SelectEntity(ctx context.Context, id uuid.UUID) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_entity($1)`,
		id,
	)

	err := row.Scan(
		&entity.ID,
		&entity.Key,
		&entity.Name,
		&entity.Label,
		&entity.Metadata,
		&entity.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("scan", err)
	}

	return entity, nil
}

// SelectEntitiesByKey retrieves all nodes sharing a key, one per label.
func (h *EntitiesDBHandler) SelectEntitiesByKey(ctx context.Context, key string) ([]*model.Entity, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_entities_by_key($1)`,
		key,
	)
	if err != nil {
		return nil, storeError("query", err)
	}

	return scanEntities(rows)
}

// SearchEntities finds entities with a name similar to the query
func (h *EntitiesDBHandler) SearchEntities(ctx context.Context, query string, limit int) ([]*model.Entity, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM search_entities($1, $2)`,
		query,
		limit,
	)
	if err != nil {
		return nil, storeError("query", err)
	}

	return scanEntities(rows)
}

// CountEntities returns the number of graph nodes.
func (h *EntitiesDBHandler) CountEntities(ctx context.Context) (int, error) {
	var count int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_entities()`).Scan(&count)
	if err != nil {
		return 0, storeError("count entities", err)
	}
	return count, nil
}

// DeleteEntity deletes an entity and its edges by ID
func (h *EntitiesDBHandler) DeleteEntity(ctx context.Context, id uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_entity($1)`,
		id,
	)
	if err != nil {
		return storeError("exec", err)
	}
	return nil
}

func scanEntities(rows *sql.Rows) ([]*model.Entity, error) {
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity := &model.Entity{}
		err := rows.Scan(
			&entity.ID,
			&entity.Key,
			&entity.Name,
			&entity.Label,
			&entity.Metadata,
			&entity.CreatedAt,
		)
		if err != nil {
			return nil, storeError("scan", err)
		}

		entities = append(entities, entity)
	}

	err := rows.Err()
	if err != nil {
		return nil, storeError("rows error", err)
	}

	return entities, nil
}
