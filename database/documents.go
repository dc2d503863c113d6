package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
	loadSql "github.com/siherrmann/docgraph/sql"
)

// DocumentsDBHandler handles the full-text search view of ingested documents.
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It initializes the database connection and loads document-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := loadSql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table in the database.
// If the table already exists, it does not create it again.
// The search index itself is created by EnsureIndex.
func (h *DocumentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents();`)
	if err != nil {
		return storeError("init documents table", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// PutDocument writes the document keyed by its path, replacing any earlier version.
func (h *DocumentsDBHandler) PutDocument(ctx context.Context, doc *model.IndexedDocument) (model.UpsertOutcome, error) {
	if doc == nil || doc.Path == "" {
		return "", helper.NewError("put document", fmt.Errorf("%w: document path is empty", model.ErrInvalidInput))
	}

	entities := doc.Entities
	if entities == nil {
		entities = []model.EntityMention{}
	}
	entitiesJSON, err := json.Marshal(entities)
	if err != nil {
		return "", helper.NewError("marshal entities", err)
	}

	metadata := doc.Metadata
	if metadata == nil {
		metadata = model.Metadata{}
	}

	var created bool
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM put_document($1, $2, $3, $4, $5)`,
		doc.Path,
		doc.Content,
		string(entitiesJSON),
		entityText(entities),
		metadata,
	)
	err = row.Scan(
		&created,
		&doc.UpdatedAt,
	)
	if err != nil {
		return "", storeError("put document", err)
	}

	if created {
		return model.UpsertCreated, nil
	}
	return model.UpsertReplaced, nil
}

// SelectDocument retrieves the indexed document stored under path.
func (h *DocumentsDBHandler) SelectDocument(ctx context.Context, path string) (*model.IndexedDocument, error) {
	doc := &model.IndexedDocument{}
	var entitiesJSON []byte

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_document($1)`,
		path,
	)
	err := row.Scan(
		&doc.Path,
		&doc.Content,
		&entitiesJSON,
		&doc.Metadata,
		&doc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storeError("scan", err)
	}

	err = json.Unmarshal(entitiesJSON, &doc.Entities)
	if err != nil {
		return nil, helper.NewError("unmarshal entities", err)
	}

	return doc, nil
}

// Search matches the query against content and entity text and returns
// at most topK hits in descending score order.
func (h *DocumentsDBHandler) Search(ctx context.Context, query string, topK int) ([]model.SearchHit, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM search_documents($1, $2)`,
		query,
		topK,
	)
	if err != nil {
		return nil, storeError("query", err)
	}
	defer rows.Close()

	hits := []model.SearchHit{}
	for rows.Next() {
		hit := model.SearchHit{}
		err := rows.Scan(
			&hit.Path,
			&hit.Score,
		)
		if err != nil {
			return nil, storeError("scan", err)
		}

		hits = append(hits, hit)
	}

	err = rows.Err()
	if err != nil {
		return nil, storeError("rows error", err)
	}

	return hits, nil
}

// CountDocuments returns the number of indexed documents.
func (h *DocumentsDBHandler) CountDocuments(ctx context.Context) (int, error) {
	var count int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_documents()`).Scan(&count)
	if err != nil {
		return 0, storeError("count documents", err)
	}
	return count, nil
}

// entityText flattens mention texts into the searchable entity field.
func entityText(entities []model.EntityMention) string {
	texts := make([]string, 0, len(entities))
	for _, e := range entities {
		texts = append(texts, e.Text)
	}
	return strings.Join(texts, " ")
}
