package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/docgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniquePath(name string) string {
	return "/docs/" + uuid.NewString() + "/" + name
}

func TestDocumentsNewDocumentsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewDocumentsDBHandler", func(t *testing.T) {
		documentsDbHandler, err := NewDocumentsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")
		require.NotNil(t, documentsDbHandler, "Expected NewDocumentsDBHandler to return a non-nil instance")
		require.NotNil(t, documentsDbHandler.db, "Expected NewDocumentsDBHandler to have a non-nil database instance")
		require.NotNil(t, documentsDbHandler.db.Instance, "Expected NewDocumentsDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewDocumentsDBHandler with nil database", func(t *testing.T) {
		_, err := NewDocumentsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating DocumentsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestDocumentsPut(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")

	t.Run("Put new document", func(t *testing.T) {
		doc := &model.IndexedDocument{
			Path:     uniquePath("a.pdf"),
			Content:  "Paris is the capital of France.",
			Entities: []model.EntityMention{{Text: "Paris", Label: "GPE"}, {Text: "France", Label: "GPE"}},
		}

		result, err := documentsDbHandler.PutDocument(ctx, doc)
		assert.NoError(t, err, "Expected PutDocument to not return an error")
		assert.Equal(t, model.UpsertCreated, result)
		assert.WithinDuration(t, time.Now(), doc.UpdatedAt, 5*time.Second, "Expected UpdatedAt to be set")
	})

	t.Run("Put same path replaces document", func(t *testing.T) {
		path := uniquePath("b.pdf")
		_, err := documentsDbHandler.PutDocument(ctx, &model.IndexedDocument{Path: path, Content: "first version"})
		require.NoError(t, err)

		result, err := documentsDbHandler.PutDocument(ctx, &model.IndexedDocument{
			Path:     path,
			Content:  "second version",
			Entities: []model.EntityMention{{Text: "Berlin", Label: "GPE"}},
		})
		require.NoError(t, err)
		assert.Equal(t, model.UpsertReplaced, result)

		stored, err := documentsDbHandler.SelectDocument(ctx, path)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "second version", stored.Content, "Expected last write to win")
		assert.Equal(t, []model.EntityMention{{Text: "Berlin", Label: "GPE"}}, stored.Entities)
	})

	t.Run("Put document without path", func(t *testing.T) {
		_, err := documentsDbHandler.PutDocument(ctx, &model.IndexedDocument{Content: "x"})
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})
}

func TestDocumentsSelect(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	t.Run("Select unknown path returns nil", func(t *testing.T) {
		doc, err := documentsDbHandler.SelectDocument(ctx, uniquePath("missing.pdf"))
		assert.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("Select document without entities returns empty list", func(t *testing.T) {
		path := uniquePath("empty.pdf")
		_, err := documentsDbHandler.PutDocument(ctx, &model.IndexedDocument{Path: path, Content: "nothing here"})
		require.NoError(t, err)

		doc, err := documentsDbHandler.SelectDocument(ctx, path)
		require.NoError(t, err)
		require.NotNil(t, doc)
		assert.Empty(t, doc.Entities)
		assert.NotNil(t, doc.Metadata)
	})
}

func TestDocumentsSearch(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	_, err = documentsDbHandler.EnsureIndex(ctx)
	require.NoError(t, err)

	marker := "zq" + uuid.NewString()[:8]
	paris := uniquePath("paris.pdf")
	berlin := uniquePath("berlin.pdf")
	other := uniquePath("other.pdf")

	_, err = documentsDbHandler.PutDocument(ctx, &model.IndexedDocument{
		Path:     paris,
		Content:  "Paris is the capital of France. The capital hosts " + marker + ".",
		Entities: []model.EntityMention{{Text: "Paris", Label: "GPE"}},
	})
	require.NoError(t, err)
	_, err = documentsDbHandler.PutDocument(ctx, &model.IndexedDocument{
		Path:     berlin,
		Content:  "Berlin is the capital of Germany " + marker + ".",
		Entities: []model.EntityMention{{Text: "Berlin", Label: "GPE"}},
	})
	require.NoError(t, err)
	_, err = documentsDbHandler.PutDocument(ctx, &model.IndexedDocument{
		Path:    other,
		Content: "Nothing relevant in here.",
	})
	require.NoError(t, err)

	t.Run("Search returns matching documents by score", func(t *testing.T) {
		hits, err := documentsDbHandler.Search(ctx, marker, 5)
		require.NoError(t, err)
		require.Len(t, hits, 2)

		paths := []string{hits[0].Path, hits[1].Path}
		assert.ElementsMatch(t, []string{paris, berlin}, paths)
		assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score, "Expected descending score")
		assert.NotContains(t, paths, other)
	})

	t.Run("Search matches entity text", func(t *testing.T) {
		entityMarker := "zq" + uuid.NewString()[:8]
		path := uniquePath("entity.pdf")
		_, err := documentsDbHandler.PutDocument(ctx, &model.IndexedDocument{
			Path:     path,
			Content:  "Plain content.",
			Entities: []model.EntityMention{{Text: entityMarker, Label: "ORG"}},
		})
		require.NoError(t, err)

		hits, err := documentsDbHandler.Search(ctx, entityMarker, 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, path, hits[0].Path)
	})

	t.Run("Search respects topK", func(t *testing.T) {
		hits, err := documentsDbHandler.Search(ctx, marker, 1)
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})

	t.Run("Search with only stop words returns nothing", func(t *testing.T) {
		hits, err := documentsDbHandler.Search(ctx, "the of", 10)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

func TestDocumentsCount(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	before, err := documentsDbHandler.CountDocuments(ctx)
	require.NoError(t, err)

	path := uniquePath("count.pdf")
	for i := 0; i < 3; i++ {
		_, err = documentsDbHandler.PutDocument(ctx, &model.IndexedDocument{Path: path, Content: "same path"})
		require.NoError(t, err)
	}

	after, err := documentsDbHandler.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after, "Expected one document per path")
}
