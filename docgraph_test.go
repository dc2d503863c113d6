package docgraph

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/docgraph/core/ingest"
	"github.com/siherrmann/docgraph/core/pipeline"
	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
	"github.com/siherrmann/docgraph/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliceText = "Alice lives in Paris."

// aliceAnalysis is what a spaCy-style service returns for aliceText.
func aliceAnalysis(alice string, paris string) pipeline.Analysis {
	return pipeline.Analysis{
		Ents: []model.EntityMention{
			{Text: alice, Label: "PERSON", Start: 0, End: 5},
			{Text: paris, Label: "GPE", Start: 15, End: 20},
		},
		Sents: []model.Sentence{{Tokens: []model.Token{
			{Index: 0, Text: alice, Lemma: alice, Dep: model.DepNominalSubject, Head: 1},
			{Index: 1, Text: "lives", Lemma: "live", Dep: model.DepRoot, Head: 1, Lefts: []int{0}, Rights: []int{2, 4}},
			{Index: 2, Text: "in", Lemma: "in", Dep: model.DepPreposition, Head: 1, Rights: []int{3}},
			{Index: 3, Text: paris, Lemma: paris, Dep: model.DepPrepositionalObj, Head: 2},
			{Index: 4, Text: ".", Lemma: ".", Dep: "punct", Head: 1},
		}}},
	}
}

func newAnalyzeServer(t *testing.T, analysis pipeline.Analysis) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(analysis)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewWithMemoryBackends(t *testing.T) {
	ctx := context.Background()
	server := newAnalyzeServer(t, aliceAnalysis("Alice", "Paris"))

	config := DefaultConfig()
	config.SearchBackend = BackendMemory
	config.GraphBackend = BackendMemory
	config.RecognizerURL = server.URL
	config.LogOutput = io.Discard

	d, err := New(ctx, config)
	require.NoError(t, err, "Expected New to succeed with memory backends")
	t.Cleanup(func() { _ = d.Close(ctx) })
	assert.Nil(t, d.DB, "Expected no database without postgres backend")

	t.Run("Ingest, search and related", func(t *testing.T) {
		result, err := d.Ingest(ctx, "alice.txt", []byte(aliceText))
		require.NoError(t, err)
		assert.Equal(t, 2, result.EntityCount)
		assert.Equal(t, 1, result.RelationCount)

		hits, err := d.Search(ctx, "paris", 5)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "alice.txt", hits[0].Path)

		related, err := d.Related(ctx, "Alice", nil)
		require.NoError(t, err)
		require.Len(t, related, 1)
		assert.Equal(t, "paris", related[0].Entity.Key)
	})

	t.Run("Ingest file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.md")
		require.NoError(t, os.WriteFile(path, []byte(aliceText), 0o600))

		result, err := d.IngestFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, path, result.Path)

		_, err = d.IngestFile(ctx, filepath.Join(t.TempDir(), "missing.md"))
		assert.Error(t, err)
	})

	t.Run("Unsupported file is rejected before reading", func(t *testing.T) {
		_, err := d.IngestFile(ctx, filepath.Join(t.TempDir(), "missing.docx"))
		assert.ErrorIs(t, err, model.ErrUnsupportedFormat)
		assert.NotErrorIs(t, err, os.ErrNotExist)
	})
}

func TestNewInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.SearchBackend = "unknown"

	_, err := New(context.Background(), config)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestNewUnreachableDatabase(t *testing.T) {
	config := DefaultConfig()
	config.Database = &helper.DatabaseConfiguration{
		Host:     "127.0.0.1",
		Port:     "1",
		Database: "docgraph",
		Username: "docgraph",
		Password: "docgraph",
		Schema:   "public",
		SSLMode:  "disable",
	}
	config.LogOutput = io.Discard

	_, err := New(context.Background(), config)
	assert.ErrorIs(t, err, model.ErrStore, "Expected a store error instead of a panic")
}

func TestNewWithStores(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	recognizer := &pipeline.StaticRecognizer{
		Mentions: []model.EntityMention{
			{Text: "Paris", Label: "GPE"},
			{Text: "paris", Label: "GPE"},
			{Text: "France", Label: "GPE"},
		},
	}
	d := NewWithStores(pipeline.NewExtractorRegistry(), recognizer, store, store, nil)

	t.Run("Capital example", func(t *testing.T) {
		result, err := d.Ingest(ctx, "france.txt", []byte("Paris is the capital of France"))
		require.NoError(t, err)
		assert.Equal(t, 2, result.EntityCount)

		hits, err := d.Search(ctx, "capital", 5)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "france.txt", hits[0].Path)
		assert.Greater(t, hits[0].Score, 0.0)
	})

	t.Run("Double ingestion is idempotent", func(t *testing.T) {
		_, err := d.Ingest(ctx, "france.txt", []byte("Paris is the capital of France"))
		require.NoError(t, err)

		nodes, edges, err := store.Counts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, nodes)
		assert.Equal(t, 0, edges)
		assert.Equal(t, 1, store.DocumentCount())
	})

	t.Run("Stage error names the state", func(t *testing.T) {
		_, err := d.Ingest(ctx, "scan.bin", []byte{0xff, 0xfe, 0x00})
		var stageErr *ingest.StageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, ingest.StateReceived, stageErr.State)
		assert.ErrorIs(t, err, model.ErrUnsupportedFormat)
	})

	t.Run("Zero topK", func(t *testing.T) {
		before := store.SearchCalls()
		_, err := d.Search(ctx, "capital", 0)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
		assert.Equal(t, before, store.SearchCalls())
	})

	t.Run("Close runs registered closers in reverse order", func(t *testing.T) {
		var order []string
		d.OnClose(func(context.Context) error { order = append(order, "first"); return nil })
		d.OnClose(func(context.Context) error { order = append(order, "second"); return nil })

		assert.NoError(t, d.Close(ctx))
		assert.Equal(t, []string{"second", "first"}, order)
		assert.NoError(t, d.Close(ctx), "Expected a second close to do nothing")
	})
}

func TestPostgresBackends(t *testing.T) {
	ctx := context.Background()

	// Unique names keep this test independent of other data in the shared container.
	suffix := uuid.NewString()[:8]
	alice := "Alice" + suffix
	paris := "Paris" + suffix
	server := newAnalyzeServer(t, aliceAnalysis(alice, paris))

	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	config := DefaultConfig()
	config.Database = dbConfig
	config.RecognizerURL = server.URL
	config.LogOutput = io.Discard

	d, err := New(ctx, config)
	require.NoError(t, err, "failed to create docgraph")
	t.Cleanup(func() { _ = d.Close(ctx) })
	require.NotNil(t, d.DB)

	path := "postgres-" + suffix + ".txt"
	text := alice + " lives in " + paris + "."

	t.Run("Double ingestion is idempotent", func(t *testing.T) {
		first, err := d.Ingest(ctx, path, []byte(text))
		require.NoError(t, err)
		assert.Equal(t, model.GraphSummary{NodesCreated: 2, EdgesCreated: 1}, first.Graph)

		second, err := d.Ingest(ctx, path, []byte(text))
		require.NoError(t, err)
		assert.Equal(t, model.GraphSummary{NodesUnchanged: 2, EdgesUnchanged: 1}, second.Graph)
	})

	t.Run("Search finds the document by entity", func(t *testing.T) {
		hits, err := d.Search(ctx, paris, 5)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, path, hits[0].Path)
	})

	t.Run("Related uses the database traversal", func(t *testing.T) {
		related, err := d.Related(ctx, paris, nil)
		require.NoError(t, err)
		require.Len(t, related, 1)
		assert.Equal(t, model.EntityKey(alice), related[0].Entity.Key)
	})

	t.Run("Related falls back to a similar name", func(t *testing.T) {
		related, err := d.Related(ctx, paris+"s", nil)
		require.NoError(t, err)
		require.Len(t, related, 1)
		assert.Equal(t, model.EntityKey(alice), related[0].Entity.Key)
	})
}
