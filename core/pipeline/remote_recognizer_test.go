package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/siherrmann/docgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnalyzeServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req["text"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRemoteRecognizer(t *testing.T) {
	ctx := context.Background()

	analysis := Analysis{
		Ents: []model.EntityMention{
			{Text: "Alice", Label: "PERSON", Start: 0, End: 5},
			{Text: "Paris", Label: "GPE", Start: 15, End: 20},
		},
		Sents: []model.Sentence{livesInSentence()},
	}

	t.Run("Recognize returns entities in order", func(t *testing.T) {
		server := newAnalyzeServer(t, http.StatusOK, analysis)
		recognizer := NewRemoteRecognizer(server.URL+"/", nil, time.Second)

		mentions, err := recognizer.Recognize(ctx, "Alice lives in Paris.")
		require.NoError(t, err)
		assert.Equal(t, analysis.Ents, mentions)
	})

	t.Run("Analyze returns sentences", func(t *testing.T) {
		server := newAnalyzeServer(t, http.StatusOK, analysis)
		recognizer := NewRemoteRecognizer(server.URL, server.Client(), 0)

		sentences, err := recognizer.Analyze(ctx, "Alice lives in Paris.")
		require.NoError(t, err)
		require.Len(t, sentences, 1)
		assert.Equal(t, livesInSentence(), sentences[0])

		relations, err := ExtractRelations(sentences)
		require.NoError(t, err)
		assert.Equal(t, []model.Relation{{Subject: "Alice", Predicate: "live", Object: "Paris"}}, relations)
	})

	t.Run("Recognize and Analyze share one request", func(t *testing.T) {
		var requests atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(analysis)
		}))
		t.Cleanup(server.Close)
		recognizer := NewRemoteRecognizer(server.URL, nil, time.Second)

		_, err := recognizer.Recognize(ctx, "Alice lives in Paris.")
		require.NoError(t, err)
		_, err = recognizer.Analyze(ctx, "Alice lives in Paris.")
		require.NoError(t, err)
		assert.Equal(t, int32(1), requests.Load())

		_, err = recognizer.Analyze(ctx, "Bob lives in Rome.")
		require.NoError(t, err)
		assert.Equal(t, int32(2), requests.Load(), "Expected a new request for other text")

		_, err = recognizer.Recognize(ctx, "Alice lives in Paris.")
		require.NoError(t, err)
		assert.Equal(t, int32(3), requests.Load(), "Expected the pending analysis to be taken only once")
	})

	t.Run("Empty text does not call the service", func(t *testing.T) {
		recognizer := NewRemoteRecognizer("http://127.0.0.1:1", nil, time.Second)

		mentions, err := recognizer.Recognize(ctx, " ")
		require.NoError(t, err)
		assert.Empty(t, mentions)

		sentences, err := recognizer.Analyze(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, sentences)
	})

	t.Run("Service error is a capability error", func(t *testing.T) {
		server := newAnalyzeServer(t, http.StatusServiceUnavailable, map[string]string{"error": "loading"})
		recognizer := NewRemoteRecognizer(server.URL, nil, time.Second)

		_, err := recognizer.Recognize(ctx, "Alice")
		assert.ErrorIs(t, err, model.ErrCapabilityUnavailable)
	})

	t.Run("Unreachable service is a capability error", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		recognizer := NewRemoteRecognizer(url, nil, time.Second)
		_, err := recognizer.Analyze(ctx, "Alice")
		assert.ErrorIs(t, err, model.ErrCapabilityUnavailable)
	})

	t.Run("Tokens without roles is a capability error", func(t *testing.T) {
		server := newAnalyzeServer(t, http.StatusOK, Analysis{
			Sents: []model.Sentence{{Tokens: []model.Token{{Text: "Alice"}}}},
		})
		recognizer := NewRemoteRecognizer(server.URL, nil, time.Second)

		_, err := recognizer.Analyze(ctx, "Alice")
		assert.ErrorIs(t, err, model.ErrCapabilityUnavailable)
	})
}
