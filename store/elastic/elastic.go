// Package elastic stores the search view in an Elasticsearch index.
package elastic

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
)

// DefaultIndex is the index name used when the config leaves it empty.
const DefaultIndex = "documents"

// Config configures the Elasticsearch client.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
	// Refresh makes every write wait until it is visible to search.
	Refresh bool
	// Transport overrides the HTTP transport, e.g. in tests.
	Transport http.RoundTripper
}

// Store is the Elasticsearch search store. Documents are indexed under an id
// derived from their path, so a second write of the same path replaces the first.
type Store struct {
	client  *elasticsearch.Client
	index   string
	refresh bool
	logger  *slog.Logger
}

// indexMapping analyzes content and entity text with the english analyzer and
// keeps the path as an exact keyword.
const indexMapping = `{
  "mappings": {
    "properties": {
      "path": {"type": "keyword"},
      "content": {"type": "text", "analyzer": "english"},
      "entities": {
        "type": "nested",
        "properties": {
          "text": {"type": "text", "analyzer": "english"},
          "label": {"type": "keyword"}
        }
      },
      "updated_at": {"type": "date"}
    }
  }
}`

type document struct {
	Path      string         `json:"path"`
	Content   string         `json:"content"`
	Entities  []entityFields `json:"entities"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type entityFields struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// New creates the client. It does not contact the cluster.
func New(config Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	index := config.Index
	if index == "" {
		index = DefaultIndex
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
		Transport: config.Transport,
	})
	if err != nil {
		return nil, helper.NewError("create elasticsearch client", err)
	}

	return &Store{
		client:  client,
		index:   index,
		refresh: config.Refresh,
		logger:  logger,
	}, nil
}

// EnsureIndex creates the index. An existing index is reported as unchanged.
func (s *Store) EnsureIndex(ctx context.Context) (model.UpsertOutcome, error) {
	res, err := s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return "", storeError("create index", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if res.StatusCode == http.StatusBadRequest && bytes.Contains(body, []byte("resource_already_exists_exception")) {
			return model.UpsertUnchanged, nil
		}
		return "", storeError("create index", fmt.Errorf("%s: %s", res.Status(), body))
	}

	s.logger.Info("Created search index", slog.String("index", s.index))
	return model.UpsertCreated, nil
}

// documentID maps a path to a fixed-length id that is safe as a URL segment.
// The path itself stays in the keyword field.
func documentID(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])
}

// PutDocument indexes the document under the id of its path.
func (s *Store) PutDocument(ctx context.Context, doc *model.IndexedDocument) (model.UpsertOutcome, error) {
	if doc == nil || doc.Path == "" {
		return "", helper.NewError("put document", fmt.Errorf("%w: document path is empty", model.ErrInvalidInput))
	}

	doc.UpdatedAt = time.Now().UTC()
	body := document{
		Path:      doc.Path,
		Content:   doc.Content,
		Entities:  make([]entityFields, 0, len(doc.Entities)),
		UpdatedAt: doc.UpdatedAt,
	}
	for _, e := range doc.Entities {
		body.Entities = append(body.Entities, entityFields{Text: e.Text, Label: string(e.Label)})
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", helper.NewError("marshal document", err)
	}

	options := []func(*esapi.IndexRequest){
		s.client.Index.WithDocumentID(documentID(doc.Path)),
		s.client.Index.WithContext(ctx),
	}
	if s.refresh {
		options = append(options, s.client.Index.WithRefresh("wait_for"))
	}

	res, err := s.client.Index(s.index, bytes.NewReader(data), options...)
	if err != nil {
		return "", storeError("index document", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", storeError("index document", responseError(res))
	}

	var indexed struct {
		Result string `json:"result"`
	}
	err = json.NewDecoder(res.Body).Decode(&indexed)
	if err != nil {
		return "", storeError("decode index response", err)
	}

	if indexed.Result == "created" {
		return model.UpsertCreated, nil
	}
	return model.UpsertReplaced, nil
}

// Search runs a match over content and a nested match over entity text.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]model.SearchHit, error) {
	body := map[string]any{
		"_source": []string{"path"},
		"query": map[string]any{
			"bool": map[string]any{
				"should": []any{
					map[string]any{
						"match": map[string]any{"content": query},
					},
					map[string]any{
						"nested": map[string]any{
							"path":       "entities",
							"score_mode": "max",
							"query": map[string]any{
								"match": map[string]any{"entities.text": query},
							},
						},
					},
				},
				"minimum_should_match": 1,
			},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, helper.NewError("marshal query", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(data)),
		s.client.Search.WithSize(topK),
	)
	if err != nil {
		return nil, storeError("search", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, storeError("search", responseError(res))
	}

	var result struct {
		Hits struct {
			Hits []struct {
				ID     string  `json:"_id"`
				Score  float64 `json:"_score"`
				Source struct {
					Path string `json:"path"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	err = json.NewDecoder(res.Body).Decode(&result)
	if err != nil {
		return nil, storeError("decode search response", err)
	}

	hits := make([]model.SearchHit, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		if h.Source.Path == "" {
			s.logger.Warn("Search hit without path", slog.String("id", h.ID))
			continue
		}
		hits = append(hits, model.SearchHit{Path: h.Source.Path, Score: h.Score})
	}
	return hits, nil
}

func responseError(res *esapi.Response) error {
	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("%s: %s", res.Status(), body)
}

func storeError(action string, err error) error {
	return helper.NewError(action, fmt.Errorf("%w: %w", model.ErrStore, err))
}
