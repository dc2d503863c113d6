package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
)

// Searcher is the query side of the search store.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]model.SearchHit, error)
}

// Gateway answers free-text queries against the search view.
//
// Ranking belongs to the store: hits come back by descending score with ties
// in the store's native order. Documents become visible once the store has
// refreshed, so a just-ingested path may be missing for a short time.
type Gateway struct {
	searcher Searcher
	logger   *slog.Logger
}

// NewGateway creates a gateway. A nil logger uses slog.Default().
func NewGateway(searcher Searcher, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		searcher: searcher,
		logger:   logger,
	}
}

// Search matches the query against document content and entity text and
// returns at most topK hits.
func (g *Gateway) Search(ctx context.Context, query string, topK int) ([]model.SearchHit, error) {
	if topK <= 0 {
		return nil, helper.NewError("search", fmt.Errorf("%w: topK must be positive, got %d", model.ErrInvalidInput, topK))
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, helper.NewError("search", fmt.Errorf("%w: query is empty", model.ErrInvalidInput))
	}

	hits, err := g.searcher.Search(ctx, query, topK)
	if err != nil {
		if !errors.Is(err, model.ErrStore) {
			err = fmt.Errorf("%w: %w", model.ErrStore, err)
		}
		return nil, helper.NewError("search", err)
	}

	if hits == nil {
		hits = []model.SearchHit{}
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}

	g.logger.Debug("Search finished", slog.String("query", query), slog.Int("top_k", topK), slog.Int("hits", len(hits)))
	return hits, nil
}
