package projection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
)

// SearchStore is the full-text index of ingested documents.
// Implementations return errors matching model.ErrStore.
type SearchStore interface {
	EnsureIndex(ctx context.Context) (model.UpsertOutcome, error)
	PutDocument(ctx context.Context, doc *model.IndexedDocument) (model.UpsertOutcome, error)
	Search(ctx context.Context, query string, topK int) ([]model.SearchHit, error)
}

// SearchProjector writes documents into the search view keyed by path.
// The index is ensured once before the first write; a failed attempt is retried
// on the next write.
type SearchProjector struct {
	store  SearchStore
	logger *slog.Logger

	mu      sync.Mutex
	ensured bool
}

// NewSearchProjector creates a projector for the store. A nil logger uses slog.Default().
func NewSearchProjector(store SearchStore, logger *slog.Logger) *SearchProjector {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchProjector{
		store:  store,
		logger: logger,
	}
}

// EnsureIndex creates the index if needed. Repeated calls are no-ops.
func (p *SearchProjector) EnsureIndex(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ensured {
		return nil
	}

	result, err := p.store.EnsureIndex(ctx)
	if err != nil {
		return helper.NewError("ensure index", err)
	}

	p.ensured = true
	p.logger.Debug("Search index ready", slog.String("outcome", string(result)))
	return nil
}

// Project writes or overwrites the document at path. Last write wins.
func (p *SearchProjector) Project(ctx context.Context, path string, content string, mentions []model.EntityMention) (model.UpsertOutcome, error) {
	if path == "" {
		return "", helper.NewError("project document", fmt.Errorf("%w: path is empty", model.ErrInvalidInput))
	}

	err := p.EnsureIndex(ctx)
	if err != nil {
		return "", err
	}

	if mentions == nil {
		mentions = []model.EntityMention{}
	}

	result, err := p.store.PutDocument(ctx, &model.IndexedDocument{
		Path:     path,
		Content:  content,
		Entities: mentions,
	})
	if err != nil {
		return "", helper.NewError("put document", err)
	}

	p.logger.Debug("Projected document", slog.String("path", path), slog.String("outcome", string(result)))
	return result, nil
}
