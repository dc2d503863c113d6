package database

import (
	"context"
	"time"

	"github.com/siherrmann/docgraph/model"
)

// EnsureIndex creates the GIN full-text index over the documents table if it is missing.
// It returns UpsertCreated only for the call that created the index.
func (h *DocumentsDBHandler) EnsureIndex(ctx context.Context) (model.UpsertOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	var created bool
	err := h.db.Instance.QueryRowContext(ctx, `SELECT ensure_search_index();`).Scan(&created)
	if err != nil {
		return "", storeError("ensure search index", err)
	}

	if created {
		h.db.Logger.Info("Created search index", "index", "idx_documents_search")
	}

	return outcome(created), nil
}
