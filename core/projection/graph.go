package projection

import (
	"context"
	"errors"
	"log/slog"

	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
)

// GraphStore is the knowledge graph. Both writes are merges: an existing node or
// edge yields model.UpsertUnchanged. UpsertEdge fails with model.ErrConsistencyViolation
// when an endpoint node is missing.
type GraphStore interface {
	UpsertNode(ctx context.Context, entity model.CanonicalEntity) (model.UpsertOutcome, error)
	UpsertEdge(ctx context.Context, relation model.CanonicalRelation) (model.UpsertOutcome, error)
}

// GraphProjector merges canonical knowledge into the graph store.
type GraphProjector struct {
	store  GraphStore
	logger *slog.Logger
}

// NewGraphProjector creates a projector for the store. A nil logger uses slog.Default().
func NewGraphProjector(store GraphStore, logger *slog.Logger) *GraphProjector {
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphProjector{
		store:  store,
		logger: logger,
	}
}

// Project upserts all nodes, then all edges.
func (p *GraphProjector) Project(ctx context.Context, entities []model.CanonicalEntity, relations []model.CanonicalRelation) (*model.GraphSummary, error) {
	summary := &model.GraphSummary{}

	for _, entity := range entities {
		result, err := p.store.UpsertNode(ctx, entity)
		if err != nil {
			return summary, helper.NewError("upsert node", err)
		}

		if result == model.UpsertCreated {
			summary.NodesCreated++
		} else {
			summary.NodesUnchanged++
		}
	}

	for _, relation := range relations {
		result, err := p.store.UpsertEdge(ctx, relation)
		if errors.Is(err, model.ErrConsistencyViolation) {
			p.logger.Error(
				"Edge references a missing node",
				slog.String("subject", relation.SubjectKey),
				slog.String("predicate", relation.Predicate),
				slog.String("object", relation.ObjectKey),
				slog.String("error", err.Error()),
			)
		}
		if err != nil {
			return summary, helper.NewError("upsert edge", err)
		}

		if result == model.UpsertCreated {
			summary.EdgesCreated++
		} else {
			summary.EdgesUnchanged++
		}
	}

	return summary, nil
}
