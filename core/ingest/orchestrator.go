package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/docgraph/core/pipeline"
	"github.com/siherrmann/docgraph/core/projection"
	"github.com/siherrmann/docgraph/model"
)

// Orchestrator runs the ingestion state machine. It holds no per-call state and
// is safe for concurrent use. Steps are never retried and nothing is rolled back.
type Orchestrator struct {
	pipeline *pipeline.Pipeline
	search   *projection.SearchProjector
	graph    *projection.GraphProjector
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator. A nil logger uses slog.Default().
func NewOrchestrator(p *pipeline.Pipeline, search *projection.SearchProjector, graph *projection.GraphProjector, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		pipeline: p,
		search:   search,
		graph:    graph,
		logger:   logger,
	}
}

// run tracks the current state of one call.
type run struct {
	logger *slog.Logger
	state  State
}

func (r *run) advance(next State, attrs ...any) {
	r.logger.Debug("Ingestion state changed", append([]any{slog.String("from", string(r.state)), slog.String("to", string(next))}, attrs...)...)
	r.state = next
}

func (r *run) fail(err error) error {
	r.logger.Debug("Ingestion state changed", slog.String("from", string(r.state)), slog.String("to", string(StateFailed)), slog.String("error", err.Error()))
	return &StageError{State: r.state, Err: err}
}

// Ingest extracts, recognizes and normalizes the document, then writes it to the
// search view and the graph. The search write happens before the graph write.
func (o *Orchestrator) Ingest(ctx context.Context, path string, data []byte) (*model.IngestResult, error) {
	logger := o.logger.With(slog.String("path", path))
	r := &run{logger: logger, state: StateReceived}
	start := time.Now()

	if path == "" {
		return nil, r.fail(fmt.Errorf("%w: path is empty", model.ErrInvalidInput))
	}

	text, err := o.pipeline.ExtractText(ctx, path, data)
	if err != nil {
		return nil, r.fail(err)
	}
	r.advance(StateTextExtracted, slog.Int("characters", len(text)))

	mentions, err := o.pipeline.RecognizeEntities(ctx, text)
	if err != nil {
		return nil, r.fail(err)
	}
	r.advance(StateEntitiesRecognized, slog.Int("mentions", len(mentions)))

	relations, err := o.pipeline.ExtractRelations(ctx, text)
	if err != nil {
		return nil, r.fail(err)
	}
	r.advance(StateRelationsExtracted, slog.Int("relations", len(relations)))

	knowledge := o.pipeline.Normalize(mentions, relations)
	for _, c := range knowledge.Conflicts {
		logger.Warn(
			"Conflicting entity label",
			slog.String("key", c.Key),
			slog.String("text", c.Text),
			slog.String("kept", string(c.Kept)),
			slog.String("rejected", string(c.Rejected)),
		)
	}
	r.advance(StateNormalized, slog.Int("entities", len(knowledge.Entities)), slog.Int("relations", len(knowledge.Relations)))

	_, err = o.search.Project(ctx, path, text, mentions)
	if err != nil {
		return nil, r.fail(err)
	}
	r.advance(StateSearchProjected)

	summary, err := o.graph.Project(ctx, knowledge.Entities, knowledge.Relations)
	if err != nil {
		return nil, r.fail(err)
	}
	r.advance(StateGraphProjected)
	r.advance(StateDone)

	result := &model.IngestResult{
		Path:          path,
		EntityCount:   len(knowledge.Entities),
		RelationCount: len(knowledge.Relations),
		Graph:         *summary,
		Warnings:      knowledge.Conflicts,
	}

	logger.Info(
		"Ingested document",
		slog.Int("entities", result.EntityCount),
		slog.Int("relations", result.RelationCount),
		slog.Int("nodes_created", summary.NodesCreated),
		slog.Int("edges_created", summary.EdgesCreated),
		slog.Int("warnings", len(result.Warnings)),
		slog.Duration("took", time.Since(start)),
	)
	return result, nil
}
