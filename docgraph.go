// Package docgraph ingests documents into a full-text search view and a
// knowledge graph of the entities and relations they mention.
package docgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/siherrmann/docgraph/core/graph"
	"github.com/siherrmann/docgraph/core/ingest"
	"github.com/siherrmann/docgraph/core/pipeline"
	"github.com/siherrmann/docgraph/core/projection"
	"github.com/siherrmann/docgraph/core/retrieval"
	"github.com/siherrmann/docgraph/database"
	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
	loadSql "github.com/siherrmann/docgraph/sql"
	"github.com/siherrmann/docgraph/store/elastic"
	"github.com/siherrmann/docgraph/store/memory"
	"github.com/siherrmann/docgraph/store/neo4j"
)

// GraphBackend is a graph store that can also be read by the traversals.
type GraphBackend interface {
	projection.GraphStore
	graph.GraphDB
}

// supporter is implemented by extractors that can reject a document by name alone.
type supporter interface {
	Supports(name string) bool
}

// DocGraph wires the pipeline, the projections and the query side together.
type DocGraph struct {
	DB           *helper.Database // nil without a postgres backend
	Pipeline     *pipeline.Pipeline
	Orchestrator *ingest.Orchestrator
	Gateway      *retrieval.Gateway

	graph   graph.GraphDB
	closers []func(ctx context.Context) error
	log     *slog.Logger
}

// New creates the stores and the recognizer selected by config.
func New(ctx context.Context, config *Config) (*DocGraph, error) {
	if config == nil {
		config = DefaultConfig()
	}
	err := config.Validate()
	if err != nil {
		return nil, helper.NewError("validate config", err)
	}

	logger := helper.NewLogger(config.LogOutput, config.LogLevel)
	d := &DocGraph{log: logger}

	searchStore, graphStore, err := d.openStores(ctx, config)
	if err != nil {
		_ = d.Close(ctx)
		return nil, err
	}

	recognizer, err := d.openRecognizer(config)
	if err != nil {
		_ = d.Close(ctx)
		return nil, err
	}

	d.wire(pipeline.NewExtractorRegistry(), recognizer, searchStore, graphStore)
	return d, nil
}

// NewWithStores wires already constructed collaborators. Close does not close them.
func NewWithStores(extractor pipeline.TextExtractor, recognizer pipeline.Recognizer, searchStore projection.SearchStore, graphStore GraphBackend, logger *slog.Logger) *DocGraph {
	if logger == nil {
		logger = slog.Default()
	}
	d := &DocGraph{log: logger}
	d.wire(extractor, recognizer, searchStore, graphStore)
	return d
}

func (d *DocGraph) wire(extractor pipeline.TextExtractor, recognizer pipeline.Recognizer, searchStore projection.SearchStore, graphStore GraphBackend) {
	d.Pipeline = pipeline.NewPipeline(extractor, recognizer)
	d.Orchestrator = ingest.NewOrchestrator(
		d.Pipeline,
		projection.NewSearchProjector(searchStore, d.log),
		projection.NewGraphProjector(graphStore, d.log),
		d.log,
	)
	d.Gateway = retrieval.NewGateway(searchStore, d.log)
	d.graph = graphStore
}

func (d *DocGraph) openStores(ctx context.Context, config *Config) (projection.SearchStore, GraphBackend, error) {
	if config.SearchBackend == BackendPostgres || config.GraphBackend == BackendPostgres {
		db, err := helper.ConnectDatabase("docgraph", config.Database, d.log)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", model.ErrStore, err)
		}
		d.DB = db
		d.closers = append(d.closers, func(context.Context) error { return d.DB.Close() })

		err = loadSql.Init(d.DB.Instance)
		if err != nil {
			return nil, nil, helper.NewError("initialize database extensions", err)
		}
	}

	var mem *memory.Store
	if config.SearchBackend == BackendMemory || config.GraphBackend == BackendMemory {
		mem = memory.New()
	}

	var searchStore projection.SearchStore
	switch config.SearchBackend {
	case BackendPostgres:
		documents, err := database.NewDocumentsDBHandler(d.DB, false)
		if err != nil {
			return nil, nil, helper.NewError("create documents handler", err)
		}
		searchStore = documents
	case BackendElastic:
		store, err := elastic.New(config.Elastic, d.log)
		if err != nil {
			return nil, nil, err
		}
		searchStore = store
	default:
		searchStore = mem
	}

	var graphStore GraphBackend
	switch config.GraphBackend {
	case BackendPostgres:
		handler, err := database.NewGraphDBHandler(d.DB, false)
		if err != nil {
			return nil, nil, helper.NewError("create graph handler", err)
		}
		graphStore = handler
	case BackendNeo4j:
		store, err := neo4j.New(ctx, config.Neo4j, d.log)
		if err != nil {
			return nil, nil, err
		}
		d.closers = append(d.closers, store.Close)
		graphStore = store
	default:
		graphStore = mem
	}

	return searchStore, graphStore, nil
}

func (d *DocGraph) openRecognizer(config *Config) (pipeline.Recognizer, error) {
	var remote *pipeline.RemoteRecognizer
	if config.RecognizerURL != "" {
		remote = pipeline.NewRemoteRecognizer(config.RecognizerURL, nil, config.RecognizerTimeout)
	}

	if config.Recognizer == RecognizerRemote {
		return remote, nil
	}

	hugot, err := pipeline.NewHugotRecognizer(config.NERModel)
	if err != nil {
		return nil, helper.NewError("create hugot recognizer", err)
	}
	d.closers = append(d.closers, func(context.Context) error { return hugot.Close() })

	if remote == nil {
		d.log.Warn("No dependency parser configured, relation extraction will fail", slog.String("recognizer", config.Recognizer))
		return hugot, nil
	}
	return &pipeline.CombinedRecognizer{Entities: hugot, Dependencies: remote}, nil
}

// Ingest runs the ingestion pipeline for the document bytes stored under path.
func (d *DocGraph) Ingest(ctx context.Context, path string, data []byte) (*model.IngestResult, error) {
	return d.Orchestrator.Ingest(ctx, path, data)
}

// IngestFile reads the file and ingests it under its path. Files the extractor
// reports as unsupported are rejected before they are read.
func (d *DocGraph) IngestFile(ctx context.Context, path string) (*model.IngestResult, error) {
	if s, ok := d.Pipeline.Extractor.(supporter); ok && !s.Supports(path) {
		return nil, helper.NewError("ingest file", fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, path))
	}

	source, err := model.NewSourceFromFile(path)
	if err != nil {
		return nil, helper.NewError("read file", err)
	}
	return d.Orchestrator.Ingest(ctx, source.Path, source.Data)
}

// Search returns up to topK documents matching the query.
func (d *DocGraph) Search(ctx context.Context, query string, topK int) ([]model.SearchHit, error) {
	return d.Gateway.Search(ctx, query, topK)
}

// Related returns the entities connected to the named entity in the graph.
func (d *DocGraph) Related(ctx context.Context, name string, config *model.QueryConfig) ([]*model.TraversalNode, error) {
	return graph.Related(ctx, d.graph, name, config)
}

// OnClose registers fn to run when the docgraph is closed.
func (d *DocGraph) OnClose(fn func(ctx context.Context) error) {
	d.closers = append(d.closers, fn)
}

// Close releases everything New opened and everything registered with OnClose,
// in reverse order.
func (d *DocGraph) Close(ctx context.Context) error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i](ctx))
	}
	d.closers = nil
	return errors.Join(errs...)
}
