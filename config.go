package docgraph

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/siherrmann/docgraph/core/pipeline"
	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
	"github.com/siherrmann/docgraph/store/elastic"
	"github.com/siherrmann/docgraph/store/neo4j"
)

// Backend names for the search view and the graph.
const (
	BackendPostgres = "postgres"
	BackendElastic  = "elastic"
	BackendNeo4j    = "neo4j"
	BackendMemory   = "memory"
)

// Recognizer names.
const (
	// RecognizerRemote uses the NLP service for entities and dependencies.
	RecognizerRemote = "remote"
	// RecognizerHugot uses the local hugot NER model for entities and the
	// NLP service, if configured, for dependencies.
	RecognizerHugot = "hugot"
)

// Config selects and configures the stores and the recognizer.
type Config struct {
	SearchBackend string
	GraphBackend  string

	// Database is required when a backend is postgres.
	Database *helper.DatabaseConfiguration
	Elastic  elastic.Config
	Neo4j    neo4j.Config

	Recognizer        string
	RecognizerURL     string
	RecognizerTimeout time.Duration
	NERModel          string

	LogLevel  slog.Level
	LogOutput io.Writer
}

// DefaultConfig returns a configuration with Postgres for both views and the
// remote recognizer on localhost.
func DefaultConfig() *Config {
	return &Config{
		SearchBackend:     BackendPostgres,
		GraphBackend:      BackendPostgres,
		Elastic:           elastic.Config{Addresses: []string{"http://localhost:9200"}, Index: elastic.DefaultIndex},
		Neo4j:             neo4j.Config{URI: "neo4j://localhost:7687", Username: "neo4j"},
		Recognizer:        RecognizerRemote,
		RecognizerURL:     "http://localhost:8080",
		RecognizerTimeout: 60 * time.Second,
		NERModel:          pipeline.DefaultNERModel,
		LogLevel:          slog.LevelInfo,
		LogOutput:         os.Stdout,
	}
}

// Validate checks the backend and recognizer names and their settings.
func (c *Config) Validate() error {
	switch c.SearchBackend {
	case BackendPostgres, BackendElastic, BackendMemory:
	default:
		return fmt.Errorf("%w: unknown search backend %q", model.ErrInvalidInput, c.SearchBackend)
	}

	switch c.GraphBackend {
	case BackendPostgres, BackendNeo4j, BackendMemory:
	default:
		return fmt.Errorf("%w: unknown graph backend %q", model.ErrInvalidInput, c.GraphBackend)
	}

	if (c.SearchBackend == BackendPostgres || c.GraphBackend == BackendPostgres) && c.Database == nil {
		return fmt.Errorf("%w: postgres backend needs a database configuration", model.ErrInvalidInput)
	}
	if c.SearchBackend == BackendElastic && len(c.Elastic.Addresses) == 0 {
		return fmt.Errorf("%w: elastic backend needs at least one address", model.ErrInvalidInput)
	}
	if c.GraphBackend == BackendNeo4j && c.Neo4j.URI == "" {
		return fmt.Errorf("%w: neo4j backend needs a URI", model.ErrInvalidInput)
	}

	switch c.Recognizer {
	case RecognizerRemote:
		if c.RecognizerURL == "" {
			return fmt.Errorf("%w: remote recognizer needs a URL", model.ErrInvalidInput)
		}
	case RecognizerHugot:
	default:
		return fmt.Errorf("%w: unknown recognizer %q", model.ErrInvalidInput, c.Recognizer)
	}

	return nil
}
