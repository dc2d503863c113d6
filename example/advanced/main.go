package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/siherrmann/docgraph"
	"github.com/siherrmann/docgraph/core/ingest"
	"github.com/siherrmann/docgraph/model"
)

// Ingests every file given on the command line into Elasticsearch and Neo4j,
// using the local hugot NER model for entities and the NLP service for
// dependency parses.
func main() {
	ctx := context.Background()
	if len(os.Args) < 2 {
		log.Fatalf("usage: %s <file>...", filepath.Base(os.Args[0]))
	}

	config := docgraph.DefaultConfig()
	config.SearchBackend = docgraph.BackendElastic
	config.GraphBackend = docgraph.BackendNeo4j
	config.Elastic.Refresh = true
	config.Neo4j.Password = os.Getenv("NEO4J_PASSWORD")
	config.Recognizer = docgraph.RecognizerHugot
	if url := os.Getenv("DOCGRAPH_RECOGNIZER_URL"); url != "" {
		config.RecognizerURL = url
	}

	d, err := docgraph.New(ctx, config)
	if err != nil {
		log.Fatalf("Failed to create docgraph: %v", err)
	}
	defer d.Close(ctx)

	for _, path := range os.Args[1:] {
		result, err := d.IngestFile(ctx, path)

		var stageErr *ingest.StageError
		switch {
		case errors.As(err, &stageErr) && errors.Is(err, model.ErrUnsupportedFormat):
			fmt.Printf("skipped %s: unsupported format\n", path)
			continue
		case errors.As(err, &stageErr):
			log.Fatalf("Failed to ingest %s after %s: %v", path, stageErr.State, err)
		case err != nil:
			log.Fatalf("Failed to read %s: %v", path, err)
		}

		fmt.Printf("%s: %d entities, %d relations, %d label conflicts\n",
			result.Path, result.EntityCount, result.RelationCount, len(result.Warnings))
	}

	queryConfig := model.DefaultQueryConfig()
	queryConfig.MaxHops = 1
	for _, name := range []string{"Paris", "France"} {
		related, err := d.Related(ctx, name, &queryConfig)
		if err != nil {
			log.Fatalf("Failed to query graph: %v", err)
		}
		fmt.Printf("\n%s has %d direct neighbors\n", name, len(related))
		for _, node := range related {
			fmt.Printf("  %s (%s)\n", node.Entity.Name, node.Entity.Label)
		}
	}
}
