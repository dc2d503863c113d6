package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/siherrmann/docgraph"
	"github.com/siherrmann/docgraph/helper"
)

const sampleContent = `Marie Curie worked in Paris.
Pierre Curie lived in Paris.
Paris is the capital of France.`

func main() {
	ctx := context.Background()

	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(ctx)

	config := docgraph.DefaultConfig()
	config.Database = &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}
	// A spaCy-style service answering POST /analyze, see core/pipeline/remote_recognizer.go
	if url := os.Getenv("DOCGRAPH_RECOGNIZER_URL"); url != "" {
		config.RecognizerURL = url
	}

	d, err := docgraph.New(ctx, config)
	if err != nil {
		log.Fatalf("Failed to create docgraph: %v", err)
	}
	defer d.Close(ctx)

	fmt.Println("Ingesting document...")
	result, err := d.Ingest(ctx, "curie.txt", []byte(sampleContent))
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Ingested %s: %d entities, %d relations\n", result.Path, result.EntityCount, result.RelationCount)

	hits, err := d.Search(ctx, "capital", 5)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}
	fmt.Printf("\nFound %d documents for %q:\n", len(hits), "capital")
	for i, hit := range hits {
		fmt.Printf("%d. %s (%.4f)\n", i+1, hit.Path, hit.Score)
	}

	related, err := d.Related(ctx, "Paris", nil)
	if err != nil {
		log.Fatalf("Failed to query graph: %v", err)
	}
	fmt.Printf("\nEntities related to Paris:\n")
	for _, node := range related {
		fmt.Printf("  [%d] %s (%s)\n", node.Depth, node.Entity.Name, node.Entity.Label)
	}

	fmt.Println("\nBasic example completed successfully!")
}
