package model

// SearchHit is a document matched by a query.
type SearchHit struct {
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// GraphSummary counts the outcomes of one graph projection.
type GraphSummary struct {
	NodesCreated   int `json:"nodes_created"`
	NodesUnchanged int `json:"nodes_unchanged"`
	EdgesCreated   int `json:"edges_created"`
	EdgesUnchanged int `json:"edges_unchanged"`
}

// IngestResult is returned by a successful ingestion.
type IngestResult struct {
	Path          string          `json:"path"`
	EntityCount   int             `json:"entities"`
	RelationCount int             `json:"relations"`
	Graph         GraphSummary    `json:"graph"`
	Warnings      []LabelConflict `json:"warnings,omitempty"`
}
