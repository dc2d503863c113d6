package model

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// IndexedDocument is the search view of one ingested document.
// It is keyed by Path and overwritten on every ingestion of that path.
type IndexedDocument struct {
	Path      string          `json:"path"`
	Content   string          `json:"content"`
	Entities  []EntityMention `json:"entities"`
	Metadata  Metadata        `json:"metadata,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Source is a raw document as handed to ingestion.
type Source struct {
	Path string
	Data []byte
}

// NewSourceFromFile reads a file and creates a Source with the file content.
// The path is the identity of the document.
func NewSourceFromFile(filePath string) (*Source, error) {
	data, err := os.ReadFile(filepath.Clean(filePath))
	if err != nil {
		return nil, err
	}

	return &Source{
		Path: filePath,
		Data: data,
	}, nil
}

// Extension returns the lower-case extension of name without the dot.
func Extension(name string) string {
	ext := filepath.Ext(name)
	if len(ext) <= 1 {
		return ""
	}
	return strings.ToLower(ext[1:])
}
