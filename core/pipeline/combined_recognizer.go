package pipeline

import (
	"context"

	"github.com/siherrmann/docgraph/model"
)

// CombinedRecognizer takes entities from one recognizer and the dependency
// analysis from another, e.g. a local hugot NER model and a remote parser.
type CombinedRecognizer struct {
	Entities     Recognizer
	Dependencies Recognizer
}

// Recognize implements Recognizer.
func (c *CombinedRecognizer) Recognize(ctx context.Context, text string) ([]model.EntityMention, error) {
	return c.Entities.Recognize(ctx, text)
}

// Analyze implements Recognizer.
func (c *CombinedRecognizer) Analyze(ctx context.Context, text string) ([]model.Sentence, error) {
	return c.Dependencies.Analyze(ctx, text)
}
