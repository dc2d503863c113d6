package pipeline

import (
	"context"

	"github.com/siherrmann/docgraph/model"
)

// TextExtractor turns raw document bytes into plain text.
// It fails with model.ErrUnsupportedFormat when it does not recognize the document.
type TextExtractor interface {
	Extract(ctx context.Context, name string, data []byte) (string, error)
}

// Recognizer is the named entity and dependency analysis capability.
// Recognize returns mentions in order of first appearance, Analyze returns the
// dependency structure per sentence. Either may fail with model.ErrCapabilityUnavailable.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]model.EntityMention, error)
	Analyze(ctx context.Context, text string) ([]model.Sentence, error)
}

// Pipeline combines the text extractor and the recognizer into the extraction steps
// of one ingestion. It holds no per-call state and is safe for concurrent use
// if its collaborators are.
type Pipeline struct {
	Extractor  TextExtractor
	Recognizer Recognizer
}

// NewPipeline creates a new processing pipeline
func NewPipeline(extractor TextExtractor, recognizer Recognizer) *Pipeline {
	return &Pipeline{
		Extractor:  extractor,
		Recognizer: recognizer,
	}
}

// ExtractText extracts the plain text of a document.
func (p *Pipeline) ExtractText(ctx context.Context, name string, data []byte) (string, error) {
	return p.Extractor.Extract(ctx, name, data)
}

// RecognizeEntities returns the entity mentions of the text.
func (p *Pipeline) RecognizeEntities(ctx context.Context, text string) ([]model.EntityMention, error) {
	if text == "" {
		return []model.EntityMention{}, nil
	}
	return p.Recognizer.Recognize(ctx, text)
}

// ExtractRelations analyzes the text and returns the raw relation triples.
func (p *Pipeline) ExtractRelations(ctx context.Context, text string) ([]model.Relation, error) {
	if text == "" {
		return []model.Relation{}, nil
	}

	sentences, err := p.Recognizer.Analyze(ctx, text)
	if err != nil {
		return nil, err
	}

	return ExtractRelations(sentences)
}

// Normalize folds mentions and relations into canonical knowledge.
func (p *Pipeline) Normalize(mentions []model.EntityMention, relations []model.Relation) *Knowledge {
	return Normalize(mentions, relations)
}
