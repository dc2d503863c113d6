package pipeline

import (
	"context"
	"strings"

	"github.com/siherrmann/docgraph/model"
)

// StaticRecognizer returns hand-authored output for every non-empty text.
// It is the deterministic stand-in for a live model.
type StaticRecognizer struct {
	Mentions  []model.EntityMention
	Sentences []model.Sentence
	// RecognizeErr and AnalyzeErr, when set, are returned instead of the output.
	RecognizeErr error
	AnalyzeErr   error
}

// Recognize implements Recognizer.
func (s *StaticRecognizer) Recognize(ctx context.Context, text string) ([]model.EntityMention, error) {
	if s.RecognizeErr != nil {
		return nil, s.RecognizeErr
	}
	if strings.TrimSpace(text) == "" {
		return []model.EntityMention{}, nil
	}
	return append([]model.EntityMention{}, s.Mentions...), nil
}

// Analyze implements Recognizer.
func (s *StaticRecognizer) Analyze(ctx context.Context, text string) ([]model.Sentence, error) {
	if s.AnalyzeErr != nil {
		return nil, s.AnalyzeErr
	}
	if strings.TrimSpace(text) == "" {
		return []model.Sentence{}, nil
	}
	return append([]model.Sentence{}, s.Sentences...), nil
}
