package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
)

// DefaultNERModel is the token classification model used by NewHugotRecognizer.
const DefaultNERModel = "KnightsAnalytics/distilbert-NER"

// HugotRecognizer recognizes entities with a local hugot token classification model.
// Detects: PER, ORG, LOC, MISC entities.
// Token classification yields no dependency parse, so Analyze is unavailable.
type HugotRecognizer struct {
	session  *hugot.Session
	pipeline *pipelines.TokenClassificationPipeline
}

// NewHugotRecognizer prepares the model (download if needed) and starts a hugot session
// with the Go backend.
func NewHugotRecognizer(modelName string) (*HugotRecognizer, error) {
	if modelName == "" {
		modelName = DefaultNERModel
	}

	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create hugot session: %v", model.ErrCapabilityUnavailable, err)
	}

	config := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "ner-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}), // Ignore non-entity tokens
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("%w: failed to create NER pipeline: %v (cleanup error: %v)", model.ErrCapabilityUnavailable, err, destroyErr)
		}
		return nil, fmt.Errorf("%w: failed to create NER pipeline: %v", model.ErrCapabilityUnavailable, err)
	}

	return &HugotRecognizer{
		session:  session,
		pipeline: nerPipeline,
	}, nil
}

// Recognize implements Recognizer.
func (r *HugotRecognizer) Recognize(ctx context.Context, text string) ([]model.EntityMention, error) {
	if strings.TrimSpace(text) == "" {
		return []model.EntityMention{}, nil
	}

	result, err := r.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to run NER: %v", model.ErrCapabilityUnavailable, err)
	}

	mentions := []model.EntityMention{}
	if len(result.Entities) == 0 {
		return mentions, nil
	}

	for _, entity := range result.Entities[0] {
		mention, ok := newMention(entity.Entity, entity.Word, float64(entity.Score), int(entity.Start), int(entity.End))
		if ok {
			mentions = append(mentions, mention)
		}
	}

	return mentions, nil
}

// Analyze implements Recognizer. Token classification has no dependency parse.
func (r *HugotRecognizer) Analyze(ctx context.Context, text string) ([]model.Sentence, error) {
	return nil, fmt.Errorf("%w: %s provides no dependency analysis", model.ErrCapabilityUnavailable, DefaultNERModel)
}

// Close destroys the hugot session.
func (r *HugotRecognizer) Close() error {
	return r.session.Destroy()
}

func newMention(label string, word string, score float64, start int, end int) (model.EntityMention, bool) {
	text := strings.TrimSpace(word)
	if text == "" {
		return model.EntityMention{}, false
	}

	return model.EntityMention{
		Text:  text,
		Label: model.EntityType(normalizeEntityType(label)),
		Start: start,
		End:   end,
		Score: score,
	}, true
}

// normalizeEntityType removes B- and I- prefixes from NER labels
func normalizeEntityType(label string) string {
	if strings.HasPrefix(label, "B-") {
		return label[2:]
	}
	if strings.HasPrefix(label, "I-") {
		return label[2:]
	}
	return label
}
