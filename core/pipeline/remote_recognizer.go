package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/siherrmann/docgraph/model"
)

// Analysis is the response of an NLP service to POST /analyze.
// Token indices are positions inside the sentence token list.
type Analysis struct {
	Ents  []model.EntityMention `json:"ents"`
	Sents []model.Sentence      `json:"sents"`
}

// RemoteRecognizer talks JSON over HTTP to an NLP service (for example a spaCy
// server) that offers named entities and dependency parses.
// Recognize and Analyze of the same text share one request: the first call
// keeps the analysis and the second one takes it.
type RemoteRecognizer struct {
	baseURL string
	client  *http.Client
	timeout time.Duration

	mu      sync.Mutex
	pending *pendingAnalysis
}

type pendingAnalysis struct {
	text     string
	analysis *Analysis
}

// NewRemoteRecognizer creates a recognizer for the service at baseURL.
// A nil client uses http.DefaultClient, a zero timeout means 60 seconds.
func NewRemoteRecognizer(baseURL string, client *http.Client, timeout time.Duration) *RemoteRecognizer {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RemoteRecognizer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		timeout: timeout,
	}
}

// Recognize implements Recognizer.
func (r *RemoteRecognizer) Recognize(ctx context.Context, text string) ([]model.EntityMention, error) {
	if strings.TrimSpace(text) == "" {
		return []model.EntityMention{}, nil
	}

	analysis, err := r.shared(ctx, text)
	if err != nil {
		return nil, err
	}

	mentions := make([]model.EntityMention, 0, len(analysis.Ents))
	for _, e := range analysis.Ents {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		mentions = append(mentions, e)
	}
	return mentions, nil
}

// Analyze implements Recognizer.
func (r *RemoteRecognizer) Analyze(ctx context.Context, text string) ([]model.Sentence, error) {
	if strings.TrimSpace(text) == "" {
		return []model.Sentence{}, nil
	}

	analysis, err := r.shared(ctx, text)
	if err != nil {
		return nil, err
	}

	for _, s := range analysis.Sents {
		if len(s.Tokens) > 0 && !s.HasDependencies() {
			return nil, fmt.Errorf("%w: service returned tokens without dependency roles", model.ErrCapabilityUnavailable)
		}
	}

	return analysis.Sents, nil
}

// shared returns the pending analysis of text, or requests a new one and
// leaves it pending for the other half of the pair.
func (r *RemoteRecognizer) shared(ctx context.Context, text string) (*Analysis, error) {
	r.mu.Lock()
	if p := r.pending; p != nil && p.text == text {
		r.pending = nil
		r.mu.Unlock()
		return p.analysis, nil
	}
	r.mu.Unlock()

	analysis, err := r.Analysis(ctx, text)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.pending = &pendingAnalysis{text: text, analysis: analysis}
	r.mu.Unlock()
	return analysis, nil
}

// Analysis requests entities and sentences for the text in one call.
func (r *RemoteRecognizer) Analysis(ctx context.Context, text string) (*Analysis, error) {
	body, err := json.Marshal(map[string]any{"text": text})
	if err != nil {
		return nil, fmt.Errorf("marshal analyze request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: analyze request failed: %v", model.ErrCapabilityUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read analyze response: %v", model.ErrCapabilityUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: analyze request failed: %s: %s", model.ErrCapabilityUnavailable, resp.Status, strings.TrimSpace(string(raw)))
	}

	var analysis Analysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, fmt.Errorf("%w: parse analyze response: %v", model.ErrCapabilityUnavailable, err)
	}

	return &analysis, nil
}
