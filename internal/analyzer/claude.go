package analyzer

import (
	"context"
	"net/http"

	"github.com/rotisserie/eris"

	"github.com/trondarild/ConCart/internal/resilience"
	"github.com/trondarild/ConCart/pkg/anthropic"
)

const (
	lookupMaxTokens  = 256
	analyzeMaxTokens = 8192

	// Low temperature keeps the extraction close to the paper's text.
	analyzeTemperature = 0.2
)

// ClaudeAnalyzer implements Analyzer on top of the Anthropic API.
type ClaudeAnalyzer struct {
	client anthropic.Client
	model  string
}

// NewClaude creates an analyzer using the given model.
func NewClaude(client anthropic.Client, model string) *ClaudeAnalyzer {
	return &ClaudeAnalyzer{client: client, model: model}
}

func (a *ClaudeAnalyzer) LookupURL(ctx context.Context, title, authors string, year int) (string, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: lookupMaxTokens,
		Prompt:    buildLookupPrompt(title, authors, year),
	})
	if err != nil {
		return "", classify(err, "lookup url")
	}
	resp.Usage.Log(a.model, "lookup_url")
	return firstLine(resp.Text), nil
}

func (a *ClaudeAnalyzer) AnalyzeDocument(ctx context.Context, pdf []byte, vocab Vocabulary) (*Extraction, error) {
	temp := analyzeTemperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   analyzeMaxTokens,
		System:      analyzeSystem,
		Prompt:      buildAnalyzePrompt(vocab),
		Document:    pdf,
		Temperature: &temp,
	})
	if err != nil {
		return nil, classify(err, "analyze document")
	}
	resp.Usage.Log(a.model, "analyze_document")
	return decodeExtraction(resp.Text)
}

// classify maps API failures onto the pipelines' error taxonomy: 429 is
// retryable, everything else is a terminal transport or protocol error.
func classify(err error, op string) error {
	if anthropic.StatusCode(err) == http.StatusTooManyRequests {
		return resilience.RateLimited(err)
	}
	return eris.Wrapf(err, "analyzer: %s", op)
}
