package analyzer

import (
	"context"
	"net/http"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trondarild/ConCart/internal/model"
	"github.com/trondarild/ConCart/internal/resilience"
	"github.com/trondarild/ConCart/pkg/anthropic"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeClient struct {
	lastReq anthropic.MessageRequest
	text    string
	err     error
}

func (c *fakeClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	return &anthropic.MessageResponse{Text: c.text}, nil
}

func TestLookupURL(t *testing.T) {
	client := &fakeClient{text: "https://example.org/smith2023.pdf\n"}
	az := NewClaude(client, "test-model")

	got, err := az.LookupURL(context.Background(), "A Title", "John Smith", 2023)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/smith2023.pdf", got)

	assert.Equal(t, "test-model", client.lastReq.Model)
	assert.Equal(t, int64(lookupMaxTokens), client.lastReq.MaxTokens)
	assert.Contains(t, client.lastReq.Prompt, "'A Title' by John Smith (2023)")
	assert.Empty(t, client.lastReq.Document)
	assert.Nil(t, client.lastReq.Temperature)
}

func TestLookupURLRateLimited(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "https://api.anthropic.com/v1/messages", nil)
	require.NoError(t, err)
	client := &fakeClient{err: &sdk.Error{StatusCode: http.StatusTooManyRequests, Request: req}}
	az := NewClaude(client, "test-model")

	_, err = az.LookupURL(context.Background(), "T", "A", 2023)
	require.Error(t, err)
	assert.True(t, resilience.IsRateLimited(err))
}

func TestLookupURLTerminalError(t *testing.T) {
	client := &fakeClient{err: eris.New("connection refused")}
	az := NewClaude(client, "test-model")

	_, err := az.LookupURL(context.Background(), "T", "A", 2023)
	require.Error(t, err)
	assert.False(t, resilience.IsRateLimited(err))
}

func TestAnalyzeDocument(t *testing.T) {
	client := &fakeClient{text: "```json\n" + sampleReply + "\n```"}
	az := NewClaude(client, "test-model")

	vocab := Vocabulary{
		Objects: []model.Object{
			{ObjectID: "theory:predictive_coding", Name: "Predictive coding", Type: model.TypeTheory},
		},
		Morphisms: []model.Morphism{
			{MorphismID: "explains", SourceType: "Theory", TargetType: "Phenomenon", Label: "explains"},
		},
	}
	pdf := []byte("%PDF-1.4 fake")

	ex, err := az.AnalyzeDocument(context.Background(), pdf, vocab)
	require.NoError(t, err)
	assert.Equal(t, "Predictive coding and rivalry", ex.Bibliographic.Title)

	assert.Equal(t, int64(analyzeMaxTokens), client.lastReq.MaxTokens)
	assert.Equal(t, pdf, client.lastReq.Document)
	assert.NotEmpty(t, client.lastReq.System)
	require.NotNil(t, client.lastReq.Temperature)
	assert.InDelta(t, analyzeTemperature, *client.lastReq.Temperature, 0.001)
	assert.Contains(t, client.lastReq.Prompt, "theory:predictive_coding")
	assert.Contains(t, client.lastReq.Prompt, "explains")
}

func TestAnalyzeDocumentParseError(t *testing.T) {
	client := &fakeClient{text: "I cannot analyze this document."}
	az := NewClaude(client, "test-model")

	_, err := az.AnalyzeDocument(context.Background(), []byte("%PDF"), Vocabulary{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrParse))
	assert.False(t, resilience.IsRateLimited(err), "parse failures are not retried")
}
