package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docinsight-cli/pkg/openrouter"
)

const validInsightJSON = `{
	"key_points": ["one", "two"],
	"risk_level": "High",
	"risk_reason": "because",
	"summary": "short"
}`

// scriptedClient plays back a fixed sequence of responses and records
// every request it saw.
type scriptedClient struct {
	responses []scriptedResponse
	requests  []openrouter.ChatCompletionRequest
}

type scriptedResponse struct {
	content   string
	noChoices bool
	err       error
}

func (c *scriptedClient) ChatCompletion(_ context.Context, req openrouter.ChatCompletionRequest) (*openrouter.ChatCompletionResponse, error) {
	i := len(c.requests)
	c.requests = append(c.requests, req)
	if i >= len(c.responses) {
		panic("scriptedClient: more calls than scripted responses")
	}
	r := c.responses[i]
	if r.err != nil {
		return nil, r.err
	}
	if r.noChoices {
		return &openrouter.ChatCompletionResponse{}, nil
	}
	return &openrouter.ChatCompletionResponse{
		Choices: []openrouter.Choice{{Message: openrouter.Message{Role: "assistant", Content: r.content}}},
	}, nil
}

func (c *scriptedClient) calls() int {
	return len(c.requests)
}

func TestAnalyze_DirectSuccess(t *testing.T) {
	client := &scriptedClient{responses: []scriptedResponse{
		{content: validInsightJSON},
	}}
	a := New(client, "openai/gpt-4o-mini")

	insight, err := a.Analyze(context.Background(), "doc text", "question?")
	require.NoError(t, err)
	require.NotNil(t, insight)

	assert.Equal(t, 1, client.calls())
	assert.Equal(t, []string{"one", "two"}, insight.KeyPoints)
	assert.Equal(t, "High", string(insight.RiskLevel))
	assert.Equal(t, "because", insight.RiskReason)
	assert.Equal(t, "short", insight.Summary)
}

func TestAnalyze_RepairSuccess(t *testing.T) {
	client := &scriptedClient{responses: []scriptedResponse{
		{content: "not json at all"}, // attempt 1
		{content: "{broken"},         // attempt 2: raw re-fetch
		{content: validInsightJSON},  // attempt 2: repair call
	}}
	a := New(client, "openai/gpt-4o-mini")

	insight, err := a.Analyze(context.Background(), "doc", "q")
	require.NoError(t, err)
	require.NotNil(t, insight)
	assert.Equal(t, 3, client.calls())

	// Calls 1 and 2 use the original analysis prompt; call 3 wraps the raw
	// output from call 2 in the repair prompt, unsanitized.
	original := BuildAnalysisPrompt("doc", "q")
	assert.Equal(t, original, client.requests[0].Messages)
	assert.Equal(t, original, client.requests[1].Messages)
	assert.Equal(t, BuildRepairPrompt("{broken"), client.requests[2].Messages)
}

func TestAnalyze_AllAttemptsFail(t *testing.T) {
	client := &scriptedClient{responses: []scriptedResponse{
		{content: "garbage"},
		{content: "garbage"},
		{content: "garbage"},
		{content: "garbage"},
	}}
	a := New(client, "openai/gpt-4o-mini")

	insight, err := a.Analyze(context.Background(), "doc", "q")
	require.Error(t, err)
	assert.Nil(t, insight)
	assert.Equal(t, 4, client.calls())

	var aerr *AnalysisError
	require.ErrorAs(t, err, &aerr)
	assert.ErrorIs(t, err, ErrNoJSONFound)
}

func TestAnalyze_FinalRetrySucceeds(t *testing.T) {
	client := &scriptedClient{responses: []scriptedResponse{
		{content: "garbage"},         // attempt 1
		{content: "garbage"},         // attempt 2: raw re-fetch
		{content: "still garbage"},   // attempt 2: repair
		{content: validInsightJSON},  // attempt 3
	}}
	a := New(client, "openai/gpt-4o-mini")

	insight, err := a.Analyze(context.Background(), "doc", "q")
	require.NoError(t, err)
	require.NotNil(t, insight)
	assert.Equal(t, 4, client.calls())
}

// An upstream 500 is just another retry trigger — no error-kind branching.
func TestAnalyze_UpstreamErrorTriggersRepair(t *testing.T) {
	client := &scriptedClient{responses: []scriptedResponse{
		{err: &openrouter.UpstreamError{StatusCode: 500, Body: `{"error":"boom"}`}},
		{content: "{broken"},
		{content: validInsightJSON},
	}}
	a := New(client, "openai/gpt-4o-mini")

	insight, err := a.Analyze(context.Background(), "doc", "q")
	require.NoError(t, err)
	require.NotNil(t, insight)
	assert.Equal(t, 3, client.calls())
}

func TestAnalyze_UpstreamErrorExhaustsAttempts(t *testing.T) {
	upstream := &openrouter.UpstreamError{StatusCode: 503, Body: "unavailable"}
	client := &scriptedClient{responses: []scriptedResponse{
		{err: upstream}, {err: upstream}, {err: upstream}, {err: upstream},
	}}
	a := New(client, "openai/gpt-4o-mini")

	_, err := a.Analyze(context.Background(), "doc", "q")
	require.Error(t, err)
	assert.Equal(t, 4, client.calls())

	var aerr *AnalysisError
	require.ErrorAs(t, err, &aerr)
	var uerr *openrouter.UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, 503, uerr.StatusCode)
	assert.Equal(t, "unavailable", uerr.Body)
}

// A response with no choices yields empty content, which surfaces as an
// empty-response failure from the sanitizer.
func TestAnalyze_MissingChoicesIsEmptyResponse(t *testing.T) {
	client := &scriptedClient{responses: []scriptedResponse{
		{noChoices: true}, {noChoices: true}, {noChoices: true}, {noChoices: true},
	}}
	a := New(client, "openai/gpt-4o-mini")

	_, err := a.Analyze(context.Background(), "doc", "q")
	require.Error(t, err)
	assert.Equal(t, 4, client.calls())
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAnalyze_FixedDecodingParameters(t *testing.T) {
	client := &scriptedClient{responses: []scriptedResponse{
		{content: "garbage"},
		{content: "garbage"},
		{content: validInsightJSON},
	}}
	a := New(client, "test-model")

	_, err := a.Analyze(context.Background(), "doc", "q")
	require.NoError(t, err)

	for _, req := range client.requests {
		assert.Equal(t, "test-model", req.Model)
		require.NotNil(t, req.Temperature)
		assert.Zero(t, *req.Temperature)
		require.NotNil(t, req.MaxTokens)
		assert.Equal(t, 600, *req.MaxTokens)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
	}
}

func TestDecodeInsight_MissingFieldsStayZero(t *testing.T) {
	insight := decodeInsight(map[string]any{"summary": "only this"})
	assert.Equal(t, "only this", insight.Summary)
	assert.Empty(t, insight.KeyPoints)
	assert.Empty(t, string(insight.RiskLevel))
	assert.Empty(t, insight.RiskReason)
}

func TestDecodeInsight_NonStringKeyPoints(t *testing.T) {
	insight := decodeInsight(map[string]any{"key_points": []any{"a", float64(2)}})
	assert.Equal(t, []string{"a", "2"}, insight.KeyPoints)
}
