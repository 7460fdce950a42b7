package analyzer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/docinsight-cli/internal/model"
	"github.com/sells-group/docinsight-cli/pkg/openrouter"
)

// Fixed decoding parameters for every analysis call. Extraction wants the
// most deterministic output the endpoint will give us.
const (
	analysisTemperature = 0.0
	maxCompletionTokens = 600
)

// Analyzer turns a document and a question into a StructuredInsight via a
// bounded retry/repair ladder over an unreliable completion endpoint.
// Stateless across calls; safe for concurrent use.
type Analyzer struct {
	client openrouter.Client
	model  string
}

// New creates an Analyzer. An empty model falls back to the client's default.
func New(client openrouter.Client, model string) *Analyzer {
	return &Analyzer{client: client, model: model}
}

// Analyze runs the three-attempt extraction ladder:
//
//  1. direct: analysis prompt, one model call, sanitize/parse
//  2. repair: re-fetch a raw response with the original prompt, then ask
//     the model to fix that raw output, sanitize/parse the fix
//  3. final bare retry of attempt 1
//
// Errors from attempts 1 and 2 are retry triggers regardless of kind —
// transport failures, upstream 5xx, and unparseable output are all treated
// the same. Only attempt 3's error surfaces, wrapped in *AnalysisError.
// Worst case is exactly four model calls.
func (a *Analyzer) Analyze(ctx context.Context, documentText, question string) (*model.StructuredInsight, error) {
	prompt := BuildAnalysisPrompt(documentText, question)

	insight, err := a.attempt(ctx, prompt)
	if err == nil {
		return insight, nil
	}
	zap.L().Warn("analyze: direct extraction failed, repairing", zap.Error(err))

	insight, err = a.repair(ctx, prompt)
	if err == nil {
		return insight, nil
	}
	zap.L().Warn("analyze: repair failed, final retry", zap.Error(err))

	insight, err = a.attempt(ctx, prompt)
	if err != nil {
		return nil, &AnalysisError{Err: err}
	}
	return insight, nil
}

// attempt performs one direct extraction: model call, sanitize, decode.
func (a *Analyzer) attempt(ctx context.Context, prompt []openrouter.Message) (*model.StructuredInsight, error) {
	raw, err := a.callModel(ctx, prompt)
	if err != nil {
		return nil, err
	}
	obj, err := SanitizeAndParse(raw)
	if err != nil {
		return nil, err
	}
	return decodeInsight(obj), nil
}

// repair re-fetches a raw response with the original prompt and asks the
// model to fix it. The raw text is passed through unsanitized so the model
// sees exactly what it produced.
func (a *Analyzer) repair(ctx context.Context, prompt []openrouter.Message) (*model.StructuredInsight, error) {
	raw, err := a.callModel(ctx, prompt)
	if err != nil {
		return nil, err
	}
	fixed, err := a.callModel(ctx, BuildRepairPrompt(raw))
	if err != nil {
		return nil, err
	}
	obj, err := SanitizeAndParse(fixed)
	if err != nil {
		return nil, err
	}
	return decodeInsight(obj), nil
}

func (a *Analyzer) callModel(ctx context.Context, messages []openrouter.Message) (string, error) {
	temp := analysisTemperature
	maxTokens := maxCompletionTokens
	resp, err := a.client.ChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model:          a.model,
		Messages:       messages,
		Temperature:    &temp,
		MaxTokens:      &maxTokens,
		ResponseFormat: &openrouter.ResponseFormat{Type: openrouter.ResponseFormatJSONObject},
	})
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}

// decodeInsight maps the parsed JSON object onto a StructuredInsight.
// Fields are taken as parsed — no defaults are filled in and risk_level is
// not validated against the enum, since the record mirrors what the model
// actually returned.
func decodeInsight(obj map[string]any) *model.StructuredInsight {
	insight := &model.StructuredInsight{}

	if points, ok := obj["key_points"].([]any); ok {
		insight.KeyPoints = make([]string, 0, len(points))
		for _, p := range points {
			if s, ok := p.(string); ok {
				insight.KeyPoints = append(insight.KeyPoints, s)
			} else {
				insight.KeyPoints = append(insight.KeyPoints, fmt.Sprintf("%v", p))
			}
		}
	}
	if s, ok := obj["risk_level"].(string); ok {
		insight.RiskLevel = model.RiskLevel(s)
	}
	if s, ok := obj["risk_reason"].(string); ok {
		insight.RiskReason = s
	}
	if s, ok := obj["summary"].(string); ok {
		insight.Summary = s
	}
	return insight
}
