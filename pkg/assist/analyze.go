package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"

	"github.com/tablesight/tablesight/pkg/audio/pcm"
	"github.com/tablesight/tablesight/pkg/frame"
)

// Analyzer runs a one-shot image analysis against a non-realtime model.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string, img *frame.Image) (string, error)
}

// deepThinkingBudget is the token budget granted to the pro model's thinking
// phase during deep analysis.
const deepThinkingBudget int32 = 8192

// GenAIAnalyzer is the production Analyzer backed by the GenAI SDK.
type GenAIAnalyzer struct {
	client *genai.Client
	model  string
}

// NewGenAIAnalyzer creates an analyzer using the given model.
func NewGenAIAnalyzer(ctx context.Context, apiKey, model string) (*GenAIAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("assist: genai client: %w", err)
	}
	return &GenAIAnalyzer{client: client, model: model}, nil
}

// Analyze sends the frame and prompt, awaits the single response and returns
// its text.
func (g *GenAIAnalyzer) Analyze(ctx context.Context, prompt string, img *frame.Image) (string, error) {
	raw, err := pcm.DecodeBase64(img.Data)
	if err != nil {
		return "", fmt.Errorf("assist: decode frame: %w", err)
	}

	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: raw}},
			{Text: prompt},
		},
	}}
	cfg := &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(deepThinkingBudget),
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		if e, ok := err.(*apierror.APIError); ok {
			err = e.Unwrap()
		}
		return "", fmt.Errorf("assist: deep analysis: %w", err)
	}

	return responseText(resp), nil
}

// Summarize produces a one-line summary of a finished session's transcript.
// Intended for the lite model; no thinking budget is granted.
func (g *GenAIAnalyzer) Summarize(ctx context.Context, transcript string) (string, error) {
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: "Summarize this poker session transcript in one short line:\n\n" + transcript},
		},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		if e, ok := err.(*apierror.APIError); ok {
			err = e.Unwrap()
		}
		return "", fmt.Errorf("assist: summarize: %w", err)
	}
	return strings.TrimSpace(responseText(resp)), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
