package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"google.golang.org/genai"
)

const geminiDefaultModel = "gemini-2.0-flash"

// GeminiProvider is a thin client for the hosted Gemini API. One attempt per
// call, no retry or backoff; callers bound the call with a context deadline.
type GeminiProvider struct {
	client       *genai.Client
	defaultModel string
}

// NewGeminiProvider creates a Gemini client. The API key is required; its
// absence is a ConfigurationError so callers can refuse to start serving.
func NewGeminiProvider(ctx context.Context, apiKey, defaultModel string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, &ConfigurationError{Field: "GEMINI_API_KEY"}
	}
	if defaultModel == "" {
		defaultModel = geminiDefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &GeminiProvider{client: client, defaultModel: defaultModel}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Chat sends a single completion request and returns the raw text result.
// Any transport or API failure comes back as an *UpstreamError.
func (p *GeminiProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Message == "" {
		return nil, errors.New("gemini: empty message")
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: req.Message}},
	}}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.MaxTokens > 0 {
		maxTokens := min(req.MaxTokens, math.MaxInt32)
		// #nosec G115 -- bounded by min above
		config.MaxOutputTokens = int32(maxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, newUpstreamError("gemini", model, err)
	}

	text := collectText(resp)
	if text == "" {
		return nil, newUpstreamError("gemini", model, errors.New("empty completion"))
	}

	out := &ChatResponse{Content: text, Model: model}
	if u := resp.UsageMetadata; u != nil {
		out.Usage = &Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}

	slog.Debug("gemini completion", "model", model, "chars", len(text))
	return out, nil
}

// collectText concatenates text parts from the first candidate.
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var text string
	for _, part := range cand.Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	return text
}
