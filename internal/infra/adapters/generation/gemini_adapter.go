package generation

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"fashion-ai-studio/internal/domain/ports/adapter"
)

var _ adapter.GenerationProvider = (*GeminiAdapter)(nil)

type GeminiAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiAdapter creates a Gemini adapter using the official SDK.
func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, model string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	if model == "" {
		model = "gemini-2.0-flash-preview-image-generation"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, model: model}, nil
}

func (g *GeminiAdapter) Name() string { return "gemini" }

func (g *GeminiAdapter) Generate(ctx context.Context, req adapter.GenerationRequest) (*adapter.GenerationResult, error) {
	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: composePrompt(req)}}, Role: "user"},
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, err
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				ct := part.InlineData.MIMEType
				if ct == "" {
					ct = "image/png"
				}
				return &adapter.GenerationResult{Data: part.InlineData.Data, ContentType: ct}, nil
			}
		}
	}
	return nil, errors.New("gemini: response contained no image data")
}
