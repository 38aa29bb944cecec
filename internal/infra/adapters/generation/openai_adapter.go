package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fashion-ai-studio/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.GenerationProvider = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements adapter.GenerationProvider using the Images API.
type OpenAIAdapter struct {
	apiKey string
	base   string // e.g., https://api.openai.com/v1
	model  string
	client *http.Client
}

func NewOpenAIAdapter(apiKey, model, base string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-image-1"
	}
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	return &OpenAIAdapter{
		apiKey: apiKey,
		base:   base,
		model:  model,
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (o *OpenAIAdapter) Name() string { return "openai" }

func (o *OpenAIAdapter) Generate(ctx context.Context, req adapter.GenerationRequest) (*adapter.GenerationResult, error) {
	prompt := composePrompt(req)

	reqBody := struct {
		Model          string `json:"model"`
		Prompt         string `json:"prompt"`
		N              int    `json:"n"`
		ResponseFormat string `json:"response_format"`
	}{Model: o.model, Prompt: prompt, N: 1, ResponseFormat: "b64_json"}

	b, _ := json.Marshal(reqBody)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.base+"/images/generations", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openai http %d", resp.StatusCode)
	}

	var payload struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 || payload.Data[0].B64JSON == "" {
		return nil, errors.New("openai: empty image response")
	}

	data, err := base64.StdEncoding.DecodeString(payload.Data[0].B64JSON)
	if err != nil {
		return nil, err
	}
	return &adapter.GenerationResult{Data: data, ContentType: "image/png"}, nil
}

// composePrompt folds presets and the negative prompt into one instruction
// string, since the Images API has no structured fields for them.
func composePrompt(req adapter.GenerationRequest) string {
	var sb strings.Builder
	sb.WriteString(req.Prompt)
	if req.ModelPreset != "" {
		sb.WriteString(". Style preset: " + req.ModelPreset)
	}
	if req.PosePreset != "" {
		sb.WriteString(". Pose: " + req.PosePreset)
	}
	if req.ScenePreset != "" {
		sb.WriteString(". Scene: " + req.ScenePreset)
	}
	if req.NegativePrompt != "" {
		sb.WriteString(". Avoid: " + req.NegativePrompt)
	}
	if req.InputURL != "" {
		sb.WriteString(". Reference image: " + req.InputURL)
	}
	return sb.String()
}
