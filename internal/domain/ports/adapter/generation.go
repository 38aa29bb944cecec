package adapter

import "context"

// GenerationRequest is the opaque request handed to the external provider.
// InputURL, when set, is a short-lived signed URL to the source asset.
type GenerationRequest struct {
	Prompt         string
	NegativePrompt string
	ModelPreset    string
	PosePreset     string
	ScenePreset    string
	InputURL       string
	Params         map[string]interface{}
}

// GenerationResult carries the produced bytes back to the worker.
type GenerationResult struct {
	Data        []byte
	ContentType string
}

// GenerationProvider is the port for the external image/video generation
// service. Implementations must respect ctx cancellation; the worker bounds
// every call with the configured timeout.
type GenerationProvider interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}
