package generation

import (
	"context"
	"time"

	"fashion-ai-studio/internal/domain/ports/adapter"
)

var _ adapter.GenerationProvider = (*SimulatedProvider)(nil)

// SimulatedProvider implements the generation port for local/dev runs: a
// fixed delay followed by a placeholder PNG. Useful for exercising the whole
// queue/retry/refund machinery without a provider account.
type SimulatedProvider struct {
	delay time.Duration
	// FailWith, when set, makes every call fail. Used to exercise the retry
	// and refund paths from dev tooling.
	FailWith error
}

func NewSimulatedProvider(delay time.Duration) *SimulatedProvider {
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &SimulatedProvider{delay: delay}
}

func (s *SimulatedProvider) Name() string { return "simulated" }

// placeholderPNG is a minimal 1x1 transparent PNG.
var placeholderPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func (s *SimulatedProvider) Generate(ctx context.Context, req adapter.GenerationRequest) (*adapter.GenerationResult, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	return &adapter.GenerationResult{Data: placeholderPNG, ContentType: "image/png"}, nil
}
