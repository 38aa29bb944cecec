package payment

import (
	"encoding/json"

	"fashion-ai-studio/internal/domain"
	"fashion-ai-studio/internal/domain/model"
)

// DecodeEvent parses a raw webhook body into a CheckoutEvent. Only the fields
// the processor branches on are typed; the rest is retained as the raw
// payload for the durable event record.
func DecodeEvent(body []byte) (*model.CheckoutEvent, error) {
	var ev model.CheckoutEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if ev.ID == "" || ev.Type == "" {
		return nil, domain.ErrInvalidPayload
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err == nil {
		ev.Raw = raw
	}
	return &ev, nil
}
