// Package provider wraps the external messaging APIs. Each adapter formats
// one provider-specific payload, issues one HTTP call and returns the
// provider message ID. Recording outcomes is the caller's responsibility.
package provider

import (
	"context"
	"fmt"
)

// Payload is the channel-agnostic message content handed to an adapter.
type Payload struct {
	Text           string
	Subject        string
	TemplateName   string
	TemplateParams []string
}

// Response carries the fields callers need from a successful provider call.
type Response struct {
	MessageID string
	Status    string
}

type Provider interface {
	Send(ctx context.Context, destination string, payload Payload) (*Response, error)
}

// Error is a typed provider failure carrying the upstream status code and
// the provider's own error text when it could be extracted.
type Error struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}
