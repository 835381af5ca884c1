// Package assistant wraps the generative-text service behind a narrow port.
//
// The service is a black box: every call may fail or return nonsense. The
// Advisor turns each failure into a fixed fallback value, so callers never
// see an error from it.
package assistant

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable marks a failed or unconfigured completion service.
	ErrUnavailable = errors.New("assistant unavailable")
	ErrEmptyReply  = errors.New("assistant returned an empty reply")
)

// Prompt is one completion request. JSON asks the service for a JSON body.
type Prompt struct {
	Text string
	JSON bool
}

// Completer turns a prompt into text.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, p Prompt) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, p Prompt) (string, error) { return f(ctx, p) }
