// Package llm talks to the language-model providers that turn a spoken
// message into candidate records.
package llm

import (
	"context"
	"io"
)

// CompletionRequest is one extraction call.
type CompletionRequest struct {
	System string
	User   string
	// JSONMode asks the provider to constrain its reply to a JSON object
	// where it supports that.
	JSONMode bool
}

// Provider returns the raw text a model produced for a request.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Close releases the innermost provider's resources when it holds any,
// looking through decorators.
func Close(p Provider) error {
	for p != nil {
		if c, ok := p.(io.Closer); ok {
			return c.Close()
		}
		u, ok := p.(interface{ Unwrap() Provider })
		if !ok {
			return nil
		}
		p = u.Unwrap()
	}
	return nil
}
