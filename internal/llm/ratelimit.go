package llm

import (
	"context"
	"time"

	"fjacquet/voice-ledger/internal/ledgererror"

	"golang.org/x/time/rate"
)

// RateLimited spaces calls to a provider so a burst of requests stays under
// the provider's per-minute quota.
type RateLimited struct {
	next    Provider
	limiter *rate.Limiter
}

// NewRateLimited allows requestsPerMinute calls per minute with a burst of one.
func NewRateLimited(next Provider, requestsPerMinute int) *RateLimited {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Name returns the wrapped provider's name.
func (r *RateLimited) Name() string {
	return r.next.Name()
}

// Complete waits for a token, then delegates.
func (r *RateLimited) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", &ledgererror.ProviderError{Provider: r.next.Name(), Err: err}
	}
	return r.next.Complete(ctx, req)
}

// Unwrap returns the wrapped provider.
func (r *RateLimited) Unwrap() Provider { return r.next }
