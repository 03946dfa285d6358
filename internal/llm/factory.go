package llm

import (
	"context"
	"time"

	"fjacquet/voice-ledger/internal/config"
	"fjacquet/voice-ledger/internal/ledgererror"
	"fjacquet/voice-ledger/internal/logging"
)

// NewFromConfig builds the configured provider wrapped with rate limiting,
// retries and a per-attempt timeout.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger logging.Logger) (Provider, error) {
	if cfg == nil {
		return nil, &ledgererror.ConfigurationError{Key: "ai", Reason: "no configuration"}
	}

	var (
		base Provider
		err  error
	)
	switch cfg.AI.Provider {
	case config.ProviderGemini:
		base, err = NewGeminiClient(ctx, GeminiConfig{
			APIKey:      cfg.AI.GeminiAPIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
		}, logger)
	case config.ProviderGroq:
		base, err = NewGroqClient(GroqConfig{
			APIKey:      cfg.AI.GroqAPIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			BaseURL:     cfg.AI.BaseURL,
		}, logger)
	default:
		return nil, &ledgererror.ConfigurationError{Key: "ai.provider", Reason: "unsupported provider " + cfg.AI.Provider}
	}
	if err != nil {
		return nil, err
	}

	return Wrap(base, cfg.AI.RequestsPerMinute, cfg.AI.MaxRetries, cfg.BackoffBase(), cfg.Timeout(), logger), nil
}

// Wrap applies the standard decorators to a provider. Each retry attempt
// takes its own rate-limit token and gets its own timeout.
func Wrap(p Provider, requestsPerMinute, maxRetries int, backoffBase, timeout time.Duration, logger logging.Logger) Provider {
	var wrapped Provider = p
	if timeout > 0 {
		wrapped = &timeoutProvider{next: wrapped, timeout: timeout}
	}
	wrapped = NewRateLimited(wrapped, requestsPerMinute)
	return NewRetrying(wrapped, maxRetries, backoffBase, logger)
}

type timeoutProvider struct {
	next    Provider
	timeout time.Duration
}

func (t *timeoutProvider) Name() string { return t.next.Name() }

func (t *timeoutProvider) Unwrap() Provider { return t.next }

func (t *timeoutProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, req)
}
