package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fjacquet/voice-ledger/internal/ledgererror"
	"fjacquet/voice-ledger/internal/logging"

	"github.com/cenkalti/backoff/v4"
)

const maxRetryInterval = 30 * time.Second

// Retrying retries transient provider failures with jittered exponential
// backoff. Malformed or empty replies are returned as-is.
type Retrying struct {
	next       Provider
	maxRetries int
	base       time.Duration
	log        logging.Logger
	// timer is nil outside tests; backoff then uses a real timer.
	timer backoff.Timer
}

// NewRetrying wraps next. maxRetries counts extra attempts after the first.
func NewRetrying(next Provider, maxRetries int, base time.Duration, logger logging.Logger) *Retrying {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retrying{
		next:       next,
		maxRetries: maxRetries,
		base:       base,
		log:        logger,
	}
}

// Name returns the wrapped provider's name.
func (r *Retrying) Name() string {
	return r.next.Name()
}

func (r *Retrying) policy(ctx context.Context) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.base
	exp.RandomizationFactor = 0.5
	exp.Multiplier = 2
	exp.MaxInterval = maxRetryInterval
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(r.maxRetries)), ctx)
}

// Complete calls the wrapped provider until it succeeds, fails permanently,
// or the retry budget is spent. The last provider error is returned even when
// ctx ends during a wait.
func (r *Retrying) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var (
		out     string
		lastErr error
		attempt int
	)

	operation := func() error {
		var err error
		out, err = r.next.Complete(ctx, req)
		if err == nil {
			return nil
		}
		lastErr = err
		if !Retryable(err) || ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, delay time.Duration) {
		attempt++
		r.log.Warn("Retrying provider call",
			logging.F(logging.FieldProvider, r.next.Name()),
			logging.F(logging.FieldAttempt, attempt),
			logging.F(logging.FieldDelay, delay.Milliseconds()),
			logging.F(logging.FieldError, err.Error()))
	}

	if err := backoff.RetryNotifyWithTimer(operation, r.policy(ctx), notify, r.timer); err != nil {
		if lastErr != nil {
			return "", lastErr
		}
		return "", err
	}
	return out, nil
}

// Retryable reports whether err is a provider failure worth another attempt:
// rate limiting, bad gateway, unavailable or gateway timeout.
func Retryable(err error) bool {
	var pe *ledgererror.ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Unwrap returns the wrapped provider.
func (r *Retrying) Unwrap() Provider { return r.next }
