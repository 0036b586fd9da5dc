// Package middleware provides composable wrappers for LLM clients: transport
// retry, request logging, and Prometheus metrics.
package middleware

import (
	"context"
	"errors"
	"time"

	"discoverycoach/pkg/llm"
	"discoverycoach/pkg/llm/llmerrors"
	"discoverycoach/pkg/logx"
)

// RetryConfig defines transport-level retry behavior. The engine's own retry
// loop handles semantic retries; this layer only papers over a single
// transient transport failure per call.
type RetryConfig struct {
	MaxAttempts  int           // Total attempts including the initial call
	InitialDelay time.Duration // Delay before the retry
}

// DefaultRetryConfig allows exactly one transport retry.
//
//nolint:gochecknoglobals // Sensible default config pattern
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:  2,
	InitialDelay: 500 * time.Millisecond,
}

// shouldRetry reports whether a classified error is worth one more attempt.
// Context cancellation from the caller is never retried.
func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return llmerrors.Classify(err).IsRetryable()
}

// Retry returns middleware that retries a failed completion once.
func Retry(cfg RetryConfig) llm.Middleware {
	logger := logx.NewLogger("llm")

	return func(next llm.Client) llm.Client {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				var lastErr error
				for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
					if attempt > 1 {
						logger.Warn("transport retry %d/%d for %s: %v",
							attempt-1, cfg.MaxAttempts-1, next.ModelName(), lastErr)
						select {
						case <-ctx.Done():
							return llm.CompletionResponse{}, ctx.Err()
						case <-time.After(cfg.InitialDelay):
						}
					}

					resp, err := next.Complete(ctx, req)
					if err == nil {
						return resp, nil
					}
					lastErr = err
					if !shouldRetry(err) {
						break
					}
				}
				return llm.CompletionResponse{}, lastErr
			},
			next.ModelName,
		)
	}
}
