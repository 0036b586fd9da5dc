package middleware

import (
	"context"
	"time"

	"discoverycoach/pkg/llm"
	"discoverycoach/pkg/logx"
)

// Logging returns middleware that logs completion calls with timing and outcome.
func Logging(logger *logx.Logger) llm.Middleware {
	if logger == nil {
		logger = logx.NewLogger("llm")
	}

	return func(next llm.Client) llm.Client {
		return llm.WrapClient(
			func(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResponse, error) {
				model := next.ModelName()
				logger.Debug("completion start: model=%s messages=%d temp=%.2f",
					model, len(req.Messages), req.Temperature)

				start := time.Now()
				resp, err := next.Complete(ctx, req)
				elapsed := time.Since(start)

				if err != nil {
					logger.Warn("completion failed: model=%s elapsed=%s err=%v", model, elapsed, err)
					return resp, err
				}

				logger.Debug("completion done: model=%s elapsed=%s chars=%d stop=%s",
					model, elapsed, len(resp.Content), resp.StopReason)
				return resp, nil
			},
			next.ModelName,
		)
	}
}
