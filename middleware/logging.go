package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/zee-sandev/outscope"
)

// LoggingInterceptor creates an interceptor that logs procedure calls using
// slog. It logs the start and end of each call, including duration and
// error status.
func LoggingInterceptor(logger *slog.Logger) outscope.UnaryInterceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, req any, info *outscope.CallInfo, handler outscope.HandlerFunc) (any, error) {
		start := time.Now()

		logger.InfoContext(ctx, "request started",
			slog.String("procedure", info.Procedure),
		)

		res, err := handler(ctx, req)
		duration := time.Since(start)

		if err != nil {
			logger.ErrorContext(ctx, "request failed",
				slog.String("procedure", info.Procedure),
				slog.Duration("duration", duration),
				slog.Any("error", err),
			)
		} else {
			logger.InfoContext(ctx, "request completed",
				slog.String("procedure", info.Procedure),
				slog.Duration("duration", duration),
			)
		}

		return res, err
	}
}
