package middleware

import (
	"context"
	"log/slog"
	"time"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/queries"
)

// Recorder receives one observation per dispatched message.
type Recorder interface {
	ObserveMessage(kind, key string, elapsed time.Duration, err error)
}

func ObserveCommands(rec Recorder, logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			elapsed := time.Since(start)
			if rec != nil {
				rec.ObserveMessage("command", cmd.Key(), elapsed, err)
			}
			if err != nil {
				logger.Debug("command failed", "command", cmd.Key(), "duration", elapsed, "error", err)
			}
			return res, err
		})
	}
}

func ObserveQueries(rec Recorder) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			if rec != nil {
				rec.ObserveMessage("query", q.Key(), time.Since(start), err)
			}
			return res, err
		})
	}
}
