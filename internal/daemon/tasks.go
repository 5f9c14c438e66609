package daemon

import (
	"context"
	"log/slog"
	"time"
)

type Sweeper interface {
	Sweep() int
}

// LimiterSweepTask drops expired login windows from an in-process limiter.
func LimiterSweepTask(limiter Sweeper, interval time.Duration, logger *slog.Logger) DaemonFunc {
	return Every(interval, func(ctx context.Context) error {
		remaining := limiter.Sweep()
		logger.DebugContext(ctx, "Login limiter swept", "tracked", remaining)
		return nil
	})
}

type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// StorageProbeTask checks the document storage periodically and logs when
// it becomes unreachable and when it recovers.
func StorageProbeTask(checker HealthChecker, interval time.Duration, logger *slog.Logger) DaemonFunc {
	return func(ctx context.Context, name string) error {
		healthy := true
		return Every(interval, func(ctx context.Context) error {
			probeCtx, cancel := context.WithTimeout(ctx, interval/2)
			defer cancel()

			err := checker.HealthCheck(probeCtx)
			switch {
			case err != nil && healthy:
				logger.ErrorContext(ctx, "Document storage unreachable", "error", err)
			case err == nil && !healthy:
				logger.InfoContext(ctx, "Document storage reachable again")
			}
			healthy = err == nil
			return nil
		})(ctx, name)
	}
}
