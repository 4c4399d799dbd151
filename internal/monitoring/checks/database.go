package checks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/userhub/internal/monitoring"
)

const defaultProbeTimeout = 2 * time.Second

// Database builds a readiness probe that pings the durable store.
func Database(db *gorm.DB) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if db == nil {
			return monitoring.ProbeResult{
				Component: "database",
				Status:    monitoring.StatusDown,
				Details:   "database handle not configured",
				Duration:  time.Since(start),
			}
		}

		sqlDB, err := db.DB()
		if err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(ctx))
		defer cancel()

		if err := sqlDB.PingContext(probeCtx); err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}

		return monitoring.ProbeResult{
			Component: "database",
			Status:    monitoring.StatusUp,
			Duration:  time.Since(start),
		}
	})
}

func chooseTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < defaultProbeTimeout {
			return remaining
		}
	}
	return defaultProbeTimeout
}
