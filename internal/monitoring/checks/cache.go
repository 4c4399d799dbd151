package checks

import (
	"context"
	"time"

	"github.com/charlesng35/userhub/internal/monitoring"
)

// Pinger is the slice of the cache store the probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Cache builds a probe for the cache store. A failing cache degrades the
// service rather than taking it down: reads fall through to the durable store.
func Cache(store Pinger) monitoring.Check {
	return monitoring.NewCheck("cache", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if store == nil {
			return monitoring.ProbeResult{
				Component: "cache",
				Status:    monitoring.StatusDegraded,
				Details:   "cache store not configured",
				Duration:  time.Since(start),
			}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(ctx))
		defer cancel()

		if err := store.Ping(probeCtx); err != nil {
			result := monitoring.ResultFromError("cache", err, time.Since(start))
			result.Status = monitoring.StatusDegraded
			return result
		}

		return monitoring.ProbeResult{
			Component: "cache",
			Status:    monitoring.StatusUp,
			Duration:  time.Since(start),
		}
	})
}
