package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// PingChecker turns a HealthPinger into a periodic component checker with a
// cached result, so the health endpoint never blocks on a slow dependency.
type PingChecker struct {
	name    string
	pinger  HealthPinger
	timeout time.Duration
	healthy atomic.Int32
	log     zerolog.Logger
}

func NewPingChecker(name string, p HealthPinger, timeout time.Duration, log zerolog.Logger) *PingChecker {
	return &PingChecker{name: name, pinger: p, timeout: timeout, log: log}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) IsHealthy() bool { return c.healthy.Load() == 1 }

// Start probes the dependency on the given interval until ctx is canceled.
func (c *PingChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	probe := func() {
		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		if err := c.pinger.HealthPing(pctx); err != nil {
			if c.healthy.Swap(0) == 1 {
				c.log.Error().Err(err).Str("component", c.name).Msg("dependency unhealthy")
			}
			return
		}
		if c.healthy.Swap(1) == 0 {
			c.log.Info().Str("component", c.name).Msg("dependency healthy")
		}
	}

	probe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}
