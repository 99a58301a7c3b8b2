package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type flakyPinger struct{ fail atomic.Bool }

func (f *flakyPinger) HealthPing(ctx context.Context) error {
	if f.fail.Load() {
		return errors.New("ping failed")
	}
	return nil
}

func TestPingChecker_TracksDependency(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &flakyPinger{}
	c := NewPingChecker("store", p, time.Second, zerolog.Nop())
	go c.Start(ctx, 10*time.Millisecond)

	waitTrue(t, func() bool { return c.IsHealthy() })

	p.fail.Store(true)
	waitTrue(t, func() bool { return !c.IsHealthy() })

	p.fail.Store(false)
	waitTrue(t, func() bool { return c.IsHealthy() })
}
