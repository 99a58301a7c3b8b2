// Package trigger records fired notifications back into durable state.
package trigger

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/acelee0621/memenote/internal/bus"
	"github.com/acelee0621/memenote/internal/notify"
	"github.com/acelee0621/memenote/internal/store"
)

const (
	pollWait           = 1 * time.Second
	resubscribeBackoff = 1 * time.Second
)

// Recorder subscribes to the notification channel and flips the durable
// triggered flag when a triggered event arrives. It is the side-effect path
// viewers fall back on when they miss the live stream, so it runs for the
// whole process lifetime regardless of connected clients.
type Recorder struct {
	store store.Store
	bus   *bus.Bus
	log   zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRecorder(s store.Store, b *bus.Bus, log zerolog.Logger) *Recorder {
	return &Recorder{store: s, bus: b, log: log.With().Str("component", "trigger-recorder").Logger()}
}

// Start subscribes and launches the recording loop. It returns an error only
// when the initial subscription fails.
func (r *Recorder) Start(ctx context.Context) error {
	sub, err := r.bus.Subscribe(notify.Channel)
	if err != nil {
		return err
	}

	r.mu.Lock()
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	r.mu.Unlock()

	go r.run(ctx, sub)
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (r *Recorder) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Recorder) run(ctx context.Context, sub *bus.Subscription) {
	defer close(r.done)
	defer func() { sub.Unsubscribe() }()

	for {
		payload, err := sub.Next(ctx, pollWait)
		switch {
		case err == nil:
			r.record(ctx, payload)
		case errors.Is(err, bus.ErrTimeout):
			// idle poll
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return
		case errors.Is(err, bus.ErrClosed):
			next, serr := r.resubscribe(ctx)
			if serr != nil {
				return
			}
			sub.Unsubscribe()
			sub = next
		default:
			r.log.Error().Err(err).Msg("recorder loop failed")
			return
		}
	}
}

func (r *Recorder) resubscribe(ctx context.Context) (*bus.Subscription, error) {
	for {
		sub, err := r.bus.Subscribe(notify.Channel)
		if err == nil {
			return sub, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(resubscribeBackoff):
		}
	}
}

func (r *Recorder) record(ctx context.Context, payload []byte) {
	env, err := notify.Decode(payload)
	if err != nil {
		r.log.Warn().Err(err).Msg("dropping malformed notification")
		return
	}
	if env.EventType != notify.EventTriggered {
		return
	}
	if err := r.store.Reminders().MarkTriggered(ctx, env.ReminderID); err != nil {
		r.log.Error().Err(err).Int64("reminder_id", env.ReminderID).
			Msg("failed to persist triggered flag")
		return
	}
	r.log.Debug().Int64("reminder_id", env.ReminderID).Msg("triggered flag persisted")
}
