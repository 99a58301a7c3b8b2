// Package scheduler turns reminder creation into notification jobs: an
// immediate "created" job and a "triggered" job fired at the reminder's due
// time. Job identities are deterministic so retried submissions never yield
// duplicate firings.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnavailable reports that the runner is not accepting jobs. Callers treat
// it as a non-fatal warning: the reminder record itself stays created.
var ErrUnavailable = errors.New("scheduler: job runner unavailable")

// Job is a unit of delayed work. ID is the idempotency key: submitting the
// same ID twice is a no-op, whether the first submission is still pending or
// has already run.
type Job struct {
	ID      string
	RunAt   time.Time
	Payload []byte
}

// HandlerFunc executes a job's payload when it fires.
type HandlerFunc func(ctx context.Context, job Job)

// Runner executes jobs around their RunAt using one timer per pending job.
// A RunAt in the past fires immediately rather than being dropped.
type Runner struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]struct{}
	handler HandlerFunc
	log     zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped bool
}

// NewRunner constructs a runner that invokes handler for every fired job.
func NewRunner(handler HandlerFunc, log zerolog.Logger) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		pending: make(map[string]*time.Timer),
		seen:    make(map[string]struct{}),
		handler: handler,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit schedules job. Duplicate IDs are idempotent re-submissions.
// Returns ErrUnavailable after Stop.
func (r *Runner) Submit(job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrUnavailable
	}
	if _, ok := r.seen[job.ID]; ok {
		r.log.Debug().Str("job_id", job.ID).Msg("duplicate job id, ignoring")
		return nil
	}
	r.seen[job.ID] = struct{}{}

	delay := time.Until(job.RunAt)
	if delay < 0 {
		delay = 0
	}
	r.wg.Add(1)
	r.pending[job.ID] = time.AfterFunc(delay, func() { r.fire(job) })
	r.log.Debug().Str("job_id", job.ID).Time("run_at", job.RunAt).Msg("job scheduled")
	return nil
}

func (r *Runner) fire(job Job) {
	defer r.wg.Done()
	r.mu.Lock()
	delete(r.pending, job.ID)
	stopped := r.stopped
	r.mu.Unlock()
	if stopped {
		return
	}
	r.handler(r.ctx, job)
}

// Stop cancels every pending timer and waits for in-flight handlers.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	for id, timer := range r.pending {
		if timer.Stop() {
			r.wg.Done()
		}
		delete(r.pending, id)
	}
	r.mu.Unlock()
	r.cancel()
	r.wg.Wait()
}

// PendingCount reports how many jobs are waiting to fire.
func (r *Runner) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
