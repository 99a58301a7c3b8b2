package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/acelee0621/memenote/internal/bus"
	"github.com/acelee0621/memenote/internal/model"
	"github.com/acelee0621/memenote/internal/notify"
)

// JobID derives the deterministic job identity for one notification moment
// of one reminder. Both schedule calls for a retried creation produce the
// same ids, so the runner deduplicates them.
func JobID(eventType notify.EventType, reminderID int64) string {
	return fmt.Sprintf("reminder.%s.%d", eventType, reminderID)
}

// Dispatcher converts a freshly created reminder into its two notification
// jobs and publishes each envelope on the broadcast channel when it fires.
type Dispatcher struct {
	runner *Runner
	log    zerolog.Logger
}

// NewDispatcher wires a dispatcher to b. The returned dispatcher owns its
// runner; call Stop on shutdown.
func NewDispatcher(b *bus.Bus, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{log: log}
	d.runner = NewRunner(func(ctx context.Context, job Job) {
		b.Publish(notify.Channel, job.Payload)
		log.Info().Str("job_id", job.ID).Msg("notification published")
	}, log)
	return d
}

// Schedule submits the "created" job (immediate) and the "triggered" job
// (at the reminder's due time; past due times fire immediately). It returns
// both job ids. Failure here must never roll back the reminder write: the
// caller logs and continues.
func (d *Dispatcher) Schedule(reminder *model.Reminder) (createdID, triggeredID string, err error) {
	createdID = JobID(notify.EventCreated, reminder.ID)
	triggeredID = JobID(notify.EventTriggered, reminder.ID)

	createdPayload, err := notify.Encode(envelopeFor(notify.EventCreated, reminder))
	if err != nil {
		return "", "", err
	}
	triggeredPayload, err := notify.Encode(envelopeFor(notify.EventTriggered, reminder))
	if err != nil {
		return "", "", err
	}

	now := time.Now()
	if err := d.runner.Submit(Job{ID: createdID, RunAt: now, Payload: createdPayload}); err != nil {
		return "", "", err
	}
	if err := d.runner.Submit(Job{ID: triggeredID, RunAt: reminder.RemindTime, Payload: triggeredPayload}); err != nil {
		return "", "", err
	}
	return createdID, triggeredID, nil
}

// Stop shuts down the underlying runner.
func (d *Dispatcher) Stop() { d.runner.Stop() }

// Runner exposes the underlying runner for introspection in tests.
func (d *Dispatcher) Runner() *Runner { return d.runner }

func envelopeFor(et notify.EventType, r *model.Reminder) notify.Envelope {
	return notify.Envelope{
		EventType:  et,
		ReminderID: r.ID,
		UserID:     r.UserID,
		NoteID:     r.NoteID,
		DueTime:    r.RemindTime.UTC(),
		Message:    r.Message,
	}
}
