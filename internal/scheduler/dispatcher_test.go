package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acelee0621/memenote/internal/bus"
	"github.com/acelee0621/memenote/internal/model"
	"github.com/acelee0621/memenote/internal/notify"
)

func newReminder(id int64, due time.Time) *model.Reminder {
	noteID := int64(5)
	return &model.Reminder{
		ID:         id,
		UserID:     1,
		NoteID:     &noteID,
		RemindTime: due,
		Message:    "Buy milk",
	}
}

func nextEnvelope(t *testing.T, sub *bus.Subscription, wait time.Duration) notify.Envelope {
	t.Helper()
	payload, err := sub.Next(context.Background(), wait)
	require.NoError(t, err)
	env, err := notify.Decode(payload)
	require.NoError(t, err)
	return env
}

func TestScheduleProducesTwoDeterministicJobs(t *testing.T) {
	b := bus.New(0, zerolog.Nop())
	d := NewDispatcher(b, zerolog.Nop())
	defer d.Stop()

	r := newReminder(42, time.Now().Add(time.Hour))
	createdID, triggeredID, err := d.Schedule(r)
	require.NoError(t, err)

	assert.Equal(t, "reminder.created.42", createdID)
	assert.Equal(t, "reminder.triggered.42", triggeredID)
	assert.NotEqual(t, createdID, triggeredID)
}

func TestScheduleEmitsCreatedImmediately(t *testing.T) {
	b := bus.New(0, zerolog.Nop())
	sub, err := b.Subscribe(notify.Channel)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	d := NewDispatcher(b, zerolog.Nop())
	defer d.Stop()

	due := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	_, _, err = d.Schedule(newReminder(7, due))
	require.NoError(t, err)

	env := nextEnvelope(t, sub, time.Second)
	assert.Equal(t, notify.EventCreated, env.EventType)
	assert.Equal(t, int64(7), env.ReminderID)
	assert.Equal(t, "Buy milk", env.Message)
	assert.True(t, env.DueTime.Equal(due))

	// The triggered job is an hour away; nothing else arrives now.
	_, err = sub.Next(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, bus.ErrTimeout)
	assert.Equal(t, 1, d.Runner().PendingCount())
}

func TestScheduleFiresTriggeredAtDueTime(t *testing.T) {
	b := bus.New(0, zerolog.Nop())
	sub, err := b.Subscribe(notify.Channel)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	d := NewDispatcher(b, zerolog.Nop())
	defer d.Stop()

	_, _, err = d.Schedule(newReminder(9, time.Now().Add(60*time.Millisecond)))
	require.NoError(t, err)

	first := nextEnvelope(t, sub, time.Second)
	assert.Equal(t, notify.EventCreated, first.EventType)

	second := nextEnvelope(t, sub, time.Second)
	assert.Equal(t, notify.EventTriggered, second.EventType)
	assert.Equal(t, first.ReminderID, second.ReminderID)
}

func TestSchedulePastDueFiresImmediately(t *testing.T) {
	b := bus.New(0, zerolog.Nop())
	sub, err := b.Subscribe(notify.Channel)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	d := NewDispatcher(b, zerolog.Nop())
	defer d.Stop()

	_, _, err = d.Schedule(newReminder(3, time.Now().Add(-time.Minute)))
	require.NoError(t, err)

	types := map[notify.EventType]bool{}
	for i := 0; i < 2; i++ {
		env := nextEnvelope(t, sub, time.Second)
		types[env.EventType] = true
	}
	assert.True(t, types[notify.EventCreated])
	assert.True(t, types[notify.EventTriggered])
}

func TestScheduleTwiceIsIdempotent(t *testing.T) {
	b := bus.New(0, zerolog.Nop())
	sub, err := b.Subscribe(notify.Channel)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	d := NewDispatcher(b, zerolog.Nop())
	defer d.Stop()

	r := newReminder(11, time.Now().Add(40*time.Millisecond))
	id1, id2, err := d.Schedule(r)
	require.NoError(t, err)
	id1b, id2b, err := d.Schedule(r)
	require.NoError(t, err)
	assert.Equal(t, id1, id1b)
	assert.Equal(t, id2, id2b)

	// Exactly one created and one triggered envelope ever fire.
	first := nextEnvelope(t, sub, time.Second)
	second := nextEnvelope(t, sub, time.Second)
	assert.NotEqual(t, first.EventType, second.EventType)

	_, err = sub.Next(context.Background(), 100*time.Millisecond)
	assert.ErrorIs(t, err, bus.ErrTimeout)
}

func TestScheduleAfterStopFailsLoudly(t *testing.T) {
	b := bus.New(0, zerolog.Nop())
	d := NewDispatcher(b, zerolog.Nop())
	d.Stop()

	_, _, err := d.Schedule(newReminder(1, time.Now()))
	assert.ErrorIs(t, err, ErrUnavailable)
}
