package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acelee0621/memenote/internal/model"
	"github.com/acelee0621/memenote/internal/store"
	"github.com/acelee0621/memenote/internal/store/sqlite"
)

type fakeDispatcher struct {
	calls []int64
	err   error
}

func (f *fakeDispatcher) Schedule(r *model.Reminder) (string, string, error) {
	f.calls = append(f.calls, r.ID)
	if f.err != nil {
		return "", "", f.err
	}
	return "created-job", "triggered-job", nil
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "memenote.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewWithDB(db)
}

func TestCreateSchedulesNotifications(t *testing.T) {
	d := &fakeDispatcher{}
	svc := NewReminderService(newTestStore(t), d, zerolog.Nop())

	out, err := svc.Create(context.Background(), &model.Reminder{
		UserID:     1,
		RemindTime: time.Now().Add(time.Minute),
		Message:    "Buy milk",
	})
	require.NoError(t, err)
	require.Len(t, d.calls, 1)
	assert.Equal(t, out.ID, d.calls[0])
}

func TestCreateSurvivesSchedulingFailure(t *testing.T) {
	d := &fakeDispatcher{err: errors.New("job runner unreachable")}
	s := newTestStore(t)
	svc := NewReminderService(s, d, zerolog.Nop())

	out, err := svc.Create(context.Background(), &model.Reminder{
		UserID:     1,
		RemindTime: time.Now().Add(time.Minute),
		Message:    "still created",
	})
	require.NoError(t, err)

	// The durable write stands even though scheduling failed.
	got, err := s.Reminders().GetByID(context.Background(), 1, out.ID)
	require.NoError(t, err)
	assert.Equal(t, "still created", got.Message)
}

func TestCreateValidation(t *testing.T) {
	svc := NewReminderService(newTestStore(t), &fakeDispatcher{}, zerolog.Nop())

	_, err := svc.Create(context.Background(), &model.Reminder{
		UserID:     1,
		RemindTime: time.Now(),
	})
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = svc.Create(context.Background(), &model.Reminder{
		UserID:  1,
		Message: "no time",
	})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestAcknowledge(t *testing.T) {
	svc := NewReminderService(newTestStore(t), &fakeDispatcher{}, zerolog.Nop())

	out, err := svc.Create(context.Background(), &model.Reminder{
		UserID:     1,
		RemindTime: time.Now().Add(time.Minute),
		Message:    "ack me",
	})
	require.NoError(t, err)

	got, err := svc.Acknowledge(context.Background(), 1, out.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAcknowledged)

	_, err = svc.Acknowledge(context.Background(), 2, out.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
