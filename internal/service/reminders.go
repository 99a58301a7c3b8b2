// Package service orchestrates reminder use cases over the record store and
// the notification dispatcher.
package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/acelee0621/memenote/internal/model"
	"github.com/acelee0621/memenote/internal/store"
)

// Dispatcher schedules the two notification jobs for a new reminder.
type Dispatcher interface {
	Schedule(reminder *model.Reminder) (createdJobID, triggeredJobID string, err error)
}

// ReminderService owns the reminder lifecycle. Create is the notification
// trigger point: scheduling runs after the durable write and its failure is
// logged, never propagated, so a broken job runner cannot fail or roll back
// reminder creation.
type ReminderService struct {
	store      store.Store
	dispatcher Dispatcher
	log        zerolog.Logger
}

func NewReminderService(s store.Store, d Dispatcher, log zerolog.Logger) *ReminderService {
	return &ReminderService{store: s, dispatcher: d, log: log}
}

func (s *ReminderService) Create(ctx context.Context, r *model.Reminder) (*model.Reminder, error) {
	if r.Message == "" {
		return nil, model.ErrValidation
	}
	if r.RemindTime.IsZero() {
		return nil, model.ErrValidation
	}

	out, err := s.store.Reminders().Create(ctx, r)
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		createdID, triggeredID, err := s.dispatcher.Schedule(out)
		if err != nil {
			// Best-effort contract: the reminder exists; viewers fall back on
			// its durable flags rather than the live stream.
			s.log.Warn().Err(err).Int64("reminder_id", out.ID).
				Msg("notification scheduling failed, reminder kept")
		} else {
			s.log.Info().Int64("reminder_id", out.ID).
				Str("created_job", createdID).
				Str("triggered_job", triggeredID).
				Msg("notification jobs scheduled")
		}
	}
	return out, nil
}

func (s *ReminderService) Get(ctx context.Context, userID, id int64) (*model.Reminder, error) {
	return s.store.Reminders().GetByID(ctx, userID, id)
}

func (s *ReminderService) List(ctx context.Context, req model.ListRemindersRequest) ([]*model.Reminder, error) {
	return s.store.Reminders().List(ctx, req)
}

func (s *ReminderService) Update(ctx context.Context, userID, id int64, req model.UpdateReminderRequest) (*model.Reminder, error) {
	return s.store.Reminders().Update(ctx, userID, id, req)
}

func (s *ReminderService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.Reminders().Delete(ctx, userID, id)
}

// Acknowledge flips the durable acknowledged flag for the owner.
func (s *ReminderService) Acknowledge(ctx context.Context, userID, id int64) (*model.Reminder, error) {
	ack := true
	return s.store.Reminders().Update(ctx, userID, id, model.UpdateReminderRequest{IsAcknowledged: &ack})
}
