package store

import (
	"context"

	"github.com/acelee0621/memenote/internal/model"
)

// Store exposes the persistence operations the notification pipeline and its
// HTTP surface require. Implementations live under internal/store/<driver>/.
type Store interface {
	Reminders() Reminders
}

// Reminders is the ownership-scoped reminder repository. Every query except
// MarkTriggered carries the owning user id; a mismatch reads as not found.
type Reminders interface {
	Create(ctx context.Context, r *model.Reminder) (*model.Reminder, error)
	GetByID(ctx context.Context, userID, id int64) (*model.Reminder, error)
	List(ctx context.Context, req model.ListRemindersRequest) ([]*model.Reminder, error)
	Update(ctx context.Context, userID, id int64, req model.UpdateReminderRequest) (*model.Reminder, error)
	Delete(ctx context.Context, userID, id int64) error

	// MarkTriggered flips the durable triggered flag. It is the side-effect
	// channel independent of live notification delivery, so it is keyed by
	// reminder id alone.
	MarkTriggered(ctx context.Context, id int64) error
}
