package model

import "time"

// Reminder is the durable record behind a scheduled notification.
// IsTriggered and IsAcknowledged are the source of truth for viewers;
// the live notification stream is best-effort and never updates them.
type Reminder struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	NoteID         *int64    `json:"note_id,omitempty"`
	RemindTime     time.Time `json:"reminder_time"`
	Message        string    `json:"message"`
	IsTriggered    bool      `json:"is_triggered"`
	IsAcknowledged bool      `json:"is_acknowledged"`
	CreationTime   time.Time `json:"created_at"`
	UpdateTime     time.Time `json:"updated_at"`
}

// ListRemindersRequest captures filters used when listing reminders.
type ListRemindersRequest struct {
	UserID int64
	NoteID *int64
	Search string
	// OrderBy is "created_at" or "reminder_time"; empty means "created_at".
	OrderBy string
}

// UpdateReminderRequest carries the mutable reminder fields. Nil means
// "leave unchanged".
type UpdateReminderRequest struct {
	RemindTime     *time.Time
	Message        *string
	IsAcknowledged *bool
}
