// Package sqlite provides the SQLite-backed store used for local and single
// node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/acelee0621/memenote/internal/model"
	"github.com/acelee0621/memenote/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS reminders (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id         INTEGER NOT NULL,
    note_id         INTEGER,
    reminder_time   TIMESTAMP NOT NULL,
    message         TEXT NOT NULL,
    is_triggered    INTEGER NOT NULL DEFAULT 0,
    is_acknowledged INTEGER NOT NULL DEFAULT 0,
    created_at      TIMESTAMP NOT NULL,
    updated_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reminders_user ON reminders(user_id);
`

// Open opens (or creates) a SQLite database at the given path, enables WAL
// journal mode, and applies the schema.
func Open(path string) (*sql.DB, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a SQLite store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Reminders() store.Reminders { return &reminders{db: s.db} }

// HealthPing implements the health pinger contract.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type reminders struct{ db *sql.DB }

const reminderColumns = `id, user_id, note_id, reminder_time, message, is_triggered, is_acknowledged, created_at, updated_at`

func (r *reminders) Create(ctx context.Context, m *model.Reminder) (*model.Reminder, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO reminders (user_id, note_id, reminder_time, message, created_at, updated_at)
        VALUES (?,?,?,?,?,?)
    `, m.UserID, m.NoteID, m.RemindTime.UTC(), m.Message, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, m.UserID, id)
}

func (r *reminders) GetByID(ctx context.Context, userID, id int64) (*model.Reminder, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+reminderColumns+` FROM reminders WHERE id=? AND user_id=?
    `, id, userID)
	return scanReminder(row)
}

func (r *reminders) List(ctx context.Context, req model.ListRemindersRequest) ([]*model.Reminder, error) {
	q := `SELECT ` + reminderColumns + ` FROM reminders WHERE user_id=?`
	args := []any{req.UserID}
	if req.NoteID != nil {
		q += ` AND note_id=?`
		args = append(args, *req.NoteID)
	}
	if req.Search != "" {
		q += ` AND message LIKE '%'||?||'%'`
		args = append(args, req.Search)
	}
	switch req.OrderBy {
	case "reminder_time":
		q += ` ORDER BY reminder_time ASC`
	default:
		q += ` ORDER BY created_at DESC`
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Reminder
	for rows.Next() {
		m, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *reminders) Update(ctx context.Context, userID, id int64, req model.UpdateReminderRequest) (*model.Reminder, error) {
	var sets []string
	var args []any
	if req.RemindTime != nil {
		sets = append(sets, "reminder_time=?")
		args = append(args, req.RemindTime.UTC())
	}
	if req.Message != nil {
		sets = append(sets, "message=?")
		args = append(args, *req.Message)
	}
	if req.IsAcknowledged != nil {
		sets = append(sets, "is_acknowledged=?")
		args = append(args, *req.IsAcknowledged)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", model.ErrValidation)
	}
	sets = append(sets, "updated_at=?")
	args = append(args, time.Now().UTC(), id, userID)

	res, err := r.db.ExecContext(ctx, `
        UPDATE reminders SET `+strings.Join(sets, ", ")+` WHERE id=? AND user_id=?
    `, args...)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrNotFound
	}
	return r.GetByID(ctx, userID, id)
}

func (r *reminders) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *reminders) MarkTriggered(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE reminders SET is_triggered=1, updated_at=? WHERE id=?
    `, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReminder(row rowScanner) (*model.Reminder, error) {
	var m model.Reminder
	var noteID sql.NullInt64
	err := row.Scan(&m.ID, &m.UserID, &noteID, &m.RemindTime, &m.Message,
		&m.IsTriggered, &m.IsAcknowledged, &m.CreationTime, &m.UpdateTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if noteID.Valid {
		m.NoteID = &noteID.Int64
	}
	return &m, nil
}
