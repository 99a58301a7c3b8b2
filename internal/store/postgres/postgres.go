// Package postgres provides the PostgreSQL-backed store using the pgx
// stdlib driver. Schema migrations are handled by the deployment, not here.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/acelee0621/memenote/internal/model"
	"github.com/acelee0621/memenote/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Reminders() store.Reminders { return &reminders{db: s.db} }

// HealthPing implements the health pinger contract.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type reminders struct{ db *sql.DB }

const reminderColumns = `id, user_id, note_id, reminder_time, message, is_triggered, is_acknowledged, created_at, updated_at`

func (r *reminders) Create(ctx context.Context, m *model.Reminder) (*model.Reminder, error) {
	row := r.db.QueryRowContext(ctx, `
        INSERT INTO reminders (user_id, note_id, reminder_time, message, created_at, updated_at)
        VALUES ($1,$2,$3,$4,now(),now())
        RETURNING `+reminderColumns+`
    `, m.UserID, m.NoteID, m.RemindTime.UTC(), m.Message)
	return scanReminder(row)
}

func (r *reminders) GetByID(ctx context.Context, userID, id int64) (*model.Reminder, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+reminderColumns+` FROM reminders WHERE id=$1 AND user_id=$2
    `, id, userID)
	return scanReminder(row)
}

func (r *reminders) List(ctx context.Context, req model.ListRemindersRequest) ([]*model.Reminder, error) {
	q := `SELECT ` + reminderColumns + ` FROM reminders WHERE user_id=$1`
	args := []any{req.UserID}
	if req.NoteID != nil {
		args = append(args, *req.NoteID)
		q += fmt.Sprintf(` AND note_id=$%d`, len(args))
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		q += fmt.Sprintf(` AND message ILIKE $%d`, len(args))
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
	add := func(expr string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}
	if req.RemindTime != nil {
		add("reminder_time=$%d", req.RemindTime.UTC())
	}
	if req.Message != nil {
		add("message=$%d", *req.Message)
	}
	if req.IsAcknowledged != nil {
		add("is_acknowledged=$%d", *req.IsAcknowledged)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", model.ErrValidation)
	}
	sets = append(sets, "updated_at=now()")
	args = append(args, id, userID)

	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
        UPDATE reminders SET %s WHERE id=$%d AND user_id=$%d
        RETURNING %s
    `, strings.Join(sets, ", "), len(args)-1, len(args), reminderColumns), args...)
	return scanReminder(row)
}

func (r *reminders) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reminders WHERE id=$1 AND user_id=$2`, id, userID)
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
        UPDATE reminders SET is_triggered=true, updated_at=now() WHERE id=$1
    `, id)
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
	var remindAt, created, updated time.Time
	err := row.Scan(&m.ID, &m.UserID, &noteID, &remindAt, &m.Message,
		&m.IsTriggered, &m.IsAcknowledged, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if noteID.Valid {
		m.NoteID = &noteID.Int64
	}
	m.RemindTime = remindAt
	m.CreationTime = created
	m.UpdateTime = updated
	return &m, nil
}
