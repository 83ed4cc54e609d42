package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	_ "github.com/jackc/pgx/v5/stdlib"

	"replyping/internal/domain"
)

var repeatableReadIsoLevel = &sql.TxOptions{Isolation: sql.LevelRepeatableRead}

// Postgres implements Store on top of PostgreSQL through the pgx stdlib
// driver.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects, pings, and runs migrations.
// The connection string looks like postgresql://localhost:5432/replyping?user=admn&password=passwd
func OpenPostgres(ctx context.Context, connStr string) (*Postgres, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "failed opening database")
	}
	if err = db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "failed pinging database")
	}
	if err = RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

const userColumns = `id, email, name, plan, todos_used_this_month, todos_month, telegram_chat_id, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	var month sql.NullString
	var chatID sql.NullInt64
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Plan, &u.TodosUsed, &month, &chatID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.TodosMonth = month.String
	if chatID.Valid {
		u.TelegramChatID = &chatID.Int64
	}
	return &u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Plan == "" {
		u.Plan = domain.PlanFree
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO users(id, email, name, plan)
VALUES($1, $2, $3, $4)`, u.ID, u.Email, u.Name, u.Plan)
	return errors.Wrap(err, "failed inserting user")
}

func (p *Postgres) GetUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	switch {
	case err == sql.ErrNoRows:
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, errors.Wrap(err, "failed fetching user")
	}
	return u, nil
}

func (p *Postgres) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id FROM users`)
	if err != nil {
		return nil, errors.Wrap(err, "failed fetching list of users")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "failed reading user ID")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *Postgres) FirstUserForChannel(ctx context.Context, ct domain.ChannelType) (*domain.User, error) {
	u, err := scanUser(p.db.QueryRowContext(ctx, `SELECT u.id, u.email, u.name, u.plan, u.todos_used_this_month, u.todos_month, u.telegram_chat_id, u.created_at, u.updated_at
FROM users u JOIN channels c ON c.user_id = u.id
WHERE c.type=$1
ORDER BY u.created_at ASC
LIMIT 1`, ct))
	switch {
	case err == sql.ErrNoRows:
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, errors.Wrap(err, "failed resolving channel owner")
	}
	return u, nil
}

func (p *Postgres) SetPlan(ctx context.Context, userID string, plan domain.Plan) error {
	res, err := p.db.ExecContext(ctx, `UPDATE users SET plan=$1, updated_at=now() WHERE id=$2`, plan, userID)
	if err != nil {
		return errors.Wrap(err, "failed updating plan")
	}
	return requireRow(res)
}

// ReconcileUsage resets the counter when the month tag rolled over, as one
// transaction with the read so no caller observes a stale month/counter pair.
func (p *Postgres) ReconcileUsage(ctx context.Context, userID, month string) (int, domain.Plan, error) {
	tx, err := p.db.BeginTx(ctx, repeatableReadIsoLevel)
	if err != nil {
		return 0, "", errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var used int
	var plan domain.Plan
	var tag sql.NullString
	err = tx.QueryRowContext(ctx, `SELECT plan, todos_used_this_month, todos_month FROM users WHERE id=$1 FOR UPDATE`, userID).
		Scan(&plan, &used, &tag)
	switch {
	case err == sql.ErrNoRows:
		return 0, "", domain.ErrNotFound
	case err != nil:
		return 0, "", errors.Wrap(err, "failed reading usage")
	}

	if tag.String != month {
		if _, err = tx.ExecContext(ctx, `UPDATE users SET todos_used_this_month=0, todos_month=$1, updated_at=now() WHERE id=$2`, month, userID); err != nil {
			return 0, "", errors.Wrap(err, "failed resetting usage")
		}
		used = 0
	}

	if err = tx.Commit(); err != nil {
		return 0, "", errors.Wrap(err, "failed to commit")
	}
	return used, plan, nil
}

func (p *Postgres) IncrementUsage(ctx context.Context, userID, month string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE users
SET todos_used_this_month = todos_used_this_month + 1, todos_month=$1, updated_at=now()
WHERE id=$2`, month, userID)
	if err != nil {
		return errors.Wrap(err, "failed incrementing usage")
	}
	return requireRow(res)
}

func (p *Postgres) LinkTelegram(ctx context.Context, userID string, chatID int64) error {
	res, err := p.db.ExecContext(ctx, `UPDATE users SET telegram_chat_id=$1, updated_at=now() WHERE id=$2`, chatID, userID)
	if err != nil {
		return errors.Wrap(err, "failed linking telegram chat")
	}
	return requireRow(res)
}

func (p *Postgres) EnsureChannel(ctx context.Context, userID string, ct domain.ChannelType, name string) (*domain.Channel, error) {
	// Lazy creation on first inbound message for a type not yet seen.
	_, err := p.db.ExecContext(ctx, `INSERT INTO channels(id, user_id, type, name)
VALUES($1, $2, $3, $4)
ON CONFLICT (user_id, type) DO NOTHING`, uuid.NewString(), userID, ct, name)
	if err != nil {
		return nil, errors.Wrap(err, "failed ensuring channel")
	}

	var c domain.Channel
	err = p.db.QueryRowContext(ctx, `SELECT id, user_id, type, name, connected, created_at
FROM channels WHERE user_id=$1 AND type=$2`, userID, ct).
		Scan(&c.ID, &c.UserID, &c.Type, &c.Name, &c.Connected, &c.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "failed fetching channel")
	}
	return &c, nil
}

func (p *Postgres) CountChannels(ctx context.Context, userID string) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM channels WHERE user_id=$1`, userID).Scan(&n)
	return n, errors.Wrap(err, "failed counting channels")
}

const conversationColumns = `id, user_id, channel_id, channel_type, contact_name, contact_handle, external_id, created_at, updated_at`

func scanConversation(row interface{ Scan(...any) error }) (*domain.Conversation, error) {
	var c domain.Conversation
	err := row.Scan(&c.ID, &c.UserID, &c.ChannelID, &c.ChannelType, &c.ContactName,
		&c.ContactHandle, &c.ExternalID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (p *Postgres) UpsertConversation(ctx context.Context, c *domain.Conversation) (*domain.Conversation, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	// Last-seen display name wins; the handle is the identity key.
	row := p.db.QueryRowContext(ctx, `INSERT INTO conversations(id, user_id, channel_id, channel_type, contact_name, contact_handle, external_id)
VALUES($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, channel_type, contact_handle) DO UPDATE SET
	contact_name = excluded.contact_name,
	updated_at = now()
RETURNING `+conversationColumns, c.ID, c.UserID, c.ChannelID, c.ChannelType, c.ContactName, c.ContactHandle, c.ExternalID)

	out, err := scanConversation(row)
	if err != nil {
		return nil, errors.Wrap(err, "failed upserting conversation")
	}
	return out, nil
}

func (p *Postgres) GetConversation(ctx context.Context, userID string, ct domain.ChannelType, contactHandle string) (*domain.Conversation, error) {
	c, err := scanConversation(p.db.QueryRowContext(ctx, `SELECT `+conversationColumns+`
FROM conversations WHERE user_id=$1 AND channel_type=$2 AND contact_handle=$3`, userID, ct, contactHandle))
	switch {
	case err == sql.ErrNoRows:
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, errors.Wrap(err, "failed fetching conversation")
	}
	return c, nil
}

func (p *Postgres) AppendMessage(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO messages(id, conversation_id, user_id, direction, content, external_id, ts)
VALUES($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.ConversationID, m.UserID, m.Direction, m.Content, m.ExternalID, m.Timestamp.UTC())
	return errors.Wrap(err, "failed inserting message")
}

func (p *Postgres) ListMessages(ctx context.Context, userID, conversationID string, limit int) ([]domain.Message, error) {
	// A zero limit means no limit.
	rows, err := p.db.QueryContext(ctx, `SELECT id, conversation_id, user_id, direction, content, external_id, ts
FROM messages
WHERE user_id=$1 AND conversation_id=$2
ORDER BY ts ASC
LIMIT NULLIF($3, 0)`, userID, conversationID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed querying messages")
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err = rows.Scan(&m.ID, &m.ConversationID, &m.UserID, &m.Direction, &m.Content, &m.ExternalID, &m.Timestamp); err != nil {
			return nil, errors.Wrap(err, "failed scanning message")
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

const todoColumns = `id, user_id, conversation_id, channel_type, contact_name, contact_handle,
last_message_preview, last_message_time, status, snoozed_until, note,
reminder_sent, escalation_sent, done_at, created_at, updated_at`

func scanTodo(row interface{ Scan(...any) error }) (*domain.Todo, error) {
	var t domain.Todo
	var snoozed, done sql.NullTime
	err := row.Scan(&t.ID, &t.UserID, &t.ConversationID, &t.ChannelType, &t.ContactName, &t.ContactHandle,
		&t.LastMessagePreview, &t.LastMessageTime, &t.Status, &snoozed, &t.Note,
		&t.ReminderSent, &t.EscalationSent, &done, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if snoozed.Valid {
		t.SnoozedUntil = &snoozed.Time
	}
	if done.Valid {
		t.DoneAt = &done.Time
	}
	return &t, nil
}

func (p *Postgres) CreateTodo(ctx context.Context, t *domain.Todo) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO todos(id, user_id, conversation_id, channel_type, contact_name, contact_handle, last_message_preview, last_message_time)
VALUES($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.UserID, t.ConversationID, t.ChannelType, t.ContactName, t.ContactHandle,
		t.LastMessagePreview, t.LastMessageTime.UTC())
	return errors.Wrap(err, "failed inserting todo")
}

func (p *Postgres) GetTodo(ctx context.Context, userID, id string) (*domain.Todo, error) {
	t, err := scanTodo(p.db.QueryRowContext(ctx, `SELECT `+todoColumns+`
FROM todos WHERE id=$1 AND user_id=$2`, id, userID))
	switch {
	case err == sql.ErrNoRows:
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, errors.Wrap(err, "failed fetching todo")
	}
	return t, nil
}

func (p *Postgres) OpenTodoByConversation(ctx context.Context, userID, conversationID string) (*domain.Todo, error) {
	t, err := scanTodo(p.db.QueryRowContext(ctx, `SELECT `+todoColumns+`
FROM todos WHERE user_id=$1 AND conversation_id=$2 AND status <> 'done'`, userID, conversationID))
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(err, "failed fetching open todo")
	}
	return t, nil
}

func (p *Postgres) ReopenTodo(ctx context.Context, id, preview string, at time.Time) error {
	res, err := p.db.ExecContext(ctx, `UPDATE todos SET
	last_message_preview=$1, last_message_time=$2,
	status='unreplied', snoozed_until=NULL, done_at=NULL,
	reminder_sent=FALSE, escalation_sent=FALSE, updated_at=now()
WHERE id=$3`, preview, at.UTC(), id)
	if err != nil {
		return errors.Wrap(err, "failed reopening todo")
	}
	return requireRow(res)
}

func (p *Postgres) MarkDone(ctx context.Context, userID, id string, at time.Time) (*domain.Todo, error) {
	return p.transition(ctx, userID, id, `UPDATE todos
SET status='done', done_at=$3, snoozed_until=NULL, updated_at=now()
WHERE id=$1 AND user_id=$2`, at.UTC())
}

func (p *Postgres) SnoozeTodo(ctx context.Context, userID, id string, until time.Time) (*domain.Todo, error) {
	return p.transition(ctx, userID, id, `UPDATE todos
SET status='snoozed', snoozed_until=$3, done_at=NULL, updated_at=now()
WHERE id=$1 AND user_id=$2`, until.UTC())
}

func (p *Postgres) UnreplyTodo(ctx context.Context, userID, id string) (*domain.Todo, error) {
	return p.transition(ctx, userID, id, `UPDATE todos
SET status='unreplied', snoozed_until=NULL, done_at=NULL,
	reminder_sent=FALSE, escalation_sent=FALSE, updated_at=now()
WHERE id=$1 AND user_id=$2`)
}

func (p *Postgres) SetNote(ctx context.Context, userID, id, note string) (*domain.Todo, error) {
	return p.transition(ctx, userID, id, `UPDATE todos
SET note=$3, updated_at=now()
WHERE id=$1 AND user_id=$2`, note)
}

// transition runs a row-scoped update and returns the fresh row, mapping a
// zero-row update to ErrNotFound.
func (p *Postgres) transition(ctx context.Context, userID, id, query string, args ...any) (*domain.Todo, error) {
	res, err := p.db.ExecContext(ctx, query, append([]any{id, userID}, args...)...)
	if err != nil {
		return nil, errors.Wrap(err, "failed updating todo")
	}
	if err = requireRow(res); err != nil {
		return nil, err
	}
	return p.GetTodo(ctx, userID, id)
}

func (p *Postgres) ExpireSnoozes(ctx context.Context, userID string, now time.Time) (int, error) {
	res, err := p.db.ExecContext(ctx, `UPDATE todos
SET status='unreplied', snoozed_until=NULL, updated_at=now()
WHERE user_id=$1 AND status='snoozed' AND snoozed_until IS NOT NULL AND snoozed_until <= $2`,
		userID, now.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "failed expiring snoozes")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "failed reading affected rows")
}

func (p *Postgres) ListTodos(ctx context.Context, userID string, status *domain.TodoStatus) ([]domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE user_id=$1`
	args := []any{userID}
	if status != nil {
		query += ` AND status=$2`
		args = append(args, *status)
	}
	query += ` ORDER BY last_message_time DESC`
	return p.queryTodos(ctx, query, args...)
}

func (p *Postgres) CountTodos(ctx context.Context, userID string, status domain.TodoStatus) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos WHERE user_id=$1 AND status=$2`, userID, status).Scan(&n)
	return n, errors.Wrap(err, "failed counting todos")
}

func (p *Postgres) CountUnrepliedBefore(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos
WHERE user_id=$1 AND status='unreplied' AND last_message_time <= $2`, userID, cutoff.UTC()).Scan(&n)
	return n, errors.Wrap(err, "failed counting overdue todos")
}

func (p *Postgres) ListReminderDue(ctx context.Context, userID string, cutoff time.Time) ([]domain.Todo, error) {
	return p.queryTodos(ctx, `SELECT `+todoColumns+` FROM todos
WHERE user_id=$1 AND status='unreplied' AND reminder_sent=FALSE AND last_message_time <= $2`,
		userID, cutoff.UTC())
}

func (p *Postgres) ListEscalationDue(ctx context.Context, userID string, cutoff time.Time) ([]domain.Todo, error) {
	return p.queryTodos(ctx, `SELECT `+todoColumns+` FROM todos
WHERE user_id=$1 AND status='unreplied' AND escalation_sent=FALSE AND last_message_time <= $2`,
		userID, cutoff.UTC())
}

func (p *Postgres) ClaimReminderSent(ctx context.Context, id string) (bool, error) {
	res, err := p.db.ExecContext(ctx, `UPDATE todos SET reminder_sent=TRUE, updated_at=now()
WHERE id=$1 AND status='unreplied' AND reminder_sent=FALSE`, id)
	if err != nil {
		return false, errors.Wrap(err, "failed claiming reminder flag")
	}
	n, err := res.RowsAffected()
	return n == 1, errors.Wrap(err, "failed reading affected rows")
}

func (p *Postgres) ClaimEscalationSent(ctx context.Context, id string) (bool, error) {
	res, err := p.db.ExecContext(ctx, `UPDATE todos SET escalation_sent=TRUE, updated_at=now()
WHERE id=$1 AND status='unreplied' AND escalation_sent=FALSE`, id)
	if err != nil {
		return false, errors.Wrap(err, "failed claiming escalation flag")
	}
	n, err := res.RowsAffected()
	return n == 1, errors.Wrap(err, "failed reading affected rows")
}

func (p *Postgres) queryTodos(ctx context.Context, query string, args ...any) ([]domain.Todo, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed querying todos")
	}
	defer rows.Close()

	var todos []domain.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed scanning todo")
		}
		todos = append(todos, *t)
	}
	return todos, rows.Err()
}

const ruleColumns = `id, user_id, remind_after_minutes, business_hours_start, business_hours_end, weekend_enabled, escalation_hours, created_at, updated_at`

func scanRule(row interface{ Scan(...any) error }) (*domain.ReminderRule, error) {
	var r domain.ReminderRule
	err := row.Scan(&r.ID, &r.UserID, &r.RemindAfterMinutes, &r.BusinessHoursStart,
		&r.BusinessHoursEnd, &r.WeekendEnabled, &r.EscalationHours, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRule creates the default rule row on first access.
func (p *Postgres) GetRule(ctx context.Context, userID string) (*domain.ReminderRule, error) {
	_, err := p.db.ExecContext(ctx, `INSERT INTO reminder_rules(id, user_id)
VALUES($1, $2)
ON CONFLICT (user_id) DO NOTHING`, uuid.NewString(), userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed ensuring rule")
	}

	r, err := scanRule(p.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM reminder_rules WHERE user_id=$1`, userID))
	if err != nil {
		return nil, errors.Wrap(err, "failed fetching rule")
	}
	return r, nil
}

func (p *Postgres) UpdateRule(ctx context.Context, rule *domain.ReminderRule) error {
	res, err := p.db.ExecContext(ctx, `UPDATE reminder_rules SET
	remind_after_minutes=$1, business_hours_start=$2, business_hours_end=$3,
	weekend_enabled=$4, escalation_hours=$5, updated_at=now()
WHERE user_id=$6`,
		rule.RemindAfterMinutes, rule.BusinessHoursStart, rule.BusinessHoursEnd,
		rule.WeekendEnabled, rule.EscalationHours, rule.UserID)
	if err != nil {
		return errors.Wrap(err, "failed updating rule")
	}
	return requireRow(res)
}

func (p *Postgres) InsertNotification(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO notifications(id, user_id, todo_id, type, title, message)
VALUES($1, $2, $3, $4, $5, $6)`, n.ID, n.UserID, n.TodoID, n.Type, n.Title, n.Message)
	return errors.Wrap(err, "failed inserting notification")
}

func (p *Postgres) SetEmailSent(ctx context.Context, id string, sent bool) error {
	_, err := p.db.ExecContext(ctx, `UPDATE notifications SET email_sent=$1 WHERE id=$2`, sent, id)
	return errors.Wrap(err, "failed updating email flag")
}

func (p *Postgres) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, user_id, todo_id, type, title, message, read, email_sent, created_at
FROM notifications
WHERE user_id=$1
ORDER BY created_at DESC
LIMIT NULLIF($2, 0)`, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed querying notifications")
	}
	defer rows.Close()

	var res []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var todoID sql.NullString
		if err = rows.Scan(&n.ID, &n.UserID, &todoID, &n.Type, &n.Title, &n.Message, &n.Read, &n.EmailSent, &n.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed scanning notification")
		}
		if todoID.Valid {
			n.TodoID = &todoID.String
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func (p *Postgres) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND read=FALSE`, userID).Scan(&n)
	return n, errors.Wrap(err, "failed counting unread notifications")
}

func (p *Postgres) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE notifications SET read=TRUE WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return errors.Wrap(err, "failed marking notification read")
	}
	return requireRow(res)
}

func (p *Postgres) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := p.db.ExecContext(ctx, `UPDATE notifications SET read=TRUE WHERE user_id=$1`, userID)
	return errors.Wrap(err, "failed marking notifications read")
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed reading affected rows")
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
