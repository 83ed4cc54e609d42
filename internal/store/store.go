package store

import (
	"context"
	"time"

	"replyping/internal/domain"
)

// Store defines the storage operations the services and the scheduler run on.
// Implementations must make every status/flag transition a single row-scoped
// atomic update so a scheduler tick and a concurrent user action on the same
// todo serialize instead of racing.
type Store interface {
	// Users.
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	// FirstUserForChannel resolves which account a webhook belongs to: the
	// first user owning a channel of the given type.
	FirstUserForChannel(ctx context.Context, ct domain.ChannelType) (*domain.User, error)
	SetPlan(ctx context.Context, userID string, plan domain.Plan) error
	// ReconcileUsage resets the monthly counter when the stored month tag
	// differs from month, atomically with the read, and returns the
	// post-reconcile counter together with the user's plan.
	ReconcileUsage(ctx context.Context, userID, month string) (int, domain.Plan, error)
	IncrementUsage(ctx context.Context, userID, month string) error
	LinkTelegram(ctx context.Context, userID string, chatID int64) error

	// Channels.
	EnsureChannel(ctx context.Context, userID string, ct domain.ChannelType, name string) (*domain.Channel, error)
	CountChannels(ctx context.Context, userID string) (int, error)

	// Conversations and messages.
	UpsertConversation(ctx context.Context, c *domain.Conversation) (*domain.Conversation, error)
	GetConversation(ctx context.Context, userID string, ct domain.ChannelType, contactHandle string) (*domain.Conversation, error)
	AppendMessage(ctx context.Context, m *domain.Message) error
	ListMessages(ctx context.Context, userID, conversationID string, limit int) ([]domain.Message, error)

	// Todos.
	CreateTodo(ctx context.Context, t *domain.Todo) error
	GetTodo(ctx context.Context, userID, id string) (*domain.Todo, error)
	// OpenTodoByConversation returns the conversation's non-done todo, or
	// (nil, nil) when there is none.
	OpenTodoByConversation(ctx context.Context, userID, conversationID string) (*domain.Todo, error)
	// ReopenTodo overwrites preview/time and forces a fresh unreplied state:
	// snooze and done fields cleared, both dedup flags reset.
	ReopenTodo(ctx context.Context, id, preview string, at time.Time) error
	MarkDone(ctx context.Context, userID, id string, at time.Time) (*domain.Todo, error)
	SnoozeTodo(ctx context.Context, userID, id string, until time.Time) (*domain.Todo, error)
	UnreplyTodo(ctx context.Context, userID, id string) (*domain.Todo, error)
	SetNote(ctx context.Context, userID, id, note string) (*domain.Todo, error)
	// ExpireSnoozes flips snoozed todos whose snoozed_until has passed back to
	// unreplied and returns how many rows changed.
	ExpireSnoozes(ctx context.Context, userID string, now time.Time) (int, error)
	ListTodos(ctx context.Context, userID string, status *domain.TodoStatus) ([]domain.Todo, error)
	CountTodos(ctx context.Context, userID string, status domain.TodoStatus) (int, error)
	// CountUnrepliedBefore counts unreplied todos whose last message arrived
	// at or before the cutoff.
	CountUnrepliedBefore(ctx context.Context, userID string, cutoff time.Time) (int, error)
	ListReminderDue(ctx context.Context, userID string, cutoff time.Time) ([]domain.Todo, error)
	ListEscalationDue(ctx context.Context, userID string, cutoff time.Time) ([]domain.Todo, error)
	// ClaimReminderSent sets the dedup flag iff the todo is still unreplied
	// and the flag is still clear; it reports whether this caller won.
	ClaimReminderSent(ctx context.Context, id string) (bool, error)
	ClaimEscalationSent(ctx context.Context, id string) (bool, error)

	// Reminder rules.
	GetRule(ctx context.Context, userID string) (*domain.ReminderRule, error)
	UpdateRule(ctx context.Context, rule *domain.ReminderRule) error

	// Notifications.
	InsertNotification(ctx context.Context, n *domain.Notification) error
	SetEmailSent(ctx context.Context, id string, sent bool) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error

	Close() error
}
