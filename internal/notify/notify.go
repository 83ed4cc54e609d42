// Package notify records notifications and attempts best-effort side-channel
// delivery. The inserted row is the durable, authoritative action; delivery
// failures are logged and never surface to the caller.
package notify

import (
	"context"

	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"replyping/internal/domain"
	"replyping/internal/store"
)

// Mailer delivers a notification by email.
type Mailer interface {
	Send(to, subject, body string) error
}

// LogMailer writes the email to the log instead of sending it. Stands in
// until a real provider is wired.
type LogMailer struct {
	Logger *zap.SugaredLogger
}

func (m *LogMailer) Send(to, subject, body string) error {
	m.Logger.Infow("email delivered", "to", to, "subject", subject, "body", body)
	return nil
}

type Emitter struct {
	store  store.Store
	mailer Mailer
	bot    *tg.BotAPI // nil when telegram delivery is disabled
	logger *zap.SugaredLogger
}

func NewEmitter(s store.Store, mailer Mailer, bot *tg.BotAPI, l *zap.SugaredLogger) *Emitter {
	return &Emitter{store: s, mailer: mailer, bot: bot, logger: l}
}

// Emit inserts the notification, then pushes it over email and, for users
// with a linked chat, Telegram. Only the insert can fail the call.
func (e *Emitter) Emit(ctx context.Context, userID string, todoID *string, typ domain.NotificationType, title, message string) (*domain.Notification, error) {
	n := &domain.Notification{
		UserID:  userID,
		TodoID:  todoID,
		Type:    typ,
		Title:   title,
		Message: message,
	}
	if err := e.store.InsertNotification(ctx, n); err != nil {
		return nil, err
	}

	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		e.logger.Errorw("failed loading user for delivery", "user", userID, "err", err)
		return n, nil
	}

	if err := e.mailer.Send(user.Email, "[ReplyPing] "+title, message); err != nil {
		e.logger.Errorw("email delivery failed", "user", userID, "err", err)
	} else {
		n.EmailSent = true
		if err := e.store.SetEmailSent(ctx, n.ID, true); err != nil {
			e.logger.Errorw("failed recording email flag", "notification", n.ID, "err", err)
		}
	}

	if e.bot != nil && user.TelegramChatID != nil {
		msg := tg.NewMessage(*user.TelegramChatID, title+"\n\n"+message)
		if _, err := e.bot.Send(msg); err != nil {
			e.logger.Errorw("telegram delivery failed", "user", userID, "err", err)
		}
	}

	return n, nil
}

// Feed is the notification list plus its unread count.
type Feed struct {
	Notifications []domain.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

func (e *Emitter) List(ctx context.Context, userID string, limit int) (*Feed, error) {
	notifications, err := e.store.ListNotifications(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	unread, err := e.store.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Feed{Notifications: notifications, UnreadCount: unread}, nil
}

func (e *Emitter) MarkRead(ctx context.Context, userID, id string) error {
	return e.store.MarkNotificationRead(ctx, userID, id)
}

func (e *Emitter) MarkAllRead(ctx context.Context, userID string) error {
	return e.store.MarkAllNotificationsRead(ctx, userID)
}

// LinkTelegram attaches a chat id so future notifications are also pushed
// over Telegram.
func (e *Emitter) LinkTelegram(ctx context.Context, userID string, chatID int64) error {
	return e.store.LinkTelegram(ctx, userID, chatID)
}
