// Package todo owns the todo state machine: creation and reopening on
// inbound messages, user-driven transitions, and the read surface.
package todo

import (
	"context"
	"strings"
	"time"

	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"replyping/internal/channel"
	"replyping/internal/domain"
	"replyping/internal/plan"
	"replyping/internal/store"
)

type Service struct {
	store  store.Store
	gate   *plan.Gate
	sender channel.Sender
	clk    clock.Clock
	logger *zap.SugaredLogger
}

func NewService(s store.Store, g *plan.Gate, sender channel.Sender, clk clock.Clock, l *zap.SugaredLogger) *Service {
	return &Service{store: s, gate: g, sender: sender, clk: clk, logger: l}
}

// IngestResult reports what an inbound or outbound message produced. Todo is
// nil with LimitReached set when the monthly quota suppressed creation; the
// message and conversation are persisted regardless.
type IngestResult struct {
	Conversation *domain.Conversation
	MessageID    string
	Todo         *domain.Todo
	LimitReached bool
}

// IngestInbound runs the message-to-todo pipeline for one inbound message:
// find-or-create channel and conversation, append the message, then reopen
// the conversation's open todo or create a fresh one within quota.
func (s *Service) IngestInbound(ctx context.Context, userID string, ct domain.ChannelType, contactName, contactHandle, content, externalID string) (*IngestResult, error) {
	if !ct.Valid() {
		return nil, errors.Wrapf(domain.ErrValidation, "unknown channel type %q", ct)
	}
	if content == "" {
		return nil, errors.Wrap(domain.ErrValidation, "message content is required")
	}
	if contactHandle == "" {
		return nil, errors.Wrap(domain.ErrValidation, "contact handle is required")
	}
	if contactName == "" {
		contactName = "Unknown"
	}

	ch, err := s.store.EnsureChannel(ctx, userID, ct, channelDisplayName(ct))
	if err != nil {
		return nil, err
	}

	conv, err := s.store.UpsertConversation(ctx, &domain.Conversation{
		UserID:        userID,
		ChannelID:     ch.ID,
		ChannelType:   ct,
		ContactName:   contactName,
		ContactHandle: contactHandle,
		ExternalID:    externalID,
	})
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	msg := &domain.Message{
		ConversationID: conv.ID,
		UserID:         userID,
		Direction:      domain.DirectionInbound,
		Content:        content,
		ExternalID:     externalID,
		Timestamp:      now,
	}
	if err = s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	res := &IngestResult{Conversation: conv, MessageID: msg.ID}
	preview := domain.Preview(content)

	open, err := s.store.OpenTodoByConversation(ctx, userID, conv.ID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		// Fresh violation episode: preview/time overwritten, snooze cleared,
		// both dedup flags reset.
		if err = s.store.ReopenTodo(ctx, open.ID, preview, now); err != nil {
			return nil, err
		}
		res.Todo, err = s.store.GetTodo(ctx, userID, open.ID)
		return res, err
	}

	ok, err := s.gate.CanCreateTodo(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Inbound history is never dropped; only todo creation is suppressed.
		s.logger.Infow("todo quota reached", "user", userID, "channel", ct)
		res.LimitReached = true
		return res, nil
	}

	t := &domain.Todo{
		UserID:             userID,
		ConversationID:     conv.ID,
		ChannelType:        ct,
		ContactName:        contactName,
		ContactHandle:      contactHandle,
		LastMessagePreview: preview,
		LastMessageTime:    now,
		Status:             domain.StatusUnreplied,
	}
	if err = s.store.CreateTodo(ctx, t); err != nil {
		return nil, err
	}
	if err = s.gate.IncrementUsage(ctx, userID); err != nil {
		return nil, err
	}
	res.Todo = t
	return res, nil
}

// IngestOutbound records a reply sent outside the system (e.g. directly in
// the channel's native app) and closes the open todo. No-op when no matching
// conversation exists.
func (s *Service) IngestOutbound(ctx context.Context, userID string, ct domain.ChannelType, contactHandle, content string) (*IngestResult, error) {
	conv, err := s.store.GetConversation(ctx, userID, ct, contactHandle)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ConversationID: conv.ID,
		UserID:         userID,
		Direction:      domain.DirectionOutbound,
		Content:        content,
		Timestamp:      s.clk.Now(),
	}
	if err = s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}

	res := &IngestResult{Conversation: conv, MessageID: msg.ID}
	open, err := s.store.OpenTodoByConversation(ctx, userID, conv.ID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		res.Todo, err = s.store.MarkDone(ctx, userID, open.ID, s.clk.Now())
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *Service) MarkDone(ctx context.Context, userID, id string) (*domain.Todo, error) {
	return s.store.MarkDone(ctx, userID, id, s.clk.Now())
}

// Snooze hides a todo for the given number of minutes, or until 23:59:59 of
// the current day when endOfDay is set.
func (s *Service) Snooze(ctx context.Context, userID, id string, minutes int, endOfDay bool) (*domain.Todo, error) {
	now := s.clk.Now()
	var until time.Time
	if endOfDay {
		until = domain.EndOfDay(now)
	} else {
		if minutes <= 0 {
			minutes = 15
		}
		until = now.Add(time.Duration(minutes) * time.Minute)
	}
	return s.store.SnoozeTodo(ctx, userID, id, until)
}

// Unreply moves a todo back to a fresh unreplied state, clearing snooze and
// done fields and both dedup flags.
func (s *Service) Unreply(ctx context.Context, userID, id string) (*domain.Todo, error) {
	return s.store.UnreplyTodo(ctx, userID, id)
}

func (s *Service) SetNote(ctx context.Context, userID, id, note string) (*domain.Todo, error) {
	return s.store.SetNote(ctx, userID, id, note)
}

// ReplyResult is the outcome of a successful in-app reply.
type ReplyResult struct {
	Todo      *domain.Todo
	MessageID string
}

// Reply sends message through the todo's channel and, only on a successful
// send, records the outbound message and marks the todo done. A failed send
// leaves the todo untouched; retries are the caller's concern.
func (s *Service) Reply(ctx context.Context, userID, id, message string) (*ReplyResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.Wrap(domain.ErrValidation, "message is required")
	}

	t, err := s.store.GetTodo(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if !s.sender.IsConfigured(t.ChannelType) {
		return nil, errors.Wrapf(domain.ErrChannelUnavailable, "%s", t.ChannelType)
	}

	sent, err := s.sender.Send(ctx, t.ChannelType, t.ContactHandle, message)
	if err != nil {
		return nil, err
	}

	if err = s.store.AppendMessage(ctx, &domain.Message{
		ConversationID: t.ConversationID,
		UserID:         userID,
		Direction:      domain.DirectionOutbound,
		Content:        message,
		ExternalID:     sent.MessageID,
		Timestamp:      s.clk.Now(),
	}); err != nil {
		return nil, err
	}

	done, err := s.store.MarkDone(ctx, userID, t.ID, s.clk.Now())
	if err != nil {
		return nil, err
	}
	return &ReplyResult{Todo: done, MessageID: sent.MessageID}, nil
}

// List returns the user's todos, optionally filtered by status. Expired
// snoozes are flipped back to unreplied first so every read sees consistent
// state without waiting for a scheduler tick.
func (s *Service) List(ctx context.Context, userID string, status *domain.TodoStatus) ([]domain.Todo, error) {
	if _, err := s.store.ExpireSnoozes(ctx, userID, s.clk.Now()); err != nil {
		return nil, err
	}
	return s.store.ListTodos(ctx, userID, status)
}

const dueSoonWindow = 5 * time.Minute

// Stats aggregates todo counts. Overdue is unreplied past the remind-after
// threshold; due-soon is unreplied within the last 5 minutes before it.
func (s *Service) Stats(ctx context.Context, userID string) (*domain.TodoStats, error) {
	now := s.clk.Now()
	if _, err := s.store.ExpireSnoozes(ctx, userID, now); err != nil {
		return nil, err
	}

	rule, err := s.store.GetRule(ctx, userID)
	if err != nil {
		return nil, err
	}

	var stats domain.TodoStats
	if stats.Unreplied, err = s.store.CountTodos(ctx, userID, domain.StatusUnreplied); err != nil {
		return nil, err
	}
	if stats.Snoozed, err = s.store.CountTodos(ctx, userID, domain.StatusSnoozed); err != nil {
		return nil, err
	}
	if stats.Done, err = s.store.CountTodos(ctx, userID, domain.StatusDone); err != nil {
		return nil, err
	}

	remindAfter := time.Duration(rule.RemindAfterMinutes) * time.Minute
	overdueCutoff := now.Add(-remindAfter)
	if stats.Overdue, err = s.store.CountUnrepliedBefore(ctx, userID, overdueCutoff); err != nil {
		return nil, err
	}

	soon := remindAfter - dueSoonWindow
	if soon < 0 {
		soon = 0
	}
	atOrPastSoon, err := s.store.CountUnrepliedBefore(ctx, userID, now.Add(-soon))
	if err != nil {
		return nil, err
	}
	stats.DueSoon = atOrPastSoon - stats.Overdue
	if stats.DueSoon < 0 {
		stats.DueSoon = 0
	}
	return &stats, nil
}

// Messages returns the conversation history behind a todo.
func (s *Service) Messages(ctx context.Context, userID, todoID string, limit int) ([]domain.Message, error) {
	t, err := s.store.GetTodo(ctx, userID, todoID)
	if err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, userID, t.ConversationID, limit)
}

// ChannelStatus reports which channels can send.
func (s *Service) ChannelStatus() map[domain.ChannelType]bool {
	return map[domain.ChannelType]bool{
		domain.ChannelWhatsApp:  s.sender.IsConfigured(domain.ChannelWhatsApp),
		domain.ChannelInstagram: s.sender.IsConfigured(domain.ChannelInstagram),
	}
}

func channelDisplayName(ct domain.ChannelType) string {
	if ct == domain.ChannelInstagram {
		return "My Instagram"
	}
	return "My WhatsApp"
}
