package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"replyping/internal/domain"
	"replyping/internal/notify"
	"replyping/internal/store"
)

type fixture struct {
	engine *Engine
	store  *store.Memory
	clk    clock.FakeClock
	userID string
}

// Wednesday, 12:00, well inside the default 09:00-17:00 window.
var insideHours = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.NewMemory()
	clk := clock.NewFake()
	clk.Set(insideHours)

	u := &domain.User{Email: "owner@example.com", Name: "Owner"}
	require.NoError(t, st.CreateUser(context.Background(), u))

	log := zap.NewNop().Sugar()
	emitter := notify.NewEmitter(st, &notify.LogMailer{Logger: log}, nil, log)
	return &fixture{
		engine: New(st, emitter, clk, log),
		store:  st,
		clk:    clk,
		userID: u.ID,
	}
}

func (f *fixture) addTodo(t *testing.T, handle string, age time.Duration) *domain.Todo {
	t.Helper()
	todo := &domain.Todo{
		UserID:             f.userID,
		ConversationID:     "conv-" + handle,
		ChannelType:        domain.ChannelWhatsApp,
		ContactName:        "Alice",
		ContactHandle:      handle,
		LastMessagePreview: "ping",
		LastMessageTime:    f.clk.Now().Add(-age),
	}
	require.NoError(t, f.store.CreateTodo(context.Background(), todo))
	return todo
}

func (f *fixture) notifications(t *testing.T) []domain.Notification {
	t.Helper()
	ns, err := f.store.ListNotifications(context.Background(), f.userID, 0)
	require.NoError(t, err)
	return ns
}

func TestReminderFiresOnceAcrossTicks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addTodo(t, "+1", 31*time.Minute)

	f.engine.tick(ctx)
	ns := f.notifications(t)
	require.Len(t, ns, 1)
	require.Equal(t, domain.NotificationReminder, ns[0].Type)
	require.Equal(t, "Reply needed: Alice", ns[0].Title)

	f.clk.Add(time.Minute)
	f.engine.tick(ctx)
	f.clk.Add(time.Minute)
	f.engine.tick(ctx)
	require.Len(t, f.notifications(t), 1, "the sent flag dedups later ticks")
}

func TestFreshMessageIsNotDue(t *testing.T) {
	f := newFixture(t)
	f.addTodo(t, "+1", 10*time.Minute)

	f.engine.tick(context.Background())
	require.Empty(t, f.notifications(t))
}

func TestReopenRearmsReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	todo := f.addTodo(t, "+1", 31*time.Minute)

	f.engine.tick(ctx)
	require.Len(t, f.notifications(t), 1)

	// A new inbound message starts a fresh episode.
	require.NoError(t, f.store.ReopenTodo(ctx, todo.ID, "again", f.clk.Now()))
	f.clk.Add(31 * time.Minute)
	f.engine.tick(ctx)
	require.Len(t, f.notifications(t), 2)
}

func TestEscalationFiresIndependently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rule, err := f.store.GetRule(ctx, f.userID)
	require.NoError(t, err)
	rule.EscalationHours = 2
	require.NoError(t, f.store.UpdateRule(ctx, rule))

	// Old enough for both thresholds at once.
	f.addTodo(t, "+1", 3*time.Hour)
	f.engine.tick(ctx)

	ns := f.notifications(t)
	require.Len(t, ns, 2)
	types := map[domain.NotificationType]bool{}
	for _, n := range ns {
		types[n.Type] = true
	}
	require.True(t, types[domain.NotificationReminder])
	require.True(t, types[domain.NotificationEscalation])

	f.clk.Add(time.Minute)
	f.engine.tick(ctx)
	require.Len(t, f.notifications(t), 2, "both flags dedup independently")
}

func TestEscalationDisabledByDefault(t *testing.T) {
	f := newFixture(t)
	f.addTodo(t, "+1", 12*time.Hour)

	f.engine.tick(context.Background())
	ns := f.notifications(t)
	require.Len(t, ns, 1)
	require.Equal(t, domain.NotificationReminder, ns[0].Type)
}

func TestWeekendSuppressesNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.clk.Set(time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)) // Saturday
	f.addTodo(t, "+1", 2*time.Hour)

	f.engine.tick(ctx)
	require.Empty(t, f.notifications(t))

	rule, err := f.store.GetRule(ctx, f.userID)
	require.NoError(t, err)
	rule.WeekendEnabled = true
	require.NoError(t, f.store.UpdateRule(ctx, rule))

	f.engine.tick(ctx)
	require.Len(t, f.notifications(t), 1)
}

func TestOutsideBusinessHoursSuppressesNotifications(t *testing.T) {
	f := newFixture(t)
	f.clk.Set(time.Date(2026, 3, 4, 20, 0, 0, 0, time.UTC))
	f.addTodo(t, "+1", 2*time.Hour)

	f.engine.tick(context.Background())
	require.Empty(t, f.notifications(t))
}

func TestSnoozeExpiryIgnoresGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.clk.Set(time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)) // Saturday
	todo := f.addTodo(t, "+1", time.Hour)

	_, err := f.store.SnoozeTodo(ctx, f.userID, todo.ID, f.clk.Now().Add(-time.Minute))
	require.NoError(t, err)

	f.engine.tick(ctx)
	require.Empty(t, f.notifications(t), "weekend still suppresses notifications")

	got, err := f.store.GetTodo(ctx, f.userID, todo.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusUnreplied, got.Status, "snoozes expire even outside business hours")
}

func TestReplyBeforeTickStaysSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	todo := f.addTodo(t, "+1", 31*time.Minute)

	_, err := f.store.MarkDone(ctx, f.userID, todo.ID, f.clk.Now())
	require.NoError(t, err)

	f.engine.tick(ctx)
	require.Empty(t, f.notifications(t))
}
