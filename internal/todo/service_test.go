package todo

import (
	"context"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"replyping/internal/channel"
	"replyping/internal/domain"
	"replyping/internal/plan"
	"replyping/internal/store"
)

type fakeSender struct {
	configured bool
	err        error
	sentTo     string
	sentText   string
}

func (f *fakeSender) Send(_ context.Context, _ domain.ChannelType, recipient, text string) (*channel.SendResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sentTo = recipient
	f.sentText = text
	return &channel.SendResult{MessageID: "ext-123"}, nil
}

func (f *fakeSender) IsConfigured(domain.ChannelType) bool { return f.configured }

type fixture struct {
	svc    *Service
	store  store.Store
	gate   *plan.Gate
	sender *fakeSender
	clk    clock.FakeClock
	userID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.NewMemory()
	clk := clock.NewFake()
	clk.Set(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))

	u := &domain.User{Email: "owner@example.com", Name: "Owner"}
	require.NoError(t, st.CreateUser(context.Background(), u))

	gate := plan.NewGate(st, clk)
	sender := &fakeSender{configured: true}
	svc := NewService(st, gate, sender, clk, zap.NewNop().Sugar())
	return &fixture{svc: svc, store: st, gate: gate, sender: sender, clk: clk, userID: u.ID}
}

func (f *fixture) ingest(t *testing.T, handle, content string) *IngestResult {
	t.Helper()
	res, err := f.svc.IngestInbound(context.Background(), f.userID, domain.ChannelWhatsApp, "Alice", handle, content, "")
	require.NoError(t, err)
	return res
}

func TestIngestInboundCreatesTodo(t *testing.T) {
	f := newFixture(t)

	res := f.ingest(t, "+15550001", "hi, is this in stock?")
	require.NotNil(t, res.Todo)
	require.False(t, res.LimitReached)
	require.Equal(t, domain.StatusUnreplied, res.Todo.Status)
	require.Equal(t, "hi, is this in stock?", res.Todo.LastMessagePreview)
	require.Equal(t, "Alice", res.Todo.ContactName)

	msgs, err := f.svc.Messages(context.Background(), f.userID, res.Todo.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, domain.DirectionInbound, msgs[0].Direction)
}

func TestIngestInboundValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.IngestInbound(ctx, f.userID, domain.ChannelType("sms"), "A", "h", "x", "")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.IngestInbound(ctx, f.userID, domain.ChannelWhatsApp, "A", "h", "", "")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.IngestInbound(ctx, f.userID, domain.ChannelWhatsApp, "A", "", "x", "")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestSecondInboundReopensSameTodo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.ingest(t, "+15550001", "first")
	claimed, err := f.store.ClaimReminderSent(ctx, first.Todo.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	f.clk.Add(10 * time.Minute)
	second := f.ingest(t, "+15550001", "are you there?")
	require.Equal(t, first.Todo.ID, second.Todo.ID, "one open todo per conversation")
	require.Equal(t, "are you there?", second.Todo.LastMessagePreview)
	require.False(t, second.Todo.ReminderSent, "reopen starts a fresh violation episode")
	require.False(t, second.Todo.EscalationSent)
	require.Equal(t, domain.StatusUnreplied, second.Todo.Status)

	usage, err := f.gate.Status(ctx, f.userID)
	require.NoError(t, err)
	require.Equal(t, 1, usage.TodosUsed, "reopens don't consume quota")
}

func TestInboundAfterDoneReopens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.ingest(t, "+15550001", "first")
	_, err := f.svc.MarkDone(ctx, f.userID, res.Todo.ID)
	require.NoError(t, err)

	// A done todo is closed; the next inbound message opens a new one.
	next := f.ingest(t, "+15550001", "another thing")
	require.NotEqual(t, res.Todo.ID, next.Todo.ID)
}

func TestQuotaSuppressionKeepsMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		require.NoError(t, f.gate.IncrementUsage(ctx, f.userID))
	}

	res := f.ingest(t, "+15550099", "over the line")
	require.True(t, res.LimitReached)
	require.Nil(t, res.Todo)

	msgs, err := f.store.ListMessages(ctx, f.userID, res.Conversation.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1, "inbound history is never dropped")
}

func TestIngestOutboundMarksDone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.ingest(t, "+15550001", "question")
	out, err := f.svc.IngestOutbound(ctx, f.userID, domain.ChannelWhatsApp, "+15550001", "answered in the app")
	require.NoError(t, err)
	require.NotNil(t, out.Todo)
	require.Equal(t, res.Todo.ID, out.Todo.ID)
	require.Equal(t, domain.StatusDone, out.Todo.Status)
	require.NotNil(t, out.Todo.DoneAt)
}

func TestIngestOutboundUnknownConversationIsNoop(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.IngestOutbound(context.Background(), f.userID, domain.ChannelWhatsApp, "+19990000", "hello?")
	require.NoError(t, err)
	require.Nil(t, out)
}

func TestSnooze(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.ingest(t, "+15550001", "q")

	snoozed, err := f.svc.Snooze(ctx, f.userID, res.Todo.ID, 0, false)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSnoozed, snoozed.Status)
	require.Equal(t, f.clk.Now().Add(15*time.Minute), *snoozed.SnoozedUntil, "zero minutes falls back to 15")

	snoozed, err = f.svc.Snooze(ctx, f.userID, res.Todo.ID, 0, true)
	require.NoError(t, err)
	require.Equal(t, domain.EndOfDay(f.clk.Now()), *snoozed.SnoozedUntil)
}

func TestListExpiresSnoozesLazily(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.ingest(t, "+15550001", "q")

	_, err := f.svc.Snooze(ctx, f.userID, res.Todo.ID, 30, false)
	require.NoError(t, err)

	f.clk.Add(31 * time.Minute)
	todos, err := f.svc.List(ctx, f.userID, nil)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	require.Equal(t, domain.StatusUnreplied, todos[0].Status)
	require.Nil(t, todos[0].SnoozedUntil)
}

func TestUnreplyResetsFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.ingest(t, "+15550001", "q")

	_, err := f.store.ClaimReminderSent(ctx, res.Todo.ID)
	require.NoError(t, err)
	_, err = f.svc.MarkDone(ctx, f.userID, res.Todo.ID)
	require.NoError(t, err)

	back, err := f.svc.Unreply(ctx, f.userID, res.Todo.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusUnreplied, back.Status)
	require.Nil(t, back.DoneAt)
	require.False(t, back.ReminderSent)
}

func TestReplySendsAndCloses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.ingest(t, "+15550001", "q")

	out, err := f.svc.Reply(ctx, f.userID, res.Todo.ID, "  on its way!  ")
	require.NoError(t, err)
	require.Equal(t, domain.StatusDone, out.Todo.Status)
	require.Equal(t, "ext-123", out.MessageID)
	require.Equal(t, "+15550001", f.sender.sentTo)
	require.Equal(t, "on its way!", f.sender.sentText)

	msgs, err := f.store.ListMessages(ctx, f.userID, res.Conversation.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, domain.DirectionOutbound, msgs[1].Direction)
	require.Equal(t, "ext-123", msgs[1].ExternalID)
}

func TestReplyUnconfiguredChannel(t *testing.T) {
	f := newFixture(t)
	f.sender.configured = false
	res := f.ingest(t, "+15550001", "q")

	_, err := f.svc.Reply(context.Background(), f.userID, res.Todo.ID, "hi")
	require.ErrorIs(t, err, domain.ErrChannelUnavailable)
}

func TestFailedReplyLeavesTodoOpen(t *testing.T) {
	f := newFixture(t)
	f.sender.err = errors.Wrap(domain.ErrChannelSend, "rate limited")
	ctx := context.Background()
	res := f.ingest(t, "+15550001", "q")

	_, err := f.svc.Reply(ctx, f.userID, res.Todo.ID, "hi")
	require.ErrorIs(t, err, domain.ErrChannelSend)

	got, err := f.store.GetTodo(ctx, f.userID, res.Todo.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusUnreplied, got.Status)

	msgs, err := f.store.ListMessages(ctx, f.userID, res.Conversation.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1, "failed sends record nothing")
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Default rule reminds after 30 minutes; due-soon covers ages in the
	// 5 minutes before that threshold. At stats time the three open todos
	// are 35, 27 and 6 minutes old.
	f.ingest(t, "+1", "old")
	f.clk.Add(8 * time.Minute)
	f.ingest(t, "+2", "nearly due")
	f.clk.Add(21 * time.Minute)
	f.ingest(t, "+3", "fresh")
	f.clk.Add(6 * time.Minute)

	done := f.ingest(t, "+4", "handled")
	_, err := f.svc.MarkDone(ctx, f.userID, done.Todo.ID)
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, f.userID)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Unreplied)
	require.Equal(t, 0, stats.Snoozed)
	require.Equal(t, 1, stats.Done)
	require.Equal(t, 1, stats.Overdue, "only the 35-minute-old todo crossed the threshold")
	require.Equal(t, 1, stats.DueSoon, "the 27-minute-old todo becomes overdue within 5 minutes")
}

func TestChannelStatus(t *testing.T) {
	f := newFixture(t)
	status := f.svc.ChannelStatus()
	require.True(t, status[domain.ChannelWhatsApp])
	require.True(t, status[domain.ChannelInstagram])
}
