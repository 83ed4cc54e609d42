// Package scheduler sweeps every user's todos once a minute, firing reminder
// and escalation notifications for SLA violations and expiring snoozes.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"

	"replyping/internal/domain"
	"replyping/internal/notify"
	"replyping/internal/store"
)

const tickInterval = time.Minute

type Engine struct {
	store    store.Store
	emitter  *notify.Emitter
	clk      clock.Clock
	logger   *zap.SugaredLogger
	interval time.Duration
}

func New(s store.Store, e *notify.Emitter, clk clock.Clock, l *zap.SugaredLogger) *Engine {
	return &Engine{store: s, emitter: e, clk: clk, logger: l, interval: tickInterval}
}

// Run executes ticks until ctx is canceled. Ticks run in the loop goroutine,
// so the engine is never concurrent with itself; the ticker drops beats while
// a slow tick is still running.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Infow("scheduler started", "interval", e.interval)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("scheduler stopping")
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// tick evaluates every user independently; one user's failure never aborts
// the rest.
func (e *Engine) tick(ctx context.Context) {
	users, err := e.store.ListUserIDs(ctx)
	if err != nil {
		e.logger.Errorw("failed listing users", "err", err)
		return
	}

	for _, userID := range users {
		if err := e.processUser(ctx, userID); err != nil {
			e.logger.Errorw("failed processing user", "user", userID, "err", err)
		}
	}
}

func (e *Engine) processUser(ctx context.Context, userID string) error {
	rule, err := e.store.GetRule(ctx, userID)
	if err != nil {
		return err
	}
	now := e.clk.Now()

	// Snooze expiry is not gated: snoozed todos converge to unreplied even on
	// weekends and outside business hours.
	if _, err := e.store.ExpireSnoozes(ctx, userID, now); err != nil {
		return err
	}

	if !domain.WithinBusinessHours(now, rule) {
		return nil
	}

	if err := e.remindPhase(ctx, userID, rule, now); err != nil {
		return err
	}
	if rule.EscalationHours > 0 {
		if err := e.escalatePhase(ctx, userID, rule, now); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) remindPhase(ctx context.Context, userID string, rule *domain.ReminderRule, now time.Time) error {
	cutoff := now.Add(-time.Duration(rule.RemindAfterMinutes) * time.Minute)
	due, err := e.store.ListReminderDue(ctx, userID, cutoff)
	if err != nil {
		return err
	}

	for i := range due {
		t := &due[i]
		// Claim before emitting: the conditional update loses against a
		// concurrent reply or a parallel tick, and losing means staying
		// silent.
		claimed, err := e.store.ClaimReminderSent(ctx, t.ID)
		if err != nil {
			e.logger.Errorw("failed claiming reminder", "todo", t.ID, "err", err)
			continue
		}
		if !claimed {
			continue
		}

		title := fmt.Sprintf("Reply needed: %s", t.ContactName)
		body := fmt.Sprintf("You have an unreplied %s message from %s (@%s). Message: %q",
			t.ChannelType, t.ContactName, t.ContactHandle, t.LastMessagePreview)
		if _, err := e.emitter.Emit(ctx, userID, &t.ID, domain.NotificationReminder, title, body); err != nil {
			e.logger.Errorw("failed emitting reminder", "todo", t.ID, "err", err)
		}
	}
	return nil
}

func (e *Engine) escalatePhase(ctx context.Context, userID string, rule *domain.ReminderRule, now time.Time) error {
	cutoff := now.Add(-time.Duration(rule.EscalationHours) * time.Hour)
	due, err := e.store.ListEscalationDue(ctx, userID, cutoff)
	if err != nil {
		return err
	}

	for i := range due {
		t := &due[i]
		claimed, err := e.store.ClaimEscalationSent(ctx, t.ID)
		if err != nil {
			e.logger.Errorw("failed claiming escalation", "todo", t.ID, "err", err)
			continue
		}
		if !claimed {
			continue
		}

		title := fmt.Sprintf("URGENT: %s waiting %dh+", t.ContactName, rule.EscalationHours)
		body := fmt.Sprintf("ESCALATION: %s (@%s) on %s has been waiting over %d hours for a reply! Message: %q",
			t.ContactName, t.ContactHandle, t.ChannelType, rule.EscalationHours, t.LastMessagePreview)
		if _, err := e.emitter.Emit(ctx, userID, &t.ID, domain.NotificationEscalation, title, body); err != nil {
			e.logger.Errorw("failed emitting escalation", "todo", t.ID, "err", err)
		}
	}
	return nil
}
