package plan

import (
	"context"

	"github.com/jmhodges/clock"
	"github.com/pkg/errors"

	"replyping/internal/domain"
	"replyping/internal/store"
)

var tiers = map[domain.Plan]domain.PlanLimits{
	domain.PlanFree: {
		Name:           "Free",
		Price:          0,
		MaxActiveTodos: 50,
		MaxChannels:    2,
		Features: []string{
			"2 channels (Instagram + WhatsApp)",
			"Up to 50 active to-dos/month",
			"Standard reminders (15/30/60 min)",
			"Business hours settings",
		},
	},
	domain.PlanPremium: {
		Name:            "Premium",
		Price:           9,
		MaxActiveTodos:  -1,
		MaxChannels:     -1,
		CustomReminders: true,
		Escalation:      true,
		Features: []string{
			"Unlimited channels",
			"Unlimited to-dos",
			"Custom reminder intervals",
			"Escalation alerts",
			"Priority support",
			"Everything in Free",
		},
	},
}

// standardIntervals are the reminder intervals every tier may use.
var standardIntervals = map[int]bool{15: true, 30: true, 60: true}

// Limits returns the quota/feature bundle for a tier, defaulting unknown
// tiers to free.
func Limits(p domain.Plan) domain.PlanLimits {
	if l, ok := tiers[p]; ok {
		return l
	}
	return tiers[domain.PlanFree]
}

// All lists every tier, for the billing surface.
func All() map[domain.Plan]domain.PlanLimits {
	out := make(map[domain.Plan]domain.PlanLimits, len(tiers))
	for k, v := range tiers {
		out[k] = v
	}
	return out
}

// Gate evaluates a user's tier-derived limits at todo-creation and
// rule-update time.
type Gate struct {
	store store.Store
	clk   clock.Clock
}

func NewGate(s store.Store, clk clock.Clock) *Gate {
	return &Gate{store: s, clk: clk}
}

// CanCreateTodo reconciles the usage counter against the current calendar
// month and reports whether a new todo fits the monthly quota.
func (g *Gate) CanCreateTodo(ctx context.Context, userID string) (bool, error) {
	used, p, err := g.store.ReconcileUsage(ctx, userID, domain.MonthTag(g.clk.Now()))
	if err != nil {
		return false, errors.Wrap(err, "failed reconciling usage")
	}
	limits := Limits(p)
	return limits.MaxActiveTodos == -1 || used < limits.MaxActiveTodos, nil
}

// IncrementUsage counts one newly created todo. Reopens never call this.
func (g *Gate) IncrementUsage(ctx context.Context, userID string) error {
	return g.store.IncrementUsage(ctx, userID, domain.MonthTag(g.clk.Now()))
}

// CheckRuleUpdate rejects, without mutating anything, rule values the user's
// tier does not include.
func (g *Gate) CheckRuleUpdate(ctx context.Context, userID string, rule *domain.ReminderRule) error {
	u, err := g.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	limits := Limits(u.Plan)

	if !limits.CustomReminders && !standardIntervals[rule.RemindAfterMinutes] {
		return errors.Wrapf(domain.ErrFeatureGated, "custom reminder interval %d min", rule.RemindAfterMinutes)
	}
	if !limits.Escalation && rule.EscalationHours > 0 {
		return errors.Wrap(domain.ErrFeatureGated, "escalation alerts")
	}
	return nil
}

// Usage is the billing status snapshot for one user.
type Usage struct {
	Plan           domain.Plan       `json:"plan"`
	Limits         domain.PlanLimits `json:"plan_details"`
	TodosUsed      int               `json:"todos_used"`
	TodosLimit     int               `json:"todos_limit"`
	TodosRemaining int               `json:"todos_remaining"`
	ChannelsUsed   int               `json:"channels_used"`
	ChannelsLimit  int               `json:"channels_limit"`
}

// Status reports the user's tier and month-reconciled usage.
func (g *Gate) Status(ctx context.Context, userID string) (*Usage, error) {
	used, p, err := g.store.ReconcileUsage(ctx, userID, domain.MonthTag(g.clk.Now()))
	if err != nil {
		return nil, errors.Wrap(err, "failed reconciling usage")
	}
	channels, err := g.store.CountChannels(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed counting channels")
	}
	limits := Limits(p)
	remaining := -1
	if limits.MaxActiveTodos != -1 {
		remaining = limits.MaxActiveTodos - used
		if remaining < 0 {
			remaining = 0
		}
	}
	return &Usage{
		Plan:           p,
		Limits:         limits,
		TodosUsed:      used,
		TodosLimit:     limits.MaxActiveTodos,
		TodosRemaining: remaining,
		ChannelsUsed:   channels,
		ChannelsLimit:  limits.MaxChannels,
	}, nil
}

// SetPlan switches a user's tier. Existing todos are untouched; only new
// creation is affected by the new quota.
func (g *Gate) SetPlan(ctx context.Context, userID string, p domain.Plan) error {
	if p != domain.PlanFree && p != domain.PlanPremium {
		return errors.Wrapf(domain.ErrValidation, "unknown plan %q", p)
	}
	return g.store.SetPlan(ctx, userID, p)
}
