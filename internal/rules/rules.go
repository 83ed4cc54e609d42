// Package rules manages per-user reminder configuration. Writes are gated by
// the plan tier and applied atomically: a rejected update changes nothing.
package rules

import (
	"context"

	"github.com/pkg/errors"

	"replyping/internal/domain"
	"replyping/internal/plan"
	"replyping/internal/store"
)

// Update carries a partial rule change; nil fields keep the current value.
type Update struct {
	RemindAfterMinutes *int    `json:"remind_after_minutes"`
	BusinessHoursStart *string `json:"business_hours_start"`
	BusinessHoursEnd   *string `json:"business_hours_end"`
	WeekendEnabled     *bool   `json:"weekend_enabled"`
	EscalationHours    *int    `json:"escalation_hours"`
}

type Service struct {
	store store.Store
	gate  *plan.Gate
}

func NewService(s store.Store, g *plan.Gate) *Service {
	return &Service{store: s, gate: g}
}

// Get returns the user's rule set, creating the defaults on first access.
func (s *Service) Get(ctx context.Context, userID string) (*domain.ReminderRule, error) {
	return s.store.GetRule(ctx, userID)
}

// Set merges upd onto the current rule, validates the result, runs the plan
// gate, and persists. Any rejection leaves the stored rule unchanged.
func (s *Service) Set(ctx context.Context, userID string, upd Update) (*domain.ReminderRule, error) {
	rule, err := s.store.GetRule(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.RemindAfterMinutes != nil {
		rule.RemindAfterMinutes = *upd.RemindAfterMinutes
	}
	if upd.BusinessHoursStart != nil {
		rule.BusinessHoursStart = *upd.BusinessHoursStart
	}
	if upd.BusinessHoursEnd != nil {
		rule.BusinessHoursEnd = *upd.BusinessHoursEnd
	}
	if upd.WeekendEnabled != nil {
		rule.WeekendEnabled = *upd.WeekendEnabled
	}
	if upd.EscalationHours != nil {
		rule.EscalationHours = *upd.EscalationHours
	}

	if err := validate(rule); err != nil {
		return nil, err
	}
	if err := s.gate.CheckRuleUpdate(ctx, userID, rule); err != nil {
		return nil, err
	}
	if err := s.store.UpdateRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func validate(rule *domain.ReminderRule) error {
	if rule.RemindAfterMinutes <= 0 {
		return errors.Wrap(domain.ErrValidation, "remind_after_minutes must be positive")
	}
	if rule.EscalationHours < 0 {
		return errors.Wrap(domain.ErrValidation, "escalation_hours can't be negative")
	}
	if !domain.ValidHHMM(rule.BusinessHoursStart) || !domain.ValidHHMM(rule.BusinessHoursEnd) {
		return errors.Wrap(domain.ErrValidation, "business hours must be HH:MM")
	}
	return nil
}
