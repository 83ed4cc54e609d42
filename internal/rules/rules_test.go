package rules

import (
	"context"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/stretchr/testify/require"

	"replyping/internal/domain"
	"replyping/internal/plan"
	"replyping/internal/store"
)

func newService(t *testing.T) (*Service, store.Store, string) {
	t.Helper()

	st := store.NewMemory()
	clk := clock.NewFake()
	clk.Set(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))

	u := &domain.User{Email: "owner@example.com", Name: "Owner"}
	require.NoError(t, st.CreateUser(context.Background(), u))

	return NewService(st, plan.NewGate(st, clk)), st, u.ID
}

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }
func boolp(v bool) *bool    { return &v }

func TestGetCreatesDefaults(t *testing.T) {
	svc, _, uid := newService(t)

	rule, err := svc.Get(context.Background(), uid)
	require.NoError(t, err)
	require.Equal(t, 30, rule.RemindAfterMinutes)
	require.Equal(t, "09:00", rule.BusinessHoursStart)
	require.Equal(t, "17:00", rule.BusinessHoursEnd)
	require.False(t, rule.WeekendEnabled)
	require.Equal(t, 0, rule.EscalationHours)
}

func TestSetMergesPartialUpdate(t *testing.T) {
	svc, _, uid := newService(t)
	ctx := context.Background()

	rule, err := svc.Set(ctx, uid, Update{
		RemindAfterMinutes: intp(60),
		WeekendEnabled:     boolp(true),
	})
	require.NoError(t, err)
	require.Equal(t, 60, rule.RemindAfterMinutes)
	require.True(t, rule.WeekendEnabled)
	require.Equal(t, "09:00", rule.BusinessHoursStart, "unset fields keep current values")

	stored, err := svc.Get(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, 60, stored.RemindAfterMinutes)
	require.True(t, stored.WeekendEnabled)
}

func TestSetRejectsInvalidHours(t *testing.T) {
	svc, _, uid := newService(t)
	ctx := context.Background()

	_, err := svc.Set(ctx, uid, Update{BusinessHoursStart: strp("9am")})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Set(ctx, uid, Update{RemindAfterMinutes: intp(0)})
	require.ErrorIs(t, err, domain.ErrValidation)

	stored, err := svc.Get(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, "09:00", stored.BusinessHoursStart, "rejected update changes nothing")
	require.Equal(t, 30, stored.RemindAfterMinutes)
}

func TestSetGatedByPlan(t *testing.T) {
	svc, st, uid := newService(t)
	ctx := context.Background()

	_, err := svc.Set(ctx, uid, Update{EscalationHours: intp(2)})
	require.ErrorIs(t, err, domain.ErrFeatureGated)

	stored, err := svc.Get(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, 0, stored.EscalationHours)

	require.NoError(t, st.SetPlan(ctx, uid, domain.PlanPremium))
	rule, err := svc.Set(ctx, uid, Update{EscalationHours: intp(2), RemindAfterMinutes: intp(10)})
	require.NoError(t, err)
	require.Equal(t, 2, rule.EscalationHours)
	require.Equal(t, 10, rule.RemindAfterMinutes)
}
