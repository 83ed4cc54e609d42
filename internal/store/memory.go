package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"replyping/internal/domain"
)

// Memory is a mutex-guarded in-memory Store used by tests and as a dev
// backend. All methods copy on the way in and out so callers never share
// state with the store.
type Memory struct {
	mu            sync.RWMutex
	users         map[string]*domain.User
	channels      map[string]*domain.Channel
	conversations map[string]*domain.Conversation
	messages      []*domain.Message
	todos         map[string]*domain.Todo
	rules         map[string]*domain.ReminderRule // keyed by user ID
	notifications []*domain.Notification
	now           func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:         make(map[string]*domain.User),
		channels:      make(map[string]*domain.Channel),
		conversations: make(map[string]*domain.Conversation),
		todos:         make(map[string]*domain.Todo),
		rules:         make(map[string]*domain.ReminderRule),
		now:           time.Now,
	}
}

func (m *Memory) Close() error { return nil }

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.TelegramChatID != nil {
		id := *u.TelegramChatID
		c.TelegramChatID = &id
	}
	return &c
}

func cloneTodo(t *domain.Todo) *domain.Todo {
	c := *t
	if t.SnoozedUntil != nil {
		ts := *t.SnoozedUntil
		c.SnoozedUntil = &ts
	}
	if t.DoneAt != nil {
		ts := *t.DoneAt
		c.DoneAt = &ts
	}
	return &c
}

func cloneNotification(n *domain.Notification) *domain.Notification {
	c := *n
	if n.TodoID != nil {
		id := *n.TodoID
		c.TodoID = &id
	}
	return &c
}

func (m *Memory) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Plan == "" {
		u.Plan = domain.PlanFree
	}
	u.CreatedAt = m.now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) ListUserIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Memory) FirstUserForChannel(_ context.Context, ct domain.ChannelType) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best *domain.User
	for _, ch := range m.channels {
		if ch.Type != ct {
			continue
		}
		u, ok := m.users[ch.UserID]
		if !ok {
			continue
		}
		if best == nil || u.CreatedAt.Before(best.CreatedAt) {
			best = u
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return cloneUser(best), nil
}

func (m *Memory) SetPlan(_ context.Context, userID string, plan domain.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.Plan = plan
	u.UpdatedAt = m.now()
	return nil
}

func (m *Memory) ReconcileUsage(_ context.Context, userID, month string) (int, domain.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return 0, "", domain.ErrNotFound
	}
	if u.TodosMonth != month {
		u.TodosUsed = 0
		u.TodosMonth = month
		u.UpdatedAt = m.now()
	}
	return u.TodosUsed, u.Plan, nil
}

func (m *Memory) IncrementUsage(_ context.Context, userID, month string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.TodosUsed++
	u.TodosMonth = month
	u.UpdatedAt = m.now()
	return nil
}

func (m *Memory) LinkTelegram(_ context.Context, userID string, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.TelegramChatID = &chatID
	u.UpdatedAt = m.now()
	return nil
}

func (m *Memory) EnsureChannel(_ context.Context, userID string, ct domain.ChannelType, name string) (*domain.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range m.channels {
		if ch.UserID == userID && ch.Type == ct {
			c := *ch
			return &c, nil
		}
	}
	ch := &domain.Channel{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      ct,
		Name:      name,
		Connected: true,
		CreatedAt: m.now(),
	}
	m.channels[ch.ID] = ch
	c := *ch
	return &c, nil
}

func (m *Memory) CountChannels(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int
	for _, ch := range m.channels {
		if ch.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) UpsertConversation(_ context.Context, c *domain.Conversation) (*domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.conversations {
		if existing.UserID == c.UserID && existing.ChannelType == c.ChannelType && existing.ContactHandle == c.ContactHandle {
			existing.ContactName = c.ContactName
			existing.UpdatedAt = m.now()
			out := *existing
			return &out, nil
		}
	}
	stored := *c
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = m.now()
	stored.UpdatedAt = stored.CreatedAt
	m.conversations[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *Memory) GetConversation(_ context.Context, userID string, ct domain.ChannelType, contactHandle string) (*domain.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.conversations {
		if c.UserID == userID && c.ChannelType == ct && c.ContactHandle == contactHandle {
			out := *c
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Memory) AppendMessage(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	stored := *msg
	m.messages = append(m.messages, &stored)
	return nil
}

func (m *Memory) ListMessages(_ context.Context, userID, conversationID string, limit int) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var msgs []domain.Message
	for _, msg := range m.messages {
		if msg.UserID == userID && msg.ConversationID == conversationID {
			msgs = append(msgs, *msg)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].Timestamp.Before(msgs[j].Timestamp) })
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (m *Memory) CreateTodo(_ context.Context, t *domain.Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Status = domain.StatusUnreplied
	t.CreatedAt = m.now()
	t.UpdatedAt = t.CreatedAt
	m.todos[t.ID] = cloneTodo(t)
	return nil
}

func (m *Memory) GetTodo(_ context.Context, userID, id string) (*domain.Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.todos[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return cloneTodo(t), nil
}

func (m *Memory) OpenTodoByConversation(_ context.Context, userID, conversationID string) (*domain.Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.todos {
		if t.UserID == userID && t.ConversationID == conversationID && t.Status != domain.StatusDone {
			return cloneTodo(t), nil
		}
	}
	return nil, nil
}

func (m *Memory) ReopenTodo(_ context.Context, id, preview string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.todos[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.LastMessagePreview = preview
	t.LastMessageTime = at
	t.Status = domain.StatusUnreplied
	t.SnoozedUntil = nil
	t.DoneAt = nil
	t.ReminderSent = false
	t.EscalationSent = false
	t.UpdatedAt = m.now()
	return nil
}

func (m *Memory) MarkDone(_ context.Context, userID, id string, at time.Time) (*domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.todos[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrNotFound
	}
	done := at
	t.Status = domain.StatusDone
	t.DoneAt = &done
	t.SnoozedUntil = nil
	t.UpdatedAt = m.now()
	return cloneTodo(t), nil
}

func (m *Memory) SnoozeTodo(_ context.Context, userID, id string, until time.Time) (*domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.todos[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrNotFound
	}
	u := until
	t.Status = domain.StatusSnoozed
	t.SnoozedUntil = &u
	t.DoneAt = nil
	t.UpdatedAt = m.now()
	return cloneTodo(t), nil
}

func (m *Memory) UnreplyTodo(_ context.Context, userID, id string) (*domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.todos[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrNotFound
	}
	t.Status = domain.StatusUnreplied
	t.SnoozedUntil = nil
	t.DoneAt = nil
	t.ReminderSent = false
	t.EscalationSent = false
	t.UpdatedAt = m.now()
	return cloneTodo(t), nil
}

func (m *Memory) SetNote(_ context.Context, userID, id, note string) (*domain.Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.todos[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrNotFound
	}
	t.Note = note
	t.UpdatedAt = m.now()
	return cloneTodo(t), nil
}

func (m *Memory) ExpireSnoozes(_ context.Context, userID string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int
	for _, t := range m.todos {
		if t.UserID == userID && t.Status == domain.StatusSnoozed &&
			t.SnoozedUntil != nil && !t.SnoozedUntil.After(now) {
			t.Status = domain.StatusUnreplied
			t.SnoozedUntil = nil
			t.UpdatedAt = m.now()
			n++
		}
	}
	return n, nil
}

func (m *Memory) ListTodos(_ context.Context, userID string, status *domain.TodoStatus) ([]domain.Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var todos []domain.Todo
	for _, t := range m.todos {
		if t.UserID != userID {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		todos = append(todos, *cloneTodo(t))
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].LastMessageTime.After(todos[j].LastMessageTime) })
	return todos, nil
}

func (m *Memory) CountTodos(_ context.Context, userID string, status domain.TodoStatus) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int
	for _, t := range m.todos {
		if t.UserID == userID && t.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountUnrepliedBefore(_ context.Context, userID string, cutoff time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int
	for _, t := range m.todos {
		if t.UserID == userID && t.Status == domain.StatusUnreplied && !t.LastMessageTime.After(cutoff) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) ListReminderDue(_ context.Context, userID string, cutoff time.Time) ([]domain.Todo, error) {
	return m.listDue(userID, cutoff, func(t *domain.Todo) bool { return !t.ReminderSent })
}

func (m *Memory) ListEscalationDue(_ context.Context, userID string, cutoff time.Time) ([]domain.Todo, error) {
	return m.listDue(userID, cutoff, func(t *domain.Todo) bool { return !t.EscalationSent })
}

func (m *Memory) listDue(userID string, cutoff time.Time, pending func(*domain.Todo) bool) ([]domain.Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var todos []domain.Todo
	for _, t := range m.todos {
		if t.UserID == userID && t.Status == domain.StatusUnreplied &&
			pending(t) && !t.LastMessageTime.After(cutoff) {
			todos = append(todos, *cloneTodo(t))
		}
	}
	sort.Slice(todos, func(i, j int) bool { return todos[i].LastMessageTime.Before(todos[j].LastMessageTime) })
	return todos, nil
}

func (m *Memory) ClaimReminderSent(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.todos[id]
	if !ok || t.Status != domain.StatusUnreplied || t.ReminderSent {
		return false, nil
	}
	t.ReminderSent = true
	t.UpdatedAt = m.now()
	return true, nil
}

func (m *Memory) ClaimEscalationSent(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.todos[id]
	if !ok || t.Status != domain.StatusUnreplied || t.EscalationSent {
		return false, nil
	}
	t.EscalationSent = true
	t.UpdatedAt = m.now()
	return true, nil
}

func (m *Memory) GetRule(_ context.Context, userID string) (*domain.ReminderRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rules[userID]
	if !ok {
		r = domain.DefaultRule(userID)
		r.ID = uuid.NewString()
		r.CreatedAt = m.now()
		r.UpdatedAt = r.CreatedAt
		m.rules[userID] = r
	}
	out := *r
	return &out, nil
}

func (m *Memory) UpdateRule(_ context.Context, rule *domain.ReminderRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rules[rule.UserID]
	if !ok {
		return domain.ErrNotFound
	}
	r.RemindAfterMinutes = rule.RemindAfterMinutes
	r.BusinessHoursStart = rule.BusinessHoursStart
	r.BusinessHoursEnd = rule.BusinessHoursEnd
	r.WeekendEnabled = rule.WeekendEnabled
	r.EscalationHours = rule.EscalationHours
	r.UpdatedAt = m.now()
	return nil
}

func (m *Memory) InsertNotification(_ context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = m.now()
	m.notifications = append(m.notifications, cloneNotification(n))
	return nil
}

func (m *Memory) SetEmailSent(_ context.Context, id string, sent bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.notifications {
		if n.ID == id {
			n.EmailSent = sent
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *Memory) ListNotifications(_ context.Context, userID string, limit int) ([]domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var res []domain.Notification
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if n.UserID != userID {
			continue
		}
		res = append(res, *cloneNotification(n))
		if limit > 0 && len(res) == limit {
			break
		}
	}
	return res, nil
}

func (m *Memory) UnreadCount(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int
	for _, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *Memory) MarkNotificationRead(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *Memory) MarkAllNotificationsRead(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}
