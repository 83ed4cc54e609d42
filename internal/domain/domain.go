package domain

import "time"

type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

type ChannelType string

const (
	ChannelInstagram ChannelType = "instagram"
	ChannelWhatsApp  ChannelType = "whatsapp"
)

// Valid reports whether ct is one of the supported channel types.
func (ct ChannelType) Valid() bool {
	return ct == ChannelInstagram || ct == ChannelWhatsApp
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type TodoStatus string

const (
	StatusUnreplied TodoStatus = "unreplied"
	StatusSnoozed   TodoStatus = "snoozed"
	StatusDone      TodoStatus = "done"
)

type NotificationType string

const (
	NotificationReminder   NotificationType = "reminder"
	NotificationEscalation NotificationType = "escalation"
	NotificationInfo       NotificationType = "info"
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Plan           Plan      `json:"plan"`
	TodosUsed      int       `json:"todos_used_this_month"` // todos created in the current month
	TodosMonth     string    `json:"-"`                     // "2006-01" tag the counter belongs to
	TelegramChatID *int64    `json:"-"`                     // linked chat for push delivery, nil if not linked
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Channel struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Type      ChannelType `json:"type"`
	Name      string      `json:"name"`
	Connected bool        `json:"connected"`
	CreatedAt time.Time   `json:"created_at"`
}

// Conversation groups messages with one contact on one channel. The handle is
// the immutable identity key; the display name tracks the last seen value.
type Conversation struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	ChannelID     string      `json:"channel_id"`
	ChannelType   ChannelType `json:"channel_type"`
	ContactName   string      `json:"contact_name"`
	ContactHandle string      `json:"contact_handle"`
	ExternalID    string      `json:"external_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Direction      Direction `json:"direction"`
	Content        string    `json:"content"`
	ExternalID     string    `json:"external_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Todo is the unit of required action derived from an unanswered inbound
// message. At most one non-done todo exists per conversation.
type Todo struct {
	ID                 string      `json:"id"`
	UserID             string      `json:"user_id"`
	ConversationID     string      `json:"conversation_id"`
	ChannelType        ChannelType `json:"channel_type"`
	ContactName        string      `json:"contact_name"`
	ContactHandle      string      `json:"contact_handle"`
	LastMessagePreview string      `json:"last_message_preview"`
	LastMessageTime    time.Time   `json:"last_message_time"`
	Status             TodoStatus  `json:"status"`
	SnoozedUntil       *time.Time  `json:"snoozed_until,omitempty"` // non-nil iff Status == StatusSnoozed
	Note               string      `json:"note,omitempty"`
	ReminderSent       bool        `json:"reminder_sent"`
	EscalationSent     bool        `json:"escalation_sent"`
	DoneAt             *time.Time  `json:"done_at,omitempty"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// Open reports whether the todo still needs attention.
func (t *Todo) Open() bool { return t.Status != StatusDone }

type ReminderRule struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	RemindAfterMinutes int       `json:"remind_after_minutes"`
	BusinessHoursStart string    `json:"business_hours_start"` // "HH:MM"
	BusinessHoursEnd   string    `json:"business_hours_end"`   // "HH:MM"
	WeekendEnabled     bool      `json:"weekend_enabled"`
	EscalationHours    int       `json:"escalation_hours"` // 0 disables escalation
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

const (
	DefaultRemindAfterMinutes = 30
	DefaultBusinessHoursStart = "09:00"
	DefaultBusinessHoursEnd   = "17:00"
)

// DefaultRule returns the rule set a user starts with.
func DefaultRule(userID string) *ReminderRule {
	return &ReminderRule{
		UserID:             userID,
		RemindAfterMinutes: DefaultRemindAfterMinutes,
		BusinessHoursStart: DefaultBusinessHoursStart,
		BusinessHoursEnd:   DefaultBusinessHoursEnd,
	}
}

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	TodoID    *string          `json:"todo_id,omitempty"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	EmailSent bool             `json:"email_sent"`
	CreatedAt time.Time        `json:"created_at"`
}

type TodoStats struct {
	Unreplied int `json:"unreplied"`
	Snoozed   int `json:"snoozed"`
	Done      int `json:"done"`
	Overdue   int `json:"overdue"`
	DueSoon   int `json:"due_soon"`
}

// PlanLimits bundles the quotas and feature flags of one tier.
// A limit of -1 means unlimited.
type PlanLimits struct {
	Name            string   `json:"name"`
	Price           int      `json:"price"`
	MaxActiveTodos  int      `json:"max_active_todos"`
	MaxChannels     int      `json:"max_channels"`
	CustomReminders bool     `json:"custom_reminders"`
	Escalation      bool     `json:"escalation"`
	Features        []string `json:"features"`
}
