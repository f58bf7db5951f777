package models

import (
	"time"
)

// Chat roles stored in chat_messages.role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// RiskLevel grades how dangerous a message is.
type RiskLevel string

const (
	RiskNone     RiskLevel = "none"
	RiskModerate RiskLevel = "moderate"
	RiskSevere   RiskLevel = "severe"
)

// Valid reports whether r is one of the three known levels.
func (r RiskLevel) Valid() bool {
	switch r {
	case RiskNone, RiskModerate, RiskSevere:
		return true
	}
	return false
}

// DistressAnalysis is attached to a user message at classification time.
// Reason is a short generic description, never the user's own words.
type DistressAnalysis struct {
	RiskLevel RiskLevel `json:"risk_level"`
	Reason    string    `json:"reason"`
}

// ChatMessage is one append-only conversation turn.
type ChatMessage struct {
	ID               string            `db:"id" json:"id"`
	UserID           string            `db:"user_id" json:"user_id"`
	Role             string            `db:"role" json:"role"`       // "user" or "assistant"
	Content          string            `db:"content" json:"content"` // message text
	CrisisFlag       bool              `db:"crisis_flag" json:"crisis_flag"`
	ReplyTo          string            `db:"reply_to" json:"reply_to,omitempty"` // assistant turns: id of the user message answered
	DistressAnalysis *DistressAnalysis `db:"-" json:"distress_analysis,omitempty"`
	Timestamp        time.Time         `db:"created_at" json:"timestamp"`
}

// UserPreference holds the persona assigned to a user. One row per user.
type UserPreference struct {
	UserID    string    `db:"user_id" json:"user_id"`
	Tone      string    `db:"tone" json:"tone"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EmergencyContact is the person alerted when a message is graded severe.
type EmergencyContact struct {
	Name         string `db:"emergency_contact_name" json:"name"`
	Phone        string `db:"emergency_contact_phone" json:"phone"`
	Relationship string `db:"emergency_contact_relationship" json:"relationship"`
}

// Profile is the subset of the user's account the safety pipeline reads.
type Profile struct {
	ID          string `db:"id" json:"id"`
	DisplayName string `db:"display_name" json:"display_name"`
	Email       string `db:"email" json:"email"`
	Phone       string `db:"phone" json:"phone"` // user's own WhatsApp number, used for reminders
	EmergencyContact
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EscalationEvent records that a severe-risk message has been escalated.
// ID is the message id, so a second escalation for the same message is rejected.
type EscalationEvent struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ScheduledNotification is a reminder created from a chat tool call.
// Sent moves from false to true once and never back.
type ScheduledNotification struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	ScheduledFor time.Time  `db:"scheduled_for" json:"scheduled_for"`
	Message      string     `db:"message" json:"message"`
	EventContext string     `db:"event_context" json:"event_context"`
	Sent         bool       `db:"sent" json:"sent"`
	SentAt       *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	Attempts     int        `db:"attempts" json:"attempts"`
	LastError    string     `db:"last_error" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// JournalEntry is a free-text journal with detected emotions.
// Content is sealed at rest when a journal key is configured.
type JournalEntry struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Content    string    `db:"content" json:"content"`
	MoodRating int       `db:"mood_rating" json:"mood_rating"`
	Emotions   []string  `db:"-" json:"detected_emotions"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// MoodLog is a single mood check-in.
type MoodLog struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	MoodRating     int       `db:"mood_rating" json:"mood_rating"`
	ContextTrigger string    `db:"context_trigger" json:"context_trigger,omitempty"`
	Timestamp      time.Time `db:"created_at" json:"timestamp"`
}
