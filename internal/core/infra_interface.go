package core

import (
	"context"
	"time"

	"github.com/markdave123-py/mindease/internal/models"
)

// DbClient defines all persistence operations the services need.
// Lookups of a single record return (nil, nil) when it does not exist.
type DbClient interface {
	UpsertPreference(ctx context.Context, userID, tone string) error
	GetPreference(ctx context.Context, userID string) (*models.UserPreference, error)

	UpsertProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)

	// InsertChatMessages writes all messages in one transaction.
	InsertChatMessages(ctx context.Context, msgs ...*models.ChatMessage) error
	GetChatMessage(ctx context.Context, userID, id string) (*models.ChatMessage, error)
	GetReply(ctx context.Context, userID, messageID string) (*models.ChatMessage, error)
	// ListRecentMessages returns the newest limit messages in ascending timestamp order.
	ListRecentMessages(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error)

	// ClaimEscalation inserts the event if no event with the same id exists and
	// reports whether this call inserted it.
	ClaimEscalation(ctx context.Context, ev *models.EscalationEvent) (bool, error)

	CreateNotification(ctx context.Context, n *models.ScheduledNotification) error
	GetNotification(ctx context.Context, id string) (*models.ScheduledNotification, error)
	// ListDueNotifications returns unsent records due at or before now, with
	// fewer than maxAttempts failures, whose claim is absent or expired.
	ListDueNotifications(ctx context.Context, now time.Time, maxAttempts, limit int) ([]models.ScheduledNotification, error)
	ClaimNotification(ctx context.Context, id, token string, now, until time.Time) (bool, error)
	MarkNotificationSent(ctx context.Context, id, token string, at time.Time) (bool, error)
	ReleaseNotification(ctx context.Context, id, token, lastErr string) error

	CreateJournalEntry(ctx context.Context, e *models.JournalEntry) error
	ListJournalEntries(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error)

	CreateMoodLog(ctx context.Context, m *models.MoodLog) error
	// ListMoodLogs returns the newest limit logs, newest first.
	ListMoodLogs(ctx context.Context, userID string, limit int) ([]models.MoodLog, error)

	Ping(ctx context.Context) error
	Close() error
}

// OutboundMessage is a single message for the delivery sink. An empty From
// uses the sink's configured sender.
type OutboundMessage struct {
	To   string
	From string
	Body string
}

// DeliverySink transports a message. Success or failure only.
type DeliverySink interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// Sealer encrypts text at rest.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}
