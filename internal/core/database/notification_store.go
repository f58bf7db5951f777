package db

import (
	"context"
	"errors"
	"time"

	"github.com/markdave123-py/mindease/internal/models"
)

const notificationColumns = `id, user_id, scheduled_for, message, event_context, sent, sent_at, attempts, last_error, created_at`

func (c *DatabaseClient) CreateNotification(ctx context.Context, n *models.ScheduledNotification) error {
	if n == nil {
		return errors.New("nil notification")
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	const q = `
		INSERT INTO scheduled_notifications (id, user_id, scheduled_for, message, event_context, sent, attempts, last_error, created_at)
		VALUES (?, ?, ?, ?, ?, FALSE, 0, '', ?)
	`
	_, err := c.db.ExecContext(ctx, c.q(q), n.ID, n.UserID, ts(n.ScheduledFor), n.Message, n.EventContext, ts(n.CreatedAt))
	return err
}

func (c *DatabaseClient) GetNotification(ctx context.Context, id string) (*models.ScheduledNotification, error) {
	q := c.q(`SELECT ` + notificationColumns + ` FROM scheduled_notifications WHERE id = ?`)
	var n models.ScheduledNotification
	err := c.db.GetContext(ctx, &n, q, id)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *DatabaseClient) ListDueNotifications(ctx context.Context, now time.Time, maxAttempts, limit int) ([]models.ScheduledNotification, error) {
	q := c.q(`SELECT ` + notificationColumns + ` FROM scheduled_notifications
		WHERE sent = FALSE
		  AND scheduled_for <= ?
		  AND attempts < ?
		  AND (claimed_until IS NULL OR claimed_until < ?)
		ORDER BY scheduled_for ASC, id ASC
		LIMIT ?`)
	now = ts(now)
	var out []models.ScheduledNotification
	if err := c.db.SelectContext(ctx, &out, q, now, maxAttempts, now, limit); err != nil {
		return nil, err
	}
	return out, nil
}

// ClaimNotification leases an unsent record to token until the given time.
// It fails when another runner holds an unexpired claim or the record was sent.
func (c *DatabaseClient) ClaimNotification(ctx context.Context, id, token string, now, until time.Time) (bool, error) {
	const q = `
		UPDATE scheduled_notifications
		SET claim_token = ?, claimed_until = ?
		WHERE id = ? AND sent = FALSE AND (claimed_until IS NULL OR claimed_until < ?)
	`
	res, err := c.db.ExecContext(ctx, c.q(q), token, ts(until), id, ts(now))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// MarkNotificationSent flips sent to true for the holder of the claim. The
// sent = FALSE guard means the flag never transitions twice.
func (c *DatabaseClient) MarkNotificationSent(ctx context.Context, id, token string, at time.Time) (bool, error) {
	const q = `
		UPDATE scheduled_notifications
		SET sent = TRUE, sent_at = ?, claim_token = NULL, claimed_until = NULL
		WHERE id = ? AND claim_token = ? AND sent = FALSE
	`
	res, err := c.db.ExecContext(ctx, c.q(q), ts(at), id, token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ReleaseNotification records a failed attempt and frees the claim so the
// next run can retry.
func (c *DatabaseClient) ReleaseNotification(ctx context.Context, id, token, lastErr string) error {
	const q = `
		UPDATE scheduled_notifications
		SET attempts = attempts + 1, last_error = ?, claim_token = NULL, claimed_until = NULL
		WHERE id = ? AND claim_token = ? AND sent = FALSE
	`
	_, err := c.db.ExecContext(ctx, c.q(q), lastErr, id, token)
	return err
}
