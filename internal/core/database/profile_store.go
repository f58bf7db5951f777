package db

import (
	"context"
	"errors"
	"time"

	"github.com/markdave123-py/mindease/internal/models"
)

func (c *DatabaseClient) UpsertPreference(ctx context.Context, userID, tone string) error {
	const q = `
		INSERT INTO user_preferences (user_id, tone, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET tone = excluded.tone, updated_at = excluded.updated_at
	`
	_, err := c.db.ExecContext(ctx, c.q(q), userID, tone, ts(time.Now()))
	return err
}

func (c *DatabaseClient) GetPreference(ctx context.Context, userID string) (*models.UserPreference, error) {
	const q = `SELECT user_id, tone, updated_at FROM user_preferences WHERE user_id = ?`
	var p models.UserPreference
	err := c.db.GetContext(ctx, &p, c.q(q), userID)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *DatabaseClient) UpsertProfile(ctx context.Context, p *models.Profile) error {
	if p == nil {
		return errors.New("nil profile")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	const q = `
		INSERT INTO profiles
			(id, display_name, email, phone,
			 emergency_contact_name, emergency_contact_phone, emergency_contact_relationship, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = excluded.display_name,
			email = excluded.email,
			phone = excluded.phone,
			emergency_contact_name = excluded.emergency_contact_name,
			emergency_contact_phone = excluded.emergency_contact_phone,
			emergency_contact_relationship = excluded.emergency_contact_relationship
	`
	_, err := c.db.ExecContext(ctx, c.q(q),
		p.ID, p.DisplayName, p.Email, p.Phone,
		p.EmergencyContact.Name, p.EmergencyContact.Phone, p.EmergencyContact.Relationship, ts(p.CreatedAt))
	return err
}

func (c *DatabaseClient) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	const q = `
		SELECT id, display_name, email, phone,
			emergency_contact_name, emergency_contact_phone, emergency_contact_relationship, created_at
		FROM profiles WHERE id = ?
	`
	var p models.Profile
	err := c.db.GetContext(ctx, &p, c.q(q), userID)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ClaimEscalation relies on the (user_id, id) key: a second insert for the
// same user's message id is ignored and reports false.
func (c *DatabaseClient) ClaimEscalation(ctx context.Context, ev *models.EscalationEvent) (bool, error) {
	if ev == nil || ev.ID == "" || ev.UserID == "" {
		return false, errors.New("escalation event needs an id and a user")
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	const q = `
		INSERT INTO escalation_events (id, user_id, reason, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO NOTHING
	`
	res, err := c.db.ExecContext(ctx, c.q(q), ev.ID, ev.UserID, ev.Reason, ts(ev.CreatedAt))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
