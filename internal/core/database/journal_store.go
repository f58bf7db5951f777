package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/markdave123-py/mindease/internal/models"
)

type journalRow struct {
	models.JournalEntry
	EmotionsJSON string `db:"detected_emotions"`
}

func (c *DatabaseClient) CreateJournalEntry(ctx context.Context, e *models.JournalEntry) error {
	if e == nil {
		return errors.New("nil journal entry")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	emotions := e.Emotions
	if emotions == nil {
		emotions = []string{}
	}
	raw, err := json.Marshal(emotions)
	if err != nil {
		return fmt.Errorf("encode emotions: %w", err)
	}
	const q = `
		INSERT INTO journal_entries (id, user_id, content, mood_rating, detected_emotions, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = c.db.ExecContext(ctx, c.q(q), e.ID, e.UserID, e.Content, e.MoodRating, string(raw), ts(e.CreatedAt))
	return err
}

func (c *DatabaseClient) ListJournalEntries(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error) {
	const q = `
		SELECT id, user_id, content, mood_rating, detected_emotions, created_at
		FROM journal_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	var rows []journalRow
	if err := c.db.SelectContext(ctx, &rows, c.q(q), userID, limit); err != nil {
		return nil, err
	}
	out := make([]models.JournalEntry, 0, len(rows))
	for _, r := range rows {
		e := r.JournalEntry
		if err := json.Unmarshal([]byte(r.EmotionsJSON), &e.Emotions); err != nil {
			return nil, fmt.Errorf("decode emotions for entry %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *DatabaseClient) CreateMoodLog(ctx context.Context, m *models.MoodLog) error {
	if m == nil {
		return errors.New("nil mood log")
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	const q = `
		INSERT INTO mood_logs (id, user_id, mood_rating, context_trigger, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := c.db.ExecContext(ctx, c.q(q), m.ID, m.UserID, m.MoodRating, m.ContextTrigger, ts(m.Timestamp))
	return err
}

func (c *DatabaseClient) ListMoodLogs(ctx context.Context, userID string, limit int) ([]models.MoodLog, error) {
	const q = `
		SELECT id, user_id, mood_rating, context_trigger, created_at
		FROM mood_logs
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	var out []models.MoodLog
	if err := c.db.SelectContext(ctx, &out, c.q(q), userID, limit); err != nil {
		return nil, err
	}
	return out, nil
}
