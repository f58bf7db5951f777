package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/markdave123-py/mindease/internal/models"
)

const chatColumns = `id, user_id, role, content, crisis_flag, risk_level, risk_reason, reply_to, created_at`

type chatRow struct {
	models.ChatMessage
	RiskLevel  sql.NullString `db:"risk_level"`
	RiskReason sql.NullString `db:"risk_reason"`
}

func (r chatRow) toModel() models.ChatMessage {
	m := r.ChatMessage
	if r.RiskLevel.Valid {
		m.DistressAnalysis = &models.DistressAnalysis{
			RiskLevel: models.RiskLevel(r.RiskLevel.String),
			Reason:    r.RiskReason.String,
		}
	}
	return m
}

// InsertChatMessages writes the messages in one transaction.
func (c *DatabaseClient) InsertChatMessages(ctx context.Context, msgs ...*models.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	q := c.q(`INSERT INTO chat_messages (` + chatColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for _, m := range msgs {
		if m == nil {
			_ = tx.Rollback()
			return errors.New("nil chat message")
		}
		var level, reason sql.NullString
		if m.DistressAnalysis != nil {
			level = sql.NullString{String: string(m.DistressAnalysis.RiskLevel), Valid: true}
			reason = sql.NullString{String: m.DistressAnalysis.Reason, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, q,
			m.ID, m.UserID, m.Role, m.Content, m.CrisisFlag, level, reason, m.ReplyTo, ts(m.Timestamp),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert chat message %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) GetChatMessage(ctx context.Context, userID, id string) (*models.ChatMessage, error) {
	q := c.q(`SELECT ` + chatColumns + ` FROM chat_messages WHERE user_id = ? AND id = ?`)
	var row chatRow
	err := c.db.GetContext(ctx, &row, q, userID, id)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m := row.toModel()
	return &m, nil
}

// GetReply returns the assistant message answering messageID, if any.
func (c *DatabaseClient) GetReply(ctx context.Context, userID, messageID string) (*models.ChatMessage, error) {
	q := c.q(`SELECT ` + chatColumns + ` FROM chat_messages
		WHERE user_id = ? AND reply_to = ? AND role = 'assistant'
		ORDER BY created_at ASC LIMIT 1`)
	var row chatRow
	err := c.db.GetContext(ctx, &row, q, userID, messageID)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m := row.toModel()
	return &m, nil
}

func (c *DatabaseClient) ListRecentMessages(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	q := c.q(`SELECT ` + chatColumns + ` FROM (
			SELECT ` + chatColumns + ` FROM chat_messages
			WHERE user_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		) recent
		ORDER BY created_at ASC, id ASC`)

	var rows []chatRow
	if err := c.db.SelectContext(ctx, &rows, q, userID, limit); err != nil {
		return nil, err
	}
	out := make([]models.ChatMessage, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}
