package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/markdave123-py/mindease/internal/core"
	"github.com/markdave123-py/mindease/internal/models"
)

const (
	insightWindow    = 30
	maxTriggerLength = 500
)

type Insights struct {
	AverageMood float64          `json:"average_mood"`
	EntryCount  int              `json:"entry_count"`
	Series      []models.MoodLog `json:"series"` // oldest first
}

type MoodService struct {
	db  core.DbClient
	now func() time.Time
}

func NewMoodService(db core.DbClient) *MoodService {
	return &MoodService{db: db, now: time.Now}
}

func (s *MoodService) Log(ctx context.Context, userID string, rating int, trigger string) (*models.MoodLog, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := checkRating(rating); err != nil {
		return nil, err
	}
	trigger = strings.TrimSpace(trigger)
	if utf8.RuneCountInString(trigger) > maxTriggerLength {
		return nil, invalid("context_trigger", "must be at most %d characters", maxTriggerLength)
	}

	m := &models.MoodLog{
		ID:             uuid.NewString(),
		UserID:         userID,
		MoodRating:     rating,
		ContextTrigger: trigger,
		Timestamp:      s.now(),
	}
	if err := s.db.CreateMoodLog(ctx, m); err != nil {
		return nil, fmt.Errorf("save mood: %w", err)
	}
	return m, nil
}

// Insights summarises the user's last 30 mood logs.
func (s *MoodService) Insights(ctx context.Context, userID string) (*Insights, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	logs, err := s.db.ListMoodLogs(ctx, userID, insightWindow)
	if err != nil {
		return nil, fmt.Errorf("load moods: %w", err)
	}

	out := &Insights{EntryCount: len(logs), Series: make([]models.MoodLog, 0, len(logs))}
	sum := 0
	for i := len(logs) - 1; i >= 0; i-- {
		sum += logs[i].MoodRating
		out.Series = append(out.Series, logs[i])
	}
	if len(logs) > 0 {
		out.AverageMood = math.Round(float64(sum)/float64(len(logs))*100) / 100
	}
	return out, nil
}
