package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/mindease/internal/core"
	vault "github.com/markdave123-py/mindease/internal/core/sealer"
	"github.com/markdave123-py/mindease/internal/models"
)

const (
	MaxJournalLength  = 10000
	DefaultMoodRating = 3
	maxEmotions       = 5
	defaultJournals   = 20
	maxJournals       = 100
)

const emotionPrompt = `Analyze the journal entry and identify 3-5 primary emotions present. Return only a JSON array of emotion labels. Use these categories: joy, sadness, anxiety, anger, fear, gratitude, stress, contentment, loneliness, hope, frustration, excitement, peace, overwhelm, confusion. Example: ["anxiety", "stress", "hope"]`

var emotionCategories = map[string]bool{
	"joy": true, "sadness": true, "anxiety": true, "anger": true, "fear": true,
	"gratitude": true, "stress": true, "contentment": true, "loneliness": true, "hope": true,
	"frustration": true, "excitement": true, "peace": true, "overwhelm": true, "confusion": true,
}

var neutralEmotions = []string{"neutral"}

type JournalService struct {
	db      core.DbClient
	oracle  core.LLMProvider
	sealer  core.Sealer
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func NewJournalService(db core.DbClient, oracle core.LLMProvider, sealer core.Sealer, timeout time.Duration, logger *slog.Logger) *JournalService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if sealer == nil {
		sealer = vault.Plain{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalService{db: db, oracle: oracle, sealer: sealer, timeout: timeout, logger: logger, now: time.Now}
}

// Analyze returns the emotions the oracle detects in content.
func (s *JournalService) Analyze(ctx context.Context, content string) ([]string, error) {
	if err := checkText("content", content, MaxJournalLength); err != nil {
		return nil, err
	}
	return s.analyze(ctx, content)
}

func (s *JournalService) analyze(ctx context.Context, content string) ([]string, error) {
	if s.oracle == nil {
		return nil, ErrChatUnavailable
	}
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.oracle.GenerateJSON(callCtx, emotionPrompt, content)
	if err != nil {
		s.logger.Error("emotion analysis failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrChatUnavailable, err)
	}
	return parseEmotions(raw), nil
}

// parseEmotions keeps known labels from a JSON array, deduplicated and
// lowercased. Anything unusable yields ["neutral"].
func parseEmotions(raw string) []string {
	var labels []string
	if err := json.Unmarshal([]byte(core.ExtractJSON(raw)), &labels); err != nil {
		return neutralEmotions
	}
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, maxEmotions)
	for _, l := range labels {
		l = strings.ToLower(strings.TrimSpace(l))
		if !emotionCategories[l] || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
		if len(out) == maxEmotions {
			break
		}
	}
	if len(out) == 0 {
		return neutralEmotions
	}
	return out
}

// Create analyses and stores a journal entry. Nothing is stored if the
// analysis call fails.
func (s *JournalService) Create(ctx context.Context, userID, content string, moodRating int) (*models.JournalEntry, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := checkText("content", content, MaxJournalLength); err != nil {
		return nil, err
	}
	if moodRating == 0 {
		moodRating = DefaultMoodRating
	}
	if err := checkRating(moodRating); err != nil {
		return nil, err
	}

	emotions, err := s.analyze(ctx, content)
	if err != nil {
		return nil, err
	}

	sealed, err := s.sealer.Seal(content)
	if err != nil {
		return nil, fmt.Errorf("seal journal: %w", err)
	}
	entry := &models.JournalEntry{
		ID:         uuid.NewString(),
		UserID:     userID,
		Content:    sealed,
		MoodRating: moodRating,
		Emotions:   emotions,
		CreatedAt:  s.now(),
	}
	if err := s.db.CreateJournalEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("save journal: %w", err)
	}
	entry.Content = content
	return entry, nil
}

// List returns the user's newest entries with content decrypted.
func (s *JournalService) List(ctx context.Context, userID string, limit int) ([]models.JournalEntry, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if limit <= 0 || limit > maxJournals {
		limit = defaultJournals
	}
	entries, err := s.db.ListJournalEntries(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("load journals: %w", err)
	}
	for i := range entries {
		plain, err := s.sealer.Open(entries[i].Content)
		if err != nil {
			s.logger.Error("journal entry could not be opened", "entry_id", entries[i].ID, "error", err)
			plain = ""
		}
		entries[i].Content = plain
	}
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	return entries, nil
}

func checkRating(r int) error {
	if r < 1 || r > 5 {
		return invalid("mood_rating", "must be between 1 and 5")
	}
	return nil
}
