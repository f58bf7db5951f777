package services

import (
	"context"
	"fmt"

	"github.com/markdave123-py/mindease/internal/core"
	"github.com/markdave123-py/mindease/internal/core/persona"
)

const MaxAnswers = 20

type PersonaService struct {
	db     core.DbClient
	scorer *persona.Scorer
}

func NewPersonaService(db core.DbClient, scorer *persona.Scorer) *PersonaService {
	if scorer == nil {
		scorer = persona.NewScorer(nil)
	}
	return &PersonaService{db: db, scorer: scorer}
}

func (s *PersonaService) Questions() []persona.Question {
	return s.scorer.Questionnaire().Questions()
}

// Assign scores the answers and stores the winner as the user's tone.
// Re-assignment overwrites the previous persona.
func (s *PersonaService) Assign(ctx context.Context, userID string, answers []persona.Answer) (persona.Persona, error) {
	if userID == "" {
		return persona.Default, ErrUnauthorized
	}
	if len(answers) > MaxAnswers {
		return persona.Default, invalid("answers", "at most %d answers are accepted, got %d", MaxAnswers, len(answers))
	}

	p := s.scorer.Score(answers)
	if err := s.db.UpsertPreference(ctx, userID, p.String()); err != nil {
		return p, fmt.Errorf("save persona: %w", err)
	}
	return p, nil
}

// Current returns the user's persona, falling back to the default when none is stored.
func (s *PersonaService) Current(ctx context.Context, userID string) (persona.Persona, error) {
	if userID == "" {
		return persona.Default, ErrUnauthorized
	}
	pref, err := s.db.GetPreference(ctx, userID)
	if err != nil {
		return persona.Default, fmt.Errorf("load persona: %w", err)
	}
	if pref == nil {
		return persona.Default, nil
	}
	return persona.Resolve(pref.Tone), nil
}
