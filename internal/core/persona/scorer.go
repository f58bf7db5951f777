package persona

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Answer is one questionnaire response. QuestionID accepts a JSON number or
// a numeric string; anything else decodes to 0, which never matches. A value
// that is not an object decodes to the zero Answer and is skipped by Tally.
type Answer struct {
	QuestionID int    `json:"questionId"`
	OptionID   string `json:"optionId"`
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw struct {
		QuestionID json.RawMessage `json:"questionId"`
		OptionID   any             `json:"optionId"`
	}
	*a = Answer{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	if s, ok := raw.OptionID.(string); ok {
		a.OptionID = s
	}

	id := bytes.TrimSpace(raw.QuestionID)
	if len(id) == 0 || bytes.Equal(id, []byte("null")) {
		return nil
	}
	var s string
	if id[0] == '"' {
		if err := json.Unmarshal(id, &s); err != nil {
			return nil
		}
	} else {
		s = string(id)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		a.QuestionID = n
	}
	return nil
}

// Scores holds one accumulator per persona.
type Scores [numPersonas]int

// Of returns the score accumulated for p.
func (s Scores) Of(p Persona) int {
	if !p.valid() {
		return 0
	}
	return s[p]
}

func (s Scores) String() string {
	parts := make([]string, 0, numPersonas)
	for _, p := range All() {
		parts = append(parts, fmt.Sprintf("%s=%d", p, s[p]))
	}
	return strings.Join(parts, " ")
}

// Scorer assigns a persona from questionnaire answers. It holds no mutable
// state and is safe for concurrent use.
type Scorer struct {
	questionnaire *Questionnaire
}

func NewScorer(q *Questionnaire) *Scorer {
	if q == nil {
		q = DefaultQuestionnaire()
	}
	return &Scorer{questionnaire: q}
}

// Questionnaire returns the configuration the scorer was built with.
func (s *Scorer) Questionnaire() *Questionnaire {
	return s.questionnaire
}

// Tally sums the weights of every recognised answer. Unknown question or
// option ids are skipped.
func (s *Scorer) Tally(answers []Answer) Scores {
	var scores Scores
	for _, a := range answers {
		row, ok := s.questionnaire.lookup(a.QuestionID, a.OptionID)
		if !ok {
			continue
		}
		for p := range row {
			scores[p] += row[p]
		}
	}
	return scores
}

// Score returns the highest-scoring persona. Ties, including the all-zero
// case, go to the earliest persona in the order
// romanticPartner, mentor, friend, supporter.
func (s *Scorer) Score(answers []Answer) Persona {
	return s.Tally(answers).Winner()
}

// Winner applies the tie-break order to the accumulated scores.
func (s Scores) Winner() Persona {
	best := priority[0]
	for _, p := range priority[1:] {
		if s[p] > s[best] {
			best = p
		}
	}
	return best
}
