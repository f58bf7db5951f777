package persona

import (
	"errors"
	"fmt"
)

// Option is one selectable answer with the points it awards.
type Option struct {
	ID     string          `json:"id"`
	Text   string          `json:"text"`
	Scores map[Persona]int `json:"-"`
}

// Question is one onboarding question.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// Questionnaire is an immutable, validated scoring configuration.
type Questionnaire struct {
	questions []Question
	weights   map[int]map[string][numPersonas]int
}

// NewQuestionnaire validates questions and builds the lookup table.
// Question ids must be positive and unique, option ids unique within their
// question, and every weight non-negative and attached to a known persona.
func NewQuestionnaire(questions []Question) (*Questionnaire, error) {
	if len(questions) == 0 {
		return nil, errors.New("questionnaire has no questions")
	}

	q := &Questionnaire{
		questions: make([]Question, 0, len(questions)),
		weights:   make(map[int]map[string][numPersonas]int, len(questions)),
	}
	for _, question := range questions {
		if question.ID <= 0 {
			return nil, fmt.Errorf("question id %d must be positive", question.ID)
		}
		if _, dup := q.weights[question.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %d", question.ID)
		}

		opts := make(map[string][numPersonas]int, len(question.Options))
		copied := Question{ID: question.ID, Text: question.Text, Options: make([]Option, 0, len(question.Options))}
		for _, opt := range question.Options {
			if opt.ID == "" {
				return nil, fmt.Errorf("question %d has an option without id", question.ID)
			}
			if _, dup := opts[opt.ID]; dup {
				return nil, fmt.Errorf("question %d: duplicate option id %q", question.ID, opt.ID)
			}
			var row [numPersonas]int
			scores := make(map[Persona]int, len(opt.Scores))
			for p, w := range opt.Scores {
				if !p.valid() {
					return nil, fmt.Errorf("question %d option %q: unknown persona %d", question.ID, opt.ID, p)
				}
				if w < 0 {
					return nil, fmt.Errorf("question %d option %q: negative weight for %s", question.ID, opt.ID, p)
				}
				row[p] = w
				scores[p] = w
			}
			opts[opt.ID] = row
			copied.Options = append(copied.Options, Option{ID: opt.ID, Text: opt.Text, Scores: scores})
		}
		q.weights[question.ID] = opts
		q.questions = append(q.questions, copied)
	}
	return q, nil
}

// Questions returns the questions in presentation order. Weights are
// omitted from the JSON form.
func (q *Questionnaire) Questions() []Question {
	out := make([]Question, len(q.questions))
	copy(out, q.questions)
	return out
}

func (q *Questionnaire) lookup(questionID int, optionID string) ([numPersonas]int, bool) {
	opts, ok := q.weights[questionID]
	if !ok {
		return [numPersonas]int{}, false
	}
	row, ok := opts[optionID]
	return row, ok
}

// DefaultQuestionnaire is the product's onboarding catalog.
func DefaultQuestionnaire() *Questionnaire {
	q, err := NewQuestionnaire(defaultQuestions)
	if err != nil {
		panic(fmt.Sprintf("default questionnaire: %v", err))
	}
	return q
}

var defaultQuestions = []Question{
	{
		ID:   1,
		Text: "When you have a great day, what's the first thing you feel like doing?",
		Options: []Option{
			{ID: "a", Text: "Sharing the exciting details with someone close.", Scores: map[Persona]int{Friend: 2, RomanticPartner: 1}},
			{ID: "b", Text: "Thinking about how this success builds towards a bigger goal.", Scores: map[Persona]int{Mentor: 2}},
			{ID: "c", Text: "Just enjoying the feeling quietly and feeling proud.", Scores: map[Persona]int{Supporter: 1}},
			{ID: "d", Text: "Wishing I had a special someone to celebrate with.", Scores: map[Persona]int{RomanticPartner: 2}},
		},
	},
	{
		ID:   2,
		Text: "Imagine you're facing a tough challenge. What kind of support sounds most helpful right now?",
		Options: []Option{
			{ID: "a", Text: "Someone to listen without judgment while I vent.", Scores: map[Persona]int{Friend: 2}},
			{ID: "b", Text: "A step-by-step plan to tackle the problem head-on.", Scores: map[Persona]int{Mentor: 2}},
			{ID: "c", Text: "Gentle reminders that I'm strong enough to get through it.", Scores: map[Persona]int{Supporter: 1, RomanticPartner: 1}},
			{ID: "d", Text: "A comforting presence to make me feel safe and less alone.", Scores: map[Persona]int{RomanticPartner: 2, Friend: 1}},
		},
	},
	{
		ID:   3,
		Text: "What's one area of your life you're thinking about most right now?",
		Options: []Option{
			{ID: "a", Text: "My personal projects and career ambitions.", Scores: map[Persona]int{Mentor: 2}},
			{ID: "b", Text: "My relationships and connections with others.", Scores: map[Persona]int{Friend: 2, RomanticPartner: 1}},
			{ID: "c", Text: "My daily habits and self-care routines.", Scores: map[Persona]int{Supporter: 2}},
			{ID: "d", Text: "Finding a deeper sense of purpose and happiness.", Scores: map[Persona]int{Mentor: 1, RomanticPartner: 1}},
		},
	},
	{
		ID:   4,
		Text: "Pick a quote that resonates most with you today:",
		Options: []Option{
			{ID: "a", Text: `"The only way to have a friend is to be one." - Ralph Waldo Emerson`, Scores: map[Persona]int{Friend: 2}},
			{ID: "b", Text: `"The future belongs to those who believe in the beauty of their dreams." - Eleanor Roosevelt`, Scores: map[Persona]int{Mentor: 2}},
			{ID: "c", Text: `"You yourself, as much as anybody in the entire universe, deserve your love and affection." - Buddha`, Scores: map[Persona]int{RomanticPartner: 2, Supporter: 1}},
			{ID: "d", Text: `"Just one small positive thought in the morning can change your whole day."`, Scores: map[Persona]int{Supporter: 2}},
		},
	},
	{
		ID:   5,
		Text: "If you had a free afternoon, what would you prefer to do?",
		Options: []Option{
			{ID: "a", Text: "Chat about movies, hobbies, or just laugh about silly things.", Scores: map[Persona]int{Friend: 2}},
			{ID: "b", Text: "Brainstorm ideas for a new skill I want to learn.", Scores: map[Persona]int{Mentor: 2}},
			{ID: "c", Text: "Have a deep, meaningful conversation about life and feelings.", Scores: map[Persona]int{RomanticPartner: 2}},
			{ID: "d", Text: "Get a pep talk to feel motivated for the week ahead.", Scores: map[Persona]int{Supporter: 2}},
		},
	},
}
