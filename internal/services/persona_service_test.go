package services

import (
	"context"
	"errors"
	"testing"

	"github.com/markdave123-py/mindease/internal/core/persona"
)

func TestPersonaService_AssignAndCurrent(t *testing.T) {
	store := newTestStore(t)
	svc := NewPersonaService(store, nil)
	ctx := context.Background()

	got, err := svc.Current(ctx, testUser)
	if err != nil || got != persona.Friend {
		t.Errorf("Current() before assignment = %v, %v, want friend", got, err)
	}

	p, err := svc.Assign(ctx, testUser, nil)
	if err != nil || p != persona.RomanticPartner {
		t.Errorf("Assign(nil) = %v, %v, want romanticPartner", p, err)
	}

	p, err = svc.Assign(ctx, testUser, []persona.Answer{{QuestionID: 1, OptionID: "a"}, {QuestionID: 3, OptionID: "a"}})
	if err != nil || p != persona.Mentor {
		t.Errorf("Assign(mentor answers) = %v, %v", p, err)
	}
	if got, _ := svc.Current(ctx, testUser); got != persona.Mentor {
		t.Errorf("Current() after reassignment = %v, want mentor", got)
	}
}

func TestPersonaService_LegacyToneResolves(t *testing.T) {
	store := newTestStore(t)
	svc := NewPersonaService(store, nil)
	if err := store.UpsertPreference(context.Background(), testUser, "friendly"); err != nil {
		t.Fatal(err)
	}
	if got, _ := svc.Current(context.Background(), testUser); got != persona.Friend {
		t.Errorf("Current() = %v, want friend", got)
	}
}

func TestPersonaService_Limits(t *testing.T) {
	svc := NewPersonaService(newTestStore(t), nil)
	answers := make([]persona.Answer, MaxAnswers+1)
	if _, err := svc.Assign(context.Background(), testUser, answers); !IsValidation(err) {
		t.Errorf("21 answers err = %v", err)
	}
	if _, err := svc.Assign(context.Background(), "", nil); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("no user err = %v", err)
	}
	if len(svc.Questions()) != 5 {
		t.Errorf("questions = %d, want 5", len(svc.Questions()))
	}
}
