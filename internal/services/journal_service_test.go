package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/markdave123-py/mindease/internal/core/sealer"
)

func TestParseEmotions(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{`["anxiety", "stress", "hope"]`, []string{"anxiety", "stress", "hope"}},
		{"```json\n[\"Joy\", \"joy\", \"peace\"]\n```", []string{"joy", "peace"}},
		{`["joy","sadness","anger","fear","hope","stress"]`, []string{"joy", "sadness", "anger", "fear", "hope"}},
		{`["bored", "meh"]`, []string{"neutral"}},
		{`not json at all`, []string{"neutral"}},
		{`{"emotions": ["joy"]}`, []string{"neutral"}},
		{``, []string{"neutral"}},
	}
	for _, tt := range tests {
		if got := parseEmotions(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseEmotions(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestJournal_CreateSealsContent(t *testing.T) {
	store := newTestStore(t)
	llm := &fakeLLM{jsonFn: func(sys, user string) (string, error) { return `["gratitude","peace"]`, nil }}
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32))
	box, err := sealer.New(key)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewJournalService(store, llm, box, time.Second, quietLogger())
	ctx := context.Background()

	entry, err := svc.Create(ctx, testUser, "Walked by the river today.", 0)
	if err != nil {
		t.Fatal(err)
	}
	if entry.MoodRating != DefaultMoodRating || !reflect.DeepEqual(entry.Emotions, []string{"gratitude", "peace"}) {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Content != "Walked by the river today." {
		t.Errorf("returned content = %q", entry.Content)
	}

	raw, err := store.ListJournalEntries(ctx, testUser, 10)
	if err != nil || len(raw) != 1 {
		t.Fatalf("stored = %v, %v", raw, err)
	}
	if strings.Contains(raw[0].Content, "river") {
		t.Error("journal stored in plaintext")
	}

	list, err := svc.List(ctx, testUser, 0)
	if err != nil || len(list) != 1 || list[0].Content != "Walked by the river today." {
		t.Errorf("List() = %+v, %v", list, err)
	}
}

func TestJournal_Validation(t *testing.T) {
	llm := &fakeLLM{jsonFn: func(string, string) (string, error) { return `["joy"]`, nil }}
	svc := NewJournalService(newTestStore(t), llm, nil, time.Second, quietLogger())
	ctx := context.Background()

	if _, err := svc.Create(ctx, testUser, strings.Repeat("a", MaxJournalLength+1), 3); !IsValidation(err) {
		t.Errorf("10001 chars err = %v", err)
	}
	if _, err := svc.Analyze(ctx, strings.Repeat("a", MaxJournalLength+1)); !IsValidation(err) {
		t.Errorf("Analyze 10001 chars err = %v", err)
	}
	if _, err := svc.Create(ctx, testUser, "   ", 3); !IsValidation(err) {
		t.Errorf("blank err = %v", err)
	}
	for _, r := range []int{-1, 6} {
		if _, err := svc.Create(ctx, testUser, "fine", r); !IsValidation(err) {
			t.Errorf("rating %d err = %v", r, err)
		}
	}
	if _, err := svc.Create(ctx, "", "fine", 3); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("no user err = %v", err)
	}
	if _, json := llm.calls(); json != 0 {
		t.Errorf("oracle called %d times on invalid input", json)
	}

	if _, err := svc.Create(ctx, testUser, strings.Repeat("a", MaxJournalLength), 5); err != nil {
		t.Errorf("entry at the limit rejected: %v", err)
	}
}

func TestJournal_OracleFailureStoresNothing(t *testing.T) {
	store := newTestStore(t)
	llm := &fakeLLM{jsonFn: func(string, string) (string, error) { return "", errors.New("quota exceeded") }}
	svc := NewJournalService(store, llm, nil, time.Second, quietLogger())

	if _, err := svc.Create(context.Background(), testUser, "today", 3); !errors.Is(err, ErrChatUnavailable) {
		t.Errorf("err = %v, want ErrChatUnavailable", err)
	}
	entries, _ := store.ListJournalEntries(context.Background(), testUser, 10)
	if len(entries) != 0 {
		t.Errorf("stored %d entries after failure", len(entries))
	}
}

func TestMood_LogAndInsights(t *testing.T) {
	store := newTestStore(t)
	svc := NewMoodService(store)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, r := range []int{2, 4, 5} {
		at := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return at }
		if _, err := svc.Log(ctx, testUser, r, "work"); err != nil {
			t.Fatal(err)
		}
	}

	in, err := svc.Insights(ctx, testUser)
	if err != nil {
		t.Fatal(err)
	}
	if in.EntryCount != 3 || in.AverageMood != 3.67 {
		t.Errorf("insights = %+v", in)
	}
	if in.Series[0].MoodRating != 2 || in.Series[2].MoodRating != 5 {
		t.Errorf("series not oldest first: %+v", in.Series)
	}

	empty, err := svc.Insights(ctx, "nobody")
	if err != nil || empty.EntryCount != 0 || empty.AverageMood != 0 || empty.Series == nil {
		t.Errorf("empty insights = %+v, %v", empty, err)
	}
}

func TestMood_Validation(t *testing.T) {
	svc := NewMoodService(newTestStore(t))
	for _, r := range []int{0, 6} {
		if _, err := svc.Log(context.Background(), testUser, r, ""); !IsValidation(err) {
			t.Errorf("rating %d err = %v", r, err)
		}
	}
	if _, err := svc.Log(context.Background(), testUser, 3, strings.Repeat("x", 501)); !IsValidation(err) {
		t.Errorf("long trigger err = %v", err)
	}
}

