package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/markdave123-py/mindease/internal/core"
	db "github.com/markdave123-py/mindease/internal/core/database"
	"github.com/markdave123-py/mindease/internal/models"
)

func newTestStore(t *testing.T) *db.DatabaseClient {
	t.Helper()
	c, err := db.Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "services.db"), "")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeLLM records calls and answers from the configured functions.
type fakeLLM struct {
	mu         sync.Mutex
	chatCalls  int
	jsonCalls  int
	lastSystem string
	lastTurns  []core.Turn

	chatFn func(turns []core.Turn, tools []core.Tool) (*core.Completion, error)
	jsonFn func(systemPrompt, userPrompt string) (string, error)
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	f.jsonCalls++
	f.mu.Unlock()
	if f.jsonFn == nil {
		return "", errors.New("no json response configured")
	}
	return f.jsonFn(systemPrompt, userPrompt)
}

func (f *fakeLLM) Chat(ctx context.Context, systemPrompt string, turns []core.Turn, tools []core.Tool) (*core.Completion, error) {
	f.mu.Lock()
	f.chatCalls++
	f.lastSystem = systemPrompt
	f.lastTurns = turns
	f.mu.Unlock()
	if f.chatFn == nil {
		return &core.Completion{Text: "I'm here for you."}, nil
	}
	return f.chatFn(turns, tools)
}

func (f *fakeLLM) calls() (chat, json int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chatCalls, f.jsonCalls
}

type fakeSink struct {
	mu     sync.Mutex
	sent   []core.OutboundMessage
	failTo map[string]error

	afterSend func()
}

func (s *fakeSink) Send(ctx context.Context, msg core.OutboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failTo[msg.To]; err != nil {
		return err
	}
	s.sent = append(s.sent, msg)
	if s.afterSend != nil {
		s.afterSend()
	}
	return nil
}

func (s *fakeSink) messages() []core.OutboundMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.OutboundMessage(nil), s.sent...)
}

// brokenWrites fails every chat insert while delegating everything else.
type brokenWrites struct {
	core.DbClient
}

func (b brokenWrites) InsertChatMessages(ctx context.Context, msgs ...*models.ChatMessage) error {
	return errors.New("disk full")
}
