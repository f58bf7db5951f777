package core

import (
	"context"
	"strings"
)

// Turn is one prior message passed to the chat oracle.
type Turn struct {
	Role    string // models.RoleUser or models.RoleAssistant
	Content string
}

// ToolParameter describes one string argument of a tool.
type ToolParameter struct {
	Name        string
	Description string
	Required    bool
}

// Tool is a function the chat oracle may ask the caller to invoke.
type Tool struct {
	Name        string
	Description string
	Parameters  []ToolParameter
}

// ToolCall is a structured tool invocation returned by the oracle.
type ToolCall struct {
	Name string
	Args map[string]any
}

// Completion is the oracle's reply: free text, tool calls, or both.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// LLMProvider is the text-generation oracle.
type LLMProvider interface {
	// GenerateJSON asks for a single JSON document and returns it raw.
	GenerateJSON(ctx context.Context, systemPrompt string, userPrompt string) (string, error)

	// Chat continues a conversation. turns are in chronological order and the
	// last one is the new user message.
	Chat(ctx context.Context, systemPrompt string, turns []Turn, tools []Tool) (*Completion, error)
}

// ExtractJSON trims markdown fences and surrounding prose from a model reply,
// returning the outermost JSON object or array. It returns "" when none is found.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return ""
	}
	return s[start : end+1]
}
