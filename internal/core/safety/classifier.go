package safety

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/markdave123-py/mindease/internal/core"
	"github.com/markdave123-py/mindease/internal/models"
)

// UnavailableReason is recorded when the oracle cannot produce a grade.
const UnavailableReason = "<classifier unavailable>"

const maxReasonLen = 160

const classifySystemPrompt = `You are a safety classifier for a mental wellness app.
Assess the LAST user message for risk of self-harm or suicide, using the prior conversation as context.
Respond with a single JSON object and nothing else:
{"riskLevel": "none" | "moderate" | "severe", "reason": "<short generic description>"}
- "severe": intent, plan, or desire to end their life or seriously harm themselves.
- "moderate": hopelessness or significant distress without intent to self-harm.
- "none": ordinary sadness, stress, or no risk.
The reason must be at most one short sentence, must not quote the user, and must not contain names or personal details.`

// JSONGenerator is the part of the oracle the classifier needs.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

type ClassifierConfig struct {
	// Window is how many trailing history messages are sent to the oracle.
	Window int
	// Timeout bounds one oracle call. Expiry is treated as unavailability.
	Timeout time.Duration
}

// Classifier grades distress in a message. Ordinary messages are answered
// locally; only messages that hit the distress lexicon reach the oracle.
// Any oracle failure yields severe.
type Classifier struct {
	prefilter *Detector
	oracle    JSONGenerator
	cfg       ClassifierConfig
	logger    *slog.Logger
}

func NewClassifier(oracle JSONGenerator, prefilter *Detector, cfg ClassifierConfig, logger *slog.Logger) *Classifier {
	if prefilter == nil {
		prefilter = NewDistressDetector()
	}
	if cfg.Window <= 0 {
		cfg.Window = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{prefilter: prefilter, oracle: oracle, cfg: cfg, logger: logger}
}

// Classify returns the graded risk for message. It never returns an error.
func (c *Classifier) Classify(ctx context.Context, message string, history []models.ChatMessage) models.DistressAnalysis {
	if !c.prefilter.Detect(message) {
		return models.DistressAnalysis{RiskLevel: models.RiskNone}
	}
	if c.oracle == nil {
		return failClosed()
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	raw, err := c.oracle.GenerateJSON(callCtx, classifySystemPrompt, c.buildPrompt(message, history))
	if err != nil {
		c.logger.Warn("distress classifier unavailable, failing closed", "error", err)
		return failClosed()
	}

	analysis, err := parseAnalysis(raw, message)
	if err != nil {
		c.logger.Warn("distress classifier returned malformed output, failing closed", "error", err, "bytes", len(raw))
		return failClosed()
	}
	return analysis
}

func (c *Classifier) buildPrompt(message string, history []models.ChatMessage) string {
	if len(history) > c.cfg.Window {
		history = history[len(history)-c.cfg.Window:]
	}

	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range history {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
		b.WriteString("\n")
	}
	b.WriteString("Last user message:\n")
	b.WriteString(message)
	return b.String()
}

func failClosed() models.DistressAnalysis {
	return models.DistressAnalysis{RiskLevel: models.RiskSevere, Reason: UnavailableReason}
}

var errNoJSON = errors.New("no JSON object in response")

func parseAnalysis(raw, message string) (models.DistressAnalysis, error) {
	body := core.ExtractJSON(raw)
	if body == "" || body[0] != '{' {
		return models.DistressAnalysis{}, errNoJSON
	}

	var out struct {
		RiskLevel *string `json:"riskLevel"`
		Reason    string  `json:"reason"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return models.DistressAnalysis{}, fmt.Errorf("decode classification: %w", err)
	}
	if out.RiskLevel == nil {
		return models.DistressAnalysis{}, errors.New("riskLevel missing")
	}

	level := models.RiskLevel(strings.ToLower(strings.TrimSpace(*out.RiskLevel)))
	if !level.Valid() {
		return models.DistressAnalysis{}, fmt.Errorf("riskLevel %q not recognised", *out.RiskLevel)
	}
	return models.DistressAnalysis{RiskLevel: level, Reason: sanitizeReason(out.Reason, message, level)}, nil
}

// sanitizeReason keeps the audit reason short and free of the user's words.
func sanitizeReason(reason, message string, level models.RiskLevel) string {
	reason = strings.Join(strings.Fields(reason), " ")
	if reason == "" || containsFold(reason, message) || containsFold(message, reason) {
		return genericReason(level)
	}
	if utf8.RuneCountInString(reason) > maxReasonLen {
		r := []rune(reason)
		reason = string(r[:maxReasonLen])
	}
	return reason
}

func containsFold(s, substr string) bool {
	substr = strings.TrimSpace(substr)
	if len(substr) < 12 {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func genericReason(level models.RiskLevel) string {
	switch level {
	case models.RiskSevere:
		return "language indicating risk of self-harm"
	case models.RiskModerate:
		return "language indicating significant distress"
	default:
		return ""
	}
}
