package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/markdave123-py/mindease/internal/core"
	"github.com/markdave123-py/mindease/internal/core/persona"
	"github.com/markdave123-py/mindease/internal/core/safety"
	"github.com/markdave123-py/mindease/internal/models"
)

const (
	MaxMessageLength   = 5000
	maxMessageIDLength = 128
	maxReminderLength  = 500
	maxReminderAhead   = 365 * 24 * time.Hour
	DefaultHistory     = 50
	MaxHistory         = 100

	reminderToolName = "schedule_reminder"
	keywordReason    = "crisis keyword matched"
)

// SafetyMessage is returned for every crisis or severe-risk message,
// whichever check caught it.
const SafetyMessage = "I notice you're going through a very difficult time. Your safety is the most important thing right now.\n\n" +
	"Please reach out to:\n" +
	"• National Suicide Prevention Lifeline: 988 (US)\n" +
	"• Crisis Text Line: Text HOME to 741741\n" +
	"• International Association for Suicide Prevention: https://www.iasp.info/resources/Crisis_Centres/\n\n" +
	"You deserve support from trained professionals who can help you through this."

const basePrompt = `You are an empathetic mental wellness companion. Your role is to:
- Listen actively and validate emotions
- Provide supportive, non-judgmental responses
- Use principles of Cognitive Behavioral Therapy when appropriate
- Encourage healthy coping strategies
- Never provide medical diagnoses or emergency crisis intervention
- Be warm, compassionate, and understanding
- Keep responses conversational and caring, not clinical.
- If the user's message is short (1-2 sentences), keep your response to a similar length.
- If the user's message is longer and more detailed, provide a more thoughtful and comprehensive response.
- If the user mentions a specific upcoming event they are nervous or excited about, call schedule_reminder so you can check in with them around that time.`

const checkInPrompt = `The user may be struggling right now. Gently check in on how they are feeling, and remind them that talking to someone they trust or a professional can help.`

const reminderClarification = "I'd love to check in with you about that. When exactly is it happening?"

var reminderTool = core.Tool{
	Name:        reminderToolName,
	Description: "Schedule a supportive check-in message for the user around a future event they mentioned.",
	Parameters: []core.ToolParameter{
		{Name: "scheduled_for", Description: "When to send the reminder, RFC3339 timestamp in the future.", Required: true},
		{Name: "message", Description: "Short, warm message to send the user at that time.", Required: true},
		{Name: "event_context", Description: "One line describing the event.", Required: false},
	},
}

// DistressClassifier grades a message that passed the keyword check.
type DistressClassifier interface {
	Classify(ctx context.Context, message string, history []models.ChatMessage) models.DistressAnalysis
}

// Alerter notifies an emergency contact.
type Alerter interface {
	Send(ctx context.Context, contact models.EmergencyContact, userDisplayName, reason string) error
}

type ChatConfig struct {
	// HistoryWindow is how many prior messages are sent to the chat oracle.
	HistoryWindow int
	// ChatTimeout bounds one chat oracle call.
	ChatTimeout time.Duration
}

type ChatRequest struct {
	UserID    string
	MessageID string
	Message   string
}

type ChatResult struct {
	MessageID      string                        `json:"message_id"`
	Response       string                        `json:"response"`
	CrisisDetected bool                          `json:"crisis_detected"`
	RiskLevel      models.RiskLevel              `json:"risk_level"`
	Reminder       *models.ScheduledNotification `json:"reminder,omitempty"`
}

// EscalationController drives one chat message through keyword check,
// classification, emergency or normal chat, and persistence.
type EscalationController struct {
	db         core.DbClient
	oracle     core.LLMProvider
	crisis     *safety.Detector
	classifier DistressClassifier
	alerts     Alerter
	cfg        ChatConfig
	logger     *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewEscalationController(db core.DbClient, oracle core.LLMProvider, classifier DistressClassifier, alerts Alerter, cfg ChatConfig, logger *slog.Logger) *EscalationController {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 20
	}
	if cfg.ChatTimeout <= 0 {
		cfg.ChatTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EscalationController{
		db:         db,
		oracle:     oracle,
		crisis:     safety.NewCrisisDetector(),
		classifier: classifier,
		alerts:     alerts,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// HandleMessage processes one inbound chat message. A repeated MessageID
// returns the stored reply instead of processing the message again.
func (c *EscalationController) HandleMessage(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	// RECEIVED
	if req.UserID == "" {
		return nil, ErrUnauthorized
	}
	if err := checkText("message", req.Message, MaxMessageLength); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(req.MessageID) > maxMessageIDLength {
		return nil, invalid("message_id", "must be at most %d characters", maxMessageIDLength)
	}

	log := c.logger.With("user_id", req.UserID)

	userMsg, stored, replay, err := c.receive(ctx, req, log)
	if err != nil || replay != nil {
		return replay, err
	}
	log = log.With("message_id", userMsg.ID)

	history := c.history(ctx, req.UserID, userMsg.ID, log)

	// KEYWORD_CHECK
	if c.crisis.Detect(req.Message) {
		log.Warn("crisis keyword detected")
		userMsg.CrisisFlag = true
		userMsg.DistressAnalysis = &models.DistressAnalysis{RiskLevel: models.RiskSevere, Reason: keywordReason}
		return c.persist(ctx, userMsg, stored, c.safetyResult(userMsg), log), nil
	}

	// CLASSIFY
	analysis := models.DistressAnalysis{RiskLevel: models.RiskNone}
	if c.classifier != nil {
		analysis = c.classifier.Classify(ctx, req.Message, history)
	}
	userMsg.DistressAnalysis = &analysis
	log.Debug("message classified", "risk_level", analysis.RiskLevel)

	// EMERGENCY
	if analysis.RiskLevel == models.RiskSevere {
		userMsg.CrisisFlag = true
		c.escalate(ctx, userMsg, analysis, log)
		return c.persist(ctx, userMsg, stored, c.safetyResult(userMsg), log), nil
	}

	// NORMAL_CHAT
	result, err := c.chat(ctx, userMsg, analysis, history, log)
	if err != nil {
		if !stored {
			if perr := c.db.InsertChatMessages(ctx, userMsg); perr != nil {
				log.Error("failed to store user message after chat failure", "error", perr)
			}
		}
		return nil, err
	}

	// PERSISTED
	return c.persist(ctx, userMsg, stored, result, log), nil
}

// receive builds the user message. When the id was seen before it either
// returns the stored reply or marks the message as already stored.
func (c *EscalationController) receive(ctx context.Context, req ChatRequest, log *slog.Logger) (*models.ChatMessage, bool, *ChatResult, error) {
	msg := &models.ChatMessage{
		ID:        req.MessageID,
		UserID:    req.UserID,
		Role:      models.RoleUser,
		Content:   req.Message,
		Timestamp: c.now(),
	}
	if msg.ID == "" {
		msg.ID = c.newID()
		return msg, false, nil, nil
	}

	existing, err := c.db.GetChatMessage(ctx, req.UserID, req.MessageID)
	if err != nil {
		log.Error("idempotency lookup failed, processing as new", "message_id", req.MessageID, "error", err)
		return msg, false, nil, nil
	}
	if existing == nil {
		return msg, false, nil, nil
	}
	if existing.Role != models.RoleUser || existing.Content != req.Message {
		return nil, false, nil, invalid("message_id", "already used for a different message")
	}

	reply, err := c.db.GetReply(ctx, req.UserID, existing.ID)
	if err != nil {
		log.Error("reply lookup failed, reprocessing", "message_id", existing.ID, "error", err)
	}
	if reply != nil {
		log.Info("returning stored reply", "message_id", existing.ID)
		risk := models.RiskNone
		if existing.DistressAnalysis != nil {
			risk = existing.DistressAnalysis.RiskLevel
		}
		return nil, true, &ChatResult{
			MessageID:      existing.ID,
			Response:       reply.Content,
			CrisisDetected: existing.CrisisFlag,
			RiskLevel:      risk,
		}, nil
	}
	// Stored without a reply: the earlier attempt failed after persisting the user turn.
	return existing, true, nil, nil
}

func (c *EscalationController) history(ctx context.Context, userID, excludeID string, log *slog.Logger) []models.ChatMessage {
	msgs, err := c.db.ListRecentMessages(ctx, userID, c.cfg.HistoryWindow+1)
	if err != nil {
		log.Error("failed to load chat history", "error", err)
		return nil
	}
	out := msgs[:0]
	for _, m := range msgs {
		if m.ID != excludeID {
			out = append(out, m)
		}
	}
	if len(out) > c.cfg.HistoryWindow {
		out = out[len(out)-c.cfg.HistoryWindow:]
	}
	return out
}

func (c *EscalationController) safetyResult(msg *models.ChatMessage) *ChatResult {
	return &ChatResult{
		MessageID:      msg.ID,
		Response:       SafetyMessage,
		CrisisDetected: true,
		RiskLevel:      models.RiskSevere,
	}
}

// escalate alerts the emergency contact at most once per message id.
// Failures are logged; the caller still returns the safety message.
func (c *EscalationController) escalate(ctx context.Context, msg *models.ChatMessage, analysis models.DistressAnalysis, log *slog.Logger) {
	claimed, err := c.db.ClaimEscalation(ctx, &models.EscalationEvent{
		ID:        msg.ID,
		UserID:    msg.UserID,
		Reason:    analysis.Reason,
		CreatedAt: c.now(),
	})
	switch {
	case err != nil:
		log.Error("failed to record escalation, alerting anyway", "error", err)
	case !claimed:
		log.Info("message already escalated, alert not repeated")
		return
	}

	if c.alerts == nil {
		log.Warn("no alert dispatcher configured")
		return
	}
	profile, err := c.db.GetProfile(ctx, msg.UserID)
	if err != nil {
		log.Error("failed to load profile for emergency alert", "error", err)
		return
	}
	if profile == nil || strings.TrimSpace(profile.EmergencyContact.Phone) == "" {
		log.Warn("no emergency contact on file, alert skipped")
		return
	}

	if err := c.alerts.Send(ctx, profile.EmergencyContact, DisplayName(profile), analysis.Reason); err != nil {
		log.Error("emergency alert failed", "error", err)
		return
	}
	log.Info("emergency contact alerted")
}

func (c *EscalationController) chat(ctx context.Context, msg *models.ChatMessage, analysis models.DistressAnalysis, history []models.ChatMessage, log *slog.Logger) (*ChatResult, error) {
	if c.oracle == nil {
		return nil, ErrChatUnavailable
	}

	tone := persona.Default
	pref, err := c.db.GetPreference(ctx, msg.UserID)
	if err != nil {
		log.Error("failed to load persona, using default", "error", err)
	} else if pref != nil {
		tone = persona.Resolve(pref.Tone)
	}

	turns := make([]core.Turn, 0, len(history)+1)
	for _, m := range history {
		turns = append(turns, core.Turn{Role: m.Role, Content: m.Content})
	}
	turns = append(turns, core.Turn{Role: models.RoleUser, Content: msg.Content})

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.ChatTimeout)
	defer cancel()

	completion, err := c.oracle.Chat(callCtx, c.systemPrompt(tone, analysis.RiskLevel), turns, []core.Tool{reminderTool})
	if err != nil {
		log.Error("chat oracle failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrChatUnavailable, err)
	}

	result := &ChatResult{
		MessageID: msg.ID,
		Response:  strings.TrimSpace(completion.Text),
		RiskLevel: analysis.RiskLevel,
	}
	for _, call := range completion.ToolCalls {
		if call.Name != reminderToolName {
			log.Warn("ignoring unknown tool call", "tool", call.Name)
			continue
		}
		reminder, ack := c.scheduleReminder(ctx, msg.UserID, call.Args, log)
		if reminder != nil {
			result.Reminder = reminder
			result.Response = ack
		} else if result.Response == "" {
			result.Response = reminderClarification
		}
		break
	}
	if result.Response == "" {
		log.Error("chat oracle returned an empty reply")
		return nil, ErrChatUnavailable
	}
	return result, nil
}

func (c *EscalationController) systemPrompt(p persona.Persona, risk models.RiskLevel) string {
	var b strings.Builder
	b.WriteString(p.Voice())
	b.WriteString("\n\n")
	b.WriteString(basePrompt)
	if risk == models.RiskModerate {
		b.WriteString("\n\n")
		b.WriteString(checkInPrompt)
	}
	fmt.Fprintf(&b, "\n\nCurrent time (UTC): %s", c.now().UTC().Format(time.RFC3339))
	return b.String()
}

// scheduleReminder validates tool arguments and stores the notification.
// It returns nil when the arguments are unusable or the write fails.
func (c *EscalationController) scheduleReminder(ctx context.Context, userID string, args map[string]any, log *slog.Logger) (*models.ScheduledNotification, string) {
	n, err := c.reminderFromArgs(userID, args)
	if err != nil {
		log.Warn("rejected reminder tool call", "error", err)
		return nil, ""
	}
	if err := c.db.CreateNotification(ctx, n); err != nil {
		log.Error("failed to store reminder", "error", err)
		return nil, ""
	}
	log.Info("reminder scheduled", "notification_id", n.ID, "scheduled_for", n.ScheduledFor)
	return n, reminderAck(n)
}

func (c *EscalationController) reminderFromArgs(userID string, args map[string]any) (*models.ScheduledNotification, error) {
	when, _ := args["scheduled_for"].(string)
	message, _ := args["message"].(string)
	eventContext, _ := args["event_context"].(string)

	at, err := time.Parse(time.RFC3339, strings.TrimSpace(when))
	if err != nil {
		return nil, invalid("scheduled_for", "must be an RFC3339 timestamp")
	}
	now := c.now()
	if !at.After(now) {
		return nil, invalid("scheduled_for", "must be in the future")
	}
	if at.After(now.Add(maxReminderAhead)) {
		return nil, invalid("scheduled_for", "must be within a year")
	}
	message = strings.TrimSpace(message)
	if err := checkText("message", message, maxReminderLength); err != nil {
		return nil, err
	}
	eventContext = strings.TrimSpace(eventContext)
	if utf8.RuneCountInString(eventContext) > maxReminderLength {
		eventContext = string([]rune(eventContext)[:maxReminderLength])
	}

	return &models.ScheduledNotification{
		ID:           c.newID(),
		UserID:       userID,
		ScheduledFor: at.UTC(),
		Message:      message,
		EventContext: eventContext,
		CreatedAt:    now,
	}, nil
}

func reminderAck(n *models.ScheduledNotification) string {
	return fmt.Sprintf("I'll check in with you on %s. You've got this, and I'm here whenever you want to talk before then.",
		n.ScheduledFor.Format("Monday, January 2 at 15:04 UTC"))
}

// persist stores the user turn (unless already stored) and the reply in one
// transaction. A failure is logged and the result is returned regardless.
func (c *EscalationController) persist(ctx context.Context, userMsg *models.ChatMessage, stored bool, result *ChatResult, log *slog.Logger) *ChatResult {
	replyAt := c.now()
	if floor := userMsg.Timestamp.Add(time.Microsecond); replyAt.Before(floor) {
		replyAt = floor
	}
	reply := &models.ChatMessage{
		ID:        c.newID(),
		UserID:    userMsg.UserID,
		Role:      models.RoleAssistant,
		Content:   result.Response,
		ReplyTo:   userMsg.ID,
		Timestamp: replyAt,
	}

	msgs := []*models.ChatMessage{reply}
	if !stored {
		msgs = []*models.ChatMessage{userMsg, reply}
	}
	if err := c.db.InsertChatMessages(ctx, msgs...); err != nil {
		log.Error("failed to persist chat turn", "error", err)
	}
	return result
}

// History returns the user's most recent messages in ascending order.
func (c *EscalationController) History(ctx context.Context, userID string, limit int) ([]models.ChatMessage, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	switch {
	case limit <= 0:
		limit = DefaultHistory
	case limit > MaxHistory:
		limit = MaxHistory
	}
	msgs, err := c.db.ListRecentMessages(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return msgs, nil
}
