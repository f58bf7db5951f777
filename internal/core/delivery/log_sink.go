package delivery

import (
	"context"
	"log/slog"

	"github.com/markdave123-py/mindease/internal/config"
	"github.com/markdave123-py/mindease/internal/core"
)

// LogSink records messages instead of sending them. It is used when no
// transport is configured so the pipeline still runs end to end.
type LogSink struct {
	logger *slog.Logger
}

var _ core.DeliverySink = (*LogSink)(nil)

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Send logs the recipient and body length only.
func (s *LogSink) Send(ctx context.Context, msg core.OutboundMessage) error {
	s.logger.InfoContext(ctx, "delivery sink not configured, message logged", "to", maskNumber(msg.To), "body_bytes", len(msg.Body))
	return nil
}

// NewSink returns a Twilio sink when credentials are configured, otherwise a LogSink.
func NewSink(cfg *config.Config, logger *slog.Logger) (core.DeliverySink, error) {
	if !cfg.TwilioEnabled() {
		sink := NewLogSink(logger)
		sink.logger.Warn("twilio not configured, alerts and reminders will only be logged")
		return sink, nil
	}
	return NewTwilioSink(TwilioConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.TwilioWhatsAppNumber,
	})
}

// maskNumber keeps the last four digits of a phone number.
func maskNumber(n string) string {
	if len(n) <= 4 {
		return "****"
	}
	return "****" + n[len(n)-4:]
}
