package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/markdave123-py/mindease/internal/core"
	"github.com/markdave123-py/mindease/internal/models"
)

var ErrNoEmergencyContact = errors.New("no emergency contact on file")

const alertTemplate = "This is an automated SOS alert from the MindEase app for %s. " +
	"Our system has detected signs of severe emotional distress. Reason flagged: %s. " +
	"We strongly advise you to check in with them immediately. " +
	"Please note: This is an automated message. For your privacy, no conversation data is shared."

// AlertDispatcher sends the emergency contact a fixed, non-identifying alert.
// It keeps no state: calling Send twice sends twice.
type AlertDispatcher struct {
	sink   core.DeliverySink
	logger *slog.Logger
}

func NewAlertDispatcher(sink core.DeliverySink, logger *slog.Logger) *AlertDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertDispatcher{sink: sink, logger: logger}
}

func (d *AlertDispatcher) Send(ctx context.Context, contact models.EmergencyContact, userDisplayName, reason string) error {
	if strings.TrimSpace(contact.Phone) == "" {
		return ErrNoEmergencyContact
	}
	if reason == "" {
		reason = "severe distress detected"
	}
	err := d.sink.Send(ctx, core.OutboundMessage{
		To:   contact.Phone,
		Body: AlertMessage(userDisplayName, reason),
	})
	if err != nil {
		return fmt.Errorf("send emergency alert: %w", err)
	}
	return nil
}

func AlertMessage(userDisplayName, reason string) string {
	return fmt.Sprintf(alertTemplate, userDisplayName, reason)
}

// DisplayName picks the name used in an alert: the profile's display name,
// then the local part of the email, then a neutral phrase.
func DisplayName(p *models.Profile) string {
	if p == nil {
		return "your contact"
	}
	if n := strings.TrimSpace(p.DisplayName); n != "" {
		return n
	}
	if local, _, ok := strings.Cut(p.Email, "@"); ok && strings.TrimSpace(local) != "" {
		return strings.TrimSpace(local)
	}
	return "your contact"
}
