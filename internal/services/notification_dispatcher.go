package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/mindease/internal/core"
	"github.com/markdave123-py/mindease/internal/models"
)

var errNoPhone = errors.New("user has no phone number on file")

type NotifyConfig struct {
	BatchSize   int
	MaxAttempts int
	Concurrency int
	// ClaimTTL is how long a claimed record is hidden from other runners.
	ClaimTTL time.Duration
}

// RunResult counts the outcome of one run. Records claimed by another
// runner are in neither count.
type RunResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// NotificationDispatcher delivers due reminders.
type NotificationDispatcher struct {
	db     core.DbClient
	sink   core.DeliverySink
	cfg    NotifyConfig
	logger *slog.Logger

	now      func() time.Time
	newToken func() string
}

func NewNotificationDispatcher(db core.DbClient, sink core.DeliverySink, cfg NotifyConfig, logger *slog.Logger) *NotificationDispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationDispatcher{
		db:       db,
		sink:     sink,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// RunOnce delivers one batch of due reminders. Each record is claimed,
// sent, then marked sent; a failure releases the claim and leaves the
// record for the next run. One record's failure never stops the others.
func (d *NotificationDispatcher) RunOnce(ctx context.Context) (RunResult, error) {
	due, err := d.db.ListDueNotifications(ctx, d.now(), d.cfg.MaxAttempts, d.cfg.BatchSize)
	if err != nil {
		return RunResult{}, fmt.Errorf("list due notifications: %w", err)
	}
	if len(due) == 0 {
		d.logger.Debug("no notifications due")
		return RunResult{}, nil
	}

	var sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)
	for i := range due {
		n := due[i]
		g.Go(func() error {
			switch d.deliver(gctx, &n) {
			case outcomeSent:
				sent.Add(1)
			case outcomeFailed:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := RunResult{Sent: int(sent.Load()), Failed: int(failed.Load())}
	d.logger.Info("notification run finished", "due", len(due), "sent", res.Sent, "failed", res.Failed)
	return res, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeSent
	outcomeFailed
)

func (d *NotificationDispatcher) deliver(ctx context.Context, n *models.ScheduledNotification) outcome {
	log := d.logger.With("notification_id", n.ID, "user_id", n.UserID)

	token := d.newToken()
	now := d.now()
	ok, err := d.db.ClaimNotification(ctx, n.ID, token, now, now.Add(d.cfg.ClaimTTL))
	if err != nil {
		log.Error("failed to claim notification", "error", err)
		return outcomeFailed
	}
	if !ok {
		log.Debug("notification claimed by another runner")
		return outcomeSkipped
	}

	// Bookkeeping after the send uses a detached context so a cancelled run
	// still records the outcome.
	doneCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := d.send(ctx, n); err != nil {
		log.Warn("notification delivery failed", "attempt", n.Attempts+1, "error", err)
		if rerr := d.db.ReleaseNotification(doneCtx, n.ID, token, truncate(err.Error(), 500)); rerr != nil {
			log.Error("failed to release notification claim", "error", rerr)
		}
		return outcomeFailed
	}

	marked, err := d.db.MarkNotificationSent(doneCtx, n.ID, token, d.now())
	if err != nil {
		log.Error("notification sent but not marked", "error", err)
		return outcomeSent
	}
	if !marked {
		log.Warn("notification claim expired before it was marked sent")
	}
	log.Info("notification sent")
	return outcomeSent
}

func (d *NotificationDispatcher) send(ctx context.Context, n *models.ScheduledNotification) error {
	profile, err := d.db.GetProfile(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if profile == nil || strings.TrimSpace(profile.Phone) == "" {
		return errNoPhone
	}
	return d.sink.Send(ctx, core.OutboundMessage{To: profile.Phone, Body: n.Message})
}

// Run calls RunOnce every interval until ctx is cancelled.
func (d *NotificationDispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info("notification dispatcher started", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher stopped")
			return
		case <-ticker.C:
			if _, err := d.RunOnce(ctx); err != nil && ctx.Err() == nil {
				d.logger.Error("notification run failed", "error", err)
			}
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
