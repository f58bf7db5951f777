package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/markdave123-py/mindease/internal/config"
	"github.com/markdave123-py/mindease/internal/core"
	db "github.com/markdave123-py/mindease/internal/core/database"
	"github.com/markdave123-py/mindease/internal/core/delivery"
	"github.com/markdave123-py/mindease/internal/core/llm"
	"github.com/markdave123-py/mindease/internal/core/persona"
	"github.com/markdave123-py/mindease/internal/core/safety"
	"github.com/markdave123-py/mindease/internal/core/sealer"
	"github.com/markdave123-py/mindease/internal/services"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DBClient *db.DatabaseClient
	Oracle   core.LLMProvider
	Sink     core.DeliverySink

	Personas *services.PersonaService
	Chat     *services.EscalationController
	Notifier *services.NotificationDispatcher
	Journals *services.JournalService
	Moods    *services.MoodService

	closeOracle func() error
}

// NewApp connects the store and the oracle and wires every service.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	appCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	logger.Info("database initialized and ready", "dialect", dbClient.Dialect())

	oracle, closeOracle, err := llm.NewProvider(appCtx, cfg)
	if err != nil {
		_ = dbClient.Close()
		return nil, fmt.Errorf("couldn't initialize the %s provider: %w", cfg.LLMProvider, err)
	}
	logger.Info("oracle initialized", "provider", cfg.LLMProvider)

	sink, err := delivery.NewSink(cfg, logger)
	if err != nil {
		_ = closeOracle()
		_ = dbClient.Close()
		return nil, fmt.Errorf("delivery sink: %w", err)
	}

	a, err := Wire(cfg, logger, dbClient, oracle, sink)
	if err != nil {
		_ = closeOracle()
		_ = dbClient.Close()
		return nil, err
	}
	a.DBClient = dbClient
	a.closeOracle = closeOracle
	return a, nil
}

// Wire builds the services over already constructed collaborators.
func Wire(cfg *config.Config, logger *slog.Logger, store core.DbClient, oracle core.LLMProvider, sink core.DeliverySink) (*App, error) {
	box, err := sealer.New(cfg.JournalKey)
	if err != nil {
		return nil, fmt.Errorf("journal key: %w", err)
	}
	if _, plain := box.(sealer.Plain); plain {
		logger.Warn("JOURNAL_KEY not set, journal entries are stored unencrypted")
	}

	classifier := safety.NewClassifier(oracle, safety.NewDistressDetector(), safety.ClassifierConfig{
		Window:  cfg.ClassifyWindow,
		Timeout: cfg.ClassifyTimeout,
	}, logger.With("component", "classifier"))

	alerts := services.NewAlertDispatcher(sink, logger.With("component", "alerts"))

	return &App{
		Config:   cfg,
		Logger:   logger,
		Oracle:   oracle,
		Sink:     sink,
		Personas: services.NewPersonaService(store, persona.NewScorer(persona.DefaultQuestionnaire())),
		Chat: services.NewEscalationController(store, oracle, classifier, alerts, services.ChatConfig{
			HistoryWindow: cfg.HistoryWindow,
			ChatTimeout:   cfg.ChatTimeout,
		}, logger.With("component", "chat")),
		Notifier: services.NewNotificationDispatcher(store, sink, services.NotifyConfig{
			BatchSize:   cfg.NotifyBatchSize,
			MaxAttempts: cfg.NotifyMaxAttempts,
			Concurrency: cfg.NotifyConcurrency,
			ClaimTTL:    cfg.NotifyClaimTTL,
		}, logger.With("component", "notifier")),
		Journals: services.NewJournalService(store, oracle, box, cfg.ChatTimeout, logger.With("component", "journal")),
		Moods:    services.NewMoodService(store),
	}, nil
}

func (a *App) Close() error {
	var errs []error
	if a.closeOracle != nil {
		errs = append(errs, a.closeOracle())
	}
	if a.DBClient != nil {
		errs = append(errs, a.DBClient.Close())
	}
	return errors.Join(errs...)
}
