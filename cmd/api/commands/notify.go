package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	db "github.com/markdave123-py/mindease/internal/core/database"
	"github.com/markdave123-py/mindease/internal/core/delivery"
	"github.com/markdave123-py/mindease/internal/services"
)

func NewNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Scheduled reminder delivery",
	}
	cmd.AddCommand(newNotifyRunOnceCmd())
	return cmd
}

func newNotifyRunOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-once",
		Short: "Deliver one batch of due reminders and exit",
		Long: `Deliver one batch of due reminders and print {"sent":N,"failed":M}.
Intended to be invoked by an external scheduler. Overlapping runs are safe:
each record is claimed before it is sent.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, cfgErr := loadConfig(false)
			if cfgErr != nil {
				logger.Debug("configuration incomplete, delivering reminders anyway", "error", cfgErr)
			}
			if err := requireDatabase(cfg); err != nil {
				return err
			}

			store, err := db.NewDatabaseClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			sink, err := delivery.NewSink(cfg, logger)
			if err != nil {
				return err
			}

			dispatcher := services.NewNotificationDispatcher(store, sink, services.NotifyConfig{
				BatchSize:   cfg.NotifyBatchSize,
				MaxAttempts: cfg.NotifyMaxAttempts,
				Concurrency: cfg.NotifyConcurrency,
				ClaimTTL:    cfg.NotifyClaimTTL,
			}, logger)

			res, err := dispatcher.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
		},
	}
}
