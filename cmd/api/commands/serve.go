package commands

import (
	"github.com/spf13/cobra"

	"github.com/markdave123-py/mindease/internal/app"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. When NOTIFY_INTERVAL is set the reminder dispatcher
also runs in-process on that interval; otherwise trigger it with
"mindease notify run-once" from cron.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(true)
			if err != nil {
				return err
			}

			application, err := app.NewApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := application.Close(); err != nil {
					logger.Error("shutdown", "error", err)
				}
			}()

			logger.Info("MindEase is running", "port", cfg.Port, "llm_provider", cfg.LLMProvider, "twilio", cfg.TwilioEnabled())
			return app.NewServer(application, application.DBClient).Start(cmd.Context())
		},
	}
}
