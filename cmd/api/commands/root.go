package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/markdave123-py/mindease/internal/config"
)

var (
	logLevel string
	// logOutput receives process logs.
	logOutput io.Writer = os.Stderr
)

// NewRootCmd creates the mindease command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mindease",
		Short: "MindEase wellness companion API",
		Long: `MindEase serves the companion chat API: persona assignment, distress
classification with emergency escalation, journaling, and scheduled
check-in reminders. Configuration is read from the environment or a .env file.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (trace, debug, info, warn, error)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewNotifyCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewTokenCmd())
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads the environment. With strict unset, validation errors are
// returned alongside the config so commands can check only what they need.
func loadConfig(strict bool) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger := config.NewLogger(logOutput, level)
	slog.SetDefault(logger)

	if err != nil && strict {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logger, err
}

func requireDatabase(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL not set")
	}
	return nil
}
