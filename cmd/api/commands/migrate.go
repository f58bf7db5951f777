package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	db "github.com/markdave123-py/mindease/internal/core/database"
)

func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _ := loadConfig(false)
			if err := requireDatabase(cfg); err != nil {
				return err
			}

			store, err := db.NewDatabaseClient(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", store.Dialect())
			return nil
		},
	}
}
