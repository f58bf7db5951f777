package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	middleware "github.com/markdave123-py/mindease/internal/api/middlewares"
	db "github.com/markdave123-py/mindease/internal/core/database"
	"github.com/markdave123-py/mindease/internal/models"
)

type tokenOptions struct {
	userID string
	ttl    time.Duration

	displayName         string
	email               string
	phone               string
	contactName         string
	contactPhone        string
	contactRelationship string
}

func (o tokenOptions) seedsProfile() bool {
	return o.displayName != "" || o.email != "" || o.phone != "" ||
		o.contactName != "" || o.contactPhone != "" || o.contactRelationship != ""
}

// NewTokenCmd mints development tokens. Production tokens come from the
// identity provider and carry the user id in user_id or sub.
func NewTokenCmd() *cobra.Command {
	var opts tokenOptions

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT, optionally seeding the user's profile",
		Long: `Mint an HS256 token signed with JWT_SECRET for the given user id.
Profile flags upsert the user's profile first, which is where the
emergency contact and the reminder phone number are read from.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.userID == "" {
				return errors.New("--user is required")
			}
			cfg, _, _ := loadConfig(false)
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET not set")
			}

			if opts.seedsProfile() {
				if err := requireDatabase(cfg); err != nil {
					return err
				}
				store, err := db.NewDatabaseClient(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				defer store.Close()

				err = store.UpsertProfile(cmd.Context(), &models.Profile{
					ID:          opts.userID,
					DisplayName: opts.displayName,
					Email:       opts.email,
					Phone:       opts.phone,
					EmergencyContact: models.EmergencyContact{
						Name:         opts.contactName,
						Phone:        opts.contactPhone,
						Relationship: opts.contactRelationship,
					},
				})
				if err != nil {
					return fmt.Errorf("seed profile: %w", err)
				}
			}

			tok, err := middleware.IssueToken(cfg.JWTSecret, opts.userID, opts.ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.userID, "user", "", "user id to put in the token")
	f.DurationVar(&opts.ttl, "ttl", 24*time.Hour, "token lifetime")
	f.StringVar(&opts.displayName, "display-name", "", "profile display name")
	f.StringVar(&opts.email, "email", "", "profile email")
	f.StringVar(&opts.phone, "phone", "", "user's WhatsApp number for reminders")
	f.StringVar(&opts.contactName, "contact-name", "", "emergency contact name")
	f.StringVar(&opts.contactPhone, "contact-phone", "", "emergency contact WhatsApp number")
	f.StringVar(&opts.contactRelationship, "contact-relationship", "", "emergency contact relationship")
	return cmd
}
