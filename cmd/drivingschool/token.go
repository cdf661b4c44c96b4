package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/drivingschool/internal/application"
	"github.com/example/drivingschool/internal/auth"
	"github.com/example/drivingschool/internal/civil"
)

// NewTokenCmd groups the bearer token commands.
func NewTokenCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage API bearer tokens",
	}
	cmd.AddCommand(newTokenIssueCmd(deps))
	return cmd
}

func newTokenIssueCmd(deps *Dependencies) *cobra.Command {
	var (
		identity auth.Identity
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a bearer token for a principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			identity.DocumentID = strings.TrimSpace(identity.DocumentID)
			if identity.DocumentID == "" {
				return fmt.Errorf("--document-id is required")
			}
			if !application.Role(identity.Role).Valid() {
				return fmt.Errorf("unknown role %q", identity.Role)
			}

			cfg, _, err := loadConfig(deps)
			if err != nil {
				return err
			}
			ac := authConfig(deps, cfg)
			if ttl > 0 {
				ac.TTL = ttl
			}
			issuer, err := auth.NewIssuer(ac)
			if err != nil {
				return err
			}

			token, expiresAt, err := issuer.Issue(identity)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(cmd.ErrOrStderr(), "vence: %s\n", civil.FormatDateTime(expiresAt))
			return nil
		},
	}

	cmd.Flags().StringVar(&identity.DocumentID, "document-id", "", "principal document id")
	cmd.Flags().StringVar(&identity.Name, "name", "", "principal display name")
	cmd.Flags().StringVar(&identity.Role, "role", string(application.RoleAdmin), "admin, administrative or instructor")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, DRIVINGSCHOOL_AUTH_TOKEN_TTL when omitted")
	return cmd
}
