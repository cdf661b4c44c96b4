package main

import (
	"fmt"
	"net/mail"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/drivingschool/internal/application"
	"github.com/example/drivingschool/internal/persistence"
	"github.com/example/drivingschool/internal/persistence/sqlstore"
)

// NewUsersCmd groups the participant directory commands.
func NewUsersCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Maintain the participant directory",
	}
	cmd.AddCommand(newUsersAddCmd(deps))
	cmd.AddCommand(newUsersListCmd(deps))
	return cmd
}

func newUsersAddCmd(deps *Dependencies) *cobra.Command {
	var p persistence.Participant

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a directory entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			p.DocumentID = strings.TrimSpace(p.DocumentID)
			p.Name = strings.TrimSpace(p.Name)
			p.Email = strings.TrimSpace(p.Email)
			if p.DocumentID == "" || p.Name == "" {
				return fmt.Errorf("--document-id and --name are required")
			}
			if !application.Role(p.Role).Valid() {
				return fmt.Errorf("unknown role %q", p.Role)
			}
			if p.Email != "" {
				if _, err := mail.ParseAddress(p.Email); err != nil {
					return fmt.Errorf("invalid email %q: %w", p.Email, err)
				}
			}

			ctx := cmd.Context()
			cfg, logger, err := loadConfig(deps)
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := sqlstore.NewDirectoryRepository(store).UpsertParticipant(ctx, p); err != nil {
				return fmt.Errorf("save participant: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "participante %s guardado (%s)\n", p.DocumentID, p.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&p.DocumentID, "document-id", "", "national document id")
	cmd.Flags().StringVar(&p.Name, "name", "", "full name")
	cmd.Flags().StringVar(&p.Email, "email", "", "notification address")
	cmd.Flags().StringVar(&p.Role, "role", string(application.RoleInstructor), "admin, administrative or instructor")
	return cmd
}

func newUsersListCmd(deps *Dependencies) *cobra.Command {
	var roles []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List directory entries by role",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(roles) == 0 {
				for _, r := range application.AllRoles {
					roles = append(roles, string(r))
				}
			}

			ctx := cmd.Context()
			cfg, logger, err := loadConfig(deps)
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			participants, err := sqlstore.NewDirectoryRepository(store).ListParticipantsByRoles(ctx, roles)
			if err != nil {
				return fmt.Errorf("list participants: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DOCUMENTO\tNOMBRE\tROL\tCORREO")
			for _, p := range participants {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.DocumentID, p.Name, p.Role, p.Email)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringSliceVar(&roles, "role", nil, "roles to include, all when omitted")
	return cmd
}
