package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewMigrateCmd applies the embedded schema migrations.
func NewMigrateCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			fmt.Fprintln(cmd.OutOrStdout(), "base de datos actualizada")
			return nil
		},
	}
}

// NewSweepCmd runs one expiry sweep, for use from cron alongside the sweep
// that precedes every listing.
func NewSweepCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Finalize ended meetings that have attendance",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadConfig(deps)
			if err != nil {
				return err
			}
			rt, err := newRuntime(ctx, deps, cfg, logger)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.meetings.SweepExpired(ctx)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "reuniones revisadas: %d\n", result.Examined)
			fmt.Fprintf(out, "reuniones finalizadas: %d\n", len(result.Finalized))
			if len(result.Finalized) > 0 {
				fmt.Fprintf(out, "  %s\n", strings.Join(result.Finalized, "\n  "))
			}
			return err
		},
	}
}
