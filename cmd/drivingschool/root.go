package main

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/drivingschool/internal/config"
	"github.com/example/drivingschool/internal/mailer"
)

// Dependencies are the process level collaborators shared by every command.
// Tests replace them to run commands in isolation.
type Dependencies struct {
	LoadConfig func() (config.Config, error)
	Now        func() time.Time
	NewID      func() string
	Stdout     io.Writer
	Stderr     io.Writer
	// Sender overrides the transport selected by configuration.
	Sender mailer.Sender
}

func defaultDependencies() *Dependencies {
	return &Dependencies{
		LoadConfig: config.Load,
		Now:        time.Now,
		NewID:      uuid.NewString,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
}

// NewRootCmd assembles the drivingschool command tree.
func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "drivingschool",
		Short:         "Meeting lifecycle and attendance service for the driving school",
		Long:          "Runs the HTTP API that schedules staff meetings, notifies participants, collects attendance and finalizes meetings once they end.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(deps.Stdout)
	rootCmd.SetErr(deps.Stderr)

	rootCmd.AddCommand(NewServeCmd(deps))
	rootCmd.AddCommand(NewMigrateCmd(deps))
	rootCmd.AddCommand(NewSweepCmd(deps))
	rootCmd.AddCommand(NewUsersCmd(deps))
	rootCmd.AddCommand(NewTokenCmd(deps))

	return rootCmd
}
