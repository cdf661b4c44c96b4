package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/drivingschool/internal/auth"
	"github.com/example/drivingschool/internal/telemetry"
)

const serviceName = "drivingschool"

// NewServeCmd runs the HTTP API until the command context is cancelled.
func NewServeCmd(deps *Dependencies) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Applies pending migrations and serves the meeting API until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, err := loadConfig(deps)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.HTTPPort = port
			}

			shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.OTELEndpoint)
			if err != nil {
				return fmt.Errorf("setup tracing: %w", err)
			}
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracing(flushCtx); err != nil {
					logger.Error("failed to flush traces", "error", err)
				}
			}()

			rt, err := newRuntime(ctx, deps, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.Close(); cerr != nil {
					logger.Error("failed to close storage", "error", cerr)
				}
			}()

			verifier, err := auth.NewVerifier(authConfig(deps, cfg))
			if err != nil {
				return err
			}

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
				Handler:           rt.handler(verifier),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("failed to shutdown server", "error", err)
				}
			}()

			logger.Info("drivingschool API listening", "addr", server.Addr, "mail_transport", cfg.MailTransport)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve: %w", err)
			}
			logger.Info("drivingschool API stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port, overrides DRIVINGSCHOOL_HTTP_PORT")
	return cmd
}
