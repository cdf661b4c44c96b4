package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/example/drivingschool/internal/application"
	"github.com/example/drivingschool/internal/auth"
	"github.com/example/drivingschool/internal/config"
	httptransport "github.com/example/drivingschool/internal/http"
	"github.com/example/drivingschool/internal/logging"
	"github.com/example/drivingschool/internal/mailer"
	"github.com/example/drivingschool/internal/persistence/sqlstore"
)

// runtime holds the wired services for one command invocation.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger
	store  *sqlstore.Store

	notifier    *application.Notifier
	meetings    *application.MeetingService
	attendances *application.AttendanceService
	directory   *sqlstore.DirectoryRepository
}

func loadConfig(deps *Dependencies) (config.Config, *slog.Logger, error) {
	cfg, err := deps.LoadConfig()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(deps.Stderr, cfg.LogFormat, cfg.LogLevel), nil
}

// openStore connects to the configured database and applies pending migrations.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sqlstore.Store, error) {
	store, err := sqlstore.Open(ctx, sqlstore.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN}, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	applied, err := store.Migrate(ctx)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.InfoContext(ctx, "database ready", "driver", cfg.DBDriver, "migrations_applied", applied)
	return store, nil
}

func newRuntime(ctx context.Context, deps *Dependencies, cfg config.Config, logger *slog.Logger) (*runtime, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	sender, err := newSender(deps, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	distribution, err := mailer.ParseAddressList(cfg.DistributionList)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("parse distribution list: %w", err)
	}

	meetingRepo := newMeetingRepositoryAdapter(sqlstore.NewMeetingRepository(store))
	attendanceRepo := newAttendanceRepositoryAdapter(sqlstore.NewAttendanceRepository(store))
	directoryRepo := sqlstore.NewDirectoryRepository(store)
	directory := newParticipantDirectoryAdapter(directoryRepo)

	notifier := application.NewNotifier(directory, sender, application.NotifierConfig{
		DistributionList:  distribution,
		AttendanceBaseURL: cfg.AttendanceBaseURL,
	}, logger)

	return &runtime{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		notifier:    notifier,
		meetings:    application.NewMeetingServiceWithLogger(meetingRepo, attendanceRepo, notifier, deps.NewID, deps.Now, logger),
		attendances: application.NewAttendanceServiceWithLogger(meetingRepo, attendanceRepo, directory, deps.NewID, deps.Now, logger),
		directory:   directoryRepo,
	}, nil
}

func (rt *runtime) Close() error {
	if rt == nil || rt.store == nil {
		return nil
	}
	return rt.store.Close()
}

func newSender(deps *Dependencies, cfg config.Config, logger *slog.Logger) (mailer.Sender, error) {
	if deps.Sender != nil {
		return deps.Sender, nil
	}
	switch cfg.MailTransport {
	case config.MailConsole:
		logger.Warn("mail transport is console; messages are printed instead of sent")
		return mailer.NewConsoleSender(deps.Stdout, cfg.Sender()), nil
	case config.MailSMTP:
		return mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Timeout:  cfg.SMTPTimeout,
			From:     cfg.Sender(),
		}), nil
	case config.MailSendGrid:
		return mailer.NewSendGridSender(cfg.SendGridAPIKey, cfg.Sender()), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.MailTransport)
	}
}

func authConfig(deps *Dependencies, cfg config.Config) auth.Config {
	return auth.Config{
		Secret: []byte(cfg.AuthSecret),
		Issuer: cfg.AuthIssuer,
		TTL:    cfg.AuthTokenTTL,
		Now:    deps.Now,
	}
}

// handler builds the HTTP API over the runtime's services.
func (rt *runtime) handler(verifier httptransport.TokenVerifier) http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Meetings:     httptransport.NewMeetingHandler(rt.meetings, rt.notifier.AttendanceLink, rt.logger),
		Attendances:  httptransport.NewAttendanceHandler(rt.attendances, rt.logger),
		Authenticate: httptransport.Authenticate(verifier, rt.logger),
		Health:       rt.store.Ping,
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(rt.logger)},
	})
}
