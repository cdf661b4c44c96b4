// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every environment variable name.
const Prefix = "DRIVINGSCHOOL_"

// Mail transports.
const (
	MailConsole  = "console"
	MailSMTP     = "smtp"
	MailSendGrid = "sendgrid"
)

// Config captures environment driven configuration values for the service.
type Config struct {
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN" envDefault:"file:drivingschool.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"`

	AuthSecret   string        `env:"AUTH_SECRET,required,notEmpty"`
	AuthIssuer   string        `env:"AUTH_ISSUER" envDefault:"drivingschool"`
	AuthTokenTTL time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"12h"`

	MailTransport string `env:"MAIL_TRANSPORT" envDefault:"console"`
	MailFrom      string `env:"MAIL_FROM" envDefault:"no-reply@drivingschool.local"`
	MailFromName  string `env:"MAIL_FROM_NAME" envDefault:"Escuela de Conducción"`

	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string        `env:"SMTP_USERNAME"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	SMTPTimeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"15s"`

	SendGridAPIKey string `env:"SENDGRID_API_KEY"`

	DistributionList  []string `env:"DISTRIBUTION_LIST" envSeparator:","`
	AttendanceBaseURL string   `env:"ATTENDANCE_BASE_URL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	OTELEndpoint string `env:"OTEL_ENDPOINT"`
}

// Sender returns the configured sender address.
func (c Config) Sender() mail.Address {
	return mail.Address{Name: c.MailFromName, Address: c.MailFrom}
}

// Load parses configuration values from the process environment, after
// loading a .env file from the working directory when one exists.
//
// Defaults apply to optional fields. Missing required values and invalid
// values are reported with localized messages.
func Load() (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return parse()
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("no se pudo leer %s: %w", path, err)
	}
	return nil
}

func parse() (Config, error) {
	var cfg Config
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		var agg env.AggregateError
		if !errors.As(err, &agg) {
			return Config{}, fmt.Errorf("parse env: %w", err)
		}
		for _, e := range agg.Errors {
			var notSet env.EnvVarIsNotSetError
			var empty env.EmptyEnvVarError
			switch {
			case errors.As(e, &notSet):
				missing = append(missing, notSet.Key)
			case errors.As(e, &empty):
				missing = append(missing, empty.Key)
			default:
				invalid = append(invalid, e.Error())
			}
		}
	}

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.MailTransport = strings.ToLower(strings.TrimSpace(cfg.MailTransport))
	cfg.DistributionList = trimAll(cfg.DistributionList)

	if cfg.HTTPPort <= 0 {
		invalid = append(invalid, Prefix+"HTTP_PORT")
	}
	if !slices.Contains([]string{"sqlite", "postgres"}, cfg.DBDriver) {
		invalid = append(invalid, Prefix+"DB_DRIVER")
	}
	if cfg.AuthTokenTTL <= 0 {
		invalid = append(invalid, Prefix+"AUTH_TOKEN_TTL")
	}
	if _, err := mail.ParseAddress(cfg.MailFrom); err != nil {
		invalid = append(invalid, Prefix+"MAIL_FROM")
	}
	for _, addr := range cfg.DistributionList {
		if _, err := mail.ParseAddress(addr); err != nil {
			invalid = append(invalid, Prefix+"DISTRIBUTION_LIST")
			break
		}
	}

	switch cfg.MailTransport {
	case MailConsole:
	case MailSMTP:
		if strings.TrimSpace(cfg.SMTPHost) == "" {
			missing = append(missing, Prefix+"SMTP_HOST")
		}
		if cfg.SMTPPort <= 0 {
			invalid = append(invalid, Prefix+"SMTP_PORT")
		}
	case MailSendGrid:
		if strings.TrimSpace(cfg.SendGridAPIKey) == "" {
			missing = append(missing, Prefix+"SENDGRID_API_KEY")
		}
	default:
		invalid = append(invalid, Prefix+"MAIL_TRANSPORT")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		invalid = append(invalid, Prefix+"LOG_LEVEL")
	}
	if !slices.Contains([]string{"json", "text"}, strings.ToLower(cfg.LogFormat)) {
		invalid = append(invalid, Prefix+"LOG_FORMAT")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("faltan variables de entorno obligatorias: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valores de variables de entorno no válidos: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
