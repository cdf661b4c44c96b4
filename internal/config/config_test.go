package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(Prefix+"AUTH_SECRET", "super-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "file:drivingschool.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", cfg.DBDSN)
	assert.Equal(t, "super-secret", cfg.AuthSecret)
	assert.Equal(t, 12*time.Hour, cfg.AuthTokenTTL)
	assert.Equal(t, MailConsole, cfg.MailTransport)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 15*time.Second, cfg.SMTPTimeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.DistributionList)
	assert.Equal(t, "no-reply@drivingschool.local", cfg.Sender().Address)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv(Prefix+"AUTH_SECRET", "s")
	t.Setenv(Prefix+"HTTP_PORT", "9090")
	t.Setenv(Prefix+"DB_DRIVER", "Postgres")
	t.Setenv(Prefix+"DB_DSN", "postgres://school@db/school?sslmode=disable")
	t.Setenv(Prefix+"MAIL_TRANSPORT", "smtp")
	t.Setenv(Prefix+"SMTP_HOST", "smtp.example.com")
	t.Setenv(Prefix+"SMTP_TIMEOUT", "5s")
	t.Setenv(Prefix+"DISTRIBUTION_LIST", "direccion@example.com, Calidad <calidad@example.com>,")
	t.Setenv(Prefix+"LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, MailSMTP, cfg.MailTransport)
	assert.Equal(t, 5*time.Second, cfg.SMTPTimeout)
	assert.Equal(t, []string{"direccion@example.com", "Calidad <calidad@example.com>"}, cfg.DistributionList)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv(Prefix+"AUTH_SECRET", "")
	require.NoError(t, os.Unsetenv(Prefix+"AUTH_SECRET"))

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, "faltan variables de entorno obligatorias: DRIVINGSCHOOL_AUTH_SECRET", err.Error())
}

func TestLoad_TransportRequirements(t *testing.T) {
	t.Setenv(Prefix+"AUTH_SECRET", "s")
	t.Setenv(Prefix+"MAIL_TRANSPORT", "sendgrid")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), Prefix+"SENDGRID_API_KEY")
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv(Prefix+"AUTH_SECRET", "s")
	t.Setenv(Prefix+"HTTP_PORT", "-1")
	t.Setenv(Prefix+"DB_DRIVER", "oracle")
	t.Setenv(Prefix+"MAIL_TRANSPORT", "pigeon")
	t.Setenv(Prefix+"LOG_FORMAT", "xml")

	_, err := Load()
	require.Error(t, err)
	for _, key := range []string{"HTTP_PORT", "DB_DRIVER", "MAIL_TRANSPORT", "LOG_FORMAT"} {
		assert.Contains(t, err.Error(), Prefix+key)
	}
}

func TestLoad_UnparsableDuration(t *testing.T) {
	t.Setenv(Prefix+"AUTH_SECRET", "s")
	t.Setenv(Prefix+"AUTH_TOKEN_TTL", "tomorrow")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valores de variables de entorno no válidos")
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DRIVINGSCHOOL_ATTENDANCE_BASE_URL=https://escuela.example/a\n"), 0o600))
	t.Setenv(Prefix+"AUTH_SECRET", "s")
	t.Setenv(Prefix+"ATTENDANCE_BASE_URL", "")
	require.NoError(t, os.Unsetenv(Prefix+"ATTENDANCE_BASE_URL"))

	require.NoError(t, loadDotEnv(path))
	cfg, err := parse()
	require.NoError(t, err)
	assert.Equal(t, "https://escuela.example/a", cfg.AttendanceBaseURL)

	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
