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
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "Africa/Accra", cfg.Booking.Timezone)
	assert.Equal(t, "24h", cfg.Booking.SlotDisplayFormat)
	assert.Equal(t, "https://sms.arkesel.com/sms/api", cfg.Arkesel.BaseURL)
	assert.False(t, cfg.Arkesel.SMSEnabled())
	assert.False(t, cfg.SMTP.EmailEnabled())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "bookings")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SLOT_DISPLAY_FORMAT", "12h")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("ARKESEL_API_KEY", "secret")
	t.Setenv("SERVER_WRITE_TIMEOUT", "30s")
	t.Setenv("ALLOWED_ORIGINS", "https://book.example.com,https://admin.example.com")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.10")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"https://book.example.com", "https://admin.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.10"}, cfg.Server.TrustedProxies)
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "12h", cfg.Booking.SlotDisplayFormat)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
	assert.True(t, cfg.Arkesel.SMSEnabled())
	assert.Equal(t, "host=db.internal port=5432 user=postgres password= dbname=bookings sslmode=disable", cfg.Database.DatabaseDSN())
	assert.Equal(t, "localhost:6380", cfg.Redis.RedisAddr())
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("server:\n  port: 7070\nbooking:\n  timezone: UTC\nsmtp:\n  host: mail.local\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, time.UTC, cfg.Booking.Location())
	assert.True(t, cfg.SMTP.EmailEnabled())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"unknown driver", "STORAGE_DRIVER", "mongo"},
		{"unknown timezone", "BOOKING_TIMEZONE", "Mars/Olympus"},
		{"unknown display format", "SLOT_DISPLAY_FORMAT", "ampm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.val)
			_, err := LoadFrom(t.TempDir())
			assert.Error(t, err)
		})
	}
}
