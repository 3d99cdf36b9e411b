package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"PORT", "APP_VERSION", "SECRET_KEY", "DEBUG",
	"WORDPRESS_API_URL", "WORDPRESS_HOME_URL", "WORDPRESS_JWT_USERNAME", "WORDPRESS_JWT_PASSWORD", "WORDPRESS_TIMEOUT",
	"DATABASE_PATH", "FEATURE_CONFIG_PATH", "TIME_ZONE",
	"CORS_ALLOWED_ORIGINS", "TRUSTED_PROXIES", "SESSION_TTL", "SESSION_SECURE", "CSRF_ENFORCE",
	"RESERVATIONS_FORWARD", "LOGIN_RATE_PER_MIN", "LOGIN_BURST",
}

// clearEnv removes every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "") // save original for cleanup
		_ = os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "V15", cfg.AppVersion)
	assert.Equal(t, "https://test.kroanworks.be/wp-json", cfg.WordPressAPIURL)
	assert.Equal(t, "https://test.kroanworks.be", cfg.WordPressHomeURL)
	assert.Equal(t, 10*time.Second, cfg.WordPressTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.TrustedProxies)
	assert.Equal(t, "Europe/Brussels", cfg.TimeZone)
	assert.False(t, cfg.CSRFEnforce)
	assert.False(t, cfg.ReservationsForward)
	assert.Equal(t, 10, cfg.LoginRatePerMinute)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("WORDPRESS_API_URL", "https://wp.example.com/wp-json")
	t.Setenv("WORDPRESS_TIMEOUT", "5s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("CSRF_ENFORCE", "true")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "https://wp.example.com/wp-json", cfg.WordPressAPIURL)
	assert.Equal(t, 5*time.Second, cfg.WordPressTimeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.CSRFEnforce)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
}

func TestLoad_MissingSecretKey(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("WORDPRESS_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading environment")
}

func TestLoadWithFile_RealEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := dir + "/.env"
	content := "SECRET_KEY=from-file\nWORDPRESS_API_URL=https://envfile.example.com/wp-json\nPORT=8123\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	cfg, err := LoadWithFile(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.SecretKey)
	assert.Equal(t, "https://envfile.example.com/wp-json", cfg.WordPressAPIURL)
	assert.Equal(t, "8123", cfg.Port)
}

func TestLoadWithFile_NonExistentFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")

	cfg, err := LoadWithFile("/nonexistent/.env")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.SecretKey)
}

func TestLoadWithFile_GodotenvError(t *testing.T) {
	// A directory path causes godotenv to return a non-IsNotExist error
	dir := t.TempDir()
	_, err := LoadWithFile(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error loading .env file")
}

func validConfig() *Config {
	return &Config{
		Port:               "8000",
		SecretKey:          "s3cret",
		WordPressAPIURL:    "https://wp.example.com/wp-json",
		WordPressTimeout:   time.Second,
		SessionTTL:         time.Hour,
		TimeZone:           "UTC",
		LoginRatePerMinute: 1,
		LoginBurst:         1,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing secret", func(c *Config) { c.SecretKey = "" }, "SECRET_KEY is required"},
		{"missing port", func(c *Config) { c.Port = "" }, "PORT is required"},
		{"relative url", func(c *Config) { c.WordPressAPIURL = "/wp-json" }, "WORDPRESS_API_URL must be an absolute URL"},
		{"zero timeout", func(c *Config) { c.WordPressTimeout = 0 }, "WORDPRESS_TIMEOUT must be positive"},
		{"zero session ttl", func(c *Config) { c.SessionTTL = 0 }, "SESSION_TTL must be positive"},
		{"zero burst", func(c *Config) { c.LoginBurst = 0 }, "LOGIN_BURST"},
		{"unknown zone", func(c *Config) { c.TimeZone = "Mars/Olympus" }, "invalid TIME_ZONE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8000", (&Config{Port: "8000"}).Addr())
	assert.Equal(t, ":8000", (&Config{Port: ":8000"}).Addr())
}
