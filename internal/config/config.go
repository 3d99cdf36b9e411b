package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds infrastructure settings. Source: environment, optionally
// seeded from a .env file.
type Config struct {
	Port       string `envconfig:"PORT" default:"8000"`
	AppVersion string `envconfig:"APP_VERSION" default:"V15"`
	SecretKey  string `envconfig:"SECRET_KEY" required:"true"`
	Debug      bool   `envconfig:"DEBUG" default:"false"`

	WordPressAPIURL   string        `envconfig:"WORDPRESS_API_URL" default:"https://test.kroanworks.be/wp-json"`
	WordPressHomeURL  string        `envconfig:"WORDPRESS_HOME_URL" default:"https://test.kroanworks.be"`
	WordPressUsername string        `envconfig:"WORDPRESS_JWT_USERNAME"`
	WordPressPassword string        `envconfig:"WORDPRESS_JWT_PASSWORD"`
	WordPressTimeout  time.Duration `envconfig:"WORDPRESS_TIMEOUT" default:"10s"`

	DatabasePath      string `envconfig:"DATABASE_PATH" default:"./data/rentals.db"`
	FeatureConfigPath string `envconfig:"FEATURE_CONFIG_PATH" default:"./data/rental_config.toml"`
	TimeZone          string `envconfig:"TIME_ZONE" default:"Europe/Brussels"`

	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	SessionTTL         time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SessionSecure      bool          `envconfig:"SESSION_SECURE" default:"false"`
	CSRFEnforce        bool          `envconfig:"CSRF_ENFORCE" default:"false"`

	ReservationsForward bool `envconfig:"RESERVATIONS_FORWARD" default:"false"`

	LoginRatePerMinute int `envconfig:"LOGIN_RATE_PER_MIN" default:"10"`
	LoginBurst         int `envconfig:"LOGIN_BURST" default:"5"`
	// Proxies (IPs or CIDRs) whose X-Forwarded-For header is believed.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`
}

// Load loads configuration from environment variables only.
func Load() (*Config, error) {
	return LoadWithFile("")
}

// LoadWithFile loads configuration from an optional .env file and environment variables.
func LoadWithFile(envFile string) (*Config, error) {
	// A missing .env file is fine; anything else is not.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if all required fields are set.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	u, err := url.Parse(c.WordPressAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("WORDPRESS_API_URL must be an absolute URL, got %q", c.WordPressAPIURL)
	}
	if c.WordPressTimeout <= 0 {
		return fmt.Errorf("WORDPRESS_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.LoginRatePerMinute < 1 || c.LoginBurst < 1 {
		return fmt.Errorf("LOGIN_RATE_PER_MIN and LOGIN_BURST must be at least 1")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TIME_ZONE.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	if c.Port != "" && c.Port[0] == ':' {
		return c.Port
	}
	return ":" + c.Port
}
