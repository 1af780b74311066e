// Package config loads server settings from the environment. A .env file in
// the working directory is read first when present; real environment
// variables win over it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything the server binary needs to start
type Config struct {
	Addr    string `env:"SECRETS_ADDR" envDefault:":3000"`
	BaseURL string `env:"SECRETS_BASE_URL" envDefault:"http://localhost:3000"`

	StoreDSN string `env:"SECRETS_STORE_DSN" envDefault:"mongodb://localhost:27017/userDB"`

	// Server side session lifetime. The cookie itself never outlives the browser session.
	SessionLifetime time.Duration `env:"SECRETS_SESSION_LIFETIME" envDefault:"24h"`
	CookieSecure    bool          `env:"SECRETS_COOKIE_SECURE"`

	// Signs the OAuth state parameter. Random per process when empty.
	StateSecret string `env:"SECRETS_STATE_SECRET"`

	LogLevel   string `env:"SECRETS_LOG_LEVEL" envDefault:"info"`
	DevLogging bool   `env:"SECRETS_DEV_LOGGING"`

	ShutdownTimeout time.Duration `env:"SECRETS_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Google   ProviderConfig
	Facebook ProviderConfig
}

// ProviderConfig holds the OAuth client registration for one provider.
// A provider with both fields empty is disabled.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
}

func (p ProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// providerEnv holds the raw provider variables. Facebook uses the names its
// developer console shows. CLIENT_ID and CLIENT_SECRET are older names for
// the Google pair.
type providerEnv struct {
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	LegacyClientID     string `env:"CLIENT_ID"`
	LegacyClientSecret string `env:"CLIENT_SECRET"`
	FacebookAppID      string `env:"FACEBOOK_APP_ID"`
	FacebookAppSecret  string `env:"FACEBOOK_APP_SECRET"`
}

// Load reads .env (if any) and then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the environment only
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	var raw providerEnv
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Google = ProviderConfig{ClientID: raw.GoogleClientID, ClientSecret: raw.GoogleClientSecret}
	if cfg.Google.ClientID == "" && cfg.Google.ClientSecret == "" {
		cfg.Google = ProviderConfig{ClientID: raw.LegacyClientID, ClientSecret: raw.LegacyClientSecret}
	}
	cfg.Facebook = ProviderConfig{ClientID: raw.FacebookAppID, ClientSecret: raw.FacebookAppSecret}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.StoreDSN == "" {
		errs = append(errs, errors.New("SECRETS_STORE_DSN is required"))
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("SECRETS_BASE_URL is required"))
	}
	if half(c.Google) {
		errs = append(errs, errors.New("google needs both GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET"))
	}
	if half(c.Facebook) {
		errs = append(errs, errors.New("facebook needs both FACEBOOK_APP_ID and FACEBOOK_APP_SECRET"))
	}
	return errors.Join(errs...)
}

func half(p ProviderConfig) bool {
	return (p.ClientID == "") != (p.ClientSecret == "")
}

// CallbackURL is where provider redirects back to, {base}/auth/{provider}/secrets
func (c *Config) CallbackURL(provider string) string {
	return c.BaseURL + "/auth/" + provider + "/secrets"
}
