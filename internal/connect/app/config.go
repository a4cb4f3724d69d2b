package app

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/aussiebroadwan/bartab-connect/internal/connect/oauth"
)

// ProviderConfig is one provider's client registration. A provider with no
// client id is not registered.
type ProviderConfig struct {
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	RedirectURI  string   `env:"REDIRECT_URI"`
	Scopes       []string `env:"SCOPES" envSeparator:","` // Optional: overrides the provider's default scopes
}

func (p ProviderConfig) enabled() bool { return p.ClientID != "" }

func (p ProviderConfig) oauth(client *http.Client) oauth.Config {
	return oauth.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  p.RedirectURI,
		Scopes:       p.Scopes,
		HTTPClient:   client,
	}
}

type Config struct {
	Env                 string        `env:"ENV" envDefault:"dev"`                   // Environment (dev, staging, prod)
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`            // Log level (debug, info, warn, error)
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"`           // Log format (json, text)
	Port                int           `env:"PORT" envDefault:"8081"`                 // HTTP server port
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"` // Graceful shutdown timeout

	StoreDriver  string `env:"CONNECT_STORE_DRIVER" envDefault:"sqlite"`      // sqlite, postgres
	DatabaseFile string `env:"CONNECT_DATABASE_FILE" envDefault:"connect.db"` // sqlite only
	DatabaseURL  string `env:"CONNECT_DATABASE_URL"`                          // postgres only
	StateDriver  string `env:"CONNECT_STATE_DRIVER" envDefault:"memory"`      // memory, redis, sqlite
	RedisURL     string `env:"CONNECT_REDIS_URL"`                             // redis only

	StateTTL             time.Duration `env:"CONNECT_STATE_TTL" envDefault:"10m"`
	ClockSkew            time.Duration `env:"CONNECT_CLOCK_SKEW" envDefault:"30s"`
	ProviderTimeout      time.Duration `env:"CONNECT_PROVIDER_TIMEOUT" envDefault:"30s"`
	DefaultExpiresIn     time.Duration `env:"CONNECT_DEFAULT_EXPIRES_IN" envDefault:"1h"`
	HousekeepingInterval time.Duration `env:"CONNECT_HOUSEKEEPING_INTERVAL" envDefault:"1m"`

	// MasterKeyFile takes precedence over CONNECT_MASTER_KEY. With neither
	// set tokens are sealed with a random key and lost on restart.
	MasterKeyFile string `env:"CONNECT_MASTER_KEY_FILE"`

	// JWTSecret is shared with the auth service that issues bearer tokens.
	JWTSecret   string   `env:"CONNECT_JWT_SECRET"`
	JWTIssuer   string   `env:"CONNECT_JWT_ISSUER"`
	JWTAudience []string `env:"CONNECT_JWT_AUDIENCE" envSeparator:","`

	SuccessRedirectURL string `env:"CONNECT_SUCCESS_REDIRECT_URL"`
	OTelEndpoint       string `env:"CONNECT_OTEL_ENDPOINT"`

	Microsoft       ProviderConfig `envPrefix:"MICROSOFT_"`
	MicrosoftTenant string         `env:"MICROSOFT_TENANT" envDefault:"common"`
	Slack           ProviderConfig `envPrefix:"SLACK_"`
	Jira            ProviderConfig `envPrefix:"JIRA_"`
	Asana           ProviderConfig `envPrefix:"ASANA_"`
	Google          ProviderConfig `envPrefix:"GOOGLE_"`
	GitHub          ProviderConfig `envPrefix:"GITHUB_"`
}

// LoadConfig reads the environment and validates the result.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("CONNECT_JWT_SECRET is required"))
	}

	switch c.StoreDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("CONNECT_DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CONNECT_STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.StateDriver {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			errs = append(errs, errors.New("CONNECT_REDIS_URL is required for the redis state store"))
		}
	case "sqlite":
		if c.StoreDriver != "sqlite" {
			errs = append(errs, errors.New("the sqlite state store needs CONNECT_STORE_DRIVER=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CONNECT_STATE_DRIVER %q", c.StateDriver))
	}

	return errors.Join(errs...)
}

// Providers builds the registry from every provider that has a client id.
func (c Config) Providers(client *http.Client) (*oauth.Registry, error) {
	var providers []oauth.Provider

	if c.Microsoft.enabled() {
		mc := c.Microsoft.oauth(client)
		mc.Tenant = c.MicrosoftTenant
		providers = append(providers, oauth.NewMicrosoft(mc))
	}
	if c.Slack.enabled() {
		providers = append(providers, oauth.NewSlack(c.Slack.oauth(client)))
	}
	if c.Jira.enabled() {
		providers = append(providers, oauth.NewJira(c.Jira.oauth(client)))
	}
	if c.Asana.enabled() {
		providers = append(providers, oauth.NewAsana(c.Asana.oauth(client)))
	}
	if c.Google.enabled() {
		providers = append(providers, oauth.NewGoogle(c.Google.oauth(client)))
	}
	if c.GitHub.enabled() {
		providers = append(providers, oauth.NewGitHub(c.GitHub.oauth(client)))
	}

	return oauth.NewRegistry(providers...)
}
