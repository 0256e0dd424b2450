package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultJWTSecret is only accepted when CAMPUSFEED_ENV=development.
const DefaultJWTSecret = "supersecretkey"

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	// MigrateOnStart applies embedded migrations when the dev server starts.
	MigrateOnStart bool         `yaml:"migrate_on_start"`
	Client         ClientConfig `yaml:"client"`
	// MutationPolicy overrides the optimistic/pessimistic mode per mutation kind,
	// e.g. {"toggle-like": "pessimistic"}.
	MutationPolicy map[string]string `yaml:"mutation_policy"`
}

// ClientConfig configures pkg/forumclient.
type ClientConfig struct {
	BaseURL                 string        `yaml:"base_url"`
	Timeout                 time.Duration `yaml:"timeout"`
	Retries                 int           `yaml:"retries"`
	Backoff                 time.Duration `yaml:"backoff"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitReset            time.Duration `yaml:"circuit_reset"`
}

// DefaultClientConfig returns the client settings used when none are configured.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:                 "http://localhost:8080",
		Timeout:                 10 * time.Second,
		Retries:                 2,
		Backoff:                 250 * time.Millisecond,
		CircuitFailureThreshold: 5,
		CircuitReset:            30 * time.Second,
	}
}

func LoadConfig(path string) (*Config, error) {
	apiTimeout := 15 * time.Second
	tokenDuration := 24 * time.Hour

	cfg := &Config{
		Addr:           getEnv("CAMPUSFEED_ADDR", ":8080"),
		JWTSecret:      getEnv("CAMPUSFEED_JWT_SECRET", DefaultJWTSecret),
		APITimeout:     apiTimeout,
		DatabasePath:   getEnv("CAMPUSFEED_DATABASE_PATH", "campusfeed.db"),
		TokenDuration:  tokenDuration,
		MigrateOnStart: getEnv("CAMPUSFEED_MIGRATE_ON_START", "") == "true",
		Client:         DefaultClientConfig(),
	}
	cfg.Client.BaseURL = getEnv("CAMPUSFEED_BASE_URL", cfg.Client.BaseURL)

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate fills zero client settings with defaults and rejects configurations that
// are unsafe to run. The default JWT secret is refused unless CAMPUSFEED_ENV is
// "development".
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is required"))
	}
	if c.TokenDuration <= 0 {
		errs = append(errs, errors.New("token_duration must be positive"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	} else if c.JWTSecret == DefaultJWTSecret && os.Getenv("CAMPUSFEED_ENV") != "development" {
		errs = append(errs, fmt.Errorf("jwt_secret uses the insecure default; set CAMPUSFEED_JWT_SECRET or CAMPUSFEED_ENV=development"))
	}
	if c.APITimeout <= 0 {
		c.APITimeout = 15 * time.Second
	}

	def := DefaultClientConfig()
	if c.Client.BaseURL == "" {
		c.Client.BaseURL = def.BaseURL
	}
	if c.Client.Timeout <= 0 {
		c.Client.Timeout = def.Timeout
	}
	if c.Client.Retries < 0 {
		errs = append(errs, errors.New("client.retries must not be negative"))
	}
	if c.Client.Backoff <= 0 {
		c.Client.Backoff = def.Backoff
	}
	if c.Client.CircuitFailureThreshold <= 0 {
		c.Client.CircuitFailureThreshold = def.CircuitFailureThreshold
	}
	if c.Client.CircuitReset <= 0 {
		c.Client.CircuitReset = def.CircuitReset
	}
	for kind, mode := range c.MutationPolicy {
		if mode != "optimistic" && mode != "pessimistic" {
			errs = append(errs, fmt.Errorf("mutation_policy.%s: unknown mode %q", kind, mode))
		}
	}

	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
