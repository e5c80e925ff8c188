package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix            = "HEALTHTRACK"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultDatabasePath  = "healthtrack.db"
	defaultLogLevel      = "info"
	defaultTokenTTLHours = 168
	defaultTargetKcal    = 2000
)

// AppConfig captures runtime configuration for the tracker service.
type AppConfig struct {
	HTTPAddress       string
	DatabasePath      string
	DatabaseDSN       string
	LogLevel          string
	SigningSecret     string
	TokenTTL          time.Duration
	GeminiAPIKey      string
	FatSecretToken    string
	DefaultTargetKcal int
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("database.dsn", "")
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("token.ttl_hours", defaultTokenTTLHours)
	configViper.SetDefault("target.calories", defaultTargetKcal)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		DatabasePath:      configViper.GetString("database.path"),
		DatabaseDSN:       configViper.GetString("database.dsn"),
		LogLevel:          configViper.GetString("log.level"),
		SigningSecret:     configViper.GetString("auth.signing_secret"),
		TokenTTL:          time.Duration(configViper.GetInt("token.ttl_hours")) * time.Hour,
		GeminiAPIKey:      configViper.GetString("gemini.api_key"),
		FatSecretToken:    configViper.GetString("fatsecret.access_token"),
		DefaultTargetKcal: configViper.GetInt("target.calories"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

// The external API credentials are deliberately not validated here: a missing
// Gemini key or FatSecret token is a supported configuration in which the
// resolver and analyzer degrade to their fallback paths.
func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" && strings.TrimSpace(c.DatabaseDSN) == "" {
		return fmt.Errorf("one of database.path or database.dsn is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token.ttl_hours must be positive")
	}
	return nil
}
