package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix              = "VERDANT"
	defaultHTTPAddress     = "0.0.0.0:8080"
	defaultDatabasePath    = "verdant.db"
	defaultLogLevel        = "info"
	defaultStoragePath     = "storage/plant-images"
	defaultStorageBaseURL  = "http://localhost:8080/storage/plant-images"
	defaultSettingsDir     = "storage/settings"
	defaultFeedPageSize    = 10
	defaultDebounceMillis  = 1500
	defaultTokenTTLMinutes = 60
	defaultAIModel         = "gpt-4o-mini"
	defaultAIEndpoint      = "https://api.openai.com"
	defaultWeatherEndpoint = "https://api.open-meteo.com"
	defaultGoogleJWKSURL   = "https://www.googleapis.com/oauth2/v3/certs"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress     string
	DatabasePath    string
	LogLevel        string
	SigningSecret   string
	TokenTTL        time.Duration
	GoogleClientID  string
	GoogleJWKSURL   string
	StoragePath     string
	StorageBaseURL  string
	SettingsDir     string
	AIEndpoint      string
	AIKey           string
	AIModel         string
	WeatherEndpoint string
	FeedPageSize    int
	SettingsSyncLag time.Duration
	AutoApprove     bool
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
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("token.ttl_minutes", defaultTokenTTLMinutes)
	configViper.SetDefault("google.jwks_url", defaultGoogleJWKSURL)
	configViper.SetDefault("storage.path", defaultStoragePath)
	configViper.SetDefault("storage.base_url", defaultStorageBaseURL)
	configViper.SetDefault("settings.dir", defaultSettingsDir)
	configViper.SetDefault("settings.sync_debounce_ms", defaultDebounceMillis)
	configViper.SetDefault("ai.endpoint", defaultAIEndpoint)
	configViper.SetDefault("ai.model", defaultAIModel)
	configViper.SetDefault("weather.endpoint", defaultWeatherEndpoint)
	configViper.SetDefault("feed.page_size", defaultFeedPageSize)
	configViper.SetDefault("auth.auto_approve", false)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:     configViper.GetString("http.address"),
		DatabasePath:    configViper.GetString("database.path"),
		LogLevel:        configViper.GetString("log.level"),
		SigningSecret:   configViper.GetString("auth.signing_secret"),
		TokenTTL:        time.Duration(configViper.GetInt("token.ttl_minutes")) * time.Minute,
		GoogleClientID:  configViper.GetString("google.client_id"),
		GoogleJWKSURL:   configViper.GetString("google.jwks_url"),
		StoragePath:     configViper.GetString("storage.path"),
		StorageBaseURL:  configViper.GetString("storage.base_url"),
		SettingsDir:     configViper.GetString("settings.dir"),
		AIEndpoint:      configViper.GetString("ai.endpoint"),
		AIKey:           configViper.GetString("ai.api_key"),
		AIModel:         configViper.GetString("ai.model"),
		WeatherEndpoint: configViper.GetString("weather.endpoint"),
		FeedPageSize:    configViper.GetInt("feed.page_size"),
		SettingsSyncLag: time.Duration(configViper.GetInt("settings.sync_debounce_ms")) * time.Millisecond,
		AutoApprove:     configViper.GetBool("auth.auto_approve"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.StoragePath) == "" {
		return fmt.Errorf("storage.path is required")
	}
	if strings.TrimSpace(c.SettingsDir) == "" {
		return fmt.Errorf("settings.dir is required")
	}
	if c.FeedPageSize <= 0 {
		return fmt.Errorf("feed.page_size must be positive")
	}
	if c.SettingsSyncLag <= 0 {
		return fmt.Errorf("settings.sync_debounce_ms must be positive")
	}
	return nil
}
