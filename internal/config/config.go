package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix            = "VIBRO"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultMongoURI      = "mongodb://localhost:27017"
	defaultMongoDatabase = "vibro"
	defaultLogLevel      = "info"
	defaultTokenTTLDays  = 15
	defaultPushEndpoint  = "https://exp.host/--/api/v2/push/send"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress   string
	MongoURI      string
	MongoDatabase string
	SigningSecret string
	TokenTTL      time.Duration
	LogLevel      string
	PushEndpoint  string
	KeepAliveURL  string
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
	configViper.SetDefault("mongo.uri", defaultMongoURI)
	configViper.SetDefault("mongo.database", defaultMongoDatabase)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("token.ttl_days", defaultTokenTTLDays)
	configViper.SetDefault("push.endpoint", defaultPushEndpoint)
	configViper.SetDefault("keepalive.url", "")
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:   configViper.GetString("http.address"),
		MongoURI:      configViper.GetString("mongo.uri"),
		MongoDatabase: configViper.GetString("mongo.database"),
		SigningSecret: configViper.GetString("auth.signing_secret"),
		TokenTTL:      time.Duration(configViper.GetInt("token.ttl_days")) * 24 * time.Hour,
		LogLevel:      configViper.GetString("log.level"),
		PushEndpoint:  configViper.GetString("push.endpoint"),
		KeepAliveURL:  configViper.GetString("keepalive.url"),
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
	if strings.TrimSpace(c.MongoURI) == "" {
		return fmt.Errorf("mongo.uri is required")
	}
	if strings.TrimSpace(c.MongoDatabase) == "" {
		return fmt.Errorf("mongo.database is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token.ttl_days must be positive")
	}
	return nil
}
