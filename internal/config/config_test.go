package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	configViper := NewViper()
	configViper.Set("auth.signing_secret", "test-secret")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPAddress != "0.0.0.0:8080" {
		t.Fatalf("unexpected http address %q", cfg.HTTPAddress)
	}
	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Fatalf("unexpected mongo uri %q", cfg.MongoURI)
	}
	if cfg.MongoDatabase != "vibro" {
		t.Fatalf("unexpected database name %q", cfg.MongoDatabase)
	}
	if cfg.TokenTTL != 15*24*time.Hour {
		t.Fatalf("unexpected token ttl %s", cfg.TokenTTL)
	}
	if cfg.PushEndpoint != "https://exp.host/--/api/v2/push/send" {
		t.Fatalf("unexpected push endpoint %q", cfg.PushEndpoint)
	}
	if cfg.KeepAliveURL != "" {
		t.Fatalf("keep-alive url should default to empty, got %q", cfg.KeepAliveURL)
	}
}

func TestLoadRequiresSigningSecret(t *testing.T) {
	configViper := NewViper()

	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected error without signing secret")
	}
}

func TestLoadRejectsBlankMongoSettings(t *testing.T) {
	configViper := NewViper()
	configViper.Set("auth.signing_secret", "test-secret")
	configViper.Set("mongo.uri", "   ")

	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected error for blank mongo uri")
	}

	configViper = NewViper()
	configViper.Set("auth.signing_secret", "test-secret")
	configViper.Set("mongo.database", "")

	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected error for blank database name")
	}
}

func TestLoadRejectsNonPositiveTokenTTL(t *testing.T) {
	configViper := NewViper()
	configViper.Set("auth.signing_secret", "test-secret")
	configViper.Set("token.ttl_days", 0)

	if _, err := Load(configViper); err == nil {
		t.Fatalf("expected error for zero token ttl")
	}
}

func TestLoadOverrides(t *testing.T) {
	configViper := NewViper()
	configViper.Set("auth.signing_secret", "test-secret")
	configViper.Set("http.address", "127.0.0.1:9999")
	configViper.Set("token.ttl_days", 1)
	configViper.Set("keepalive.url", "https://example.com/health")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HTTPAddress != "127.0.0.1:9999" {
		t.Fatalf("unexpected http address %q", cfg.HTTPAddress)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected token ttl %s", cfg.TokenTTL)
	}
	if cfg.KeepAliveURL != "https://example.com/health" {
		t.Fatalf("unexpected keep-alive url %q", cfg.KeepAliveURL)
	}
}
