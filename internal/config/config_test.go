package config

import (
	"testing"
	"time"
)

func validBase() Config {
	return Config{
		App:    AppConfig{Env: "local", Port: 8080},
		DB:     DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "roast", SSLMode: ""},
		Redis:  RedisConfig{Host: "localhost", Port: 6379},
		Auth:   AuthConfig{JWTSecret: "secret"},
		Dialer: DialerConfig{BaseURL: "https://roast-call-proxy.vercel.app"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "roast-platform"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Roast.PollInterval != time.Second {
		t.Fatalf("expected 1s poll interval default, got %v", c.Roast.PollInterval)
	}
	if c.Dialer.Timeout != 10*time.Second {
		t.Fatalf("expected 10s dialer timeout default, got %v", c.Dialer.Timeout)
	}
	if c.Auth.GuestTokenTTL != 2*time.Hour {
		t.Fatalf("expected 2h guest TTL default, got %v", c.Auth.GuestTokenTTL)
	}
	if c.Roast.CounterSeed != 1337 {
		t.Fatalf("expected seeded counter default, got %d", c.Roast.CounterSeed)
	}
}

func TestValidate_RejectsNonHTTPDialerURL(t *testing.T) {
	c := validBase()
	c.Dialer.BaseURL = "ftp://example.com"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for non-http dialer url")
	}
}
