package config

import (
	"context"
	"os"
	"testing"
	"time"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("API_PUBLIC_KEY", "anon-key")
}

func TestLoad(t *testing.T) {
	setRequired(t)

	ctx := context.Background()
	cfg, err := Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected Server.Port to be '8080', got '%s'", cfg.Server.Port)
	}

	if cfg.Server.ReadTimeout.Duration != 15*time.Second {
		t.Errorf("Expected Server.ReadTimeout to be 15s, got %v", cfg.Server.ReadTimeout.Duration)
	}

	if cfg.Postgres.DBName != "kanah_db" {
		t.Errorf("Expected Postgres.DBName to be 'kanah_db', got '%s'", cfg.Postgres.DBName)
	}

	if !cfg.Postgres.MigrateOnBoot {
		t.Error("Expected Postgres.MigrateOnBoot to default to true")
	}

	if cfg.Postgres.MaxOpenConns != 25 || cfg.Postgres.MaxIdleConns != 5 {
		t.Errorf("Expected pool 25/5, got %d/%d", cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns)
	}

	if cfg.Postgres.ConnMaxLifetime.Duration != 30*time.Minute {
		t.Errorf("Expected ConnMaxLifetime to be 30m, got %v", cfg.Postgres.ConnMaxLifetime.Duration)
	}

	if cfg.JWT.AccessTokenExpiry.Duration != time.Hour {
		t.Errorf("Expected JWT.AccessTokenExpiry to be 1h, got %v", cfg.JWT.AccessTokenExpiry.Duration)
	}

	if cfg.JWT.RefreshTokenExpiry.Duration != 30*24*time.Hour {
		t.Errorf("Expected JWT.RefreshTokenExpiry to be 30d, got %v", cfg.JWT.RefreshTokenExpiry.Duration)
	}

	if !cfg.Auth.RequireEmailVerification {
		t.Error("Expected Auth.RequireEmailVerification to default to true")
	}

	if cfg.Auth.VerificationTokenExpiry.Duration != 24*time.Hour {
		t.Errorf("Expected Auth.VerificationTokenExpiry to be 1d, got %v", cfg.Auth.VerificationTokenExpiry.Duration)
	}

	if cfg.Google.Enabled() {
		t.Error("Expected Google OAuth to be disabled without credentials")
	}

	if cfg.SMTP.Enabled() {
		t.Error("Expected SMTP to be disabled without host")
	}

	if cfg.API.PublicKey != "anon-key" {
		t.Errorf("Expected API.PublicKey to be 'anon-key', got '%s'", cfg.API.PublicKey)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be 'development', got '%s'", cfg.Env)
	}

	if len(cfg.CORS.AllowedHeaders) != 3 {
		t.Errorf("Expected 3 CORS.AllowedHeaders, got %v", cfg.CORS.AllowedHeaders)
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("POSTGRES_HOST", "postgres.example.com")
	t.Setenv("AUTH_REQUIRE_EMAIL_VERIFICATION", "false")
	t.Setenv("OAUTH_GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("OAUTH_GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("ENV", "production")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected Server.Port to be '9090', got '%s'", cfg.Server.Port)
	}

	if cfg.Postgres.Host != "postgres.example.com" {
		t.Errorf("Expected Postgres.Host to be 'postgres.example.com', got '%s'", cfg.Postgres.Host)
	}

	if cfg.Auth.RequireEmailVerification {
		t.Error("Expected Auth.RequireEmailVerification to be false")
	}

	if !cfg.Google.Enabled() {
		t.Error("Expected Google OAuth to be enabled")
	}

	if cfg.SMTP.Address() != "smtp.example.com:587" {
		t.Errorf("Expected SMTP address 'smtp.example.com:587', got '%s'", cfg.SMTP.Address())
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be 'production', got '%s'", cfg.Env)
	}
}

func TestLoadWithoutJWTSecret(t *testing.T) {
	os.Unsetenv("JWT_SECRET")
	t.Setenv("API_PUBLIC_KEY", "anon-key")

	_, err := Load(context.Background())
	if err == nil {
		t.Error("Expected error when JWT_SECRET is not set")
	}
}

func TestLoadWithShortJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("API_PUBLIC_KEY", "anon-key")

	_, err := Load(context.Background())
	if err == nil {
		t.Error("Expected error when JWT_SECRET is too short")
	}
}

func TestLoadWithoutPublicKey(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	os.Unsetenv("API_PUBLIC_KEY")

	_, err := Load(context.Background())
	if err == nil {
		t.Error("Expected error when API_PUBLIC_KEY is not set")
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("KANAH_API_URL", "http://localhost:8080")
	t.Setenv("KANAH_API_KEY", "anon-key")

	cfg, err := LoadClient(context.Background())
	if err != nil {
		t.Fatalf("Failed to load client configuration: %v", err)
	}

	if cfg.StorePath != ".kanah/store" {
		t.Errorf("Expected StorePath to be '.kanah/store', got '%s'", cfg.StorePath)
	}

	if cfg.Timeout.Duration != 30*time.Second {
		t.Errorf("Expected Timeout to be 30s, got %v", cfg.Timeout.Duration)
	}

	if cfg.RedirectURL != "kanahhealth://auth-callback" {
		t.Errorf("Expected RedirectURL to be 'kanahhealth://auth-callback', got '%s'", cfg.RedirectURL)
	}
}

func TestLoadClientMissingURL(t *testing.T) {
	os.Unsetenv("KANAH_API_URL")
	t.Setenv("KANAH_API_KEY", "anon-key")

	if _, err := LoadClient(context.Background()); err == nil {
		t.Error("Expected error when KANAH_API_URL is not set")
	}
}

func TestDurationDays(t *testing.T) {
	var d Duration
	if err := d.EnvDecode(context.Background(), "7d"); err != nil {
		t.Fatalf("Failed to decode duration: %v", err)
	}
	if d.Duration != 7*24*time.Hour {
		t.Errorf("Expected 7 days, got %v", d.Duration)
	}

	if err := d.EnvDecode(context.Background(), "xd"); err == nil {
		t.Error("Expected error for invalid days value")
	}
}

func TestPostgresDSN(t *testing.T) {
	pg := PostgresConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "test_user",
		Password: "test_password",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	dsn := pg.DSN()
	expected := "host=localhost port=5432 user=test_user password=test_password dbname=test_db sslmode=disable"
	if dsn != expected {
		t.Errorf("Expected DSN to be '%s', got '%s'", expected, dsn)
	}
}

func TestRedisAddress(t *testing.T) {
	redis := RedisConfig{
		Host: "localhost",
		Port: "6379",
	}

	if addr := redis.Address(); addr != "localhost:6379" {
		t.Errorf("Expected Address to be 'localhost:6379', got '%s'", addr)
	}
}
