package config

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	Security SecurityConfig `env:",prefix="`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Auth     AuthConfig     `env:",prefix=AUTH_"`
	Google   OAuthConfig    `env:",prefix=OAUTH_GOOGLE_"`
	SMTP     SMTPConfig     `env:",prefix=SMTP_"`
	API      APIConfig      `env:",prefix=API_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	PublicURL    string   `env:"PUBLIC_URL,default=http://localhost:8080"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host          string `env:"HOST,default=localhost"`
	Port          string `env:"PORT,default=5432"`
	User          string `env:"USER,default=kanah"`
	Password      string `env:"PASSWORD,default=kanah_password"`
	DBName        string `env:"DB,default=kanah_db"`
	SSLMode       string `env:"SSLMODE,default=disable"`
	MigrateOnBoot bool   `env:"MIGRATE_ON_BOOT,default=true"`

	MaxOpenConns    int      `env:"MAX_OPEN_CONNS,default=25"`
	MaxIdleConns    int      `env:"MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime Duration `env:"CONN_MAX_LIFETIME,default=30m"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type JWTConfig struct {
	Secret             string   `env:"SECRET,required"`
	AccessTokenExpiry  Duration `env:"ACCESS_TOKEN_EXPIRY,default=1h"`
	RefreshTokenExpiry Duration `env:"REFRESH_TOKEN_EXPIRY,default=30d"`
}

type SecurityConfig struct {
	BCryptCost        int      `env:"BCRYPT_COST,default=12"`
	RateLimitRequests int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow   Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:8081"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization,apikey"`
}

// AuthConfig controls signup and recovery behaviour.
type AuthConfig struct {
	RequireEmailVerification bool     `env:"REQUIRE_EMAIL_VERIFICATION,default=true"`
	VerificationTokenExpiry  Duration `env:"VERIFICATION_TOKEN_EXPIRY,default=1d"`
	RecoveryTokenExpiry      Duration `env:"RECOVERY_TOKEN_EXPIRY,default=1h"`
	OAuthStateExpiry         Duration `env:"OAUTH_STATE_EXPIRY,default=10m"`
	AuthCodeExpiry           Duration `env:"AUTH_CODE_EXPIRY,default=5m"`
	// RedirectAllowList limits where OAuth callbacks may send the auth code.
	RedirectAllowList []string `env:"REDIRECT_ALLOW_LIST,default=kanahhealth://,http://localhost"`
	// SiteURL receives the session after an email link is opened.
	SiteURL string `env:"SITE_URL,default=kanahhealth://auth-callback"`
}

type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL,default=http://localhost:8080/api/v1/auth/callback"`
}

// Enabled reports whether the provider has credentials.
func (o OAuthConfig) Enabled() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT,default=587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM,default=Kanah Health <no-reply@kanahhealth.com>"`
}

// Enabled reports whether outgoing mail should go through SMTP.
func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

// Address returns SMTP server address
func (s SMTPConfig) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type APIConfig struct {
	PublicKey string `env:"PUBLIC_KEY,required"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	return &config, nil
}

// LoadDotEnv loads the given .env files into the process environment.
// Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}
