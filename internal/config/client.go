package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// ClientConfig configures the terminal client. URL and key are mandatory:
// without them the remote client cannot be built.
type ClientConfig struct {
	APIURL      string   `env:"KANAH_API_URL,required"`
	APIKey      string   `env:"KANAH_API_KEY,required"`
	StorePath   string   `env:"KANAH_STORE_PATH,default=.kanah/store"`
	StoreKey    string   `env:"KANAH_STORE_KEY"`
	RedirectURL string   `env:"KANAH_REDIRECT_URL,default=kanahhealth://auth-callback"`
	Timeout     Duration `env:"KANAH_HTTP_TIMEOUT,default=30s"`
	Env         string   `env:"KANAH_ENV,default=development"`
}

// LoadClient reads client configuration, consulting .env first.
func LoadClient(ctx context.Context) (*ClientConfig, error) {
	LoadDotEnv(".env")

	var cfg ClientConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("missing remote client configuration: %w", err)
	}

	return &cfg, nil
}
