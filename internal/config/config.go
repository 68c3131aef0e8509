package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Provider holds the application credentials registered with one
// identity provider. The local provider carries no credentials.
type Provider struct {
	Key    string
	Secret string
}

type Config struct {
	// AppID distinguishes this app's session cache from other apps
	// sharing the same Redis instance. Required.
	AppID string `env:"APP_ID"`

	AppPort string `env:"APP_PORT" envDefault:"8080"`

	// Mountpath is the base path the auth routes are mounted under.
	Mountpath string `env:"AUTH_MOUNTPATH" envDefault:"/login"`

	// Hostname is the externally visible host used to build OAuth
	// callback URLs, e.g. "myapp.example.com".
	Hostname string `env:"AUTH_HOSTNAME" envDefault:"localhost:8080"`

	// Scheme for callback URLs. Providers generally require https
	// outside local development.
	Scheme string `env:"AUTH_SCHEME" envDefault:"http"`

	SuccessRoute string `env:"AUTH_ROUTE_SUCCESS" envDefault:"/"`
	FailureRoute string `env:"AUTH_ROUTE_FAILURE" envDefault:"/login"`

	// ProviderList names the enabled providers, comma separated,
	// e.g. "local,google,github". Each OAuth provider reads its
	// credentials from <NAME>_KEY and <NAME>_SECRET.
	ProviderList string `env:"AUTH_PROVIDERS" envDefault:"local"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	DatabaseDSN string `env:"DATABASE_DSN"`

	Providers map[string]Provider `env:"-"`
}

// CallbackURL builds the fixed OAuth callback URL for a provider,
// derived from <mountpath>/<provider>/callback.
func (c Config) CallbackURL(provider string) string {
	return fmt.Sprintf("%s://%s%s/%s/callback", c.Scheme, c.Hostname, c.Mountpath, provider)
}

// Secure reports whether the deployment serves https. Cookies marked
// Secure (and the __Host- session cookie prefix) only work there.
func (c Config) Secure() bool {
	return c.Scheme == "https"
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.AppID == "" {
		return Config{}, errors.New("config: APP_ID is required to distinguish between apps")
	}
	if !strings.HasPrefix(cfg.Mountpath, "/") {
		return Config{}, fmt.Errorf("config: mountpath %q must start with /", cfg.Mountpath)
	}

	cfg.Providers = make(map[string]Provider)
	for _, name := range strings.Split(cfg.ProviderList, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		prefix := strings.ToUpper(name)
		cfg.Providers[name] = Provider{
			Key:    os.Getenv(prefix + "_KEY"),
			Secret: os.Getenv(prefix + "_SECRET"),
		}
	}

	return cfg, nil
}
