package app

import (
	"context"
	"fmt"

	"github.com/binocarlos/diggerpassport/internal/auth"
	"github.com/binocarlos/diggerpassport/internal/auth/provider"
	"github.com/binocarlos/diggerpassport/internal/auth/provider/github"
	"github.com/binocarlos/diggerpassport/internal/auth/provider/google"
	"github.com/binocarlos/diggerpassport/internal/auth/provider/twitter"
	"github.com/binocarlos/diggerpassport/internal/config"
)

// adapterFactory builds one provider adapter from its configured
// credentials and callback URL.
type adapterFactory func(ctx context.Context, pc config.Provider, callbackURL string, secure bool) (provider.Adapter, error)

// adapterFactories is the registration table of known providers. The
// local provider is handled by the handler directly and has no entry.
var adapterFactories = map[string]adapterFactory{
	"google": func(ctx context.Context, pc config.Provider, callbackURL string, secure bool) (provider.Adapter, error) {
		return google.New(ctx, pc.Key, pc.Secret, callbackURL, secure)
	},
	"github": func(ctx context.Context, pc config.Provider, callbackURL string, secure bool) (provider.Adapter, error) {
		return github.New(pc.Key, pc.Secret, callbackURL, secure)
	},
	"twitter": func(ctx context.Context, pc config.Provider, callbackURL string, secure bool) (provider.Adapter, error) {
		return twitter.New(pc.Key, pc.Secret, callbackURL, secure)
	},
}

// buildRegistry instantiates an adapter for every configured provider.
// A configured name with no factory is a fatal configuration error.
func buildRegistry(ctx context.Context, cfg config.Config) (*provider.Registry, bool, error) {
	registry := provider.NewRegistry()
	localEnabled := false

	for name, pc := range cfg.Providers {
		if name == auth.ProviderLocal {
			localEnabled = true
			continue
		}

		factory, ok := adapterFactories[name]
		if !ok {
			return nil, false, fmt.Errorf("%s is not an auth provider", name)
		}

		adapter, err := factory(ctx, pc, cfg.CallbackURL(name), cfg.Secure())
		if err != nil {
			return nil, false, fmt.Errorf("provider %s: %w", name, err)
		}

		if err := registry.Register(adapter); err != nil {
			return nil, false, err
		}
	}

	return registry, localEnabled, nil
}
