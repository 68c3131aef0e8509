package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/binocarlos/diggerpassport/internal/auth"
)

// OAuth2 is a generic adapter for providers speaking the OAuth2
// authorization code flow with a JSON profile endpoint. Provider
// packages construct one with their endpoint, profile URL and extract
// hook.
type OAuth2 struct {
	name       string
	config     *oauth2.Config
	keys       auth.ProviderKeys
	profileURL string
	extract    ExtractFunc
	secure     bool
}

func NewOAuth2(
	name string,
	config *oauth2.Config,
	profileURL string,
	extract ExtractFunc,
	secure bool,
) *OAuth2 {
	return &OAuth2{
		name:   name,
		config: config,
		keys: auth.ProviderKeys{
			Key:    config.ClientID,
			Secret: config.ClientSecret,
		},
		profileURL: profileURL,
		extract:    extract,
		secure:     secure,
	}
}

func (p *OAuth2) Name() string {
	return p.name
}

// UsesState is true: the authorization code flow round-trips the state
// parameter and the callback must present it.
func (p *OAuth2) UsesState() bool {
	return true
}

func (p *OAuth2) Begin(ctx context.Context, w http.ResponseWriter, r *http.Request, state string) (string, error) {
	challenge := NewPKCE(w, p.secure)

	return p.config.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	), nil
}

func (p *OAuth2) Callback(ctx context.Context, r *http.Request) (*auth.Profile, error) {
	code := r.URL.Query().Get("code")
	if code == "" {
		return nil, errors.New("callback missing authorization code")
	}

	verifier := PKCEVerifier(r)
	if verifier == "" {
		return nil, errors.New("missing pkce verifier")
	}

	token, err := p.config.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", verifier),
	)
	if err != nil {
		return nil, fmt.Errorf("%s token exchange failed: %w", p.name, err)
	}

	raw, err := p.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	return normalizeProfile(raw, token.AccessToken, token.RefreshToken, p.keys, p.extract), nil
}

func (p *OAuth2) fetchProfile(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	client := p.config.Client(ctx, token)

	resp, err := client.Get(p.profileURL)
	if err != nil {
		return nil, fmt.Errorf("%s profile fetch failed: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s profile fetch returned %d", p.name, resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%s profile decode failed: %w", p.name, err)
	}
	return raw, nil
}
