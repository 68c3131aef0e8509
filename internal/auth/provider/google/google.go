package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/binocarlos/diggerpassport/internal/auth"
	"github.com/binocarlos/diggerpassport/internal/auth/provider"
	"github.com/binocarlos/diggerpassport/internal/logger"
)

const providerName = "google"

// Provider authenticates against Google via OIDC. The profile comes
// from the verified id_token rather than a userinfo fetch.
type Provider struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	keys        auth.ProviderKeys
	secure      bool
}

func New(
	ctx context.Context,
	clientID string,
	clientSecret string,
	redirectURL string,
	secure bool,
) (*Provider, error) {

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	oidcProvider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	verifier := oidcProvider.Verifier(&oidc.Config{
		ClientID: clientID,
	})

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     oidcProvider.Endpoint(),
		Scopes: []string{
			oidc.ScopeOpenID,
			"profile",
			"email",
		},
	}

	return &Provider{
		oauthConfig: oauthCfg,
		verifier:    verifier,
		keys: auth.ProviderKeys{
			Key:    clientID,
			Secret: clientSecret,
		},
		secure: secure,
	}, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

// UsesState reports that the OIDC code flow round-trips state.
func (p *Provider) UsesState() bool {
	return true
}

// Begin builds the OAuth authorization URL with PKCE parameters.
func (p *Provider) Begin(ctx context.Context, w http.ResponseWriter, r *http.Request, state string) (string, error) {
	challenge := provider.NewPKCE(w, p.secure)

	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	), nil
}

// Callback exchanges the authorization code and returns a normalized
// profile built from the verified id_token claims.
func (p *Provider) Callback(ctx context.Context, r *http.Request) (*auth.Profile, error) {
	code := r.URL.Query().Get("code")
	if code == "" {
		return nil, errors.New("callback missing authorization code")
	}

	verifier := provider.PKCEVerifier(r)
	if verifier == "" {
		return nil, errors.New("missing pkce verifier")
	}

	token, err := p.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", verifier),
	)
	if err != nil {
		return nil, fmt.Errorf("google token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("google did not return id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google id_token verification failed: %w", err)
	}

	var claims struct {
		Subject       string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google id_token claims parse failed: %w", err)
	}

	if claims.Subject == "" {
		return nil, errors.New("google id_token missing subject claim")
	}

	logger.Info("google oidc verified", map[string]any{
		"issuer":         idToken.Issuer,
		"email_present":  claims.Email != "",
		"email_verified": claims.EmailVerified,
		"audience":       idToken.Audience,
		"expiry_unix":    idToken.Expiry.Unix(),
	})

	profile := &auth.Profile{
		ID:    claims.Subject,
		Name:  claims.Name,
		Image: claims.Picture,
		Tokens: auth.Tokens{
			User: auth.UserTokens{
				Access:  token.AccessToken,
				Refresh: token.RefreshToken,
			},
			Provider: p.keys,
		},
		Extra: map[string]any{
			"email_verified": claims.EmailVerified,
		},
	}
	if claims.Email != "" {
		profile.Emails = []string{claims.Email}
	}

	return profile, nil
}
