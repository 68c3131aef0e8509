package github

import (
	"errors"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github.com/binocarlos/diggerpassport/internal/auth/provider"
)

const (
	providerName = "github"
	profileURL   = "https://api.github.com/user"
)

// New builds the github adapter on the generic OAuth2 flow.
func New(clientID, clientSecret, redirectURL string, secure bool) (*provider.OAuth2, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("github oauth config missing required fields")
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     githuboauth.Endpoint,
		Scopes:       []string{"read:user", "user:email"},
	}

	return provider.NewOAuth2(providerName, config, profileURL, extract, secure), nil
}

// extract exposes the github-specific fields worth keeping on the
// profile beyond the normalized core.
func extract(raw map[string]any) map[string]any {
	extra := make(map[string]any)
	if login, ok := raw["login"].(string); ok {
		extra["login"] = login
	}
	if company, ok := raw["company"].(string); ok && company != "" {
		extra["company"] = company
	}
	if htmlURL, ok := raw["html_url"].(string); ok {
		extra["html_url"] = htmlURL
	}
	return extra
}
