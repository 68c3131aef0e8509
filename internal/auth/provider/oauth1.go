package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/binocarlos/diggerpassport/internal/auth"
)

const (
	oauth1CookieName = "__oauth1_request"
	oauth1TTL        = 5 * time.Minute
)

// OAuth1 is a generic adapter for providers speaking the three-legged
// OAuth1 flow. The request token secret obtained in Begin is carried in
// a short-lived cookie so the callback can complete the exchange; the
// returned oauth_token must match the one the flow started with, which
// replaces the state parameter OAuth1 does not have.
type OAuth1 struct {
	name       string
	config     *oauth1.Config
	keys       auth.ProviderKeys
	profileURL string
	extract    ExtractFunc
	secure     bool
}

func NewOAuth1(
	name string,
	config *oauth1.Config,
	profileURL string,
	extract ExtractFunc,
	secure bool,
) *OAuth1 {
	return &OAuth1{
		name:   name,
		config: config,
		keys: auth.ProviderKeys{
			Key:    config.ConsumerKey,
			Secret: config.ConsumerSecret,
		},
		profileURL: profileURL,
		extract:    extract,
		secure:     secure,
	}
}

func (p *OAuth1) Name() string {
	return p.name
}

// UsesState is false: OAuth1 has no state parameter. The callback is
// bound to the begin request by matching the returned oauth_token
// against the request token cookie instead.
func (p *OAuth1) UsesState() bool {
	return false
}

func (p *OAuth1) Begin(ctx context.Context, w http.ResponseWriter, r *http.Request, state string) (string, error) {
	requestToken, requestSecret, err := p.config.RequestToken()
	if err != nil {
		return "", fmt.Errorf("%s request token failed: %w", p.name, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauth1CookieName,
		Value:    requestToken + ":" + requestSecret,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(oauth1TTL.Seconds()),
	})

	authorizationURL, err := p.config.AuthorizationURL(requestToken)
	if err != nil {
		return "", fmt.Errorf("%s authorization url failed: %w", p.name, err)
	}

	return authorizationURL.String(), nil
}

func (p *OAuth1) Callback(ctx context.Context, r *http.Request) (*auth.Profile, error) {
	requestToken, verifier, err := oauth1.ParseAuthorizationCallback(r)
	if err != nil {
		return nil, fmt.Errorf("%s callback parse failed: %w", p.name, err)
	}

	storedToken, requestSecret, err := readRequestCookie(r)
	if err != nil {
		return nil, err
	}
	if storedToken != requestToken {
		return nil, errors.New("oauth1 request token mismatch")
	}

	accessToken, accessSecret, err := p.config.AccessToken(requestToken, requestSecret, verifier)
	if err != nil {
		return nil, fmt.Errorf("%s access token failed: %w", p.name, err)
	}

	raw, err := p.fetchProfile(ctx, accessToken, accessSecret)
	if err != nil {
		return nil, err
	}

	// OAuth1 has no refresh token; the token secret rides in its slot
	// so both halves of the credential are retained on the profile.
	return normalizeProfile(raw, accessToken, accessSecret, p.keys, p.extract), nil
}

func (p *OAuth1) fetchProfile(ctx context.Context, accessToken, accessSecret string) (map[string]any, error) {
	token := oauth1.NewToken(accessToken, accessSecret)
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

func readRequestCookie(r *http.Request) (token, secret string, err error) {
	cookie, err := r.Cookie(oauth1CookieName)
	if err != nil || cookie.Value == "" {
		return "", "", errors.New("missing oauth1 request cookie")
	}

	for i := 0; i < len(cookie.Value); i++ {
		if cookie.Value[i] == ':' {
			return cookie.Value[:i], cookie.Value[i+1:], nil
		}
	}
	return "", "", errors.New("malformed oauth1 request cookie")
}
