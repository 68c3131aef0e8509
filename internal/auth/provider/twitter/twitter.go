package twitter

import (
	"errors"

	"github.com/dghubble/oauth1"
	twitteroauth "github.com/dghubble/oauth1/twitter"

	"github.com/binocarlos/diggerpassport/internal/auth/provider"
)

const (
	providerName = "twitter"
	profileURL   = "https://api.twitter.com/1.1/account/verify_credentials.json"
)

// New builds the twitter adapter on the generic OAuth1 flow.
func New(consumerKey, consumerSecret, callbackURL string, secure bool) (*provider.OAuth1, error) {
	if consumerKey == "" || consumerSecret == "" || callbackURL == "" {
		return nil, errors.New("twitter oauth config missing required fields")
	}

	config := &oauth1.Config{
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		CallbackURL:    callbackURL,
		Endpoint:       twitteroauth.AuthorizeEndpoint,
	}

	return provider.NewOAuth1(providerName, config, profileURL, extract, secure), nil
}

func extract(raw map[string]any) map[string]any {
	extra := make(map[string]any)
	if screenName, ok := raw["screen_name"].(string); ok {
		extra["screen_name"] = screenName
	}
	if location, ok := raw["location"].(string); ok && location != "" {
		extra["location"] = location
	}
	return extra
}
