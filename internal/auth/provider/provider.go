package provider

import (
	"context"
	"net/http"

	"github.com/binocarlos/diggerpassport/internal/auth"
)

// Adapter drives the handshake against one identity provider.
// Implementations return identity facts only and must not perform user
// creation, linking, or session management.
type Adapter interface {
	// Name returns the provider identifier (e.g. "google", "twitter").
	Name() string

	// Begin starts the handshake and returns the provider URL to
	// redirect the user to. Adapters may set short-lived cookies on w
	// (PKCE verifier, OAuth1 request token) to bind the callback to
	// this request. State is supplied by the caller; OAuth1 providers
	// have no state parameter and may ignore it.
	Begin(ctx context.Context, w http.ResponseWriter, r *http.Request, state string) (string, error)

	// Callback completes the handshake from the provider redirect and
	// returns the normalized profile. No auth decisions are made here.
	Callback(ctx context.Context, r *http.Request) (*auth.Profile, error)

	// UsesState reports whether the handshake round-trips the state
	// parameter. Callbacks for such providers must present a valid
	// state; OAuth1 flows carry none and bind the callback to the begin
	// request through the request token instead.
	UsesState() bool
}

// ExtractFunc lets a provider merge provider-specific fields from the
// raw profile document into the normalized profile's extra data.
type ExtractFunc func(raw map[string]any) map[string]any
