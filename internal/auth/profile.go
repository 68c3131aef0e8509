package auth

// Profile is the normalized identity a provider adapter hands to the
// resolver after a successful handshake. It contains facts returned by
// the provider only; no user or session decisions are made at this layer.
type Profile struct {
	// ID is the provider-scoped user identifier (OAuth providers).
	ID string `json:"id,omitempty"`

	// Username identifies local-credential profiles.
	Username string `json:"username,omitempty"`

	Name   string   `json:"name,omitempty"`
	Image  string   `json:"image,omitempty"`
	Emails []string `json:"emails,omitempty"`

	Tokens Tokens `json:"tokens,omitempty"`

	// Extra carries provider-specific fields merged in by an adapter's
	// extract hook (e.g. a github login, a twitter screen name).
	Extra map[string]any `json:"extra,omitempty"`
}

// Key returns the identifier under which the profile is filed for the
// given provider: the username for local profiles, the provider user id
// otherwise.
func (p *Profile) Key(provider string) string {
	if provider == ProviderLocal {
		return p.Username
	}
	return p.ID
}

// Tokens groups the credentials attached to an OAuth profile.
type Tokens struct {
	User     UserTokens   `json:"user,omitempty"`
	Provider ProviderKeys `json:"provider,omitempty"`
}

// UserTokens are the per-user tokens returned by the provider handshake.
type UserTokens struct {
	Access  string `json:"access,omitempty"`
	Refresh string `json:"refresh,omitempty"`
}

// ProviderKeys are the application credentials registered with the provider.
type ProviderKeys struct {
	Key    string `json:"key,omitempty"`
	Secret string `json:"secret,omitempty"`
}

// ProviderLocal is the reserved name of the username/password provider.
const ProviderLocal = "local"

// LoginPacket describes one authentication attempt travelling from a
// provider adapter to the resolver. It is transient and never persisted.
type LoginPacket struct {
	// Provider is the name of the provider that authenticated the profile.
	Provider string

	// Profile is the normalized identity returned by the provider.
	Profile *Profile

	// UserID is the id of the currently logged in user, when a session
	// already exists. A non-empty value turns an OAuth login into a
	// linking flow: the profile is attached to this user instead of
	// resolving to a new or existing one.
	UserID string
}
