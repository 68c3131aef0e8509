package resolver

import (
	"context"
	"errors"

	"github.com/binocarlos/diggerpassport/internal/auth"
	"github.com/binocarlos/diggerpassport/internal/store"
)

var (
	// ErrInvalidCredentials is the negative result for a failed local
	// login: unknown username, missing local profile, or wrong
	// password. It is routed to the failure redirect, never surfaced
	// as a server error.
	ErrInvalidCredentials = errors.New("resolver: invalid credentials")

	// ErrAlreadyRegistered is returned when registering a username
	// that already has a local profile.
	ErrAlreadyRegistered = errors.New("resolver: already registered")

	// ErrNoUser is returned by flows that require a loaded user
	// (linking, profile save) when the user record is missing.
	ErrNoUser = errors.New("resolver: no user loaded")

	// ErrNoProfile is returned by the profile save flow when the user
	// has no local profile to save into.
	ErrNoProfile = errors.New("resolver: no profile loaded")
)

// Resolver maps authentication attempts to user records. It is the only
// place where identity-to-user decisions live; provider adapters supply
// facts and the HTTP layer routes the outcome.
type Resolver interface {
	// LoadUserByProviderID finds the user whose profile for provider
	// has the given identifying key. store.ErrNotFound when absent.
	LoadUserByProviderID(ctx context.Context, key, provider string) (*store.User, error)

	// LoadUserByID finds a user by its own identifier.
	LoadUserByID(ctx context.Context, id string) (*store.User, error)

	// EnsureProfile attaches a profile for provider to the user if one
	// does not exist yet. Calling it twice for the same provider never
	// creates a duplicate; an existing OAuth profile has its tokens
	// refreshed instead.
	EnsureProfile(ctx context.Context, user *store.User, provider string, profile *auth.Profile) error

	// CreateUser creates a new user from the profile's name and image,
	// persists it, and attaches the profile.
	CreateUser(ctx context.Context, provider string, profile *auth.Profile) (*store.User, error)

	// LocalLogin authenticates a username/password pair. Any mismatch
	// yields ErrInvalidCredentials.
	LocalLogin(ctx context.Context, username, password string) (*store.User, error)

	// OAuthLogin resolves a completed OAuth handshake to a user:
	// linking when the packet carries a logged in user, otherwise
	// find-or-create by provider profile id.
	OAuthLogin(ctx context.Context, packet auth.LoginPacket) (*store.User, error)

	// Register creates a new user with a local profile.
	Register(ctx context.Context, reg Registration) (*store.User, error)

	// Save merges data into the user's local profile and refreshes the
	// user's denormalized name from the profile's fullname.
	Save(ctx context.Context, userID string, data map[string]any) (*store.User, error)
}

// Registration is the payload of a local register request.
type Registration struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Fullname string `json:"fullname" form:"fullname"`
	Email    string `json:"email" form:"email"`
}
