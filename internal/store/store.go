package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups that match no record.
var ErrNotFound = errors.New("store: not found")

// User is an account record. A user is created on first successful
// authentication from any provider and accumulates one profile per
// provider. This subsystem never deletes users.
type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Image    string    `json:"image,omitempty"`
	Profiles []Profile `json:"profiles,omitempty"`
}

// Profile returns the user's profile for the given provider, or nil.
func (u *User) Profile(provider string) *Profile {
	for i := range u.Profiles {
		if u.Profiles[i].Provider == provider {
			return &u.Profiles[i]
		}
	}
	return nil
}

// Profile is per-provider identity data attached to a user. Key is the
// provider-scoped identifier (username for local, provider user id for
// OAuth) and is unique within the provider's namespace. Data carries
// arbitrary provider-supplied fields: tokens, emails, fullname, the
// local password hash.
type Profile struct {
	UserID   string         `json:"user_id"`
	Provider string         `json:"provider"`
	Key      string         `json:"key"`
	Data     map[string]any `json:"data,omitempty"`
}

// Store is the repository contract for users and profiles. A user has
// at most one profile per provider; implementations enforce this with
// their own uniqueness guarantees so concurrent first logins cannot
// create duplicates.
type Store interface {
	// FindUserByProfileKey finds the user whose profile for provider
	// has the given key. Returns ErrNotFound when absent.
	FindUserByProfileKey(ctx context.Context, provider, key string) (*User, error)

	// FindUserByID finds a user by its own identifier.
	FindUserByID(ctx context.Context, id string) (*User, error)

	// CreateUser persists a new user. An empty ID is populated with a
	// generated identifier before insert.
	CreateUser(ctx context.Context, u *User) error

	// AppendProfile attaches a new profile to an existing user.
	AppendProfile(ctx context.Context, p Profile) error

	// UpdateProfile replaces the data of an existing profile.
	UpdateProfile(ctx context.Context, p Profile) error

	// UpdateUser persists changes to the user's own attributes
	// (name, image). Profiles are managed separately.
	UpdateUser(ctx context.Context, u *User) error
}
