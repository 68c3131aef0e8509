package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/binocarlos/diggerpassport/internal/store"
)

// Bridge maps between the opaque session id held in the cookie and the
// full user record held in the cache. Serialize runs on login,
// Deserialize on every authenticated request. The session id is random
// and never derived from the user: knowing a user id must not be enough
// to mint a session for them.
type Bridge struct {
	cache Cache
}

func NewBridge(cache Cache) *Bridge {
	return &Bridge{cache: cache}
}

// Serialize stores a JSON snapshot of the user under a freshly
// generated session id and returns that id for the session cookie.
func (b *Bridge) Serialize(ctx context.Context, user *store.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("session: cannot serialize user without id")
	}

	id, err := GenerateID()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("session: marshal user: %w", err)
	}

	if err := b.cache.Set(ctx, id, string(data)); err != nil {
		return "", err
	}

	return id, nil
}

// Refresh overwrites the snapshot of an existing session in place so
// profile edits show up without a re-login and without rotating the
// session cookie.
func (b *Bridge) Refresh(ctx context.Context, id string, user *store.User) error {
	if id == "" {
		return errors.New("session: cannot refresh without session id")
	}
	if user == nil || user.ID == "" {
		return errors.New("session: cannot serialize user without id")
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: marshal user: %w", err)
	}

	return b.cache.Set(ctx, id, string(data))
}

// Deserialize rehydrates the full user record from the snapshot stored
// under id. Returns ErrNotFound when the snapshot is gone.
func (b *Bridge) Deserialize(ctx context.Context, id string) (*store.User, error) {
	raw, err := b.cache.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var user store.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("session: unmarshal user: %w", err)
	}

	return &user, nil
}

// Destroy removes the snapshot for id. Subsequent Deserialize calls for
// the same id return ErrNotFound.
func (b *Bridge) Destroy(ctx context.Context, id string) error {
	return b.cache.Del(ctx, id)
}
