package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/binocarlos/diggerpassport/internal/auth"
	"github.com/binocarlos/diggerpassport/internal/auth/credentials"
	"github.com/binocarlos/diggerpassport/internal/logger"
	"github.com/binocarlos/diggerpassport/internal/store"
)

// Service is the store-backed resolver.
type Service struct {
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// LoadUserByProviderID finds the user owning the (provider, key)
// profile. Every provider-keyed lookup in the resolver goes through
// here.
func (s *Service) LoadUserByProviderID(ctx context.Context, key, provider string) (*store.User, error) {
	return s.store.FindUserByProfileKey(ctx, provider, key)
}

func (s *Service) LoadUserByID(ctx context.Context, id string) (*store.User, error) {
	return s.store.FindUserByID(ctx, id)
}

func (s *Service) EnsureProfile(ctx context.Context, user *store.User, provider string, profile *auth.Profile) error {
	if existing := user.Profile(provider); existing != nil {
		// Already attached. Refresh the stored tokens from the new
		// handshake so a returning OAuth login never holds stale
		// credentials.
		if provider == auth.ProviderLocal {
			return nil
		}
		if profile.Tokens == (auth.Tokens{}) {
			return nil
		}
		if existing.Data == nil {
			existing.Data = make(map[string]any)
		}
		existing.Data["tokens"] = tokensData(profile.Tokens)
		return s.store.UpdateProfile(ctx, *existing)
	}

	p := store.Profile{
		UserID:   user.ID,
		Provider: provider,
		Key:      profile.Key(provider),
		Data:     profileData(provider, profile),
	}
	if p.Key == "" {
		return fmt.Errorf("resolver: profile for %s has no identifying key", provider)
	}

	if err := s.store.AppendProfile(ctx, p); err != nil {
		return err
	}
	user.Profiles = append(user.Profiles, p)
	return nil
}

func (s *Service) CreateUser(ctx context.Context, provider string, profile *auth.Profile) (*store.User, error) {
	name := profile.Name
	if name == "" {
		if fullname, ok := profile.Extra["fullname"].(string); ok {
			name = fullname
		}
	}

	user := &store.User{
		Name:  name,
		Image: profile.Image,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.EnsureProfile(ctx, user, provider, profile); err != nil {
		return nil, err
	}

	logger.Info("user created", map[string]any{
		"user_id":  user.ID,
		"provider": provider,
	})

	return user, nil
}

func (s *Service) LocalLogin(ctx context.Context, username, password string) (*store.User, error) {
	user, err := s.LoadUserByProviderID(ctx, username, auth.ProviderLocal)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	profile := user.Profile(auth.ProviderLocal)
	if profile == nil {
		return nil, ErrInvalidCredentials
	}

	hash, _ := profile.Data["password"].(string)
	if err := credentials.VerifyPassword(hash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *Service) OAuthLogin(ctx context.Context, packet auth.LoginPacket) (*store.User, error) {
	if packet.Profile == nil {
		return nil, errors.New("resolver: login packet has no profile")
	}

	// Linking flow: a user is already logged in and this handshake
	// attaches another provider on top.
	if packet.UserID != "" {
		user, err := s.LoadUserByID(ctx, packet.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoUser
		}
		if err != nil {
			return nil, err
		}
		if err := s.EnsureProfile(ctx, user, packet.Provider, packet.Profile); err != nil {
			return nil, err
		}
		return user, nil
	}

	// Not logged in: either a returning user or a brand new one.
	user, err := s.LoadUserByProviderID(ctx, packet.Profile.ID, packet.Provider)
	if err == nil {
		if err := s.EnsureProfile(ctx, user, packet.Provider, packet.Profile); err != nil {
			return nil, err
		}
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	return s.CreateUser(ctx, packet.Provider, packet.Profile)
}

func (s *Service) Register(ctx context.Context, reg Registration) (*store.User, error) {
	_, err := s.LoadUserByProviderID(ctx, reg.Username, auth.ProviderLocal)
	if err == nil {
		return nil, ErrAlreadyRegistered
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := credentials.HashPassword(reg.Password)
	if err != nil {
		return nil, err
	}

	profile := &auth.Profile{
		Username: reg.Username,
		Name:     reg.Fullname,
		Extra: map[string]any{
			"fullname": reg.Fullname,
			"password": hash,
		},
	}
	if reg.Email != "" {
		profile.Emails = []string{reg.Email}
	}

	return s.CreateUser(ctx, auth.ProviderLocal, profile)
}

func (s *Service) Save(ctx context.Context, userID string, data map[string]any) (*store.User, error) {
	user, err := s.LoadUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoUser
	}
	if err != nil {
		return nil, err
	}

	profile := user.Profile(auth.ProviderLocal)
	if profile == nil {
		return nil, ErrNoProfile
	}

	if profile.Data == nil {
		profile.Data = make(map[string]any)
	}
	for k, v := range data {
		if k == "password" {
			// Password changes go through the hasher, never stored raw.
			raw, ok := v.(string)
			if !ok {
				return nil, errors.New("resolver: password must be a string")
			}
			hash, err := credentials.HashPassword(raw)
			if err != nil {
				return nil, err
			}
			profile.Data["password"] = hash
			continue
		}
		profile.Data[k] = v
	}

	if err := s.store.UpdateProfile(ctx, *profile); err != nil {
		return nil, err
	}

	if fullname, ok := profile.Data["fullname"].(string); ok && fullname != "" {
		user.Name = fullname
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
	}

	return user, nil
}

// profileData flattens a normalized profile into the persisted document:
// any extracted extra fields first, then the core attributes on top.
func profileData(provider string, profile *auth.Profile) map[string]any {
	data := make(map[string]any, len(profile.Extra)+6)
	for k, v := range profile.Extra {
		data[k] = v
	}

	if provider == auth.ProviderLocal {
		data["username"] = profile.Username
	} else {
		data["id"] = profile.ID
		data["tokens"] = tokensData(profile.Tokens)
	}
	if profile.Name != "" {
		data["name"] = profile.Name
	}
	if profile.Image != "" {
		data["image"] = profile.Image
	}
	if len(profile.Emails) > 0 {
		emails := make([]any, len(profile.Emails))
		for i, e := range profile.Emails {
			emails[i] = e
		}
		data["emails"] = emails
	}

	return data
}

func tokensData(t auth.Tokens) map[string]any {
	return map[string]any{
		"user": map[string]any{
			"access":  t.User.Access,
			"refresh": t.User.Refresh,
		},
		"provider": map[string]any{
			"key":    t.Provider.Key,
			"secret": t.Provider.Secret,
		},
	}
}
