package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binocarlos/diggerpassport/internal/auth"
	"github.com/binocarlos/diggerpassport/internal/store"
)

func oauthProfile(id string) *auth.Profile {
	return &auth.Profile{
		ID:     id,
		Name:   "Kai D",
		Image:  "https://example.com/kai.png",
		Emails: []string{"kai@example.com"},
		Tokens: auth.Tokens{
			User: auth.UserTokens{
				Access:  "access-1",
				Refresh: "refresh-1",
			},
			Provider: auth.ProviderKeys{
				Key:    "app-key",
				Secret: "app-secret",
			},
		},
	}
}

func TestLoadUserByProviderID(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory())

	created, err := svc.CreateUser(ctx, "github", oauthProfile("gh-42"))
	require.NoError(t, err)

	user, err := svc.LoadUserByProviderID(ctx, "gh-42", "github")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.LoadUserByProviderID(ctx, "gh-42", "twitter")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoadUserByID(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory())

	created, err := svc.CreateUser(ctx, "github", oauthProfile("gh-42"))
	require.NoError(t, err)

	user, err := svc.LoadUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, user.Name)

	_, err = svc.LoadUserByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegisterAndLocalLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory())

	user, err := svc.Register(ctx, Registration{
		Username: "kai",
		Password: "secret-pass",
		Fullname: "Kai D",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	assert.Equal(t, "Kai D", user.Name)

	profile := user.Profile(auth.ProviderLocal)
	require.NotNil(t, profile)
	assert.Equal(t, "kai", profile.Key)
	assert.NotEqual(t, "secret-pass", profile.Data["password"], "password must not be stored in clear text")

	loggedIn, err := svc.LocalLogin(ctx, "kai", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestLocalLoginFailuresAreNegativeResults(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory())

	_, err := svc.Register(ctx, Registration{
		Username: "kai",
		Password: "secret-pass",
	})
	require.NoError(t, err)

	for name, attempt := range map[string][2]string{
		"wrong password":   {"kai", "wrong"},
		"unknown username": {"nobody", "secret-pass"},
		"empty password":   {"kai", ""},
	} {
		_, err := svc.LocalLogin(ctx, attempt[0], attempt[1])
		assert.ErrorIs(t, err, ErrInvalidCredentials, name)
	}
}

func TestLocalLoginWithoutLocalProfile(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := NewService(mem)

	// a user who only ever logged in via oauth
	_, err := svc.OAuthLogin(ctx, auth.LoginPacket{
		Provider: "github",
		Profile:  oauthProfile("gh-1"),
	})
	require.NoError(t, err)

	_, err = svc.LocalLogin(ctx, "gh-1", "anything")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory())

	_, err := svc.Register(ctx, Registration{Username: "kai", Password: "secret-pass"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, Registration{Username: "kai", Password: "other-pass"})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestOAuthLoginCreatesExactlyOneUserAndProfile(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := NewService(mem)

	user, err := svc.OAuthLogin(ctx, auth.LoginPacket{
		Provider: "github",
		Profile:  oauthProfile("gh-42"),
	})
	require.NoError(t, err)

	// the newly created user is the one returned
	require.NotNil(t, user)
	require.NotEmpty(t, user.ID)
	require.Len(t, user.Profiles, 1)
	assert.Equal(t, "gh-42", user.Profiles[0].Key)

	stored, err := mem.FindUserByProfileKey(ctx, "github", "gh-42")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
	assert.Len(t, stored.Profiles, 1)
}

func TestOAuthLoginReturningUserIsNotDuplicated(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := NewService(mem)

	first, err := svc.OAuthLogin(ctx, auth.LoginPacket{
		Provider: "github",
		Profile:  oauthProfile("gh-42"),
	})
	require.NoError(t, err)

	refreshed := oauthProfile("gh-42")
	refreshed.Tokens.User.Access = "access-2"

	second, err := svc.OAuthLogin(ctx, auth.LoginPacket{
		Provider: "github",
		Profile:  refreshed,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.Len(t, second.Profiles, 1)

	// returning login refreshed the stored tokens
	stored, err := mem.FindUserByProfileKey(ctx, "github", "gh-42")
	require.NoError(t, err)
	tokens, ok := stored.Profiles[0].Data["tokens"].(map[string]any)
	require.True(t, ok)
	userTokens, ok := tokens["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "access-2", userTokens["access"])
}

func TestOAuthLoginLinkingAttachesToLoggedInUser(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := NewService(mem)

	existing, err := svc.Register(ctx, Registration{
		Username: "kai",
		Password: "secret-pass",
		Fullname: "Kai D",
	})
	require.NoError(t, err)

	linked, err := svc.OAuthLogin(ctx, auth.LoginPacket{
		Provider: "github",
		Profile:  oauthProfile("gh-42"),
		UserID:   existing.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, existing.ID, linked.ID)
	assert.NotNil(t, linked.Profile(auth.ProviderLocal))
	assert.NotNil(t, linked.Profile("github"))

	// no second user was created for the provider profile
	byKey, err := mem.FindUserByProfileKey(ctx, "github", "gh-42")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, byKey.ID)
}

func TestOAuthLoginLinkingWithMissingUser(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory())

	_, err := svc.OAuthLogin(ctx, auth.LoginPacket{
		Provider: "github",
		Profile:  oauthProfile("gh-42"),
		UserID:   "no-such-user",
	})
	assert.ErrorIs(t, err, ErrNoUser)
}

func TestEnsureProfileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := NewService(mem)

	user, err := svc.CreateUser(ctx, "github", oauthProfile("gh-42"))
	require.NoError(t, err)

	require.NoError(t, svc.EnsureProfile(ctx, user, "github", oauthProfile("gh-42")))
	require.NoError(t, svc.EnsureProfile(ctx, user, "github", oauthProfile("gh-42")))

	stored, err := mem.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Profiles, 1)
}

func TestSaveMergesProfileAndRefreshesName(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := NewService(mem)

	user, err := svc.Register(ctx, Registration{
		Username: "kai",
		Password: "secret-pass",
		Fullname: "Kai D",
	})
	require.NoError(t, err)

	updated, err := svc.Save(ctx, user.ID, map[string]any{
		"fullname": "Kai Davenport",
		"website":  "https://example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Kai Davenport", updated.Name)

	stored, err := mem.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kai Davenport", stored.Name)

	profile := stored.Profile(auth.ProviderLocal)
	require.NotNil(t, profile)
	assert.Equal(t, "https://example.com", profile.Data["website"])
}

func TestSavePasswordChangeIsHashed(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory())

	user, err := svc.Register(ctx, Registration{Username: "kai", Password: "secret-pass"})
	require.NoError(t, err)

	_, err = svc.Save(ctx, user.ID, map[string]any{"password": "next-secret"})
	require.NoError(t, err)

	_, err = svc.LocalLogin(ctx, "kai", "secret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	loggedIn, err := svc.LocalLogin(ctx, "kai", "next-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestSaveWithoutUserOrProfile(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := NewService(mem)

	_, err := svc.Save(ctx, "no-such-user", map[string]any{"fullname": "x"})
	assert.ErrorIs(t, err, ErrNoUser)

	oauthOnly, err := svc.OAuthLogin(ctx, auth.LoginPacket{
		Provider: "github",
		Profile:  oauthProfile("gh-42"),
	})
	require.NoError(t, err)

	_, err = svc.Save(ctx, oauthOnly.ID, map[string]any{"fullname": "x"})
	assert.ErrorIs(t, err, ErrNoProfile)
}
