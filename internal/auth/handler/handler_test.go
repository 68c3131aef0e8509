package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binocarlos/diggerpassport/internal/auth"
	"github.com/binocarlos/diggerpassport/internal/auth/provider"
	"github.com/binocarlos/diggerpassport/internal/auth/resolver"
	"github.com/binocarlos/diggerpassport/internal/session"
	"github.com/binocarlos/diggerpassport/internal/store"
)

type stubAdapter struct {
	name    string
	profile *auth.Profile
	// stateless mimics an OAuth1 flow with no state parameter
	stateless bool
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Begin(ctx context.Context, w http.ResponseWriter, r *http.Request, state string) (string, error) {
	return "https://provider.example.com/authorize?state=" + state, nil
}

func (s *stubAdapter) Callback(ctx context.Context, r *http.Request) (*auth.Profile, error) {
	return s.profile, nil
}

func (s *stubAdapter) UsesState() bool { return !s.stateless }

type fixture struct {
	router *gin.Engine
	bridge *session.Bridge
	store  *store.Memory
}

func newFixture(t *testing.T, adapters ...provider.Adapter) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := provider.NewRegistry()
	for _, a := range adapters {
		require.NoError(t, registry.Register(a))
	}

	mem := store.NewMemory()
	bridge := session.NewBridge(session.NewMemoryCache())

	h := NewHandler(
		"/login",
		Routes{Success: "/home", Failure: "/login"},
		registry,
		resolver.NewService(mem),
		bridge,
		true,
		false,
	)

	router := gin.New()
	h.Mount(router)

	return &fixture{router: router, bridge: bridge, store: mem}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName(false) && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestLocalLoginUnknownUserThenRegistered(t *testing.T) {
	f := newFixture(t)

	login := url.Values{"username": {"kai"}, "password": {"secret-pass"}}

	// no such user yet: failure redirect
	w := f.do(formRequest("/login/local", login))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// register the user
	w = f.do(formRequest("/login/register", url.Values{
		"username": {"kai"},
		"password": {"secret-pass"},
		"fullname": {"Kai D"},
	}))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))
	sessionCookie(t, w)

	// same login now succeeds
	w = f.do(formRequest("/login/local", login))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))
	sessionCookie(t, w)
}

func TestLocalLoginWrongPassword(t *testing.T) {
	f := newFixture(t)

	w := f.do(formRequest("/login/register", url.Values{
		"username": {"kai"},
		"password": {"secret-pass"},
	}))
	require.Equal(t, http.StatusFound, w.Code)

	w = f.do(formRequest("/login/local", url.Values{
		"username": {"kai"},
		"password": {"wrong"},
	}))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	f := newFixture(t)

	reg := url.Values{"username": {"kai"}, "password": {"secret-pass"}}

	w := f.do(formRequest("/login/register", reg))
	require.Equal(t, http.StatusFound, w.Code)

	w = f.do(formRequest("/login/register", reg))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOAuthBeginRedirectsToProvider(t *testing.T) {
	f := newFixture(t, &stubAdapter{name: "testprov"})

	w := f.do(httptest.NewRequest(http.MethodGet, "/login/testprov", nil))
	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(
		w.Header().Get("Location"),
		"https://provider.example.com/authorize?state=",
	))
}

func TestOAuthBeginUnknownProvider(t *testing.T) {
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/login/myspace", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOAuthCallbackCreatesUserAndSession(t *testing.T) {
	adapter := &stubAdapter{
		name: "testprov",
		profile: &auth.Profile{
			ID:   "tp-42",
			Name: "Kai D",
		},
	}
	f := newFixture(t, adapter)

	req := httptest.NewRequest(http.MethodGet, "/login/testprov/callback?code=x&state=abc", nil)
	req.AddCookie(&http.Cookie{Name: "__oauth_state", Value: "abc"})

	w := f.do(req)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))

	cookie := sessionCookie(t, w)

	// the snapshot round-trips to the created user
	user, err := f.bridge.Deserialize(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "Kai D", user.Name)
	require.Len(t, user.Profiles, 1)
	assert.Equal(t, "tp-42", user.Profiles[0].Key)

	stored, err := f.store.FindUserByProfileKey(context.Background(), "testprov", "tp-42")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)
}

func TestOAuthCallbackLinksWhenLoggedIn(t *testing.T) {
	adapter := &stubAdapter{
		name:    "testprov",
		profile: &auth.Profile{ID: "tp-42", Name: "Kai D"},
	}
	f := newFixture(t, adapter)

	w := f.do(formRequest("/login/register", url.Values{
		"username": {"kai"},
		"password": {"secret-pass"},
		"fullname": {"Kai D"},
	}))
	require.Equal(t, http.StatusFound, w.Code)
	cookie := sessionCookie(t, w)

	req := httptest.NewRequest(http.MethodGet, "/login/testprov/callback?code=x&state=abc", nil)
	req.AddCookie(&http.Cookie{Name: "__oauth_state", Value: "abc"})
	req.AddCookie(cookie)

	w = f.do(req)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))

	// the provider profile landed on the already logged in user
	user, err := f.store.FindUserByProfileKey(context.Background(), "testprov", "tp-42")
	require.NoError(t, err)
	assert.NotNil(t, user.Profile(auth.ProviderLocal))
	assert.NotNil(t, user.Profile("testprov"))
}

func TestOAuthCallbackStateMismatch(t *testing.T) {
	f := newFixture(t, &stubAdapter{name: "testprov", profile: &auth.Profile{ID: "tp-42"}})

	req := httptest.NewRequest(http.MethodGet, "/login/testprov/callback?code=x&state=abc", nil)
	req.AddCookie(&http.Cookie{Name: "__oauth_state", Value: "other"})

	w := f.do(req)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestOAuthCallbackMissingState(t *testing.T) {
	f := newFixture(t, &stubAdapter{name: "testprov", profile: &auth.Profile{ID: "tp-42"}})

	// an attacker-initiated callback simply omits the state parameter
	w := f.do(httptest.NewRequest(http.MethodGet, "/login/testprov/callback?code=x", nil))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	// no user was created and no session issued
	_, err := f.store.FindUserByProfileKey(context.Background(), "testprov", "tp-42")
	assert.ErrorIs(t, err, store.ErrNotFound)
	for _, c := range w.Result().Cookies() {
		assert.NotEqual(t, session.CookieName(false), c.Name)
	}
}

func TestOAuthCallbackStatelessProvider(t *testing.T) {
	adapter := &stubAdapter{
		name:      "testprov",
		profile:   &auth.Profile{ID: "tp-42", Name: "Kai D"},
		stateless: true,
	}
	f := newFixture(t, adapter)

	// no state parameter: the adapter binds the callback itself
	w := f.do(httptest.NewRequest(http.MethodGet, "/login/testprov/callback?oauth_token=x&oauth_verifier=y", nil))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/home", w.Header().Get("Location"))
	sessionCookie(t, w)
}

func TestOAuthCallbackProviderError(t *testing.T) {
	f := newFixture(t, &stubAdapter{name: "testprov"})

	req := httptest.NewRequest(http.MethodGet,
		"/login/testprov/callback?error=access_denied&error_description=nope&state=abc", nil)
	req.AddCookie(&http.Cookie{Name: "__oauth_state", Value: "abc"})

	w := f.do(req)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestSaveProfileRequiresSession(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPut, "/login/profile", strings.NewReader(`{"fullname":"X"}`))
	req.Header.Set("Content-Type", "application/json")

	w := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestForgedUserIDCookieRejected(t *testing.T) {
	f := newFixture(t)

	w := f.do(formRequest("/login/register", url.Values{
		"username": {"kai"},
		"password": {"secret-pass"},
		"fullname": {"Kai D"},
	}))
	require.Equal(t, http.StatusFound, w.Code)

	victim, err := f.store.FindUserByProfileKey(context.Background(), auth.ProviderLocal, "kai")
	require.NoError(t, err)

	// the issued cookie is a random session id, never the user id
	assert.NotEqual(t, victim.ID, sessionCookie(t, w).Value)

	// a cookie minted from a leaked user id does not authenticate
	req := httptest.NewRequest(http.MethodPut, "/login/profile",
		strings.NewReader(`{"fullname":"Mallory"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: session.CookieName(false), Value: victim.ID})

	w = f.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	unchanged, err := f.store.FindUserByID(context.Background(), victim.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kai D", unchanged.Name)
}

func TestSaveProfileUpdatesUserAndSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(formRequest("/login/register", url.Values{
		"username": {"kai"},
		"password": {"secret-pass"},
		"fullname": {"Kai D"},
	}))
	require.Equal(t, http.StatusFound, w.Code)
	cookie := sessionCookie(t, w)

	req := httptest.NewRequest(http.MethodPut, "/login/profile",
		strings.NewReader(`{"fullname":"Kai Davenport"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)

	w = f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	// the session snapshot was re-serialized with the new name
	user, err := f.bridge.Deserialize(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "Kai Davenport", user.Name)
}

func TestLogoutDestroysSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(formRequest("/login/register", url.Values{
		"username": {"kai"},
		"password": {"secret-pass"},
	}))
	require.Equal(t, http.StatusFound, w.Code)
	cookie := sessionCookie(t, w)

	req := httptest.NewRequest(http.MethodGet, "/login/logout", nil)
	req.AddCookie(cookie)

	w = f.do(req)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	// snapshot is gone
	_, err := f.bridge.Deserialize(context.Background(), cookie.Value)
	assert.ErrorIs(t, err, session.ErrNotFound)

	// and the old cookie no longer authenticates
	req = httptest.NewRequest(http.MethodPut, "/login/profile", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)

	w = f.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
