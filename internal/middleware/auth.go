package middleware

import (
	"context"
	"net/http"

	"github.com/binocarlos/diggerpassport/internal/session"
	"github.com/binocarlos/diggerpassport/internal/store"
)

// unexported, collision-proof context key
type userContextKeyType struct{}

var userKey = userContextKeyType{}

// UserFromContext extracts the rehydrated user from the request
// context. The second return is false when no valid session exists.
func UserFromContext(ctx context.Context) (*store.User, bool) {
	user, ok := ctx.Value(userKey).(*store.User)
	return user, ok && user != nil
}

// AuthMiddleware rehydrates the session user on each request via the
// session bridge.
type AuthMiddleware struct {
	Bridge     *session.Bridge
	cookieName string
}

func NewAuthMiddleware(bridge *session.Bridge, secure bool) *AuthMiddleware {
	return &AuthMiddleware{
		Bridge:     bridge,
		cookieName: session.CookieName(secure),
	}
}

// Attach loads the session user into the request context when a valid
// session cookie is present, and passes the request through untouched
// otherwise. Handlers that merely want to know who is logged in (the
// OAuth linking flow) use this.
func (a *AuthMiddleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(a.cookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.Bridge.Deserialize(r.Context(), cookie.Value)
		if err != nil || user == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests without a valid session.
func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(a.cookieName)
		if err != nil || cookie.Value == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := a.Bridge.Deserialize(r.Context(), cookie.Value)
		if err != nil || user == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
