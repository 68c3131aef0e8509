package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/binocarlos/diggerpassport/internal/auth/provider"
	"github.com/binocarlos/diggerpassport/internal/auth/resolver"
	"github.com/binocarlos/diggerpassport/internal/logger"
	"github.com/binocarlos/diggerpassport/internal/middleware"
	"github.com/binocarlos/diggerpassport/internal/session"
	"github.com/binocarlos/diggerpassport/internal/store"
)

const sessionTTL = 24 * time.Hour

// Routes are the redirect targets after an authentication attempt.
type Routes struct {
	Success string
	Failure string
}

func (r Routes) normalize() Routes {
	if r.Success == "" {
		r.Success = "/"
	}
	if r.Failure == "" {
		r.Failure = "/login"
	}
	return r
}

// Handler mounts the authentication routes under a base path and wires
// provider adapters to the resolver and the session bridge.
type Handler struct {
	mountpath    string
	routes       Routes
	providers    *provider.Registry
	resolver     resolver.Resolver
	bridge       *session.Bridge
	auth         *middleware.AuthMiddleware
	localEnabled bool
	secure       bool
}

func NewHandler(
	mountpath string,
	routes Routes,
	registry *provider.Registry,
	res resolver.Resolver,
	bridge *session.Bridge,
	localEnabled bool,
	secure bool,
) *Handler {
	return &Handler{
		mountpath:    mountpath,
		routes:       routes.normalize(),
		providers:    registry,
		resolver:     res,
		bridge:       bridge,
		auth:         middleware.NewAuthMiddleware(bridge, secure),
		localEnabled: localEnabled,
		secure:       secure,
	}
}

func (h *Handler) Mount(r *gin.Engine) {
	g := r.Group(h.mountpath)
	g.Use(middleware.GinAttach(h.auth))

	if h.localEnabled {
		g.POST("/local", h.localLogin)
		g.POST("/register", h.register)
		g.PUT("/profile", middleware.GinRequireAuth(h.auth), h.saveProfile)
	}

	g.GET("/logout", h.logout)
	g.GET("/:provider", h.begin)
	g.GET("/:provider/callback", h.callback)

	for _, route := range r.Routes() {
		logger.Info("route mounted", map[string]any{
			"method": route.Method,
			"path":   route.Path,
		})
	}
}

// establishSession serializes the user into the cache under a fresh
// random session id and issues the session cookie carrying that id.
func (h *Handler) establishSession(c *gin.Context, user *store.User) error {
	id, err := h.bridge.Serialize(c.Request.Context(), user)
	if err != nil {
		return err
	}

	session.SetCookie(c.Writer, id, time.Now().Add(sessionTTL), session.CookieOptions{
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// refreshSession rewrites the current session's snapshot in place so
// the cookie keeps working after a profile edit. Without a session
// cookie it falls back to establishing a new session.
func (h *Handler) refreshSession(c *gin.Context, user *store.User) error {
	cookie, err := c.Request.Cookie(session.CookieName(h.secure))
	if err != nil || cookie.Value == "" {
		return h.establishSession(c, user)
	}
	return h.bridge.Refresh(c.Request.Context(), cookie.Value, user)
}

func (h *Handler) logout(c *gin.Context) {
	cookie, err := c.Request.Cookie(session.CookieName(h.secure))
	if err == nil && cookie.Value != "" {
		// best-effort: a missing snapshot is already logged out
		if err := h.bridge.Destroy(c.Request.Context(), cookie.Value); err != nil {
			logger.Warn("session destroy failed", map[string]any{
				"error": err.Error(),
			})
		}
	}

	session.ClearCookie(c.Writer, session.CookieOptions{
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	c.Redirect(http.StatusFound, "/")
}
