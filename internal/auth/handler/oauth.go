package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/binocarlos/diggerpassport/internal/auth"
	"github.com/binocarlos/diggerpassport/internal/logger"
	"github.com/binocarlos/diggerpassport/internal/middleware"
)

// begin starts the handshake for the named provider.
func (h *Handler) begin(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown auth provider",
		})
		return
	}

	var state string
	if p.UsesState() {
		state = newState(c, h.secure)
	}

	authURL, err := p.Begin(c.Request.Context(), c.Writer, c.Request, state)
	if err != nil {
		logger.Error("handshake begin failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.Redirect(http.StatusFound, h.routes.Failure)
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

// callback completes the handshake. Any failure routes to the failure
// redirect; retries are the user re-initiating the flow.
func (h *Handler) callback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown auth provider",
		})
		return
	}

	// A provider that round-trips state must present a valid one here;
	// a callback without it is attacker-initiated, not a retry. OAuth1
	// adapters carry no state and bind the callback to the begin
	// request through their request token instead.
	if p.UsesState() && !validState(c, c.Query("state")) {
		logger.Warn("callback state missing or mismatched", map[string]any{
			"provider": providerName,
		})
		c.Redirect(http.StatusFound, h.routes.Failure)
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("provider callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		c.Redirect(http.StatusFound, h.routes.Failure)
		return
	}

	profile, err := p.Callback(c.Request.Context(), c.Request)
	if err != nil {
		logger.Error("handshake callback failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.Redirect(http.StatusFound, h.routes.Failure)
		return
	}

	packet := auth.LoginPacket{
		Provider: providerName,
		Profile:  profile,
	}
	// A user already logged in turns this into a linking flow.
	if current, ok := middleware.UserFromContext(c.Request.Context()); ok {
		packet.UserID = current.ID
	}

	user, err := h.resolver.OAuthLogin(c.Request.Context(), packet)
	if err != nil {
		logger.Error("oauth login failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		c.Redirect(http.StatusFound, h.routes.Failure)
		return
	}

	if err := h.establishSession(c, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist session"})
		return
	}

	logger.Info("oauth login", map[string]any{
		"provider": providerName,
		"user_id":  user.ID,
		"linked":   packet.UserID != "",
	})

	c.Redirect(http.StatusFound, h.routes.Success)
}
