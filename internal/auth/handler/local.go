package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/binocarlos/diggerpassport/internal/auth/resolver"
	"github.com/binocarlos/diggerpassport/internal/logger"
	"github.com/binocarlos/diggerpassport/internal/middleware"
)

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// localLogin authenticates a username/password pair. Wrong credentials
// are a negative result routed to the failure redirect, never a server
// error.
func (h *Handler) localLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Redirect(http.StatusFound, h.routes.Failure)
		return
	}

	user, err := h.resolver.LocalLogin(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, resolver.ErrInvalidCredentials) {
		c.Redirect(http.StatusFound, h.routes.Failure)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if err := h.establishSession(c, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist session"})
		return
	}

	logger.Info("local login", map[string]any{
		"user_id": user.ID,
	})

	c.Redirect(http.StatusFound, h.routes.Success)
}

func (h *Handler) register(c *gin.Context) {
	var reg resolver.Registration
	if err := c.ShouldBind(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.resolver.Register(c.Request.Context(), reg)
	if err != nil {
		switch {
		case errors.Is(err, resolver.ErrAlreadyRegistered):
			c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	if err := h.establishSession(c, user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist session"})
		return
	}

	logger.Info("local register", map[string]any{
		"user_id": user.ID,
	})

	c.Redirect(http.StatusFound, h.routes.Success)
}

// saveProfile merges submitted data into the logged in user's local
// profile and re-serializes the session so the snapshot stays current.
func (h *Handler) saveProfile(c *gin.Context) {
	user, ok := middleware.UserFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	updated, err := h.resolver.Save(c.Request.Context(), user.ID, data)
	if err != nil {
		switch {
		case errors.Is(err, resolver.ErrNoUser), errors.Is(err, resolver.ErrNoProfile):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		}
		return
	}

	if err := h.refreshSession(c, updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}
