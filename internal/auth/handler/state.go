package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/binocarlos/diggerpassport/internal/utils"
)

const (
	stateCookieName = "__oauth_state"
	stateTTL        = 5 * time.Minute
)

func newState(c *gin.Context, secure bool) string {
	state := utils.RandomString(32)

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(stateTTL.Seconds()),
	})

	return state
}

// validState is false for an absent state, not just a mismatched one.
func validState(c *gin.Context, state string) bool {
	if state == "" {
		return false
	}

	cookie, err := c.Request.Cookie(stateCookieName)
	if err != nil {
		return false
	}

	return cookie.Value == state
}
