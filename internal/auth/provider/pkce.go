package provider

import (
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/binocarlos/diggerpassport/internal/utils"
)

const (
	pkceCookieName = "__oauth_pkce"
	pkceTTL        = 5 * time.Minute
)

// NewPKCE generates a verifier, stores it in a short-lived cookie and
// returns the S256 challenge for the authorization URL. The secure flag
// follows the deployment scheme; browsers drop Secure cookies set over
// plain http.
func NewPKCE(w http.ResponseWriter, secure bool) (challenge string) {
	verifier := utils.RandomString(32)

	hash := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(hash[:])

	http.SetCookie(w, &http.Cookie{
		Name:     pkceCookieName,
		Value:    verifier,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(pkceTTL.Seconds()),
	})

	return challenge
}

// PKCEVerifier reads the verifier back from the handshake cookie.
func PKCEVerifier(r *http.Request) string {
	cookie, err := r.Cookie(pkceCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
