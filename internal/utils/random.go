package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// RandomString returns a url-safe string with the given number of
// random bytes of entropy. Used for OAuth state and PKCE verifiers.
func RandomString(bytes int) string {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
