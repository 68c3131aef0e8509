package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinAttach adapts the non-enforcing Attach middleware to Gin. Routes
// behind it can ask UserFromContext who, if anyone, is logged in.
func GinAttach(auth *AuthMiddleware) gin.HandlerFunc {
	return adapt(auth.Attach)
}

// GinRequireAuth adapts the enforcing RequireAuth middleware to Gin.
func GinRequireAuth(auth *AuthMiddleware) gin.HandlerFunc {
	return adapt(auth.RequireAuth)
}

// adapt bridges a net/http middleware into the Gin chain.
func adapt(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		})

		mw(next).ServeHTTP(c.Writer, c.Request)

		// If the middleware already wrote the response, stop the chain.
		if c.Writer.Written() && !c.IsAborted() {
			c.Abort()
		}
	}
}
