package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/principal"
)

// TokenValidator validates a bearer token and returns the principal it
// describes.
type TokenValidator interface {
	ValidateToken(tokenString string) (*principal.Principal, error)
}

// Auth middleware validates JWT tokens and populates the request
// principal.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		p, err := validator.ValidateToken(parts[1])
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token"))
			c.Abort()
			return
		}

		ctx := principal.WithPrincipal(c.Request.Context(), p)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", p.UserID)
		c.Set("scope", string(p.Scope))

		c.Next()
	}
}

// RequireAdminScope rejects principals below CLIENT scope. Mounted on the
// admin route groups so COMPANY and DEPARTMENT actors never reach the
// handlers.
func RequireAdminScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principal.FromContext(c.Request.Context())
		if p == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		if !p.IsAdminScope() {
			_ = c.Error(
				apperror.NewForbidden("administrative scope required").
					WithDetail("scope", string(p.Scope)),
			)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SharedSecret authenticates machine callers by a constant token header.
// An empty expected token disables the check.
func SharedSecret(header, expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}
		if subtle.ConstantTimeCompare([]byte(c.GetHeader(header)), []byte(expected)) != 1 {
			abortUnauthorized(c, "invalid callback token")
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
