package middleware

import (
	"context"
	"strings"

	"taskdesk-api/internal/apperr"
	"taskdesk-api/internal/auth"
	"taskdesk-api/internal/logging"
	"taskdesk-api/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	principalKey = "principal"
	claimsKey    = "claims"
)

// Authenticator resolves a bearer token to the requester.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Principal, *auth.Claims, error)
}

// JWTAuth validates the token in the Authorization header and stores the
// principal on the gin context.
func JWTAuth(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			// Extract token from "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		// Fallback for WebSocket/browser where custom headers cannot be set: allow token in query param
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			AbortWithError(c, apperr.NewError(apperr.Unauthenticated, "Authorization token is required", nil))
			return
		}

		p, claims, err := authn.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		logging.AddAttribute(c.Request.Context(), logging.UserAttributeKey, p.ID)
		c.Set(principalKey, p)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireAdmin rejects requests whose principal is not an admin. It must run
// after JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Principal(c).IsAdmin() {
			AbortWithError(c, apperr.Forbidden("Admin access required"))
			return
		}
		c.Next()
	}
}

// Principal returns the authenticated requester, or the zero principal on
// unauthenticated routes.
func Principal(c *gin.Context) models.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}
	}
	p, _ := v.(models.Principal)
	return p
}

// Claims returns the validated token claims of the request.
func Claims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
