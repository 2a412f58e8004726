package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"foodgram/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

const (
	callerKey = "caller"
	tokenKey  = "token"
)

// Authenticate resolves the Authorization header into a service.Caller.
// Requests without the header continue as anonymous; a header that is present
// but invalid is rejected with 401.
func Authenticate(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// accepted formats: "Token <jwt>" and "Bearer <jwt>"
		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || (scheme != "Token" && scheme != "Bearer") || strings.TrimSpace(tokenString) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}
		tokenString = strings.TrimSpace(tokenString)

		caller, err := authService.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			if !errors.Is(err, service.ErrUnauthorized) {
				slog.Error("token validation failed", "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		// Set caller in context for handlers to use
		c.Set(callerKey, caller)
		c.Set(tokenKey, tokenString)
		c.Next()
	}
}

// CallerFrom returns the authenticated caller, or the anonymous zero value.
func CallerFrom(c *gin.Context) service.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(service.Caller); ok {
			return caller
		}
	}
	return service.Caller{}
}

// TokenFrom returns the raw token the request was authenticated with.
func TokenFrom(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// RequireAuth rejects anonymous requests. It must run after Authenticate.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CallerFrom(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication credentials were not provided"})
			return
		}
		c.Next()
	}
}

// RequireAdmin lets only admins through.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFrom(c)
		if !caller.Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication credentials were not provided"})
			return
		}
		if !caller.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "you do not have permission to perform this action"})
			return
		}
		c.Next()
	}
}
