package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"travelog/pkg/helpers"
	"travelog/pkg/response"
)

const (
	CtxUserIDKey   = "userID"
	CtxUsernameKey = "username"
)

// bearerToken extracts the access token from the Authorization header,
// falling back to the access_token cookie set at sign-in.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if tok, err := c.Cookie("access_token"); err == nil {
		return tok
	}
	return ""
}

// Auth validates the bearer token and injects the user identity into the Gin
// context. Missing, invalid, and expired tokens are reported distinctly so
// clients can branch on "expired" to prompt a re-login.
func Auth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.AbortError(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			if errors.Is(err, helpers.ErrTokenExpired) {
				response.AbortError(c, http.StatusUnauthorized, "access token expired", nil)
				return
			}
			response.AbortError(c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUsernameKey, claims.Username)
		c.Next()
	}
}
