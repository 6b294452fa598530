package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	principalIDKey   = "principal_id"
	principalNameKey = "principal_name"
)

// RequireAuth validates the bearer token minted by the external auth
// provider and stores the principal's profile id (token subject) on the
// request context. Requests without a valid token never reach handlers.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": "unauthorized", "message": "missing or invalid token",
			})
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": "unauthorized", "message": "missing or invalid token",
			})
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": "unauthorized", "message": "token has no subject",
			})
			return
		}

		c.Set(principalIDKey, sub)
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if name, ok := claims["name"].(string); ok {
				c.Set(principalNameKey, name)
			}
		}
		c.Next()
	}
}

// Principal returns the authenticated profile id set by RequireAuth.
func Principal(c *gin.Context) string {
	if v, ok := c.Get(principalIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// PrincipalName returns the display name claim, if the token carried one.
func PrincipalName(c *gin.Context) string {
	if v, ok := c.Get(principalNameKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
