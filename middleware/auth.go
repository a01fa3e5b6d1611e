package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studyquest/helpers"
)

// Authenticate validates the Bearer token and stores its claims on the
// context for handlers to read via c.Get("claims").
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims, err := helpers.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set("claims", claims)
		c.Next()
	}
}

// Authorize allows only the listed roles past.
func Authorize(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsVal, ok := c.Get("claims")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		claims, ok := claimsVal.(*helpers.Claims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid claims"})
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	}
}
