package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"linkmonitor/config"
	"linkmonitor/models"
)

var jwtSecret = []byte(os.Getenv("JWT_SECRET"))

// AuthRequired validates the caller's JWT and stashes identity plus the
// authorization scope (role, project) into the gin context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		features := config.LoadFeatures()

		// Feature flag off: single-tenant mode, everything runs as admin.
		if !features.AuthEnabled {
			c.Set("userEmail", "system@linkmonitor.internal")
			c.Set("userRole", "Admin")
			c.Set("projectName", "")
			c.Next()
			return
		}

		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			cookie, err := c.Cookie("linkmonitor_jwt")
			if err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}
		if exp, ok := claims["exp"].(float64); ok {
			if time.Now().Unix() > int64(exp) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
				return
			}
		}

		c.Set("userID", claims["user_id"])
		c.Set("userEmail", claims["email"])
		c.Set("userRole", claims["role"])
		c.Set("projectName", claims["project"])
		c.Next()
	}
}

// ScopeFrom derives the store/monitoring authorization scope from the
// request context set by AuthRequired.
func ScopeFrom(c *gin.Context) models.Scope {
	role, _ := c.Get("userRole")
	project, _ := c.Get("projectName")

	scope := models.Scope{}
	if r, ok := role.(string); ok && r == "Admin" {
		scope.Admin = true
	}
	if p, ok := project.(string); ok {
		scope.ProjectName = p
	}
	return scope
}
