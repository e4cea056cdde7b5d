package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/internal/utils"
	"github.com/projecthub/backend/pkg/response"
	"gorm.io/gorm"
)

// AuthRequired extracts the bearer credential from the Authorization header
// or the access_token cookie, validates it, and resolves it to a live user.
// A valid token whose user has since been deleted or deactivated fails with
// PrincipalGone rather than plain Unauthenticated.
func AuthRequired(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := extractToken(c)
		if !ok {
			denyAndAudit(c, response.NewUnauthenticated("authorization required"))
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			denyAndAudit(c, response.NewUnauthenticated("invalid or expired token"))
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				denyAndAudit(c, response.NewPrincipalGone("user no longer exists"))
				return
			}
			response.AbortError(c, response.NewInternal("failed to resolve user"))
			return
		}
		if !user.IsActive {
			denyAndAudit(c, response.NewPrincipalGone("user is disabled"))
			return
		}

		c.Set(ContextPrincipal, &user)
		c.Set(ContextPrincipalID, user.ID)
		c.Next()
	}
}

// extractToken looks for "Authorization: Bearer <token>" first, then the
// access_token cookie.
func extractToken(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
		return cookie, true
	}
	return "", false
}
