package middleware

import (
	"github.com/gin-gonic/gin"

	"gallery/internal/apperror"
	"gallery/internal/models"
)

// RequireRoles must run after AccessGuard.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	roleSet := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := AccessClaimsFrom(c)
		if !ok {
			abortWithError(c, apperror.Unauthorized(msgInvalidAccessToken))
			return
		}

		if _, ok := roleSet[models.Role(claims.Role)]; !ok {
			abortWithError(c, apperror.Forbidden("insufficient role"))
			return
		}

		c.Next()
	}
}
