package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
)

// Policy admits a caller for the current request.
type Policy func(c *gin.Context, claims *models.JWTClaims) bool

// Roles admits callers holding any of roles.
func Roles(roles ...models.UserRole) Policy {
	set := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return func(_ *gin.Context, claims *models.JWTClaims) bool {
		_, ok := set[claims.Role]
		return ok
	}
}

// Self admits callers acting on their own record named by the path param.
func Self(param string) Policy {
	return func(c *gin.Context, claims *models.JWTClaims) bool {
		id := c.Param(param)
		return id != "" && id == claims.UserID
	}
}

// Allow passes the request when any policy admits the caller. It must run
// after JWT.
func Allow(policies ...Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			abort(c, appErrors.ErrUnauthorized)
			return
		}
		for _, p := range policies {
			if p(c, claims) {
				c.Next()
				return
			}
		}
		abort(c, appErrors.ErrForbidden)
	}
}

// RequireRoles admits only the given roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return Allow(Roles(roles...))
}

// RequireStaff admits administrators and counselors.
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin, models.RoleTeacher)
}
