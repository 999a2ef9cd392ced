package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bk-portal-api/internal/models"
	appErrors "github.com/noah-isme/bk-portal-api/pkg/errors"
	"github.com/noah-isme/bk-portal-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// TokenValidator verifies access tokens. AuthService satisfies it.
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.JWTClaims, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Claims returns the authenticated caller, if any.
func Claims(c *gin.Context) (*models.JWTClaims, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*models.JWTClaims)
	return claims, ok && claims != nil
}

// JWT rejects requests without a valid access token.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, appErrors.ErrUnauthorized)
			return
		}
		token, ok := BearerToken(header)
		if !ok {
			abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}
		claims, err := validator.ValidateToken(token)
		if err != nil {
			abort(c, err)
			return
		}
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// OptionalJWT attaches claims for a valid token and otherwise lets the
// request through anonymously.
func OptionalJWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := BearerToken(c.GetHeader("Authorization")); ok {
			if claims, err := validator.ValidateToken(token); err == nil {
				c.Set(ContextUserKey, claims)
			}
		}
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	response.Error(c, err)
	c.Abort()
}
