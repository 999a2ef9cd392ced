package requestid

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header is the request and response header carrying the ID.
const Header = "X-Request-ID"

const (
	ginKey = "request_id"
	maxLen = 128
)

type ctxKey struct{}

// Middleware tags each request with an ID, reusing a well formed incoming
// header so IDs from the admin console line up with server logs.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if !valid(id) {
			id = uuid.NewString()
		}
		c.Set(ginKey, id)
		c.Request = c.Request.WithContext(NewContext(c.Request.Context(), id))
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the request ID stored in the Gin context.
func Value(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(ginKey)
}

// NewContext returns ctx carrying id.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the request ID carried by ctx, if any.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func valid(id string) bool {
	if id == "" || len(id) > maxLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
