package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bk-portal-api/internal/models"
	"github.com/noah-isme/bk-portal-api/pkg/middleware/requestid"
)

const auditWriteTimeout = 3 * time.Second

// AuditWriter persists audit entries. ProfileRepository satisfies it.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Audit records one entry per successful request on the route. Write
// failures are dropped so auditing never changes the response.
func Audit(repo AuditWriter, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if claims, ok := Claims(c); ok {
			id := claims.UserID
			userID = &id
		}
		body, _ := json.Marshal(map[string]interface{}{
			"path":       c.FullPath(),
			"method":     c.Request.Method,
			"query":      c.Request.URL.RawQuery,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).Milliseconds(),
			"request_id": requestid.Value(c),
		})

		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), auditWriteTimeout)
		defer cancel()
		_ = repo.CreateAuditLog(ctx, &models.AuditLog{
			UserID:    userID,
			Action:    action,
			Resource:  resource,
			NewValues: body,
			IPAddress: c.ClientIP(),
			UserAgent: c.GetHeader("User-Agent"),
		})
	}
}
