package logger

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noah-isme/bk-portal-api/pkg/config"
	"github.com/noah-isme/bk-portal-api/pkg/middleware/requestid"
)

const serviceName = "bk-portal-api"

// quietPaths are probes and scrapes that would drown the access log.
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

// New builds the process logger. Production uses sampled JSON; development
// defaults to the same encoding unless LOG_FORMAT=console.
func New(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	}

	zapCfg.Encoding = "json"
	if strings.EqualFold(cfg.Log.Format, "console") {
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.InitialFields = map[string]interface{}{
		"service": serviceName,
		"env":     cfg.Env,
	}

	return zapCfg.Build()
}

// ForRequest returns l tagged with the request ID of c, if any.
func ForRequest(l *zap.Logger, c *gin.Context) *zap.Logger {
	if id := requestid.Value(c); id != "" {
		return l.With(zap.String("request_id", id))
	}
	return l
}

// GinMiddleware writes one access log line per request. Server errors log
// at error level and client errors at warn.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if _, quiet := quietPaths[c.Request.URL.Path]; quiet && c.Writer.Status() < 500 {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int("bytes", c.Writer.Size()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, zap.String("errors", errs.String()))
		}

		log := ForRequest(l, c)
		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("http_request", fields...)
		case status >= 400:
			log.Warn("http_request", fields...)
		default:
			log.Info("http_request", fields...)
		}
	}
}
