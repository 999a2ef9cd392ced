package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/bk-portal-api/pkg/config"
)

const pingTimeout = 5 * time.Second

// DSN returns the connection string. DATABASE_URL wins over discrete fields.
func DSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

// NewPostgres opens the pool and waits for the server, retrying with a
// doubling delay so the API can start alongside its database container.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	db.SetConnMaxLifetime(lifetime)
	db.SetConnMaxIdleTime(lifetime / 2)

	attempts := cfg.ConnectRetries
	if attempts <= 0 {
		attempts = 1
	}
	delay := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err = Ping(ctx, db)
		if err == nil {
			return db, nil
		}
		if attempt >= attempts {
			break
		}
		logger.Warn("database not ready, retrying", zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	_ = db.Close()
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempts, err)
}

// Ping checks the pool with a bounded timeout.
func Ping(ctx context.Context, db *sqlx.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.PingContext(ctx)
}
