package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	StorageDriverLocal = "local"
	StorageDriverMinio = "minio"
)

const (
	MailDriverLog      = "log"
	MailDriverSendgrid = "sendgrid"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	PublicURL string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Storage  StorageConfig
	Minio    MinioConfig
	Content  ContentConfig
	Accounts AccountsConfig
	Metrics  MetricsConfig
	Console  ConsoleConfig
	Mail     MailConfig
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectRetries  int
}

type RedisConfig struct {
	Enabled  bool
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig selects and tunes the object store used for uploads.
type StorageConfig struct {
	Driver           string
	LocalDir         string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// MinioConfig holds credentials for the S3 compatible driver.
type MinioConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	BucketPrefix string
}

// ContentConfig governs the public content cache.
type ContentConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// AccountsConfig tunes the account administration API.
type AccountsConfig struct {
	PageSize int
}

type MetricsConfig struct {
	Enabled bool
}

// ConsoleConfig is read by the portal-admin CLI.
type ConsoleConfig struct {
	APIURL  string
	Token   string
	Timeout time.Duration
}

// MailConfig selects how password reset mails are delivered.
type MailConfig struct {
	Driver           string
	SendgridAPIKey   string
	FromName         string
	FromAddress      string
	ResetURL         string
	ResetTokenExpiry time.Duration
	OutboxWorkers    int
	OutboxRetries    int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.PublicURL = strings.TrimRight(v.GetString("PUBLIC_URL"), "/")

	cfg.Database = DatabaseConfig{
		URL:             v.GetString("DATABASE_URL"),
		Host:            v.GetString("DB_HOST"),
		Port:            v.GetInt("DB_PORT"),
		User:            v.GetString("DB_USER"),
		Password:        v.GetString("DB_PASSWORD"),
		Name:            v.GetString("DB_NAME"),
		SSLMode:         v.GetString("DB_SSL_MODE"),
		MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), time.Hour),
		ConnectRetries:  v.GetInt("DB_CONNECT_RETRIES"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		URL:      v.GetString("REDIS_URL"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxFileSize := v.GetInt64("STORAGE_MAX_FILE_SIZE")
	if maxFileSize <= 0 {
		maxFileSize = 50 * 1024 * 1024
	}
	driver := strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER")))
	if driver != StorageDriverMinio {
		driver = StorageDriverLocal
	}
	cfg.Storage = StorageConfig{
		Driver:           driver,
		LocalDir:         v.GetString("STORAGE_LOCAL_DIR"),
		SignedURLSecret:  v.GetString("STORAGE_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("STORAGE_SIGNED_URL_TTL"), 5*time.Minute),
		MaxFileSizeBytes: maxFileSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("STORAGE_ALLOWED_MIME_TYPES")),
	}

	cfg.Minio = MinioConfig{
		Endpoint:     v.GetString("MINIO_ENDPOINT"),
		AccessKey:    v.GetString("MINIO_ACCESS_KEY"),
		SecretKey:    v.GetString("MINIO_SECRET_KEY"),
		UseSSL:       v.GetBool("MINIO_USE_SSL"),
		BucketPrefix: v.GetString("MINIO_BUCKET_PREFIX"),
	}

	cfg.Content = ContentConfig{
		CacheEnabled: v.GetBool("ENABLE_CONTENT_CACHE"),
		CacheTTL:     parseDuration(v.GetString("CONTENT_CACHE_TTL"), 5*time.Minute),
	}

	pageSize := v.GetInt("ACCOUNTS_PAGE_SIZE")
	if pageSize <= 0 {
		pageSize = 10
	}
	cfg.Accounts = AccountsConfig{PageSize: pageSize}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	cfg.Console = ConsoleConfig{
		APIURL:  strings.TrimRight(v.GetString("CONSOLE_API_URL"), "/"),
		Token:   v.GetString("CONSOLE_TOKEN"),
		Timeout: parseDuration(v.GetString("CONSOLE_TIMEOUT"), 15*time.Second),
	}

	mailDriver := strings.ToLower(strings.TrimSpace(v.GetString("MAIL_DRIVER")))
	if mailDriver != MailDriverSendgrid {
		mailDriver = MailDriverLog
	}
	cfg.Mail = MailConfig{
		Driver:           mailDriver,
		SendgridAPIKey:   v.GetString("SENDGRID_API_KEY"),
		FromName:         v.GetString("MAIL_FROM_NAME"),
		FromAddress:      v.GetString("MAIL_FROM_ADDRESS"),
		ResetURL:         v.GetString("PASSWORD_RESET_URL"),
		ResetTokenExpiry: parseDuration(v.GetString("PASSWORD_RESET_TTL"), time.Hour),
		OutboxWorkers:    v.GetInt("MAIL_OUTBOX_WORKERS"),
		OutboxRetries:    v.GetInt("MAIL_OUTBOX_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bk_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("DB_CONNECT_RETRIES", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "bk-portal-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("STORAGE_LOCAL_DIR", "./storage")
	v.SetDefault("STORAGE_SIGNED_URL_SECRET", "dev_storage_secret")
	v.SetDefault("STORAGE_SIGNED_URL_TTL", "5m")
	v.SetDefault("STORAGE_MAX_FILE_SIZE", 50*1024*1024)
	v.SetDefault("STORAGE_ALLOWED_MIME_TYPES", "")

	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_BUCKET_PREFIX", "")

	v.SetDefault("ENABLE_CONTENT_CACHE", false)
	v.SetDefault("CONTENT_CACHE_TTL", "5m")
	v.SetDefault("ACCOUNTS_PAGE_SIZE", 10)
	v.SetDefault("ENABLE_METRICS", true)

	v.SetDefault("CONSOLE_API_URL", "http://localhost:8080")
	v.SetDefault("CONSOLE_TOKEN", "")
	v.SetDefault("CONSOLE_TIMEOUT", "15s")

	v.SetDefault("MAIL_DRIVER", MailDriverLog)
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "BK Portal")
	v.SetDefault("MAIL_FROM_ADDRESS", "no-reply@bk-portal.local")
	v.SetDefault("PASSWORD_RESET_URL", "http://localhost:3000/reset-password")
	v.SetDefault("PASSWORD_RESET_TTL", "1h")
	v.SetDefault("MAIL_OUTBOX_WORKERS", 2)
	v.SetDefault("MAIL_OUTBOX_RETRIES", 3)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
