package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/bk-portal-api/api/swagger"
	"github.com/noah-isme/bk-portal-api/internal/handler"
	"github.com/noah-isme/bk-portal-api/internal/repository"
	"github.com/noah-isme/bk-portal-api/internal/service"
	"github.com/noah-isme/bk-portal-api/pkg/cache"
	"github.com/noah-isme/bk-portal-api/pkg/config"
	"github.com/noah-isme/bk-portal-api/pkg/database"
	"github.com/noah-isme/bk-portal-api/pkg/logger"
	"github.com/noah-isme/bk-portal-api/pkg/mailer"
	"github.com/noah-isme/bk-portal-api/pkg/storage"
)

// @title BK Portal API
// @version 1.0.0
// @description Guidance and counseling portal: accounts, articles, info, learning materials and settings.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(context.Background(), cfg.Database, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	probes := []handler.Probe{{Name: "postgres", Check: func(ctx context.Context) error { return database.Ping(ctx, db) }}}

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, content cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			probes = append(probes, handler.Probe{Name: "redis", Optional: true, Check: func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}})
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Content.CacheTTL, logr, cfg.Content.CacheEnabled)

	signer := storage.NewSignedURLSigner(cfg.Storage.SignedURLSecret, cfg.Storage.SignedURLTTL)
	store, err := newObjectStore(cfg, signer)
	if err != nil {
		logr.Sugar().Fatalw("failed to init storage", "driver", cfg.Storage.Driver, "error", err)
	}

	validate := validator.New()
	service.RegisterPortalValidations(validate)

	profileRepo := repository.NewProfileRepository(db)
	identityRepo := repository.NewIdentityRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	infoRepo := repository.NewInfoRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	outbox := mailer.NewOutbox(newMailer(cfg, logr), cfg.Mail.OutboxWorkers, cfg.Mail.OutboxRetries, logr)
	outbox.Start(context.Background())
	defer outbox.Stop()

	authSvc := service.NewAuthService(identityRepo, profileRepo, outbox, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		ResetURL:           cfg.Mail.ResetURL,
		ResetTokenExpiry:   cfg.Mail.ResetTokenExpiry,
	})
	accountSvc := service.NewAccountService(profileRepo, metricsSvc, validate, logr, cfg.Accounts.PageSize)
	profileSvc := service.NewProfileService(profileRepo, validate, logr)
	deletionSvc := service.NewUserDeletionService(identityRepo, profileRepo, metricsSvc, logr)

	contentCfg := service.ContentStorageConfig{
		MaxFileSize:   cfg.Storage.MaxFileSizeBytes,
		MaterialMIMEs: cfg.Storage.AllowedMIMEs,
		SignedURLTTL:  cfg.Storage.SignedURLTTL,
	}
	articleSvc := service.NewArticleService(articleRepo, store, cacheSvc, metricsSvc, profileRepo, validate, logr, contentCfg)
	infoSvc := service.NewInfoService(infoRepo, store, cacheSvc, metricsSvc, profileRepo, validate, logr, contentCfg)
	materialSvc := service.NewMaterialService(materialRepo, store, metricsSvc, profileRepo, validate, logr, contentCfg)
	settingSvc := service.NewSettingService(settingRepo, profileRepo, cacheSvc, validate, logr)
	consultationSvc := service.NewConsultationService(settingSvc, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Profiles:  profileRepo,
		Materials: materialSvc,
		Articles:  articleSvc,
		Info:      infoSvc,
		Settings:  settingSvc,
		Cache:     cacheSvc,
		Metrics:   metricsSvc,
		Logger:    logr,
	})

	var files *handler.FileHandler
	if cfg.Storage.Driver == config.StorageDriverLocal {
		files = handler.NewFileHandler(store, signer)
	}

	r := gin.New()
	registerRoutes(r, cfg, logr, routeDeps{
		tokens:     authSvc,
		audit:      profileRepo,
		metricsSvc: metricsSvc,
		auth:       handler.NewAuthHandler(authSvc),
		profile:    handler.NewProfileHandler(profileSvc),
		accounts:   handler.NewAccountHandler(accountSvc),
		deleteUser: handler.NewDeleteUserFunction(authSvc, deletionSvc, logr),
		articles:   handler.NewArticleHandler(articleSvc),
		info:       handler.NewInfoHandler(infoSvc),
		materials:  handler.NewMaterialHandler(materialSvc),
		settings:   handler.NewSettingHandler(settingSvc, consultationSvc),
		dashboard:  handler.NewDashboardHandler(dashboardSvc),
		files:      files,
		metrics:    handler.NewMetricsHandler(metricsSvc, probes...),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "storage", cfg.Storage.Driver, "mail", cfg.Mail.Driver)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func newObjectStore(cfg *config.Config, signer *storage.SignedURLSigner) (storage.ObjectStore, error) {
	if cfg.Storage.Driver == config.StorageDriverMinio {
		store, err := storage.NewMinioStorage(storage.MinioOptions{
			Endpoint:     cfg.Minio.Endpoint,
			AccessKey:    cfg.Minio.AccessKey,
			SecretKey:    cfg.Minio.SecretKey,
			UseSSL:       cfg.Minio.UseSSL,
			BucketPrefix: cfg.Minio.BucketPrefix,
		})
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := store.EnsureBuckets(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := storage.NewLocalStorage(cfg.Storage.LocalDir, cfg.PublicURL, signer)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func newMailer(cfg *config.Config, logr *zap.Logger) mailer.Mailer {
	if cfg.Mail.Driver == config.MailDriverSendgrid && cfg.Mail.SendgridAPIKey != "" {
		return mailer.NewSendgridMailer(cfg.Mail.SendgridAPIKey, cfg.Mail.FromName, cfg.Mail.FromAddress)
	}
	return mailer.NewLogMailer(logr)
}
