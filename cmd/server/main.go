// Package main runs the summit registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/summitdesk/backend/config"
	"github.com/summitdesk/backend/internal/blog"
	"github.com/summitdesk/backend/internal/middleware"
	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/notify"
	"github.com/summitdesk/backend/internal/records"
	"github.com/summitdesk/backend/internal/registry"
	"github.com/summitdesk/backend/internal/selection"
	"github.com/summitdesk/backend/internal/sessions"
	"github.com/summitdesk/backend/internal/store"
	"github.com/summitdesk/backend/internal/store/memory"
	"github.com/summitdesk/backend/internal/store/postgres"
	"github.com/summitdesk/backend/pkg/clock"
	"github.com/summitdesk/backend/pkg/database"
	"github.com/summitdesk/backend/pkg/queue"
	"github.com/summitdesk/backend/pkg/random"
	"github.com/summitdesk/backend/pkg/redis"
	"github.com/summitdesk/backend/pkg/response"
	"github.com/summitdesk/backend/pkg/storage"
	"github.com/summitdesk/backend/pkg/utils"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store", zap.Error(err))
	}
	defer closeStore()

	// Redis is optional. With it, registration notices ride the job queue and
	// a worker delivers them; without it, they go out inline.
	var jobQueue *queue.Queue
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("redis disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			jobQueue = queue.NewQueue(rdb.Client, logger)
		}
	}

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	clk := clock.New()

	mailer, err := notify.NewMailer(cfg.Email, logger)
	if err != nil {
		logger.Fatal("mailer", zap.Error(err))
	}
	recorded := notify.NewRecorder(mailer, st, clk, logger)

	// Attendance codes always go out synchronously so a failed send can stop
	// the approval. Registration notices may be queued.
	var registrationNotifier notify.Notifier = recorded
	if jobQueue != nil {
		registrationNotifier = notify.NewQueued(jobQueue)
	}

	if err := seedOperator(ctx, cfg, st, clk); err != nil {
		logger.Fatal("seed operator", zap.Error(err))
	}

	registryService := registry.NewService(st, registrationNotifier, clk, cfg.Summit.LGAs, logger)
	registryHandler := registry.NewHandler(registryService, logger)

	selectionService := selection.NewService(st, recorded, clk, random.New(), logger)
	selectionHandler := selection.NewHandler(selectionService, logger)

	sessionTTL := time.Duration(cfg.Auth.SessionTTLHours) * time.Hour
	sessionService := sessions.NewService(st, clk, sessionTTL, logger)
	sessionHandler := sessions.NewHandler(sessionService, logger)

	recordsHandler := records.NewHandler(st, cfg.Summit.LGAs, logger)
	emailHandler := notify.NewHandler(st, st, st, recorded)
	blogHandler := blog.NewHandler(st, s3Client, clk, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Legacy surface. The static registration form and the dashboard predate
	// this service and read outcomes from the body, so these always answer 200.
	router.POST("/submit", registryHandler.Submit)
	router.POST("/approve", selectionHandler.Approve)
	router.GET("/records", recordsHandler.Dump)
	router.POST("/auth", sessionHandler.Dispatch)

	// Public announcements feed
	router.GET("/posts", blogHandler.ListPublished)
	router.GET("/posts/:id", blogHandler.GetPublished)

	admin := router.Group("/admin")
	admin.Use(middleware.SessionAuth(sessionService))
	{
		admin.POST("/selection/run", selectionHandler.RunSelection)
		admin.POST("/selection/reconcile", selectionHandler.Reconcile)
		admin.PATCH("/reviews/:id", selectionHandler.UpdateReview)
		admin.POST("/sessions/sweep", sessionHandler.Sweep)
		admin.GET("/emails", emailHandler.ListRecent)
		admin.POST("/emails/:id/resend", emailHandler.Resend)
		admin.GET("/posts", blogHandler.ListAll)
		admin.POST("/posts", blogHandler.Create)
		admin.GET("/posts/:id", blogHandler.GetByID)
		admin.PATCH("/posts/:id", blogHandler.Update)
		admin.DELETE("/posts/:id", blogHandler.Delete)
		admin.POST("/uploads", blogHandler.Upload)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process session sweep; the worker binary runs one too when deployed.
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go sweepSessions(sweepCtx, sessionService, time.Duration(cfg.Auth.SweepIntervalMinutes)*time.Minute, logger)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sweepCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// openStore builds the configured store. The postgres driver migrates on
// boot; the memory driver is for local runs and tests.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		logger.Warn("memory store: all data is lost on restart")
		return memory.New(), func() {}, nil
	case "postgres", "":
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.New(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// seedOperator upserts the configured operator account so a fresh deploy has
// a login. The secret is stored as a bcrypt hash.
func seedOperator(ctx context.Context, cfg *config.Config, st store.Users, clk clock.Clock) error {
	if cfg.Auth.SeedSecret == "" {
		return nil
	}
	hash, err := utils.HashSecret(cfg.Auth.SeedSecret)
	if err != nil {
		return fmt.Errorf("hash seed secret: %w", err)
	}
	return st.UpsertUser(ctx, &models.User{
		Username:  cfg.Auth.SeedUsername,
		Secret:    hash,
		Status:    models.UserStatusActive,
		CreatedAt: clk.Now(),
	})
}

func sweepSessions(ctx context.Context, svc *sessions.Service, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.SweepExpired(ctx); err != nil {
				logger.Error("session sweep", zap.Error(err))
			}
		}
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
