// Package main runs the background worker: queued email delivery plus the
// periodic session sweep.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/summitdesk/backend/config"
	"github.com/summitdesk/backend/internal/notify"
	"github.com/summitdesk/backend/internal/sessions"
	"github.com/summitdesk/backend/internal/store/postgres"
	"github.com/summitdesk/backend/internal/worker"
	"github.com/summitdesk/backend/pkg/clock"
	"github.com/summitdesk/backend/pkg/database"
	"github.com/summitdesk/backend/pkg/queue"
	"github.com/summitdesk/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()
	st := postgres.New(pool)

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	clk := clock.New()
	mailer, err := notify.NewMailer(cfg.Email, logger)
	if err != nil {
		logger.Fatal("mailer", zap.Error(err))
	}
	notifier := notify.NewRecorder(mailer, st, clk, logger)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewEmailProcessor(notifier, jobQueue, logger)

	sessionTTL := time.Duration(cfg.Auth.SessionTTLHours) * time.Hour
	sessionService := sessions.NewService(st, clk, sessionTTL, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	go sweepSessions(workerCtx, sessionService, time.Duration(cfg.Auth.SweepIntervalMinutes)*time.Minute, logger)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
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
