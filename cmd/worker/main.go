// Package main runs the background job worker (recording upload to S3, no-show sweeping).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/peermock/backend/config"
	"github.com/peermock/backend/internal/points"
	"github.com/peermock/backend/internal/recordings"
	"github.com/peermock/backend/internal/scheduling"
	"github.com/peermock/backend/internal/worker"
	"github.com/peermock/backend/pkg/database"
	"github.com/peermock/backend/pkg/queue"
	"github.com/peermock/backend/pkg/redis"
	"github.com/peermock/backend/pkg/storage"
)

const sweepInterval = time.Minute

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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// No-show sweeper
	schedStore := scheduling.NewPostgresStore(pool)
	pointsRepo := points.NewRepository(pool)
	schedService := scheduling.NewService(schedStore, pointsRepo, nil,
		cfg.Scheduling.BookingBuffer(), cfg.Scheduling.BookingCostPoints, nil, logger)
	sweeper := worker.NewNoShowSweeper(schedService, cfg.Scheduling.NoShowGrace(), sweepInterval, logger)
	go sweeper.Run(workerCtx)

	// Recording uploads (requires S3)
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			RecordingsBucket:     cfg.AWS.RecordingsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err := storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Fatal("s3", zap.Error(err))
		}
		recRepo := recordings.NewRepository(pool)
		jobQueue := queue.NewQueue(rdb.Client, logger)
		processor := worker.NewRecordingProcessor(recRepo, s3Client, jobQueue, logger)
		go processor.Run(workerCtx)
	} else {
		logger.Warn("AWS_REGION not set, recording uploads disabled")
	}

	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
