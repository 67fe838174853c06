// Package main runs the mock interview platform HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/peermock/backend/config"
	"github.com/peermock/backend/internal/auth"
	"github.com/peermock/backend/internal/flashcards"
	"github.com/peermock/backend/internal/middleware"
	"github.com/peermock/backend/internal/points"
	"github.com/peermock/backend/internal/realtime"
	"github.com/peermock/backend/internal/recordings"
	"github.com/peermock/backend/internal/rooms"
	"github.com/peermock/backend/internal/scheduling"
	"github.com/peermock/backend/internal/worker"
	"github.com/peermock/backend/pkg/database"
	"github.com/peermock/backend/pkg/queue"
	"github.com/peermock/backend/pkg/redis"
	"github.com/peermock/backend/pkg/response"
	"github.com/peermock/backend/pkg/storage"
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

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			RecordingsBucket:     cfg.AWS.RecordingsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Points
	pointsRepo := points.NewRepository(pool)
	pointsHandler := points.NewHandler(pointsRepo)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, pointsRepo, cfg.Scheduling.SignupBonusPoints, logger)

	// Scheduling (interviews + rooms + booking ledger)
	schedStore := scheduling.NewPostgresStore(pool)
	schedService := scheduling.NewService(schedStore, pointsRepo, hub,
		cfg.Scheduling.BookingBuffer(), cfg.Scheduling.BookingCostPoints, nil, logger)
	schedHandler := scheduling.NewHandler(schedService)

	// Rooms
	roomRepo := rooms.NewRepository(pool)
	roomHandler := rooms.NewHandler(roomRepo)

	// Flashcards
	deckRepo := flashcards.NewRepository(pool)
	deckHandler := flashcards.NewHandler(deckRepo)

	// Recordings
	recordingRepo := recordings.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	recordingHandler := recordings.NewHandler(recordingRepo, schedService, s3Client, jobQueue, logger)
	recordingProcessor := worker.NewRecordingProcessor(recordingRepo, s3Client, jobQueue, logger)

	jwtValidate := func(token string) (uuid.UUID, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, err
		}
		return claims.UserID, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Interviews
		api.POST("/interviews", schedHandler.Create)
		api.GET("/interviews", schedHandler.List)
		api.GET("/interviews/:id", schedHandler.GetByID)
		api.POST("/interviews/:id/book", schedHandler.Book)
		api.POST("/interviews/:id/cancel", schedHandler.Cancel)
		api.POST("/interviews/:id/start", schedHandler.Start)
		api.POST("/interviews/:id/complete", middleware.RequireRole("admin"), schedHandler.Complete)
		api.POST("/interviews/:id/no-show", middleware.RequireRole("admin"), schedHandler.NoShow)
		api.DELETE("/interviews/:id", schedHandler.Delete)

		// Video rooms
		api.GET("/rooms/:code", roomHandler.GetByCode)
		api.PATCH("/rooms/:id/settings", roomHandler.UpdateSettings)

		// Points
		api.GET("/points/balance", pointsHandler.Balance)
		api.GET("/points/history", pointsHandler.History)

		// Flashcards
		api.POST("/decks", deckHandler.CreateDeck)
		api.GET("/decks", deckHandler.ListDecks)
		api.DELETE("/decks/:id", deckHandler.DeleteDeck)
		api.POST("/decks/:id/cards", deckHandler.CreateCard)
		api.GET("/decks/:id/cards", deckHandler.ListCards)
		api.POST("/cards/:id/review", deckHandler.Review)
		api.DELETE("/cards/:id", deckHandler.DeleteCard)

		// Recordings
		api.GET("/interviews/:id/recordings", recordingHandler.ListByInterview)
		api.GET("/recordings/:id/download-url", recordingHandler.DownloadURL)
	}

	// Webhooks (no JWT; provider-originated)
	router.POST("/webhooks/recording-ready", recordingHandler.RecordingReady)

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (recording upload to S3)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if s3Client != nil {
		go recordingProcessor.Run(workerCtx)
		logger.Info("recording worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
