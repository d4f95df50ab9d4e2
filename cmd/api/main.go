package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reelkit/reels/internal/archive"
	"github.com/reelkit/reels/internal/config"
	"github.com/reelkit/reels/internal/db"
	"github.com/reelkit/reels/internal/events"
	"github.com/reelkit/reels/internal/handlers"
	"github.com/reelkit/reels/internal/middleware"
	"github.com/reelkit/reels/internal/mux"
	"github.com/reelkit/reels/internal/posts"
	"github.com/reelkit/reels/internal/users"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database setup failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		rmq, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			logger.Error("rabbitmq setup failed", "error", err)
			os.Exit(1)
		}
		defer rmq.Close()
		publisher = rmq
	}

	var archiveStore archive.Store = archive.Noop{}
	if cfg.S3Bucket != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("aws config failed", "error", err)
			os.Exit(1)
		}
		s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3Endpoint)
				o.UsePathStyle = true
			}
		})
		archiveStore = archive.NewS3Store(s3Client, cfg.S3Bucket)
	}

	muxClient := mux.NewClient(cfg.MuxBaseURL, cfg.MuxTokenID, cfg.MuxTokenSecret)

	postsSvc := posts.NewService(posts.NewPostgresRepository(dbConn), muxClient, publisher, logger, cfg.DailyPostLimit)
	usersSvc := users.NewService(users.NewPostgresRepository(dbConn), []byte(cfg.JWTSecret), cfg.JWTTTL)

	postsHandler := handlers.NewPostsHandler(postsSvc, archiveStore, logger)
	authHandler := handlers.NewAuthHandler(usersSvc, logger)

	requireAuth := middleware.RequireAuth([]byte(cfg.JWTSecret))

	router := http.NewServeMux()
	router.HandleFunc("POST /auth/register", authHandler.Register())
	router.HandleFunc("POST /auth/login", authHandler.Login())
	router.Handle("GET /me", requireAuth(authHandler.Me()))
	router.Handle("POST /posts/upload-url", requireAuth(postsHandler.UploadURL()))
	router.Handle("POST /posts/{id}/complete", requireAuth(postsHandler.Complete()))
	router.Handle("GET /posts/{id}", requireAuth(postsHandler.Get()))
	router.Handle("GET /feed", requireAuth(postsHandler.Feed()))
	router.HandleFunc("POST /webhooks/mux", postsHandler.Webhook())
	router.HandleFunc("GET /health", handlers.Health(&handlers.HealthDeps{
		DB:          dbConn,
		Archive:     archiveStore,
		RabbitMQURL: cfg.RabbitMQURL,
	}))
	router.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.RequestID(middleware.Logging(logger)(router))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	// Timer-driven reconciliation backs up both the webhook and the
	// reconcile-on-read done by the feed.
	go func() {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := postsSvc.ReconcilePending(ctx); err != nil {
					logger.Warn("scheduled reconcile failed", "error", err)
				}
			}
		}
	}()

	go func() {
		logger.Info("reels api started", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
