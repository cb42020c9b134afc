package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/shoptok/backend/internal/config"
	"github.com/shoptok/backend/internal/logger"
	"github.com/shoptok/backend/internal/mediastore"
	"github.com/shoptok/backend/internal/reconciler"
	"github.com/shoptok/backend/internal/repositories"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting ShopTok Reconciler")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// Test Redis connection
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	// Initialize media store
	store, err := newMediaStore(cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize media store", zap.Error(err))
	}

	// Initialize the sweeper
	productRepo := repositories.NewProductRepository(db)
	sweeper := reconciler.NewSweeper(
		store,
		productRepo,
		rdb,
		cfg.Reconciler.Folders,
		cfg.Reconciler.GracePeriod,
		logger.Logger,
	)
	taskHandler := reconciler.NewTaskHandler(sweeper, logger.Logger)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	// Create Asynq client for enqueueing sweeps
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	// Create Asynq server processing them
	srv := asynq.NewServer(redisOpt, asynq.Config{
		// Sweeps must not overlap; one worker is enough
		Concurrency: 1,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(reconciler.TypeMediaSweep, taskHandler.HandleSweepTask)

	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Logger.Fatal("Failed to start worker", zap.Error(err))
		}
	}()

	// Schedule periodic sweeps
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Reconciler.CronSpec, func() {
		if _, err := asynqClient.Enqueue(reconciler.NewSweepTask()); err != nil {
			logger.Logger.Error("Failed to enqueue sweep task", zap.Error(err))
		}
	})
	if err != nil {
		logger.Logger.Fatal("Invalid reconciler cron spec", zap.Error(err))
	}
	scheduler.Start()

	logger.Logger.Info("Reconciler started",
		zap.String("cron", cfg.Reconciler.CronSpec),
		zap.Duration("gracePeriod", cfg.Reconciler.GracePeriod),
		zap.Strings("folders", cfg.Reconciler.Folders),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down reconciler...")
	scheduler.Stop()
	srv.Shutdown()
	logger.Logger.Info("Reconciler exited")
}

// newMediaStore builds the configured media store adapter
func newMediaStore(cfg *config.Config) (mediastore.Store, error) {
	switch cfg.Media.Driver {
	case "s3":
		return mediastore.NewS3Store(cfg.Media)
	default:
		return mediastore.NewRemoteStore(cfg.Media), nil
	}
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
