package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	authMiddleware "github.com/shoptok/backend/internal/auth/middleware"
	authService "github.com/shoptok/backend/internal/auth/service"
	"github.com/shoptok/backend/internal/config"
	"github.com/shoptok/backend/internal/handlers"
	"github.com/shoptok/backend/internal/logger"
	"github.com/shoptok/backend/internal/mediastore"
	"github.com/shoptok/backend/internal/middlewares"
	"github.com/shoptok/backend/internal/models"
	"github.com/shoptok/backend/internal/repositories"
	"github.com/shoptok/backend/internal/services"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/shoptok/backend/docs"
)

// maxRequestSize caps the transport body slightly above the 100MB file
// limit so a full-size video plus its multipart envelope still gets
// through. The upload service enforces the file limit itself.
const maxRequestSize = services.MaxUploadSize + 64*1024

// @title ShopTok Marketplace API
// @version 1.0
// @description API for the ShopTok short-video social commerce marketplace

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT access token, prefixed with "Bearer "
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

	logger.Logger.Info("Starting ShopTok API")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize JWT token generator
	tokenGenerator := authService.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Initialize media store
	store, err := newMediaStore(cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize media store", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	userTokenRepo := repositories.NewUserTokenRepository(db)
	productRepo := repositories.NewProductRepository(db)

	// Initialize services
	authSvc := services.NewAuthService(userRepo, userTokenRepo, tokenGenerator, logger.Logger)
	uploadSvc := services.NewUploadService(store, logger.Logger)
	productSvc := services.NewProductService(productRepo, logger.Logger)

	// Initialize middleware
	authMw := authMiddleware.AuthMiddleware(tokenGenerator)
	sellerMw := authMiddleware.RoleMiddleware(tokenGenerator, models.RoleSeller)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authSvc, logger.Logger)
	uploadHandler := handlers.NewUploadHandler(uploadSvc, logger.Logger)
	productHandler := handlers.NewProductHandler(productSvc, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(middlewares.LoggerMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(maxRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		authHandler.RegisterPublicRoutes(r)
		productHandler.RegisterPublicRoutes(r)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			authHandler.RegisterAuthRoutes(r)
			productHandler.RegisterAuthRoutes(r)
		})

		// Seller-only routes
		r.Group(func(r chi.Router) {
			r.Use(sellerMw)
			uploadHandler.RegisterRoutes(r)
			productHandler.RegisterSellerRoutes(r)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  5 * time.Minute, // video uploads can be slow
		WriteTimeout: 6 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
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

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "shoptok_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
