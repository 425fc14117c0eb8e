package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/meetgrid/backend/internal/api"
	"github.com/meetgrid/backend/internal/auth"
	"github.com/meetgrid/backend/internal/config"
	"github.com/meetgrid/backend/internal/domain"
	"github.com/meetgrid/backend/internal/repository"
)

// store is the full persistence surface the services need. Satisfied
// by both the Postgres and the in-memory repository.
type store interface {
	domain.AuthRepository
	domain.ProfileRepository
	domain.ConnectionRepository
	domain.MessagingRepository
}

func main() {
	_ = godotenv.Load()

	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Starting MeetGrid API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	ctx := context.Background()

	var (
		repo store
		pool *pgxpool.Pool
	)
	if cfg.Database.URL != "" {
		pool, err = repository.Open(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := repository.Migrate(ctx, pool); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		logger.Info("Connected to database")

		repo = repository.NewPostgresRepository(pool)
	} else {
		if cfg.IsProduction() {
			logger.Fatal("DATABASE_URL is required in production")
		}
		logger.Warn("No DATABASE_URL set, using in-memory store")
		repo = repository.NewMemoryRepository()
	}

	tokens := auth.NewTokenManager(cfg.Session.Secret, cfg.Session.Expiry)
	provider := auth.NewProviderClient(auth.ProviderConfig{
		AuthURL:        cfg.Provider.AuthURL,
		TokenURL:       cfg.Provider.TokenURL,
		SessionDataURL: cfg.Provider.SessionDataURL,
		ClientID:       cfg.Provider.ClientID,
		ClientSecret:   cfg.Provider.ClientSecret,
		RedirectURL:    cfg.Server.BaseURL + "/api/auth/callback",
	})
	google := auth.NewGoogleVerifier(cfg.Provider.GoogleClientIDs)

	if provider.IsConfigured() {
		logger.Info("Identity provider is configured")
	} else {
		logger.Warn("Identity provider is NOT configured - redirect login disabled")
	}

	authService := domain.NewAuthService(repo, repo, tokens, provider, google)
	profileService := domain.NewProfileService(repo)
	connectionService := domain.NewConnectionService(repo, repo)
	messagingService := domain.NewMessagingService(repo, repo)

	hub := api.NewEventHub(logger)

	authHandler := api.NewAuthHandler(authService, provider, cfg.Session.CookieName, cfg.IsProduction(), cfg.Server.FrontendURL, logger)
	profileHandler := api.NewProfileHandler(profileService, logger)
	connectionHandler := api.NewConnectionHandler(connectionService, hub, logger)
	conversationHandler := api.NewConversationHandler(messagingService, hub, logger)

	var pinger api.Pinger
	if pool != nil {
		pinger = pool
	}
	healthHandler := api.NewHealthHandler(pinger)

	router := api.NewRouter(
		authHandler,
		profileHandler,
		connectionHandler,
		conversationHandler,
		healthHandler,
		hub,
		authService,
		cfg.Session.CookieName,
		cfg.CORS.AllowedOrigins,
		logger,
	)
	r := router.Setup()

	cleanupCtx, cleanupCancel := context.WithCancel(ctx)
	go sessionCleanupLoop(cleanupCtx, repo, logger, 1*time.Hour)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cleanupCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func initLogger() (*zap.Logger, error) {
	if os.Getenv("ENV") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// sessionCleanupLoop periodically deactivates expired session rows.
func sessionCleanupLoop(ctx context.Context, repo domain.AuthRepository, logger *zap.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.CleanupExpiredSessions(ctx); err != nil {
				logger.Error("session cleanup failed", zap.Error(err))
			}
		}
	}
}
