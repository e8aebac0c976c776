package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/joshua-takyi/rolecerto/internal/config"
	"github.com/joshua-takyi/rolecerto/internal/connect"
	"github.com/joshua-takyi/rolecerto/internal/container"
	"github.com/joshua-takyi/rolecerto/internal/routes"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting Rolê Certo API server", "environment", cfg.Environment)

	cld, err := connect.CloudinaryCredentials(logger)
	if err != nil {
		logger.Error("Failed to connect to Cloudinary", "error", err)
		os.Exit(1)
	}

	// Initialize database connections
	supaClient, err := connect.InitSupabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to Supabase", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to Supabase successfully")

	mongoClient, err := connect.MongoDBConnect(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}

	natsConn, err := connect.NATSConnect(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}

	// Initialize dependency container
	appContainer, err := container.NewContainer(cfg, logger, cld, supaClient, mongoClient, natsConn)
	if err != nil {
		logger.Error("Failed to build container", "error", err)
		os.Exit(1)
	}

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	if err := appContainer.Mongo.EnsureIndexes(indexCtx); err != nil {
		logger.Warn("Failed to ensure indexes", "error", err)
	}
	cancelIndex()

	if appContainer.Bridge != nil {
		if err := appContainer.Bridge.Start(); err != nil {
			logger.Error("Failed to start toast relay", "error", err)
			os.Exit(1)
		}
	}

	// Setup routes
	router := routes.SetupRoutes(appContainer)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	appContainer.Close()
	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			logger.Error("Error draining NATS", "error", err)
		}
	}

	// Close database connections
	if err := connect.MongoDBDisconnect(mongoClient); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	if cfg.IsProduction() {
		// JSON logging for production
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLevel(cfg.LogLevel, slog.LevelInfo),
		})
	} else {
		// Human-readable logging for development
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: parseLevel(cfg.LogLevel, slog.LevelDebug),
		})
	}

	return slog.New(handler)
}

func parseLevel(s string, fallback slog.Level) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return fallback
	}
	return level
}
