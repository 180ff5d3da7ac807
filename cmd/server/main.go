package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gallery/internal/server/api"
	"gallery/internal/server/auth"
	"gallery/internal/server/config"
	"gallery/internal/server/service"
	"gallery/internal/server/storage"
)

func main() {
	// Structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("configuration loaded",
		"port", cfg.Port,
		"env", cfg.Env,
		"storage_path", cfg.StoragePath,
		"max_file_size", cfg.MaxFileSize,
		"session_backend", cfg.SessionBackend,
		"session_ttl", cfg.SessionTTL,
	)
	if cfg.AdminPasswordHash == "" && cfg.AdminPassword == "admin123" {
		slog.Warn("using the default admin password; set ADMIN_PASSWORD or ADMIN_PASSWORD_HASH")
	}

	// Initialize storage
	store := storage.NewFileSystemStore(cfg.StoragePath)
	if err := store.EnsureDir(); err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	slog.Info("file storage initialized", "path", cfg.StoragePath)

	// Admin credential
	verifier, err := newVerifier(cfg)
	if err != nil {
		slog.Error("invalid admin credential", "error", err)
		os.Exit(1)
	}

	// Session store
	ctx := context.Background()
	var sessions auth.SessionStore
	var sweepers []storage.Sweeper
	switch cfg.SessionBackend {
	case "redis":
		client, err := auth.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			slog.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer client.Close()
		sessions = auth.NewRedisStore(client)
		slog.Info("redis session store connected", "addr", cfg.RedisAddr)
	default:
		mem := auth.NewMemoryStore()
		sessions = mem
		sweepers = append(sweepers, mem)
	}

	guard := auth.NewGuard(verifier, sessions, cfg.SessionTTL)
	svc := service.NewGalleryService(store, cfg.MaxFileSize)

	// Start cleanup service
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	cleanup := storage.NewCleanupService(store, cfg.CleanupInterval, sweepers...)
	cleanup.Start(cleanupCtx)

	// Setup HTTP router
	handler := api.NewHandler(svc, guard, auth.CookieOptions{Secure: cfg.Production()}, cfg.StoragePath)
	e := api.SetupRouter(handler, guard, cfg)

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("starting server", "addr", addr)
		if err := e.Start(addr); err != nil {
			slog.Info("server stopped", "reason", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down", "signal", sig)

	// Stop accepting new requests, finish in-flight with 30s timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	// Stop cleanup service
	cleanupCancel()
	cleanup.Wait()

	slog.Info("server exited cleanly")
}

// newVerifier prefers a bcrypt hash over the plain secret.
func newVerifier(cfg *config.Config) (auth.Verifier, error) {
	if cfg.AdminPasswordHash != "" {
		return auth.NewBcryptVerifier(cfg.AdminPasswordHash)
	}
	return auth.NewSecretVerifier(cfg.AdminPassword), nil
}
