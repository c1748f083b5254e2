package main

import (
	"c3-policy-manager/cmd/web/handlers"
	"c3-policy-manager/internal/bucket"
	"c3-policy-manager/internal/bundle"
	"c3-policy-manager/internal/config"
	"c3-policy-manager/internal/logging"
	"c3-policy-manager/internal/usecases"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := logging.New(config.LogFormat, os.Stdout)
	slog.SetDefault(logger)
	slog.Info("Starting c3 policy manager")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := bundle.NewMinioRepositoryFromConfig()
	if err != nil {
		slog.Error("Failed to create minio repository", "error", err)
		os.Exit(1)
	}
	if err := repo.CreateBucket(ctx); err != nil {
		slog.Error("Failed to ensure minio bucket", "bucket", config.MinioBucket, "error", err)
		os.Exit(1)
	}
	if err := usecases.InitialTest(ctx, repo); err != nil {
		slog.Error("Initial test failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Initial test passed")

	conn, err := bucket.NewConnectionFromConfig(ctx)
	if err != nil {
		slog.Error("Failed to create bucket connection", "backend", config.Backend, "error", err)
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), logging.GinLogger(logger))
	handlers.NewService(repo, conn).Register(router)

	server := &http.Server{
		Addr:    config.ListenAddr,
		Handler: router,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	}()

	slog.Info("Starting server", "addr", config.ListenAddr)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server closed")
}
