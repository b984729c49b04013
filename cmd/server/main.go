package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"bookmark-analyzer/internal/adapter/analysishttp"
	"bookmark-analyzer/internal/adapter/repository"
	"bookmark-analyzer/internal/di"
	"bookmark-analyzer/internal/domain"
	"bookmark-analyzer/internal/infra"
	"bookmark-analyzer/internal/infra/config"
	"bookmark-analyzer/internal/infra/logger"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.New()
	slog.SetDefault(log)

	// 3. Open the cache store
	store, cleanup, err := openStore(cfg, log)
	if err != nil {
		log.Error("failed to open cache store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// 4. Wire components
	components := di.NewApplicationComponents(cfg, store, log)

	// 5. Start the cache janitor
	components.Janitor.Start()
	defer components.Janitor.Stop()

	// 6. Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	handler := analysishttp.NewHandler(components.AnalyzeUsecase, log)
	handler.Register(e)

	// 7. Health Checks
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", func(c echo.Context) error {
		if _, err := store.Get(c.Request().Context(), "readyz-probe"); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "store down", "error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})

	// 8. Start Server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Info("Starting server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	// 9. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
}

func openStore(cfg *config.Config, log *slog.Logger) (domain.CacheStore, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Store.DBUser, cfg.Store.DBPassword, cfg.Store.DBHost, cfg.Store.DBPort, cfg.Store.DBName)
		pool, err := infra.NewPostgresDB(context.Background(), dsn)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewPostgresCacheStore(pool)
		if err := store.EnsureSchema(context.Background()); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("cache store ready", "backend", "postgres")
		return store, pool.Close, nil
	case "memory":
		log.Info("cache store ready", "backend", "memory")
		return repository.NewMemoryCacheStore(), func() {}, nil
	default:
		handle, err := infra.NewSQLiteDB(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := repository.NewSQLiteCacheStore(handle.DB)
		if err != nil {
			_ = handle.Close()
			return nil, nil, err
		}
		log.Info("cache store ready", "backend", "sqlite", "path", cfg.Store.SQLitePath)
		return store, func() { _ = handle.Close() }, nil
	}
}
