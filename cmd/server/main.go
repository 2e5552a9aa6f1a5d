package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/course-content/pkg/coursecontent/config"
)

// RuntimeConfig holds process-level settings that are not part of the
// content service configuration.
type RuntimeConfig struct {
	EnvPrefix       string        `env:"CONTENT_ENV_PREFIX" env-default:""`
	LogLevel        string        `env:"LOG_LEVEL" env-default:"info"`
	LogFormat       string        `env:"LOG_FORMAT" env-default:"text"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

func main() {
	var runtime RuntimeConfig
	if err := cleanenv.ReadEnv(&runtime); err != nil {
		slog.Error("Failed to read runtime configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(runtime.LogLevel, runtime.LogFormat)
	slog.SetDefault(logger)

	// Load configuration from environment
	serverConfig, err := config.Load(config.WithEnv(runtime.EnvPrefix))
	if err != nil {
		slog.Error("Failed to load server configuration", "error", err)
		os.Exit(1)
	}

	if serverConfig.StoreType == config.StorePostgres {
		if err := config.PingPostgres(serverConfig.DatabaseURL, serverConfig.DBSchema); err != nil {
			slog.Error("Database not reachable", "error", err)
			os.Exit(1)
		}
	}

	// Build service from configuration
	svc, err := serverConfig.BuildServiceWithLogger(logger)
	if err != nil {
		slog.Error("Failed to build service", "error", err)
		os.Exit(1)
	}

	server := NewHTTPServer(svc, serverConfig, runtime.RequestTimeout)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: server.Routes(),
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Course content server starting",
			"port", serverConfig.Port,
			"environment", serverConfig.Environment,
			"store", serverConfig.StoreType,
			"delete_mode", string(serverConfig.DeleteMode),
			"concurrency", string(serverConfig.Concurrency))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), runtime.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
