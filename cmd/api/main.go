package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/taskpad/taskpad-go/internal/config"
	"github.com/taskpad/taskpad-go/internal/crypto"
	"github.com/taskpad/taskpad-go/internal/handler"
	"github.com/taskpad/taskpad-go/internal/notify"
	"github.com/taskpad/taskpad-go/internal/repository"
	"github.com/taskpad/taskpad-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg := config.Load()
	slog.SetDefault(newLogger(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(ctx, cfg.DatabasePath)
	if err != nil {
		slog.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	hasher, err := crypto.NewHasher(cfg.BcryptCost)
	if err != nil {
		slog.Error("invalid BCRYPT_COST", "cost", cfg.BcryptCost, "error", err)
		os.Exit(1)
	}

	migrator := repository.NewMigrator(db, repository.MigratorOptions{
		HashPassword:    hasher.HashPassword,
		DemoPassword:    cfg.DemoPassword,
		LegacyTasksFile: cfg.LegacyTasksFile,
	})
	if _, err := migrator.EnsureSchema(ctx); err != nil {
		slog.Error("schema migration failed", "error", err)
		os.Exit(1)
	}

	mailer := notify.NewEmailNotifier(cfg.SMTP, cfg.AppBaseURL)
	userService := service.NewUserService(repository.NewUserRepository(db), hasher, mailer)
	authService := service.NewAuthService(userService, cfg.JWTSecret, cfg.JWTExpiry)
	taskService := service.NewTaskService(repository.NewTaskRepository(db))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handler.NewRouter(ctx, handler.RouterConfig{
			DB:            db,
			Auth:          authService,
			Users:         userService,
			Tasks:         taskService,
			JWTSecret:     cfg.JWTSecret,
			GuestMode:     cfg.GuestMode,
			AuthRateRPS:   cfg.AuthRateRPS,
			AuthRateBurst: cfg.AuthRateBurst,
			Registry:      reg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "guest_mode", cfg.GuestMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Env == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
