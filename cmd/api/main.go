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

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/meridianbank/core/internal/config"
	"github.com/meridianbank/core/internal/handler"
	"github.com/meridianbank/core/internal/logging"
	"github.com/meridianbank/core/internal/notify"
	"github.com/meridianbank/core/internal/observability"
	"github.com/meridianbank/core/internal/repository"
	"github.com/meridianbank/core/internal/service/transfer"
)

func main() {
	// Local development convenience; the file is absent in deployment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("bank-core", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	metrics := observability.NewMetrics()

	accounts := repository.NewAccountRepository(db)
	journal := repository.NewTransactionRepository(db)
	approvals := repository.NewApprovalRepository(db)
	outbox := repository.NewOutboxRepository(db)
	users := repository.NewUserRepository(db)

	transfers := transfer.NewService(accounts, journal, approvals, outbox, users, db, cfg, metrics)

	channel := notify.NewBreakerChannel(notify.NewSMTPChannel(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}), "smtp")
	dispatcher := notify.NewDispatcher(
		outbox, channel, slog.Default(), metrics,
		time.Duration(cfg.NotifyIntervalS)*time.Second,
		cfg.NotifyBatchSize, cfg.NotifyMaxAttempts,
	)
	go dispatcher.Start(ctx)

	router := handler.NewRouter(
		cfg.JWTSecret,
		handler.NewTransferHandler(transfers),
		handler.NewAccountHandler(accounts),
		handler.NewAuthHandler(users, cfg.JWTSecret, time.Duration(cfg.JWTExpiryH)*time.Hour),
		handler.NewHealthHandler(db),
		metrics,
	)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
