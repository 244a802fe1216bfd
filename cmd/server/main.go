package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/retry"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/internal/workflow"
	"github.com/mmynk/splitledger/pkg/api"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	logging.SetupWith(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *sqlstore.SQLStore
	switch cfg.DBDriver {
	case "postgres":
		store, err = sqlstore.OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		store, err = sqlstore.OpenSQLite(ctx, cfg.DBPath)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.DBDriver)

	var publisher notify.Publisher = notify.Nop{}
	if cfg.NATSURL != "" {
		nc, err := notify.ConnectNATS(cfg.NATSURL)
		if err != nil {
			return err
		}
		publisher = nc
		slog.Info("Publishing notifications", "nats_url", cfg.NATSURL)
	}
	defer publisher.Close()

	m := metrics.New()
	policy := retry.DefaultPolicy
	policy.Attempts = cfg.RetryAttempts
	engine := workflow.New(store,
		workflow.WithPublisher(publisher),
		workflow.WithMetrics(m),
		workflow.WithRetryPolicy(policy),
	)

	authenticator := auth.NewPasswordAuthenticator(store)
	if cfg.AdminEmail != "" {
		if _, err := authenticator.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("failed to bootstrap admin: %w", err)
		}
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	opts := service.HandlerOptions(jwtManager, m)
	accountPath, accountHandler := api.NewAccountServiceHandler(
		service.NewAccountService(authenticator, jwtManager, engine, slog.Default()), opts...)
	ledgerPath, ledgerHandler := api.NewLedgerServiceHandler(service.NewLedgerService(engine), opts...)

	router := newRouter(store, m.Handler(), map[string]http.Handler{
		accountPath: accountHandler,
		ledgerPath:  ledgerHandler,
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
