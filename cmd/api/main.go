package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MrJamesThe3rd/bookxchange/internal/account"
	"github.com/MrJamesThe3rd/bookxchange/internal/approval"
	"github.com/MrJamesThe3rd/bookxchange/internal/catalog"
	"github.com/MrJamesThe3rd/bookxchange/internal/config"
	"github.com/MrJamesThe3rd/bookxchange/internal/database"
	"github.com/MrJamesThe3rd/bookxchange/internal/exchange"
	"github.com/MrJamesThe3rd/bookxchange/internal/export"
	bxHttp "github.com/MrJamesThe3rd/bookxchange/internal/http"
	accountHandler "github.com/MrJamesThe3rd/bookxchange/internal/http/account"
	adminHandler "github.com/MrJamesThe3rd/bookxchange/internal/http/admin"
	bookHandler "github.com/MrJamesThe3rd/bookxchange/internal/http/book"
	dashboardHandler "github.com/MrJamesThe3rd/bookxchange/internal/http/dashboard"
	requestHandler "github.com/MrJamesThe3rd/bookxchange/internal/http/request"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
	"github.com/MrJamesThe3rd/bookxchange/internal/ledger/memstore"
	ledgerStore "github.com/MrJamesThe3rd/bookxchange/internal/ledger/store"
	"github.com/MrJamesThe3rd/bookxchange/internal/logging"
	"github.com/MrJamesThe3rd/bookxchange/internal/metrics"
	"github.com/MrJamesThe3rd/bookxchange/internal/readmodel"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.App.LogLevel, cfg.App.Name, cfg.App.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	m := metrics.New(prometheus.NewRegistry())

	runner := ledger.NewRunner(repo,
		ledger.WithMaxAttempts(cfg.Ledger.MaxAttempts),
		ledger.WithBackoff(cfg.Ledger.Backoff),
		ledger.WithLogger(logger),
		ledger.WithRetryHook(m.ObserveRetry),
	)

	policy, err := exchange.ParsePricePolicy(cfg.Ledger.PricePolicy)
	if err != nil {
		logger.Error("invalid price policy", "error", err)
		os.Exit(1)
	}

	var (
		accountService  = account.NewService(repo, logger)
		approvalService = approval.NewService(runner, logger, m)
		exchangeService = exchange.NewService(runner,
			exchange.WithPricePolicy(policy),
			exchange.WithLogger(logger),
			exchange.WithMetrics(m),
		)
		readService    = readmodel.NewService(repo, logger)
		catalogService = catalog.NewService(approvalService, logger)
		exportService  = export.NewService(repo, logger)
	)

	router := bxHttp.New(bxHttp.Handlers{
		Accounts:  accountHandler.NewHandler(accountService),
		Books:     bookHandler.NewHandler(approvalService, catalogService, exchangeService, readService),
		Requests:  requestHandler.NewHandler(exchangeService),
		Dashboard: dashboardHandler.NewHandler(readService, exportService),
		Admin:     adminHandler.NewHandler(approvalService, accountService, readService),
	}, bxHttp.Options{
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		JWTIssuer:      cfg.Auth.Issuer,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Admins:         accountService,
		Metrics:        m,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	go func() {
		logger.Info("starting server", "addr", srv.Addr, "store", cfg.Store.Driver, "price_policy", policy)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down server", "error", err)
	}

	logger.Info("server stopped")
}

// openRepository returns the configured ledger store and a function that
// releases it.
func openRepository(ctx context.Context, cfg *config.Config) (ledger.Repository, func(), error) {
	if cfg.Store.Driver == "memory" {
		slog.Warn("using in-memory store; all data is lost on exit")
		return memstore.New(), func() {}, nil
	}

	db, err := database.New(cfg.ConnectionString(), database.Options{
		MaxOpenConns: cfg.DB.MaxOpenConns,
		MaxIdleConns: cfg.DB.MaxIdleConns,
	})
	if err != nil {
		return nil, nil, err
	}

	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			closeDB(db)
			return nil, nil, err
		}
	}

	return ledgerStore.New(db), func() { closeDB(db) }, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
}
