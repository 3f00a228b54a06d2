package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/dialadrink/ledger/internal/app"
	"github.com/dialadrink/ledger/internal/audit"
	"github.com/dialadrink/ledger/internal/drivers"
	"github.com/dialadrink/ledger/internal/observability"
	"github.com/dialadrink/ledger/internal/penalties"
	"github.com/dialadrink/ledger/internal/platform/cache"
	"github.com/dialadrink/ledger/internal/platform/db"
	"github.com/dialadrink/ledger/internal/shared"
	"github.com/dialadrink/ledger/internal/submissions"
	"github.com/dialadrink/ledger/internal/suppliers"
	"github.com/dialadrink/ledger/internal/wallet"
	"github.com/dialadrink/ledger/jobs"
)

// balanceEvents fans out committed events to the notification queue and drops
// the cached statement of any driver whose derived balance just moved.
type balanceEvents struct {
	*jobs.Dispatcher
	cache *wallet.StatementCache
}

func (e balanceEvents) SubmissionApproved(ctx context.Context, submissionID int64, driverID *int64, amount decimal.Decimal, submissionType string) {
	if driverID != nil {
		e.cache.Invalidate(ctx, *driverID)
	}
	e.Dispatcher.SubmissionApproved(ctx, submissionID, driverID, amount, submissionType)
}

func (e balanceEvents) PenaltyCreated(ctx context.Context, penaltyID, driverID int64, amount decimal.Decimal, reason string) {
	e.cache.Invalidate(ctx, driverID)
	e.Dispatcher.PenaltyCreated(ctx, penaltyID, driverID, amount, reason)
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()
	dispatcher := jobs.NewDispatcher(asynqClient, logger)

	auditLogger := shared.NewAuditLogger(pool)

	statementCache := wallet.NewStatementCache(redisClient, cfg.StatementTTL)
	events := balanceEvents{Dispatcher: dispatcher, cache: statementCache}

	submissionsRepo := submissions.NewRepository(pool, auditLogger)
	submissionsService := submissions.NewService(submissionsRepo, events, cfg.DBOpTimeout)
	submissionsHandler := submissions.NewHandler(logger, submissionsService)

	penaltiesRepo := penalties.NewRepository(pool)
	penaltiesService := penalties.NewService(penaltiesRepo, auditLogger, events, cfg.DBOpTimeout)
	penaltiesHandler := penalties.NewHandler(logger, penaltiesService)

	driversRepo := drivers.NewRepository(pool)
	driversService := drivers.NewService(driversRepo, auditLogger, cfg.DBOpTimeout)
	driversHandler := drivers.NewHandler(logger, driversService)

	walletRepo := wallet.NewRepository(pool)
	walletService := wallet.NewService(logger, walletRepo, statementCache, cfg.DBOpTimeout)
	walletHandler := wallet.NewHandler(logger, walletService)

	suppliersRepo := suppliers.NewRepository(pool)
	suppliersService := suppliers.NewService(suppliersRepo, auditLogger, cfg.DBOpTimeout)
	suppliersHandler := suppliers.NewHandler(logger, suppliersService)

	auditRepo := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepo)
	auditHandler := audit.NewHandler(logger, auditService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SubmissionsHandler: submissionsHandler,
		PenaltiesHandler:   penaltiesHandler,
		DriversHandler:     driversHandler,
		WalletHandler:      walletHandler,
		SuppliersHandler:   suppliersHandler,
		AuditHandler:       auditHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
