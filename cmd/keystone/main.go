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

	"github.com/keystone-crm/keystone-crm/internal/app"
	"github.com/keystone-crm/keystone-crm/internal/dc"
	"github.com/keystone-crm/keystone-crm/internal/expenses"
	"github.com/keystone-crm/keystone-crm/internal/inventory"
	"github.com/keystone-crm/keystone-crm/internal/leads"
	"github.com/keystone-crm/keystone-crm/internal/metadata"
	"github.com/keystone-crm/keystone-crm/internal/observability"
	"github.com/keystone-crm/keystone-crm/internal/payments"
	"github.com/keystone-crm/keystone-crm/internal/platform/cache"
	"github.com/keystone-crm/keystone-crm/internal/platform/db"
	"github.com/keystone-crm/keystone-crm/internal/reports"
	"github.com/keystone-crm/keystone-crm/internal/shared"
	"github.com/keystone-crm/keystone-crm/internal/training"
	"github.com/keystone-crm/keystone-crm/internal/users"
	"github.com/keystone-crm/keystone-crm/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "keystone_session", cfg.SessionTTL)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	dcRepo := dc.NewRepository(dbpool)
	dcService := dc.NewService(dcRepo)
	dcService.SetAuditor(auditLogger)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo)
	inventoryService.SetAuditor(auditLogger)
	dcService.SetInventory(inventory.NewDCClient(inventoryService))

	leadsRepo := leads.NewRepository(dbpool)
	leadsService := leads.NewService(leadsRepo)
	leadsService.SetAuditor(auditLogger)
	leadsService.SetOrderCreator(dcService)

	paymentsRepo := payments.NewRepository(dbpool)
	paymentsService := payments.NewService(paymentsRepo, dcRepo)
	paymentsService.SetAuditor(auditLogger)

	expensesRepo := expenses.NewRepository(dbpool)
	expensesService := expenses.NewService(expensesRepo)
	expensesService.SetAuditor(auditLogger)

	trainingRepo := training.NewRepository(dbpool)
	trainingService := training.NewService(trainingRepo)
	trainingService.SetAuditor(auditLogger)

	reportsCache := reports.NewCache(redisClient, 10*time.Minute)
	reportsRepo := reports.NewRepository(dbpool)
	reportsService := reports.NewService(reportsRepo, expensesService, paymentsRepo, reportsCache)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		Metrics:        metrics,
		DC:             dc.NewHandler(logger, dcService, metrics),
		Metadata:       metadata.NewHandler(),
		Leads:          leads.NewHandler(logger, leadsService),
		Inventory:      inventory.NewHandler(logger, inventoryService),
		Payments:       payments.NewHandler(logger, paymentsService),
		Expenses:       expenses.NewHandler(logger, expensesService),
		Training:       training.NewHandler(logger, trainingService),
		Reports:        reports.NewHandler(logger, reportsService),
		Users:          users.NewHandler(logger, usersService),
		Jobs:           jobs.NewHandler(inspector, logger),
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
