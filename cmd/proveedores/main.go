package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/tdr/proveedores/internal/app"
	jobmetrics "github.com/tdr/proveedores/internal/jobs"
	"github.com/tdr/proveedores/internal/observability"
	"github.com/tdr/proveedores/internal/platform/db"
	"github.com/tdr/proveedores/internal/platform/kv"
	"github.com/tdr/proveedores/internal/shared"
	"github.com/tdr/proveedores/internal/suppliers"
	"github.com/tdr/proveedores/internal/view"
	"github.com/tdr/proveedores/jobs"
	"github.com/tdr/proveedores/report"
	"github.com/tdr/proveedores/web"
)

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

	redisClient, err := kv.Dial(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store, closeStore, err := openStore(ctx, cfg, redisClient)
	if err != nil {
		logger.Error("open storage", slog.String("driver", cfg.StorageDriver), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	metrics := observability.NewMetrics()

	repo := suppliers.NewRepository(kv.Prefixed{Store: store, Prefix: cfg.StoragePrefix})
	seeder := &suppliers.Seeder{
		Remote:   suppliers.NewHTTPSource(cfg.SeedURL, cfg.SeedTimeout),
		Fallback: suppliers.FSSource{FS: web.Data, Path: web.SeedPath},
		Logger:   logger,
	}
	service := suppliers.NewService(repo, seeder, suppliers.ServiceConfig{Logger: logger, Observer: metrics})
	unsubscribe := service.Subscribe(func(list []suppliers.Supplier) {
		metrics.SetSuppliers(len(list))
	})
	defer unsubscribe()

	list, err := service.Init(ctx)
	if err != nil {
		// The form reports the load failure; keep serving.
		logger.Error("load suppliers", slog.Any("error", err))
	} else {
		logger.Info("suppliers loaded", slog.Int("count", len(list)))
	}

	sessionManager := shared.NewSessionManager(redisClient, "proveedores_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	reportClient := report.NewClient(cfg.GotenbergURL, 30*time.Second)
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	if cfg.JobsEnabled {
		worker, err := newWorker(cfg, redisOpts, service, metrics, logger)
		if err != nil {
			logger.Error("init worker", slog.Any("error", err))
			os.Exit(1)
		}
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("worker stopped", slog.Any("error", err))
			}
		}()
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		SuppliersHandler: suppliers.NewHandler(logger, service, templates, csrfManager, reportClient),
		SuppliersAPI:     suppliers.NewAPI(logger, service),
		ReportHandler:    report.NewHandler(reportClient, logger),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
		RequestLog:       !cfg.IsProduction(),
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

func openStore(ctx context.Context, cfg *app.Config, client *redis.Client) (kv.Store, func(), error) {
	if cfg.StorageDriver != app.StoragePostgres {
		return kv.NewRedisStore(client), func() {}, nil
	}
	pool, err := db.Open(ctx, cfg.PGDSN, db.Options{MaxConns: 4})
	if err != nil {
		return nil, nil, err
	}
	store := kv.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}

func newWorker(cfg *app.Config, redisOpts asynq.RedisClientOpt, service *suppliers.Service, metrics *observability.Metrics, logger *slog.Logger) (*jobs.Worker, error) {
	var cron []jobs.CronRegistration
	if cfg.SeedRefreshCron != "" {
		task, err := jobs.NewReseedTask("cron")
		if err != nil {
			return nil, err
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.SeedRefreshCron, Task: task})
	}
	return jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{{
			Type: jobs.TaskSuppliersReseed,
			Handler: &jobs.ReseedHandler{
				Reseeder: service,
				Metrics:  jobmetrics.NewMetrics(metrics.Registerer()),
				Logger:   logger,
			},
		}},
		Cron: cron,
	})
}
