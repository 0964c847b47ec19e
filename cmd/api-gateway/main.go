package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/UniversalTze/FormBase/api/swagger"
	"github.com/UniversalTze/FormBase/internal/events"
	"github.com/UniversalTze/FormBase/internal/handler"
	"github.com/UniversalTze/FormBase/internal/repository"
	"github.com/UniversalTze/FormBase/internal/service"
	"github.com/UniversalTze/FormBase/pkg/cache"
	"github.com/UniversalTze/FormBase/pkg/config"
	"github.com/UniversalTze/FormBase/pkg/database"
	"github.com/UniversalTze/FormBase/pkg/jobs"
	"github.com/UniversalTze/FormBase/pkg/logger"
	"github.com/UniversalTze/FormBase/pkg/postgrest"
	"github.com/UniversalTze/FormBase/pkg/storage"
)

// @title FormBase Gateway API
// @version 1.0.0
// @description Forms, fields and records over a PostgREST-style store, with filtering, map pins and exports.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type exportCleaner interface {
	Cleanup(ttl time.Duration) (int, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()
	checks := map[string]handler.Pinger{}

	client := postgrest.New(cfg.Upstream.BaseURL,
		postgrest.Credentials{Token: cfg.Upstream.Token, Username: cfg.Upstream.Username},
		cfg.Upstream.Timeout,
		postgrest.WithObserver(metricsSvc.ObserveUpstream),
		postgrest.WithLogger(logr),
	)

	var stores repository.Stores
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer db.Close() //nolint:errcheck
		stores = repository.NewSQLStores(db, cfg.Upstream.Username)
		checks["database"] = handler.PingFunc(db.PingContext)
	case config.StoreBackendPostgREST, "":
		stores = repository.NewRESTStores(client)
		checks["upstream"] = client
	default:
		logr.Fatal("unknown store backend", zap.String("backend", cfg.Store.Backend))
	}

	var bus events.Bus
	switch cfg.Events.Backend {
	case config.EventsBackendRedis:
		rdb, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close() //nolint:errcheck
		redisBus := events.NewRedisBus(rdb, cfg.Events.ChannelPrefix, logr)
		go func() {
			if err := redisBus.Run(ctx); err != nil {
				logr.Error("refresh bus stopped", zap.Error(err))
			}
		}()
		bus = redisBus
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	default:
		bus = events.NewMemoryBus()
	}

	formSvc := service.NewFormService(stores.Forms, bus, validate, logr)
	fieldSvc := service.NewFieldService(stores.Fields, stores.Forms, bus, validate, logr)
	recordSvc := service.NewRecordService(stores.Records, stores.Fields, bus, metricsSvc, validate, logr)
	mapSvc := service.NewMapService(stores.Records, stores.Fields, logr)
	browserSvc := service.NewBrowserService(recordSvc, bus, metricsSvc, logr, service.BrowserConfig{IdleTTL: cfg.Browser.IdleTTL})

	exportHandler := handler.NewExportHandler(nil)
	var (
		queue   *jobs.Queue
		cleaner exportCleaner
	)
	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		signer := storage.NewTokenSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

		var exportSvc *service.ExportService
		queue = jobs.NewQueue("exports", jobs.QueueConfig{
			Workers:    cfg.Exports.Workers,
			MaxRetries: 2,
			RetryDelay: 2 * time.Second,
			OnFailure:  func(j jobs.Job, err error) { exportSvc.MarkFailed(j, err) },
			Logger:     logr,
		})
		exportSvc = service.NewExportService(recordSvc, files, signer, queue, validate, logr, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		})
		queue.Handle(service.ExportJobType, exportSvc.Process)
		queue.Start(ctx)

		exportHandler = handler.NewExportHandler(exportSvc)
		cleaner = exportSvc
	}

	maintenance := service.NewMaintenanceService(browserSvc, cleaner, logr, service.MaintenanceConfig{
		Schedule:  cfg.Cron.MaintenanceSchedule,
		ExportTTL: cfg.Exports.SignedURLTTL,
	})
	if err := maintenance.Start(); err != nil {
		logr.Fatal("failed to schedule maintenance", zap.Error(err))
	}

	r := newRouter(cfg, logr, metricsSvc, routeHandlers{
		forms:   handler.NewFormHandler(formSvc),
		fields:  handler.NewFieldHandler(fieldSvc),
		records: handler.NewRecordHandler(recordSvc),
		maps:    handler.NewMapHandler(mapSvc),
		exports: exportHandler,
		browser: handler.NewBrowserHandler(browserSvc),
		metrics: handler.NewMetricsHandler(metricsSvc, checks),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "store", cfg.Store.Backend, "events", cfg.Events.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("server shutdown incomplete", zap.Error(err))
	}
	maintenance.Stop(shutdownCtx)
	browserSvc.CloseAll()
	if queue != nil {
		queue.Stop()
	}
}
