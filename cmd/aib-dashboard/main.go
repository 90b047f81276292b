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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/oshoyemi/aib-dashboard/internal/api"
	"github.com/oshoyemi/aib-dashboard/internal/config"
	"github.com/oshoyemi/aib-dashboard/internal/logging"
	"github.com/oshoyemi/aib-dashboard/internal/metrics"
	"github.com/oshoyemi/aib-dashboard/internal/normalize"
	"github.com/oshoyemi/aib-dashboard/internal/refresh"
	"github.com/oshoyemi/aib-dashboard/internal/repository"
	"github.com/oshoyemi/aib-dashboard/internal/schedule"
	"github.com/oshoyemi/aib-dashboard/internal/snapshot"
	"github.com/oshoyemi/aib-dashboard/internal/warehouse"
	"github.com/oshoyemi/aib-dashboard/internal/worker"
)

// aib-dashboard serves the rendered report and the incident API, and runs
// the daily scheduled refresh in-process.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)
	metrics.Init()

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	client, cleanup, err := newWarehouseClient(cfg)
	if err != nil {
		logging.Fatalf("Failed to initialize warehouse client: %v", err)
	}
	defer cleanup()

	runner := newRunner(cfg, client, db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched, err := schedule.New(cfg.Refresh.DailyAt, func(ctx context.Context) error {
		return runner.Run(ctx, warehouse.RefreshPull)
	})
	if err != nil {
		logging.Fatalf("Failed to initialize scheduler: %v", err)
	}
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Start(ctx)
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(5)) // 5 req/s global limit

	handler := api.NewHandler(db, runner, cfg.Paths.DashboardFile)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	<-schedDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}

func newWarehouseClient(cfg *config.Config) (warehouse.Client, func(), error) {
	if cfg.Warehouse.Driver == "postgres" {
		pg, err := warehouse.NewPostgresClient(cfg.Warehouse.PostgresDSN, cfg.Warehouse.QueryTimeout)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil
	}
	return warehouse.NewBQCLIClient(cfg.Warehouse.QueryTimeout), func() {}, nil
}

func newRunner(cfg *config.Config, client warehouse.Client, db *repository.SQLiteDB) *refresh.Runner {
	hour, minute, _ := config.ParseDailyAt(cfg.Refresh.DailyAt)
	minute += 5
	if minute >= 60 {
		minute -= 60
		hour = (hour + 1) % 24
	}

	return refresh.NewRunner(
		client,
		snapshot.NewStore(cfg.Paths.SnapshotFile),
		db,
		worker.NewPool(cfg.Worker.Count, cfg.Worker.BufferSize),
		normalize.New(cfg.FiscalAnchorTime()),
		refresh.Options{
			Table:               cfg.Warehouse.Table,
			EquipmentType:       cfg.Warehouse.EquipmentType,
			RowCap:              cfg.Warehouse.RowCap,
			FullLookbackDays:    cfg.Refresh.FullLookbackDays,
			RefreshLookbackDays: cfg.Refresh.RefreshLookbackDays,
			DashboardPath:       cfg.Paths.DashboardFile,
			ReloadHour:          hour,
			ReloadMinute:        minute,
		},
	)
}
