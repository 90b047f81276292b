package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oshoyemi/aib-dashboard/internal/config"
	"github.com/oshoyemi/aib-dashboard/internal/logging"
	"github.com/oshoyemi/aib-dashboard/internal/metrics"
	"github.com/oshoyemi/aib-dashboard/internal/normalize"
	"github.com/oshoyemi/aib-dashboard/internal/refresh"
	"github.com/oshoyemi/aib-dashboard/internal/repository"
	"github.com/oshoyemi/aib-dashboard/internal/snapshot"
	"github.com/oshoyemi/aib-dashboard/internal/warehouse"
	"github.com/oshoyemi/aib-dashboard/internal/worker"
)

// aib-refresh runs one pipeline pass and exits: pull, snapshot, normalize,
// archive, render. The full pull rebuilds the dashboard over the long
// lookback; the refresh pull is the lighter sampled variant the scheduler
// uses.
func main() {
	_ = godotenv.Load()

	kindFlag := flag.String("kind", string(warehouse.FullPull), `pull kind: "full" or "refresh"`)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)
	metrics.Init()

	kind := warehouse.FullPull
	if *kindFlag == string(warehouse.RefreshPull) {
		kind = warehouse.RefreshPull
	}

	client, cleanup, err := newWarehouseClient(cfg)
	if err != nil {
		logging.Fatalf("Failed to initialize warehouse client: %v", err)
	}
	defer cleanup()

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	runner := newRunner(cfg, client, db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx, kind); err != nil {
		logging.Fatalf("Refresh failed: %v", err)
	}
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
	// The page reloads itself a few minutes after the scheduled refresh so
	// it always picks up the fresh render.
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
