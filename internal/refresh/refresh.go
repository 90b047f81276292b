// Package refresh orchestrates one end-to-end pipeline run: pull raw rows
// from the warehouse (falling back to the snapshot), normalize, archive,
// and re-render the dashboard file.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oshoyemi/aib-dashboard/internal/dashboard"
	"github.com/oshoyemi/aib-dashboard/internal/metrics"
	"github.com/oshoyemi/aib-dashboard/internal/models"
	"github.com/oshoyemi/aib-dashboard/internal/normalize"
	"github.com/oshoyemi/aib-dashboard/internal/repository"
	"github.com/oshoyemi/aib-dashboard/internal/snapshot"
	"github.com/oshoyemi/aib-dashboard/internal/warehouse"
	"github.com/oshoyemi/aib-dashboard/internal/worker"
)

// Options carries the query parameters and output wiring for a Runner.
type Options struct {
	Table         string
	EquipmentType string
	RowCap        int

	FullLookbackDays    int
	RefreshLookbackDays int

	DashboardPath string
	ReloadHour    int
	ReloadMinute  int
}

// Runner executes refresh runs. Safe for sequential reuse; runs are not
// concurrent with each other.
type Runner struct {
	client     warehouse.Client
	store      *snapshot.Store
	repo       repository.IncidentRepository
	pool       *worker.Pool
	normalizer *normalize.Normalizer
	opts       Options
}

func NewRunner(client warehouse.Client, store *snapshot.Store, repo repository.IncidentRepository, pool *worker.Pool, n *normalize.Normalizer, opts Options) *Runner {
	return &Runner{
		client:     client,
		store:      store,
		repo:       repo,
		pool:       pool,
		normalizer: n,
		opts:       opts,
	}
}

// Run executes one pipeline pass for the given pull kind. On a live fetch
// failure it falls back to the snapshot; with no snapshot either, the run
// aborts and the previous dashboard file is left untouched.
func (r *Runner) Run(ctx context.Context, kind warehouse.Kind) error {
	start := time.Now()
	err := r.run(ctx, kind, start)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveRefresh(result, time.Since(start))
	return err
}

func (r *Runner) run(ctx context.Context, kind warehouse.Kind, start time.Time) error {
	rows, source, err := r.load(ctx, kind)
	if err != nil {
		return err
	}

	incidents := r.pool.Normalize(ctx, r.normalizer, rows)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("refresh canceled: %w", err)
	}

	if err := r.repo.Replace(ctx, incidents); err != nil {
		return fmt.Errorf("error archiving incidents: %w", err)
	}
	metrics.AddIncidentsArchived(len(incidents))

	renderStart := time.Now()
	d, err := dashboard.Build(incidents, source, time.Now(), r.opts.ReloadHour, r.opts.ReloadMinute)
	if err != nil {
		return fmt.Errorf("error building dashboard: %w", err)
	}
	if err := dashboard.RenderFile(r.opts.DashboardPath, d); err != nil {
		return err
	}
	metrics.ObserveRender(time.Since(renderStart))

	slog.Info("refresh complete",
		"kind", string(kind),
		"source", source,
		"rows", len(rows),
		"incidents", len(incidents),
		"dashboard", r.opts.DashboardPath,
		"elapsed", time.Since(start).Round(time.Millisecond).String())
	return nil
}

// load pulls live rows and persists the snapshot, or falls back to the
// snapshot when the pull fails. Returns the rows plus a human-readable
// source label for the dashboard footer.
func (r *Runner) load(ctx context.Context, kind warehouse.Kind) ([]models.RawRow, string, error) {
	q := warehouse.Query{
		Kind:          kind,
		Table:         r.opts.Table,
		EquipmentType: r.opts.EquipmentType,
		LookbackDays:  r.lookback(kind),
		RowCap:        r.opts.RowCap,
	}

	rows, err := r.client.Fetch(ctx, q)
	if err == nil {
		metrics.AddRowsFetched(metrics.SourceLive, len(rows))
		if saveErr := r.store.Save(rows); saveErr != nil {
			// The run proceeds on live data; only the fallback is stale.
			slog.Error("failed to persist snapshot", "path", r.store.Path, "error", saveErr)
		} else {
			slog.Info("snapshot persisted", "path", r.store.Path, "rows", len(rows))
		}
		return rows, "live warehouse query", nil
	}

	slog.Warn("live warehouse pull failed, trying snapshot", "error", err)
	if !r.store.Exists() {
		return nil, "", fmt.Errorf("warehouse pull failed and no snapshot at %s: %w", r.store.Path, err)
	}

	age := r.store.Age().Round(time.Minute)
	rows, loadErr := r.store.Load(r.opts.RowCap)
	if loadErr != nil {
		return nil, "", fmt.Errorf("warehouse pull failed (%v) and snapshot unreadable: %w", err, loadErr)
	}
	metrics.AddRowsFetched(metrics.SourceSnapshot, len(rows))
	metrics.IncSnapshotFallback()
	slog.Info("loaded snapshot fallback", "path", r.store.Path, "rows", len(rows), "age", age.String())
	return rows, fmt.Sprintf("snapshot fallback (%s old)", age), nil
}

func (r *Runner) lookback(kind warehouse.Kind) int {
	if kind == warehouse.FullPull {
		return r.opts.FullLookbackDays
	}
	return r.opts.RefreshLookbackDays
}
