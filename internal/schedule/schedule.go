// Package schedule triggers the refresh pipeline once a day at a fixed
// wall-clock time.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/oshoyemi/aib-dashboard/internal/config"
)

// RunFunc is the scheduled action. Errors are logged, not propagated; the
// scheduler keeps going.
type RunFunc func(ctx context.Context) error

// Scheduler polls the clock once a minute and fires when it crosses the
// configured HH:MM. A fired minute is remembered so a shorter poll interval
// in tests cannot double-fire.
type Scheduler struct {
	hour   int
	minute int
	run    RunFunc

	// test seams
	interval time.Duration
	now      func() time.Time

	lastFired time.Time
}

func New(dailyAt string, run RunFunc) (*Scheduler, error) {
	hour, minute, err := config.ParseDailyAt(dailyAt)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		hour:     hour,
		minute:   minute,
		run:      run,
		interval: time.Minute,
		now:      time.Now,
	}, nil
}

// Start blocks until the context is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("scheduler started", "daily_at", time.Date(0, 1, 1, s.hour, s.minute, 0, 0, time.UTC).Format("15:04"))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			now := s.now()
			if !s.shouldFire(now) {
				continue
			}
			s.lastFired = minuteOf(now)
			slog.Info("scheduled refresh firing", "at", now.Format(time.RFC3339))
			if err := s.run(ctx); err != nil {
				slog.Error("scheduled refresh failed", "error", err)
			}
		}
	}
}

func (s *Scheduler) shouldFire(now time.Time) bool {
	if now.Hour() != s.hour || now.Minute() != s.minute {
		return false
	}
	return !minuteOf(now).Equal(s.lastFired)
}

func minuteOf(t time.Time) time.Time {
	return t.Truncate(time.Minute)
}
