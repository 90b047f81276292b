package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew_RejectsBadTime(t *testing.T) {
	if _, err := New("25:99", func(ctx context.Context) error { return nil }); err == nil {
		t.Error("expected error for invalid HH:MM value")
	}
	if _, err := New("05:00", func(ctx context.Context) error { return nil }); err != nil {
		t.Errorf("expected valid HH:MM to parse, got %v", err)
	}
}

func TestScheduler_FiresAtConfiguredMinute(t *testing.T) {
	var runs atomic.Int64
	s, err := New("05:00", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Fast poll against a frozen clock inside the configured minute. The
	// fired-minute guard must keep this at exactly one run.
	fixed := time.Date(2025, 4, 10, 5, 0, 30, 0, time.UTC)
	s.interval = time.Millisecond
	s.now = func() time.Time { return fixed }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if got := runs.Load(); got != 1 {
		t.Errorf("expected exactly 1 run, got %d", got)
	}
}

func TestScheduler_DoesNotFireOffSchedule(t *testing.T) {
	var runs atomic.Int64
	s, err := New("05:00", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	s.interval = time.Millisecond
	s.now = func() time.Time { return time.Date(2025, 4, 10, 5, 1, 0, 0, time.UTC) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if got := runs.Load(); got != 0 {
		t.Errorf("expected no runs off schedule, got %d", got)
	}
}

func TestScheduler_FiresAgainNextDay(t *testing.T) {
	var runs atomic.Int64
	s, err := New("05:00", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	day1 := time.Date(2025, 4, 10, 5, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	if !s.shouldFire(day1) {
		t.Fatal("expected fire on day 1")
	}
	s.lastFired = minuteOf(day1)

	if s.shouldFire(day1.Add(20 * time.Second)) {
		t.Error("must not refire within the same minute")
	}
	if !s.shouldFire(day2) {
		t.Error("expected fire on day 2")
	}
}

func TestScheduler_KeepsGoingAfterRunError(t *testing.T) {
	var runs atomic.Int64
	s, err := New("05:00", func(ctx context.Context) error {
		runs.Add(1)
		return context.DeadlineExceeded
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Two distinct scheduled minutes, both erroring.
	times := []time.Time{
		time.Date(2025, 4, 10, 5, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 11, 5, 0, 0, 0, time.UTC),
	}
	var idx atomic.Int64
	s.interval = time.Millisecond
	s.now = func() time.Time {
		i := idx.Add(1)
		if int(i) <= len(times) {
			return times[i-1]
		}
		return times[len(times)-1].Add(time.Minute)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Start(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if got := runs.Load(); got != 2 {
		t.Errorf("expected 2 runs despite errors, got %d", got)
	}
}
