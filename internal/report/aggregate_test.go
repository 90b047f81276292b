package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/oshoyemi/aib-dashboard/internal/models"
)

func ts(s string) *time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestSummarize(t *testing.T) {
	incidents := []models.Incident{
		{Cell: "AIB101", DurationMins: 10, Blocking: true, AlarmStart: ts("2025-03-01 08:00:00")},
		{Cell: "AIB101", DurationMins: 20, Starving: true, AlarmStart: ts("2025-03-03 09:00:00")},
		{Cell: "AIB202", DurationMins: 5, AlarmStart: ts("2025-03-02 10:00:00")},
	}

	s := Summarize(incidents)
	if s.TotalIncidents != 3 {
		t.Errorf("expected 3 incidents, got %d", s.TotalIncidents)
	}
	if s.TotalMins != 35 {
		t.Errorf("expected 35 total mins, got %v", s.TotalMins)
	}
	if math.Abs(s.AvgMins-11.6667) > 0.001 {
		t.Errorf("expected avg ~11.667, got %v", s.AvgMins)
	}
	if s.BlockingCount != 1 || s.StarvingCount != 1 {
		t.Errorf("expected 1 blocking and 1 starving, got %d/%d", s.BlockingCount, s.StarvingCount)
	}
	if s.MinDate != "2025-03-01" || s.MaxDate != "2025-03-03" {
		t.Errorf("expected range 2025-03-01..2025-03-03, got %s..%s", s.MinDate, s.MaxDate)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalIncidents != 0 || s.AvgMins != 0 || s.MinDate != "" {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestTopCells_StableTieBreak(t *testing.T) {
	// bravo and alpha tie at 2; bravo appears first in the input so it must
	// rank first on every run.
	incidents := []models.Incident{
		{Cell: "bravo"}, {Cell: "alpha"}, {Cell: "bravo"}, {Cell: "alpha"},
		{Cell: "charlie"}, {Cell: "charlie"}, {Cell: "charlie"},
	}

	for run := 0; run < 10; run++ {
		got := TopCells(incidents, 3)
		if len(got) != 3 {
			t.Fatalf("expected 3 groups, got %d", len(got))
		}
		if got[0].Key != "charlie" || got[1].Key != "bravo" || got[2].Key != "alpha" {
			t.Fatalf("run %d: unexpected order %v", run, got)
		}
	}
}

func TestTopCells_Truncation(t *testing.T) {
	var incidents []models.Incident
	for i := 0; i < 20; i++ {
		incidents = append(incidents, models.Incident{Cell: "AIB" + string(rune('A'+i))})
	}
	got := TopCells(incidents, TopCellCount)
	if len(got) != TopCellCount {
		t.Errorf("expected %d groups, got %d", TopCellCount, len(got))
	}
}

func TestCumulativePercent(t *testing.T) {
	groups := []GroupCount{{Count: 5}, {Count: 3}, {Count: 2}}
	got := CumulativePercent(groups)
	want := []float64{50, 80, 100}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 0.0001 {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestCumulativePercent_AllZero(t *testing.T) {
	got := CumulativePercent([]GroupCount{{Count: 0}, {Count: 0}})
	for i, v := range got {
		if v != 0 {
			t.Errorf("index %d: expected 0, got %v", i, v)
		}
	}
}

func TestComponentPareto(t *testing.T) {
	incidents := []models.Incident{
		{Component: "motor"}, {Component: "motor"}, {Component: "belt"},
	}
	p := ComponentPareto(incidents, TopComponentCount)
	if len(p.Groups) != 2 || len(p.CumulativePt) != 2 {
		t.Fatalf("expected 2 groups with cumulative series, got %d/%d", len(p.Groups), len(p.CumulativePt))
	}
	if p.Groups[0].Key != "motor" {
		t.Errorf("expected motor first, got %s", p.Groups[0].Key)
	}
	if p.CumulativePt[1] != 100 {
		t.Errorf("expected last cumulative point 100, got %v", p.CumulativePt[1])
	}
}

func TestTopAlarms_DisplayTruncation(t *testing.T) {
	long := strings.Repeat("a", AlarmDisplayLen+20)
	incidents := []models.Incident{{AlarmText: long}, {AlarmText: long}}
	got := TopAlarms(incidents, TopAlarmCount)
	if len(got) != 1 {
		t.Fatalf("expected truncated texts to group together, got %d groups", len(got))
	}
	if got[0].Count != 2 {
		t.Errorf("expected count 2, got %d", got[0].Count)
	}
	if len(got[0].Key) != AlarmDisplayLen+3 {
		t.Errorf("expected %d-char key with ellipsis, got %d", AlarmDisplayLen+3, len(got[0].Key))
	}
}

func TestCellTable(t *testing.T) {
	incidents := []models.Incident{
		{Cell: "AIB101", DurationMins: 10, Blocking: true},
		{Cell: "AIB101", DurationMins: 5, Starving: true},
		{Cell: "AIB202", DurationMins: 30},
	}
	stats := CellTable(incidents, 20)
	if len(stats) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(stats))
	}
	top := stats[0]
	if top.Cell != "AIB101" || top.Count != 2 || top.Mins != 15 || top.Blocking != 1 || top.Starving != 1 {
		t.Errorf("unexpected top row: %+v", top)
	}
}

func TestCollectFacets(t *testing.T) {
	incidents := []models.Incident{
		{Site: "DC7067", Cell: "AIB2", WMWeek: "W10"},
		{Site: "DC6094", Cell: "AIB1", WMWeek: "W12"},
		{Site: "DC6094", Cell: "AIB1", WMWeek: "W11"},
		{Site: "", Cell: "", WMWeek: ""},
	}
	f := CollectFacets(incidents)
	if len(f.Sites) != 2 || f.Sites[0] != "DC6094" {
		t.Errorf("unexpected sites: %v", f.Sites)
	}
	if len(f.Cells) != 2 || f.Cells[0] != "AIB1" {
		t.Errorf("unexpected cells: %v", f.Cells)
	}
	// Weeks come back newest first.
	if len(f.Weeks) != 3 || f.Weeks[0] != "W12" || f.Weeks[2] != "W10" {
		t.Errorf("unexpected weeks: %v", f.Weeks)
	}
}
