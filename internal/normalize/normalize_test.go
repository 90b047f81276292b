package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/oshoyemi/aib-dashboard/internal/models"
)

var anchor = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

func TestWeek(t *testing.T) {
	n := New(anchor)

	ts := func(s string) *time.Time {
		v, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("bad test date %s: %v", s, err)
		}
		return &v
	}

	tests := []struct {
		name string
		in   *time.Time
		want string
	}{
		{"nil timestamp", nil, ""},
		{"anchor day", ts("2025-02-01"), "W01"},
		{"last day of week 1", ts("2025-02-07"), "W01"},
		{"first day of week 2", ts("2025-02-08"), "W02"},
		{"mid-year", ts("2025-06-15"), "W20"},
		{"week 52", ts("2026-01-30"), "W52"},
		{"wraps to W01", ts("2026-01-31"), "W01"},
		{"before anchor", ts("2025-01-31"), ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := n.Week(tc.in); got != tc.want {
				t.Errorf("Week(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestWeek_TimeOfDayIrrelevant(t *testing.T) {
	n := New(anchor)
	early := time.Date(2025, 2, 8, 0, 0, 1, 0, time.UTC)
	late := time.Date(2025, 2, 8, 23, 59, 59, 0, time.UTC)
	if n.Week(&early) != n.Week(&late) {
		t.Errorf("week label depends on time of day: %s vs %s", n.Week(&early), n.Week(&late))
	}
}

func TestCellName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"104", "AIB104"},
		{"AIB104", "AIB104"},
		{" 104 ", "AIB104"},
		{"", ""},
		{"CELL-9", "CELL-9"},
		{"10A", "10A"},
	}
	for _, tc := range tests {
		if got := CellName(tc.in); got != tc.want {
			t.Errorf("CellName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCellName_Idempotent(t *testing.T) {
	once := CellName("205")
	twice := CellName(once)
	if once != twice {
		t.Errorf("CellName not idempotent: %q then %q", once, twice)
	}
}

func TestRow_DurationRules(t *testing.T) {
	n := New(anchor)

	tests := []struct {
		name    string
		minutes string
		seconds string
		want    float64
	}{
		{"minutes preferred", "12.5", "600", 12.5},
		{"seconds fallback", "", "120", 2},
		{"both missing", "", "", 0},
		{"garbage minutes falls back", "abc", "90", 1.5},
		{"negative clamps", "-4", "", 0},
		{"nan clamps", "NaN", "", 0},
		{"inf clamps", "+Inf", "", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inc := n.Row(models.RawRow{DurationMinutes: tc.minutes, DurationSeconds: tc.seconds})
			if inc.DurationMins != tc.want {
				t.Errorf("duration = %v, want %v", inc.DurationMins, tc.want)
			}
		})
	}
}

func TestRow_BoolParsing(t *testing.T) {
	n := New(anchor)

	for _, truthy := range []string{"true", "TRUE", "t", "1", "yes", "Y"} {
		if !n.Row(models.RawRow{Blocking: truthy}).Blocking {
			t.Errorf("expected %q to parse as true", truthy)
		}
	}
	for _, falsy := range []string{"", "false", "0", "no", "junk"} {
		if n.Row(models.RawRow{Blocking: falsy}).Blocking {
			t.Errorf("expected %q to parse as false", falsy)
		}
	}
}

func TestRow_AlarmTextTruncation(t *testing.T) {
	n := New(anchor)
	long := strings.Repeat("x", models.MaxAlarmTextLen+50)
	inc := n.Row(models.RawRow{AlarmText: long})
	if len(inc.AlarmText) != models.MaxAlarmTextLen {
		t.Errorf("expected alarm text capped at %d, got %d", models.MaxAlarmTextLen, len(inc.AlarmText))
	}
}

func TestRow_TimestampAndWeek(t *testing.T) {
	n := New(anchor)

	inc := n.Row(models.RawRow{AlarmStart: "2025-03-10 08:15:00"})
	if inc.AlarmStart == nil {
		t.Fatal("expected parsed timestamp")
	}
	if inc.WMWeek != "W06" {
		t.Errorf("expected W06, got %s", inc.WMWeek)
	}

	inc = n.Row(models.RawRow{AlarmStart: "not a time"})
	if inc.AlarmStart != nil {
		t.Error("expected nil timestamp for unparseable input")
	}
	if inc.WMWeek != "" {
		t.Errorf("expected empty week label, got %s", inc.WMWeek)
	}
}

func TestRow_NeverFails(t *testing.T) {
	n := New(anchor)
	inc := n.Row(models.RawRow{
		Site:            "  DC6094 ",
		Cell:            "??",
		AlarmText:       "  jam detected  ",
		AlarmStart:      "garbage",
		DurationMinutes: "garbage",
		DurationSeconds: "garbage",
		Blocking:        "maybe",
	})
	if inc.Site != "DC6094" {
		t.Errorf("expected trimmed site, got %q", inc.Site)
	}
	if inc.AlarmText != "jam detected" {
		t.Errorf("expected trimmed alarm text, got %q", inc.AlarmText)
	}
	if inc.DurationMins != 0 || inc.AlarmStart != nil || inc.Blocking {
		t.Error("expected defaults for unparseable fields")
	}
}

func TestRows_PreservesOrder(t *testing.T) {
	n := New(anchor)
	raw := []models.RawRow{
		{Cell: "1"},
		{Cell: "2"},
		{Cell: "3"},
	}
	out := n.Rows(raw)
	if len(out) != 3 {
		t.Fatalf("expected 3 incidents, got %d", len(out))
	}
	for i, want := range []string{"AIB1", "AIB2", "AIB3"} {
		if out[i].Cell != want {
			t.Errorf("row %d: expected %s, got %s", i, want, out[i].Cell)
		}
	}
}
