package dashboard

import (
	"bytes"
	"os"
	"path/filepath"
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

func testIncidents() []models.Incident {
	return []models.Incident{
		{Site: "DC6094", Cell: "AIB101", Component: "motor", AlarmText: "jam detected", AlarmStart: ts("2025-04-01 08:00:00"), DurationMins: 10, WMWeek: "W10", Blocking: true},
		{Site: "DC7067", Cell: "AIB202", Component: "belt", AlarmText: "belt slip", AlarmStart: ts("2025-04-09 09:00:00"), DurationMins: 20, WMWeek: "W11", Starving: true},
	}
}

func TestBuild(t *testing.T) {
	now := time.Date(2025, 4, 10, 5, 5, 0, 0, time.UTC)
	d, err := Build(testIncidents(), "live warehouse query", now, 5, 5)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if d.TotalRows != 2 {
		t.Errorf("expected 2 rows, got %d", d.TotalRows)
	}
	if d.Summary.TotalIncidents != 2 || d.Summary.TotalMins != 30 {
		t.Errorf("unexpected summary: %+v", d.Summary)
	}
	if d.MinDate != "2025-04-01" || d.MaxDate != "2025-04-09" {
		t.Errorf("unexpected date bounds: %s..%s", d.MinDate, d.MaxDate)
	}
	if d.DateRange != "April 01, 2025 - April 09, 2025" {
		t.Errorf("unexpected date range: %s", d.DateRange)
	}
	if !strings.Contains(string(d.Records), `"cell":"AIB101"`) {
		t.Errorf("records payload missing incident: %s", d.Records)
	}
}

func TestBuild_Empty(t *testing.T) {
	d, err := Build(nil, "snapshot fallback", time.Now(), 5, 5)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if d.DateRange != "Unknown" {
		t.Errorf("expected Unknown range for empty set, got %s", d.DateRange)
	}
}

func TestRender(t *testing.T) {
	now := time.Date(2025, 4, 10, 5, 5, 0, 0, time.UTC)
	d, err := Build(testIncidents(), "live warehouse query", now, 5, 5)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, d); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		`"alarm_text":"jam detected"`, // embedded dataset
		`"blocking":true`,
		`<div class="metric-value" id="metricTotal">2</div>`,
		`<div class="metric-value" id="metricDowntime">0.5</div>`,
		`<div class="metric-value" id="metricAvg">15.00</div>`,
		`<option value="W11">W11</option>`, // week facet, newest first
		`<option value="DC6094">DC6094</option>`,
		`<option value="AIB202">AIB202</option>`,
		`value="2025-04-01"`, // start date input
		"const reloadHour = 5;",
		"const reloadMinute = 5;",
		"function applyFilters()",
		"function scheduleAutoReload()",
		"live warehouse query",
		"chart.js@4.4.0",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}

	// No unexpanded template actions survive the render.
	if strings.Contains(html, "{{") {
		t.Error("rendered page contains unexpanded template syntax")
	}
}

func TestRender_ScriptEscaping(t *testing.T) {
	incidents := []models.Incident{
		{Site: "DC6094", Cell: "AIB101", AlarmText: `fault </script> "quoted" & <b>`, DurationMins: 1},
	}
	d, err := Build(incidents, "live warehouse query", time.Now(), 5, 5)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, d); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	// encoding/json escapes the closing tag, so the embedded payload cannot
	// terminate the script element early.
	if strings.Contains(buf.String(), "</script> \"quoted\"") {
		t.Error("alarm text broke out of the script element")
	}
}

func TestRenderFile_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dashboard.html")

	d, err := Build(testIncidents(), "live warehouse query", time.Now(), 5, 5)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if err := RenderFile(path, d); err != nil {
		t.Fatalf("RenderFile failed: %v", err)
	}
	if err := RenderFile(path, d); err != nil {
		t.Fatalf("second RenderFile failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the dashboard file, got %d entries", len(entries))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.HasPrefix(string(content), "<!DOCTYPE html>") {
		t.Error("unexpected file content")
	}
}
