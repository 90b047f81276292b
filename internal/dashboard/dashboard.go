// Package dashboard renders the self-contained interactive HTML report.
//
// The page embeds a serialized copy of the full incident list (the
// models.Record schema) plus the filter/drill/aggregation script, so the
// artifact has no runtime dependency beyond the two CDN chart/export
// libraries referenced from the template.
package dashboard

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/oshoyemi/aib-dashboard/internal/models"
	"github.com/oshoyemi/aib-dashboard/internal/report"
)

// Data is everything the template needs for one render.
type Data struct {
	GeneratedAt string
	DateRange   string
	MinDate     string
	MaxDate     string
	Source      string

	Summary report.Summary
	Facets  report.Facets

	// Records is the embedded dataset, pre-marshaled so the template
	// drops it into the script verbatim.
	Records template.JS

	TotalRows int

	// Daily self-reload wall-clock time.
	ReloadHour   int
	ReloadMinute int
}

// Build assembles template data from the normalized incident set.
func Build(incidents []models.Incident, source string, now time.Time, reloadHour, reloadMinute int) (Data, error) {
	records := models.Records(incidents)
	payload, err := json.Marshal(records)
	if err != nil {
		return Data{}, fmt.Errorf("error serializing incidents: %w", err)
	}

	summary := report.Summarize(incidents)
	d := Data{
		GeneratedAt:  now.Format("2006-01-02 15:04:05"),
		DateRange:    "Unknown",
		MinDate:      summary.MinDate,
		MaxDate:      summary.MaxDate,
		Source:       source,
		Summary:      summary,
		Facets:       report.CollectFacets(incidents),
		Records:      template.JS(payload),
		TotalRows:    len(incidents),
		ReloadHour:   reloadHour,
		ReloadMinute: reloadMinute,
	}
	if summary.MinDate != "" {
		d.DateRange = prettyDate(summary.MinDate) + " - " + prettyDate(summary.MaxDate)
	}
	return d, nil
}

var pageTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"hours": func(mins float64) string { return fmt.Sprintf("%.1f", mins/60) },
	"avg":   func(s report.Summary) string { return fmt.Sprintf("%.2f", s.AvgMins) },
}).Parse(tmplDashboard))

// Render writes the dashboard document.
func Render(w io.Writer, d Data) error {
	return pageTemplate.Execute(w, d)
}

// RenderFile writes the document atomically: the render either fully
// succeeds or the previous file is left untouched.
func RenderFile(path string, d Data) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".dashboard-*.html")
	if err != nil {
		return fmt.Errorf("error creating temp output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Render(tmp, d); err != nil {
		tmp.Close()
		return fmt.Errorf("error rendering dashboard: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing temp output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing dashboard: %w", err)
	}
	return nil
}

func prettyDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("January 02, 2006")
}
