// Package normalize turns raw warehouse rows into Incident records.
//
// Every rule here recovers locally instead of discarding the row: an
// unparseable duration becomes 0, an unparseable timestamp becomes nil and
// the week label stays empty, a missing flag is false.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oshoyemi/aib-dashboard/internal/models"
)

// Normalizer holds the fiscal-year anchor the week labels are derived from.
type Normalizer struct {
	anchor time.Time
}

func New(fiscalAnchor time.Time) *Normalizer {
	return &Normalizer{anchor: fiscalAnchor}
}

// Row converts one raw row. It never fails.
func (n *Normalizer) Row(raw models.RawRow) models.Incident {
	start := parseTimestamp(raw.AlarmStart)

	inc := models.Incident{
		Site:         strings.TrimSpace(raw.Site),
		Cell:         CellName(raw.Cell),
		Component:    strings.TrimSpace(raw.Component),
		AlarmText:    truncate(strings.TrimSpace(raw.AlarmText), models.MaxAlarmTextLen),
		AlarmStart:   start,
		DurationMins: durationMins(raw.DurationMinutes, raw.DurationSeconds),
		WMWeek:       n.Week(start),
		Blocking:     parseBool(raw.Blocking),
		Starving:     parseBool(raw.Starving),
		Driveway:     strings.TrimSpace(raw.Driveway),
	}
	return inc
}

// Rows converts a batch, preserving input order.
func (n *Normalizer) Rows(raw []models.RawRow) []models.Incident {
	out := make([]models.Incident, len(raw))
	for i := range raw {
		out[i] = n.Row(raw[i])
	}
	return out
}

// Week computes the Walmart fiscal week label for a timestamp:
// days since the anchor divided by 7, plus one, wrapping past week 52.
// A nil timestamp or one before the anchor yields "".
func (n *Normalizer) Week(t *time.Time) string {
	if t == nil {
		return ""
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := int(day.Sub(n.anchor).Hours() / 24)
	if days < 0 {
		return ""
	}
	week := days/7 + 1
	if week > 52 {
		week -= 52
	}
	return "W" + pad2(week)
}

// CellName prefixes purely numeric cell identifiers with "AIB".
// Already-prefixed or non-numeric names pass through unchanged, so the
// operation is idempotent.
func CellName(cell string) string {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return cell
	}
	if isDigits(cell) {
		return "AIB" + cell
	}
	return cell
}

// durationMins prefers the explicit minutes field, falls back to seconds/60
// and finally to 0. Negative, NaN and infinite values clamp to 0.
func durationMins(minutes, seconds string) float64 {
	if v, ok := parseFloat(minutes); ok {
		return clampDuration(v)
	}
	if v, ok := parseFloat(seconds); ok {
		return clampDuration(v / 60)
	}
	return 0
}

func clampDuration(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// timestampLayouts covers the forms the warehouse and the CSV snapshot emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999 MST",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y":
		return true
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
