package models

import "time"

// MaxAlarmTextLen caps alarm text at materialization time so the embedded
// dashboard payload stays bounded regardless of what the warehouse returns.
const MaxAlarmTextLen = 200

// RawRow is one row as returned by the warehouse, untyped except for the
// column split. Values stay strings until normalization so a bad cell never
// fails a whole pull.
type RawRow struct {
	Site            string
	Cell            string
	Component       string
	AlarmText       string
	AlarmStart      string
	AlarmEnd        string
	DurationSeconds string
	DurationMinutes string
	DC              string
	BusinessDate    string
	EquipmentType   string
	Blocking        string
	Starving        string
	Driveway        string
}

// Incident is one normalized alarm event. Incidents are immutable once
// materialized; the full set is loaded once per report generation and only
// ever filtered into derived views.
type Incident struct {
	Site         string
	Cell         string
	Component    string
	AlarmText    string
	AlarmStart   *time.Time
	DurationMins float64
	WMWeek       string // "Wnn", "" when underivable
	Blocking     bool
	Starving     bool
	Driveway     string
}

// StartDate returns the date portion of AlarmStart ("2006-01-02"), or ""
// when the start timestamp never parsed.
func (i *Incident) StartDate() string {
	if i.AlarmStart == nil {
		return ""
	}
	return i.AlarmStart.Format("2006-01-02")
}

// StartISO returns AlarmStart in RFC 3339, or "" when unset. This is the
// form embedded in the dashboard payload.
func (i *Incident) StartISO() string {
	if i.AlarmStart == nil {
		return ""
	}
	return i.AlarmStart.Format(time.RFC3339)
}
