package models

// Record is the serialization contract for one incident as embedded in the
// dashboard payload and returned by the JSON API. The client-side engine and
// the pipeline are tested independently against this schema, so field names
// here must not change without versioning both sides.
type Record struct {
	Site         string  `json:"site"`
	Cell         string  `json:"cell"`
	Component    string  `json:"component"`
	AlarmText    string  `json:"alarm_text"`
	AlarmStart   *string `json:"alarm_start"` // RFC 3339, null when unparsed
	DurationMins float64 `json:"duration_mins"`
	WMWeek       *string `json:"wm_week"` // "Wnn", null when underivable
	Blocking     bool    `json:"blocking"`
	Starving     bool    `json:"starving"`
	Driveway     string  `json:"driveway"`
}

// Record converts the incident to its wire form.
func (i *Incident) Record() Record {
	r := Record{
		Site:         i.Site,
		Cell:         i.Cell,
		Component:    i.Component,
		AlarmText:    i.AlarmText,
		DurationMins: i.DurationMins,
		Blocking:     i.Blocking,
		Starving:     i.Starving,
		Driveway:     i.Driveway,
	}
	if i.AlarmStart != nil {
		s := i.StartISO()
		r.AlarmStart = &s
	}
	if i.WMWeek != "" {
		w := i.WMWeek
		r.WMWeek = &w
	}
	return r
}

// Records converts a slice of incidents to wire form, preserving order.
func Records(incidents []Incident) []Record {
	out := make([]Record, len(incidents))
	for idx := range incidents {
		out[idx] = incidents[idx].Record()
	}
	return out
}
