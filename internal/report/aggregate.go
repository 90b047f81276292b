// Package report computes summary metrics and ranked chart groupings over a
// set of incidents. All groupings rank count-descending with ties broken by
// first-encountered order, so repeated runs over the same input produce the
// same chart layout.
package report

import (
	"sort"

	"github.com/oshoyemi/aib-dashboard/internal/models"
)

const (
	TopCellCount      = 15
	TopComponentCount = 15
	TopAlarmCount     = 10

	// AlarmDisplayLen is how much alarm text the charts show before
	// truncating with an ellipsis.
	AlarmDisplayLen = 50
)

// Summary is the metric-card block. It always reflects the filter
// predicate, never the drill selections.
type Summary struct {
	TotalIncidents int     `json:"total_incidents"`
	TotalMins      float64 `json:"total_mins"`
	AvgMins        float64 `json:"avg_mins"`
	BlockingCount  int     `json:"blocking_count"`
	StarvingCount  int     `json:"starving_count"`
	MinDate        string  `json:"min_date"`
	MaxDate        string  `json:"max_date"`
}

// GroupCount is one ranked bar.
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// CellStat is one row of the cell statistics table.
type CellStat struct {
	Cell     string  `json:"cell"`
	Count    int     `json:"count"`
	Mins     float64 `json:"mins"`
	Blocking int     `json:"blocking"`
	Starving int     `json:"starving"`
}

// Pareto pairs the ranked component bars with the cumulative-percentage
// line series.
type Pareto struct {
	Groups       []GroupCount `json:"groups"`
	CumulativePt []float64    `json:"cumulative_pct"`
}

// Facets lists the distinct values the filter controls are populated from.
type Facets struct {
	Sites []string `json:"sites"`
	Cells []string `json:"cells"`
	Weeks []string `json:"weeks"` // descending
}

// Summarize computes the metric cards over the full input.
func Summarize(incidents []models.Incident) Summary {
	var s Summary
	s.TotalIncidents = len(incidents)
	for i := range incidents {
		inc := &incidents[i]
		s.TotalMins += inc.DurationMins
		if inc.Blocking {
			s.BlockingCount++
		}
		if inc.Starving {
			s.StarvingCount++
		}
		if d := inc.StartDate(); d != "" {
			if s.MinDate == "" || d < s.MinDate {
				s.MinDate = d
			}
			if d > s.MaxDate {
				s.MaxDate = d
			}
		}
	}
	if s.TotalIncidents > 0 {
		s.AvgMins = s.TotalMins / float64(s.TotalIncidents)
	}
	return s
}

// TopCells ranks cells by incident count, top n.
func TopCells(incidents []models.Incident, n int) []GroupCount {
	return topN(incidents, n, func(inc *models.Incident) string { return inc.Cell })
}

// TopComponents ranks components by incident count, top n.
func TopComponents(incidents []models.Incident, n int) []GroupCount {
	return topN(incidents, n, func(inc *models.Incident) string { return inc.Component })
}

// TopAlarms ranks display-truncated alarm texts by count, top n.
func TopAlarms(incidents []models.Incident, n int) []GroupCount {
	return topN(incidents, n, func(inc *models.Incident) string {
		return DisplayAlarm(inc.AlarmText)
	})
}

// ComponentPareto ranks components and computes the cumulative-% series
// over the ranked counts.
func ComponentPareto(incidents []models.Incident, n int) Pareto {
	groups := TopComponents(incidents, n)
	return Pareto{Groups: groups, CumulativePt: CumulativePercent(groups)}
}

// CumulativePercent converts ranked counts into a running percentage of
// their own total. An all-zero ranking yields all zeros.
func CumulativePercent(groups []GroupCount) []float64 {
	total := 0
	for _, g := range groups {
		total += g.Count
	}
	out := make([]float64, len(groups))
	if total == 0 {
		return out
	}
	sum := 0
	for i, g := range groups {
		sum += g.Count
		out[i] = float64(sum) / float64(total) * 100
	}
	return out
}

// CellTable builds the per-cell statistics table, ranked by count, top n.
func CellTable(incidents []models.Incident, n int) []CellStat {
	index := make(map[string]int)
	var stats []CellStat
	for i := range incidents {
		inc := &incidents[i]
		j, ok := index[inc.Cell]
		if !ok {
			j = len(stats)
			index[inc.Cell] = j
			stats = append(stats, CellStat{Cell: inc.Cell})
		}
		stats[j].Count++
		stats[j].Mins += inc.DurationMins
		if inc.Blocking {
			stats[j].Blocking++
		}
		if inc.Starving {
			stats[j].Starving++
		}
	}
	sort.SliceStable(stats, func(a, b int) bool { return stats[a].Count > stats[b].Count })
	if n > 0 && len(stats) > n {
		stats = stats[:n]
	}
	return stats
}

// CollectFacets gathers distinct sites and cells (ascending) and week
// labels (descending) for filter population.
func CollectFacets(incidents []models.Incident) Facets {
	sites := make(map[string]struct{})
	cells := make(map[string]struct{})
	weeks := make(map[string]struct{})
	for i := range incidents {
		inc := &incidents[i]
		if inc.Site != "" {
			sites[inc.Site] = struct{}{}
		}
		if inc.Cell != "" {
			cells[inc.Cell] = struct{}{}
		}
		if inc.WMWeek != "" {
			weeks[inc.WMWeek] = struct{}{}
		}
	}
	f := Facets{
		Sites: sortedKeys(sites, false),
		Cells: sortedKeys(cells, false),
		Weeks: sortedKeys(weeks, true),
	}
	return f
}

// DisplayAlarm truncates alarm text for chart labels.
func DisplayAlarm(text string) string {
	if len(text) > AlarmDisplayLen {
		return text[:AlarmDisplayLen] + "..."
	}
	return text
}

// topN counts incidents per key in first-encountered order, then ranks
// count-descending with a stable sort so ties keep input order.
func topN(incidents []models.Incident, n int, key func(*models.Incident) string) []GroupCount {
	index := make(map[string]int)
	var groups []GroupCount
	for i := range incidents {
		k := key(&incidents[i])
		j, ok := index[k]
		if !ok {
			j = len(groups)
			index[k] = j
			groups = append(groups, GroupCount{Key: k})
		}
		groups[j].Count++
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].Count > groups[b].Count })
	if n > 0 && len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

func sortedKeys(m map[string]struct{}, desc bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	if desc {
		sort.Sort(sort.Reverse(sort.StringSlice(out)))
	} else {
		sort.Strings(out)
	}
	return out
}
