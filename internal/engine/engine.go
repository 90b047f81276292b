// Package engine is the filter, drill-down and re-aggregation logic behind
// the dashboard. The same logic ships embedded as JavaScript inside the
// rendered page; this package is its testable server-side twin and backs
// the JSON view API.
//
// State is explicit: Filters and Selection are passed into and returned
// from every operation, never held in package globals.
package engine

import (
	"sort"

	"github.com/oshoyemi/aib-dashboard/internal/models"
	"github.com/oshoyemi/aib-dashboard/internal/report"
)

// All is the sentinel meaning "no predicate on this dimension".
const All = "ALL"

// Alarm classes accepted by Filters.Class.
const (
	ClassBlocking = "BLOCKING"
	ClassStarving = "STARVING"
)

// CellTableRows caps the statistics table.
const CellTableRows = 20

// Filters is the working filter predicate. All active predicates are
// conjoined.
type Filters struct {
	Week      string   `json:"week"`
	Sites     []string `json:"sites"`
	Cells     []string `json:"cells"`
	Class     string   `json:"class"`
	StartDate string   `json:"start_date"` // inclusive, "2006-01-02"
	EndDate   string   `json:"end_date"`   // inclusive
}

// DefaultFilters is the unfiltered full-dataset state.
func DefaultFilters() Filters {
	return Filters{
		Week:  All,
		Sites: []string{All},
		Cells: []string{All},
		Class: All,
	}
}

// Selection holds the two orthogonal drill selections. Selections narrow
// the charts downstream of them without touching the metric cards.
type Selection struct {
	Cell      string `json:"cell"`
	Component string `json:"component"`
}

// ToggleCell selects a cell, clears it when re-selected, and always clears
// any active component selection; the component drill only makes sense
// inside a fixed cell.
func (s Selection) ToggleCell(cell string) Selection {
	if s.Cell == cell {
		return Selection{}
	}
	return Selection{Cell: cell}
}

// ToggleComponent selects a component with the same toggle semantics,
// preserving the cell selection.
func (s Selection) ToggleComponent(component string) Selection {
	if s.Component == component {
		s.Component = ""
		return s
	}
	s.Component = component
	return s
}

// Reset returns the initial state: no filters, no drill.
func Reset() (Filters, Selection) {
	return DefaultFilters(), Selection{}
}

// View is one fully recomputed dashboard state.
type View struct {
	Summary    report.Summary      `json:"summary"`
	Cells      []report.GroupCount `json:"cells"`
	Components report.Pareto       `json:"components"`
	Alarms     []report.GroupCount `json:"alarms"`
	Table      []report.CellStat   `json:"table"`

	// Insights is non-nil only when a concrete week filter is active.
	Insights *Insights `json:"insights,omitempty"`
}

// Apply recomputes the filtered subset and every derived metric and chart
// grouping. Synchronous and total: the dataset is bounded by the fetcher's
// row cap, so a full pass per interaction is fine.
func Apply(all []models.Incident, f Filters, sel Selection) View {
	filtered := Filter(all, f)

	v := View{
		Summary: report.Summarize(filtered),
		Cells:   report.TopCells(filtered, report.TopCellCount),
		Table:   report.CellTable(filtered, CellTableRows),
	}

	// Drill narrowing: the cell selection scopes the component and alarm
	// charts, the component selection further scopes only the alarm chart.
	drill := filtered
	if sel.Cell != "" {
		drill = filterCell(filtered, sel.Cell)
	}
	v.Components = report.ComponentPareto(drill, report.TopComponentCount)

	alarmRows := drill
	if sel.Component != "" {
		alarmRows = filterComponent(drill, sel.Component)
	}
	v.Alarms = report.TopAlarms(alarmRows, report.TopAlarmCount)

	if f.Week != "" && f.Week != All {
		ins := WeeklyInsights(filtered, f.Week)
		v.Insights = &ins
	}
	return v
}

// Filter returns the subset satisfying every active predicate. The result
// is always a narrowing of the input; the ALL sentinel on a dimension is
// equivalent to omitting that predicate.
func Filter(all []models.Incident, f Filters) []models.Incident {
	out := make([]models.Incident, 0, len(all))
	siteSet := memberSet(f.Sites)
	cellSet := memberSet(f.Cells)
	for i := range all {
		if matches(&all[i], f, siteSet, cellSet) {
			out = append(out, all[i])
		}
	}
	return out
}

func matches(inc *models.Incident, f Filters, sites, cells map[string]struct{}) bool {
	if f.Week != "" && f.Week != All && inc.WMWeek != f.Week {
		return false
	}
	if sites != nil {
		if _, ok := sites[inc.Site]; !ok {
			return false
		}
	}
	if cells != nil {
		if _, ok := cells[inc.Cell]; !ok {
			return false
		}
	}
	switch f.Class {
	case ClassBlocking:
		if !inc.Blocking {
			return false
		}
	case ClassStarving:
		if !inc.Starving {
			return false
		}
	}
	// Date-range comparison runs on the date portion only, and rows with
	// no parsed start timestamp pass through.
	if d := inc.StartDate(); d != "" {
		if f.StartDate != "" && d < f.StartDate {
			return false
		}
		if f.EndDate != "" && d > f.EndDate {
			return false
		}
	}
	return true
}

// memberSet returns nil (no predicate) when the list is empty or carries
// the ALL sentinel.
func memberSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == All {
			return nil
		}
		set[v] = struct{}{}
	}
	return set
}

func filterCell(incidents []models.Incident, cell string) []models.Incident {
	out := make([]models.Incident, 0, len(incidents))
	for i := range incidents {
		if incidents[i].Cell == cell {
			out = append(out, incidents[i])
		}
	}
	return out
}

func filterComponent(incidents []models.Incident, component string) []models.Incident {
	out := make([]models.Incident, 0, len(incidents))
	for i := range incidents {
		if incidents[i].Component == component {
			out = append(out, incidents[i])
		}
	}
	return out
}

// sortStableByMins ranks loss groups duration-descending, ties keeping
// first-encountered order.
func sortStableByMins(groups []AlarmLoss) {
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].Mins > groups[b].Mins })
}
