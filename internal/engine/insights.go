package engine

import (
	"fmt"
	"sort"

	"github.com/oshoyemi/aib-dashboard/internal/models"
	"github.com/oshoyemi/aib-dashboard/internal/report"
)

// AlarmLoss is one alarm-text group ranked by summed downtime.
type AlarmLoss struct {
	Alarm string  `json:"alarm"`
	Mins  float64 `json:"mins"`
	Count int     `json:"count"`
}

// Recommendation severity levels, mapped to styling in the dashboard.
const (
	RecHigh   = "high"
	RecMedium = "medium"
)

type Recommendation struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Insights is the weekly drill-in block, computed over the filtered subset
// when a concrete week is selected.
type Insights struct {
	Week               string              `json:"week"`
	TopLoss            []AlarmLoss         `json:"top_loss"`
	TopBlocking        []report.GroupCount `json:"top_blocking"`
	TopStarving        []report.GroupCount `json:"top_starving"`
	ImpactedCell       string              `json:"impacted_cell"`
	ImpactedCellMins   float64             `json:"impacted_cell_mins"`
	ImpactedCellCount  int                 `json:"impacted_cell_count"`
	ImpactedCellAlarms []report.GroupCount `json:"impacted_cell_alarms"`
	BlockingTotal      int                 `json:"blocking_total"`
	StarvingTotal      int                 `json:"starving_total"`
	Recommendations    []Recommendation    `json:"recommendations"`
}

// WeeklyInsights computes the weekly view: top 3 loss alarms by downtime,
// top 3 blocking and starving alarms by count, the most-impacted cell with
// its top 3 alarms, and a deterministic recommendation list derived from
// those four.
func WeeklyInsights(subset []models.Incident, week string) Insights {
	ins := Insights{Week: week}

	ins.TopLoss = topLossAlarms(subset, 3)

	var blockingRows, starvingRows []models.Incident
	for i := range subset {
		if subset[i].Blocking {
			blockingRows = append(blockingRows, subset[i])
		}
		if subset[i].Starving {
			starvingRows = append(starvingRows, subset[i])
		}
	}
	ins.BlockingTotal = len(blockingRows)
	ins.StarvingTotal = len(starvingRows)
	ins.TopBlocking = topAlarmCounts(blockingRows, 3)
	ins.TopStarving = topAlarmCounts(starvingRows, 3)

	cell, mins, count, alarms := mostImpactedCell(subset)
	ins.ImpactedCell = cell
	ins.ImpactedCellMins = mins
	ins.ImpactedCellCount = count
	ins.ImpactedCellAlarms = alarms

	ins.Recommendations = recommendations(&ins)
	return ins
}

func topLossAlarms(incidents []models.Incident, n int) []AlarmLoss {
	index := make(map[string]int)
	var groups []AlarmLoss
	for i := range incidents {
		inc := &incidents[i]
		j, ok := index[inc.AlarmText]
		if !ok {
			j = len(groups)
			index[inc.AlarmText] = j
			groups = append(groups, AlarmLoss{Alarm: inc.AlarmText})
		}
		groups[j].Mins += inc.DurationMins
		groups[j].Count++
	}
	sortStableByMins(groups)
	if len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

func topAlarmCounts(incidents []models.Incident, n int) []report.GroupCount {
	index := make(map[string]int)
	var groups []report.GroupCount
	for i := range incidents {
		k := incidents[i].AlarmText
		j, ok := index[k]
		if !ok {
			j = len(groups)
			index[k] = j
			groups = append(groups, report.GroupCount{Key: k})
		}
		groups[j].Count++
	}
	sort.SliceStable(groups, func(a, b int) bool { return groups[a].Count > groups[b].Count })
	if len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

// mostImpactedCell picks the cell with the highest summed downtime and its
// top 3 alarm-text groups by count.
func mostImpactedCell(incidents []models.Incident) (cell string, mins float64, count int, alarms []report.GroupCount) {
	type cellAgg struct {
		cell  string
		mins  float64
		count int
		rows  []models.Incident
	}
	index := make(map[string]int)
	var cells []cellAgg
	for i := range incidents {
		inc := &incidents[i]
		j, ok := index[inc.Cell]
		if !ok {
			j = len(cells)
			index[inc.Cell] = j
			cells = append(cells, cellAgg{cell: inc.Cell})
		}
		cells[j].mins += inc.DurationMins
		cells[j].count++
		cells[j].rows = append(cells[j].rows, *inc)
	}
	if len(cells) == 0 {
		return "", 0, 0, nil
	}
	sort.SliceStable(cells, func(a, b int) bool { return cells[a].mins > cells[b].mins })
	top := cells[0]
	return top.cell, top.mins, top.count, topAlarmCounts(top.rows, 3)
}

// recommendations derives the ordered callout list: the top loss alarm, the
// most-impacted cell, then blocking and starving callouts when any such
// rows exist.
func recommendations(ins *Insights) []Recommendation {
	var recs []Recommendation
	if len(ins.TopLoss) > 0 {
		top := ins.TopLoss[0]
		recs = append(recs, Recommendation{
			Level: RecHigh,
			Text:  fmt.Sprintf("Fix: %q - %.0f mins lost", shortAlarm(top.Alarm), top.Mins),
		})
	}
	if ins.ImpactedCell != "" {
		recs = append(recs, Recommendation{
			Level: RecHigh,
			Text:  fmt.Sprintf("Focus: %s needs attention (%d alarms)", ins.ImpactedCell, ins.ImpactedCellCount),
		})
	}
	if ins.BlockingTotal > 0 {
		recs = append(recs, Recommendation{
			Level: RecMedium,
			Text:  fmt.Sprintf("Blocking: %d blocking alarms impacting flow", ins.BlockingTotal),
		})
	}
	if ins.StarvingTotal > 0 {
		recs = append(recs, Recommendation{
			Level: RecMedium,
			Text:  fmt.Sprintf("Starving: %d starving alarms - check upstream", ins.StarvingTotal),
		})
	}
	return recs
}

func shortAlarm(s string) string {
	const n = 35
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
