// Package export renders incident sets as XLSX workbooks for the download
// endpoint.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/oshoyemi/aib-dashboard/internal/models"
	"github.com/oshoyemi/aib-dashboard/internal/report"
)

var incidentHeaders = []string{
	"Site", "Cell", "Component", "Alarm Text", "Alarm Start",
	"Duration (mins)", "WM Week", "Blocking", "Starving", "Driveway",
}

// WriteIncidentsXLSX writes a two-sheet workbook: a summary sheet with the
// metric-card values and an incidents sheet with one row per incident.
func WriteIncidentsXLSX(w io.Writer, incidents []models.Incident) error {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	incidentsSheet := "incidents"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(incidentsSheet); err != nil {
		return fmt.Errorf("error creating incidents sheet: %w", err)
	}

	s := report.Summarize(incidents)
	_ = f.SetCellValue(summarySheet, "A1", "AIB Alarm Summary")
	_ = f.SetCellValue(summarySheet, "A3", "Total Incidents")
	_ = f.SetCellValue(summarySheet, "B3", s.TotalIncidents)
	_ = f.SetCellValue(summarySheet, "A4", "Total Downtime (mins)")
	_ = f.SetCellValue(summarySheet, "B4", s.TotalMins)
	_ = f.SetCellValue(summarySheet, "A5", "Avg Duration (mins)")
	_ = f.SetCellValue(summarySheet, "B5", s.AvgMins)
	_ = f.SetCellValue(summarySheet, "A6", "Blocking")
	_ = f.SetCellValue(summarySheet, "B6", s.BlockingCount)
	_ = f.SetCellValue(summarySheet, "A7", "Starving")
	_ = f.SetCellValue(summarySheet, "B7", s.StarvingCount)
	_ = f.SetCellValue(summarySheet, "A8", "Date Range")
	_ = f.SetCellValue(summarySheet, "B8", s.MinDate+" to "+s.MaxDate)

	for col, h := range incidentHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("error addressing header cell: %w", err)
		}
		_ = f.SetCellValue(incidentsSheet, cell, h)
	}
	for i := range incidents {
		inc := &incidents[i]
		row := i + 2
		values := []interface{}{
			inc.Site, inc.Cell, inc.Component, inc.AlarmText, inc.StartISO(),
			inc.DurationMins, inc.WMWeek, inc.Blocking, inc.Starving, inc.Driveway,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("error addressing row cell: %w", err)
			}
			_ = f.SetCellValue(incidentsSheet, cell, v)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
