package output

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vulnverified/sitevault/internal/engine"
)

const planSheet = "Plan"

var workbookHeaders = []string{
	"Type", "App", "Database", "DB Used", "Domain",
	"Web Bytes", "DB Bytes", "Total Bytes", "Server ID", "App ID", "IPs",
}

// WriteWorkbook saves the backup plan as an xlsx workbook at path: one row
// per application with raw byte counts, and a totals row.
func WriteWorkbook(path string, result *engine.RunResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", planSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	if err := f.SetSheetRow(planSheet, "A1", &workbookHeaders); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(workbookHeaders))
	if err := f.SetCellStyle(planSheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, rec := range result.Records {
		row := []any{
			string(rec.Kind), rec.App, rec.DBName, rec.DBAccepted, rec.Domain,
			rec.WebBytes, rec.DBBytes, rec.TotalBytes(), rec.ServerID, rec.AppID, strings.Join(rec.IPs, " "),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(planSheet, cell, &row); err != nil {
			return fmt.Errorf("writing row for %s: %w", rec.App, err)
		}
	}

	totalRow := len(result.Records) + 2
	s := result.Summary
	totals := []any{"Total", fmt.Sprintf("%d apps", s.Apps), "", "", "", s.WebBytes, s.DBBytes, s.TotalBytes}
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	if err := f.SetSheetRow(planSheet, cell, &totals); err != nil {
		return fmt.Errorf("writing totals: %w", err)
	}
	end, _ := excelize.CoordinatesToCellName(len(workbookHeaders), totalRow)
	if err := f.SetCellStyle(planSheet, cell, end, bold); err != nil {
		return fmt.Errorf("styling totals: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}
