package record

import (
	"context"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const fineReportSheet = "Fines"

// ExportFineSummary renders the fine pivot as an xlsx workbook: one row per
// user, one column per week label, initial fine and total alongside.
func (s *service) ExportFineSummary(ctx context.Context) ([]byte, error) {
	rows, err := s.GetFineSummary(ctx)
	if err != nil {
		return nil, err
	}

	weekSet := make(map[string]bool)
	for _, row := range rows {
		for week := range row.Weeks {
			weekSet[week] = true
		}
	}
	weeks := make([]string, 0, len(weekSet))
	for week := range weekSet {
		weeks = append(weeks, week)
	}
	sort.Strings(weeks)

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(fineReportSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(fineReportSheet, "A1", "Name")
	f.SetCellValue(fineReportSheet, "B1", "Initial")
	for i, week := range weeks {
		col, _ := excelize.ColumnNumberToName(3 + i)
		f.SetCellValue(fineReportSheet, col+"1", week)
	}
	totalCol, _ := excelize.ColumnNumberToName(3 + len(weeks))
	f.SetCellValue(fineReportSheet, totalCol+"1", "Total")
	f.SetCellStyle(fineReportSheet, "A1", totalCol+"1", headerStyle)

	f.SetColWidth(fineReportSheet, "A", "A", 18)

	for r, row := range rows {
		line := r + 2
		f.SetCellValue(fineReportSheet, fmt.Sprintf("A%d", line), row.Name)
		f.SetCellValue(fineReportSheet, fmt.Sprintf("B%d", line), row.InitialFine)
		for i, week := range weeks {
			col, _ := excelize.ColumnNumberToName(3 + i)
			f.SetCellValue(fineReportSheet, fmt.Sprintf("%s%d", col, line), row.Weeks[week])
		}
		f.SetCellValue(fineReportSheet, fmt.Sprintf("%s%d", totalCol, line), row.Total)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	s.logger.Info("fine report exported",
		zap.Int("users", len(rows)),
		zap.Int("weeks", len(weeks)))

	return buf.Bytes(), nil
}
