package handlers

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"tally/internal/money"
	"tally/internal/period"
	"tally/internal/services"
)

const (
	summarySheet = "Summary"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var summaryHeaders = []string{"Category", "Budget", "Spent", "Remaining", "Used (%)", "Status"}

var cellBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
}

// summaryWorkbook renders one month's budget summary as a single-sheet
// workbook with a totals row. The caller must Close the file.
func summaryWorkbook(month time.Time, rows []services.BudgetSummary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder,
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	dataStyle, err := f.NewStyle(&excelize.Style{Border: cellBorder})
	if err != nil {
		f.Close()
		return nil, err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Border: cellBorder,
	})
	if err != nil {
		f.Close()
		return nil, err
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 24)
	_ = f.SetColWidth(summarySheet, "B", "E", 12)
	_ = f.SetColWidth(summarySheet, "F", "F", 16)

	for i, header := range summaryHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(summarySheet, cell, header)
		_ = f.SetCellStyle(summarySheet, cell, cell, headerStyle)
	}

	totalBudget, totalSpent := decimal.Zero, decimal.Zero
	for i, s := range rows {
		row := i + 2
		values := []interface{}{s.Category, s.Budget, s.Spent, s.Remaining, s.PercentageUsed, string(s.Status)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(summarySheet, cell, v)
		}
		_ = f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), dataStyle)
		totalBudget = totalBudget.Add(s.BudgetAmount)
		totalSpent = totalSpent.Add(s.SpentAmount)
	}

	totalRow := len(rows) + 2
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", totalRow), "Total "+period.Label(month))
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", totalRow), money.Float(totalBudget))
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", totalRow), money.Float(totalSpent))
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("D%d", totalRow), money.Float(totalBudget.Sub(totalSpent)))
	_ = f.SetCellStyle(summarySheet, fmt.Sprintf("A%d", totalRow), fmt.Sprintf("F%d", totalRow), totalStyle)

	return f, nil
}
