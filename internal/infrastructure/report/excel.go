// Package report renders back-office statistics as Excel workbooks for
// download from the admin UI.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"backoffice/internal/domain/company"
	"backoffice/internal/domain/refund"
)

var companyStatsHeader = []string{"Client", "Companies"}

var refundStatsHeader = []string{"Status", "Count"}

// CompanyStats renders the per-client company breakdown.
func CompanyStats(stats *company.Stats) ([]byte, error) {
	f, sheet, err := newWorkbook("Companies", companyStatsHeader)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	row := 2
	for _, c := range stats.ByClient {
		name := c.ClientName
		if name == "" {
			name = c.ClientID.String()
		}
		setRow(f, sheet, row, name, c.Count)
		row++
	}
	setRow(f, sheet, row+1, "Total", stats.TotalCompanies)
	setRow(f, sheet, row+2, "Active", stats.ActiveCompanies)

	return write(f)
}

// RefundStats renders the status histogram and turnaround figures.
func RefundStats(stats *refund.Stats) ([]byte, error) {
	f, sheet, err := newWorkbook("Refunds", refundStatsHeader)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	row := 2
	for _, status := range []refund.Status{
		refund.StatusPending,
		refund.StatusApproved,
		refund.StatusRejected,
		refund.StatusProcessing,
		refund.StatusCompleted,
		refund.StatusCancelled,
	} {
		setRow(f, sheet, row, string(status), stats.ByStatus[status])
		row++
	}

	row++
	setRow(f, sheet, row, "Completed total", stats.CompletedTotal.String())
	if stats.AvgProcessingHours != nil {
		setRow(f, sheet, row+1, "Avg processing hours", *stats.AvgProcessingHours)
	}

	return write(f)
}

func newWorkbook(sheet string, headers []string) (*excelize.File, string, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheet)
	if err != nil {
		f.Close()
		return nil, "", fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, "", fmt.Errorf("create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, "", fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("set header style: %w", err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("set column width: %w", err)
	}

	return f, sheet, nil
}

func setRow(f *excelize.File, sheet string, row int, label string, value any) {
	cellA, _ := excelize.CoordinatesToCellName(1, row)
	cellB, _ := excelize.CoordinatesToCellName(2, row)
	_ = f.SetCellValue(sheet, cellA, label)
	_ = f.SetCellValue(sheet, cellB, value)
}

func write(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
