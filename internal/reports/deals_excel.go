// Package reports строит выгрузки для владельца.
package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"Portfolio/internal/constants"
	"Portfolio/internal/models"
)

const (
	DealsSheet      = "Deals"
	xlsxDateLayout  = "2006-01-02 15:04"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var dealHeaders = []string{
	"Deal ID", "Created", "Status", "Client Name", "Client Email", "Client Phone",
	"Project Details", "Budget", "Timeline", "Notes", "Closed", "Session ID",
}

// DealsFilename - имя файла выгрузки на момент now.
func DealsFilename(now time.Time) string {
	return fmt.Sprintf("deals_report_%s.xlsx", now.UTC().Format("20060102_150405"))
}

// BuildDealsWorkbook возвращает XLSX с одной строкой на сделку, в переданном порядке.
func BuildDealsWorkbook(deals []models.Deal) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(DealsSheet)
	if err != nil {
		return nil, fmt.Errorf("reports: создание листа: %w", err)
	}
	// Удаляем стандартный лист / Delete default sheet
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("reports: удаление листа Sheet1: %w", err)
	}
	f.SetActiveSheet(index)

	for i, header := range dealHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(DealsSheet, cell, header); err != nil {
			return nil, err
		}
	}

	for r, d := range deals {
		closed := ""
		if d.ClosedAt.Valid {
			closed = d.ClosedAt.Time.UTC().Format(xlsxDateLayout)
		}
		status := constants.DealStatusDisplayMap[d.Status]
		if status == "" {
			status = d.Status
		}
		values := []any{
			d.ID,
			d.CreatedAt.UTC().Format(xlsxDateLayout),
			status,
			d.UserInfo.Name,
			d.UserInfo.Email,
			d.UserInfo.Phone,
			d.ProjectDetails,
			d.Budget,
			d.Timeline,
			d.Notes.String,
			closed,
			d.SessionID,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(DealsSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetPanes(DealsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, fmt.Errorf("reports: закрепление заголовка: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("reports: запись XLSX: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}
