package dashboard

import (
	"bytes"
	"fmt"
	"time"

	"fitconnect/internal/booking"

	"github.com/xuri/excelize/v2"
)

const (
	reportSheet     = "Bookings"
	reportHeaderRow = 4
)

var reportColumns = []string{"Reference", "Member", "Email", "Class", "Date", "Time", "Status", "Payment", "Amount"}

var statusFills = map[string]string{
	booking.StatusConfirmed: "#E2EFDA",
	booking.StatusWaitlist:  "#FFF2CC",
	booking.StatusCancelled: "#F8CBAD",
}

// BuildReport renders studio bookings as an xlsx workbook.
func BuildReport(studioName string, rows []booking.BookingWithDetails, generated time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(reportSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	f.SetCellValue(reportSheet, "A1", studioName+" bookings")
	f.SetCellValue(reportSheet, "A2", "Generated "+generated.Format("Jan 2, 2006 15:04"))

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, title := range reportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, reportHeaderRow)
		f.SetCellValue(reportSheet, cell, title)
		f.SetCellStyle(reportSheet, cell, cell, headerStyle)
	}

	styles := make(map[string]int, len(statusFills))
	for status, color := range statusFills {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err == nil {
			styles[status] = id
		}
	}

	for i, b := range rows {
		row := reportHeaderRow + 1 + i
		values := []any{
			b.ReferenceCode,
			b.UserName,
			b.UserEmail,
			b.ClassName,
			b.ClassDate,
			b.ClassTime,
			b.Status,
			b.PaymentStatus,
			float64(b.AmountCents) / 100,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(reportSheet, cell, v)
		}

		if style, ok := styles[b.Status]; ok {
			cell, _ := excelize.CoordinatesToCellName(7, row)
			f.SetCellStyle(reportSheet, cell, cell, style)
		}
	}

	f.SetColWidth(reportSheet, "A", "A", 14)
	f.SetColWidth(reportSheet, "B", "D", 26)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
