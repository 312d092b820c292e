// Package export renders booking reports for the clinic's back office.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"clinicbook/internal/models"
)

var bookingColumns = []string{
	"Reference", "Patient", "Phone", "Email", "Doctor", "Department",
	"Date", "Time", "Status", "Follow-up", "Notes", "Created",
}

// WriteBookings writes an xlsx workbook with one row per booking to w.
func WriteBookings(w io.Writer, bookings []models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Bookings"
	f.SetSheetName("Sheet1", sheet)

	if err := writeHeader(f, sheet); err != nil {
		return err
	}

	for i, b := range bookings {
		row := []any{
			b.BookingReference, b.PatientName, b.PatientPhone, b.PatientEmail,
			b.DoctorName, b.Department,
			b.AppointmentDate, b.AppointmentTime, b.Status,
			b.IsFollowup, b.Notes, b.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string) error {
	if err := writeRow(f, sheet, 1, toAny(bookingColumns)); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	startCell, _ := excelize.CoordinatesToCellName(1, 1)
	endCell, _ := excelize.CoordinatesToCellName(len(bookingColumns), 1)
	return f.SetCellStyle(sheet, startCell, endCell, style)
}

func writeRow(f *excelize.File, sheet string, rowNum int, values []any) error {
	for i, val := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
