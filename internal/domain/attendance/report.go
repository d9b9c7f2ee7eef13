package attendance

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// WriteMonthlyPDF renders the monthly view of one employee as an A4 report.
func WriteMonthlyPDF(w io.Writer, emp EmployeeRef, days []DaySummary, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	present := 0
	for _, day := range days {
		if day.WasPresent {
			present++
		}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Attendance report")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s", emp.Name))
	pdf.Ln(7)
	if len(days) > 0 {
		pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", days[0].Date, days[len(days)-1].Date))
		pdf.Ln(7)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Days present: %d of %d", present, len(days)))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 10)
	for _, heading := range []string{"Date", "Clock in", "Clock out", "Present"} {
		pdf.CellFormat(45, 7, heading, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 10)
	for _, day := range days {
		presence := "no"
		if day.WasPresent {
			presence = "yes"
		}
		pdf.CellFormat(45, 6, day.Date, "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, clockLabel(day.ClockIn, loc), "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, clockLabel(day.ClockOut, loc), "1", 0, "L", false, 0, "")
		pdf.CellFormat(45, 6, presence, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}
	return pdf.Output(w)
}

const exportSheet = "Attendance"

var exportHeader = []any{"Date", "Employee", "Clock in", "Clock out", "Hours worked"}

// WriteDepartmentXLSX writes department records as a single-sheet workbook.
func WriteDepartmentXLSX(w io.Writer, records []Record, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return err
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			dayKey(rec.Date),
			rec.EmployeeName,
			clockLabel(rec.ClockIn, loc),
			clockLabel(rec.ClockOut, loc),
			rec.HoursWorked(),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

func clockLabel(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format("15:04")
}
