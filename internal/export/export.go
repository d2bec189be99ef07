// Package export moves HR data in and out of spreadsheets: .xlsx workbooks
// for report exports, and bulk employee creation from uploaded .xlsx or
// legacy .xls files.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"hrconsole/internal/api"
	"hrconsole/internal/format"
)

func writeSheet(w io.Writer, sheet string, header []string, rows [][]any) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	index, err := file.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("export: create sheet: %w", err)
	}
	file.SetActiveSheet(index)
	_ = file.DeleteSheet("Sheet1")

	headerCells := make([]any, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	if err := setRow(file, sheet, 1, headerCells); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(file, sheet, i+2, row); err != nil {
			return err
		}
	}
	if err := file.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func setRow(file *excelize.File, sheet string, rowNum int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("export: row %d: %w", rowNum, err)
	}
	if err := file.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("export: row %d: %w", rowNum, err)
	}
	return nil
}

// Employees writes the employee list as a workbook.
func Employees(w io.Writer, employees []api.Employee) error {
	header := []string{"ID", "First Name", "Last Name", "Email", "Department", "Position", "Salary", "Active", "Hired"}
	rows := make([][]any, 0, len(employees))
	for _, e := range employees {
		rows = append(rows, []any{
			e.ID, e.FirstName, e.LastName, e.Email, e.Department, e.Position,
			e.Salary, e.IsActive, format.Date(e.CreatedAt),
		})
	}
	return writeSheet(w, "Employees", header, rows)
}

// MonthlyReport writes the attendance monthly report with a totals row.
func MonthlyReport(w io.Writer, rows []api.MonthlyReportRow, month, year int) error {
	header := []string{"Employee", "Department", "Days Present", "Days Late", "Days Absent", "Hours", "Overtime", "Pay"}
	out := make([][]any, 0, len(rows)+1)
	var hours, overtime, pay float64
	for _, row := range rows {
		out = append(out, []any{
			row.FirstName + " " + row.LastName, row.Department,
			row.DaysPresent, row.DaysLate, row.DaysAbsent,
			row.TotalHours, row.TotalOvertime, row.TotalPay,
		})
		hours += row.TotalHours
		overtime += row.TotalOvertime
		pay += row.TotalPay
	}
	out = append(out, []any{"Total", "", "", "", "", hours, overtime, pay})
	return writeSheet(w, format.PeriodName(month, year), header, out)
}

// PayrollRecords writes a period's payroll run.
func PayrollRecords(w io.Writer, records []api.PayrollRecord, month, year int) error {
	header := []string{"Employee", "Department", "Gross", "Tax", "UIF", "Deductions", "Net", "Status"}
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []any{
			rec.FirstName + " " + rec.LastName, rec.Department,
			rec.GrossPay, rec.Tax, rec.UIF, rec.TotalDeductions, rec.NetPay, rec.Status,
		})
	}
	return writeSheet(w, format.PeriodName(month, year), header, rows)
}
