package export

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"hrconsole/internal/api"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := file.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseEmployees(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"First Name", "Last Name", "Email", "Department", "Position", "Salary", "Age"},
		{"Thandi", "Nkosi", "thandi@example.invalid", "Finance", "Accountant", "R 28,500.00", 31},
		{"", "", "", "", "", "", ""}, // blank rows are skipped
		{"Sipho", "Dlamini", "sipho@example.invalid", "Engineering", "Developer", 32000, ""},
		{"Broken", "", "broken@example.invalid", "", "", "", ""},
		{"Ann", "Smith", "not-an-email", "", "", "", ""},
	})

	drafts, rowErrors, err := ParseEmployees(bytes.NewReader(data), "staff.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if len(drafts) != 2 {
		t.Fatalf("drafts=%+v", drafts)
	}
	if drafts[0].FirstName != "Thandi" || drafts[0].Salary != 28500 {
		t.Errorf("draft=%+v", drafts[0])
	}
	if drafts[0].Age == nil || *drafts[0].Age != 31 {
		t.Errorf("age=%v", drafts[0].Age)
	}
	if drafts[1].Email != "sipho@example.invalid" || drafts[1].Age != nil {
		t.Errorf("draft=%+v", drafts[1])
	}
	if len(rowErrors) != 2 {
		t.Fatalf("rowErrors=%v", rowErrors)
	}
	if rowErrors[0].Row != 5 || !strings.Contains(rowErrors[0].Error(), "missing name") {
		t.Errorf("first error=%v", rowErrors[0])
	}
	if rowErrors[1].Row != 6 || !strings.Contains(rowErrors[1].Error(), "invalid email") {
		t.Errorf("second error=%v", rowErrors[1])
	}
}

func TestParseEmployees_HeaderAliases(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"FirstName", "LastName", "Mail", "Dept", "Title"},
		{"Ann", "Smith", "ann@example.invalid", "HR", "Manager"},
	})
	drafts, rowErrors, err := ParseEmployees(bytes.NewReader(data), "staff.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if len(rowErrors) != 0 {
		t.Fatalf("rowErrors=%v", rowErrors)
	}
	if len(drafts) != 1 || drafts[0].Department != "HR" || drafts[0].Position != "Manager" {
		t.Fatalf("drafts=%+v", drafts)
	}
}

func TestParseEmployees_MissingColumn(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"First Name", "Last Name"},
		{"Ann", "Smith"},
	})
	if _, _, err := ParseEmployees(bytes.NewReader(data), "staff.xlsx"); err == nil || !strings.Contains(err.Error(), "email") {
		t.Fatalf("err=%v", err)
	}
}

func TestImportEmployees_CollectsRowErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var draft api.EmployeeDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			t.Fatal(err)
		}
		if draft.Email == "dup@example.invalid" {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Email already exists"})
			return
		}
		_ = json.NewEncoder(w).Encode(api.Employee{ID: 1})
	}))
	t.Cleanup(srv.Close)

	client, err := api.New(srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	result := ImportEmployees(context.Background(), client, []api.EmployeeDraft{
		{FirstName: "A", LastName: "B", Email: "a@example.invalid"},
		{FirstName: "C", LastName: "D", Email: "dup@example.invalid"},
		{FirstName: "E", LastName: "F", Email: "e@example.invalid"},
	})
	if result.Created != 2 {
		t.Errorf("created=%d", result.Created)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 3 {
		t.Fatalf("errors=%v", result.Errors)
	}
	if !strings.Contains(result.Errors[0].Error(), "Email already exists") {
		t.Errorf("error=%v", result.Errors[0])
	}
}

func TestEmployeesWorkbookRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	err := Employees(&buf, []api.Employee{
		{ID: 1, FirstName: "Thandi", LastName: "Nkosi", Email: "thandi@example.invalid", Department: "Finance", Salary: 28500, IsActive: true},
		{ID: 2, FirstName: "Sipho", LastName: "Dlamini", Email: "sipho@example.invalid", Department: "Engineering", Salary: 32000, IsActive: true},
	})
	if err != nil {
		t.Fatal(err)
	}

	file, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = file.Close() }()
	rows, err := file.GetRows("Employees")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%d", len(rows))
	}
	if rows[0][1] != "First Name" {
		t.Errorf("header=%v", rows[0])
	}
	if rows[1][1] != "Thandi" || rows[2][3] != "sipho@example.invalid" {
		t.Errorf("data rows=%v", rows[1:])
	}
}

func TestMonthlyReportTotalsRow(t *testing.T) {
	var buf bytes.Buffer
	err := MonthlyReport(&buf, []api.MonthlyReportRow{
		{FirstName: "A", LastName: "B", TotalHours: 160, TotalOvertime: 4, TotalPay: 20000},
		{FirstName: "C", LastName: "D", TotalHours: 150, TotalOvertime: 0, TotalPay: 18000},
	}, 3, 2026)
	if err != nil {
		t.Fatal(err)
	}

	file, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = file.Close() }()
	rows, err := file.GetRows("March 2026")
	if err != nil {
		t.Fatal(err)
	}
	last := rows[len(rows)-1]
	if last[0] != "Total" || last[5] != "310" || last[7] != "38000" {
		t.Errorf("totals row=%v", last)
	}
}
