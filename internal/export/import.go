package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"hrconsole/internal/api"
)

// RowError ties a parse or upload failure to its spreadsheet row.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }

// ImportResult summarizes a bulk employee upload.
type ImportResult struct {
	Created int
	Errors  []RowError
}

func readRows(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, fmt.Errorf("no worksheet found")
		}
		if workbook.NumSheets() > 1 {
			return nil, fmt.Errorf("multiple worksheets found; upload a file with a single sheet")
		}
		rows := workbook.ReadAllCells(100000)
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("no worksheet found")
		}
		rows, err := file.GetRows(sheetName)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("worksheet is empty")
		}
		return rows, nil
	}
}

func normalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	return strings.ReplaceAll(h, " ", "_")
}

var headerAliases = map[string]string{
	"firstname": "first_name",
	"lastname":  "last_name",
	"mail":      "email",
	"dept":      "department",
	"role":      "position",
	"title":     "position",
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseSalary accepts plain numbers and lightly formatted amounts
// ("R 12,000.50").
func parseSalary(value string) (float64, error) {
	cleaned := strings.NewReplacer("R", "", ",", "", " ", "").Replace(value)
	if cleaned == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid salary %q", value)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative salary %q", value)
	}
	return v, nil
}

// ParseEmployees maps a spreadsheet to employee drafts. The first row is
// the header; recognized columns are first_name, last_name, email,
// department, position, salary and age, with a few common aliases. Rows
// that fail shape checks are collected, not fatal.
func ParseEmployees(reader io.Reader, filename string) ([]api.EmployeeDraft, []RowError, error) {
	rows, err := readRows(reader, filename)
	if err != nil {
		return nil, nil, fmt.Errorf("import: %w", err)
	}

	columns := map[string]int{}
	for idx, header := range rows[0] {
		name := normalizeHeader(header)
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		columns[name] = idx
	}
	for _, required := range []string{"first_name", "last_name", "email"} {
		if _, ok := columns[required]; !ok {
			return nil, nil, fmt.Errorf("import: missing %q column", required)
		}
	}

	var drafts []api.EmployeeDraft
	var rowErrors []RowError
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}
		draft := api.EmployeeDraft{
			FirstName:  cellValue(row, columns["first_name"]),
			LastName:   cellValue(row, columns["last_name"]),
			Email:      cellValue(row, columns["email"]),
			Department: cellValue(row, columnOr(columns, "department")),
			Position:   cellValue(row, columnOr(columns, "position")),
		}
		if draft.FirstName == "" || draft.LastName == "" {
			rowErrors = append(rowErrors, RowError{Row: rowNum, Err: fmt.Errorf("missing name")})
			continue
		}
		if !strings.Contains(draft.Email, "@") {
			rowErrors = append(rowErrors, RowError{Row: rowNum, Err: fmt.Errorf("invalid email %q", draft.Email)})
			continue
		}
		if idx, ok := columns["salary"]; ok {
			salary, err := parseSalary(cellValue(row, idx))
			if err != nil {
				rowErrors = append(rowErrors, RowError{Row: rowNum, Err: err})
				continue
			}
			draft.Salary = salary
		}
		if idx, ok := columns["age"]; ok {
			if raw := cellValue(row, idx); raw != "" {
				age, err := strconv.Atoi(raw)
				if err != nil || age < 0 {
					rowErrors = append(rowErrors, RowError{Row: rowNum, Err: fmt.Errorf("invalid age %q", raw)})
					continue
				}
				draft.Age = &age
			}
		}
		drafts = append(drafts, draft)
	}
	return drafts, rowErrors, nil
}

func columnOr(columns map[string]int, name string) int {
	if idx, ok := columns[name]; ok {
		return idx
	}
	return -1
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportEmployees posts each draft individually and collects per-row
// failures so one rejected row never aborts the batch. Row numbers refer to
// the draft order, offset past the header.
func ImportEmployees(ctx context.Context, client *api.Client, drafts []api.EmployeeDraft) ImportResult {
	var result ImportResult
	for i, draft := range drafts {
		if _, err := client.CreateEmployee(ctx, draft); err != nil {
			result.Errors = append(result.Errors, RowError{Row: i + 2, Err: err})
			continue
		}
		result.Created++
	}
	return result
}
