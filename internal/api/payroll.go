package api

import (
	"context"
	"fmt"
	"net/url"
)

type PayrollRecord struct {
	ID               int     `json:"id"`
	EmployeeID       int     `json:"employee_id"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Email            string  `json:"email"`
	Department       string  `json:"department"`
	Position         string  `json:"position"`
	Month            int     `json:"month"`
	Year             int     `json:"year"`
	BasicSalary      float64 `json:"basic_salary"`
	Allowances       float64 `json:"allowances"`
	Bonuses          float64 `json:"bonuses"`
	Overtime         float64 `json:"overtime"`
	GrossPay         float64 `json:"gross_pay"`
	Tax              float64 `json:"tax"`
	UIF              float64 `json:"uif"`
	Pension          float64 `json:"pension"`
	MedicalAid       float64 `json:"medical_aid"`
	OtherDeductions  float64 `json:"other_deductions"`
	TotalDeductions  float64 `json:"total_deductions"`
	NetPay           float64 `json:"net_pay"`
	Status           string  `json:"status"`
	PaymentMethod    string  `json:"payment_method,omitempty"`
	PaymentDate      string  `json:"payment_date,omitempty"`
	PaymentReference string  `json:"payment_reference,omitempty"`
	Notes            string  `json:"notes,omitempty"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

type PayrollSummary struct {
	TotalEmployees  int     `json:"total_employees"`
	TotalGross      float64 `json:"total_gross"`
	TotalDeductions float64 `json:"total_deductions"`
	TotalNet        float64 `json:"total_net"`
	Tax             float64 `json:"tax"`
	PaidCount       int     `json:"paid_count"`
	ProcessedCount  int     `json:"processed_count"`
	DraftCount      int     `json:"draft_count"`
}

type PaymentDetails struct {
	PaymentMethod    string `json:"payment_method"`
	PaymentDate      string `json:"payment_date"`
	PaymentReference string `json:"payment_reference,omitempty"`
}

type PayrollHistoryEntry struct {
	ID         int     `json:"id"`
	EmployeeID int     `json:"employee_id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Month      int     `json:"month"`
	Year       int     `json:"year"`
	GrossPay   float64 `json:"gross_pay"`
	NetPay     float64 `json:"net_pay"`
	Status     string  `json:"status"`
}

// periodQuery formats the month the way the records endpoint expects
// (zero-padded string, a quirk inherited from the original client).
func periodQuery(month, year int) url.Values {
	query := url.Values{}
	query.Set("month", fmt.Sprintf("%02d", month))
	query.Set("year", itoa(year))
	return query
}

func (c *Client) PayrollSummaryFor(ctx context.Context, month, year int) (PayrollSummary, error) {
	var summary PayrollSummary
	err := c.getJSON(ctx, "/payroll/summary", periodQuery(month, year), &summary)
	return summary, err
}

func (c *Client) PayrollRecords(ctx context.Context, month, year int, status string) ([]PayrollRecord, error) {
	query := periodQuery(month, year)
	if status != "" {
		query.Set("status", status)
	}
	var records []PayrollRecord
	err := c.getJSON(ctx, "/payroll/records", query, &records)
	return records, err
}

// InitializePayroll creates draft records for every active employee in the
// period.
func (c *Client) InitializePayroll(ctx context.Context, month, year int) error {
	return c.postJSON(ctx, "/payroll/initialize", map[string]int{"month": month, "year": year}, nil)
}

// ProcessPayroll moves the selected employees' drafts to processed; the
// server computes the full monetary breakdown.
func (c *Client) ProcessPayroll(ctx context.Context, employeeIDs []int, month, year int) error {
	return c.postJSON(ctx, "/payroll/process", map[string]any{
		"employee_ids": employeeIDs,
		"month":        month,
		"year":         year,
	}, nil)
}

func (c *Client) MarkPayrollPaid(ctx context.Context, id int, details PaymentDetails) (PayrollRecord, error) {
	var record PayrollRecord
	err := c.patchJSON(ctx, "/payroll/records/"+itoa(id)+"/pay", details, &record)
	return record, err
}

// Payslip downloads the PDF payslip for one payroll record.
func (c *Client) Payslip(ctx context.Context, id int) (Blob, error) {
	return c.getBlob(ctx, "/payroll/payslip/"+itoa(id), nil, fmt.Sprintf("payslip-%d.pdf", id))
}

func (c *Client) PayrollHistory(ctx context.Context, employeeID, limit int) ([]PayrollHistoryEntry, error) {
	query := url.Values{}
	query.Set("limit", itoa(limit))
	if employeeID > 0 {
		query.Set("employee_id", itoa(employeeID))
	}
	var entries []PayrollHistoryEntry
	err := c.getJSON(ctx, "/payroll/history", query, &entries)
	return entries, err
}
