package api

import (
	"context"
	"net/url"
)

type UI19Declaration struct {
	ID                  int     `json:"id"`
	CompanyID           int     `json:"company_id"`
	Month               int     `json:"month"`
	Year                int     `json:"year"`
	PeriodStartDate     string  `json:"period_start_date"`
	PeriodEndDate       string  `json:"period_end_date"`
	EmployeeCount       int     `json:"employee_count"`
	TotalRemuneration   string  `json:"total_remuneration"`
	TotalUIFEmployee    string  `json:"total_uif_employee"`
	TotalUIFEmployer    string  `json:"total_uif_employer"`
	TotalUIF            string  `json:"total_uif"`
	SubmissionStatus    string  `json:"submission_status"`
	SubmissionDate      *string `json:"submission_date"`
	SubmissionReference *string `json:"submission_reference"`
	Notes               *string `json:"notes"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at"`
}

type UI19LineItem struct {
	ID                int    `json:"id"`
	DeclarationID     int    `json:"declaration_id"`
	EmployeeID        int    `json:"employee_id"`
	EmployeeName      string `json:"employee_name"`
	IDNumber          string `json:"id_number"`
	UIFNumber         string `json:"uif_number"`
	GrossRemuneration string `json:"gross_remuneration"`
	UIFEmployee       string `json:"uif_employee"`
	UIFEmployer       string `json:"uif_employer"`
	TotalUIF          string `json:"total_uif"`
	DaysWorked        int    `json:"days_worked"`
	ReasonCode        string `json:"reason_code"`
}

type UI19Detail struct {
	Declaration UI19Declaration `json:"declaration"`
	LineItems   []UI19LineItem  `json:"lineItems"`
}

type UI19Submission struct {
	SubmissionReference string `json:"submission_reference"`
	Notes               string `json:"notes,omitempty"`
}

func (c *Client) UI19Declarations(ctx context.Context, year int) ([]UI19Declaration, error) {
	query := url.Values{}
	query.Set("year", itoa(year))
	var declarations []UI19Declaration
	err := c.getJSON(ctx, "/ui19/declarations", query, &declarations)
	return declarations, err
}

func (c *Client) UI19Declaration(ctx context.Context, id int) (UI19Detail, error) {
	var detail UI19Detail
	err := c.getJSON(ctx, "/ui19/declarations/"+itoa(id), nil, &detail)
	return detail, err
}

func (c *Client) GenerateUI19(ctx context.Context, month, year int) (UI19Detail, error) {
	var detail UI19Detail
	err := c.postJSON(ctx, "/ui19/generate", map[string]int{"month": month, "year": year}, &detail)
	return detail, err
}

// UpdateUI19LineItem corrects the UIF number or days worked on one line and
// returns the updated line.
func (c *Client) UpdateUI19LineItem(ctx context.Context, id int, uifNumber string, daysWorked int) (UI19LineItem, error) {
	var item UI19LineItem
	err := c.patchJSON(ctx, "/ui19/line-items/"+itoa(id), map[string]any{
		"uif_number":  uifNumber,
		"days_worked": daysWorked,
	}, &item)
	return item, err
}

func (c *Client) SubmitUI19(ctx context.Context, id int, submission UI19Submission) (UI19Detail, error) {
	var detail UI19Detail
	err := c.postJSON(ctx, "/ui19/declarations/"+itoa(id)+"/submit", submission, &detail)
	return detail, err
}

func (c *Client) ExportUI19(ctx context.Context, id int) (Blob, error) {
	return c.getBlob(ctx, "/ui19/declarations/"+itoa(id)+"/export", nil, "UI19-"+itoa(id)+".csv")
}
