package api

import (
	"context"
	"net/url"
)

// EMP201 monetary fields arrive as decimal strings, exactly as the server's
// SQL aggregation emits them; the client never does arithmetic on them.
type EMP201Declaration struct {
	ID                  int     `json:"id"`
	CompanyID           int     `json:"company_id"`
	TaxYear             string  `json:"tax_year"`
	TaxPeriod           string  `json:"tax_period"`
	PeriodStartDate     string  `json:"period_start_date"`
	PeriodEndDate       string  `json:"period_end_date"`
	PAYEAmount          string  `json:"paye_amount"`
	SDLAmount           string  `json:"sdl_amount"`
	UIFEmployeeAmount   string  `json:"uif_employee_amount"`
	UIFEmployerAmount   string  `json:"uif_employer_amount"`
	UIFTotalAmount      string  `json:"uif_total_amount"`
	ETIAmount           string  `json:"eti_amount"`
	TotalLiability      string  `json:"total_liability"`
	PaymentStatus       string  `json:"payment_status"`
	PaymentDate         *string `json:"payment_date"`
	PaymentReference    *string `json:"payment_reference"`
	PaymentAmount       *string `json:"payment_amount"`
	SubmissionStatus    string  `json:"submission_status"`
	SubmissionDate      *string `json:"submission_date"`
	SubmissionReference *string `json:"submission_reference"`
	SARSAcknowledgement *string `json:"sars_acknowledgement"`
	EmployeeCount       int     `json:"employee_count"`
	TotalRemuneration   string  `json:"total_remuneration"`
	Notes               *string `json:"notes"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at"`
	DueDate             string  `json:"due_date,omitempty"`
}

type EMP201LineItem struct {
	ID                int    `json:"id"`
	DeclarationID     int    `json:"declaration_id"`
	EmployeeID        int    `json:"employee_id"`
	EmployeeName      string `json:"employee_name"`
	GrossRemuneration string `json:"gross_remuneration"`
	PAYEDeducted      string `json:"paye_deducted"`
	UIFEmployee       string `json:"uif_employee"`
	UIFEmployer       string `json:"uif_employer"`
	SDLContribution   string `json:"sdl_contribution"`
}

type EMP201Summary struct {
	TotalDeclarations int    `json:"total_declarations"`
	SubmittedCount    int    `json:"submitted_count"`
	PaidCount         int    `json:"paid_count"`
	OverdueCount      int    `json:"overdue_count"`
	TotalLiabilityYTD string `json:"total_liability_ytd"`
	TotalPaidYTD      string `json:"total_paid_ytd"`
	TotalOutstanding  string `json:"total_outstanding"`
}

type EMP201Detail struct {
	Declaration EMP201Declaration `json:"declaration"`
	LineItems   []EMP201LineItem  `json:"lineItems"`
}

type EMP201Submission struct {
	SubmissionReference string `json:"submission_reference"`
	SARSAcknowledgement string `json:"sars_acknowledgement,omitempty"`
}

type EMP201Payment struct {
	PaymentDate      string `json:"payment_date"`
	PaymentReference string `json:"payment_reference"`
	PaymentAmount    string `json:"payment_amount,omitempty"`
}

func (c *Client) EMP201Summary(ctx context.Context, year int) (EMP201Summary, error) {
	query := url.Values{}
	query.Set("year", itoa(year))
	var summary EMP201Summary
	err := c.getJSON(ctx, "/emp201/summary", query, &summary)
	return summary, err
}

func (c *Client) EMP201Declarations(ctx context.Context, year int, status string) ([]EMP201Declaration, error) {
	query := url.Values{}
	query.Set("year", itoa(year))
	if status != "" {
		query.Set("status", status)
	}
	var declarations []EMP201Declaration
	err := c.getJSON(ctx, "/emp201/declarations", query, &declarations)
	return declarations, err
}

func (c *Client) EMP201Declaration(ctx context.Context, id int) (EMP201Detail, error) {
	var detail EMP201Detail
	err := c.getJSON(ctx, "/emp201/declarations/"+itoa(id), nil, &detail)
	return detail, err
}

// GenerateEMP201 builds the month's declaration from processed payroll on
// the server side and returns it.
func (c *Client) GenerateEMP201(ctx context.Context, month, year int) (EMP201Detail, error) {
	var detail EMP201Detail
	err := c.postJSON(ctx, "/emp201/generate", map[string]int{"month": month, "year": year}, &detail)
	return detail, err
}

func (c *Client) SubmitEMP201(ctx context.Context, id int, submission EMP201Submission) (EMP201Detail, error) {
	var detail EMP201Detail
	err := c.postJSON(ctx, "/emp201/declarations/"+itoa(id)+"/submit", submission, &detail)
	return detail, err
}

func (c *Client) PayEMP201(ctx context.Context, id int, payment EMP201Payment) (EMP201Detail, error) {
	var detail EMP201Detail
	err := c.postJSON(ctx, "/emp201/declarations/"+itoa(id)+"/pay", payment, &detail)
	return detail, err
}

func (c *Client) ExportEMP201(ctx context.Context, id int) (Blob, error) {
	return c.getBlob(ctx, "/emp201/declarations/"+itoa(id)+"/export", nil, "EMP201-"+itoa(id)+".csv")
}
