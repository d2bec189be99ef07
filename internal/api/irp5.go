package api

import (
	"context"
	"net/url"
)

type IRP5Certificate struct {
	ID                int     `json:"id"`
	CompanyID         int     `json:"company_id"`
	EmployeeID        int     `json:"employee_id"`
	TaxYear           string  `json:"tax_year"`
	TaxYearStart      string  `json:"tax_year_start"`
	TaxYearEnd        string  `json:"tax_year_end"`
	EmployeeName      string  `json:"employee_name"`
	EmployeeIDNumber  string  `json:"employee_id_number"`
	EmployeeTaxNumber string  `json:"employee_tax_number"`
	EmployeeUIFNumber string  `json:"employee_uif_number"`
	Department        string  `json:"department"`
	Position          string  `json:"position"`
	Code3601          string  `json:"code_3601"`
	Code4101          string  `json:"code_4101"`
	Code4141          string  `json:"code_4141"`
	Code4142          string  `json:"code_4142"`
	Code4149          string  `json:"code_4149"`
	TotalRemuneration string  `json:"total_remuneration"`
	TotalDeductions   string  `json:"total_deductions"`
	NetPay            string  `json:"net_pay"`
	MonthsEmployed    int     `json:"months_employed"`
	CertificateNumber string  `json:"certificate_number"`
	GenerationStatus  string  `json:"generation_status"`
	IssuedDate        *string `json:"issued_date"`
	CreatedAt         string  `json:"created_at"`
}

type IRP5Reconciliation struct {
	ID                  int     `json:"id"`
	CompanyID           int     `json:"company_id"`
	TaxYear             string  `json:"tax_year"`
	TaxYearStart        string  `json:"tax_year_start"`
	TaxYearEnd          string  `json:"tax_year_end"`
	EmployeeCount       int     `json:"employee_count"`
	TotalRemuneration   string  `json:"total_remuneration"`
	TotalPAYE           string  `json:"total_paye"`
	TotalUIFEmployee    string  `json:"total_uif_employee"`
	TotalUIFEmployer    string  `json:"total_uif_employer"`
	TotalSDL            string  `json:"total_sdl"`
	TotalDeductions     string  `json:"total_deductions"`
	ReconStatus         string  `json:"recon_status"`
	SubmissionDate      *string `json:"submission_date"`
	SubmissionReference *string `json:"submission_reference"`
}

type IRP5GenerateResult struct {
	Message string `json:"message"`
}

func (c *Client) IRP5Certificates(ctx context.Context, taxYear string) ([]IRP5Certificate, error) {
	query := url.Values{}
	query.Set("tax_year", taxYear)
	var certificates []IRP5Certificate
	err := c.getJSON(ctx, "/irp5/certificates", query, &certificates)
	return certificates, err
}

func (c *Client) IRP5ReconciliationFor(ctx context.Context, taxYear string) (IRP5Reconciliation, error) {
	query := url.Values{}
	query.Set("tax_year", taxYear)
	var recon IRP5Reconciliation
	err := c.getJSON(ctx, "/irp5/reconciliation", query, &recon)
	return recon, err
}

func (c *Client) GenerateIRP5(ctx context.Context, taxYear int) (IRP5GenerateResult, error) {
	var result IRP5GenerateResult
	err := c.postJSON(ctx, "/irp5/generate", map[string]int{"tax_year": taxYear}, &result)
	return result, err
}

// IssueIRP5 marks every certificate in the tax year final. There is no undo.
func (c *Client) IssueIRP5(ctx context.Context, taxYear int) (IRP5GenerateResult, error) {
	var result IRP5GenerateResult
	err := c.postJSON(ctx, "/irp5/issue", map[string]int{"tax_year": taxYear}, &result)
	return result, err
}

// IRP5CertificateHTML fetches the printable certificate document.
func (c *Client) IRP5CertificateHTML(ctx context.Context, id int) (Blob, error) {
	return c.getBlob(ctx, "/irp5/certificates/"+itoa(id)+"/html", nil, "IRP5-"+itoa(id)+".html")
}

func (c *Client) ExportIRP5(ctx context.Context, taxYear string) (Blob, error) {
	query := url.Values{}
	query.Set("tax_year", taxYear)
	return c.getBlob(ctx, "/irp5/export", query, "IRP5-"+taxYear+".csv")
}
