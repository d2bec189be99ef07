package controller

import (
	"context"
	"strconv"
	"time"

	"hrconsole/internal/api"
)

const (
	IRP5TabCertificates   = "certificates"
	IRP5TabReconciliation = "reconciliation"
	IRP5TabGenerate       = "generate"
)

// IRP5 covers the annual tax certificates: the list per tax year, the
// EMP501 reconciliation totals, generation and the irreversible issue-all.
type IRP5 struct {
	app *App

	Tab string

	// TaxYear is the SARS label, the calendar year the tax year ends in.
	TaxYear int

	Certificates []api.IRP5Certificate
	CertsLoading bool
	CertsError   string
	certsSl      slot

	Recon        *api.IRP5Reconciliation
	ReconLoading bool
	ReconError   string
	reconSl      slot
	reconSeen    bool

	Selected *api.IRP5Certificate

	GenBusy  bool
	GenError string

	ConfirmIssue bool
	IssueBusy    bool

	Error string
	Flash flash
}

func newIRP5(app *App) *IRP5 {
	c := &IRP5{app: app, Tab: IRP5TabCertificates, TaxYear: currentTaxYear(time.Now())}
	c.fetchCertificates()
	return c
}

// currentTaxYear maps a date to the SARS tax year it falls in; the year
// ends on the last day of February.
func currentTaxYear(now time.Time) int {
	if now.Month() >= time.March {
		return now.Year() + 1
	}
	return now.Year()
}

func (c *IRP5) Route() Route { return RouteIRP5 }
func (c *IRP5) Teardown()    {}

func (c *IRP5) SetTab(tab string) {
	if tab == c.Tab {
		return
	}
	c.Tab = tab
	if tab == IRP5TabReconciliation && !c.reconSeen {
		c.reconSeen = true
		c.fetchRecon()
	}
}

// SetTaxYear re-fetches both year-scoped datasets.
func (c *IRP5) SetTaxYear(year int) {
	c.TaxYear = year
	c.fetchCertificates()
	if c.reconSeen {
		c.fetchRecon()
	}
}

func (c *IRP5) taxYearParam() string { return strconv.Itoa(c.TaxYear) }

func (c *IRP5) fetchCertificates() {
	c.CertsLoading = true
	app := c.app
	year := c.taxYearParam()
	fetch(app, &c.certsSl, func(ctx context.Context) ([]api.IRP5Certificate, error) {
		return app.Client.IRP5Certificates(ctx, year)
	}, func(certificates []api.IRP5Certificate, err error) {
		c.CertsLoading = false
		if err != nil {
			c.CertsError = api.Message(err, "Could not load certificates")
			return
		}
		c.CertsError = ""
		c.Certificates = certificates
	})
}

func (c *IRP5) fetchRecon() {
	c.ReconLoading = true
	app := c.app
	year := c.taxYearParam()
	fetch(app, &c.reconSl, func(ctx context.Context) (api.IRP5Reconciliation, error) {
		return app.Client.IRP5ReconciliationFor(ctx, year)
	}, func(recon api.IRP5Reconciliation, err error) {
		c.ReconLoading = false
		if err != nil {
			if api.Status(err) == 404 {
				c.Recon = nil
				c.ReconError = ""
				return
			}
			c.ReconError = api.Message(err, "Could not load reconciliation")
			return
		}
		c.ReconError = ""
		c.Recon = &recon
	})
}

func (c *IRP5) OpenCertificate(cert api.IRP5Certificate) { c.Selected = &cert }
func (c *IRP5) CloseCertificate()                        { c.Selected = nil }

// Generate builds draft certificates for every employee paid in the year.
func (c *IRP5) Generate() {
	if c.GenBusy {
		return
	}
	c.GenBusy = true
	c.GenError = ""
	app := c.app
	year := c.TaxYear
	mutate(app, func(ctx context.Context) (api.IRP5GenerateResult, error) {
		return app.Client.GenerateIRP5(ctx, year)
	}, func(result api.IRP5GenerateResult, err error) {
		c.GenBusy = false
		if err != nil {
			c.GenError = api.Message(err, "Could not generate certificates")
			return
		}
		message := result.Message
		if message == "" {
			message = "Certificates generated"
		}
		c.Flash.Set(app, message)
		c.Tab = IRP5TabCertificates
		c.fetchCertificates()
		if c.reconSeen {
			c.fetchRecon()
		}
	})
}

func (c *IRP5) RequestIssueAll() { c.ConfirmIssue = true }
func (c *IRP5) CancelIssueAll()  { c.ConfirmIssue = false }

// ConfirmIssueAll finalizes every certificate for the tax year. The server
// rejects re-issuing, so the confirmation gate sits here.
func (c *IRP5) ConfirmIssueAll() {
	if c.IssueBusy || !c.ConfirmIssue {
		return
	}
	c.ConfirmIssue = false
	c.IssueBusy = true
	app := c.app
	year := c.TaxYear
	mutate(app, func(ctx context.Context) (api.IRP5GenerateResult, error) {
		return app.Client.IssueIRP5(ctx, year)
	}, func(_ api.IRP5GenerateResult, err error) {
		c.IssueBusy = false
		if err != nil {
			c.Error = api.Message(err, "Could not issue certificates")
			return
		}
		c.Flash.Set(app, "Certificates issued")
		c.fetchCertificates()
	})
}

// DownloadCertificate saves the printable HTML view of one certificate.
func (c *IRP5) DownloadCertificate(id int) {
	app := c.app
	mutate(app, func(ctx context.Context) (api.Blob, error) {
		return app.Client.IRP5CertificateHTML(ctx, id)
	}, func(blob api.Blob, err error) {
		if err != nil {
			c.Error = api.Message(err, "Could not fetch certificate")
			return
		}
		path, err := app.saveBlob(blob)
		if err != nil {
			c.Error = err.Error()
			return
		}
		c.Flash.Set(app, "Saved "+path)
	})
}

// Export saves the year's certificate CSV.
func (c *IRP5) Export() {
	app := c.app
	year := c.taxYearParam()
	mutate(app, func(ctx context.Context) (api.Blob, error) {
		return app.Client.ExportIRP5(ctx, year)
	}, func(blob api.Blob, err error) {
		if err != nil {
			c.Error = api.Message(err, "Could not export certificates")
			return
		}
		path, err := app.saveBlob(blob)
		if err != nil {
			c.Error = err.Error()
			return
		}
		c.Flash.Set(app, "Saved "+path)
	})
}
