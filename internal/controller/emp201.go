package controller

import (
	"context"
	"time"

	"hrconsole/internal/api"
)

const (
	EMP201TabDashboard    = "dashboard"
	EMP201TabDeclarations = "declarations"
	EMP201TabDetail       = "detail"
	EMP201TabGenerate     = "generate"
)

// EMP201 manages the monthly SARS declarations: the year dashboard, the
// declaration list, a detail view with line items, and the generate,
// submit and pay actions.
type EMP201 struct {
	app *App

	Tab string

	Year         int
	StatusFilter string

	Summary        *api.EMP201Summary
	SummaryLoading bool
	SummaryError   string
	summarySl      slot

	Declarations []api.EMP201Declaration
	ListLoading  bool
	ListError    string
	listSl       slot

	Detail        *api.EMP201Detail
	DetailLoading bool
	DetailError   string
	detailSl      slot

	GenMonth int
	GenYear  int
	GenBusy  bool
	GenError string

	// Submit modal requires the SARS reference and an acknowledgement tick.
	SubmitTarget *api.EMP201Declaration
	Submission   api.EMP201Submission
	Acknowledged bool
	SubmitBusy   bool
	SubmitError  string

	// Payment modal.
	PayTarget *api.EMP201Declaration
	Payment   api.EMP201Payment
	PayBusy   bool
	PayError  string

	Error string
	Flash flash
}

func newEMP201(app *App) *EMP201 {
	now := time.Now()
	c := &EMP201{
		app:      app,
		Tab:      EMP201TabDashboard,
		Year:     now.Year(),
		GenMonth: int(now.Month()),
		GenYear:  now.Year(),
	}
	c.fetchSummary()
	c.fetchDeclarations()
	return c
}

func (c *EMP201) Route() Route { return RouteEMP201 }
func (c *EMP201) Teardown()    {}

func (c *EMP201) SetTab(tab string) {
	if tab == c.Tab {
		return
	}
	c.Tab = tab
}

func (c *EMP201) SetYear(year int) {
	c.Year = year
	c.fetchSummary()
	c.fetchDeclarations()
}

func (c *EMP201) SetStatusFilter(status string) {
	c.StatusFilter = status
	c.fetchDeclarations()
}

func (c *EMP201) fetchSummary() {
	c.SummaryLoading = true
	app := c.app
	year := c.Year
	fetch(app, &c.summarySl, func(ctx context.Context) (api.EMP201Summary, error) {
		return app.Client.EMP201Summary(ctx, year)
	}, func(summary api.EMP201Summary, err error) {
		c.SummaryLoading = false
		if err != nil {
			c.SummaryError = api.Message(err, "Could not load EMP201 summary")
			return
		}
		c.SummaryError = ""
		c.Summary = &summary
	})
}

func (c *EMP201) fetchDeclarations() {
	c.ListLoading = true
	app := c.app
	year, status := c.Year, c.StatusFilter
	fetch(app, &c.listSl, func(ctx context.Context) ([]api.EMP201Declaration, error) {
		return app.Client.EMP201Declarations(ctx, year, status)
	}, func(declarations []api.EMP201Declaration, err error) {
		c.ListLoading = false
		if err != nil {
			c.ListError = api.Message(err, "Could not load declarations")
			return
		}
		c.ListError = ""
		c.Declarations = declarations
	})
}

// OpenDetail switches to the detail tab and loads the declaration with its
// per-employee line items.
func (c *EMP201) OpenDetail(id int) {
	c.Tab = EMP201TabDetail
	c.Detail = nil
	c.DetailLoading = true
	c.DetailError = ""
	app := c.app
	fetch(app, &c.detailSl, func(ctx context.Context) (api.EMP201Detail, error) {
		return app.Client.EMP201Declaration(ctx, id)
	}, func(detail api.EMP201Detail, err error) {
		c.DetailLoading = false
		if err != nil {
			c.DetailError = api.Message(err, "Could not load declaration")
			return
		}
		c.Detail = &detail
	})
}

// Generate builds the declaration for the chosen period from payroll data,
// then lands on the declarations tab showing the fresh list.
func (c *EMP201) Generate() {
	if c.GenBusy {
		return
	}
	c.GenBusy = true
	c.GenError = ""
	app := c.app
	month, year := c.GenMonth, c.GenYear
	mutate(app, func(ctx context.Context) (api.EMP201Detail, error) {
		return app.Client.GenerateEMP201(ctx, month, year)
	}, func(_ api.EMP201Detail, err error) {
		c.GenBusy = false
		if err != nil {
			c.GenError = api.Message(err, "Could not generate declaration")
			return
		}
		c.Flash.Set(app, "EMP201 generated")
		c.Tab = EMP201TabDeclarations
		c.fetchSummary()
		c.fetchDeclarations()
	})
}

func (c *EMP201) OpenSubmit(decl api.EMP201Declaration) {
	c.SubmitTarget = &decl
	c.Submission = api.EMP201Submission{}
	c.Acknowledged = false
	c.SubmitError = ""
}

func (c *EMP201) CloseSubmit() { c.SubmitTarget = nil }

func (c *EMP201) ConfirmSubmit() {
	if c.SubmitBusy || c.SubmitTarget == nil {
		return
	}
	if c.Submission.SubmissionReference == "" {
		c.SubmitError = "SARS submission reference is required"
		return
	}
	if !c.Acknowledged {
		c.SubmitError = "Confirm the declaration has been filed with SARS"
		return
	}
	c.SubmitBusy = true
	c.SubmitError = ""
	app := c.app
	id := c.SubmitTarget.ID
	submission := c.Submission
	mutate(app, func(ctx context.Context) (api.EMP201Detail, error) {
		return app.Client.SubmitEMP201(ctx, id, submission)
	}, func(_ api.EMP201Detail, err error) {
		c.SubmitBusy = false
		if err != nil {
			c.SubmitError = api.Message(err, "Could not record the submission")
			return
		}
		c.SubmitTarget = nil
		c.Flash.Set(app, "Submission recorded")
		c.fetchSummary()
		c.fetchDeclarations()
	})
}

func (c *EMP201) OpenPay(decl api.EMP201Declaration) {
	c.PayTarget = &decl
	c.Payment = api.EMP201Payment{
		PaymentDate:   time.Now().Format("2006-01-02"),
		PaymentAmount: decl.TotalLiability,
	}
	c.PayError = ""
}

func (c *EMP201) ClosePay() { c.PayTarget = nil }

func (c *EMP201) ConfirmPay() {
	if c.PayBusy || c.PayTarget == nil {
		return
	}
	if c.Payment.PaymentDate == "" || c.Payment.PaymentReference == "" {
		c.PayError = "Payment date and reference are required"
		return
	}
	c.PayBusy = true
	c.PayError = ""
	app := c.app
	id := c.PayTarget.ID
	payment := c.Payment
	mutate(app, func(ctx context.Context) (api.EMP201Detail, error) {
		return app.Client.PayEMP201(ctx, id, payment)
	}, func(_ api.EMP201Detail, err error) {
		c.PayBusy = false
		if err != nil {
			c.PayError = api.Message(err, "Could not record the payment")
			return
		}
		c.PayTarget = nil
		c.Flash.Set(app, "Payment recorded")
		c.fetchSummary()
		c.fetchDeclarations()
	})
}

// Export saves the declaration's CSV under the download dir.
func (c *EMP201) Export(id int) {
	app := c.app
	mutate(app, func(ctx context.Context) (api.Blob, error) {
		return app.Client.ExportEMP201(ctx, id)
	}, func(blob api.Blob, err error) {
		if err != nil {
			c.Error = api.Message(err, "Could not export declaration")
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
