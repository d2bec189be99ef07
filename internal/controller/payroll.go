package controller

import (
	"context"
	"time"

	"hrconsole/internal/api"
)

const (
	PayrollTabOverview   = "overview"
	PayrollTabRecords    = "records"
	PayrollTabProcessing = "processing"
	PayrollTabHistory    = "history"
)

// Payroll drives the monthly payroll run: period summary, the record table
// with a status filter, batch processing over a selection set, the mark-paid
// modal and payslip downloads.
type Payroll struct {
	app *App

	Tab string

	Month int
	Year  int

	Summary        *api.PayrollSummary
	SummaryLoading bool
	SummaryError   string
	summarySl      slot

	Records        []api.PayrollRecord
	RecordsLoading bool
	RecordsError   string
	recordsSl      slot

	StatusFilter string

	// Selected holds the processing tab's checkbox set.
	Selected map[int]bool
	Busy     bool

	// Mark-paid modal.
	PayTarget  *api.PayrollRecord
	PayDetails api.PaymentDetails
	PayError   string
	PayBusy    bool

	History        []api.PayrollHistoryEntry
	HistoryLoading bool
	HistoryError   string
	historySl      slot
	historySeen    bool

	Error string
	Flash flash
}

func newPayroll(app *App) *Payroll {
	now := time.Now()
	c := &Payroll{
		app:      app,
		Tab:      PayrollTabOverview,
		Month:    int(now.Month()),
		Year:     now.Year(),
		Selected: map[int]bool{},
	}
	c.fetchPeriod()
	return c
}

func (c *Payroll) Route() Route { return RoutePayroll }
func (c *Payroll) Teardown()    {}

func (c *Payroll) SetTab(tab string) {
	if tab == c.Tab {
		return
	}
	c.Tab = tab
	if tab == PayrollTabHistory && !c.historySeen {
		c.historySeen = true
		c.fetchHistory()
	}
}

// SetPeriod changes the month/year selector; both period datasets refetch
// and the selection set resets since it refers to the old period's rows.
func (c *Payroll) SetPeriod(month, year int) {
	c.Month, c.Year = month, year
	c.Selected = map[int]bool{}
	c.fetchPeriod()
}

// fetchPeriod loads the summary and the records concurrently.
func (c *Payroll) fetchPeriod() {
	app := c.app
	month, year := c.Month, c.Year

	c.SummaryLoading = true
	fetch(app, &c.summarySl, func(ctx context.Context) (api.PayrollSummary, error) {
		return app.Client.PayrollSummaryFor(ctx, month, year)
	}, func(summary api.PayrollSummary, err error) {
		c.SummaryLoading = false
		if err != nil {
			c.SummaryError = api.Message(err, "Could not load payroll summary")
			return
		}
		c.SummaryError = ""
		c.Summary = &summary
	})

	c.RecordsLoading = true
	fetch(app, &c.recordsSl, func(ctx context.Context) ([]api.PayrollRecord, error) {
		return app.Client.PayrollRecords(ctx, month, year, "")
	}, func(records []api.PayrollRecord, err error) {
		c.RecordsLoading = false
		if err != nil {
			c.RecordsError = api.Message(err, "Could not load payroll records")
			return
		}
		c.RecordsError = ""
		c.Records = records
	})
}

// Filtered returns the records narrowed by the status filter.
func (c *Payroll) Filtered() []api.PayrollRecord {
	if c.StatusFilter == "" {
		return c.Records
	}
	var out []api.PayrollRecord
	for _, rec := range c.Records {
		if rec.Status == c.StatusFilter {
			out = append(out, rec)
		}
	}
	return out
}

// Drafts lists the records still waiting to be processed.
func (c *Payroll) Drafts() []api.PayrollRecord {
	var out []api.PayrollRecord
	for _, rec := range c.Records {
		if rec.Status == "draft" {
			out = append(out, rec)
		}
	}
	return out
}

// Processed lists the records ready to be marked paid.
func (c *Payroll) Processed() []api.PayrollRecord {
	var out []api.PayrollRecord
	for _, rec := range c.Records {
		if rec.Status == "processed" {
			out = append(out, rec)
		}
	}
	return out
}

func (c *Payroll) ToggleSelect(employeeID int) {
	if c.Selected[employeeID] {
		delete(c.Selected, employeeID)
		return
	}
	c.Selected[employeeID] = true
}

// SelectAllDrafts selects every draft, or clears the set when everything is
// already selected.
func (c *Payroll) SelectAllDrafts() {
	drafts := c.Drafts()
	all := len(drafts) > 0
	for _, rec := range drafts {
		if !c.Selected[rec.EmployeeID] {
			all = false
			break
		}
	}
	if all {
		c.Selected = map[int]bool{}
		return
	}
	for _, rec := range drafts {
		c.Selected[rec.EmployeeID] = true
	}
}

// Initialize creates draft records for every active employee in the period.
func (c *Payroll) Initialize() {
	if c.Busy {
		return
	}
	c.Busy = true
	app := c.app
	month, year := c.Month, c.Year
	mutate(app, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, app.Client.InitializePayroll(ctx, month, year)
	}, func(_ struct{}, err error) {
		c.Busy = false
		if err != nil {
			c.Error = api.Message(err, "Could not initialize payroll")
			return
		}
		c.Flash.Set(app, "Payroll initialized")
		c.fetchPeriod()
	})
}

// ProcessSelected runs the payroll calculation for the checked employees.
func (c *Payroll) ProcessSelected() {
	if c.Busy || len(c.Selected) == 0 {
		return
	}
	ids := make([]int, 0, len(c.Selected))
	for id := range c.Selected {
		ids = append(ids, id)
	}
	c.Busy = true
	app := c.app
	month, year := c.Month, c.Year
	mutate(app, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, app.Client.ProcessPayroll(ctx, ids, month, year)
	}, func(_ struct{}, err error) {
		c.Busy = false
		if err != nil {
			c.Error = api.Message(err, "Could not process payroll")
			return
		}
		c.Selected = map[int]bool{}
		c.Flash.Set(app, "Payroll processed")
		c.fetchPeriod()
	})
}

func (c *Payroll) OpenMarkPaid(rec api.PayrollRecord) {
	c.PayTarget = &rec
	c.PayDetails = api.PaymentDetails{
		PaymentMethod: "eft",
		PaymentDate:   time.Now().Format("2006-01-02"),
	}
	c.PayError = ""
}

func (c *Payroll) CloseMarkPaid() { c.PayTarget = nil }

func (c *Payroll) ConfirmMarkPaid() {
	if c.PayBusy || c.PayTarget == nil {
		return
	}
	if c.PayDetails.PaymentMethod == "" || c.PayDetails.PaymentDate == "" {
		c.PayError = "Payment method and date are required"
		return
	}
	c.PayBusy = true
	c.PayError = ""
	app := c.app
	id := c.PayTarget.ID
	details := c.PayDetails
	mutate(app, func(ctx context.Context) (api.PayrollRecord, error) {
		return app.Client.MarkPayrollPaid(ctx, id, details)
	}, func(_ api.PayrollRecord, err error) {
		c.PayBusy = false
		if err != nil {
			c.PayError = api.Message(err, "Could not mark record paid")
			return
		}
		c.PayTarget = nil
		c.Flash.Set(app, "Marked as paid")
		c.fetchPeriod()
	})
}

// DownloadPayslip saves the record's payslip PDF under the download dir.
func (c *Payroll) DownloadPayslip(id int) {
	app := c.app
	mutate(app, func(ctx context.Context) (api.Blob, error) {
		return app.Client.Payslip(ctx, id)
	}, func(blob api.Blob, err error) {
		if err != nil {
			c.Error = api.Message(err, "Could not download payslip")
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

func (c *Payroll) fetchHistory() {
	c.HistoryLoading = true
	app := c.app
	fetch(app, &c.historySl, func(ctx context.Context) ([]api.PayrollHistoryEntry, error) {
		return app.Client.PayrollHistory(ctx, 0, 50)
	}, func(entries []api.PayrollHistoryEntry, err error) {
		c.HistoryLoading = false
		if err != nil {
			c.HistoryError = api.Message(err, "Could not load payroll history")
			return
		}
		c.History = entries
	})
}
