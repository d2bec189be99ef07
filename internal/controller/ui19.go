package controller

import (
	"context"
	"time"

	"hrconsole/internal/api"
)

const (
	UI19TabList     = "list"
	UI19TabDetail   = "detail"
	UI19TabGenerate = "generate"
)

// UI19 manages the monthly UIF declarations, including inline edits of a
// line item's UIF number and days worked.
type UI19 struct {
	app *App

	Tab string

	Year         int
	Declarations []api.UI19Declaration
	ListLoading  bool
	ListError    string
	listSl       slot

	Detail        *api.UI19Detail
	DetailLoading bool
	DetailError   string
	detailSl      slot

	// Inline line-item edit state.
	EditingLineID int
	EditUIFNumber string
	EditDays      int
	EditBusy      bool
	EditError     string

	GenMonth int
	GenYear  int
	GenBusy  bool
	GenError string

	SubmitTarget *api.UI19Declaration
	Submission   api.UI19Submission
	SubmitBusy   bool
	SubmitError  string

	Error string
	Flash flash
}

func newUI19(app *App) *UI19 {
	now := time.Now()
	c := &UI19{
		app:      app,
		Tab:      UI19TabList,
		Year:     now.Year(),
		GenMonth: int(now.Month()),
		GenYear:  now.Year(),
	}
	c.fetchList()
	return c
}

func (c *UI19) Route() Route { return RouteUI19 }
func (c *UI19) Teardown()    {}

func (c *UI19) SetTab(tab string) {
	if tab == c.Tab {
		return
	}
	c.Tab = tab
}

func (c *UI19) SetYear(year int) {
	c.Year = year
	c.fetchList()
}

func (c *UI19) fetchList() {
	c.ListLoading = true
	app := c.app
	year := c.Year
	fetch(app, &c.listSl, func(ctx context.Context) ([]api.UI19Declaration, error) {
		return app.Client.UI19Declarations(ctx, year)
	}, func(declarations []api.UI19Declaration, err error) {
		c.ListLoading = false
		if err != nil {
			c.ListError = api.Message(err, "Could not load UI19 declarations")
			return
		}
		c.ListError = ""
		c.Declarations = declarations
	})
}

func (c *UI19) OpenDetail(id int) {
	c.Tab = UI19TabDetail
	c.Detail = nil
	c.EditingLineID = 0
	c.DetailLoading = true
	c.DetailError = ""
	app := c.app
	fetch(app, &c.detailSl, func(ctx context.Context) (api.UI19Detail, error) {
		return app.Client.UI19Declaration(ctx, id)
	}, func(detail api.UI19Detail, err error) {
		c.DetailLoading = false
		if err != nil {
			c.DetailError = api.Message(err, "Could not load declaration")
			return
		}
		c.Detail = &detail
	})
}

func (c *UI19) StartEdit(item api.UI19LineItem) {
	c.EditingLineID = item.ID
	c.EditUIFNumber = item.UIFNumber
	c.EditDays = item.DaysWorked
	c.EditError = ""
}

func (c *UI19) CancelEdit() { c.EditingLineID = 0 }

// SaveEdit patches the line item and merges the server's version into the
// loaded detail in place; nothing else refetches.
func (c *UI19) SaveEdit() {
	if c.EditBusy || c.EditingLineID == 0 {
		return
	}
	if c.EditDays < 0 {
		c.EditError = "Days worked cannot be negative"
		return
	}
	c.EditBusy = true
	c.EditError = ""
	app := c.app
	id := c.EditingLineID
	uifNumber, days := c.EditUIFNumber, c.EditDays
	mutate(app, func(ctx context.Context) (api.UI19LineItem, error) {
		return app.Client.UpdateUI19LineItem(ctx, id, uifNumber, days)
	}, func(updated api.UI19LineItem, err error) {
		c.EditBusy = false
		if err != nil {
			c.EditError = api.Message(err, "Could not update line item")
			return
		}
		c.EditingLineID = 0
		if c.Detail != nil {
			for i, item := range c.Detail.LineItems {
				if item.ID == updated.ID {
					c.Detail.LineItems[i] = updated
					break
				}
			}
		}
		c.Flash.Set(app, "Line item updated")
	})
}

func (c *UI19) Generate() {
	if c.GenBusy {
		return
	}
	c.GenBusy = true
	c.GenError = ""
	app := c.app
	month, year := c.GenMonth, c.GenYear
	mutate(app, func(ctx context.Context) (api.UI19Detail, error) {
		return app.Client.GenerateUI19(ctx, month, year)
	}, func(_ api.UI19Detail, err error) {
		c.GenBusy = false
		if err != nil {
			c.GenError = api.Message(err, "Could not generate declaration")
			return
		}
		c.Flash.Set(app, "UI19 generated")
		c.Tab = UI19TabList
		c.fetchList()
	})
}

func (c *UI19) OpenSubmit(decl api.UI19Declaration) {
	c.SubmitTarget = &decl
	c.Submission = api.UI19Submission{}
	c.SubmitError = ""
}

func (c *UI19) CloseSubmit() { c.SubmitTarget = nil }

func (c *UI19) ConfirmSubmit() {
	if c.SubmitBusy || c.SubmitTarget == nil {
		return
	}
	if c.Submission.SubmissionReference == "" {
		c.SubmitError = "Submission reference is required"
		return
	}
	c.SubmitBusy = true
	c.SubmitError = ""
	app := c.app
	id := c.SubmitTarget.ID
	submission := c.Submission
	mutate(app, func(ctx context.Context) (api.UI19Detail, error) {
		return app.Client.SubmitUI19(ctx, id, submission)
	}, func(_ api.UI19Detail, err error) {
		c.SubmitBusy = false
		if err != nil {
			c.SubmitError = api.Message(err, "Could not record the submission")
			return
		}
		c.SubmitTarget = nil
		c.Flash.Set(app, "Submission recorded")
		c.fetchList()
	})
}

func (c *UI19) Export(id int) {
	app := c.app
	mutate(app, func(ctx context.Context) (api.Blob, error) {
		return app.Client.ExportUI19(ctx, id)
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
