package controller

import (
	"context"
	"time"

	"hrconsole/internal/api"
)

const (
	LeaveTabRequest    = "request"
	LeaveTabMyRequests = "my-requests"
	LeaveTabApprovals  = "approvals"
	LeaveTabBalance    = "balance"
	LeaveTabAnalytics  = "analytics"
)

// Leave covers the employee side (request form, own requests, balances) and
// the manager side (approvals queue with the review modal).
type Leave struct {
	app *App

	Tab string

	Types        []api.LeaveType
	TypesLoading bool
	typesSl      slot

	Year            int
	Balances        []api.LeaveBalance
	BalancesLoading bool
	BalancesError   string
	balancesSl      slot

	Draft      api.LeaveRequestDraft
	FormError  string
	Submitting bool

	Mine        []api.LeaveRequest
	MineStatus  string
	MineLoading bool
	MineError   string
	mineSl      slot
	mineVisited bool

	Approvals       []api.LeaveRequest
	ApprovalsCursor PageCursor
	ApprovalsStatus string
	ApprovalsLoad   bool
	ApprovalsError  string
	approvalsSl     slot
	approvalsSeen   bool

	// Review modal.
	Review      *api.LeaveRequest
	ReviewNotes string
	ReviewBusy  bool

	ConfirmCancelID int

	Error string
	Flash flash
}

func newLeave(app *App) *Leave {
	c := &Leave{
		app:             app,
		Tab:             LeaveTabRequest,
		Year:            time.Now().Year(),
		ApprovalsStatus: "pending",
	}
	c.ApprovalsCursor = PageCursor{Page: 1, Limit: 10}
	c.fetchTypes()
	c.fetchBalances()
	return c
}

func (c *Leave) Route() Route { return RouteLeave }
func (c *Leave) Teardown()    {}

func (c *Leave) SetTab(tab string) {
	if tab == c.Tab {
		return
	}
	c.Tab = tab
	switch tab {
	case LeaveTabMyRequests:
		if !c.mineVisited {
			c.mineVisited = true
			c.fetchMine()
		}
	case LeaveTabApprovals:
		if !c.approvalsSeen {
			c.approvalsSeen = true
			c.fetchApprovals()
		}
	case LeaveTabAnalytics:
		// Analytics aggregates what is already loaded; make sure the
		// inputs exist.
		if !c.mineVisited {
			c.mineVisited = true
			c.fetchMine()
		}
	}
}

func (c *Leave) fetchTypes() {
	c.TypesLoading = true
	app := c.app
	fetch(app, &c.typesSl, func(ctx context.Context) ([]api.LeaveType, error) {
		return app.Client.LeaveTypes(ctx)
	}, func(types []api.LeaveType, err error) {
		c.TypesLoading = false
		if err != nil {
			c.Error = api.Message(err, "Could not load leave types")
			return
		}
		c.Types = types
	})
}

func (c *Leave) fetchBalances() {
	c.BalancesLoading = true
	app := c.app
	year := c.Year
	fetch(app, &c.balancesSl, func(ctx context.Context) ([]api.LeaveBalance, error) {
		return app.Client.MyLeaveBalances(ctx, year)
	}, func(balances []api.LeaveBalance, err error) {
		c.BalancesLoading = false
		if err != nil {
			c.BalancesError = api.Message(err, "Could not load leave balances")
			return
		}
		c.BalancesError = ""
		c.Balances = balances
	})
}

func (c *Leave) SetYear(year int) {
	c.Year = year
	c.fetchBalances()
}

func (c *Leave) fetchMine() {
	c.MineLoading = true
	app := c.app
	status := c.MineStatus
	fetch(app, &c.mineSl, func(ctx context.Context) ([]api.LeaveRequest, error) {
		return app.Client.MyLeaveRequests(ctx, status)
	}, func(requests []api.LeaveRequest, err error) {
		c.MineLoading = false
		if err != nil {
			c.MineError = api.Message(err, "Could not load leave requests")
			return
		}
		c.MineError = ""
		c.Mine = requests
	})
}

func (c *Leave) SetMineStatus(status string) {
	c.MineStatus = status
	c.fetchMine()
}

func (c *Leave) fetchApprovals() {
	c.ApprovalsLoad = true
	app := c.app
	page, limit, status := c.ApprovalsCursor.Page, c.ApprovalsCursor.Limit, c.ApprovalsStatus
	fetch(app, &c.approvalsSl, func(ctx context.Context) (api.LeaveRequestPage, error) {
		return app.Client.AllLeaveRequests(ctx, page, limit, status)
	}, func(res api.LeaveRequestPage, err error) {
		c.ApprovalsLoad = false
		if err != nil {
			c.ApprovalsError = api.Message(err, "Could not load approvals queue")
			return
		}
		c.ApprovalsError = ""
		c.Approvals = res.Data
		c.ApprovalsCursor.Apply(res.Page, res.Limit, res.Total, res.TotalPages)
	})
}

func (c *Leave) SetApprovalsStatus(status string) {
	c.ApprovalsStatus = status
	c.ApprovalsCursor.Page = 1
	c.fetchApprovals()
}

func (c *Leave) ApprovalsPrev() {
	if c.ApprovalsCursor.Prev() {
		c.fetchApprovals()
	}
}

func (c *Leave) ApprovalsNext() {
	if c.ApprovalsCursor.Next() {
		c.fetchApprovals()
	}
}

// Submit posts the request form. Dates and type are required; day counting
// and balance checks happen server-side.
func (c *Leave) Submit() {
	if c.Submitting {
		return
	}
	if c.Draft.LeaveTypeID == 0 || c.Draft.StartDate == "" || c.Draft.EndDate == "" {
		c.FormError = "Leave type, start date and end date are required"
		return
	}
	c.Submitting = true
	c.FormError = ""
	app := c.app
	draft := c.Draft
	mutate(app, func(ctx context.Context) (api.LeaveRequest, error) {
		return app.Client.CreateLeaveRequest(ctx, draft)
	}, func(_ api.LeaveRequest, err error) {
		c.Submitting = false
		if err != nil {
			c.FormError = api.Message(err, "Could not submit leave request")
			return
		}
		c.Draft = api.LeaveRequestDraft{}
		c.Flash.Set(app, "Leave request submitted")
		c.fetchBalances()
		if c.mineVisited {
			c.fetchMine()
		}
	})
}

func (c *Leave) RequestCancel(id int) { c.ConfirmCancelID = id }
func (c *Leave) AbortCancel()         { c.ConfirmCancelID = 0 }

func (c *Leave) ConfirmCancel() {
	id := c.ConfirmCancelID
	if id == 0 {
		return
	}
	c.ConfirmCancelID = 0
	app := c.app
	mutate(app, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, app.Client.CancelLeaveRequest(ctx, id)
	}, func(_ struct{}, err error) {
		if err != nil {
			c.MineError = api.Message(err, "Could not cancel request")
			return
		}
		c.Flash.Set(app, "Leave request cancelled")
		c.fetchMine()
		c.fetchBalances()
	})
}

func (c *Leave) OpenReview(req api.LeaveRequest) {
	c.Review = &req
	c.ReviewNotes = ""
}

func (c *Leave) CloseReview() { c.Review = nil }

// Decide approves or rejects the request in the review modal and refetches
// the queue so a decided request drops out of the pending view.
func (c *Leave) Decide(approve bool) {
	if c.ReviewBusy || c.Review == nil {
		return
	}
	c.ReviewBusy = true
	app := c.app
	id := c.Review.ID
	notes := c.ReviewNotes
	call := app.Client.RejectLeaveRequest
	message := "Leave request rejected"
	if approve {
		call = app.Client.ApproveLeaveRequest
		message = "Leave request approved"
	}
	mutate(app, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, call(ctx, id, notes)
	}, func(_ struct{}, err error) {
		c.ReviewBusy = false
		if err != nil {
			c.ApprovalsError = api.Message(err, "Could not record the decision")
			return
		}
		c.Review = nil
		c.Flash.Set(app, message)
		c.fetchApprovals()
	})
}

// TypeUsage is one row of the client-side analytics tab.
type TypeUsage struct {
	LeaveType string
	Requests  int
	Days      float64
	Approved  int
}

// UsageByType aggregates the already-fetched requests; nothing refetches.
func (c *Leave) UsageByType() []TypeUsage {
	index := map[string]int{}
	var out []TypeUsage
	for _, req := range c.Mine {
		i, ok := index[req.LeaveType]
		if !ok {
			i = len(out)
			index[req.LeaveType] = i
			out = append(out, TypeUsage{LeaveType: req.LeaveType})
		}
		out[i].Requests++
		out[i].Days += req.DaysRequested
		if req.Status == "approved" {
			out[i].Approved++
		}
	}
	return out
}

// BalanceUsageRate reports used days over total days for one balance row.
func (c *Leave) BalanceUsageRate(b api.LeaveBalance) int {
	if b.TotalDays <= 0 {
		return 0
	}
	return int(b.UsedDays / b.TotalDays * 100)
}
