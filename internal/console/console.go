// Package console is the terminal front end: it reads commands line by
// line, runs them as tasks on the run loop and prints a text rendering of
// the active page after each one. All controller state is touched on the
// loop goroutine only; the reader goroutine just ferries lines across.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"hrconsole/internal/controller"
)

type Console struct {
	app *controller.App
	in  io.Reader
	out io.Writer
}

func New(app *controller.App, in io.Reader, out io.Writer) *Console {
	return &Console{app: app, in: in, out: out}
}

// Run drives the loop until ctx is cancelled or input ends. The loop itself
// runs on this goroutine; input lines arrive over a channel.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		close(lines)
	}()

	loop := c.app.Loop
	go loop.Run(ctx)

	c.app.OnRouteChange(func(controller.Route) {})
	loop.Post(func() { c.app.Navigate(controller.RouteDashboard) })
	loop.Sync()
	c.render()

	for {
		fmt.Fprint(c.out, c.prompt())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit := false
			loop.Post(func() { quit = c.dispatch(line) })
			loop.Sync()
			if quit {
				return nil
			}
			c.render()
		}
	}
}

func (c *Console) prompt() string {
	route := controller.RouteLogin
	c.app.Loop.Post(func() {
		if active := c.app.Active(); active != nil {
			route = active.Route()
		}
	})
	c.app.Loop.Sync()
	return fmt.Sprintf("%s> ", route)
}

func (c *Console) render() {
	var snapshot string
	c.app.Loop.Post(func() { snapshot = c.renderActive() })
	c.app.Loop.Sync()
	fmt.Fprintln(c.out, snapshot)
}

// dispatch runs on the loop. It returns true when the user asked to quit.
func (c *Console) dispatch(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		c.printHelp()
		return false
	case "routes":
		for _, r := range controller.Routes {
			fmt.Fprintln(c.out, " ", r)
		}
		return false
	case "go":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: go <route>")
			return false
		}
		c.app.Navigate(controller.Route(args[0]))
		return false
	case "logout":
		c.app.Logout()
		return false
	}

	switch page := c.app.Active().(type) {
	case *controller.Login:
		c.handleLogin(page, cmd, args)
	case *controller.Dashboard:
		c.handleDashboard(page, cmd, args)
	case *controller.Employees:
		c.handleEmployees(page, cmd, args)
	case *controller.Attendance:
		c.handleAttendance(page, cmd, args)
	case *controller.Leave:
		c.handleLeave(page, cmd, args)
	case *controller.Payroll:
		c.handlePayroll(page, cmd, args)
	case *controller.EMP201:
		c.handleEMP201(page, cmd, args)
	case *controller.UI19:
		c.handleUI19(page, cmd, args)
	case *controller.IRP5:
		c.handleIRP5(page, cmd, args)
	case *controller.Analytics:
		c.handleAnalytics(page, cmd, args)
	default:
		c.unknown(cmd)
	}
	return false
}

func (c *Console) unknown(cmd string) {
	fmt.Fprintf(c.out, "unknown command %q (try help)\n", cmd)
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, `global:
  go <route>        switch page (see routes)
  routes            list pages
  logout            clear the session
  quit              leave the console
  <enter>           re-render the page

page commands are listed in each page's footer
`)
}

func atoiOr(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func (c *Console) handleLogin(page *controller.Login, cmd string, args []string) {
	switch cmd {
	case "login":
		if len(args) != 2 {
			fmt.Fprintln(c.out, "usage: login <email> <password>")
			return
		}
		page.Email, page.Password = args[0], args[1]
		page.Submit()
	default:
		c.unknown(cmd)
	}
}

func (c *Console) handleDashboard(page *controller.Dashboard, cmd string, args []string) {
	switch cmd {
	case "search":
		page.Search = strings.Join(args, " ")
	case "next":
		page.NextPage()
	case "prev":
		page.PrevPage()
	case "refresh":
		page.Refresh()
	case "delete":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: delete <id>")
			return
		}
		page.RequestDelete(atoiOr(args[0], 0))
	case "confirm":
		page.ConfirmDelete()
	case "cancel":
		page.CancelDelete()
	case "restore":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: restore <id>")
			return
		}
		page.Restore(atoiOr(args[0], 0))
	default:
		c.unknown(cmd)
	}
}

func (c *Console) handleEmployees(page *controller.Employees, cmd string, args []string) {
	switch cmd {
	case "search":
		page.Search = strings.Join(args, " ")
		page.ApplyFilters()
	case "dept":
		page.Department = strings.Join(args, " ")
		page.ApplyFilters()
	case "pos":
		page.Position = strings.Join(args, " ")
		page.ApplyFilters()
	case "inactive":
		page.ActiveOnly = false
		page.ApplyFilters()
	case "active":
		page.ActiveOnly = true
		page.ApplyFilters()
	case "next":
		page.NextPage()
	case "prev":
		page.PrevPage()
	case "open":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: open <id>")
			return
		}
		page.OpenDetail(atoiOr(args[0], 0))
	case "back":
		page.BackToList()
	case "delete":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: delete <id>")
			return
		}
		page.RequestDelete(atoiOr(args[0], 0))
	case "confirm":
		page.ConfirmDelete()
	case "cancel":
		page.CancelDelete()
	case "restore":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: restore <id>")
			return
		}
		page.Restore(atoiOr(args[0], 0))
	default:
		c.unknown(cmd)
	}
}

func (c *Console) handleAttendance(page *controller.Attendance, cmd string, args []string) {
	switch cmd {
	case "tab":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: tab clock|today|monthly|override")
			return
		}
		page.SetTab(args[0])
	case "in":
		page.Clock("clock-in")
	case "out":
		page.Clock("clock-out")
	case "break":
		if len(args) == 1 && args[0] == "start" {
			page.Clock("break-start")
			return
		}
		if len(args) == 1 && args[0] == "end" {
			page.Clock("break-end")
			return
		}
		fmt.Fprintln(c.out, "usage: break start|end")
	case "date":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: date <yyyy-mm-dd>")
			return
		}
		page.SetDayDate(args[0])
	case "month":
		if len(args) != 2 {
			fmt.Fprintln(c.out, "usage: month <m> <yyyy>")
			return
		}
		page.SetReportPeriod(atoiOr(args[0], 0), atoiOr(args[1], 0))
	default:
		c.unknown(cmd)
	}
}

func (c *Console) handleLeave(page *controller.Leave, cmd string, args []string) {
	switch cmd {
	case "tab":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: tab request|mine|approvals")
			return
		}
		page.SetTab(args[0])
	case "year":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: year <yyyy>")
			return
		}
		page.SetYear(atoiOr(args[0], 0))
	case "request":
		if len(args) < 3 {
			fmt.Fprintln(c.out, "usage: request <typeID> <start> <end> [reason...]")
			return
		}
		page.Draft.LeaveTypeID = atoiOr(args[0], 0)
		page.Draft.StartDate = args[1]
		page.Draft.EndDate = args[2]
		page.Draft.Reason = strings.Join(args[3:], " ")
		page.Submit()
	case "cancel":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: cancel <id>")
			return
		}
		page.RequestCancel(atoiOr(args[0], 0))
	case "confirm":
		page.ConfirmCancel()
	case "abort":
		page.AbortCancel()
	case "status":
		if len(args) > 1 {
			fmt.Fprintln(c.out, "usage: status [pending|approved|rejected|cancelled]")
			return
		}
		status := ""
		if len(args) == 1 {
			status = args[0]
		}
		if page.Tab == controller.LeaveTabApprovals {
			page.SetApprovalsStatus(status)
		} else {
			page.SetMineStatus(status)
		}
	case "next":
		page.ApprovalsNext()
	case "prev":
		page.ApprovalsPrev()
	case "review":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: review <id>")
			return
		}
		id := atoiOr(args[0], 0)
		for _, req := range page.Approvals {
			if req.ID == id {
				page.OpenReview(req)
				return
			}
		}
		fmt.Fprintln(c.out, "request not on this page")
	case "approve", "reject":
		if page.Review == nil {
			fmt.Fprintln(c.out, "open a request with review <id> first")
			return
		}
		page.ReviewNotes = strings.Join(args, " ")
		page.Decide(cmd == "approve")
	case "close":
		page.CloseReview()
	default:
		c.unknown(cmd)
	}
}

func (c *Console) handlePayroll(page *controller.Payroll, cmd string, args []string) {
	switch cmd {
	case "tab":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: tab overview|records|process|history")
			return
		}
		page.SetTab(args[0])
	case "period":
		if len(args) != 2 {
			fmt.Fprintln(c.out, "usage: period <m> <yyyy>")
			return
		}
		page.SetPeriod(atoiOr(args[0], 0), atoiOr(args[1], 0))
	case "status":
		if len(args) == 0 {
			page.StatusFilter = ""
			return
		}
		page.StatusFilter = args[0]
	case "init":
		page.Initialize()
	case "select":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: select <employeeID>|all")
			return
		}
		if args[0] == "all" {
			page.SelectAllDrafts()
			return
		}
		page.ToggleSelect(atoiOr(args[0], 0))
	case "process":
		page.ProcessSelected()
	case "pay":
		if len(args) < 3 {
			fmt.Fprintln(c.out, "usage: pay <recordID> <method> <date> [reference]")
			return
		}
		id := atoiOr(args[0], 0)
		for _, rec := range page.Records {
			if rec.ID == id {
				page.OpenMarkPaid(rec)
				page.PayDetails.PaymentMethod = args[1]
				page.PayDetails.PaymentDate = args[2]
				if len(args) > 3 {
					page.PayDetails.PaymentReference = args[3]
				}
				page.ConfirmMarkPaid()
				return
			}
		}
		fmt.Fprintln(c.out, "record not in the current period")
	case "payslip":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: payslip <recordID>")
			return
		}
		page.DownloadPayslip(atoiOr(args[0], 0))
	default:
		c.unknown(cmd)
	}
}

func (c *Console) handleEMP201(page *controller.EMP201, cmd string, args []string) {
	switch cmd {
	case "tab":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: tab dashboard|declarations|detail")
			return
		}
		page.SetTab(args[0])
	case "year":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: year <yyyy>")
			return
		}
		page.SetYear(atoiOr(args[0], 0))
	case "status":
		status := ""
		if len(args) == 1 {
			status = args[0]
		}
		page.SetStatusFilter(status)
	case "open":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: open <id>")
			return
		}
		page.OpenDetail(atoiOr(args[0], 0))
	case "generate":
		if len(args) == 2 {
			page.GenMonth = atoiOr(args[0], page.GenMonth)
			page.GenYear = atoiOr(args[1], page.GenYear)
		}
		page.Generate()
	case "submit":
		if len(args) < 2 {
			fmt.Fprintln(c.out, "usage: submit <id> <sars-reference>")
			return
		}
		id := atoiOr(args[0], 0)
		for _, decl := range page.Declarations {
			if decl.ID == id {
				page.OpenSubmit(decl)
				page.Submission.SubmissionReference = args[1]
				page.Acknowledged = true
				page.ConfirmSubmit()
				return
			}
		}
		fmt.Fprintln(c.out, "declaration not in the current year")
	case "payment":
		if len(args) < 3 {
			fmt.Fprintln(c.out, "usage: payment <id> <date> <reference>")
			return
		}
		id := atoiOr(args[0], 0)
		for _, decl := range page.Declarations {
			if decl.ID == id {
				page.OpenPay(decl)
				page.Payment.PaymentDate = args[1]
				page.Payment.PaymentReference = args[2]
				page.ConfirmPay()
				return
			}
		}
		fmt.Fprintln(c.out, "declaration not in the current year")
	case "export":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: export <id>")
			return
		}
		page.Export(atoiOr(args[0], 0))
	default:
		c.unknown(cmd)
	}
}

func (c *Console) handleUI19(page *controller.UI19, cmd string, args []string) {
	switch cmd {
	case "tab":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: tab list|detail")
			return
		}
		page.SetTab(args[0])
	case "year":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: year <yyyy>")
			return
		}
		page.SetYear(atoiOr(args[0], 0))
	case "open":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: open <id>")
			return
		}
		page.OpenDetail(atoiOr(args[0], 0))
	case "generate":
		if len(args) == 2 {
			page.GenMonth = atoiOr(args[0], page.GenMonth)
			page.GenYear = atoiOr(args[1], page.GenYear)
		}
		page.Generate()
	case "edit":
		if len(args) != 3 {
			fmt.Fprintln(c.out, "usage: edit <lineID> <uif-number> <days>")
			return
		}
		if page.Detail == nil {
			fmt.Fprintln(c.out, "open a declaration first")
			return
		}
		id := atoiOr(args[0], 0)
		for _, item := range page.Detail.LineItems {
			if item.ID == id {
				page.StartEdit(item)
				page.EditUIFNumber = args[1]
				page.EditDays = atoiOr(args[2], 0)
				page.SaveEdit()
				return
			}
		}
		fmt.Fprintln(c.out, "line item not on this declaration")
	case "submit":
		if len(args) < 2 {
			fmt.Fprintln(c.out, "usage: submit <id> <reference>")
			return
		}
		id := atoiOr(args[0], 0)
		for _, decl := range page.Declarations {
			if decl.ID == id {
				page.OpenSubmit(decl)
				page.Submission.SubmissionReference = args[1]
				page.ConfirmSubmit()
				return
			}
		}
		fmt.Fprintln(c.out, "declaration not in the current year")
	case "export":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: export <id>")
			return
		}
		page.Export(atoiOr(args[0], 0))
	default:
		c.unknown(cmd)
	}
}

func (c *Console) handleIRP5(page *controller.IRP5, cmd string, args []string) {
	switch cmd {
	case "tab":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: tab certificates|reconciliation")
			return
		}
		page.SetTab(args[0])
	case "year":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: year <yyyy>")
			return
		}
		page.SetTaxYear(atoiOr(args[0], 0))
	case "generate":
		page.Generate()
	case "issue":
		page.RequestIssueAll()
	case "confirm":
		page.ConfirmIssueAll()
	case "cancel":
		page.CancelIssueAll()
	case "open":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: open <certificateID>")
			return
		}
		id := atoiOr(args[0], 0)
		for _, cert := range page.Certificates {
			if cert.ID == id {
				page.OpenCertificate(cert)
				return
			}
		}
		fmt.Fprintln(c.out, "certificate not in this tax year")
	case "close":
		page.CloseCertificate()
	case "download":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: download <certificateID>")
			return
		}
		page.DownloadCertificate(atoiOr(args[0], 0))
	case "export":
		page.Export()
	default:
		c.unknown(cmd)
	}
}

func (c *Console) handleAnalytics(page *controller.Analytics, cmd string, args []string) {
	switch cmd {
	case "tab":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: tab overview|payroll|leave|attendance|compliance|hr")
			return
		}
		page.SetTab(args[0])
	case "period":
		if len(args) != 2 {
			fmt.Fprintln(c.out, "usage: period <yyyy> <m>")
			return
		}
		page.SetPeriod(atoiOr(args[0], 0), atoiOr(args[1], 0))
	case "export":
		if len(args) != 1 {
			fmt.Fprintln(c.out, "usage: export payroll|employees")
			return
		}
		page.Export(args[0])
	default:
		c.unknown(cmd)
	}
}
