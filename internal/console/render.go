package console

import (
	"fmt"
	"strings"
	"time"

	"hrconsole/internal/controller"
	"hrconsole/internal/format"
)

// renderActive runs on the loop goroutine and snapshots the current page as
// text. Loading flags render as placeholders; the next enter re-renders.
func (c *Console) renderActive() string {
	var b strings.Builder
	active := c.app.Active()
	if active == nil {
		return "starting..."
	}

	fmt.Fprintf(&b, "== %s ==", active.Route())
	if name := c.app.Session.DisplayName(); name != "" {
		fmt.Fprintf(&b, "  [%s / %s]", name, c.app.Session.Role())
	}
	b.WriteString("\n")

	switch page := active.(type) {
	case *controller.Login:
		renderLogin(&b, page)
	case *controller.Dashboard:
		renderDashboard(&b, page)
	case *controller.Employees:
		renderEmployees(&b, page)
	case *controller.Attendance:
		renderAttendance(&b, page)
	case *controller.Leave:
		renderLeave(&b, page)
	case *controller.Payroll:
		renderPayroll(&b, page)
	case *controller.EMP201:
		renderEMP201(&b, page)
	case *controller.UI19:
		renderUI19(&b, page)
	case *controller.IRP5:
		renderIRP5(&b, page)
	case *controller.Analytics:
		renderAnalytics(&b, page)
	}
	return b.String()
}

func line(b *strings.Builder, format string, args ...any) {
	fmt.Fprintf(b, format+"\n", args...)
}

func renderError(b *strings.Builder, message string) {
	if message != "" {
		line(b, "! %s", message)
	}
}

func renderFlash(b *strings.Builder, message string) {
	if message != "" {
		line(b, "* %s", message)
	}
}

func renderLogin(b *strings.Builder, page *controller.Login) {
	if page.Submitting {
		line(b, "signing in...")
		return
	}
	renderError(b, page.Error)
	line(b, "commands: login <email> <password>")
}

func renderDashboard(b *strings.Builder, page *controller.Dashboard) {
	renderFlash(b, page.Flash.Message)
	if page.Profile != nil {
		line(b, "signed in as %s (%s)", page.Profile.Name, page.Profile.Role)
	}
	renderError(b, page.Error)
	if page.Loading {
		line(b, "loading employees...")
		return
	}
	if page.Search != "" {
		line(b, "filter: %q", page.Search)
	}
	for _, e := range page.Visible() {
		line(b, "  #%-4d %-3s %-22s %-14s %-20s %12s",
			e.ID, format.Initials(e.FirstName, e.LastName),
			e.FirstName+" "+e.LastName, e.Department, e.Position, format.Money(e.Salary))
	}
	line(b, "page %d/%d (%d employees)", page.Cursor.Page, page.Cursor.TotalPages, page.Cursor.Total)
	if page.ConfirmDeleteID != 0 {
		line(b, "delete employee #%d? (confirm / cancel)", page.ConfirmDeleteID)
	}
	line(b, "commands: search <q> | next | prev | refresh | delete <id> | restore <id>")
}

func renderEmployees(b *strings.Builder, page *controller.Employees) {
	renderFlash(b, page.Flash.Message)
	renderError(b, page.Error)

	if page.Tab != controller.EmployeesTabList && page.Detail != nil {
		d := page.Detail
		line(b, "#%d %s %s <%s>", d.ID, d.FirstName, d.LastName, d.Email)
		line(b, "  %s / %s, salary %s, joined %s", d.Department, d.Position,
			format.Money(d.Salary), format.Date(d.CreatedAt))
		if page.HistoryLoading {
			line(b, "  loading salary history...")
		}
		for _, a := range page.History {
			line(b, "  %s  %s -> %s", format.Date(a.ChangedAt),
				format.Money(a.OldSalary), format.Money(a.NewSalary))
		}
		line(b, "commands: back")
		return
	}

	if page.Loading {
		line(b, "loading...")
		return
	}
	for _, e := range page.List {
		state := ""
		if !e.IsActive {
			state = " (inactive)"
		}
		line(b, "  #%-4d %-22s %-14s %-20s %12s%s",
			e.ID, e.FirstName+" "+e.LastName, e.Department, e.Position, format.Money(e.Salary), state)
	}
	line(b, "page %d/%d (%d matching)", page.Cursor.Page, page.Cursor.TotalPages, page.Cursor.Total)
	if deps := page.Departments(); len(deps) > 0 {
		line(b, "departments: %s", strings.Join(deps, ", "))
	}
	if page.ConfirmDeleteID != 0 {
		line(b, "delete employee #%d? (confirm / cancel)", page.ConfirmDeleteID)
	}
	line(b, "commands: search <q> | dept <d> | pos <p> | active | inactive | next | prev | open <id> | delete <id> | restore <id>")
}

func renderAttendance(b *strings.Builder, page *controller.Attendance) {
	renderFlash(b, page.Flash.Message)
	line(b, "%s  [tab: %s]", page.Now.Format("Mon 02 Jan 2006 15:04:05"), page.Tab)

	switch page.Tab {
	case controller.AttendanceTabClock:
		renderError(b, page.TodayError)
		if page.TodayLoading {
			line(b, "loading today...")
			return
		}
		if page.Today == nil {
			line(b, "not clocked in today")
		} else {
			t := page.Today
			in, out := "-", "-"
			if t.ClockIn != nil {
				in = format.TimeOfDay(*t.ClockIn)
			}
			if t.ClockOut != nil {
				out = format.TimeOfDay(*t.ClockOut)
			}
			line(b, "status %s  in %s  out %s  hours %s  pay %s",
				t.Status, in, out, format.Hours(t.TotalHours), format.Money(t.DailyPay))
		}
		if page.ActionBusy != "" {
			line(b, "%s in flight...", page.ActionBusy)
		}
		line(b, "commands: in | out | break start | break end | tab <name>")
	case controller.AttendanceTabToday:
		renderError(b, page.DayError)
		if page.DayLoading {
			line(b, "loading %s...", page.DayDate)
			return
		}
		if page.Summary != nil {
			s := page.Summary
			line(b, "%s: %d records, %d present, %d late, %d absent, %s hours",
				page.DayDate, s.TotalRecords, s.Present, s.Late, s.Absent, format.Hours(s.TotalHoursWorked))
		}
		for _, rec := range page.Records {
			line(b, "  #%-4d %-22s %-8s %s", rec.EmployeeID,
				rec.FirstName+" "+rec.LastName, rec.Status, format.Hours(rec.TotalHours))
		}
		line(b, "commands: date <yyyy-mm-dd> | tab <name>")
	case controller.AttendanceTabMonthly:
		renderError(b, page.ReportError)
		if page.ReportLoading {
			line(b, "loading report...")
			return
		}
		line(b, "report for %s", format.PeriodName(page.ReportMonth, page.ReportYear))
		for _, row := range page.Report {
			line(b, "  %-22s %2d days  %s hrs  %s", row.FirstName+" "+row.LastName,
				row.DaysRecorded, format.Hours(row.TotalHours), format.Money(row.TotalPay))
		}
		hours, overtime, pay := page.ReportTotals()
		line(b, "totals: %s hrs, %s overtime, %s pay", format.Hours(hours), format.Hours(overtime), format.Money(pay))
		line(b, "commands: month <m> <yyyy> | tab <name>")
	case controller.AttendanceTabOverride:
		renderError(b, page.OverrideError)
		line(b, "override is driven from scripts; set fields then submit (see page help)")
	}
}

func renderLeave(b *strings.Builder, page *controller.Leave) {
	renderFlash(b, page.Flash.Message)
	renderError(b, page.Error)
	line(b, "[tab: %s]  year %d", page.Tab, page.Year)

	switch page.Tab {
	case controller.LeaveTabApprovals:
		renderError(b, page.ApprovalsError)
		if page.ApprovalsLoad {
			line(b, "loading queue...")
			return
		}
		line(b, "queue (%s): page %d/%d", orAll(page.ApprovalsStatus),
			page.ApprovalsCursor.Page, page.ApprovalsCursor.TotalPages)
		for _, req := range page.Approvals {
			line(b, "  #%-4d %-22s %-10s %s to %s (%.1f days) %s",
				req.ID, req.FirstName+" "+req.LastName, req.LeaveType,
				format.Date(req.StartDate), format.Date(req.EndDate), req.DaysRequested, req.Status)
		}
		if page.Review != nil {
			line(b, "reviewing #%d: approve [notes] / reject [notes] / close", page.Review.ID)
		}
		line(b, "commands: status [s] | next | prev | review <id>")
	case controller.LeaveTabMyRequests:
		renderError(b, page.MineError)
		if page.MineLoading {
			line(b, "loading...")
			return
		}
		for _, req := range page.Mine {
			line(b, "  #%-4d %-10s %s to %s (%.1f days) %s",
				req.ID, req.LeaveType, format.Date(req.StartDate), format.Date(req.EndDate),
				req.DaysRequested, req.Status)
		}
		if page.ConfirmCancelID != 0 {
			line(b, "cancel request #%d? (confirm / abort)", page.ConfirmCancelID)
		}
		line(b, "commands: status [s] | cancel <id>")
	default:
		renderError(b, page.BalancesError)
		if page.BalancesLoading || page.TypesLoading {
			line(b, "loading balances...")
			return
		}
		for _, bal := range page.Balances {
			line(b, "  %-24s %4.1f used / %4.1f total (%d%% used)",
				bal.LeaveType, bal.UsedDays, bal.TotalDays, page.BalanceUsageRate(bal))
		}
		renderError(b, page.FormError)
		line(b, "types:")
		for _, lt := range page.Types {
			line(b, "  %d = %s (%d days/year)", lt.ID, lt.Name, lt.DefaultDaysPerYear)
		}
		line(b, "commands: request <typeID> <start> <end> [reason] | year <yyyy> | tab mine|approvals")
	}
}

func orAll(status string) string {
	if status == "" {
		return "all"
	}
	return status
}

func renderPayroll(b *strings.Builder, page *controller.Payroll) {
	renderFlash(b, page.Flash.Message)
	renderError(b, page.Error)
	line(b, "[tab: %s]  period %s", page.Tab, format.PeriodName(page.Month, page.Year))

	if page.SummaryLoading || page.RecordsLoading {
		line(b, "loading period...")
		return
	}
	if page.Summary != nil {
		s := page.Summary
		line(b, "%d employees  gross %s  net %s  (%d draft / %d processed / %d paid)",
			s.TotalEmployees, format.Money(s.TotalGross), format.Money(s.TotalNet),
			s.DraftCount, s.ProcessedCount, s.PaidCount)
	}
	switch page.Tab {
	case controller.PayrollTabProcessing:
		for _, rec := range page.Drafts() {
			mark := " "
			if page.Selected[rec.EmployeeID] {
				mark = "x"
			}
			line(b, "  [%s] #%-4d %-22s basic %s", mark, rec.EmployeeID,
				rec.FirstName+" "+rec.LastName, format.Money(rec.BasicSalary))
		}
		line(b, "commands: select <empID>|all | process | init")
	case controller.PayrollTabHistory:
		if page.HistoryLoading {
			line(b, "loading history...")
			return
		}
		for _, h := range page.History {
			line(b, "  #%-4d %-22s %s  net %s  %s", h.ID, h.FirstName+" "+h.LastName,
				format.PeriodName(h.Month, h.Year), format.Money(h.NetPay), h.Status)
		}
	default:
		for _, rec := range page.Filtered() {
			line(b, "  #%-4d %-22s gross %12s net %12s %s", rec.ID,
				rec.FirstName+" "+rec.LastName, format.Money(rec.GrossPay),
				format.Money(rec.NetPay), rec.Status)
		}
		if page.PayTarget != nil {
			renderError(b, page.PayError)
			line(b, "marking #%d paid...", page.PayTarget.ID)
		}
		line(b, "commands: period <m> <yyyy> | status [s] | init | pay <id> <method> <date> [ref] | payslip <id> | tab processing|history")
	}
}

func renderEMP201(b *strings.Builder, page *controller.EMP201) {
	renderFlash(b, page.Flash.Message)
	renderError(b, page.Error)
	line(b, "[tab: %s]  year %d", page.Tab, page.Year)

	if page.Tab == controller.EMP201TabDetail && page.Detail != nil {
		d := page.Detail.Declaration
		line(b, "declaration #%d  %s  liability %s  %s / %s",
			d.ID, format.PeriodName(period(d.TaxPeriod)), format.MoneyString(d.TotalLiability),
			d.SubmissionStatus, d.PaymentStatus)
		for _, item := range page.Detail.LineItems {
			line(b, "  %-24s gross %12s paye %10s", item.EmployeeName,
				format.MoneyString(item.GrossRemuneration), format.MoneyString(item.PAYEDeducted))
		}
		return
	}

	if page.SummaryLoading || page.ListLoading {
		line(b, "loading...")
		return
	}
	if page.Summary != nil {
		s := page.Summary
		line(b, "%d declarations, %d submitted, %d paid, %d overdue; outstanding %s",
			s.TotalDeclarations, s.SubmittedCount, s.PaidCount, s.OverdueCount,
			format.MoneyString(s.TotalOutstanding))
	}
	renderError(b, page.GenError)
	for _, d := range page.Declarations {
		line(b, "  #%-4d %-14s liability %12s  %s / %s  due %s (%s)",
			d.ID, format.PeriodName(period(d.TaxPeriod)), format.MoneyString(d.TotalLiability),
			d.SubmissionStatus, d.PaymentStatus, format.Date(d.DueDate),
			format.DueStatus(d.DueDate, time.Now()))
	}
	renderError(b, page.SubmitError)
	renderError(b, page.PayError)
	line(b, "commands: year <yyyy> | status [s] | open <id> | generate [m yyyy] | submit <id> <ref> | payment <id> <date> <ref> | export <id>")
}

// period splits the YYYYMM tax period label.
func period(taxPeriod string) (int, int) {
	if len(taxPeriod) != 6 {
		return 0, 0
	}
	var year, month int
	fmt.Sscanf(taxPeriod[:4], "%d", &year)
	fmt.Sscanf(taxPeriod[4:], "%d", &month)
	return month, year
}

func renderUI19(b *strings.Builder, page *controller.UI19) {
	renderFlash(b, page.Flash.Message)
	renderError(b, page.Error)
	line(b, "[tab: %s]  year %d", page.Tab, page.Year)

	if page.Tab == controller.UI19TabDetail && page.Detail != nil {
		d := page.Detail.Declaration
		line(b, "declaration #%d  %s  UIF %s  %s", d.ID,
			format.PeriodName(d.Month, d.Year), format.MoneyString(d.TotalUIF), d.SubmissionStatus)
		renderError(b, page.EditError)
		for _, item := range page.Detail.LineItems {
			marker := " "
			if page.EditingLineID == item.ID {
				marker = ">"
			}
			line(b, " %s#%-4d %-24s uif %-12s %2d days  %s", marker, item.ID,
				item.EmployeeName, item.UIFNumber, item.DaysWorked, format.MoneyString(item.TotalUIF))
		}
		line(b, "commands: edit <lineID> <uif> <days> | submit <id> <ref> | export <id> | tab list")
		return
	}

	if page.ListLoading {
		line(b, "loading...")
		return
	}
	renderError(b, page.GenError)
	for _, d := range page.Declarations {
		line(b, "  #%-4d %-14s %2d employees  UIF %12s  %s", d.ID,
			format.PeriodName(d.Month, d.Year), d.EmployeeCount,
			format.MoneyString(d.TotalUIF), d.SubmissionStatus)
	}
	renderError(b, page.SubmitError)
	line(b, "commands: year <yyyy> | open <id> | generate [m yyyy] | submit <id> <ref> | export <id>")
}

func renderIRP5(b *strings.Builder, page *controller.IRP5) {
	renderFlash(b, page.Flash.Message)
	renderError(b, page.Error)
	line(b, "[tab: %s]  tax year %s", page.Tab, format.TaxYearLabel(fmt.Sprintf("%d", page.TaxYear)))

	if page.Tab == controller.IRP5TabReconciliation {
		renderError(b, page.ReconError)
		if page.ReconLoading {
			line(b, "loading reconciliation...")
			return
		}
		if page.Recon == nil {
			line(b, "no reconciliation yet")
			return
		}
		r := page.Recon
		line(b, "%d employees  remuneration %s  PAYE %s  status %s",
			r.EmployeeCount, format.MoneyString(r.TotalRemuneration),
			format.MoneyString(r.TotalPAYE), r.ReconStatus)
		return
	}

	renderError(b, page.CertsError)
	if page.CertsLoading {
		line(b, "loading certificates...")
		return
	}
	renderError(b, page.GenError)
	for _, cert := range page.Certificates {
		line(b, "  #%-4d %-16s %-24s %12s  %s", cert.ID, cert.CertificateNumber,
			cert.EmployeeName, format.MoneyString(cert.TotalRemuneration), cert.GenerationStatus)
	}
	if page.Selected != nil {
		s := page.Selected
		line(b, "certificate %s: 3601=%s 4101=%s 4141=%s 4142=%s (close)", s.CertificateNumber,
			format.MoneyString(s.Code3601), format.MoneyString(s.Code4101),
			format.MoneyString(s.Code4141), format.MoneyString(s.Code4142))
	}
	if page.ConfirmIssue {
		line(b, "issue every certificate for this tax year? there is no undo (confirm / cancel)")
	}
	line(b, "commands: year <yyyy> | generate | issue | open <id> | download <id> | export | tab reconciliation")
}

func renderAnalytics(b *strings.Builder, page *controller.Analytics) {
	renderFlash(b, page.Flash.Message)
	renderError(b, page.Error)
	if page.Exporting {
		line(b, "exporting...")
	}
	line(b, "[tab: %s]  %s", page.Tab, format.PeriodName(page.Month, page.Year))

	switch page.Tab {
	case controller.AnalyticsTabPayroll:
		renderError(b, page.PayrollError)
		if page.PayrollLoading {
			line(b, "loading...")
			return
		}
		renderSeries(b, "monthly gross", page.MonthlyGrossSeries())
		renderSeries(b, "department cost", page.DepartmentCostSeries())
	case controller.AnalyticsTabLeave:
		renderError(b, page.LeaveError)
		if page.LeaveLoading {
			line(b, "loading...")
			return
		}
		renderSeries(b, "days by leave type", page.LeaveTypeSeries())
	case controller.AnalyticsTabAttendance:
		renderError(b, page.AttendanceError)
		if page.AttendanceLoading {
			line(b, "loading...")
			return
		}
		if page.Attendance != nil {
			o := page.Attendance.OvertimeStats
			line(b, "overtime: %s hrs, %s pay, %d employees",
				o.TotalOvertimeHours, format.MoneyString(o.TotalOvertimePay), o.EmployeesWithOvertime)
			for _, day := range page.Attendance.DailyAttendance {
				line(b, "  %s  %2d records  %2d present  %2d late", day.Date,
					day.TotalRecords, day.Present, day.Late)
			}
		}
	case controller.AnalyticsTabCompliance:
		renderError(b, page.ComplianceError)
		if page.ComplianceLoading {
			line(b, "loading...")
			return
		}
		if page.Compliance != nil {
			o := page.Compliance.Outstanding
			line(b, "outstanding %s (%d overdue, %d pending)",
				format.MoneyString(o.TotalOutstanding), o.OverdueCount, o.PendingCount)
			for _, entry := range page.Compliance.SubmissionTimeline {
				line(b, "  %-10s %-10s / %-8s %12s", entry.Month,
					entry.SubmissionStatus, entry.PaymentStatus, format.MoneyString(entry.TotalLiability))
			}
		}
	case controller.AnalyticsTabHR:
		renderError(b, page.HRError)
		if page.HRLoading {
			line(b, "loading...")
			return
		}
		if page.HR != nil {
			for _, h := range page.HR.Headcount {
				line(b, "  %-20s %3d (%d active)", h.Department, h.Count, h.ActiveCount)
			}
			s := page.HR.SalaryStats
			line(b, "salary: avg %s, median %s, range %s - %s",
				format.MoneyString(s.AvgSalary), format.MoneyString(s.MedianSalary),
				format.MoneyString(s.MinSalary), format.MoneyString(s.MaxSalary))
		}
	default:
		renderError(b, page.OverviewError)
		if page.OverviewLoading {
			line(b, "loading overview...")
			return
		}
		if page.Overview != nil {
			o := page.Overview
			line(b, "employees: %d total, %d active", o.Employees.TotalEmployees, o.Employees.ActiveEmployees)
			line(b, "payroll:   gross %s, net %s (%d processed)",
				format.MoneyString(o.Payroll.TotalGross), format.MoneyString(o.Payroll.TotalNet),
				o.Payroll.ProcessedCount)
			line(b, "leave:     %d requests, %d pending", o.Leave.TotalRequests, o.Leave.PendingRequests)
			line(b, "compliance: %d declarations, outstanding %s",
				o.Compliance.TotalDeclarations, format.MoneyString(o.Compliance.OutstandingAmount))
		}
	}
	line(b, "commands: tab overview|payroll|leave|attendance|compliance|hr | period <yyyy> <m> | export payroll|employees")
}

func renderSeries(b *strings.Builder, title string, s controller.Series) {
	if len(s.Labels) == 0 {
		return
	}
	line(b, "%s:", title)
	max := 0.0
	for _, v := range s.Values {
		if v > max {
			max = v
		}
	}
	for i, label := range s.Labels {
		width := 0
		if max > 0 {
			width = int(s.Values[i] / max * 30)
		}
		line(b, "  %-16s %s %s", label, strings.Repeat("#", width), format.Money(s.Values[i]))
	}
}
