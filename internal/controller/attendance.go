package controller

import (
	"context"
	"time"

	"hrconsole/internal/api"
	"hrconsole/internal/runloop"
)

const (
	AttendanceTabClock    = "clock"
	AttendanceTabToday    = "today"
	AttendanceTabMonthly  = "monthly"
	AttendanceTabOverride = "override"
)

// Attendance is the clock page: a live wall clock, the caller's status for
// today, the admin day view and the monthly report.
type Attendance struct {
	app *App

	Tab string

	// Now drives the on-screen clock. A 1-second ticker refreshes it; the
	// ticker stops on teardown so no tick outlives the page.
	Now   time.Time
	clock *runloop.Ticker

	Today        *api.AttendanceRecord
	TodayLoading bool
	TodayError   string
	todaySl      slot

	ActionBusy string // which clock action is in flight, "" when idle
	Flash      flash

	// Admin day view.
	Summary        *api.AttendanceSummary
	Records        []api.AttendanceRecord
	DayDate        string
	DayLoading     bool
	DayError       string
	summarySl      slot
	recordsSl      slot
	dayViewVisited bool

	// Monthly report, loaded lazily on first tab visit.
	Report         []api.MonthlyReportRow
	ReportMonth    int
	ReportYear     int
	ReportLoading  bool
	ReportError    string
	reportSl       slot
	monthlyVisited bool

	Override      api.AttendanceOverride
	OverrideBusy  bool
	OverrideError string
}

func newAttendance(app *App) *Attendance {
	now := time.Now()
	c := &Attendance{
		app:         app,
		Tab:         AttendanceTabClock,
		Now:         now,
		DayDate:     now.Format("2006-01-02"),
		ReportMonth: int(now.Month()),
		ReportYear:  now.Year(),
	}
	c.clock = app.Loop.NewTicker(time.Second, func() { c.Now = time.Now() })
	c.fetchToday()
	return c
}

func (c *Attendance) Route() Route { return RouteAttendance }

func (c *Attendance) Teardown() { c.clock.Stop() }

// SetTab is a pure state change; each data tab loads on first visit only.
func (c *Attendance) SetTab(tab string) {
	if tab == c.Tab {
		return
	}
	c.Tab = tab
	switch tab {
	case AttendanceTabToday:
		if !c.dayViewVisited {
			c.dayViewVisited = true
			c.fetchDayView()
		}
	case AttendanceTabMonthly:
		if !c.monthlyVisited {
			c.monthlyVisited = true
			c.fetchReport()
		}
	}
}

func (c *Attendance) fetchToday() {
	c.TodayLoading = true
	app := c.app
	fetch(app, &c.todaySl, func(ctx context.Context) (api.AttendanceRecord, error) {
		return app.Client.TodayAttendance(ctx, 0)
	}, func(rec api.AttendanceRecord, err error) {
		c.TodayLoading = false
		if err != nil {
			// No record yet is normal first thing in the morning.
			if api.Status(err) == 404 {
				c.Today = nil
				c.TodayError = ""
				return
			}
			c.TodayError = api.Message(err, "Could not load today's attendance")
			return
		}
		c.TodayError = ""
		c.Today = &rec
	})
}

// Clock runs one of the four clock actions. Each action gets its own flash
// wording; failure surfaces the server message (e.g. already clocked in).
func (c *Attendance) Clock(action string) {
	if c.ActionBusy != "" {
		return
	}
	var call func(context.Context, int) (api.AttendanceRecord, error)
	var message string
	app := c.app
	switch action {
	case "clock-in":
		call, message = app.Client.ClockIn, "Clocked in"
	case "break-start":
		call, message = app.Client.StartBreak, "Break started"
	case "break-end":
		call, message = app.Client.EndBreak, "Break ended"
	case "clock-out":
		call, message = app.Client.ClockOut, "Clocked out"
	default:
		return
	}
	c.ActionBusy = action
	mutate(app, func(ctx context.Context) (api.AttendanceRecord, error) {
		return call(ctx, 0)
	}, func(rec api.AttendanceRecord, err error) {
		c.ActionBusy = ""
		if err != nil {
			c.TodayError = api.Message(err, "Attendance action failed")
			return
		}
		c.TodayError = ""
		c.Today = &rec
		c.Flash.Set(app, message)
		if c.dayViewVisited {
			c.fetchDayView()
		}
	})
}

// fetchDayView loads the admin summary and the day's records concurrently.
func (c *Attendance) fetchDayView() {
	c.DayLoading = true
	c.DayError = ""
	app := c.app
	date := c.DayDate
	fetch(app, &c.summarySl, func(ctx context.Context) (api.AttendanceSummary, error) {
		return app.Client.AttendanceSummaryFor(ctx, date)
	}, func(summary api.AttendanceSummary, err error) {
		if err != nil {
			c.DayError = api.Message(err, "Could not load attendance summary")
			return
		}
		c.Summary = &summary
	})
	fetch(app, &c.recordsSl, func(ctx context.Context) ([]api.AttendanceRecord, error) {
		return app.Client.AttendanceRecords(ctx, api.AttendanceRecordFilter{Date: date})
	}, func(records []api.AttendanceRecord, err error) {
		c.DayLoading = false
		if err != nil {
			c.DayError = api.Message(err, "Could not load attendance records")
			return
		}
		c.Records = records
	})
}

// SetDayDate changes the day filter and refetches the day view.
func (c *Attendance) SetDayDate(date string) {
	c.DayDate = date
	c.fetchDayView()
}

func (c *Attendance) fetchReport() {
	c.ReportLoading = true
	c.ReportError = ""
	app := c.app
	month, year := c.ReportMonth, c.ReportYear
	fetch(app, &c.reportSl, func(ctx context.Context) ([]api.MonthlyReportRow, error) {
		return app.Client.MonthlyReport(ctx, month, year, 0)
	}, func(rows []api.MonthlyReportRow, err error) {
		c.ReportLoading = false
		if err != nil {
			c.ReportError = api.Message(err, "Could not load monthly report")
			return
		}
		c.Report = rows
	})
}

func (c *Attendance) SetReportPeriod(month, year int) {
	c.ReportMonth, c.ReportYear = month, year
	c.fetchReport()
}

// ReportTotals sums the report columns for the footer row.
func (c *Attendance) ReportTotals() (hours, overtime, pay float64) {
	for _, row := range c.Report {
		hours += row.TotalHours
		overtime += row.TotalOvertime
		pay += row.TotalPay
	}
	return hours, overtime, pay
}

// SubmitOverride posts the admin correction and refreshes the day view.
func (c *Attendance) SubmitOverride() {
	if c.OverrideBusy {
		return
	}
	if c.Override.EmployeeID == 0 || c.Override.Date == "" {
		c.OverrideError = "Employee and date are required"
		return
	}
	c.OverrideBusy = true
	c.OverrideError = ""
	app := c.app
	override := c.Override
	mutate(app, func(ctx context.Context) (api.AttendanceRecord, error) {
		return app.Client.OverrideAttendance(ctx, override)
	}, func(_ api.AttendanceRecord, err error) {
		c.OverrideBusy = false
		if err != nil {
			c.OverrideError = api.Message(err, "Could not apply override")
			return
		}
		c.Override = api.AttendanceOverride{}
		c.Flash.Set(app, "Attendance corrected")
		if c.dayViewVisited {
			c.fetchDayView()
		}
	})
}
