package controller

import (
	"context"
	"strconv"
	"time"

	"hrconsole/internal/api"
	"hrconsole/internal/format"
)

const (
	AnalyticsTabOverview   = "overview"
	AnalyticsTabPayroll    = "payroll"
	AnalyticsTabLeave      = "leave"
	AnalyticsTabAttendance = "attendance"
	AnalyticsTabCompliance = "compliance"
	AnalyticsTabHR         = "hr"
)

// Analytics is the reporting page. The overview loads up front; each other
// tab's dataset loads on first visit. Changing the year or month refetches
// the overview plus whichever tabs have already loaded.
type Analytics struct {
	app *App

	Tab   string
	Year  int
	Month int

	Overview        *api.DashboardOverview
	OverviewLoading bool
	OverviewError   string
	overviewSl      slot

	Payroll        *api.PayrollAnalytics
	PayrollLoading bool
	PayrollError   string
	payrollSl      slot
	payrollSeen    bool

	Leave        *api.LeaveAnalytics
	LeaveLoading bool
	LeaveError   string
	leaveSl      slot
	leaveSeen    bool

	Attendance        *api.AttendanceAnalytics
	AttendanceLoading bool
	AttendanceError   string
	attendanceSl      slot
	attendanceSeen    bool

	Compliance        *api.ComplianceAnalytics
	ComplianceLoading bool
	ComplianceError   string
	complianceSl      slot
	complianceSeen    bool

	HR        *api.HRInsights
	HRLoading bool
	HRError   string
	hrSl      slot
	hrSeen    bool

	Exporting bool
	Error     string

	Flash flash
}

func newAnalytics(app *App) *Analytics {
	now := time.Now()
	c := &Analytics{
		app:   app,
		Tab:   AnalyticsTabOverview,
		Year:  now.Year(),
		Month: int(now.Month()),
	}
	c.fetchOverview()
	return c
}

func (c *Analytics) Route() Route { return RouteAnalytics }
func (c *Analytics) Teardown()    {}

func (c *Analytics) SetTab(tab string) {
	if tab == c.Tab {
		return
	}
	c.Tab = tab
	switch tab {
	case AnalyticsTabPayroll:
		if !c.payrollSeen {
			c.payrollSeen = true
			c.fetchPayroll()
		}
	case AnalyticsTabLeave:
		if !c.leaveSeen {
			c.leaveSeen = true
			c.fetchLeave()
		}
	case AnalyticsTabAttendance:
		if !c.attendanceSeen {
			c.attendanceSeen = true
			c.fetchAttendance()
		}
	case AnalyticsTabCompliance:
		if !c.complianceSeen {
			c.complianceSeen = true
			c.fetchCompliance()
		}
	case AnalyticsTabHR:
		if !c.hrSeen {
			c.hrSeen = true
			c.fetchHR()
		}
	}
}

// SetPeriod refetches the overview and every tab already loaded. HR
// insights are not period-scoped and stay as they are.
func (c *Analytics) SetPeriod(year, month int) {
	c.Year, c.Month = year, month
	c.fetchOverview()
	if c.payrollSeen {
		c.fetchPayroll()
	}
	if c.leaveSeen {
		c.fetchLeave()
	}
	if c.attendanceSeen {
		c.fetchAttendance()
	}
	if c.complianceSeen {
		c.fetchCompliance()
	}
}

func (c *Analytics) fetchOverview() {
	c.OverviewLoading = true
	app := c.app
	year, month := c.Year, c.Month
	fetch(app, &c.overviewSl, func(ctx context.Context) (api.DashboardOverview, error) {
		return app.Client.DashboardOverviewFor(ctx, year, month)
	}, func(overview api.DashboardOverview, err error) {
		c.OverviewLoading = false
		if err != nil {
			c.OverviewError = api.Message(err, "Could not load overview")
			return
		}
		c.OverviewError = ""
		c.Overview = &overview
	})
}

func (c *Analytics) fetchPayroll() {
	c.PayrollLoading = true
	app := c.app
	year := c.Year
	fetch(app, &c.payrollSl, func(ctx context.Context) (api.PayrollAnalytics, error) {
		return app.Client.PayrollAnalyticsFor(ctx, year)
	}, func(analytics api.PayrollAnalytics, err error) {
		c.PayrollLoading = false
		if err != nil {
			c.PayrollError = api.Message(err, "Could not load payroll analytics")
			return
		}
		c.PayrollError = ""
		c.Payroll = &analytics
	})
}

func (c *Analytics) fetchLeave() {
	c.LeaveLoading = true
	app := c.app
	year := c.Year
	fetch(app, &c.leaveSl, func(ctx context.Context) (api.LeaveAnalytics, error) {
		return app.Client.LeaveAnalyticsFor(ctx, year)
	}, func(analytics api.LeaveAnalytics, err error) {
		c.LeaveLoading = false
		if err != nil {
			c.LeaveError = api.Message(err, "Could not load leave analytics")
			return
		}
		c.LeaveError = ""
		c.Leave = &analytics
	})
}

func (c *Analytics) fetchAttendance() {
	c.AttendanceLoading = true
	app := c.app
	year, month := c.Year, c.Month
	fetch(app, &c.attendanceSl, func(ctx context.Context) (api.AttendanceAnalytics, error) {
		return app.Client.AttendanceAnalyticsFor(ctx, year, month)
	}, func(analytics api.AttendanceAnalytics, err error) {
		c.AttendanceLoading = false
		if err != nil {
			c.AttendanceError = api.Message(err, "Could not load attendance analytics")
			return
		}
		c.AttendanceError = ""
		c.Attendance = &analytics
	})
}

func (c *Analytics) fetchCompliance() {
	c.ComplianceLoading = true
	app := c.app
	year := c.Year
	fetch(app, &c.complianceSl, func(ctx context.Context) (api.ComplianceAnalytics, error) {
		return app.Client.ComplianceAnalyticsFor(ctx, year)
	}, func(analytics api.ComplianceAnalytics, err error) {
		c.ComplianceLoading = false
		if err != nil {
			c.ComplianceError = api.Message(err, "Could not load compliance analytics")
			return
		}
		c.ComplianceError = ""
		c.Compliance = &analytics
	})
}

func (c *Analytics) fetchHR() {
	c.HRLoading = true
	app := c.app
	fetch(app, &c.hrSl, func(ctx context.Context) (api.HRInsights, error) {
		return app.Client.HRInsightsNow(ctx)
	}, func(insights api.HRInsights, err error) {
		c.HRLoading = false
		if err != nil {
			c.HRError = api.Message(err, "Could not load HR insights")
			return
		}
		c.HRError = ""
		c.HR = &insights
	})
}

// Export saves a report for the current period under the download dir.
func (c *Analytics) Export(reportType string) {
	c.Exporting = true
	app := c.app
	year, month := c.Year, c.Month
	mutate(app, func(ctx context.Context) (api.Blob, error) {
		return app.Client.ExportAnalyticsReport(ctx, reportType, year, month, "csv")
	}, func(blob api.Blob, err error) {
		c.Exporting = false
		if err != nil {
			c.Error = api.Message(err, "Could not export report")
			return
		}
		c.Error = ""
		path, err := app.saveBlob(blob)
		if err != nil {
			c.Error = err.Error()
			return
		}
		c.Flash.Set(app, "Saved "+path)
	})
}

// Series is one chart-ready dataset: parallel labels and values.
type Series struct {
	Labels []string
	Values []float64
}

// MonthlyGrossSeries turns the payroll monthly trend into a chart series.
func (c *Analytics) MonthlyGrossSeries() Series {
	var s Series
	if c.Payroll == nil {
		return s
	}
	for _, row := range c.Payroll.MonthlyTrend {
		s.Labels = append(s.Labels, format.MonthName(row.Month))
		s.Values = append(s.Values, parseAmount(row.TotalGross))
	}
	return s
}

// DepartmentCostSeries charts gross cost per department.
func (c *Analytics) DepartmentCostSeries() Series {
	var s Series
	if c.Payroll == nil {
		return s
	}
	for _, row := range c.Payroll.DepartmentBreakdown {
		s.Labels = append(s.Labels, row.Department)
		s.Values = append(s.Values, parseAmount(row.TotalGross))
	}
	return s
}

// LeaveTypeSeries charts days taken per leave type.
func (c *Analytics) LeaveTypeSeries() Series {
	var s Series
	if c.Leave == nil {
		return s
	}
	for _, row := range c.Leave.LeaveTypes {
		s.Labels = append(s.Labels, row.LeaveType)
		s.Values = append(s.Values, parseAmount(row.TotalDays))
	}
	return s
}

// parseAmount reads the SQL-aggregate strings the analytics endpoints emit;
// unparseable input counts as zero rather than faulting a chart.
func parseAmount(value string) float64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return v
}
