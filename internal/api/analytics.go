package api

import (
	"context"
	"net/url"
)

// Aggregate endpoints return monetary and averaged values as strings
// straight from SQL, so the fields below stay strings and formatting
// happens at render time.

type DashboardOverview struct {
	Employees struct {
		TotalEmployees    int `json:"total_employees"`
		ActiveEmployees   int `json:"active_employees"`
		InactiveEmployees int `json:"inactive_employees"`
	} `json:"employees"`
	Payroll struct {
		TotalGross      string `json:"total_gross"`
		TotalNet        string `json:"total_net"`
		TotalDeductions string `json:"total_deductions"`
		TotalTax        string `json:"total_tax"`
		ProcessedCount  int    `json:"processed_count"`
	} `json:"payroll"`
	Leave struct {
		TotalRequests    int    `json:"total_requests"`
		PendingRequests  int    `json:"pending_requests"`
		ApprovedRequests int    `json:"approved_requests"`
		TotalDaysTaken   string `json:"total_days_taken"`
	} `json:"leave"`
	Attendance struct {
		UniqueEmployees int    `json:"unique_employees"`
		PresentCount    int    `json:"present_count"`
		LateCount       int    `json:"late_count"`
		AbsentCount     int    `json:"absent_count"`
		AvgHoursWorked  string `json:"avg_hours_worked"`
	} `json:"attendance"`
	Compliance struct {
		TotalDeclarations  int    `json:"total_declarations"`
		PendingPayments    int    `json:"pending_payments"`
		PendingSubmissions int    `json:"pending_submissions"`
		OutstandingAmount  string `json:"outstanding_amount"`
	} `json:"compliance"`
}

type MonthlyPayrollTrend struct {
	Month           int    `json:"month"`
	EmployeeCount   int    `json:"employee_count"`
	TotalGross      string `json:"total_gross"`
	TotalNet        string `json:"total_net"`
	TotalTax        string `json:"total_tax"`
	TotalDeductions string `json:"total_deductions"`
}

type DepartmentPayroll struct {
	Department    string `json:"department"`
	EmployeeCount int    `json:"employee_count"`
	TotalGross    string `json:"total_gross"`
	TotalNet      string `json:"total_net"`
	AvgSalary     string `json:"avg_salary"`
}

type PositionPayroll struct {
	Position      string `json:"position"`
	EmployeeCount int    `json:"employee_count"`
	AvgSalary     string `json:"avg_salary"`
	MinSalary     string `json:"min_salary"`
	MaxSalary     string `json:"max_salary"`
}

type PayrollCostBreakdown struct {
	BasicSalary string `json:"basic_salary"`
	Allowances  string `json:"allowances"`
	Bonuses     string `json:"bonuses"`
	Overtime    string `json:"overtime"`
	Tax         string `json:"tax"`
	UIF         string `json:"uif"`
	Pension     string `json:"pension"`
	MedicalAid  string `json:"medical_aid"`
}

type PayrollAnalytics struct {
	MonthlyTrend        []MonthlyPayrollTrend `json:"monthlyTrend"`
	DepartmentBreakdown []DepartmentPayroll   `json:"departmentBreakdown"`
	PositionBreakdown   []PositionPayroll     `json:"positionBreakdown"`
	CostBreakdown       PayrollCostBreakdown  `json:"costBreakdown"`
}

type LeaveTypeUsage struct {
	LeaveType     string `json:"leave_type"`
	RequestCount  int    `json:"request_count"`
	TotalDays     string `json:"total_days"`
	ApprovedCount int    `json:"approved_count"`
	RejectedCount int    `json:"rejected_count"`
}

type MonthlyLeave struct {
	Month         int    `json:"month"`
	RequestCount  int    `json:"request_count"`
	TotalDays     string `json:"total_days"`
	ApprovedCount int    `json:"approved_count"`
}

type DepartmentLeave struct {
	Department      string `json:"department"`
	RequestCount    int    `json:"request_count"`
	TotalDays       string `json:"total_days"`
	UniqueEmployees int    `json:"unique_employees"`
}

type LeaveApprovalStats struct {
	TotalRequests int    `json:"total_requests"`
	Approved      int    `json:"approved"`
	Rejected      int    `json:"rejected"`
	Pending       int    `json:"pending"`
	ApprovalRate  string `json:"approval_rate"`
}

type LeaveAnalytics struct {
	LeaveTypes      []LeaveTypeUsage   `json:"leaveTypes"`
	MonthlyLeave    []MonthlyLeave     `json:"monthlyLeave"`
	DepartmentLeave []DepartmentLeave  `json:"departmentLeave"`
	ApprovalStats   LeaveApprovalStats `json:"approvalStats"`
}

type DailyAttendance struct {
	Date         string `json:"date"`
	TotalRecords int    `json:"total_records"`
	Present      int    `json:"present"`
	Late         int    `json:"late"`
	Absent       int    `json:"absent"`
	AvgHours     string `json:"avg_hours"`
}

type DepartmentAttendance struct {
	Department     string `json:"department"`
	TotalRecords   int    `json:"total_records"`
	PresentCount   int    `json:"present_count"`
	LateCount      int    `json:"late_count"`
	AttendanceRate string `json:"attendance_rate"`
}

type OvertimeStats struct {
	TotalOvertimeHours     string `json:"total_overtime_hours"`
	TotalOvertimePay       string `json:"total_overtime_pay"`
	AvgOvertimePerEmployee string `json:"avg_overtime_per_employee"`
	EmployeesWithOvertime  int    `json:"employees_with_overtime"`
}

type LateArrivalDay struct {
	Date           string `json:"date"`
	LateCount      int    `json:"late_count"`
	AvgLateMinutes string `json:"avg_late_minutes"`
}

type AttendanceAnalytics struct {
	DailyAttendance      []DailyAttendance      `json:"dailyAttendance"`
	DepartmentAttendance []DepartmentAttendance `json:"departmentAttendance"`
	OvertimeStats        OvertimeStats          `json:"overtimeStats"`
	LateArrivals         []LateArrivalDay       `json:"lateArrivals"`
}

type EMP201Stat struct {
	Month            string `json:"month"`
	TotalLiability   string `json:"total_liability"`
	PaymentStatus    string `json:"payment_status"`
	SubmissionStatus string `json:"submission_status"`
	PeriodEndDate    string `json:"period_end_date"`
	PaymentDate      string `json:"payment_date"`
}

type ComplianceOutstanding struct {
	TotalOutstanding string `json:"total_outstanding"`
	OverdueCount     int    `json:"overdue_count"`
	PendingCount     int    `json:"pending_count"`
}

type SubmissionTimelineEntry struct {
	Month            string `json:"month"`
	SubmissionStatus string `json:"submission_status"`
	SubmissionDate   string `json:"submission_date"`
	PaymentStatus    string `json:"payment_status"`
	PaymentDate      string `json:"payment_date"`
	TotalLiability   string `json:"total_liability"`
}

type ComplianceAnalytics struct {
	EMP201Stats        []EMP201Stat              `json:"emp201Stats"`
	Outstanding        ComplianceOutstanding     `json:"outstanding"`
	SubmissionTimeline []SubmissionTimelineEntry `json:"submissionTimeline"`
}

type DepartmentHeadcount struct {
	Department  string `json:"department"`
	Count       int    `json:"count"`
	ActiveCount int    `json:"active_count"`
}

type GenderCount struct {
	Gender string `json:"gender"`
	Count  int    `json:"count"`
}

type AgeGroupCount struct {
	AgeGroup string `json:"age_group"`
	Count    int    `json:"count"`
}

type SalaryStats struct {
	AvgSalary    string `json:"avg_salary"`
	MinSalary    string `json:"min_salary"`
	MaxSalary    string `json:"max_salary"`
	MedianSalary string `json:"median_salary"`
}

type HRInsights struct {
	Headcount          []DepartmentHeadcount `json:"headcount"`
	GenderDistribution []GenderCount         `json:"genderDistribution"`
	AgeDistribution    []AgeGroupCount       `json:"ageDistribution"`
	SalaryStats        SalaryStats           `json:"salaryStats"`
}

func yearMonthQuery(year, month int) url.Values {
	query := url.Values{}
	query.Set("year", itoa(year))
	query.Set("month", itoa(month))
	return query
}

func yearQuery(year int) url.Values {
	query := url.Values{}
	query.Set("year", itoa(year))
	return query
}

func (c *Client) DashboardOverviewFor(ctx context.Context, year, month int) (DashboardOverview, error) {
	var overview DashboardOverview
	err := c.getJSON(ctx, "/analytics/dashboard", yearMonthQuery(year, month), &overview)
	return overview, err
}

func (c *Client) PayrollAnalyticsFor(ctx context.Context, year int) (PayrollAnalytics, error) {
	var analytics PayrollAnalytics
	err := c.getJSON(ctx, "/analytics/payroll", yearQuery(year), &analytics)
	return analytics, err
}

func (c *Client) LeaveAnalyticsFor(ctx context.Context, year int) (LeaveAnalytics, error) {
	var analytics LeaveAnalytics
	err := c.getJSON(ctx, "/analytics/leave", yearQuery(year), &analytics)
	return analytics, err
}

func (c *Client) AttendanceAnalyticsFor(ctx context.Context, year, month int) (AttendanceAnalytics, error) {
	var analytics AttendanceAnalytics
	err := c.getJSON(ctx, "/analytics/attendance", yearMonthQuery(year, month), &analytics)
	return analytics, err
}

func (c *Client) ComplianceAnalyticsFor(ctx context.Context, year int) (ComplianceAnalytics, error) {
	var analytics ComplianceAnalytics
	err := c.getJSON(ctx, "/analytics/compliance", yearQuery(year), &analytics)
	return analytics, err
}

func (c *Client) HRInsightsNow(ctx context.Context) (HRInsights, error) {
	var insights HRInsights
	err := c.getJSON(ctx, "/analytics/hr-insights", nil, &insights)
	return insights, err
}

// ExportAnalyticsReport pulls a report in the requested format. Month is
// optional; pass 0 to omit it.
func (c *Client) ExportAnalyticsReport(ctx context.Context, reportType string, year, month int, format string) (Blob, error) {
	query := url.Values{}
	query.Set("reportType", reportType)
	query.Set("year", itoa(year))
	query.Set("format", format)
	if month > 0 {
		query.Set("month", itoa(month))
	}
	return c.getBlob(ctx, "/analytics/export", query, reportType+"-"+itoa(year)+"."+format)
}
