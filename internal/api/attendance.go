package api

import (
	"context"
	"net/url"
)

type AttendanceRecord struct {
	ID                    int     `json:"id"`
	CompanyID             int     `json:"company_id"`
	EmployeeID            int     `json:"employee_id"`
	FirstName             string  `json:"first_name"`
	LastName              string  `json:"last_name"`
	Email                 string  `json:"email"`
	Department            string  `json:"department"`
	Position              string  `json:"position"`
	Date                  string  `json:"date"`
	ClockIn               *string `json:"clock_in"`
	ClockOut              *string `json:"clock_out"`
	BreakStart            *string `json:"break_start"`
	BreakEnd              *string `json:"break_end"`
	TotalBreakMinutes     int     `json:"total_break_minutes"`
	TotalHours            float64 `json:"total_hours"`
	OvertimeHours         float64 `json:"overtime_hours"`
	LateMinutes           int     `json:"late_minutes"`
	EarlyDepartureMinutes int     `json:"early_departure_minutes"`
	Status                string  `json:"status"`
	ExpectedStart         string  `json:"expected_start"`
	ExpectedEnd           string  `json:"expected_end"`
	ExpectedHours         float64 `json:"expected_hours"`
	HourlyRate            float64 `json:"hourly_rate"`
	DailyPay              float64 `json:"daily_pay"`
	OvertimePay           float64 `json:"overtime_pay"`
	Notes                 string  `json:"notes"`
}

type AttendanceSummary struct {
	TotalRecords       int     `json:"total_records"`
	Present            int     `json:"present"`
	Absent             int     `json:"absent"`
	Late               int     `json:"late"`
	HalfDay            int     `json:"half_day"`
	CurrentlyClockedIn int     `json:"currently_clocked_in"`
	TotalHoursWorked   float64 `json:"total_hours_worked"`
	TotalOvertimeHours float64 `json:"total_overtime_hours"`
	TotalDailyCost     float64 `json:"total_daily_cost"`
	TotalOvertimeCost  float64 `json:"total_overtime_cost"`
}

type MonthlyReportRow struct {
	EmployeeID        int     `json:"employee_id"`
	FirstName         string  `json:"first_name"`
	LastName          string  `json:"last_name"`
	Department        string  `json:"department"`
	DaysRecorded      int     `json:"days_recorded"`
	DaysPresent       int     `json:"days_present"`
	DaysAbsent        int     `json:"days_absent"`
	DaysLate          int     `json:"days_late"`
	DaysHalf          int     `json:"days_half"`
	TotalHours        float64 `json:"total_hours"`
	TotalOvertime     float64 `json:"total_overtime"`
	TotalBreakMinutes int     `json:"total_break_minutes"`
	TotalPay          float64 `json:"total_pay"`
	TotalOvertimePay  float64 `json:"total_overtime_pay"`
	AvgLateMinutes    float64 `json:"avg_late_minutes"`
}

type AttendanceRecordFilter struct {
	Date       string
	StartDate  string
	EndDate    string
	EmployeeID int
	Status     string
}

type AttendanceOverride struct {
	EmployeeID int    `json:"employee_id"`
	Date       string `json:"date"`
	ClockIn    string `json:"clock_in,omitempty"`
	ClockOut   string `json:"clock_out,omitempty"`
	Status     string `json:"status,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// TodayAttendance returns the caller's record for today, or the given
// employee's when id > 0 and the caller is an admin.
func (c *Client) TodayAttendance(ctx context.Context, employeeID int) (AttendanceRecord, error) {
	query := url.Values{}
	if employeeID > 0 {
		query.Set("employee_id", itoa(employeeID))
	}
	var record AttendanceRecord
	err := c.getJSON(ctx, "/attendance/today", query, &record)
	return record, err
}

func (c *Client) clockAction(ctx context.Context, action string, employeeID int) (AttendanceRecord, error) {
	body := map[string]int{}
	if employeeID > 0 {
		body["employee_id"] = employeeID
	}
	var record AttendanceRecord
	err := c.postJSON(ctx, "/attendance/"+action, body, &record)
	return record, err
}

func (c *Client) ClockIn(ctx context.Context, employeeID int) (AttendanceRecord, error) {
	return c.clockAction(ctx, "clock-in", employeeID)
}

func (c *Client) StartBreak(ctx context.Context, employeeID int) (AttendanceRecord, error) {
	return c.clockAction(ctx, "break-start", employeeID)
}

func (c *Client) EndBreak(ctx context.Context, employeeID int) (AttendanceRecord, error) {
	return c.clockAction(ctx, "break-end", employeeID)
}

func (c *Client) ClockOut(ctx context.Context, employeeID int) (AttendanceRecord, error) {
	return c.clockAction(ctx, "clock-out", employeeID)
}

func (c *Client) AttendanceRecords(ctx context.Context, filter AttendanceRecordFilter) ([]AttendanceRecord, error) {
	query := url.Values{}
	if filter.Date != "" {
		query.Set("date", filter.Date)
	}
	if filter.StartDate != "" {
		query.Set("start_date", filter.StartDate)
	}
	if filter.EndDate != "" {
		query.Set("end_date", filter.EndDate)
	}
	if filter.EmployeeID > 0 {
		query.Set("employee_id", itoa(filter.EmployeeID))
	}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	var records []AttendanceRecord
	err := c.getJSON(ctx, "/attendance/records", query, &records)
	return records, err
}

func (c *Client) AttendanceSummaryFor(ctx context.Context, date string) (AttendanceSummary, error) {
	query := url.Values{}
	if date != "" {
		query.Set("date", date)
	}
	var summary AttendanceSummary
	err := c.getJSON(ctx, "/attendance/summary", query, &summary)
	return summary, err
}

func (c *Client) MonthlyReport(ctx context.Context, month, year, employeeID int) ([]MonthlyReportRow, error) {
	query := url.Values{}
	query.Set("month", itoa(month))
	query.Set("year", itoa(year))
	if employeeID > 0 {
		query.Set("employee_id", itoa(employeeID))
	}
	var rows []MonthlyReportRow
	err := c.getJSON(ctx, "/attendance/monthly-report", query, &rows)
	return rows, err
}

// OverrideAttendance lets an admin correct a day's record; the server
// recomputes hours, pay and status from the new times.
func (c *Client) OverrideAttendance(ctx context.Context, override AttendanceOverride) (AttendanceRecord, error) {
	var record AttendanceRecord
	err := c.postJSON(ctx, "/attendance/override", override, &record)
	return record, err
}
