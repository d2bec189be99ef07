package stub_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hrconsole/internal/api"
	"hrconsole/internal/stub"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(stub.New("test-secret", logger).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func login(t *testing.T, baseURL, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(baseURL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if out.Token == "" {
		t.Fatal("login returned an empty token")
	}
	return out.Token
}

func adminClient(t *testing.T, ts *httptest.Server) *api.Client {
	t.Helper()
	token := login(t, ts.URL, "admin@example.test", "password123")
	client, err := api.New(ts.URL, staticToken(token))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestLoginRejectsBadPassword(t *testing.T) {
	ts := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"email": "admin@example.test", "password": "wrong"})
	resp, err := http.Post(ts.URL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRequestsWithoutTokenAreUnauthorized(t *testing.T) {
	ts := newTestServer(t)
	client, err := api.New(ts.URL, staticToken(""))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.ListEmployees(context.Background(), api.EmployeeFilter{Page: 1, Limit: 10, Active: true})
	if !api.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestEmployeeLifecycle(t *testing.T) {
	ts := newTestServer(t)
	client := adminClient(t, ts)
	ctx := context.Background()

	page, err := client.ListEmployees(ctx, api.EmployeeFilter{Page: 1, Limit: 10, Active: true})
	if err != nil {
		t.Fatalf("list employees: %v", err)
	}
	if page.Total == 0 {
		t.Fatal("expected seeded employees")
	}

	created, err := client.CreateEmployee(ctx, api.EmployeeDraft{
		FirstName:  "Nomsa",
		LastName:   "Cele",
		Email:      "nomsa@example.test",
		Department: "Finance",
		Position:   "Clerk",
		Salary:     18000,
	})
	if err != nil {
		t.Fatalf("create employee: %v", err)
	}
	if created.ID == 0 || !created.IsActive {
		t.Fatalf("unexpected created employee: %+v", created)
	}

	_, err = client.CreateEmployee(ctx, api.EmployeeDraft{
		FirstName: "Dup", LastName: "Licate", Email: "nomsa@example.test", Salary: 1,
	})
	if api.Status(err) != http.StatusConflict {
		t.Fatalf("expected conflict for duplicate email, got %v", err)
	}

	updated, err := client.UpdateSalary(ctx, created.ID, 19500)
	if err != nil {
		t.Fatalf("update salary: %v", err)
	}
	if updated.Salary != 19500 {
		t.Fatalf("expected salary 19500, got %v", updated.Salary)
	}
	history, err := client.SalaryHistory(ctx, created.ID)
	if err != nil {
		t.Fatalf("salary history: %v", err)
	}
	if len(history) != 1 || history[0].OldSalary != 18000 || history[0].NewSalary != 19500 {
		t.Fatalf("unexpected salary history: %+v", history)
	}

	if err := client.DeleteEmployee(ctx, created.ID); err != nil {
		t.Fatalf("delete employee: %v", err)
	}
	inactive, err := client.ListEmployees(ctx, api.EmployeeFilter{Page: 1, Limit: 50, Active: false})
	if err != nil {
		t.Fatalf("list inactive: %v", err)
	}
	found := false
	for _, e := range inactive.Data {
		if e.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("deactivated employee missing from inactive list")
	}

	restored, err := client.RestoreEmployee(ctx, created.ID)
	if err != nil {
		t.Fatalf("restore employee: %v", err)
	}
	if !restored.IsActive {
		t.Fatal("restored employee should be active")
	}
}

func TestAttendanceClockFlow(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts.URL, "sipho@example.test", "password123")
	client, err := api.New(ts.URL, staticToken(token))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	if _, err := client.TodayAttendance(ctx, 0); api.Status(err) != http.StatusNotFound {
		t.Fatalf("expected 404 before clocking in, got %v", err)
	}

	record, err := client.ClockIn(ctx, 0)
	if err != nil {
		t.Fatalf("clock in: %v", err)
	}
	if record.ClockIn == nil {
		t.Fatal("clock in time missing")
	}
	if _, err := client.ClockIn(ctx, 0); api.Status(err) != http.StatusConflict {
		t.Fatalf("expected conflict on double clock-in, got %v", err)
	}

	if _, err := client.StartBreak(ctx, 0); err != nil {
		t.Fatalf("start break: %v", err)
	}
	if _, err := client.EndBreak(ctx, 0); err != nil {
		t.Fatalf("end break: %v", err)
	}
	record, err = client.ClockOut(ctx, 0)
	if err != nil {
		t.Fatalf("clock out: %v", err)
	}
	if record.ClockOut == nil {
		t.Fatal("clock out time missing")
	}
	if record.HourlyRate <= 0 {
		t.Fatalf("expected a derived hourly rate, got %v", record.HourlyRate)
	}

	today, err := client.TodayAttendance(ctx, 0)
	if err != nil {
		t.Fatalf("today attendance: %v", err)
	}
	if today.ID != record.ID {
		t.Fatalf("expected record %d, got %d", record.ID, today.ID)
	}
}

func TestAttendanceOverrideRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts.URL, "sipho@example.test", "password123")
	client, err := api.New(ts.URL, staticToken(token))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.OverrideAttendance(context.Background(), api.AttendanceOverride{
		EmployeeID: 1, Date: "2026-08-03", ClockIn: "08:00", ClockOut: "17:00",
	})
	if api.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin override, got %v", err)
	}
}

func TestLeaveRequestApprovalUpdatesBalance(t *testing.T) {
	ts := newTestServer(t)
	employeeToken := login(t, ts.URL, "zanele@example.test", "password123")
	employee, err := api.New(ts.URL, staticToken(employeeToken))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	admin := adminClient(t, ts)
	ctx := context.Background()

	types, err := employee.LeaveTypes(ctx)
	if err != nil {
		t.Fatalf("leave types: %v", err)
	}
	var annual api.LeaveType
	for _, lt := range types {
		if lt.Name == "Annual" {
			annual = lt
		}
	}
	if annual.ID == 0 {
		t.Fatal("annual leave type not seeded")
	}

	year := time.Now().Year()
	start := time.Date(year, time.Now().Month(), 1, 0, 0, 0, 0, time.UTC)
	// Monday through Friday of one week.
	for start.Weekday() != time.Monday {
		start = start.AddDate(0, 0, 1)
	}
	request, err := employee.CreateLeaveRequest(ctx, api.LeaveRequestDraft{
		LeaveTypeID: annual.ID,
		StartDate:   start.Format("2006-01-02"),
		EndDate:     start.AddDate(0, 0, 4).Format("2006-01-02"),
		Reason:      "Family holiday",
	})
	if err != nil {
		t.Fatalf("create leave request: %v", err)
	}
	if request.Status != "pending" || request.DaysRequested != 5 {
		t.Fatalf("unexpected request: status=%s days=%v", request.Status, request.DaysRequested)
	}

	queue, err := admin.AllLeaveRequests(ctx, 1, 10, "pending")
	if err != nil {
		t.Fatalf("approval queue: %v", err)
	}
	if queue.Total == 0 {
		t.Fatal("expected the pending request in the queue")
	}

	if err := admin.ApproveLeaveRequest(ctx, request.ID, "Enjoy"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := admin.ApproveLeaveRequest(ctx, request.ID, ""); api.Status(err) != http.StatusConflict {
		t.Fatalf("expected conflict on double review, got %v", err)
	}

	balances, err := employee.MyLeaveBalances(ctx, year)
	if err != nil {
		t.Fatalf("balances: %v", err)
	}
	for _, b := range balances {
		if b.LeaveTypeID == annual.ID {
			if b.UsedDays != 5 {
				t.Fatalf("expected 5 used days, got %v", b.UsedDays)
			}
			if b.RemainingDays != b.TotalDays-5 {
				t.Fatalf("remaining days not reduced: %+v", b)
			}
			return
		}
	}
	t.Fatal("annual balance not found")
}

func TestPayrollAndStatutoryJourney(t *testing.T) {
	ts := newTestServer(t)
	client := adminClient(t, ts)
	ctx := context.Background()
	month, year := 3, 2026

	if err := client.InitializePayroll(ctx, month, year); err != nil {
		t.Fatalf("initialize payroll: %v", err)
	}
	drafts, err := client.PayrollRecords(ctx, month, year, "draft")
	if err != nil {
		t.Fatalf("draft records: %v", err)
	}
	if len(drafts) == 0 {
		t.Fatal("expected draft records for active employees")
	}

	var ids []int
	for _, p := range drafts {
		ids = append(ids, p.EmployeeID)
	}
	if err := client.ProcessPayroll(ctx, ids, month, year); err != nil {
		t.Fatalf("process payroll: %v", err)
	}
	processed, err := client.PayrollRecords(ctx, month, year, "processed")
	if err != nil {
		t.Fatalf("processed records: %v", err)
	}
	if len(processed) != len(drafts) {
		t.Fatalf("expected %d processed records, got %d", len(drafts), len(processed))
	}
	first := processed[0]
	if first.GrossPay <= 0 || first.NetPay <= 0 || first.NetPay >= first.GrossPay {
		t.Fatalf("implausible breakdown: gross=%v net=%v", first.GrossPay, first.NetPay)
	}

	paid, err := client.MarkPayrollPaid(ctx, first.ID, api.PaymentDetails{
		PaymentMethod: "eft",
		PaymentDate:   "2026-03-25",
	})
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.Status != "paid" {
		t.Fatalf("expected paid status, got %s", paid.Status)
	}

	payslip, err := client.Payslip(ctx, first.ID)
	if err != nil {
		t.Fatalf("payslip: %v", err)
	}
	if payslip.ContentType != "application/pdf" || !bytes.HasPrefix(payslip.Data, []byte("%PDF")) {
		t.Fatalf("expected a PDF payslip, got %s (%d bytes)", payslip.ContentType, len(payslip.Data))
	}

	summary, err := client.PayrollSummaryFor(ctx, month, year)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.PaidCount != 1 || summary.TotalEmployees != len(drafts) {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	// EMP201 off the processed payroll.
	detail, err := client.GenerateEMP201(ctx, month, year)
	if err != nil {
		t.Fatalf("generate emp201: %v", err)
	}
	if detail.Declaration.SubmissionStatus != "draft" || len(detail.LineItems) != len(drafts) {
		t.Fatalf("unexpected declaration: %+v", detail.Declaration)
	}
	if _, err := client.GenerateEMP201(ctx, month, year); api.Status(err) != http.StatusConflict {
		t.Fatalf("expected conflict on duplicate generate, got %v", err)
	}

	detail, err = client.SubmitEMP201(ctx, detail.Declaration.ID, api.EMP201Submission{
		SubmissionReference: "SARS-REF-001",
	})
	if err != nil {
		t.Fatalf("submit emp201: %v", err)
	}
	if detail.Declaration.SubmissionStatus != "submitted" {
		t.Fatalf("expected submitted, got %s", detail.Declaration.SubmissionStatus)
	}

	detail, err = client.PayEMP201(ctx, detail.Declaration.ID, api.EMP201Payment{
		PaymentDate:      "2026-04-05",
		PaymentReference: "EFT-123",
	})
	if err != nil {
		t.Fatalf("pay emp201: %v", err)
	}
	if detail.Declaration.PaymentStatus != "paid" {
		t.Fatalf("expected paid, got %s", detail.Declaration.PaymentStatus)
	}

	export, err := client.ExportEMP201(ctx, detail.Declaration.ID)
	if err != nil {
		t.Fatalf("export emp201: %v", err)
	}
	if !strings.Contains(string(export.Data), "PAYE") {
		t.Fatal("CSV export missing header")
	}

	// UI19 for the same period.
	ui19, err := client.GenerateUI19(ctx, month, year)
	if err != nil {
		t.Fatalf("generate ui19: %v", err)
	}
	if len(ui19.LineItems) != len(drafts) {
		t.Fatalf("expected %d ui19 lines, got %d", len(drafts), len(ui19.LineItems))
	}
	line, err := client.UpdateUI19LineItem(ctx, ui19.LineItems[0].ID, "1234567/8", 20)
	if err != nil {
		t.Fatalf("update line item: %v", err)
	}
	if line.UIFNumber != "1234567/8" || line.DaysWorked != 20 {
		t.Fatalf("line not updated: %+v", line)
	}
	if _, err := client.SubmitUI19(ctx, ui19.Declaration.ID, api.UI19Submission{SubmissionReference: "UIF-REF-1"}); err != nil {
		t.Fatalf("submit ui19: %v", err)
	}
	if _, err := client.UpdateUI19LineItem(ctx, ui19.LineItems[0].ID, "x", 1); api.Status(err) != http.StatusConflict {
		t.Fatalf("expected conflict editing a submitted declaration, got %v", err)
	}

	// IRP5 for the tax year containing March 2026.
	taxYear := 2027
	if _, err := client.GenerateIRP5(ctx, taxYear); err != nil {
		t.Fatalf("generate irp5: %v", err)
	}
	certificates, err := client.IRP5Certificates(ctx, "2027")
	if err != nil {
		t.Fatalf("certificates: %v", err)
	}
	if len(certificates) != len(drafts) {
		t.Fatalf("expected %d certificates, got %d", len(drafts), len(certificates))
	}
	if certificates[0].GenerationStatus != "generated" {
		t.Fatalf("expected generated status, got %s", certificates[0].GenerationStatus)
	}

	if _, err := client.IssueIRP5(ctx, taxYear); err != nil {
		t.Fatalf("issue irp5: %v", err)
	}
	recon, err := client.IRP5ReconciliationFor(ctx, "2027")
	if err != nil {
		t.Fatalf("reconciliation: %v", err)
	}
	if recon.ReconStatus != "ready" || recon.EmployeeCount != len(drafts) {
		t.Fatalf("unexpected reconciliation: %+v", recon)
	}

	html, err := client.IRP5CertificateHTML(ctx, certificates[0].ID)
	if err != nil {
		t.Fatalf("certificate html: %v", err)
	}
	if !strings.Contains(string(html.Data), "3601") {
		t.Fatal("certificate HTML missing SARS codes")
	}

	// Analytics reflect the period.
	overview, err := client.DashboardOverviewFor(ctx, year, month)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if overview.Payroll.ProcessedCount != len(drafts) {
		t.Fatalf("expected %d processed in overview, got %d", len(drafts), overview.Payroll.ProcessedCount)
	}
	payrollAnalytics, err := client.PayrollAnalyticsFor(ctx, year)
	if err != nil {
		t.Fatalf("payroll analytics: %v", err)
	}
	if len(payrollAnalytics.MonthlyTrend) == 0 || payrollAnalytics.MonthlyTrend[0].Month != month {
		t.Fatalf("unexpected trend: %+v", payrollAnalytics.MonthlyTrend)
	}
	compliance, err := client.ComplianceAnalyticsFor(ctx, year)
	if err != nil {
		t.Fatalf("compliance analytics: %v", err)
	}
	if len(compliance.EMP201Stats) == 0 {
		t.Fatal("expected emp201 stats")
	}

	report, err := client.ExportAnalyticsReport(ctx, "payroll", year, 0, "csv")
	if err != nil {
		t.Fatalf("analytics export: %v", err)
	}
	if !strings.Contains(string(report.Data), "Gross") {
		t.Fatal("report CSV missing header")
	}
}

func TestEMP201GenerateWithoutPayrollFails(t *testing.T) {
	ts := newTestServer(t)
	client := adminClient(t, ts)
	_, err := client.GenerateEMP201(context.Background(), 1, 2020)
	if api.Status(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 without processed payroll, got %v", err)
	}
}
