package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"hrconsole/internal/api"
	"hrconsole/internal/runloop"
	"hrconsole/internal/session"
)

// testEnv binds an app to a fake server and a running loop. All assertions
// about controller state happen inside run(), which executes on the loop.
type testEnv struct {
	app   *App
	loop  *runloop.Loop
	hits  map[string]int
	hitMu sync.Mutex
}

func (e *testEnv) run(fn func()) {
	e.loop.Post(fn)
	e.loop.Sync()
}

// settle waits for fetch continuations to land: each Sync drains the tasks
// posted so far, and two rounds cover a fetch posted from inside a task.
func (e *testEnv) settle() {
	for i := 0; i < 4; i++ {
		time.Sleep(10 * time.Millisecond)
		e.loop.Sync()
	}
}

func (e *testEnv) count(path string) int {
	e.hitMu.Lock()
	defer e.hitMu.Unlock()
	return e.hits[path]
}

func newTestEnv(t *testing.T, mux *http.ServeMux) *testEnv {
	t.Helper()
	env := &testEnv{hits: map[string]int{}}

	counting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.hitMu.Lock()
		env.hits[r.URL.Path]++
		env.hitMu.Unlock()
		mux.ServeHTTP(w, r)
	})
	srv := httptest.NewServer(counting)
	t.Cleanup(srv.Close)

	store := session.New("")
	client, err := api.New(srv.URL, store)
	if err != nil {
		t.Fatal(err)
	}

	env.loop = runloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.loop.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	env.app = NewApp(env.loop, client, store)
	env.app.DownloadDir = t.TempDir()
	return env
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Error(err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func employeePage(page, limit, total int, employees ...api.Employee) api.EmployeePage {
	totalPages := (total + limit - 1) / limit
	return api.EmployeePage{Page: page, Limit: limit, Total: total, TotalPages: totalPages, Data: employees}
}

func TestGuardRedirectsWithoutToken(t *testing.T) {
	env := newTestEnv(t, http.NewServeMux())

	env.run(func() { env.app.Navigate(RouteDashboard) })

	env.run(func() {
		if env.app.Active().Route() != RouteLogin {
			t.Errorf("route=%s", env.app.Active().Route())
		}
	})
}

func TestLoginSuccessNavigatesToDashboard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]string{"token": "tok1"})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, api.Profile{ID: 1, Name: "Admin", Role: "admin"})
	})
	mux.HandleFunc("/employees", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, employeePage(1, 10, 0))
	})
	env := newTestEnv(t, mux)

	env.run(func() { env.app.Navigate(RouteLogin) })
	env.run(func() {
		login := env.app.Active().(*Login)
		login.Email = "admin@example.invalid"
		login.Password = "pw"
		login.Submit()
	})
	env.settle()

	env.run(func() {
		if env.app.Active().Route() != RouteDashboard {
			t.Fatalf("route=%s", env.app.Active().Route())
		}
		if env.app.Session.Token() != "tok1" {
			t.Errorf("token=%q", env.app.Session.Token())
		}
	})
}

func TestLoginFailureKeepsServerMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	})
	env := newTestEnv(t, mux)

	env.run(func() { env.app.Navigate(RouteLogin) })
	env.run(func() {
		login := env.app.Active().(*Login)
		login.Email = "admin@example.invalid"
		login.Password = "wrong"
		login.Submit()
	})
	env.settle()

	env.run(func() {
		login := env.app.Active().(*Login)
		if login.Error != "Invalid credentials" {
			t.Errorf("error=%q", login.Error)
		}
		if env.app.Session.IsAuthenticated() {
			t.Error("session stored after failed login")
		}
	})
}

func TestLoginValidationShortCircuits(t *testing.T) {
	env := newTestEnv(t, http.NewServeMux())

	env.run(func() { env.app.Navigate(RouteLogin) })
	env.run(func() {
		login := env.app.Active().(*Login)
		login.Submit()
		if login.Error == "" {
			t.Error("empty form accepted")
		}
		login.Email = "not-an-email"
		login.Password = "pw"
		login.Submit()
		if login.Error == "" {
			t.Error("bad email accepted")
		}
	})
	if env.count("/auth/login") != 0 {
		t.Errorf("login called %d times", env.count("/auth/login"))
	}
}

func dashboardMux(t *testing.T, totalEmployees int) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, api.Profile{ID: 1, Name: "Admin", Role: "admin"})
	})
	mux.HandleFunc("/employees", func(w http.ResponseWriter, r *http.Request) {
		page := 1
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
		writeJSON(t, w, employeePage(page, 10, totalEmployees, api.Employee{
			ID: page * 100, FirstName: "Page", LastName: fmt.Sprint(page),
		}))
	})
	return mux
}

func TestDashboardPagination(t *testing.T) {
	env := newTestEnv(t, dashboardMux(t, 31))
	env.app.Session.SetToken("tok")

	env.run(func() { env.app.Navigate(RouteDashboard) })
	env.settle()

	env.run(func() {
		dash := env.app.Active().(*Dashboard)
		if dash.Cursor.TotalPages != 4 {
			t.Fatalf("totalPages=%d", dash.Cursor.TotalPages)
		}
		// Prev at page 1 is a no-op: no refetch.
		dash.PrevPage()
		if dash.Cursor.Page != 1 {
			t.Errorf("page=%d after prev at boundary", dash.Cursor.Page)
		}
	})
	listCalls := env.count("/employees")

	env.run(func() { env.app.Active().(*Dashboard).NextPage() })
	env.settle()

	env.run(func() {
		dash := env.app.Active().(*Dashboard)
		if dash.Cursor.Page != 2 {
			t.Errorf("page=%d", dash.Cursor.Page)
		}
		if len(dash.Employees) != 1 || dash.Employees[0].ID != 200 {
			t.Errorf("employees=%+v", dash.Employees)
		}
	})
	if env.count("/employees") != listCalls+1 {
		t.Errorf("list calls %d -> %d", listCalls, env.count("/employees"))
	}

	// Walk to the last page; Next there must not fetch.
	env.run(func() {
		dash := env.app.Active().(*Dashboard)
		dash.Cursor.Page = dash.Cursor.TotalPages
	})
	atLast := env.count("/employees")
	env.run(func() { env.app.Active().(*Dashboard).NextPage() })
	env.settle()
	if env.count("/employees") != atLast {
		t.Errorf("next at last page fetched")
	}
}

func TestDashboardSearchIsLocal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, api.Profile{ID: 1, Name: "Admin", Role: "admin"})
	})
	mux.HandleFunc("/employees", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, employeePage(1, 10, 2,
			api.Employee{ID: 1, FirstName: "Thandi", LastName: "Nkosi", Department: "Finance"},
			api.Employee{ID: 2, FirstName: "Sipho", LastName: "Dlamini", Department: "Engineering"},
		))
	})
	env := newTestEnv(t, mux)
	env.app.Session.SetToken("tok")

	env.run(func() { env.app.Navigate(RouteDashboard) })
	env.settle()
	before := env.count("/employees")

	env.run(func() {
		dash := env.app.Active().(*Dashboard)
		dash.Search = "finance"
		visible := dash.Visible()
		if len(visible) != 1 || visible[0].ID != 1 {
			t.Errorf("visible=%+v", visible)
		}
		dash.Search = ""
		if len(dash.Visible()) != 2 {
			t.Error("clearing search lost rows")
		}
	})
	if env.count("/employees") != before {
		t.Error("local search triggered a fetch")
	}
}

func TestAttendanceTabsLoadLazilyOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/attendance/today", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "No attendance record for today")
	})
	mux.HandleFunc("/attendance/summary", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, api.AttendanceSummary{TotalRecords: 3, Present: 2})
	})
	mux.HandleFunc("/attendance/records", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []api.AttendanceRecord{})
	})
	mux.HandleFunc("/attendance/monthly-report", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []api.MonthlyReportRow{{EmployeeID: 1, TotalHours: 160}})
	})
	env := newTestEnv(t, mux)
	env.app.Session.SetToken("tok")

	env.run(func() { env.app.Navigate(RouteAttendance) })
	env.settle()

	if env.count("/attendance/summary") != 0 {
		t.Fatal("day view loaded before first visit")
	}

	env.run(func() { env.app.Active().(*Attendance).SetTab(AttendanceTabToday) })
	env.settle()
	if env.count("/attendance/summary") != 1 || env.count("/attendance/records") != 1 {
		t.Fatalf("day view: summary=%d records=%d", env.count("/attendance/summary"), env.count("/attendance/records"))
	}

	// A 404 today is an empty card, not an error.
	env.run(func() {
		att := env.app.Active().(*Attendance)
		if att.Today != nil || att.TodayError != "" {
			t.Errorf("today=%+v err=%q", att.Today, att.TodayError)
		}
	})

	// Re-selecting the active tab, or coming back, must not refetch.
	env.run(func() {
		att := env.app.Active().(*Attendance)
		att.SetTab(AttendanceTabToday)
		att.SetTab(AttendanceTabClock)
		att.SetTab(AttendanceTabToday)
	})
	env.settle()
	if env.count("/attendance/summary") != 1 {
		t.Errorf("summary fetched %d times", env.count("/attendance/summary"))
	}

	env.run(func() { env.app.Active().(*Attendance).SetTab(AttendanceTabMonthly) })
	env.settle()
	if env.count("/attendance/monthly-report") != 1 {
		t.Errorf("report fetched %d times", env.count("/attendance/monthly-report"))
	}
}

func TestAttendanceClockInAppliesServerRecord(t *testing.T) {
	clockIn := "2026-03-02T07:58:00Z"
	mux := http.NewServeMux()
	mux.HandleFunc("/attendance/today", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "No attendance record for today")
	})
	mux.HandleFunc("/attendance/clock-in", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, api.AttendanceRecord{ID: 9, ClockIn: &clockIn, Status: "present"})
	})
	env := newTestEnv(t, mux)
	env.app.Session.SetToken("tok")

	env.run(func() { env.app.Navigate(RouteAttendance) })
	env.settle()
	env.run(func() { env.app.Active().(*Attendance).Clock("clock-in") })
	env.settle()

	env.run(func() {
		att := env.app.Active().(*Attendance)
		if att.Today == nil || att.Today.ClockIn == nil || *att.Today.ClockIn != clockIn {
			t.Fatalf("today=%+v", att.Today)
		}
		if att.Today.ClockOut != nil {
			t.Error("clock_out set on clock-in")
		}
		if att.Today.Status != "present" {
			t.Errorf("status=%q", att.Today.Status)
		}
		if att.Flash.Message == "" {
			t.Error("no flash after clock-in")
		}
	})
}

func TestAttendanceTickerStopsOnTeardown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/attendance/today", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "No attendance record for today")
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, api.Profile{ID: 1, Role: "admin"})
	})
	mux.HandleFunc("/employees", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, employeePage(1, 10, 0))
	})
	env := newTestEnv(t, mux)
	env.app.Session.SetToken("tok")

	env.run(func() { env.app.Navigate(RouteAttendance) })
	var att *Attendance
	env.run(func() { att = env.app.Active().(*Attendance) })

	env.run(func() { env.app.Navigate(RouteDashboard) })
	env.settle()

	var frozen time.Time
	env.run(func() { frozen = att.Now })
	time.Sleep(1200 * time.Millisecond)
	env.loop.Sync()
	env.run(func() {
		if !att.Now.Equal(frozen) {
			t.Error("clock ticked after teardown")
		}
	})
}

func TestLeaveApprovalFlow(t *testing.T) {
	var decided bool
	var mu sync.Mutex
	mux := http.NewServeMux()
	mux.HandleFunc("/leave/types", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []api.LeaveType{{ID: 1, Name: "Annual"}})
	})
	mux.HandleFunc("/leave/balances", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []api.LeaveBalance{})
	})
	mux.HandleFunc("/leave/requests", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if decided {
			writeJSON(t, w, api.LeaveRequestPage{Page: 1, Limit: 10, Total: 0, TotalPages: 0})
			return
		}
		writeJSON(t, w, api.LeaveRequestPage{Page: 1, Limit: 10, Total: 1, TotalPages: 1, Data: []api.LeaveRequest{
			{ID: 5, LeaveType: "Annual", Status: "pending"},
		}})
	})
	mux.HandleFunc("/leave/requests/5/approve", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		decided = true
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent) // no body on success
	})
	env := newTestEnv(t, mux)
	env.app.Session.SetToken("tok")

	env.run(func() { env.app.Navigate(RouteLeave) })
	env.settle()
	env.run(func() { env.app.Active().(*Leave).SetTab(LeaveTabApprovals) })
	env.settle()

	env.run(func() {
		leave := env.app.Active().(*Leave)
		if len(leave.Approvals) != 1 {
			t.Fatalf("approvals=%+v", leave.Approvals)
		}
		leave.OpenReview(leave.Approvals[0])
		leave.Decide(true)
	})
	env.settle()

	env.run(func() {
		leave := env.app.Active().(*Leave)
		if len(leave.Approvals) != 0 {
			t.Errorf("approved request still queued: %+v", leave.Approvals)
		}
		if leave.ApprovalsError != "" {
			t.Errorf("error=%q", leave.ApprovalsError)
		}
		if leave.Review != nil {
			t.Error("review modal still open")
		}
	})
	if env.count("/leave/requests") != 2 {
		t.Errorf("queue fetched %d times, want 2", env.count("/leave/requests"))
	}
}

func TestLeaveRejectFailureLeavesQueueUnchanged(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/leave/types", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []api.LeaveType{})
	})
	mux.HandleFunc("/leave/balances", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []api.LeaveBalance{})
	})
	mux.HandleFunc("/leave/requests", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, api.LeaveRequestPage{Page: 1, Limit: 10, Total: 1, TotalPages: 1, Data: []api.LeaveRequest{
			{ID: 7, Status: "pending"},
		}})
	})
	mux.HandleFunc("/leave/requests/7/reject", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusConflict, "Request already reviewed")
	})
	env := newTestEnv(t, mux)
	env.app.Session.SetToken("tok")

	env.run(func() { env.app.Navigate(RouteLeave) })
	env.settle()
	env.run(func() { env.app.Active().(*Leave).SetTab(LeaveTabApprovals) })
	env.settle()
	queueFetches := env.count("/leave/requests")

	env.run(func() {
		leave := env.app.Active().(*Leave)
		leave.OpenReview(leave.Approvals[0])
		leave.Decide(false)
	})
	env.settle()

	env.run(func() {
		leave := env.app.Active().(*Leave)
		if leave.ApprovalsError != "Request already reviewed" {
			t.Errorf("error=%q", leave.ApprovalsError)
		}
		if len(leave.Approvals) != 1 {
			t.Errorf("queue changed on failure: %+v", leave.Approvals)
		}
	})
	if env.count("/leave/requests") != queueFetches {
		t.Error("failed mutation triggered a refetch")
	}
}

func TestEmptyFilterResultIsNotAnError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, api.Profile{ID: 1, Role: "admin"})
	})
	mux.HandleFunc("/employees", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, employeePage(1, 10, 0))
	})
	env := newTestEnv(t, mux)
	env.app.Session.SetToken("tok")

	env.run(func() { env.app.Navigate(RouteEmployees) })
	env.settle()

	env.run(func() {
		emp := env.app.Active().(*Employees)
		if emp.Error != "" {
			t.Errorf("error=%q", emp.Error)
		}
		if len(emp.List) != 0 {
			t.Errorf("list=%+v", emp.List)
		}
		if emp.Cursor.Total != 0 || emp.Cursor.TotalPages != 1 {
			t.Errorf("cursor=%+v", emp.Cursor)
		}
	})
}

func TestNextIsNoOpOnEmptyList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, api.Profile{ID: 1, Role: "admin"})
	})
	mux.HandleFunc("/employees", func(w http.ResponseWriter, r *http.Request) {
		// The server reports totalPages=0 when nothing matches.
		writeJSON(t, w, api.EmployeePage{Page: 1, Limit: 10, Total: 0, TotalPages: 0})
	})
	env := newTestEnv(t, mux)
	env.app.Session.SetToken("tok")

	env.run(func() { env.app.Navigate(RouteDashboard) })
	env.settle()

	listCalls := env.count("/employees")
	env.run(func() { env.app.Active().(*Dashboard).NextPage() })
	env.settle()
	env.run(func() {
		dash := env.app.Active().(*Dashboard)
		if dash.Cursor.Page != 1 {
			t.Errorf("page=%d after next on empty list", dash.Cursor.Page)
		}
	})
	if got := env.count("/employees"); got != listCalls {
		t.Errorf("next on empty list fetched: %d -> %d", listCalls, got)
	}

	var cursor PageCursor
	cursor.Apply(1, 10, 0, 0)
	if cursor.Next() {
		t.Error("Next reported movement at the empty boundary")
	}
	if cursor.Page != 1 {
		t.Errorf("page=%d", cursor.Page)
	}
}

func TestAnalyticsExportSavesReport(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, api.Profile{ID: 1, Role: "admin"})
	})
	mux.HandleFunc("/analytics/dashboard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, api.DashboardOverview{})
	})
	mux.HandleFunc("/analytics/export", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("reportType"); got != "payroll" {
			t.Errorf("reportType=%q", got)
		}
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprintln(w, "Employee,Gross,Net")
	})
	env := newTestEnv(t, mux)
	env.app.Session.SetToken("tok")

	env.run(func() { env.app.Navigate(RouteAnalytics) })
	env.settle()

	env.run(func() { env.app.Active().(*Analytics).Export("payroll") })
	env.settle()

	env.run(func() {
		page := env.app.Active().(*Analytics)
		if page.Error != "" {
			t.Fatalf("error=%q", page.Error)
		}
		if !strings.HasPrefix(page.Flash.Message, "Saved ") {
			t.Fatalf("flash=%q", page.Flash.Message)
		}
		path := strings.TrimPrefix(page.Flash.Message, "Saved ")
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "Gross") {
			t.Errorf("report contents %q", data)
		}
	})
}

func TestSupersessionDiscardsStaleCompletion(t *testing.T) {
	env := newTestEnv(t, http.NewServeMux())

	var sl slot
	firstGate := make(chan struct{})
	var got string

	env.run(func() {
		// First request stalls; the second one lands first.
		fetch(env.app, &sl, func(context.Context) (string, error) {
			<-firstGate
			return "stale", nil
		}, func(v string, _ error) { got = v })
		fetch(env.app, &sl, func(context.Context) (string, error) {
			return "fresh", nil
		}, func(v string, _ error) { got = v })
	})
	env.settle()
	close(firstGate)
	env.settle()

	env.run(func() {
		if got != "fresh" {
			t.Errorf("got=%q", got)
		}
	})
}

func TestFlashClearsItself(t *testing.T) {
	old := flashDuration
	flashDuration = 30 * time.Millisecond
	t.Cleanup(func() { flashDuration = old })

	env := newTestEnv(t, http.NewServeMux())
	var f flash
	env.run(func() { f.Set(env.app, "saved") })
	env.run(func() {
		if f.Message != "saved" {
			t.Fatalf("message=%q", f.Message)
		}
	})
	time.Sleep(60 * time.Millisecond)
	env.loop.Sync()
	env.run(func() {
		if f.Message != "" {
			t.Errorf("message=%q after expiry", f.Message)
		}
	})
}

func TestProfile401RedirectsToLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnauthorized, "Invalid token")
	})
	mux.HandleFunc("/employees", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, employeePage(1, 10, 0))
	})
	env := newTestEnv(t, mux)
	env.app.Session.SetToken("expired")

	env.run(func() { env.app.Navigate(RouteDashboard) })
	env.settle()

	env.run(func() {
		if env.app.Active().Route() != RouteLogin {
			t.Errorf("route=%s", env.app.Active().Route())
		}
		if env.app.Session.IsAuthenticated() {
			t.Error("session survived 401")
		}
	})
}
