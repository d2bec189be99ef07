// Package stub is an in-memory rendition of the HR API for local
// development and journey tests. It derives everything the client must not
// compute itself on the server side: attendance status and pay, leave
// balances, payroll breakdowns and the statutory aggregates.
package stub

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL = 8 * time.Hour

	expectedStart = "08:00"
	expectedEnd   = "17:00"
	expectedHours = 8.0

	uifRate      = 0.01
	sdlRate      = 0.01
	pensionRate  = 0.075
	overtimeRate = 1.5
)

type user struct {
	ID           int
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CompanyID    int
	EmployeeID   int
}

type employee struct {
	ID         int
	FirstName  string
	LastName   string
	Email      string
	Department string
	Position   string
	Salary     float64
	Age        *int
	IsActive   bool
	CreatedAt  time.Time
	CompanyID  int
}

type salaryAudit struct {
	ID         int
	EmployeeID int
	OldSalary  float64
	NewSalary  float64
	ChangedAt  time.Time
}

type attendanceRecord struct {
	ID          int
	EmployeeID  int
	Date        string
	ClockIn     *time.Time
	ClockOut    *time.Time
	BreakStart  *time.Time
	BreakEnd    *time.Time
	Status      string
	Notes       string
	LateMinutes int
}

type leaveType struct {
	ID               int
	Name             string
	Description      string
	DefaultDays      int
	IsPaid           bool
	RequiresApproval bool
}

type leaveRequest struct {
	ID          int
	EmployeeID  int
	LeaveTypeID int
	StartDate   string
	EndDate     string
	Days        float64
	Reason      string
	Status      string
	ReviewedBy  *int
	ReviewNotes string
	ReviewedAt  *time.Time
	CreatedAt   time.Time
}

type payrollRecord struct {
	ID               int
	EmployeeID       int
	Month            int
	Year             int
	BasicSalary      float64
	Allowances       float64
	Bonuses          float64
	Overtime         float64
	Tax              float64
	UIF              float64
	Pension          float64
	MedicalAid       float64
	OtherDeductions  float64
	Status           string
	PaymentMethod    string
	PaymentDate      string
	PaymentReference string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p *payrollRecord) gross() float64 {
	return p.BasicSalary + p.Allowances + p.Bonuses + p.Overtime
}

func (p *payrollRecord) deductions() float64 {
	return p.Tax + p.UIF + p.Pension + p.MedicalAid + p.OtherDeductions
}

func (p *payrollRecord) net() float64 { return p.gross() - p.deductions() }

type emp201Declaration struct {
	ID                  int
	Month               int
	Year                int
	PAYE                float64
	SDL                 float64
	UIFEmployee         float64
	UIFEmployer         float64
	ETI                 float64
	EmployeeCount       int
	TotalRemuneration   float64
	SubmissionStatus    string
	SubmissionDate      *string
	SubmissionReference *string
	SARSAck             *string
	PaymentStatus       string
	PaymentDate         *string
	PaymentReference    *string
	PaymentAmount       *float64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type ui19Declaration struct {
	ID                  int
	Month               int
	Year                int
	SubmissionStatus    string
	SubmissionDate      *string
	SubmissionReference *string
	Notes               *string
	Lines               []ui19Line
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type ui19Line struct {
	ID           int
	EmployeeID   int
	UIFNumber    string
	DaysWorked   int
	Remuneration float64
	ReasonCode   string
}

type irp5Certificate struct {
	ID           int
	EmployeeID   int
	TaxYear      int
	Number       string
	Status       string
	IssuedDate   *string
	Remuneration float64
	PAYE         float64
	UIF          float64
	Months       int
	CreatedAt    time.Time
}

// Server holds the whole dataset behind one mutex. The traffic is a dev
// console, not production load.
type Server struct {
	mu sync.Mutex

	secret []byte
	logger *slog.Logger
	now    func() time.Time

	nextID int

	users        map[int]*user
	usersByEmail map[string]*user
	employees    map[int]*employee
	audits       []salaryAudit
	attendance   map[int]*attendanceRecord
	leaveTypes   []leaveType
	leaves       map[int]*leaveRequest
	payroll      map[int]*payrollRecord
	emp201s      map[int]*emp201Declaration
	ui19s        map[int]*ui19Declaration
	irp5s        map[int]*irp5Certificate
}

// New seeds a company with an admin, a manager and a handful of employees.
// All seeded accounts share the password "password123".
func New(secret string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		secret:       []byte(secret),
		logger:       logger,
		now:          time.Now,
		nextID:       1,
		users:        map[int]*user{},
		usersByEmail: map[string]*user{},
		employees:    map[int]*employee{},
		attendance:   map[int]*attendanceRecord{},
		leaves:       map[int]*leaveRequest{},
		payroll:      map[int]*payrollRecord{},
		emp201s:      map[int]*emp201Declaration{},
		ui19s:        map[int]*ui19Declaration{},
		irp5s:        map[int]*irp5Certificate{},
	}
	s.seed()
	return s
}

func (s *Server) id() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Server) seed() {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	seedEmployees := []employee{
		{FirstName: "Ayanda", LastName: "Mokoena", Email: "admin@example.test", Department: "Management", Position: "HR Director", Salary: 65000},
		{FirstName: "Lerato", LastName: "Khumalo", Email: "manager@example.test", Department: "Management", Position: "Operations Manager", Salary: 48000},
		{FirstName: "Thandi", LastName: "Nkosi", Email: "thandi@example.test", Department: "Finance", Position: "Accountant", Salary: 28500},
		{FirstName: "Sipho", LastName: "Dlamini", Email: "sipho@example.test", Department: "Engineering", Position: "Developer", Salary: 32000},
		{FirstName: "Zanele", LastName: "Mthembu", Email: "zanele@example.test", Department: "Engineering", Position: "Developer", Salary: 31000},
		{FirstName: "Johan", LastName: "van der Merwe", Email: "johan@example.test", Department: "Sales", Position: "Account Executive", Salary: 26000},
	}
	roles := []string{"admin", "manager", "employee", "employee", "employee", "employee"}

	for i := range seedEmployees {
		e := seedEmployees[i]
		e.ID = s.id()
		e.IsActive = true
		e.CompanyID = 1
		e.CreatedAt = s.now().AddDate(0, -6, 0)
		s.employees[e.ID] = &e

		u := &user{
			ID:           s.id(),
			Name:         e.FirstName + " " + e.LastName,
			Email:        e.Email,
			PasswordHash: string(hash),
			Role:         roles[i],
			CompanyID:    1,
			EmployeeID:   e.ID,
		}
		s.users[u.ID] = u
		s.usersByEmail[u.Email] = u
	}

	s.leaveTypes = []leaveType{
		{ID: s.id(), Name: "Annual", Description: "Annual leave", DefaultDays: 15, IsPaid: true, RequiresApproval: true},
		{ID: s.id(), Name: "Sick", Description: "Sick leave", DefaultDays: 10, IsPaid: true, RequiresApproval: false},
		{ID: s.id(), Name: "Family Responsibility", Description: "Family responsibility leave", DefaultDays: 3, IsPaid: true, RequiresApproval: true},
		{ID: s.id(), Name: "Unpaid", Description: "Unpaid leave", DefaultDays: 0, IsPaid: false, RequiresApproval: true},
	}
}

// Handler builds the full route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)

	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/me", s.handleMe)

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", s.handleListEmployees)
			r.Post("/", s.handleCreateEmployee)
			r.Get("/{id}", s.handleGetEmployee)
			r.Put("/{id}", s.handleUpdateEmployee)
			r.Delete("/{id}", s.handleDeleteEmployee)
			r.Patch("/{id}/restore", s.handleRestoreEmployee)
			r.Patch("/{id}/salary", s.handleUpdateSalary)
			r.Get("/{id}/salary-history", s.handleSalaryHistory)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Get("/today", s.handleAttendanceToday)
			r.Post("/clock-in", s.clockHandler("clock-in"))
			r.Post("/break-start", s.clockHandler("break-start"))
			r.Post("/break-end", s.clockHandler("break-end"))
			r.Post("/clock-out", s.clockHandler("clock-out"))
			r.Get("/records", s.handleAttendanceRecords)
			r.Get("/summary", s.handleAttendanceSummary)
			r.Get("/monthly-report", s.handleMonthlyReport)
			r.Post("/override", s.handleAttendanceOverride)
		})

		r.Route("/leave", func(r chi.Router) {
			r.Get("/types", s.handleLeaveTypes)
			r.Get("/balances", s.handleLeaveBalances)
			r.Get("/requests/my", s.handleMyLeaveRequests)
			r.Get("/requests", s.handleAllLeaveRequests)
			r.Post("/requests", s.handleCreateLeaveRequest)
			r.Patch("/requests/{id}/cancel", s.handleCancelLeave)
			r.Patch("/requests/{id}/approve", s.leaveDecisionHandler("approved"))
			r.Patch("/requests/{id}/reject", s.leaveDecisionHandler("rejected"))
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Get("/summary", s.handlePayrollSummary)
			r.Get("/records", s.handlePayrollRecords)
			r.Post("/initialize", s.handlePayrollInitialize)
			r.Post("/process", s.handlePayrollProcess)
			r.Patch("/records/{id}/pay", s.handlePayrollMarkPaid)
			r.Get("/payslip/{id}", s.handlePayslip)
			r.Get("/history", s.handlePayrollHistory)
		})

		r.Route("/emp201", func(r chi.Router) {
			r.Get("/summary", s.handleEMP201Summary)
			r.Get("/declarations", s.handleEMP201List)
			r.Get("/declarations/{id}", s.handleEMP201Detail)
			r.Post("/generate", s.handleEMP201Generate)
			r.Post("/declarations/{id}/submit", s.handleEMP201Submit)
			r.Post("/declarations/{id}/pay", s.handleEMP201Pay)
			r.Get("/declarations/{id}/export", s.handleEMP201Export)
		})

		r.Route("/ui19", func(r chi.Router) {
			r.Get("/declarations", s.handleUI19List)
			r.Get("/declarations/{id}", s.handleUI19Detail)
			r.Post("/generate", s.handleUI19Generate)
			r.Patch("/line-items/{id}", s.handleUI19LineUpdate)
			r.Post("/declarations/{id}/submit", s.handleUI19Submit)
			r.Get("/declarations/{id}/export", s.handleUI19Export)
		})

		r.Route("/irp5", func(r chi.Router) {
			r.Get("/certificates", s.handleIRP5Certificates)
			r.Get("/reconciliation", s.handleIRP5Reconciliation)
			r.Post("/generate", s.handleIRP5Generate)
			r.Post("/issue", s.handleIRP5Issue)
			r.Get("/certificates/{id}/html", s.handleIRP5HTML)
			r.Get("/export", s.handleIRP5Export)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/dashboard", s.handleAnalyticsDashboard)
			r.Get("/payroll", s.handleAnalyticsPayroll)
			r.Get("/leave", s.handleAnalyticsLeave)
			r.Get("/attendance", s.handleAnalyticsAttendance)
			r.Get("/compliance", s.handleAnalyticsCompliance)
			r.Get("/hr-insights", s.handleAnalyticsHRInsights)
			r.Get("/export", s.handleAnalyticsExport)
		})
	})

	return r
}

type ctxKey string

const (
	ctxUser      ctxKey = "user"
	ctxRequestID ctxKey = "requestID"
)

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(contextWithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"durationMs", time.Since(start).Milliseconds(),
			"requestId", requestIDFrom(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func readBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// readBodyOptional tolerates an empty or absent body.
func readBodyOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}

func urlID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}

func money(v float64) string { return fmt.Sprintf("%.2f", v) }
