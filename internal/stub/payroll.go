package stub

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/jung-kurt/gofpdf"
)

func (s *Server) payrollJSON(p *payrollRecord) map[string]any {
	out := map[string]any{
		"id":               p.ID,
		"employee_id":      p.EmployeeID,
		"month":            p.Month,
		"year":             p.Year,
		"basic_salary":     round2(p.BasicSalary),
		"allowances":       round2(p.Allowances),
		"bonuses":          round2(p.Bonuses),
		"overtime":         round2(p.Overtime),
		"gross_pay":        round2(p.gross()),
		"tax":              round2(p.Tax),
		"uif":              round2(p.UIF),
		"pension":          round2(p.Pension),
		"medical_aid":      round2(p.MedicalAid),
		"other_deductions": round2(p.OtherDeductions),
		"total_deductions": round2(p.deductions()),
		"net_pay":          round2(p.net()),
		"status":           p.Status,
		"created_at":       p.CreatedAt.Format(time.RFC3339),
		"updated_at":       p.UpdatedAt.Format(time.RFC3339),
	}
	if emp := s.employees[p.EmployeeID]; emp != nil {
		out["first_name"] = emp.FirstName
		out["last_name"] = emp.LastName
		out["email"] = emp.Email
		out["department"] = emp.Department
		out["position"] = emp.Position
	}
	if p.PaymentMethod != "" {
		out["payment_method"] = p.PaymentMethod
		out["payment_date"] = p.PaymentDate
		out["payment_reference"] = p.PaymentReference
	}
	return out
}

func (s *Server) periodRecords(month, year int) []*payrollRecord {
	var out []*payrollRecord
	for _, p := range s.payroll {
		if p.Month == month && p.Year == year {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out
}

func (s *Server) handlePayrollSummary(w http.ResponseWriter, r *http.Request) {
	month := queryInt(r, "month", int(s.now().Month()))
	year := queryInt(r, "year", s.now().Year())

	s.mu.Lock()
	defer s.mu.Unlock()

	var gross, deductions, net, tax float64
	var paid, processed, draft int
	records := s.periodRecords(month, year)
	for _, p := range records {
		gross += p.gross()
		deductions += p.deductions()
		net += p.net()
		tax += p.Tax
		switch p.Status {
		case "paid":
			paid++
		case "processed":
			processed++
		default:
			draft++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_employees":  len(records),
		"total_gross":      round2(gross),
		"total_deductions": round2(deductions),
		"total_net":        round2(net),
		"tax":              round2(tax),
		"paid_count":       paid,
		"processed_count":  processed,
		"draft_count":      draft,
	})
}

func (s *Server) handlePayrollRecords(w http.ResponseWriter, r *http.Request) {
	month := queryInt(r, "month", int(s.now().Month()))
	year := queryInt(r, "year", s.now().Year())
	status := r.URL.Query().Get("status")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, p := range s.periodRecords(month, year) {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, s.payrollJSON(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePayrollInitialize(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	}
	if !readBody(w, r, &body) {
		return
	}
	if body.Month < 1 || body.Month > 12 || body.Year < 2000 {
		writeErr(w, http.StatusBadRequest, "Invalid payroll period")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := map[int]bool{}
	for _, p := range s.periodRecords(body.Month, body.Year) {
		existing[p.EmployeeID] = true
	}
	created := 0
	now := s.now()
	for _, e := range s.sortedEmployees() {
		if !e.IsActive || existing[e.ID] {
			continue
		}
		p := &payrollRecord{
			ID:          s.id(),
			EmployeeID:  e.ID,
			Month:       body.Month,
			Year:        body.Year,
			BasicSalary: e.Salary,
			Status:      "draft",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		s.payroll[p.ID] = p
		created++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Initialized %d payroll records", created),
		"created": created,
	})
}

// processRecord fills in the monetary breakdown for one draft.
func (s *Server) processRecord(p *payrollRecord) {
	gross := p.BasicSalary + p.Allowances + p.Bonuses + p.Overtime
	p.Tax = payeMonthly(gross)
	p.UIF = uifMonthly(gross)
	p.Pension = p.BasicSalary * pensionRate
	p.Status = "processed"
	p.UpdatedAt = s.now()
}

func (s *Server) handlePayrollProcess(w http.ResponseWriter, r *http.Request) {
	var body struct {
		EmployeeIDs []int `json:"employee_ids"`
		Month       int   `json:"month"`
		Year        int   `json:"year"`
	}
	if !readBody(w, r, &body) {
		return
	}
	if len(body.EmployeeIDs) == 0 {
		writeErr(w, http.StatusBadRequest, "No employees selected")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := map[int]bool{}
	for _, id := range body.EmployeeIDs {
		wanted[id] = true
	}
	processed := 0
	for _, p := range s.periodRecords(body.Month, body.Year) {
		if !wanted[p.EmployeeID] || p.Status != "draft" {
			continue
		}
		s.processRecord(p)
		processed++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   fmt.Sprintf("Processed %d payroll records", processed),
		"processed": processed,
	})
}

func (s *Server) handlePayrollMarkPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "Invalid payroll record id")
		return
	}
	var body struct {
		PaymentMethod    string `json:"payment_method"`
		PaymentDate      string `json:"payment_date"`
		PaymentReference string `json:"payment_reference"`
	}
	if !readBody(w, r, &body) {
		return
	}
	if body.PaymentMethod == "" || body.PaymentDate == "" {
		writeErr(w, http.StatusBadRequest, "Payment method and date are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.payroll[id]
	if p == nil {
		writeErr(w, http.StatusNotFound, "Payroll record not found")
		return
	}
	if p.Status != "processed" {
		writeErr(w, http.StatusConflict, "Only processed records can be marked paid")
		return
	}
	p.Status = "paid"
	p.PaymentMethod = body.PaymentMethod
	p.PaymentDate = body.PaymentDate
	p.PaymentReference = body.PaymentReference
	p.UpdatedAt = s.now()
	writeJSON(w, http.StatusOK, s.payrollJSON(p))
}

func (s *Server) handlePayslip(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "Invalid payroll record id")
		return
	}

	s.mu.Lock()
	p := s.payroll[id]
	var emp *employee
	if p != nil {
		emp = s.employees[p.EmployeeID]
	}
	s.mu.Unlock()
	if p == nil || emp == nil {
		writeErr(w, http.StatusNotFound, "Payroll record not found")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s %s", emp.FirstName, emp.LastName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Department: %s / %s", emp.Department, emp.Position))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %04d-%02d", p.Year, p.Month))
	pdf.Ln(10)
	pdf.Cell(0, 8, fmt.Sprintf("Basic salary: R %.2f", p.BasicSalary))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Gross pay: R %.2f", p.gross()))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("PAYE: R %.2f", p.Tax))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("UIF: R %.2f", p.UIF))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Pension: R %.2f", p.Pension))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Total deductions: R %.2f", p.deductions()))
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Net pay: R %.2f", p.net()))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		writeErr(w, http.StatusInternalServerError, "Could not render payslip")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payslip-%d.pdf", p.ID))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handlePayrollHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 12)
	employeeID := queryInt(r, "employee_id", 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*payrollRecord
	for _, p := range s.payroll {
		if employeeID > 0 && p.EmployeeID != employeeID {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Year != all[j].Year {
			return all[i].Year > all[j].Year
		}
		if all[i].Month != all[j].Month {
			return all[i].Month > all[j].Month
		}
		return all[i].EmployeeID < all[j].EmployeeID
	})
	if len(all) > limit {
		all = all[:limit]
	}

	out := []map[string]any{}
	for _, p := range all {
		entry := map[string]any{
			"id":          p.ID,
			"employee_id": p.EmployeeID,
			"month":       p.Month,
			"year":        p.Year,
			"gross_pay":   round2(p.gross()),
			"net_pay":     round2(p.net()),
			"status":      p.Status,
		}
		if emp := s.employees[p.EmployeeID]; emp != nil {
			entry["first_name"] = emp.FirstName
			entry["last_name"] = emp.LastName
		}
		out = append(out, entry)
	}
	writeJSON(w, http.StatusOK, out)
}
