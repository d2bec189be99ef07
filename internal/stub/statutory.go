package stub

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"
)

// taxYearOf maps a calendar period onto the SARS tax year, which runs
// March through February and is named after its closing year.
func taxYearOf(month, year int) int {
	if month >= 3 {
		return year + 1
	}
	return year
}

func periodBounds(month, year int) (string, string) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}

// settledRecords are the payroll rows that feed statutory aggregates.
func (s *Server) settledRecords(month, year int) []*payrollRecord {
	var out []*payrollRecord
	for _, p := range s.periodRecords(month, year) {
		if p.Status == "processed" || p.Status == "paid" {
			out = append(out, p)
		}
	}
	return out
}

func emp201DueDate(month, year int) string {
	next := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 6)
	return next.Format("2006-01-02")
}

func (s *Server) emp201JSON(d *emp201Declaration) map[string]any {
	start, end := periodBounds(d.Month, d.Year)
	out := map[string]any{
		"id":                   d.ID,
		"company_id":           1,
		"tax_year":             strconv.Itoa(taxYearOf(d.Month, d.Year)),
		"tax_period":           fmt.Sprintf("%04d%02d", d.Year, d.Month),
		"period_start_date":    start,
		"period_end_date":      end,
		"paye_amount":          money(d.PAYE),
		"sdl_amount":           money(d.SDL),
		"uif_employee_amount":  money(d.UIFEmployee),
		"uif_employer_amount":  money(d.UIFEmployer),
		"uif_total_amount":     money(d.UIFEmployee + d.UIFEmployer),
		"eti_amount":           money(d.ETI),
		"total_liability":      money(d.totalLiability()),
		"payment_status":       d.PaymentStatus,
		"payment_date":         d.PaymentDate,
		"payment_reference":    d.PaymentReference,
		"submission_status":    d.SubmissionStatus,
		"submission_date":      d.SubmissionDate,
		"submission_reference": d.SubmissionReference,
		"sars_acknowledgement": d.SARSAck,
		"employee_count":       d.EmployeeCount,
		"total_remuneration":   money(d.TotalRemuneration),
		"notes":                nil,
		"created_at":           d.CreatedAt.Format(time.RFC3339),
		"updated_at":           d.UpdatedAt.Format(time.RFC3339),
		"due_date":             emp201DueDate(d.Month, d.Year),
	}
	if d.PaymentAmount != nil {
		out["payment_amount"] = money(*d.PaymentAmount)
	} else {
		out["payment_amount"] = nil
	}
	return out
}

func (d *emp201Declaration) totalLiability() float64 {
	return d.PAYE + d.SDL + d.UIFEmployee + d.UIFEmployer - d.ETI
}

func (s *Server) emp201Lines(d *emp201Declaration) []map[string]any {
	lines := []map[string]any{}
	for _, p := range s.settledRecords(d.Month, d.Year) {
		emp := s.employees[p.EmployeeID]
		name := ""
		if emp != nil {
			name = emp.FirstName + " " + emp.LastName
		}
		uif := uifMonthly(p.gross())
		lines = append(lines, map[string]any{
			"id":                 d.ID*1000 + p.EmployeeID,
			"declaration_id":     d.ID,
			"employee_id":        p.EmployeeID,
			"employee_name":      name,
			"gross_remuneration": money(p.gross()),
			"paye_deducted":      money(p.Tax),
			"uif_employee":       money(uif),
			"uif_employer":       money(uif),
			"sdl_contribution":   money(p.gross() * sdlRate),
		})
	}
	return lines
}

func (s *Server) emp201DetailJSON(d *emp201Declaration) map[string]any {
	return map[string]any{
		"declaration": s.emp201JSON(d),
		"lineItems":   s.emp201Lines(d),
	}
}

func (s *Server) sortedEMP201(year int, status string) []*emp201Declaration {
	var out []*emp201Declaration
	for _, d := range s.emp201s {
		if year > 0 && taxYearOf(d.Month, d.Year) != year && d.Year != year {
			continue
		}
		if status != "" && d.SubmissionStatus != status && d.PaymentStatus != status {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out
}

func (s *Server) handleEMP201Summary(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", s.now().Year())

	s.mu.Lock()
	defer s.mu.Unlock()
	var submitted, paid, overdue int
	var liability, paidAmount float64
	today := s.now().Format("2006-01-02")
	declarations := s.sortedEMP201(year, "")
	for _, d := range declarations {
		if d.SubmissionStatus == "submitted" || d.SubmissionStatus == "accepted" {
			submitted++
		}
		liability += d.totalLiability()
		if d.PaymentStatus == "paid" {
			paid++
			paidAmount += d.totalLiability()
		} else if emp201DueDate(d.Month, d.Year) < today {
			overdue++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_declarations":  len(declarations),
		"submitted_count":     submitted,
		"paid_count":          paid,
		"overdue_count":       overdue,
		"total_liability_ytd": money(liability),
		"total_paid_ytd":      money(paidAmount),
		"total_outstanding":   money(liability - paidAmount),
	})
}

func (s *Server) handleEMP201List(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", s.now().Year())
	status := r.URL.Query().Get("status")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, d := range s.sortedEMP201(year, status) {
		out = append(out, s.emp201JSON(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) findEMP201(w http.ResponseWriter, r *http.Request) *emp201Declaration {
	id, ok := urlID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "Invalid declaration id")
		return nil
	}
	d := s.emp201s[id]
	if d == nil {
		writeErr(w, http.StatusNotFound, "Declaration not found")
	}
	return d
}

func (s *Server) handleEMP201Detail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.findEMP201(w, r)
	if d == nil {
		return
	}
	writeJSON(w, http.StatusOK, s.emp201DetailJSON(d))
}

func (s *Server) handleEMP201Generate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	}
	if !readBody(w, r, &body) {
		return
	}
	if body.Month < 1 || body.Month > 12 {
		writeErr(w, http.StatusBadRequest, "Invalid period")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.emp201s {
		if d.Month == body.Month && d.Year == body.Year {
			writeErr(w, http.StatusConflict, "A declaration for this period already exists")
			return
		}
	}
	records := s.settledRecords(body.Month, body.Year)
	if len(records) == 0 {
		writeErr(w, http.StatusBadRequest, "No processed payroll for this period")
		return
	}

	now := s.now()
	d := &emp201Declaration{
		ID:               s.id(),
		Month:            body.Month,
		Year:             body.Year,
		SubmissionStatus: "draft",
		PaymentStatus:    "pending",
		EmployeeCount:    len(records),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, p := range records {
		gross := p.gross()
		uif := uifMonthly(gross)
		d.PAYE += p.Tax
		d.SDL += gross * sdlRate
		d.UIFEmployee += uif
		d.UIFEmployer += uif
		d.TotalRemuneration += gross
	}
	s.emp201s[d.ID] = d
	writeJSON(w, http.StatusCreated, s.emp201DetailJSON(d))
}

func (s *Server) handleEMP201Submit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SubmissionReference string `json:"submission_reference"`
		SARSAck             string `json:"sars_acknowledgement"`
	}
	if !readBody(w, r, &body) {
		return
	}
	if body.SubmissionReference == "" {
		writeErr(w, http.StatusBadRequest, "A submission reference is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.findEMP201(w, r)
	if d == nil {
		return
	}
	if d.SubmissionStatus != "draft" {
		writeErr(w, http.StatusConflict, "Declaration has already been submitted")
		return
	}
	now := s.now()
	date := now.Format("2006-01-02")
	d.SubmissionStatus = "submitted"
	d.SubmissionDate = &date
	d.SubmissionReference = &body.SubmissionReference
	if body.SARSAck != "" {
		d.SARSAck = &body.SARSAck
	}
	d.UpdatedAt = now
	writeJSON(w, http.StatusOK, s.emp201DetailJSON(d))
}

func (s *Server) handleEMP201Pay(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PaymentDate      string `json:"payment_date"`
		PaymentReference string `json:"payment_reference"`
		PaymentAmount    string `json:"payment_amount"`
	}
	if !readBody(w, r, &body) {
		return
	}
	if body.PaymentDate == "" || body.PaymentReference == "" {
		writeErr(w, http.StatusBadRequest, "Payment date and reference are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.findEMP201(w, r)
	if d == nil {
		return
	}
	if d.PaymentStatus == "paid" {
		writeErr(w, http.StatusConflict, "Declaration has already been paid")
		return
	}
	d.PaymentStatus = "paid"
	d.PaymentDate = &body.PaymentDate
	d.PaymentReference = &body.PaymentReference
	amount := d.totalLiability()
	if body.PaymentAmount != "" {
		if v, err := strconv.ParseFloat(body.PaymentAmount, 64); err == nil {
			amount = v
		}
	}
	d.PaymentAmount = &amount
	d.UpdatedAt = s.now()
	writeJSON(w, http.StatusOK, s.emp201DetailJSON(d))
}

func writeCSV(w http.ResponseWriter, filename string, rows [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	cw := csv.NewWriter(w)
	_ = cw.WriteAll(rows)
	cw.Flush()
}

func (s *Server) handleEMP201Export(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.findEMP201(w, r)
	if d == nil {
		return
	}
	rows := [][]string{{"Employee", "Gross Remuneration", "PAYE", "UIF Employee", "UIF Employer", "SDL"}}
	for _, line := range s.emp201Lines(d) {
		rows = append(rows, []string{
			line["employee_name"].(string),
			line["gross_remuneration"].(string),
			line["paye_deducted"].(string),
			line["uif_employee"].(string),
			line["uif_employer"].(string),
			line["sdl_contribution"].(string),
		})
	}
	rows = append(rows, []string{"TOTAL", money(d.TotalRemuneration), money(d.PAYE), money(d.UIFEmployee), money(d.UIFEmployer), money(d.SDL)})
	writeCSV(w, fmt.Sprintf("EMP201-%04d%02d.csv", d.Year, d.Month), rows)
}

func (s *Server) ui19JSON(d *ui19Declaration) map[string]any {
	start, end := periodBounds(d.Month, d.Year)
	var remuneration, uifEmployee, uifEmployer float64
	for _, line := range d.Lines {
		remuneration += line.Remuneration
		uif := uifMonthly(line.Remuneration)
		uifEmployee += uif
		uifEmployer += uif
	}
	return map[string]any{
		"id":                   d.ID,
		"company_id":           1,
		"month":                d.Month,
		"year":                 d.Year,
		"period_start_date":    start,
		"period_end_date":      end,
		"employee_count":       len(d.Lines),
		"total_remuneration":   money(remuneration),
		"total_uif_employee":   money(uifEmployee),
		"total_uif_employer":   money(uifEmployer),
		"total_uif":            money(uifEmployee + uifEmployer),
		"submission_status":    d.SubmissionStatus,
		"submission_date":      d.SubmissionDate,
		"submission_reference": d.SubmissionReference,
		"notes":                d.Notes,
		"created_at":           d.CreatedAt.Format(time.RFC3339),
		"updated_at":           d.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *Server) ui19LineJSON(d *ui19Declaration, line *ui19Line) map[string]any {
	emp := s.employees[line.EmployeeID]
	name := ""
	if emp != nil {
		name = emp.FirstName + " " + emp.LastName
	}
	uif := uifMonthly(line.Remuneration)
	return map[string]any{
		"id":                 line.ID,
		"declaration_id":     d.ID,
		"employee_id":        line.EmployeeID,
		"employee_name":      name,
		"id_number":          "",
		"uif_number":         line.UIFNumber,
		"gross_remuneration": money(line.Remuneration),
		"uif_employee":       money(uif),
		"uif_employer":       money(uif),
		"total_uif":          money(uif * 2),
		"days_worked":        line.DaysWorked,
		"reason_code":        line.ReasonCode,
	}
}

func (s *Server) ui19DetailJSON(d *ui19Declaration) map[string]any {
	lines := []map[string]any{}
	for i := range d.Lines {
		lines = append(lines, s.ui19LineJSON(d, &d.Lines[i]))
	}
	return map[string]any{
		"declaration": s.ui19JSON(d),
		"lineItems":   lines,
	}
}

func (s *Server) handleUI19List(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", s.now().Year())

	s.mu.Lock()
	defer s.mu.Unlock()
	var declarations []*ui19Declaration
	for _, d := range s.ui19s {
		if d.Year == year {
			declarations = append(declarations, d)
		}
	}
	sort.Slice(declarations, func(i, j int) bool { return declarations[i].Month > declarations[j].Month })

	out := []map[string]any{}
	for _, d := range declarations {
		out = append(out, s.ui19JSON(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) findUI19(w http.ResponseWriter, r *http.Request) *ui19Declaration {
	id, ok := urlID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "Invalid declaration id")
		return nil
	}
	d := s.ui19s[id]
	if d == nil {
		writeErr(w, http.StatusNotFound, "Declaration not found")
	}
	return d
}

func (s *Server) handleUI19Detail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.findUI19(w, r)
	if d == nil {
		return
	}
	writeJSON(w, http.StatusOK, s.ui19DetailJSON(d))
}

func (s *Server) handleUI19Generate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	}
	if !readBody(w, r, &body) {
		return
	}
	if body.Month < 1 || body.Month > 12 {
		writeErr(w, http.StatusBadRequest, "Invalid period")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.ui19s {
		if d.Month == body.Month && d.Year == body.Year {
			writeErr(w, http.StatusConflict, "A declaration for this period already exists")
			return
		}
	}
	records := s.settledRecords(body.Month, body.Year)
	if len(records) == 0 {
		writeErr(w, http.StatusBadRequest, "No processed payroll for this period")
		return
	}

	now := s.now()
	d := &ui19Declaration{
		ID:               s.id(),
		Month:            body.Month,
		Year:             body.Year,
		SubmissionStatus: "draft",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, p := range records {
		d.Lines = append(d.Lines, ui19Line{
			ID:           s.id(),
			EmployeeID:   p.EmployeeID,
			DaysWorked:   workingDaysPerMonth,
			Remuneration: p.gross(),
		})
	}
	s.ui19s[d.ID] = d
	writeJSON(w, http.StatusCreated, s.ui19DetailJSON(d))
}

func (s *Server) handleUI19LineUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "Invalid line item id")
		return
	}
	var body struct {
		UIFNumber  string `json:"uif_number"`
		DaysWorked int    `json:"days_worked"`
	}
	if !readBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.ui19s {
		for i := range d.Lines {
			if d.Lines[i].ID != id {
				continue
			}
			if d.SubmissionStatus != "draft" {
				writeErr(w, http.StatusConflict, "Declaration has already been submitted")
				return
			}
			d.Lines[i].UIFNumber = body.UIFNumber
			if body.DaysWorked > 0 {
				d.Lines[i].DaysWorked = body.DaysWorked
			}
			d.UpdatedAt = s.now()
			writeJSON(w, http.StatusOK, s.ui19LineJSON(d, &d.Lines[i]))
			return
		}
	}
	writeErr(w, http.StatusNotFound, "Line item not found")
}

func (s *Server) handleUI19Submit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SubmissionReference string `json:"submission_reference"`
		Notes               string `json:"notes"`
	}
	if !readBody(w, r, &body) {
		return
	}
	if body.SubmissionReference == "" {
		writeErr(w, http.StatusBadRequest, "A submission reference is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.findUI19(w, r)
	if d == nil {
		return
	}
	if d.SubmissionStatus != "draft" {
		writeErr(w, http.StatusConflict, "Declaration has already been submitted")
		return
	}
	now := s.now()
	date := now.Format("2006-01-02")
	d.SubmissionStatus = "submitted"
	d.SubmissionDate = &date
	d.SubmissionReference = &body.SubmissionReference
	if body.Notes != "" {
		d.Notes = &body.Notes
	}
	d.UpdatedAt = now
	writeJSON(w, http.StatusOK, s.ui19DetailJSON(d))
}

func (s *Server) handleUI19Export(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.findUI19(w, r)
	if d == nil {
		return
	}
	rows := [][]string{{"Employee", "UIF Number", "Days Worked", "Gross Remuneration", "UIF Employee", "UIF Employer"}}
	for i := range d.Lines {
		line := s.ui19LineJSON(d, &d.Lines[i])
		rows = append(rows, []string{
			line["employee_name"].(string),
			line["uif_number"].(string),
			strconv.Itoa(line["days_worked"].(int)),
			line["gross_remuneration"].(string),
			line["uif_employee"].(string),
			line["uif_employer"].(string),
		})
	}
	writeCSV(w, fmt.Sprintf("UI19-%04d%02d.csv", d.Year, d.Month), rows)
}
