package stub

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"
)

func taxYearBounds(taxYear int) (string, string) {
	start := time.Date(taxYear-1, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(taxYear, time.February, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}

func (s *Server) irp5JSON(c *irp5Certificate) map[string]any {
	start, end := taxYearBounds(c.TaxYear)
	sdl := c.Remuneration * sdlRate
	totalDeductions := c.PAYE + c.UIF
	out := map[string]any{
		"id":                  c.ID,
		"company_id":          1,
		"employee_id":         c.EmployeeID,
		"tax_year":            strconv.Itoa(c.TaxYear),
		"tax_year_start":      start,
		"tax_year_end":        end,
		"employee_id_number":  "",
		"employee_tax_number": "",
		"employee_uif_number": "",
		"code_3601":           money(c.Remuneration),
		"code_4101":           money(c.PAYE),
		"code_4141":           money(c.UIF),
		"code_4142":           money(sdl),
		"code_4149":           money(c.PAYE + c.UIF + sdl),
		"total_remuneration":  money(c.Remuneration),
		"total_deductions":    money(totalDeductions),
		"net_pay":             money(c.Remuneration - totalDeductions),
		"months_employed":     c.Months,
		"certificate_number":  c.Number,
		"generation_status":   c.Status,
		"issued_date":         c.IssuedDate,
		"created_at":          c.CreatedAt.Format(time.RFC3339),
	}
	if emp := s.employees[c.EmployeeID]; emp != nil {
		out["employee_name"] = emp.FirstName + " " + emp.LastName
		out["department"] = emp.Department
		out["position"] = emp.Position
	}
	return out
}

func (s *Server) certificatesFor(taxYear int) []*irp5Certificate {
	var out []*irp5Certificate
	for _, c := range s.irp5s {
		if c.TaxYear == taxYear {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out
}

func queryTaxYear(r *http.Request, s *Server) int {
	if y, err := strconv.Atoi(r.URL.Query().Get("tax_year")); err == nil && y > 0 {
		return y
	}
	now := s.now()
	return taxYearOf(int(now.Month()), now.Year())
}

func (s *Server) handleIRP5Certificates(w http.ResponseWriter, r *http.Request) {
	taxYear := queryTaxYear(r, s)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, c := range s.certificatesFor(taxYear) {
		out = append(out, s.irp5JSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleIRP5Reconciliation(w http.ResponseWriter, r *http.Request) {
	taxYear := queryTaxYear(r, s)

	s.mu.Lock()
	defer s.mu.Unlock()
	certificates := s.certificatesFor(taxYear)
	if len(certificates) == 0 {
		writeErr(w, http.StatusNotFound, "No reconciliation for this tax year")
		return
	}

	var remuneration, paye, uif float64
	allIssued := true
	for _, c := range certificates {
		remuneration += c.Remuneration
		paye += c.PAYE
		uif += c.UIF
		if c.Status != "issued" {
			allIssued = false
		}
	}
	status := "draft"
	if allIssued {
		status = "ready"
	}
	start, end := taxYearBounds(taxYear)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":                   taxYear,
		"company_id":           1,
		"tax_year":             strconv.Itoa(taxYear),
		"tax_year_start":       start,
		"tax_year_end":         end,
		"employee_count":       len(certificates),
		"total_remuneration":   money(remuneration),
		"total_paye":           money(paye),
		"total_uif_employee":   money(uif / 2),
		"total_uif_employer":   money(uif / 2),
		"total_sdl":            money(remuneration * sdlRate),
		"total_deductions":     money(paye + uif),
		"recon_status":         status,
		"submission_date":      nil,
		"submission_reference": nil,
	})
}

func (s *Server) handleIRP5Generate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TaxYear int `json:"tax_year"`
	}
	if !readBody(w, r, &body) {
		return
	}
	if body.TaxYear < 2000 {
		writeErr(w, http.StatusBadRequest, "Invalid tax year")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type agg struct {
		remuneration, paye, uif float64
		months                  int
	}
	byEmployee := map[int]*agg{}
	for _, p := range s.payroll {
		if p.Status != "processed" && p.Status != "paid" {
			continue
		}
		if taxYearOf(p.Month, p.Year) != body.TaxYear {
			continue
		}
		a := byEmployee[p.EmployeeID]
		if a == nil {
			a = &agg{}
			byEmployee[p.EmployeeID] = a
		}
		a.remuneration += p.gross()
		a.paye += p.Tax
		a.uif += uifMonthly(p.gross()) * 2
		a.months++
	}
	if len(byEmployee) == 0 {
		writeErr(w, http.StatusBadRequest, "No processed payroll in this tax year")
		return
	}

	generated := 0
	for employeeID, a := range byEmployee {
		var existing *irp5Certificate
		for _, c := range s.irp5s {
			if c.TaxYear == body.TaxYear && c.EmployeeID == employeeID {
				existing = c
				break
			}
		}
		if existing != nil && existing.Status == "issued" {
			continue
		}
		if existing == nil {
			existing = &irp5Certificate{
				ID:         s.id(),
				EmployeeID: employeeID,
				TaxYear:    body.TaxYear,
				CreatedAt:  s.now(),
			}
			existing.Number = fmt.Sprintf("IRP5%04d%06d", body.TaxYear, existing.ID)
			s.irp5s[existing.ID] = existing
		}
		existing.Status = "generated"
		existing.Remuneration = a.remuneration
		existing.PAYE = a.paye
		existing.UIF = a.uif
		existing.Months = a.months
		generated++
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Generated %d certificates for tax year %d", generated, body.TaxYear),
	})
}

func (s *Server) handleIRP5Issue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TaxYear int `json:"tax_year"`
	}
	if !readBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	issued := 0
	date := s.now().Format("2006-01-02")
	for _, c := range s.certificatesFor(body.TaxYear) {
		if c.Status != "generated" {
			continue
		}
		c.Status = "issued"
		c.IssuedDate = &date
		issued++
	}
	if issued == 0 {
		writeErr(w, http.StatusBadRequest, "No generated certificates to issue")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Issued %d certificates for tax year %d", issued, body.TaxYear),
	})
}

func (s *Server) handleIRP5HTML(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "Invalid certificate id")
		return
	}

	s.mu.Lock()
	c := s.irp5s[id]
	var doc string
	if c != nil {
		j := s.irp5JSON(c)
		doc = fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>IRP5 %s</title></head>
<body>
<h1>IRP5 Employee Tax Certificate</h1>
<p>Certificate: %s</p>
<p>Employee: %v</p>
<p>Tax year: %s (%s to %s)</p>
<table border="1" cellpadding="4">
<tr><th>Code</th><th>Description</th><th>Amount</th></tr>
<tr><td>3601</td><td>Income</td><td>R %s</td></tr>
<tr><td>4101</td><td>PAYE</td><td>R %s</td></tr>
<tr><td>4141</td><td>UIF contributions</td><td>R %s</td></tr>
<tr><td>4142</td><td>SDL contributions</td><td>R %s</td></tr>
<tr><td>4149</td><td>Total tax, SDL and UIF</td><td>R %s</td></tr>
</table>
</body>
</html>`,
			c.Number, c.Number, j["employee_name"], j["tax_year"], j["tax_year_start"], j["tax_year_end"],
			j["code_3601"], j["code_4101"], j["code_4141"], j["code_4142"], j["code_4149"])
	}
	s.mu.Unlock()
	if c == nil {
		writeErr(w, http.StatusNotFound, "Certificate not found")
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=IRP5-%d.html", c.ID))
	_, _ = w.Write([]byte(doc))
}

func (s *Server) handleIRP5Export(w http.ResponseWriter, r *http.Request) {
	taxYear := queryTaxYear(r, s)

	s.mu.Lock()
	defer s.mu.Unlock()
	rows := [][]string{{"Certificate", "Employee", "Months", "Income (3601)", "PAYE (4101)", "UIF (4141)", "SDL (4142)", "Status"}}
	for _, c := range s.certificatesFor(taxYear) {
		j := s.irp5JSON(c)
		name, _ := j["employee_name"].(string)
		rows = append(rows, []string{
			c.Number,
			name,
			strconv.Itoa(c.Months),
			j["code_3601"].(string),
			j["code_4101"].(string),
			j["code_4141"].(string),
			j["code_4142"].(string),
			c.Status,
		})
	}
	writeCSV(w, fmt.Sprintf("IRP5-%d.csv", taxYear), rows)
}
