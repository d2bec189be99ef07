package stub

import (
	"net/http"
	"sort"
	"time"
)

const workingDaysPerMonth = 22

func hourlyRate(salary float64) float64 {
	return salary / (workingDaysPerMonth * expectedHours)
}

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}

// deriveAttendance recomputes everything downstream of the raw clock times.
func (s *Server) deriveAttendance(rec *attendanceRecord) map[string]any {
	emp := s.employees[rec.EmployeeID]
	rate := 0.0
	if emp != nil {
		rate = hourlyRate(emp.Salary)
	}

	breakMinutes := 0
	if rec.BreakStart != nil && rec.BreakEnd != nil {
		breakMinutes = int(rec.BreakEnd.Sub(*rec.BreakStart).Minutes())
	}

	totalHours := 0.0
	if rec.ClockIn != nil && rec.ClockOut != nil {
		totalHours = rec.ClockOut.Sub(*rec.ClockIn).Hours() - float64(breakMinutes)/60
		if totalHours < 0 {
			totalHours = 0
		}
	}

	lateMinutes := rec.LateMinutes
	if rec.ClockIn != nil {
		expected, _ := time.ParseInLocation("2006-01-02 15:04", rec.Date+" "+expectedStart, rec.ClockIn.Location())
		if rec.ClockIn.After(expected) {
			lateMinutes = int(rec.ClockIn.Sub(expected).Minutes())
		} else {
			lateMinutes = 0
		}
	}

	earlyMinutes := 0
	if rec.ClockOut != nil {
		expected, _ := time.ParseInLocation("2006-01-02 15:04", rec.Date+" "+expectedEnd, rec.ClockOut.Location())
		if rec.ClockOut.Before(expected) {
			earlyMinutes = int(expected.Sub(*rec.ClockOut).Minutes())
		}
	}

	overtimeHours := 0.0
	if totalHours > expectedHours {
		overtimeHours = totalHours - expectedHours
	}

	status := rec.Status
	if status == "" || status == "present" || status == "late" || status == "half_day" {
		switch {
		case rec.ClockIn == nil:
			status = "absent"
		case rec.ClockOut != nil && totalHours < expectedHours/2:
			status = "half_day"
		case lateMinutes > 0:
			status = "late"
		default:
			status = "present"
		}
	}

	paidHours := totalHours
	if paidHours > expectedHours {
		paidHours = expectedHours
	}

	out := map[string]any{
		"id":                      rec.ID,
		"company_id":              1,
		"employee_id":             rec.EmployeeID,
		"date":                    rec.Date,
		"clock_in":                timePtr(rec.ClockIn),
		"clock_out":               timePtr(rec.ClockOut),
		"break_start":             timePtr(rec.BreakStart),
		"break_end":               timePtr(rec.BreakEnd),
		"total_break_minutes":     breakMinutes,
		"total_hours":             round2(totalHours),
		"overtime_hours":          round2(overtimeHours),
		"late_minutes":            lateMinutes,
		"early_departure_minutes": earlyMinutes,
		"status":                  status,
		"expected_start":          expectedStart,
		"expected_end":            expectedEnd,
		"expected_hours":          expectedHours,
		"hourly_rate":             round2(rate),
		"daily_pay":               round2(paidHours * rate),
		"overtime_pay":            round2(overtimeHours * rate * overtimeRate),
		"notes":                   rec.Notes,
	}
	if emp != nil {
		out["first_name"] = emp.FirstName
		out["last_name"] = emp.LastName
		out["email"] = emp.Email
		out["department"] = emp.Department
		out["position"] = emp.Position
	}
	return out
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func (s *Server) attendanceTargetID(r *http.Request, explicit int) int {
	u := userFrom(r.Context())
	if explicit > 0 && (u.Role == "admin" || u.Role == "manager") {
		return explicit
	}
	return u.EmployeeID
}

func (s *Server) findToday(employeeID int, date string) *attendanceRecord {
	for _, rec := range s.attendance {
		if rec.EmployeeID == employeeID && rec.Date == date {
			return rec
		}
	}
	return nil
}

func (s *Server) handleAttendanceToday(w http.ResponseWriter, r *http.Request) {
	employeeID := s.attendanceTargetID(r, queryInt(r, "employee_id", 0))
	today := s.now().Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findToday(employeeID, today)
	if rec == nil {
		writeErr(w, http.StatusNotFound, "No attendance record for today")
		return
	}
	writeJSON(w, http.StatusOK, s.deriveAttendance(rec))
}

func (s *Server) clockHandler(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EmployeeID int `json:"employee_id"`
		}
		_ = readBodyOptional(r, &body)
		employeeID := s.attendanceTargetID(r, body.EmployeeID)
		now := s.now()
		today := now.Format("2006-01-02")

		s.mu.Lock()
		defer s.mu.Unlock()

		rec := s.findToday(employeeID, today)
		switch action {
		case "clock-in":
			if rec != nil && rec.ClockIn != nil {
				writeErr(w, http.StatusConflict, "Already clocked in today")
				return
			}
			if rec == nil {
				rec = &attendanceRecord{ID: s.id(), EmployeeID: employeeID, Date: today}
				s.attendance[rec.ID] = rec
			}
			rec.ClockIn = &now
		case "break-start":
			if rec == nil || rec.ClockIn == nil {
				writeErr(w, http.StatusBadRequest, "Clock in before starting a break")
				return
			}
			if rec.BreakStart != nil && rec.BreakEnd == nil {
				writeErr(w, http.StatusConflict, "A break is already in progress")
				return
			}
			rec.BreakStart = &now
			rec.BreakEnd = nil
		case "break-end":
			if rec == nil || rec.BreakStart == nil {
				writeErr(w, http.StatusBadRequest, "No break in progress")
				return
			}
			rec.BreakEnd = &now
		case "clock-out":
			if rec == nil || rec.ClockIn == nil {
				writeErr(w, http.StatusBadRequest, "Not clocked in")
				return
			}
			if rec.ClockOut != nil {
				writeErr(w, http.StatusConflict, "Already clocked out today")
				return
			}
			if rec.BreakStart != nil && rec.BreakEnd == nil {
				rec.BreakEnd = &now
			}
			rec.ClockOut = &now
		}
		writeJSON(w, http.StatusOK, s.deriveAttendance(rec))
	}
}

func (s *Server) sortedAttendance() []*attendanceRecord {
	out := make([]*attendanceRecord, 0, len(s.attendance))
	for _, rec := range s.attendance {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out
}

func (s *Server) handleAttendanceRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("date")
	startDate := q.Get("start_date")
	endDate := q.Get("end_date")
	status := q.Get("status")
	employeeID := queryInt(r, "employee_id", 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []map[string]any{}
	for _, rec := range s.sortedAttendance() {
		if date != "" && rec.Date != date {
			continue
		}
		if startDate != "" && rec.Date < startDate {
			continue
		}
		if endDate != "" && rec.Date > endDate {
			continue
		}
		if employeeID > 0 && rec.EmployeeID != employeeID {
			continue
		}
		derived := s.deriveAttendance(rec)
		if status != "" && derived["status"] != status {
			continue
		}
		out = append(out, derived)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.now().Format("2006-01-02")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	summary := map[string]any{}
	var total, present, absent, late, half, clockedIn int
	var hours, overtime, dailyCost, overtimeCost float64
	for _, rec := range s.attendance {
		if rec.Date != date {
			continue
		}
		derived := s.deriveAttendance(rec)
		total++
		switch derived["status"] {
		case "present":
			present++
		case "absent":
			absent++
		case "late":
			late++
		case "half_day":
			half++
		}
		if rec.ClockIn != nil && rec.ClockOut == nil {
			clockedIn++
		}
		hours += derived["total_hours"].(float64)
		overtime += derived["overtime_hours"].(float64)
		dailyCost += derived["daily_pay"].(float64)
		overtimeCost += derived["overtime_pay"].(float64)
	}
	summary["total_records"] = total
	summary["present"] = present
	summary["absent"] = absent
	summary["late"] = late
	summary["half_day"] = half
	summary["currently_clocked_in"] = clockedIn
	summary["total_hours_worked"] = round2(hours)
	summary["total_overtime_hours"] = round2(overtime)
	summary["total_daily_cost"] = round2(dailyCost)
	summary["total_overtime_cost"] = round2(overtimeCost)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	month := queryInt(r, "month", int(s.now().Month()))
	year := queryInt(r, "year", s.now().Year())
	onlyEmployee := queryInt(r, "employee_id", 0)
	prefix := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")

	s.mu.Lock()
	defer s.mu.Unlock()

	type agg struct {
		recorded, present, absent, late, half int
		hours, overtime, pay, overtimePay     float64
		breakMinutes, lateMinutes             int
	}
	byEmployee := map[int]*agg{}
	for _, rec := range s.attendance {
		if len(rec.Date) < 7 || rec.Date[:7] != prefix {
			continue
		}
		if onlyEmployee > 0 && rec.EmployeeID != onlyEmployee {
			continue
		}
		a := byEmployee[rec.EmployeeID]
		if a == nil {
			a = &agg{}
			byEmployee[rec.EmployeeID] = a
		}
		derived := s.deriveAttendance(rec)
		a.recorded++
		switch derived["status"] {
		case "present":
			a.present++
		case "absent":
			a.absent++
		case "late":
			a.late++
		case "half_day":
			a.half++
		}
		a.hours += derived["total_hours"].(float64)
		a.overtime += derived["overtime_hours"].(float64)
		a.pay += derived["daily_pay"].(float64)
		a.overtimePay += derived["overtime_pay"].(float64)
		a.breakMinutes += derived["total_break_minutes"].(int)
		a.lateMinutes += derived["late_minutes"].(int)
	}

	ids := make([]int, 0, len(byEmployee))
	for id := range byEmployee {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	rows := []map[string]any{}
	for _, id := range ids {
		a := byEmployee[id]
		emp := s.employees[id]
		if emp == nil {
			continue
		}
		avgLate := 0.0
		if a.recorded > 0 {
			avgLate = round2(float64(a.lateMinutes) / float64(a.recorded))
		}
		rows = append(rows, map[string]any{
			"employee_id":         id,
			"first_name":          emp.FirstName,
			"last_name":           emp.LastName,
			"department":          emp.Department,
			"days_recorded":       a.recorded,
			"days_present":        a.present,
			"days_absent":         a.absent,
			"days_late":           a.late,
			"days_half":           a.half,
			"total_hours":         round2(a.hours),
			"total_overtime":      round2(a.overtime),
			"total_break_minutes": a.breakMinutes,
			"total_pay":           round2(a.pay),
			"total_overtime_pay":  round2(a.overtimePay),
			"avg_late_minutes":    avgLate,
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleAttendanceOverride(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	if u.Role != "admin" && u.Role != "manager" {
		writeErr(w, http.StatusForbidden, "Admin access required")
		return
	}
	var body struct {
		EmployeeID int    `json:"employee_id"`
		Date       string `json:"date"`
		ClockIn    string `json:"clock_in"`
		ClockOut   string `json:"clock_out"`
		Status     string `json:"status"`
		Notes      string `json:"notes"`
	}
	if !readBody(w, r, &body) {
		return
	}
	if body.EmployeeID <= 0 || body.Date == "" {
		writeErr(w, http.StatusBadRequest, "employee_id and date are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.employees[body.EmployeeID] == nil {
		writeErr(w, http.StatusNotFound, "Employee not found")
		return
	}

	rec := s.findToday(body.EmployeeID, body.Date)
	if rec == nil {
		rec = &attendanceRecord{ID: s.id(), EmployeeID: body.EmployeeID, Date: body.Date}
		s.attendance[rec.ID] = rec
	}
	if body.ClockIn != "" {
		if t, err := time.Parse("2006-01-02 15:04", body.Date+" "+body.ClockIn); err == nil {
			rec.ClockIn = &t
		}
	}
	if body.ClockOut != "" {
		if t, err := time.Parse("2006-01-02 15:04", body.Date+" "+body.ClockOut); err == nil {
			rec.ClockOut = &t
		}
	}
	if body.Status != "" {
		rec.Status = body.Status
	}
	if body.Notes != "" {
		rec.Notes = body.Notes
	}
	writeJSON(w, http.StatusOK, s.deriveAttendance(rec))
}
