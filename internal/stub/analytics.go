package stub

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

func (s *Server) handleAnalyticsDashboard(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", s.now().Year())
	month := queryInt(r, "month", int(s.now().Month()))
	monthPrefix := fmt.Sprintf("%04d-%02d", year, month)

	s.mu.Lock()
	defer s.mu.Unlock()

	var totalEmp, activeEmp int
	for _, e := range s.employees {
		totalEmp++
		if e.IsActive {
			activeEmp++
		}
	}

	var gross, net, deductions, tax float64
	var processedCount int
	for _, p := range s.periodRecords(month, year) {
		if p.Status == "draft" {
			continue
		}
		gross += p.gross()
		net += p.net()
		deductions += p.deductions()
		tax += p.Tax
		processedCount++
	}

	var totalReq, pendingReq, approvedReq int
	var daysTaken float64
	yearPrefix := fmt.Sprintf("%04d", year)
	for _, req := range s.leaves {
		if !strings.HasPrefix(req.StartDate, yearPrefix) {
			continue
		}
		totalReq++
		switch req.Status {
		case "pending":
			pendingReq++
		case "approved":
			approvedReq++
			daysTaken += req.Days
		}
	}

	unique := map[int]bool{}
	var present, late, absent int
	var hours float64
	var hourRecords int
	for _, rec := range s.attendance {
		if !strings.HasPrefix(rec.Date, monthPrefix) {
			continue
		}
		unique[rec.EmployeeID] = true
		derived := s.deriveAttendance(rec)
		switch derived["status"] {
		case "present":
			present++
		case "late":
			late++
		case "absent":
			absent++
		}
		if h := derived["total_hours"].(float64); h > 0 {
			hours += h
			hourRecords++
		}
	}
	avgHours := 0.0
	if hourRecords > 0 {
		avgHours = hours / float64(hourRecords)
	}

	var declarations, pendingPay, pendingSub int
	var outstanding float64
	for _, d := range s.emp201s {
		if taxYearOf(d.Month, d.Year) != year && d.Year != year {
			continue
		}
		declarations++
		if d.PaymentStatus != "paid" {
			pendingPay++
			outstanding += d.totalLiability()
		}
		if d.SubmissionStatus == "draft" {
			pendingSub++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"employees": map[string]any{
			"total_employees":    totalEmp,
			"active_employees":   activeEmp,
			"inactive_employees": totalEmp - activeEmp,
		},
		"payroll": map[string]any{
			"total_gross":      money(gross),
			"total_net":        money(net),
			"total_deductions": money(deductions),
			"total_tax":        money(tax),
			"processed_count":  processedCount,
		},
		"leave": map[string]any{
			"total_requests":    totalReq,
			"pending_requests":  pendingReq,
			"approved_requests": approvedReq,
			"total_days_taken":  money(daysTaken),
		},
		"attendance": map[string]any{
			"unique_employees": len(unique),
			"present_count":    present,
			"late_count":       late,
			"absent_count":     absent,
			"avg_hours_worked": money(avgHours),
		},
		"compliance": map[string]any{
			"total_declarations":  declarations,
			"pending_payments":    pendingPay,
			"pending_submissions": pendingSub,
			"outstanding_amount":  money(outstanding),
		},
	})
}

func (s *Server) handleAnalyticsPayroll(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", s.now().Year())

	s.mu.Lock()
	defer s.mu.Unlock()

	trend := []map[string]any{}
	for month := 1; month <= 12; month++ {
		records := s.settledRecords(month, year)
		if len(records) == 0 {
			continue
		}
		var gross, net, tax, deductions float64
		for _, p := range records {
			gross += p.gross()
			net += p.net()
			tax += p.Tax
			deductions += p.deductions()
		}
		trend = append(trend, map[string]any{
			"month":            month,
			"employee_count":   len(records),
			"total_gross":      money(gross),
			"total_net":        money(net),
			"total_tax":        money(tax),
			"total_deductions": money(deductions),
		})
	}

	type deptAgg struct {
		count      int
		gross, net float64
		salary     float64
	}
	byDept := map[string]*deptAgg{}
	type posAgg struct {
		count    int
		salaries []float64
	}
	byPos := map[string]*posAgg{}
	for _, e := range s.employees {
		if !e.IsActive {
			continue
		}
		d := byDept[e.Department]
		if d == nil {
			d = &deptAgg{}
			byDept[e.Department] = d
		}
		d.count++
		d.gross += e.Salary
		d.net += e.Salary - payeMonthly(e.Salary) - uifMonthly(e.Salary)
		d.salary += e.Salary

		p := byPos[e.Position]
		if p == nil {
			p = &posAgg{}
			byPos[e.Position] = p
		}
		p.count++
		p.salaries = append(p.salaries, e.Salary)
	}

	departments := []map[string]any{}
	for _, name := range sortedKeys(byDept) {
		d := byDept[name]
		departments = append(departments, map[string]any{
			"department":     name,
			"employee_count": d.count,
			"total_gross":    money(d.gross),
			"total_net":      money(d.net),
			"avg_salary":     money(d.salary / float64(d.count)),
		})
	}

	positions := []map[string]any{}
	for _, name := range sortedKeys(byPos) {
		p := byPos[name]
		sort.Float64s(p.salaries)
		var sum float64
		for _, v := range p.salaries {
			sum += v
		}
		positions = append(positions, map[string]any{
			"position":       name,
			"employee_count": p.count,
			"avg_salary":     money(sum / float64(len(p.salaries))),
			"min_salary":     money(p.salaries[0]),
			"max_salary":     money(p.salaries[len(p.salaries)-1]),
		})
	}

	var basic, allowances, bonuses, overtime, tax, uif, pension, medical float64
	for _, p := range s.payroll {
		if p.Year != year || (p.Status != "processed" && p.Status != "paid") {
			continue
		}
		basic += p.BasicSalary
		allowances += p.Allowances
		bonuses += p.Bonuses
		overtime += p.Overtime
		tax += p.Tax
		uif += p.UIF
		pension += p.Pension
		medical += p.MedicalAid
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"monthlyTrend":        trend,
		"departmentBreakdown": departments,
		"positionBreakdown":   positions,
		"costBreakdown": map[string]any{
			"basic_salary": money(basic),
			"allowances":   money(allowances),
			"bonuses":      money(bonuses),
			"overtime":     money(overtime),
			"tax":          money(tax),
			"uif":          money(uif),
			"pension":      money(pension),
			"medical_aid":  money(medical),
		},
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Server) handleAnalyticsLeave(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", s.now().Year())
	yearPrefix := fmt.Sprintf("%04d", year)

	s.mu.Lock()
	defer s.mu.Unlock()

	type typeAgg struct {
		requests, approved, rejected int
		days                         float64
	}
	byType := map[string]*typeAgg{}
	monthly := map[int]*typeAgg{}
	type deptLeaveAgg struct {
		requests  int
		days      float64
		employees map[int]bool
	}
	byDept := map[string]*deptLeaveAgg{}
	var total, approved, rejected, pending int

	for _, req := range s.leaves {
		if !strings.HasPrefix(req.StartDate, yearPrefix) {
			continue
		}
		total++
		switch req.Status {
		case "approved":
			approved++
		case "rejected":
			rejected++
		case "pending":
			pending++
		}

		typeName := ""
		if lt := s.leaveTypeByID(req.LeaveTypeID); lt != nil {
			typeName = lt.Name
		}
		t := byType[typeName]
		if t == nil {
			t = &typeAgg{}
			byType[typeName] = t
		}
		t.requests++
		t.days += req.Days
		if req.Status == "approved" {
			t.approved++
		}
		if req.Status == "rejected" {
			t.rejected++
		}

		if start, err := time.Parse("2006-01-02", req.StartDate); err == nil {
			m := monthly[int(start.Month())]
			if m == nil {
				m = &typeAgg{}
				monthly[int(start.Month())] = m
			}
			m.requests++
			m.days += req.Days
			if req.Status == "approved" {
				m.approved++
			}
		}

		if emp := s.employees[req.EmployeeID]; emp != nil {
			d := byDept[emp.Department]
			if d == nil {
				d = &deptLeaveAgg{employees: map[int]bool{}}
				byDept[emp.Department] = d
			}
			d.requests++
			d.days += req.Days
			d.employees[req.EmployeeID] = true
		}
	}

	leaveTypes := []map[string]any{}
	for _, name := range sortedKeys(byType) {
		t := byType[name]
		leaveTypes = append(leaveTypes, map[string]any{
			"leave_type":     name,
			"request_count":  t.requests,
			"total_days":     money(t.days),
			"approved_count": t.approved,
			"rejected_count": t.rejected,
		})
	}

	monthlyOut := []map[string]any{}
	for month := 1; month <= 12; month++ {
		m := monthly[month]
		if m == nil {
			continue
		}
		monthlyOut = append(monthlyOut, map[string]any{
			"month":          month,
			"request_count":  m.requests,
			"total_days":     money(m.days),
			"approved_count": m.approved,
		})
	}

	deptOut := []map[string]any{}
	for _, name := range sortedKeys(byDept) {
		d := byDept[name]
		deptOut = append(deptOut, map[string]any{
			"department":       name,
			"request_count":    d.requests,
			"total_days":       money(d.days),
			"unique_employees": len(d.employees),
		})
	}

	rate := 0.0
	if approved+rejected > 0 {
		rate = float64(approved) / float64(approved+rejected) * 100
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"leaveTypes":      leaveTypes,
		"monthlyLeave":    monthlyOut,
		"departmentLeave": deptOut,
		"approvalStats": map[string]any{
			"total_requests": total,
			"approved":       approved,
			"rejected":       rejected,
			"pending":        pending,
			"approval_rate":  money(rate),
		},
	})
}

func (s *Server) handleAnalyticsAttendance(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", s.now().Year())
	month := queryInt(r, "month", int(s.now().Month()))
	prefix := fmt.Sprintf("%04d-%02d", year, month)

	s.mu.Lock()
	defer s.mu.Unlock()

	type dayAgg struct {
		total, present, late, absent, lateMinutes int
		hours                                     float64
	}
	byDay := map[string]*dayAgg{}
	type deptAgg struct {
		total, present, late int
	}
	byDept := map[string]*deptAgg{}
	var overtimeHours, overtimePay float64
	overtimeEmployees := map[int]bool{}

	for _, rec := range s.attendance {
		if !strings.HasPrefix(rec.Date, prefix) {
			continue
		}
		derived := s.deriveAttendance(rec)

		day := byDay[rec.Date]
		if day == nil {
			day = &dayAgg{}
			byDay[rec.Date] = day
		}
		day.total++
		switch derived["status"] {
		case "present":
			day.present++
		case "late":
			day.late++
		case "absent":
			day.absent++
		}
		day.hours += derived["total_hours"].(float64)
		day.lateMinutes += derived["late_minutes"].(int)

		if emp := s.employees[rec.EmployeeID]; emp != nil {
			d := byDept[emp.Department]
			if d == nil {
				d = &deptAgg{}
				byDept[emp.Department] = d
			}
			d.total++
			switch derived["status"] {
			case "present":
				d.present++
			case "late":
				d.late++
			}
		}

		if ot := derived["overtime_hours"].(float64); ot > 0 {
			overtimeHours += ot
			overtimePay += derived["overtime_pay"].(float64)
			overtimeEmployees[rec.EmployeeID] = true
		}
	}

	daily := []map[string]any{}
	lateArrivals := []map[string]any{}
	for _, date := range sortedKeys(byDay) {
		day := byDay[date]
		avg := 0.0
		if day.total > 0 {
			avg = day.hours / float64(day.total)
		}
		daily = append(daily, map[string]any{
			"date":          date,
			"total_records": day.total,
			"present":       day.present,
			"late":          day.late,
			"absent":        day.absent,
			"avg_hours":     money(avg),
		})
		if day.late > 0 {
			lateArrivals = append(lateArrivals, map[string]any{
				"date":             date,
				"late_count":       day.late,
				"avg_late_minutes": money(float64(day.lateMinutes) / float64(day.late)),
			})
		}
	}

	departments := []map[string]any{}
	for _, name := range sortedKeys(byDept) {
		d := byDept[name]
		rate := 0.0
		if d.total > 0 {
			rate = float64(d.present+d.late) / float64(d.total) * 100
		}
		departments = append(departments, map[string]any{
			"department":      name,
			"total_records":   d.total,
			"present_count":   d.present,
			"late_count":      d.late,
			"attendance_rate": money(rate),
		})
	}

	avgOvertime := 0.0
	if len(overtimeEmployees) > 0 {
		avgOvertime = overtimeHours / float64(len(overtimeEmployees))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dailyAttendance":      daily,
		"departmentAttendance": departments,
		"overtimeStats": map[string]any{
			"total_overtime_hours":      money(overtimeHours),
			"total_overtime_pay":        money(overtimePay),
			"avg_overtime_per_employee": money(avgOvertime),
			"employees_with_overtime":   len(overtimeEmployees),
		},
		"lateArrivals": lateArrivals,
	})
}

func (s *Server) handleAnalyticsCompliance(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", s.now().Year())

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := []map[string]any{}
	timeline := []map[string]any{}
	var outstanding float64
	var overdue, pendingCount int
	today := s.now().Format("2006-01-02")

	for _, d := range s.sortedEMP201(year, "") {
		_, end := periodBounds(d.Month, d.Year)
		monthName := time.Month(d.Month).String()
		paymentDate := ""
		if d.PaymentDate != nil {
			paymentDate = *d.PaymentDate
		}
		submissionDate := ""
		if d.SubmissionDate != nil {
			submissionDate = *d.SubmissionDate
		}
		stats = append(stats, map[string]any{
			"month":             monthName,
			"total_liability":   money(d.totalLiability()),
			"payment_status":    d.PaymentStatus,
			"submission_status": d.SubmissionStatus,
			"period_end_date":   end,
			"payment_date":      paymentDate,
		})
		timeline = append(timeline, map[string]any{
			"month":             monthName,
			"submission_status": d.SubmissionStatus,
			"submission_date":   submissionDate,
			"payment_status":    d.PaymentStatus,
			"payment_date":      paymentDate,
			"total_liability":   money(d.totalLiability()),
		})
		if d.PaymentStatus != "paid" {
			outstanding += d.totalLiability()
			if emp201DueDate(d.Month, d.Year) < today {
				overdue++
			} else {
				pendingCount++
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"emp201Stats": stats,
		"outstanding": map[string]any{
			"total_outstanding": money(outstanding),
			"overdue_count":     overdue,
			"pending_count":     pendingCount,
		},
		"submissionTimeline": timeline,
	})
}

func (s *Server) handleAnalyticsHRInsights(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type headAgg struct{ total, active int }
	byDept := map[string]*headAgg{}
	ageGroups := map[string]int{}
	var salaries []float64
	for _, e := range s.employees {
		d := byDept[e.Department]
		if d == nil {
			d = &headAgg{}
			byDept[e.Department] = d
		}
		d.total++
		if e.IsActive {
			d.active++
			salaries = append(salaries, e.Salary)
		}
		if e.Age != nil {
			switch age := *e.Age; {
			case age < 25:
				ageGroups["Under 25"]++
			case age < 35:
				ageGroups["25-34"]++
			case age < 45:
				ageGroups["35-44"]++
			case age < 55:
				ageGroups["45-54"]++
			default:
				ageGroups["55+"]++
			}
		}
	}

	headcount := []map[string]any{}
	for _, name := range sortedKeys(byDept) {
		d := byDept[name]
		headcount = append(headcount, map[string]any{
			"department":   name,
			"count":        d.total,
			"active_count": d.active,
		})
	}

	ages := []map[string]any{}
	for _, group := range sortedKeys(ageGroups) {
		ages = append(ages, map[string]any{
			"age_group": group,
			"count":     ageGroups[group],
		})
	}

	stats := map[string]any{
		"avg_salary":    money(0),
		"min_salary":    money(0),
		"max_salary":    money(0),
		"median_salary": money(0),
	}
	if len(salaries) > 0 {
		sort.Float64s(salaries)
		var sum float64
		for _, v := range salaries {
			sum += v
		}
		median := salaries[len(salaries)/2]
		if len(salaries)%2 == 0 {
			median = (salaries[len(salaries)/2-1] + salaries[len(salaries)/2]) / 2
		}
		stats = map[string]any{
			"avg_salary":    money(sum / float64(len(salaries))),
			"min_salary":    money(salaries[0]),
			"max_salary":    money(salaries[len(salaries)-1]),
			"median_salary": money(median),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"headcount":          headcount,
		"genderDistribution": []map[string]any{},
		"ageDistribution":    ages,
		"salaryStats":        stats,
	})
}

func (s *Server) handleAnalyticsExport(w http.ResponseWriter, r *http.Request) {
	reportType := r.URL.Query().Get("reportType")
	year := queryInt(r, "year", s.now().Year())
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if reportType == "" {
		writeErr(w, http.StatusBadRequest, "reportType is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := [][]string{}
	switch reportType {
	case "payroll":
		rows = append(rows, []string{"Month", "Employees", "Gross", "Net", "Tax"})
		for month := 1; month <= 12; month++ {
			records := s.settledRecords(month, year)
			if len(records) == 0 {
				continue
			}
			var gross, net, tax float64
			for _, p := range records {
				gross += p.gross()
				net += p.net()
				tax += p.Tax
			}
			rows = append(rows, []string{
				time.Month(month).String(),
				fmt.Sprintf("%d", len(records)),
				money(gross), money(net), money(tax),
			})
		}
	case "employees":
		rows = append(rows, []string{"Name", "Email", "Department", "Position", "Salary", "Active"})
		for _, e := range s.sortedEmployees() {
			rows = append(rows, []string{
				e.FirstName + " " + e.LastName, e.Email, e.Department, e.Position,
				money(e.Salary), fmt.Sprintf("%t", e.IsActive),
			})
		}
	default:
		writeErr(w, http.StatusBadRequest, "Unknown report type")
		return
	}
	writeCSV(w, fmt.Sprintf("%s-%d.%s", reportType, year, format), rows)
}
