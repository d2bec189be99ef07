package stub

import (
	"net/http"
	"sort"
	"strings"
	"time"
)

func employeeJSON(e *employee) map[string]any {
	return map[string]any{
		"id":         e.ID,
		"first_name": e.FirstName,
		"last_name":  e.LastName,
		"email":      e.Email,
		"department": e.Department,
		"position":   e.Position,
		"salary":     e.Salary,
		"age":        e.Age,
		"is_active":  e.IsActive,
		"created_at": e.CreatedAt.Format(time.RFC3339),
		"company_id": e.CompanyID,
	}
}

func (s *Server) sortedEmployees() []*employee {
	out := make([]*employee, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	active := q.Get("active") != "false"
	search := strings.ToLower(q.Get("search"))
	department := q.Get("department")
	position := q.Get("position")

	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []*employee
	for _, e := range s.sortedEmployees() {
		if e.IsActive != active {
			continue
		}
		if department != "" && e.Department != department {
			continue
		}
		if position != "" && e.Position != position {
			continue
		}
		if search != "" {
			hay := strings.ToLower(e.FirstName + " " + e.LastName + " " + e.Email)
			if !strings.Contains(hay, search) {
				continue
			}
		}
		matched = append(matched, e)
	}

	total := len(matched)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	data := make([]map[string]any, 0, end-start)
	for _, e := range matched[start:end] {
		data = append(data, employeeJSON(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": totalPages,
		"data":       data,
	})
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "Invalid employee id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.employees[id]
	if e == nil {
		writeErr(w, http.StatusNotFound, "Employee not found")
		return
	}
	writeJSON(w, http.StatusOK, employeeJSON(e))
}

type employeeBody struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Department string  `json:"department"`
	Position   string  `json:"position"`
	Salary     float64 `json:"salary"`
	Age        *int    `json:"age"`
}

func (b employeeBody) validate() string {
	switch {
	case strings.TrimSpace(b.FirstName) == "" || strings.TrimSpace(b.LastName) == "":
		return "First and last name are required"
	case !strings.Contains(b.Email, "@"):
		return "A valid email address is required"
	case b.Salary < 0:
		return "Salary cannot be negative"
	}
	return ""
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var body employeeBody
	if !readBody(w, r, &body) {
		return
	}
	if msg := body.validate(); msg != "" {
		writeErr(w, http.StatusBadRequest, msg)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.employees {
		if strings.EqualFold(e.Email, body.Email) {
			writeErr(w, http.StatusConflict, "An employee with this email already exists")
			return
		}
	}
	e := &employee{
		ID:         s.id(),
		FirstName:  body.FirstName,
		LastName:   body.LastName,
		Email:      body.Email,
		Department: body.Department,
		Position:   body.Position,
		Salary:     body.Salary,
		Age:        body.Age,
		IsActive:   true,
		CreatedAt:  s.now(),
		CompanyID:  userFrom(r.Context()).CompanyID,
	}
	s.employees[e.ID] = e
	writeJSON(w, http.StatusCreated, employeeJSON(e))
}

func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "Invalid employee id")
		return
	}
	var body employeeBody
	if !readBody(w, r, &body) {
		return
	}
	if msg := body.validate(); msg != "" {
		writeErr(w, http.StatusBadRequest, msg)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.employees[id]
	if e == nil {
		writeErr(w, http.StatusNotFound, "Employee not found")
		return
	}
	if body.Salary != e.Salary {
		s.audits = append(s.audits, salaryAudit{
			ID:         s.id(),
			EmployeeID: e.ID,
			OldSalary:  e.Salary,
			NewSalary:  body.Salary,
			ChangedAt:  s.now(),
		})
	}
	e.FirstName = body.FirstName
	e.LastName = body.LastName
	e.Email = body.Email
	e.Department = body.Department
	e.Position = body.Position
	e.Salary = body.Salary
	e.Age = body.Age
	writeJSON(w, http.StatusOK, employeeJSON(e))
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "Invalid employee id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.employees[id]
	if e == nil {
		writeErr(w, http.StatusNotFound, "Employee not found")
		return
	}
	e.IsActive = false
	writeJSON(w, http.StatusOK, map[string]string{"message": "Employee deactivated"})
}

func (s *Server) handleRestoreEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "Invalid employee id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.employees[id]
	if e == nil {
		writeErr(w, http.StatusNotFound, "Employee not found")
		return
	}
	e.IsActive = true
	writeJSON(w, http.StatusOK, employeeJSON(e))
}

func (s *Server) handleUpdateSalary(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "Invalid employee id")
		return
	}
	var body struct {
		Salary float64 `json:"salary"`
	}
	if !readBody(w, r, &body) {
		return
	}
	if body.Salary < 0 {
		writeErr(w, http.StatusBadRequest, "Salary cannot be negative")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.employees[id]
	if e == nil {
		writeErr(w, http.StatusNotFound, "Employee not found")
		return
	}
	s.audits = append(s.audits, salaryAudit{
		ID:         s.id(),
		EmployeeID: e.ID,
		OldSalary:  e.Salary,
		NewSalary:  body.Salary,
		ChangedAt:  s.now(),
	})
	e.Salary = body.Salary
	writeJSON(w, http.StatusOK, employeeJSON(e))
}

func (s *Server) handleSalaryHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "Invalid employee id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for i := len(s.audits) - 1; i >= 0; i-- {
		a := s.audits[i]
		if a.EmployeeID != id {
			continue
		}
		out = append(out, map[string]any{
			"id":          a.ID,
			"employee_id": a.EmployeeID,
			"old_salary":  a.OldSalary,
			"new_salary":  a.NewSalary,
			"changed_at":  a.ChangedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
