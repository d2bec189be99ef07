package stub

import (
	"net/http"
	"sort"
	"strings"
	"time"
)

func businessDays(start, end time.Time) float64 {
	days := 0.0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days++
		}
	}
	return days
}

func (s *Server) leaveTypeByID(id int) *leaveType {
	for i := range s.leaveTypes {
		if s.leaveTypes[i].ID == id {
			return &s.leaveTypes[i]
		}
	}
	return nil
}

func (s *Server) leaveRequestJSON(req *leaveRequest) map[string]any {
	out := map[string]any{
		"id":             req.ID,
		"employee_id":    req.EmployeeID,
		"leave_type_id":  req.LeaveTypeID,
		"start_date":     req.StartDate,
		"end_date":       req.EndDate,
		"days_requested": req.Days,
		"reason":         req.Reason,
		"status":         req.Status,
		"created_at":     req.CreatedAt.Format(time.RFC3339),
		"updated_at":     req.CreatedAt.Format(time.RFC3339),
	}
	if lt := s.leaveTypeByID(req.LeaveTypeID); lt != nil {
		out["leave_type"] = lt.Name
	}
	if emp := s.employees[req.EmployeeID]; emp != nil {
		out["first_name"] = emp.FirstName
		out["last_name"] = emp.LastName
		out["email"] = emp.Email
	}
	if req.ReviewedBy != nil {
		out["reviewed_by"] = *req.ReviewedBy
		if reviewer := s.users[*req.ReviewedBy]; reviewer != nil {
			out["reviewed_by_name"] = reviewer.Name
		}
	}
	if req.ReviewedAt != nil {
		out["reviewed_at"] = req.ReviewedAt.Format(time.RFC3339)
	}
	if req.ReviewNotes != "" {
		out["review_notes"] = req.ReviewNotes
	}
	return out
}

func (s *Server) handleLeaveTypes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, lt := range s.leaveTypes {
		out = append(out, map[string]any{
			"id":                    lt.ID,
			"name":                  lt.Name,
			"description":           lt.Description,
			"default_days_per_year": lt.DefaultDays,
			"is_paid":               lt.IsPaid,
			"requires_approval":     lt.RequiresApproval,
			"is_active":             true,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLeaveBalances(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	year := queryInt(r, "year", s.now().Year())
	yearPrefix := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006")

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []map[string]any{}
	for _, lt := range s.leaveTypes {
		var used, pending float64
		for _, req := range s.leaves {
			if req.EmployeeID != u.EmployeeID || req.LeaveTypeID != lt.ID {
				continue
			}
			if !strings.HasPrefix(req.StartDate, yearPrefix) {
				continue
			}
			switch req.Status {
			case "approved":
				used += req.Days
			case "pending":
				pending += req.Days
			}
		}
		total := float64(lt.DefaultDays)
		out = append(out, map[string]any{
			"id":             lt.ID,
			"employee_id":    u.EmployeeID,
			"leave_type_id":  lt.ID,
			"leave_type":     lt.Name,
			"is_paid":        lt.IsPaid,
			"year":           year,
			"total_days":     total,
			"used_days":      used,
			"pending_days":   pending,
			"remaining_days": total - used - pending,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) sortedLeaveRequests() []*leaveRequest {
	out := make([]*leaveRequest, 0, len(s.leaves))
	for _, req := range s.leaves {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) handleMyLeaveRequests(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	status := r.URL.Query().Get("status")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, req := range s.sortedLeaveRequests() {
		if req.EmployeeID != u.EmployeeID {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, s.leaveRequestJSON(req))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAllLeaveRequests(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	if u.Role != "admin" && u.Role != "manager" {
		writeErr(w, http.StatusForbidden, "Admin access required")
		return
	}
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	status := r.URL.Query().Get("status")

	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*leaveRequest
	for _, req := range s.sortedLeaveRequests() {
		if status != "" && req.Status != status {
			continue
		}
		matched = append(matched, req)
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
	for _, req := range matched[start:end] {
		data = append(data, s.leaveRequestJSON(req))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": totalPages,
		"data":       data,
	})
}

func (s *Server) handleCreateLeaveRequest(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	var body struct {
		LeaveTypeID int    `json:"leave_type_id"`
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
		Reason      string `json:"reason"`
	}
	if !readBody(w, r, &body) {
		return
	}
	start, err := time.Parse("2006-01-02", body.StartDate)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid start date")
		return
	}
	end, err := time.Parse("2006-01-02", body.EndDate)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid end date")
		return
	}
	if end.Before(start) {
		writeErr(w, http.StatusBadRequest, "End date must not be before start date")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	lt := s.leaveTypeByID(body.LeaveTypeID)
	if lt == nil {
		writeErr(w, http.StatusBadRequest, "Unknown leave type")
		return
	}

	status := "pending"
	if !lt.RequiresApproval {
		status = "approved"
	}
	req := &leaveRequest{
		ID:          s.id(),
		EmployeeID:  u.EmployeeID,
		LeaveTypeID: body.LeaveTypeID,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
		Days:        businessDays(start, end),
		Reason:      body.Reason,
		Status:      status,
		CreatedAt:   s.now(),
	}
	s.leaves[req.ID] = req
	writeJSON(w, http.StatusCreated, s.leaveRequestJSON(req))
}

func (s *Server) handleCancelLeave(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	id, ok := urlID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	req := s.leaves[id]
	if req == nil {
		writeErr(w, http.StatusNotFound, "Leave request not found")
		return
	}
	if req.EmployeeID != u.EmployeeID && u.Role != "admin" {
		writeErr(w, http.StatusForbidden, "You can only cancel your own requests")
		return
	}
	if req.Status != "pending" {
		writeErr(w, http.StatusConflict, "Only pending requests can be cancelled")
		return
	}
	req.Status = "cancelled"
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) leaveDecisionHandler(decision string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := userFrom(r.Context())
		if u.Role != "admin" && u.Role != "manager" {
			writeErr(w, http.StatusForbidden, "Admin access required")
			return
		}
		id, ok := urlID(r)
		if !ok {
			writeErr(w, http.StatusBadRequest, "Invalid request id")
			return
		}
		var body struct {
			Notes string `json:"notes"`
		}
		_ = readBodyOptional(r, &body)

		s.mu.Lock()
		defer s.mu.Unlock()
		req := s.leaves[id]
		if req == nil {
			writeErr(w, http.StatusNotFound, "Leave request not found")
			return
		}
		if req.Status != "pending" {
			writeErr(w, http.StatusConflict, "Request has already been reviewed")
			return
		}
		now := s.now()
		req.Status = decision
		req.ReviewedBy = &u.ID
		req.ReviewedAt = &now
		req.ReviewNotes = body.Notes
		w.WriteHeader(http.StatusNoContent)
	}
}
