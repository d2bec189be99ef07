package api

import (
	"context"
	"net/url"
)

type LeaveType struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	DefaultDaysPerYear int    `json:"default_days_per_year"`
	IsPaid             bool   `json:"is_paid"`
	RequiresApproval   bool   `json:"requires_approval"`
	IsActive           bool   `json:"is_active"`
}

type LeaveBalance struct {
	ID            int     `json:"id"`
	EmployeeID    int     `json:"employee_id"`
	LeaveTypeID   int     `json:"leave_type_id"`
	LeaveType     string  `json:"leave_type"`
	IsPaid        bool    `json:"is_paid"`
	Year          int     `json:"year"`
	TotalDays     float64 `json:"total_days"`
	UsedDays      float64 `json:"used_days"`
	PendingDays   float64 `json:"pending_days"`
	RemainingDays float64 `json:"remaining_days"`
}

type LeaveRequest struct {
	ID             int     `json:"id"`
	EmployeeID     int     `json:"employee_id"`
	FirstName      string  `json:"first_name,omitempty"`
	LastName       string  `json:"last_name,omitempty"`
	Email          string  `json:"email,omitempty"`
	LeaveTypeID    int     `json:"leave_type_id"`
	LeaveType      string  `json:"leave_type"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	DaysRequested  float64 `json:"days_requested"`
	Reason         string  `json:"reason"`
	Status         string  `json:"status"`
	ReviewedBy     *int    `json:"reviewed_by,omitempty"`
	ReviewedByName string  `json:"reviewed_by_name,omitempty"`
	ReviewedAt     string  `json:"reviewed_at,omitempty"`
	ReviewNotes    string  `json:"review_notes,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

type LeaveRequestPage struct {
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int            `json:"total"`
	TotalPages int            `json:"totalPages"`
	Data       []LeaveRequest `json:"data"`
}

type LeaveRequestDraft struct {
	LeaveTypeID int    `json:"leave_type_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Reason      string `json:"reason,omitempty"`
}

func (c *Client) LeaveTypes(ctx context.Context) ([]LeaveType, error) {
	var types []LeaveType
	err := c.getJSON(ctx, "/leave/types", nil, &types)
	return types, err
}

func (c *Client) MyLeaveBalances(ctx context.Context, year int) ([]LeaveBalance, error) {
	query := url.Values{}
	if year > 0 {
		query.Set("year", itoa(year))
	}
	var balances []LeaveBalance
	err := c.getJSON(ctx, "/leave/balances", query, &balances)
	return balances, err
}

func (c *Client) MyLeaveRequests(ctx context.Context, status string) ([]LeaveRequest, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	var requests []LeaveRequest
	err := c.getJSON(ctx, "/leave/requests/my", query, &requests)
	return requests, err
}

// AllLeaveRequests is the approval queue: company-wide, paginated, newest
// first, optionally narrowed to one status.
func (c *Client) AllLeaveRequests(ctx context.Context, page, limit int, status string) (LeaveRequestPage, error) {
	query := url.Values{}
	query.Set("page", itoa(page))
	query.Set("limit", itoa(limit))
	if status != "" {
		query.Set("status", status)
	}
	var out LeaveRequestPage
	err := c.getJSON(ctx, "/leave/requests", query, &out)
	return out, err
}

func (c *Client) CreateLeaveRequest(ctx context.Context, draft LeaveRequestDraft) (LeaveRequest, error) {
	var request LeaveRequest
	err := c.postJSON(ctx, "/leave/requests", draft, &request)
	return request, err
}

// CancelLeaveRequest, ApproveLeaveRequest and RejectLeaveRequest submit
// intents only; the server owns the status machine and may reply with no
// body. The controller re-fetches afterwards.

func (c *Client) CancelLeaveRequest(ctx context.Context, id int) error {
	return c.patchJSON(ctx, "/leave/requests/"+itoa(id)+"/cancel", struct{}{}, nil)
}

func (c *Client) ApproveLeaveRequest(ctx context.Context, id int, notes string) error {
	return c.patchJSON(ctx, "/leave/requests/"+itoa(id)+"/approve", map[string]string{"notes": notes}, nil)
}

func (c *Client) RejectLeaveRequest(ctx context.Context, id int, notes string) error {
	return c.patchJSON(ctx, "/leave/requests/"+itoa(id)+"/reject", map[string]string{"notes": notes}, nil)
}
