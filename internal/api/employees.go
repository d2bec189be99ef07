package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

type Employee struct {
	ID         int     `json:"id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Department string  `json:"department"`
	Position   string  `json:"position"`
	Salary     float64 `json:"salary"`
	Age        *int    `json:"age"`
	IsActive   bool    `json:"is_active"`
	CreatedAt  string  `json:"created_at"`
	CompanyID  int     `json:"company_id"`
}

type EmployeePage struct {
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Total      int        `json:"total"`
	TotalPages int        `json:"totalPages"`
	Data       []Employee `json:"data"`
}

type EmployeeFilter struct {
	Page       int
	Limit      int
	Active     bool
	Search     string
	Department string
	Position   string
}

type EmployeeDraft struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Department string  `json:"department"`
	Position   string  `json:"position"`
	Salary     float64 `json:"salary"`
	Age        *int    `json:"age,omitempty"`
}

type SalaryAudit struct {
	ID         int     `json:"id"`
	EmployeeID int     `json:"employee_id"`
	OldSalary  float64 `json:"old_salary"`
	NewSalary  float64 `json:"new_salary"`
	ChangedAt  string  `json:"changed_at"`
}

func (c *Client) ListEmployees(ctx context.Context, filter EmployeeFilter) (EmployeePage, error) {
	query := url.Values{}
	query.Set("page", itoa(filter.Page))
	query.Set("limit", itoa(filter.Limit))
	query.Set("active", strconv.FormatBool(filter.Active))
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	if filter.Department != "" {
		query.Set("department", filter.Department)
	}
	if filter.Position != "" {
		query.Set("position", filter.Position)
	}
	var page EmployeePage
	err := c.getJSON(ctx, "/employees", query, &page)
	return page, err
}

func (c *Client) GetEmployee(ctx context.Context, id int) (Employee, error) {
	var emp Employee
	err := c.getJSON(ctx, "/employees/"+itoa(id), nil, &emp)
	return emp, err
}

func (c *Client) CreateEmployee(ctx context.Context, draft EmployeeDraft) (Employee, error) {
	var emp Employee
	err := c.postJSON(ctx, "/employees", draft, &emp)
	return emp, err
}

func (c *Client) UpdateEmployee(ctx context.Context, id int, draft EmployeeDraft) (Employee, error) {
	var emp Employee
	err := c.putJSON(ctx, "/employees/"+itoa(id), draft, &emp)
	return emp, err
}

// DeleteEmployee deactivates; the server keeps the record for restore.
func (c *Client) DeleteEmployee(ctx context.Context, id int) error {
	return c.delete(ctx, "/employees/"+itoa(id))
}

func (c *Client) RestoreEmployee(ctx context.Context, id int) (Employee, error) {
	var emp Employee
	err := c.patchJSON(ctx, "/employees/"+itoa(id)+"/restore", struct{}{}, &emp)
	return emp, err
}

func (c *Client) UpdateSalary(ctx context.Context, id int, salary float64) (Employee, error) {
	var emp Employee
	err := c.patchJSON(ctx, "/employees/"+itoa(id)+"/salary", map[string]float64{"salary": salary}, &emp)
	return emp, err
}

func (c *Client) SalaryHistory(ctx context.Context, id int) ([]SalaryAudit, error) {
	// The endpoint has been seen returning both a bare array and a
	// {data: [...]} wrapper; accept either.
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/employees/"+itoa(id)+"/salary-history", nil, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '{' {
		var wrapped struct {
			Data []SalaryAudit `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("api: decode salary history: %w", err)
		}
		return wrapped.Data, nil
	}
	var audits []SalaryAudit
	if err := json.Unmarshal(trimmed, &audits); err != nil {
		return nil, fmt.Errorf("api: decode salary history: %w", err)
	}
	return audits, nil
}
