package controller

import (
	"context"
	"strconv"
	"strings"

	"hrconsole/internal/api"
)

// Dashboard is the landing page: the signed-in profile plus a paginated
// employee list with a quick client-side search and the employee CRUD
// modals.
type Dashboard struct {
	app *App

	Profile        *api.Profile
	ProfileLoading bool

	Employees  []api.Employee
	Cursor     PageCursor
	Loading    bool
	Error      string
	employeeSl slot

	// Search filters the loaded page locally; it never refetches.
	Search string

	// Modal state. Mode is "", "view", "create", "edit" or "salary".
	Mode      string
	Selected  *api.Employee
	Draft     api.EmployeeDraft
	FormError string
	Saving    bool

	ConfirmDeleteID int

	Flash flash
}

func newDashboard(app *App) *Dashboard {
	c := &Dashboard{app: app}
	c.Cursor = PageCursor{Page: 1, Limit: 10}
	c.fetchProfile()
	c.fetchEmployees()
	return c
}

func (c *Dashboard) Route() Route { return RouteDashboard }
func (c *Dashboard) Teardown()    {}

func (c *Dashboard) fetchProfile() {
	c.ProfileLoading = true
	app := c.app
	mutate(app, func(ctx context.Context) (api.Profile, error) {
		return app.Client.Me(ctx)
	}, func(p api.Profile, err error) {
		c.ProfileLoading = false
		if err != nil {
			app.handleProfileError(err)
			return
		}
		app.Session.SetProfile(p)
		c.Profile = &p
	})
}

func (c *Dashboard) fetchEmployees() {
	c.Loading = true
	app := c.app
	page, limit := c.Cursor.Page, c.Cursor.Limit
	fetch(app, &c.employeeSl, func(ctx context.Context) (api.EmployeePage, error) {
		return app.Client.ListEmployees(ctx, api.EmployeeFilter{Page: page, Limit: limit})
	}, func(res api.EmployeePage, err error) {
		c.Loading = false
		if err != nil {
			c.Error = api.Message(err, "Could not load employees")
			return
		}
		c.Error = ""
		c.Employees = res.Data
		c.Cursor.Apply(res.Page, res.Limit, res.Total, res.TotalPages)
	})
}

func (c *Dashboard) Refresh() { c.fetchEmployees() }

func (c *Dashboard) PrevPage() {
	if c.Cursor.Prev() {
		c.fetchEmployees()
	}
}

func (c *Dashboard) NextPage() {
	if c.Cursor.Next() {
		c.fetchEmployees()
	}
}

// Visible returns the loaded page narrowed by the search box. Matching is
// case-insensitive across id, name, email, department and position.
func (c *Dashboard) Visible() []api.Employee {
	q := strings.ToLower(strings.TrimSpace(c.Search))
	if q == "" {
		return c.Employees
	}
	var out []api.Employee
	for _, e := range c.Employees {
		hay := strings.ToLower(strings.Join([]string{
			strconv.Itoa(e.ID), e.FirstName, e.LastName, e.Email, e.Department, e.Position,
		}, " "))
		if strings.Contains(hay, q) {
			out = append(out, e)
		}
	}
	return out
}

func (c *Dashboard) OpenView(e api.Employee) {
	c.Mode = "view"
	c.Selected = &e
}

func (c *Dashboard) OpenCreate() {
	c.Mode = "create"
	c.Selected = nil
	c.Draft = api.EmployeeDraft{}
	c.FormError = ""
}

func (c *Dashboard) OpenEdit(e api.Employee) {
	c.Mode = "edit"
	c.Selected = &e
	c.Draft = draftFrom(e)
	c.FormError = ""
}

func (c *Dashboard) OpenSalary(e api.Employee) {
	c.Mode = "salary"
	c.Selected = &e
	c.Draft = draftFrom(e)
	c.FormError = ""
}

func (c *Dashboard) CloseModal() {
	c.Mode = ""
	c.Selected = nil
	c.FormError = ""
}

func draftFrom(e api.Employee) api.EmployeeDraft {
	return api.EmployeeDraft{
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		Department: e.Department,
		Position:   e.Position,
		Salary:     e.Salary,
		Age:        e.Age,
	}
}

// validateDraft checks shape only. Anything stricter is the server's call
// and comes back as an error message.
func validateDraft(d api.EmployeeDraft) string {
	switch {
	case strings.TrimSpace(d.FirstName) == "" || strings.TrimSpace(d.LastName) == "":
		return "First and last name are required"
	case !strings.Contains(d.Email, "@"):
		return "Enter a valid email address"
	case d.Salary < 0:
		return "Salary cannot be negative"
	}
	return ""
}

func (c *Dashboard) SaveDraft() {
	if c.Saving {
		return
	}
	if msg := validateDraft(c.Draft); msg != "" {
		c.FormError = msg
		return
	}
	c.Saving = true
	c.FormError = ""
	app := c.app
	draft := c.Draft
	if c.Mode == "edit" && c.Selected != nil {
		id := c.Selected.ID
		mutate(app, func(ctx context.Context) (api.Employee, error) {
			return app.Client.UpdateEmployee(ctx, id, draft)
		}, c.afterSave("Employee updated"))
		return
	}
	mutate(app, func(ctx context.Context) (api.Employee, error) {
		return app.Client.CreateEmployee(ctx, draft)
	}, c.afterSave("Employee created"))
}

func (c *Dashboard) afterSave(message string) func(api.Employee, error) {
	return func(_ api.Employee, err error) {
		c.Saving = false
		if err != nil {
			c.FormError = api.Message(err, "Could not save employee")
			return
		}
		c.CloseModal()
		c.Flash.Set(c.app, message)
		c.fetchEmployees()
	}
}

// UpdateSalary applies the salary modal. The server records the audit row.
func (c *Dashboard) UpdateSalary(salary float64) {
	if c.Saving || c.Selected == nil {
		return
	}
	if salary < 0 {
		c.FormError = "Salary cannot be negative"
		return
	}
	c.Saving = true
	app := c.app
	id := c.Selected.ID
	mutate(app, func(ctx context.Context) (api.Employee, error) {
		return app.Client.UpdateSalary(ctx, id, salary)
	}, c.afterSave("Salary updated"))
}

func (c *Dashboard) RequestDelete(id int) { c.ConfirmDeleteID = id }
func (c *Dashboard) CancelDelete()        { c.ConfirmDeleteID = 0 }

func (c *Dashboard) ConfirmDelete() {
	id := c.ConfirmDeleteID
	if id == 0 {
		return
	}
	c.ConfirmDeleteID = 0
	app := c.app
	mutate(app, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, app.Client.DeleteEmployee(ctx, id)
	}, func(_ struct{}, err error) {
		if err != nil {
			c.Error = api.Message(err, "Could not deactivate employee")
			return
		}
		c.Flash.Set(app, "Employee deactivated")
		c.fetchEmployees()
	})
}

func (c *Dashboard) Restore(id int) {
	app := c.app
	mutate(app, func(ctx context.Context) (api.Employee, error) {
		return app.Client.RestoreEmployee(ctx, id)
	}, func(_ api.Employee, err error) {
		if err != nil {
			c.Error = api.Message(err, "Could not restore employee")
			return
		}
		c.Flash.Set(app, "Employee restored")
		c.fetchEmployees()
	})
}
