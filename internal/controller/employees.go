package controller

import (
	"context"
	"sort"
	"strings"

	"hrconsole/internal/api"
)

const (
	EmployeesTabList   = "list"
	EmployeesTabDetail = "detail"
	EmployeesTabAdd    = "add"
	EmployeesTabEdit   = "edit"
	EmployeesTabSalary = "salary"
)

// Employees is the full employee admin page. Unlike the dashboard's quick
// search, its filters are server-side: changing one refetches the list.
type Employees struct {
	app *App

	Tab string

	List    []api.Employee
	Cursor  PageCursor
	Loading bool
	Error   string
	listSl  slot

	Search     string
	Department string
	Position   string
	ActiveOnly bool

	Detail        *api.Employee
	DetailLoading bool
	DetailError   string
	detailSl      slot

	History        []api.SalaryAudit
	HistoryLoading bool
	HistoryError   string
	historySl      slot

	Draft     api.EmployeeDraft
	FormError string
	Saving    bool

	SalaryInput float64

	ConfirmDeleteID int

	Flash flash
}

func newEmployees(app *App) *Employees {
	c := &Employees{app: app, Tab: EmployeesTabList, ActiveOnly: true}
	c.Cursor = PageCursor{Page: 1, Limit: 10}
	c.fetchList()
	return c
}

func (c *Employees) Route() Route { return RouteEmployees }
func (c *Employees) Teardown()    {}

func (c *Employees) fetchList() {
	c.Loading = true
	app := c.app
	filter := api.EmployeeFilter{
		Page:       c.Cursor.Page,
		Limit:      c.Cursor.Limit,
		Active:     c.ActiveOnly,
		Search:     strings.TrimSpace(c.Search),
		Department: c.Department,
		Position:   c.Position,
	}
	fetch(app, &c.listSl, func(ctx context.Context) (api.EmployeePage, error) {
		return app.Client.ListEmployees(ctx, filter)
	}, func(res api.EmployeePage, err error) {
		c.Loading = false
		if err != nil {
			c.Error = api.Message(err, "Could not load employees")
			return
		}
		c.Error = ""
		c.List = res.Data
		c.Cursor.Apply(res.Page, res.Limit, res.Total, res.TotalPages)
	})
}

// ApplyFilters resets to the first page and refetches with the current
// filter fields.
func (c *Employees) ApplyFilters() {
	c.Cursor.Page = 1
	c.fetchList()
}

func (c *Employees) PrevPage() {
	if c.Cursor.Prev() {
		c.fetchList()
	}
}

func (c *Employees) NextPage() {
	if c.Cursor.Next() {
		c.fetchList()
	}
}

// Departments derives the filter dropdown options from the loaded page.
func (c *Employees) Departments() []string {
	return c.distinct(func(e api.Employee) string { return e.Department })
}

// Positions derives the position dropdown options from the loaded page.
func (c *Employees) Positions() []string {
	return c.distinct(func(e api.Employee) string { return e.Position })
}

func (c *Employees) distinct(key func(api.Employee) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range c.List {
		k := key(e)
		if k != "" && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// OpenDetail switches to the detail tab and loads the employee fresh.
func (c *Employees) OpenDetail(id int) {
	c.Tab = EmployeesTabDetail
	c.Detail = nil
	c.DetailLoading = true
	c.DetailError = ""
	app := c.app
	fetch(app, &c.detailSl, func(ctx context.Context) (api.Employee, error) {
		return app.Client.GetEmployee(ctx, id)
	}, func(emp api.Employee, err error) {
		c.DetailLoading = false
		if err != nil {
			c.DetailError = api.Message(err, "Could not load employee")
			return
		}
		c.Detail = &emp
	})
}

func (c *Employees) OpenAdd() {
	c.Tab = EmployeesTabAdd
	c.Draft = api.EmployeeDraft{}
	c.FormError = ""
}

func (c *Employees) OpenEdit(e api.Employee) {
	c.Tab = EmployeesTabEdit
	c.Detail = &e
	c.Draft = draftFrom(e)
	c.FormError = ""
}

// OpenSalary switches to the salary tab and lazily loads the audit trail.
func (c *Employees) OpenSalary(e api.Employee) {
	c.Tab = EmployeesTabSalary
	c.Detail = &e
	c.SalaryInput = e.Salary
	c.FormError = ""
	c.fetchHistory(e.ID)
}

func (c *Employees) fetchHistory(id int) {
	c.HistoryLoading = true
	c.HistoryError = ""
	app := c.app
	fetch(app, &c.historySl, func(ctx context.Context) ([]api.SalaryAudit, error) {
		return app.Client.SalaryHistory(ctx, id)
	}, func(rows []api.SalaryAudit, err error) {
		c.HistoryLoading = false
		if err != nil {
			c.HistoryError = api.Message(err, "Could not load salary history")
			return
		}
		c.History = rows
	})
}

func (c *Employees) BackToList() { c.Tab = EmployeesTabList }

func (c *Employees) Save() {
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
	if c.Tab == EmployeesTabEdit && c.Detail != nil {
		id := c.Detail.ID
		mutate(app, func(ctx context.Context) (api.Employee, error) {
			return app.Client.UpdateEmployee(ctx, id, draft)
		}, c.afterWrite("Employee updated"))
		return
	}
	mutate(app, func(ctx context.Context) (api.Employee, error) {
		return app.Client.CreateEmployee(ctx, draft)
	}, c.afterWrite("Employee created"))
}

func (c *Employees) afterWrite(message string) func(api.Employee, error) {
	return func(_ api.Employee, err error) {
		c.Saving = false
		if err != nil {
			c.FormError = api.Message(err, "Could not save employee")
			return
		}
		c.Tab = EmployeesTabList
		c.Flash.Set(c.app, message)
		c.fetchList()
	}
}

// SaveSalary patches the salary and refetches both the list and the audit
// trail the write just extended.
func (c *Employees) SaveSalary() {
	if c.Saving || c.Detail == nil {
		return
	}
	if c.SalaryInput < 0 {
		c.FormError = "Salary cannot be negative"
		return
	}
	c.Saving = true
	c.FormError = ""
	app := c.app
	id := c.Detail.ID
	salary := c.SalaryInput
	mutate(app, func(ctx context.Context) (api.Employee, error) {
		return app.Client.UpdateSalary(ctx, id, salary)
	}, func(emp api.Employee, err error) {
		c.Saving = false
		if err != nil {
			c.FormError = api.Message(err, "Could not update salary")
			return
		}
		c.Detail = &emp
		c.Flash.Set(app, "Salary updated")
		c.fetchList()
		c.fetchHistory(id)
	})
}

func (c *Employees) RequestDelete(id int) { c.ConfirmDeleteID = id }
func (c *Employees) CancelDelete()        { c.ConfirmDeleteID = 0 }

func (c *Employees) ConfirmDelete() {
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
		c.fetchList()
	})
}

func (c *Employees) Restore(id int) {
	app := c.app
	mutate(app, func(ctx context.Context) (api.Employee, error) {
		return app.Client.RestoreEmployee(ctx, id)
	}, func(_ api.Employee, err error) {
		if err != nil {
			c.Error = api.Message(err, "Could not restore employee")
			return
		}
		c.Flash.Set(app, "Employee restored")
		c.fetchList()
	})
}
