// Package controller holds the page controllers behind the console routes.
// A controller owns the state for one page: the server-backed slices, their
// loading flags and error messages, plus UI-only state such as the active
// tab, form drafts and pagination cursors. All of it is touched only from
// run-loop tasks; fetches go off-loop and post their continuation back.
package controller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hrconsole/internal/api"
	"hrconsole/internal/runloop"
	"hrconsole/internal/session"
)

type Route string

const (
	RouteLogin      Route = "login"
	RouteDashboard  Route = "dashboard"
	RouteEmployees  Route = "employees"
	RouteAttendance Route = "attendance"
	RouteLeave      Route = "leave"
	RoutePayroll    Route = "payroll"
	RouteEMP201     Route = "emp201"
	RouteUI19       Route = "ui19"
	RouteIRP5       Route = "irp5"
	RouteAnalytics  Route = "analytics"
)

// Routes lists every route in display order.
var Routes = []Route{
	RouteLogin, RouteDashboard, RouteEmployees, RouteAttendance, RouteLeave,
	RoutePayroll, RouteEMP201, RouteUI19, RouteIRP5, RouteAnalytics,
}

// Controller is one active page. Teardown stops timers; it never cancels
// in-flight requests, their completions are discarded by supersession or by
// landing on a controller nothing renders anymore.
type Controller interface {
	Route() Route
	Teardown()
}

// App wires the run loop, the API client and the session store together and
// owns navigation. Navigate and every controller method must be called from
// the loop goroutine.
type App struct {
	Loop    *runloop.Loop
	Client  *api.Client
	Session *session.Store

	// DownloadDir receives payslips and CSV/XLSX exports. Empty means the
	// current directory.
	DownloadDir string

	active  Controller
	changed func(Route)
}

func NewApp(loop *runloop.Loop, client *api.Client, store *session.Store) *App {
	return &App{Loop: loop, Client: client, Session: store}
}

// OnRouteChange registers the renderer's hook. It fires after the new
// controller has issued its initial fetches.
func (a *App) OnRouteChange(fn func(Route)) { a.changed = fn }

// Active returns the current page controller, nil before the first Navigate.
func (a *App) Active() Controller { return a.active }

// Navigate activates route, constructing its controller and tearing down the
// previous one. Guarded routes require a token; without one the navigation
// lands on login instead. Role checks stay server-side: the worst an
// unauthorized navigation can do is render a page whose fetches 403.
func (a *App) Navigate(route Route) {
	if route != RouteLogin && !a.Session.IsAuthenticated() {
		route = RouteLogin
	}
	if a.active != nil {
		a.active.Teardown()
	}
	a.active = a.construct(route)
	if a.changed != nil {
		a.changed(route)
	}
}

func (a *App) construct(route Route) Controller {
	switch route {
	case RouteDashboard:
		return newDashboard(a)
	case RouteEmployees:
		return newEmployees(a)
	case RouteAttendance:
		return newAttendance(a)
	case RouteLeave:
		return newLeave(a)
	case RoutePayroll:
		return newPayroll(a)
	case RouteEMP201:
		return newEMP201(a)
	case RouteUI19:
		return newUI19(a)
	case RouteIRP5:
		return newIRP5(a)
	case RouteAnalytics:
		return newAnalytics(a)
	default:
		return newLogin(a)
	}
}

// Logout clears the session and returns to the login page.
func (a *App) Logout() {
	a.Session.Clear()
	a.Navigate(RouteLogin)
}

// handleProfileError centralizes the one place a 401 redirects: the profile
// fetch. Everywhere else an expired token surfaces as an inline error.
func (a *App) handleProfileError(err error) bool {
	if api.IsUnauthorized(err) {
		a.Session.Clear()
		a.Navigate(RouteLogin)
		return true
	}
	return false
}

// fetch issues call off the loop and applies the result back on it. Each
// state slice owns a slot; a completion is dropped when the slice has issued
// a newer request since, so out-of-order responses resolve to the latest
// request rather than the last arrival.
func fetch[T any](a *App, s *slot, call func(context.Context) (T, error), apply func(T, error)) {
	seq := s.next()
	go func() {
		v, err := call(context.Background())
		a.Loop.Post(func() {
			if !s.latest(seq) {
				return
			}
			apply(v, err)
		})
	}()
}

// mutate issues a write call off the loop. Writes are never superseded;
// every completion applies.
func mutate[T any](a *App, call func(context.Context) (T, error), apply func(T, error)) {
	go func() {
		v, err := call(context.Background())
		a.Loop.Post(func() { apply(v, err) })
	}()
}

// saveBlob writes a downloaded export under DownloadDir and returns the
// final path.
func (a *App) saveBlob(blob api.Blob) (string, error) {
	dir := a.DownloadDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("save %s: %w", blob.Filename, err)
	}
	path := filepath.Join(dir, blob.Filename)
	if err := os.WriteFile(path, blob.Data, 0o644); err != nil {
		return "", fmt.Errorf("save %s: %w", blob.Filename, err)
	}
	return path, nil
}

// slot tracks the newest issued request sequence for one state slice.
type slot struct{ seq uint64 }

func (s *slot) next() uint64         { s.seq++; return s.seq }
func (s *slot) latest(n uint64) bool { return n == s.seq }

// flash holds a transient status message. Set schedules an automatic clear;
// a newer Set cancels the pending clear by superseding it.
type flash struct {
	Message string
	seq     uint64
}

var flashDuration = 3 * time.Second

func (f *flash) Set(a *App, message string) {
	f.Message = message
	f.seq++
	seq := f.seq
	go func() {
		time.Sleep(flashDuration)
		a.Loop.Post(func() {
			if f.seq == seq {
				f.Message = ""
			}
		})
	}()
}

// PageCursor mirrors the server's pagination meta. Apply overwrites every
// field from the response; Prev and Next refuse to leave [1, TotalPages].
type PageCursor struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

func (p *PageCursor) Apply(page, limit, total, totalPages int) {
	// An empty result reports totalPages=0; floor at 1 so Next stays put.
	if totalPages < 1 {
		totalPages = 1
	}
	p.Page, p.Limit, p.Total, p.TotalPages = page, limit, total, totalPages
}

func (p *PageCursor) Prev() bool {
	if p.Page <= 1 {
		return false
	}
	p.Page--
	return true
}

func (p *PageCursor) Next() bool {
	last := p.TotalPages
	if last < 1 {
		last = 1
	}
	if p.Page >= last {
		return false
	}
	p.Page++
	return true
}
