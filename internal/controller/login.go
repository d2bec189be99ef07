package controller

import (
	"context"
	"strings"

	"hrconsole/internal/api"
	"hrconsole/internal/session"
)

type Login struct {
	app *App

	Email    string
	Password string

	Submitting bool
	Error      string
}

func newLogin(app *App) *Login {
	return &Login{app: app}
}

func (c *Login) Route() Route { return RouteLogin }
func (c *Login) Teardown()    {}

// Submit validates the draft shape and exchanges it for a session. Invalid
// credentials surface the server's wording verbatim.
func (c *Login) Submit() {
	if c.Submitting {
		return
	}
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" || c.Password == "" {
		c.Error = "Email and password are required"
		return
	}
	if !strings.Contains(c.Email, "@") {
		c.Error = "Enter a valid email address"
		return
	}
	c.Submitting = true
	c.Error = ""
	app := c.app
	email, password := c.Email, c.Password
	mutate(app, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, session.Login(ctx, app.Client, app.Session, email, password)
	}, func(_ struct{}, err error) {
		c.Submitting = false
		if err != nil {
			c.Error = api.Message(err, "Login failed")
			return
		}
		app.Navigate(RouteDashboard)
	})
}
