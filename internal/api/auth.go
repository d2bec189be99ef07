package api

import "context"

type LoginResponse struct {
	Token string `json:"token"`
}

type Profile struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID *int   `json:"company_id"`
}

// Login exchanges credentials for a bearer token. It does not store the
// token; the session store owns that.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	err := c.postJSON(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

// Me fetches the authenticated user's profile. A 401 here is the canonical
// signal that the stored token is no longer valid.
func (c *Client) Me(ctx context.Context) (Profile, error) {
	var out Profile
	err := c.getJSON(ctx, "/me", nil, &out)
	return out, err
}
