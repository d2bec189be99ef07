// Package session keeps the signed-in state for the console: the bearer
// token, the identity claims decoded from it, and the profile fetched after
// login. The token is persisted to a small file so a restart resumes the
// session until the server rejects it.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"hrconsole/internal/api"
)

// Claims is the identity payload carried inside the access token. The token
// is decoded without verification: the server is the only party that checks
// signatures, the client just needs the display fields.
type Claims struct {
	UserID    int    `json:"userId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID *int   `json:"companyId"`
	jwt.RegisteredClaims
}

type Store struct {
	path    string
	token   string
	claims  *Claims
	profile *api.Profile
}

// New builds a store backed by tokenPath. An empty path disables
// persistence, which the tests rely on.
func New(tokenPath string) *Store {
	return &Store{path: tokenPath}
}

// DefaultTokenPath resolves the per-user token file location.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("session: resolve config dir: %w", err)
	}
	return filepath.Join(dir, "hrconsole", "token"), nil
}

// Load restores a persisted token, if any. A missing file is not an error;
// an unreadable token is discarded.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: read token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return nil
	}
	s.SetToken(token)
	return nil
}

// SetToken stores the bearer token and decodes its claims. The claims are
// best effort: a token the client cannot parse still authenticates requests,
// it just renders without a name until the profile arrives.
func (s *Store) SetToken(token string) {
	s.token = token
	s.claims = nil
	s.profile = nil
	if token == "" {
		return
	}
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err == nil {
		s.claims = &claims
	}
	s.persist()
}

// SetProfile records the server-confirmed identity after a /me fetch.
func (s *Store) SetProfile(p api.Profile) {
	s.profile = &p
}

// Clear forgets the session and removes the persisted token.
func (s *Store) Clear() {
	s.token = ""
	s.claims = nil
	s.profile = nil
	if s.path != "" {
		_ = os.Remove(s.path)
	}
}

// Token implements api.TokenSource.
func (s *Store) Token() string { return s.token }

// IsAuthenticated reports whether a token is present. Expiry is not checked
// locally; a stale token surfaces as a 401 on the next request.
func (s *Store) IsAuthenticated() bool { return s.token != "" }

func (s *Store) Claims() *Claims { return s.claims }

func (s *Store) Profile() *api.Profile { return s.profile }

// DisplayName picks the best available identity string: profile name, then
// token email, then a placeholder.
func (s *Store) DisplayName() string {
	if s.profile != nil && strings.TrimSpace(s.profile.Name) != "" {
		return s.profile.Name
	}
	if s.claims != nil && s.claims.Email != "" {
		return s.claims.Email
	}
	return "Signed in"
}

// Role returns the session role, preferring the profile over token claims.
func (s *Store) Role() string {
	if s.profile != nil && s.profile.Role != "" {
		return s.profile.Role
	}
	if s.claims != nil {
		return s.claims.Role
	}
	return ""
}

// EmployeeID returns the signed-in user's numeric id, or 0 when unknown.
func (s *Store) EmployeeID() int {
	if s.profile != nil {
		return s.profile.ID
	}
	if s.claims != nil {
		return s.claims.UserID
	}
	return 0
}

// IsAdmin reports whether the session may reach the admin-only pages.
func (s *Store) IsAdmin() bool {
	role := s.Role()
	return role == "admin" || role == "manager"
}

func (s *Store) persist() {
	if s.path == "" || s.token == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return
	}
	_ = os.WriteFile(s.path, []byte(s.token), 0o600)
}

// Login exchanges credentials for a token and fetches the profile. The
// profile fetch is best effort: a token with no reachable /me still
// counts as signed in, matching how the server treats it.
func Login(ctx context.Context, client *api.Client, store *Store, email, password string) error {
	resp, err := client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return errors.New("session: login response missing token")
	}
	store.SetToken(resp.Token)
	if profile, err := client.Me(ctx); err == nil {
		store.SetProfile(profile)
	}
	return nil
}
