package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"hrconsole/internal/api"
)

func signedToken(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestStore_ClaimsFromToken(t *testing.T) {
	store := New("")
	companyID := 4
	store.SetToken(signedToken(t, Claims{
		UserID:    12,
		Email:     "thandi@example.invalid",
		Role:      "admin",
		CompanyID: &companyID,
	}))

	if !store.IsAuthenticated() {
		t.Fatal("expected authenticated")
	}
	claims := store.Claims()
	if claims == nil {
		t.Fatal("missing claims")
	}
	if claims.UserID != 12 || claims.Email != "thandi@example.invalid" || claims.Role != "admin" {
		t.Fatalf("claims=%+v", claims)
	}
	if store.EmployeeID() != 12 {
		t.Fatalf("employee id=%d", store.EmployeeID())
	}
	if !store.IsAdmin() {
		t.Fatal("expected admin")
	}
}

func TestStore_MalformedTokenStillAuthenticates(t *testing.T) {
	store := New("")
	store.SetToken("not-a-jwt")
	if !store.IsAuthenticated() {
		t.Fatal("expected authenticated")
	}
	if store.Claims() != nil {
		t.Fatal("expected nil claims")
	}
	if store.DisplayName() != "Signed in" {
		t.Fatalf("display name=%q", store.DisplayName())
	}
}

func TestStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "token")

	store := New(path)
	store.SetToken("tok-abc")

	restored := New(path)
	if err := restored.Load(); err != nil {
		t.Fatal(err)
	}
	if restored.Token() != "tok-abc" {
		t.Fatalf("token=%q", restored.Token())
	}

	restored.Clear()
	if restored.IsAuthenticated() {
		t.Fatal("expected signed out")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("token file survived clear: %v", err)
	}

	again := New(path)
	if err := again.Load(); err != nil {
		t.Fatal(err)
	}
	if again.IsAuthenticated() {
		t.Fatal("expected no session after clear")
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "nope", "token"))
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	if store.IsAuthenticated() {
		t.Fatal("expected signed out")
	}
}

func TestStore_DisplayNamePrefersProfile(t *testing.T) {
	store := New("")
	store.SetToken(signedToken(t, Claims{Email: "sipho@example.invalid", Role: "employee"}))
	if store.DisplayName() != "sipho@example.invalid" {
		t.Fatalf("display name=%q", store.DisplayName())
	}
	store.SetProfile(api.Profile{ID: 3, Name: "Sipho Dlamini", Role: "employee"})
	if store.DisplayName() != "Sipho Dlamini" {
		t.Fatalf("display name=%q", store.DisplayName())
	}
	if store.IsAdmin() {
		t.Fatal("employee reported admin")
	}
}

func TestLogin(t *testing.T) {
	token := signedToken(t, Claims{UserID: 2, Email: "admin@example.invalid", Role: "admin"})
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method=%s", r.Method)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["email"] != "admin@example.invalid" || body["password"] != "pw" {
			t.Fatalf("body=%v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			t.Fatalf("authorization=%q", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(api.Profile{ID: 2, Name: "Admin User", Role: "admin"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	store := New("")
	client, err := api.New(srv.URL, store)
	if err != nil {
		t.Fatal(err)
	}
	if err := Login(context.Background(), client, store, "admin@example.invalid", "pw"); err != nil {
		t.Fatal(err)
	}
	if store.Token() != token {
		t.Fatal("token not stored")
	}
	if store.Profile() == nil || store.Profile().Name != "Admin User" {
		t.Fatalf("profile=%+v", store.Profile())
	}
}

func TestLogin_MissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": ""})
	}))
	t.Cleanup(srv.Close)

	store := New("")
	client, _ := api.New(srv.URL, store)
	if err := Login(context.Background(), client, store, "a", "b"); err == nil {
		t.Fatal("expected error")
	}
	if store.IsAuthenticated() {
		t.Fatal("expected signed out")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
	}))
	t.Cleanup(srv.Close)

	store := New("")
	client, _ := api.New(srv.URL, store)
	err := Login(context.Background(), client, store, "a", "bad")
	if err == nil {
		t.Fatal("expected error")
	}
	if api.Message(err, "x") != "Invalid credentials" {
		t.Fatalf("message=%q", api.Message(err, "x"))
	}
	if store.IsAuthenticated() {
		t.Fatal("expected signed out")
	}
}
