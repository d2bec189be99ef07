package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type errRoundTripper struct{}

func (errRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("boom")
}

func TestNew(t *testing.T) {
	if _, err := New("", nil); err == nil {
		t.Fatal("expected error")
	}
	if _, err := New("   ", nil); err == nil {
		t.Fatal("expected error")
	}
	if _, err := New("ftp://localhost:3000", nil); err == nil {
		t.Fatal("expected error")
	}
	if _, err := New("http://", nil); err == nil {
		t.Fatal("expected error")
	}
	if _, err := New("http://%zz", nil); err == nil {
		t.Fatal("expected error")
	}
	c, err := New("http://localhost:3000/api/", nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.BaseURL() != "http://localhost:3000/api" {
		t.Fatalf("base url=%q", c.BaseURL())
	}
}

func TestClient_RequestHeaders(t *testing.T) {
	var gotAuth, gotRequestID, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotAccept = r.Header.Get("Accept")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 1})
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, staticToken("tok123"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetEmployee(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok123" {
		t.Fatalf("authorization=%q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatal("missing request id")
	}
	if gotAccept != "application/json" {
		t.Fatalf("accept=%q", gotAccept)
	}
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var gotAuth string
	var sawAuthHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, sawAuthHeader = r.Header["Authorization"]
		_ = json.NewEncoder(w).Encode(LoginResponse{Token: "t1"})
	}))
	t.Cleanup(srv.Close)

	c, _ := New(srv.URL, staticToken(""))
	if _, err := c.Login(context.Background(), "a@example.invalid", "pw"); err != nil {
		t.Fatal(err)
	}
	if sawAuthHeader {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
}

func TestClient_ListEmployeesQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/employees" {
			t.Fatalf("path=%s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(EmployeePage{Page: 2, Limit: 10, Total: 31, TotalPages: 4})
	}))
	t.Cleanup(srv.Close)

	c, _ := New(srv.URL, nil)
	page, err := c.ListEmployees(context.Background(), EmployeeFilter{
		Page:       2,
		Limit:      10,
		Active:     true,
		Search:     "ann",
		Department: "Finance",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"page=2", "limit=10", "active=true", "search=ann", "department=Finance"} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("query %q missing %q", gotQuery, want)
		}
	}
	if strings.Contains(gotQuery, "position=") {
		t.Fatalf("query %q has empty position", gotQuery)
	}
	if page.TotalPages != 4 {
		t.Fatalf("total pages=%d", page.TotalPages)
	}
}

func TestClient_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Employee already clocked in"})
	}))
	t.Cleanup(srv.Close)

	c, _ := New(srv.URL, nil)
	_, err := c.ClockIn(context.Background(), 0)
	var apiErr *Error
	if err == nil || !errors.As(err, &apiErr) {
		t.Fatalf("err=%T %v", err, err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Fatalf("status=%d", apiErr.Status)
	}
	if apiErr.Message != "Employee already clocked in" {
		t.Fatalf("message=%q", apiErr.Message)
	}
	if got := Message(err, "fallback"); got != "Employee already clocked in" {
		t.Fatalf("Message=%q", got)
	}
}

func TestClient_ErrorBodyFallbackFields(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"message_field", `{"message":"Not found"}`, "Not found"},
		{"details_field", `{"details":"missing row"}`, "missing row"},
		{"empty_body", ``, "Bad Request"},
		{"not_json", `oops`, "Bad Request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(srv.Close)
			c, _ := New(srv.URL, nil)
			_, err := c.GetEmployee(context.Background(), 1)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err=%v want substring %q", err, tc.want)
			}
		})
	}
}

func TestClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid token"})
	}))
	t.Cleanup(srv.Close)

	c, _ := New(srv.URL, staticToken("stale"))
	_, err := c.Me(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	srvErr := errors.New("plain")
	if IsUnauthorized(srvErr) {
		t.Fatal("plain error reported unauthorized")
	}
}

func TestClient_TransportError(t *testing.T) {
	c, _ := New("http://localhost:9", nil)
	c.httpClient = &http.Client{Transport: errRoundTripper{}}
	if _, err := c.Me(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, err := c.TodayAttendance(context.Background(), 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestClient_EmptySuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c, _ := New(srv.URL, nil)
	if err := c.ApproveLeaveRequest(context.Background(), 7, ""); err != nil {
		t.Fatal(err)
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{"))
	}))
	t.Cleanup(srv.Close)

	c, _ := New(srv.URL, nil)
	if _, err := c.Me(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestClient_Blob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payroll/payslip/3" {
			t.Fatalf("path=%s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="payslip-march.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	t.Cleanup(srv.Close)

	c, _ := New(srv.URL, nil)
	blob, err := c.Payslip(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if blob.Filename != "payslip-march.pdf" {
		t.Fatalf("filename=%q", blob.Filename)
	}
	if blob.ContentType != "application/pdf" {
		t.Fatalf("content type=%q", blob.ContentType)
	}
	if string(blob.Data) != "%PDF-1.4" {
		t.Fatalf("data=%q", blob.Data)
	}
}

func TestClient_BlobFallbackName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}))
	t.Cleanup(srv.Close)

	c, _ := New(srv.URL, nil)
	blob, err := c.ExportIRP5(context.Background(), "2025-2026")
	if err != nil {
		t.Fatal(err)
	}
	if blob.Filename != "IRP5-2025-2026.csv" {
		t.Fatalf("filename=%q", blob.Filename)
	}
}

func TestClient_SalaryHistoryShapes(t *testing.T) {
	t.Run("bare_array", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"id":1,"new_salary":20000}]`))
		}))
		t.Cleanup(srv.Close)
		c, _ := New(srv.URL, nil)
		rows, err := c.SalaryHistory(context.Background(), 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 || rows[0].NewSalary != 20000 {
			t.Fatalf("rows=%+v", rows)
		}
	})

	t.Run("wrapped", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data":[{"id":1},{"id":2}]}`))
		}))
		t.Cleanup(srv.Close)
		c, _ := New(srv.URL, nil)
		rows, err := c.SalaryHistory(context.Background(), 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 2 {
			t.Fatalf("rows=%+v", rows)
		}
	})
}

func TestClient_PayrollPeriodQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(PayrollSummary{})
	}))
	t.Cleanup(srv.Close)

	c, _ := New(srv.URL, nil)
	if _, err := c.PayrollSummaryFor(context.Background(), 3, 2026); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gotQuery, "month=03") || !strings.Contains(gotQuery, "year=2026") {
		t.Fatalf("query=%q", gotQuery)
	}
}
