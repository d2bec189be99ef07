package stub

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type authClaims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	CompanyID int    `json:"companyId"`
	jwt.RegisteredClaims
}

func contextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestID, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}

func userFrom(ctx context.Context) *user {
	u, _ := ctx.Value(ctxUser).(*user)
	return u
}

func (s *Server) generateToken(u *user) (string, error) {
	now := s.now()
	claims := authClaims{
		Email:     u.Email,
		Role:      u.Role,
		CompanyID: u.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(defaultTokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (*authClaims, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeErr(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		claims, err := s.parseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeErr(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		id, _ := strconv.Atoi(claims.Subject)
		s.mu.Lock()
		u := s.users[id]
		s.mu.Unlock()
		if u == nil {
			writeErr(w, http.StatusUnauthorized, "Unknown user")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUser, u)))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !readBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	u := s.usersByEmail[strings.ToLower(strings.TrimSpace(body.Email))]
	s.mu.Unlock()
	if u == nil {
		writeErr(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(body.Password)) != nil {
		writeErr(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := s.generateToken(u)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "Could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	s.mu.Lock()
	emp := s.employees[u.EmployeeID]
	s.mu.Unlock()

	resp := map[string]any{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"role":       u.Role,
		"company_id": u.CompanyID,
	}
	if emp != nil {
		resp["employee_id"] = emp.ID
		resp["department"] = emp.Department
		resp["position"] = emp.Position
	}
	writeJSON(w, http.StatusOK, resp)
}

// payeMonthly is a crude bracket estimate, good enough for seeded data.
func payeMonthly(gross float64) float64 {
	annual := gross * 12
	var tax float64
	switch {
	case annual <= 237100:
		tax = annual * 0.18
	case annual <= 370500:
		tax = 42678 + (annual-237100)*0.26
	case annual <= 512800:
		tax = 77362 + (annual-370500)*0.31
	case annual <= 673000:
		tax = 121475 + (annual-512800)*0.36
	default:
		tax = 179147 + (annual-673000)*0.39
	}
	tax -= 17235 // primary rebate
	if tax < 0 {
		tax = 0
	}
	return tax / 12
}

func uifMonthly(gross float64) float64 {
	capped := gross
	if capped > 17712 {
		capped = 17712
	}
	return capped * uifRate
}
