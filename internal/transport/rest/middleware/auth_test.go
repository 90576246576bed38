package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"manara/internal/model"
	"manara/internal/service"
)

const testSecret = "test-secret"

func signToken(t *testing.T, role model.Role) string {
	t.Helper()
	claims := &model.UserClaims{
		UserID: "u_test",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func newMiddleware() *AuthMiddleware {
	return NewAuthMiddleware(service.NewAuthService(nil, testSecret, "", ""))
}

func TestRequireUserInjectsClaims(t *testing.T) {
	mw := newMiddleware()

	var gotUser string
	var gotRole model.Role
	h := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserID(r.Context())
		gotRole = GetRole(r.Context())
	}))

	req := httptest.NewRequest("GET", "/v1/challenges/session", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, model.RoleStudent))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotUser != "u_test" || gotRole != model.RoleStudent {
		t.Fatalf("claims not injected: user=%q role=%q", gotUser, gotRole)
	}
}

func TestRequireUserRejectsMissingOrBadToken(t *testing.T) {
	mw := newMiddleware()
	h := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest("GET", "/v1/challenges/session", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/v1/challenges/session", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", rec.Code)
	}
}

func TestRequireStaffRejectsStudents(t *testing.T) {
	mw := newMiddleware()
	h := mw.RequireStaff(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/v1/admin/questions", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, model.RoleStudent))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student, got %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/v1/admin/questions", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, model.RoleAdmin))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
}
