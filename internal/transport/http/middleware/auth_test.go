package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paydesk/internal/domain/auth"
)

const testSecret = "test-secret"

func actorProbe(t *testing.T, got *auth.ActorContext, found *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActor(r.Context())
		*got = actor
		*found = ok
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthNoHeaderPassesThrough(t *testing.T) {
	var actor auth.ActorContext
	var found bool
	handler := Auth(testSecret)(actorProbe(t, &actor, &found))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if found {
		t.Error("expected no actor on unauthenticated request")
	}
}

func TestAuthBadTokenPassesThroughUnauthenticated(t *testing.T) {
	var actor auth.ActorContext
	var found bool
	handler := Auth(testSecret)(actorProbe(t, &actor, &found))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if found {
		t.Error("expected no actor for invalid token")
	}
}

func TestAuthValidTokenSetsActor(t *testing.T) {
	token, err := auth.GenerateToken(testSecret, auth.Claims{EmployeeID: 7, Role: auth.RoleCEO}, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var actor auth.ActorContext
	var found bool
	handler := Auth(testSecret)(actorProbe(t, &actor, &found))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !found {
		t.Fatal("expected actor to be set")
	}
	if actor.EmployeeID != 7 || actor.Role != auth.RoleCEO {
		t.Errorf("actor = %+v, want employee 7 with role %s", actor, auth.RoleCEO)
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	gate := RequireRole(auth.RoleAdmin, auth.RolePayrollManager)(next)

	token, err := auth.GenerateToken(testSecret, auth.Claims{EmployeeID: 1, Role: auth.RoleEmployee}, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	adminToken, err := auth.GenerateToken(testSecret, auth.Claims{EmployeeID: 2, Role: auth.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"wrong role", token, http.StatusForbidden},
		{"allowed role", adminToken, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			Auth(testSecret)(gate).ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	gate := RequireAuth(next)

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	token, err := auth.GenerateToken(testSecret, auth.Claims{EmployeeID: 3, Role: auth.RoleEmployee}, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	Auth(testSecret)(gate).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
