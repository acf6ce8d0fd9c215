package authz

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type fakeSessions struct {
	userID string
	err    error
}

func (f *fakeSessions) ResolveSession(r *http.Request) (string, error) {
	return f.userID, f.err
}

type fakeRoles struct {
	role Role
	err  error
}

func (f *fakeRoles) RoleOf(ctx context.Context, userID string) (Role, error) {
	return f.role, f.err
}

func runGuard(t *testing.T, path string, sessions SessionResolver, roles RoleStore) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Guard(GuardConfig{
		Table:     NewDefaultRouteTable(),
		Sessions:  sessions,
		Roles:     roles,
		LoginPath: "/auth/login",
		Logger:    zerolog.Nop(),
	})
	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "page")
	})
	if err := handler(c); err != nil {
		t.Fatalf("guard returned error: %v", err)
	}
	return rec
}

func TestGuard_UnauthenticatedRedirectsToLogin(t *testing.T) {
	rec := runGuard(t, "/dashboard/overview",
		&fakeSessions{err: ErrNoSession}, &fakeRoles{})

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	want := "/auth/login?redirect=%2Fdashboard%2Foverview"
	if loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}

func TestGuard_NurseBlockedFromAdmin(t *testing.T) {
	rec := runGuard(t, "/dashboard/admin",
		&fakeSessions{userID: "u-1"}, &fakeRoles{role: RoleNurse})

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}
}

func TestGuard_DoctorPassesThrough(t *testing.T) {
	rec := runGuard(t, "/dashboard/patients",
		&fakeSessions{userID: "u-2"}, &fakeRoles{role: RoleDoctor})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through 200, got %d", rec.Code)
	}
	if rec.Body.String() != "page" {
		t.Errorf("handler did not run, body = %q", rec.Body.String())
	}
}

func TestGuard_AttachesIdentityOnAllow(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/dashboard/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := Guard(GuardConfig{
		Table:     NewDefaultRouteTable(),
		Sessions:  &fakeSessions{userID: "u-9"},
		Roles:     &fakeRoles{role: RoleDoctor},
		LoginPath: "/auth/login",
		Logger:    zerolog.Nop(),
	})
	handler := mw(func(c echo.Context) error {
		ident, ok := IdentityFromContext(c.Request().Context())
		if !ok || ident.UserID != "u-9" || ident.Role != RoleDoctor {
			t.Errorf("identity not attached: %+v ok=%v", ident, ok)
		}
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("guard returned error: %v", err)
	}
}

// A role-backend failure for an otherwise valid session must yield a login
// redirect, never a pass-through.
func TestGuard_RoleLookupFailureFailsClosed(t *testing.T) {
	rec := runGuard(t, "/dashboard/patients",
		&fakeSessions{userID: "u-3"}, &fakeRoles{err: errors.New("backend timeout")})

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	loc := rec.Header().Get("Location")
	want := "/auth/login?redirect=%2Fdashboard%2Fpatients"
	if loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}

func TestGuard_InvalidSessionTreatedAsUnauthenticated(t *testing.T) {
	rec := runGuard(t, "/dashboard/alerts",
		&fakeSessions{err: errors.New("token expired")}, &fakeRoles{role: RoleDoctor})

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
}

// A user whose role record is missing is authenticated but least-privileged:
// the landing page works, everything else bounces.
func TestGuard_MissingRoleRecordLeastPrivilege(t *testing.T) {
	rec := runGuard(t, "/dashboard", &fakeSessions{userID: "u-4"}, &fakeRoles{role: ""})
	if rec.Code != http.StatusOK {
		t.Errorf("landing page should pass through, got %d", rec.Code)
	}

	rec = runGuard(t, "/dashboard/patients", &fakeSessions{userID: "u-4"}, &fakeRoles{role: ""})
	if rec.Code != http.StatusFound {
		t.Errorf("expected redirect for roleless user, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", loc)
	}
}

func TestGuard_ExemptPathsSkipLookups(t *testing.T) {
	// Session resolver that fails the test if called.
	sessions := &fakeSessions{err: errors.New("must not be called")}

	for _, path := range []string{"/health", "/metrics", "/static/app.css", "/favicon.ico", "/auth/login"} {
		rec := runGuard(t, path, sessions, &fakeRoles{})
		if rec.Code != http.StatusOK {
			t.Errorf("exempt path %q should pass through, got %d", path, rec.Code)
		}
	}
}

func TestGuard_NonDashboardPathsIgnored(t *testing.T) {
	rec := runGuard(t, "/about", &fakeSessions{err: ErrNoSession}, &fakeRoles{})
	if rec.Code != http.StatusOK {
		t.Errorf("non-dashboard path should pass through, got %d", rec.Code)
	}
}

func TestDecide(t *testing.T) {
	table := NewDefaultRouteTable()

	d := Decide(table, "/auth/login", "/dashboard/admin", false, "")
	if d.Allow || d.Reason != ReasonUnauthenticated {
		t.Errorf("unauthenticated decision = %+v", d)
	}

	d = Decide(table, "/auth/login", "/dashboard/lab-results", true, RoleLabTechnician)
	if !d.Allow {
		t.Errorf("lab tech should reach lab results, got %+v", d)
	}

	d = Decide(table, "/auth/login", "/dashboard/lab-results", true, RolePharmacist)
	if d.Allow || d.Reason != ReasonUnauthorized || d.RedirectTo != "/dashboard" {
		t.Errorf("pharmacist decision = %+v", d)
	}
}

func TestRequirePermission(t *testing.T) {
	policy := NewDefaultPolicy()
	e := echo.New()

	run := func(ident *Identity, perm Permission) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
		if ident != nil {
			req = req.WithContext(ContextWithIdentity(req.Context(), *ident))
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		h := RequirePermission(policy, perm)(func(c echo.Context) error {
			return c.String(http.StatusOK, "ok")
		})
		return rec, h(c)
	}

	if _, err := run(&Identity{UserID: "u-1", Role: RoleDoctor}, PermViewAllPatients); err != nil {
		t.Errorf("doctor viewing patients: unexpected error %v", err)
	}

	_, err := run(&Identity{UserID: "u-2", Role: RoleReceptionist}, PermViewLabs)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("receptionist viewing labs: expected 403, got %v", err)
	}

	_, err = run(nil, PermViewAllPatients)
	httpErr, ok = err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous request: expected 401, got %v", err)
	}
}
