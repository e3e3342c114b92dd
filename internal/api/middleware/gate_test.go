package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/devoops/user-service/internal/core/domain"
)

func gateRequest(t *testing.T, mw echo.MiddlewareFunc, id, role string) (called bool, caller domain.Caller, err error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id != "" {
		req.Header.Set(HeaderUserID, id)
	}
	if role != "" {
		req.Header.Set(HeaderUserRole, role)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	err = mw(func(c echo.Context) error {
		called = true
		caller, _ = c.Get(CallerKey).(domain.Caller)
		return nil
	})(c)
	return called, caller, err
}

func TestGate_AllowsListedRole(t *testing.T) {
	gate := NewGate(NewHeaderExtractor())

	called, caller, err := gateRequest(t, gate.Require("HOST", "GUEST"), testUserID, "HOST")
	if err != nil || !called {
		t.Fatalf("expected pass-through, got called=%v err=%v", called, err)
	}
	if caller.UserID != testUserID || caller.Role != "HOST" {
		t.Fatalf("caller not stored in context: %+v", caller)
	}
}

func TestGate_RoleComparisonIgnoresCase(t *testing.T) {
	gate := NewGate(NewHeaderExtractor())

	if called, _, err := gateRequest(t, gate.Require("HOST"), testUserID, "host"); err != nil || !called {
		t.Fatalf("expected lower-case role to match, got err=%v", err)
	}
}

func TestGate_ForbiddenRole(t *testing.T) {
	gate := NewGate(NewHeaderExtractor())

	called, _, err := gateRequest(t, gate.Require("HOST"), testUserID, "GUEST")
	if called {
		t.Fatalf("next must not run for a forbidden role")
	}
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestGate_UnauthenticatedBeforeForbidden(t *testing.T) {
	gate := NewGate(NewHeaderExtractor())

	_, _, err := gateRequest(t, gate.Require("HOST"), "", "GUEST")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestGate_MethodRolesOverrideGroupRoles(t *testing.T) {
	gate := NewGate(NewHeaderExtractor(), "HOST")

	if _, _, err := gateRequest(t, gate.Require(), testUserID, "GUEST"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("group roles should apply when the route names none, got %v", err)
	}
	if called, _, err := gateRequest(t, gate.Require("GUEST"), testUserID, "GUEST"); err != nil || !called {
		t.Fatalf("route roles should override group roles, got %v", err)
	}
	if _, _, err := gateRequest(t, gate.Require("GUEST"), testUserID, "HOST"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("group role must not leak into an overriding route, got %v", err)
	}
}

func TestGate_EmptyListAdmitsAnyAuthenticatedCaller(t *testing.T) {
	gate := NewGate(NewHeaderExtractor())

	if called, _, err := gateRequest(t, gate.Require(), testUserID, "ADMIN"); err != nil || !called {
		t.Fatalf("expected any authenticated caller to pass, got %v", err)
	}
	if _, _, err := gateRequest(t, gate.Require(), "", ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated without identity, got %v", err)
	}
}
