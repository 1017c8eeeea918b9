package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func contextWithRole(e *echo.Echo, role Role) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), UserIDKey, uuid.NewString())
	ctx = context.WithValue(ctx, RoleKey, role)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func okHandler(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func TestRequireRole_Allowed(t *testing.T) {
	e := echo.New()
	mw := RequireRole(RoleConsultant)

	if err := mw(okHandler)(contextWithRole(e, RoleConsultant)); err != nil {
		t.Errorf("consultant rejected: %v", err)
	}
}

func TestRequireRole_AdminBypass(t *testing.T) {
	e := echo.New()
	mw := RequireRole(RoleConsultant)

	if err := mw(okHandler)(contextWithRole(e, RoleAdmin)); err != nil {
		t.Errorf("admin rejected: %v", err)
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	e := echo.New()
	mw := RequireRole(RoleConsultant)

	err := mw(okHandler)(contextWithRole(e, RoleClient))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestRequireRole_MissingIdentity(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := RequireRole(RoleConsultant)(okHandler)(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestRequireActor(t *testing.T) {
	e := echo.New()
	mw := RequireActor()

	if err := mw(okHandler)(contextWithRole(e, RoleClient)); err != nil {
		t.Errorf("authenticated caller rejected: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	err := mw(okHandler)(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for missing identity, got %v", err)
	}
}

func TestActorFromContext(t *testing.T) {
	id := uuid.New()
	ctx := WithActor(context.Background(), Actor{UserID: id, Role: RoleConsultant})

	actor, ok := ActorFromContext(ctx)
	if !ok {
		t.Fatal("actor not recovered from context")
	}
	if actor.UserID != id || actor.Role != RoleConsultant {
		t.Errorf("actor = %+v", actor)
	}

	if _, ok := ActorFromContext(context.Background()); ok {
		t.Error("actor recovered from empty context")
	}

	badCtx := context.WithValue(context.Background(), UserIDKey, "not-a-uuid")
	badCtx = context.WithValue(badCtx, RoleKey, RoleClient)
	if _, ok := ActorFromContext(badCtx); ok {
		t.Error("actor recovered from malformed user id")
	}
}

func TestIsStaff(t *testing.T) {
	cases := []struct {
		role Role
		want bool
	}{
		{RoleClient, false},
		{RoleConsultant, true},
		{RoleAdmin, true},
	}
	for _, tc := range cases {
		if got := (Actor{Role: tc.role}).IsStaff(); got != tc.want {
			t.Errorf("IsStaff(%s) = %v, want %v", tc.role, got, tc.want)
		}
	}
}
