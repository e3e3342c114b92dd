package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/devoops/user-service/internal/api/middleware"
	"github.com/devoops/user-service/internal/core/domain"
	"github.com/devoops/user-service/internal/core/ports"
)

const testUserID = "5f0c1f3e-8a7d-4c1e-9b1a-2f3e4d5c6b7a"

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, usernameOrEmail, password string) (*ports.AuthResult, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, usernameOrEmail, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, usernameOrEmail, password)
}

type stubAccountService struct {
	getFn    func(ctx context.Context, userID string) (*domain.User, error)
	updateFn func(ctx context.Context, userID string, in ports.UpdateProfileInput) (*ports.AuthResult, error)
	changeFn func(ctx context.Context, userID, current, next string) error
	deleteFn func(ctx context.Context, userID string) error
}

func (s *stubAccountService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.getFn(ctx, userID)
}

func (s *stubAccountService) UpdateProfile(ctx context.Context, userID string, in ports.UpdateProfileInput) (*ports.AuthResult, error) {
	return s.updateFn(ctx, userID, in)
}

func (s *stubAccountService) ChangePassword(ctx context.Context, userID, current, next string) error {
	return s.changeFn(ctx, userID, current, next)
}

func (s *stubAccountService) DeleteAccount(ctx context.Context, userID string) error {
	return s.deleteFn(ctx, userID)
}

// newContext builds an echo context with the validator installed. A non-empty
// role stores a caller the way the role gate does.
func newContext(method, target, body, role string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set(middleware.CallerKey, domain.Caller{UserID: testUserID, Role: role})
	}
	return c, rec
}

func sampleUser() *domain.User {
	return &domain.User{
		ID:        testUserID,
		Username:  "alice",
		Email:     "a@x.com",
		FirstName: "Alice",
		LastName:  "Liddell",
		Residence: "Wonderland",
		Role:      domain.RoleGuest,
	}
}
