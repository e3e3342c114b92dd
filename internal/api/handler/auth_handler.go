package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devoops/user-service/internal/core/domain"
	"github.com/devoops/user-service/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register opens a new account and returns a token for it.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/user/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "role must be one of: GUEST HOST"})
	}

	res, err := h.authService.Register(c.Request().Context(), toRegisterInput(req, role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAuthResponse(res))
}

// Login authenticates by username or email.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/user/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	res, err := h.authService.Login(c.Request().Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAuthResponse(res))
}
