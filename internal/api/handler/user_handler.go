package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/devoops/user-service/internal/core/domain"
	"github.com/devoops/user-service/internal/core/ports"
)

// UserHandler serves the caller's own account and public profile lookups.
type UserHandler struct {
	service ports.AccountService
}

func NewUserHandler(service ports.AccountService) *UserHandler {
	return &UserHandler{service: service}
}

// GetMe returns the caller's profile.
//
// @Summary      Current profile
// @Tags         users
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/user/me [get]
func (h *UserHandler) GetMe(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	user, err := h.service.GetProfile(c.Request().Context(), caller.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateMe applies a partial profile update and re-issues the token so the
// claims reflect the new values.
//
// @Summary      Update profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/user/me [put]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	res, err := h.service.UpdateProfile(c.Request().Context(), caller.UserID, toUpdateInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAuthResponse(res))
}

// ChangePassword
//
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Param        body  body  changePasswordRequest  true  "Current and new password"
// @Success      204
// @Failure      400   {object}  errorResponse
// @Router       /api/user/me/password [put]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	if err := h.service.ChangePassword(c.Request().Context(), caller.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteMe runs the account deletion workflow for the caller.
//
// @Summary      Delete account
// @Tags         users
// @Success      204
// @Failure      409  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /api/user/me [delete]
func (h *UserHandler) DeleteMe(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteAccount(c.Request().Context(), caller.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetByID returns another user's public profile. Malformed ids are reported
// as not found.
//
// @Summary      Profile by id
// @Tags         users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/user/{id} [get]
func (h *UserHandler) GetByID(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.ErrUserNotFound
	}

	user, err := h.service.GetProfile(c.Request().Context(), id.String())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}
