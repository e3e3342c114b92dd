package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/devoops/user-service/internal/api/middleware"
	"github.com/devoops/user-service/internal/core/domain"
)

// ctxCaller returns the identity stored by the role gate. A missing caller
// means the route was registered without the gate, which is treated as an
// unauthenticated request rather than a panic.
func ctxCaller(c echo.Context) (domain.Caller, error) {
	caller, ok := c.Get(middleware.CallerKey).(domain.Caller)
	if !ok || caller.UserID == "" {
		return domain.Caller{}, domain.ErrUnauthenticated
	}
	return caller, nil
}
