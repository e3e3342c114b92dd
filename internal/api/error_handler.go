package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/devoops/user-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error         string `json:"error"`
	Code          string `json:"code,omitempty"`
	BlockingCount *int   `json:"blockingCount,omitempty"`
}

// NewHTTPErrorHandler maps domain errors to status codes and renders them as
// errorResponse. Unknown errors are logged and returned as a bare 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var blocked *domain.DeletionBlockedError
	if errors.As(err, &blocked) {
		count := blocked.BlockingCount
		return http.StatusConflict, errorResponse{Error: blocked.Message, Code: "DELETION_BLOCKED", BlockingCount: &count}
	}

	var cascade *domain.CascadeDeleteError
	if errors.As(err, &cascade) {
		return http.StatusBadGateway, errorResponse{Error: cascade.Error(), Code: "CASCADE_DELETE_FAILED"}
	}

	var exists *domain.AlreadyExistsError
	if errors.As(err, &exists) {
		return http.StatusConflict, errorResponse{Error: exists.Error(), Code: "USER_EXISTS"}
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Error: "user not found", Code: "USER_NOT_FOUND"}
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, errorResponse{Error: "user already exists", Code: "USER_EXISTS"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials", Code: "INVALID_CREDENTIALS"}
	case errors.Is(err, domain.ErrInvalidPassword):
		return http.StatusBadRequest, errorResponse{Error: domain.ErrInvalidPassword.Error(), Code: "INVALID_PASSWORD"}
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, errorResponse{Error: "token has expired", Code: "TOKEN_EXPIRED"}
	case errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusUnauthorized, errorResponse{Error: "invalid token", Code: "TOKEN_INVALID"}
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse{Error: "authentication required", Code: "UNAUTHENTICATED"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: "access forbidden", Code: "FORBIDDEN"}
	case errors.Is(err, domain.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable, errorResponse{Error: "dependent service unavailable, try again later", Code: "SERVICE_UNAVAILABLE"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}
