package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/devoops/user-service/internal/api/metrics"
	"github.com/devoops/user-service/internal/core/domain"
)

// CallerKey is the echo context key holding the domain.Caller of a request.
const CallerKey = "caller"

// Gate authenticates requests and enforces role allow-lists. Roles given to
// Require override the group-level roles the Gate was built with.
type Gate struct {
	extractor  IdentityExtractor
	groupRoles []string
}

func NewGate(extractor IdentityExtractor, groupRoles ...string) *Gate {
	return &Gate{extractor: extractor, groupRoles: groupRoles}
}

// Require returns middleware that extracts the caller and then checks its
// role. An empty effective allow-list admits any authenticated caller.
func (g *Gate) Require(roles ...string) echo.MiddlewareFunc {
	allowed := roles
	if len(allowed) == 0 {
		allowed = g.groupRoles
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, err := g.extractor.Extract(c.Request())
			if err != nil {
				metrics.AccessDeniedTotal.WithLabelValues("unauthenticated").Inc()
				return err
			}

			if len(allowed) > 0 && !hasRole(allowed, caller.Role) {
				metrics.AccessDeniedTotal.WithLabelValues("forbidden").Inc()
				return domain.ErrForbidden
			}

			c.Set(CallerKey, caller)
			return next(c)
		}
	}
}

func hasRole(allowed []string, role string) bool {
	for _, r := range allowed {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
