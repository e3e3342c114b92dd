package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/devoops/user-service/internal/core/domain"
)

const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

// IdentityExtractor derives the caller of a request. Every failure wraps
// domain.ErrUnauthenticated.
type IdentityExtractor interface {
	Extract(r *http.Request) (domain.Caller, error)
}

// HeaderExtractor trusts the identity headers set by the API gateway.
type HeaderExtractor struct{}

func NewHeaderExtractor() HeaderExtractor { return HeaderExtractor{} }

func (HeaderExtractor) Extract(r *http.Request) (domain.Caller, error) {
	rawID := strings.TrimSpace(r.Header.Get(HeaderUserID))
	role := strings.TrimSpace(r.Header.Get(HeaderUserRole))
	if rawID == "" || role == "" {
		return domain.Caller{}, domain.ErrUnauthenticated
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return domain.Caller{}, domain.ErrUnauthenticated
	}
	return domain.Caller{UserID: id.String(), Role: role}, nil
}

// CallerParser verifies a bearer token and returns the identity it asserts.
type CallerParser interface {
	ParseCaller(token string) (domain.Caller, error)
}

// TokenExtractor reads the caller from a verified bearer token.
type TokenExtractor struct {
	tokens CallerParser
}

func NewTokenExtractor(tokens CallerParser) TokenExtractor {
	return TokenExtractor{tokens: tokens}
}

func (e TokenExtractor) Extract(r *http.Request) (domain.Caller, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return domain.Caller{}, domain.ErrUnauthenticated
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return domain.Caller{}, domain.ErrUnauthenticated
	}

	caller, err := e.tokens.ParseCaller(strings.TrimSpace(parts[1]))
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return domain.Caller{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, domain.ErrTokenExpired)
		}
		return domain.Caller{}, domain.ErrUnauthenticated
	}
	if caller.Role == "" {
		return domain.Caller{}, domain.ErrUnauthenticated
	}
	if _, err := uuid.Parse(caller.UserID); err != nil {
		return domain.Caller{}, domain.ErrUnauthenticated
	}
	return caller, nil
}

// NewExtractor returns the extractor configured for source: "token" reads
// bearer tokens, anything else trusts gateway headers.
func NewExtractor(source string, tokens CallerParser) IdentityExtractor {
	if strings.EqualFold(source, "token") {
		return NewTokenExtractor(tokens)
	}
	return NewHeaderExtractor()
}
