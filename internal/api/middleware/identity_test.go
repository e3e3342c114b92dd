package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/devoops/user-service/internal/core/domain"
	"github.com/devoops/user-service/internal/core/service"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testUserID = "5f0c1f3e-8a7d-4c1e-9b1a-2f3e4d5c6b7a"
)

func newTokens(t *testing.T, lifetime time.Duration) *service.TokenService {
	t.Helper()
	tokens, err := service.NewTokenService(testSecret, lifetime)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return tokens
}

func TestHeaderExtractor(t *testing.T) {
	cases := []struct {
		name    string
		id      string
		role    string
		wantErr bool
	}{
		{name: "valid", id: testUserID, role: "HOST"},
		{name: "missing id", role: "HOST", wantErr: true},
		{name: "missing role", id: testUserID, wantErr: true},
		{name: "malformed id", id: "not-a-uuid", role: "GUEST", wantErr: true},
		{name: "blank role", id: testUserID, role: "   ", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.id != "" {
				req.Header.Set(HeaderUserID, tc.id)
			}
			if tc.role != "" {
				req.Header.Set(HeaderUserRole, tc.role)
			}

			caller, err := NewHeaderExtractor().Extract(req)
			if tc.wantErr {
				if !errors.Is(err, domain.ErrUnauthenticated) {
					t.Fatalf("expected ErrUnauthenticated, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if caller.UserID != tc.id || caller.Role != tc.role {
				t.Fatalf("unexpected caller: %+v", caller)
			}
		})
	}
}

func TestTokenExtractor_ValidToken(t *testing.T) {
	tokens := newTokens(t, time.Hour)
	signed, _, err := tokens.Issue(&domain.User{ID: testUserID, Username: "alice", Email: "a@x.com", Role: domain.RoleGuest})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	caller, err := NewTokenExtractor(tokens).Extract(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if caller.UserID != testUserID || caller.Role != "GUEST" {
		t.Fatalf("unexpected caller: %+v", caller)
	}
}

func TestTokenExtractor_Rejects(t *testing.T) {
	tokens := newTokens(t, time.Hour)
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  testUserID,
		"role": "HOST",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signedForeign, err := foreign.SignedString([]byte("another-secret-another-secret-xx"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	for name, header := range map[string]string{
		"missing":        "",
		"wrong scheme":   "Token abc",
		"empty bearer":   "Bearer ",
		"garbage":        "Bearer abc.def.ghi",
		"foreign secret": "Bearer " + signedForeign,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if _, err := NewTokenExtractor(tokens).Extract(req); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("%s: expected ErrUnauthenticated, got %v", name, err)
		}
	}
}

func TestTokenExtractor_ExpiredToken(t *testing.T) {
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  testUserID,
		"role": "HOST",
		"iat":  time.Now().Add(-2 * time.Hour).Unix(),
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	_, err = NewTokenExtractor(newTokens(t, time.Hour)).Extract(req)
	if !errors.Is(err, domain.ErrUnauthenticated) || !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected unauthenticated+expired, got %v", err)
	}
}

func TestNewExtractor_SelectsBySource(t *testing.T) {
	tokens := newTokens(t, time.Hour)
	if _, ok := NewExtractor("token", tokens).(TokenExtractor); !ok {
		t.Fatalf("expected TokenExtractor for source=token")
	}
	if _, ok := NewExtractor("headers", tokens).(HeaderExtractor); !ok {
		t.Fatalf("expected HeaderExtractor for source=headers")
	}
	if _, ok := NewExtractor("", tokens).(HeaderExtractor); !ok {
		t.Fatalf("expected HeaderExtractor by default")
	}
}
