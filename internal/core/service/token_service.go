package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/devoops/user-service/internal/core/domain"
)

// minSecretLen is 256 bits.
const minSecretLen = 32

var ErrWeakSecret = errors.New("token secret must be at least 256 bits")

// Claims is the identity payload embedded in every issued token.
// The subject is the account ID.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 identity tokens. It holds no
// mutable state and is safe for concurrent use.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

func NewTokenService(secret string, lifetime time.Duration) (*TokenService, error) {
	if len(secret) < minSecretLen {
		return nil, ErrWeakSecret
	}
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), lifetime: lifetime, now: time.Now}, nil
}

// Lifetime returns the configured token validity in milliseconds.
func (s *TokenService) Lifetime() int64 {
	return s.lifetime.Milliseconds()
}

// Issue signs a token for user and returns it with its lifetime in milliseconds.
func (s *TokenService) Issue(user *domain.User) (string, int64, error) {
	now := s.now()
	claims := Claims{
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("sign token: %w", err)
	}
	return signed, s.Lifetime(), nil
}

// Validate reports whether token carries a good signature, has not expired
// and was issued for user. Embedded username, email and role are not
// compared with the live record.
func (s *TokenService) Validate(token string, user *domain.User) bool {
	if user == nil {
		return false
	}
	claims, err := s.parse(token)
	if err != nil {
		return false
	}
	return claims.Subject == user.ID
}

// ExtractUsername returns the username claim of a verified token.
func (s *TokenService) ExtractUsername(token string) (string, error) {
	return ExtractClaim(s, token, func(c *Claims) string { return c.Username })
}

// ParseCaller verifies token and returns the identity it asserts.
func (s *TokenService) ParseCaller(token string) (domain.Caller, error) {
	claims, err := s.parse(token)
	if err != nil {
		return domain.Caller{}, err
	}
	return domain.Caller{UserID: claims.Subject, Role: claims.Role}, nil
}

// ExtractClaim verifies token and applies selector to its claims.
// Expired tokens fail with domain.ErrTokenExpired, anything else that cannot
// be verified with domain.ErrTokenInvalid.
func ExtractClaim[T any](s *TokenService, token string, selector func(*Claims) T) (T, error) {
	claims, err := s.parse(token)
	if err != nil {
		var zero T
		return zero, err
	}
	return selector(claims), nil
}

func (s *TokenService) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}
