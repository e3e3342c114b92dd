package ports

import (
	"context"

	"github.com/devoops/user-service/internal/core/domain"
)

// RegisterInput carries the data needed to open a new account.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Residence string
	Role      domain.Role
}

// UpdateProfileInput is a partial update; nil fields are left untouched.
type UpdateProfileInput struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Residence *string
}

// AuthResult is returned whenever a fresh token is issued.
type AuthResult struct {
	Token     string
	ExpiresIn int64 // milliseconds
	User      *domain.User
}

// AuthService defines registration and login.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, usernameOrEmail, password string) (*AuthResult, error)
}

// AccountService defines the account lifecycle use cases.
type AccountService interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*AuthResult, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	DeleteAccount(ctx context.Context, userID string) error
}

// SummaryService answers identity lookups coming from other services.
type SummaryService interface {
	GetUserSummary(ctx context.Context, rawID string) domain.UserSummary
}
