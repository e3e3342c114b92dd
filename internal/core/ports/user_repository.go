package ports

import (
	"context"

	"github.com/devoops/user-service/internal/core/domain"
)

// UserRepository defines persistence for user accounts.
// Every finder except FindByIDIncludingDeleted skips soft-deleted accounts
// and returns domain.ErrUserNotFound when nothing matches.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByUsernameOrEmail matches an account whose username equals username
	// or whose email equals email.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Save inserts the account when it has no ID yet, otherwise replaces it.
	// A unique-index conflict is reported as *domain.AlreadyExistsError.
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByIDIncludingDeleted bypasses the soft-delete filter. Only meant for
	// resolving historical identities, never for uniqueness checks.
	FindByIDIncludingDeleted(ctx context.Context, id string) (*domain.User, error)
}
