package ports

import (
	"context"

	"github.com/devoops/user-service/internal/core/domain"
)

// DeletionEligibilityChecker asks the reservation authority whether an
// account can be removed. Transport failures wrap domain.ErrRemoteUnavailable;
// a refusal is a normal result with CanProceed=false.
type DeletionEligibilityChecker interface {
	CheckGuestEligibility(ctx context.Context, userID string) (domain.DeletionEligibility, error)
	CheckHostEligibility(ctx context.Context, userID string) (domain.DeletionEligibility, error)
}

// CascadeDeleter removes every resource a host owns on the accommodation
// authority. Transport failures wrap domain.ErrRemoteUnavailable.
type CascadeDeleter interface {
	DeleteAllOwnedByHost(ctx context.Context, hostID string) (domain.CascadeResult, error)
}
