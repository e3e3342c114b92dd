package ports

import (
	"context"

	"github.com/devoops/user-service/internal/core/domain"
)

// UserEventPublisher announces account lifecycle events to other subsystems.
type UserEventPublisher interface {
	PublishUserCreated(ctx context.Context, event domain.UserCreatedEvent) error
}
