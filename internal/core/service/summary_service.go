package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devoops/user-service/internal/core/domain"
	"github.com/devoops/user-service/internal/core/ports"
)

// SummaryService resolves user identities for other services, including
// accounts that have since been deleted.
type SummaryService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewSummaryService(repo ports.UserRepository, log zerolog.Logger) *SummaryService {
	return &SummaryService{repo: repo, log: log}
}

// GetUserSummary never fails: malformed or unknown ids yield Found=false.
func (s *SummaryService) GetUserSummary(ctx context.Context, rawID string) domain.UserSummary {
	id, err := uuid.Parse(rawID)
	if err != nil {
		s.log.Warn().Str("user_id", rawID).Msg("invalid user id format")
		return domain.UserSummary{}
	}

	user, err := s.repo.FindByID(ctx, id.String())
	if err == nil {
		return summaryOf(user, false)
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		s.log.Error().Err(err).Str("user_id", rawID).Msg("summary lookup failed")
		return domain.UserSummary{}
	}

	user, err = s.repo.FindByIDIncludingDeleted(ctx, id.String())
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error().Err(err).Str("user_id", rawID).Msg("summary lookup failed")
		}
		return domain.UserSummary{}
	}
	return summaryOf(user, true)
}

func summaryOf(u *domain.User, deleted bool) domain.UserSummary {
	return domain.UserSummary{
		Found:     true,
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role.String(),
		IsDeleted: deleted,
	}
}
