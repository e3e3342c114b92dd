package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/devoops/user-service/internal/api/metrics"
	"github.com/devoops/user-service/internal/core/domain"
	"github.com/devoops/user-service/internal/core/ports"
)

// deletionStep tags where an account deletion currently is.
type deletionStep string

const (
	stepCheckingEligibility deletionStep = "checking_eligibility"
	stepCascadeDeleting     deletionStep = "cascade_deleting"
	stepCommitting          deletionStep = "committing"
	stepFailed              deletionStep = "failed"
)

// AccountService implements profile management and the account deletion saga.
type AccountService struct {
	repo        ports.UserRepository
	passwords   *PasswordVerifier
	tokens      *TokenService
	eligibility ports.DeletionEligibilityChecker
	cascade     ports.CascadeDeleter
	log         zerolog.Logger
}

func NewAccountService(
	repo ports.UserRepository,
	passwords *PasswordVerifier,
	tokens *TokenService,
	eligibility ports.DeletionEligibilityChecker,
	cascade ports.CascadeDeleter,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		repo:        repo,
		passwords:   passwords,
		tokens:      tokens,
		eligibility: eligibility,
		cascade:     cascade,
		log:         log,
	}
}

func (s *AccountService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of in and returns a token that
// reflects the updated claims.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, in ports.UpdateProfileInput) (*ports.AuthResult, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	if in.Username != nil && *in.Username != user.Username {
		taken, err := s.repo.ExistsByUsername(ctx, *in.Username)
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		if taken {
			return nil, &domain.AlreadyExistsError{Field: "username", Value: *in.Username}
		}
		user.Username = *in.Username
	}

	if in.Email != nil && *in.Email != user.Email {
		taken, err := s.repo.ExistsByEmail(ctx, *in.Email)
		if err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		if taken {
			return nil, &domain.AlreadyExistsError{Field: "email", Value: *in.Email}
		}
		user.Email = *in.Email
	}

	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Residence != nil {
		user.Residence = *in.Residence
	}
	user.UpdatedAt = time.Now().UTC()

	saved, err := s.repo.Save(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	token, expiresIn, err := s.tokens.Issue(saved)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.log.Info().Str("user_id", saved.ID).Msg("profile updated")
	return &ports.AuthResult{Token: token, ExpiresIn: expiresIn, User: saved}, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	if !s.passwords.Matches(currentPassword, user.PasswordHash) {
		return domain.ErrInvalidPassword
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("change password: hash: %w", err)
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()

	if _, err := s.repo.Save(ctx, user); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password changed")
	return nil
}

// DeleteAccount runs the deletion saga: remote eligibility check, cascade
// delete for hosts, then the local soft delete. Nothing is written unless
// every remote step has succeeded.
func (s *AccountService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	role := user.Role.String()
	log := s.log.With().Str("user_id", userID).Str("role", role).Logger()
	log.Info().Msg("attempting to delete account")

	switch user.Role {
	case domain.RoleGuest:
		if err := s.checkEligibility(ctx, log, user); err != nil {
			s.recordDeletion(role, err)
			return err
		}
	case domain.RoleHost:
		if err := s.checkEligibility(ctx, log, user); err != nil {
			s.recordDeletion(role, err)
			return err
		}
		if err := s.cascadeDelete(ctx, log, user); err != nil {
			s.recordDeletion(role, err)
			return err
		}
	}

	log.Debug().Str("step", string(stepCommitting)).Msg("soft-deleting account")
	user.Deleted = true
	user.UpdatedAt = time.Now().UTC()
	if _, err := s.repo.Save(ctx, user); err != nil {
		log.Error().Err(err).Str("step", string(stepFailed)).Msg("failed to persist account deletion")
		s.recordDeletion(role, err)
		return fmt.Errorf("delete account: %w", err)
	}

	log.Info().Msg("account deleted")
	s.recordDeletion(role, nil)
	return nil
}

func (s *AccountService) checkEligibility(ctx context.Context, log zerolog.Logger, user *domain.User) error {
	log.Debug().Str("step", string(stepCheckingEligibility)).Msg("checking deletion eligibility")

	var (
		verdict domain.DeletionEligibility
		err     error
	)
	if user.Role == domain.RoleHost {
		verdict, err = s.eligibility.CheckHostEligibility(ctx, user.ID)
	} else {
		verdict, err = s.eligibility.CheckGuestEligibility(ctx, user.ID)
	}
	if err != nil {
		log.Error().Err(err).Str("step", string(stepFailed)).Msg("eligibility check failed")
		return fmt.Errorf("delete account: check eligibility: %w", err)
	}
	if verdict.CanProceed {
		return nil
	}

	log.Warn().
		Str("step", string(stepFailed)).
		Str("reason", verdict.Reason).
		Int("blocking_count", verdict.BlockingCount).
		Msg("account deletion blocked")

	msg := fmt.Sprintf("Cannot delete account: you have %d active reservation(s). "+
		"Please cancel or complete them before deleting your account.", verdict.BlockingCount)
	if user.Role == domain.RoleHost {
		msg = fmt.Sprintf("Cannot delete account: you have %d active reservation(s) on your accommodations. "+
			"Please wait for them to complete before deleting your account.", verdict.BlockingCount)
	}
	return &domain.DeletionBlockedError{
		BlockingCount: verdict.BlockingCount,
		Reason:        verdict.Reason,
		Message:       msg,
	}
}

func (s *AccountService) cascadeDelete(ctx context.Context, log zerolog.Logger, user *domain.User) error {
	log.Debug().Str("step", string(stepCascadeDeleting)).Msg("deleting host accommodations")

	result, err := s.cascade.DeleteAllOwnedByHost(ctx, user.ID)
	if err != nil {
		log.Error().Err(err).Str("step", string(stepFailed)).Msg("cascade delete failed")
		return fmt.Errorf("delete account: cascade: %w", err)
	}
	if !result.Succeeded {
		log.Error().Str("step", string(stepFailed)).Str("remote_error", result.ErrorMessage).Msg("accommodation service refused cascade delete")
		return &domain.CascadeDeleteError{Message: result.ErrorMessage}
	}

	log.Info().Int("deleted_count", result.AffectedCount).Msg("host accommodations deleted")
	return nil
}

func (s *AccountService) recordDeletion(role string, err error) {
	var (
		blocked *domain.DeletionBlockedError
		cascade *domain.CascadeDeleteError
	)
	outcome := "deleted"
	switch {
	case err == nil:
	case errors.As(err, &blocked):
		outcome = "blocked"
	case errors.As(err, &cascade):
		outcome = "cascade_failed"
	case errors.Is(err, domain.ErrRemoteUnavailable):
		outcome = "remote_unavailable"
	default:
		outcome = "error"
	}
	metrics.AccountDeletionsTotal.WithLabelValues(role, outcome).Inc()
}
