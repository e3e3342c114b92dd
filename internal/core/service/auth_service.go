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

// AuthService implements registration and login.
type AuthService struct {
	repo      ports.UserRepository
	passwords *PasswordVerifier
	tokens    *TokenService
	events    ports.UserEventPublisher
	log       zerolog.Logger
}

func NewAuthService(
	repo ports.UserRepository,
	passwords *PasswordVerifier,
	tokens *TokenService,
	events ports.UserEventPublisher,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:      repo,
		passwords: passwords,
		tokens:    tokens,
		events:    events,
		log:       log,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	s.log.Info().Str("username", in.Username).Str("email", in.Email).Msg("registration attempt")

	taken, err := s.repo.ExistsByUsername(ctx, in.Username)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}
	if taken {
		s.log.Warn().Str("username", in.Username).Msg("registration failed, username already exists")
		metrics.AuthAttemptsTotal.WithLabelValues("register", "conflict").Inc()
		return nil, &domain.AlreadyExistsError{Field: "username", Value: in.Username}
	}

	taken, err = s.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("register", "error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}
	if taken {
		s.log.Warn().Str("email", in.Email).Msg("registration failed, email already exists")
		metrics.AuthAttemptsTotal.WithLabelValues("register", "conflict").Inc()
		return nil, &domain.AlreadyExistsError{Field: "email", Value: in.Email}
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := time.Now().UTC()
	saved, err := s.repo.Save(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Residence:    in.Residence,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		result := "error"
		if errors.Is(err, domain.ErrUserExists) {
			result = "conflict"
		}
		metrics.AuthAttemptsTotal.WithLabelValues("register", result).Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	token, expiresIn, err := s.tokens.Issue(saved)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.log.Info().
		Str("user_id", saved.ID).
		Str("username", saved.Username).
		Str("role", saved.Role.String()).
		Msg("registration successful")
	metrics.AuthAttemptsTotal.WithLabelValues("register", "success").Inc()

	// Fire-and-forget: a broker hiccup must not fail a completed registration.
	if err := s.events.PublishUserCreated(ctx, domain.UserCreatedEvent{UserID: saved.ID, Email: saved.Email}); err != nil {
		s.log.Warn().Err(err).Str("user_id", saved.ID).Msg("failed to publish user.created event")
	}

	return &ports.AuthResult{Token: token, ExpiresIn: expiresIn, User: saved}, nil
}

func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string) (*ports.AuthResult, error) {
	s.log.Info().Str("login", usernameOrEmail).Msg("login attempt")

	user, err := s.repo.FindByUsernameOrEmail(ctx, usernameOrEmail, usernameOrEmail)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.log.Error().Err(err).Str("login", usernameOrEmail).Msg("login lookup failed")
		} else {
			s.log.Warn().Str("login", usernameOrEmail).Msg("login failed, user not found")
		}
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if !s.passwords.Matches(password, user.PasswordHash) {
		s.log.Warn().Str("username", user.Username).Msg("login failed, invalid password")
		metrics.AuthAttemptsTotal.WithLabelValues("login", "invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresIn, err := s.tokens.Issue(user)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Str("role", user.Role.String()).
		Msg("login successful")
	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()

	return &ports.AuthResult{Token: token, ExpiresIn: expiresIn, User: user}, nil
}
