package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/devoops/user-service/internal/core/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// ---------------------------------------------------------------------------
// Repository stub with soft-delete visibility
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID        map[string]*domain.User
	saves       int
	existsCalls int
	saveErr     error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) seed(u *domain.User) *domain.User {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	r.byID[u.ID] = cloneUser(u)
	return u
}

func (r *stubUserRepo) findActive(match func(*domain.User) bool) (*domain.User, error) {
	for _, u := range r.byID {
		if !u.Deleted && match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.findActive(func(u *domain.User) bool { return u.ID == id })
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.findActive(func(u *domain.User) bool { return u.Username == username })
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.findActive(func(u *domain.User) bool { return u.Email == email })
}

func (r *stubUserRepo) FindByUsernameOrEmail(_ context.Context, username, email string) (*domain.User, error) {
	return r.findActive(func(u *domain.User) bool { return u.Username == username || u.Email == email })
}

func (r *stubUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	r.existsCalls++
	_, err := r.FindByUsername(ctx, username)
	return err == nil, nil
}

func (r *stubUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.existsCalls++
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *stubUserRepo) Save(_ context.Context, u *domain.User) (*domain.User, error) {
	if r.saveErr != nil {
		return nil, r.saveErr
	}
	r.saves++
	copy := cloneUser(u)
	if copy.ID == "" {
		copy.ID = uuid.NewString()
	}
	r.byID[copy.ID] = cloneUser(copy)
	return copy, nil
}

func (r *stubUserRepo) FindByIDIncludingDeleted(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.byID[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) countUsername(username string) int {
	n := 0
	for _, u := range r.byID {
		if u.Username == username {
			n++
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Remote facade stubs
// ---------------------------------------------------------------------------

type stubEligibility struct {
	verdict    domain.DeletionEligibility
	err        error
	guestCalls int
	hostCalls  int
}

func (s *stubEligibility) CheckGuestEligibility(_ context.Context, _ string) (domain.DeletionEligibility, error) {
	s.guestCalls++
	return s.verdict, s.err
}

func (s *stubEligibility) CheckHostEligibility(_ context.Context, _ string) (domain.DeletionEligibility, error) {
	s.hostCalls++
	return s.verdict, s.err
}

type stubCascade struct {
	result domain.CascadeResult
	err    error
	calls  int
	// saves records how many repository writes had happened when the cascade ran.
	repo        *stubUserRepo
	savesAtCall int
}

func (s *stubCascade) DeleteAllOwnedByHost(_ context.Context, _ string) (domain.CascadeResult, error) {
	s.calls++
	if s.repo != nil {
		s.savesAtCall = s.repo.saves
	}
	return s.result, s.err
}

type stubPublisher struct {
	events []domain.UserCreatedEvent
	err    error
}

func (p *stubPublisher) PublishUserCreated(_ context.Context, e domain.UserCreatedEvent) error {
	p.events = append(p.events, e)
	return p.err
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newTestPasswords() *PasswordVerifier {
	return NewPasswordVerifier(bcrypt.MinCost)
}

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()
	tokens, err := NewTokenService(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return tokens
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	hash, err := newTestPasswords().Hash(plain)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return hash
}

func isAlreadyExists(err error, field string) bool {
	var ae *domain.AlreadyExistsError
	return errors.As(err, &ae) && strings.EqualFold(ae.Field, field)
}
