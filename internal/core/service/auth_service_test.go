package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/devoops/user-service/internal/core/domain"
	"github.com/devoops/user-service/internal/core/ports"
)

func newAuthSvc(t *testing.T, repo *stubUserRepo, pub *stubPublisher) *AuthService {
	t.Helper()
	return NewAuthService(repo, newTestPasswords(), newTestTokens(t), pub, zerolog.Nop())
}

func aliceInput() ports.RegisterInput {
	return ports.RegisterInput{
		Username:  "alice",
		Email:     "a@x.com",
		Password:  "pass1234",
		FirstName: "Alice",
		LastName:  "Liddell",
		Residence: "Wonderland",
		Role:      domain.RoleGuest,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	pub := &stubPublisher{}
	svc := newAuthSvc(t, repo, pub)

	res, err := svc.Register(context.Background(), aliceInput())
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if res.Token == "" {
		t.Fatalf("expected token, got empty")
	}
	if res.User.Role != domain.RoleGuest {
		t.Fatalf("expected role echoed back, got %s", res.User.Role)
	}
	if res.User.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
	if res.User.PasswordHash == "pass1234" {
		t.Fatalf("expected password to be hashed")
	}
	if !newTestPasswords().Matches("pass1234", res.User.PasswordHash) {
		t.Fatalf("stored hash does not match password")
	}
	if !svc.tokens.Validate(res.Token, res.User) {
		t.Fatalf("issued token does not validate for the new account")
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected one user.created event, got %d", len(pub.events))
	}
	if pub.events[0].UserID != res.User.ID || pub.events[0].Email != "a@x.com" {
		t.Fatalf("unexpected event: %+v", pub.events[0])
	}
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	repo := newStubUserRepo()
	pub := &stubPublisher{}
	svc := newAuthSvc(t, repo, pub)

	if _, err := svc.Register(context.Background(), aliceInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}

	in := aliceInput()
	in.Email = "other@x.com"
	_, err := svc.Register(context.Background(), in)
	if !isAlreadyExists(err, "username") {
		t.Fatalf("expected AlreadyExists{username}, got %v", err)
	}
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected error to match ErrUserExists")
	}
	if n := repo.countUsername("alice"); n != 1 {
		t.Fatalf("expected exactly one alice account, got %d", n)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected no event for the rejected registration")
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(t, repo, &stubPublisher{})

	_, _ = svc.Register(context.Background(), aliceInput())

	in := aliceInput()
	in.Username = "alice2"
	if _, err := svc.Register(context.Background(), in); !isAlreadyExists(err, "email") {
		t.Fatalf("expected AlreadyExists{email}, got %v", err)
	}
}

func TestAuthService_Register_ReusesDeletedIdentity(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(&domain.User{Username: "alice", Email: "a@x.com", Role: domain.RoleGuest, Deleted: true})
	svc := newAuthSvc(t, repo, &stubPublisher{})

	if _, err := svc.Register(context.Background(), aliceInput()); err != nil {
		t.Fatalf("expected deleted username/email to be reusable, got %v", err)
	}
}

func TestAuthService_Register_PublishFailureNotPropagated(t *testing.T) {
	repo := newStubUserRepo()
	pub := &stubPublisher{err: errors.New("broker down")}
	svc := newAuthSvc(t, repo, pub)

	if _, err := svc.Register(context.Background(), aliceInput()); err != nil {
		t.Fatalf("expected publish failure to be swallowed, got %v", err)
	}
}

func TestAuthService_Register_StorageConflict(t *testing.T) {
	repo := newStubUserRepo()
	repo.saveErr = &domain.AlreadyExistsError{Field: "username"}
	svc := newAuthSvc(t, repo, &stubPublisher{})

	if _, err := svc.Register(context.Background(), aliceInput()); !isAlreadyExists(err, "username") {
		t.Fatalf("expected storage conflict to surface as AlreadyExists, got %v", err)
	}
}

func TestAuthService_Login_ByUsernameAndEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(t, repo, &stubPublisher{})
	_, _ = svc.Register(context.Background(), aliceInput())

	for _, login := range []string{"alice", "a@x.com"} {
		res, err := svc.Login(context.Background(), login, "pass1234")
		if err != nil {
			t.Fatalf("login %q failed: %v", login, err)
		}
		if res.Token == "" || res.User.Username != "alice" {
			t.Fatalf("unexpected result for %q: %+v", login, res)
		}
		if res.ExpiresIn <= 0 {
			t.Fatalf("expected positive expiresIn")
		}
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newAuthSvc(t, repo, &stubPublisher{})
	_, _ = svc.Register(context.Background(), aliceInput())

	_, err := svc.Login(context.Background(), "alice", "badpass")
	if err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("wrong password must not look like a missing account")
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	svc := newAuthSvc(t, newStubUserRepo(), &stubPublisher{})

	if _, err := svc.Login(context.Background(), "ghost@example.com", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_DeletedAccount(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed(&domain.User{Username: "bob", Email: "b@x.com", PasswordHash: mustHash(t, "pass1234"), Role: domain.RoleHost, Deleted: true})
	svc := newAuthSvc(t, repo, &stubPublisher{})

	if _, err := svc.Login(context.Background(), "bob", "pass1234"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for deleted account, got %v", err)
	}
}
