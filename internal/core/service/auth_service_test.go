package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/storefront/internal/adapter/storage/memory"
	"github.com/rl1809/storefront/internal/core/domain"
)

func newAuthFixture() (*AuthService, *memory.Accounts, *memory.Sessions) {
	accounts := memory.NewAccounts()
	sessions := memory.NewSessions()
	return NewAuthService(accounts, sessions, bcrypt.MinCost, testLogger()), accounts, sessions
}

var validRegistration = RegisterInput{
	Name:      "Ana Torres",
	Email:     " Ana@Example.com ",
	Documento: "10203040",
	Password:  "Secret123",
}

func TestRegister_Success(t *testing.T) {
	svc, accounts, _ := newAuthFixture()

	account, err := svc.Register(context.Background(), validRegistration)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if account.Email != "ana@example.com" {
		t.Errorf("expected normalized email, got %q", account.Email)
	}
	if account.Role != domain.RoleUser {
		t.Errorf("expected role user, got %s", account.Role)
	}
	if account.PasswordHash == validRegistration.Password {
		t.Error("password stored in plain text")
	}

	stored, _ := accounts.FindAccountByDocument(context.Background(), "10203040")
	if stored == nil || stored.ID != account.ID {
		t.Errorf("expected account to be persisted, got %+v", stored)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newAuthFixture()

	cases := map[string]func(in *RegisterInput){
		"short name":        func(in *RegisterInput) { in.Name = "Al" },
		"bad email":         func(in *RegisterInput) { in.Email = "not-an-email" },
		"letters documento": func(in *RegisterInput) { in.Documento = "12ab5678" },
		"short documento":   func(in *RegisterInput) { in.Documento = "12345" },
		"short password":    func(in *RegisterInput) { in.Password = "Ab1" },
		"no digit":          func(in *RegisterInput) { in.Password = "Secretpass" },
		"no upper":          func(in *RegisterInput) { in.Password = "secret123" },
		"long password":     func(in *RegisterInput) { in.Password = "Secret123" + strings.Repeat("x", 64) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validRegistration
			mutate(&in)
			_, err := svc.Register(context.Background(), in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got: %v", err)
			}
		})
	}
}

func TestRegister_Duplicates(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegistration); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	sameEmail := validRegistration
	sameEmail.Documento = "99999999"
	if _, err := svc.Register(ctx, sameEmail); !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got: %v", err)
	}

	sameDoc := validRegistration
	sameDoc.Email = "other@example.com"
	if _, err := svc.Register(ctx, sameDoc); !errors.Is(err, domain.ErrDocumentTaken) {
		t.Errorf("expected ErrDocumentTaken, got: %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	registered, err := svc.Register(ctx, validRegistration)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	account, err := svc.Login(ctx, "10203040", "Secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if account.ID != registered.ID {
		t.Errorf("expected account %s, got %s", registered.ID, account.ID)
	}

	if _, err := svc.Login(ctx, "10203040", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got: %v", err)
	}
	if _, err := svc.Login(ctx, "00000000", "Secret123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown documento, got: %v", err)
	}
}

func TestLoginWithGoogle_FindOrCreate(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()
	profile := GoogleProfile{Subject: "1098765432123", Email: "Luis@Example.com", EmailVerified: true, Name: "Luis"}

	created, err := svc.LoginWithGoogle(ctx, profile)
	if err != nil {
		t.Fatalf("google login failed: %v", err)
	}
	if created.Documento != "G1098765432" {
		t.Errorf("expected documento G1098765432, got %s", created.Documento)
	}
	if created.Provider != domain.ProviderGoogle || created.PasswordHash != "" {
		t.Errorf("expected passwordless google account, got %+v", created)
	}

	again, err := svc.LoginWithGoogle(ctx, profile)
	if err != nil {
		t.Fatalf("second google login failed: %v", err)
	}
	if again.ID != created.ID {
		t.Errorf("expected the same account, got %s and %s", created.ID, again.ID)
	}

	// passwordless accounts cannot use credential login
	if _, err := svc.Login(ctx, created.Documento, ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got: %v", err)
	}
}

func TestLoginWithGoogle_UnverifiedEmailRejected(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	owner, err := svc.Register(ctx, validRegistration)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err = svc.LoginWithGoogle(ctx, GoogleProfile{Subject: "55555555555", Email: owner.Email})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unverified email, got: %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create session failed: %v", err)
	}
	if session.Authenticated() {
		t.Error("new session should be anonymous")
	}

	bound, err := svc.BindSession(ctx, session.ID, domain.Account{ID: "acc-1", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("bind failed: %v", err)
	}
	if bound.AccountID != "acc-1" || bound.Role != domain.RoleAdmin {
		t.Errorf("unexpected bound session %+v", bound)
	}

	resolved, err := svc.ResolveSession(ctx, session.ID)
	if err != nil || !resolved.Authenticated() {
		t.Errorf("expected authenticated session, got %+v (%v)", resolved, err)
	}

	unbound, err := svc.UnbindSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("unbind failed: %v", err)
	}
	if unbound.Authenticated() {
		t.Error("session still authenticated after unbind")
	}

	if _, err := svc.ResolveSession(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got: %v", err)
	}
}
