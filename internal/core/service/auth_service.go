package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var (
	emailPattern     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	documentoPattern = regexp.MustCompile(`^[0-9]{6,15}$`)
)

const sessionCreateAttempts = 3

type AuthService struct {
	accounts   port.AccountRepository
	sessions   port.SessionStore
	bcryptCost int
	log        *logrus.Logger
}

func NewAuthService(accounts port.AccountRepository, sessions port.SessionStore, bcryptCost int, log *logrus.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{accounts: accounts, sessions: sessions, bcryptCost: bcryptCost, log: log}
}

type RegisterInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Documento string `json:"documento"`
	Password  string `json:"password"`
}

// GoogleProfile is the subset of the OpenID userinfo response used for login.
type GoogleProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.Account, error) {
	return s.register(ctx, in, domain.RoleUser)
}

// RegisterAdmin is used by the seed command.
func (s *AuthService) RegisterAdmin(ctx context.Context, in RegisterInput) (domain.Account, error) {
	return s.register(ctx, in, domain.RoleAdmin)
}

func (s *AuthService) register(ctx context.Context, in RegisterInput, role domain.Role) (domain.Account, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Documento = strings.TrimSpace(in.Documento)
	if err := validateRegistration(in); err != nil {
		return domain.Account{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		Documento:    in.Documento,
		PasswordHash: string(hash),
		Provider:     domain.ProviderCredentials,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.Account{}, err
		}
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	s.log.WithFields(logrus.Fields{"account_id": account.ID, "role": role}).Info("account registered")
	return account, nil
}

func (s *AuthService) Login(ctx context.Context, documento, password string) (domain.Account, error) {
	account, err := s.accounts.FindAccountByDocument(ctx, strings.TrimSpace(documento))
	if err != nil {
		return domain.Account{}, fmt.Errorf("find account: %w", err)
	}
	if account == nil || account.PasswordHash == "" {
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	return *account, nil
}

// LoginWithGoogle finds the account by email or creates a passwordless one.
// Only a verified Google email is trusted to link to an existing account.
func (s *AuthService) LoginWithGoogle(ctx context.Context, profile GoogleProfile) (domain.Account, error) {
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" || profile.Subject == "" {
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	if !profile.EmailVerified {
		return domain.Account{}, fmt.Errorf("%w: google email not verified", domain.ErrInvalidCredentials)
	}

	existing, err := s.accounts.FindAccountByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, fmt.Errorf("find account: %w", err)
	}
	if existing != nil {
		return *existing, nil
	}

	sub := profile.Subject
	if len(sub) > 10 {
		sub = sub[:10]
	}
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = email
	}
	now := time.Now().UTC()
	account := domain.Account{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Documento: "G" + sub,
		Provider:  domain.ProviderGoogle,
		Image:     profile.Picture,
		Role:      domain.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		return domain.Account{}, fmt.Errorf("create google account: %w", err)
	}

	s.log.WithField("account_id", account.ID).Info("google account created")
	return account, nil
}

// CreateSession stores a new anonymous session.
func (s *AuthService) CreateSession(ctx context.Context) (domain.Session, error) {
	for i := 0; i < sessionCreateAttempts; i++ {
		session := domain.Session{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
		ok, err := s.sessions.CreateSession(ctx, session)
		if err != nil {
			return domain.Session{}, fmt.Errorf("create session: %w", err)
		}
		if ok {
			return session, nil
		}
	}
	return domain.Session{}, errors.New("create session: id collision")
}

func (s *AuthService) ResolveSession(ctx context.Context, id string) (domain.Session, error) {
	if id == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return *session, nil
}

func (s *AuthService) BindSession(ctx context.Context, id string, account domain.Account) (domain.Session, error) {
	session, err := s.ResolveSession(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	session.AccountID = account.ID
	session.Role = account.Role
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("bind session: %w", err)
	}
	return session, nil
}

func (s *AuthService) UnbindSession(ctx context.Context, id string) (domain.Session, error) {
	session, err := s.ResolveSession(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	session.AccountID = ""
	session.Role = ""
	if err := s.sessions.UpdateSession(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("unbind session: %w", err)
	}
	return session, nil
}

func validateRegistration(in RegisterInput) error {
	if n := utf8.RuneCountInString(in.Name); n < 3 || n > 100 {
		return domain.Validationf("name must be between 3 and 100 characters")
	}
	if !emailPattern.MatchString(in.Email) {
		return domain.Validationf("invalid email")
	}
	if !documentoPattern.MatchString(in.Documento) {
		return domain.Validationf("documento must be 6 to 15 digits")
	}
	return validatePassword(in.Password)
}

func validatePassword(pw string) error {
	if len(pw) < 8 {
		return domain.Validationf("password must be at least 8 characters")
	}
	// bcrypt only hashes the first 72 bytes and rejects longer input
	if len(pw) > 72 {
		return domain.Validationf("password must be at most 72 bytes")
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return domain.Validationf("password needs an uppercase letter, a lowercase letter and a digit")
	}
	return nil
}
