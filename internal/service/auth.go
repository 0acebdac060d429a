package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bus_pass/internal/events"
	"github.com/Skotchmaster/bus_pass/internal/models"
	"github.com/Skotchmaster/bus_pass/internal/transport"
	"github.com/Skotchmaster/bus_pass/pkg/hash"
	"github.com/Skotchmaster/bus_pass/pkg/logging"
	"github.com/Skotchmaster/bus_pass/pkg/tokens"
)

type AuthService struct {
	Store      AccountStore
	Tokens     *tokens.Issuer
	Events     events.Publisher
	SessionTTL time.Duration
	BcryptCost int
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *models.Account
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validRole(role string) bool {
	return role == models.RoleAdmin || role == models.RoleStudent
}

// Signup creates a student account and logs it in. Admin accounts come only
// from the create-admin command or an admin's manual add.
func (s *AuthService) Signup(ctx context.Context, req transport.SignupRequest) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || req.Password == "" || name == "" {
		return nil, fmt.Errorf("name, email and password are required: %w", ErrValidation)
	}

	acc := &models.Account{
		Email:      email,
		Role:       models.RoleStudent,
		Name:       models.Str(name),
		MobileNo:   models.Str(strings.TrimSpace(req.MobileNo)),
		RollNumber: models.Str(strings.TrimSpace(req.RollNumber)),
	}

	if err := createAccount(ctx, s.Store, acc, req.Password, s.BcryptCost); err != nil {
		return nil, err
	}
	l.Info("signup_success", "account_id", acc.ID)
	publish(ctx, s.Events, acc.ID, events.Event{Type: events.AccountCreated, AccountID: acc.ID})

	return s.issue(acc)
}

// Login checks credentials. A non-empty role must match the account's role;
// a mismatch looks exactly like a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password, role string) (*LoginResult, error) {
	email = normalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required: %w", ErrValidation)
	}
	if role != "" && !validRole(role) {
		return nil, fmt.Errorf("unknown role %q: %w", role, ErrValidation)
	}

	acc, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	if !hash.CheckPassword(models.Deref(acc.PasswordHash), password) {
		l.Warn("login_failed", "reason", "bad password", "account_id", acc.ID)
		return nil, ErrInvalidCredentials
	}
	if role != "" && acc.Role != role {
		l.Warn("login_failed", "reason", "role mismatch", "account_id", acc.ID, "role", role)
		return nil, ErrInvalidCredentials
	}

	return s.issue(acc)
}

// EnsureAdmin creates the admin account unless the email is already taken.
// created reports whether a row was written.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) (acc *models.Account, created bool, err error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, false, fmt.Errorf("email and password are required: %w", ErrValidation)
	}

	existing, err := s.Store.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("find account: %w", err)
	}

	acc = &models.Account{Email: email, Role: models.RoleAdmin, Name: models.Str(strings.TrimSpace(name))}
	if err := createAccount(ctx, s.Store, acc, password, s.BcryptCost); err != nil {
		return nil, false, err
	}
	return acc, true, nil
}

func (s *AuthService) issue(acc *models.Account) (*LoginResult, error) {
	tok, exp, err := s.Tokens.Issue(tokens.SessionClaims{
		Email:            acc.Email,
		Role:             acc.Role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: acc.ID},
	}, s.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &LoginResult{Token: tok, ExpiresAt: exp, Account: acc}, nil
}

// createAccount hashes password (when given), checks the unique columns and
// inserts acc.
func createAccount(ctx context.Context, store AccountStore, acc *models.Account, password string, cost int) error {
	fields, err := store.FindConflicts(ctx, acc, "")
	if err != nil {
		return fmt.Errorf("check conflicts: %w", err)
	}
	if len(fields) > 0 {
		return &ConflictError{Fields: fields}
	}

	if password != "" {
		h, err := hash.HashPassword(password, cost)
		if err != nil {
			return err
		}
		acc.PasswordHash = &h
	}

	if err := store.Create(ctx, acc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &ConflictError{}
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}
