// Package service implements registration, login and caller resolution for personal accounts.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	account "contract-rbac/internal/account/domain"
	"contract-rbac/internal/apperr"
	"contract-rbac/internal/telemetry"
)

// AuthResult holds the outcome of Register or Login.
type AuthResult struct {
	AccountID   string
	AccessToken string
	ExpiresAt   time.Time
}

// AccountStore is the minimal account repository needed by the auth service.
type AccountStore interface {
	Save(ctx context.Context, a account.Account) error
	FindPersonalByID(ctx context.Context, id string) (*account.Personal, error)
	FindPersonalByEmail(ctx context.Context, email string) (*account.Personal, error)
}

// Hasher hashes and verifies secrets. Implemented by *security.Hasher.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, hash string) bool
}

// Tokens issues and validates access tokens. Implemented by *security.TokenProvider.
type Tokens interface {
	IssueAccess(accountID string) (token string, expiresAt time.Time, err error)
	ValidateAccess(token string) (accountID string, err error)
}

// AuthService registers personal accounts and turns credentials into access tokens.
type AuthService struct {
	accounts AccountStore
	hasher   Hasher
	tokens   Tokens
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(accounts AccountStore, hasher Hasher, tokens Tokens) *AuthService {
	return &AuthService{accounts: accounts, hasher: hasher, tokens: tokens}
}

// Register creates a personal account for email and returns an access token for it.
// An email that is already registered is a Conflict.
func (s *AuthService) Register(ctx context.Context, email, secret string) (*AuthResult, error) {
	const op = "auth.register"
	email = account.NormalizeEmail(email)
	if err := account.ValidateEmail(email); err != nil {
		return nil, apperr.Wrap(apperr.InvalidArgument, op, err)
	}
	if err := account.ValidateSecret(secret); err != nil {
		return nil, apperr.Wrap(apperr.InvalidArgument, op, err)
	}
	existing, err := s.accounts.FindPersonalByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.E(apperr.Conflict, op, "email already registered")
	}
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, op, err)
	}
	p := account.NewPersonal(id.String(), email, hash, time.Now())
	if err := s.accounts.Save(ctx, p); err != nil {
		return nil, err
	}
	telemetry.GetMetrics().AccountsRegisteredTotal.Add(ctx, 1)
	zerolog.Ctx(ctx).Info().Str("account_id", p.ID).Msg("personal account registered")
	return s.issue(p.ID)
}

// Login verifies email and secret and returns an access token. Unknown email and wrong
// secret are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, secret string) (*AuthResult, error) {
	const op = "auth.login"
	email = account.NormalizeEmail(email)
	if email == "" || secret == "" {
		return nil, s.loginFailed(ctx, op, "missing_credentials")
	}
	p, err := s.accounts.FindPersonalByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, s.loginFailed(ctx, op, "unknown_email")
	}
	if !s.hasher.Verify(secret, p.CredentialHash) {
		return nil, s.loginFailed(ctx, op, "bad_secret")
	}
	return s.issue(p.ID)
}

// ResolveCaller returns the account id carried by token. The account must still exist.
func (s *AuthService) ResolveCaller(ctx context.Context, token string) (string, error) {
	const op = "auth.resolve_caller"
	if token == "" {
		return "", apperr.E(apperr.Unauthenticated, op, "missing token")
	}
	id, err := s.tokens.ValidateAccess(token)
	if err != nil {
		return "", apperr.Wrap(apperr.Unauthenticated, op, err)
	}
	p, err := s.accounts.FindPersonalByID(ctx, id)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", apperr.E(apperr.Unauthenticated, op, "account no longer exists")
	}
	return p.ID, nil
}

func (s *AuthService) issue(accountID string) (*AuthResult, error) {
	token, exp, err := s.tokens.IssueAccess(accountID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "auth.issue", err)
	}
	return &AuthResult{AccountID: accountID, AccessToken: token, ExpiresAt: exp}, nil
}

var errInvalidCredentials = errors.New("invalid credentials")

func (s *AuthService) loginFailed(ctx context.Context, op, reason string) error {
	telemetry.GetMetrics().LoginFailuresTotal.Add(ctx, 1)
	zerolog.Ctx(ctx).Debug().Str("reason", reason).Msg("login rejected")
	return apperr.Wrap(apperr.Unauthenticated, op, errInvalidCredentials)
}
