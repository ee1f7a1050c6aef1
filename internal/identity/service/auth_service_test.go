package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-rbac/internal/account/repository"
	"contract-rbac/internal/apperr"
	"contract-rbac/internal/security"
	"contract-rbac/internal/security/securitytest"
)

func newAuthService(t *testing.T) (*AuthService, *repository.MemoryRepository) {
	t.Helper()
	accounts := repository.NewMemoryRepository()
	return NewAuthService(accounts, security.NewHasher(4), securitytest.NewTokenProvider(t)), accounts
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)

	reg, err := svc.Register(ctx, " Alice@Example.com ", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, reg.AccountID)
	assert.NotEmpty(t, reg.AccessToken)
	assert.True(t, reg.ExpiresAt.After(time.Now()))

	caller, err := svc.ResolveCaller(ctx, reg.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.AccountID, caller)

	login, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, reg.AccountID, login.AccountID)

	caller, err = svc.ResolveCaller(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.AccountID, caller)
}

func TestAuthService_Register_Rejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)
	_, err := svc.Register(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	testCases := []struct {
		name   string
		email  string
		secret string
		kind   apperr.Kind
	}{
		{"duplicate email", "ALICE@example.com", "password456", apperr.Conflict},
		{"invalid email", "alice", "password123", apperr.InvalidArgument},
		{"empty email", "", "password123", apperr.InvalidArgument},
		{"short secret", "bob@example.com", "short", apperr.InvalidArgument},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.email, tc.secret)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestAuthService_Login_Rejects(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)
	_, err := svc.Register(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	testCases := []struct {
		name, email, secret string
	}{
		{"wrong secret", "alice@example.com", "wrong-password"},
		{"unknown email", "nobody@example.com", "password123"},
		{"empty secret", "alice@example.com", ""},
		{"empty email", "", "password123"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.email, tc.secret)
			assert.ErrorIs(t, err, apperr.Unauthenticated)
		})
	}
}

func TestAuthService_ResolveCaller_Rejects(t *testing.T) {
	ctx := context.Background()
	svc, accounts := newAuthService(t)

	_, err := svc.ResolveCaller(ctx, "")
	assert.ErrorIs(t, err, apperr.Unauthenticated)

	_, err = svc.ResolveCaller(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, apperr.Unauthenticated)

	reg, err := svc.Register(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	deleted, err := accounts.DeleteByID(ctx, reg.AccountID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = svc.ResolveCaller(ctx, reg.AccessToken)
	assert.ErrorIs(t, err, apperr.Unauthenticated, "tokens of deleted accounts stop working")
}
