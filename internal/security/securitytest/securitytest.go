// Package securitytest builds security collaborators for tests in other packages.
package securitytest

import (
	"testing"
	"time"

	"contract-rbac/internal/security"
)

// NewTokenProvider returns a TokenProvider signing with a fresh ES256 key, issuer
// "test-issuer" and audience "test-audience".
func NewTokenProvider(t testing.TB) *security.TokenProvider {
	t.Helper()
	signer, pub, err := security.GenerateEphemeralKey()
	if err != nil {
		t.Fatalf("generate signing key: %v", err)
	}
	return security.NewTokenProvider(signer, pub, "test-issuer", "test-audience", time.Hour)
}
