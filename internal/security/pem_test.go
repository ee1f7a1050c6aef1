package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"
)

// rsaKeyPEM returns a fresh RSA key pair as PKCS#8 and PKIX PEM.
func rsaKeyPEM(t *testing.T) (privatePEM, publicPEM string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalPKCS8PrivateKey: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})),
		string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))
}

// newRSAProvider returns an RS256 TokenProvider built from PEM, the way keys arrive from config.
func newRSAProvider(t *testing.T) *TokenProvider {
	t.Helper()
	privatePEM, publicPEM := rsaKeyPEM(t)
	signer, err := ParsePrivateKey(privatePEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	pub, err := ParsePublicKey(publicPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	return NewTokenProvider(signer, pub, "test-issuer", "test-audience", time.Hour)
}
