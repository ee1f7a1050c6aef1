package domain

import (
	"strings"
	"testing"
	"time"
)

func TestNewPersonal_NormalizesEmail(t *testing.T) {
	p := NewPersonal("p-1", "  Alice@Example.COM ", "hash", t0)
	if p.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", p.Email, "alice@example.com")
	}
	if p.AccountType() != TypePersonal {
		t.Errorf("AccountType = %q", p.AccountType())
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestPersonal_WithEmailAndCredential(t *testing.T) {
	p := NewPersonal("p-1", "alice@example.com", "hash-1", t0)
	later := t0.Add(time.Minute)

	p2 := p.WithEmail("ALICE2@example.com", later)
	if p2.Email != "alice2@example.com" || p.Email != "alice@example.com" {
		t.Errorf("WithEmail: got %q (original %q)", p2.Email, p.Email)
	}
	p3 := p2.WithCredential("hash-2", later.Add(time.Minute))
	if p3.CredentialHash != "hash-2" || p2.CredentialHash != "hash-1" {
		t.Error("WithCredential must copy")
	}
	if p3.UpdatedAt.Before(p2.UpdatedAt) || p3.UpdatedAt.Before(p3.CreatedAt) {
		t.Error("UpdatedAt must be non-decreasing")
	}
}

func TestValidateEmail(t *testing.T) {
	testCases := []struct {
		email string
		ok    bool
	}{
		{"alice@example.com", true},
		{"", false},
		{"alice", false},
		{"@example.com", false},
		{"alice@", false},
		{"al ice@example.com", false},
	}
	for _, tc := range testCases {
		t.Run(tc.email, func(t *testing.T) {
			err := ValidateEmail(tc.email)
			if (err == nil) != tc.ok {
				t.Errorf("ValidateEmail(%q) = %v, want ok=%v", tc.email, err, tc.ok)
			}
		})
	}
}

func TestValidateSecret(t *testing.T) {
	tests := []struct {
		secret  string
		wantErr bool
	}{
		{"", true},
		{"short", true},
		{"password", false},
		{strings.Repeat("x", 72), false},
		{strings.Repeat("x", 73), true},
	}
	for _, tt := range tests {
		if err := ValidateSecret(tt.secret); (err != nil) != tt.wantErr {
			t.Errorf("ValidateSecret(len %d) err = %v, wantErr %v", len(tt.secret), err, tt.wantErr)
		}
	}
}
