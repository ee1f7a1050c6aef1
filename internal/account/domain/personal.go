package domain

import (
	"errors"
	"strings"
	"time"
)

// Personal is an individual account. It is the root owner of credentials, organizations
// and personal resources.
type Personal struct {
	ID             string
	Email          string
	CredentialHash string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewPersonal returns a personal account for email with an already hashed credential.
func NewPersonal(id, email, credentialHash string, now time.Time) *Personal {
	now = now.UTC()
	return &Personal{
		ID:             id,
		Email:          NormalizeEmail(email),
		CredentialHash: credentialHash,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (p *Personal) AccountID() string { return p.ID }
func (p *Personal) AccountType() Type { return TypePersonal }
func (p *Personal) Created() time.Time { return p.CreatedAt }
func (p *Personal) Updated() time.Time { return p.UpdatedAt }

// Validate validates the account for persistence. Returns an error describing the first validation failure.
func (p *Personal) Validate() error {
	if p.ID == "" {
		return errors.New("id is required")
	}
	if err := ValidateEmail(p.Email); err != nil {
		return err
	}
	if p.CredentialHash == "" {
		return errors.New("credential is required")
	}
	return nil
}

// WithEmail returns a copy of p with the new email and a refreshed UpdatedAt.
func (p *Personal) WithEmail(email string, now time.Time) *Personal {
	out := *p
	out.Email = NormalizeEmail(email)
	out.UpdatedAt = touch(p.UpdatedAt, now)
	return &out
}

// WithCredential returns a copy of p with the new credential hash and a refreshed UpdatedAt.
func (p *Personal) WithCredential(hash string, now time.Time) *Personal {
	out := *p
	out.CredentialHash = hash
	out.UpdatedAt = touch(p.UpdatedAt, now)
	return &out
}

// Secret length bounds. bcrypt ignores input past 72 bytes, so longer secrets are rejected.
const (
	MinSecretLen = 8
	MaxSecretLen = 72
)

// ValidateSecret checks a raw secret before it is hashed.
func ValidateSecret(secret string) error {
	if len(secret) < MinSecretLen {
		return errors.New("secret must be at least 8 characters")
	}
	if len(secret) > MaxSecretLen {
		return errors.New("secret must be at most 72 bytes")
	}
	return nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail does a structural check only; deliverability is not our concern.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t\r\n") {
		return errors.New("email is invalid")
	}
	return nil
}
