// Package domain holds the account model: a tagged union of personal and organization
// accounts, and the membership engine that operates on an organization snapshot.
package domain

import (
	"time"
)

// Type tags the account variant. It is persisted with every account record and is
// the only thing used to decide which variant to decode.
type Type string

const (
	TypePersonal     Type = "personal"
	TypeOrganization Type = "organization"
)

// Valid reports whether t is a known account type.
func (t Type) Valid() bool {
	return t == TypePersonal || t == TypeOrganization
}

// Account is implemented by *Personal and *Organization.
type Account interface {
	AccountID() string
	AccountType() Type
	Created() time.Time
	Updated() time.Time
}

// touch returns the later of prev and now so updated timestamps never move backwards.
func touch(prev, now time.Time) time.Time {
	now = now.UTC()
	if now.Before(prev) {
		return prev
	}
	return now
}
