// Package domain defines Contract, the concrete owned resource.
package domain

import (
	"errors"
	"strings"
	"time"

	resource "contract-rbac/internal/resource/domain"
)

// Contract is owned by exactly one personal or organization account.
type Contract struct {
	resource.Ownership
	Name        string
	Description string
}

// New returns a contract owned by owner.
func New(id string, owner resource.Owner, name, description string, now time.Time) *Contract {
	return &Contract{
		Ownership:   resource.NewOwnership(id, owner, now),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
}

// Kind returns the resource kind tag.
func (c *Contract) Kind() resource.Kind { return resource.KindContract }

// Validate validates the contract for persistence. Returns an error describing the first validation failure.
func (c *Contract) Validate() error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	if c.Owner.ID == "" || !c.Owner.Type.Valid() {
		return errors.New("owner is required")
	}
	if c.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// Update returns a copy of c with new name and description. Ownership is carried over unchanged.
func (c *Contract) Update(name, description string, now time.Time) *Contract {
	out := *c
	out.Name = strings.TrimSpace(name)
	out.Description = strings.TrimSpace(description)
	out.Touch(now)
	return &out
}
