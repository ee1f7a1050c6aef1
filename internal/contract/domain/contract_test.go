package domain

import (
	"testing"
	"time"

	account "contract-rbac/internal/account/domain"
	resource "contract-rbac/internal/resource/domain"
)

func TestContract_UpdateKeepsOwnership(t *testing.T) {
	now := time.Now().UTC()
	owner := resource.Owner{ID: "org-1", Type: account.TypeOrganization}
	c := New("c-1", owner, "Software License", "Terms and conditions", now)
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	u := c.Update("Updated License", "New terms", now.Add(time.Minute))
	if u.Owner != owner || u.ID != c.ID || !u.CreatedAt.Equal(c.CreatedAt) {
		t.Errorf("Update changed identity or ownership: %+v", u.Ownership)
	}
	if u.Name != "Updated License" || u.Description != "New terms" {
		t.Errorf("Update fields = %q / %q", u.Name, u.Description)
	}
	if c.Name != "Software License" {
		t.Error("Update must not mutate the receiver")
	}
	if !u.UpdatedAt.After(c.UpdatedAt) {
		t.Error("UpdatedAt not advanced")
	}
}

func TestContract_Validate(t *testing.T) {
	now := time.Now()
	testCases := []struct {
		name    string
		c       *Contract
		wantErr bool
	}{
		{"valid", New("c-1", resource.Owner{ID: "a", Type: account.TypePersonal}, "n", "", now), false},
		{"no name", New("c-1", resource.Owner{ID: "a", Type: account.TypePersonal}, "  ", "", now), true},
		{"no owner", New("c-1", resource.Owner{}, "n", "", now), true},
		{"no id", New("", resource.Owner{ID: "a", Type: account.TypePersonal}, "n", "", now), true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.c.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
