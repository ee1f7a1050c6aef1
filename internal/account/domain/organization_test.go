package domain

import (
	"errors"
	"sort"
	"testing"
	"time"

	"contract-rbac/internal/apperr"
	membership "contract-rbac/internal/membership/domain"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newTechCorp() *Organization {
	return NewOrganization("org-1", "alice", "Tech Corp", "A tech company", t0)
}

func memberIDs(o *Organization) []string {
	out := make([]string, 0, len(o.Members))
	for _, m := range o.Members {
		out = append(out, m.MemberID)
	}
	sort.Strings(out)
	return out
}

func TestOrganization_OwnerRoleIsDerived(t *testing.T) {
	org := newTechCorp()
	role, ok := org.MemberRole("alice")
	if !ok || role != membership.RoleOwner {
		t.Fatalf("MemberRole(owner) = %q, %v; want owner, true", role, ok)
	}
	org, err := org.AddMember("bob", membership.RoleEditor, t0)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	for _, m := range org.Members {
		if m.MemberID == org.OwnerID {
			t.Fatal("owner must never be stored as a member")
		}
	}
	if role, _ := org.MemberRole("alice"); role != membership.RoleOwner {
		t.Errorf("owner role after mutation = %q, want owner", role)
	}
}

func TestOrganization_OwnerMutationsRejected(t *testing.T) {
	org := newTechCorp()
	testCases := []struct {
		name string
		fn   func() error
	}{
		{"add", func() error { _, err := org.AddMember("alice", membership.RoleEditor, t0); return err }},
		{"update", func() error { _, err := org.UpdateMemberRole("alice", membership.RoleViewer, t0); return err }},
		{"remove", func() error { _, err := org.RemoveMember("alice", t0); return err }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn()
			if !errors.Is(err, apperr.InvalidArgument) {
				t.Errorf("err = %v, want InvalidArgument", err)
			}
		})
	}
}

func TestOrganization_AddMember(t *testing.T) {
	org := newTechCorp()
	later := t0.Add(time.Minute)
	updated, err := org.AddMember("bob", membership.RoleEditor, later)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if len(org.Members) != 0 {
		t.Error("AddMember must not mutate the receiver")
	}
	if role, ok := updated.MemberRole("bob"); !ok || role != membership.RoleEditor {
		t.Errorf("MemberRole(bob) = %q, %v; want editor", role, ok)
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", updated.UpdatedAt, later)
	}

	if _, err := updated.AddMember("bob", membership.RoleViewer, later); !errors.Is(err, apperr.InvalidArgument) {
		t.Errorf("duplicate AddMember err = %v, want InvalidArgument", err)
	}
	if _, err := updated.AddMember("carol", membership.RoleOwner, later); !errors.Is(err, apperr.InvalidArgument) {
		t.Errorf("AddMember with owner role err = %v, want InvalidArgument", err)
	}
	if _, err := updated.AddMember("", membership.RoleViewer, later); !errors.Is(err, apperr.InvalidArgument) {
		t.Errorf("AddMember with empty id err = %v, want InvalidArgument", err)
	}
}

func TestOrganization_AddThenRemoveRestoresMembers(t *testing.T) {
	org := newTechCorp()
	org, _ = org.AddMember("bob", membership.RoleEditor, t0)
	org, _ = org.AddMember("carol", membership.RoleViewer, t0)
	before := memberIDs(org)

	added, err := org.AddMember("dave", membership.RoleViewer, t0)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	removed, err := added.RemoveMember("dave", t0)
	if err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	after := memberIDs(removed)
	if len(before) != len(after) {
		t.Fatalf("members = %v, want %v", after, before)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("members = %v, want %v", after, before)
		}
	}
}

func TestOrganization_RemoveAbsentMemberIsNoop(t *testing.T) {
	org := newTechCorp()
	org, _ = org.AddMember("bob", membership.RoleEditor, t0)
	out, err := org.RemoveMember("nobody", t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if len(out.Members) != 1 || !out.UpdatedAt.Equal(org.UpdatedAt) {
		t.Errorf("RemoveMember of absent id changed state: %+v", out)
	}
}

func TestOrganization_UpdateMemberRole(t *testing.T) {
	org := newTechCorp()
	org, _ = org.AddMember("bob", membership.RoleEditor, t0)

	demoted, err := org.UpdateMemberRole("bob", membership.RoleViewer, t0)
	if err != nil {
		t.Fatalf("UpdateMemberRole: %v", err)
	}
	if role, _ := demoted.MemberRole("bob"); role != membership.RoleViewer {
		t.Errorf("role = %q, want viewer", role)
	}
	if role, _ := org.MemberRole("bob"); role != membership.RoleEditor {
		t.Error("UpdateMemberRole must not mutate the receiver")
	}
	if _, err := org.UpdateMemberRole("nobody", membership.RoleViewer, t0); !errors.Is(err, apperr.NotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func TestOrganization_MemberRoleAbsent(t *testing.T) {
	org := newTechCorp()
	if role, ok := org.MemberRole("mallory"); ok || role != "" {
		t.Errorf("MemberRole(non-member) = %q, %v; want no role", role, ok)
	}
	if org.IsMember("mallory") {
		t.Error("IsMember(non-member) = true")
	}
	if !org.IsMember("alice") {
		t.Error("IsMember(owner) = false")
	}
	if org.IsMember("") {
		t.Error("IsMember(\"\") = true")
	}
}

func TestOrganization_UpdatedAtNeverMovesBackwards(t *testing.T) {
	org := newTechCorp()
	earlier := t0.Add(-time.Hour)
	out, err := org.AddMember("bob", membership.RoleViewer, earlier)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if out.UpdatedAt.Before(out.CreatedAt) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", out.UpdatedAt, out.CreatedAt)
	}
}

func TestOrganization_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(o *Organization)
		wantErr bool
	}{
		{"valid", func(o *Organization) {}, false},
		{"missing name", func(o *Organization) { o.Name = "" }, true},
		{"missing owner", func(o *Organization) { o.OwnerID = "" }, true},
		{"owner as member", func(o *Organization) {
			o.Members = []membership.Membership{{MemberID: "alice", Role: membership.RoleEditor}}
		}, true},
		{"duplicate member", func(o *Organization) {
			o.Members = []membership.Membership{{MemberID: "bob", Role: membership.RoleEditor}, {MemberID: "bob", Role: membership.RoleViewer}}
		}, true},
		{"stored owner role", func(o *Organization) {
			o.Members = []membership.Membership{{MemberID: "bob", Role: membership.RoleOwner}}
		}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			org := newTechCorp()
			tc.mutate(org)
			err := org.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
