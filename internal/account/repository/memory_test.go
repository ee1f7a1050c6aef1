package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-rbac/internal/account/domain"
	"contract-rbac/internal/apperr"
	membership "contract-rbac/internal/membership/domain"
	resource "contract-rbac/internal/resource/domain"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func seedPersonal(t *testing.T, r *MemoryRepository, id, email string) *domain.Personal {
	t.Helper()
	p := domain.NewPersonal(id, email, "hash", t0)
	require.NoError(t, r.Save(context.Background(), p))
	return p
}

func TestMemoryRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seedPersonal(t, r, "alice", "Alice@Example.com")

	got, err := r.FindByID(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.TypePersonal, got.AccountType())

	p, err := r.FindPersonalByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "alice", p.ID)

	exists, err := r.ExistsByEmail(ctx, " ALICE@example.com ")
	require.NoError(t, err)
	assert.True(t, exists)

	missing, err := r.FindByID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	org, err := r.FindOrganizationByID(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, org, "personal account must not decode as organization")
}

func TestMemoryRepository_DuplicateEmail(t *testing.T) {
	r := NewMemoryRepository()
	seedPersonal(t, r, "alice", "alice@example.com")

	err := r.Save(context.Background(), domain.NewPersonal("other", "alice@example.com", "hash", t0))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.Conflict)
}

func TestMemoryRepository_TypeAndOwnerImmutable(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seedPersonal(t, r, "alice", "alice@example.com")
	seedPersonal(t, r, "mallory", "mallory@example.com")

	org := domain.NewOrganization("tech", "alice", "Tech Corp", "", t0)
	require.NoError(t, r.Save(ctx, org))

	hijack := org.Clone()
	hijack.OwnerID = "mallory"
	require.NoError(t, r.Save(ctx, hijack))
	stored, err := r.FindOrganizationByID(ctx, "tech")
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.OwnerID)

	err = r.Save(ctx, domain.NewPersonal("tech", "tech@example.com", "hash", t0))
	assert.ErrorIs(t, err, apperr.Conflict)
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seedPersonal(t, r, "alice", "alice@example.com")
	seedPersonal(t, r, "bob", "bob@example.com")
	org := domain.NewOrganization("tech", "alice", "Tech Corp", "", t0)
	require.NoError(t, r.Save(ctx, org))

	fetched, err := r.FindOrganizationByID(ctx, "tech")
	require.NoError(t, err)
	fetched.Members = append(fetched.Members, membership.Membership{MemberID: "bob", Role: membership.RoleEditor})

	again, err := r.FindOrganizationByID(ctx, "tech")
	require.NoError(t, err)
	assert.Empty(t, again.Members)
}

func TestMemoryRepository_OrganizationQueries(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seedPersonal(t, r, "alice", "alice@example.com")
	seedPersonal(t, r, "bob", "bob@example.com")

	first := domain.NewOrganization("org-1", "alice", "First", "", t0)
	second := domain.NewOrganization("org-2", "alice", "Second", "", t0.Add(time.Minute))
	second, err := second.AddMember("bob", membership.RoleViewer, t0.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, r.Save(ctx, second))
	require.NoError(t, r.Save(ctx, first))

	owned, err := r.FindOrganizationsByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "org-1", owned[0].ID)
	assert.Equal(t, "org-2", owned[1].ID)

	memberOf, err := r.FindOrganizationsByMember(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, memberOf, 1)
	assert.Equal(t, "org-2", memberOf[0].ID)

	none, err := r.FindOrganizationsByMember(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryRepository_Delete(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seedPersonal(t, r, "alice", "alice@example.com")
	require.NoError(t, r.Save(ctx, domain.NewOrganization("tech", "alice", "Tech Corp", "", t0)))

	_, err := r.DeleteByID(ctx, "alice")
	assert.ErrorIs(t, err, apperr.Conflict, "owner of an organization cannot be deleted")

	ok, err := r.DeleteByID(ctx, "tech")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.DeleteByID(ctx, "tech")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.DeleteByID(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryRepository_OrganizationNeedsExistingOwner(t *testing.T) {
	r := NewMemoryRepository()
	err := r.Save(context.Background(), domain.NewOrganization("tech", "ghost", "Tech Corp", "", t0))
	assert.ErrorIs(t, err, apperr.Conflict)
}

func TestMemoryRepository_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewMemoryRepository()

	_, err := r.FindByID(ctx, "alice")
	assert.Equal(t, apperr.Unavailable, apperr.KindOf(err))
	err = r.Save(ctx, domain.NewPersonal("alice", "alice@example.com", "hash", t0))
	assert.Equal(t, apperr.Unavailable, apperr.KindOf(err))
}

func TestMemoryRepository_UpdateNeverInserts(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seedPersonal(t, r, "alice", "alice@example.com")
	org := domain.NewOrganization("tech", "alice", "Tech Corp", "", t0)
	require.NoError(t, r.Save(ctx, org))

	renamed := org.WithDetails("Tech Corporation", "", t0.Add(time.Minute))
	require.NoError(t, r.Update(ctx, renamed))
	stored, err := r.FindOrganizationByID(ctx, "tech")
	require.NoError(t, err)
	assert.Equal(t, "Tech Corporation", stored.Name)

	ok, err := r.DeleteByID(ctx, "tech")
	require.NoError(t, err)
	require.True(t, ok)

	err = r.Update(ctx, renamed)
	assert.ErrorIs(t, err, apperr.NotFound)
	gone, err := r.FindByID(ctx, "tech")
	require.NoError(t, err)
	assert.Nil(t, gone)

	err = r.Update(ctx, domain.NewPersonal("alice", "alice@example.com", "hash", t0).WithEmail("tech@example.com", t0))
	require.NoError(t, err)
	err = r.Update(ctx, domain.NewOrganization("alice", "alice", "Not a personal", "", t0))
	assert.ErrorIs(t, err, apperr.NotFound, "update never changes the account type")
}

type countOnly map[resource.Owner]int64

func (c countOnly) CountByOwner(_ context.Context, owner resource.Owner) (int64, error) {
	return c[owner], nil
}

func TestMemoryRepository_DeleteRefusesContractOwner(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seedPersonal(t, r, "alice", "alice@example.com")
	r.TrackContracts(countOnly{{ID: "alice", Type: domain.TypePersonal}: 1})

	_, err := r.DeleteByID(ctx, "alice")
	assert.ErrorIs(t, err, apperr.Conflict)
	still, err := r.FindByID(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestMemoryRepository_GuardOwner(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	seedPersonal(t, r, "alice", "alice@example.com")

	ran := false
	err := r.GuardOwner(ctx, resource.Owner{ID: "alice", Type: domain.TypePersonal}, func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	err = r.GuardOwner(ctx, resource.Owner{ID: "alice", Type: domain.TypeOrganization}, func() error {
		t.Fatal("guard ran for an owner of the wrong type")
		return nil
	})
	assert.ErrorIs(t, err, apperr.Conflict)
}
