//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-rbac/internal/account/domain"
	"contract-rbac/internal/apperr"
	"contract-rbac/internal/db/dbtest"
	membership "contract-rbac/internal/membership/domain"
)

func TestIntegration_PostgresRepository(t *testing.T) {
	ctx := context.Background()
	r := NewPostgresRepository(dbtest.NewPool(t))

	alice := domain.NewPersonal("alice", "alice@example.com", "hash", t0)
	bob := domain.NewPersonal("bob", "bob@example.com", "hash", t0)
	require.NoError(t, r.Save(ctx, alice))
	require.NoError(t, r.Save(ctx, bob))

	t.Run("find personal", func(t *testing.T) {
		got, err := r.FindPersonalByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "alice", got.ID)
		assert.True(t, got.CreatedAt.Equal(t0))

		exists, err := r.ExistsByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		missing, err := r.FindByID(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := r.Save(ctx, domain.NewPersonal("mallory", "alice@example.com", "hash", t0))
		assert.ErrorIs(t, err, apperr.Conflict)
	})

	org := domain.NewOrganization("tech", "alice", "Tech Corp", "", t0)
	require.NoError(t, r.Save(ctx, org))

	t.Run("members round trip", func(t *testing.T) {
		updated, err := org.AddMember("bob", membership.RoleEditor, t0)
		require.NoError(t, err)
		require.NoError(t, r.Save(ctx, updated))

		got, err := r.FindOrganizationByID(ctx, "tech")
		require.NoError(t, err)
		require.NotNil(t, got)
		role, ok := got.MemberRole("bob")
		assert.True(t, ok)
		assert.Equal(t, membership.RoleEditor, role)

		byMember, err := r.FindOrganizationsByMember(ctx, "bob")
		require.NoError(t, err)
		require.Len(t, byMember, 1)
		assert.Equal(t, "tech", byMember[0].ID)

		byOwner, err := r.FindOrganizationsByOwner(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, byOwner, 1)
	})

	t.Run("type is immutable", func(t *testing.T) {
		err := r.Save(ctx, domain.NewOrganization("alice", "bob", "Hijack", "", t0))
		assert.ErrorIs(t, err, apperr.Conflict)
	})

	t.Run("owner cannot be rewritten", func(t *testing.T) {
		moved := domain.NewOrganization("tech", "bob", "Tech Corp", "", t0)
		require.NoError(t, r.Save(ctx, moved))
		got, err := r.FindOrganizationByID(ctx, "tech")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.OwnerID)
	})

	t.Run("delete", func(t *testing.T) {
		_, err := r.DeleteByID(ctx, "alice")
		assert.ErrorIs(t, err, apperr.Conflict, "alice still owns tech")

		deleted, err := r.DeleteByID(ctx, "tech")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = r.DeleteByID(ctx, "tech")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("update never inserts", func(t *testing.T) {
		err := r.Update(ctx, org.WithDetails("Renamed", "", t0.Add(time.Minute)))
		assert.ErrorIs(t, err, apperr.NotFound)
		gone, err := r.FindByID(ctx, "tech")
		require.NoError(t, err)
		assert.Nil(t, gone)

		require.NoError(t, r.Update(ctx, bob.WithEmail("bob.new@example.com", t0.Add(time.Minute))))
		got, err := r.FindPersonalByID(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, "bob.new@example.com", got.Email)

		err = r.Update(ctx, bob.WithEmail("alice@example.com", t0.Add(time.Minute)))
		assert.ErrorIs(t, err, apperr.Conflict)
	})
}
