package permissions_test

import (
	"context"
	"testing"

	"github.com/quorkbot/quork/internal/permissions"
	"github.com/quorkbot/quork/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminList_Contains(t *testing.T) {
	admins := permissions.AdminList{1, 2}
	assert.True(t, admins.Contains(1))
	assert.False(t, admins.Contains(3))
	assert.False(t, permissions.AdminList(nil).Contains(1))
}

func TestResolver_Allowed(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := permissions.NewGrantStore(db)
	resolver := permissions.NewResolver(permissions.AdminList{99}, store)
	ctx := context.Background()

	require.NoError(t, store.Grant(ctx, 1, 7, permissions.EditOwn, 99))

	t.Run("grant allows", func(t *testing.T) {
		ok, err := resolver.Allowed(ctx, 1, 7, permissions.EditOwn)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("no grant denies", func(t *testing.T) {
		ok, err := resolver.Allowed(ctx, 1, 7, permissions.EditAll)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("admin allows everything everywhere", func(t *testing.T) {
		for _, perm := range permissions.All() {
			ok, err := resolver.Allowed(ctx, 123, 99, perm)
			require.NoError(t, err)
			assert.True(t, ok, "admin denied %s", perm)
		}
	})
}

func TestResolver_IsAdmin(t *testing.T) {
	db := testutils.NewTestDB(t)
	resolver := permissions.NewResolver(permissions.AdminList{99}, permissions.NewGrantStore(db))

	assert.True(t, resolver.IsAdmin(99))
	assert.False(t, resolver.IsAdmin(7))
}

func TestResolver_ResolveEdit(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := permissions.NewGrantStore(db)
	resolver := permissions.NewResolver(permissions.AdminList{99}, store)
	ctx := context.Background()

	require.NoError(t, store.Grant(ctx, 1, 10, permissions.EditOwn, 99))
	require.NoError(t, store.Grant(ctx, 1, 11, permissions.EditAll, 99))
	require.NoError(t, store.Grant(ctx, 1, 12, permissions.EditOwn, 99))
	require.NoError(t, store.Grant(ctx, 1, 12, permissions.EditAll, 99))

	tests := []struct {
		name    string
		userID  int64
		wantOwn bool
		wantAll bool
	}{
		{"no grants", 7, false, false},
		{"own only", 10, true, false},
		{"all implies own", 11, true, true},
		{"both grants", 12, true, true},
		{"admin", 99, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			own, all, err := resolver.ResolveEdit(ctx, 1, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwn, own)
			assert.Equal(t, tt.wantAll, all)
		})
	}
}

func TestResolver_ResolveRemove(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := permissions.NewGrantStore(db)
	resolver := permissions.NewResolver(nil, store)
	ctx := context.Background()

	require.NoError(t, store.Grant(ctx, 1, 10, permissions.RemoveOwn, 99))

	own, all, err := resolver.ResolveRemove(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, own)
	assert.False(t, all)

	// Edit grants do not leak into remove scope
	own, all, err = resolver.ResolveEdit(ctx, 1, 10)
	require.NoError(t, err)
	assert.False(t, own)
	assert.False(t, all)
}

func TestPermission_Valid(t *testing.T) {
	for _, perm := range permissions.All() {
		assert.True(t, permissions.Valid(perm))
	}
	assert.False(t, permissions.Valid("launch_missiles"))
	assert.False(t, permissions.Valid(""))
}

func TestPermission_Name(t *testing.T) {
	assert.Equal(t, "Edit own quotes", permissions.Name(permissions.EditOwn))
	assert.Equal(t, "Untimeout members", permissions.Name(permissions.Untimeout))
	// Unknown permissions fall back to their raw value
	assert.Equal(t, "mystery", permissions.Name("mystery"))
}
