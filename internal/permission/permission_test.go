package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	t.Run("destructive bits are removed, others kept", func(t *testing.T) {
		perms := Administrator | SendMessages | ViewChannels | BanMembers
		clamped := perms.Clamp(Destructive)
		assert.False(t, clamped.HasAny(Destructive))
		assert.True(t, clamped.Has(SendMessages|ViewChannels))
	})

	t.Run("clamping an already clean set is a no-op", func(t *testing.T) {
		perms := SendMessages | AddReactions
		assert.Equal(t, perms, perms.Clamp(Destructive))
	})
}

func TestHas(t *testing.T) {
	perms := KickMembers | BanMembers
	assert.True(t, perms.Has(KickMembers))
	assert.True(t, perms.Has(KickMembers|BanMembers))
	assert.False(t, perms.Has(KickMembers|ManageRoles))
	assert.True(t, perms.HasAny(ManageRoles|BanMembers))
	assert.False(t, perms.HasAny(ManageRoles|ManageChannels))
}

func TestMissing(t *testing.T) {
	perms := KickMembers
	missing := perms.Missing(KickMembers | BanMembers | ManageRoles)
	assert.Equal(t, BanMembers|ManageRoles, missing)
	assert.Equal(t, Set(0), perms.Missing(KickMembers))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"kick_members", "ban_members"}, (KickMembers | BanMembers).Names())
	assert.Equal(t, "none", Set(0).String())
	assert.Equal(t, "administrator", Administrator.String())
}
