package challenge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/pkg/derrors"
	id "warden/pkg/domain"
)

func TestTokenSignerRoundTrip(t *testing.T) {
	signer := NewTokenSigner("round-trip-key")

	raw, err := signer.Mint(id.GuildID("200000000000000001"), id.UserID("300000000000000001"),
		"chal-1", time.Now().Add(10*time.Minute))
	require.NoError(t, err)

	claims, err := signer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "200000000000000001", claims.GuildID)
	assert.Equal(t, "300000000000000001", claims.UserID)
	assert.Equal(t, "chal-1", claims.ChallengeID)
}

func TestTokenSignerRejects(t *testing.T) {
	signer := NewTokenSigner("first-key")
	other := NewTokenSigner("second-key")

	t.Run("garbage", func(t *testing.T) {
		_, err := signer.Parse("not-a-token")
		require.Error(t, err)
		assert.Equal(t, derrors.CodeInvalidInput, derrors.CodeOf(err))
	})

	t.Run("wrong key", func(t *testing.T) {
		raw, err := other.Mint(id.GuildID("1"), id.UserID("2"), "chal-2", time.Now().Add(time.Minute))
		require.NoError(t, err)

		_, err = signer.Parse(raw)
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		raw, err := signer.Mint(id.GuildID("1"), id.UserID("2"), "chal-3", time.Now().Add(-time.Minute))
		require.NoError(t, err)

		_, err = signer.Parse(raw)
		require.Error(t, err)
	})
}
