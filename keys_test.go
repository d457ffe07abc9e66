package nostr

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityFromHexAndBech32Agree(t *testing.T) {
	id, err := GenerateIdentity()
	require.NoError(t, err)

	skHex := hex.EncodeToString(id.SecretKey[:])
	fromHex, err := IdentityFromHex(skHex)
	require.NoError(t, err)
	require.Equal(t, id.PubKey, fromHex.PubKey)

	nsec, err := EncodeBech32(HRPSecretKey, id.SecretKey)
	require.NoError(t, err)
	fromBech32, err := IdentityFromBech32(nsec)
	require.NoError(t, err)
	require.Equal(t, id.PubKey, fromBech32.PubKey)
}

func TestGetPublicKeyMatchesIdentity(t *testing.T) {
	id, err := GenerateIdentity()
	require.NoError(t, err)
	require.Equal(t, id.PubKey, GetPublicKey(id.SecretKey))
}

func TestIsValidPublicKeyRejectsGarbage(t *testing.T) {
	var pk PubKey
	require.False(t, IsValidPublicKey(pk))

	id, err := GenerateIdentity()
	require.NoError(t, err)
	require.True(t, IsValidPublicKey(id.PubKey))
}

func TestIdentityFromHexRejectsBadLength(t *testing.T) {
	_, err := IdentityFromHex("deadbeef")
	require.ErrorIs(t, err, ErrBadHex)
}

func TestIdentityFromHexKnownVector(t *testing.T) {
	id, err := IdentityFromHex("67dea2ed018072d675f5415ecfaed7d2597555e202d85b3d65ea4e58d2d92ffa")
	require.NoError(t, err)
	require.Equal(t, "2f4fa408d85b962d1fe717daae148a4c98424ab2e10c7dd11927e101ed3257b2", hex.EncodeToString(id.PubKey[:]))

	npub, err := EncodeBech32(HRPPublicKey, [32]byte(id.PubKey))
	require.NoError(t, err)
	hrp, payload, err := DecodeBech32(npub)
	require.NoError(t, err)
	require.Equal(t, HRPPublicKey, hrp)
	require.Equal(t, hex.EncodeToString(id.PubKey[:]), hex.EncodeToString(payload[:]))
}
