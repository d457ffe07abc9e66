package nostr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBech32RoundTrip(t *testing.T) {
	var payload [32]byte
	for i := range payload {
		payload[i] = byte(i)
	}

	encoded, err := EncodeBech32(HRPPublicKey, payload)
	require.NoError(t, err)
	require.Regexp(t, `^npub1`, encoded)

	hrp, decoded, err := DecodeBech32(encoded)
	require.NoError(t, err)
	require.Equal(t, HRPPublicKey, hrp)
	require.Equal(t, payload, decoded)
}

func TestAutoToHexAcceptsHexAndBech32(t *testing.T) {
	id, err := GenerateIdentity()
	require.NoError(t, err)

	fromHex, err := AutoToHex(id.PubKeyHex())
	require.NoError(t, err)
	require.Equal(t, id.PubKeyHex(), fromHex)

	fromBech32, err := AutoToHex(id.PubKeyBech32())
	require.NoError(t, err)
	require.Equal(t, id.PubKeyHex(), fromBech32)
}

func TestAutoToHexRejectsGarbage(t *testing.T) {
	_, err := AutoToHex("not a key")
	require.ErrorIs(t, err, ErrBadEncoding)
}

func TestCanonicalPreimageEscapesSpecialCharacters(t *testing.T) {
	prep := EventPrepare{
		CreatedAt: 1,
		Kind:      1,
		Tags:      Tags{},
		Content:   "line\nbreak \"quoted\" back\\slash",
	}
	preimage := string(CanonicalPreimage(prep))
	require.Contains(t, preimage, `line\nbreak \"quoted\" back\\slash`)
}

func TestCanonicalPreimagePreservesTagOrder(t *testing.T) {
	prep := EventPrepare{
		CreatedAt: 1,
		Kind:      1,
		Tags:      Tags{{"e", "one"}, {"p", "two"}},
		Content:   "",
	}
	want := `[0,"` + prep.PubKey.String() + `",1,1,[["e","one"],["p","two"]],""]`
	require.Equal(t, want, string(CanonicalPreimage(prep)))
}
