package nostr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeadingZeroBits(t *testing.T) {
	require.Equal(t, 256, LeadingZeroBits(ID{}))

	var id ID
	id[0] = 0x0f
	require.Equal(t, 4, LeadingZeroBits(id))

	id = ID{}
	id[0] = 0x80
	require.Equal(t, 0, LeadingZeroBits(id))

	id = ID{}
	id[3] = 0x01
	require.Equal(t, 31, LeadingZeroBits(id))
}

func TestMineReachesTargetDifficulty(t *testing.T) {
	prep := EventPrepare{
		PubKey:  GetPublicKey([32]byte{1}),
		Kind:    KindTextNote,
		Content: "mining",
	}

	const difficulty = 8
	mined, err := Mine(prep, difficulty, nil)
	require.NoError(t, err)
	require.True(t, mined.Tags.Has("nonce"))
	require.GreaterOrEqual(t, LeadingZeroBits(mined.GetID()), difficulty)
}

func TestMineRespectsCancel(t *testing.T) {
	prep := EventPrepare{
		PubKey:  GetPublicKey([32]byte{2}),
		Kind:    KindTextNote,
		Content: "will not finish",
	}

	cancel := make(chan struct{})
	close(cancel)

	_, err := Mine(prep, 255, cancel)
	require.ErrorIs(t, err, ErrTimeout)
}
