package nostr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalPreimageFormat(t *testing.T) {
	prep := EventPrepare{
		CreatedAt: 1671217411,
		Kind:      KindTextNote,
		Tags:      Tags{},
		Content:   "hello",
	}
	want := `[0,"` + prep.PubKey.String() + `",1671217411,1,[],"hello"]`
	require.Equal(t, want, string(CanonicalPreimage(prep)))
}

func TestToEventThenVerifyRoundTrips(t *testing.T) {
	id, err := GenerateIdentity()
	require.NoError(t, err)

	prep := EventPrepare{
		Kind:    KindTextNote,
		Tags:    Tags{{"e", "deadbeef"}},
		Content: "gm nostr",
	}
	evt, err := prep.ToEvent(id, 0)
	require.NoError(t, err)
	require.Equal(t, id.PubKey, evt.PubKey)
	require.NoError(t, evt.Verify())
}

func TestVerifyRejectsTamperedContent(t *testing.T) {
	id, err := GenerateIdentity()
	require.NoError(t, err)

	prep := EventPrepare{Kind: KindTextNote, Content: "original"}
	evt, err := prep.ToEvent(id, 0)
	require.NoError(t, err)

	evt.Content = "tampered"
	require.ErrorIs(t, evt.Verify(), ErrIDMismatch)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	id, err := GenerateIdentity()
	require.NoError(t, err)
	other, err := GenerateIdentity()
	require.NoError(t, err)

	prep := EventPrepare{Kind: KindTextNote, Content: "hi"}
	evt, err := prep.ToEvent(id, 0)
	require.NoError(t, err)

	forged, err := other.Sign(evt.ID)
	require.NoError(t, err)
	evt.Sig = forged

	require.ErrorIs(t, evt.Verify(), ErrBadSignature)
}

func TestWireRoundTrip(t *testing.T) {
	id, err := GenerateIdentity()
	require.NoError(t, err)

	prep := EventPrepare{Kind: KindTextNote, Tags: Tags{{"e", "abc"}}, Content: "wire test"}
	evt, err := prep.ToEvent(id, 0)
	require.NoError(t, err)

	raw, err := evt.MarshalJSON()
	require.NoError(t, err)

	var back Event
	require.NoError(t, back.UnmarshalJSON(raw))
	require.Equal(t, evt, back)
	require.NoError(t, back.Verify())
}
