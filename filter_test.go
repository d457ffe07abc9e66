package nostr

import (
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustEvent(t *testing.T, prep EventPrepare) Event {
	t.Helper()
	id, err := GenerateIdentity()
	require.NoError(t, err)
	evt, err := prep.ToEvent(id, 0)
	require.NoError(t, err)
	return evt
}

func TestFilterMatchesKind(t *testing.T) {
	evt := mustEvent(t, EventPrepare{Kind: KindTextNote, Content: "hi"})

	require.True(t, ReqFilter{Kinds: []Kind{KindTextNote}}.Matches(evt))
	require.False(t, ReqFilter{Kinds: []Kind{KindReaction}}.Matches(evt))
}

func TestFilterMatchesAuthor(t *testing.T) {
	evt := mustEvent(t, EventPrepare{Kind: KindTextNote})

	require.True(t, ReqFilter{Authors: []PubKey{evt.PubKey}}.Matches(evt))

	other, err := GenerateIdentity()
	require.NoError(t, err)
	require.False(t, ReqFilter{Authors: []PubKey{other.PubKey}}.Matches(evt))
}

func TestFilterMatchesTimeRange(t *testing.T) {
	evt := mustEvent(t, EventPrepare{Kind: KindTextNote, CreatedAt: 100})

	since := Timestamp(50)
	until := Timestamp(150)
	require.True(t, ReqFilter{Since: &since, Until: &until}.Matches(evt))

	tooLate := Timestamp(10)
	require.False(t, ReqFilter{Until: &tooLate}.Matches(evt))
}

func TestFilterMatchesTagFilters(t *testing.T) {
	evt := mustEvent(t, EventPrepare{
		Kind: KindReaction,
		Tags: Tags{{"e", "target-id"}, {"p", "target-pubkey"}},
	})

	require.True(t, ReqFilter{E: []string{"target-id"}}.Matches(evt))
	require.False(t, ReqFilter{E: []string{"other-id"}}.Matches(evt))
	require.True(t, ReqFilter{P: []string{"target-pubkey"}}.Matches(evt))
}

// TestFilterMarshalsLiteralJSON checks the literal request filter shape:
// every set field present, none absent, tag filters under their "#"-prefixed
// key. Authors is padded to a valid 64-char pubkey (Authors is [32]byte-typed
// here, unlike the tag-filter fields) but keeps the "abcd" suffix for
// traceability to the shorthand value.
func TestFilterMarshalsLiteralJSON(t *testing.T) {
	const authorHex = "000000000000000000000000000000000000000000000000000000000000abcd"
	var author PubKey
	_, err := hex.Decode(author[:], []byte(authorHex))
	require.NoError(t, err)

	limit := 10
	f := ReqFilter{
		Authors: []PubKey{author},
		Kinds:   []Kind{1, 7},
		Limit:   &limit,
		E:       []string{"deadbeef"},
	}

	b, err := json.Marshal(f)
	require.NoError(t, err)
	require.JSONEq(t, `{"authors":["`+authorHex+`"],"kinds":[1,7],"limit":10,"#e":["deadbeef"]}`, string(b))
}

func TestMatchesAnyUnionSemantics(t *testing.T) {
	evt := mustEvent(t, EventPrepare{Kind: KindTextNote})

	filters := []ReqFilter{
		{Kinds: []Kind{KindReaction}},
		{Kinds: []Kind{KindTextNote}},
	}
	require.True(t, MatchesAny(filters, evt))
	require.False(t, MatchesAny(nil, evt))
}
