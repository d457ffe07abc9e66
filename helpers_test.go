package nostr

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	ws "github.com/coder/websocket"
)

// These helpers only need a signed, well-shaped Event back; with no relays
// registered, Client.PublishEvent trivially succeeds (there is nothing to
// fail), so we can exercise the tag/kind/content construction without a
// fake network.

func TestSetMetadataBuildsKind0(t *testing.T) {
	client := NewClient(context.Background(), ClientOptions{})
	id, err := GenerateIdentity()
	require.NoError(t, err)

	evt, _, err := client.SetMetadata(context.Background(), id, `{"name":"bob"}`)
	require.NoError(t, err)
	require.Equal(t, KindProfileMetadata, evt.Kind)
	require.Equal(t, `{"name":"bob"}`, evt.Content)
}

func TestPublishTextNoteBuildsKind1(t *testing.T) {
	client := NewClient(context.Background(), ClientOptions{})
	id, err := GenerateIdentity()
	require.NoError(t, err)

	evt, _, err := client.PublishTextNote(context.Background(), id, "gm", Tags{{"t", "nostr"}})
	require.NoError(t, err)
	require.Equal(t, KindTextNote, evt.Kind)
	require.Equal(t, "gm", evt.Content)
	require.True(t, evt.Tags.Has("t"))
}

func TestSetContactListBuildsPTags(t *testing.T) {
	client := NewClient(context.Background(), ClientOptions{})
	id, err := GenerateIdentity()
	require.NoError(t, err)
	friend, err := GenerateIdentity()
	require.NoError(t, err)

	evt, _, err := client.SetContactList(context.Background(), id, []ContactEntry{
		{PubKeyHex: friend.PubKeyHex(), RelayURL: "wss://relay.example", Petname: "friend"},
	})
	require.NoError(t, err)
	require.Equal(t, KindFollowList, evt.Kind)
	require.Len(t, evt.Tags, 1)
	require.Equal(t, Tag{"p", friend.PubKeyHex(), "wss://relay.example", "friend"}, evt.Tags[0])
}

func TestGetContactListFlattensPTags(t *testing.T) {
	owner, err := GenerateIdentity()
	require.NoError(t, err)
	friend, err := GenerateIdentity()
	require.NoError(t, err)

	contactList, err := (EventPrepare{
		Kind: KindFollowList,
		Tags: Tags{{"p", friend.PubKeyHex(), "wss://relay.example", "friend"}},
	}).ToEvent(owner, 0)
	require.NoError(t, err)

	url := newFakeRelay(t, func(t *testing.T, conn *ws.Conn) {
		parts := readFrame(t, conn) // REQ
		var subID string
		require.NoError(t, json.Unmarshal(parts[1], &subID))

		writeFrame(t, conn, [3]any{"EVENT", subID, contactList})
		writeFrame(t, conn, [2]any{"EOSE", subID})

		readFrame(t, conn) // CLOSE
	})

	client := NewClient(context.Background(), ClientOptions{})
	require.NoError(t, client.AddRelay(context.Background(), url))

	contacts, err := client.GetContactList(context.Background(), owner.PubKey)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	require.Equal(t, ContactEntry{
		PubKeyHex: friend.PubKeyHex(),
		RelayURL:  "wss://relay.example",
		Petname:   "friend",
	}, contacts[0])
}

func TestGetContactListNoEventsReturnsNil(t *testing.T) {
	url := newFakeRelay(t, func(t *testing.T, conn *ws.Conn) {
		parts := readFrame(t, conn) // REQ
		var subID string
		require.NoError(t, json.Unmarshal(parts[1], &subID))
		writeFrame(t, conn, [2]any{"EOSE", subID})
		readFrame(t, conn) // CLOSE
	})

	client := NewClient(context.Background(), ClientOptions{})
	require.NoError(t, client.AddRelay(context.Background(), url))

	owner, err := GenerateIdentity()
	require.NoError(t, err)

	contacts, err := client.GetContactList(context.Background(), owner.PubKey)
	require.NoError(t, err)
	require.Nil(t, contacts)
}

func TestLikeAndDislikeContent(t *testing.T) {
	client := NewClient(context.Background(), ClientOptions{})
	id, err := GenerateIdentity()
	require.NoError(t, err)

	target, err := (EventPrepare{Kind: KindTextNote, Content: "target note"}).ToEvent(id, 0)
	require.NoError(t, err)

	liked, _, err := client.Like(context.Background(), id, target)
	require.NoError(t, err)
	require.Equal(t, KindReaction, liked.Kind)
	require.Equal(t, "+", liked.Content)
	require.Equal(t, Tag{"e", target.ID.String()}, liked.Tags[0])
	require.Equal(t, Tag{"p", target.PubKey.String()}, liked.Tags[1])

	disliked, _, err := client.Dislike(context.Background(), id, target)
	require.NoError(t, err)
	require.Equal(t, "-", disliked.Content)
}

func TestDeleteEventBuildsKind5(t *testing.T) {
	client := NewClient(context.Background(), ClientOptions{})
	id, err := GenerateIdentity()
	require.NoError(t, err)

	target, err := (EventPrepare{Kind: KindTextNote, Content: "to be deleted"}).ToEvent(id, 0)
	require.NoError(t, err)

	evt, _, err := client.DeleteEventWithReason(context.Background(), id, []ID{target.ID}, "spam")
	require.NoError(t, err)
	require.Equal(t, KindDeletion, evt.Kind)
	require.Equal(t, "spam", evt.Content)
	require.Equal(t, Tag{"e", target.ID.String()}, evt.Tags[0])
}
