package nostr

import (
	"context"
	"time"
)

// ContactEntry is one entry of a NIP-02 contact list: a followed pubkey plus
// optional relay hint and local petname. PubKeyHex must be raw 64-char hex;
// bech32 npub forms are not accepted here (an explicit exception to the
// codec's usual auto_to_hex leniency, per spec).
type ContactEntry struct {
	PubKeyHex string
	RelayURL  string
	Petname   string
}

func (ce ContactEntry) toTag() Tag {
	return Tag{"p", ce.PubKeyHex, ce.RelayURL, ce.Petname}
}

// SetMetadata publishes a kind-0 profile metadata event. metadataJSON is
// passed through as the event content verbatim (parsing/validating it as
// JSON is the caller's responsibility, per NIP-01).
func (c *Client) SetMetadata(ctx context.Context, id Identity, metadataJSON string) (Event, map[string]error, error) {
	return c.publishWithKind(ctx, id, KindProfileMetadata, nil, metadataJSON)
}

// PublishTextNote publishes a kind-1 text note with the given content and
// tags.
func (c *Client) PublishTextNote(ctx context.Context, id Identity, content string, tags Tags) (Event, map[string]error, error) {
	return c.publishWithKind(ctx, id, KindTextNote, tags, content)
}

// AddRecommendedRelay publishes a kind-2 "recommend relay" event whose
// content is the recommended relay URL.
func (c *Client) AddRecommendedRelay(ctx context.Context, id Identity, relayURL string) (Event, map[string]error, error) {
	return c.publishWithKind(ctx, id, KindRecommendServer, nil, relayURL)
}

// SetContactList publishes a kind-3 contact list, one "p" tag per contact.
func (c *Client) SetContactList(ctx context.Context, id Identity, contacts []ContactEntry) (Event, map[string]error, error) {
	tags := make(Tags, len(contacts))
	for i, ce := range contacts {
		tags[i] = ce.toTag()
	}
	return c.publishWithKind(ctx, id, KindFollowList, tags, "")
}

// GetContactList fetches pubKey's latest kind-3 contact list from the
// currently connected relays and flattens its "p" tags into ContactEntry
// values. Returns a nil, nil-error slice if no relay has a contact list on
// file for pubKey.
func (c *Client) GetContactList(ctx context.Context, pubKey PubKey) ([]ContactEntry, error) {
	events, err := c.GetEventsOf(ctx, 10*time.Second, ReqFilter{
		Authors: []PubKey{pubKey},
		Kinds:   []Kind{KindFollowList},
	})
	if err != nil && len(events) == 0 {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	latest := events[0]
	for _, evt := range events[1:] {
		if evt.CreatedAt > latest.CreatedAt {
			latest = evt
		}
	}

	tags := latest.Tags.FindAll("p")
	contacts := make([]ContactEntry, 0, len(tags))
	for _, t := range tags {
		ce := ContactEntry{PubKeyHex: t[1]}
		if len(t) >= 3 {
			ce.RelayURL = t[2]
		}
		if len(t) >= 4 {
			ce.Petname = t[3]
		}
		contacts = append(contacts, ce)
	}
	return contacts, nil
}

// ReactTo publishes a kind-7 reaction to target with an arbitrary content
// string (e.g. an emoji), tagging both the target event and its author.
func (c *Client) ReactTo(ctx context.Context, id Identity, target Event, content string) (Event, map[string]error, error) {
	tags := Tags{
		Tag{"e", target.ID.String()},
		Tag{"p", target.PubKey.String()},
	}
	return c.publishWithKind(ctx, id, KindReaction, tags, content)
}

// Like publishes a kind-7 reaction with content "+", the NIP-25 convention
// for a plain like.
func (c *Client) Like(ctx context.Context, id Identity, target Event) (Event, map[string]error, error) {
	return c.ReactTo(ctx, id, target, "+")
}

// Dislike publishes a kind-7 reaction with content "-", the NIP-25
// convention for a plain dislike.
func (c *Client) Dislike(ctx context.Context, id Identity, target Event) (Event, map[string]error, error) {
	return c.ReactTo(ctx, id, target, "-")
}

// DeleteEvent publishes a kind-5 deletion request for eventIDs, per NIP-09.
func (c *Client) DeleteEvent(ctx context.Context, id Identity, eventIDs []ID) (Event, map[string]error, error) {
	return c.DeleteEventWithReason(ctx, id, eventIDs, "")
}

// DeleteEventWithReason is like DeleteEvent but attaches a human-readable
// reason as the event content.
func (c *Client) DeleteEventWithReason(ctx context.Context, id Identity, eventIDs []ID, reason string) (Event, map[string]error, error) {
	tags := make(Tags, len(eventIDs))
	for i, eid := range eventIDs {
		tags[i] = Tag{"e", eid.String()}
	}
	return c.publishWithKind(ctx, id, KindDeletion, tags, reason)
}
