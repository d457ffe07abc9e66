package nostr

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// wireEvent is the exact NIP-01 on-the-wire shape of an Event.
type wireEvent struct {
	ID        ID        `json:"id"`
	PubKey    PubKey    `json:"pubkey"`
	CreatedAt Timestamp `json:"created_at"`
	Kind      Kind      `json:"kind"`
	Tags      Tags      `json:"tags"`
	Content   string    `json:"content"`
	Sig       string    `json:"sig"`
}

// MarshalJSON encodes evt using the field names and casing NIP-01 mandates.
// Field order here is not semantic (only the canonical preimage order is);
// this is purely the transport encoding.
func (evt Event) MarshalJSON() ([]byte, error) {
	tags := evt.Tags
	if tags == nil {
		tags = Tags{}
	}
	return json.Marshal(wireEvent{
		ID:        evt.ID,
		PubKey:    evt.PubKey,
		CreatedAt: evt.CreatedAt,
		Kind:      evt.Kind,
		Tags:      tags,
		Content:   evt.Content,
		Sig:       hex.EncodeToString(evt.Sig[:]),
	})
}

// UnmarshalJSON decodes evt from its NIP-01 wire representation.
func (evt *Event) UnmarshalJSON(b []byte) error {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedJSON, err)
	}
	if len(w.Sig) != 128 {
		return fmt.Errorf("%w: sig must be 128-char hex, got %d chars", ErrMalformedField, len(w.Sig))
	}
	var sig [64]byte
	if _, err := hex.Decode(sig[:], []byte(w.Sig)); err != nil {
		return fmt.Errorf("%w: %s", ErrBadHex, err)
	}
	evt.ID = w.ID
	evt.PubKey = w.PubKey
	evt.CreatedAt = w.CreatedAt
	evt.Kind = w.Kind
	evt.Tags = w.Tags
	evt.Content = w.Content
	evt.Sig = sig
	return nil
}

// EventEnvelope is the client->relay "EVENT" frame.
type EventEnvelope struct {
	Event Event
}

// MarshalJSON encodes e as ["EVENT", event].
func (e EventEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{"EVENT", e.Event})
}

// ReqEnvelope is the client->relay "REQ" frame.
type ReqEnvelope struct {
	SubscriptionID string
	Filters        []ReqFilter
}

// MarshalJSON encodes e as ["REQ", sub_id, filter1, filter2, ...].
func (e ReqEnvelope) MarshalJSON() ([]byte, error) {
	arr := make([]any, 0, 2+len(e.Filters))
	arr = append(arr, "REQ", e.SubscriptionID)
	for _, f := range e.Filters {
		arr = append(arr, f)
	}
	return json.Marshal(arr)
}

// CloseEnvelope is the client->relay "CLOSE" frame.
type CloseEnvelope struct {
	SubscriptionID string
}

// MarshalJSON encodes e as ["CLOSE", sub_id].
func (e CloseEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{"CLOSE", e.SubscriptionID})
}

// Message is the tagged union of relay->client frames a Client hands back
// to callers, distinct from the raw transport-level frames a relayConn
// exposes (see connection.go's frame type for those).
type Message interface {
	isMessage()
}

// EventMessage is a relay->client "EVENT" frame.
type EventMessage struct {
	SubscriptionID string
	Event          Event
}

func (EventMessage) isMessage() {}

// NoticeMessage is a relay->client "NOTICE" frame.
type NoticeMessage struct {
	Text string
}

func (NoticeMessage) isMessage() {}

// EOSEMessage is a relay->client "EOSE" frame, marking the end of stored
// (historical) events for a subscription.
type EOSEMessage struct {
	SubscriptionID string
}

func (EOSEMessage) isMessage() {}

// BinaryMessage is an opaque relay->client binary WebSocket frame, passed
// through unparsed.
type BinaryMessage struct {
	Data []byte
}

func (BinaryMessage) isMessage() {}

// ConnectionClosedMessage reports that a relay's WebSocket connection
// ended. Code is the peer's WebSocket close status when known, or -1 for a
// locally-initiated closure (ping timeout, write failure, caller-requested
// close). This is a transport-level event, distinct from the protocol-level
// ClosedMessage a relay sends to end one subscription while the connection
// stays open.
type ConnectionClosedMessage struct {
	Code   int
	Reason string
}

func (ConnectionClosedMessage) isMessage() {}

// OKMessage is a relay->client "OK" frame, acknowledging an EVENT publish.
type OKMessage struct {
	EventID ID
	Saved   bool
	Message string
}

func (OKMessage) isMessage() {}

// ClosedMessage is a relay->client "CLOSED" frame: the relay is ending a
// subscription server-side (e.g. it no longer wants to serve it), as
// opposed to the client-initiated CLOSE. Message often carries a
// machine-readable prefix such as "auth-required: ..." or "rate-limited: ...".
type ClosedMessage struct {
	SubscriptionID string
	Message        string
}

func (ClosedMessage) isMessage() {}

// ParseServerMessage decodes one relay->client JSON array frame. Unknown or
// malformed frames return ErrMalformedJSON; callers should log and drop
// these rather than treat them as fatal, since a single misbehaving relay
// must not disrupt the rest of the session.
func ParseServerMessage(raw []byte) (Message, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, err)
	}
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: expected at least [label, ...], got %d elements", ErrMalformedJSON, len(parts))
	}

	var label string
	if err := json.Unmarshal(parts[0], &label); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, err)
	}

	switch label {
	case "EVENT":
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: EVENT frame needs 3 elements, got %d", ErrMalformedJSON, len(parts))
		}
		var subID string
		if err := json.Unmarshal(parts[1], &subID); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, err)
		}
		var evt Event
		if err := json.Unmarshal(parts[2], &evt); err != nil {
			return nil, err
		}
		return EventMessage{SubscriptionID: subID, Event: evt}, nil

	case "NOTICE":
		var text string
		if err := json.Unmarshal(parts[1], &text); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, err)
		}
		return NoticeMessage{Text: text}, nil

	case "EOSE":
		var subID string
		if err := json.Unmarshal(parts[1], &subID); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, err)
		}
		return EOSEMessage{SubscriptionID: subID}, nil

	case "OK":
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: OK frame needs 4 elements, got %d", ErrMalformedJSON, len(parts))
		}
		var idHex string
		if err := json.Unmarshal(parts[1], &idHex); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, err)
		}
		id, err := IDFromHex(idHex)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBadHex, err)
		}
		var saved bool
		if err := json.Unmarshal(parts[2], &saved); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, err)
		}
		var msg string
		if err := json.Unmarshal(parts[3], &msg); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, err)
		}
		return OKMessage{EventID: id, Saved: saved, Message: msg}, nil

	case "CLOSED":
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: CLOSED frame needs 3 elements, got %d", ErrMalformedJSON, len(parts))
		}
		var subID string
		if err := json.Unmarshal(parts[1], &subID); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, err)
		}
		var msg string
		if err := json.Unmarshal(parts[2], &msg); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, err)
		}
		return ClosedMessage{SubscriptionID: subID, Message: msg}, nil

	default:
		return nil, fmt.Errorf("%w: unknown label %q", ErrMalformedJSON, label)
	}
}
