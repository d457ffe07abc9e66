// Package nostr implements a client library for the Nostr protocol: identity
// management, event construction/signing/verification, multi-relay session
// handling over WebSocket, and a handful of NIP extensions.
package nostr

import (
	"encoding/hex"
	"fmt"
)

// ID is the 32-byte SHA-256 event id.
type ID [32]byte

func (id ID) String() string { return hex.EncodeToString(id[:]) }

// IDFromHex decodes a 64-character lowercase hex string into an ID.
func IDFromHex(s string) (ID, error) {
	var id ID
	if len(s) != 64 {
		return id, fmt.Errorf("%w: event id must be 64-char hex, got %d chars", ErrBadHex, len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("%w: %s", ErrBadHex, err)
	}
	return id, nil
}

// MarshalJSON encodes id as a lowercase hex JSON string.
func (id ID) MarshalJSON() ([]byte, error) {
	return marshalHexString(id[:])
}

// UnmarshalJSON decodes id from a lowercase hex JSON string.
func (id *ID) UnmarshalJSON(b []byte) error {
	return unmarshalHexString(id[:], b)
}

// PubKey is a 32-byte x-only secp256k1 public key.
type PubKey [32]byte

func (pk PubKey) String() string { return hex.EncodeToString(pk[:]) }

// PubKeyFromHex decodes a 64-character lowercase hex string into a PubKey.
// It also checks that the bytes form a valid x-only curve point (see
// IsValidPublicKey), failing with ErrInvalidPublicKey otherwise.
func PubKeyFromHex(s string) (PubKey, error) {
	var pk PubKey
	if len(s) != 64 {
		return pk, fmt.Errorf("%w: pubkey must be 64-char hex, got %d chars", ErrBadHex, len(s))
	}
	if _, err := hex.Decode(pk[:], []byte(s)); err != nil {
		return pk, fmt.Errorf("%w: %s", ErrBadHex, err)
	}
	if !IsValidPublicKey(pk) {
		return pk, fmt.Errorf("%w: %q is not a valid pubkey", ErrInvalidPublicKey, s)
	}
	return pk, nil
}

// MarshalJSON encodes pk as a lowercase hex JSON string.
func (pk PubKey) MarshalJSON() ([]byte, error) {
	return marshalHexString(pk[:])
}

// UnmarshalJSON decodes pk from a lowercase hex JSON string.
func (pk *PubKey) UnmarshalJSON(b []byte) error {
	return unmarshalHexString(pk[:], b)
}

func marshalHexString(b []byte) ([]byte, error) {
	out := make([]byte, 0, len(b)*2+2)
	out = append(out, '"')
	out = append(out, hex.EncodeToString(b)...)
	out = append(out, '"')
	return out, nil
}

func unmarshalHexString(dst []byte, b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("%w: expected a json string", ErrMalformedJSON)
	}
	s := string(b[1 : len(b)-1])
	if len(s) != len(dst)*2 {
		return fmt.Errorf("%w: expected %d hex chars, got %d", ErrBadHex, len(dst)*2, len(s))
	}
	if _, err := hex.Decode(dst, []byte(s)); err != nil {
		return fmt.Errorf("%w: %s", ErrBadHex, err)
	}
	return nil
}

// Timestamp is a Unix timestamp in seconds.
type Timestamp uint64

// Kind is a Nostr event kind number.
type Kind uint16

// Tag is a single ordered sequence of strings, e.g. ["e", "<id>"].
type Tag []string

// Tags is an ordered sequence of Tag values. Order is semantic and preserved
// throughout serialization.
type Tags []Tag

// Has returns true if a tag with the given key exists.
func (tags Tags) Has(key string) bool {
	for _, t := range tags {
		if len(t) >= 1 && t[0] == key {
			return true
		}
	}
	return false
}

// Find returns the first tag with the given key that carries a value.
func (tags Tags) Find(key string) Tag {
	for _, t := range tags {
		if len(t) >= 2 && t[0] == key {
			return t
		}
	}
	return nil
}

// FindAll returns every tag with the given key that carries a value.
func (tags Tags) FindAll(key string) []Tag {
	var out []Tag
	for _, t := range tags {
		if len(t) >= 2 && t[0] == key {
			out = append(out, t)
		}
	}
	return out
}

// Clone returns a shallow copy of tags (the Tag slices themselves are shared).
func (tags Tags) Clone() Tags {
	out := make(Tags, len(tags))
	copy(out, tags)
	return out
}

// ContainsAny reports whether tags has a tag named tagName whose value (the
// second element) is one of values.
func (tags Tags) ContainsAny(tagName string, values []string) bool {
	for _, t := range tags {
		if len(t) < 2 || t[0] != tagName {
			continue
		}
		for _, v := range values {
			if t[1] == v {
				return true
			}
		}
	}
	return false
}
