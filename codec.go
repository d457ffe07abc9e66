package nostr

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// bech32 human-readable parts supported by this codec (NIP-19 basic form
// only; no TLV-encoded nprofile/nevent/naddr).
const (
	HRPPublicKey = "npub"
	HRPSecretKey = "nsec"
	HRPNote      = "note"
)

// EncodeBech32 encodes a 32-byte payload as bech32 with the given
// human-readable part.
func EncodeBech32(hrp string, payload [32]byte) (string, error) {
	bits5, err := bech32.ConvertBits(payload[:], 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBadBech32, err)
	}
	s, err := bech32.Encode(hrp, bits5)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrBadBech32, err)
	}
	return s, nil
}

// DecodeBech32 decodes a bech32 string of one of the three supported forms,
// returning its human-readable part and 32-byte payload.
func DecodeBech32(s string) (hrp string, payload [32]byte, err error) {
	hrp, bits5, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return "", payload, fmt.Errorf("%w: %s", ErrBadBech32, err)
	}
	switch hrp {
	case HRPPublicKey, HRPSecretKey, HRPNote:
	default:
		return hrp, payload, fmt.Errorf("%w: unsupported prefix %q", ErrBadBech32, hrp)
	}
	data, err := bech32.ConvertBits(bits5, 5, 8, false)
	if err != nil {
		return hrp, payload, fmt.Errorf("%w: %s", ErrBadBech32, err)
	}
	if len(data) != 32 {
		return hrp, payload, fmt.Errorf("%w: expected 32-byte payload, got %d", ErrBadBech32, len(data))
	}
	copy(payload[:], data)
	return hrp, payload, nil
}

// AutoToHex accepts either a 64-char hex string or a bech32-encoded
// npub/nsec/note string and returns the 64-char hex payload.
func AutoToHex(s string) (string, error) {
	if len(s) == 64 {
		if _, err := hex.DecodeString(s); err == nil {
			return s, nil
		}
	}

	_, payload, err := DecodeBech32(s)
	if err != nil {
		return "", fmt.Errorf("%w: %q is neither hex nor bech32", ErrBadEncoding, s)
	}
	return hex.EncodeToString(payload[:]), nil
}

// escapeJSONString appends the JSON-escaped form of s (surrounded by double
// quotes) to dst. '"', '\\', '\n', '\r' and '\t' get their two-character
// escapes, every other control character below 0x20 is written as \u00XX,
// and everything else (including '<', '>' and '&') is copied verbatim. It
// does not go through encoding/json, whose escaping differs (it also
// HTML-escapes) and is not guaranteed to stay identical across versions.
func escapeJSONString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for _, r := range s {
		switch r {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if r < 0x20 {
				dst = append(dst, '\\', 'u')
				dst = appendHex4(dst, uint16(r))
			} else {
				dst = append(dst, string(r)...)
			}
		}
	}
	dst = append(dst, '"')
	return dst
}

func appendHex4(dst []byte, v uint16) []byte {
	const hexdigits = "0123456789abcdef"
	return append(dst,
		hexdigits[(v>>12)&0xf],
		hexdigits[(v>>8)&0xf],
		hexdigits[(v>>4)&0xf],
		hexdigits[v&0xf],
	)
}

// CanonicalPreimage builds the exact byte sequence
// [0,"pubkey",created_at,kind,[tags...],"content"] that is hashed to derive
// an event's id (NIP-01), preserving tag order and JSON-escaping strings.
func CanonicalPreimage(prep EventPrepare) []byte {
	dst := make([]byte, 0, 96+len(prep.Content)+len(prep.Tags)*32)

	dst = append(dst, `[0,"`...)
	dst = append(dst, hex.EncodeToString(prep.PubKey[:])...)
	dst = append(dst, `",`...)
	dst = strconv.AppendUint(dst, uint64(prep.CreatedAt), 10)
	dst = append(dst, ',')
	dst = strconv.AppendUint(dst, uint64(prep.Kind), 10)
	dst = append(dst, ',', '[')

	for i, tag := range prep.Tags {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, '[')
		for j, item := range tag {
			if j > 0 {
				dst = append(dst, ',')
			}
			dst = escapeJSONString(dst, item)
		}
		dst = append(dst, ']')
	}

	dst = append(dst, ']', ',')
	dst = escapeJSONString(dst, prep.Content)
	dst = append(dst, ']')

	return dst
}
