package nostr

// Event kinds used throughout this library (NIP-01 and friends). Kinds not
// listed here are passed through opaquely.
const (
	KindProfileMetadata        Kind = 0
	KindTextNote               Kind = 1
	KindRecommendServer        Kind = 2
	KindFollowList             Kind = 3
	KindEncryptedDirectMessage Kind = 4
	KindDeletion               Kind = 5
	KindReaction               Kind = 7
)

// IsRegular reports whether kind is a regular (non-replaceable,
// non-ephemeral, non-addressable) event kind that relays are expected to
// store every instance of.
func (kind Kind) IsRegular() bool {
	return kind < 10000 && kind != KindProfileMetadata && kind != KindFollowList
}

// IsReplaceable reports whether only the latest event of this kind per
// author should be kept.
func (kind Kind) IsReplaceable() bool {
	return kind == KindProfileMetadata || kind == KindFollowList || (kind >= 10000 && kind < 20000)
}

// IsEphemeral reports whether events of this kind are not expected to be
// stored by relays at all.
func (kind Kind) IsEphemeral() bool {
	return kind >= 20000 && kind < 30000
}

// IsAddressable reports whether this is a parameterized replaceable kind
// (unique per author+kind+"d" tag).
func (kind Kind) IsAddressable() bool {
	return kind >= 30000 && kind < 40000
}
