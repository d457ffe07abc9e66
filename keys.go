package nostr

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"lukechampine.com/frand"
)

// Identity holds a secp256k1 keypair: the raw secret scalar and its x-only
// public key. The public key is always derived from the secret key, never
// stored independently, so the two can never drift apart.
type Identity struct {
	SecretKey [32]byte
	PubKey    PubKey
}

// GenerateIdentity creates a new Identity from fresh randomness.
func GenerateIdentity() (Identity, error) {
	var sk [32]byte
	frand.Read(sk[:])
	return IdentityFromSecretKey(sk)
}

// IdentityFromSecretKey builds an Identity from a raw 32-byte secret scalar.
func IdentityFromSecretKey(sk [32]byte) (Identity, error) {
	priv, pub := btcec.PrivKeyFromBytes(sk[:])
	defer priv.Zero()

	if !isValidPubKeyPoint(pub) {
		return Identity{}, ErrInvalidSecretKey
	}

	id := Identity{SecretKey: sk}
	copy(id.PubKey[:], schnorr.SerializePubKey(pub))
	return id, nil
}

// IdentityFromHex builds an Identity from a 32-byte hex-encoded secret key.
func IdentityFromHex(secretHex string) (Identity, error) {
	if len(secretHex) != 64 {
		return Identity{}, fmt.Errorf("%w: secret key must be 64-char hex, got %d chars", ErrBadHex, len(secretHex))
	}
	var sk [32]byte
	if _, err := hex.Decode(sk[:], []byte(secretHex)); err != nil {
		return Identity{}, fmt.Errorf("%w: %s", ErrBadHex, err)
	}
	return IdentityFromSecretKey(sk)
}

// IdentityFromBech32 builds an Identity from an "nsec1..." encoded secret key.
func IdentityFromBech32(nsec string) (Identity, error) {
	hrp, payload, err := DecodeBech32(nsec)
	if err != nil {
		return Identity{}, err
	}
	if hrp != HRPSecretKey {
		return Identity{}, fmt.Errorf("%w: expected hrp %q, got %q", ErrBadBech32, HRPSecretKey, hrp)
	}
	return IdentityFromSecretKey(payload)
}

// Sign produces a BIP-340 Schnorr signature over a 32-byte message (normally
// an event id).
func (id Identity) Sign(msg [32]byte) ([64]byte, error) {
	priv, _ := btcec.PrivKeyFromBytes(id.SecretKey[:])
	defer priv.Zero()

	sig, err := schnorr.Sign(priv, msg[:], schnorr.FastSign())
	if err != nil {
		return [64]byte{}, fmt.Errorf("%w: %s", ErrCrypto, err)
	}
	return [64]byte(sig.Serialize()), nil
}

// PubKeyHex returns the identity's public key as 64-char lowercase hex.
func (id Identity) PubKeyHex() string { return id.PubKey.String() }

// PubKeyBech32 returns the identity's public key encoded as "npub1...".
func (id Identity) PubKeyBech32() string {
	s, _ := EncodeBech32(HRPPublicKey, id.PubKey)
	return s
}

// GetPublicKey derives the x-only public key for a raw secret key.
func GetPublicKey(sk [32]byte) PubKey {
	_, pub := btcec.PrivKeyFromBytes(sk[:])
	var pk PubKey
	copy(pk[:], schnorr.SerializePubKey(pub))
	return pk
}

func isValidPubKeyPoint(pub *btcec.PublicKey) bool {
	_, err := schnorr.ParsePubKey(schnorr.SerializePubKey(pub))
	return err == nil
}

// IsValidPublicKey reports whether pk decodes to a valid x-only secp256k1
// curve point.
func IsValidPublicKey(pk PubKey) bool {
	_, err := schnorr.ParsePubKey(pk[:])
	return err == nil
}
