// Package nip04 implements NIP-04 encrypted direct messages: AES-256-CBC
// over an ECDH shared secret derived from secp256k1 keys. NIP-04 is
// deprecated in favor of NIP-44 but remains the format most relays and
// clients still speak.
package nip04

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"lukechampine.com/frand"

	"github.com/0xtlt/nostr-go"
)

// ComputeSharedSecret derives the NIP-04 shared secret between an x-only
// public key and a secret key via ECDH. The x-only pub is lifted to its
// even-y curve point (prefix 0x02, as BIP-340 does); the 0x03 form is tried
// only if that parse fails. The result is the raw X coordinate of the
// shared point, per NIP-04, not a hash of it.
func ComputeSharedSecret(pub nostr.PubKey, sk [32]byte) ([32]byte, error) {
	priv, _ := btcec.PrivKeyFromBytes(sk[:])
	defer priv.Zero()

	var shared [32]byte

	full, err := btcec.ParsePubKey(append([]byte{0x02}, pub[:]...))
	if err != nil {
		full, err = btcec.ParsePubKey(append([]byte{0x03}, pub[:]...))
		if err != nil {
			return shared, fmt.Errorf("%w: %s", nostr.ErrInvalidPublicKey, err)
		}
	}

	x := btcec.GenerateSharedSecret(priv, full)
	// GenerateSharedSecret returns x.Bytes(), which drops leading zero
	// bytes; re-pad on the left so the key is always exactly 32 bytes.
	copy(shared[32-len(x):], x)
	return shared, nil
}

// Encrypt encrypts message with AES-256-CBC under sharedSecret and a fresh
// random IV, returning the NIP-04 wire format "base64(ciphertext)?iv=base64(iv)".
func Encrypt(message string, sharedSecret [32]byte) (string, error) {
	block, err := aes.NewCipher(sharedSecret[:])
	if err != nil {
		return "", fmt.Errorf("%w: %s", nostr.ErrCrypto, err)
	}

	plaintext := pkcs7Pad([]byte(message), aes.BlockSize)

	iv := make([]byte, aes.BlockSize)
	frand.Read(iv)

	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)

	return base64.StdEncoding.EncodeToString(ciphertext) + "?iv=" + base64.StdEncoding.EncodeToString(iv), nil
}

// Decrypt reverses Encrypt, parsing the "ciphertext?iv=..." wire format.
func Decrypt(payload string, sharedSecret [32]byte) (string, error) {
	ciphertextB64, ivB64, ok := strings.Cut(payload, "?iv=")
	if !ok {
		return "", fmt.Errorf("%w: missing ?iv= in NIP-04 payload", nostr.ErrMalformedField)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", fmt.Errorf("%w: %s", nostr.ErrBadBase64, err)
	}
	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil {
		return "", fmt.Errorf("%w: %s", nostr.ErrBadBase64, err)
	}
	if len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: iv must be %d bytes, got %d", nostr.ErrMalformedField, aes.BlockSize, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext not a multiple of the block size", nostr.ErrMalformedField)
	}

	block, err := aes.NewCipher(sharedSecret[:])
	if err != nil {
		return "", fmt.Errorf("%w: %s", nostr.ErrCrypto, err)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// WrapDirectMessage builds the EventPrepare for a kind-4 encrypted direct
// message from sender to recipientPub, encrypting plaintext under their
// shared secret and tagging the recipient per NIP-04.
func WrapDirectMessage(sender nostr.Identity, recipientPub nostr.PubKey, plaintext string) (nostr.EventPrepare, error) {
	shared, err := ComputeSharedSecret(recipientPub, sender.SecretKey)
	if err != nil {
		return nostr.EventPrepare{}, err
	}
	ciphertext, err := Encrypt(plaintext, shared)
	if err != nil {
		return nostr.EventPrepare{}, err
	}
	return nostr.EventPrepare{
		PubKey:  sender.PubKey,
		Kind:    nostr.KindEncryptedDirectMessage,
		Tags:    nostr.Tags{{"p", recipientPub.String()}},
		Content: ciphertext,
	}, nil
}

// UnwrapDirectMessage decrypts a kind-4 event addressed to recipient's
// identity from senderPub, returning the plaintext content.
func UnwrapDirectMessage(recipient nostr.Identity, senderPub nostr.PubKey, evt nostr.Event) (string, error) {
	if evt.Kind != nostr.KindEncryptedDirectMessage {
		return "", fmt.Errorf("%w: expected kind %d, got %d", nostr.ErrUnexpectedKind, nostr.KindEncryptedDirectMessage, evt.Kind)
	}
	shared, err := ComputeSharedSecret(senderPub, recipient.SecretKey)
	if err != nil {
		return "", err
	}
	return Decrypt(evt.Content, shared)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", nostr.ErrMalformedField)
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, fmt.Errorf("%w: invalid PKCS7 padding", nostr.ErrMalformedField)
	}
	return data[:len(data)-padding], nil
}
