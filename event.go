package nostr

import (
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// EventPrepare is a pre-signature draft. Signing (via ToEvent) consumes it
// and yields a signed Event.
type EventPrepare struct {
	PubKey    PubKey
	CreatedAt Timestamp
	Kind      Kind
	Tags      Tags
	Content   string
}

// Event is a signed Nostr event.
type Event struct {
	ID        ID
	PubKey    PubKey
	CreatedAt Timestamp
	Kind      Kind
	Tags      Tags
	Content   string
	Sig       [64]byte
}

// GetID computes the canonical id for prep without signing anything.
func (prep EventPrepare) GetID() ID {
	return sha256.Sum256(CanonicalPreimage(prep))
}

// ToEvent signs prep with id's key, producing a fully formed Event.
//
// If difficulty is 0 the event is signed immediately. Otherwise a NIP-13
// proof-of-work nonce tag is mined first (see Mine); mining here has no
// deadline, so callers wanting to bound it should call Mine directly with
// a cancel channel and then sign the result themselves.
func (prep EventPrepare) ToEvent(id Identity, difficulty uint16) (Event, error) {
	prep.PubKey = id.PubKey
	if prep.Tags == nil {
		prep.Tags = Tags{}
	}

	if difficulty > 0 {
		mined, err := Mine(prep, difficulty, nil)
		if err != nil {
			return Event{}, err
		}
		prep = mined
	}

	eventID := prep.GetID()
	sig, err := id.Sign(eventID)
	if err != nil {
		return Event{}, err
	}

	return Event{
		ID:        eventID,
		PubKey:    prep.PubKey,
		CreatedAt: prep.CreatedAt,
		Kind:      prep.Kind,
		Tags:      prep.Tags,
		Content:   prep.Content,
		Sig:       sig,
	}, nil
}

// asPrepare extracts the pre-signature fields of an event, used to recompute
// its canonical preimage during verification.
func (evt Event) asPrepare() EventPrepare {
	return EventPrepare{
		PubKey:    evt.PubKey,
		CreatedAt: evt.CreatedAt,
		Kind:      evt.Kind,
		Tags:      evt.Tags,
		Content:   evt.Content,
	}
}

// Verify recomputes evt's canonical id and checks its signature. It returns
// ErrIDMismatch if the stored id doesn't match the recomputed one, or
// ErrBadSignature if the signature doesn't verify against PubKey.
func (evt Event) Verify() error {
	if !IsValidPublicKey(evt.PubKey) {
		return fmt.Errorf("%w: invalid pubkey on event", ErrMalformedField)
	}

	recomputed := evt.asPrepare().GetID()
	if recomputed != evt.ID {
		return fmt.Errorf("%w: expected %s, got %s", ErrIDMismatch, recomputed, evt.ID)
	}

	pubkey, err := schnorr.ParsePubKey(evt.PubKey[:])
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPublicKey, err)
	}
	sig, err := schnorr.ParseSignature(evt.Sig[:])
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBadSignature, err)
	}
	if !sig.Verify(evt.ID[:], pubkey) {
		return ErrBadSignature
	}

	return nil
}
