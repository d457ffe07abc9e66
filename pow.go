package nostr

import (
	"strconv"
	"time"
)

// LeadingZeroBits counts the number of leading zero bits in id, most
// significant bit first, per NIP-13.
func LeadingZeroBits(id ID) int {
	total := 0
	for _, b := range id {
		if b == 0 {
			total += 8
			continue
		}
		for i := 7; i >= 0; i-- {
			if b&(1<<uint(i)) != 0 {
				return total
			}
			total++
		}
	}
	return total
}

// Mine appends a NIP-13 nonce tag to prep and searches for the first nonce
// value whose resulting event id has at least difficulty leading zero bits.
// created_at is refreshed to the current time on every iteration so a
// long-running miner never drifts outside a relay's accepted time window.
//
// The search has no intrinsic deadline. If cancel is non-nil and is closed,
// Mine stops and returns ErrTimeout with whatever partial state it had.
func Mine(prep EventPrepare, difficulty uint16, cancel <-chan struct{}) (EventPrepare, error) {
	prep.Tags = append(prep.Tags.Clone(), Tag{"nonce", "0", strconv.Itoa(int(difficulty))})
	nonceIdx := len(prep.Tags) - 1

	var n uint64
	for {
		select {
		case <-cancel:
			return prep, ErrTimeout
		default:
		}

		prep.CreatedAt = Timestamp(time.Now().Unix())
		prep.Tags[nonceIdx] = Tag{"nonce", strconv.FormatUint(n, 10), strconv.Itoa(int(difficulty))}

		if LeadingZeroBits(prep.GetID()) >= int(difficulty) {
			return prep, nil
		}

		n++
	}
}
