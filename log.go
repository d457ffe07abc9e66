package nostr

import (
	"log"
	"os"
)

var (
	// InfoLogger logs relay-level notices and other non-fatal conditions.
	// Call SetOutput on it to redirect or silence.
	InfoLogger = log.New(os.Stderr, "[nostr-go][info] ", log.LstdFlags)

	// DebugLogger logs frame-level traffic and dropped malformed messages.
	// Call SetOutput on it to redirect or silence.
	DebugLogger = log.New(os.Stderr, "[nostr-go][debug] ", log.LstdFlags)
)

func debugLogf(format string, args ...any) {
	DebugLogger.Printf(format, args...)
}
