// Package nip05 resolves NIP-05 DNS-based identifiers ("name@domain.com")
// against the domain's /.well-known/nostr.json document.
package nip05

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	nostr "github.com/0xtlt/nostr-go"
)

var identifierPattern = regexp.MustCompile(`^(?:([\w.+-]+)@)?([\w_-]+(\.[\w_-]+)+)$`)

var httpClient = &http.Client{
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

// WellKnownResponse is the JSON shape of a domain's /.well-known/nostr.json.
type WellKnownResponse struct {
	Names  map[string]string   `json:"names"`
	Relays map[string][]string `json:"relays,omitempty"`
}

// ProfilePointer identifies a pubkey together with relay hints for reaching
// it, the result of resolving a NIP-05 identifier.
type ProfilePointer struct {
	PublicKey nostr.PubKey
	Relays    []string
}

// IsValidIdentifier reports whether input has the shape "name@domain" (or
// bare "domain", implying name "_").
func IsValidIdentifier(input string) bool {
	return identifierPattern.MatchString(input)
}

// ParseIdentifier splits fullname into its name and domain parts. A bare
// domain with no "@" is treated as name "_".
func ParseIdentifier(fullname string) (name, domain string, err error) {
	res := identifierPattern.FindStringSubmatch(fullname)
	if len(res) == 0 {
		return "", "", fmt.Errorf("%w: %q is not a valid nip-05 identifier", nostr.ErrMalformedField, fullname)
	}
	if res[1] == "" {
		res[1] = "_"
	}
	return res[1], res[2], nil
}

// NormalizeIdentifier strips the "_@" prefix used for display purposes.
func NormalizeIdentifier(fullname string) string {
	return strings.TrimPrefix(fullname, "_@")
}

// Fetch retrieves and decodes fullname's domain's well-known document,
// returning the parsed name alongside it for convenience.
func Fetch(ctx context.Context, fullname string) (resp WellKnownResponse, name string, err error) {
	name, domain, err := ParseIdentifier(fullname)
	if err != nil {
		return resp, name, err
	}

	url := fmt.Sprintf("https://%s/.well-known/nostr.json?name=%s", domain, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return resp, name, fmt.Errorf("failed to build nip-05 request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := httpClient.Do(req)
	if err != nil {
		return resp, name, fmt.Errorf("nip-05 fetch failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return resp, name, fmt.Errorf("nip-05 fetch returned status %d", res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return resp, name, fmt.Errorf("failed to decode nip-05 response: %w", err)
	}
	return resp, name, nil
}

// Resolve fetches fullname's well-known document and returns the profile
// pointer for its name entry.
func Resolve(ctx context.Context, fullname string) (*ProfilePointer, error) {
	result, name, err := Fetch(ctx, fullname)
	if err != nil {
		return nil, err
	}

	pubkeyHex, ok := result.Names[name]
	if !ok {
		return nil, fmt.Errorf("no entry for name %q", name)
	}
	pubkey, err := nostr.PubKeyFromHex(pubkeyHex)
	if err != nil {
		return nil, fmt.Errorf("got an invalid public key %q: %w", pubkeyHex, err)
	}

	return &ProfilePointer{
		PublicKey: pubkey,
		Relays:    result.Relays[pubkeyHex],
	}, nil
}
