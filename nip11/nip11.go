// Package nip11 fetches a relay's NIP-11 RelayInformationDocument over
// plain HTTP(S), the metadata document relays serve at their own URL when
// asked with an "Accept: application/nostr+json" header.
package nip11

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RelayLimitation describes operational limits a relay enforces, per the
// NIP-11 "limitation" object.
type RelayLimitation struct {
	MaxMessageLength int  `json:"max_message_length,omitempty"`
	MaxSubscriptions int  `json:"max_subscriptions,omitempty"`
	MaxFilters       int  `json:"max_filters,omitempty"`
	MaxLimit         int  `json:"max_limit,omitempty"`
	MaxSubidLength   int  `json:"max_subid_length,omitempty"`
	MaxEventTags     int  `json:"max_event_tags,omitempty"`
	MaxContentLength int  `json:"max_content_length,omitempty"`
	MinPowDifficulty int  `json:"min_pow_difficulty,omitempty"`
	AuthRequired     bool `json:"auth_required,omitempty"`
	PaymentRequired  bool `json:"payment_required,omitempty"`
	RestrictedWrites bool `json:"restricted_writes,omitempty"`
}

// RelayPayment describes one fee entry, in the smallest unit of the given
// currency.
type RelayPayment struct {
	Amount int    `json:"amount"`
	Unit   string `json:"unit"`
}

// RelayFees groups the admission, subscription and per-kind publication
// fees a relay may charge.
type RelayFees struct {
	Admission    []RelayPayment `json:"admission,omitempty"`
	Subscription []struct {
		RelayPayment
		Period int `json:"period"`
	} `json:"subscription,omitempty"`
	Publication []struct {
		Kinds []int `json:"kinds"`
		RelayPayment
	} `json:"publication,omitempty"`
}

// RelayInformationDocument is the NIP-11 relay metadata document.
type RelayInformationDocument struct {
	Name           string           `json:"name,omitempty"`
	Description    string           `json:"description,omitempty"`
	PubKey         string           `json:"pubkey,omitempty"`
	Contact        string           `json:"contact,omitempty"`
	SupportedNIPs  []int            `json:"supported_nips,omitempty"`
	Software       string           `json:"software,omitempty"`
	Version        string           `json:"version,omitempty"`
	Limitation     *RelayLimitation `json:"limitation,omitempty"`
	RelayCountries []string         `json:"relay_countries,omitempty"`
	LanguageTags   []string         `json:"language_tags,omitempty"`
	Tags           []string         `json:"tags,omitempty"`
	PostingPolicy  string           `json:"posting_policy,omitempty"`
	PaymentsURL    string           `json:"payments_url,omitempty"`
	Fees           *RelayFees       `json:"fees,omitempty"`
	Icon           string           `json:"icon,omitempty"`
}

// SupportsNIP reports whether n appears in the document's supported_nips
// list.
func (doc RelayInformationDocument) SupportsNIP(n int) bool {
	for _, s := range doc.SupportedNIPs {
		if s == n {
			return true
		}
	}
	return false
}

// Fetch retrieves the NIP-11 document for relayURL, which may be given as a
// ws://, wss://, http:// or https:// URL. If ctx carries no deadline, a
// 7-second timeout is applied.
func Fetch(ctx context.Context, relayURL string) (*RelayInformationDocument, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 7*time.Second)
		defer cancel()
	}

	if !strings.HasPrefix(relayURL, "http") && !strings.HasPrefix(relayURL, "ws") {
		relayURL = "wss://" + relayURL
	}
	u, err := url.Parse(relayURL)
	if err != nil {
		return nil, fmt.Errorf("cannot parse relay url %q: %w", relayURL, err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = strings.TrimRight(u.Path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build nip-11 request: %w", err)
	}
	req.Header.Set("Accept", "application/nostr+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nip-11 request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nip-11 fetch returned status %d", resp.StatusCode)
	}

	info := &RelayInformationDocument{}
	if err := json.NewDecoder(resp.Body).Decode(info); err != nil {
		return nil, fmt.Errorf("invalid nip-11 json: %w", err)
	}
	return info, nil
}
