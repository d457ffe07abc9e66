package nostr

import (
	"context"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"lukechampine.com/frand"
)

// ClientOptions configures a Client's relay connections.
type ClientOptions struct {
	// RequestHeader is sent on every relay's WebSocket handshake.
	RequestHeader http.Header
	// TLSConfig, if set, is used for every relay connection.
	TLSConfig *tls.Config
}

// RelayMessage pairs an inbound Message with the URL of the relay it came
// from.
type RelayMessage struct {
	RelayURL string
	Message  Message
}

type subscriptionState struct {
	mu      sync.Mutex
	filters []ReqFilter
	relays  map[string]bool
	eose    map[string]bool
}

// Client is the Session Manager: it owns every relay connection, fans
// outbound frames (EVENT/REQ/CLOSE) out to all of them, and fans inbound
// frames back in tagged by relay URL.
type Client struct {
	opts ClientOptions

	relays        *xsync.MapOf[string, *relayConn]
	subscriptions *xsync.MapOf[string, *subscriptionState]

	incoming chan relayFrame
	rootCtx  context.Context
}

type relayFrame struct {
	url   string
	frame frame
}

// NewClient creates a Client with no relays yet connected. ctx governs the
// lifetime of every relay connection subsequently added; canceling it tears
// down the whole session.
func NewClient(ctx context.Context, opts ClientOptions) *Client {
	return &Client{
		opts:          opts,
		relays:        xsync.NewMapOf[string, *relayConn](),
		subscriptions: xsync.NewMapOf[string, *subscriptionState](),
		incoming:      make(chan relayFrame, 256),
		rootCtx:       ctx,
	}
}

// AddRelay opens a connection to url and adds it to the relay set. It is
// idempotent: adding an already-present URL is a no-op.
func (c *Client) AddRelay(ctx context.Context, url string) error {
	if _, ok := c.relays.Load(url); ok {
		return nil
	}

	rc, err := dialRelay(ctx, url, c.opts.TLSConfig, c.opts.RequestHeader)
	if err != nil {
		return err
	}

	if _, loaded := c.relays.LoadOrStore(url, rc); loaded {
		rc.close()
		return nil
	}

	go c.pump(url, rc)
	return nil
}

// pump forwards every frame relayConn rc yields into the client's fan-in
// channel until the connection dies or the client's root context ends. A
// genuine relay-side disconnect is turned into one synthetic frameClosed
// frame so callers see a ConnectionClosedMessage; root-context cancellation (whole
// session tearing down) exits quietly instead, since every relay is going
// away together.
func (c *Client) pump(url string, rc *relayConn) {
	for {
		f, err := rc.recv(c.rootCtx)
		if err != nil {
			if errors.Is(err, ErrConnectionClosed) {
				closed := relayFrame{
					url: url,
					frame: frame{
						kind:       frameClosed,
						closeCode:  rc.closeCode,
						closeCause: rc.closeCause,
					},
				}
				select {
				case c.incoming <- closed:
				case <-c.rootCtx.Done():
				}
			}
			return
		}
		select {
		case c.incoming <- relayFrame{url: url, frame: f}:
		case <-c.rootCtx.Done():
			return
		}
	}
}

// RemoveRelay closes and forgets the connection to url.
func (c *Client) RemoveRelay(url string) error {
	rc, ok := c.relays.LoadAndDelete(url)
	if !ok {
		return nil
	}
	return rc.close()
}

// URLs returns the URLs of every relay currently held, in no particular
// order.
func (c *Client) URLs() []string {
	urls := make([]string, 0, c.relays.Size())
	c.relays.Range(func(url string, _ *relayConn) bool {
		urls = append(urls, url)
		return true
	})
	return urls
}

// PublishEvent serializes event once and sends it to every relay. It
// succeeds (nil error) as long as at least one relay accepted the write;
// the returned map always carries the per-relay outcome so callers can
// inspect partial failures. If every relay failed, the error is an
// *AllRelaysFailedError wrapping the same map.
func (c *Client) PublishEvent(ctx context.Context, event Event) (map[string]error, error) {
	env := EventEnvelope{Event: event}
	payload, err := env.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, err)
	}

	results := make(map[string]error)
	var mu sync.Mutex
	var wg sync.WaitGroup

	c.relays.Range(func(url string, rc *relayConn) bool {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := rc.sendText(ctx, payload)
			mu.Lock()
			results[url] = err
			mu.Unlock()
		}()
		return true
	})
	wg.Wait()

	if len(results) == 0 {
		return results, nil
	}

	succeeded := false
	for _, err := range results {
		if err == nil {
			succeeded = true
			break
		}
	}
	if !succeeded {
		return results, &AllRelaysFailedError{PerRelay: results}
	}
	return results, nil
}

// BroadcastEvent is an alias for PublishEvent.
func (c *Client) BroadcastEvent(ctx context.Context, event Event) (map[string]error, error) {
	return c.PublishEvent(ctx, event)
}

// PublishReplaceableEvent publishes a kind in [10000, 20000), the
// replaceable range, failing with a *KindOutOfRangeError otherwise.
func (c *Client) PublishReplaceableEvent(ctx context.Context, id Identity, kind Kind, tags Tags, content string) (Event, map[string]error, error) {
	if kind < 10000 || kind >= 20000 {
		return Event{}, nil, &KindOutOfRangeError{Kind: kind, WantFrom: 10000, WantTo: 20000}
	}
	return c.publishWithKind(ctx, id, kind, tags, content)
}

// PublishEphemeralEvent publishes a kind in [20000, 30000), the ephemeral
// range, failing with a *KindOutOfRangeError otherwise.
func (c *Client) PublishEphemeralEvent(ctx context.Context, id Identity, kind Kind, tags Tags, content string) (Event, map[string]error, error) {
	if kind < 20000 || kind >= 30000 {
		return Event{}, nil, &KindOutOfRangeError{Kind: kind, WantFrom: 20000, WantTo: 30000}
	}
	return c.publishWithKind(ctx, id, kind, tags, content)
}

func (c *Client) publishWithKind(ctx context.Context, id Identity, kind Kind, tags Tags, content string) (Event, map[string]error, error) {
	prep := EventPrepare{
		CreatedAt: Timestamp(time.Now().Unix()),
		Kind:      kind,
		Tags:      tags,
		Content:   content,
	}
	evt, err := prep.ToEvent(id, 0)
	if err != nil {
		return Event{}, nil, err
	}
	results, err := c.PublishEvent(ctx, evt)
	return evt, results, err
}

// newSubscriptionID generates a random 16-byte hex subscription id.
func newSubscriptionID() string {
	var b [16]byte
	frand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// Subscribe generates a random subscription id, broadcasts a REQ frame for
// filters to every relay, and records the subscription.
func (c *Client) Subscribe(ctx context.Context, filters ...ReqFilter) (string, error) {
	subID := newSubscriptionID()
	if err := c.SubscribeWithID(ctx, subID, filters...); err != nil {
		return "", err
	}
	return subID, nil
}

// SubscribeWithID is like Subscribe but with a caller-chosen subscription
// id.
func (c *Client) SubscribeWithID(ctx context.Context, subID string, filters ...ReqFilter) error {
	env := ReqEnvelope{SubscriptionID: subID, Filters: filters}
	payload, err := env.MarshalJSON()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedJSON, err)
	}

	state := &subscriptionState{
		filters: filters,
		relays:  make(map[string]bool),
		eose:    make(map[string]bool),
	}
	c.subscriptions.Store(subID, state)

	c.relays.Range(func(url string, rc *relayConn) bool {
		if err := rc.sendText(ctx, payload); err == nil {
			state.mu.Lock()
			state.relays[url] = true
			state.mu.Unlock()
		}
		return true
	})

	return nil
}

// Unsubscribe broadcasts a CLOSE frame for subID to every relay currently
// holding it and forgets the local record.
func (c *Client) Unsubscribe(ctx context.Context, subID string) error {
	state, ok := c.subscriptions.LoadAndDelete(subID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSubscription, subID)
	}

	env := CloseEnvelope{SubscriptionID: subID}
	payload, err := env.MarshalJSON()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedJSON, err)
	}

	state.mu.Lock()
	urls := make([]string, 0, len(state.relays))
	for url := range state.relays {
		urls = append(urls, url)
	}
	state.mu.Unlock()

	for _, url := range urls {
		if rc, ok := c.relays.Load(url); ok {
			rc.sendText(ctx, payload)
		}
	}
	return nil
}

func (c *Client) toRelayMessage(rf relayFrame) (RelayMessage, bool) {
	switch rf.frame.kind {
	case frameBinary:
		return RelayMessage{RelayURL: rf.url, Message: BinaryMessage{Data: rf.frame.data}}, true
	case frameClosed:
		return RelayMessage{RelayURL: rf.url, Message: ConnectionClosedMessage{
			Code:   int(rf.frame.closeCode),
			Reason: rf.frame.closeCause,
		}}, true
	default:
		msg, err := ParseServerMessage(rf.frame.data)
		if err != nil {
			debugLogf("{%s} dropping malformed message: %s", rf.url, err)
			return RelayMessage{}, false
		}
		return RelayMessage{RelayURL: rf.url, Message: msg}, true
	}
}

// NextData performs a single polling step: it blocks until at least one
// relay has a message ready, then drains everything currently available
// across every relay. Non-event messages (notices, EOSE) are included;
// callers are expected to handle them.
func (c *Client) NextData(ctx context.Context) ([]RelayMessage, error) {
	var out []RelayMessage

	select {
	case rf := <-c.incoming:
		if rm, ok := c.toRelayMessage(rf); ok {
			out = append(out, rm)
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s", ErrTimeout, ctx.Err())
	}

	for {
		select {
		case rf := <-c.incoming:
			if rm, ok := c.toRelayMessage(rf); ok {
				out = append(out, rm)
			}
		default:
			return out, nil
		}
	}
}

// GetEventsOf subscribes with filters, accumulates every matching, verified
// event, and returns once every relay that acknowledged the subscription
// has reported EOSE, or timeout elapses (whichever comes first). It always
// issues CLOSE before returning.
func (c *Client) GetEventsOf(ctx context.Context, timeout time.Duration, filters ...ReqFilter) ([]Event, error) {
	subID, err := c.Subscribe(ctx, filters...)
	if err != nil {
		return nil, err
	}

	state, _ := c.subscriptions.Load(subID)

	deadline := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		deadline, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var events []Event
	timedOut := false

loop:
	for {
		if c.subscriptionDone(state) {
			break
		}

		batch, err := c.NextData(deadline)
		if err != nil {
			timedOut = true
			break loop
		}

		for _, rm := range batch {
			switch m := rm.Message.(type) {
			case EventMessage:
				if m.SubscriptionID != subID {
					continue
				}
				if !MatchesAny(filters, m.Event) {
					continue
				}
				if err := m.Event.Verify(); err != nil {
					debugLogf("{%s} dropping event with invalid signature: %s", rm.RelayURL, err)
					continue
				}
				events = append(events, m.Event)
			case EOSEMessage:
				if m.SubscriptionID != subID {
					continue
				}
				state.mu.Lock()
				state.eose[rm.RelayURL] = true
				state.mu.Unlock()
			case ClosedMessage:
				if m.SubscriptionID != subID {
					continue
				}
				debugLogf("{%s} relay closed subscription: %s", rm.RelayURL, m.Message)
				state.mu.Lock()
				state.eose[rm.RelayURL] = true
				state.mu.Unlock()
			case ConnectionClosedMessage:
				state.mu.Lock()
				if _, ok := state.relays[rm.RelayURL]; ok {
					state.eose[rm.RelayURL] = true
				}
				state.mu.Unlock()
			}
		}
	}

	c.Unsubscribe(ctx, subID)

	if timedOut && deadline.Err() != nil {
		return events, fmt.Errorf("%w: %s", ErrTimeout, deadline.Err())
	}
	return events, nil
}

func (c *Client) subscriptionDone(state *subscriptionState) bool {
	state.mu.Lock()
	defer state.mu.Unlock()
	if len(state.relays) == 0 {
		return false
	}
	for url := range state.relays {
		if !state.eose[url] {
			return false
		}
	}
	return true
}
