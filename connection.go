package nostr

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	ws "github.com/coder/websocket"
)

// frameKind distinguishes the WebSocket message types a relayConn can
// receive; text frames carry Nostr JSON, binary frames are passed through
// opaquely per spec. frameClosed is synthesized locally (never read off the
// wire) when the connection ends, carrying whatever close code/reason the
// peer sent.
type frameKind int

const (
	frameText frameKind = iota
	frameBinary
	frameClosed
)

type frame struct {
	kind       frameKind
	data       []byte
	closeCode  ws.StatusCode
	closeCause string
}

type writeRequest struct {
	data   []byte
	answer chan error
}

// relayConn wraps one WebSocket connection to a single relay: a dedicated
// writer goroutine serializes outgoing frames (so concurrent publishes and
// subscribes from the Session Manager never interleave bytes on the wire),
// and a reader goroutine feeds received (still unparsed) frames back through
// recv.
type relayConn struct {
	url    string
	conn   *ws.Conn
	cancel context.CancelCauseFunc

	writeQueue chan writeRequest
	readQueue  chan frame

	closed       atomic.Bool
	closedNotify chan struct{}

	// closeCode/closeCause describe how the connection ended: the peer's
	// close status (via ws.CloseStatus) and cause when known, or -1 and a
	// locally-generated reason otherwise. Only safe to read after
	// closedNotify has been observed closed.
	closeCode  ws.StatusCode
	closeCause string
}

// dialRelay establishes a TLS WebSocket connection to url.
func dialRelay(ctx context.Context, url string, tlsConfig *tls.Config, header http.Header) (*relayConn, error) {
	dialCtx := ctx
	var cancelDial context.CancelFunc
	if _, ok := dialCtx.Deadline(); !ok {
		dialCtx, cancelDial = context.WithTimeout(ctx, 7*time.Second)
		defer cancelDial()
	}

	c, _, err := ws.Dial(dialCtx, url, &ws.DialOptions{
		HTTPHeader: header,
		HTTPClient: &http.Client{Transport: &http.Transport{TLSClientConfig: tlsConfig}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrConnectError, url, err)
	}
	c.SetReadLimit(2 << 24) // 33MB; relays may batch large historical replays

	connCtx, cancel := context.WithCancelCause(context.Background())

	rc := &relayConn{
		url:          url,
		conn:         c,
		cancel:       cancel,
		writeQueue:   make(chan writeRequest),
		readQueue:    make(chan frame),
		closedNotify: make(chan struct{}),
	}

	go rc.writeLoop(connCtx)
	go rc.readLoop(connCtx)

	return rc, nil
}

func (rc *relayConn) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(29 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rc.doClose(ws.StatusNormalClosure, "")
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 800*time.Millisecond)
			err := rc.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				rc.doClose(ws.StatusAbnormalClosure, "ping failed")
				return
			}
		case wr := <-rc.writeQueue:
			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := rc.conn.Write(writeCtx, ws.MessageText, wr.data)
			cancel()
			if err != nil {
				rc.doClose(ws.StatusAbnormalClosure, "write failed")
				if wr.answer != nil {
					wr.answer <- fmt.Errorf("%w: %s", ErrWriteError, err)
				}
				return
			}
			if wr.answer != nil {
				close(wr.answer)
			}
		}
	}
}

func (rc *relayConn) readLoop(ctx context.Context) {
	for {
		typ, data, err := rc.conn.Read(ctx)
		if err != nil {
			rc.doClosePeer(err)
			return
		}

		var kind frameKind
		switch typ {
		case ws.MessageBinary:
			kind = frameBinary
		default:
			kind = frameText
		}

		select {
		case rc.readQueue <- frame{kind: kind, data: data}:
		case <-ctx.Done():
			return
		}
	}
}

// sendText serializes and queues one text frame, blocking until it has been
// written (or the connection fails).
func (rc *relayConn) sendText(ctx context.Context, data []byte) error {
	if rc.closed.Load() {
		return ErrConnectionClosed
	}

	ch := make(chan error)
	select {
	case rc.writeQueue <- writeRequest{data: data, answer: ch}:
	case <-rc.closedNotify:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-ch:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recv blocks until one message arrives or the connection fails/closes.
func (rc *relayConn) recv(ctx context.Context) (frame, error) {
	select {
	case f := <-rc.readQueue:
		return f, nil
	case <-rc.closedNotify:
		return frame{}, ErrConnectionClosed
	case <-ctx.Done():
		return frame{}, ctx.Err()
	}
}

func (rc *relayConn) isClosed() bool { return rc.closed.Load() }

func (rc *relayConn) close() error {
	rc.doClose(ws.StatusNormalClosure, "closed by caller")
	return nil
}

func (rc *relayConn) doClose(code ws.StatusCode, reason string) {
	if rc.closed.Swap(true) {
		return
	}
	rc.closeCode = -1
	rc.closeCause = reason
	rc.conn.Close(code, reason)
	rc.cancel(errors.New(reason))
	close(rc.closedNotify)
}

// doClosePeer ends the connection after a failed Read, recording whatever
// close status the peer sent (via ws.CloseStatus) so pump can hand callers a
// ConnectionClosedMessage instead of just an error.
func (rc *relayConn) doClosePeer(err error) {
	if rc.closed.Swap(true) {
		return
	}
	rc.closeCode = ws.CloseStatus(err)
	rc.closeCause = err.Error()
	rc.conn.Close(ws.StatusAbnormalClosure, "read failed")
	rc.cancel(err)
	close(rc.closedNotify)
}
