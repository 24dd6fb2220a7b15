// Package wsconn composes package handshake, package wsio, structured
// logging, and a short correlation ID into the client-facing type this
// repository's CLI (and any other caller) actually imports. wsio itself
// stays a dependency-light streaming core; this is the layer that logs,
// assigns connection IDs, and maps protocol errors to close codes.
package wsconn

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/rs/zerolog"

	"github.com/deanveloper/weebsocket/frame"
	"github.com/deanveloper/weebsocket/handshake"
	"github.com/deanveloper/weebsocket/wsio"
)

// dialTimeout bounds the initial TCP connect; the handshake itself has no
// separate timeout since it rides the same connection.
const dialTimeout = 5 * time.Second

// Conn is a WebSocket client connection: a dialed net.Conn plus the
// streaming codec, a connection ID for log correlation, and the mask
// policy every outgoing frame uses (client frames are always masked per
// RFC 6455 Section 5.3).
type Conn struct {
	nc       net.Conn
	id       string
	log      zerolog.Logger
	policy   frame.MaskPolicy
	protocol string
	closed   bool
}

// Dial opens a TCP connection to addr and performs the RFC 6455 opening
// handshake for path. logger is annotated with a short connection ID and
// used for every protocol event this Conn logs.
func Dial(addr, path string, logger zerolog.Logger) (*Conn, error) {
	d := net.Dialer{Timeout: dialTimeout}
	nc, err := d.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("wsconn: dial %s: %w", addr, err)
	}

	result, err := handshake.Dial(nc, handshake.Options{Host: addr, Path: path})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("wsconn: handshake with %s%s: %w", addr, path, err)
	}

	id := shortuuid.New()
	c := &Conn{
		nc:       nc,
		id:       id,
		log:      logger.With().Str("conn_id", id).Logger(),
		policy:   frame.RandomMask(),
		protocol: result.Protocol,
	}
	c.log.Info().Str("addr", addr).Str("path", path).Str("protocol", result.Protocol).Msg("connected")
	return c, nil
}

// ID returns the short correlation ID assigned to this connection.
func (c *Conn) ID() string { return c.id }

// Protocol returns the subprotocol the server selected, or "" if none.
func (c *Conn) Protocol() string { return c.protocol }

// ReadMessage blocks for the next data message, auto-replying to pings
// along the way. It returns wsio.ErrReceivedClose once the peer sends a
// close frame. Any error ends the connection: ReadMessage sends a close
// frame carrying the RFC 6455 Section 7.4.1 status code the error maps to
// (closeCodeFor, or CloseNormal when the peer sent the close frame) and
// tears down the transport before returning, so callers
// never need to close the connection themselves after a failed read.
func (c *Conn) ReadMessage() (frame.Opcode, []byte, error) {
	ctrl := wsio.DefaultControlHandler(c.nc, c.policy)
	mr, opcode, err := wsio.ReadMessage(c.nc, ctrl)
	if err != nil {
		c.teardown(err)
		return 0, nil, err
	}

	data, err := io.ReadAll(mr)
	if err != nil {
		c.teardown(err)
		return 0, nil, err
	}
	return opcode, data, nil
}

// SendText sends s as a single-frame text message.
func (c *Conn) SendText(s string) error {
	w, err := wsio.NewMessageWriter(c.nc, frame.OpText, uint64(len(s)), c.policy)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(s)); err != nil {
		return err
	}
	return w.Close()
}

// SendBinary sends p as a single-frame binary message.
func (c *Conn) SendBinary(p []byte) error {
	w, err := wsio.NewMessageWriter(c.nc, frame.OpBinary, uint64(len(p)), c.policy)
	if err != nil {
		return err
	}
	if _, err := w.Write(p); err != nil {
		return err
	}
	return w.Close()
}

// Ping sends an unsolicited ping carrying payload.
func (c *Conn) Ping(payload []byte) error {
	return wsio.WriteControl(c.nc, frame.OpPing, payload, c.policy)
}

// Close sends a close frame with the given status code and reason, then
// closes the underlying connection. It is idempotent: once the connection
// has been torn down (by Close itself or by ReadMessage after an error),
// later calls are a no-op.
func (c *Conn) Close(code frame.CloseCode, reason string) error {
	if c.closed {
		return nil
	}
	c.log.Info().Uint16("close_code", uint16(code)).Str("reason", reason).Msg("closing")
	return c.shutdown(code, reason)
}

// teardown ends the connection in response to a ReadMessage error: it maps
// the error to the close code RFC 6455 Section 7.4.1 calls for, sends a
// close frame carrying it, logs the outcome, and closes the transport.
// ErrReceivedClose means the peer already initiated the closing handshake,
// so the connection is torn down with CloseNormal rather than logged as a
// failure.
func (c *Conn) teardown(err error) {
	if c.closed {
		return
	}
	if errors.Is(err, wsio.ErrReceivedClose) {
		c.log.Info().Msg("peer closed the connection")
		c.shutdown(frame.CloseNormal, "")
		return
	}

	code := closeCodeFor(err)
	c.log.Error().Err(err).Uint16("close_code", uint16(code)).Msg("protocol error reading message, closing connection")
	c.shutdown(code, err.Error())
}

// shutdown sends the close frame and closes the transport, marking the
// connection closed regardless of whether the send succeeds.
func (c *Conn) shutdown(code frame.CloseCode, reason string) error {
	payload := make([]byte, 2, 2+len(reason))
	binary.BigEndian.PutUint16(payload, uint16(code))
	payload = append(payload, reason...)

	sendErr := wsio.WriteControl(c.nc, frame.OpClose, payload, c.policy)
	closeErr := c.nc.Close()
	c.closed = true
	if sendErr != nil {
		return sendErr
	}
	return closeErr
}

// closeCodeFor maps a protocol error to the close code RFC 6455 Section
// 7.4.1 calls for when terminating the connection because of it.
func closeCodeFor(err error) frame.CloseCode {
	switch {
	case errors.Is(err, wsio.ErrInvalidUTF8):
		return frame.CloseInconsistentData
	case errors.Is(err, wsio.ErrInvalidMessage):
		return frame.CloseProtocolError
	case errors.Is(err, wsio.ErrPayloadTooLong):
		return frame.CloseMessageTooLarge
	default:
		return frame.CloseInternalError
	}
}
