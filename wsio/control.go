package wsio

import (
	"fmt"
	"io"

	"github.com/deanveloper/weebsocket/frame"
)

// ControlFrameHandler is invoked by a MessageReader whenever it encounters
// a control frame (close, ping, or pong) while looking for the next data
// frame. payload has already been unmasked. Returning an error aborts the
// read that triggered the dispatch; the MessageReader latches it.
//
// A handler is a plain closure rather than an interface method so that the
// writer it needs in order to reply (a pong to a ping, for instance) can be
// captured at construction time instead of threaded through every call.
type ControlFrameHandler func(op frame.Opcode, payload []byte) error

// DefaultControlHandler returns a ControlFrameHandler that replies to Ping
// with a Pong carrying the same payload, ignores Pong, and surfaces Close
// as ErrReceivedClose. dst is the writer end of the same connection the
// reader is consuming; policy governs how the reply frame is masked.
func DefaultControlHandler(dst io.Writer, policy frame.MaskPolicy) ControlFrameHandler {
	return func(op frame.Opcode, payload []byte) error {
		switch op {
		case frame.OpPing:
			if err := WriteControl(dst, frame.OpPong, payload, policy); err != nil {
				return fmt.Errorf("%w: %w", ErrControlResponseFailed, err)
			}
			return nil
		case frame.OpPong:
			return nil
		case frame.OpClose:
			return ErrReceivedClose
		default:
			return fmt.Errorf("%w: unhandled control opcode %s", ErrInvalidMessage, op)
		}
	}
}
