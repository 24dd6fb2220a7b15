// Package wsio is the streaming message layer on top of package frame: a
// MessageReader/MessageWriter pair that move a WebSocket message through
// bounded memory one chunk at a time, a pluggable control-frame handler,
// and the error taxonomy both sides report through.
package wsio

import "errors"

var (
	// ErrEndOfStream is returned when the underlying transport ends or
	// returns a short read/write mid-frame or mid-message, and when a
	// caller writes past a MessageWriter's declared length.
	ErrEndOfStream = errors.New("wsio: end of stream")

	// ErrInvalidMessage indicates a protocol violation: reserved bits set,
	// an unknown opcode, a fragmented or oversized control frame, a
	// continuation frame with no message in progress, or a data frame
	// opcode where a continuation was expected. RFC 6455 Section 7.4.1
	// maps this to close code 1002.
	ErrInvalidMessage = errors.New("wsio: invalid message")

	// ErrInvalidUTF8 indicates a text message's payload failed incremental
	// UTF-8 validation, including a message that ends mid code-point. RFC
	// 6455 Section 7.4.1 maps this to close code 1007.
	ErrInvalidUTF8 = errors.New("wsio: invalid UTF-8 in text message")

	// ErrPayloadTooLong indicates a declared payload length exceeds what
	// this host can address in memory (see frame.ErrPayloadTooLong, which
	// this wraps at the message layer).
	ErrPayloadTooLong = errors.New("wsio: payload length exceeds host-addressable size")

	// ErrReceivedClose indicates the control handler observed a close
	// frame. DefaultControlHandler returns this from its closure; callers
	// reading a message should treat it as the end of the connection.
	ErrReceivedClose = errors.New("wsio: peer sent a close frame")

	// ErrControlResponseFailed indicates the control handler's attempt to
	// write a reply frame (a pong, typically) failed.
	ErrControlResponseFailed = errors.New("wsio: control frame response failed")

	// ErrWriterClosed indicates a write or Close call on a StreamWriter
	// that has already been closed.
	ErrWriterClosed = errors.New("wsio: writer already closed")

	// ErrMaskPolicyInvalid indicates a writer's masked policy could not
	// supply a masking key for a frame (for example, the random source
	// failed). Writers do not check connection role: an Unmasked policy is
	// accepted and produces unmasked frames.
	ErrMaskPolicyInvalid = errors.New("wsio: mask policy invalid for this writer")
)
