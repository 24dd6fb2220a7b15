package wsio

import (
	"fmt"
	"io"

	"github.com/deanveloper/weebsocket/frame"
)

// writeOneFrame encodes and writes a single complete frame: header,
// masking key (if any), and the masked payload. It is the building block
// both MessageWriter and StreamWriter send one frame per call with.
func writeOneFrame(dst io.Writer, opcode frame.Opcode, payload []byte, fin bool, policy frame.MaskPolicy) error {
	masked := policy.Masked()
	var key [4]byte
	if masked {
		k, err := policy.Key()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMaskPolicyInvalid, err)
		}
		key = k
	}

	h := frame.Header{
		Fin:        fin,
		Opcode:     opcode,
		Masked:     masked,
		PayloadLen: uint64(len(payload)),
		MaskKey:    key,
	}
	header, err := h.Encode()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPayloadTooLong, err)
	}
	if _, err := dst.Write(header); err != nil {
		return fmt.Errorf("%w: %w", ErrEndOfStream, err)
	}

	if len(payload) == 0 {
		return nil
	}
	out := payload
	if masked {
		out = append([]byte(nil), payload...)
		frame.MaskBytes(key, 0, out)
	}
	if _, err := dst.Write(out); err != nil {
		return fmt.Errorf("%w: %w", ErrEndOfStream, err)
	}
	return nil
}

// WriteControl writes a complete, unfragmented control frame (ping, pong,
// or close) to dst, rejecting payloads RFC 6455 Section 5.5 forbids
// (control frames never exceed 125 bytes and are always FIN=1). Callers
// that want to send an unsolicited ping or a close frame use this
// directly; DefaultControlHandler uses it internally for pong replies.
func WriteControl(dst io.Writer, opcode frame.Opcode, payload []byte, policy frame.MaskPolicy) error {
	if !opcode.IsControl() {
		return fmt.Errorf("%w: %s is not a control opcode", ErrInvalidMessage, opcode)
	}
	if len(payload) > 125 {
		return fmt.Errorf("%w: control frame payload of %d bytes exceeds 125", ErrInvalidMessage, len(payload))
	}
	return writeOneFrame(dst, opcode, payload, true, policy)
}

// MessageWriter sends a single message as exactly one frame, with its
// total length declared up front. Each Write call streams another chunk of
// the already-declared payload; writing more bytes than were declared
// returns ErrEndOfStream, matching the reader side's treatment of a
// caller-misuse write past a message's bounds.
type MessageWriter struct {
	dst       io.Writer
	policy    frame.MaskPolicy
	masked    bool
	key       [4]byte
	remaining uint64
	written   uint64
}

// NewMessageWriter writes the frame header immediately (length is fixed
// for the lifetime of the writer) and returns a writer ready to stream the
// payload through successive Write calls.
func NewMessageWriter(dst io.Writer, opcode frame.Opcode, length uint64, policy frame.MaskPolicy) (*MessageWriter, error) {
	if !opcode.IsData() || opcode == frame.OpContinuation {
		return nil, fmt.Errorf("%w: %s is not a valid message opcode", ErrInvalidMessage, opcode)
	}

	masked := policy.Masked()
	var key [4]byte
	if masked {
		k, err := policy.Key()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMaskPolicyInvalid, err)
		}
		key = k
	}

	h := frame.Header{Fin: true, Opcode: opcode, Masked: masked, PayloadLen: length, MaskKey: key}
	header, err := h.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPayloadTooLong, err)
	}
	if _, err := dst.Write(header); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEndOfStream, err)
	}

	return &MessageWriter{dst: dst, policy: policy, masked: masked, key: key, remaining: length}, nil
}

// Write streams the next chunk of the declared payload to the transport.
func (w *MessageWriter) Write(p []byte) (int, error) {
	if uint64(len(p)) > w.remaining {
		return 0, ErrEndOfStream
	}
	if len(p) == 0 {
		return 0, nil
	}

	out := p
	if w.masked {
		out = append([]byte(nil), p...)
		frame.MaskBytes(w.key, int(w.written%4), out)
	}
	n, err := w.dst.Write(out)
	w.written += uint64(n)
	w.remaining -= uint64(n)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrEndOfStream, err)
	}
	return n, nil
}

// Close reports whether the full declared length was written.
func (w *MessageWriter) Close() error {
	if w.remaining != 0 {
		return ErrEndOfStream
	}
	return nil
}

// Discard pads the remainder of the declared length with zero bytes,
// satisfying the header's promised length after a caller error leaves the
// message short. It is the only way to close a MessageWriter that wasn't
// fully written without returning ErrEndOfStream.
func (w *MessageWriter) Discard() error {
	zero := make([]byte, 4096)
	for w.remaining > 0 {
		n := uint64(len(zero))
		if n > w.remaining {
			n = w.remaining
		}
		if _, err := w.Write(zero[:n]); err != nil {
			return err
		}
	}
	return nil
}

// StreamWriter sends a message as a sequence of frames whose total length
// is not known up front: every Write call flushes its argument as one
// frame (FIN=0, continuation after the first), and Close sends the final
// empty FIN=1 frame. CloseWith lets the last chunk of data ride on that
// final frame instead of being flushed separately.
type StreamWriter struct {
	dst     io.Writer
	policy  frame.MaskPolicy
	opcode  frame.Opcode
	started bool
	closed  bool
}

// NewStreamWriter returns a writer for a message whose length is not known
// in advance; opcode must be OpText or OpBinary.
func NewStreamWriter(dst io.Writer, opcode frame.Opcode, policy frame.MaskPolicy) (*StreamWriter, error) {
	if !opcode.IsData() || opcode == frame.OpContinuation {
		return nil, fmt.Errorf("%w: %s is not a valid message opcode", ErrInvalidMessage, opcode)
	}
	return &StreamWriter{dst: dst, policy: policy, opcode: opcode}, nil
}

func (w *StreamWriter) nextOpcode() frame.Opcode {
	if w.started {
		return frame.OpContinuation
	}
	return w.opcode
}

// Write sends p as one non-final frame.
func (w *StreamWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrWriterClosed
	}
	if err := writeOneFrame(w.dst, w.nextOpcode(), p, false, w.policy); err != nil {
		return 0, err
	}
	w.started = true
	return len(p), nil
}

// Close sends a final, empty FIN=1 frame, ending the message.
func (w *StreamWriter) Close() error {
	return w.CloseWith(nil)
}

// CloseWith sends p as the final FIN=1 frame, ending the message.
func (w *StreamWriter) CloseWith(p []byte) error {
	if w.closed {
		return ErrWriterClosed
	}
	err := writeOneFrame(w.dst, w.nextOpcode(), p, true, w.policy)
	w.started = true
	w.closed = true
	return err
}
