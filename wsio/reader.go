package wsio

import (
	"errors"
	"fmt"
	"io"

	"github.com/deanveloper/weebsocket/frame"
	"github.com/deanveloper/weebsocket/utf8stream"
)

// readerKind is the discriminant of MessageReader's internal state, a sum
// type expressed as an enum plus the fields each variant needs, rather
// than a set of independent booleans: a MessageReader is in exactly one of
// these states at any time.
type readerKind int

const (
	// readerInPayload: remaining bytes of the current frame are still
	// unread; Read streams directly from the transport.
	readerInPayload readerKind = iota
	// readerWaitingNextHeader: the current frame is exhausted but FIN was
	// not set; the next Read must first decode a continuation header.
	readerWaitingNextHeader
	// readerDone: the final frame's payload has been fully delivered and,
	// for text messages, the UTF-8 validator has closed cleanly.
	readerDone
	// readerErr: a prior call returned an error, latched so every
	// subsequent Read returns the same error.
	readerErr
)

// MessageReader streams a single WebSocket message's payload across
// however many frames it was fragmented into, presenting it as one
// io.Reader. Control frames encountered between data frames are dispatched
// to the ControlFrameHandler supplied to ReadMessage rather than being
// visible to the caller.
type MessageReader struct {
	src  io.Reader
	ctrl ControlFrameHandler

	validator *utf8stream.Validator // non-nil only when the message is Text

	kind      readerKind
	err       error
	remaining uint64
	masked    bool
	key       [4]byte
	consumed  uint64 // bytes consumed from the current frame, for mask offset
	fin       bool   // FIN bit of the current/most recently read frame
}

// ReadMessage blocks until the next data frame header arrives, dispatching
// any control frames it sees along the way to ctrl, and returns a
// MessageReader positioned at the start of that message's payload along
// with its type (frame.OpText or frame.OpBinary).
func ReadMessage(src io.Reader, ctrl ControlFrameHandler) (*MessageReader, frame.Opcode, error) {
	h, err := nextDataFrameHeader(src, ctrl)
	if err != nil {
		return nil, 0, err
	}
	if h.Opcode == frame.OpContinuation {
		return nil, 0, fmt.Errorf("%w: continuation frame with no message in progress", ErrInvalidMessage)
	}

	var v *utf8stream.Validator
	if h.Opcode == frame.OpText {
		v = utf8stream.New()
	}

	mr := &MessageReader{
		src:       src,
		ctrl:      ctrl,
		validator: v,
		kind:      readerInPayload,
		remaining: h.PayloadLen,
		masked:    h.Masked,
		key:       h.MaskKey,
		fin:       h.Fin,
	}
	return mr, h.Opcode, nil
}

// nextDataFrameHeader reads headers from src, dispatching any control
// frame it decodes to ctrl and looping for the next one, until it decodes
// a data (or continuation) frame header, which it returns.
func nextDataFrameHeader(src io.Reader, ctrl ControlFrameHandler) (frame.Header, error) {
	for {
		h, err := frame.DecodeHeader(src)
		if err != nil {
			return frame.Header{}, wrapEndOfStream(err)
		}
		if h.Rsv1 || h.Rsv2 || h.Rsv3 {
			return frame.Header{}, fmt.Errorf("%w: reserved bits set", ErrInvalidMessage)
		}
		if !h.Opcode.Valid() {
			return frame.Header{}, fmt.Errorf("%w: opcode 0x%X is reserved", ErrInvalidMessage, byte(h.Opcode))
		}

		if !h.Opcode.IsControl() {
			return h, nil
		}

		if !h.IsControlFrameValid() {
			return frame.Header{}, fmt.Errorf("%w: fragmented or oversized control frame", ErrInvalidMessage)
		}
		payload := make([]byte, h.PayloadLen)
		if _, err := io.ReadFull(src, payload); err != nil {
			return frame.Header{}, wrapEndOfStream(err)
		}
		if h.Masked {
			frame.MaskBytes(h.MaskKey, 0, payload)
		}
		if err := ctrl(h.Opcode, payload); err != nil {
			return frame.Header{}, err
		}
	}
}

func wrapEndOfStream(err error) error {
	if errors.Is(err, frame.ErrPayloadTooLong) {
		return fmt.Errorf("%w: %w", ErrPayloadTooLong, err)
	}
	return fmt.Errorf("%w: %w", ErrEndOfStream, err)
}

// Read implements io.Reader over the message's payload, transparently
// advancing to each continuation frame as the previous one is exhausted
// and validating UTF-8 incrementally for text messages. Once Read returns
// a non-nil error it latches and is returned by every later call.
func (mr *MessageReader) Read(p []byte) (int, error) {
	if mr.kind == readerErr {
		return 0, mr.err
	}
	if mr.kind == readerDone {
		return 0, io.EOF
	}

	if mr.remaining == 0 {
		if mr.fin {
			if mr.validator != nil {
				if err := mr.validator.Close(); err != nil {
					return 0, mr.fail(fmt.Errorf("%w: message ends mid code-point", ErrInvalidUTF8))
				}
			}
			mr.kind = readerDone
			return 0, io.EOF
		}

		h, err := nextDataFrameHeader(mr.src, mr.ctrl)
		if err != nil {
			return 0, mr.fail(err)
		}
		if h.Opcode != frame.OpContinuation {
			return 0, mr.fail(fmt.Errorf("%w: expected continuation frame, got %s", ErrInvalidMessage, h.Opcode))
		}
		mr.remaining = h.PayloadLen
		mr.masked = h.Masked
		mr.key = h.MaskKey
		mr.consumed = 0
		mr.fin = h.Fin
		mr.kind = readerInPayload
		if mr.remaining == 0 {
			return mr.Read(p)
		}
	}

	if len(p) == 0 {
		return 0, nil
	}

	n := len(p)
	if uint64(n) > mr.remaining {
		n = int(mr.remaining)
	}
	read, err := io.ReadFull(mr.src, p[:n])
	if err != nil {
		return read, mr.fail(wrapEndOfStream(err))
	}

	if mr.masked {
		frame.MaskBytes(mr.key, int(mr.consumed%4), p[:read])
	}
	if mr.validator != nil {
		if verr := mr.validator.Write(p[:read]); verr != nil {
			return read, mr.fail(fmt.Errorf("%w: %w", ErrInvalidUTF8, verr))
		}
	}

	mr.consumed += uint64(read)
	mr.remaining -= uint64(read)
	if mr.remaining == 0 && !mr.fin {
		mr.kind = readerWaitingNextHeader
	}
	return read, nil
}

func (mr *MessageReader) fail(err error) error {
	mr.kind = readerErr
	mr.err = err
	return err
}
