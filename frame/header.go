package frame

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// ErrPayloadTooLong is returned by DecodeHeader when a frame declares a
// payload length that exceeds what this host can address in memory.
var ErrPayloadTooLong = errors.New("frame: payload length exceeds host-addressable size")

// Wire-format constants (RFC 6455 Section 5.2).
const (
	lenMax7Bit  = 125 // largest length the short form encodes directly
	lenMarker16 = 126 // "the real length is the next 2 bytes"
	lenMarker64 = 127 // "the real length is the next 8 bytes"

	maskKeySize = 4
)

// Header holds the logical fields of a decoded or to-be-encoded frame
// header. The payload itself is not part of Header — callers stream it
// separately through package wsio.
type Header struct {
	Fin              bool
	Rsv1, Rsv2, Rsv3 bool
	Opcode           Opcode
	Masked           bool
	PayloadLen       uint64
	MaskKey          [4]byte
}

// DecodeHeader reads one frame header from r: the 2-byte base header, then
// whichever extended-length and masking-key fields the base header calls
// for. It does not read the payload. The returned Header's PayloadLen is
// always the effective length, regardless of which wire form carried it.
func DecodeHeader(r io.Reader) (Header, error) {
	var base [2]byte
	if _, err := io.ReadFull(r, base[:]); err != nil {
		return Header{}, err
	}

	h := Header{
		Fin:    base[0]&0x80 != 0,
		Rsv1:   base[0]&0x40 != 0,
		Rsv2:   base[0]&0x20 != 0,
		Rsv3:   base[0]&0x10 != 0,
		Opcode: Opcode(base[0] & 0x0F),
		Masked: base[1]&0x80 != 0,
	}

	lenField := base[1] & 0x7F
	switch lenField {
	case lenMarker16:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return Header{}, err
		}
		h.PayloadLen = uint64(binary.BigEndian.Uint16(ext[:]))
	case lenMarker64:
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return Header{}, err
		}
		h.PayloadLen = binary.BigEndian.Uint64(ext[:])
		if h.PayloadLen > math.MaxInt64 {
			return Header{}, ErrPayloadTooLong
		}
	default:
		h.PayloadLen = uint64(lenField)
	}

	if h.PayloadLen > uint64(math.MaxInt) {
		return Header{}, ErrPayloadTooLong
	}

	if h.Masked {
		if _, err := io.ReadFull(r, h.MaskKey[:]); err != nil {
			return Header{}, err
		}
	}

	return h, nil
}

// Encode serializes h to its minimal wire form: the short (2-byte), medium
// (4-byte), or long (10-byte) header, each 4 bytes longer when masked. It
// does not write the payload.
func (h Header) Encode() ([]byte, error) {
	if h.PayloadLen > uint64(math.MaxInt) {
		return nil, ErrPayloadTooLong
	}

	var extLen int
	switch {
	case h.PayloadLen <= lenMax7Bit:
		extLen = 0
	case h.PayloadLen <= math.MaxUint16:
		extLen = 2
	default:
		extLen = 8
	}

	size := 2 + extLen
	if h.Masked {
		size += maskKeySize
	}
	buf := make([]byte, size)

	if h.Fin {
		buf[0] |= 0x80
	}
	if h.Rsv1 {
		buf[0] |= 0x40
	}
	if h.Rsv2 {
		buf[0] |= 0x20
	}
	if h.Rsv3 {
		buf[0] |= 0x10
	}
	buf[0] |= byte(h.Opcode) & 0x0F

	if h.Masked {
		buf[1] |= 0x80
	}

	switch extLen {
	case 0:
		buf[1] |= byte(h.PayloadLen)
	case 2:
		buf[1] |= lenMarker16
		binary.BigEndian.PutUint16(buf[2:4], uint16(h.PayloadLen))
	case 8:
		buf[1] |= lenMarker64
		binary.BigEndian.PutUint64(buf[2:10], h.PayloadLen)
	}

	if h.Masked {
		copy(buf[2+extLen:2+extLen+maskKeySize], h.MaskKey[:])
	}

	return buf, nil
}

// IsControlFrameValid reports whether h satisfies the control-frame shape
// constraints of RFC 6455 Section 5.5: FIN set and payload no larger than
// 125 bytes. Control frame headers never use the extended-length forms,
// since 125 always fits in the 7-bit field.
func (h Header) IsControlFrameValid() bool {
	return h.Fin && h.PayloadLen <= lenMax7Bit
}
