// Package utf8stream validates a UTF-8 byte stream that arrives split
// across an arbitrary number of calls, carrying at most 3 bytes of a
// still-incomplete code point between calls (RFC 3629, spec.md Section
// 4.3). It exists because the stdlib's unicode/utf8 only validates
// complete, fully-buffered byte slices — the message reader in package
// wsio needs to validate a text message's payload as it streams through,
// frame by frame and chunk by chunk, without ever holding the whole
// message in memory.
package utf8stream

import "errors"

// ErrInvalidUTF8 is returned for any malformed sequence: an illegal lead
// byte, an invalid continuation byte, an overlong encoding, an encoded
// surrogate half, or a code point above U+10FFFF.
var ErrInvalidUTF8 = errors.New("utf8stream: invalid UTF-8 sequence")

// Validator holds the 0-3 bytes of a code point left incomplete by the
// most recent call to Write, so the next call can pick up where it left
// off. The zero value is ready to use.
type Validator struct {
	carry    [3]byte
	carryLen int
}

// New returns a Validator ready to validate the start of a fresh stream.
func New() *Validator {
	return &Validator{}
}

// Reset clears any carried partial code point, as if the Validator were
// newly constructed.
func (v *Validator) Reset() {
	v.carryLen = 0
}

// leadInfo reports the total byte length of the code point that begins
// with lead byte b, and whether b is a legal lead byte at all. Bytes
// 0x80-0xBF can only appear as continuation bytes, and 0xC0, 0xC1 and
// 0xF5-0xFF can never appear in valid UTF-8 (RFC 3629 Section 4).
func leadInfo(b byte) (length int, ok bool) {
	switch {
	case b < 0x80:
		return 1, true
	case b >= 0xC2 && b <= 0xDF:
		return 2, true
	case b >= 0xE0 && b <= 0xEF:
		return 3, true
	case b >= 0xF0 && b <= 0xF4:
		return 4, true
	default:
		return 0, false
	}
}

// validContinuation reports whether b is legal as the j-th byte (1-indexed
// from the lead byte) of a code point that started with lead. Every
// continuation byte must match 10xxxxxx; the first continuation byte after
// certain lead bytes is additionally restricted, to rule out overlong
// encodings, encoded surrogate halves (U+D800-U+DFFF), and code points
// above U+10FFFF.
func validContinuation(lead byte, j int, b byte) bool {
	if b&0xC0 != 0x80 {
		return false
	}
	if j != 1 {
		return true
	}
	switch lead {
	case 0xE0:
		return b >= 0xA0 && b <= 0xBF // rule out overlong 3-byte forms
	case 0xED:
		return b >= 0x80 && b <= 0x9F // rule out encoded surrogates
	case 0xF0:
		return b >= 0x90 && b <= 0xBF // rule out overlong 4-byte forms
	case 0xF4:
		return b >= 0x80 && b <= 0x8F // rule out code points above U+10FFFF
	default:
		return true
	}
}

// Write validates the next chunk of the stream, consuming and validating
// as many full code points as p contains. Any trailing bytes that form the
// start of a still-incomplete code point are retained as carry and merged
// with the start of the next call's chunk; they are not re-validated as a
// new, separate chunk.
func (v *Validator) Write(p []byte) error {
	if v.carryLen > 0 {
		lead := v.carry[0]
		length, _ := leadInfo(lead) // the lead byte was already validated when it was carried
		need := length - v.carryLen
		if need > len(p) {
			need = len(p)
		}
		for j := 0; j < need; j++ {
			if !validContinuation(lead, v.carryLen+j, p[j]) {
				return ErrInvalidUTF8
			}
		}
		v.carryLen += need
		p = p[need:]
		if v.carryLen < length {
			// Still short; nothing more to scan this call.
			return nil
		}
		v.carryLen = 0
	}
	return v.scan(p)
}

// scan validates p from a clean boundary (no carry in progress) and stores
// any trailing partial code point in v.carry.
func (v *Validator) scan(p []byte) error {
	i, n := 0, len(p)
	for i < n {
		b := p[i]
		if b < 0x80 {
			i++
			for i < n && p[i] < 0x80 {
				i++
			}
			continue
		}

		length, ok := leadInfo(b)
		if !ok {
			return ErrInvalidUTF8
		}

		avail := n - i
		checkLen := length
		if avail < checkLen {
			checkLen = avail
		}
		for j := 1; j < checkLen; j++ {
			if !validContinuation(b, j, p[i+j]) {
				return ErrInvalidUTF8
			}
		}

		if avail < length {
			v.carryLen = copy(v.carry[:], p[i:n])
			return nil
		}
		i += length
	}
	return nil
}

// Close reports whether the stream ended on a complete code point. A
// non-empty carry at this point means the stream was truncated mid
// code-point, which spec.md Section 4.3 treats as an error.
func (v *Validator) Close() error {
	if v.carryLen > 0 {
		return ErrInvalidUTF8
	}
	return nil
}
