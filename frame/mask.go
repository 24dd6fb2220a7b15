package frame

import (
	"crypto/rand"
	"errors"
)

// ErrMaskPolicyUnmasked is returned when a caller asks an Unmasked policy
// for a masking key — constructing a masked header from it would be a
// caller invariant violation, not a protocol error.
var ErrMaskPolicyUnmasked = errors.New("frame: unmasked policy has no masking key")

// maskKind discriminates the three MaskPolicy variants. MaskPolicy is kept
// as a small sum type (see spec.md Section 9's "polymorphism over header
// forms" note, applied here too) rather than separate bool flags.
type maskKind int

const (
	maskUnmasked maskKind = iota
	maskRandom
	maskFixed
)

// MaskPolicy selects how a MessageWriter sources the masking key for each
// frame it emits. Client-sent frames MUST be masked (RFC 6455 Section 5.1);
// the core does not enforce connection role, so a Writer configured
// Unmasked on a client connection is a caller error the wsconn layer is
// expected to catch.
type MaskPolicy struct {
	kind maskKind
	key  [4]byte
}

// Unmasked returns a policy that emits unmasked frames (the server role).
func Unmasked() MaskPolicy { return MaskPolicy{kind: maskUnmasked} }

// RandomMask returns a policy that draws a fresh 32-bit key from
// crypto/rand for every frame (the normal client role).
func RandomMask() MaskPolicy { return MaskPolicy{kind: maskRandom} }

// FixedMask returns a policy that reuses the same 4-byte key for every
// frame. Used by tests and by callers that source randomness elsewhere.
func FixedMask(key [4]byte) MaskPolicy { return MaskPolicy{kind: maskFixed, key: key} }

// Masked reports whether headers built from this policy carry the mask bit.
func (p MaskPolicy) Masked() bool { return p.kind != maskUnmasked }

// Key produces the masking key to use for the next frame. Random policies
// draw fresh bytes from crypto/rand on every call; fixed policies return
// the configured key; unmasked policies return ErrMaskPolicyUnmasked.
func (p MaskPolicy) Key() ([4]byte, error) {
	switch p.kind {
	case maskUnmasked:
		return [4]byte{}, ErrMaskPolicyUnmasked
	case maskFixed:
		return p.key, nil
	default: // maskRandom
		var key [4]byte
		if _, err := rand.Read(key[:]); err != nil {
			return [4]byte{}, err
		}
		return key, nil
	}
}

// MaskBytes XORs data in place against the 4-byte key K, treating data as
// starting at byte offset `start` of the logical payload: byte i becomes
// data[i] ^ K[(start+i) mod 4]. The transform is its own inverse and is
// safe to call repeatedly on successive chunks of the same payload,
// provided start is advanced by the number of bytes already processed —
// this is what lets a single masked payload be streamed in pieces without
// losing alignment (RFC 6455 Section 5.3).
func MaskBytes(key [4]byte, start int, data []byte) {
	if len(data) == 0 {
		return
	}
	offset := start & 3
	for i := range data {
		data[i] ^= key[(offset+i)&3]
	}
}
