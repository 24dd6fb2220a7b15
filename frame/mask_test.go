package frame

import "testing"

// TestMaskBytes_Involution checks invariant 2 from spec.md Section 8:
// mask(s, K, mask(s, K, B)) == B.
func TestMaskBytes_Involution(t *testing.T) {
	key := [4]byte{0x37, 0xfa, 0x21, 0x3d}
	original := []byte("Hello, WebSocket world!")

	data := append([]byte(nil), original...)
	MaskBytes(key, 0, data)
	if string(data) == string(original) {
		t.Fatal("masking should have changed the bytes")
	}
	MaskBytes(key, 0, data)
	if string(data) != string(original) {
		t.Fatalf("double mask = %q, want %q", data, original)
	}
}

// TestMaskBytes_OffsetAlignment verifies that masking the same payload in
// two chunks, with the offset advanced by the first chunk's length,
// produces the same result as masking it in one call — this is what lets
// a masked payload be streamed across multiple reads/writes.
func TestMaskBytes_OffsetAlignment(t *testing.T) {
	key := [4]byte{1, 2, 3, 4}
	payload := []byte("the quick brown fox jumps over the lazy dog")

	whole := append([]byte(nil), payload...)
	MaskBytes(key, 0, whole)

	chunked := append([]byte(nil), payload...)
	for _, split := range []int{1, 3, 4, 7} {
		if split > len(chunked) {
			continue
		}
		MaskBytes(key, 0, chunked[:split])
		MaskBytes(key, split, chunked[split:])
		if string(chunked) != string(whole) {
			t.Fatalf("split at %d: chunked mask = %q, want %q", split, chunked, whole)
		}
		// reset for the next split size
		chunked = append([]byte(nil), payload...)
	}
}

func TestMaskPolicy_Key(t *testing.T) {
	if _, err := Unmasked().Key(); err != ErrMaskPolicyUnmasked {
		t.Errorf("Unmasked().Key() err = %v, want ErrMaskPolicyUnmasked", err)
	}

	fixed := FixedMask([4]byte{9, 9, 9, 9})
	k, err := fixed.Key()
	if err != nil {
		t.Fatalf("FixedMask().Key(): %v", err)
	}
	if k != [4]byte{9, 9, 9, 9} {
		t.Errorf("FixedMask().Key() = %v, want {9,9,9,9}", k)
	}

	random := RandomMask()
	k1, err := random.Key()
	if err != nil {
		t.Fatalf("RandomMask().Key(): %v", err)
	}
	k2, err := random.Key()
	if err != nil {
		t.Fatalf("RandomMask().Key(): %v", err)
	}
	if k1 == k2 {
		t.Error("two calls to RandomMask().Key() produced the same key (astronomically unlikely)")
	}
}

func TestMaskPolicy_Masked(t *testing.T) {
	if Unmasked().Masked() {
		t.Error("Unmasked().Masked() should be false")
	}
	if !RandomMask().Masked() {
		t.Error("RandomMask().Masked() should be true")
	}
	if !FixedMask([4]byte{}).Masked() {
		t.Error("FixedMask().Masked() should be true")
	}
}
