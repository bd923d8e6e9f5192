package procmem

import "testing"

// TestResolveNoOffsets exercises spec.md's base case: with no offsets,
// Resolve dereferences base once and returns that value as an address.
func TestResolveNoOffsets(t *testing.T) {
	s, env := newTestSession(t)

	env.writeRaw(0x10100, u64le(0x10200))

	got := s.Resolve(0x10100, nil)
	if got != 0x10200 {
		t.Fatalf("Resolve(no offsets) = %#x, want %#x", got, 0x10200)
	}
}

// TestResolveChain walks base -> +0x10 -> +0x20, verifying the returned
// value is the *address* of the final hop, not the value stored there.
func TestResolveChain(t *testing.T) {
	s, env := newTestSession(t)

	// base dereferences to A; A+0x10 dereferences to B; B+0x20 is the
	// final hop address, and should be returned (not whatever's there).
	const base = 0x10100
	const a = 0x10200
	const b = 0x10300
	env.writeRaw(base, u64le(a))
	env.writeRaw(a+0x10, u64le(b))
	env.writeRaw(b+0x20, u64le(0xDEADBEEF))

	got := s.Resolve(base, []int64{0x10, 0x20})
	want := uintptr(b + 0x20)
	if got != want {
		t.Fatalf("Resolve(chain) = %#x, want %#x", got, want)
	}
}

// TestResolveBrokenHopContinuesWithGarbage mirrors spec.md's documented
// edge case: a failed intermediate read doesn't abort the walk, it just
// leaves the running value unchanged (here, zero) and continues.
func TestResolveBrokenHopContinuesWithGarbage(t *testing.T) {
	s, _ := newTestSession(t)
	// base is unmapped: readWord fails, v stays 0. a = 0+0x10 = 0x10,
	// below the low-memory guard, so the second readWord also fails;
	// the returned address is still 0x10 (guard failure, not a panic).
	got := s.Resolve(0x999999, []int64{0x10})
	if got != 0x10 {
		t.Fatalf("Resolve(broken chain) = %#x, want %#x", got, 0x10)
	}
}

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
	return b
}
