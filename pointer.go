package procmem

import "encoding/binary"

// wordSize is the machine-word width read at each pointer-chain hop
// (spec.md §3 "Address": "a machine-word-sized unsigned integer").
const wordSize = 8

// lowMemoryGuard is the spec.md §3 null/low-memory boundary: addresses
// below this must never be read or written by the typed I/O layer.
const lowMemoryGuard = 0x10000

// readWord reads one little-endian machine word at addr. Failure (guard
// rejection or OS read failure) returns 0 and ok=false; Resolve then keeps
// its previous running value, matching spec.md §4.3's edge case that a
// failed read "leaves the resolver to continue with an unchanged buffer
// (garbage)".
func (s *Session) readWord(addr uintptr) (uint64, bool) {
	if !s.Active() || addr < lowMemoryGuard {
		return 0, false
	}
	buf, ok := s.os.ReadMemory(s.handle, addr, wordSize)
	if !ok || len(buf) < wordSize {
		s.diag.OSFailure("readWord", "read failed")
		return 0, false
	}
	s.metrics.bytesRead.Add(float64(len(buf)))
	v := binary.LittleEndian.Uint64(buf)
	s.log.WithField("addr", addr).WithField("value", v).Debug("pointer-chain hop")
	return v, true
}

// Resolve walks an offset chain (spec.md §3 "Offset chain", §4.3
// C3 resolve): read a machine word at base, then for each offset o add o
// to the value just read and read a machine word at that address. Returns
// the *address* of the final hop, not the value stored there — this
// asymmetry is load-bearing: callers dereference the returned address
// themselves via the typed I/O layer. An empty chain still performs the
// initial dereference and returns that value interpreted as an address.
func (s *Session) Resolve(base uintptr, offsets []int64) uintptr {
	v, _ := s.readWord(base)
	if len(offsets) == 0 {
		return uintptr(v)
	}

	var a uintptr
	for _, o := range offsets {
		a = uintptr(int64(v) + o)
		if next, ok := s.readWord(a); ok {
			v = next
		}
	}
	return a
}

// ResolveText is the text-grammar overload spec.md §6 calls get_code:
// addr is either a hex address literal or a "<module>[+<hex>]" symbolic
// reference (ResolveSymbolic); offsetsText is the ParseOffsets grammar.
// With an empty offset chain the base address itself is returned, not
// dereferenced; otherwise the chain is walked by Resolve.
func (s *Session) ResolveText(addrOrText, offsetsOrText string) uintptr {
	base, ok := parseHexAddress(addrOrText)
	if !ok {
		base = s.ResolveSymbolic(addrOrText)
		if base == 0 {
			return 0
		}
	}
	offsets, ok := ParseOffsets(offsetsOrText)
	if !ok {
		s.diag.InvalidInput("ResolveText", "malformed offsets: "+offsetsOrText)
		return 0
	}
	if len(offsets) == 0 {
		return base
	}
	return s.Resolve(base, offsets)
}

func parseHexAddress(s string) (uintptr, bool) {
	if s == "" {
		return 0, false
	}
	v, ok := ParseOffsets(s)
	if !ok || len(v) != 1 {
		return 0, false
	}
	if v[0] < 0 {
		return 0, false
	}
	return uintptr(v[0]), true
}
