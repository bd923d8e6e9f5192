package procmem

import (
	"encoding/binary"
	"math"
	"math/big"
	"unicode/utf16"
)

// ReadBytes reads n bytes at addr. Addresses below the low-memory guard
// return an empty slice rather than failing loudly (spec.md §4.4).
func (s *Session) ReadBytes(addr uintptr, n int) []byte {
	if !s.Active() || addr < lowMemoryGuard || n <= 0 {
		return []byte{}
	}
	buf, ok := s.os.ReadMemory(s.handle, addr, n)
	if !ok {
		s.diag.OSFailure("ReadBytes", "read failed")
		return []byte{}
	}
	s.metrics.bytesRead.Add(float64(len(buf)))
	s.log.WithField("addr", addr).WithField("bytes", len(buf)).Debug("read memory")
	return buf
}

// WriteBytes writes data at addr, guarding addr != 0 && addr >= 0x10000
// (spec.md §4.4).
func (s *Session) WriteBytes(addr uintptr, data []byte) bool {
	if !s.Active() || addr == 0 || addr < lowMemoryGuard {
		s.diag.InvalidInput("WriteBytes", "address below low-memory guard")
		return false
	}
	ok := s.os.WriteMemory(s.handle, addr, data)
	if !ok {
		s.diag.OSFailure("WriteBytes", "write failed")
		return false
	}
	s.metrics.bytesWritten.Add(float64(len(data)))
	s.log.WithField("addr", addr).WithField("bytes", len(data)).Debug("wrote memory")
	return true
}

// ReadInt32 / WriteInt32 — little-endian, direct address.
func (s *Session) ReadInt32(addr uintptr) int32 {
	b := s.ReadBytes(addr, 4)
	if len(b) < 4 {
		return 0
	}
	return int32(binary.LittleEndian.Uint32(b))
}

func (s *Session) WriteInt32(addr uintptr, v int32) bool {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return s.WriteBytes(addr, b)
}

// ReadInt64 / WriteInt64 — little-endian, direct address.
func (s *Session) ReadInt64(addr uintptr) int64 {
	b := s.ReadBytes(addr, 8)
	if len(b) < 8 {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

func (s *Session) WriteInt64(addr uintptr, v int64) bool {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return s.WriteBytes(addr, b)
}

// ReadFloat32 / WriteFloat32 — little-endian, direct address.
func (s *Session) ReadFloat32(addr uintptr) float32 {
	b := s.ReadBytes(addr, 4)
	if len(b) < 4 {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func (s *Session) WriteFloat32(addr uintptr, v float32) bool {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return s.WriteBytes(addr, b)
}

// ReadFloat32Round reads a float32 at addr and rounds the returned value
// (never the underlying bytes) half-to-even to digits decimal places;
// digits <= 0 defaults to 2. This is spec.md §4.4's "read_float has an
// optional rounding mode" — read_float is the f32 member of the
// int/long/float/double naming table in spec.md §6.
func (s *Session) ReadFloat32Round(addr uintptr, digits int) float32 {
	if digits <= 0 {
		digits = 2
	}
	return float32(roundHalfToEven(float64(s.ReadFloat32(addr)), digits))
}

// ReadFloat64 / WriteFloat64 — little-endian, direct address.
func (s *Session) ReadFloat64(addr uintptr) float64 {
	b := s.ReadBytes(addr, 8)
	if len(b) < 8 {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func (s *Session) WriteFloat64(addr uintptr, v float64) bool {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return s.WriteBytes(addr, b)
}

// ReadFloat64Round is ReadFloat32Round's double-precision counterpart
// (read_double in spec.md §6's naming table), offered for symmetry since
// nothing in spec.md restricts rounding to the 32-bit type specifically.
func (s *Session) ReadFloat64Round(addr uintptr, digits int) float64 {
	if digits <= 0 {
		digits = 2
	}
	return roundHalfToEven(s.ReadFloat64(addr), digits)
}

func roundHalfToEven(v float64, digits int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r := new(big.Rat).SetFloat64(v)
	if r == nil {
		return v
	}
	scale := new(big.Rat).SetFloat64(math.Pow10(digits))
	scaled := new(big.Rat).Mul(r, scale)
	num := scaled.Num()
	den := scaled.Denom()
	q, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	// Determine rounding direction: compare 2*|rem| against den.
	twiceRem := new(big.Int).Lsh(new(big.Int).Abs(rem), 1)
	cmp := twiceRem.Cmp(den)
	roundUp := false
	switch {
	case cmp > 0:
		roundUp = true
	case cmp == 0:
		// Half-to-even: round up only if q is odd.
		roundUp = q.Bit(0) == 1
	}
	if roundUp {
		if rem.Sign() < 0 {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}
	result := new(big.Float).SetInt(q)
	result.Quo(result, new(big.Float).SetFloat64(math.Pow10(digits)))
	f, _ := result.Float64()
	return f
}

// ReadString reads len bytes at addr and decodes them as UTF-8 (see
// ReadStringUTF16 for UTF-16), truncating at the first NUL when
// zeroTerminated is set. An empty read returns an empty string (spec.md §4.4).
func (s *Session) ReadString(addr uintptr, length int, zeroTerminated bool) string {
	b := s.ReadBytes(addr, length)
	if len(b) == 0 {
		return ""
	}
	if zeroTerminated {
		for i, c := range b {
			if c == 0 {
				b = b[:i]
				break
			}
		}
	}
	return string(b)
}

// ReadStringUTF16 is the wide-string variant of ReadString, decoding
// length/2 UTF-16 code units little-endian.
func (s *Session) ReadStringUTF16(addr uintptr, length int, zeroTerminated bool) string {
	b := s.ReadBytes(addr, length)
	if len(b) < 2 {
		return ""
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	if zeroTerminated {
		for i, u := range units {
			if u == 0 {
				units = units[:i]
				break
			}
		}
	}
	return string(utf16.Decode(units))
}

// ReadBits returns the byte block at addr as a little-endian bit sequence
// (bit 0 = LSB of byte 0), per spec.md §4.4.
func (s *Session) ReadBits(addr uintptr, nBytes int) []bool {
	b := s.ReadBytes(addr, nBytes)
	bits := make([]bool, len(b)*8)
	for i, by := range b {
		for bit := 0; bit < 8; bit++ {
			bits[i*8+bit] = (by>>uint(bit))&1 == 1
		}
	}
	return bits
}

// Pointer-chain overloads: first resolve through offsets, then dereference.

func (s *Session) ReadInt32Chain(base uintptr, offsets []int64) int32 {
	return s.ReadInt32(s.Resolve(base, offsets))
}
func (s *Session) WriteInt32Chain(base uintptr, offsets []int64, v int32) bool {
	return s.WriteInt32(s.Resolve(base, offsets), v)
}
func (s *Session) ReadInt64Chain(base uintptr, offsets []int64) int64 {
	return s.ReadInt64(s.Resolve(base, offsets))
}
func (s *Session) WriteInt64Chain(base uintptr, offsets []int64, v int64) bool {
	return s.WriteInt64(s.Resolve(base, offsets), v)
}
func (s *Session) ReadFloat32Chain(base uintptr, offsets []int64) float32 {
	return s.ReadFloat32(s.Resolve(base, offsets))
}
func (s *Session) WriteFloat32Chain(base uintptr, offsets []int64, v float32) bool {
	return s.WriteFloat32(s.Resolve(base, offsets), v)
}
func (s *Session) ReadFloat64Chain(base uintptr, offsets []int64) float64 {
	return s.ReadFloat64(s.Resolve(base, offsets))
}
func (s *Session) WriteFloat64Chain(base uintptr, offsets []int64, v float64) bool {
	return s.WriteFloat64(s.Resolve(base, offsets), v)
}
