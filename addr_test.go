package procmem

import (
	"reflect"
	"testing"
)

func TestParseHexBytes(t *testing.T) {
	cases := []struct {
		in      string
		want    []byte
		wantOK  bool
	}{
		{"A1 C3 08", []byte{0xA1, 0xC3, 0x08}, true},
		{"", nil, true},
		{"00 FF 00", []byte{0x00, 0xFF, 0x00}, true},
		{"ZZ", nil, false},
		{"A1  C3", nil, false}, // double space yields an empty token
	}
	for _, c := range cases {
		got, ok := ParseHexBytes(c.in)
		if ok != c.wantOK {
			t.Fatalf("ParseHexBytes(%q) ok=%v, want %v", c.in, ok, c.wantOK)
		}
		if ok && !reflect.DeepEqual(got, c.want) {
			t.Fatalf("ParseHexBytes(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseOffsets(t *testing.T) {
	got, ok := ParseOffsets("4 C3D 1F")
	if !ok {
		t.Fatal("expected ok")
	}
	want := []int64{0x4, 0xC3D, 0x1F}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseOffsets = %v, want %v", got, want)
	}

	if _, ok := ParseOffsets("nope"); ok {
		t.Fatal("expected malformed offset to fail")
	}
}

func TestResolveSymbolic(t *testing.T) {
	s, _ := newTestSession(t)

	if got := s.ResolveSymbolic("t.exe"); got != 0x10000 {
		t.Fatalf("ResolveSymbolic(t.exe) = %#x, want %#x", got, 0x10000)
	}
	if got := s.ResolveSymbolic("T.EXE+10"); got != 0x10010 {
		t.Fatalf("ResolveSymbolic(T.EXE+10) = %#x, want %#x", got, 0x10010)
	}
	if got := s.ResolveSymbolic(" t.exe + 10 "); got != 0x10010 {
		t.Fatalf("ResolveSymbolic with spaces = %#x, want %#x", got, 0x10010)
	}
	if got := s.ResolveSymbolic("missing.dll"); got != 0 {
		t.Fatalf("ResolveSymbolic(missing.dll) = %#x, want 0", got)
	}
	if got := s.ResolveSymbolic(""); got != 0 {
		t.Fatalf("ResolveSymbolic(\"\") = %#x, want 0", got)
	}
}
