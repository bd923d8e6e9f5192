package procmem

import "testing"

func TestScanMemoryExactMatch(t *testing.T) {
	s, env := newTestSession(t)
	env.writeRaw(0x10040, []byte{0x48, 0x8B, 0x33})

	matches := s.ScanMemory([]byte{0x48, 0x8B, 0x33}, 0x10000)
	if len(matches) != 1 || matches[0] != 0x10040 {
		t.Fatalf("ScanMemory = %v, want [0x10040]", matches)
	}
}

func TestScanMemoryWildcard(t *testing.T) {
	s, env := newTestSession(t)
	env.writeRaw(0x10040, []byte{0x48, 0x8B, 0x33})
	env.writeRaw(0x10080, []byte{0x48, 0xFF, 0x33})

	matches := s.ScanMemory([]byte{0x48, 0x00, 0x33}, 0x10000)
	if len(matches) != 2 {
		t.Fatalf("expected 2 wildcard matches, got %v", matches)
	}
}

func TestScanMemorySkipsUnreadableRegions(t *testing.T) {
	env := newFakeEnv(1234, "t.exe", 0x10000, 0x40000, 0x1000, []fakeRegion{
		{base: 0x10000, size: 0x1000, state: StateCommit, protect: ProtectNoAccess},
		{base: 0x11000, size: 0x1000, state: StateCommit, protect: ProtectReadWrite},
		{base: 0x12000, size: 0x40000 - 0x12000, state: StateFree},
	})
	env.modules = []ModuleInfo{{Name: "t.exe", Base: 0x10000, Size: 0x1000}}
	s := newSessionWith(env, env, DefaultConfig())
	if !s.Attach("t.exe") {
		t.Fatal("attach failed")
	}
	env.writeRaw(0x11010, []byte{0xAA, 0xBB})

	matches := s.ScanMemory([]byte{0xAA, 0xBB}, 0x10000)
	if len(matches) != 1 || matches[0] != 0x11010 {
		t.Fatalf("ScanMemory = %v, want [0x11010] (no-access region must be skipped)", matches)
	}
}

func TestScanMemoryTextHexGrammar(t *testing.T) {
	s, env := newTestSession(t)
	env.writeRaw(0x10040, []byte{0x48, 0x8B, 0x33})
	matches := s.ScanMemoryText("48 00 33", 0x10000)
	if len(matches) != 1 || matches[0] != 0x10040 {
		t.Fatalf("ScanMemoryText = %v, want [0x10040]", matches)
	}
}

func TestScanMemoryEmptyPatternFails(t *testing.T) {
	s, _ := newTestSession(t)
	if s.ScanMemory(nil, 0x10000) != nil {
		t.Fatal("expected nil for empty pattern")
	}
}
