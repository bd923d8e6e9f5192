package procmem

import "testing"

// newTestSession builds a Session wired to a fakeEnv with one committed
// RW region (the "data" region used for typed I/O / pointer-chain /
// scanner fixtures) followed by a large free region (used by the cave
// placement engine).
func newTestSession(t *testing.T) (*Session, *fakeEnv) {
	t.Helper()
	env := newFakeEnv(1234, "t.exe", 0x10000, 0x1000000, 0x1000, []fakeRegion{
		{base: 0x10000, size: 0x10000, state: StateCommit, protect: ProtectReadWrite},
		{base: 0x20000, size: 0x1000000 - 0x20000, state: StateFree},
	})
	env.modules = []ModuleInfo{{Name: "t.exe", Base: 0x10000, Size: 0x10000}}

	s := newSessionWith(env, env, DefaultConfig())
	if !s.Attach("t.exe") {
		t.Fatalf("Attach failed unexpectedly")
	}
	return s, env
}
