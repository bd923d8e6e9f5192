//go:build windows

package procmem

import (
	"os"
	"testing"
)

// TestIntegrationAttachSelf exercises the real osBridge against the test
// binary's own process, rather than the fakeEnv double the rest of the
// package's tests use (spec.md §8 / SPEC_FULL.md §2.4 "Windows-only
// integration smoke tests").
func TestIntegrationAttachSelf(t *testing.T) {
	exe, err := os.Executable()
	if err != nil {
		t.Skipf("could not determine own executable path: %v", err)
	}

	// os.Executable returns a full path; Attach matches on bare image name.
	name := exe
	if idx := lastSlash(exe); idx >= 0 {
		name = exe[idx+1:]
	}

	s := NewSession(DefaultConfig())
	defer s.Close()

	if !s.Attach(name) {
		d, _ := s.Diagnostics().Last()
		t.Fatalf("Attach(%q) failed: %+v", name, d)
	}
	if s.PID() == 0 {
		t.Fatal("expected a non-zero PID after attaching to self")
	}

	info := s.os.SystemInfo()
	if info.PageSize == 0 {
		t.Fatal("expected a non-zero page size from GetSystemInfo")
	}
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' || s[i] == '\\' {
			return i
		}
	}
	return -1
}
