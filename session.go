package procmem

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Cave is the tuple spec.md §3 names: donor address, cave address,
// replaced-byte count, and whether it has been installed.
type Cave struct {
	Donor     uintptr
	Address   uintptr
	Replaced  int
	Installed bool
	// Executable records whether the cave allocation actually got
	// EXECUTE_READWRITE, or fell back to plain READWRITE (spec.md §4.6
	// step 3 / §9 "Fallback to non-executable memory"). A caller that
	// cares about DEP should check this before trusting the trampoline.
	Executable bool
}

// Session is a handle to a foreign process (spec.md §3 "Session"). At most
// one process is active per Session; attaching while active closes the
// existing handle first. Every core operation (C2–C7) routes through a
// Session's osBridge and handle.
type Session struct {
	os      osBridge
	procs   processLister
	config  Config
	diag    *DiagnosticLog
	metrics *sessionMetrics

	handle  Handle
	pid     uint32
	name    string
	modules []ModuleInfo

	caves map[uintptr]*Cave

	log *logrus.Entry
}

// NewSession creates a Session with the default (real, platform-specific)
// OS bridge and the given Config. Pass DefaultConfig() for spec.md's
// documented defaults.
func NewSession(cfg Config) *Session {
	return newSessionWith(newOSBridge(), newProcessLister(), cfg)
}

func newSessionWith(os osBridge, procs processLister, cfg Config) *Session {
	return &Session{
		os:      os,
		procs:   procs,
		config:  cfg,
		diag:    NewDiagnosticLog(256),
		metrics: newSessionMetrics(),
		caves:   make(map[uintptr]*Cave),
		log:     log.WithField("session", "detached"),
	}
}

// Diagnostics returns the Session's accumulated Diagnostic log.
func (s *Session) Diagnostics() *DiagnosticLog { return s.diag }

// Attach enumerates local processes and opens the first whose image name
// matches name case-insensitively (spec.md §4.8). If a prior handle exists
// it is closed first. Returns false if no match is found or OpenProcess
// fails.
func (s *Session) Attach(name string) bool {
	if s.handle != 0 {
		s.Close()
	}
	if name == "" {
		s.diag.InvalidInput("Attach", "empty process name")
		return false
	}

	procs, ok := s.procs.ListProcesses()
	if !ok {
		s.diag.OSFailure("Attach", "failed to enumerate processes")
		return false
	}

	target := strings.ToLower(name)
	var pid uint32
	found := false
	for _, p := range procs {
		if strings.ToLower(p.ExeFile) == target {
			pid = p.PID
			found = true
			break
		}
	}
	if !found {
		s.diag.InvalidInput("Attach", "no process named "+name)
		return false
	}

	h, ok := s.os.OpenProcess(pid, s.config.Rights)
	if !ok {
		s.diag.OSFailure("Attach", "OpenProcess failed")
		return false
	}

	s.handle = h
	s.pid = pid
	s.name = name
	s.modules, _ = s.procs.ListModules(pid)
	s.log = log.WithFields(logrus.Fields{"session": name, "pid": pid})
	s.log.Info("attached")
	s.metrics.attaches.Inc()
	return true
}

// Close releases the handle and zeroes it. Idempotent: calling Close again
// (or on a never-attached Session) returns true.
func (s *Session) Close() bool {
	if s.handle == 0 {
		return true
	}
	ok := s.os.CloseHandle(s.handle)
	s.log.Info("closed")
	s.handle = 0
	s.pid = 0
	s.modules = nil
	s.log = log.WithField("session", "detached")
	return ok
}

// Handle returns the current handle, or zero if not attached.
func (s *Session) Handle() Handle { return s.handle }

// PID returns the attached process id, or zero if not attached.
func (s *Session) PID() uint32 { return s.pid }

// Active reports whether the Session currently holds a non-zero handle.
// Per spec.md §3's invariant, every core operation must check this before
// calling into the OS bridge with a potentially stale handle.
func (s *Session) Active() bool { return s.handle != 0 }

// Modules returns the module snapshot captured at Attach time.
func (s *Session) Modules() []ModuleInfo {
	out := make([]ModuleInfo, len(s.modules))
	copy(out, s.modules)
	return out
}

// Caves returns the non-load-bearing convenience registry of caves created
// through this Session (spec.md §9 Open Question: "No cave registry").
func (s *Session) Caves() []*Cave {
	out := make([]*Cave, 0, len(s.caves))
	for _, c := range s.caves {
		out = append(out, c)
	}
	return out
}
